package emu

import "testing"

func newTestMachine(t *testing.T) *Machine {
	t.Helper()
	rom := make([]byte, 0x8000)
	rom[0x0147] = 0x00 // ROM ONLY
	rom[0x0148] = 0x00 // 32KiB
	rom[0x0149] = 0x00 // no RAM
	m := New(Config{})
	if err := m.LoadCartridge(rom, nil, 44100); err != nil {
		t.Fatalf("LoadCartridge: %v", err)
	}
	return m
}

func TestLoadCartridgeSeedsPostBootState(t *testing.T) {
	m := newTestMachine(t)
	if m.cpu.Reg.PC != 0x0100 {
		t.Fatalf("PC = %#x, want 0x0100 without a boot ROM", m.cpu.Reg.PC)
	}
}

func TestStepFrameCompletesAndPushesFramebuffer(t *testing.T) {
	m := newTestMachine(t)
	m.StepFrame()
	fb := m.Framebuffer()
	if fb == nil {
		t.Fatalf("expected a non-nil framebuffer after one frame")
	}
}

func TestSaveStateLoadStateRoundTrip(t *testing.T) {
	m := newTestMachine(t)
	m.cpu.Reg.A = 0x42
	m.cpu.Reg.PC = 0x1234
	blob := m.SaveState()

	m2 := newTestMachine(t)
	if err := m2.LoadState(blob); err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	if m2.cpu.Reg.A != 0x42 || m2.cpu.Reg.PC != 0x1234 {
		t.Fatalf("restored CPU state = A:%#x PC:%#x, want A:0x42 PC:0x1234", m2.cpu.Reg.A, m2.cpu.Reg.PC)
	}
}

func TestJoypadPollReflectsSetButtons(t *testing.T) {
	m := newTestMachine(t)
	m.bus.Write(0xFF00, 0x10) // select the button group (A/B/Select/Start)
	m.SetButtons(Buttons{A: true})
	for i := 0; i < joypadPollPeriod+1; i++ {
		m.Step()
	}
	if m.bus.Joypad().Read()&0x0F == 0x0F {
		t.Fatalf("expected A button reflected in JOYP after a poll period")
	}
}
