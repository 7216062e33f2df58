// Package emu wires the CPU, bus, PPU, APU, timer, joypad and
// cartridge into the shared-clock loop: each CPU step's T-cycles
// drive the bus (timer + OAM DMA + cartridge RTC, ticked internally
// by cpu.Step), then the PPU and the APU (the APU's frame sequencer
// driven by the timer's DIV-bit-4 edges from that same step), then a
// periodic joypad poll.
package emu

import (
	"bytes"
	"encoding/gob"
	"io"
	"log"
	"os"

	"github.com/dgmq/gbcore/internal/bus"
	"github.com/dgmq/gbcore/internal/cart"
	"github.com/dgmq/gbcore/internal/cpu"
	"github.com/dgmq/gbcore/internal/joypad"
	"github.com/dgmq/gbcore/internal/ppu"
)

// Buttons is the host-facing snapshot of pressed buttons, polled into
// the joypad matrix roughly every 7022 T-cycles.
type Buttons struct {
	A, B, Start, Select   bool
	Up, Down, Left, Right bool
}

// Config holds emulation-affecting flags for the core.
type Config struct {
	Trace    bool // log PC, opcode and registers before each Step
	LimitFPS bool // not read by the core; StepFrame runs unthrottled whatever its value
}

const joypadPollPeriod = 7022

// Machine is the orchestrator: it owns the cartridge, bus and CPU and
// drives them in lock-step.
type Machine struct {
	cfg Config

	cart cart.Cartridge
	bus  *bus.Bus
	cpu  *cpu.CPU

	pollAccum int
	buttons   Buttons

	frameReady bool
	sink       ppu.FrameSink
}

func New(cfg Config) *Machine {
	return &Machine{cfg: cfg}
}

// LoadCartridge parses the ROM header, selects a mapper, and wires a
// fresh bus and CPU around it. A non-empty boot ROM is overlaid at
// 0x0000-0x00FF; otherwise the CPU starts in the documented post-boot
// register state, with LCDC and BGP at their post-boot values.
func (m *Machine) LoadCartridge(rom []byte, boot []byte, sampleRate int) error {
	if _, err := cart.ParseHeader(rom); err != nil {
		return err
	}
	c := cart.New(rom)
	m.cart = c
	m.bus = bus.New(c, sampleRate)
	m.bus.PPU().SetFrameSink(m)
	m.cpu = cpu.New(m.bus)
	if len(boot) >= 0x100 {
		m.bus.SetBootROM(boot)
		m.cpu.Reg.PC = 0x0000
	} else {
		m.cpu.PowerOn()
		m.bus.Write(0xFF40, 0x91) // LCD and background on
		m.bus.Write(0xFF47, 0xFC)
	}
	return nil
}

// LoadROMFromFile reads a ROM (and optional boot ROM) from disk and
// wires up a Machine around them; a convenience wrapper for tools and
// conformance tests.
func (m *Machine) LoadROMFromFile(romPath string, bootPath string, sampleRate int) error {
	rom, err := os.ReadFile(romPath)
	if err != nil {
		return err
	}
	var boot []byte
	if bootPath != "" {
		boot, err = os.ReadFile(bootPath)
		if err != nil {
			return err
		}
	}
	return m.LoadCartridge(rom, boot, sampleRate)
}

// PushFrame implements ppu.FrameSink; it forwards to any installed
// sink and flags that StepFrame should return.
func (m *Machine) PushFrame(pix *[ppu.ScreenHeight][ppu.ScreenWidth]byte) {
	m.frameReady = true
	if m.sink != nil {
		m.sink.PushFrame(pix)
	}
}

func (m *Machine) SetFrameSink(sink ppu.FrameSink) { m.sink = sink }
func (m *Machine) SetAudioReady(fn func(left, right []int16)) {
	m.bus.APU().SetReadyFunc(fn)
}
func (m *Machine) SetSerialWriter(w io.Writer) { m.bus.SetSerialWriter(w) }
func (m *Machine) SetButtons(b Buttons)        { m.buttons = b }

func (m *Machine) Bus() *bus.Bus { return m.bus }
func (m *Machine) CPU() *cpu.CPU { return m.cpu }

func (m *Machine) buttonMask() byte {
	var mask byte
	if m.buttons.A {
		mask |= joypad.A
	}
	if m.buttons.B {
		mask |= joypad.B
	}
	if m.buttons.Select {
		mask |= joypad.Select
	}
	if m.buttons.Start {
		mask |= joypad.Start
	}
	if m.buttons.Right {
		mask |= joypad.Right
	}
	if m.buttons.Left {
		mask |= joypad.Left
	}
	if m.buttons.Up {
		mask |= joypad.Up
	}
	if m.buttons.Down {
		mask |= joypad.Down
	}
	return mask
}

// Step executes one CPU instruction (or interrupt dispatch, or a HALT
// sleep tick) and advances the PPU, APU and joypad poll the same
// number of T-cycles.
func (m *Machine) Step() int {
	if m.cfg.Trace {
		r := &m.cpu.Reg
		log.Printf("PC=%04X op=%02X AF=%04X BC=%04X DE=%04X HL=%04X SP=%04X",
			r.PC, m.bus.Read(r.PC), r.AF(), r.BC(), r.DE(), r.HL(), r.SP)
	}
	cycles := m.cpu.Step()
	fsEdges := m.bus.Timer().ConsumeFrameSequencerEdges()
	m.bus.PPU().Tick(cycles)
	m.bus.APU().Tick(cycles, fsEdges)
	m.pollAccum += cycles
	if m.pollAccum >= joypadPollPeriod {
		m.pollAccum -= joypadPollPeriod
		m.bus.Joypad().SetState(m.buttonMask())
	}
	return cycles
}

// StepFrame runs the core until one complete frame has been pushed to
// the frame sink.
func (m *Machine) StepFrame() {
	m.frameReady = false
	for !m.frameReady {
		m.Step()
	}
}

// Framebuffer exposes the PPU's current completed frame.
func (m *Machine) Framebuffer() *[ppu.ScreenHeight][ppu.ScreenWidth]byte {
	return m.bus.PPU().Framebuffer()
}

// BatteryRAM returns the cartridge's persistent save RAM, if any.
func (m *Machine) BatteryRAM() ([]byte, bool) {
	bat, ok := m.cart.(cart.Battery)
	if !ok {
		return nil, false
	}
	return bat.BatteryData(), true
}

// LoadBatteryRAM restores previously persisted save RAM.
func (m *Machine) LoadBatteryRAM(data []byte) {
	if bat, ok := m.cart.(cart.Battery); ok {
		bat.LoadBattery(data)
	}
}

type snapshot struct {
	CPU, Bus, Cart, PPU, APU, Timer, Joypad []byte
}

// SaveState captures every component's state into a single opaque
// blob, layering each component's own gob-encoded Save() output.
func (m *Machine) SaveState() []byte {
	s := snapshot{
		CPU:    m.cpu.Save(),
		Bus:    m.bus.Save(),
		Cart:   m.cart.Save(),
		PPU:    m.bus.PPU().Save(),
		APU:    m.bus.APU().Save(),
		Timer:  m.bus.Timer().Save(),
		Joypad: m.bus.Joypad().Save(),
	}
	var buf bytes.Buffer
	_ = gob.NewEncoder(&buf).Encode(s)
	return buf.Bytes()
}

// LoadState restores a blob produced by SaveState.
func (m *Machine) LoadState(data []byte) error {
	var s snapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return err
	}
	m.cpu.Load(s.CPU)
	m.bus.Load(s.Bus)
	m.cart.Load(s.Cart)
	m.bus.PPU().Load(s.PPU)
	m.bus.APU().Load(s.APU)
	m.bus.Timer().Load(s.Timer)
	m.bus.Joypad().Load(s.Joypad)
	return nil
}
