package joypad

import "testing"

func TestReadNoButtonsPressed(t *testing.T) {
	j := New(nil)
	j.WriteSelect(0x00) // both groups selected
	if got := j.Read(); got != 0xCF {
		t.Fatalf("Read() = %#x, want 0xCF with nothing pressed", got)
	}
}

func TestReadDPadSelected(t *testing.T) {
	j := New(nil)
	j.SetState(Right | A) // A should not show since buttons not selected
	j.WriteSelect(0x20)   // select d-pad group (bit4=0)
	if got := j.Read(); got != 0xEE {
		t.Fatalf("Read() = %#x, want 0xEE (Right pressed in d-pad nibble)", got)
	}
}

func TestReadButtonsSelected(t *testing.T) {
	j := New(nil)
	j.SetState(A)
	j.WriteSelect(0x10) // select buttons group (bit5=0)
	if got := j.Read(); got != 0xDE {
		t.Fatalf("Read() = %#x, want 0xDE (A pressed in buttons nibble)", got)
	}
}

func TestUnselectedGroupReadsAllOnes(t *testing.T) {
	j := New(nil)
	j.SetState(A | B | Select | Start)
	j.WriteSelect(0x20) // d-pad group selected, buttons not
	if got := j.Read() & 0x0F; got != 0x0F {
		t.Fatalf("lower nibble = %#x, want 0x0F when buttons unselected", got)
	}
}

func TestInterruptFiresOnNewlyPressedSelectedButton(t *testing.T) {
	fired := 0
	j := New(func() { fired++ })
	j.WriteSelect(0x20) // d-pad selected
	j.SetState(Right)
	if fired != 1 {
		t.Fatalf("fired = %d, want 1 on the press edge", fired)
	}
	j.SetState(Right) // already pressed, no new edge
	if fired != 1 {
		t.Fatalf("fired = %d, want still 1 (no new edge)", fired)
	}
}

func TestInterruptDoesNotFireForUnselectedGroup(t *testing.T) {
	fired := 0
	j := New(func() { fired++ })
	j.WriteSelect(0x10) // buttons selected, d-pad not
	j.SetState(Right)   // a d-pad press while d-pad unselected
	if fired != 0 {
		t.Fatalf("fired = %d, want 0 for an unselected group's button", fired)
	}
}

func TestSelectBitsOnlyWritableField(t *testing.T) {
	j := New(nil)
	j.WriteSelect(0xFF)
	if j.selector != 0x30 {
		t.Fatalf("selector = %#x, want only bits 5-4 retained", j.selector)
	}
}
