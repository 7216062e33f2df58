// Package joypad implements the JOYP input matrix: an 8-bit
// pressed-button shadow multiplexed through a 2-bit selector, with
// edge-triggered interrupt delivery.
package joypad

import (
	"bytes"
	"encoding/gob"
)

// Button bitmasks for SetState. A set bit means the button is
// currently held down.
const (
	Right = 1 << 0
	Left  = 1 << 1
	Up    = 1 << 2
	Down  = 1 << 3
	A     = 1 << 4
	B     = 1 << 5
	Select = 1 << 6
	Start  = 1 << 7
)

// Joypad holds the pressed-button shadow and the JOYP selector bits,
// and raises an interrupt on any not-pressed-to-pressed transition in
// the currently selected nibble.
type Joypad struct {
	pressed  byte // bit set = pressed
	selector byte // bits 5-4 as last written

	prevLower4 byte // last computed active-low nibble, for edge detection

	requestInterrupt func()
}

func New(requestInterrupt func()) *Joypad {
	j := &Joypad{selector: 0x30, requestInterrupt: requestInterrupt}
	j.prevLower4 = j.lower4()
	return j
}

// SetState replaces the pressed-button shadow (set bits = pressed) and
// re-evaluates the interrupt edge.
func (j *Joypad) SetState(mask byte) {
	j.pressed = mask
	j.updateIRQ()
}

// WriteSelect updates JOYP bits 5-4; bits 0-3 are read-only matrix
// output and ignored here.
func (j *Joypad) WriteSelect(value byte) {
	j.selector = value & 0x30
	j.updateIRQ()
}

// Read returns the full JOYP byte: bits 7-6 fixed high, bits 5-4 the
// selector, bits 3-0 the active-low matrix output for whichever
// nibble(s) are selected.
func (j *Joypad) Read() byte {
	return 0xC0 | j.selector | j.lower4()
}

// lower4 computes the active-low 4-bit matrix output: a bit is 0 when
// the corresponding button is pressed and its group is selected.
func (j *Joypad) lower4() byte {
	var out byte = 0x0F
	if j.selector&0x10 == 0 { // d-pad selected
		if j.pressed&Right != 0 {
			out &^= 1 << 0
		}
		if j.pressed&Left != 0 {
			out &^= 1 << 1
		}
		if j.pressed&Up != 0 {
			out &^= 1 << 2
		}
		if j.pressed&Down != 0 {
			out &^= 1 << 3
		}
	}
	if j.selector&0x20 == 0 { // buttons selected
		if j.pressed&A != 0 {
			out &^= 1 << 0
		}
		if j.pressed&B != 0 {
			out &^= 1 << 1
		}
		if j.pressed&Select != 0 {
			out &^= 1 << 2
		}
		if j.pressed&Start != 0 {
			out &^= 1 << 3
		}
	}
	return out
}

// updateIRQ fires on any 1->0 transition of the active-low matrix
// output, i.e. any newly pressed, currently-selected button.
func (j *Joypad) updateIRQ() {
	newLower := j.lower4()
	fallen := j.prevLower4 &^ newLower
	if fallen != 0 && j.requestInterrupt != nil {
		j.requestInterrupt()
	}
	j.prevLower4 = newLower
}

type state struct {
	Pressed    byte
	Selector   byte
	PrevLower4 byte
}

func (j *Joypad) Save() []byte {
	var buf bytes.Buffer
	_ = gob.NewEncoder(&buf).Encode(state{Pressed: j.pressed, Selector: j.selector, PrevLower4: j.prevLower4})
	return buf.Bytes()
}

func (j *Joypad) Load(data []byte) {
	var s state
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return
	}
	j.pressed, j.selector, j.prevLower4 = s.Pressed, s.Selector, s.PrevLower4
}
