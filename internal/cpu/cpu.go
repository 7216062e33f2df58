// Package cpu implements the SM83 fetch/decode/execute loop: the full
// 256-entry opcode table plus the 256-entry CB-prefixed table,
// interrupt dispatch with one-instruction EI delay, and HALT/STOP
// semantics including the HALT bug.
package cpu

import (
	"bytes"
	"encoding/gob"

	"github.com/dgmq/gbcore/internal/bus"
	"github.com/dgmq/gbcore/internal/registers"
)

// CPU is the SM83 core. It holds no memory of its own; every access
// goes through the bus.
type CPU struct {
	Reg registers.File

	IME     bool
	halted  bool
	haltBug bool // next fetch reads PC without advancing it

	// eiDelay counts the step boundaries remaining until a pending EI
	// takes effect: 2 when EI executes (so its own step's defer only
	// ticks it down to 1), 1 through the step after EI (ticks to 0 and
	// enables IME at that step's end), 0 when inactive. DI resets it to
	// 0, cancelling a still-pending EI.
	eiDelay int

	bus *bus.Bus
}

func New(b *bus.Bus) *CPU {
	return &CPU{bus: b}
}

func (c *CPU) Bus() *bus.Bus { return c.bus }

// PowerOn seeds post-boot-ROM register values for running without a
// boot ROM.
func (c *CPU) PowerOn() {
	c.Reg.PowerOn()
	c.IME = false
	c.halted = false
	c.haltBug = false
	c.eiDelay = 0
}

func (c *CPU) read8(addr uint16) byte     { return c.bus.Read(addr) }
func (c *CPU) write8(addr uint16, v byte) { c.bus.Write(addr, v) }

func (c *CPU) fetch8() byte {
	v := c.read8(c.Reg.PC)
	if c.haltBug {
		c.haltBug = false
	} else {
		c.Reg.PC++
	}
	return v
}

func (c *CPU) fetch16() uint16 {
	lo := uint16(c.fetch8())
	hi := uint16(c.fetch8())
	return lo | (hi << 8)
}

func (c *CPU) read16(addr uint16) uint16 {
	lo := uint16(c.read8(addr))
	hi := uint16(c.read8(addr + 1))
	return lo | (hi << 8)
}

func (c *CPU) write16(addr uint16, v uint16) {
	c.write8(addr, byte(v))
	c.write8(addr+1, byte(v>>8))
}

func (c *CPU) push16(v uint16) {
	c.Reg.SP -= 2
	c.write16(c.Reg.SP, v)
}

func (c *CPU) pop16() uint16 {
	v := c.read16(c.Reg.SP)
	c.Reg.SP += 2
	return v
}

// Step executes one instruction (or services one pending interrupt,
// or sleeps one HALT tick) and returns the T-cycles consumed.
func (c *CPU) Step() (cycles int) {
	defer func() {
		if cycles > 0 {
			c.bus.Tick(cycles)
		}
		if c.eiDelay > 0 {
			c.eiDelay--
			if c.eiDelay == 0 {
				c.IME = true
			}
		}
	}()

	if c.halted {
		if c.pendingInterrupts() != 0 {
			c.halted = false
			if c.IME {
				return c.serviceInterrupt()
			}
		} else {
			return 4
		}
	}

	if c.IME && c.pendingInterrupts() != 0 {
		return c.serviceInterrupt()
	}

	op := c.fetch8()
	return c.execute(op)
}

func (c *CPU) pendingInterrupts() byte {
	return c.bus.IE() & c.bus.IF() & 0x1F
}

// serviceInterrupt dispatches the highest-priority pending interrupt:
// VBlank(0), LCD STAT(1), Timer(2), Serial(3), Joypad(4).
func (c *CPU) serviceInterrupt() int {
	pending := c.pendingInterrupts()
	var bit int
	for bit = 0; bit < 5; bit++ {
		if pending&(1<<uint(bit)) != 0 {
			break
		}
	}
	c.bus.ClearIF(bit)
	c.IME = false
	c.push16(c.Reg.PC)
	c.Reg.PC = 0x40 + uint16(bit)*8
	return 20
}

func (c *CPU) setZNHC(z, n, h, cy bool) { c.Reg.SetFlags(z, n, h, cy) }

func (c *CPU) add8(a, b byte) (res byte, z, n, h, cy bool) {
	r := uint16(a) + uint16(b)
	res = byte(r)
	return res, res == 0, false, (a&0x0F)+(b&0x0F) > 0x0F, r > 0xFF
}

func (c *CPU) adc8(a, b byte, carryIn bool) (res byte, z, n, h, cy bool) {
	ci := byte(0)
	if carryIn {
		ci = 1
	}
	r := uint16(a) + uint16(b) + uint16(ci)
	res = byte(r)
	return res, res == 0, false, (a&0x0F)+(b&0x0F)+ci > 0x0F, r > 0xFF
}

func (c *CPU) sub8(a, b byte) (res byte, z, n, h, cy bool) {
	r := int16(a) - int16(b)
	res = byte(r)
	return res, res == 0, true, (a & 0x0F) < (b & 0x0F), a < b
}

func (c *CPU) sbc8(a, b byte, carryIn bool) (res byte, z, n, h, cy bool) {
	ci := byte(0)
	if carryIn {
		ci = 1
	}
	r := int16(a) - int16(b) - int16(ci)
	res = byte(r)
	return res, res == 0, true, (a & 0x0F) < (b&0x0F)+ci, int16(a) < int16(b)+int16(ci)
}

func (c *CPU) and8(a, b byte) (byte, bool, bool, bool, bool) {
	res := a & b
	return res, res == 0, false, true, false
}

func (c *CPU) xor8(a, b byte) (byte, bool, bool, bool, bool) {
	res := a ^ b
	return res, res == 0, false, false, false
}

func (c *CPU) or8(a, b byte) (byte, bool, bool, bool, bool) {
	res := a | b
	return res, res == 0, false, false, false
}

func (c *CPU) cp8(a, b byte) (z, n, h, cy bool) {
	_, z, n, h, cy = c.sub8(a, b)
	return
}

// getReg and setReg map the 3-bit register field of an opcode to a
// register, with index 6 meaning (HL).
func (c *CPU) getReg(idx byte) byte {
	switch idx {
	case 0:
		return c.Reg.B
	case 1:
		return c.Reg.C
	case 2:
		return c.Reg.D
	case 3:
		return c.Reg.E
	case 4:
		return c.Reg.H
	case 5:
		return c.Reg.L
	case 6:
		return c.read8(c.Reg.HL())
	default:
		return c.Reg.A
	}
}

func (c *CPU) setReg(idx byte, v byte) {
	switch idx {
	case 0:
		c.Reg.B = v
	case 1:
		c.Reg.C = v
	case 2:
		c.Reg.D = v
	case 3:
		c.Reg.E = v
	case 4:
		c.Reg.H = v
	case 5:
		c.Reg.L = v
	case 6:
		c.write8(c.Reg.HL(), v)
	default:
		c.Reg.A = v
	}
}

type state struct {
	A, F, B, C, D, E, H, L byte
	SP, PC                 uint16
	IME, Halted            bool
	HaltBug                bool
	EIDelay                int
}

func (c *CPU) Save() []byte {
	var buf bytes.Buffer
	_ = gob.NewEncoder(&buf).Encode(state{
		A: c.Reg.A, F: c.Reg.F, B: c.Reg.B, C: c.Reg.C,
		D: c.Reg.D, E: c.Reg.E, H: c.Reg.H, L: c.Reg.L,
		SP: c.Reg.SP, PC: c.Reg.PC,
		IME: c.IME, Halted: c.halted, HaltBug: c.haltBug, EIDelay: c.eiDelay,
	})
	return buf.Bytes()
}

func (c *CPU) Load(data []byte) {
	var s state
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return
	}
	c.Reg.A, c.Reg.F, c.Reg.B, c.Reg.C = s.A, s.F, s.B, s.C
	c.Reg.D, c.Reg.E, c.Reg.H, c.Reg.L = s.D, s.E, s.H, s.L
	c.Reg.SP, c.Reg.PC = s.SP, s.PC
	c.IME, c.halted, c.haltBug, c.eiDelay = s.IME, s.Halted, s.HaltBug, s.EIDelay
}
