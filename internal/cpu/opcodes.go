package cpu

// execute dispatches one unprefixed opcode and returns its T-cycle cost.
func (c *CPU) execute(op byte) int {
	switch op {
	case 0x00: // NOP
		return 4
	case 0x10: // STOP: consumes a padding byte; resets DIV
		c.fetch8()
		c.bus.Timer().WriteDIV()
		return 4
	case 0x76: // HALT
		if !c.IME && c.pendingInterrupts() != 0 {
			c.haltBug = true
		} else {
			c.halted = true
		}
		return 4
	case 0xF3: // DI
		c.IME = false
		c.eiDelay = 0
		return 4
	case 0xFB: // EI
		c.eiDelay = 2
		return 4

	// LD r,d8
	case 0x06, 0x0E, 0x16, 0x1E, 0x26, 0x2E, 0x36, 0x3E:
		d := (op >> 3) & 7
		v := c.fetch8()
		c.setReg(d, v)
		if d == 6 {
			return 12
		}
		return 8

	// LD r,r' / LD (HL),r / LD r,(HL)
	case 0x40, 0x41, 0x42, 0x43, 0x44, 0x45, 0x46, 0x47,
		0x48, 0x49, 0x4A, 0x4B, 0x4C, 0x4D, 0x4E, 0x4F,
		0x50, 0x51, 0x52, 0x53, 0x54, 0x55, 0x56, 0x57,
		0x58, 0x59, 0x5A, 0x5B, 0x5C, 0x5D, 0x5E, 0x5F,
		0x60, 0x61, 0x62, 0x63, 0x64, 0x65, 0x66, 0x67,
		0x68, 0x69, 0x6A, 0x6B, 0x6C, 0x6D, 0x6E, 0x6F,
		0x70, 0x71, 0x72, 0x73, 0x74, 0x75, 0x77,
		0x78, 0x79, 0x7A, 0x7B, 0x7C, 0x7D, 0x7E, 0x7F:
		d := (op >> 3) & 7
		s := op & 7
		c.setReg(d, c.getReg(s))
		if d == 6 || s == 6 {
			return 8
		}
		return 4

	// 16-bit loads
	case 0x01:
		c.Reg.SetBC(c.fetch16())
		return 12
	case 0x11:
		c.Reg.SetDE(c.fetch16())
		return 12
	case 0x21:
		c.Reg.SetHL(c.fetch16())
		return 12
	case 0x31:
		c.Reg.SP = c.fetch16()
		return 12
	case 0x08: // LD (a16),SP
		addr := c.fetch16()
		c.write16(addr, c.Reg.SP)
		return 20

	case 0x02:
		c.write8(c.Reg.BC(), c.Reg.A)
		return 8
	case 0x12:
		c.write8(c.Reg.DE(), c.Reg.A)
		return 8
	case 0x0A:
		c.Reg.A = c.read8(c.Reg.BC())
		return 8
	case 0x1A:
		c.Reg.A = c.read8(c.Reg.DE())
		return 8

	case 0x22: // LD (HL+),A
		hl := c.Reg.HL()
		c.write8(hl, c.Reg.A)
		c.Reg.SetHL(hl + 1)
		return 8
	case 0x2A: // LD A,(HL+)
		hl := c.Reg.HL()
		c.Reg.A = c.read8(hl)
		c.Reg.SetHL(hl + 1)
		return 8
	case 0x32: // LD (HL-),A
		hl := c.Reg.HL()
		c.write8(hl, c.Reg.A)
		c.Reg.SetHL(hl - 1)
		return 8
	case 0x3A: // LD A,(HL-)
		hl := c.Reg.HL()
		c.Reg.A = c.read8(hl)
		c.Reg.SetHL(hl - 1)
		return 8

	case 0xE0: // LDH (a8),A
		n := uint16(c.fetch8())
		c.write8(0xFF00+n, c.Reg.A)
		return 12
	case 0xF0: // LDH A,(a8)
		n := uint16(c.fetch8())
		c.Reg.A = c.read8(0xFF00 + n)
		return 12
	case 0xE2: // LD (C),A
		c.write8(0xFF00+uint16(c.Reg.C), c.Reg.A)
		return 8
	case 0xF2: // LD A,(C)
		c.Reg.A = c.read8(0xFF00 + uint16(c.Reg.C))
		return 8
	case 0xEA: // LD (a16),A
		c.write8(c.fetch16(), c.Reg.A)
		return 16
	case 0xFA: // LD A,(a16)
		c.Reg.A = c.read8(c.fetch16())
		return 16

	// Rotates/flag ops on A
	case 0x07: // RLCA
		cy := (c.Reg.A >> 7) & 1
		c.Reg.A = (c.Reg.A << 1) | cy
		c.setZNHC(false, false, false, cy == 1)
		return 4
	case 0x0F: // RRCA
		cy := c.Reg.A & 1
		c.Reg.A = (c.Reg.A >> 1) | (cy << 7)
		c.setZNHC(false, false, false, cy == 1)
		return 4
	case 0x17: // RLA
		cy := (c.Reg.A >> 7) & 1
		cin := byte(0)
		if c.Reg.C() {
			cin = 1
		}
		c.Reg.A = (c.Reg.A << 1) | cin
		c.setZNHC(false, false, false, cy == 1)
		return 4
	case 0x1F: // RRA
		cy := c.Reg.A & 1
		cin := byte(0)
		if c.Reg.C() {
			cin = 1
		}
		c.Reg.A = (c.Reg.A >> 1) | (cin << 7)
		c.setZNHC(false, false, false, cy == 1)
		return 4
	case 0x27: // DAA
		a := c.Reg.A
		cf := c.Reg.C()
		if !c.Reg.N() {
			if cf || a > 0x99 {
				a += 0x60
				cf = true
			}
			if c.Reg.H() || (a&0x0F) > 9 {
				a += 0x06
			}
		} else {
			if cf {
				a -= 0x60
			}
			if c.Reg.H() {
				a -= 0x06
			}
		}
		c.Reg.A = a
		c.setZNHC(c.Reg.A == 0, c.Reg.N(), false, cf)
		return 4
	case 0x2F: // CPL
		c.Reg.A = ^c.Reg.A
		c.Reg.F = (c.Reg.F & 0x90) | 0x60
		return 4
	case 0x37: // SCF
		c.Reg.F = (c.Reg.F & 0x80) | 0x10
		return 4
	case 0x3F: // CCF
		cy := !c.Reg.C()
		c.Reg.F = (c.Reg.F & 0x80) | boolFlag(cy, 0x10)
		return 4

	// INC/DEC r
	case 0x04, 0x0C, 0x14, 0x1C, 0x24, 0x2C, 0x3C:
		return c.incReg((op >> 3) & 7)
	case 0x34:
		return c.incHLIndirect()
	case 0x05, 0x0D, 0x15, 0x1D, 0x25, 0x2D, 0x3D:
		return c.decReg((op >> 3) & 7)
	case 0x35:
		return c.decHLIndirect()

	// ALU A,r / A,(HL) / A,d8
	case 0x80, 0x81, 0x82, 0x83, 0x84, 0x85, 0x86, 0x87:
		return c.aluOp(add8op, op)
	case 0x88, 0x89, 0x8A, 0x8B, 0x8C, 0x8D, 0x8E, 0x8F:
		return c.aluOp(adc8op, op)
	case 0x90, 0x91, 0x92, 0x93, 0x94, 0x95, 0x96, 0x97:
		return c.aluOp(sub8op, op)
	case 0x98, 0x99, 0x9A, 0x9B, 0x9C, 0x9D, 0x9E, 0x9F:
		return c.aluOp(sbc8op, op)
	case 0xA0, 0xA1, 0xA2, 0xA3, 0xA4, 0xA5, 0xA6, 0xA7:
		return c.aluOp(and8op, op)
	case 0xA8, 0xA9, 0xAA, 0xAB, 0xAC, 0xAD, 0xAE, 0xAF:
		return c.aluOp(xor8op, op)
	case 0xB0, 0xB1, 0xB2, 0xB3, 0xB4, 0xB5, 0xB6, 0xB7:
		return c.aluOp(or8op, op)
	case 0xB8, 0xB9, 0xBA, 0xBB, 0xBC, 0xBD, 0xBE, 0xBF:
		s := op & 7
		z, n, h, cy := c.cp8(c.Reg.A, c.getReg(s))
		c.setZNHC(z, n, h, cy)
		if s == 6 {
			return 8
		}
		return 4

	case 0xC6:
		r, z, n, h, cy := c.add8(c.Reg.A, c.fetch8())
		c.Reg.A = r
		c.setZNHC(z, n, h, cy)
		return 8
	case 0xCE:
		r, z, n, h, cy := c.adc8(c.Reg.A, c.fetch8(), c.Reg.C())
		c.Reg.A = r
		c.setZNHC(z, n, h, cy)
		return 8
	case 0xD6:
		r, z, n, h, cy := c.sub8(c.Reg.A, c.fetch8())
		c.Reg.A = r
		c.setZNHC(z, n, h, cy)
		return 8
	case 0xDE:
		r, z, n, h, cy := c.sbc8(c.Reg.A, c.fetch8(), c.Reg.C())
		c.Reg.A = r
		c.setZNHC(z, n, h, cy)
		return 8
	case 0xE6:
		r, z, n, h, cy := c.and8(c.Reg.A, c.fetch8())
		c.Reg.A = r
		c.setZNHC(z, n, h, cy)
		return 8
	case 0xEE:
		r, z, n, h, cy := c.xor8(c.Reg.A, c.fetch8())
		c.Reg.A = r
		c.setZNHC(z, n, h, cy)
		return 8
	case 0xF6:
		r, z, n, h, cy := c.or8(c.Reg.A, c.fetch8())
		c.Reg.A = r
		c.setZNHC(z, n, h, cy)
		return 8
	case 0xFE:
		z, n, h, cy := c.cp8(c.Reg.A, c.fetch8())
		c.setZNHC(z, n, h, cy)
		return 8

	// Jumps/calls/returns
	case 0xC3:
		c.Reg.PC = c.fetch16()
		return 16
	case 0xE9:
		c.Reg.PC = c.Reg.HL()
		return 4
	case 0x18:
		off := int8(c.fetch8())
		c.Reg.PC = uint16(int32(c.Reg.PC) + int32(off))
		return 12
	case 0x20, 0x28, 0x30, 0x38:
		off := int8(c.fetch8())
		if c.condTaken(op) {
			c.Reg.PC = uint16(int32(c.Reg.PC) + int32(off))
			return 12
		}
		return 8
	case 0xCD:
		addr := c.fetch16()
		c.push16(c.Reg.PC)
		c.Reg.PC = addr
		return 24
	case 0xC4, 0xCC, 0xD4, 0xDC:
		addr := c.fetch16()
		if c.condTaken(op) {
			c.push16(c.Reg.PC)
			c.Reg.PC = addr
			return 24
		}
		return 12
	case 0xC9:
		c.Reg.PC = c.pop16()
		return 16
	case 0xD9:
		c.Reg.PC = c.pop16()
		c.IME = true
		return 16
	case 0xC0, 0xC8, 0xD0, 0xD8:
		if c.condTaken(op) {
			c.Reg.PC = c.pop16()
			return 20
		}
		return 8
	case 0xC2, 0xCA, 0xD2, 0xDA:
		addr := c.fetch16()
		if c.condTaken(op) {
			c.Reg.PC = addr
			return 16
		}
		return 12
	case 0xC7, 0xCF, 0xD7, 0xDF, 0xE7, 0xEF, 0xF7, 0xFF:
		c.push16(c.Reg.PC)
		c.Reg.PC = uint16(op - 0xC7)
		return 16

	// 16-bit INC/DEC, ADD HL,rr
	case 0x03:
		c.Reg.SetBC(c.Reg.BC() + 1)
		return 8
	case 0x13:
		c.Reg.SetDE(c.Reg.DE() + 1)
		return 8
	case 0x23:
		c.Reg.SetHL(c.Reg.HL() + 1)
		return 8
	case 0x33:
		c.Reg.SP++
		return 8
	case 0x0B:
		c.Reg.SetBC(c.Reg.BC() - 1)
		return 8
	case 0x1B:
		c.Reg.SetDE(c.Reg.DE() - 1)
		return 8
	case 0x2B:
		c.Reg.SetHL(c.Reg.HL() - 1)
		return 8
	case 0x3B:
		c.Reg.SP--
		return 8
	case 0x09, 0x19, 0x29, 0x39:
		return c.addHL(op)

	// Stack/SP arithmetic
	case 0xF8: // LD HL,SP+r8
		off := int8(c.fetch8())
		low := byte(c.Reg.SP & 0xFF)
		_, _, _, h, cy := c.add8(low, byte(off))
		c.Reg.SetHL(uint16(int32(int16(c.Reg.SP)) + int32(off)))
		c.setZNHC(false, false, h, cy)
		return 12
	case 0xF9:
		c.Reg.SP = c.Reg.HL()
		return 8
	case 0xE8: // ADD SP,r8
		off := int8(c.fetch8())
		low := byte(c.Reg.SP & 0xFF)
		_, _, _, h, cy := c.add8(low, byte(off))
		c.Reg.SP = uint16(int32(int16(c.Reg.SP)) + int32(off))
		c.setZNHC(false, false, h, cy)
		return 16

	case 0xCB:
		return c.executeCB(c.fetch8())

	// PUSH/POP
	case 0xF5:
		c.push16(c.Reg.AF())
		return 16
	case 0xC5:
		c.push16(c.Reg.BC())
		return 16
	case 0xD5:
		c.push16(c.Reg.DE())
		return 16
	case 0xE5:
		c.push16(c.Reg.HL())
		return 16
	case 0xF1:
		c.Reg.SetAF(c.pop16())
		return 12
	case 0xC1:
		c.Reg.SetBC(c.pop16())
		return 12
	case 0xD1:
		c.Reg.SetDE(c.pop16())
		return 12
	case 0xE1:
		c.Reg.SetHL(c.pop16())
		return 12

	default:
		// Illegal opcodes (0xD3/0xDB/0xDD/0xE3/0xE4/0xEB/0xEC/0xED/0xF4/0xFC/0xFD)
		// lock the real hardware; treated as a NOP-length no-op here.
		return 4
	}
}

func boolFlag(v bool, bit byte) byte {
	if v {
		return bit
	}
	return 0
}

// operand fetches the right-hand ALU operand for a 0x80-0xBF row opcode.
func (c *CPU) operand(op byte) byte { return c.getReg(op & 7) }

type aluKind int

const (
	add8op aluKind = iota
	adc8op
	sub8op
	sbc8op
	and8op
	xor8op
	or8op
)

func (c *CPU) aluOp(kind aluKind, op byte) int {
	rhs := c.operand(op)
	var r byte
	var z, n, h, cy bool
	switch kind {
	case add8op:
		r, z, n, h, cy = c.add8(c.Reg.A, rhs)
	case adc8op:
		r, z, n, h, cy = c.adc8(c.Reg.A, rhs, c.Reg.C())
	case sub8op:
		r, z, n, h, cy = c.sub8(c.Reg.A, rhs)
	case sbc8op:
		r, z, n, h, cy = c.sbc8(c.Reg.A, rhs, c.Reg.C())
	case and8op:
		r, z, n, h, cy = c.and8(c.Reg.A, rhs)
	case xor8op:
		r, z, n, h, cy = c.xor8(c.Reg.A, rhs)
	case or8op:
		r, z, n, h, cy = c.or8(c.Reg.A, rhs)
	}
	c.Reg.A = r
	c.setZNHC(z, n, h, cy)
	if op&7 == 6 {
		return 8
	}
	return 4
}

func (c *CPU) incReg(idx byte) int {
	old := c.getReg(idx)
	v := old + 1
	c.setReg(idx, v)
	c.setZNHC(v == 0, false, old&0x0F == 0x0F, c.Reg.C())
	return 4
}

func (c *CPU) decReg(idx byte) int {
	old := c.getReg(idx)
	v := old - 1
	c.setReg(idx, v)
	c.setZNHC(v == 0, true, old&0x0F == 0x00, c.Reg.C())
	return 4
}

func (c *CPU) incHLIndirect() int {
	addr := c.Reg.HL()
	old := c.read8(addr)
	v := old + 1
	c.write8(addr, v)
	c.setZNHC(v == 0, false, old&0x0F == 0x0F, c.Reg.C())
	return 12
}

func (c *CPU) decHLIndirect() int {
	addr := c.Reg.HL()
	old := c.read8(addr)
	v := old - 1
	c.write8(addr, v)
	c.setZNHC(v == 0, true, old&0x0F == 0x00, c.Reg.C())
	return 12
}

func (c *CPU) addHL(op byte) int {
	hl := c.Reg.HL()
	var rhs uint16
	switch op {
	case 0x09:
		rhs = c.Reg.BC()
	case 0x19:
		rhs = c.Reg.DE()
	case 0x29:
		rhs = hl
	case 0x39:
		rhs = c.Reg.SP
	}
	r := uint32(hl) + uint32(rhs)
	h := (hl&0x0FFF)+(rhs&0x0FFF) > 0x0FFF
	c.Reg.SetHL(uint16(r))
	c.setZNHC(c.Reg.Z(), false, h, r > 0xFFFF)
	return 8
}

// condTaken evaluates the condition code encoded in bits 4-3 of a
// conditional jump/call/ret opcode (NZ/Z/NC/C).
func (c *CPU) condTaken(op byte) bool {
	switch (op >> 3) & 3 {
	case 0:
		return !c.Reg.Z()
	case 1:
		return c.Reg.Z()
	case 2:
		return !c.Reg.C()
	default:
		return c.Reg.C()
	}
}
