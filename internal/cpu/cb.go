package cpu

// executeCB dispatches one CB-prefixed opcode: rotate/shift/swap (group
// 0), BIT (group 1), RES (group 2), SET (group 3) over the 3-bit
// register field (6 means (HL)).
func (c *CPU) executeCB(cb byte) int {
	reg := cb & 7
	group := (cb >> 6) & 3
	y := (cb >> 3) & 7

	cycles := 8
	if reg == 6 {
		cycles = 16
	}

	switch group {
	case 0:
		v := c.getReg(reg)
		var cy byte
		switch y {
		case 0: // RLC
			cy = (v >> 7) & 1
			v = (v << 1) | cy
			c.setZNHC(v == 0, false, false, cy == 1)
		case 1: // RRC
			cy = v & 1
			v = (v >> 1) | (cy << 7)
			c.setZNHC(v == 0, false, false, cy == 1)
		case 2: // RL
			cy = (v >> 7) & 1
			cin := byte(0)
			if c.Reg.C() {
				cin = 1
			}
			v = (v << 1) | cin
			c.setZNHC(v == 0, false, false, cy == 1)
		case 3: // RR
			cy = v & 1
			cin := byte(0)
			if c.Reg.C() {
				cin = 1
			}
			v = (v >> 1) | (cin << 7)
			c.setZNHC(v == 0, false, false, cy == 1)
		case 4: // SLA
			cy = (v >> 7) & 1
			v <<= 1
			c.setZNHC(v == 0, false, false, cy == 1)
		case 5: // SRA (arithmetic: bit 7 preserved)
			cy = v & 1
			v = (v >> 1) | (v & 0x80)
			c.setZNHC(v == 0, false, false, cy == 1)
		case 6: // SWAP
			v = (v << 4) | (v >> 4)
			c.setZNHC(v == 0, false, false, false)
		case 7: // SRL
			cy = v & 1
			v >>= 1
			c.setZNHC(v == 0, false, false, cy == 1)
		}
		c.setReg(reg, v)
	case 1: // BIT y,r: Z=!bit, N=0, H=1, C unchanged
		v := c.getReg(reg)
		bitSet := v&(1<<y) != 0
		c.Reg.F = (c.Reg.F & 0x10) | 0x20
		if !bitSet {
			c.Reg.F |= 0x80
		}
		if reg == 6 {
			return 12
		}
		return 8
	case 2: // RES y,r
		v := c.getReg(reg)
		c.setReg(reg, v&^(1<<y))
	case 3: // SET y,r
		v := c.getReg(reg)
		c.setReg(reg, v|(1<<y))
	}
	return cycles
}
