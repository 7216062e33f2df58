package cart

import (
	"bytes"
	"encoding/gob"
)

// clockFreqHz is the shared T-cycle clock the RTC advances against.
const clockFreqHz = 4194304

// rtc holds the five real-time-clock registers (S, M, H, DL, DH) MBC3
// exposes through the RAM window when the bank selector is 0x08-0x0C.
type rtc struct {
	S, M, H, DL, DH byte
	subSecondCycles int
}

func (c *rtc) tick(cycles int) {
	if c.DH&(1<<6) != 0 { // halted
		return
	}
	c.subSecondCycles += cycles
	for c.subSecondCycles >= clockFreqHz {
		c.subSecondCycles -= clockFreqHz
		c.advanceSecond()
	}
}

func (c *rtc) advanceSecond() {
	c.S++
	if c.S < 60 {
		return
	}
	c.S = 0
	c.M++
	if c.M < 60 {
		return
	}
	c.M = 0
	c.H++
	if c.H < 24 {
		return
	}
	c.H = 0
	day := uint16(c.DL) | uint16(c.DH&0x01)<<8
	day++
	if day > 0x1FF {
		day = 0
		c.DH |= 1 << 7 // day-carry flag
	}
	c.DL = byte(day)
	c.DH = (c.DH &^ 0x01) | byte(day>>8)
}

// MBC3 implements ROM/RAM banking plus the battery-backed real-time
// clock.
type MBC3 struct {
	rom []byte
	ram []byte

	ramEnabled bool
	romBank    byte // 7 bits, 0 coerced to 1
	bankSel    byte // 0x00-0x03 RAM bank, 0x08-0x0C RTC register select

	hasRTC    bool
	live      rtc
	latched   rtc
	latchEdge byte // last-written value of the 0x6000-0x7FFF latch register
}

func NewMBC3(rom []byte, ramSize int, hasRTC bool) *MBC3 {
	// latchEdge starts non-zero: the first latch needs a 0x00 write before the 0x01.
	m := &MBC3{rom: rom, romBank: 1, hasRTC: hasRTC, latchEdge: 0xFF}
	if ramSize > 0 {
		m.ram = make([]byte, ramSize)
	}
	return m
}

func (m *MBC3) Read(addr uint16) byte {
	switch {
	case addr < 0x4000:
		if int(addr) < len(m.rom) {
			return m.rom[addr]
		}
		return 0xFF
	case addr < 0x8000:
		bank := int(m.romBank & 0x7F)
		if bank == 0 {
			bank = 1
		}
		off := bank*0x4000 + int(addr-0x4000)
		if off < len(m.rom) {
			return m.rom[off]
		}
		return 0xFF
	case addr >= 0xA000 && addr <= 0xBFFF:
		if m.hasRTC && m.bankSel >= 0x08 && m.bankSel <= 0x0C {
			return m.latchedRegister()
		}
		if !m.ramEnabled || len(m.ram) == 0 {
			return 0xFF
		}
		bank := int(m.bankSel & 0x03)
		off := bank*0x2000 + int(addr-0xA000)
		if off < len(m.ram) {
			return m.ram[off]
		}
		return 0xFF
	default:
		return 0xFF
	}
}

func (m *MBC3) latchedRegister() byte {
	switch m.bankSel {
	case 0x08:
		return m.latched.S
	case 0x09:
		return m.latched.M
	case 0x0A:
		return m.latched.H
	case 0x0B:
		return m.latched.DL
	case 0x0C:
		return m.latched.DH
	default:
		return 0xFF
	}
}

func (m *MBC3) Write(addr uint16, value byte) {
	switch {
	case addr < 0x2000:
		m.ramEnabled = value&0x0F == 0x0A
	case addr < 0x4000:
		v := value & 0x7F
		if v == 0 {
			v = 1
		}
		m.romBank = v
	case addr < 0x6000:
		m.bankSel = value
	case addr < 0x8000:
		if m.hasRTC && m.latchEdge == 0x00 && value == 0x01 {
			m.latched = m.live
		}
		m.latchEdge = value
	case addr >= 0xA000 && addr <= 0xBFFF:
		if m.hasRTC && m.bankSel >= 0x08 && m.bankSel <= 0x0C {
			m.writeRTC(value)
			return
		}
		if !m.ramEnabled || len(m.ram) == 0 {
			return
		}
		bank := int(m.bankSel & 0x03)
		off := bank*0x2000 + int(addr-0xA000)
		if off < len(m.ram) {
			m.ram[off] = value
		}
	}
}

func (m *MBC3) writeRTC(value byte) {
	switch m.bankSel {
	case 0x08:
		m.live.S = value
	case 0x09:
		m.live.M = value
	case 0x0A:
		m.live.H = value
	case 0x0B:
		m.live.DL = value
	case 0x0C:
		m.live.DH = value
	}
}

func (m *MBC3) Tick(cycles int) {
	if m.hasRTC {
		m.live.tick(cycles)
	}
}

type mbc3State struct {
	RAM        []byte
	RamEnabled bool
	RomBank    byte
	BankSel    byte
	Live       rtc
	Latched    rtc
	LatchEdge  byte
}

func (m *MBC3) Save() []byte {
	var buf bytes.Buffer
	_ = gob.NewEncoder(&buf).Encode(mbc3State{
		RAM: m.ram, RamEnabled: m.ramEnabled, RomBank: m.romBank,
		BankSel: m.bankSel, Live: m.live, Latched: m.latched, LatchEdge: m.latchEdge,
	})
	return buf.Bytes()
}

func (m *MBC3) Load(data []byte) {
	var s mbc3State
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return
	}
	if len(s.RAM) == len(m.ram) {
		copy(m.ram, s.RAM)
	}
	m.ramEnabled, m.romBank, m.bankSel = s.RamEnabled, s.RomBank, s.BankSel
	m.live, m.latched, m.latchEdge = s.Live, s.Latched, s.LatchEdge
}

// BatteryData returns RAM concatenated with the five RTC registers and
// an anchor epoch. The anchor is not wall-clock time
// (the core has no clock source); it is a cycle-accumulator snapshot
// so a reload continues the clock from exactly where it left off.
func (m *MBC3) BatteryData() []byte {
	out := make([]byte, len(m.ram)+5+8)
	copy(out, m.ram)
	i := len(m.ram)
	out[i], out[i+1], out[i+2], out[i+3], out[i+4] =
		m.live.S, m.live.M, m.live.H, m.live.DL, m.live.DH
	i += 5
	sub := uint64(m.live.subSecondCycles)
	for b := 0; b < 8; b++ {
		out[i+b] = byte(sub >> (8 * b))
	}
	return out
}

func (m *MBC3) LoadBattery(data []byte) {
	if len(data) < len(m.ram) {
		return
	}
	copy(m.ram, data[:len(m.ram)])
	rest := data[len(m.ram):]
	if len(rest) < 5 {
		return
	}
	m.live.S, m.live.M, m.live.H, m.live.DL, m.live.DH = rest[0], rest[1], rest[2], rest[3], rest[4]
	if len(rest) >= 13 {
		var sub uint64
		for b := 0; b < 8; b++ {
			sub |= uint64(rest[5+b]) << (8 * b)
		}
		m.live.subSecondCycles = int(sub)
	}
}
