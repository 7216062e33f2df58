package cart

import (
	"bytes"
	"encoding/gob"
)

// MBC1 implements the MBC1 mapper: 5-bit low ROM bank register, a
// shared 2-bit register that is either RAM bank or ROM bank high bits
// depending on mode, and the advanced/simple banking mode switch.
type MBC1 struct {
	rom []byte
	ram []byte

	romBankLo  byte // 0x2000-0x3FFF, 5 bits, 0 coerced to 1
	ramBank    byte // 0x4000-0x5FFF, 2 bits
	mode       byte // 0x6000-0x7FFF, 1 bit: 0=simple, 1=advanced
	ramEnabled bool

	romBankMask int
}

func NewMBC1(rom []byte, ramSize int) *MBC1 {
	m := &MBC1{rom: rom, romBankLo: 1}
	if ramSize > 0 {
		m.ram = make([]byte, ramSize)
	}
	banks := len(rom) / 0x4000
	mask := 1
	for mask < banks {
		mask <<= 1
	}
	m.romBankMask = mask - 1
	return m
}

func (m *MBC1) lowBank() int {
	if m.mode == 0 {
		return 0
	}
	return int(m.ramBank&0x03) << 5
}

func (m *MBC1) highBank() int {
	bank := int(m.romBankLo&0x1F) | (int(m.ramBank&0x03) << 5)
	return bank & m.romBankMask
}

func (m *MBC1) Read(addr uint16) byte {
	switch {
	case addr < 0x4000:
		off := m.lowBank()*0x4000 + int(addr)
		if off < len(m.rom) {
			return m.rom[off]
		}
		return 0xFF
	case addr < 0x8000:
		off := m.highBank()*0x4000 + int(addr-0x4000)
		if off < len(m.rom) {
			return m.rom[off]
		}
		return 0xFF
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled || len(m.ram) == 0 {
			return 0xFF
		}
		bank := 0
		if m.mode == 1 {
			bank = int(m.ramBank & 0x03)
		}
		off := bank*0x2000 + int(addr-0xA000)
		if off < len(m.ram) {
			return m.ram[off]
		}
		return 0xFF
	default:
		return 0xFF
	}
}

func (m *MBC1) Write(addr uint16, value byte) {
	switch {
	case addr < 0x2000:
		m.ramEnabled = value&0x0F == 0x0A
	case addr < 0x4000:
		v := value & 0x1F
		if v == 0 {
			v = 1
		}
		m.romBankLo = v
	case addr < 0x6000:
		m.ramBank = value & 0x03
	case addr < 0x8000:
		m.mode = value & 0x01
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled || len(m.ram) == 0 {
			return
		}
		bank := 0
		if m.mode == 1 {
			bank = int(m.ramBank & 0x03)
		}
		off := bank*0x2000 + int(addr-0xA000)
		if off < len(m.ram) {
			m.ram[off] = value
		}
	}
}

func (m *MBC1) Tick(cycles int) {}

type mbc1State struct {
	RAM        []byte
	RomBankLo  byte
	RamBank    byte
	Mode       byte
	RamEnabled bool
}

func (m *MBC1) Save() []byte {
	var buf bytes.Buffer
	_ = gob.NewEncoder(&buf).Encode(mbc1State{
		RAM: m.ram, RomBankLo: m.romBankLo, RamBank: m.ramBank,
		Mode: m.mode, RamEnabled: m.ramEnabled,
	})
	return buf.Bytes()
}

// BatteryData returns the raw RAM contents for persistence.
func (m *MBC1) BatteryData() []byte {
	if len(m.ram) == 0 {
		return nil
	}
	out := make([]byte, len(m.ram))
	copy(out, m.ram)
	return out
}

func (m *MBC1) LoadBattery(data []byte) {
	if len(m.ram) == 0 || len(data) == 0 {
		return
	}
	copy(m.ram, data)
}

func (m *MBC1) Load(data []byte) {
	var s mbc1State
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return
	}
	if len(s.RAM) == len(m.ram) {
		copy(m.ram, s.RAM)
	}
	m.romBankLo, m.ramBank, m.mode, m.ramEnabled = s.RomBankLo, s.RamBank, s.Mode, s.RamEnabled
}
