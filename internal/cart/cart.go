// Package cart implements cartridge address translation for the
// bank-switching mappers, a persistence pair for battery RAM (and
// RTC, where applicable), and a Tick hook for mappers whose internal
// state advances with the clock (MBC3's real-time clock).
package cart

// Cartridge is the bus-facing interface every mapper implements.
type Cartridge interface {
	Read(addr uint16) byte
	Write(addr uint16, value byte)
	Tick(cycles int)
	Save() []byte
	Load(data []byte)
}

// Battery is implemented by mappers with persistent external RAM: raw
// RAM for MBC1, RAM followed by the five RTC registers and an anchor
// epoch for MBC3.
type Battery interface {
	BatteryData() []byte
	LoadBattery(data []byte)
}

// New selects a mapper implementation from the cartridge header's
// type byte (0x147).
func New(rom []byte) Cartridge {
	h, err := ParseHeader(rom)
	if err != nil {
		return NewROMOnly(rom)
	}
	switch h.CartType {
	case 0x00, 0x08, 0x09:
		return NewROMOnly(rom)
	case 0x01, 0x02, 0x03:
		return NewMBC1(rom, h.RAMSizeBytes)
	case 0x0F, 0x10, 0x11, 0x12, 0x13:
		return NewMBC3(rom, h.RAMSizeBytes, h.CartType == 0x0F || h.CartType == 0x10)
	case 0x19, 0x1A, 0x1B, 0x1C, 0x1D, 0x1E:
		return NewMBC5(rom, h.RAMSizeBytes)
	default:
		return NewROMOnly(rom)
	}
}
