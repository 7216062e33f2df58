// Package bus implements the 16-bit address space arbitration:
// region routing to the cartridge, WRAM, HRAM, PPU and APU register
// blocks, the OAM-DMA engine, and
// interrupt-flag aggregation. DIV/TIMA live in internal/timer and the
// JOYP matrix in internal/joypad; the bus owns both and exposes their
// register windows, but the orchestrator ticks the PPU and APU itself
// rather than the bus nesting those ticks.
package bus

import (
	"bytes"
	"encoding/gob"
	"io"

	"github.com/dgmq/gbcore/internal/apu"
	"github.com/dgmq/gbcore/internal/cart"
	"github.com/dgmq/gbcore/internal/joypad"
	"github.com/dgmq/gbcore/internal/ppu"
	"github.com/dgmq/gbcore/internal/timer"
)

// Bus is the memory-mapped heart of the core: it owns WRAM, HRAM, the
// interrupt-flag registers, the OAM-DMA engine, the cartridge it is
// given, and the PPU, APU, timer and joypad that New constructs.
type Bus struct {
	cart cart.Cartridge

	wram [0x2000]byte // 0xC000-0xDFFF, echoed at 0xE000-0xFDFF
	hram [0x7F]byte   // 0xFF80-0xFFFE

	ppu   *ppu.PPU
	apu   *apu.APU
	timer *timer.Timer
	joy   *joypad.Joypad

	ie    byte // 0xFFFF
	ifReg byte // 0xFF0F, low 5 bits

	sb byte // 0xFF01
	sc byte // 0xFF02
	sw io.Writer

	dma       byte
	dmaActive bool
	dmaSrc    uint16
	dmaIndex  int

	bootROM     []byte
	bootEnabled bool
}

// New wires a Bus around the given cartridge, constructing the PPU,
// APU, timer and joypad and hooking their interrupt lines to IF.
func New(c cart.Cartridge, sampleRate int) *Bus {
	b := &Bus{cart: c}
	b.ppu = ppu.New(func(bit int) { b.RequestInterrupt(bit) })
	b.apu = apu.New(sampleRate)
	b.timer = timer.New(func() { b.RequestInterrupt(2) })
	b.joy = joypad.New(func() { b.RequestInterrupt(4) })
	return b
}

func (b *Bus) PPU() *ppu.PPU           { return b.ppu }
func (b *Bus) APU() *apu.APU           { return b.apu }
func (b *Bus) Timer() *timer.Timer     { return b.timer }
func (b *Bus) Joypad() *joypad.Joypad  { return b.joy }
func (b *Bus) Cart() cart.Cartridge    { return b.cart }
func (b *Bus) SetSerialWriter(w io.Writer) { b.sw = w }

// RequestInterrupt sets IF bit `bit` (0 VBlank, 1 LCD, 2 Timer, 3
// Serial, 4 Joypad).
func (b *Bus) RequestInterrupt(bit int) { b.ifReg |= 1 << uint(bit) }

// IF and IE expose the raw interrupt registers for the CPU's
// servicing loop.
func (b *Bus) IF() byte      { return b.ifReg & 0x1F }
func (b *Bus) IE() byte      { return b.ie }
func (b *Bus) ClearIF(bit int) { b.ifReg &^= 1 << uint(bit) }

// SetBootROM installs a 256-byte boot ROM overlaid at 0x0000-0x00FF
// until a non-zero write to 0xFF50 disables it.
func (b *Bus) SetBootROM(data []byte) {
	b.bootROM = nil
	b.bootEnabled = false
	if len(data) >= 0x100 {
		b.bootROM = make([]byte, 0x100)
		copy(b.bootROM, data[:0x100])
		b.bootEnabled = true
	}
}

func (b *Bus) Read(addr uint16) byte {
	switch {
	case addr < 0x8000:
		if b.bootEnabled && addr < 0x0100 {
			return b.bootROM[addr]
		}
		return b.cart.Read(addr)
	case addr >= 0x8000 && addr <= 0x9FFF:
		return b.ppu.CPURead(addr)
	case addr >= 0xA000 && addr <= 0xBFFF:
		return b.cart.Read(addr)
	case addr >= 0xC000 && addr <= 0xDFFF:
		return b.wram[addr-0xC000]
	case addr >= 0xE000 && addr <= 0xFDFF:
		return b.wram[addr-0x2000-0xC000]
	case addr >= 0xFE00 && addr <= 0xFE9F:
		if b.dmaActive {
			return 0xFF
		}
		return b.ppu.CPURead(addr)
	case addr >= 0xFF80 && addr <= 0xFFFE:
		return b.hram[addr-0xFF80]
	case addr == 0xFFFF:
		return b.ie
	case addr == 0xFF0F:
		return 0xE0 | (b.ifReg & 0x1F)
	case addr == 0xFF00:
		return b.joy.Read()
	case addr == 0xFF01:
		return b.sb
	case addr == 0xFF02:
		return 0x7E | (b.sc & 0x81)
	case addr == 0xFF04:
		return b.timer.DIV()
	case addr == 0xFF05:
		return b.timer.TIMA()
	case addr == 0xFF06:
		return b.timer.TMA()
	case addr == 0xFF07:
		return b.timer.TAC()
	case addr >= 0xFF10 && addr <= 0xFF3F:
		return b.apu.CPURead(addr)
	case addr == 0xFF40, addr == 0xFF41, addr == 0xFF42, addr == 0xFF43,
		addr == 0xFF44, addr == 0xFF45, addr == 0xFF47, addr == 0xFF48,
		addr == 0xFF49, addr == 0xFF4A, addr == 0xFF4B:
		return b.ppu.CPURead(addr)
	case addr == 0xFF46:
		return b.dma
	case addr == 0xFF50:
		return 0xFF
	default:
		return 0xFF
	}
}

func (b *Bus) Write(addr uint16, value byte) {
	switch {
	case addr < 0x8000:
		b.cart.Write(addr, value)
	case addr >= 0x8000 && addr <= 0x9FFF:
		b.ppu.CPUWrite(addr, value)
	case addr >= 0xA000 && addr <= 0xBFFF:
		b.cart.Write(addr, value)
	case addr >= 0xC000 && addr <= 0xDFFF:
		b.wram[addr-0xC000] = value
	case addr >= 0xE000 && addr <= 0xFDFF:
		b.wram[addr-0x2000-0xC000] = value
	case addr >= 0xFE00 && addr <= 0xFE9F:
		if b.dmaActive {
			return
		}
		b.ppu.CPUWrite(addr, value)
	case addr >= 0xFF80 && addr <= 0xFFFE:
		b.hram[addr-0xFF80] = value
	case addr == 0xFFFF:
		b.ie = value
	case addr == 0xFF0F:
		b.ifReg = value & 0x1F
	case addr == 0xFF00:
		b.joy.WriteSelect(value)
	case addr == 0xFF01:
		b.sb = value
	case addr == 0xFF02:
		b.writeSC(value)
	case addr == 0xFF04:
		b.timer.WriteDIV()
	case addr == 0xFF05:
		b.timer.WriteTIMA(value)
	case addr == 0xFF06:
		b.timer.WriteTMA(value)
	case addr == 0xFF07:
		b.timer.WriteTAC(value)
	case addr >= 0xFF10 && addr <= 0xFF3F:
		b.apu.CPUWrite(addr, value)
	case addr == 0xFF40, addr == 0xFF41, addr == 0xFF42, addr == 0xFF43,
		addr == 0xFF44, addr == 0xFF45, addr == 0xFF47, addr == 0xFF48,
		addr == 0xFF49, addr == 0xFF4A, addr == 0xFF4B:
		b.ppu.CPUWrite(addr, value)
	case addr == 0xFF46:
		b.dma = value
		if b.dmaActive {
			return
		}
		b.dmaActive = true
		b.dmaSrc = uint16(value) << 8
		b.dmaIndex = 0
		b.ppu.SetOAMDMALocked(true)
	case addr == 0xFF50:
		if value != 0x00 {
			b.bootEnabled = false
		}
	}
}

func (b *Bus) writeSC(value byte) {
	b.sc = value & 0x81
	if b.sc&0x80 == 0 {
		return
	}
	if b.sw != nil {
		_, _ = b.sw.Write([]byte{b.sb})
	}
	b.RequestInterrupt(3)
	b.sc &^= 0x80
}

// Tick advances the bus-owned subsystems that are not separately
// ticked by the orchestrator: the DIV/TIMA timer, the cartridge
// (MBC3's real-time clock) and the OAM-DMA engine.
func (b *Bus) Tick(cycles int) {
	b.timer.Tick(cycles)
	b.cart.Tick(cycles)
	for i := 0; i < cycles && b.dmaActive; i++ {
		v := b.Read(b.dmaSrc + uint16(b.dmaIndex))
		b.ppu.WriteOAMByte(b.dmaIndex, v)
		b.dmaIndex++
		if b.dmaIndex >= 0xA0 {
			b.dmaActive = false
			b.ppu.SetOAMDMALocked(false)
		}
	}
}

type state struct {
	WRAM        [0x2000]byte
	HRAM        [0x7F]byte
	IE, IF      byte
	SB, SC      byte
	DMA         byte
	DMAActive   bool
	DMASrc      uint16
	DMAIdx      int
	BootEnabled bool
}

// Save serializes bus-owned state only; callers must separately save
// the cartridge, PPU, APU, timer and joypad.
func (b *Bus) Save() []byte {
	var buf bytes.Buffer
	_ = gob.NewEncoder(&buf).Encode(state{
		WRAM: b.wram, HRAM: b.hram, IE: b.ie, IF: b.ifReg,
		SB: b.sb, SC: b.sc, DMA: b.dma, DMAActive: b.dmaActive,
		DMASrc: b.dmaSrc, DMAIdx: b.dmaIndex, BootEnabled: b.bootEnabled,
	})
	return buf.Bytes()
}

func (b *Bus) Load(data []byte) {
	var s state
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return
	}
	b.wram, b.hram = s.WRAM, s.HRAM
	b.ie, b.ifReg = s.IE, s.IF
	b.sb, b.sc = s.SB, s.SC
	b.dma, b.dmaActive, b.dmaSrc, b.dmaIndex = s.DMA, s.DMAActive, s.DMASrc, s.DMAIdx
	b.bootEnabled = s.BootEnabled
	b.ppu.SetOAMDMALocked(b.dmaActive)
}
