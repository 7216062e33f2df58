// Package ppu implements the picture processing unit: the dot-based
// mode state machine, OAM scan, the BG/window/sprite pixel pipeline,
// and the STAT interrupt's edge detector.
package ppu

import (
	"bytes"
	"encoding/gob"
)

// Mode is the PPU's current scanline phase.
type Mode byte

const (
	ModeHBlank Mode = iota
	ModeVBlank
	ModeOAMScan
	ModeDrawing
)

const (
	dotsOAMScan  = 80
	dotsDrawing  = dotsOAMScan + 172
	dotsPerLine  = 456
	linesPerFrame = 154
	visibleLines  = 144

	ScreenWidth  = 160
	ScreenHeight = 144
)

// InterruptRequester raises an IF bit: 0 for VBlank, 1 for LCD/STAT.
type InterruptRequester func(bit int)

// FrameSink receives a completed frame as 160x144 color indices into
// the active palette (0-3), row-major. Implementations translate to
// whatever pixel format the host window wants.
type FrameSink interface {
	PushFrame(pixels *[ScreenHeight][ScreenWidth]byte)
}

// PPU owns VRAM, OAM, the LCDC/STAT register block, and scanline
// compositing.
type PPU struct {
	vram [0x2000]byte // 0x8000-0x9FFF
	oam  [0xA0]byte   // 0xFE00-0xFE9F

	lcdc byte
	stat byte
	scy  byte
	scx  byte
	ly   byte
	lyc  byte
	bgp  byte
	obp0 byte
	obp1 byte
	wy   byte
	wx   byte

	dot int

	wly             int  // window-line counter, increments only on lines the window actually drew
	windowTriggered bool // cleared at frame start and on LCD disable; nothing sets it, the window test compares LY with WY directly

	statLine bool // previous sampled level of the composite STAT IRQ line

	dmaLocked bool // OAM additionally locked by an in-flight DMA transfer

	sprites    [10]objectEntry
	numSprites int

	framebuffer [ScreenHeight][ScreenWidth]byte

	req  InterruptRequester
	sink FrameSink
}

func New(req InterruptRequester) *PPU { return &PPU{req: req} }

// SetFrameSink installs the destination for completed frames.
func (p *PPU) SetFrameSink(sink FrameSink) { p.sink = sink }

// SetOAMDMALocked is called by the bus while an OAM DMA transfer is
// in flight; OAM is inaccessible to the CPU for its duration
// regardless of PPU mode.
func (p *PPU) SetOAMDMALocked(locked bool) { p.dmaLocked = locked }

// WriteOAMByte is used by the DMA engine, which bypasses the normal
// CPU-facing lock checks (the DMA source is the bus, not the CPU).
func (p *PPU) WriteOAMByte(i int, v byte) { p.oam[i] = v }

func (p *PPU) mode() Mode { return Mode(p.stat & 0x03) }

func (p *PPU) vramLocked() bool { return p.mode() == ModeDrawing }
func (p *PPU) oamLocked() bool {
	if p.dmaLocked {
		return true
	}
	m := p.mode()
	return m == ModeOAMScan || m == ModeDrawing
}

// CPURead services VRAM, OAM and the FF40-FF4B register block.
func (p *PPU) CPURead(addr uint16) byte {
	switch {
	case addr >= 0x8000 && addr <= 0x9FFF:
		if p.vramLocked() {
			return 0xFF
		}
		return p.vram[addr-0x8000]
	case addr >= 0xFE00 && addr <= 0xFE9F:
		if p.oamLocked() {
			return 0xFF
		}
		return p.oam[addr-0xFE00]
	case addr == 0xFF40:
		return p.lcdc
	case addr == 0xFF41:
		return 0x80 | (p.stat & 0x7F)
	case addr == 0xFF42:
		return p.scy
	case addr == 0xFF43:
		return p.scx
	case addr == 0xFF44:
		return p.ly
	case addr == 0xFF45:
		return p.lyc
	case addr == 0xFF47:
		return p.bgp
	case addr == 0xFF48:
		return p.obp0
	case addr == 0xFF49:
		return p.obp1
	case addr == 0xFF4A:
		return p.wy
	case addr == 0xFF4B:
		return p.wx
	default:
		return 0xFF
	}
}

// CPUWrite services VRAM, OAM and the FF40-FF4B register block. LY
// (0xFF44) is read-only; writes to it are ignored.
func (p *PPU) CPUWrite(addr uint16, value byte) {
	switch {
	case addr >= 0x8000 && addr <= 0x9FFF:
		if p.vramLocked() {
			return
		}
		p.vram[addr-0x8000] = value
	case addr >= 0xFE00 && addr <= 0xFE9F:
		if p.oamLocked() {
			return
		}
		p.oam[addr-0xFE00] = value
	case addr == 0xFF40:
		prev := p.lcdc
		p.lcdc = value
		if prev&0x80 != 0 && value&0x80 == 0 {
			p.disableLCD()
		} else if prev&0x80 == 0 && value&0x80 != 0 {
			p.enableLCD()
		}
	case addr == 0xFF41:
		p.stat = (p.stat & 0x07) | (value & 0x78)
		p.evaluateSTATLine()
	case addr == 0xFF42:
		p.scy = value
	case addr == 0xFF43:
		p.scx = value
	case addr == 0xFF44:
		// read-only
	case addr == 0xFF45:
		p.lyc = value
		p.updateLYCFlag()
	case addr == 0xFF47:
		p.bgp = value
	case addr == 0xFF48:
		p.obp0 = value
	case addr == 0xFF49:
		p.obp1 = value
	case addr == 0xFF4A:
		p.wy = value
	case addr == 0xFF4B:
		p.wx = value
	}
}

func (p *PPU) disableLCD() {
	p.ly = 0
	p.dot = 0
	p.wly = 0
	p.windowTriggered = false
	p.setMode(ModeHBlank)
	p.updateLYCFlag()
	p.evaluateSTATLine()
}

func (p *PPU) enableLCD() {
	p.ly = 0
	p.dot = 0
	p.setMode(ModeOAMScan)
	p.updateLYCFlag()
	p.scanOAM()
}

// Tick advances the PPU by cycles T-cycles.
func (p *PPU) Tick(cycles int) {
	if p.lcdc&0x80 == 0 {
		return
	}
	for i := 0; i < cycles; i++ {
		p.tickDot()
	}
}

func (p *PPU) tickDot() {
	p.dot++

	if p.ly < visibleLines {
		switch {
		case p.dot == dotsOAMScan:
			p.setMode(ModeDrawing)
		case p.dot == dotsDrawing:
			p.renderLine()
			p.setMode(ModeHBlank)
		}
	}

	if p.dot >= dotsPerLine {
		p.dot = 0
		p.ly++
		if p.ly == visibleLines {
			p.setMode(ModeVBlank)
			if p.req != nil {
				p.req(0) // VBlank IF
			}
			if p.sink != nil {
				p.sink.PushFrame(&p.framebuffer)
			}
		} else if p.ly >= linesPerFrame {
			p.ly = 0
			p.wly = 0
			p.windowTriggered = false
			p.setMode(ModeOAMScan)
			p.scanOAM()
		} else if p.ly < visibleLines {
			p.setMode(ModeOAMScan)
			p.scanOAM()
		}
		p.updateLYCFlag()
	}
}

func (p *PPU) setMode(m Mode) {
	p.stat = (p.stat &^ 0x03) | byte(m)
	p.evaluateSTATLine()
}

func (p *PPU) updateLYCFlag() {
	if p.ly == p.lyc {
		p.stat |= 1 << 2
	} else {
		p.stat &^= 1 << 2
	}
	p.evaluateSTATLine()
}

// evaluateSTATLine recomputes the composite STAT IRQ line and raises the LCD interrupt only on its rising edge.
func (p *PPU) evaluateSTATLine() {
	m := p.mode()
	line := (p.stat&(1<<2) != 0 && p.stat&(1<<6) != 0) ||
		(m == ModeVBlank && p.stat&(1<<4) != 0) ||
		(m == ModeHBlank && p.stat&(1<<3) != 0) ||
		(m == ModeOAMScan && p.stat&(1<<5) != 0)

	if line && !p.statLine && p.req != nil {
		p.req(1)
	}
	p.statLine = line
}

func (p *PPU) Framebuffer() *[ScreenHeight][ScreenWidth]byte { return &p.framebuffer }

func (p *PPU) LCDC() byte { return p.lcdc }
func (p *PPU) BGP() byte  { return p.bgp }
func (p *PPU) OBP0() byte { return p.obp0 }
func (p *PPU) OBP1() byte { return p.obp1 }
func (p *PPU) SCY() byte  { return p.scy }
func (p *PPU) SCX() byte  { return p.scx }
func (p *PPU) WY() byte   { return p.wy }
func (p *PPU) WX() byte   { return p.wx }
func (p *PPU) LY() byte   { return p.ly }

type state struct {
	VRAM            [0x2000]byte
	OAM             [0xA0]byte
	LCDC, STAT      byte
	SCY, SCX        byte
	LY, LYC         byte
	BGP, OBP0, OBP1 byte
	WY, WX          byte
	Dot             int
	WLY             int
	WindowTriggered bool
	StatLine        bool
}

func (p *PPU) Save() []byte {
	var buf bytes.Buffer
	_ = gob.NewEncoder(&buf).Encode(state{
		VRAM: p.vram, OAM: p.oam,
		LCDC: p.lcdc, STAT: p.stat, SCY: p.scy, SCX: p.scx, LY: p.ly, LYC: p.lyc,
		BGP: p.bgp, OBP0: p.obp0, OBP1: p.obp1, WY: p.wy, WX: p.wx,
		Dot: p.dot, WLY: p.wly, WindowTriggered: p.windowTriggered, StatLine: p.statLine,
	})
	return buf.Bytes()
}

func (p *PPU) Load(data []byte) {
	var s state
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return
	}
	p.vram, p.oam = s.VRAM, s.OAM
	p.lcdc, p.stat, p.scy, p.scx, p.ly, p.lyc = s.LCDC, s.STAT, s.SCY, s.SCX, s.LY, s.LYC
	p.bgp, p.obp0, p.obp1, p.wy, p.wx = s.BGP, s.OBP0, s.OBP1, s.WY, s.WX
	p.dot, p.wly, p.windowTriggered, p.statLine = s.Dot, s.WLY, s.WindowTriggered, s.StatLine
}
