package ppu

// objectEntry is one selected sprite for the current scanline, in the
// compositing order hardware requires: x ascending, then OAM index
// ascending.
type objectEntry struct {
	y, x      byte
	tile      byte
	attrs     byte
	oamIndex  int
}

func (o objectEntry) xFlip() bool     { return o.attrs&0x20 != 0 }
func (o objectEntry) yFlip() bool     { return o.attrs&0x40 != 0 }
func (o objectEntry) priority() bool  { return o.attrs&0x80 != 0 } // true: BG/window color 1-3 wins
func (o objectEntry) paletteOBP1() bool { return o.attrs&0x10 != 0 }

// scanOAM selects up to 10 sprites whose vertical range contains the
// current scanline, honoring 8px/16px height and the y<8 / y>=160
// degenerate-hide cases.
func (p *PPU) scanOAM() {
	p.numSprites = 0
	tall := p.lcdc&0x04 != 0
	height := byte(8)
	if tall {
		height = 16
	}
	ly := p.ly

	for i := 0; i < 40 && p.numSprites < 10; i++ {
		base := i * 4
		y := p.oam[base]
		if y == 0 || y >= 160 {
			continue
		}
		spriteTop := int(y) - 16
		if int(ly) < spriteTop || int(ly) >= spriteTop+int(height) {
			continue
		}
		x := p.oam[base+1]
		tile := p.oam[base+2]
		if tall {
			tile &^= 0x01
		}
		attrs := p.oam[base+3]
		p.sprites[p.numSprites] = objectEntry{y: y, x: x, tile: tile, attrs: attrs, oamIndex: i}
		p.numSprites++
	}

	// order by x ascending, then OAM index ascending
	for i := 1; i < p.numSprites; i++ {
		j := i
		for j > 0 && less(p.sprites[j], p.sprites[j-1]) {
			p.sprites[j], p.sprites[j-1] = p.sprites[j-1], p.sprites[j]
			j--
		}
	}
}

func less(a, b objectEntry) bool {
	if a.x != b.x {
		return a.x < b.x
	}
	return a.oamIndex < b.oamIndex
}

// spriteColorAt returns the sprite pixel covering screen column x on
// the current line, if any: its raw color index (1-3; 0 is
// transparent and never returned), palette selector and priority bit.
func (p *PPU) spriteColorAt(x int) (color byte, useOBP1 bool, bgWins bool, found bool) {
	if p.lcdc&0x02 == 0 {
		return 0, false, false, false
	}
	tall := p.lcdc&0x04 != 0
	height := 8
	if tall {
		height = 16
	}
	for i := 0; i < p.numSprites; i++ {
		s := p.sprites[i]
		spriteLeft := int(s.x) - 8
		if x < spriteLeft || x >= spriteLeft+8 {
			continue
		}
		col := x - spriteLeft
		if s.xFlip() {
			col = 7 - col
		}
		row := int(p.ly) - (int(s.y) - 16)
		if s.yFlip() {
			row = height - 1 - row
		}

		tile := s.tile
		base := uint16(0x8000) + uint16(tile)*16 + uint16(row)*2
		lo := p.vram[base-0x8000]
		hi := p.vram[base+1-0x8000]
		bit := 7 - byte(col)
		ci := ((hi>>bit)&1)<<1 | ((lo >> bit) & 1)
		if ci == 0 {
			continue // transparent, keep scanning lower-priority sprites
		}
		return ci, s.paletteOBP1(), s.priority(), true
	}
	return 0, false, false, false
}
