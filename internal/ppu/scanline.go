package ppu

// renderLine composes one full scanline (background, window, sprite)
// into the framebuffer, following the four-step pixel pipeline.
func (p *PPU) renderLine() {
	if p.ly >= visibleLines {
		return
	}
	bg := p.renderBackgroundLine()
	windowDrawnThisLine := p.overlayWindowLine(&bg)

	bgEnabled := p.lcdc&0x01 != 0
	row := &p.framebuffer[p.ly]

	for x := 0; x < ScreenWidth; x++ {
		bgColor := bg[x]
		if !bgEnabled {
			bgColor = 0
		}

		spriteColor, useOBP1, spriteBehindBG, hasSprite := p.spriteColorAt(x)
		if hasSprite && (!spriteBehindBG || bgColor == 0) {
			pal := p.obp0
			if useOBP1 {
				pal = p.obp1
			}
			row[x] = palette(pal, spriteColor)
			continue
		}
		row[x] = palette(p.bgp, bgColor)
	}

	if windowDrawnThisLine {
		p.wly++
	}
}

// renderBackgroundLine returns raw BG color indices (0-3) for all 160
// columns of the current line, wrapping the 32x32 tile map.
func (p *PPU) renderBackgroundLine() [ScreenWidth]byte {
	var out [ScreenWidth]byte

	mapBase := uint16(0x9800)
	if p.lcdc&0x08 != 0 {
		mapBase = 0x9C00
	}
	tileData8000 := p.lcdc&0x10 != 0

	bgY := uint16(p.ly) + uint16(p.scy)
	fineY := byte(bgY & 7)
	mapRow := (bgY >> 3) & 31

	startX := uint16(p.scx)
	tileCol := (startX >> 3) & 31
	fineX := int(startX & 7)

	f := tileFetcher{vram: &p.vram, mapBase: mapBase, tileData8000: tileData8000}
	f.fetchTileRow(tileCol, mapRow, fineY)
	for i := 0; i < fineX; i++ {
		f.fifo.Pop()
	}

	for x := 0; x < ScreenWidth; x++ {
		if f.fifo.Len() == 0 {
			tileCol = (tileCol + 1) & 31
			f.fetchTileRow(tileCol, mapRow, fineY)
		}
		v, _ := f.fifo.Pop()
		out[x] = v
	}
	return out
}

// overlayWindowLine draws the window layer over bg wherever the
// window is enabled and visible on this line.
// Returns whether the window contributed any pixel on this line (the
// window-line counter only advances on such lines).
func (p *PPU) overlayWindowLine(bg *[ScreenWidth]byte) bool {
	if p.lcdc&0x20 == 0 || p.lcdc&0x01 == 0 {
		return false
	}
	if p.ly < p.wy {
		return false
	}
	wxStart := int(p.wx) - 7
	if wxStart >= ScreenWidth {
		return false
	}
	if wxStart < 0 {
		wxStart = 0
	}

	mapBase := uint16(0x9800)
	if p.lcdc&0x40 != 0 {
		mapBase = 0x9C00
	}
	tileData8000 := p.lcdc&0x10 != 0

	winLine := uint16(p.wly)
	mapRow := (winLine >> 3) & 31
	fineY := byte(winLine & 7)
	tileCol := uint16(0)

	f := tileFetcher{vram: &p.vram, mapBase: mapBase, tileData8000: tileData8000}
	f.fetchTileRow(tileCol, mapRow, fineY)

	for x := wxStart; x < ScreenWidth; x++ {
		if f.fifo.Len() == 0 {
			tileCol = (tileCol + 1) & 31
			f.fetchTileRow(tileCol, mapRow, fineY)
		}
		v, _ := f.fifo.Pop()
		bg[x] = v
	}
	return true
}

// palette maps a 2-bit color index through a BGP/OBP-style palette
// register into a DMG shade (0=lightest, 3=darkest).
func palette(reg, colorIndex byte) byte {
	return (reg >> (colorIndex * 2)) & 0x03
}
