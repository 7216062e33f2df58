package ppu

import "testing"

func newEnabledPPU(req InterruptRequester) *PPU {
	p := New(req)
	p.CPUWrite(0xFF40, 0x91) // LCD on, BG on, tile data 0x8000, BG map 0x9800
	p.CPUWrite(0xFF47, 0xE4) // standard BGP ramp
	return p
}

func TestModeProgressesThroughScanline(t *testing.T) {
	p := newEnabledPPU(nil)
	if got := p.mode(); got != ModeOAMScan {
		t.Fatalf("mode = %v, want OAMScan at dot 0", got)
	}
	p.Tick(80)
	if got := p.mode(); got != ModeDrawing {
		t.Fatalf("mode = %v, want Drawing at dot 80", got)
	}
	p.Tick(172)
	if got := p.mode(); got != ModeHBlank {
		t.Fatalf("mode = %v, want HBlank at dot 252", got)
	}
	p.Tick(456 - 252)
	if p.ly != 1 {
		t.Fatalf("ly = %d, want 1 after one full line", p.ly)
	}
}

func TestVBlankEntryRaisesInterruptAndPushesFrame(t *testing.T) {
	var fired []int
	pushed := false
	p := newEnabledPPU(func(bit int) { fired = append(fired, bit) })
	p.SetFrameSink(frameSinkFunc(func(*[ScreenHeight][ScreenWidth]byte) { pushed = true }))

	for line := 0; line < visibleLines; line++ {
		p.Tick(dotsPerLine)
	}
	if len(fired) == 0 || fired[0] != 0 {
		t.Fatalf("expected VBlank interrupt (bit 0) to fire, got %v", fired)
	}
	if !pushed {
		t.Fatalf("expected frame to be pushed to sink on VBlank entry")
	}
}

type frameSinkFunc func(*[ScreenHeight][ScreenWidth]byte)

func (f frameSinkFunc) PushFrame(pix *[ScreenHeight][ScreenWidth]byte) { f(pix) }

func TestVRAMLockedDuringDrawing(t *testing.T) {
	p := newEnabledPPU(nil)
	p.CPUWrite(0x8000, 0x42) // allowed during OAMScan
	p.Tick(80)               // now Drawing
	if got := p.CPURead(0x8000); got != 0xFF {
		t.Fatalf("VRAM read during Drawing = %#x, want 0xFF", got)
	}
	p.CPUWrite(0x8000, 0x99) // should be dropped
	p.Tick(172)              // HBlank
	if got := p.CPURead(0x8000); got != 0x42 {
		t.Fatalf("VRAM = %#x, want 0x42 (write during Drawing dropped)", got)
	}
}

func TestOAMLockedDuringScanAndDrawing(t *testing.T) {
	p := newEnabledPPU(nil)
	if got := p.CPURead(0xFE00); got != 0xFF {
		t.Fatalf("OAM read during OAMScan = %#x, want 0xFF", got)
	}
	p.Tick(80) // now Drawing
	if got := p.CPURead(0xFE00); got != 0xFF {
		t.Fatalf("OAM read during Drawing = %#x, want 0xFF", got)
	}
}

func TestOAMDMALockOverridesMode(t *testing.T) {
	p := newEnabledPPU(nil)
	p.Tick(80)
	p.Tick(172) // now HBlank, OAM normally unlocked
	p.SetOAMDMALocked(true)
	if got := p.CPURead(0xFE00); got != 0xFF {
		t.Fatalf("OAM read during DMA = %#x, want 0xFF regardless of mode", got)
	}
}

func TestLYCFlagAndSTATInterrupt(t *testing.T) {
	var fired []int
	p := newEnabledPPU(func(bit int) { fired = append(fired, bit) })
	p.CPUWrite(0xFF45, 0) // LYC = 0, matches LY = 0 already
	p.CPUWrite(0xFF41, 0x40) // enable LYC STAT source
	p.updateLYCFlag()
	if p.stat&(1<<2) == 0 {
		t.Fatalf("expected STAT bit 2 set when LY==LYC")
	}
	if len(fired) != 1 || fired[0] != 1 {
		t.Fatalf("fired = %v, want exactly one LCD STAT interrupt (bit 1) on the line's rising edge", fired)
	}
}

func TestPaletteMapping(t *testing.T) {
	// BGP = 11100100 => index0->0, index1->1, index2->2, index3->3 (identity ramp)
	if got := palette(0xE4, 0); got != 0 {
		t.Fatalf("palette(0xE4,0) = %d, want 0", got)
	}
	if got := palette(0xE4, 3); got != 3 {
		t.Fatalf("palette(0xE4,3) = %d, want 3", got)
	}
}

func TestScanOAMSelectsUpToTenOrderedByX(t *testing.T) {
	p := newEnabledPPU(nil)
	p.CPUWrite(0xFF40, 0x93) // LCD+BG+OBJ on, 8px sprites
	for i := 0; i < 12; i++ {
		base := i * 4
		p.oam[base] = 16   // on-screen at ly=0
		p.oam[base+1] = byte(20 - i)
		p.oam[base+2] = byte(i)
	}
	p.ly = 0
	p.scanOAM()
	if p.numSprites != 10 {
		t.Fatalf("numSprites = %d, want 10 (capped)", p.numSprites)
	}
	for i := 1; i < p.numSprites; i++ {
		if p.sprites[i].x < p.sprites[i-1].x {
			t.Fatalf("sprites not ordered by ascending x: %v", p.sprites[:p.numSprites])
		}
	}
}

func TestSpriteTransparentPixelFallsThroughToBG(t *testing.T) {
	p := newEnabledPPU(nil)
	p.CPUWrite(0xFF40, 0x93)
	// one sprite, all-zero tile data (transparent everywhere)
	p.oam[0], p.oam[1], p.oam[2], p.oam[3] = 16, 8, 0, 0
	p.ly = 0
	p.scanOAM()
	_, _, _, found := p.spriteColorAt(0)
	if found {
		t.Fatalf("expected no opaque sprite pixel from an all-zero tile")
	}
}
