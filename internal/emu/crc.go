package emu

import (
	"hash/crc32"

	"github.com/dgmq/gbcore/internal/ppu"
)

// FramebufferCRC32 hashes a completed frame's raw 2-bit shade values,
// used by the headless CLI subcommand and conformance tests to compare
// against known-good captures without shipping reference PNGs.
func FramebufferCRC32(fb *[ppu.ScreenHeight][ppu.ScreenWidth]byte) uint32 {
	h := crc32.NewIEEE()
	for y := 0; y < ppu.ScreenHeight; y++ {
		h.Write(fb[y][:])
	}
	return h.Sum32()
}
