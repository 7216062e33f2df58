// Command gbemu runs the DMG core either windowed (ebiten) or headless
// (frame-count run with CRC32/PNG output).
package main

import (
	"fmt"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgmq/gbcore/internal/cart"
	"github.com/dgmq/gbcore/internal/emu"
	"github.com/dgmq/gbcore/internal/ui"
)

var (
	bootROMPath string
	scale       int
	title       string
	trace       bool
	saveRAM     bool

	headlessFrames int
	headlessPNGOut string
	headlessExpect string
)

func main() {
	root := &cobra.Command{
		Use:   "gbemu [rom]",
		Short: "A cycle-accurate DMG (Game Boy) emulator",
		Args:  cobra.ExactArgs(1),
		RunE:  runWindowed,
	}
	root.PersistentFlags().StringVar(&bootROMPath, "bootrom", "", "optional DMG boot ROM")
	root.PersistentFlags().IntVar(&scale, "scale", 3, "window scale (windowed mode only)")
	root.PersistentFlags().StringVar(&title, "title", "gbemu", "window title")
	root.PersistentFlags().BoolVar(&trace, "trace", false, "log each CPU instruction")
	root.PersistentFlags().BoolVar(&saveRAM, "save", true, "persist battery RAM to ROM.sav")

	headless := &cobra.Command{
		Use:   "headless [rom]",
		Short: "Run without a window, for conformance/CI testing",
		Args:  cobra.ExactArgs(1),
		RunE:  runHeadless,
	}
	headless.Flags().IntVar(&headlessFrames, "frames", 300, "frames to run")
	headless.Flags().StringVar(&headlessPNGOut, "outpng", "", "write the final framebuffer to PNG")
	headless.Flags().StringVar(&headlessExpect, "expect", "", "assert framebuffer CRC32 (hex)")
	root.AddCommand(headless)

	if err := root.Execute(); err != nil {
		log.Fatal(err)
	}
}

func loadMachine(romPath string) (*emu.Machine, string, error) {
	m := emu.New(emu.Config{Trace: trace})
	if err := m.LoadROMFromFile(romPath, bootROMPath, 44100); err != nil {
		return nil, "", err
	}
	if rom, err := os.ReadFile(romPath); err == nil && len(rom) >= 0x150 {
		if h, err := cart.ParseHeader(rom); err == nil {
			log.Printf("ROM: %q type=%s banks=%d ram=%dB", h.Title, h.CartTypeStr, h.ROMBanks, h.RAMSizeBytes)
		}
		if !cart.HeaderChecksumOK(rom) {
			log.Printf("warning: cartridge header checksum mismatch")
		}
	}

	savPath := ""
	if saveRAM {
		savPath = strings.TrimSuffix(romPath, filepath.Ext(romPath)) + ".sav"
		if data, err := os.ReadFile(savPath); err == nil {
			m.LoadBatteryRAM(data)
			log.Printf("loaded save RAM: %s (%d bytes)", savPath, len(data))
		}
	}
	return m, savPath, nil
}

func persistBattery(m *emu.Machine, savPath string) {
	if savPath == "" {
		return
	}
	data, ok := m.BatteryRAM()
	if !ok {
		return
	}
	if err := os.WriteFile(savPath, data, 0o644); err == nil {
		log.Printf("wrote %s", savPath)
	}
}

func runWindowed(cmd *cobra.Command, args []string) error {
	m, savPath, err := loadMachine(args[0])
	if err != nil {
		return err
	}

	cfgPath := ui.DefaultConfigPath()
	cfg := ui.LoadConfig(cfgPath)
	cfg.Title, cfg.Scale = title, scale

	app := ui.NewApp(cfg, m)
	if err := app.Run(); err != nil {
		return err
	}
	_ = ui.SaveConfig(cfgPath, cfg)
	persistBattery(m, savPath)
	return nil
}

func runHeadless(cmd *cobra.Command, args []string) error {
	m, savPath, err := loadMachine(args[0])
	if err != nil {
		return err
	}

	frames := headlessFrames
	if frames <= 0 {
		frames = 1
	}
	start := time.Now()
	for i := 0; i < frames; i++ {
		m.StepFrame()
	}
	dur := time.Since(start)

	fb := m.Framebuffer()
	crc := crc32.ChecksumIEEE(flattenFramebuffer(fb))
	fps := float64(frames) / dur.Seconds()
	log.Printf("headless: frames=%d elapsed=%s fps=%.2f fb_crc32=%08x", frames, dur.Truncate(time.Millisecond), fps, crc)

	if headlessPNGOut != "" {
		if err := saveFramePNG(fb, headlessPNGOut); err != nil {
			return fmt.Errorf("write PNG: %w", err)
		}
		log.Printf("wrote %s", headlessPNGOut)
	}

	if headlessExpect != "" {
		want := strings.TrimPrefix(strings.ToLower(headlessExpect), "0x")
		got := fmt.Sprintf("%08x", crc)
		if got != want {
			return fmt.Errorf("checksum mismatch: got %s, want %s", got, want)
		}
	}

	persistBattery(m, savPath)
	return nil
}

func flattenFramebuffer(fb *[144][160]byte) []byte {
	out := make([]byte, 0, 144*160)
	for y := 0; y < 144; y++ {
		out = append(out, fb[y][:]...)
	}
	return out
}

func saveFramePNG(fb *[144][160]byte, path string) error {
	shades := [4]byte{255, 170, 85, 0}
	img := image.NewGray(image.Rect(0, 0, 160, 144))
	for y := 0; y < 144; y++ {
		for x := 0; x < 160; x++ {
			img.SetGray(x, y, color.Gray{Y: shades[fb[y][x]&3]})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}
