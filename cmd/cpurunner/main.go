// Command cpurunner drives the CPU directly against a ROM and watches
// its serial output for a pass/fail marker, for quick conformance
// checks outside the full test suite.
package main

import (
	"bytes"
	"flag"
	"log"
	"os"
	"strings"
	"time"

	"github.com/dgmq/gbcore/internal/bus"
	"github.com/dgmq/gbcore/internal/cart"
	"github.com/dgmq/gbcore/internal/cpu"
)

func main() {
	romPath := flag.String("rom", "", "path to ROM (.gb)")
	bootPath := flag.String("bootrom", "", "optional DMG boot ROM to run from 0x0000 until FF50 disables it")
	steps := flag.Int64("steps", 5_000_000, "max CPU steps to run")
	until := flag.String("until", "Passed", "stop when serial output contains this substring; empty to disable")
	timeout := flag.Duration("timeout", 0, "optional wall-clock timeout (e.g. 30s); 0 disables")
	flag.Parse()

	if *romPath == "" {
		log.Fatal("-rom is required")
	}
	rom, err := os.ReadFile(*romPath)
	if err != nil {
		log.Fatalf("read rom: %v", err)
	}

	if _, err := cart.ParseHeader(rom); err != nil {
		log.Fatalf("parse cart: %v", err)
	}
	c := cart.New(rom)
	b := bus.New(c, 44100)

	if *bootPath != "" {
		boot, err := os.ReadFile(*bootPath)
		if err != nil {
			log.Fatalf("read bootrom: %v", err)
		}
		b.SetBootROM(boot)
	}

	cp := cpu.New(b)
	if *bootPath == "" {
		cp.PowerOn()
	}

	var serial bytes.Buffer
	b.SetSerialWriter(&serial)

	deadline := time.Time{}
	if *timeout > 0 {
		deadline = time.Now().Add(*timeout)
	}

	for i := int64(0); i < *steps; i++ {
		cycles := cp.Step()
		fsEdges := b.Timer().ConsumeFrameSequencerEdges()
		b.PPU().Tick(cycles)
		b.APU().Tick(cycles, fsEdges)
		if *until != "" && strings.Contains(serial.String(), *until) {
			log.Printf("matched %q after %d steps\n%s", *until, i, serial.String())
			return
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			log.Fatalf("timeout after %d steps; serial so far:\n%s", i, serial.String())
		}
	}
	log.Printf("ran %d steps without match; serial so far:\n%s", *steps, serial.String())
}
