package cart

import "testing"

func makeROM(size int, cartType, romSizeCode, ramSizeCode byte, title string) []byte {
	rom := make([]byte, size)
	copy(rom[0x0104:0x0134], nintendoLogo[:])
	copy(rom[0x0134:0x0144], title)
	rom[0x0147] = cartType
	rom[0x0148] = romSizeCode
	rom[0x0149] = ramSizeCode
	var sum byte
	for addr := 0x0134; addr <= 0x014C; addr++ {
		sum = sum - rom[addr] - 1
	}
	rom[0x014D] = sum
	return rom
}

func TestParseHeaderBasics(t *testing.T) {
	rom := makeROM(0x8000, 0x00, 0x00, 0x00, "TESTROM")
	h, err := ParseHeader(rom)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if h.Title != "TESTROM" {
		t.Fatalf("Title = %q, want TESTROM", h.Title)
	}
	if !h.LogoOK {
		t.Fatalf("expected logo to match")
	}
	if !HeaderChecksumOK(rom) {
		t.Fatalf("expected checksum to validate")
	}
	if h.ROMSizeBytes != 32*1024 || h.ROMBanks != 2 {
		t.Fatalf("ROM size decode wrong: %d bytes %d banks", h.ROMSizeBytes, h.ROMBanks)
	}
}

func TestDecodeRAMSize(t *testing.T) {
	cases := []struct {
		code byte
		want int
	}{
		{0x00, 0}, {0x02, 8 * 1024}, {0x03, 32 * 1024}, {0x04, 128 * 1024}, {0x05, 64 * 1024},
	}
	for _, c := range cases {
		if got := decodeRAMSize(c.code); got != c.want {
			t.Errorf("decodeRAMSize(%#x) = %d, want %d", c.code, got, c.want)
		}
	}
}

func TestParseHeaderTooSmall(t *testing.T) {
	if _, err := ParseHeader(make([]byte, 0x10)); err == nil {
		t.Fatalf("expected error for truncated ROM")
	}
}

func TestNewCartridgeSelectsMapper(t *testing.T) {
	rom := makeROM(2*0x4000, 0x01, 0x00, 0x00, "MBC1GAME")
	if _, ok := New(rom).(*MBC1); !ok {
		t.Fatalf("expected MBC1 for cart type 0x01")
	}
	rom = makeROM(2*0x4000, 0x13, 0x00, 0x02, "MBC3GAME")
	if _, ok := New(rom).(*MBC3); !ok {
		t.Fatalf("expected MBC3 for cart type 0x13")
	}
	rom = makeROM(2*0x4000, 0x1B, 0x00, 0x03, "MBC5GAME")
	if _, ok := New(rom).(*MBC5); !ok {
		t.Fatalf("expected MBC5 for cart type 0x1B")
	}
	rom = makeROM(2*0x4000, 0x00, 0x00, 0x00, "ROMONLY")
	if _, ok := New(rom).(*ROMOnly); !ok {
		t.Fatalf("expected ROMOnly for cart type 0x00")
	}
}
