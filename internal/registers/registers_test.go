package registers

import "testing"

func TestPowerOn(t *testing.T) {
	var r File
	r.PowerOn()
	if r.AF() != 0x01B0 || r.BC() != 0x0013 || r.DE() != 0x00D8 || r.HL() != 0x014D {
		t.Fatalf("post-boot register pairs wrong: AF=%04x BC=%04x DE=%04x HL=%04x",
			r.AF(), r.BC(), r.DE(), r.HL())
	}
	if r.SP != 0xFFFE || r.PC != 0x0100 {
		t.Fatalf("SP/PC wrong: SP=%04x PC=%04x", r.SP, r.PC)
	}
}

func TestSetFlagsMasksLowNibble(t *testing.T) {
	var r File
	r.SetFlags(true, false, true, false)
	if r.F&0x0F != 0 {
		t.Fatalf("F low nibble not zero: %02x", r.F)
	}
	if !r.Z() || r.N() || !r.H() || r.C() {
		t.Fatalf("flags decoded wrong from F=%02x", r.F)
	}
}

func TestSetAFMasksLowNibble(t *testing.T) {
	var r File
	r.SetAF(0x1234)
	if r.F != 0x30 {
		t.Fatalf("SetAF should mask F low nibble to zero, got F=%02x", r.F)
	}
	if r.AF() != 0x1230 {
		t.Fatalf("AF round trip got %04x want 1230", r.AF())
	}
}

func TestPairRoundTrip(t *testing.T) {
	var r File
	r.SetBC(0xBEEF)
	if r.BC() != 0xBEEF {
		t.Fatalf("BC round trip failed: %04x", r.BC())
	}
	r.SetDE(0xCAFE)
	if r.DE() != 0xCAFE {
		t.Fatalf("DE round trip failed: %04x", r.DE())
	}
	r.SetHL(0x1337)
	if r.HL() != 0x1337 {
		t.Fatalf("HL round trip failed: %04x", r.HL())
	}
}
