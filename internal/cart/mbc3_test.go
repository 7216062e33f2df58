package cart

import "testing"

func newMBC3ROM(banks int) []byte {
	rom := make([]byte, banks*0x4000)
	for b := 0; b < banks; b++ {
		rom[b*0x4000] = byte(b)
	}
	return rom
}

func TestMBC3BankSwitch7Bit(t *testing.T) {
	m := NewMBC3(newMBC3ROM(128), 0, false)
	m.Write(0x2000, 0x7F)
	if got := m.Read(0x4000); got != 0x7F {
		t.Fatalf("Read(0x4000) = %#x, want 0x7F", got)
	}
	m.Write(0x2000, 0x00)
	if got := m.Read(0x4000); got != 1 {
		t.Fatalf("bank 0 should coerce to 1, got %d", got)
	}
}

func TestMBC3RTCRegisterReadWrite(t *testing.T) {
	m := NewMBC3(newMBC3ROM(2), 0, true)
	m.Write(0x0000, 0x0A) // enable RAM/RTC access
	m.Write(0x4000, 0x08) // select seconds register
	m.Write(0xA000, 30)
	m.live.S = 30

	// latch edge: write 0x00 then 0x01
	m.Write(0x6000, 0x00)
	m.Write(0x6000, 0x01)
	if got := m.Read(0xA000); got != 30 {
		t.Fatalf("latched seconds = %d, want 30", got)
	}
}

func TestMBC3LatchRequiresZeroThenOneEdge(t *testing.T) {
	m := NewMBC3(newMBC3ROM(2), 0, true)
	m.live.S = 15
	m.Write(0x6000, 0x01) // no preceding 0x00, should not latch
	if m.latched.S == 15 {
		t.Fatalf("latch fired without a 0x00->0x01 edge")
	}
	m.Write(0x6000, 0x00)
	m.Write(0x6000, 0x01)
	if m.latched.S != 15 {
		t.Fatalf("latch did not fire on 0x00->0x01 edge")
	}
}

func TestRTCSecondsCascadeToMinutes(t *testing.T) {
	c := &rtc{S: 59}
	c.advanceSecond()
	if c.S != 0 || c.M != 1 {
		t.Fatalf("S=%d M=%d, want S=0 M=1", c.S, c.M)
	}
}

func TestRTCDayCarryFlag(t *testing.T) {
	c := &rtc{DL: 0xFF, DH: 0x01} // day 0x1FF, the maximum
	c.H, c.M, c.S = 23, 59, 59
	c.advanceSecond()
	day := uint16(c.DL) | uint16(c.DH&0x01)<<8
	if day != 0 {
		t.Fatalf("day = %d, want wraparound to 0", day)
	}
	if c.DH&(1<<7) == 0 {
		t.Fatalf("expected day-carry flag to be set")
	}
}

func TestRTCTickAdvancesSeconds(t *testing.T) {
	c := &rtc{}
	c.tick(clockFreqHz * 3)
	if c.S != 3 {
		t.Fatalf("S = %d, want 3 after three seconds of cycles", c.S)
	}
}

func TestRTCHaltStopsTick(t *testing.T) {
	c := &rtc{DH: 1 << 6}
	c.tick(clockFreqHz * 5)
	if c.S != 0 {
		t.Fatalf("S = %d, want 0 while halted", c.S)
	}
}

func TestMBC3BatteryRoundTrip(t *testing.T) {
	m := NewMBC3(newMBC3ROM(2), 0x2000, true)
	m.Write(0x0000, 0x0A)
	m.Write(0xA000, 0x11) // RAM bank 0 selected by default bankSel
	m.live.H = 5
	data := m.BatteryData()

	m2 := NewMBC3(newMBC3ROM(2), 0x2000, true)
	m2.LoadBattery(data)
	if m2.live.H != 5 {
		t.Fatalf("restored RTC hour = %d, want 5", m2.live.H)
	}
}
