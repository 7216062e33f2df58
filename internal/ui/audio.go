package ui

import (
	"encoding/binary"
	"sync"
)

// apuStream bridges the APU's push-style sample delivery (SetAudioReady
// callback, invoked from the emulation goroutine) onto ebiten's
// pull-style io.Reader audio.Player interface. Samples that arrive
// faster than Read drains them are dropped rather than grown without
// bound, since audio is best-effort relative to emulation correctness.
type apuStream struct {
	mu        sync.Mutex
	buf       []int16 // interleaved L,R
	maxFrames int
	underruns int
}

func newAPUStream() *apuStream {
	return &apuStream{maxFrames: 8192}
}

// push is installed as the APU's ready callback; it runs on whatever
// goroutine steps the emulator.
func (s *apuStream) push(left, right []int16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(left)
	if len(right) < n {
		n = len(right)
	}
	for i := 0; i < n; i++ {
		if len(s.buf)/2 >= s.maxFrames {
			s.buf = s.buf[2:] // drop the oldest frame to bound memory
		}
		s.buf = append(s.buf, left[i], right[i])
	}
}

// Read implements io.Reader, draining buffered frames as little-endian
// stereo int16 pairs; it pads with silence rather than blocking when
// underrun.
func (s *apuStream) Read(p []byte) (int, error) {
	if len(p) < 4 {
		return 0, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	want := len(p) / 4
	have := len(s.buf) / 2
	n := want
	if have < n {
		n = have
	}

	i := 0
	for f := 0; f < n; f++ {
		binary.LittleEndian.PutUint16(p[i:], uint16(s.buf[f*2]))
		binary.LittleEndian.PutUint16(p[i+2:], uint16(s.buf[f*2+1]))
		i += 4
	}
	s.buf = s.buf[n*2:]

	if n < want {
		s.underruns++
		for f := n; f < want; f++ {
			binary.LittleEndian.PutUint16(p[i:], 0)
			binary.LittleEndian.PutUint16(p[i+2:], 0)
			i += 4
		}
	}
	return want * 4, nil
}
