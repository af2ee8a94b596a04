package main

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/cwbudde/algo-wavetable/synth"
)

const bytesPerFrame = 8 // stereo float32

// streamer feeds the synthesizer to the audio device. oto pulls from its
// own goroutine, so every engine call goes through mu.
type streamer struct {
	mu    sync.Mutex
	synth *synth.Synth
	block int
}

func newStreamer(s *synth.Synth, block int) *streamer {
	return &streamer{synth: s, block: block}
}

// Read renders whole frames into p as little-endian float32 pairs.
func (st *streamer) Read(p []byte) (int, error) {
	frames := len(p) / bytesPerFrame
	st.mu.Lock()
	defer st.mu.Unlock()
	off := 0
	for done := 0; done < frames; {
		n := min(st.block, frames-done)
		for _, v := range st.synth.Process(n) {
			binary.LittleEndian.PutUint32(p[off:], math.Float32bits(v))
			off += 4
		}
		done += n
	}
	return off, nil
}

func (st *streamer) do(fn func(*synth.Synth)) {
	st.mu.Lock()
	defer st.mu.Unlock()
	fn(st.synth)
}

func parseNotes(list string) ([]int, error) {
	var notes []int
	for _, f := range strings.Split(list, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		n, err := strconv.Atoi(f)
		if err != nil || n < 0 || n > 127 {
			return nil, fmt.Errorf("invalid note %q (expected 0..127)", f)
		}
		notes = append(notes, n)
	}
	if len(notes) == 0 {
		return nil, fmt.Errorf("no notes given")
	}
	return notes, nil
}
