package effects

import (
	"math"
	"math/rand"

	dspconv "github.com/cwbudde/algo-dsp/dsp/conv"

	"github.com/cwbudde/algo-wavetable/internal/audioio"
)

// Reverb convolves a reverb send bus with a stereo impulse response using
// partitioned overlap-add convolution.
type Reverb struct {
	sampleRate int
	partSize   int
	irLen      int

	leftOLA  *dspconv.StreamingOverlapAddT[float32, complex64]
	rightOLA *dspconv.StreamingOverlapAddT[float32, complex64]

	// Pre-allocated buffers for zero-allocation processing
	block    []float32
	leftOut  []float32
	rightOut []float32
}

// NewReverb creates a reverb with a generated IR of the given length.
func NewReverb(sampleRate int, seconds float64) *Reverb {
	r := &Reverb{
		sampleRate: sampleRate,
		partSize:   128,
	}
	left, right := GenerateIR(sampleRate, seconds, 1)
	r.SetIR(left, right)
	return r
}

// GenerateIR builds a decorrelated stereo IR of exponentially decaying
// noise reaching -60 dB after seconds.
func GenerateIR(sampleRate int, seconds float64, seed int64) (left, right []float32) {
	n := int(seconds * float64(sampleRate))
	if n < 1 {
		return []float32{1}, []float32{1}
	}
	rng := rand.New(rand.NewSource(seed))
	left = make([]float32, n)
	right = make([]float32, n)
	decay := math.Log(1000) / float64(n)
	// keep the summed energy near unity
	norm := math.Sqrt(2 * decay)
	for i := range n {
		g := math.Exp(-decay*float64(i)) * norm
		left[i] = float32((rng.Float64()*2 - 1) * g)
		right[i] = float32((rng.Float64()*2 - 1) * g)
	}
	return left, right
}

// SetIR configures left/right impulse responses.
func (r *Reverb) SetIR(leftIR []float32, rightIR []float32) {
	if len(leftIR) == 0 {
		leftIR = []float32{1.0}
	}
	if len(rightIR) == 0 {
		rightIR = []float32{1.0}
	}

	leftOLA, errL := dspconv.NewStreamingOverlapAdd32(leftIR, r.partSize)
	rightOLA, errR := dspconv.NewStreamingOverlapAdd32(rightIR, r.partSize)
	if errL != nil || errR != nil {
		return
	}
	r.leftOLA = leftOLA
	r.rightOLA = rightOLA
	r.irLen = max(len(leftIR), len(rightIR), 1)

	r.block = make([]float32, r.partSize)
	r.leftOut = make([]float32, r.partSize)
	r.rightOut = make([]float32, r.partSize)

	r.Reset()
}

// SetIRFromWAV loads a mono/stereo IR from WAV, resampled to the engine rate.
func (r *Reverb) SetIRFromWAV(path string) error {
	left, right, err := audioio.ReadWAVStereo(path, r.sampleRate)
	if err != nil {
		return err
	}
	r.SetIR(left, right)
	return nil
}

// IRLen returns the impulse response length in samples.
func (r *Reverb) IRLen() int { return r.irLen }

// Process convolves the mono send in and adds gain times the wet signal to
// outL and outR. Blocks that are not a multiple of the partition size are
// zero padded, so callers should use a fixed block size that is one.
func (r *Reverb) Process(in, outL, outR []float32, gain float32) {
	if r.leftOLA == nil || r.rightOLA == nil {
		return
	}
	for processed := 0; processed < len(in); processed += r.partSize {
		blockEnd := min(processed+r.partSize, len(in))
		blockLen := blockEnd - processed

		block := in[processed:blockEnd]
		if blockLen < r.partSize {
			clear(r.block)
			copy(r.block, block)
			block = r.block
		}

		errL := r.leftOLA.ProcessBlockTo(r.leftOut, block)
		errR := r.rightOLA.ProcessBlockTo(r.rightOut, block)
		if errL != nil || errR != nil {
			continue
		}
		for i := range blockLen {
			outL[processed+i] += gain * r.leftOut[i]
			outR[processed+i] += gain * r.rightOut[i]
		}
	}
}

// Reset clears convolver history and overlap buffers.
func (r *Reverb) Reset() {
	if r.leftOLA != nil {
		r.leftOLA.Reset()
	}
	if r.rightOLA != nil {
		r.rightOLA.Reset()
	}
}
