package dsp

import (
	"math"

	"github.com/cwbudde/algo-dsp/dsp/core"
	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
	"github.com/cwbudde/algo-dsp/dsp/interp"
)

// Biquad implements a second-order IIR filter in direct form I.
// Coefficients may be swapped between blocks; the sample history is kept,
// so a moving cutoff does not click.
type Biquad struct {
	biquad.Coefficients

	// State (previous samples)
	x1, x2 float64 // input history
	y1, y2 float64 // output history
}

// NewBiquad creates a biquad with the given coefficients and zero state.
func NewBiquad(c biquad.Coefficients) *Biquad {
	return &Biquad{Coefficients: c}
}

// SetCoefficients replaces the transfer function without touching the history.
func (b *Biquad) SetCoefficients(c biquad.Coefficients) {
	b.Coefficients = c
}

// Process processes one sample through the filter.
func (b *Biquad) Process(input float64) float64 {
	output := b.B0*input + b.B1*b.x1 + b.B2*b.x2 - b.A1*b.y1 - b.A2*b.y2

	b.x2 = b.x1
	b.x1 = input
	b.y2 = b.y1
	b.y1 = output

	return output
}

// ProcessBlock filters buf in place.
func (b *Biquad) ProcessBlock(buf []float32) {
	for i, x := range buf {
		buf[i] = float32(b.Process(float64(x)))
	}
	b.y1 = core.FlushDenormals(b.y1)
	b.y2 = core.FlushDenormals(b.y2)
}

// Reset clears the filter state.
func (b *Biquad) Reset() {
	b.x1, b.x2 = 0, 0
	b.y1, b.y2 = 0, 0
}

// ResonantLowpass designs the SoundFont2 two-pole low-pass.
// resonanceCb is the resonance peak in centibels. The alpha term carries a
// -3.01 dB offset so that 0 cB gives a flat (Butterworth) response, while the
// numerator is scaled by the uncorrected Q gain to keep the peak level in check.
func ResonantLowpass(cutoffHz, sampleRate float64, resonanceCb int) biquad.Coefficients {
	qDb := float64(resonanceCb) / 10
	resonanceGain := core.DBToLinear(qDb - 3.01)
	qGain := 1 / math.Sqrt(core.DBToLinear(qDb))

	w := 2 * math.Pi * cutoffHz / sampleRate
	cosw := math.Cos(w)
	alpha := math.Sin(w) / (2 * resonanceGain)

	b1 := (1 - cosw) * qGain
	b0 := b1 / 2
	b2 := b0
	a0 := 1 + alpha
	a1 := -2 * cosw
	a2 := 1 - alpha

	return biquad.Coefficients{
		B0: b0 / a0,
		B1: b1 / a0,
		B2: b2 / a0,
		A1: a1 / a0,
		A2: a2 / a0,
	}
}

// Lerp interpolates linearly between a and b.
func Lerp(a, b float32, t float64) float32 {
	return a + (b-a)*float32(t)
}

// Hermite interpolates between x0 and x1 with the 4-point Catmull-Rom spline.
func Hermite(t float64, xm1, x0, x1, x2 float32) float32 {
	return float32(interp.Hermite4(t, float64(xm1), float64(x0), float64(x1), float64(x2)))
}
