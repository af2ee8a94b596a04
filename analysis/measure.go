// Package analysis measures rendered audio: level envelopes, decay rates
// and pitch.
package analysis

import (
	"errors"
	"math"

	algofft "github.com/cwbudde/algo-fft"
	"github.com/cwbudde/algo-dsp/dsp/window"
)

// Summary describes a rendered signal.
type Summary struct {
	SampleRate int `json:"sample_rate"`
	Frames     int `json:"frames"`

	Peak         float64 `json:"peak"`
	PeakDBFS     float64 `json:"peak_dbfs"`
	RMSDBFS      float64 `json:"rms_dbfs"`
	DecayDBPerS  float64 `json:"decay_db_per_s"`
	DominantHz   float64 `json:"dominant_hz"`
	NonFinite    int     `json:"non_finite"`
	SilentFrames int     `json:"silent_frames"`
}

// Summarize computes a Summary of a mono signal.
func Summarize(x []float64, sampleRate int) Summary {
	s := Summary{SampleRate: sampleRate, Frames: len(x)}
	for _, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			s.NonFinite++
		}
	}
	s.Peak = Peak(x)
	s.PeakDBFS = LinToDB(s.Peak)
	s.RMSDBFS = LinToDB(RMS(x))
	s.SilentFrames = len(x) - len(TrimLeadingSilence(x, 1e-6))

	const frame, hop = 256, 128
	env := RMSEnvelope(x, frame, hop)
	// NaN does not encode to JSON; a signal too short to fit stays at 0
	if slope := DecaySlopeDBPerS(env, float64(hop)/float64(sampleRate)); !math.IsNaN(slope) {
		s.DecayDBPerS = slope
	}

	n := min(len(x), 1<<15)
	if hz, err := DominantFrequency(x[:n], sampleRate); err == nil {
		s.DominantHz = hz
	}
	return s
}

// Peak returns the largest absolute sample value.
func Peak(x []float64) float64 {
	var p float64
	for _, v := range x {
		p = math.Max(p, math.Abs(v))
	}
	return p
}

// RMS returns the root mean square of x.
func RMS(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(x)))
}

// LinToDB converts a linear amplitude to dB, floored at -240 dB.
func LinToDB(x float64) float64 {
	if x < 1e-12 {
		x = 1e-12
	}
	return 20.0 * math.Log10(x)
}

// TrimLeadingSilence drops samples before the first one above threshold.
func TrimLeadingSilence(x []float64, threshold float64) []float64 {
	for i, v := range x {
		if math.Abs(v) > threshold {
			return x[i:]
		}
	}
	return nil
}

// RMSEnvelope returns frame-wise RMS values with the given hop.
func RMSEnvelope(x []float64, frame int, hop int) []float64 {
	if frame <= 0 || hop <= 0 || len(x) < frame {
		return nil
	}
	n := 1 + (len(x)-frame)/hop
	out := make([]float64, n)
	for i := range out {
		start := i * hop
		out[i] = RMS(x[start : start+frame])
	}
	return out
}

// DecaySlopeDBPerS fits a line to the envelope in dB from its peak down to
// 60 dB below it. It returns NaN when there is too little decay to fit.
func DecaySlopeDBPerS(env []float64, hopSec float64) float64 {
	if len(env) < 8 || hopSec <= 0 {
		return math.NaN()
	}
	peak := math.Inf(-1)
	peakIdx := 0
	for i, v := range env {
		if db := LinToDB(v); db > peak {
			peak = db
			peakIdx = i
		}
	}
	start := peakIdx + 1
	if start >= len(env)-4 {
		return math.NaN()
	}

	end := len(env)
	for i := start; i < len(env); i++ {
		if LinToDB(env[i]) < peak-60 {
			end = i
			break
		}
	}
	if end-start < 6 {
		return math.NaN()
	}

	var sx, sy, sxx, sxy float64
	n := float64(end - start)
	for i := start; i < end; i++ {
		x := float64(i-start) * hopSec
		y := LinToDB(env[i])
		sx += x
		sy += y
		sxx += x * x
		sxy += x * y
	}
	den := n*sxx - sx*sx
	if math.Abs(den) < 1e-12 {
		return math.NaN()
	}
	return (n*sxy - sx*sy) / den
}

// DominantFrequency returns the frequency of the strongest spectral peak of
// x, refined by parabolic interpolation of the log magnitudes. x is
// Hann-windowed and zero-padded to a power of two.
func DominantFrequency(x []float64, sampleRate int) (float64, error) {
	if len(x) < 16 || sampleRate <= 0 {
		return 0, errors.New("analysis: signal too short")
	}
	fftSize := 1
	for fftSize < len(x) {
		fftSize <<= 1
	}
	plan, err := algofft.NewPlanReal64(fftSize)
	if err != nil {
		return 0, err
	}

	w := window.Generate(window.TypeHann, len(x))
	buf := make([]float64, fftSize)
	for i, v := range x {
		buf[i] = v * w[i]
	}
	spec := make([]complex128, fftSize/2+1)
	plan.Forward(spec, buf)

	mags := make([]float64, len(spec))
	best := 1
	for k := 1; k < len(spec)-1; k++ {
		re, im := real(spec[k]), imag(spec[k])
		mags[k] = math.Hypot(re, im)
		if mags[k] > mags[best] {
			best = k
		}
	}
	if mags[best] == 0 {
		return 0, errors.New("analysis: silent signal")
	}

	bin := float64(best)
	if best > 1 && best < len(spec)-2 {
		a := math.Log(mags[best-1] + 1e-300)
		b := math.Log(mags[best])
		c := math.Log(mags[best+1] + 1e-300)
		if d := a - 2*b + c; d != 0 {
			bin += 0.5 * (a - c) / d
		}
	}
	return bin * float64(sampleRate) / float64(fftSize), nil
}

// StereoToMono averages an interleaved stereo buffer to mono.
func StereoToMono(st []float32) []float64 {
	n := len(st) / 2
	out := make([]float64, n)
	for i := range out {
		out[i] = 0.5 * (float64(st[i*2]) + float64(st[i*2+1]))
	}
	return out
}
