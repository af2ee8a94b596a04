package synth

import (
	"math"

	"github.com/cwbudde/algo-approx"
	"github.com/cwbudde/algo-dsp/dsp/core"
)

const ln10Over20 = 0.11512925464970228

// timecentsToSeconds converts SoundFont2 timecents; -32768 means "instant".
func timecentsToSeconds(tc float64) float64 {
	if tc <= -32767 {
		return 0
	}
	return math.Pow(2, tc/1200)
}

// absCentsToHz converts absolute cents (6900 = 440 Hz).
func absCentsToHz(cents float64) float64 {
	if cents < 0 {
		return 1
	}
	return 440 * math.Pow(2, (cents-6900)/1200)
}

// attenuationToGain converts decibels of attenuation to linear gain.
func attenuationToGain(db float64) float64 {
	return core.DBToLinear(-db)
}

// fastAttenuationToGain is attenuationToGain for per-sample envelope loops.
func fastAttenuationToGain(db float64) float64 {
	return float64(approx.FastExp(float32(-db * ln10Over20)))
}

func centsToRatio(cents float64) float64 {
	return math.Pow(2, cents/1200)
}

func clamp(v, lo, hi float64) float64 {
	return core.Clamp(v, lo, hi)
}

func isFinite(x float32) bool {
	return !math.IsNaN(float64(x)) && !math.IsInf(float64(x), 0)
}

// lfoValue is a triangle LFO in [-1, 1] starting at 0 and rising at startTime.
func lfoValue(startTime, freqHz, now float64) float64 {
	if now < startTime {
		return 0
	}
	x := (now-startTime)*freqHz + 0.25
	return math.Abs(x-math.Floor(x+0.5))*4 - 1
}
