package synth

import (
	"math"

	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
	"github.com/cwbudde/algo-wavetable/dsp"
)

// Filter cutoff range of initialFilterFc, in absolute cents.
const (
	filterMinCents  = 1500
	filterOpenCents = 13500
)

type filterKey struct {
	resonanceCb int32
	cents       int
}

// FilterCoefficientCache memoizes low-pass coefficients by resonance and
// integer cutoff cents for one output sample rate. It only grows and is not
// safe for concurrent use; each Synth owns one.
type FilterCoefficientCache struct {
	sampleRate float64
	maxCutoff  float64
	table      map[filterKey]biquad.Coefficients
}

// NewFilterCoefficientCache creates a cache with the resonance-free
// coefficients for the whole initialFilterFc range precomputed.
func NewFilterCoefficientCache(sampleRate int) *FilterCoefficientCache {
	c := &FilterCoefficientCache{
		sampleRate: float64(sampleRate),
		maxCutoff:  0.45 * float64(sampleRate),
		table:      make(map[filterKey]biquad.Coefficients, filterOpenCents-filterMinCents),
	}
	for cents := filterMinCents; cents < filterOpenCents; cents++ {
		c.Coefficients(cents, 0)
	}
	return c
}

// Coefficients returns the cached coefficients, computing them on a miss.
func (c *FilterCoefficientCache) Coefficients(cents int, resonanceCb int32) biquad.Coefficients {
	key := filterKey{resonanceCb: resonanceCb, cents: cents}
	if co, ok := c.table[key]; ok {
		return co
	}
	hz := math.Min(absCentsToHz(float64(cents)), c.maxCutoff)
	co := dsp.ResonantLowpass(hz, c.sampleRate, int(resonanceCb))
	c.table[key] = co
	return co
}

// Len returns the number of cached entries.
func (c *FilterCoefficientCache) Len() int {
	return len(c.table)
}

// lowpassFilter is the per-voice resonant low-pass.
type lowpassFilter struct {
	dsp.Biquad
	resonanceCb      int32
	currentInitialFc float64
	lastTargetCutoff float64
	initialized      bool
	cache            *FilterCoefficientCache
}

func newLowpassFilter(cache *FilterCoefficientCache) lowpassFilter {
	return lowpassFilter{
		currentInitialFc: filterOpenCents,
		lastTargetCutoff: math.Inf(1),
		cache:            cache,
	}
}

// apply filters buf in place. initialFc is the modulated static cutoff,
// which is smoothed; excursion (mod LFO + mod envelope) is not.
func (f *lowpassFilter) apply(buf []float32, initialFc, resonanceCb int32, excursion, smoothing float64) {
	if !f.initialized {
		f.initialized = true
		f.currentInitialFc = float64(initialFc)
	} else {
		f.currentInitialFc += (float64(initialFc) - f.currentInitialFc) * smoothing
	}

	target := f.currentInitialFc + excursion
	if f.currentInitialFc > filterOpenCents-1 && target > filterOpenCents-1 && resonanceCb == 0 {
		f.currentInitialFc = filterOpenCents
		return
	}

	if math.Abs(f.lastTargetCutoff-target) > 1 || f.resonanceCb != resonanceCb {
		f.lastTargetCutoff = target
		f.resonanceCb = resonanceCb
		f.SetCoefficients(f.cache.Coefficients(int(target), resonanceCb))
	}
	f.ProcessBlock(buf)
}
