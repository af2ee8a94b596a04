package synth

import (
	"math"

	"github.com/cwbudde/algo-wavetable/soundfont"
)

// effectModulatorBoost rescales CC91/CC93 send modulators authored for a
// 0..200 range to the 0..1000 send range.
const effectModulatorBoost = 1000.0 / 200.0

// sourceRaw returns the 14-bit raw value of a modulator source for v.
func sourceRaw(src soundfont.ModulatorSource, controllers *controllerTable, v *Voice) int {
	idx := src.Index()
	if src.IsCC() {
		return int(controllers[idx])
	}
	switch idx {
	case soundfont.SourceNoController:
		return curveResolution - 1
	case soundfont.SourceNoteOnKeyNum:
		return v.midiNote << 7
	case soundfont.SourceNoteOnVelocity:
		return v.velocity << 7
	case soundfont.SourcePolyPressure:
		return v.pressure << 7
	}
	if idx+nonCCIndexOffset >= controllerTableSize {
		return 0
	}
	return int(controllers[idx+nonCCIndexOffset])
}

func sourceValue(src soundfont.ModulatorSource, controllers *controllerTable, v *Voice) float64 {
	raw := sourceRaw(src, controllers, v)
	if raw < 0 {
		raw = 0
	} else if raw >= curveResolution {
		raw = curveResolution - 1
	}
	return float64(sourceTransforms[src.Curve()][src.Polarity()][src.Direction()][raw])
}

// computeModulator evaluates a single modulator contribution in generator units.
func computeModulator(m *soundfont.Modulator, controllers *controllerTable, v *Voice) float64 {
	if m.Amount == 0 {
		return 0
	}
	amount := float64(m.Amount)
	if m.IsEffectModulator() && amount <= 1000 {
		amount = math.Min(amount*effectModulatorBoost, 1000)
	}
	value := sourceValue(m.Source, controllers, v) * sourceValue(m.SecondarySource, controllers, v) * amount
	if m.Transform == 2 {
		value = math.Abs(value)
	}
	return value
}

func addClamped(gen soundfont.GeneratorType, base int32, delta float64) int32 {
	limit := soundfont.Limits(gen)
	sum := math.Trunc(float64(base) + delta)
	return int32(clamp(sum, float64(limit.Min), float64(limit.Max)))
}

// computeModulators rebuilds v's modulated generators from the base array
// and every modulator, then refreshes both envelopes.
func (v *Voice) computeModulators(controllers *controllerTable) {
	v.modulated = v.generators
	if cap(v.modValues) < len(v.modulators) {
		v.modValues = make([]float64, len(v.modulators))
	}
	v.modValues = v.modValues[:len(v.modulators)]
	for i := range v.modulators {
		m := &v.modulators[i]
		if !m.Valid() {
			v.modValues[i] = 0
			continue
		}
		v.modValues[i] = computeModulator(m, controllers, v)
		v.modulated[m.Destination] = addClamped(m.Destination, v.modulated[m.Destination], v.modValues[i])
	}
	v.recalculateEnvelopes()
}

// computeModulatorsFor re-evaluates only the destinations fed by the given
// source (as primary or secondary input).
func (v *Voice) computeModulatorsFor(controllers *controllerTable, isCC bool, index int) {
	if len(v.modValues) != len(v.modulators) {
		v.computeModulators(controllers)
		return
	}
	var done [soundfont.GeneratorCount]bool
	volEnvChanged := false
	for i := range v.modulators {
		m := &v.modulators[i]
		if !m.Valid() || done[m.Destination] {
			continue
		}
		if !m.Source.Matches(isCC, index) && !m.SecondarySource.Matches(isCC, index) {
			continue
		}
		dest := m.Destination
		done[dest] = true
		v.modValues[i] = computeModulator(m, controllers, v)
		v.modulated[dest] = v.generators[dest]
		for j := range v.modulators {
			other := &v.modulators[j]
			if other.Destination != dest {
				continue
			}
			if j != i && (other.Source.Matches(isCC, index) || other.SecondarySource.Matches(isCC, index)) {
				v.modValues[j] = computeModulator(other, controllers, v)
			}
			v.modulated[dest] = addClamped(dest, v.modulated[dest], v.modValues[j])
		}
		if affectsVolumeEnvelope(dest) {
			volEnvChanged = true
		}
	}
	if volEnvChanged {
		v.recalculateVolumeEnvelope()
	}
	v.recalculateModulationEnvelope()
}

func affectsVolumeEnvelope(g soundfont.GeneratorType) bool {
	if g == soundfont.InitialAttenuation {
		return true
	}
	return g >= soundfont.DelayVolEnv && g <= soundfont.KeyNumToVolEnvDecay
}
