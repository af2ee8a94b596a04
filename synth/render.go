package synth

import (
	"math"

	"github.com/cwbudde/algo-wavetable/soundfont"
)

// silentAttenuation is the base attenuation (cB) above which a voice is
// inaudible and not rendered.
const silentAttenuation = 2500

// renderVoice runs one voice for one block and mixes it into out. buf is
// the scratch buffer, len(buf) frames long. It reports whether the voice
// has finished.
func (ch *Channel) renderVoice(v *Voice, now float64, buf []float32, out *Output) bool {
	s := ch.synth
	if !v.isInRelease && now >= v.releaseStartTime {
		v.startRelease()
	}

	if v.generators[soundfont.InitialAttenuation] > silentAttenuation {
		if v.isInRelease {
			v.finished = true
		}
		return v.finished
	}

	gens := &v.modulated
	targetKey := v.targetKey
	cents := float64(gens[soundfont.FineTune]) + ch.octaveTuning[v.midiNote%12] + ch.tuningCents()
	semitones := float64(gens[soundfont.CoarseTune])

	if t, ok := s.keyTuning(ch, v.realKey); ok {
		targetKey = t.MIDINote
		cents += t.Cents
	}

	if v.portamentoFromKey > -1 {
		progress := 1.0
		if v.portamentoDuration > 0 {
			progress = math.Min((now-v.startTime)/v.portamentoDuration, 1)
		}
		semitones -= float64(targetKey-v.portamentoFromKey) * (1 - progress)
	}

	cents += float64(targetKey-v.osc.rootKey) * float64(gens[soundfont.ScaleTuning])

	depthScale := ch.custom[customModulationMultiplier]
	if depth := gens[soundfont.VibLfoToPitch]; depth != 0 {
		start := v.startTime + timecentsToSeconds(float64(gens[soundfont.DelayVibLFO]))
		freq := absCentsToHz(float64(gens[soundfont.FreqVibLFO]))
		cents += lfoValue(start, freq, now) * float64(depth) * depthScale
	}

	var filterExcursion, volumeOffset float64
	modPitch := gens[soundfont.ModLfoToPitch]
	modVolume := gens[soundfont.ModLfoToVolume]
	modFilter := gens[soundfont.ModLfoToFilterFc]
	if modPitch != 0 || modVolume != 0 || modFilter != 0 {
		start := v.startTime + timecentsToSeconds(float64(gens[soundfont.DelayModLFO]))
		freq := absCentsToHz(float64(gens[soundfont.FreqModLFO]))
		lfo := lfoValue(start, freq, now)
		cents += lfo * float64(modPitch) * depthScale
		// tremolo starts by getting quieter
		volumeOffset = -lfo * float64(modVolume)
		filterExcursion += lfo * float64(modFilter)
	}

	if ch.vibrato.depth > 0 {
		cents += lfoValue(v.startTime+ch.vibrato.delay, ch.vibrato.rate, now) * ch.vibrato.depth
	}

	envPitch := gens[soundfont.ModEnvToPitch]
	envFilter := gens[soundfont.ModEnvToFilterFc]
	if envPitch != 0 || envFilter != 0 {
		env := v.modEnv.value(now, v.isInRelease, v.releaseStartTime)
		filterExcursion += env * float64(envFilter)
		cents += env * float64(envPitch)
	}

	total := int(cents + semitones*100)
	if total != v.currentTuningCents {
		v.currentTuningCents = total
		v.currentTuningRatio = centsToRatio(float64(total))
	}

	clear(buf)
	if v.osc.render(buf, v.currentTuningRatio, s.interpolation, v.isInRelease) {
		v.finished = true
	}
	v.filter.apply(buf, gens[soundfont.InitialFilterFc], gens[soundfont.InitialFilterQ], filterExcursion, s.filterSmoothing)
	if v.volEnv.apply(buf, volumeOffset, s.volumeSmoothing, v.isInRelease) {
		v.finished = true
	}
	s.panVoice(v, buf, out)
	return v.finished
}
