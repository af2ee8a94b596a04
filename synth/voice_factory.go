package synth

import (
	"log"
	"math"

	"github.com/cwbudde/algo-wavetable/soundfont"
)

type voiceCacheKey struct {
	bank, program, note, velocity int
}

// voicesFor creates the voices of preset for a note on ch. Voice templates
// are cached per (bank, program, note, velocity); every call returns fresh
// copies.
func (s *Synth) voicesFor(ch *Channel, preset *soundfont.Preset, note, velocity, realKey int) []*Voice {
	if preset == nil {
		return nil
	}
	key := voiceCacheKey{bank: preset.Bank, program: preset.Program, note: note, velocity: velocity}
	if s.params.VoiceCacheEnabled {
		if templates, ok := s.voiceCache[key]; ok {
			return s.cloneVoices(templates, ch.number, realKey)
		}
	}

	layers := preset.Resolve(note, velocity)
	voices := make([]*Voice, 0, len(layers))
	for _, layer := range layers {
		if !layer.Sample.HasData() {
			name := "<nil>"
			if layer.Sample != nil {
				name = layer.Sample.Name
			}
			log.Printf("synth: discarding sample %q without audio data (preset %q note %d)", name, preset.Name, note)
			continue
		}
		voices = append(voices, s.newLayerVoice(layer, ch.number, note, velocity, realKey))
	}

	if s.params.VoiceCacheEnabled {
		s.voiceCache[key] = s.cloneVoices(voices, ch.number, realKey)
	}
	return voices
}

func (s *Synth) cloneVoices(templates []*Voice, channel, realKey int) []*Voice {
	out := make([]*Voice, len(templates))
	for i, t := range templates {
		out[i] = t.clone(s.currentTime, realKey)
		out[i].channel = channel
	}
	return out
}

// newLayerVoice builds a voice from one resolved layer.
func (s *Synth) newLayerVoice(layer soundfont.Layer, channel, note, velocity, realKey int) *Voice {
	var gens [soundfont.GeneratorCount]int32
	for i := range gens {
		gens[i] = soundfont.AddAndClamp(soundfont.GeneratorType(i), layer.PresetGenerators, layer.InstrumentGenerators)
	}
	// EMU hardware compatibility: attenuation is authored at 0.4 dB per unit.
	gens[soundfont.InitialAttenuation] = int32(math.Floor(float64(gens[soundfont.InitialAttenuation]) * 0.4))

	smp := layer.Sample
	rootKey := smp.OriginalKey
	if gens[soundfont.OverridingRootKey] > -1 {
		rootKey = int(gens[soundfont.OverridingRootKey])
	}
	targetKey := note
	if gens[soundfont.KeyNum] > -1 {
		targetKey = int(gens[soundfont.KeyNum])
	}
	if gens[soundfont.Velocity] > -1 {
		velocity = int(gens[soundfont.Velocity])
	}

	mode := int(gens[soundfont.SampleModes])
	osc := oscillator{
		data:         smp.Data,
		playbackStep: float64(smp.SampleRate) / float64(s.sampleRate) * centsToRatio(float64(smp.PitchCorrection)),
		rootKey:      rootKey,
		loopStart:    smp.LoopStart,
		loopEnd:      smp.LoopEnd,
		end:          len(smp.Data) - 1,
		loopingMode:  mode,
		isLooping:    mode == loopModeContinuous || mode == loopModeUntilRelease,
	}

	mods := make([]soundfont.Modulator, len(layer.Modulators))
	copy(mods, layer.Modulators)

	v := newVoice(s.sampleRate, osc, &gens, mods, s.filterCache)
	v.sampleName = smp.Name
	v.channel = channel
	v.midiNote = note
	v.velocity = velocity
	v.targetKey = targetKey
	v.realKey = realKey
	v.startTime = s.currentTime
	return v
}
