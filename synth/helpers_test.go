package synth

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-wavetable/soundfont"
)

const testRate = 44100

// sineSample returns a looped sine at 441 Hz (exactly 100 samples per
// period at 44.1 kHz) with root key 69.
func sineSample(name string) *soundfont.Sample {
	const period = 100
	data := make([]float32, period*60)
	for i := range data {
		data[i] = float32(0.5 * math.Sin(2*math.Pi*float64(i)/period))
	}
	return &soundfont.Sample{
		Name:        name,
		Data:        data,
		SampleRate:  testRate,
		OriginalKey: 69,
		LoopStart:   period * 10,
		LoopEnd:     period * 50,
	}
}

// testBank builds a one-preset bank whose single instrument zone plays
// smp with the given generators plus continuous looping.
func testBank(smp *soundfont.Sample, gens ...soundfont.Generator) *soundfont.Bank {
	zone := &soundfont.Zone{Sample: smp}
	zone.Generators.Set(soundfont.SampleModes, loopModeContinuous)
	for _, g := range gens {
		zone.Generators.Set(g.Type, g.Value)
	}
	inst := &soundfont.Instrument{Name: "inst", Zones: []*soundfont.Zone{zone}}
	p := soundfont.NewPreset("preset", 0, 0)
	p.Zones = []*soundfont.Zone{{Instrument: inst}}
	return &soundfont.Bank{
		Name:        "test",
		Samples:     []*soundfont.Sample{smp},
		Instruments: []*soundfont.Instrument{inst},
		Presets:     []*soundfont.Preset{p},
	}
}

func dryParams() *Params {
	p := NewDefaultParams()
	p.EffectsEnabled = false
	return p
}

func newTestSynth(t *testing.T, bank *soundfont.Bank, params *Params) *Synth {
	t.Helper()
	if params == nil {
		params = dryParams()
	}
	return New(testRate, bank, params)
}

// renderMono renders frames in 128-frame blocks and returns the left channel.
func renderMono(s *Synth, frames int) []float64 {
	out := make([]float64, 0, frames)
	for len(out) < frames {
		n := min(128, frames-len(out))
		block := s.Process(n)
		for i := 0; i < n; i++ {
			out = append(out, float64(block[i*2]))
		}
	}
	return out
}

func defaultGenerators() [soundfont.GeneratorCount]int32 {
	var gens [soundfont.GeneratorCount]int32
	for i := range gens {
		gens[i] = soundfont.Limits(soundfont.GeneratorType(i)).Default
	}
	return gens
}

func windowRMS(samples []float64) float64 {
	var sum float64
	for _, s := range samples {
		sum += s * s
	}
	if len(samples) == 0 {
		return 0
	}
	return math.Sqrt(sum / float64(len(samples)))
}

func newTestVoice(velocity, state int, attenuationDb float64, inRelease bool) *Voice {
	gens := defaultGenerators()
	v := newVoice(testRate, oscillator{}, &gens, nil, nil)
	v.velocity = velocity
	v.volEnv.state = state
	v.volEnv.currentAttenuationDb = attenuationDb
	v.isInRelease = inRelease
	return v
}
