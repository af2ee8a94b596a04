package synth

import (
	"math"

	"github.com/cwbudde/algo-wavetable/soundfont"
)

const (
	// MinNoteLength is the shortest time a note sounds before its release begins.
	MinNoteLength = 0.03
	// minExclusiveLength is the shortest life of a voice cut by an exclusive class.
	minExclusiveLength = 0.07

	// near-instant release applied to voices cut by an exclusive class
	exclusiveCutoffTime    = -2320
	exclusiveModCutoffTime = -1130
)

// Voice is one playing layer of one note. It is owned by exactly one
// channel's active list.
type Voice struct {
	osc oscillator

	generators [soundfont.GeneratorCount]int32
	modulated  [soundfont.GeneratorCount]int32
	modulators []soundfont.Modulator
	modValues  []float64

	volEnv volumeEnvelope
	modEnv modulationEnvelope
	filter lowpassFilter

	sampleName string
	channel    int
	midiNote   int
	realKey    int
	targetKey  int
	velocity   int
	pressure   int

	startTime        float64
	releaseStartTime float64
	isInRelease      bool
	finished         bool
	sustained        bool

	currentTuningCents int
	currentTuningRatio float64
	currentPan         float64
	overridePan        float64
	gain               float64

	exclusiveClass     int32
	portamentoFromKey  int
	portamentoDuration float64
}

func newVoice(sampleRate int, osc oscillator, gens *[soundfont.GeneratorCount]int32, mods []soundfont.Modulator, cache *FilterCoefficientCache) *Voice {
	v := &Voice{
		osc:                osc,
		generators:         *gens,
		modulated:          *gens,
		modulators:         mods,
		volEnv:             newVolumeEnvelope(sampleRate, gens[soundfont.SustainVolEnv]),
		filter:             newLowpassFilter(cache),
		releaseStartTime:   math.Inf(1),
		currentTuningRatio: 1,
		gain:               1,
		exclusiveClass:     gens[soundfont.ExclusiveClass],
		portamentoFromKey:  -1,
	}
	return v
}

// clone returns a fresh voice with the same sample, generators and
// modulators but independent playback state, started at now.
func (v *Voice) clone(now float64, realKey int) *Voice {
	mods := make([]soundfont.Modulator, len(v.modulators))
	copy(mods, v.modulators)
	osc := v.osc
	osc.isLooping = osc.loopingMode == loopModeContinuous || osc.loopingMode == loopModeUntilRelease
	n := newVoice(int(v.volEnv.sampleRate), osc, &v.generators, mods, v.filter.cache)
	n.sampleName = v.sampleName
	n.channel = v.channel
	n.midiNote = v.midiNote
	n.velocity = v.velocity
	n.targetKey = v.targetKey
	n.realKey = realKey
	n.startTime = now
	return n
}

// release schedules the release at now, deferred so the note lasts at
// least minLength seconds.
func (v *Voice) release(now, minLength float64) {
	v.releaseStartTime = now
	if v.releaseStartTime-v.startTime < minLength {
		v.releaseStartTime = v.startTime + minLength
	}
}

// exclusiveRelease cuts the voice almost immediately.
func (v *Voice) exclusiveRelease(now float64) {
	v.release(now, minExclusiveLength)
	v.modulated[soundfont.ReleaseVolEnv] = exclusiveCutoffTime
	v.modulated[soundfont.ReleaseModEnv] = exclusiveModCutoffTime
	v.recalculateEnvelopes()
}

// startRelease enters the release phase on both envelopes.
func (v *Voice) startRelease() {
	v.isInRelease = true
	v.volEnv.startRelease()
	if v.volEnv.recalculate(&v.modulated, v.targetKey, true) {
		v.finished = true
	}
	v.modEnv.recalculate(&v.modulated, v.midiNote, v.startTime, true, v.releaseStartTime)
	if v.osc.loopingMode == loopModeUntilRelease {
		v.osc.isLooping = false
	}
}

func (v *Voice) recalculateVolumeEnvelope() {
	if v.volEnv.recalculate(&v.modulated, v.targetKey, v.isInRelease) {
		v.finished = true
	}
}

func (v *Voice) recalculateModulationEnvelope() {
	v.modEnv.recalculate(&v.modulated, v.midiNote, v.startTime, v.isInRelease, v.releaseStartTime)
}

func (v *Voice) recalculateEnvelopes() {
	v.recalculateVolumeEnvelope()
	v.recalculateModulationEnvelope()
}

// applySampleOffsets moves the playback window by the address offset
// generators. Offsets are fixed at note-on.
func (v *Voice) applySampleOffsets() {
	o := &v.osc
	last := len(o.data) - 1
	offset := func(fine, coarse soundfont.GeneratorType) int {
		return int(v.modulated[fine]) + int(v.modulated[coarse])*32768
	}
	clampIndex := func(i int) int {
		return max(0, min(last, i))
	}
	o.cursor = float64(clampIndex(int(o.cursor) + offset(soundfont.StartAddrsOffset, soundfont.StartAddrsCoarseOffset)))
	o.end = clampIndex(o.end + offset(soundfont.EndAddrOffset, soundfont.EndAddrsCoarseOffset))
	o.loopStart = clampIndex(o.loopStart + offset(soundfont.StartloopAddrsOffset, soundfont.StartloopAddrsCoarseOffset))
	o.loopEnd = clampIndex(o.loopEnd + offset(soundfont.EndloopAddrsOffset, soundfont.EndloopAddrsCoarseOffset))
	if o.loopEnd < o.loopStart {
		o.loopStart, o.loopEnd = o.loopEnd, o.loopStart
	}
	if o.loopEnd-o.loopStart < 1 {
		o.loopingMode = loopModeNone
		o.isLooping = false
	}
}

// Channel returns the MIDI channel the voice plays on.
func (v *Voice) Channel() int { return v.channel }

// Note returns the MIDI note the voice was resolved for.
func (v *Voice) Note() int { return v.midiNote }

// Velocity returns the effective velocity, after generator overrides.
func (v *Voice) Velocity() int { return v.velocity }

// SampleName returns the name of the sample being played.
func (v *Voice) SampleName() string { return v.sampleName }

// InRelease reports whether the voice has entered its release phase.
func (v *Voice) InRelease() bool { return v.isInRelease }

// Finished reports whether the voice has ended and awaits removal.
func (v *Voice) Finished() bool { return v.finished }

// Generator returns the modulated value of a generator.
func (v *Voice) Generator(t soundfont.GeneratorType) int32 {
	if t < 0 || t >= soundfont.GeneratorCount {
		return 0
	}
	return v.modulated[t]
}

// BaseGenerator returns the summed, unmodulated value of a generator.
func (v *Voice) BaseGenerator(t soundfont.GeneratorType) int32 {
	if t < 0 || t >= soundfont.GeneratorCount {
		return 0
	}
	return v.generators[t]
}

// EnvelopeState returns the volume envelope phase (0 delay .. 4 sustain).
func (v *Voice) EnvelopeState() int { return v.volEnv.state }

// Modulators returns the voice's modulator list.
func (v *Voice) Modulators() []soundfont.Modulator { return v.modulators }
