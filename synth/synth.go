// Package synth renders SoundFont2-style banks into stereo audio blocks.
//
// A Synth is not safe for concurrent use: events and rendering must come
// from one goroutine, typically the audio callback.
package synth

import (
	"log"
	"math/rand"

	"github.com/cwbudde/algo-wavetable/effects"
	"github.com/cwbudde/algo-wavetable/soundfont"
)

// smoothingReferenceRate is the rate the Params smoothing factors are given at.
const smoothingReferenceRate = 44100.0

// Output receives one rendered block. Voices are mixed in additively, so
// callers clear it between blocks (Process does this itself).
type Output struct {
	Left, Right             []float32
	ReverbLeft, ReverbRight []float32
	ChorusLeft, ChorusRight []float32
}

// NewOutput allocates an output block of frames samples per bus.
func NewOutput(frames int) *Output {
	return &Output{
		Left:        make([]float32, frames),
		Right:       make([]float32, frames),
		ReverbLeft:  make([]float32, frames),
		ReverbRight: make([]float32, frames),
		ChorusLeft:  make([]float32, frames),
		ChorusRight: make([]float32, frames),
	}
}

// Frames returns the block length.
func (o *Output) Frames() int { return len(o.Left) }

// Clear zeroes every bus.
func (o *Output) Clear() {
	clear(o.Left)
	clear(o.Right)
	clear(o.ReverbLeft)
	clear(o.ReverbRight)
	clear(o.ChorusLeft)
	clear(o.ChorusRight)
}

// KeyTuning maps a key to the MIDI note it sounds as plus a cent offset.
type KeyTuning struct {
	MIDINote int
	Cents    float64
}

// Synth is the engine: it owns the channels, the event queue and the
// per-engine caches.
type Synth struct {
	sampleRate int
	bank       *soundfont.Bank
	params     *Params
	channels   []*Channel

	voiceCache  map[voiceCacheKey][]*Voice
	filterCache *FilterCoefficientCache

	currentTime   float64
	masterGain    float64
	panLeft       float64
	panRight      float64
	masterTuning  float64
	interpolation Interpolation

	volumeSmoothing float64
	panSmoothing    float64
	filterSmoothing float64

	// per-program key tuning tables
	keyTunings   map[int]*[128]KeyTuning
	keyModifiers map[keyModifierKey]KeyModifier
	rng          *rand.Rand

	queue   eventQueue
	pending []Event
	scratch []float32
	out     *Output
	stereo  []float32

	reverb *effects.Reverb
	chorus *effects.Chorus
}

// New creates an engine rendering bank at sampleRate. A nil params uses
// NewDefaultParams.
func New(sampleRate int, bank *soundfont.Bank, params *Params) *Synth {
	if params == nil {
		params = NewDefaultParams()
	}
	scale := smoothingReferenceRate / float64(sampleRate)
	s := &Synth{
		sampleRate:      sampleRate,
		bank:            bank,
		params:          params,
		voiceCache:      make(map[voiceCacheKey][]*Voice),
		filterCache:     NewFilterCoefficientCache(sampleRate),
		masterGain:      params.MasterGain,
		panLeft:         1,
		panRight:        1,
		interpolation:   params.Interpolation,
		volumeSmoothing: params.VolumeSmoothing * scale,
		panSmoothing:    params.PanSmoothing * scale,
		filterSmoothing: params.FilterSmoothing * scale,
		keyTunings:      make(map[int]*[128]KeyTuning),
		keyModifiers:    make(map[keyModifierKey]KeyModifier),
		rng:             rand.New(rand.NewSource(1)),
	}

	numChannels := params.Channels
	if numChannels <= 0 {
		numChannels = 16
	}
	s.channels = make([]*Channel, numChannels)
	for i := range s.channels {
		s.channels[i] = newChannel(s, i)
	}
	s.applyChannelParams()

	if params.EffectsEnabled {
		s.reverb = effects.NewReverb(sampleRate, params.ReverbSeconds)
		if params.ReverbIRWavPath != "" {
			if err := s.reverb.SetIRFromWAV(params.ReverbIRWavPath); err != nil {
				log.Printf("synth: reverb IR %q: %v", params.ReverbIRWavPath, err)
			}
		}
		chorus, err := effects.NewChorus(sampleRate, params.ChorusDepthMs, params.ChorusRateHz)
		if err != nil {
			log.Printf("synth: chorus disabled: %v", err)
		} else {
			s.chorus = chorus
		}
	}
	return s
}

// SampleRate returns the output rate in Hz.
func (s *Synth) SampleRate() int { return s.sampleRate }

// CurrentTime returns the logical time in seconds of the next block.
func (s *Synth) CurrentTime() float64 { return s.currentTime }

// Bank returns the bank in use.
func (s *Synth) Bank() *soundfont.Bank { return s.bank }

// Params returns the engine parameters.
func (s *Synth) Params() *Params { return s.params }

// NumChannels returns the number of MIDI channels.
func (s *Synth) NumChannels() int { return len(s.channels) }

// Channel returns channel i, or nil when out of range.
func (s *Synth) Channel(i int) *Channel {
	if i < 0 || i >= len(s.channels) {
		return nil
	}
	return s.channels[i]
}

// FilterCache returns the engine's filter coefficient cache.
func (s *Synth) FilterCache() *FilterCoefficientCache { return s.filterCache }

// VoiceCount returns the number of voices across all channels.
func (s *Synth) VoiceCount() int {
	n := 0
	for _, ch := range s.channels {
		n += len(ch.voices)
	}
	return n
}

// NoteOn starts a note. Velocity 0 is a note-off.
func (s *Synth) NoteOn(channel, note, velocity int) {
	if ch := s.Channel(channel); ch != nil && note >= 0 && note <= 127 {
		ch.noteOn(note, velocity)
	}
}

// NoteOff releases a note.
func (s *Synth) NoteOff(channel, note int) {
	if ch := s.Channel(channel); ch != nil {
		ch.noteOff(note)
	}
}

// ControllerChange applies a MIDI control change.
func (s *Synth) ControllerChange(channel, cc, value int) {
	if ch := s.Channel(channel); ch != nil {
		ch.controllerChange(cc, value)
	}
}

// ProgramChange selects a preset on a channel.
func (s *Synth) ProgramChange(channel, program int) {
	if ch := s.Channel(channel); ch != nil {
		ch.programChange(program)
	}
}

// PitchWheel sets the 14-bit pitch wheel value (8192 = center).
func (s *Synth) PitchWheel(channel, value int) {
	if ch := s.Channel(channel); ch != nil {
		ch.pitchWheel(value)
	}
}

// ChannelPressure sets channel aftertouch.
func (s *Synth) ChannelPressure(channel, pressure int) {
	if ch := s.Channel(channel); ch != nil {
		ch.channelPressure(pressure)
	}
}

// PolyPressure sets key aftertouch for the voices of note.
func (s *Synth) PolyPressure(channel, note, pressure int) {
	if ch := s.Channel(channel); ch != nil {
		ch.polyPressure(note, pressure)
	}
}

// StopAll releases every voice, or drops them immediately when force is set.
func (s *Synth) StopAll(force bool) {
	for _, ch := range s.channels {
		ch.stopAll(force)
	}
}

// Schedule queues an event for the block whose start time reaches e.Time.
func (s *Synth) Schedule(e Event) {
	s.queue.push(e)
}

// PendingEvents returns the number of queued events.
func (s *Synth) PendingEvents() int { return s.queue.len() }

func (s *Synth) dispatch(e Event) {
	switch e.Kind {
	case EventNoteOn:
		s.NoteOn(e.Channel, e.Data1, e.Data2)
	case EventNoteOff:
		s.NoteOff(e.Channel, e.Data1)
	case EventControllerChange:
		s.ControllerChange(e.Channel, e.Data1, e.Data2)
	case EventProgramChange:
		s.ProgramChange(e.Channel, e.Data1)
	case EventPitchWheel:
		s.PitchWheel(e.Channel, e.Data1)
	case EventChannelPressure:
		s.ChannelPressure(e.Channel, e.Data1)
	case EventPolyPressure:
		s.PolyPressure(e.Channel, e.Data1, e.Data2)
	case EventStopAll:
		s.StopAll(e.Data1 != 0)
	}
}

// Reset stops all sound, drops pending events and restores every channel
// to its power-on state.
func (s *Synth) Reset() {
	s.queue.clear()
	for _, ch := range s.channels {
		ch.reset()
	}
	s.applyChannelParams()
	if s.reverb != nil {
		s.reverb.Reset()
	}
	if s.chorus != nil {
		s.chorus.Reset()
	}
}

func (s *Synth) applyChannelParams() {
	for i, cp := range s.params.PerChannel {
		ch := s.Channel(i)
		if cp == nil || ch == nil {
			continue
		}
		ch.bankSelect = cp.BankSelect
		ch.program = cp.Program
		if cp.Drum {
			ch.drum = true
		}
		ch.selectPreset()
		ch.transpose(cp.Transpose)
		ch.custom[customChannelTuning] = cp.FineTuning
	}
}

// SetBank replaces the bank. Playing voices are dropped and every cache
// derived from the old bank is cleared.
func (s *Synth) SetBank(bank *soundfont.Bank) {
	s.StopAll(true)
	if s.bank != nil {
		s.bank.ClearCaches()
	}
	s.bank = bank
	if bank != nil {
		bank.ClearCaches()
	}
	clear(s.voiceCache)
	for _, ch := range s.channels {
		ch.selectPreset()
	}
}

// ClearVoiceCache drops the cached voice templates.
func (s *Synth) ClearVoiceCache() {
	clear(s.voiceCache)
}

// SetMasterGain sets the linear master gain.
func (s *Synth) SetMasterGain(gain float64) {
	s.masterGain = max(0, gain)
}

// SetMasterPan sets the master balance in [-1, 1].
func (s *Synth) SetMasterPan(pan float64) {
	pan = clamp(pan, -1, 1)
	s.panLeft = min(1, 1-pan)
	s.panRight = min(1, 1+pan)
}

// SetMasterTuning sets the global tuning offset in cents.
func (s *Synth) SetMasterTuning(cents float64) {
	s.masterTuning = cents
	for _, ch := range s.channels {
		ch.custom[customMasterTuning] = cents
	}
}

// SetInterpolation selects the oscillator interpolation mode.
func (s *Synth) SetInterpolation(mode Interpolation) {
	s.interpolation = mode
}

// SetKeyTuning retunes key for every channel playing program: the key
// sounds as midiNote plus cents. A negative midiNote removes the entry.
func (s *Synth) SetKeyTuning(program, key, midiNote int, cents float64) {
	if program < 0 || program > 127 || key < 0 || key > 127 {
		return
	}
	t := s.keyTunings[program]
	if t == nil {
		if midiNote < 0 {
			return
		}
		t = new([128]KeyTuning)
		for i := range t {
			t[i].MIDINote = -1
		}
		s.keyTunings[program] = t
	}
	if midiNote < 0 {
		t[key] = KeyTuning{MIDINote: -1}
		return
	}
	t[key] = KeyTuning{MIDINote: min(127, midiNote), Cents: cents}
}

func (s *Synth) keyTuning(ch *Channel, realKey int) (KeyTuning, bool) {
	if realKey < 0 || realKey > 127 {
		return KeyTuning{}, false
	}
	t := s.keyTunings[ch.program]
	if t == nil || t[realKey].MIDINote < 0 {
		return KeyTuning{}, false
	}
	return t[realKey], true
}

// Transpose shifts a channel by semitones; fractions become fine tuning.
func (s *Synth) Transpose(channel int, semitones float64) {
	if ch := s.Channel(channel); ch != nil {
		ch.transpose(semitones)
	}
}

// SetOctaveTuning sets per-pitch-class offsets in cents (C first).
func (s *Synth) SetOctaveTuning(channel int, cents [12]float64) {
	if ch := s.Channel(channel); ch != nil {
		ch.octaveTuning = cents
	}
}

// SetDrums switches a channel between melodic and percussion banks.
func (s *Synth) SetDrums(channel int, drum bool) {
	if ch := s.Channel(channel); ch != nil {
		ch.setDrums(drum)
	}
}

// SetVibrato sets a channel-wide vibrato applied on top of the bank's.
// A zero depth disables it.
func (s *Synth) SetVibrato(channel int, rateHz, depthCents, delaySeconds float64) {
	if ch := s.Channel(channel); ch != nil {
		ch.vibrato = channelVibrato{rate: rateHz, depth: depthCents, delay: delaySeconds}
	}
}

// SetRandomPan makes every following note on the channel play at a random
// fixed pan position.
func (s *Synth) SetRandomPan(channel int, on bool) {
	if ch := s.Channel(channel); ch != nil {
		ch.randomPan = on
	}
}

// SetVelocityOverride plays every note on the channel at velocity. Zero
// disables the override.
func (s *Synth) SetVelocityOverride(channel, velocity int) {
	if ch := s.Channel(channel); ch != nil {
		ch.velocityOverride = max(0, min(127, velocity))
	}
}

// SetMute mutes a channel: its voices stop at once and new notes are
// ignored until it is unmuted.
func (s *Synth) SetMute(channel int, muted bool) {
	if ch := s.Channel(channel); ch != nil {
		ch.muted = muted
		if muted {
			ch.stopAll(true)
		}
	}
}

// Render renders one block into out. Due events are applied first, at the
// block start; the clock then advances by the block length.
func (s *Synth) Render(out *Output) {
	frames := out.Frames()
	if frames == 0 {
		return
	}
	s.pending = s.queue.due(s.currentTime, s.pending[:0])
	for _, e := range s.pending {
		s.dispatch(e)
	}

	if cap(s.scratch) < frames {
		s.scratch = make([]float32, frames)
	}
	buf := s.scratch[:frames]
	for _, ch := range s.channels {
		ch.render(s.currentTime, buf, out)
	}

	if limit := s.params.MaxPolyphony; limit > 0 {
		if n := s.VoiceCount(); n > limit {
			s.killVoices(n - limit)
		}
	}
	s.currentTime += float64(frames) / float64(s.sampleRate)
}

// Process renders a block of audio samples (stereo interleaved), with the
// reverb and chorus returns mixed in. The returned slice is reused by the
// next call.
func (s *Synth) Process(numFrames int) []float32 {
	if s.out == nil || s.out.Frames() != numFrames {
		s.out = NewOutput(numFrames)
	} else {
		s.out.Clear()
	}
	out := s.out
	s.Render(out)

	ret := float32(s.params.EffectSendReturn)
	if s.reverb != nil && ret > 0 {
		s.reverb.Process(out.ReverbLeft, out.Left, out.Right, ret)
	}
	if s.chorus != nil && ret > 0 {
		s.chorus.Process(out.ChorusLeft, out.ChorusRight, out.Left, out.Right, ret)
	}

	if cap(s.stereo) < numFrames*2 {
		s.stereo = make([]float32, numFrames*2)
	}
	stereo := s.stereo[:numFrames*2]
	for i := range numFrames {
		stereo[i*2] = out.Left[i]
		stereo[i*2+1] = out.Right[i]
	}
	return stereo
}
