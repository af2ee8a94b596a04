package synth

import (
	"log"
	"math"

	"github.com/cwbudde/algo-wavetable/soundfont"
)

// DrumChannel is the General MIDI percussion channel (zero based).
const DrumChannel = 9

type channelVibrato struct {
	rate  float64 // Hz
	depth float64 // cents
	delay float64 // seconds
}

// Channel holds the MIDI state of one channel and its active voices.
type Channel struct {
	synth  *Synth
	number int

	preset     *soundfont.Preset
	bankSelect int
	program    int
	drum       bool

	controllers    controllerTable
	custom         [customControllerCount]float64
	dataEntryState int
	// rpnFineTuningMSB keeps the coarse half of an RPN fine tuning entry.
	rpnFineTuningMSB int

	holdPedal    bool
	randomPan    bool
	muted        bool
	// velocityOverride replaces note-on velocities when > 0
	velocityOverride int
	keyShift         int
	octaveTuning [12]float64
	vibrato      channelVibrato

	voices []*Voice
}

func newChannel(s *Synth, number int) *Channel {
	ch := &Channel{
		synth:  s,
		number: number,
		drum:   number%16 == DrumChannel,
	}
	ch.controllers = controllerResetValues
	ch.custom = customResetValues
	if s.masterTuning != 0 {
		ch.custom[customMasterTuning] = s.masterTuning
	}
	ch.selectPreset()
	return ch
}

// Number returns the zero-based channel number.
func (ch *Channel) Number() int { return ch.number }

// Preset returns the selected preset, or nil if the bank has none.
func (ch *Channel) Preset() *soundfont.Preset { return ch.preset }

// IsDrum reports whether the channel plays from the percussion bank.
func (ch *Channel) IsDrum() bool { return ch.drum }

// Voices returns the channel's active voices.
func (ch *Channel) Voices() []*Voice { return ch.voices }

// Controller returns the 7-bit value of a MIDI controller.
func (ch *Channel) Controller(cc int) int {
	if cc < 0 || cc > 127 {
		return 0
	}
	return int(ch.controllers[cc] >> 7)
}

func (ch *Channel) tuningCents() float64 {
	return ch.custom[customChannelTuning] +
		ch.custom[customTransposeFine] +
		ch.custom[customMasterTuning] +
		ch.custom[customTuningSemitones]*100
}

func (ch *Channel) selectPreset() {
	bank := ch.synth.bank
	if bank == nil {
		ch.preset = nil
		return
	}
	b := ch.bankSelect
	if ch.drum {
		b = soundfont.DrumBank
	}
	p, err := bank.Preset(b, ch.program)
	if err != nil {
		log.Printf("synth: channel %d: %v", ch.number, err)
		ch.preset = nil
		return
	}
	ch.preset = p
}

func (ch *Channel) programChange(program int) {
	if program < 0 || program > 127 {
		return
	}
	ch.program = program
	ch.selectPreset()
}

func (ch *Channel) setDrums(drum bool) {
	if ch.drum == drum {
		return
	}
	ch.drum = drum
	ch.selectPreset()
}

// keyTuningFor returns the tuning-table entry for realKey, if any.
func (ch *Channel) keyTuningFor(realKey int) (KeyTuning, bool) {
	return ch.synth.keyTuning(ch, realKey)
}

func (ch *Channel) noteOn(note, velocity int) {
	if velocity < 1 {
		ch.noteOff(note)
		return
	}
	if ch.muted {
		return
	}
	velocity = min(127, velocity)
	s := ch.synth

	realKey := note + ch.keyShift
	if realKey < 0 || realKey > 127 {
		return
	}
	sentNote := realKey
	if t, ok := ch.keyTuningFor(realKey); ok {
		sentNote = t.MIDINote
	}

	if ch.velocityOverride > 0 {
		velocity = ch.velocityOverride
	}
	preset := ch.preset
	gain := 1.0
	if m, ok := s.keyModifier(ch.number, realKey); ok {
		if m.Velocity >= 0 {
			velocity = min(127, m.Velocity)
		}
		if m.hasPatch() && s.bank != nil {
			if p, err := s.bank.Preset(m.Bank, m.Program); err == nil {
				preset = p
			}
		}
		gain = max(0, m.Gain)
	}

	portamentoFromKey := -1
	portamentoDuration := 0.0
	portamentoTime := int(ch.controllers[CCPortamentoTime] >> 7)
	control := ch.controllers[CCPortamentoControl]
	fromKey := int(control >> 7)
	if !ch.drum && fromKey != sentNote && ch.controllers[CCPortamentoOnOff] >= 64<<7 && portamentoTime > 0 {
		if control != portamentoControlUnset {
			distance := sentNote - fromKey
			if distance < 0 {
				distance = -distance
			}
			portamentoDuration = portamentoTimeToSeconds(portamentoTime, distance)
			portamentoFromKey = fromKey
		}
		ch.controllers[CCPortamentoControl] = int32(sentNote << 7)
	}

	voices := s.voicesFor(ch, preset, sentNote, velocity, realKey)

	// zero keeps the smoothed generator pan
	overridePan := 0.0
	if ch.randomPan {
		overridePan = math.Round(s.rng.Float64()*1000 - 500)
	}

	for _, v := range voices {
		v.portamentoFromKey = portamentoFromKey
		v.portamentoDuration = portamentoDuration
		v.overridePan = overridePan
		v.gain = gain
		if v.exclusiveClass != 0 {
			for _, other := range ch.voices {
				if other.exclusiveClass == v.exclusiveClass {
					other.exclusiveRelease(s.currentTime)
				}
			}
		}
		v.computeModulators(&ch.controllers)
		v.applySampleOffsets()
		// start at the target level rather than fading in from silence
		v.volEnv.attenuation = v.volEnv.attenuationTargetGain
		v.currentPan = clamp(float64(v.modulated[soundfont.Pan]), minPan, maxPan)
	}

	if s.params.MaxPolyphony > 0 && s.VoiceCount()+len(voices) > s.params.MaxPolyphony {
		s.killVoices(len(voices))
	}
	ch.voices = append(ch.voices, voices...)
}

func (ch *Channel) noteOff(note int) {
	if note < 0 || note > 127 {
		return
	}
	if ch.drum && ch.synth.params.IgnoreDrumNoteOff {
		return
	}
	realKey := note + ch.keyShift
	now := ch.synth.currentTime
	for _, v := range ch.voices {
		if v.realKey != realKey || v.isInRelease || v.sustained {
			continue
		}
		if !math.IsInf(v.releaseStartTime, 1) {
			continue
		}
		if ch.holdPedal {
			v.sustained = true
			continue
		}
		v.release(now, ch.synth.params.MinNoteLength)
	}
}

// stopAll releases every voice, or drops them at once when force is set.
func (ch *Channel) stopAll(force bool) {
	if force {
		ch.voices = ch.voices[:0]
		return
	}
	now := ch.synth.currentTime
	for _, v := range ch.voices {
		v.sustained = false
		if !v.isInRelease {
			v.release(now, ch.synth.params.MinNoteLength)
		}
	}
}

func (ch *Channel) removeVoice(v *Voice) {
	for i, cur := range ch.voices {
		if cur == v {
			ch.voices = append(ch.voices[:i], ch.voices[i+1:]...)
			return
		}
	}
}

func (ch *Channel) recomputeModulators(isCC bool, index int) {
	for _, v := range ch.voices {
		v.computeModulatorsFor(&ch.controllers, isCC, index)
	}
}

func (ch *Channel) controllerChange(cc, value int) {
	if cc < 0 || cc > 127 {
		return
	}
	value = max(0, min(127, value))

	// LSB controllers refine their MSB partner, except data entry which is
	// interpreted separately.
	if cc >= CCModulationLSB && cc <= CCEffectControl2LSB && cc != CCDataEntryLSB {
		msb := cc - 32
		ch.controllers[msb] = ch.controllers[msb]&0x3F80 | int32(value&0x7F)
		ch.recomputeModulators(true, msb)
	}

	ch.controllers[cc] = int32(value << 7)

	switch cc {
	case CCAllNotesOff, CCOmniOff, 125, 126, CCPolyOn:
		ch.stopAll(false)
	case CCAllSoundOff:
		ch.stopAll(true)
	case CCBankSelect:
		ch.bankSelect = value
	case CCBankSelectLSB:
		// only MSB banks are addressed
	case CCRPNLSB:
		ch.dataEntryState = dataEntryRPFine
	case CCRPNMSB:
		ch.dataEntryState = dataEntryRPCoarse
	case CCNRPNMSB:
		ch.dataEntryState = dataEntryNRPCoarse
	case CCNRPNLSB:
		ch.dataEntryState = dataEntryNRPFine
	case CCDataEntryMSB:
		ch.dataEntryCoarse(value)
	case CCDataEntryLSB:
		ch.dataEntryFine(value)
	case CCResetAll:
		ch.resetControllersRP15()
	case CCSustainPedal:
		if value >= 64 {
			ch.holdPedal = true
			break
		}
		ch.holdPedal = false
		now := ch.synth.currentTime
		for _, v := range ch.voices {
			if v.sustained {
				v.sustained = false
				v.release(now, ch.synth.params.MinNoteLength)
			}
		}
	default:
		ch.recomputeModulators(true, cc)
	}
}

func (ch *Channel) rpn() int {
	return int(ch.controllers[CCRPNMSB] | ch.controllers[CCRPNLSB]>>7)
}

func (ch *Channel) dataEntryCoarse(value int) {
	switch ch.dataEntryState {
	case dataEntryNRPFine:
		ch.nrpnCoarse(value)
	case dataEntryRPCoarse, dataEntryRPFine:
		switch ch.rpn() {
		case rpnPitchBendRange:
			ch.controllers[nonCCIndexOffset+soundfont.SourcePitchWheelRange] = int32(value << 7)
			ch.recomputeModulators(false, soundfont.SourcePitchWheelRange)
		case rpnCoarseTuning:
			ch.custom[customTuningSemitones] = float64(value - 64)
		case rpnFineTuning:
			ch.rpnFineTuningMSB = value
			ch.setFineTuning(value << 7)
		case rpnModulationDepth:
			ch.setModulationDepth(float64(value) * 100)
		case rpnReset:
			ch.dataEntryState = dataEntryIdle
		}
	}
}

func (ch *Channel) dataEntryFine(value int) {
	switch ch.dataEntryState {
	case dataEntryRPCoarse, dataEntryRPFine:
		switch ch.rpn() {
		case rpnPitchBendRange:
			if value == 0 {
				return
			}
			ch.controllers[nonCCIndexOffset+soundfont.SourcePitchWheelRange] |= int32(value)
			ch.recomputeModulators(false, soundfont.SourcePitchWheelRange)
		case rpnFineTuning:
			ch.setFineTuning(ch.rpnFineTuningMSB<<7 | value)
		case rpnModulationDepth:
			cents := ch.custom[customModulationMultiplier]*50 + float64(value)/128*100
			ch.setModulationDepth(cents)
		case rpnReset:
			ch.dataEntryState = dataEntryIdle
		}
	}
}

// setFineTuning applies a 14-bit RPN fine tuning value (8192 = center,
// full range +-100 cents).
func (ch *Channel) setFineTuning(value14 int) {
	ch.custom[customChannelTuning] = float64(value14-8192) * 100 / 8192
}

// setModulationDepth scales vibrato depth; 50 cents is the unity depth.
func (ch *Channel) setModulationDepth(cents float64) {
	ch.custom[customModulationMultiplier] = cents / 50
}

// nrpnCoarse handles the GS part parameters that have an engine equivalent.
func (ch *Channel) nrpnCoarse(value int) {
	if int(ch.controllers[CCNRPNMSB]>>7) != nrpnPartParameter {
		return
	}
	ensureVibrato := func() {
		if ch.vibrato == (channelVibrato{}) {
			ch.vibrato = channelVibrato{rate: 8, depth: 50, delay: 0.6}
		}
	}
	switch int(ch.controllers[CCNRPNLSB] >> 7) {
	case nrpnVibratoRate:
		if value == 64 {
			return
		}
		ensureVibrato()
		ch.vibrato.rate = float64(value) / 64 * 8
	case nrpnVibratoDepth:
		if value == 64 {
			return
		}
		ensureVibrato()
		ch.vibrato.depth = float64(value) / 2
	case nrpnVibratoDelay:
		if value == 64 {
			return
		}
		ensureVibrato()
		ch.vibrato.delay = float64(value) / 64 / 3
	case nrpnFilterCutoff:
		ch.controllerChange(CCBrightness, value)
	case nrpnAttackTime:
		ch.controllerChange(CCAttackTime, value)
	case nrpnReleaseTime:
		ch.controllerChange(CCReleaseTime, value)
	}
}

func (ch *Channel) pitchWheel(value14 int) {
	value14 = max(0, min(16383, value14))
	ch.controllers[nonCCIndexOffset+soundfont.SourcePitchWheel] = int32(value14)
	ch.recomputeModulators(false, soundfont.SourcePitchWheel)
}

func (ch *Channel) channelPressure(pressure int) {
	pressure = max(0, min(127, pressure))
	ch.controllers[nonCCIndexOffset+soundfont.SourceChannelPressure] = int32(pressure << 7)
	ch.recomputeModulators(false, soundfont.SourceChannelPressure)
}

func (ch *Channel) polyPressure(note, pressure int) {
	pressure = max(0, min(127, pressure))
	for _, v := range ch.voices {
		if v.midiNote == note {
			v.pressure = pressure
			v.computeModulatorsFor(&ch.controllers, false, soundfont.SourcePolyPressure)
		}
	}
}

// nonResettable lists the controllers that "reset all controllers" keeps.
var nonResettable = map[int]bool{
	CCBankSelect: true, CCBankSelectLSB: true, CCMainVolume: true, CCMainVolume + 32: true,
	CCPan: true, CCPan + 32: true, CCReverbDepth: true, CCTremoloDepth: true, CCChorusDepth: true,
	94: true, 95: true, 70: true, CCFilterResonance: true, CCReleaseTime: true, CCAttackTime: true,
	CCBrightness: true, CCDecayTime: true, CCVibratoRate: true, CCVibratoDepth: true,
	CCVibratoDelay: true, 79: true,
}

// resetControllersRP15 implements CC121 per RP-015: performance controllers
// return to defaults while sound-design controllers are kept.
func (ch *Channel) resetControllersRP15() {
	ch.octaveTuning = [12]float64{}
	ch.vibrato = channelVibrato{}
	ch.pitchWheel(8192)
	for cc := 0; cc < 128; cc++ {
		reset := controllerResetValues[cc]
		if nonResettable[cc] || reset == ch.controllers[cc] {
			continue
		}
		if cc == CCPortamentoControl {
			ch.controllers[cc] = portamentoControlUnset
			continue
		}
		ch.controllerChange(cc, int(reset>>7))
	}
}

// reset restores every controller and custom value, keeping the transpose.
func (ch *Channel) reset() {
	ch.stopAll(true)
	ch.octaveTuning = [12]float64{}
	transposeFine := ch.custom[customTransposeFine]
	master := ch.custom[customMasterTuning]
	ch.controllers = controllerResetValues
	ch.custom = customResetValues
	ch.custom[customTransposeFine] = transposeFine
	ch.custom[customMasterTuning] = master
	ch.vibrato = channelVibrato{}
	ch.holdPedal = false
	ch.randomPan = false
	ch.dataEntryState = dataEntryIdle
	ch.bankSelect = 0
	ch.program = 0
	ch.drum = ch.number%16 == DrumChannel
	ch.selectPreset()
}

// transpose shifts incoming notes by semitones; the fractional part is
// applied as fine tuning.
func (ch *Channel) transpose(semitones float64) {
	whole := math.Trunc(semitones)
	ch.keyShift = int(whole)
	ch.custom[customTransposeFine] = (semitones - whole) * 100
}

// render runs every voice of the channel and drops the finished ones.
func (ch *Channel) render(now float64, buf []float32, out *Output) {
	kept := ch.voices[:0]
	for _, v := range ch.voices {
		if !ch.renderVoice(v, now, buf, out) {
			kept = append(kept, v)
		}
	}
	for i := len(kept); i < len(ch.voices); i++ {
		ch.voices[i] = nil
	}
	ch.voices = kept
}
