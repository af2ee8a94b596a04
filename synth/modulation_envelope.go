package synth

import "github.com/cwbudde/algo-wavetable/soundfont"

// modulationEnvelope is the SoundFont2 modulation envelope in [0, 1]. Its
// phase boundaries are absolute render times in seconds.
type modulationEnvelope struct {
	attackDuration  float64
	decayDuration   float64
	holdDuration    float64
	releaseDuration float64
	sustainLevel    float64

	delayEnd  float64
	attackEnd float64
	holdEnd   float64
	decayEnd  float64

	releaseStartLevel float64
	currentValue      float64
}

func (e *modulationEnvelope) recalculate(gens *[soundfont.GeneratorCount]int32, midiNote int, startTime float64, inRelease bool, releaseStartTime float64) {
	if inRelease {
		e.releaseStartLevel = e.value(releaseStartTime, false, releaseStartTime)
	}

	e.sustainLevel = 1 - float64(gens[soundfont.SustainModEnv])/1000
	e.attackDuration = timecentsToSeconds(float64(gens[soundfont.AttackModEnv]))

	keyShift := float64(60 - midiNote)
	decayTime := timecentsToSeconds(float64(gens[soundfont.DecayModEnv]) + keyShift*float64(gens[soundfont.KeyNumToModEnvDecay]))
	// decay time runs from peak to zero; only the part down to sustain is used
	e.decayDuration = decayTime * (1 - e.sustainLevel)
	e.holdDuration = timecentsToSeconds(float64(gens[soundfont.HoldModEnv]) + keyShift*float64(gens[soundfont.KeyNumToModEnvHold]))

	// release time runs from peak to zero as well
	e.releaseDuration = timecentsToSeconds(float64(gens[soundfont.ReleaseModEnv])) * e.releaseStartLevel

	e.delayEnd = startTime + timecentsToSeconds(float64(gens[soundfont.DelayModEnv]))
	e.attackEnd = e.delayEnd + e.attackDuration
	e.holdEnd = e.attackEnd + e.holdDuration
	e.decayEnd = e.holdEnd + e.decayDuration
}

// value returns the envelope level at now. When inRelease is false the
// release segment is ignored, which is how the release start level is captured.
func (e *modulationEnvelope) value(now float64, inRelease bool, releaseStartTime float64) float64 {
	if inRelease {
		if e.releaseStartLevel == 0 || e.releaseDuration <= 0 {
			return 0
		}
		v := (1 - (now-releaseStartTime)/e.releaseDuration) * e.releaseStartLevel
		if v < 0 {
			return 0
		}
		return v
	}

	switch {
	case now < e.delayEnd:
		e.currentValue = 0
	case now < e.attackEnd:
		idx := int((1 - (e.attackEnd-now)/e.attackDuration) * float64(len(convexAttack)))
		if idx >= len(convexAttack) {
			idx = len(convexAttack) - 1
		} else if idx < 0 {
			idx = 0
		}
		e.currentValue = convexAttack[idx]
	case now < e.holdEnd:
		e.currentValue = 1
	case now < e.decayEnd:
		e.currentValue = (1-(e.decayEnd-now)/e.decayDuration)*(e.sustainLevel-1) + 1
	default:
		e.currentValue = e.sustainLevel
	}
	return e.currentValue
}
