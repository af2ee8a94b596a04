package synth

import (
	"math"

	"github.com/cwbudde/algo-wavetable/soundfont"
)

const (
	dbSilence          = 100.0
	perceivedDBSilence = 90.0
	// around 96 dB of attenuation
	perceivedGainSilence = 0.000015
)

// Volume envelope states. Release is tracked by the voice, not the state.
const (
	envDelay = iota
	envAttack
	envHold
	envDecay
	envSustain
)

// volumeEnvelope is the SoundFont2 DAHDSR amplitude envelope. Times are in
// samples since the voice started.
type volumeEnvelope struct {
	sampleRate float64

	currentSampleTime    float64
	currentAttenuationDb float64
	state                int

	releaseStartDb          float64
	releaseStartTimeSamples float64
	currentReleaseGain      float64

	attackDuration  float64
	decayDuration   float64
	releaseDuration float64

	// attenuation is the smoothed linear gain chasing attenuationTargetGain.
	attenuation           float64
	attenuationTargetGain float64
	attenuationTarget     float64
	sustainDbRelative     float64

	delayEnd  float64
	attackEnd float64
	holdEnd   float64
	decayEnd  float64

	canEndOnSilentSustain bool
}

func newVolumeEnvelope(sampleRate int, initialSustain int32) volumeEnvelope {
	return volumeEnvelope{
		sampleRate:            float64(sampleRate),
		currentAttenuationDb:  dbSilence,
		releaseStartDb:        dbSilence,
		currentReleaseGain:    1,
		canEndOnSilentSustain: float64(initialSustain)/10 >= perceivedDBSilence,
	}
}

func (e *volumeEnvelope) timecentsToSamples(tc float64) float64 {
	return math.Max(0, math.Floor(timecentsToSeconds(tc)*e.sampleRate))
}

// recalculate derives phase boundaries from the modulated generators. When
// the voice is releasing it also reconstructs the level at which release
// began; it reports true if that level is already inaudible.
func (e *volumeEnvelope) recalculate(gens *[soundfont.GeneratorCount]int32, targetKey int, inRelease bool) bool {
	e.attenuationTarget = clamp(float64(gens[soundfont.InitialAttenuation]), 0, 1440) / 10
	e.attenuationTargetGain = attenuationToGain(e.attenuationTarget)
	e.sustainDbRelative = math.Min(dbSilence, float64(gens[soundfont.SustainVolEnv])/10)
	sustainDb := clamp(e.sustainDbRelative, 0, dbSilence)

	e.attackDuration = e.timecentsToSamples(float64(gens[soundfont.AttackVolEnv]))

	// Decay time is specified from peak to silence; scale it to peak to sustain.
	keyShift := float64(60 - targetKey)
	decayCents := float64(gens[soundfont.DecayVolEnv]) + keyShift*float64(gens[soundfont.KeyNumToVolEnvDecay])
	e.decayDuration = e.timecentsToSamples(decayCents) * sustainDb / dbSilence

	e.releaseDuration = e.timecentsToSamples(float64(gens[soundfont.ReleaseVolEnv]))

	e.delayEnd = e.timecentsToSamples(float64(gens[soundfont.DelayVolEnv]))
	e.attackEnd = e.attackDuration + e.delayEnd
	holdCents := float64(gens[soundfont.HoldVolEnv]) + keyShift*float64(gens[soundfont.KeyNumToVolEnvHold])
	e.holdEnd = e.timecentsToSamples(holdCents) + e.attackEnd
	e.decayEnd = e.decayDuration + e.holdEnd

	if e.state == envDelay && e.attackEnd == 0 {
		e.state = envHold
	}

	if !inRelease {
		return false
	}

	switch e.state {
	case envDelay:
		e.releaseStartDb = dbSilence
	case envAttack:
		// attack is linear in gain; convert the reached fraction back to dB
		reached := 1 - (e.attackEnd-e.releaseStartTimeSamples)/e.attackDuration
		if reached <= 0 {
			e.releaseStartDb = dbSilence
		} else {
			e.releaseStartDb = -20 * math.Log10(reached)
		}
	case envHold:
		e.releaseStartDb = 0
	case envDecay:
		e.releaseStartDb = 0
		if e.decayDuration > 0 {
			e.releaseStartDb = (1 - (e.decayEnd-e.releaseStartTimeSamples)/e.decayDuration) * sustainDb
		}
	case envSustain:
		e.releaseStartDb = sustainDb
	}
	e.releaseStartDb = clamp(e.releaseStartDb, 0, dbSilence)
	e.currentReleaseGain = attenuationToGain(e.releaseStartDb)

	// Release time is specified from peak to silence.
	e.releaseDuration *= (dbSilence - e.releaseStartDb) / dbSilence
	return e.releaseStartDb >= perceivedDBSilence
}

// startRelease marks the current sample as the release point.
func (e *volumeEnvelope) startRelease() {
	e.releaseStartTimeSamples = e.currentSampleTime
	e.currentReleaseGain = attenuationToGain(e.currentAttenuationDb)
}

// apply multiplies buf by the envelope, advancing one sample per element.
// centibelOffset is extra attenuation (mod LFO tremolo). It reports true
// when the voice has become silent for good.
func (e *volumeEnvelope) apply(buf []float32, centibelOffset, smoothing float64, inRelease bool) bool {
	dbOffset := centibelOffset / 10

	if inRelease {
		elapsed := e.currentSampleTime - e.releaseStartTimeSamples
		if elapsed >= e.releaseDuration {
			clear(buf)
			return true
		}
		dbRange := dbSilence - e.releaseStartDb
		for i := range buf {
			e.attenuation += (e.attenuationTargetGain - e.attenuation) * smoothing
			db := elapsed/e.releaseDuration*dbRange + e.releaseStartDb
			e.currentReleaseGain = e.attenuation * fastAttenuationToGain(db+dbOffset)
			buf[i] *= float32(e.currentReleaseGain)
			e.currentSampleTime++
			elapsed++
		}
		return e.currentReleaseGain <= perceivedGainSilence
	}

	i := 0
	n := len(buf)
	offsetGain := fastAttenuationToGain(dbOffset)
	switch e.state {
	case envDelay:
		for e.currentSampleTime < e.delayEnd {
			e.currentAttenuationDb = dbSilence
			buf[i] = 0
			e.currentSampleTime++
			if i++; i >= n {
				return false
			}
		}
		e.state++
		fallthrough
	case envAttack:
		for e.currentSampleTime < e.attackEnd {
			e.attenuation += (e.attenuationTargetGain - e.attenuation) * smoothing
			// linear gain ramp rather than a linear dB ramp
			ramp := 1 - (e.attackEnd-e.currentSampleTime)/e.attackDuration
			buf[i] *= float32(ramp * e.attenuation * offsetGain)
			e.currentAttenuationDb = 0
			e.currentSampleTime++
			if i++; i >= n {
				return false
			}
		}
		e.state++
		fallthrough
	case envHold:
		for e.currentSampleTime < e.holdEnd {
			e.attenuation += (e.attenuationTargetGain - e.attenuation) * smoothing
			buf[i] *= float32(e.attenuation * offsetGain)
			e.currentAttenuationDb = 0
			e.currentSampleTime++
			if i++; i >= n {
				return false
			}
		}
		e.state++
		fallthrough
	case envDecay:
		for e.currentSampleTime < e.decayEnd {
			e.attenuation += (e.attenuationTargetGain - e.attenuation) * smoothing
			e.currentAttenuationDb = (1 - (e.decayEnd-e.currentSampleTime)/e.decayDuration) * e.sustainDbRelative
			buf[i] *= float32(e.attenuation * fastAttenuationToGain(e.currentAttenuationDb+dbOffset))
			e.currentSampleTime++
			if i++; i >= n {
				return false
			}
		}
		e.state++
		fallthrough
	case envSustain:
		finished := e.canEndOnSilentSustain && e.sustainDbRelative >= perceivedDBSilence
		sustainGain := fastAttenuationToGain(e.sustainDbRelative + dbOffset)
		for ; i < n; i++ {
			e.attenuation += (e.attenuationTargetGain - e.attenuation) * smoothing
			buf[i] *= float32(e.attenuation * sustainGain)
			e.currentAttenuationDb = e.sustainDbRelative
			e.currentSampleTime++
		}
		return finished
	}
	return false
}
