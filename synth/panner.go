package synth

import (
	"math"

	"github.com/cwbudde/algo-wavetable/soundfont"
)

const (
	minPan        = -500
	maxPan        = 500
	panResolution = maxPan - minPan

	reverbSendDivider = 4600
	chorusSendDivider = 2000
)

var panTableLeft, panTableRight [panResolution + 1]float64

func init() {
	for pan := minPan; pan <= maxPan; pan++ {
		x := float64(pan-minPan) / panResolution
		panTableLeft[pan-minPan] = math.Cos(math.Pi / 2 * x)
		panTableRight[pan-minPan] = math.Sin(math.Pi / 2 * x)
	}
}

// panGains returns the equal-power left/right gains for pan in [-500, 500].
func panGains(pan float64) (left, right float64) {
	idx := int(clamp(pan, minPan, maxPan) - minPan)
	return panTableLeft[idx], panTableRight[idx]
}

// panVoice mixes the mono voice buffer into the master and effect buses.
func (s *Synth) panVoice(v *Voice, buf []float32, out *Output) {
	if len(buf) == 0 || !isFinite(buf[0]) {
		return
	}
	var pan float64
	if v.overridePan != 0 {
		pan = v.overridePan
	} else {
		v.currentPan += (float64(v.modulated[soundfont.Pan]) - v.currentPan) * s.panSmoothing
		pan = v.currentPan
	}

	gain := s.masterGain * v.gain
	l, r := panGains(pan)
	gainLeft := l * gain * s.panLeft
	gainRight := r * gain * s.panRight

	if s.params.EffectsEnabled {
		if send := v.modulated[soundfont.ReverbEffectsSend]; send > 0 {
			// reverb input is mono
			g := float32(s.params.ReverbGain * gain * float64(send) / reverbSendDivider)
			for i, x := range buf {
				out.ReverbLeft[i] += g * x
			}
			copy(out.ReverbRight, out.ReverbLeft)
		}
		if send := v.modulated[soundfont.ChorusEffectsSend]; send > 0 {
			g := s.params.ChorusGain * float64(send) / chorusSendDivider
			gl := float32(gainLeft * g)
			gr := float32(gainRight * g)
			for i, x := range buf {
				out.ChorusLeft[i] += gl * x
				out.ChorusRight[i] += gr * x
			}
		}
	}

	if gainLeft > 0 {
		g := float32(gainLeft)
		for i, x := range buf {
			out.Left[i] += g * x
		}
	}
	if gainRight > 0 {
		g := float32(gainRight)
		for i, x := range buf {
			out.Right[i] += g * x
		}
	}
}
