package synth

import (
	"fmt"
	"strings"

	"github.com/cwbudde/algo-wavetable/dsp"
)

// Interpolation selects how the oscillator reads between sample points.
type Interpolation int

const (
	InterpolationLinear Interpolation = iota
	InterpolationNearest
	InterpolationHermite
)

func (i Interpolation) String() string {
	switch i {
	case InterpolationLinear:
		return "linear"
	case InterpolationNearest:
		return "nearest"
	case InterpolationHermite:
		return "hermite"
	}
	return "unknown"
}

// ParseInterpolation parses an interpolation name as printed by String.
func ParseInterpolation(name string) (Interpolation, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "linear":
		return InterpolationLinear, nil
	case "nearest":
		return InterpolationNearest, nil
	case "hermite", "cubic":
		return InterpolationHermite, nil
	}
	return InterpolationLinear, fmt.Errorf("unknown interpolation %q", name)
}

// Sample loop modes (sampleModes generator).
const (
	loopModeNone         = 0
	loopModeContinuous   = 1
	loopModeStartRelease = 2
	loopModeUntilRelease = 3
)

// oscillator plays a sample with a fractional cursor.
type oscillator struct {
	data         []float32
	playbackStep float64
	cursor       float64
	rootKey      int
	loopStart    int
	loopEnd      int
	end          int
	loopingMode  int
	isLooping    bool
}

// render fills buf with the next len(buf) output samples. ratio is the
// tuning ratio for this block. It reports true once a non-looping sample
// has run out; the remainder of buf is left untouched.
func (o *oscillator) render(buf []float32, ratio float64, mode Interpolation, inRelease bool) bool {
	if !o.isLooping && o.loopingMode == loopModeStartRelease && !inRelease {
		return false
	}
	step := o.playbackStep * ratio
	if o.isLooping {
		o.renderLooped(buf, step, mode)
		return false
	}
	return o.renderOnce(buf, step, mode)
}

func (o *oscillator) renderLooped(buf []float32, step float64, mode Interpolation) {
	data := o.data
	loopLen := o.loopEnd - o.loopStart
	loopEnd := float64(o.loopEnd)
	wrap := func(i int) int {
		for i >= o.loopEnd {
			i -= loopLen
		}
		return i
	}
	cur := o.cursor
	for i := range buf {
		for cur >= loopEnd {
			cur -= float64(loopLen)
		}
		floor := int(cur)
		switch mode {
		case InterpolationNearest:
			buf[i] = data[wrap(floor+1)]
		case InterpolationHermite:
			buf[i] = dsp.Hermite(cur-float64(floor), data[floor], data[wrap(floor+1)], data[wrap(floor+2)], data[wrap(floor+3)])
		default:
			buf[i] = dsp.Lerp(data[floor], data[wrap(floor+1)], cur-float64(floor))
		}
		cur += step
	}
	o.cursor = cur
}

func (o *oscillator) renderOnce(buf []float32, step float64, mode Interpolation) bool {
	data := o.data
	// highest neighbour offset each mode reads past the cursor
	reach := 1
	if mode == InterpolationHermite {
		reach = 3
	}
	cur := o.cursor
	for i := range buf {
		floor := int(cur)
		if floor+reach >= o.end {
			o.cursor = cur
			return true
		}
		switch mode {
		case InterpolationNearest:
			buf[i] = data[floor+1]
		case InterpolationHermite:
			buf[i] = dsp.Hermite(cur-float64(floor), data[floor], data[floor+1], data[floor+2], data[floor+3])
		default:
			buf[i] = dsp.Lerp(data[floor], data[floor+1], cur-float64(floor))
		}
		cur += step
	}
	o.cursor = cur
	return false
}
