package synth

import (
	"math"

	"github.com/cwbudde/algo-wavetable/soundfont"
)

// curveResolution is the number of points per precomputed source curve,
// matching the 14-bit controller range.
const curveResolution = 16384

var (
	concaveTable [curveResolution + 1]float32
	convexTable  [curveResolution + 1]float32

	// sourceTransforms[curve][polarity][direction][raw14bit]
	sourceTransforms [4][2][2][]float32
)

func init() {
	concaveTable[curveResolution] = 1
	convexTable[curveResolution] = 1
	for i := 1; i < curveResolution; i++ {
		x := -200.0 * 2 / 960 * math.Log10(float64(i)/curveResolution)
		convexTable[i] = float32(1 - x)
		concaveTable[curveResolution-i] = float32(x)
	}

	for curve := 0; curve < 4; curve++ {
		for polarity := 0; polarity < 2; polarity++ {
			for direction := 0; direction < 2; direction++ {
				t := make([]float32, curveResolution)
				for i := range t {
					t[i] = curveValue(direction, curve, float64(i)/curveResolution, polarity)
				}
				sourceTransforms[curve][polarity][direction] = t
			}
		}
	}
}

// curveValue maps a linear 0..1 source value through a SoundFont2 source curve.
// Unipolar curves return 0..1, bipolar ones -1..1.
func curveValue(direction, curve int, value float64, polarity int) float32 {
	if direction == 1 {
		value = 1 - value
	}
	switch curve {
	case soundfont.CurveLinear:
		if polarity == 1 {
			return float32(value*2 - 1)
		}
		return float32(value)
	case soundfont.CurveSwitch:
		if value > 0.5 {
			value = 1
		} else {
			value = 0
		}
		if polarity == 1 {
			return float32(value*2 - 1)
		}
		return float32(value)
	case soundfont.CurveConcave:
		return lookupCurve(&concaveTable, value, polarity)
	case soundfont.CurveConvex:
		return lookupCurve(&convexTable, value, polarity)
	}
	return 0
}

func lookupCurve(table *[curveResolution + 1]float32, value float64, polarity int) float32 {
	if polarity == 1 {
		value = value*2 - 1
		if value < 0 {
			return -table[int(-value*curveResolution)]
		}
	}
	return table[int(value*curveResolution)]
}

// convexAttack shapes the modulation envelope attack so that a linear time
// ramp sounds linear in dB.
var convexAttack [1000]float64

func init() {
	for i := range convexAttack {
		convexAttack[i] = float64(curveValue(0, soundfont.CurveConvex, float64(i)/1000, 0))
	}
}
