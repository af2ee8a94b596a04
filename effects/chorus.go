// Package effects holds the send effects fed by the synthesizer's reverb and
// chorus buses.
package effects

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-dsp/dsp/delay"
)

const chorusBaseDelayMs = 12.0

// Chorus is a stereo modulated delay. The two sides use LFOs in quadrature
// so a mono input spreads across the stereo field.
type Chorus struct {
	sampleRate float64
	baseDelay  float64 // samples
	depth      float64 // samples
	rateHz     float64
	phase      float64

	left, right *delay.Line
}

// NewChorus creates a chorus with a modulation depth in milliseconds and a
// rate in Hz.
func NewChorus(sampleRate int, depthMs, rateHz float64) (*Chorus, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be > 0")
	}
	if depthMs < 0 || depthMs >= chorusBaseDelayMs {
		return nil, fmt.Errorf("chorus depth must be in [0,%g) ms", chorusBaseDelayMs)
	}
	if rateHz <= 0 {
		return nil, fmt.Errorf("chorus rate must be > 0")
	}
	sr := float64(sampleRate)
	c := &Chorus{
		sampleRate: sr,
		baseDelay:  chorusBaseDelayMs / 1000 * sr,
		depth:      depthMs / 1000 * sr,
		rateHz:     rateHz,
	}
	size := int(math.Ceil(c.baseDelay+c.depth)) + 4
	var err error
	if c.left, err = delay.New(size); err != nil {
		return nil, err
	}
	if c.right, err = delay.New(size); err != nil {
		return nil, err
	}
	return c, nil
}

// Process runs the chorus bus inL/inR and adds gain times the wet signal
// to outL and outR.
func (c *Chorus) Process(inL, inR, outL, outR []float32, gain float32) {
	step := 2 * math.Pi * c.rateHz / c.sampleRate
	for i := range inL {
		c.left.Write(float64(inL[i]))
		c.right.Write(float64(inR[i]))

		dl := c.baseDelay + c.depth*math.Sin(c.phase)
		dr := c.baseDelay + c.depth*math.Cos(c.phase)
		outL[i] += gain * float32(c.left.ReadFractional(dl))
		outR[i] += gain * float32(c.right.ReadFractional(dr))

		c.phase += step
		if c.phase >= 2*math.Pi {
			c.phase -= 2 * math.Pi
		}
	}
}

// Reset clears the delay lines and restarts the LFO.
func (c *Chorus) Reset() {
	c.left.Reset()
	c.right.Reset()
	c.phase = 0
}
