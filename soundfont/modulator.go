package soundfont

import "fmt"

// Non-controller modulator source indices.
const (
	SourceNoController    = 0
	SourceNoteOnVelocity  = 2
	SourceNoteOnKeyNum    = 3
	SourcePolyPressure    = 10
	SourceChannelPressure = 13
	SourcePitchWheel      = 14
	SourcePitchWheelRange = 16
	SourceLink            = 127
)

// Curve shapes of a modulator source.
const (
	CurveLinear = iota
	CurveConcave
	CurveConvex
	CurveSwitch
)

// ModulatorSource is the packed SoundFont2 source descriptor:
// index in bits 0-6, CC flag bit 7, direction bit 8, polarity bit 9, curve bits 10-11.
type ModulatorSource uint16

// NewModulatorSource packs a source descriptor.
func NewModulatorSource(curve int, bipolar, negative, isCC bool, index int) ModulatorSource {
	s := ModulatorSource(curve&3) << 10
	if bipolar {
		s |= 1 << 9
	}
	if negative {
		s |= 1 << 8
	}
	if isCC {
		s |= 1 << 7
	}
	return s | ModulatorSource(index&127)
}

func (s ModulatorSource) Index() int     { return int(s & 127) }
func (s ModulatorSource) IsCC() bool     { return s>>7&1 == 1 }
func (s ModulatorSource) Direction() int { return int(s >> 8 & 1) }
func (s ModulatorSource) Polarity() int  { return int(s >> 9 & 1) }
func (s ModulatorSource) Curve() int     { return int(s >> 10 & 3) }

// Matches reports whether the descriptor reads the given controller or
// non-controller source.
func (s ModulatorSource) Matches(isCC bool, index int) bool {
	return s.IsCC() == isCC && s.Index() == index
}

// ModulatorKey identifies a modulator for merging. Amount is excluded:
// modulators with equal keys are summed rather than overridden.
type ModulatorKey struct {
	Source          ModulatorSource
	SecondarySource ModulatorSource
	Destination     GeneratorType
	Transform       int
}

// Modulator routes a source into a generator destination.
type Modulator struct {
	Source          ModulatorSource
	SecondarySource ModulatorSource
	Destination     GeneratorType
	Amount          int32
	Transform       int
}

// NewModulator builds a modulator, flagging destinations past overridingRootKey as invalid.
func NewModulator(src, secondary ModulatorSource, dest GeneratorType, amount int32, transform int) Modulator {
	if dest > OverridingRootKey || dest < 0 {
		dest = InvalidGenerator
	}
	return Modulator{
		Source:          src,
		SecondarySource: secondary,
		Destination:     dest,
		Amount:          amount,
		Transform:       transform,
	}
}

// Key returns the identity of m.
func (m Modulator) Key() ModulatorKey {
	return ModulatorKey{
		Source:          m.Source,
		SecondarySource: m.SecondarySource,
		Destination:     m.Destination,
		Transform:       m.Transform,
	}
}

// Valid reports whether m has an applicable destination.
func (m Modulator) Valid() bool {
	return m.Destination >= 0 && m.Destination < GeneratorCount
}

// SumTransform returns a new modulator carrying the summed amount of m and o.
func (m Modulator) SumTransform(o Modulator) Modulator {
	n := m
	n.Amount = m.Amount + o.Amount
	return n
}

// IsEffectModulator reports whether m is the default-style CC91/CC93 send
// modulator. Many banks author these with a 200 scale meant for a 0..1000
// range, so the renderer boosts them.
func (m Modulator) IsEffectModulator() bool {
	return (m.Source == 0x00DB || m.Source == 0x00DD) &&
		m.SecondarySource == 0 &&
		(m.Destination == ReverbEffectsSend || m.Destination == ChorusEffectsSend)
}

func (m Modulator) String() string {
	return fmt.Sprintf("mod{src=%#04x sec=%#04x dst=%s amount=%d transform=%d}",
		uint16(m.Source), uint16(m.SecondarySource), m.Destination, m.Amount, m.Transform)
}

const (
	ccModulationWheel = 1
	ccMainVolume      = 7
	ccExpression      = 11
	ccFilterResonance = 71
	ccReleaseTime     = 72
	ccAttackTime      = 73
	ccBrightness      = 74
	ccTremoloDepth    = 92
)

// DefaultAttenuationAmount is the scale of the velocity, volume and expression
// attenuation modulators.
const DefaultAttenuationAmount = 960

var defaultModulators = []Modulator{
	NewModulator(NewModulatorSource(CurveConcave, false, true, false, SourceNoteOnVelocity), 0, InitialAttenuation, DefaultAttenuationAmount, 0),
	NewModulator(NewModulatorSource(CurveLinear, false, false, true, ccModulationWheel), 0, VibLfoToPitch, 50, 0),
	NewModulator(NewModulatorSource(CurveConcave, false, true, true, ccMainVolume), 0, InitialAttenuation, DefaultAttenuationAmount, 0),
	NewModulator(0x000D, 0, VibLfoToPitch, 50, 0),
	NewModulator(0x020E, 0x0010, FineTune, 12700, 0),
	// 500 rather than 1000: a full-scale CC10 sweep should reach the pan limits, not double them.
	NewModulator(0x028A, 0, Pan, 500, 0),
	NewModulator(NewModulatorSource(CurveConcave, false, true, true, ccExpression), 0, InitialAttenuation, DefaultAttenuationAmount, 0),
	NewModulator(0x00DB, 0, ReverbEffectsSend, 200, 0),
	NewModulator(0x00DD, 0, ChorusEffectsSend, 200, 0),

	NewModulator(NewModulatorSource(CurveLinear, false, false, false, SourcePolyPressure), 0, VibLfoToPitch, 50, 0),
	NewModulator(NewModulatorSource(CurveLinear, false, false, true, ccTremoloDepth), 0, ModLfoToVolume, 24, 0),
	NewModulator(NewModulatorSource(CurveConvex, true, false, true, ccAttackTime), 0, AttackVolEnv, 6000, 0),
	NewModulator(NewModulatorSource(CurveLinear, true, false, true, ccReleaseTime), 0, ReleaseVolEnv, 3600, 0),
	NewModulator(NewModulatorSource(CurveLinear, true, false, true, ccBrightness), 0, InitialFilterFc, 6000, 0),
	NewModulator(NewModulatorSource(CurveLinear, true, false, true, ccFilterResonance), 0, InitialFilterQ, 250, 0),
}

// DefaultModulators returns a copy of the default modulator list applied to
// every preset that does not override it.
func DefaultModulators() []Modulator {
	out := make([]Modulator, len(defaultModulators))
	copy(out, defaultModulators)
	return out
}
