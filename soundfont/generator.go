package soundfont

import "fmt"

// GeneratorType identifies one of the SoundFont2 generator operators.
type GeneratorType int

const (
	StartAddrsOffset GeneratorType = iota
	EndAddrOffset
	StartloopAddrsOffset
	EndloopAddrsOffset
	StartAddrsCoarseOffset
	ModLfoToPitch
	VibLfoToPitch
	ModEnvToPitch
	InitialFilterFc
	InitialFilterQ
	ModLfoToFilterFc
	ModEnvToFilterFc
	EndAddrsCoarseOffset
	ModLfoToVolume
	Unused1
	ChorusEffectsSend
	ReverbEffectsSend
	Pan
	Unused2
	Unused3
	Unused4
	DelayModLFO
	FreqModLFO
	DelayVibLFO
	FreqVibLFO
	DelayModEnv
	AttackModEnv
	HoldModEnv
	DecayModEnv
	SustainModEnv
	ReleaseModEnv
	KeyNumToModEnvHold
	KeyNumToModEnvDecay
	DelayVolEnv
	AttackVolEnv
	HoldVolEnv
	DecayVolEnv
	SustainVolEnv
	ReleaseVolEnv
	KeyNumToVolEnvHold
	KeyNumToVolEnvDecay
	InstrumentID
	Reserved1
	KeyRange
	VelRange
	StartloopAddrsCoarseOffset
	KeyNum
	Velocity
	InitialAttenuation
	Reserved2
	EndloopAddrsCoarseOffset
	CoarseTune
	FineTune
	SampleID
	SampleModes
	Reserved3
	ScaleTuning
	ExclusiveClass
	OverridingRootKey
	Unused5
	EndOper
)

// InvalidGenerator marks a modulator destination that cannot be applied.
const InvalidGenerator GeneratorType = -1

// GeneratorCount is the number of generator slots a voice carries.
const GeneratorCount = 60

var generatorNames = [...]string{
	"startAddrsOffset", "endAddrOffset", "startloopAddrsOffset", "endloopAddrsOffset",
	"startAddrsCoarseOffset", "modLfoToPitch", "vibLfoToPitch", "modEnvToPitch",
	"initialFilterFc", "initialFilterQ", "modLfoToFilterFc", "modEnvToFilterFc",
	"endAddrsCoarseOffset", "modLfoToVolume", "unused1", "chorusEffectsSend",
	"reverbEffectsSend", "pan", "unused2", "unused3", "unused4", "delayModLFO",
	"freqModLFO", "delayVibLFO", "freqVibLFO", "delayModEnv", "attackModEnv",
	"holdModEnv", "decayModEnv", "sustainModEnv", "releaseModEnv",
	"keyNumToModEnvHold", "keyNumToModEnvDecay", "delayVolEnv", "attackVolEnv",
	"holdVolEnv", "decayVolEnv", "sustainVolEnv", "releaseVolEnv",
	"keyNumToVolEnvHold", "keyNumToVolEnvDecay", "instrument", "reserved1",
	"keyRange", "velRange", "startloopAddrsCoarseOffset", "keyNum", "velocity",
	"initialAttenuation", "reserved2", "endloopAddrsCoarseOffset", "coarseTune",
	"fineTune", "sampleID", "sampleModes", "reserved3", "scaleTuning",
	"exclusiveClass", "overridingRootKey", "unused5", "endOper",
}

func (t GeneratorType) String() string {
	if t < 0 || int(t) >= len(generatorNames) {
		return fmt.Sprintf("generator(%d)", int(t))
	}
	return generatorNames[t]
}

// ParseGeneratorType looks up a generator by its SoundFont2 name.
func ParseGeneratorType(name string) (GeneratorType, error) {
	for i, n := range generatorNames {
		if n == name {
			return GeneratorType(i), nil
		}
	}
	return InvalidGenerator, fmt.Errorf("unknown generator %q", name)
}

// Limit is the allowed range and default of a generator.
type Limit struct {
	Min     int32
	Max     int32
	Default int32
}

var fallbackLimit = Limit{Min: 0, Max: 32768, Default: 0}

var generatorLimits = map[GeneratorType]Limit{
	StartAddrsOffset:       {0, 32768, 0},
	EndAddrOffset:          {-32768, 32768, 0},
	StartloopAddrsOffset:   {-32768, 32768, 0},
	EndloopAddrsOffset:     {-32768, 32768, 0},
	StartAddrsCoarseOffset: {0, 32768, 0},

	ModLfoToPitch: {-12000, 12000, 0},
	VibLfoToPitch: {-12000, 12000, 0},
	ModEnvToPitch: {-12000, 12000, 0},

	InitialFilterFc:  {1500, 13500, 13500},
	InitialFilterQ:   {0, 960, 0},
	ModLfoToFilterFc: {-12000, 12000, 0},
	ModEnvToFilterFc: {-12000, 12000, 0},

	EndAddrsCoarseOffset: {-32768, 32768, 0},
	ModLfoToVolume:       {-960, 960, 0},

	ChorusEffectsSend: {0, 1000, 0},
	ReverbEffectsSend: {0, 1000, 0},
	Pan:               {-500, 500, 0},

	DelayModLFO: {-12000, 5000, -12000},
	FreqModLFO:  {-16000, 4500, 0},
	DelayVibLFO: {-12000, 5000, -12000},
	FreqVibLFO:  {-16000, 4500, 0},

	// -32768 means an instant phase, avoiding a click at the start of the filter envelope.
	DelayModEnv:         {-32768, 5000, -32768},
	AttackModEnv:        {-32768, 8000, -32768},
	HoldModEnv:          {-12000, 5000, -12000},
	DecayModEnv:         {-12000, 8000, -12000},
	SustainModEnv:       {0, 1000, 0},
	ReleaseModEnv:       {-7200, 8000, -12000},
	KeyNumToModEnvHold:  {-1200, 1200, 0},
	KeyNumToModEnvDecay: {-1200, 1200, 0},

	DelayVolEnv:         {-12000, 5000, -12000},
	AttackVolEnv:        {-12000, 8000, -12000},
	HoldVolEnv:          {-12000, 5000, -12000},
	DecayVolEnv:         {-12000, 8000, -12000},
	SustainVolEnv:       {0, 1440, 0},
	ReleaseVolEnv:       {-7200, 8000, -12000},
	KeyNumToVolEnvHold:  {-1200, 1200, 0},
	KeyNumToVolEnvDecay: {-1200, 1200, 0},

	StartloopAddrsCoarseOffset: {-32768, 32768, 0},
	KeyNum:                     {-1, 127, -1},
	Velocity:                   {-1, 127, -1},
	InitialAttenuation:         {0, 1440, 0},
	EndloopAddrsCoarseOffset:   {-32768, 32768, 0},

	CoarseTune:        {-120, 120, 0},
	FineTune:          {-12700, 12700, 0},
	ScaleTuning:       {0, 1200, 100},
	ExclusiveClass:    {0, 99999, 0},
	OverridingRootKey: {-1, 127, -1},
	SampleModes:       {0, 3, 0},
}

// limitTable is the map flattened for the per-block clamp loops.
var limitTable [EndOper + 1]Limit

func init() {
	for i := range limitTable {
		limitTable[i] = fallbackLimit
	}
	for t, l := range generatorLimits {
		limitTable[t] = l
	}
}

// Limits returns the range and default of a generator type.
// Types without an entry (unused, reserved, index generators) get {0, 32768, 0}.
func Limits(t GeneratorType) Limit {
	if t < 0 || t > EndOper {
		return fallbackLimit
	}
	return limitTable[t]
}

// Clamp limits v to the range of t.
func (t GeneratorType) Clamp(v int32) int32 {
	l := Limits(t)
	if v < l.Min {
		return l.Min
	}
	if v > l.Max {
		return l.Max
	}
	return v
}

// Generator is a single typed zone parameter.
type Generator struct {
	Type  GeneratorType
	Value int16
}

// NewGenerator returns a generator with value saturated to the int16 range.
// Limits are not applied: preset zone values are offsets and may legitimately
// fall outside the instrument-level range.
func NewGenerator(t GeneratorType, value int) Generator {
	if value > 32767 {
		value = 32767
	}
	if value < -32768 {
		value = -32768
	}
	return Generator{Type: t, Value: int16(value)}
}

// Generators is a zone's generator list, unique by type.
type Generators []Generator

// Get returns the value for t and whether it is present.
func (g Generators) Get(t GeneratorType) (int16, bool) {
	for _, gen := range g {
		if gen.Type == t {
			return gen.Value, true
		}
	}
	return 0, false
}

// Set replaces or appends the generator of type t.
func (g *Generators) Set(t GeneratorType, value int16) {
	for i := range *g {
		if (*g)[i].Type == t {
			(*g)[i].Value = value
			return
		}
	}
	*g = append(*g, Generator{Type: t, Value: value})
}

// AddAndClamp sums the instrument value (or the type default) with the preset
// offset (or 0) and clamps the result to the type's limits.
// initialAttenuation is returned unclamped: the volume envelope clamps it later
// so that negative sums still reach the modulators.
func AddAndClamp(t GeneratorType, presetGens, instrumentGens Generators) int32 {
	l := Limits(t)
	value := l.Default
	if v, ok := instrumentGens.Get(t); ok {
		value = int32(v)
	}
	if v, ok := presetGens.Get(t); ok {
		value += int32(v)
	}
	if t == InitialAttenuation {
		return value
	}
	if value < l.Min {
		return l.Min
	}
	if value > l.Max {
		return l.Max
	}
	return value
}
