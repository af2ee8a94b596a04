package soundfont

// Range is an inclusive MIDI key or velocity range.
type Range struct {
	Lo int
	Hi int
}

// FullRange covers every MIDI value.
var FullRange = Range{Lo: 0, Hi: 127}

// Contains reports whether v lies in [Lo, Hi].
func (r Range) Contains(v int) bool {
	return v >= r.Lo && v <= r.Hi
}

// Sample is decoded mono PCM shared by any number of zones.
type Sample struct {
	Name            string
	Data            []float32
	SampleRate      int
	OriginalKey     int
	PitchCorrection int
	LoopStart       int
	LoopEnd         int
}

// HasData reports whether the sample can be played.
func (s *Sample) HasData() bool {
	return s != nil && len(s.Data) > 0 && s.SampleRate > 0
}

// Zone is a key/velocity scoped bundle of generators and modulators.
// Instrument zones reference a Sample, preset zones an Instrument.
// A nil range means "not set": the zone inherits the global zone's range.
type Zone struct {
	Generators Generators
	Modulators []Modulator
	KeyRange   *Range
	VelRange   *Range
	Global     bool
	Sample     *Sample
	Instrument *Instrument
}

func (z *Zone) keyRange(global *Zone) Range {
	if z.KeyRange != nil {
		return *z.KeyRange
	}
	if global != nil && global.KeyRange != nil {
		return *global.KeyRange
	}
	return FullRange
}

func (z *Zone) velRange(global *Zone) Range {
	if z.VelRange != nil {
		return *z.VelRange
	}
	if global != nil && global.VelRange != nil {
		return *global.VelRange
	}
	return FullRange
}

// Instrument is an ordered list of zones; zone 0 is global when flagged.
type Instrument struct {
	Name  string
	Zones []*Zone
}

// Preset is an ordered list of zones referencing instruments.
// Resolved layers are memoized per (note, velocity); the memo stays valid
// only while the bank graph is not modified.
type Preset struct {
	Name              string
	Bank              int
	Program           int
	Zones             []*Zone
	DefaultModulators []Modulator

	memo map[int][]Layer
}

// NewPreset returns an empty preset carrying the default modulator list.
func NewPreset(name string, bank, program int) *Preset {
	return &Preset{
		Name:              name,
		Bank:              bank,
		Program:           program,
		DefaultModulators: DefaultModulators(),
	}
}

// IsDrum reports whether the preset lives in the percussion bank.
func (p *Preset) IsDrum() bool {
	return p.Bank == DrumBank
}

// ClearCache drops memoized resolutions. Call after editing the preset graph.
func (p *Preset) ClearCache() {
	p.memo = nil
}

func splitGlobal(zones []*Zone) (*Zone, []*Zone) {
	if len(zones) > 0 && zones[0] != nil && zones[0].Global {
		return zones[0], zones[1:]
	}
	return nil, zones
}
