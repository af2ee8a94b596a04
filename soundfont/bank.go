package soundfont

import (
	"errors"
	"fmt"
)

// DrumBank is the bank number of percussion presets.
const DrumBank = 128

// ErrPresetNotFound is returned when a bank holds no preset at all.
var ErrPresetNotFound = errors.New("soundfont: preset not found")

// Bank is an immutable preset/instrument/sample graph as seen by the engine.
type Bank struct {
	Name        string
	Samples     []*Sample
	Instruments []*Instrument
	Presets     []*Preset
}

// Preset looks up bank/program. Missing programs fall back to the same
// program in bank 0 (or the first percussion preset for the drum bank), then
// to the first preset.
func (b *Bank) Preset(bank, program int) (*Preset, error) {
	if b == nil || len(b.Presets) == 0 {
		return nil, ErrPresetNotFound
	}
	for _, p := range b.Presets {
		if p.Bank == bank && p.Program == program {
			return p, nil
		}
	}
	if bank == DrumBank {
		for _, p := range b.Presets {
			if p.IsDrum() {
				return p, nil
			}
		}
	} else {
		for _, p := range b.Presets {
			if p.Bank == 0 && p.Program == program {
				return p, nil
			}
		}
	}
	return b.Presets[0], nil
}

// PresetByName returns the first preset with the given name.
func (b *Bank) PresetByName(name string) (*Preset, error) {
	for _, p := range b.Presets {
		if p.Name == name {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrPresetNotFound, name)
}

// ClearCaches drops every preset's memoized resolutions.
func (b *Bank) ClearCaches() {
	for _, p := range b.Presets {
		p.ClearCache()
	}
}

// Validate reports structural problems that would make zones unusable.
func (b *Bank) Validate() error {
	var errs []error
	for _, s := range b.Samples {
		if s.LoopStart < 0 || s.LoopEnd > len(s.Data) || s.LoopStart > s.LoopEnd {
			errs = append(errs, fmt.Errorf("sample %q: loop [%d,%d] outside data of %d points", s.Name, s.LoopStart, s.LoopEnd, len(s.Data)))
		}
		if s.SampleRate <= 0 {
			errs = append(errs, fmt.Errorf("sample %q: sample rate must be > 0", s.Name))
		}
	}
	for _, inst := range b.Instruments {
		_, zones := splitGlobal(inst.Zones)
		for i, z := range zones {
			if z.Sample == nil {
				errs = append(errs, fmt.Errorf("instrument %q zone %d: no sample", inst.Name, i))
			}
			errs = append(errs, checkRanges(z, fmt.Sprintf("instrument %q zone %d", inst.Name, i))...)
		}
	}
	for _, p := range b.Presets {
		_, zones := splitGlobal(p.Zones)
		for i, z := range zones {
			if z.Instrument == nil {
				errs = append(errs, fmt.Errorf("preset %q zone %d: no instrument", p.Name, i))
			}
			errs = append(errs, checkRanges(z, fmt.Sprintf("preset %q zone %d", p.Name, i))...)
		}
	}
	return errors.Join(errs...)
}

func checkRanges(z *Zone, where string) []error {
	var errs []error
	ranges := []struct {
		name string
		r    *Range
	}{{"key", z.KeyRange}, {"velocity", z.VelRange}}
	for _, e := range ranges {
		if e.r == nil {
			continue
		}
		if e.r.Lo < 0 || e.r.Hi > 127 || e.r.Lo > e.r.Hi {
			errs = append(errs, fmt.Errorf("%s: %s range [%d,%d] invalid", where, e.name, e.r.Lo, e.r.Hi))
		}
	}
	return errs
}
