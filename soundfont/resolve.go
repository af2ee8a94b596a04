package soundfont

// Layer is one matching instrument zone for a note/velocity, with generator
// lists merged against their global zones and the combined modulator list.
type Layer struct {
	PresetGenerators     Generators
	InstrumentGenerators Generators
	Modulators           []Modulator
	Sample               *Sample
}

// Resolve walks preset zones and their instruments and returns one layer per
// matching instrument zone. Results are memoized and shared between calls;
// callers must treat them as read-only.
func (p *Preset) Resolve(note, velocity int) []Layer {
	if note < 0 || note > 127 || velocity < 0 || velocity > 127 {
		return nil
	}
	key := note<<7 | velocity
	if layers, ok := p.memo[key]; ok {
		return layers
	}
	layers := p.resolve(note, velocity)
	if p.memo == nil {
		p.memo = make(map[int][]Layer)
	}
	p.memo[key] = layers
	return layers
}

func (p *Preset) resolve(note, velocity int) []Layer {
	var layers []Layer
	presetGlobal, presetZones := splitGlobal(p.Zones)
	for _, pz := range presetZones {
		// global zones past the first one never play
		if pz == nil || pz.Global || pz.Instrument == nil || len(pz.Instrument.Zones) == 0 {
			continue
		}
		if !pz.keyRange(presetGlobal).Contains(note) || !pz.velRange(presetGlobal).Contains(velocity) {
			continue
		}

		presetGens := mergeGenerators(pz.Generators, globalGenerators(presetGlobal))
		presetMods := mergeModulators(pz.Modulators, globalModulators(presetGlobal), nil)

		instGlobal, instZones := splitGlobal(pz.Instrument.Zones)
		for _, iz := range instZones {
			if iz == nil || iz.Global {
				continue
			}
			if !iz.keyRange(instGlobal).Contains(note) || !iz.velRange(instGlobal).Contains(velocity) {
				continue
			}
			instGens := mergeGenerators(iz.Generators, globalGenerators(instGlobal))
			instMods := mergeModulators(iz.Modulators, globalModulators(instGlobal), p.DefaultModulators)

			layers = append(layers, Layer{
				PresetGenerators:     presetGens,
				InstrumentGenerators: instGens,
				Modulators:           combineModulators(instMods, presetMods),
				Sample:               iz.Sample,
			})
		}
	}
	return layers
}

func globalGenerators(z *Zone) Generators {
	if z == nil {
		return nil
	}
	return z.Generators
}

func globalModulators(z *Zone) []Modulator {
	if z == nil {
		return nil
	}
	return z.Modulators
}

// mergeGenerators keeps every local generator and adds global ones whose type
// is not set locally.
func mergeGenerators(local, global Generators) Generators {
	out := make(Generators, 0, len(local)+len(global))
	out = append(out, local...)
	for _, g := range global {
		if _, ok := local.Get(g.Type); !ok {
			out = append(out, g)
		}
	}
	return out
}

// mergeModulators keeps local modulators, then appends global and default
// modulators whose identity is not yet present.
func mergeModulators(local, global, defaults []Modulator) []Modulator {
	out := make([]Modulator, 0, len(local)+len(global)+len(defaults))
	seen := make(map[ModulatorKey]struct{}, cap(out))
	add := func(mods []Modulator) {
		for _, m := range mods {
			k := m.Key()
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, m)
		}
	}
	for _, m := range local {
		seen[m.Key()] = struct{}{}
		out = append(out, m)
	}
	add(global)
	add(defaults)
	return out
}

// combineModulators sums preset modulators into identical instrument ones and
// appends the rest. Summing creates new values; inputs are never modified.
func combineModulators(instrument, preset []Modulator) []Modulator {
	out := make([]Modulator, len(instrument), len(instrument)+len(preset))
	copy(out, instrument)
	index := make(map[ModulatorKey]int, len(out))
	for i, m := range out {
		if _, ok := index[m.Key()]; !ok {
			index[m.Key()] = i
		}
	}
	for _, pm := range preset {
		if i, ok := index[pm.Key()]; ok {
			out[i] = out[i].SumTransform(pm)
			continue
		}
		index[pm.Key()] = len(out)
		out = append(out, pm)
	}
	return out
}
