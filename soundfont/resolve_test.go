package soundfont

import (
	"reflect"
	"testing"
)

func TestResolvePanSplitScenario(t *testing.T) {
	p := panScenarioPreset()

	layers := p.Resolve(40, 100)
	if len(layers) != 1 {
		t.Fatalf("note 40: got %d layers want 1", len(layers))
	}
	if got := AddAndClamp(Pan, layers[0].PresetGenerators, layers[0].InstrumentGenerators); got != -500 {
		t.Fatalf("note 40 pan got=%d want=-500", got)
	}
	if layers[0].Sample == nil || layers[0].Sample.Name != "low" {
		t.Fatalf("unexpected sample %+v", layers[0].Sample)
	}

	if layers := p.Resolve(80, 100); len(layers) != 0 {
		t.Fatalf("note 80: got %d layers want 0", len(layers))
	}
}

func TestResolveIsMemoizedAndDeterministic(t *testing.T) {
	p := panScenarioPreset()
	for note := 0; note < 128; note += 7 {
		for vel := 1; vel < 128; vel += 21 {
			a := p.Resolve(note, vel)
			b := p.Resolve(note, vel)
			if !reflect.DeepEqual(a, b) {
				t.Fatalf("note %d vel %d: resolution differs between calls", note, vel)
			}
			if len(a) > 0 && &a[0] != &b[0] {
				t.Fatalf("note %d vel %d: expected memoized slice", note, vel)
			}
		}
	}
	p.ClearCache()
	if p.memo != nil {
		t.Fatalf("expected memo cleared")
	}
}

func TestResolveGlobalZoneSuppliesMissingGeneratorsOnly(t *testing.T) {
	inst := &Instrument{Zones: []*Zone{
		{Global: true, Generators: Generators{{Type: Pan, Value: 200}, {Type: CoarseTune, Value: 12}}},
		{Generators: Generators{{Type: CoarseTune, Value: -5}}, Sample: testSample("s")},
	}}
	p := NewPreset("p", 0, 0)
	p.Zones = []*Zone{{Instrument: inst}}
	layers := p.Resolve(60, 64)
	if len(layers) != 1 {
		t.Fatalf("got %d layers", len(layers))
	}
	gens := layers[0].InstrumentGenerators
	if v, _ := gens.Get(CoarseTune); v != -5 {
		t.Fatalf("local coarse tune must win: got=%d", v)
	}
	if v, ok := gens.Get(Pan); !ok || v != 200 {
		t.Fatalf("global pan must be inherited: got=%d ok=%v", v, ok)
	}
}

func TestResolveInheritsGlobalRanges(t *testing.T) {
	inst := &Instrument{Zones: []*Zone{
		{Global: true, KeyRange: &Range{Lo: 48, Hi: 72}},
		{Sample: testSample("s")},
	}}
	p := NewPreset("p", 0, 0)
	p.Zones = []*Zone{{Instrument: inst}}
	if n := len(p.Resolve(60, 100)); n != 1 {
		t.Fatalf("inside global range: got %d layers", n)
	}
	if n := len(p.Resolve(30, 100)); n != 0 {
		t.Fatalf("outside global range: got %d layers", n)
	}
}

func TestResolveSkipsEmptyInstrumentsAndFiltersVelocity(t *testing.T) {
	full := &Instrument{Zones: []*Zone{{Sample: testSample("s"), VelRange: &Range{Lo: 100, Hi: 127}}}}
	p := NewPreset("p", 0, 0)
	p.Zones = []*Zone{
		{Instrument: &Instrument{Name: "empty"}},
		{Instrument: full},
	}
	if n := len(p.Resolve(60, 50)); n != 0 {
		t.Fatalf("soft velocity: got %d layers want 0", n)
	}
	if n := len(p.Resolve(60, 110)); n != 1 {
		t.Fatalf("loud velocity: got %d layers want 1", n)
	}
}

func TestResolveSumsIdenticalPresetModulators(t *testing.T) {
	cc1 := NewModulatorSource(CurveLinear, false, false, true, 1)
	inst := &Instrument{Zones: []*Zone{{
		Sample:     testSample("s"),
		Modulators: []Modulator{NewModulator(cc1, 0, VibLfoToPitch, 30, 0)},
	}}}
	presetMod := NewModulator(cc1, 0, VibLfoToPitch, 20, 0)
	extra := NewModulator(cc1, 0, ModLfoToPitch, 10, 0)
	p := NewPreset("p", 0, 0)
	p.Zones = []*Zone{{Instrument: inst, Modulators: []Modulator{presetMod, extra}}}

	layers := p.Resolve(60, 100)
	if len(layers) != 1 {
		t.Fatalf("got %d layers", len(layers))
	}
	var vib, modPitch int
	for _, m := range layers[0].Modulators {
		if m.Key() == presetMod.Key() {
			vib++
			if m.Amount != 50 {
				t.Fatalf("summed amount got=%d want=50", m.Amount)
			}
		}
		if m.Key() == extra.Key() {
			modPitch++
		}
	}
	if vib != 1 || modPitch != 1 {
		t.Fatalf("vib=%d modPitch=%d want 1/1", vib, modPitch)
	}
	if inst.Zones[0].Modulators[0].Amount != 30 || p.Zones[0].Modulators[0].Amount != 20 {
		t.Fatalf("source modulators were mutated")
	}
	// The local CC1 modulator replaces the default CC1 -> vibrato one.
	if got := len(layers[0].Modulators); got != len(defaultModulators)+1 {
		t.Fatalf("modulator count got=%d want=%d", got, len(defaultModulators)+1)
	}
}

func TestResolveSkipsMisplacedGlobalZones(t *testing.T) {
	inst := &Instrument{Zones: []*Zone{
		{Global: true, Generators: Generators{{Type: Pan, Value: 100}}},
		{Sample: testSample("main")},
		{Global: true, Sample: testSample("stray")},
	}}
	p := NewPreset("p", 0, 0)
	p.Zones = []*Zone{
		{Instrument: inst},
		{Global: true, Instrument: inst},
	}
	layers := p.Resolve(60, 100)
	if len(layers) != 1 {
		t.Fatalf("layer count mismatch: got=%d want=1", len(layers))
	}
	if name := layers[0].Sample.Name; name != "main" {
		t.Fatalf("sample mismatch: got=%q want=%q", name, "main")
	}
}
