package soundfont

import "testing"

func TestAddAndClampStaysWithinLimits(t *testing.T) {
	extremes := []int16{-32768, -12000, -1, 0, 1, 960, 12000, 32767}
	for gt := GeneratorType(0); gt < GeneratorCount; gt++ {
		if gt == InitialAttenuation {
			continue
		}
		l := Limits(gt)
		for _, pv := range extremes {
			for _, iv := range extremes {
				got := AddAndClamp(gt, Generators{{Type: gt, Value: pv}}, Generators{{Type: gt, Value: iv}})
				if got < l.Min || got > l.Max {
					t.Fatalf("%s: preset=%d instrument=%d got=%d outside [%d,%d]", gt, pv, iv, got, l.Min, l.Max)
				}
			}
		}
	}
}

func TestAddAndClampUsesDefaultWithoutInstrumentValue(t *testing.T) {
	got := AddAndClamp(InitialFilterFc, Generators{{Type: InitialFilterFc, Value: -1000}}, nil)
	if got != 12500 {
		t.Fatalf("filter fc got=%d want=12500", got)
	}
	if got := AddAndClamp(ScaleTuning, nil, nil); got != 100 {
		t.Fatalf("scale tuning default got=%d want=100", got)
	}
}

func TestAddAndClampLeavesAttenuationUnclamped(t *testing.T) {
	got := AddAndClamp(InitialAttenuation, Generators{{Type: InitialAttenuation, Value: -300}}, Generators{{Type: InitialAttenuation, Value: 100}})
	if got != -200 {
		t.Fatalf("attenuation got=%d want=-200", got)
	}
	got = AddAndClamp(InitialAttenuation, Generators{{Type: InitialAttenuation, Value: 32000}}, Generators{{Type: InitialAttenuation, Value: 32000}})
	if got != 64000 {
		t.Fatalf("attenuation sum overflowed: got=%d", got)
	}
}

func TestLimitsFallbackForUnlistedTypes(t *testing.T) {
	for _, gt := range []GeneratorType{Unused1, Reserved2, KeyRange, InstrumentID} {
		if l := Limits(gt); l != (Limit{Min: 0, Max: 32768, Default: 0}) {
			t.Fatalf("%s limits got=%+v", gt, l)
		}
	}
}

func TestParseGeneratorTypeRoundTripsNames(t *testing.T) {
	for gt := GeneratorType(0); gt <= EndOper; gt++ {
		got, err := ParseGeneratorType(gt.String())
		if err != nil || got != gt {
			t.Fatalf("parse %q got=%v err=%v", gt.String(), got, err)
		}
	}
	if _, err := ParseGeneratorType("nope"); err == nil {
		t.Fatalf("expected error for unknown name")
	}
}

func TestGeneratorsSetReplaces(t *testing.T) {
	var g Generators
	g.Set(Pan, 100)
	g.Set(Pan, -100)
	if len(g) != 1 {
		t.Fatalf("expected a single pan generator, got %d", len(g))
	}
	if v, _ := g.Get(Pan); v != -100 {
		t.Fatalf("pan got=%d want=-100", v)
	}
}
