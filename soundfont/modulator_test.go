package soundfont

import "testing"

func TestModulatorSourceDecoding(t *testing.T) {
	s := NewModulatorSource(CurveConvex, true, false, true, 73)
	if s.Curve() != CurveConvex || s.Polarity() != 1 || s.Direction() != 0 || !s.IsCC() || s.Index() != 73 {
		t.Fatalf("decoded fields mismatch for %#04x", uint16(s))
	}
	if ModulatorSource(0x020E).Index() != SourcePitchWheel || ModulatorSource(0x020E).Polarity() != 1 {
		t.Fatalf("pitch wheel source decoded wrong")
	}
}

func TestModulatorKeyExcludesAmount(t *testing.T) {
	a := NewModulator(0x00DB, 0, ReverbEffectsSend, 200, 0)
	b := NewModulator(0x00DB, 0, ReverbEffectsSend, 700, 0)
	if a.Key() != b.Key() {
		t.Fatalf("expected identical keys for modulators differing only in amount")
	}
	c := NewModulator(0x00DB, 0, ReverbEffectsSend, 200, 2)
	if a.Key() == c.Key() {
		t.Fatalf("transform type must be part of the identity")
	}
}

func TestNewModulatorFlagsInvalidDestination(t *testing.T) {
	m := NewModulator(0x0081, 0, Unused5, 100, 0)
	if m.Valid() || m.Destination != InvalidGenerator {
		t.Fatalf("expected invalid destination, got %s", m.Destination)
	}
}

func TestSumTransformDoesNotMutate(t *testing.T) {
	a := NewModulator(0x0081, 0, VibLfoToPitch, 50, 0)
	b := NewModulator(0x0081, 0, VibLfoToPitch, 25, 0)
	s := a.SumTransform(b)
	if s.Amount != 75 || a.Amount != 50 || b.Amount != 25 {
		t.Fatalf("sum=%d a=%d b=%d", s.Amount, a.Amount, b.Amount)
	}
}

func TestEffectModulatorDetection(t *testing.T) {
	if !NewModulator(0x00DD, 0, ChorusEffectsSend, 200, 0).IsEffectModulator() {
		t.Fatalf("expected CC93 chorus modulator to be an effect modulator")
	}
	if NewModulator(0x00DD, 0x0081, ChorusEffectsSend, 200, 0).IsEffectModulator() {
		t.Fatalf("secondary source must disable the effect boost")
	}
}

func TestDefaultModulatorsAreUniqueAndValid(t *testing.T) {
	seen := map[ModulatorKey]bool{}
	for _, m := range DefaultModulators() {
		if !m.Valid() {
			t.Fatalf("invalid default modulator %s", m)
		}
		if seen[m.Key()] {
			t.Fatalf("duplicate default modulator %s", m)
		}
		seen[m.Key()] = true
	}
}
