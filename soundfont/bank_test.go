package soundfont

import (
	"errors"
	"testing"
)

func TestBankPresetFallbacks(t *testing.T) {
	piano := NewPreset("piano", 0, 0)
	organ := NewPreset("organ", 0, 16)
	strings := NewPreset("strings var", 8, 48)
	drums := NewPreset("standard", DrumBank, 0)
	b := &Bank{Presets: []*Preset{piano, organ, strings, drums}}

	tests := []struct {
		bank, program int
		want          *Preset
	}{
		{0, 16, organ},
		{8, 48, strings},
		{8, 16, organ},
		{DrumBank, 25, drums},
		{3, 99, piano},
	}
	for _, tt := range tests {
		got, err := b.Preset(tt.bank, tt.program)
		if err != nil {
			t.Fatalf("Preset(%d,%d): %v", tt.bank, tt.program, err)
		}
		if got != tt.want {
			t.Fatalf("Preset(%d,%d) got=%q want=%q", tt.bank, tt.program, got.Name, tt.want.Name)
		}
	}
}

func TestEmptyBankReturnsNotFound(t *testing.T) {
	var b Bank
	if _, err := b.Preset(0, 0); !errors.Is(err, ErrPresetNotFound) {
		t.Fatalf("got err=%v", err)
	}
	if _, err := b.PresetByName("x"); !errors.Is(err, ErrPresetNotFound) {
		t.Fatalf("got err=%v", err)
	}
}

func TestBankValidate(t *testing.T) {
	s := testSample("ok")
	bad := testSample("bad")
	bad.LoopEnd = 10000
	inst := &Instrument{Name: "i", Zones: []*Zone{{Sample: s, KeyRange: &Range{Lo: 70, Hi: 60}}}}
	p := NewPreset("p", 0, 0)
	p.Zones = []*Zone{{Instrument: inst}, {}}
	b := &Bank{Samples: []*Sample{s, bad}, Instruments: []*Instrument{inst}, Presets: []*Preset{p}}
	if err := b.Validate(); err == nil {
		t.Fatalf("expected validation errors")
	}

	good := &Bank{Samples: []*Sample{s}, Instruments: []*Instrument{{Name: "i", Zones: []*Zone{{Sample: s}}}}}
	if err := good.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
