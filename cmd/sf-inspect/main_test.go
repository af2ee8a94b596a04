package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/cwbudde/algo-wavetable/soundfont"
)

func inspectBank() *soundfont.Bank {
	smp := &soundfont.Sample{Name: "click", Data: make([]float32, 512), SampleRate: 44100, OriginalKey: 60, LoopEnd: 512}
	smp.Data[0] = 1
	zone := &soundfont.Zone{Sample: smp}
	zone.Generators.Set(soundfont.Pan, -200)
	inst := &soundfont.Instrument{Name: "perc", Zones: []*soundfont.Zone{zone}}
	p := soundfont.NewPreset("Kit", 0, 5)
	p.Zones = []*soundfont.Zone{{Instrument: inst}}
	return &soundfont.Bank{Name: "kit", Samples: []*soundfont.Sample{smp}, Instruments: []*soundfont.Instrument{inst}, Presets: []*soundfont.Preset{p}}
}

func TestListPresets(t *testing.T) {
	var buf bytes.Buffer
	listPresets(&buf, inspectBank())
	out := buf.String()
	if !strings.Contains(out, "Kit") || !strings.Contains(out, "1 presets") {
		t.Fatalf("unexpected listing:\n%s", out)
	}
}

func TestInspectNotePrintsChangedGenerators(t *testing.T) {
	var buf bytes.Buffer
	if err := inspectNote(&buf, inspectBank(), 0, 5, 60, 100, true); err != nil {
		t.Fatalf("inspectNote: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "1 voices") {
		t.Fatalf("voice count missing:\n%s", out)
	}
	if !strings.Contains(out, "pan") || !strings.Contains(out, "-200") {
		t.Fatalf("pan generator missing:\n%s", out)
	}
	if strings.Contains(out, "\nscaleTuning") {
		t.Fatalf("default generator printed:\n%s", out)
	}
	if !strings.Contains(out, "mod{") {
		t.Fatalf("modulators missing:\n%s", out)
	}
}
