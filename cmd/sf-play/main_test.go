package main

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/cwbudde/algo-wavetable/soundfont"
	"github.com/cwbudde/algo-wavetable/synth"
)

func toneBank() *soundfont.Bank {
	data := make([]float32, 4000)
	for i := range data {
		data[i] = float32(math.Sin(2 * math.Pi * float64(i) / 100))
	}
	smp := &soundfont.Sample{Name: "tone", Data: data, SampleRate: 48000, OriginalKey: 60, LoopStart: 100, LoopEnd: 3900}
	zone := &soundfont.Zone{Sample: smp}
	zone.Generators.Set(soundfont.SampleModes, 1)
	inst := &soundfont.Instrument{Name: "tone", Zones: []*soundfont.Zone{zone}}
	p := soundfont.NewPreset("tone", 0, 0)
	p.Zones = []*soundfont.Zone{{Instrument: inst}}
	return &soundfont.Bank{Samples: []*soundfont.Sample{smp}, Instruments: []*soundfont.Instrument{inst}, Presets: []*soundfont.Preset{p}}
}

func dryEngine() *synth.Synth {
	params := synth.NewDefaultParams()
	params.EffectsEnabled = false
	return synth.New(48000, toneBank(), params)
}

func TestStreamerMatchesProcess(t *testing.T) {
	ref := dryEngine()
	ref.NoteOn(0, 60, 100)
	want := append([]float32(nil), ref.Process(128)...)
	want = append(want, ref.Process(72)...)

	s := dryEngine()
	s.NoteOn(0, 60, 100)
	st := newStreamer(s, 128)
	buf := make([]byte, 200*bytesPerFrame+3)
	n, err := st.Read(buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if n != 200*bytesPerFrame {
		t.Fatalf("byte count mismatch: got=%d want=%d", n, 200*bytesPerFrame)
	}
	for i, w := range want {
		got := math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
		if got != w {
			t.Fatalf("sample %d mismatch: got=%f want=%f", i, got, w)
		}
	}
	var voices int
	st.do(func(s *synth.Synth) { voices = s.VoiceCount() })
	if voices != 1 {
		t.Fatalf("voice count mismatch: %d", voices)
	}
}

func TestParseNotes(t *testing.T) {
	notes, err := parseNotes(" 60, 64 ,67,")
	if err != nil {
		t.Fatalf("parseNotes: %v", err)
	}
	if len(notes) != 3 || notes[0] != 60 || notes[2] != 67 {
		t.Fatalf("notes mismatch: %v", notes)
	}
	for _, bad := range []string{"", "x", "128", "-1"} {
		if _, err := parseNotes(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}
