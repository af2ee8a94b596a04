package main

import (
	"math"
	"path/filepath"
	"testing"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

func TestLoadSMFReturnsTimedMessages(t *testing.T) {
	path := filepath.Join(t.TempDir(), "song.mid")
	s := smf.New()
	var tr smf.Track
	tr.Add(0, smf.MetaTempo(120))
	tr.Add(0, midi.NoteOn(0, 60, 100))
	tr.Add(960, midi.NoteOff(0, 60))
	tr.Add(480, midi.ControlChange(0, 7, 90))
	tr.Close(0)
	if err := s.Add(tr); err != nil {
		t.Fatalf("add track: %v", err)
	}
	if err := s.WriteFile(path); err != nil {
		t.Fatalf("write smf: %v", err)
	}

	events, err := loadSMF(path)
	if err != nil {
		t.Fatalf("loadSMF: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("event count mismatch: got=%d want=3", len(events))
	}
	var ch, key, vel uint8
	if !events[0].msg.GetNoteOn(&ch, &key, &vel) || key != 60 || events[0].at != 0 {
		t.Fatalf("first event mismatch: %s at %f", events[0].msg, events[0].at)
	}
	// 960 ticks is one quarter note at 120 bpm
	if math.Abs(events[1].at-0.5) > 1e-3 {
		t.Fatalf("note-off time mismatch: got=%f want=0.5", events[1].at)
	}
	if math.Abs(lastEventTime(events)-0.75) > 1e-3 {
		t.Fatalf("last event time mismatch: got=%f want=0.75", lastEventTime(events))
	}
}

func TestLoadSMFRejectsMissingFile(t *testing.T) {
	if _, err := loadSMF(filepath.Join(t.TempDir(), "missing.mid")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestSplitStereoAndPeak(t *testing.T) {
	left, right := splitStereo([]float32{0.5, -1, 0.25, 0})
	if len(left) != 2 || left[1] != 0.25 || right[0] != -1 {
		t.Fatalf("split mismatch: %v %v", left, right)
	}
	if got := peakDBFS([]float32{0.5, -1}); math.Abs(got) > 1e-9 {
		t.Fatalf("peak mismatch: got=%f want=0", got)
	}
}
