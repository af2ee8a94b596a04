package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/cwbudde/algo-wavetable/preset"
	"github.com/cwbudde/algo-wavetable/synth"
)

func main() {
	bankPath := flag.String("bank", "", "Bank description (YAML or JSON)")
	paramsPath := flag.String("params", "", "Engine parameter JSON file (optional)")
	program := flag.Int("program", 0, "Program number")
	notes := flag.String("notes", "60,64,67,72", "Comma separated MIDI notes played in sequence")
	velocity := flag.Int("velocity", 100, "MIDI velocity (1-127)")
	noteLength := flag.Duration("note-length", 400*time.Millisecond, "Length of each note")
	tail := flag.Duration("tail", 2*time.Second, "Time to keep playing after the last note")
	sampleRate := flag.Int("sample-rate", 48000, "Output sample rate in Hz")
	flag.Parse()

	if *bankPath == "" {
		fmt.Fprintln(os.Stderr, "Error: -bank is required")
		os.Exit(1)
	}
	bank, err := preset.LoadBank(*bankPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading bank %q: %v\n", *bankPath, err)
		os.Exit(1)
	}
	params := synth.NewDefaultParams()
	if *paramsPath != "" {
		if params, err = preset.LoadJSON(*paramsPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error loading params %q: %v\n", *paramsPath, err)
			os.Exit(1)
		}
	}
	sequence, err := parseNotes(*notes)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	s := synth.New(*sampleRate, bank, params)
	s.ProgramChange(0, *program)
	// the engine clock drives note timing, so the whole sequence is queued up front
	step := noteLength.Seconds()
	for i, n := range sequence {
		at := float64(i) * step
		s.Schedule(synth.Event{Time: at, Kind: synth.EventNoteOn, Data1: n, Data2: *velocity})
		s.Schedule(synth.Event{Time: at + step*0.9, Kind: synth.EventNoteOff, Data1: n})
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   *sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening audio device: %v\n", err)
		os.Exit(1)
	}
	<-ready

	st := newStreamer(s, 128)
	player := ctx.NewPlayer(st)
	player.Play()
	fmt.Printf("Playing %d notes on program %d at %d Hz...\n", len(sequence), *program, *sampleRate)

	total := time.Duration(len(sequence))*(*noteLength) + *tail
	time.Sleep(total)

	var voices int
	st.do(func(s *synth.Synth) { voices = s.VoiceCount() })
	if err := player.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Error closing player: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Done (%d voices still sounding)\n", voices)
}
