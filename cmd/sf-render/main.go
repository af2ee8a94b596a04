package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/cwbudde/algo-wavetable/analysis"
	"github.com/cwbudde/algo-wavetable/internal/audioio"
	"github.com/cwbudde/algo-wavetable/preset"
	"github.com/cwbudde/algo-wavetable/synth"
)

func main() {
	bankPath := flag.String("bank", "", "Bank description (YAML or JSON)")
	paramsPath := flag.String("params", "", "Engine parameter JSON file (optional)")
	midiPath := flag.String("midi", "", "Standard MIDI file to render instead of a single note")
	note := flag.Int("note", 60, "MIDI note number")
	velocity := flag.Int("velocity", 100, "MIDI velocity (1-127)")
	program := flag.Int("program", 0, "Program number for the single-note render")
	duration := flag.Float64("duration", 2.0, "Duration in seconds; with -midi, the tail after the last event")
	releaseAfter := flag.Float64("release-after", 1.0, "Send NoteOff after this many seconds (single note)")
	sampleRate := flag.Int("sample-rate", 44100, "Render sample rate in Hz")
	outputRate := flag.Int("output-rate", 0, "Resample the result to this rate before writing (0 = render rate)")
	interpolation := flag.String("interpolation", "", "Interpolation override: linear, nearest or hermite")
	output := flag.String("output", "output.wav", "Output WAV file path")
	summary := flag.Bool("summary", false, "Print an analysis summary of the render as JSON")
	reference := flag.String("reference", "", "Reference WAV to compare the render against (optional)")
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
	if *interpolation != "" {
		mode, err := synth.ParseInterpolation(*interpolation)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		params.Interpolation = mode
	}

	s := synth.New(*sampleRate, bank, params)

	var seconds float64
	if *midiPath != "" {
		events, err := loadSMF(*midiPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading MIDI file %q: %v\n", *midiPath, err)
			os.Exit(1)
		}
		skipped := 0
		for _, ev := range events {
			if err := s.HandleMessage(ev.msg, ev.at); err != nil {
				if errors.Is(err, synth.ErrUnsupportedMessage) {
					skipped++
					continue
				}
				fmt.Fprintf(os.Stderr, "Error scheduling %s: %v\n", ev.msg, err)
				os.Exit(1)
			}
		}
		seconds = lastEventTime(events) + *duration
		fmt.Printf("Rendering %s (%d events, %d skipped) for %.2f seconds at %d Hz...\n", *midiPath, len(events), skipped, seconds, *sampleRate)
	} else {
		s.ProgramChange(0, *program)
		s.Schedule(synth.Event{Kind: synth.EventNoteOn, Data1: *note, Data2: *velocity})
		s.Schedule(synth.Event{Time: *releaseAfter, Kind: synth.EventNoteOff, Data1: *note})
		seconds = *duration
		fmt.Printf("Rendering note %d, velocity %d, program %d for %.2f seconds at %d Hz...\n", *note, *velocity, *program, seconds, *sampleRate)
	}

	totalFrames := max(1, int(float64(*sampleRate)*seconds))
	blockSize := 128
	samples := make([]float32, 0, totalFrames*2)
	for framesRendered := 0; framesRendered < totalFrames; {
		framesToRender := min(blockSize, totalFrames-framesRendered)
		samples = append(samples, s.Process(framesToRender)...)
		framesRendered += framesToRender
	}

	writeRate := *sampleRate
	if *outputRate > 0 && *outputRate != *sampleRate {
		left, right := splitStereo(samples)
		if left, err = audioio.ResampleIfNeeded(left, *sampleRate, *outputRate); err == nil {
			right, err = audioio.ResampleIfNeeded(right, *sampleRate, *outputRate)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error resampling to %d Hz: %v\n", *outputRate, err)
			os.Exit(1)
		}
		if err := audioio.WriteStereoWAVLR(*output, left, right, *outputRate); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing WAV file: %v\n", err)
			os.Exit(1)
		}
		writeRate = *outputRate
	} else if err := audioio.WriteStereoInterleavedWAV(*output, samples, *sampleRate); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing WAV file: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Successfully wrote %s (%d frames at %d Hz, peak %.1f dBFS)\n", *output, totalFrames, writeRate, peakDBFS(samples))

	mono := analysis.StereoToMono(samples)
	if *summary {
		if err := printJSON(analysis.Summarize(mono, *sampleRate)); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing summary: %v\n", err)
			os.Exit(1)
		}
	}
	if *reference != "" {
		metrics, err := compareWithReference(*reference, mono, *sampleRate)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error comparing with %q: %v\n", *reference, err)
			os.Exit(1)
		}
		if err := printJSON(metrics); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing metrics: %v\n", err)
			os.Exit(1)
		}
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// compareWithReference scores a mono render against a reference WAV,
// resampled to the render rate.
func compareWithReference(path string, render []float64, sampleRate int) (analysis.Metrics, error) {
	ref, rate, err := audioio.ReadWAVMono(path)
	if err != nil {
		return analysis.Metrics{}, err
	}
	if ref, err = audioio.ResampleIfNeeded(ref, rate, sampleRate); err != nil {
		return analysis.Metrics{}, err
	}
	ref64 := make([]float64, len(ref))
	for i, v := range ref {
		ref64[i] = float64(v)
	}
	return analysis.Compare(ref64, render, sampleRate), nil
}

func splitStereo(interleaved []float32) (left, right []float32) {
	n := len(interleaved) / 2
	left = make([]float32, n)
	right = make([]float32, n)
	for i := range n {
		left[i] = interleaved[i*2]
		right[i] = interleaved[i*2+1]
	}
	return left, right
}

func peakDBFS(interleaved []float32) float64 {
	var peak float64
	for _, s := range interleaved {
		peak = math.Max(peak, math.Abs(float64(s)))
	}
	return analysis.LinToDB(peak)
}
