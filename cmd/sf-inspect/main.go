package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/cwbudde/algo-wavetable/preset"
	"github.com/cwbudde/algo-wavetable/soundfont"
	"github.com/cwbudde/algo-wavetable/synth"
)

func main() {
	bankPath := flag.String("bank", "", "Bank description (YAML or JSON)")
	bankNum := flag.Int("bank-number", 0, "Bank number of the preset to inspect")
	program := flag.Int("program", -1, "Program to inspect (-1 lists presets only)")
	note := flag.Int("note", 60, "MIDI note number")
	velocity := flag.Int("velocity", 100, "MIDI velocity (1-127)")
	showMods := flag.Bool("modulators", false, "Print each voice's modulator list")
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

	listPresets(os.Stdout, bank)
	if *program < 0 {
		return
	}
	if err := inspectNote(os.Stdout, bank, *bankNum, *program, *note, *velocity, *showMods); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func listPresets(w io.Writer, bank *soundfont.Bank) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "bank %q: %d samples, %d instruments, %d presets\n", bank.Name, len(bank.Samples), len(bank.Instruments), len(bank.Presets))
	fmt.Fprintln(tw, "BANK\tPROGRAM\tNAME\tZONES")
	for _, p := range bank.Presets {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%d\n", p.Bank, p.Program, p.Name, len(p.Zones))
	}
	tw.Flush()
}

// inspectNote starts the note on a silent engine and prints the voices it
// creates with every generator that differs from its default.
func inspectNote(w io.Writer, bank *soundfont.Bank, bankNum, program, note, velocity int, showMods bool) error {
	p, err := bank.Preset(bankNum, program)
	if err != nil {
		return err
	}
	params := synth.NewDefaultParams()
	params.EffectsEnabled = false
	params.VoiceCacheEnabled = false
	s := synth.New(44100, bank, params)
	ch := 0
	if bankNum == soundfont.DrumBank {
		ch = synth.DrumChannel
	} else {
		s.ControllerChange(ch, synth.CCBankSelect, bankNum)
	}
	s.ProgramChange(ch, program)
	s.NoteOn(ch, note, velocity)

	voices := s.Channel(ch).Voices()
	fmt.Fprintf(w, "\npreset %q note %d velocity %d: %d layers, %d voices\n", p.Name, note, velocity, len(p.Resolve(note, velocity)), len(voices))
	for i, v := range voices {
		fmt.Fprintf(w, "\nvoice %d: sample %q key %d velocity %d\n", i, v.SampleName(), v.Note(), v.Velocity())
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "GENERATOR\tBASE\tMODULATED\tDEFAULT")
		for g := soundfont.GeneratorType(0); g < soundfont.GeneratorCount; g++ {
			def := soundfont.Limits(g).Default
			base, mod := v.BaseGenerator(g), v.Generator(g)
			if base == def && mod == def {
				continue
			}
			fmt.Fprintf(tw, "%s\t%d\t%d\t%d\n", g, base, mod, def)
		}
		tw.Flush()
		if showMods {
			for _, m := range v.Modulators() {
				fmt.Fprintf(w, "  %s\n", m)
			}
		}
	}
	return nil
}
