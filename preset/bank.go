package preset

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cwbudde/algo-wavetable/internal/audioio"
	"github.com/cwbudde/algo-wavetable/soundfont"
)

// BankFile is the YAML schema of a bank description. Samples are WAV files
// referenced relative to the description. JSON is accepted as well since it
// is a subset of YAML.
type BankFile struct {
	Name        string           `yaml:"name"`
	Samples     []SampleEntry    `yaml:"samples"`
	Instruments []InstrumentFile `yaml:"instruments"`
	Presets     []PresetFile     `yaml:"presets"`
}

// SampleEntry describes one sample. A zero loop_end loops to the end of
// the data.
type SampleEntry struct {
	Name            string `yaml:"name"`
	WAV             string `yaml:"wav"`
	OriginalKey     *int   `yaml:"original_key"`
	PitchCorrection int    `yaml:"pitch_correction"`
	LoopStart       int    `yaml:"loop_start"`
	LoopEnd         int    `yaml:"loop_end"`
}

// InstrumentFile is an instrument and its zones.
type InstrumentFile struct {
	Name  string     `yaml:"name"`
	Zones []ZoneFile `yaml:"zones"`
}

// PresetFile is a preset and its zones.
type PresetFile struct {
	Name    string     `yaml:"name"`
	Bank    int        `yaml:"bank"`
	Program int        `yaml:"program"`
	Zones   []ZoneFile `yaml:"zones"`
}

// ZoneFile is an instrument or preset zone. Instrument zones name a
// sample, preset zones an instrument; a zone naming neither must be the
// first one and is then the global zone.
type ZoneFile struct {
	Sample     string           `yaml:"sample,omitempty"`
	Instrument string           `yaml:"instrument,omitempty"`
	KeyRange   []int            `yaml:"key_range,omitempty,flow"`
	VelRange   []int            `yaml:"vel_range,omitempty,flow"`
	Generators map[string]int   `yaml:"generators,omitempty"`
	Modulators []ModulatorEntry `yaml:"modulators,omitempty"`
}

// ModulatorEntry describes one modulator by generator name.
type ModulatorEntry struct {
	Source      SourceEntry  `yaml:"source"`
	Secondary   *SourceEntry `yaml:"secondary,omitempty"`
	Destination string       `yaml:"destination"`
	Amount      int32        `yaml:"amount"`
	Transform   int          `yaml:"transform,omitempty"`
}

// SourceEntry is the unpacked form of a modulator source.
type SourceEntry struct {
	CC       bool   `yaml:"cc"`
	Index    int    `yaml:"index"`
	Curve    string `yaml:"curve,omitempty"`
	Bipolar  bool   `yaml:"bipolar,omitempty"`
	Negative bool   `yaml:"negative,omitempty"`
}

var curveNames = map[string]int{
	"":        soundfont.CurveLinear,
	"linear":  soundfont.CurveLinear,
	"concave": soundfont.CurveConcave,
	"convex":  soundfont.CurveConvex,
	"switch":  soundfont.CurveSwitch,
}

// LoadBank reads a bank description and the samples it references.
func LoadBank(path string) (*soundfont.Bank, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f BankFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	bank, err := BuildBank(&f, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return bank, nil
}

// BuildBank builds the bank graph of f. Relative sample paths are resolved
// against baseDir.
func BuildBank(f *BankFile, baseDir string) (*soundfont.Bank, error) {
	if f == nil {
		return nil, fmt.Errorf("nil bank file")
	}
	bank := &soundfont.Bank{Name: f.Name}

	samples := make(map[string]*soundfont.Sample, len(f.Samples))
	for _, se := range f.Samples {
		if se.Name == "" {
			return nil, fmt.Errorf("sample without name")
		}
		if _, dup := samples[se.Name]; dup {
			return nil, fmt.Errorf("duplicate sample %q", se.Name)
		}
		smp, err := loadSample(se, baseDir)
		if err != nil {
			return nil, err
		}
		samples[se.Name] = smp
		bank.Samples = append(bank.Samples, smp)
	}

	instruments := make(map[string]*soundfont.Instrument, len(f.Instruments))
	for _, inf := range f.Instruments {
		if _, dup := instruments[inf.Name]; dup {
			return nil, fmt.Errorf("duplicate instrument %q", inf.Name)
		}
		inst := &soundfont.Instrument{Name: inf.Name}
		for i, zf := range inf.Zones {
			z, err := buildZone(zf, i)
			if err != nil {
				return nil, fmt.Errorf("instrument %q zone %d: %w", inf.Name, i, err)
			}
			if zf.Instrument != "" {
				return nil, fmt.Errorf("instrument %q zone %d: instrument zones reference samples", inf.Name, i)
			}
			if !z.Global {
				smp, ok := samples[zf.Sample]
				if !ok {
					return nil, fmt.Errorf("instrument %q zone %d: unknown sample %q", inf.Name, i, zf.Sample)
				}
				z.Sample = smp
			}
			inst.Zones = append(inst.Zones, z)
		}
		instruments[inf.Name] = inst
		bank.Instruments = append(bank.Instruments, inst)
	}

	for _, pf := range f.Presets {
		if pf.Bank < 0 || pf.Bank > soundfont.DrumBank || pf.Program < 0 || pf.Program > 127 {
			return nil, fmt.Errorf("preset %q: bank %d program %d out of range", pf.Name, pf.Bank, pf.Program)
		}
		p := soundfont.NewPreset(pf.Name, pf.Bank, pf.Program)
		for i, zf := range pf.Zones {
			z, err := buildZone(zf, i)
			if err != nil {
				return nil, fmt.Errorf("preset %q zone %d: %w", pf.Name, i, err)
			}
			if zf.Sample != "" {
				return nil, fmt.Errorf("preset %q zone %d: preset zones reference instruments", pf.Name, i)
			}
			if !z.Global {
				inst, ok := instruments[zf.Instrument]
				if !ok {
					return nil, fmt.Errorf("preset %q zone %d: unknown instrument %q", pf.Name, i, zf.Instrument)
				}
				z.Instrument = inst
			}
			p.Zones = append(p.Zones, z)
		}
		bank.Presets = append(bank.Presets, p)
	}

	if err := bank.Validate(); err != nil {
		return nil, err
	}
	return bank, nil
}

func loadSample(se SampleEntry, baseDir string) (*soundfont.Sample, error) {
	path := strings.TrimSpace(se.WAV)
	if path == "" {
		return nil, fmt.Errorf("sample %q: missing wav path", se.Name)
	}
	if !filepath.IsAbs(path) {
		path = filepath.Clean(filepath.Join(baseDir, path))
	}
	data, sr, err := audioio.ReadWAVMono(path)
	if err != nil {
		return nil, fmt.Errorf("sample %q: %w", se.Name, err)
	}
	smp := &soundfont.Sample{
		Name:            se.Name,
		Data:            data,
		SampleRate:      sr,
		OriginalKey:     60,
		PitchCorrection: se.PitchCorrection,
		LoopStart:       se.LoopStart,
		LoopEnd:         se.LoopEnd,
	}
	if se.OriginalKey != nil {
		if *se.OriginalKey < 0 || *se.OriginalKey > 127 {
			return nil, fmt.Errorf("sample %q: original_key must be in [0,127]", se.Name)
		}
		smp.OriginalKey = *se.OriginalKey
	}
	if smp.LoopEnd == 0 {
		smp.LoopEnd = len(data)
	}
	return smp, nil
}

func buildZone(zf ZoneFile, index int) (*soundfont.Zone, error) {
	z := &soundfont.Zone{}
	if zf.Sample == "" && zf.Instrument == "" {
		if index != 0 {
			return nil, fmt.Errorf("only the first zone may be global")
		}
		z.Global = true
	}
	var err error
	if z.KeyRange, err = parseRange(zf.KeyRange, "key_range"); err != nil {
		return nil, err
	}
	if z.VelRange, err = parseRange(zf.VelRange, "vel_range"); err != nil {
		return nil, err
	}
	for name, value := range zf.Generators {
		t, err := soundfont.ParseGeneratorType(name)
		if err != nil {
			return nil, err
		}
		if t == soundfont.KeyRange || t == soundfont.VelRange || t == soundfont.SampleID || t == soundfont.InstrumentID {
			return nil, fmt.Errorf("generator %q is set by the zone structure", name)
		}
		g := soundfont.NewGenerator(t, value)
		z.Generators.Set(g.Type, g.Value)
	}
	for i, me := range zf.Modulators {
		m, err := buildModulator(me)
		if err != nil {
			return nil, fmt.Errorf("modulator %d: %w", i, err)
		}
		z.Modulators = append(z.Modulators, m)
	}
	return z, nil
}

func parseRange(v []int, name string) (*soundfont.Range, error) {
	if v == nil {
		return nil, nil
	}
	if len(v) != 2 || v[0] < 0 || v[1] > 127 || v[0] > v[1] {
		return nil, fmt.Errorf("%s must be [lo, hi] within 0..127", name)
	}
	return &soundfont.Range{Lo: v[0], Hi: v[1]}, nil
}

func buildSource(se SourceEntry) (soundfont.ModulatorSource, error) {
	curve, ok := curveNames[strings.ToLower(se.Curve)]
	if !ok {
		return 0, fmt.Errorf("unknown curve %q", se.Curve)
	}
	if se.Index < 0 || se.Index > 127 {
		return 0, fmt.Errorf("source index must be in [0,127]")
	}
	return soundfont.NewModulatorSource(curve, se.Bipolar, se.Negative, se.CC, se.Index), nil
}

func buildModulator(me ModulatorEntry) (soundfont.Modulator, error) {
	src, err := buildSource(me.Source)
	if err != nil {
		return soundfont.Modulator{}, err
	}
	var secondary soundfont.ModulatorSource
	if me.Secondary != nil {
		if secondary, err = buildSource(*me.Secondary); err != nil {
			return soundfont.Modulator{}, err
		}
	}
	dest, err := soundfont.ParseGeneratorType(me.Destination)
	if err != nil {
		return soundfont.Modulator{}, err
	}
	if me.Transform != 0 && me.Transform != 2 {
		return soundfont.Modulator{}, fmt.Errorf("transform must be 0 (linear) or 2 (absolute)")
	}
	return soundfont.NewModulator(src, secondary, dest, me.Amount, me.Transform), nil
}
