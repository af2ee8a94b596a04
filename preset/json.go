// Package preset loads engine parameter files and bank descriptions.
package preset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-wavetable/synth"
)

// File is the JSON schema for engine parameter presets.
type File struct {
	MaxPolyphony      *int                      `json:"max_polyphony"`
	Channels          *int                      `json:"channels"`
	Interpolation     string                    `json:"interpolation"`
	MasterGain        *float64                  `json:"master_gain"`
	EffectsEnabled    *bool                     `json:"effects_enabled"`
	ReverbGain        *float64                  `json:"reverb_gain"`
	ChorusGain        *float64                  `json:"chorus_gain"`
	EffectSendReturn  *float64                  `json:"effect_send_return"`
	ReverbIRWavPath   string                    `json:"reverb_ir_wav_path"`
	ReverbSeconds     *float64                  `json:"reverb_seconds"`
	ChorusDepthMs     *float64                  `json:"chorus_depth_ms"`
	ChorusRateHz      *float64                  `json:"chorus_rate_hz"`
	VoiceCache        *bool                     `json:"voice_cache"`
	IgnoreDrumNoteOff *bool                     `json:"ignore_drum_note_off"`
	MinNoteLength     *float64                  `json:"min_note_length"`
	VolumeSmoothing   *float64                  `json:"volume_smoothing"`
	PanSmoothing      *float64                  `json:"pan_smoothing"`
	FilterSmoothing   *float64                  `json:"filter_smoothing"`
	PerChannel        map[string]ChannelSetting `json:"per_channel"`
}

// ChannelSetting is a partial channel override entry in a preset file.
type ChannelSetting struct {
	Program    *int     `json:"program"`
	BankSelect *int     `json:"bank_select"`
	Transpose  *float64 `json:"transpose"`
	FineTuning *float64 `json:"fine_tuning"`
	Drum       *bool    `json:"drum"`
}

// LoadJSON loads a preset JSON file and applies it on top of default params.
func LoadJSON(path string) (*synth.Params, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f File
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	p := synth.NewDefaultParams()
	if err := ApplyFile(p, &f); err != nil {
		return nil, err
	}

	if p.ReverbIRWavPath != "" && !filepath.IsAbs(p.ReverbIRWavPath) {
		base := filepath.Dir(path)
		p.ReverbIRWavPath = filepath.Clean(filepath.Join(base, p.ReverbIRWavPath))
	}
	return p, nil
}

// ApplyFile applies a parsed preset file onto an existing params object.
func ApplyFile(dst *synth.Params, f *File) error {
	if dst == nil {
		return fmt.Errorf("nil destination params")
	}
	if f == nil {
		return nil
	}

	if f.MaxPolyphony != nil {
		if *f.MaxPolyphony < 0 {
			return fmt.Errorf("max_polyphony must be >= 0")
		}
		dst.MaxPolyphony = *f.MaxPolyphony
	}
	if f.Channels != nil {
		if *f.Channels < 1 {
			return fmt.Errorf("channels must be > 0")
		}
		dst.Channels = *f.Channels
	}
	if f.Interpolation != "" {
		mode, err := synth.ParseInterpolation(f.Interpolation)
		if err != nil {
			return err
		}
		dst.Interpolation = mode
	}
	if f.MasterGain != nil {
		if *f.MasterGain < 0 {
			return fmt.Errorf("master_gain must be >= 0")
		}
		dst.MasterGain = *f.MasterGain
	}
	if f.EffectsEnabled != nil {
		dst.EffectsEnabled = *f.EffectsEnabled
	}
	if err := setNonNegative(&dst.ReverbGain, f.ReverbGain, "reverb_gain"); err != nil {
		return err
	}
	if err := setNonNegative(&dst.ChorusGain, f.ChorusGain, "chorus_gain"); err != nil {
		return err
	}
	if err := setNonNegative(&dst.EffectSendReturn, f.EffectSendReturn, "effect_send_return"); err != nil {
		return err
	}
	if f.ReverbIRWavPath != "" {
		dst.ReverbIRWavPath = strings.TrimSpace(f.ReverbIRWavPath)
	}
	if f.ReverbSeconds != nil {
		if *f.ReverbSeconds <= 0 {
			return fmt.Errorf("reverb_seconds must be > 0")
		}
		dst.ReverbSeconds = *f.ReverbSeconds
	}
	if err := setNonNegative(&dst.ChorusDepthMs, f.ChorusDepthMs, "chorus_depth_ms"); err != nil {
		return err
	}
	if f.ChorusRateHz != nil {
		if *f.ChorusRateHz <= 0 {
			return fmt.Errorf("chorus_rate_hz must be > 0")
		}
		dst.ChorusRateHz = *f.ChorusRateHz
	}
	if f.VoiceCache != nil {
		dst.VoiceCacheEnabled = *f.VoiceCache
	}
	if f.IgnoreDrumNoteOff != nil {
		dst.IgnoreDrumNoteOff = *f.IgnoreDrumNoteOff
	}
	if err := setNonNegative(&dst.MinNoteLength, f.MinNoteLength, "min_note_length"); err != nil {
		return err
	}
	for _, s := range []struct {
		dst  *float64
		v    *float64
		name string
	}{
		{&dst.VolumeSmoothing, f.VolumeSmoothing, "volume_smoothing"},
		{&dst.PanSmoothing, f.PanSmoothing, "pan_smoothing"},
		{&dst.FilterSmoothing, f.FilterSmoothing, "filter_smoothing"},
	} {
		if s.v == nil {
			continue
		}
		if *s.v <= 0 || *s.v > 1 {
			return fmt.Errorf("%s must be in (0,1]", s.name)
		}
		*s.dst = *s.v
	}

	if len(f.PerChannel) == 0 {
		return nil
	}
	if dst.PerChannel == nil {
		dst.PerChannel = make(map[int]*synth.ChannelParams)
	}

	keys := make([]string, 0, len(f.PerChannel))
	for k := range f.PerChannel {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		channel, err := strconv.Atoi(k)
		if err != nil || channel < 0 || channel >= dst.Channels {
			return fmt.Errorf("invalid per_channel key %q (expected 0..%d)", k, dst.Channels-1)
		}
		override := f.PerChannel[k]
		cp, ok := dst.PerChannel[channel]
		if !ok || cp == nil {
			cp = &synth.ChannelParams{}
			dst.PerChannel[channel] = cp
		}
		if override.Program != nil {
			if *override.Program < 0 || *override.Program > 127 {
				return fmt.Errorf("per_channel[%d].program must be in [0,127]", channel)
			}
			cp.Program = *override.Program
		}
		if override.BankSelect != nil {
			if *override.BankSelect < 0 || *override.BankSelect > 128 {
				return fmt.Errorf("per_channel[%d].bank_select must be in [0,128]", channel)
			}
			cp.BankSelect = *override.BankSelect
		}
		if override.Transpose != nil {
			if *override.Transpose < -127 || *override.Transpose > 127 {
				return fmt.Errorf("per_channel[%d].transpose must be in [-127,127]", channel)
			}
			cp.Transpose = *override.Transpose
		}
		if override.FineTuning != nil {
			cp.FineTuning = *override.FineTuning
		}
		if override.Drum != nil {
			cp.Drum = *override.Drum
		}
	}
	return nil
}

func setNonNegative(dst *float64, v *float64, name string) error {
	if v == nil {
		return nil
	}
	if *v < 0 {
		return fmt.Errorf("%s must be >= 0", name)
	}
	*dst = *v
	return nil
}
