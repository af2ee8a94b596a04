// Package audioio reads and writes the WAV files used for bank samples,
// impulse responses and rendered output.
package audioio

import (
	"fmt"
	"os"
	"path/filepath"

	dspresample "github.com/cwbudde/algo-dsp/dsp/resample"
	"github.com/cwbudde/wav"
	"github.com/go-audio/audio"
)

func readPCM(path string) (*audio.Float32Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("invalid wav file: %s", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if buf == nil || buf.Format == nil || buf.Format.NumChannels < 1 {
		return nil, fmt.Errorf("invalid wav buffer: %s", path)
	}
	if buf.Format.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid wav sample-rate: %d", buf.Format.SampleRate)
	}
	return buf, nil
}

// ReadWAVMono reads a WAV file and mixes all channels down to mono.
func ReadWAVMono(path string) ([]float32, int, error) {
	buf, err := readPCM(path)
	if err != nil {
		return nil, 0, err
	}
	ch := buf.Format.NumChannels
	frames := len(buf.Data) / ch
	out := make([]float32, frames)
	for i := range frames {
		var sum float32
		for c := range ch {
			sum += buf.Data[i*ch+c]
		}
		out[i] = sum / float32(ch)
	}
	return out, buf.Format.SampleRate, nil
}

// ReadWAVStereo reads a mono or stereo WAV file as left/right channels at
// targetRate. Mono files are duplicated to both sides.
func ReadWAVStereo(path string, targetRate int) (left, right []float32, err error) {
	buf, err := readPCM(path)
	if err != nil {
		return nil, nil, err
	}
	numCh := buf.Format.NumChannels
	frames := len(buf.Data) / numCh
	if frames == 0 {
		return nil, nil, fmt.Errorf("empty wav data: %s", path)
	}
	left = make([]float32, frames)
	right = make([]float32, frames)
	for i := range frames {
		left[i] = buf.Data[i*numCh]
		if numCh == 1 {
			right[i] = left[i]
		} else {
			right[i] = buf.Data[i*numCh+1]
		}
	}
	if left, err = ResampleIfNeeded(left, buf.Format.SampleRate, targetRate); err != nil {
		return nil, nil, err
	}
	if right, err = ResampleIfNeeded(right, buf.Format.SampleRate, targetRate); err != nil {
		return nil, nil, err
	}
	return left, right, nil
}

// ResampleIfNeeded converts in from fromRate to toRate. It returns in
// unchanged when the rates match.
func ResampleIfNeeded(in []float32, fromRate int, toRate int) ([]float32, error) {
	if fromRate == toRate {
		return in, nil
	}
	if fromRate <= 0 || toRate <= 0 {
		return nil, fmt.Errorf("invalid resample rates %d -> %d", fromRate, toRate)
	}
	r, err := dspresample.NewForRates(
		float64(fromRate),
		float64(toRate),
		dspresample.WithQuality(dspresample.QualityBest),
	)
	if err != nil {
		return nil, err
	}

	in64 := make([]float64, len(in))
	for i, v := range in {
		in64[i] = float64(v)
	}
	out64 := r.Process(in64)
	out := make([]float32, len(out64))
	for i, v := range out64 {
		out[i] = float32(v)
	}
	return out, nil
}

// WriteStereoWAVLR writes separate left/right channels as 16-bit stereo.
func WriteStereoWAVLR(path string, left []float32, right []float32, sampleRate int) error {
	if len(left) != len(right) {
		return fmt.Errorf("left/right length mismatch")
	}
	data := make([]float32, len(left)*2)
	for i := range left {
		data[i*2] = left[i]
		data[i*2+1] = right[i]
	}
	return WriteStereoInterleavedWAV(path, data, sampleRate)
}

// WriteStereoInterleavedWAV writes interleaved stereo samples as 16-bit PCM.
func WriteStereoInterleavedWAV(path string, samples []float32, sampleRate int) error {
	return writeWAV(path, samples, sampleRate, 2)
}

// WriteMonoWAV writes mono samples as 16-bit PCM.
func WriteMonoWAV(path string, data []float32, sampleRate int) error {
	return writeWAV(path, data, sampleRate, 1)
}

func writeWAV(path string, data []float32, sampleRate, channels int) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)

	buf := &audio.Float32Buffer{
		Format: &audio.Format{
			SampleRate:  sampleRate,
			NumChannels: channels,
		},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return err
	}
	return enc.Close()
}
