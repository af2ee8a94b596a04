package effects

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/cwbudde/algo-wavetable/internal/audioio"
)

func directConvolve(x []float32, h []float32) []float32 {
	out := make([]float32, len(x)+len(h)-1)
	for n := range x {
		for k := range h {
			out[n+k] += x[n] * h[k]
		}
	}
	return out
}

func maxAbsDiff(a []float32, b []float32) float64 {
	n := min(len(a), len(b))
	maxDiff := 0.0
	for i := 0; i < n; i++ {
		d := math.Abs(float64(a[i] - b[i]))
		if d > maxDiff {
			maxDiff = d
		}
	}
	return maxDiff
}

func rms(x []float32) float64 {
	if len(x) == 0 {
		return 0
	}
	var sum float64
	for _, v := range x {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum / float64(len(x)))
}

func writeTempIRWav(t *testing.T, left []float32, right []float32, sampleRate int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ir.wav")
	var err error
	if right == nil {
		err = audioio.WriteMonoWAV(path, left, sampleRate)
	} else {
		err = audioio.WriteStereoWAVLR(path, left, right, sampleRate)
	}
	if err != nil {
		t.Fatalf("write ir wav: %v", err)
	}
	return path
}

func TestReverbMatchesDirectConvolution(t *testing.T) {
	r := NewReverb(48000, 0.1)

	input := make([]float32, 0, 1024)
	for i := 0; i < 1024; i++ {
		input = append(input, float32(math.Sin(float64(i)*0.07))*0.8)
	}
	leftIR := []float32{1.0, 0.3, -0.2, 0.1, 0.05}
	rightIR := []float32{0.8, -0.1, 0.05}
	r.SetIR(leftIR, rightIR)

	outL := make([]float32, len(input))
	outR := make([]float32, len(input))
	for start := 0; start < len(input); start += 128 {
		end := start + 128
		r.Process(input[start:end], outL[start:end], outR[start:end], 1)
	}

	directL := directConvolve(input, leftIR)[:len(input)]
	directR := directConvolve(input, rightIR)[:len(input)]

	if d := maxAbsDiff(outL, directL); d > 1e-4 {
		t.Fatalf("left channel mismatch too high: max diff=%g", d)
	}
	if d := maxAbsDiff(outR, directR); d > 1e-4 {
		t.Fatalf("right channel mismatch too high: max diff=%g", d)
	}
}

func TestReverbAddsScaledWetSignal(t *testing.T) {
	r := NewReverb(48000, 0.1)
	r.SetIR([]float32{1}, []float32{1})

	in := make([]float32, 128)
	in[3] = 1
	outL := make([]float32, 128)
	outR := make([]float32, 128)
	for i := range outL {
		outL[i] = 0.25
		outR[i] = -0.25
	}
	r.Process(in, outL, outR, 0.5)
	if math.Abs(float64(outL[3]-0.75)) > 1e-5 || math.Abs(float64(outR[3]-0.25)) > 1e-5 {
		t.Fatalf("wet mix mismatch: L=%f R=%f", outL[3], outR[3])
	}
	if outL[0] != 0.25 || outR[0] != -0.25 {
		t.Fatalf("dry signal modified: L=%f R=%f", outL[0], outR[0])
	}
}

func TestReverbResetClearsTail(t *testing.T) {
	r := NewReverb(48000, 0.1)
	r.SetIR([]float32{1, 0.5, 0.25}, []float32{1, 0.5, 0.25})

	in := make([]float32, 128)
	in[127] = 1
	outL := make([]float32, 128)
	outR := make([]float32, 128)
	r.Process(in, outL, outR, 1)
	r.Reset()

	clear(in)
	clear(outL)
	clear(outR)
	r.Process(in, outL, outR, 1)
	if v := rms(outL) + rms(outR); v > 1e-7 {
		t.Fatalf("expected near-silence after reset, got rms=%g", v)
	}
}

func TestGeneratedIRDecays(t *testing.T) {
	left, right := GenerateIR(48000, 0.5, 7)
	if len(left) != 24000 || len(right) != 24000 {
		t.Fatalf("ir length mismatch: %d %d", len(left), len(right))
	}
	head := rms(left[:2400])
	tail := rms(left[len(left)-2400:])
	if tail >= head/100 {
		t.Fatalf("ir does not decay: head=%g tail=%g", head, tail)
	}
	if maxAbsDiff(left, right) == 0 {
		t.Fatalf("left and right IRs should be decorrelated")
	}
	again, _ := GenerateIR(48000, 0.5, 7)
	if maxAbsDiff(left, again) != 0 {
		t.Fatalf("ir generation should be deterministic for a seed")
	}
}

func TestReverbLoads96kWavAndResamples(t *testing.T) {
	left := []float32{1.0, 0.2, 0.1, 0.0}
	right := []float32{0.5, 0.1, 0.05, 0.0}
	path := writeTempIRWav(t, left, right, 96000)

	r := NewReverb(48000, 0.1)
	if err := r.SetIRFromWAV(path); err != nil {
		t.Fatalf("SetIRFromWAV failed: %v", err)
	}

	input := make([]float32, 512)
	input[0] = 1.0
	outL := make([]float32, len(input))
	outR := make([]float32, len(input))
	for start := 0; start < len(input); start += 128 {
		end := start + 128
		r.Process(input[start:end], outL[start:end], outR[start:end], 1)
	}

	var leftPeak, rightPeak float64
	for i := range outL {
		leftPeak = math.Max(leftPeak, math.Abs(float64(outL[i])))
		rightPeak = math.Max(rightPeak, math.Abs(float64(outR[i])))
	}
	if leftPeak < 1e-7 {
		t.Fatalf("unexpectedly weak left response after load/resample: peak=%f", leftPeak)
	}
	if rightPeak < 1e-7 {
		t.Fatalf("unexpectedly weak right response after load/resample: peak=%f", rightPeak)
	}
}

func TestReverbLoadsMonoWavAsDualMono(t *testing.T) {
	mono := []float32{1.0, 0.4, 0.2, 0.1}
	path := writeTempIRWav(t, mono, nil, 48000)

	r := NewReverb(48000, 0.1)
	if err := r.SetIRFromWAV(path); err != nil {
		t.Fatalf("SetIRFromWAV mono failed: %v", err)
	}
	if r.IRLen() != len(mono) {
		t.Fatalf("ir length mismatch: got=%d want=%d", r.IRLen(), len(mono))
	}

	in := make([]float32, 6)
	in[0] = 1
	outL := make([]float32, 6)
	outR := make([]float32, 6)
	r.Process(in, outL, outR, 1)
	for i := range outL {
		if math.Abs(float64(outL[i]-outR[i])) > 1e-6 {
			t.Fatalf("expected dual-mono output at frame %d: L=%f R=%f", i, outL[i], outR[i])
		}
	}
}

func TestReverbRejectsMissingWav(t *testing.T) {
	r := NewReverb(48000, 0.1)
	if err := r.SetIRFromWAV(filepath.Join(t.TempDir(), "missing.wav")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
