package analysis

import (
	"math/rand"
	"testing"
)

func TestCompareIdenticalSignalsHasLowDistance(t *testing.T) {
	sr := 48000
	x := makeDecaySine(sr, 440.0, 1.5, 0.7)
	m := Compare(x, x, sr)
	if m.Score > 0.05 {
		t.Fatalf("expected very low score for identical signals, got %f", m.Score)
	}
	if m.Similarity < 0.85 {
		t.Fatalf("expected high similarity for identical signals, got %f", m.Similarity)
	}
	if m.LagSamples != 0 {
		t.Fatalf("expected zero lag, got %d", m.LagSamples)
	}
}

func TestCompareDifferentSignalsHasHigherDistance(t *testing.T) {
	sr := 48000
	a := makeDecaySine(sr, 261.63, 1.8, 0.8)
	b := makeDecaySine(sr, 330.0, 0.8, 0.25)
	m := Compare(a, b, sr)
	if m.Score < 0.25 {
		t.Fatalf("expected higher score for different signals, got %f", m.Score)
	}
}

func TestCompareIgnoresLeadingSilenceAndGain(t *testing.T) {
	sr := 48000
	x := makeDecaySine(sr, 440.0, 1.0, 0.5)
	y := make([]float64, 300, 300+len(x))
	for _, v := range x {
		y = append(y, 0.25*v)
	}
	m := Compare(x, y, sr)
	if m.Score > 0.05 {
		t.Fatalf("expected silence and gain to be ignored, got score %f", m.Score)
	}
}

func TestCompareRejectsEmptyInput(t *testing.T) {
	m := Compare(nil, []float64{1, 2, 3}, 48000)
	if m.Score != 1 || m.Similarity != 0 {
		t.Fatalf("expected worst score for empty input, got %+v", m)
	}
}

func TestEstimateLagFindsPositiveShift(t *testing.T) {
	const (
		n      = 8192
		shift  = 237
		maxLag = 600
	)
	ref := randomSignal(n, 7)
	cand := make([]float64, n)
	copy(cand, ref[shift:])

	if got := estimateLag(ref, cand, maxLag); got != shift {
		t.Fatalf("estimateLag() = %d, want %d", got, shift)
	}
}

func TestEstimateLagFindsNegativeShift(t *testing.T) {
	const (
		n      = 8192
		shift  = -191
		maxLag = 600
	)
	ref := randomSignal(n, 11)
	cand := make([]float64, n)
	copy(cand[-shift:], ref)

	if got := estimateLag(ref, cand, maxLag); got != shift {
		t.Fatalf("estimateLag() = %d, want %d", got, shift)
	}
}

func randomSignal(n int, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	for i := range out {
		out[i] = rng.Float64()*2 - 1
	}
	return out
}
