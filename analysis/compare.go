package analysis

import (
	"math"

	algofft "github.com/cwbudde/algo-fft"
	"github.com/cwbudde/algo-dsp/dsp/window"
)

// Metrics contains distance measurements between a reference render and a
// candidate render.
type Metrics struct {
	SampleRate int `json:"sample_rate"`

	ReferenceFrames int `json:"reference_frames"`
	CandidateFrames int `json:"candidate_frames"`
	AlignedFrames   int `json:"aligned_frames"`
	LagSamples      int `json:"lag_samples"`

	TimeRMSE        float64 `json:"time_rmse"`
	EnvelopeRMSEDB  float64 `json:"envelope_rmse_db"`
	SpectralRMSEDB  float64 `json:"spectral_rmse_db"`
	RefDecayDBPerS  float64 `json:"ref_decay_db_per_s"`
	CandDecayDBPerS float64 `json:"cand_decay_db_per_s"`
	DecayDiffDBPerS float64 `json:"decay_diff_db_per_s"`

	Score      float64 `json:"score"`
	Similarity float64 `json:"similarity"`
}

// Compare aligns candidate to reference and returns distance metrics with a
// combined score in [0,1] (0 = identical).
func Compare(reference []float64, candidate []float64, sampleRate int) Metrics {
	m := Metrics{
		SampleRate:      sampleRate,
		ReferenceFrames: len(reference),
		CandidateFrames: len(candidate),
		Score:           1,
	}
	ref := TrimLeadingSilence(reference, 1e-6)
	cand := TrimLeadingSilence(candidate, 1e-6)
	if sampleRate <= 0 || len(ref) == 0 || len(cand) == 0 {
		return m
	}
	ref = normalizeRMS(ref, 0.1)
	cand = normalizeRMS(cand, 0.1)

	maxLag := max(1, min(sampleRate/2, len(ref)-1, len(cand)-1))
	m.LagSamples = estimateLag(ref, cand, maxLag)
	ref, cand = alignByLag(ref, cand, m.LagSamples)

	n := min(len(ref), len(cand), sampleRate*12)
	if n < 256 {
		return m
	}
	ref, cand = ref[:n], cand[:n]
	m.AlignedFrames = n

	var diff float64
	for i := range n {
		d := ref[i] - cand[i]
		diff += d * d
	}
	m.TimeRMSE = math.Sqrt(diff / float64(n))

	const frame, hop = 256, 128
	refEnv := RMSEnvelope(ref, frame, hop)
	candEnv := RMSEnvelope(cand, frame, hop)
	envN := min(len(refEnv), len(candEnv))
	if envN > 0 {
		envDiff := make([]float64, envN)
		for i := range envN {
			envDiff[i] = LinToDB(refEnv[i]) - LinToDB(candEnv[i])
		}
		m.EnvelopeRMSEDB = RMS(envDiff)
	}

	m.SpectralRMSEDB = spectralRMSEDB(ref, cand)

	hopSec := float64(hop) / float64(sampleRate)
	m.RefDecayDBPerS = DecaySlopeDBPerS(refEnv, hopSec)
	m.CandDecayDBPerS = DecaySlopeDBPerS(candEnv, hopSec)
	if isFinite(m.RefDecayDBPerS) && isFinite(m.CandDecayDBPerS) {
		m.DecayDiffDBPerS = math.Abs(m.RefDecayDBPerS - m.CandDecayDBPerS)
	} else {
		// keep the struct JSON encodable
		m.RefDecayDBPerS, m.CandDecayDBPerS = finiteOrZero(m.RefDecayDBPerS), finiteOrZero(m.CandDecayDBPerS)
	}

	timeNorm := clamp01(m.TimeRMSE / 0.25)
	envNorm := clamp01(m.EnvelopeRMSEDB / 30.0)
	specNorm := clamp01(m.SpectralRMSEDB / 30.0)
	decNorm := clamp01(m.DecayDiffDBPerS / 40.0)
	m.Score = clamp01(0.30*timeNorm + 0.25*envNorm + 0.30*specNorm + 0.15*decNorm)
	m.Similarity = clamp01(math.Exp(-4.0 * m.Score))
	return m
}

func normalizeRMS(x []float64, target float64) []float64 {
	out := make([]float64, len(x))
	r := RMS(x)
	if r <= 1e-12 {
		copy(out, x)
		return out
	}
	g := target / r
	for i := range x {
		out[i] = x[i] * g
	}
	return out
}

// estimateLag returns the shift of cand against ref (positive: cand starts
// later in ref) that maximizes their correlation within +-maxLag.
func estimateLag(ref []float64, cand []float64, maxLag int) int {
	if len(ref) == 0 || len(cand) == 0 {
		return 0
	}
	step := 2
	if len(ref) > 200000 || len(cand) > 200000 {
		step = 4
	}
	bestLag := 0
	best := math.Inf(-1)
	for lag := -maxLag; lag <= maxLag; lag++ {
		if s := dotAtLag(ref, cand, lag, step); s > best {
			best = s
			bestLag = lag
		}
	}
	return bestLag
}

func dotAtLag(a []float64, b []float64, lag int, step int) float64 {
	ai, bi := lag, 0
	if lag < 0 {
		ai, bi = 0, -lag
	}
	n := min(len(a)-ai, len(b)-bi)
	var sum float64
	for i := 0; i < n; i += step {
		sum += a[ai+i] * b[bi+i]
	}
	return sum
}

func alignByLag(ref []float64, cand []float64, lag int) ([]float64, []float64) {
	if lag >= 0 {
		if lag >= len(ref) {
			return nil, nil
		}
		return ref[lag:], cand
	}
	if -lag >= len(cand) {
		return nil, nil
	}
	return ref, cand[-lag:]
}

// spectralRMSEDB compares the Hann-windowed log spectra of the first
// 4096 samples of a and b.
func spectralRMSEDB(a []float64, b []float64) float64 {
	n := min(len(a), len(b), 4096)
	if n < 512 {
		return 0
	}
	size := 1
	for size < n {
		size <<= 1
	}
	w := window.Generate(window.TypeHann, n)
	magA, err := magnitudes(a[:n], w, size)
	if err != nil {
		return 0
	}
	magB, err := magnitudes(b[:n], w, size)
	if err != nil {
		return 0
	}

	var sum float64
	for k := 1; k < len(magA)-1; k++ {
		d := LinToDB(magA[k]) - LinToDB(magB[k])
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(magA)-2))
}

func magnitudes(x, w []float64, size int) ([]float64, error) {
	plan, err := algofft.NewPlanReal64(size)
	if err != nil {
		return nil, err
	}
	buf := make([]float64, size)
	for i, v := range x {
		buf[i] = v * w[i]
	}
	spec := make([]complex128, size/2+1)
	plan.Forward(spec, buf)
	mags := make([]float64, len(spec))
	for k, c := range spec {
		mags[k] = math.Hypot(real(c), imag(c))
	}
	return mags, nil
}

func clamp01(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func finiteOrZero(v float64) float64 {
	if isFinite(v) {
		return v
	}
	return 0
}
