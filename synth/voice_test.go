package synth

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-wavetable/soundfont"
)

func rampData(n int) []float32 {
	data := make([]float32, n)
	for i := range data {
		data[i] = float32(i)
	}
	return data
}

func TestOscillatorLoopWrapsAtLoopEnd(t *testing.T) {
	o := oscillator{
		data:         rampData(100),
		playbackStep: 1,
		cursor:       18,
		loopStart:    10,
		loopEnd:      20,
		end:          99,
		loopingMode:  loopModeContinuous,
		isLooping:    true,
	}
	buf := make([]float32, 4)
	if o.render(buf, 1, InterpolationLinear, false) {
		t.Fatalf("looping oscillator reported finished")
	}
	want := []float32{18, 19, 10, 11}
	for i := range want {
		if buf[i] != want[i] {
			t.Fatalf("sample %d: got=%f want=%f", i, buf[i], want[i])
		}
	}
}

func TestOscillatorHermiteWrapsNeighbours(t *testing.T) {
	o := oscillator{
		data:         rampData(100),
		playbackStep: 1,
		cursor:       18.5,
		loopStart:    10,
		loopEnd:      20,
		end:          99,
		loopingMode:  loopModeContinuous,
		isLooping:    true,
	}
	buf := make([]float32, 1)
	o.render(buf, 1, InterpolationHermite, false)
	if !isFinite(buf[0]) {
		t.Fatalf("non-finite hermite output")
	}
	// the wrapped neighbours 10 and 11 pull the spline well below 19
	if buf[0] >= 19 {
		t.Fatalf("hermite output ignores the wrapped neighbours: %f", buf[0])
	}
}

func TestOscillatorFinishesAtEnd(t *testing.T) {
	o := oscillator{data: rampData(10), playbackStep: 1, end: 9}
	buf := make([]float32, 16)
	if !o.render(buf, 1, InterpolationLinear, false) {
		t.Fatalf("expected non-looping oscillator to finish")
	}
	for i := 0; i < 8; i++ {
		if buf[i] != float32(i) {
			t.Fatalf("sample %d: got=%f want=%d", i, buf[i], i)
		}
	}
}

func TestOscillatorNearestReadsNextPoint(t *testing.T) {
	o := oscillator{data: rampData(10), playbackStep: 0.5, end: 9}
	buf := make([]float32, 2)
	o.render(buf, 1, InterpolationNearest, false)
	if buf[0] != 1 || buf[1] != 1 {
		t.Fatalf("nearest mismatch: %v", buf)
	}
}

func TestOscillatorStartOnReleaseIsSilentUntilRelease(t *testing.T) {
	o := oscillator{
		data:         rampData(100),
		playbackStep: 1,
		loopStart:    10,
		loopEnd:      20,
		end:          99,
		loopingMode:  loopModeStartRelease,
	}
	buf := make([]float32, 8)
	if o.render(buf, 1, InterpolationLinear, false) {
		t.Fatalf("unexpected finish before release")
	}
	if o.cursor != 0 {
		t.Fatalf("cursor moved before release: %f", o.cursor)
	}
	for _, x := range buf {
		if x != 0 {
			t.Fatalf("expected silence before release, got %v", buf)
		}
	}
	o.render(buf, 1, InterpolationLinear, true)
	if buf[7] != 7 {
		t.Fatalf("expected playback after release, got %v", buf)
	}
}

func TestVoiceLoopUntilReleasePlaysTailAfterRelease(t *testing.T) {
	gens := defaultGenerators()
	osc := oscillator{
		data:         rampData(100),
		playbackStep: 1,
		cursor:       15,
		loopStart:    10,
		loopEnd:      20,
		end:          99,
		loopingMode:  loopModeUntilRelease,
		isLooping:    true,
	}
	v := newVoice(testRate, osc, &gens, nil, nil)
	v.startRelease()
	if v.osc.isLooping {
		t.Fatalf("loop should end on release")
	}
	buf := make([]float32, 10)
	v.osc.render(buf, 1, InterpolationLinear, true)
	if buf[9] != 24 {
		t.Fatalf("expected playback past the loop end, got %v", buf)
	}
}

func TestPanLawIsEqualPower(t *testing.T) {
	for pan := minPan; pan <= maxPan; pan++ {
		l, r := panGains(float64(pan))
		if math.Abs(l*l+r*r-1) > 1e-9 {
			t.Fatalf("pan %d: l²+r²=%f", pan, l*l+r*r)
		}
	}
	if l, r := panGains(-500); l != 1 || r > 1e-12 {
		t.Fatalf("hard left mismatch: l=%f r=%f", l, r)
	}
	if l, r := panGains(500); l > 1e-12 || r != 1 {
		t.Fatalf("hard right mismatch: l=%f r=%f", l, r)
	}
	if l, r := panGains(2000); l > 1e-12 || r != 1 {
		t.Fatalf("out-of-range pan not clamped: l=%f r=%f", l, r)
	}
}

func TestLowpassBypassLeavesBufferUnchanged(t *testing.T) {
	cache := NewFilterCoefficientCache(testRate)
	f := newLowpassFilter(cache)
	buf := make([]float32, 512)
	for i := range buf {
		buf[i] = float32(math.Sin(float64(i) * 0.3))
	}
	orig := append([]float32(nil), buf...)
	for block := 0; block < 4; block++ {
		f.apply(buf, filterOpenCents, 0, 0, 0.1)
	}
	for i := range buf {
		if math.Float32bits(buf[i]) != math.Float32bits(orig[i]) {
			t.Fatalf("sample %d modified by open filter: %f != %f", i, buf[i], orig[i])
		}
	}
}

func TestLowpassAttenuatesAboveCutoff(t *testing.T) {
	cache := NewFilterCoefficientCache(testRate)
	f := newLowpassFilter(cache)
	buf := make([]float32, 512)
	for i := range buf {
		buf[i] = float32(math.Sin(float64(i) * 2.5))
	}
	before := windowRMS32(buf)
	f.apply(buf, 6000, 0, 0, 0.1)
	if after := windowRMS32(buf); after > before*0.1 {
		t.Fatalf("expected strong attenuation of a high tone: before=%f after=%f", before, after)
	}
}

func windowRMS32(buf []float32) float64 {
	x := make([]float64, len(buf))
	for i, v := range buf {
		x[i] = float64(v)
	}
	return windowRMS(x)
}

func TestFilterCacheIsPrecomputedAndGrows(t *testing.T) {
	cache := NewFilterCoefficientCache(testRate)
	if got, want := cache.Len(), filterOpenCents-filterMinCents; got != want {
		t.Fatalf("precomputed entries mismatch: got=%d want=%d", got, want)
	}
	a := cache.Coefficients(6000, 100)
	if cache.Len() != filterOpenCents-filterMinCents+1 {
		t.Fatalf("resonant entry was not cached")
	}
	b := cache.Coefficients(6000, 100)
	if a != b || cache.Len() != filterOpenCents-filterMinCents+1 {
		t.Fatalf("cache hit changed the table")
	}
	// cutoff is limited below Nyquist
	hi := cache.Coefficients(15000, 0)
	if math.IsNaN(hi.B0) || math.IsNaN(hi.A1) {
		t.Fatalf("non-finite coefficients above the cutoff ceiling: %+v", hi)
	}
}

func TestFilterCachesAreIndependentPerEngine(t *testing.T) {
	a := New(testRate, nil, dryParams())
	b := New(48000, nil, dryParams())
	if a.FilterCache() == b.FilterCache() {
		t.Fatalf("engines share a filter cache")
	}
	if a.FilterCache().Coefficients(8000, 0) == b.FilterCache().Coefficients(8000, 0) {
		t.Fatalf("coefficients should depend on the engine sample rate")
	}
}

func TestVoicePriorityAppliesDoubleReleasePenalty(t *testing.T) {
	ch := &Channel{}
	held := newTestVoice(100, envSustain, 0, false)
	released := newTestVoice(100, envSustain, 0, true)
	if d := voicePriority(ch, held) - voicePriority(ch, released); d != 10 {
		t.Fatalf("release penalty mismatch: got=%f want=10", d)
	}
	ch.drum = true
	if d := voicePriority(ch, held) - voicePriority(&Channel{}, held); d != 5 {
		t.Fatalf("drum bonus mismatch: got=%f want=5", d)
	}
}

func TestKillVoicesRemovesLowestPriority(t *testing.T) {
	s := New(testRate, nil, dryParams())
	quiet := newTestVoice(20, envSustain, 40, false)
	loud := newTestVoice(127, envAttack, 0, false)
	releasing := newTestVoice(127, envSustain, 0, true)
	drum := newTestVoice(60, envDecay, 0, false)
	s.channels[0].voices = []*Voice{quiet, loud, releasing}
	s.channels[DrumChannel].voices = []*Voice{drum}

	if n := s.killVoices(2); n != 2 {
		t.Fatalf("removed %d voices, want 2", n)
	}
	if s.VoiceCount() != 2 {
		t.Fatalf("voice count mismatch: %d", s.VoiceCount())
	}
	left := s.channels[0].voices
	if len(left) != 1 || left[0] != loud {
		t.Fatalf("expected only the loud voice to survive on channel 0")
	}
	if len(s.channels[DrumChannel].voices) != 1 {
		t.Fatalf("drum voice should survive")
	}
}

func TestKillVoicesRemovesAllWhenAmountExceedsTotal(t *testing.T) {
	s := New(testRate, nil, dryParams())
	s.channels[0].voices = []*Voice{newTestVoice(100, envSustain, 0, false)}
	s.channels[1].voices = []*Voice{newTestVoice(100, envSustain, 0, false)}
	if n := s.killVoices(5); n != 2 {
		t.Fatalf("removed %d voices, want 2", n)
	}
	if s.VoiceCount() != 0 {
		t.Fatalf("voices left: %d", s.VoiceCount())
	}
}

func TestPortamentoLookupInterpolates(t *testing.T) {
	cases := []struct {
		value, distance int
		want            float64
	}{
		{0, 12, 0},
		{64, 30, 2.06},
		{72, 30, 3.13},
		{64, 15, 1.03},
		{127, 30, 480},
		{200, 30, 480},
	}
	for _, tc := range cases {
		got := portamentoTimeToSeconds(tc.value, tc.distance)
		if math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("portamento(%d, %d): got=%f want=%f", tc.value, tc.distance, got, tc.want)
		}
	}
}

func TestApplySampleOffsetsSwapsAndDisablesLoop(t *testing.T) {
	gens := defaultGenerators()
	gens[soundfont.StartloopAddrsOffset] = 50
	gens[soundfont.EndloopAddrsOffset] = -20
	osc := oscillator{data: rampData(100), loopStart: 10, loopEnd: 60, end: 99, loopingMode: loopModeContinuous, isLooping: true}
	v := newVoice(testRate, osc, &gens, nil, nil)
	v.applySampleOffsets()
	if v.osc.loopStart != 40 || v.osc.loopEnd != 60 {
		t.Fatalf("loop not swapped: start=%d end=%d", v.osc.loopStart, v.osc.loopEnd)
	}

	gens = defaultGenerators()
	gens[soundfont.EndloopAddrsOffset] = -50
	v = newVoice(testRate, osc, &gens, nil, nil)
	v.applySampleOffsets()
	if v.osc.isLooping || v.osc.loopingMode != loopModeNone {
		t.Fatalf("zero-length loop should disable looping")
	}

	gens = defaultGenerators()
	gens[soundfont.StartAddrsCoarseOffset] = 1
	v = newVoice(testRate, osc, &gens, nil, nil)
	v.applySampleOffsets()
	if v.osc.cursor != 99 {
		t.Fatalf("start offset not clamped to data: %f", v.osc.cursor)
	}
}

func TestEventQueueOrdersByTimeThenInsertion(t *testing.T) {
	var q eventQueue
	q.push(Event{Time: 0.2, Data1: 1})
	q.push(Event{Time: 0.1, Data1: 2})
	q.push(Event{Time: 0.1, Data1: 3})
	q.push(Event{Time: 0.3, Data1: 4})

	due := q.due(0.15, nil)
	if len(due) != 2 || due[0].Data1 != 2 || due[1].Data1 != 3 {
		t.Fatalf("due events mismatch: %+v", due)
	}
	if q.len() != 2 {
		t.Fatalf("pending events mismatch: %d", q.len())
	}
	due = q.due(1, due[:0])
	if len(due) != 2 || due[0].Data1 != 1 || due[1].Data1 != 4 {
		t.Fatalf("remaining events mismatch: %+v", due)
	}
}
