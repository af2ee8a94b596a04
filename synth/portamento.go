package synth

// portamentoTable maps CC5 values to glide times in seconds for an octave
// and a half (30 semitones) of distance, after measurements of GS hardware.
var portamentoTable = []struct {
	value   int
	seconds float64
}{
	{0, 0},
	{1, 0.006},
	{2, 0.023},
	{4, 0.050},
	{8, 0.110},
	{16, 0.250},
	{32, 0.500},
	{64, 2.060},
	{80, 4.200},
	{96, 8.400},
	{112, 19.500},
	{116, 26.700},
	{120, 40.000},
	{124, 80.000},
	{127, 480.000},
}

// portamentoTimeToSeconds returns the glide duration for a 7-bit portamento
// time over distance semitones.
func portamentoTimeToSeconds(time, distance int) float64 {
	return portamentoLookup(time) * float64(distance) / 30
}

func portamentoLookup(value int) float64 {
	if value <= 0 {
		return 0
	}
	for i := 1; i < len(portamentoTable); i++ {
		hi := portamentoTable[i]
		if value > hi.value {
			continue
		}
		lo := portamentoTable[i-1]
		if value == hi.value {
			return hi.seconds
		}
		return lo.seconds + float64(value-lo.value)*(hi.seconds-lo.seconds)/float64(hi.value-lo.value)
	}
	return portamentoTable[len(portamentoTable)-1].seconds
}
