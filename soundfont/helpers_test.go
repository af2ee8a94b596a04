package soundfont

func testSample(name string) *Sample {
	data := make([]float32, 256)
	for i := range data {
		data[i] = float32(i%32) / 32
	}
	return &Sample{
		Name:        name,
		Data:        data,
		SampleRate:  44100,
		OriginalKey: 60,
		LoopStart:   64,
		LoopEnd:     192,
	}
}

// panScenarioPreset builds a preset whose instrument has a global zone with
// pan 0 and one local zone panned hard left over keys 0..63.
func panScenarioPreset() *Preset {
	inst := &Instrument{
		Name: "split",
		Zones: []*Zone{
			{Global: true, Generators: Generators{{Type: Pan, Value: 0}}},
			{
				Generators: Generators{{Type: Pan, Value: -500}},
				KeyRange:   &Range{Lo: 0, Hi: 63},
				Sample:     testSample("low"),
			},
		},
	}
	p := NewPreset("split", 0, 0)
	p.Zones = []*Zone{{Instrument: inst}}
	return p
}
