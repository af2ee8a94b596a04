package synth

// Params holds the engine settings that do not come from the bank.
type Params struct {
	PerChannel map[int]*ChannelParams

	MaxPolyphony  int
	Channels      int
	Interpolation Interpolation
	MasterGain    float64

	EffectsEnabled   bool
	ReverbGain       float64 // reverb send level
	ChorusGain       float64 // chorus send level
	EffectSendReturn float64 // effect return level mixed into the master bus
	ReverbIRWavPath  string
	ReverbSeconds    float64 // length of the generated reverb IR when no file is set
	ChorusDepthMs    float64
	ChorusRateHz     float64

	VoiceCacheEnabled bool
	IgnoreDrumNoteOff bool
	MinNoteLength     float64 // seconds

	// Per-sample smoothing coefficients at 44.1 kHz; rescaled to the
	// engine rate.
	VolumeSmoothing float64
	PanSmoothing    float64
	FilterSmoothing float64
}

// ChannelParams holds initial state for one MIDI channel.
type ChannelParams struct {
	Program    int
	BankSelect int
	Transpose  float64 // semitones
	FineTuning float64 // cents
	Drum       bool
}

// NewDefaultParams creates default parameters.
func NewDefaultParams() *Params {
	return &Params{
		PerChannel:        make(map[int]*ChannelParams),
		MaxPolyphony:      350,
		Channels:          16,
		Interpolation:     InterpolationLinear,
		MasterGain:        1.0,
		EffectsEnabled:    true,
		ReverbGain:        1.0,
		ChorusGain:        1.0,
		EffectSendReturn:  0.5,
		ReverbSeconds:     2.0,
		ChorusDepthMs:     3.0,
		ChorusRateHz:      0.4,
		VoiceCacheEnabled: true,
		IgnoreDrumNoteOff: false,
		MinNoteLength:     MinNoteLength,
		VolumeSmoothing:   0.01,
		PanSmoothing:      0.05,
		FilterSmoothing:   0.1,
	}
}
