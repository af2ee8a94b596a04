package synth

import "github.com/cwbudde/algo-wavetable/soundfont"

// MIDI controller numbers the engine interprets.
const (
	CCBankSelect        = 0
	CCModulationWheel   = 1
	CCPortamentoTime    = 5
	CCDataEntryMSB      = 6
	CCMainVolume        = 7
	CCBalance           = 8
	CCPan               = 10
	CCExpression        = 11
	CCBankSelectLSB     = 32
	CCModulationLSB     = 33
	CCDataEntryLSB      = 38
	CCEffectControl2LSB = 45
	CCSustainPedal      = 64
	CCPortamentoOnOff   = 65
	CCFilterResonance   = 71
	CCReleaseTime       = 72
	CCAttackTime        = 73
	CCBrightness        = 74
	CCDecayTime         = 75
	CCVibratoRate       = 76
	CCVibratoDepth      = 77
	CCVibratoDelay      = 78
	CCGeneralPurpose6   = 81
	CCGeneralPurpose8   = 83
	CCPortamentoControl = 84
	CCReverbDepth       = 91
	CCTremoloDepth      = 92
	CCChorusDepth       = 93
	CCNRPNLSB           = 98
	CCNRPNMSB           = 99
	CCRPNLSB            = 100
	CCRPNMSB            = 101
	CCAllSoundOff       = 120
	CCResetAll          = 121
	CCAllNotesOff       = 123
	CCOmniOff           = 124
	CCPolyOn            = 127
)

// Controller table layout: 128 CC slots followed by the non-CC modulator
// sources (pitch wheel, pressure, ...), all stored as 14-bit values.
const (
	nonCCIndexOffset    = 128
	controllerTableSize = nonCCIndexOffset + 19

	// portamentoControlUnset marks "no previous key" in the 7-bit portamento
	// control slot; real values are multiples of 128.
	portamentoControlUnset = 1
)

type controllerTable [controllerTableSize]int32

var controllerResetValues controllerTable

func init() {
	set := func(i, v int) { controllerResetValues[i] = int32(v << 7) }
	set(CCMainVolume, 100)
	set(CCBalance, 64)
	set(CCExpression, 127)
	set(CCPan, 64)
	set(CCPortamentoOnOff, 127)
	set(CCFilterResonance, 64)
	set(CCReleaseTime, 64)
	set(CCAttackTime, 64)
	set(CCBrightness, 64)
	set(CCDecayTime, 64)
	set(CCVibratoRate, 64)
	set(CCVibratoDepth, 64)
	set(CCVibratoDelay, 64)
	set(CCGeneralPurpose6, 64)
	set(CCGeneralPurpose8, 64)
	set(CCRPNLSB, 127)
	set(CCRPNMSB, 127)
	set(CCNRPNLSB, 127)
	set(CCNRPNMSB, 127)
	controllerResetValues[CCPortamentoControl] = portamentoControlUnset
	set(nonCCIndexOffset+soundfont.SourcePitchWheel, 64)
	set(nonCCIndexOffset+soundfont.SourcePitchWheelRange, 2)
}

// Per-channel values that are not MIDI controllers but feed the renderer.
const (
	customChannelTuning        = iota // cents, RPN fine tuning
	customTransposeFine               // cents, fractional part of a transpose
	customModulationMultiplier        // vibrato depth scale, RPN modulation depth
	customMasterTuning                // cents
	customTuningSemitones             // semitones, RPN coarse tuning
	customControllerCount
)

var customResetValues = [customControllerCount]float64{
	customModulationMultiplier: 1,
}

// Data entry state after RPN/NRPN selection.
const (
	dataEntryIdle = iota
	dataEntryRPCoarse
	dataEntryRPFine
	dataEntryNRPCoarse
	dataEntryNRPFine
)

// Registered parameter numbers handled by data entry.
const (
	rpnPitchBendRange  = 0x0000
	rpnFineTuning      = 0x0001
	rpnCoarseTuning    = 0x0002
	rpnModulationDepth = 0x0005
	rpnReset           = 0x3FFF
)

// GS NRPN numbers (MSB 0x01 part parameters).
const (
	nrpnPartParameter = 0x01
	nrpnVibratoRate   = 0x08
	nrpnVibratoDepth  = 0x09
	nrpnVibratoDelay  = 0x0A
	nrpnFilterCutoff  = 0x20
	nrpnAttackTime    = 0x63
	nrpnReleaseTime   = 0x66
)
