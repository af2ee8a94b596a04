package synth

// KeyModifier overrides how one key of one channel plays. Negative
// Velocity, Bank or Program leave the played value unchanged.
type KeyModifier struct {
	Velocity int
	Bank     int
	Program  int
	Gain     float64 // linear voice gain
}

// NewKeyModifier returns a modifier that changes nothing.
func NewKeyModifier() KeyModifier {
	return KeyModifier{Velocity: -1, Bank: -1, Program: -1, Gain: 1}
}

func (m KeyModifier) hasPatch() bool { return m.Bank >= 0 && m.Program >= 0 }

type keyModifierKey struct {
	channel, key int
}

// SetKeyModifier installs m for key on channel, replacing any previous one.
func (s *Synth) SetKeyModifier(channel, key int, m KeyModifier) {
	if s.Channel(channel) == nil || key < 0 || key > 127 {
		return
	}
	s.keyModifiers[keyModifierKey{channel, key}] = m
}

// DeleteKeyModifier removes the modifier of key on channel.
func (s *Synth) DeleteKeyModifier(channel, key int) {
	delete(s.keyModifiers, keyModifierKey{channel, key})
}

// ClearKeyModifiers removes every key modifier.
func (s *Synth) ClearKeyModifiers() {
	clear(s.keyModifiers)
}

func (s *Synth) keyModifier(channel, key int) (KeyModifier, bool) {
	m, ok := s.keyModifiers[keyModifierKey{channel, key}]
	return m, ok
}
