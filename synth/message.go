package synth

import (
	"errors"
	"fmt"

	"gitlab.com/gomidi/midi/v2"
)

// ErrUnsupportedMessage is returned by HandleMessage for messages the
// engine does not interpret, such as SysEx or clock messages.
var ErrUnsupportedMessage = errors.New("synth: unsupported midi message")

// HandleMessage decodes a channel message and schedules it at the logical
// time at (seconds). Times at or before the current time take effect at the
// start of the next rendered block.
func (s *Synth) HandleMessage(msg midi.Message, at float64) error {
	e, err := decodeMessage(msg)
	if err != nil {
		return err
	}
	e.Time = at
	s.Schedule(e)
	return nil
}

func decodeMessage(msg midi.Message) (Event, error) {
	var channel, key, velocity, value uint8
	var rel int16
	var abs uint16

	switch {
	case msg.GetNoteOn(&channel, &key, &velocity):
		return Event{Kind: EventNoteOn, Channel: int(channel), Data1: int(key), Data2: int(velocity)}, nil
	case msg.GetNoteOff(&channel, &key, &velocity):
		return Event{Kind: EventNoteOff, Channel: int(channel), Data1: int(key), Data2: int(velocity)}, nil
	case msg.GetControlChange(&channel, &key, &value):
		return Event{Kind: EventControllerChange, Channel: int(channel), Data1: int(key), Data2: int(value)}, nil
	case msg.GetProgramChange(&channel, &value):
		return Event{Kind: EventProgramChange, Channel: int(channel), Data1: int(value)}, nil
	case msg.GetPitchBend(&channel, &rel, &abs):
		return Event{Kind: EventPitchWheel, Channel: int(channel), Data1: int(abs)}, nil
	case msg.GetAfterTouch(&channel, &value):
		return Event{Kind: EventChannelPressure, Channel: int(channel), Data1: int(value)}, nil
	case msg.GetPolyAfterTouch(&channel, &key, &value):
		return Event{Kind: EventPolyPressure, Channel: int(channel), Data1: int(key), Data2: int(value)}, nil
	}
	return Event{}, fmt.Errorf("%w: %s", ErrUnsupportedMessage, msg)
}
