package synth

import "sort"

// EventKind identifies a channel event.
type EventKind int

const (
	EventNoteOn EventKind = iota
	EventNoteOff
	EventControllerChange
	EventProgramChange
	EventPitchWheel
	EventChannelPressure
	EventPolyPressure
	EventStopAll
)

var eventKindNames = [...]string{
	EventNoteOn:           "note-on",
	EventNoteOff:          "note-off",
	EventControllerChange: "controller-change",
	EventProgramChange:    "program-change",
	EventPitchWheel:       "pitch-wheel",
	EventChannelPressure:  "channel-pressure",
	EventPolyPressure:     "poly-pressure",
	EventStopAll:          "stop-all",
}

func (k EventKind) String() string {
	if k < 0 || int(k) >= len(eventKindNames) {
		return "unknown"
	}
	return eventKindNames[k]
}

// Event is a channel event at a logical time in seconds. Data1 and Data2
// carry the MIDI data bytes; pitch wheel events hold the 14-bit value in
// Data1. A stop-all event with Data1 != 0 drops voices without release.
type Event struct {
	Time    float64
	Kind    EventKind
	Channel int
	Data1   int
	Data2   int
}

// eventQueue keeps pending events ordered by time; events with equal times
// keep their insertion order.
type eventQueue struct {
	events []Event
}

func (q *eventQueue) push(e Event) {
	i := sort.Search(len(q.events), func(i int) bool {
		return q.events[i].Time > e.Time
	})
	q.events = append(q.events, Event{})
	copy(q.events[i+1:], q.events[i:])
	q.events[i] = e
}

// due removes and returns the events with Time <= now.
func (q *eventQueue) due(now float64, dst []Event) []Event {
	n := 0
	for n < len(q.events) && q.events[n].Time <= now {
		n++
	}
	dst = append(dst, q.events[:n]...)
	q.events = append(q.events[:0], q.events[n:]...)
	return dst
}

func (q *eventQueue) len() int { return len(q.events) }

func (q *eventQueue) clear() { q.events = q.events[:0] }
