package main

import (
	"sort"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

type timedMessage struct {
	at  float64 // seconds
	msg midi.Message
}

// loadSMF reads the playable messages of every track of a standard MIDI
// file with their absolute times, tempo changes applied.
func loadSMF(path string) ([]timedMessage, error) {
	var out []timedMessage
	rd := smf.ReadTracks(path)
	rd.Do(func(ev smf.TrackEvent) {
		if !ev.Message.IsPlayable() {
			return
		}
		out = append(out, timedMessage{
			at:  float64(ev.AbsMicroSeconds) / 1e6,
			msg: midi.Message(ev.Message),
		})
	})
	if err := rd.Error(); err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].at < out[j].at })
	return out, nil
}

func lastEventTime(events []timedMessage) float64 {
	if len(events) == 0 {
		return 0
	}
	return events[len(events)-1].at
}
