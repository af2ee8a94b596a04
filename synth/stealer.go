package synth

import "sort"

type stealCandidate struct {
	ch       *Channel
	voice    *Voice
	priority float64
}

// voicePriority ranks a voice for stealing; lower values go first.
func voicePriority(ch *Channel, v *Voice) float64 {
	var p float64
	if ch.drum {
		p += 5
	}
	if v.isInRelease {
		p -= 5
	}
	p += float64(v.velocity) / 25
	p -= float64(v.volEnv.state)
	// released voices are penalized a second time
	if v.isInRelease {
		p -= 5
	}
	p -= v.volEnv.currentAttenuationDb / 50
	return p
}

// killVoices immediately removes the amount lowest-priority voices across
// all channels. It returns the number removed.
func (s *Synth) killVoices(amount int) int {
	if amount <= 0 {
		return 0
	}
	if amount >= s.VoiceCount() {
		n := 0
		for _, ch := range s.channels {
			n += len(ch.voices)
			ch.voices = ch.voices[:0]
		}
		return n
	}
	var candidates []stealCandidate
	for _, ch := range s.channels {
		for _, v := range ch.voices {
			if !v.finished {
				candidates = append(candidates, stealCandidate{ch: ch, voice: v, priority: voicePriority(ch, v)})
			}
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].priority < candidates[j].priority
	})
	if amount > len(candidates) {
		amount = len(candidates)
	}
	for _, c := range candidates[:amount] {
		c.ch.removeVoice(c.voice)
	}
	return amount
}
