package midiio

import (
	"sort"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"loopian/lpnlib"
)

// timedEvent is an absolute-tick MIDI message awaiting delta-time
// conversion, matching the teacher's midiEvent{tick,message} shape.
type timedEvent struct {
	tick    int64
	message midi.Message
}

// SessionRecorder accumulates NoteOn/NoteOff/ControlChange calls against a
// running tick clock and exports them as a Standard MIDI File — the offline
// counterpart to WriterSink, grounded on midi/generator.go's
// smf.New/MetricTicks(480)/sort-then-delta pattern.
type SessionRecorder struct {
	bpm    int32
	events map[uint8][]timedEvent // keyed by channel
}

func NewSessionRecorder(bpm int32) *SessionRecorder {
	return &SessionRecorder{bpm: bpm, events: map[uint8][]timedEvent{}}
}

func (r *SessionRecorder) NoteOn(tick int64, channel, note, velocity uint8) {
	r.events[channel] = append(r.events[channel], timedEvent{tick, midi.NoteOn(channel, note, velocity)})
}

func (r *SessionRecorder) NoteOff(tick int64, channel, note uint8) {
	r.events[channel] = append(r.events[channel], timedEvent{tick, midi.NoteOff(channel, note)})
}

func (r *SessionRecorder) ControlChange(tick int64, channel, controller, value uint8) {
	r.events[channel] = append(r.events[channel], timedEvent{tick, midi.ControlChange(channel, controller, value)})
}

// Export renders the accumulated events as an *smf.SMF at 480 ticks/quarter
// (lpnlib.TickForQuarter), one MIDI track per channel that saw any events,
// plus a tempo-only track 0.
func (r *SessionRecorder) Export() *smf.SMF {
	s := smf.New()
	s.TimeFormat = smf.MetricTicks(lpnlib.TickForQuarter)

	var tempoTrack smf.Track
	tempoTrack.Add(0, smf.MetaTempo(float64(r.bpm)))
	tempoTrack.Close(0)
	s.Add(tempoTrack)

	channels := make([]uint8, 0, len(r.events))
	for ch := range r.events {
		channels = append(channels, ch)
	}
	sort.Slice(channels, func(i, j int) bool { return channels[i] < channels[j] })

	for _, ch := range channels {
		evts := r.events[ch]
		sort.SliceStable(evts, func(i, j int) bool { return evts[i].tick < evts[j].tick })

		var track smf.Track
		var prevTick int64
		for _, e := range evts {
			delta := e.tick - prevTick
			if delta < 0 {
				delta = 0
			}
			track.Add(uint32(delta), e.message)
			prevTick = e.tick
		}
		track.Close(0)
		s.Add(track)
	}
	return s
}
