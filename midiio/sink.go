// Package midiio owns real-time MIDI output and Standard MIDI File export.
//
// Grounded on the teacher's midi/generator.go (SMF track construction:
// smf.New, MetricTicks(480), sorted-then-delta event emission) and
// player/realtime.go (device lifecycle pattern, here adapted from a
// FluidSynth subprocess pipe to a channel-addressed Sink).
//
// midiio deliberately never imports
// gitlab.com/gomidi/midi/v2/drivers/rtmididrv: its exact import path and
// availability could not be confirmed anywhere in the retrieved example
// pack, and spec's own Non-goals exclude concrete device discovery. Sink is
// the seam a real driver plugs into; the concrete Writer implementation
// below needs only the certain core gitlab.com/gomidi/midi/v2 package.
package midiio

import (
	"io"
	"sync"

	"gitlab.com/gomidi/midi/v2"
)

// Sink is anything that can receive outbound MIDI, real-time or to a file
// (spec §6 "MIDI out"). Channel is 0-indexed (ch1=0 .. ch16=15), matching
// gitlab.com/gomidi/midi/v2's convention.
type Sink interface {
	NoteOn(channel, note, velocity uint8) error
	NoteOff(channel, note uint8) error
	ControlChange(channel, controller, value uint8) error
	PolyAftertouch(channel, note, pressure uint8) error
	AllSoundOff(channel uint8) error
}

// WriterSink wire-encodes every call straight onto an io.Writer using
// gitlab.com/gomidi/midi/v2's message builders (smf.New/MetricTicks are the
// file-export path — see smf.go — this is the live path). Safe for
// concurrent use: T-CORE is the only writer per spec §5, but a guard costs
// nothing and protects against an accidental second caller.
type WriterSink struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

func (s *WriterSink) write(msg midi.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.w.Write(msg.Bytes())
	return err
}

func (s *WriterSink) NoteOn(channel, note, velocity uint8) error {
	return s.write(midi.NoteOn(channel, note, velocity))
}

func (s *WriterSink) NoteOff(channel, note uint8) error {
	return s.write(midi.NoteOff(channel, note))
}

func (s *WriterSink) ControlChange(channel, controller, value uint8) error {
	return s.write(midi.ControlChange(channel, controller, value))
}

func (s *WriterSink) PolyAftertouch(channel, note, pressure uint8) error {
	return s.write(midi.PolyAftertouch(channel, note, pressure))
}

// AllSoundOff emits CC 120 (spec §5 "stop marks all elapse objects
// destroyed and emits an All-Sound-Off").
func (s *WriterSink) AllSoundOff(channel uint8) error {
	return s.ControlChange(channel, 120, 0)
}

// DamperCC emits the raw CC64 value for a PedalPos (spec §4.8 "the
// scheduler emits raw CC64 values (0/64/127)").
func DamperCC(channel uint8, raw uint8, sink Sink) error {
	return sink.ControlChange(channel, 64, raw)
}
