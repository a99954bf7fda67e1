package lpnlib

import "fmt"

// The five error kinds of spec §7. None of them wraps an underlying cause;
// each carries enough context for the CLI collaborator (out of scope here)
// to render spec's mandated user-facing text.

// ParseError is a compiler-side failure: unrecognised token, bracket
// mismatch, or a number that failed to parse. Surfaced as "what?" or
// "Number is wrong." by the CLI; core state is left untouched.
type ParseError struct {
	Source string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error in %q: %s", e.Source, e.Reason)
}

// RangeError covers a note outside 21-108, a measure below 1, or a bpm <= 0.
type RangeError struct {
	What  string
	Value int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("range error: %s=%d is out of range", e.What, e.Value)
}

// SchedulerOverrunError is fatal (spec §7): more than MaxPickIterations
// dispatch iterations occurred within a single tick, indicating runaway
// event generation (an elapse object perpetually re-queuing itself).
type SchedulerOverrunError struct {
	Iterations int
}

func (e *SchedulerOverrunError) Error() string {
	return fmt.Sprintf("scheduler overrun: %d dispatch iterations without settling", e.Iterations)
}

// MIDIChannelError is logged and dropped; the scheduler continues.
type MIDIChannelError struct {
	Channel int
	Reason  string
}

func (e *MIDIChannelError) Error() string {
	return fmt.Sprintf("midi channel error on channel %d: %s", e.Channel, e.Reason)
}

// ChannelDisconnectError signals that an inter-thread channel closed;
// the owning goroutine terminates cleanly on receiving it.
type ChannelDisconnectError struct {
	Channel string
}

func (e *ChannelDisconnectError) Error() string {
	return fmt.Sprintf("channel disconnected: %s", e.Channel)
}
