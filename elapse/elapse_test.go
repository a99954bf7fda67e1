package elapse

import (
	"testing"
	"time"

	"loopian/lpnlib"
)

// fakeSink records every call it receives, in order, for assertion.
type fakeSink struct {
	calls []string
}

func (f *fakeSink) NoteOn(channel, note, velocity uint8) error {
	f.calls = append(f.calls, "on")
	return nil
}
func (f *fakeSink) NoteOff(channel, note uint8) error {
	f.calls = append(f.calls, "off")
	return nil
}
func (f *fakeSink) ControlChange(channel, controller, value uint8) error {
	f.calls = append(f.calls, "cc")
	return nil
}
func (f *fakeSink) PolyAftertouch(channel, note, pressure uint8) error {
	f.calls = append(f.calls, "pat")
	return nil
}
func (f *fakeSink) AllSoundOff(channel uint8) error {
	f.calls = append(f.calls, "allsoundoff")
	return nil
}

func newTestStack() (*Stack, *fakeSink) {
	sink := &fakeSink{}
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return NewStack(now, sink, nil), sink
}

// TestVoiceSuppressionSkipsRedundantNoteOff covers spec §5's per-pitch
// voice counter: two overlapping Notes on the same (channel,pitch) each
// emit a wire NoteOn, and the wire NoteOff must wait for the last
// overlapping voice to release.
func TestVoiceSuppressionSkipsRedundantNoteOff(t *testing.T) {
	stk, sink := newTestStack()
	if err := stk.NoteOnVoice(0, 60, 100); err != nil {
		t.Fatalf("NoteOnVoice: %v", err)
	}
	if err := stk.NoteOnVoice(0, 60, 100); err != nil {
		t.Fatalf("NoteOnVoice: %v", err)
	}
	if err := stk.NoteOffVoice(0, 60); err != nil {
		t.Fatalf("NoteOffVoice: %v", err)
	}
	if got := countCalls(sink, "off"); got != 0 {
		t.Fatalf("expected suppressed NoteOff, got %d wire NoteOffs", got)
	}
	if err := stk.NoteOffVoice(0, 60); err != nil {
		t.Fatalf("NoteOffVoice: %v", err)
	}
	if got := countCalls(sink, "off"); got != 1 {
		t.Fatalf("expected exactly one wire NoteOff after last release, got %d", got)
	}
	if got := countCalls(sink, "on"); got != 2 {
		t.Fatalf("NoteOn must never be suppressed, got %d", got)
	}
}

func countCalls(s *fakeSink, kind string) int {
	n := 0
	for _, c := range s.calls {
		if c == kind {
			n++
		}
	}
	return n
}

// schedProbe is a minimal Elapse whose Next()/Process() are driven purely by
// test-controlled fields, used to assert scheduler ordering.
type schedProbe struct {
	Base
	prio      int
	msr, tick int32
	fired     *[]string
	label     string
	destroyed bool
}

func (p *schedProbe) Prio() int                        { return p.prio }
func (p *schedProbe) Next() (int32, int32, bool)       { return p.msr, p.tick, false }
func (p *schedProbe) Start(startMsr int32)             {}
func (p *schedProbe) Stop(stk *Stack)                  { p.destroyed = true }
func (p *schedProbe) Clear(stk *Stack)                 { p.destroyed = true }
func (p *schedProbe) Process(crnt lpnlib.CrntMsrTick, stk *Stack) {
	*p.fired = append(*p.fired, p.label)
	p.MarkDestroy()
}

// TestPickPlayableOrdersByPriorityThenInsertion verifies the stable
// (priority, insertion-order) tie-break of spec §4.4/§4.9.
func TestPickPlayableOrdersByPriorityThenInsertion(t *testing.T) {
	stk, _ := newTestStack()
	var fired []string
	stk.AddElapse(&schedProbe{Base: NewBase(lpnlib.ElapseID{}), prio: lpnlib.PriNote, fired: &fired, label: "note-first-inserted"})
	stk.AddElapse(&schedProbe{Base: NewBase(lpnlib.ElapseID{}), prio: lpnlib.PriPart, fired: &fired, label: "part"})
	stk.AddElapse(&schedProbe{Base: NewBase(lpnlib.ElapseID{}), prio: lpnlib.PriNote, fired: &fired, label: "note-second-inserted"})

	crnt := lpnlib.CrntMsrTick{Msr: 0, Tick: 0}
	playable := stk.pickPlayable(crnt)
	if len(playable) != 3 {
		t.Fatalf("expected 3 playable objects, got %d", len(playable))
	}
	for _, e := range playable {
		e.Process(crnt, stk)
	}
	want := []string{"part", "note-first-inserted", "note-second-inserted"}
	for i, w := range want {
		if fired[i] != w {
			t.Fatalf("fire order[%d] = %q, want %q (full: %v)", i, fired[i], w, fired)
		}
	}
}

// TestSchedulerOverrunGuard confirms Periodic bails out with
// SchedulerOverrunError instead of looping forever when objects keep
// spawning new due work (spec §7 SchedulerOverrun).
func TestSchedulerOverrunGuard(t *testing.T) {
	stk, _ := newTestStack()
	stk.AddElapse(&selfSpawner{Base: NewBase(lpnlib.ElapseID{})})
	_, err := stk.Periodic(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	if err == nil {
		t.Fatal("expected SchedulerOverrunError, got nil")
	}
	if _, ok := err.(*lpnlib.SchedulerOverrunError); !ok {
		t.Fatalf("expected *lpnlib.SchedulerOverrunError, got %T", err)
	}
}

// selfSpawner is an Elapse that is always due and, each time it's
// processed, hands over to a fresh copy of itself — modeling a runaway
// spawn chain.
type selfSpawner struct {
	Base
}

func (s *selfSpawner) Prio() int                  { return lpnlib.PriNote }
func (s *selfSpawner) Next() (int32, int32, bool) { return 0, 0, false }
func (s *selfSpawner) Start(startMsr int32)       {}
func (s *selfSpawner) Stop(stk *Stack)            {}
func (s *selfSpawner) Clear(stk *Stack)           {}
func (s *selfSpawner) Process(crnt lpnlib.CrntMsrTick, stk *Stack) {
	stk.AddElapse(&selfSpawner{Base: NewBase(lpnlib.ElapseID{})})
	s.MarkDestroy()
}

// TestNoteFiresOnThenOff checks Note's two-phase self-scheduling.
func TestNoteFiresOnThenOff(t *testing.T) {
	stk, sink := newTestStack()
	n := NewNote(lpnlib.ElapseID{Type: lpnlib.TypeNote}, 0, 0, 0, 60, 100, 240, lpnlib.TickForOneMeasure)
	stk.AddElapse(n)

	crnt := lpnlib.CrntMsrTick{Msr: 0, Tick: 0}
	for _, e := range stk.pickPlayable(crnt) {
		e.Process(crnt, stk)
	}
	if countCalls(sink, "on") != 1 {
		t.Fatalf("expected one NoteOn, got %d", countCalls(sink, "on"))
	}
	if n.DestroyMe() {
		t.Fatal("note should not be destroyed after NoteOn")
	}

	crnt2 := lpnlib.CrntMsrTick{Msr: 0, Tick: 240}
	for _, e := range stk.pickPlayable(crnt2) {
		e.Process(crnt2, stk)
	}
	if countCalls(sink, "off") != 1 {
		t.Fatalf("expected one NoteOff, got %d", countCalls(sink, "off"))
	}
	if !n.DestroyMe() {
		t.Fatal("note should be destroyed after NoteOff")
	}
}
