package compiler

import (
	"testing"

	"loopian/lpnlib"
)

// Scenario S1 (spec §8): "[d,r,m,f]" with no auftakt resolves to four
// quarter notes at ticks 0,480,960,1440 with pitches 60,62,64,65.
func TestCompilePhraseScenarioS1(t *testing.T) {
	data, err := CompilePhrase("[d,r,m,f]", 1920, 480, 60, lpnlib.InputCloser, 120)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	notes := collectNotes(t, data.Evts)
	wantTicks := []int16{0, 480, 960, 1440}
	wantNotes := []uint8{60, 62, 64, 65}
	if len(notes) != len(wantTicks) {
		t.Fatalf("expected %d notes, got %d (%v)", len(wantTicks), len(notes), notes)
	}
	for i, n := range notes {
		if n.Tick != wantTicks[i] {
			t.Errorf("note %d: tick = %d, want %d", i, n.Tick, wantTicks[i])
		}
		if n.Note != wantNotes[i] {
			t.Errorf("note %d: pitch = %d, want %d", i, n.Note, wantNotes[i])
		}
	}
}

// Scenario S2: an ":A3" auftakt attribute prepends (3-1) beats of rest
// before the same four notes.
func TestCompilePhraseScenarioS2Auftakt(t *testing.T) {
	data, err := CompilePhrase("[d,r,m,f]:A3", 1920, 480, 60, lpnlib.InputCloser, 120)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if data.Auftakt != 3 {
		t.Fatalf("expected Auftakt=3, got %d", data.Auftakt)
	}
	notes := collectNotes(t, data.Evts)
	wantTicks := []int16{960, 1440, 1920, 2400}
	for i, n := range notes {
		if n.Tick != wantTicks[i] {
			t.Errorf("note %d: tick = %d, want %d", i, n.Tick, wantTicks[i])
		}
	}
}

func TestCompilePhraseRestFilling(t *testing.T) {
	data, err := CompilePhrase("[d,,m]", 1920, 480, 60, lpnlib.InputCloser, 120)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	notes := collectNotes(t, data.Evts)
	if len(notes) != 2 {
		t.Fatalf("expected 2 notes around the rest, got %d", len(notes))
	}
	if notes[1].Tick != 960 {
		t.Fatalf("expected the rest to push the second note to tick 960, got %d", notes[1].Tick)
	}
}

func TestCompilePhraseChordGroup(t *testing.T) {
	data, err := CompilePhrase("[(d,m,s)q]", 1920, 480, 60, lpnlib.InputCloser, 120)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(data.Evts) != 1 {
		t.Fatalf("expected a single NoteListEvt, got %d events", len(data.Evts))
	}
	nl, ok := data.Evts[0].(lpnlib.NoteListEvt)
	if !ok {
		t.Fatalf("expected NoteListEvt, got %T", data.Evts[0])
	}
	if len(nl.Notes) != 3 {
		t.Fatalf("expected 3 chord notes, got %d", len(nl.Notes))
	}
}

func TestCompilePhraseTerminalDoubleSlashStopsLoop(t *testing.T) {
	data, err := CompilePhrase("[d,r,m,f//]", 1920, 480, 60, lpnlib.InputCloser, 120)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if data.DoLoop {
		t.Fatalf("expected DoLoop=false after a terminal //")
	}
}

func TestCompilePhraseMissingBracketIsParseError(t *testing.T) {
	_, err := CompilePhrase("d,r,m,f]", 1920, 480, 60, lpnlib.InputCloser, 120)
	if err == nil {
		t.Fatalf("expected a ParseError for a missing opening bracket")
	}
}

func TestCompilePhraseRptExpandsWithInfoMarkers(t *testing.T) {
	data, err := CompilePhrase("[d]:.rpt(2)", 1920, 480, 60, lpnlib.InputCloser, 120)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var rptHeads int
	var notes int
	for _, e := range data.Evts {
		switch e.(type) {
		case lpnlib.InfoEvt:
			rptHeads++
		case lpnlib.NoteEvt:
			notes++
		}
	}
	if rptHeads != 2 {
		t.Fatalf("expected 2 RptHead markers, got %d", rptHeads)
	}
	if notes != 2 {
		t.Fatalf("expected 2 notes (one per repetition), got %d", notes)
	}
}

func TestCompilePhraseClusterTokenEmitsClusterEvt(t *testing.T) {
	data, err := CompilePhrase("[C(d,3,e)h]", 1920, 480, 60, lpnlib.InputCloser, 120)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(data.Evts) != 1 {
		t.Fatalf("expected a single ClusterEvt, got %d events", len(data.Evts))
	}
	c, ok := data.Evts[0].(lpnlib.ClusterEvt)
	if !ok {
		t.Fatalf("expected ClusterEvt, got %T", data.Evts[0])
	}
	if c.MaxVoices != 3 || c.EachDur != 240 || c.Dur != 960 || c.LowestNote != 60 {
		t.Fatalf("got %+v", c)
	}
}

func TestCompilePhraseArpTokenEmitsArpEvt(t *testing.T) {
	data, err := CompilePhrase("[Arp(d,ud)q]", 1920, 480, 60, lpnlib.InputCloser, 120)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(data.Evts) != 1 {
		t.Fatalf("expected a single ArpEvt, got %d events", len(data.Evts))
	}
	a, ok := data.Evts[0].(lpnlib.ArpEvt)
	if !ok {
		t.Fatalf("expected ArpEvt, got %T", data.Evts[0])
	}
	if a.Figure != lpnlib.ArpUpDown || a.Dur != 480 || a.LowestNote != 60 {
		t.Fatalf("got %+v", a)
	}
}

func TestBeatHumanizeBelow60BPMIsNoOp(t *testing.T) {
	data, err := CompilePhrase("[d,r,m,f]", 1920, 480, 60, lpnlib.InputCloser, 59)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, n := range collectNotes(t, data.Evts) {
		if n.Vel != dynamicLevels["mf"] {
			t.Fatalf("expected velocity untouched below bpm 60, got %d", n.Vel)
		}
	}
}

func TestBeatHumanizeBoostsDownbeatAbove60BPM(t *testing.T) {
	data, err := CompilePhrase("[d,r,m,f]", 1920, 480, 60, lpnlib.InputCloser, 140)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	notes := collectNotes(t, data.Evts)
	base := int16(dynamicLevels["mf"])
	want := accentVel4(uint8(base), 0, 140)
	if notes[0].Vel != want {
		t.Fatalf("downbeat velocity = %d, want %d", notes[0].Vel, want)
	}
	if notes[0].Vel <= uint8(base) {
		t.Fatalf("expected downbeat to gain velocity at bpm 140, got %d (base %d)", notes[0].Vel, base)
	}
}

func collectNotes(t *testing.T, evts []lpnlib.PhrEvt) []lpnlib.NoteEvt {
	t.Helper()
	var out []lpnlib.NoteEvt
	for _, e := range evts {
		if n, ok := e.(lpnlib.NoteEvt); ok {
			out = append(out, n)
		}
	}
	return out
}
