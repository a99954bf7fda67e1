package elapse

import (
	"testing"

	"loopian/lpnlib"
)

func chordData(root, table int16) lpnlib.CmpData {
	return lpnlib.CmpData{
		WholeTick: lpnlib.TickForOneMeasure,
		Evts:      []lpnlib.CmpEvt{lpnlib.ChordEvt{Tick: 0, Root: root, Table: table}},
	}
}

// TestDamperPartMergesConsecutiveBeatsIntoOneRun checks that a single chord
// onset at the top of the bar, with no further harmony change, produces one
// DamperNote run spanning the whole bar rather than one per beat (spec
// §4.8's contiguous-run derivation).
func TestDamperPartMergesConsecutiveBeatsIntoOneRun(t *testing.T) {
	stk, _ := newTestStack()
	p := NewPart(lpnlib.ElapseID{Type: lpnlib.TypePart}, 0, 0, lpnlib.TickForOneMeasure, false)
	p.ReceiveComposition(chordData(3, 1), lpnlib.TickForOneMeasure, lpnlib.TickForOneMeasure/4, 4)
	p.cmps.MsrTop()
	stk.AddPart(p)

	dp := NewDamperPart(lpnlib.ElapseID{Type: lpnlib.TypeDamper}, 0)
	crnt := lpnlib.CrntMsrTick{Msr: 0, Tick: 0, TickForOneMsr: lpnlib.TickForOneMeasure, NewMsr: true}
	dp.Process(crnt, stk)

	if len(dp.events) != 1 {
		t.Fatalf("expected 1 merged run, got %d: %v", len(dp.events), dp.events)
	}
	if dp.events[0].startBeat != 0 || dp.events[0].endBeat != 4 {
		t.Fatalf("run = %+v, want startBeat=0 endBeat=4", dp.events[0])
	}
}

// TestDamperPartBlanksOnNoPed confirms a NoPed-flagged active phrase
// suppresses pedal generation for the whole bar regardless of chord
// activity on other parts.
func TestDamperPartBlanksOnNoPed(t *testing.T) {
	stk, _ := newTestStack()
	p := NewPart(lpnlib.ElapseID{Type: lpnlib.TypePart}, 0, 0, lpnlib.TickForOneMeasure, false)
	p.ReceiveComposition(chordData(3, 1), lpnlib.TickForOneMeasure, lpnlib.TickForOneMeasure/4, 4)
	p.cmps.MsrTop()
	p.phrase.active = NewPhraseLoop(lpnlib.ElapseID{Type: lpnlib.TypePhraseLoop}, p, 0, 0, lpnlib.TickForOneMeasure,
		lpnlib.PhrData{WholeTick: lpnlib.TickForOneMeasure, NoPed: true})
	stk.AddPart(p)

	dp := NewDamperPart(lpnlib.ElapseID{Type: lpnlib.TypeDamper}, 0)
	crnt := lpnlib.CrntMsrTick{Msr: 0, Tick: 0, TickForOneMsr: lpnlib.TickForOneMeasure, NewMsr: true}
	dp.Process(crnt, stk)

	if len(dp.events) != 0 {
		t.Fatalf("expected no runs when NoPed is set, got %v", dp.events)
	}
}

// TestDamperNoteEmitsDownThenUp checks the CC64 down/up pairing.
func TestDamperNoteEmitsDownThenUp(t *testing.T) {
	stk, sink := newTestStack()
	n := NewDamperNote(lpnlib.ElapseID{Type: lpnlib.TypeDamper}, 0, 60, 0, 120, lpnlib.TickForOneMeasure)
	stk.AddElapse(n)

	crnt := lpnlib.CrntMsrTick{Msr: 0, Tick: 60}
	for _, e := range stk.pickPlayable(crnt) {
		e.Process(crnt, stk)
	}
	if countCalls(sink, "cc") != 1 {
		t.Fatalf("expected 1 CC after down, got %d", countCalls(sink, "cc"))
	}

	crnt2 := lpnlib.CrntMsrTick{Msr: 0, Tick: 180}
	for _, e := range stk.pickPlayable(crnt2) {
		e.Process(crnt2, stk)
	}
	if countCalls(sink, "cc") != 2 {
		t.Fatalf("expected 2 CCs after up, got %d", countCalls(sink, "cc"))
	}
	if !n.DestroyMe() {
		t.Fatal("damper note should be destroyed after the up event")
	}
}
