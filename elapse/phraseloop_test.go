package elapse

import (
	"testing"

	"loopian/lpnlib"
	"loopian/translate"
)

// TestPadPhraseAuftaktAsymmetry locks in the resolved open question: a
// phrase with an auftakt is padded by one trailing measure only and its
// events are never shifted, while a phrase without one is padded by a
// measure on each end and every event shifts forward by one measure.
func TestPadPhraseAuftaktAsymmetry(t *testing.T) {
	const tickForOneMsr = lpnlib.TickForOneMeasure

	paddedAuf, shiftAuf := padPhrase(tickForOneMsr, tickForOneMsr, 3)
	if paddedAuf != 2*tickForOneMsr {
		t.Fatalf("auftakt padded whole_tick = %d, want %d", paddedAuf, 2*tickForOneMsr)
	}
	if shiftAuf != 0 {
		t.Fatalf("auftakt shift = %d, want 0", shiftAuf)
	}

	paddedNorm, shiftNorm := padPhrase(tickForOneMsr, tickForOneMsr, 0)
	if paddedNorm != 3*tickForOneMsr {
		t.Fatalf("non-auftakt padded whole_tick = %d, want %d", paddedNorm, 3*tickForOneMsr)
	}
	if shiftNorm != tickForOneMsr {
		t.Fatalf("non-auftakt shift = %d, want %d", shiftNorm, tickForOneMsr)
	}
}

func TestShiftEvtsMovesEveryVariant(t *testing.T) {
	evts := []lpnlib.PhrEvt{
		lpnlib.NoteEvt{Tick: 0, Note: 60},
		lpnlib.NoteListEvt{Tick: 10, Notes: []uint8{60, 64}},
		lpnlib.InfoEvt{Tick: 20, Kind: lpnlib.InfoRptHead},
	}
	out := shiftEvts(evts, 480)
	if out[0].EvtTick() != 480 {
		t.Fatalf("NoteEvt tick = %d, want 480", out[0].EvtTick())
	}
	if out[1].EvtTick() != 490 {
		t.Fatalf("NoteListEvt tick = %d, want 490", out[1].EvtTick())
	}
	if out[2].EvtTick() != 500 {
		t.Fatalf("InfoEvt tick = %d, want 500", out[2].EvtTick())
	}
}

// TestPhraseLoopDedupsSameTickSamePitch covers spec §4.5's de-dup rule:
// when translation causes two voices to land on the same pitch at the same
// tick, only one Note is spawned.
func TestPhraseLoopDedupsSameTickSamePitch(t *testing.T) {
	stk, sink := newTestStack()
	data := lpnlib.PhrData{
		WholeTick: lpnlib.TickForOneMeasure,
		Auftakt:   1,
		Evts: []lpnlib.PhrEvt{
			lpnlib.NoteListEvt{Tick: 0, Dur: 240, Notes: []uint8{60, 60}, Vel: 90, Trns: lpnlib.TransNoTrns},
		},
	}
	loop := NewPhraseLoop(lpnlib.ElapseID{Type: lpnlib.TypePhraseLoop}, nil, 0, 0, lpnlib.TickForOneMeasure, data)
	stk.AddElapse(loop)

	crnt := lpnlib.CrntMsrTick{Msr: 0, Tick: 0, TickForOneMsr: lpnlib.TickForOneMeasure}
	loop.Process(crnt, stk)

	noteCount := 0
	for _, o := range stk.objects {
		if _, ok := o.(*Note); ok {
			noteCount++
		}
	}
	if noteCount != 1 {
		t.Fatalf("expected exactly 1 spawned Note after de-dup, got %d", noteCount)
	}
	_ = sink
}

// TestPhraseLoopManagerQueuesShorterReplacement exercises rule 3: a
// shorter replacement phrase is deferred rather than applied immediately.
func TestPhraseLoopManagerQueuesShorterReplacement(t *testing.T) {
	stk, _ := newTestStack()
	mgr := NewPhraseLoopManager(nil, 0, lpnlib.TickForOneMeasure)

	long := lpnlib.PhrData{WholeTick: 2 * lpnlib.TickForOneMeasure}
	mgr.Receive(long, 0, stk)
	first := mgr.Active()
	if first == nil {
		t.Fatal("expected an active loop after first Receive")
	}

	short := lpnlib.PhrData{WholeTick: lpnlib.TickForOneMeasure / 2}
	mgr.Receive(short, 0, stk)
	if mgr.Active() != first {
		t.Fatal("a strictly shorter replacement must not pre-empt the active loop")
	}
	if _, queued := mgr.pending[lpnlib.AsNormal]; !queued {
		t.Fatal("shorter replacement should be queued as pending")
	}
}

// newChordLoopOwner builds a Part installed with a C-major composition, for
// tests that need PhraseLoop.translate to actually resolve a chord.
func newChordLoopOwner(t *testing.T) *Part {
	t.Helper()
	owner := NewPart(lpnlib.ElapseID{Type: lpnlib.TypePart}, 0, 0, lpnlib.TickForOneMeasure, false)
	owner.ReceiveComposition(lpnlib.CmpData{
		WholeTick: lpnlib.TickForOneMeasure,
		Evts:      []lpnlib.CmpEvt{lpnlib.ChordEvt{Tick: 0, Root: 2, Table: 30}}, // D ionian
	}, lpnlib.TickForOneMeasure, lpnlib.TickForOneMeasure/4, 4)
	return owner
}

// TestPhraseLoopTranslateForcesComOnRptHeadTick covers spec §4.2 pass 9: a
// tick marked by an InfoEvt(RptHead) forces TransCom translation regardless
// of the event's own Trns, so a repetition's first note never arpeggiates.
func TestPhraseLoopTranslateForcesComOnRptHeadTick(t *testing.T) {
	stk, _ := newTestStack()
	owner := newChordLoopOwner(t)
	data := lpnlib.PhrData{
		Auftakt:   1, // sidesteps padPhrase's tick shift
		WholeTick: lpnlib.TickForOneMeasure,
		Evts: []lpnlib.PhrEvt{
			lpnlib.InfoEvt{Tick: 0, Kind: lpnlib.InfoRptHead},
			lpnlib.NoteEvt{Tick: 0, Dur: 240, Note: 61, Vel: 90, Trns: lpnlib.TransPara},
		},
	}
	loop := NewPhraseLoop(lpnlib.ElapseID{Type: lpnlib.TypePhraseLoop}, owner, 0, 0, lpnlib.TickForOneMeasure, data)
	stk.AddElapse(loop)

	crnt := lpnlib.CrntMsrTick{Msr: 0, Tick: 0, TickForOneMsr: lpnlib.TickForOneMeasure}
	loop.Process(crnt, stk)

	want := translate.Common(2, 30, 61)
	var got uint8
	found := false
	for _, o := range stk.objects {
		if n, ok := o.(*Note); ok {
			got = n.pitch
			found = true
		}
	}
	if !found {
		t.Fatal("expected a Note to be spawned")
	}
	if got != want {
		t.Fatalf("RptHead tick resolved to %d, want %d (TransCom, not the event's TransPara)", got, want)
	}
}

// TestPhraseLoopTranslateUsesPerTickAnalysisOption covers spec §4.5's "call
// translator with analysis's translate_option for that tick": a BeatAna
// entry at a note's tick overrides the event's own Trns.
func TestPhraseLoopTranslateUsesPerTickAnalysisOption(t *testing.T) {
	stk, _ := newTestStack()
	owner := newChordLoopOwner(t)
	data := lpnlib.PhrData{
		Auftakt:   1,
		WholeTick: lpnlib.TickForOneMeasure,
		Evts: []lpnlib.PhrEvt{
			lpnlib.NoteEvt{Tick: 0, Dur: 240, Note: 61, Vel: 90, Trns: lpnlib.TransCom},
		},
		Ana: []lpnlib.AnaEvt{
			lpnlib.BeatAna{Tick: 0, TranslateOption: lpnlib.TransNoTrns},
		},
	}
	loop := NewPhraseLoop(lpnlib.ElapseID{Type: lpnlib.TypePhraseLoop}, owner, 0, 0, lpnlib.TickForOneMeasure, data)
	stk.AddElapse(loop)

	crnt := lpnlib.CrntMsrTick{Msr: 0, Tick: 0, TickForOneMsr: lpnlib.TickForOneMeasure}
	loop.Process(crnt, stk)

	var got uint8
	found := false
	for _, o := range stk.objects {
		if n, ok := o.(*Note); ok {
			got = n.pitch
			found = true
		}
	}
	if !found {
		t.Fatal("expected a Note to be spawned")
	}
	if got != 61 {
		t.Fatalf("analysis TransNoTrns override not applied: got %d, want 61 unchanged", got)
	}
}

// TestPhraseLoopFireSpawnsDynPatternForClusterEvt covers the compiler→loop
// wiring for Dynamic Pattern tokens: firing a ClusterEvt must spawn a
// DynPattern, not silently drop the event.
func TestPhraseLoopFireSpawnsDynPatternForClusterEvt(t *testing.T) {
	stk, _ := newTestStack()
	owner := newChordLoopOwner(t)
	data := lpnlib.PhrData{
		Auftakt:   1,
		WholeTick: lpnlib.TickForOneMeasure,
		Evts: []lpnlib.PhrEvt{
			lpnlib.ClusterEvt{Tick: 0, Dur: lpnlib.TickForQuarter, EachDur: lpnlib.TickForQuarter, LowestNote: 60, Vel: 90, MaxVoices: 3},
		},
	}
	loop := NewPhraseLoop(lpnlib.ElapseID{Type: lpnlib.TypePhraseLoop}, owner, 0, 0, lpnlib.TickForOneMeasure, data)
	stk.AddElapse(loop)

	crnt := lpnlib.CrntMsrTick{Msr: 0, Tick: 0, TickForOneMsr: lpnlib.TickForOneMeasure}
	loop.Process(crnt, stk)

	found := false
	for _, o := range stk.objects {
		if _, ok := o.(*DynPattern); ok {
			found = true
		}
	}
	if !found {
		t.Fatal("expected fire() to spawn a DynPattern for a ClusterEvt")
	}
}
