package elapse

import (
	"testing"

	"loopian/lpnlib"
)

func TestNewPartLeftHandLowersBaseNote(t *testing.T) {
	right := NewPart(lpnlib.ElapseID{Type: lpnlib.TypePart}, 0, 0, lpnlib.TickForOneMeasure, false)
	left := NewPart(lpnlib.ElapseID{Type: lpnlib.TypePart}, 1, 1, lpnlib.TickForOneMeasure, true)

	if right.BaseNote() != lpnlib.DefaultNoteNumber {
		t.Fatalf("right-hand base note = %d, want %d", right.BaseNote(), lpnlib.DefaultNoteNumber)
	}
	if left.BaseNote() != lpnlib.DefaultNoteNumber-12 {
		t.Fatalf("left-hand base note = %d, want %d", left.BaseNote(), lpnlib.DefaultNoteNumber-12)
	}
}

func TestPartCurrentChordBeforeAnyCompositionIsNoChord(t *testing.T) {
	p := NewPart(lpnlib.ElapseID{Type: lpnlib.TypePart}, 0, 0, lpnlib.TickForOneMeasure, false)
	root, table := p.CurrentChord(0, 0, lpnlib.TickForOneMeasure)
	if root != lpnlib.NoRoot || table != lpnlib.NoTable {
		t.Fatalf("CurrentChord with no composition = (%d,%d), want (NoRoot,NoTable)", root, table)
	}
}

func TestPartReceiveCompositionFeedsCurrentChord(t *testing.T) {
	p := NewPart(lpnlib.ElapseID{Type: lpnlib.TypePart}, 0, 0, lpnlib.TickForOneMeasure, false)
	p.ReceiveComposition(chordData(5, 2), lpnlib.TickForOneMeasure, lpnlib.TickForOneMeasure/4, 4)

	root, table := p.CurrentChord(0, 0, lpnlib.TickForOneMeasure)
	if root != 5 || table != 2 {
		t.Fatalf("CurrentChord = (%d,%d), want (5,2)", root, table)
	}
}

func TestPartReceivePhraseAddsActiveLoop(t *testing.T) {
	stk, _ := newTestStack()
	p := NewPart(lpnlib.ElapseID{Type: lpnlib.TypePart}, 0, 0, lpnlib.TickForOneMeasure, false)
	stk.AddPart(p)

	p.ReceivePhrase(lpnlib.PhrData{WholeTick: lpnlib.TickForOneMeasure}, 0, stk)
	if p.phrase.Active() == nil {
		t.Fatal("expected an active phrase loop after ReceivePhrase")
	}
	found := false
	for _, o := range stk.objects {
		if o == p.phrase.Active() {
			found = true
		}
	}
	if !found {
		t.Fatal("active phrase loop must be registered on the stack for scheduling")
	}
}
