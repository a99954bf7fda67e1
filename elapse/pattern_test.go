package elapse

import (
	"testing"

	"loopian/lpnlib"
)

func newChordPart(t *testing.T) *Part {
	t.Helper()
	owner := NewPart(lpnlib.ElapseID{Type: lpnlib.TypePart}, 0, 0, lpnlib.TickForOneMeasure, false)
	owner.ReceiveComposition(lpnlib.CmpData{
		WholeTick: lpnlib.TickForOneMeasure,
		Evts:      []lpnlib.CmpEvt{lpnlib.ChordEvt{Tick: 0, Root: 0, Table: 2}}, // major triad
	}, lpnlib.TickForOneMeasure, lpnlib.TickForOneMeasure/4, 4)
	return owner
}

// TestClusterPatternSpawnsStackedVoices covers spec §4.5's Cluster pattern:
// every eachDur tick it spawns the full chord-tone stack, up to maxVoices.
func TestClusterPatternSpawnsStackedVoices(t *testing.T) {
	stk, _ := newTestStack()
	owner := newChordPart(t)

	d := NewClusterPattern(lpnlib.ElapseID{Type: lpnlib.TypeDynPattern}, owner, 0,
		0, 0, 0, lpnlib.TickForQuarter, lpnlib.TickForOneMeasure, lpnlib.TickForQuarter, 60, 100, 3)
	d.Process(lpnlib.CrntMsrTick{Msr: 0, Tick: 0, TickForOneMsr: lpnlib.TickForOneMeasure}, stk)

	var pitches []uint8
	for _, o := range stk.objects {
		if n, ok := o.(*Note); ok {
			pitches = append(pitches, n.pitch)
		}
	}
	want := []uint8{60, 64, 67}
	if len(pitches) != len(want) {
		t.Fatalf("expected %d stacked voices, got %d (%v)", len(want), len(pitches), pitches)
	}
	for i, p := range pitches {
		if p != want[i] {
			t.Errorf("voice %d = %d, want %d", i, p, want[i])
		}
	}
	if !d.DestroyMe() {
		t.Fatal("cluster pattern should self-destroy once it reaches its end tick")
	}
}

// TestArpPatternWalksChordToneAtATime covers spec §4.5's Arp pattern and the
// translate.Arp2 wiring: each eachDur tick it resolves the next chord tone
// in the given direction through Arp2 rather than chordVoices alone.
func TestArpPatternWalksChordToneAtATime(t *testing.T) {
	stk, _ := newTestStack()
	owner := newChordPart(t)

	d := NewArpPattern(lpnlib.ElapseID{Type: lpnlib.TypeDynPattern}, owner, 0,
		0, 0, 0, lpnlib.TickForQuarter*3, lpnlib.TickForOneMeasure, lpnlib.TickForQuarter, 60, 100, lpnlib.ArpUp)

	crnt := lpnlib.CrntMsrTick{Msr: 0, Tick: 0, TickForOneMsr: lpnlib.TickForOneMeasure}
	d.Process(crnt, stk)
	if d.lastArp != 60 {
		t.Fatalf("first arp step = %d, want 60 (no prior note to correct against)", d.lastArp)
	}
	d.Process(crnt, stk)
	if d.lastArp != 64 {
		t.Fatalf("second arp step = %d, want 64 (ascending through the major triad)", d.lastArp)
	}

	var noteCount int
	for _, o := range stk.objects {
		if _, ok := o.(*Note); ok {
			noteCount++
		}
	}
	if noteCount != 2 {
		t.Fatalf("expected one Note per arp step, got %d", noteCount)
	}
}

// TestDynPatternWithoutOwnerDestroysImmediately guards the nil-owner case
// (a pattern whose part disappeared before it could fire).
func TestDynPatternWithoutOwnerDestroysImmediately(t *testing.T) {
	stk, _ := newTestStack()
	d := NewClusterPattern(lpnlib.ElapseID{Type: lpnlib.TypeDynPattern}, nil, 0,
		0, 0, 0, lpnlib.TickForQuarter, lpnlib.TickForOneMeasure, lpnlib.TickForQuarter, 60, 100, 3)
	d.Process(lpnlib.CrntMsrTick{Msr: 0, Tick: 0, TickForOneMsr: lpnlib.TickForOneMeasure}, stk)
	if !d.DestroyMe() {
		t.Fatal("an owner-less pattern must self-destroy rather than panic")
	}
}
