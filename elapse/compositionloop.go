package elapse

import "loopian/lpnlib"

// UnfoldedComposition is the per-measure/per-beat chord grid scanned by
// scan_chord/gen_damper_ev_map (spec §4.6). Unfolding happens once on
// receipt by walking the compiled CmpEvt vector tick-by-tick.
//
// Grounded on original_source/src/elapse/unfold_cmp.rs.
type UnfoldedComposition struct {
	tickForOneMsr int32
	tickForOneBeat int32
	beatsPerMsr   int32
	wholeTick     int32
	doLoop        bool

	chordAt map[int32]lpnlib.ChordEvt // keyed by tick, anchor points only
	variAt  map[int32]int16           // measure -> active variation
	anchors []int32                   // sorted tick list of chordAt keys
}

// UnfoldComposition builds the grid from a compiled CmpData (spec §4.6
// "Unfolding is performed once on receipt by scanning events tick-by-tick").
func UnfoldComposition(data lpnlib.CmpData, tickForOneMsr, tickForOneBeat int32, beatsPerMsr int32) *UnfoldedComposition {
	u := &UnfoldedComposition{
		tickForOneMsr: tickForOneMsr, tickForOneBeat: tickForOneBeat, beatsPerMsr: beatsPerMsr,
		wholeTick: data.WholeTick, doLoop: data.DoLoop,
		chordAt: map[int32]lpnlib.ChordEvt{}, variAt: map[int32]int16{},
	}
	for _, e := range data.Evts {
		switch v := e.(type) {
		case lpnlib.ChordEvt:
			tick := int32(v.Tick)
			u.chordAt[tick] = v
			u.anchors = append(u.anchors, tick)
		case lpnlib.VariEvt:
			msr := int32(v.Tick) / tickForOneMsr
			u.variAt[msr] = v.Vari
		}
	}
	for i := 1; i < len(u.anchors); i++ {
		for j := i; j > 0 && u.anchors[j-1] > u.anchors[j]; j-- {
			u.anchors[j-1], u.anchors[j] = u.anchors[j], u.anchors[j-1]
		}
	}
	return u
}

// ScanChord walks backward from (msr,beat) to the most recent anchor (spec
// §4.6 "scan_chord"). Returns NoRoot/NoTable when nothing has been anchored
// yet at or before this position.
func (u *UnfoldedComposition) ScanChord(msr, beat int32) (root, table int16) {
	tick := msr*u.tickForOneMsr + beat*u.tickForOneBeat
	best := int32(-1)
	for _, a := range u.anchors {
		if a <= tick {
			best = a
		} else {
			break
		}
	}
	if best < 0 {
		return lpnlib.NoRoot, lpnlib.NoTable
	}
	c := u.chordAt[best]
	return c.Root, c.Table
}

// GenChordName renders the chord active at (msr,beat) for UI display (spec
// §4.6 "gen_chord_name").
func (u *UnfoldedComposition) GenChordName(msr, beat int32, nameFn func(root, table int16) string) string {
	root, table := u.ScanChord(msr, beat)
	if table == lpnlib.NoTable {
		return ""
	}
	return nameFn(root, table)
}

// GenDamperEvMap returns one PedalPos per beat across the measure, derived
// from chord-anchor activity (spec §4.6 "gen_damper_ev_map").
func (u *UnfoldedComposition) GenDamperEvMap(msr int32) []lpnlib.PedalPos {
	out := make([]lpnlib.PedalPos, u.beatsPerMsr)
	for b := int32(0); b < u.beatsPerMsr; b++ {
		_, table := u.ScanChord(msr, b)
		if table == lpnlib.NoTable || table == 0 { // NoPedTableNum
			out[b] = lpnlib.PedalOff
		} else {
			out[b] = lpnlib.PedalFull
		}
	}
	return out
}

// OnsetBeats reports, for each beat in msr, whether a new chord anchor
// falls within that beat's tick window — i.e. whether the harmony changes
// right there, as opposed to merely being in effect (spec §4.8's damper
// derivation re-articulates the pedal at each harmony change, not at every
// beat a chord happens to be held over).
func (u *UnfoldedComposition) OnsetBeats(msr int32) []bool {
	out := make([]bool, u.beatsPerMsr)
	msrStart := msr * u.tickForOneMsr
	msrEnd := msrStart + u.tickForOneMsr
	for _, a := range u.anchors {
		if a < msrStart || a >= msrEnd {
			continue
		}
		b := (a - msrStart) / u.tickForOneBeat
		if b >= 0 && b < int32(len(out)) {
			out[b] = true
		}
	}
	return out
}

// GenVariNum returns the variation active at msr (spec §4.6 "gen_vari_num").
func (u *UnfoldedComposition) GenVariNum(msr int32) int16 {
	return u.variAt[msr]
}

func (u *UnfoldedComposition) WholeTick() int32 { return u.wholeTick }
func (u *UnfoldedComposition) DoLoop() bool      { return u.doLoop }

// CmpsLoopMediator owns the live UnfoldedComposition and buffers an incoming
// replacement until the next bar boundary (spec §4.6 "buffers it and swaps
// at the next bar boundary or when the new whole_tick ≥ the current").
type CmpsLoopMediator struct {
	current *UnfoldedComposition
	pending *UnfoldedComposition
}

func (m *CmpsLoopMediator) Receive(u *UnfoldedComposition) {
	if m.current == nil {
		m.current = u
		return
	}
	m.pending = u
}

// MsrTop swaps in a pending composition at the bar boundary (spec §4.7
// "Call the composition mediator's msrtop to drive variation/chord
// updates").
func (m *CmpsLoopMediator) MsrTop() {
	if m.pending == nil {
		return
	}
	if m.current == nil || m.pending.WholeTick() >= m.current.WholeTick() {
		m.current = m.pending
		m.pending = nil
	}
}

func (m *CmpsLoopMediator) Current() *UnfoldedComposition { return m.current }
