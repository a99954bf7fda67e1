package elapse

import (
	"loopian/lpnlib"
	"loopian/translate"
)

// DynPattern drives a Cluster or directional Arp figure: it wakes every
// EachDur ticks, re-derives the chord-tone set for that instant, and spawns
// one Note per voice (spec §4.5 "spawn a pattern elapse object (priority
// 350) that wakes each_dur ticks at a time").
//
// Grounded on original_source/src/elapse/elapse_pattern.rs.
type DynPattern struct {
	Base
	owner           *Part
	channel         uint8
	msr, tick       int32
	endMsr, endTick int32
	tickForOneMsr   int32
	eachDur         int32
	lowestNote      uint8
	maxVoices       int
	figure          lpnlib.ArpFigure
	isArp           bool
	vel             uint8
	step            int
	lastArp         int16 // previously-resolved arp pitch, fed to translate.Arp2
}

// NewClusterPattern builds a DynPattern that fires the full chord-tone
// stack (up to maxVoices) every eachDur ticks.
func NewClusterPattern(id lpnlib.ElapseID, owner *Part, channel uint8, msr, tick, endMsr, endTick, tickForOneMsr, eachDur int32, lowest, vel uint8, maxVoices int) *DynPattern {
	return &DynPattern{Base: NewBase(id), owner: owner, channel: channel, msr: msr, tick: tick,
		endMsr: endMsr, endTick: endTick, tickForOneMsr: tickForOneMsr, eachDur: eachDur,
		lowestNote: lowest, vel: vel, maxVoices: maxVoices}
}

// NewArpPattern builds a DynPattern that fires one voice at a time, walking
// the chord tones in the given direction.
func NewArpPattern(id lpnlib.ElapseID, owner *Part, channel uint8, msr, tick, endMsr, endTick, tickForOneMsr, eachDur int32, lowest, vel uint8, figure lpnlib.ArpFigure) *DynPattern {
	return &DynPattern{Base: NewBase(id), owner: owner, channel: channel, msr: msr, tick: tick,
		endMsr: endMsr, endTick: endTick, tickForOneMsr: tickForOneMsr, eachDur: eachDur,
		lowestNote: lowest, vel: vel, figure: figure, isArp: true}
}

func (d *DynPattern) Prio() int { return lpnlib.PriDynPtn }

func (d *DynPattern) Next() (int32, int32, bool) { return d.msr, d.tick, false }

func (d *DynPattern) Start(startMsr int32) {}

func (d *DynPattern) Process(crnt lpnlib.CrntMsrTick, stk *Stack) {
	if d.owner == nil {
		d.MarkDestroy()
		return
	}
	root, table := d.owner.CurrentChord(crnt.Msr, crnt.Tick, d.tickForOneMsr)
	pitches := chordVoices(root, table, d.lowestNote, d.maxVoices)

	switch {
	case d.isArp && len(pitches) > 0:
		idx := d.arpIndex(len(pitches))
		target := pitches[idx]
		resolved := target
		if d.lastArp != 0 {
			resolved = translate.Arp2(root, table, target, d.arpDirection(len(pitches)), d.lastArp)
		}
		d.lastArp = int16(resolved)
		stk.AddElapse(NewNote(lpnlib.ElapseID{Type: lpnlib.TypeNote}, d.msr, d.tick, d.channel, resolved, d.vel, d.eachDur, d.tickForOneMsr))
		d.step++
	default:
		for _, p := range pitches {
			stk.AddElapse(NewNote(lpnlib.ElapseID{Type: lpnlib.TypeNote}, d.msr, d.tick, d.channel, p, d.vel, d.eachDur, d.tickForOneMsr))
		}
	}

	d.advance()
	if d.msr > d.endMsr || (d.msr == d.endMsr && d.tick >= d.endTick) {
		d.MarkDestroy()
	}
}

func (d *DynPattern) arpIndex(n int) int {
	if n == 0 {
		return 0
	}
	switch d.figure {
	case lpnlib.ArpDown:
		return n - 1 - d.step%n
	case lpnlib.ArpUpDown, lpnlib.ArpDownUp:
		period := 2 * (n - 1)
		if period <= 0 {
			return 0
		}
		pos := d.step % period
		if pos < n {
			if d.figure == lpnlib.ArpDownUp {
				return n - 1 - pos
			}
			return pos
		}
		if d.figure == lpnlib.ArpDownUp {
			return pos - (n - 1)
		}
		return period - pos
	default: // ArpUp
		return d.step % n
	}
}

// arpDirection reports the contour's instantaneous direction at the current
// step (+1 ascending, -1 descending), mirroring arpIndex's own phase math —
// this is the ntDiff translate.Arp2 needs to tell "repeats last note" from
// "moves against the arpeggio direction".
func (d *DynPattern) arpDirection(n int) int16 {
	switch d.figure {
	case lpnlib.ArpDown:
		return -1
	case lpnlib.ArpUpDown, lpnlib.ArpDownUp:
		if n <= 1 {
			return 1
		}
		period := 2 * (n - 1)
		pos := d.step % period
		ascending := pos < n-1
		if d.figure == lpnlib.ArpDownUp {
			ascending = !ascending
		}
		if ascending {
			return 1
		}
		return -1
	default: // ArpUp
		return 1
	}
}

func (d *DynPattern) advance() {
	d.tick += d.eachDur
	for d.tick >= d.tickForOneMsr {
		d.tick -= d.tickForOneMsr
		d.msr++
	}
}

func (d *DynPattern) Stop(stk *Stack)  { d.MarkDestroy() }
func (d *DynPattern) Clear(stk *Stack) { d.MarkDestroy() }

// chordVoices builds an ascending pitch stack from lowestNote up through the
// resolved chord table, capped at maxVoices (0 means unlimited, one pass
// through the table).
func chordVoices(root, table int16, lowest uint8, maxVoices int) []uint8 {
	intervals, _ := translate.GetTable(table)
	if len(intervals) == 0 {
		intervals = []int16{0}
	}
	n := maxVoices
	if n <= 0 {
		n = len(intervals)
	}
	realRoot := int(root) + lpnlib.DefaultNoteNumber
	out := make([]uint8, 0, n)
	for i := 0; i < n; i++ {
		iv := intervals[i%len(intervals)]
		oct := (i / len(intervals)) * 12
		pitch := int(lowest) + (realRoot-int(lowest))%12 + int(iv) + oct
		if pitch < lpnlib.MinNoteNumber {
			pitch = lpnlib.MinNoteNumber
		}
		if pitch > lpnlib.MaxNoteNumber {
			pitch = lpnlib.MaxNoteNumber
		}
		out = append(out, uint8(pitch))
	}
	return out
}
