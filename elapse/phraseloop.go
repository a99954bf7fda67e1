package elapse

import (
	"loopian/lpnlib"
	"loopian/translate"
)

// padPhrase applies the asymmetric measure padding of spec §4.5
// ("Phrases with auftakt are padded with a trailing empty measure but NOT a
// leading one; phrases without auftakt are padded with one measure at each
// end"). Returns the padded whole_tick and the tick shift to apply to every
// event (0 for auftakt phrases, since their own pass-2 leading rest already
// serves as the pickup space).
//
// Grounded on original_source/src/elapse/phr_loop_mng.rs's add_float_part,
// resolving spec §9's auftakt open question (see DESIGN.md).
func padPhrase(wholeTick, tickForOneMsr int32, auftakt int) (paddedWholeTick, shift int32) {
	if auftakt > 0 {
		return wholeTick + tickForOneMsr, 0
	}
	return wholeTick + 2*tickForOneMsr, tickForOneMsr
}

// shiftEvts returns a copy of evts with every tick shifted by delta.
func shiftEvts(evts []lpnlib.PhrEvt, delta int16) []lpnlib.PhrEvt {
	if delta == 0 {
		return evts
	}
	out := make([]lpnlib.PhrEvt, len(evts))
	for i, e := range evts {
		switch v := e.(type) {
		case lpnlib.NoteEvt:
			v.Tick += delta
			out[i] = v
		case lpnlib.NoteListEvt:
			v.Tick += delta
			out[i] = v
		case lpnlib.InfoEvt:
			v.Tick += delta
			out[i] = v
		case lpnlib.DamperEvt:
			v.Tick += delta
			out[i] = v
		case lpnlib.ClusterEvt:
			v.Tick += delta
			out[i] = v
		case lpnlib.ArpEvt:
			v.Tick += delta
			out[i] = v
		default:
			out[i] = e
		}
	}
	return out
}

// shiftAna returns a copy of ana with every tick shifted by delta, mirroring
// shiftEvts so pass-9 analysis stays aligned with the padded event stream.
func shiftAna(ana []lpnlib.AnaEvt, delta int16) []lpnlib.AnaEvt {
	if delta == 0 {
		return ana
	}
	out := make([]lpnlib.AnaEvt, len(ana))
	for i, a := range ana {
		switch v := a.(type) {
		case lpnlib.BeatAna:
			v.Tick += delta
			out[i] = v
		case lpnlib.ExpAna:
			v.Tick += delta
			out[i] = v
		default:
			out[i] = a
		}
	}
	return out
}

// PhraseLoop plays a compiled PhrData once through — spec §4.5. The
// PhraseLoopManager swaps in a fresh PhraseLoop only for a pending phrase;
// a finished loop is not restarted, and PhrData.DoLoop is not read.
//
// Grounded on original_source/src/elapse/elapse_loop_phr.rs.
type PhraseLoop struct {
	Base
	owner   *Part
	channel uint8

	startMsr      int32
	tickForOneMsr int32
	data          lpnlib.PhrData
	paddedWhole   int32
	shift         int32

	cursor    int
	elapsed   int32
	emittedAt map[int32]map[uint8]bool // de-dup per tick: pitches already sounded

	ana      map[int16]lpnlib.TransMode // per-tick translate option from pass 9 (BeatAna)
	rptHeads map[int16]bool             // ticks marked by an InfoEvt(RptHead) marker
}

func NewPhraseLoop(id lpnlib.ElapseID, owner *Part, channel uint8, startMsr, tickForOneMsr int32, data lpnlib.PhrData) *PhraseLoop {
	padded, shift := padPhrase(data.WholeTick, tickForOneMsr, data.Auftakt)
	evts := shiftEvts(data.Evts, int16(shift))
	data.Evts = evts
	data.Ana = shiftAna(data.Ana, int16(shift))

	ana := make(map[int16]lpnlib.TransMode, len(data.Ana))
	for _, a := range data.Ana {
		if b, ok := a.(lpnlib.BeatAna); ok {
			ana[b.Tick] = b.TranslateOption
		}
	}
	rptHeads := map[int16]bool{}
	for _, e := range evts {
		if info, ok := e.(lpnlib.InfoEvt); ok && info.Kind == lpnlib.InfoRptHead {
			rptHeads[info.Tick] = true
		}
	}

	return &PhraseLoop{
		Base: NewBase(id), owner: owner, channel: channel,
		startMsr: startMsr, tickForOneMsr: tickForOneMsr,
		data: data, paddedWhole: padded, shift: shift,
		emittedAt: map[int32]map[uint8]bool{},
		ana:       ana, rptHeads: rptHeads,
	}
}

func (p *PhraseLoop) Prio() int { return lpnlib.PriLoop }

func (p *PhraseLoop) Next() (int32, int32, bool) {
	next := p.paddedWhole
	if p.cursor < len(p.data.Evts) {
		next = int32(p.data.Evts[p.cursor].EvtTick())
	}
	msr := p.startMsr + next/p.tickForOneMsr
	tick := next % p.tickForOneMsr
	return msr, tick, false
}

func (p *PhraseLoop) Start(startMsr int32) { p.startMsr = startMsr }

// Process advances the cursor through every event due at or before the
// current elapsed-tick-within-loop, resolving pitch via the owning Part's
// chord, de-duplicating same-tick repeats, and spawning Note objects (spec
// §4.5).
func (p *PhraseLoop) Process(crnt lpnlib.CrntMsrTick, stk *Stack) {
	targetElapsed := (crnt.Msr-p.startMsr)*p.tickForOneMsr + crnt.Tick
	for p.cursor < len(p.data.Evts) {
		e := p.data.Evts[p.cursor]
		if int32(e.EvtTick()) > targetElapsed {
			break
		}
		p.fire(e, crnt, stk)
		p.cursor++
	}
	p.elapsed = targetElapsed
	if p.elapsed >= p.paddedWhole {
		p.MarkDestroy()
	}
}

func (p *PhraseLoop) fire(e lpnlib.PhrEvt, crnt lpnlib.CrntMsrTick, stk *Stack) {
	switch v := e.(type) {
	case lpnlib.NoteEvt:
		note := p.translate(v.Note, v.Trns, v.Tick, crnt)
		if p.dup(v.Tick, note) {
			return
		}
		dur := applyArtic(v.Dur, v.Artic)
		stk.AddElapse(NewNote(lpnlib.ElapseID{Type: lpnlib.TypeNote}, crnt.Msr, crnt.Tick, p.channel, note, v.Vel, dur, p.tickForOneMsr))
	case lpnlib.NoteListEvt:
		dur := applyArtic(v.Dur, v.Artic)
		for _, n := range v.Notes {
			note := p.translate(n, v.Trns, v.Tick, crnt)
			if p.dup(v.Tick, note) {
				continue
			}
			stk.AddElapse(NewNote(lpnlib.ElapseID{Type: lpnlib.TypeNote}, crnt.Msr, crnt.Tick, p.channel, note, v.Vel, dur, p.tickForOneMsr))
		}
	case lpnlib.ClusterEvt:
		endMsr, endTick := p.patternEnd(v.Tick, v.Dur, crnt)
		stk.AddElapse(NewClusterPattern(lpnlib.ElapseID{Type: lpnlib.TypeDynPattern}, p.owner, p.channel,
			crnt.Msr, crnt.Tick, endMsr, endTick, p.tickForOneMsr, int32(v.EachDur), v.LowestNote, v.Vel, v.MaxVoices))
	case lpnlib.ArpEvt:
		endMsr, endTick := p.patternEnd(v.Tick, v.Dur, crnt)
		stk.AddElapse(NewArpPattern(lpnlib.ElapseID{Type: lpnlib.TypeDynPattern}, p.owner, p.channel,
			crnt.Msr, crnt.Tick, endMsr, endTick, p.tickForOneMsr, int32(v.EachDur), v.LowestNote, v.Vel, v.Figure))
	case lpnlib.DamperEvt:
		// Explicit pedal events embedded in a phrase are not played:
		// neither this loop nor DamperPart emits them.
	case lpnlib.InfoEvt:
		// RptHead is a marker only; no playback action (its tick still
		// feeds p.rptHeads, consulted by translate).
	}
}

// patternEnd converts a dynamic-pattern event's (Tick,Dur) — both relative
// to the loop's own elapsed-tick line — into the absolute (msr,tick) where
// its DynPattern should stop, anchored at the firing measure.
func (p *PhraseLoop) patternEnd(tick, dur int16, crnt lpnlib.CrntMsrTick) (msr, tickInMsr int32) {
	endElapsed := int32(tick) + int32(dur)
	msrOffset := endElapsed/p.tickForOneMsr - int32(tick)/p.tickForOneMsr
	return crnt.Msr + msrOffset, endElapsed % p.tickForOneMsr
}

// translate resolves mode for this tick: pass 9's per-tick BeatAna analysis
// is the primary source (falling back to the event's own mode when no
// analysis entry exists), and a tick marked by an InfoEvt(RptHead) always
// forces TransCom — no arpeggio translation on a repetition's first note
// (spec §4.2 pass 9, §4.5 "call translator with analysis's translate_option
// for that tick").
func (p *PhraseLoop) translate(note uint8, mode lpnlib.TransMode, tick int16, crnt lpnlib.CrntMsrTick) uint8 {
	if opt, ok := p.ana[tick]; ok {
		mode = opt
	}
	if p.rptHeads[tick] {
		mode = lpnlib.TransCom
	}
	if mode == lpnlib.TransNoTrns || p.owner == nil {
		return note
	}
	root, table := p.owner.CurrentChord(crnt.Msr, crnt.Tick, p.tickForOneMsr)
	if table == lpnlib.NoTable {
		return note
	}
	if mode == lpnlib.TransPara {
		if movable, transpose := translate.IsMovableScale(table, root); movable {
			return translate.ParallelScale(transpose, table, note)
		}
	}
	return translate.Common(root, table, note)
}

func (p *PhraseLoop) Stop(stk *Stack)  { p.MarkDestroy() }
func (p *PhraseLoop) Clear(stk *Stack) { p.MarkDestroy() }

// dup reports whether this (tick,note) was already emitted, and records it
// if not (spec §4.5 "if resulting pitch duplicates a same-tick pitch
// already emitted this tick, skip").
func (p *PhraseLoop) dup(tick int16, note uint8) bool {
	t := int32(tick)
	seen, ok := p.emittedAt[t]
	if !ok {
		seen = map[uint8]bool{}
		p.emittedAt[t] = seen
	}
	if seen[note] {
		return true
	}
	seen[note] = true
	return false
}

// applyArtic scales dur by an articulation percentage (spec §4.5 "apply
// articulation multiplier").
func applyArtic(dur, artic int16) int32 {
	if artic <= 0 {
		artic = lpnlib.DefaultArtic
	}
	return int32(dur) * int32(artic) / 100
}

// loopPhase distinguishes the A/B manager's two instances.
type loopPhase int

const (
	phaseA loopPhase = iota
	phaseB
)

// PhraseLoopManager owns two PhraseLoop instances for seamless crossfade
// when a new phrase arrives mid-loop (spec §4.5).
//
// Grounded on original_source/src/elapse/phr_loop_mng.rs
// (PhrLoopManager/PhrLoopWrapper/LoopPhase).
type PhraseLoopManager struct {
	owner         *Part
	channel       uint8
	tickForOneMsr int32

	active  *PhraseLoop
	phase   loopPhase
	pending map[lpnlib.PhraseAsKind]pendingPhrase
}

type pendingPhrase struct {
	n    int
	data lpnlib.PhrData
}

func NewPhraseLoopManager(owner *Part, channel uint8, tickForOneMsr int32) *PhraseLoopManager {
	return &PhraseLoopManager{owner: owner, channel: channel, tickForOneMsr: tickForOneMsr, pending: map[lpnlib.PhraseAsKind]pendingPhrase{}}
}

// Receive applies the new-phrase arrival rules of spec §4.5 items 1-4.
func (m *PhraseLoopManager) Receive(data lpnlib.PhrData, startMsr int32, stk *Stack) {
	switch data.Vari.Kind {
	case lpnlib.AsVariation, lpnlib.AsMeasure:
		m.pending[data.Vari.Kind] = pendingPhrase{n: data.Vari.N, data: data}
		return
	}

	if m.active == nil {
		m.active = NewPhraseLoop(lpnlib.ElapseID{Type: lpnlib.TypePhraseLoop}, m.owner, m.channel, startMsr, m.tickForOneMsr, data)
		stk.AddElapse(m.active)
		return
	}

	// Rule 2: chasing-play when the new content is at least as long as
	// what's currently playing — instantiate at the old loop's begin and
	// forward-scan past every event before the old loop's elapsed tick.
	if data.WholeTick >= m.active.data.WholeTick {
		newLoop := NewPhraseLoop(lpnlib.ElapseID{Type: lpnlib.TypePhraseLoop}, m.owner, m.channel, m.active.startMsr, m.tickForOneMsr, data)
		newLoop.elapsed = m.active.elapsed
		for newLoop.cursor < len(newLoop.data.Evts) && int32(newLoop.data.Evts[newLoop.cursor].EvtTick()) < newLoop.elapsed {
			newLoop.cursor++
		}
		m.active.MarkDestroy()
		m.active = newLoop
		stk.AddElapse(m.active)
		return
	}

	// Rule 3 (and the "defer" branch of rule 2): queue for next loop end.
	m.pending[lpnlib.AsNormal] = pendingPhrase{data: data}
}

// MsrTop evaluates pending state reservations at the bar boundary (spec
// §4.7 item 1).
func (m *PhraseLoopManager) MsrTop(crnt lpnlib.CrntMsrTick, stk *Stack) {
	if p, ok := m.pending[lpnlib.AsMeasure]; ok && crnt.Msr+1 == int32(p.n) {
		delete(m.pending, lpnlib.AsMeasure)
		if m.active != nil {
			m.active.MarkDestroy()
		}
		m.active = NewPhraseLoop(lpnlib.ElapseID{Type: lpnlib.TypePhraseLoop}, m.owner, m.channel, crnt.Msr, m.tickForOneMsr, p.data)
		stk.AddElapse(m.active)
		return
	}
	if m.active == nil || m.active.DestroyMe() {
		if p, ok := m.pending[lpnlib.AsNormal]; ok {
			delete(m.pending, lpnlib.AsNormal)
			m.active = NewPhraseLoop(lpnlib.ElapseID{Type: lpnlib.TypePhraseLoop}, m.owner, m.channel, crnt.Msr, m.tickForOneMsr, p.data)
			stk.AddElapse(m.active)
		} else if p, ok := m.pending[lpnlib.AsVariation]; ok {
			delete(m.pending, lpnlib.AsVariation)
			m.active = NewPhraseLoop(lpnlib.ElapseID{Type: lpnlib.TypePhraseLoop}, m.owner, m.channel, crnt.Msr, m.tickForOneMsr, p.data)
			stk.AddElapse(m.active)
		}
	}
}

func (m *PhraseLoopManager) Active() *PhraseLoop { return m.active }
