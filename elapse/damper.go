package elapse

import "loopian/lpnlib"

// DamperNote is the pedal-equivalent of Note: it emits CC64 "full down" on
// first process and CC64 "up" once its duration elapses (spec §4.8 "each
// run becomes a down/up CC64 pair").
//
// Grounded on original_source/src/elapse/elapse_note.rs's Damper struct.
type DamperNote struct {
	Base
	msr, tick int32
	channel   uint8
	firedDown bool
	upMsr     int32
	upTick    int32
}

func NewDamperNote(id lpnlib.ElapseID, msr, tick int32, channel uint8, durTicks int32, tickForOneMsr int32) *DamperNote {
	d := &DamperNote{Base: NewBase(id), msr: msr, tick: tick, channel: channel}
	upMsr, upTick := msr, tick+durTicks
	for upTick >= tickForOneMsr {
		upTick -= tickForOneMsr
		upMsr++
	}
	d.upMsr, d.upTick = upMsr, upTick
	return d
}

func (d *DamperNote) Prio() int { return lpnlib.PriDamper }

func (d *DamperNote) Next() (int32, int32, bool) {
	if !d.firedDown {
		return d.msr, d.tick, false
	}
	return d.upMsr, d.upTick, false
}

func (d *DamperNote) Start(startMsr int32) {}

func (d *DamperNote) Process(crnt lpnlib.CrntMsrTick, stk *Stack) {
	if !d.firedDown {
		_ = stk.Sink.ControlChange(d.channel, 64, 127)
		d.firedDown = true
		return
	}
	_ = stk.Sink.ControlChange(d.channel, 64, 0)
	d.MarkDestroy()
}

func (d *DamperNote) Stop(stk *Stack) {
	if d.firedDown && !d.DestroyMe() {
		_ = stk.Sink.ControlChange(d.channel, 64, 0)
	}
	d.MarkDestroy()
}

func (d *DamperNote) Clear(stk *Stack) { d.Stop(stk) }

// run is a contiguous beat-span in which some part's chord was active.
type run struct {
	startBeat, endBeat int32
}

// DamperPart is the per-measure coordinator: at each bar top it merges the
// chord-activity beat-map from every registered Part's composition
// mediator (OR'd together, unless any active phrase on that part requests
// NoPed, which blanks the whole bar), derives contiguous runs, and spawns
// one DamperNote per run with a 60-tick margin so the pedal lifts just
// before the next chord's attack (spec §4.8).
//
// Grounded on original_source/src/elapse/elapse_damper.rs's DamperPart
// (merge_chord_map / gen_real_damper_track).
type DamperPart struct {
	Base
	channel uint8

	nextMsr, nextTick int32
	events            []run
	tickForOneBeat    int32
	playCounter       int
	seq               uint32
}

func NewDamperPart(id lpnlib.ElapseID, channel uint8) *DamperPart {
	return &DamperPart{Base: NewBase(id), channel: channel}
}

func (d *DamperPart) Prio() int { return lpnlib.PriDamper }

func (d *DamperPart) Next() (int32, int32, bool) { return d.nextMsr, d.nextTick, false }

func (d *DamperPart) Start(startMsr int32) {
	d.nextMsr, d.nextTick = startMsr, 0
}

func (d *DamperPart) Stop(stk *Stack)  {}
func (d *DamperPart) Clear(stk *Stack) { d.events = nil; d.nextTick = 0 }

func (d *DamperPart) Process(crnt lpnlib.CrntMsrTick, stk *Stack) {
	if crnt.NewMsr || d.tickForOneBeat == 0 {
		d.generate(crnt, stk)
	}
	for d.playCounter < len(d.events) {
		r := d.events[d.playCounter]
		tick := r.startBeat*d.tickForOneBeat + lpnlib.PedalMarginTick
		if tick > crnt.Tick {
			break
		}
		dur := (r.endBeat-r.startBeat)*d.tickForOneBeat - 2*lpnlib.PedalMarginTick
		if dur < 0 {
			dur = 0
		}
		d.seq++
		stk.AddElapse(NewDamperNote(lpnlib.ElapseID{SID: d.seq, Type: lpnlib.TypeDamper}, crnt.Msr, tick, d.channel, dur, crnt.TickForOneMsr))
		d.playCounter++
	}
	if d.playCounter >= len(d.events) {
		d.nextMsr, d.nextTick = crnt.Msr+1, 0
	} else {
		d.nextMsr, d.nextTick = crnt.Msr, d.events[d.playCounter].startBeat*d.tickForOneBeat+lpnlib.PedalMarginTick
	}
}

// generate rebuilds the run list for the current measure (spec §4.8 "at
// the top of each bar").
func (d *DamperPart) generate(crnt lpnlib.CrntMsrTick, stk *Stack) {
	beatTick := crnt.TickForOneMsr / 4
	if d.tickForOneBeat == 0 {
		num, _ := stk.TG.Beat()
		if num > 0 {
			beatTick = crnt.TickForOneMsr / num
		}
	}
	d.tickForOneBeat = beatTick
	beatNum := crnt.TickForOneMsr / d.tickForOneBeat
	if beatNum <= 0 {
		beatNum = 1
	}

	chordMap := make([]bool, beatNum)
	blanked := false
	for _, p := range stk.parts {
		if p.phrase.Active() != nil && p.phrase.Active().data.NoPed {
			blanked = true
			break
		}
		cur := p.cmps.Current()
		if cur == nil {
			continue
		}
		for b, onset := range cur.OnsetBeats(crnt.Msr) {
			if onset {
				chordMap[b] = true
			}
		}
	}
	if blanked {
		for i := range chordMap {
			chordMap[i] = false
		}
	}

	d.events = nil
	d.playCounter = 0
	keep := beatNum // sentinel: no run open
	for j := int32(0); j < beatNum; j++ {
		if !chordMap[j] {
			continue
		}
		if keep != beatNum {
			d.events = append(d.events, run{startBeat: keep, endBeat: j})
		}
		keep = j
	}
	if keep != beatNum {
		d.events = append(d.events, run{startBeat: keep, endBeat: beatNum})
	}
}
