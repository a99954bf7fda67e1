// Package tickgen implements C1, the wall-clock-to-tick converter every
// other component reads the transport position from.
//
// Grounded on original_source/src/elapse/tickgen.rs (TickGen/CrntMsrTick/
// calc_crnt_tick) and stack_elapse.rs's rit() dispatcher (strength table,
// bpm_stock/fermata_stock bookkeeping).
package tickgen

import (
	"time"

	"loopian/lpnlib"
)

// TickGen converts elapsed wall-clock time into (measure, tick) coordinates
// at the current bpm/meter, re-anchoring whenever bpm or meter changes so
// that past ticks are never recomputed retroactively.
type TickGen struct {
	bpm           int32
	beatNum       int32
	beatDenom     int32
	tickForOneMsr int32

	bpmStartTime time.Time
	bpmStartTick int32
	beatStartMsr int32

	crntMsr       int32
	crntTickInMsr int32
	crntTime      time.Time

	rit *ritardando
}

// New returns a TickGen at the default 120bpm, 4/4.
func New(now time.Time) *TickGen {
	return &TickGen{
		bpm:           120,
		beatNum:       4,
		beatDenom:     4,
		tickForOneMsr: lpnlib.TickForOneMeasure,
		bpmStartTime:  now,
		crntMsr:       -1,
		crntTime:      now,
	}
}

// ChangeBeat re-anchors the tick origin at a meter change (spec §4.1).
func (t *TickGen) ChangeBeat(tickForOneMsr int32, num, denom int32) {
	t.tickForOneMsr = tickForOneMsr
	t.beatNum, t.beatDenom = num, denom
	t.beatStartMsr = t.crntMsr
	t.bpmStartTime = t.crntTime
	t.bpmStartTick = 0
}

// ChangeBPM re-anchors the tick origin at a tempo change, preserving the
// tick already elapsed so the transport never jumps.
func (t *TickGen) ChangeBPM(bpm int32) {
	if bpm <= 0 {
		return
	}
	t.bpmStartTick = t.calcCrntTick()
	t.bpmStartTime = t.crntTime
	t.bpm = bpm
}

// BeginRitardando starts a ritardando curve toward targetBPM over the given
// number of bars, at the given curve strength (spec §4.1 "Rit").
//
// The exact decay mechanics are not present in the retrieved original
// source (stack_elapse.rs calls tg.start_rit but tickgen.rs's own
// implementation of it was not part of the retrieval pack) — this
// implements a geometric bpm decay (the remaining distance above targetBPM
// multiplied by strength/100 for each elapsed bar, landing on targetBPM once
// the requested bar count has elapsed), which is the
// simplest model consistent with RitStrength's documented 95/80/75 curve
// coefficients (spec §4.1, lpnlib.RitStrength.Strength).
func (t *TickGen) BeginRitardando(now time.Time, strength lpnlib.RitStrength, bars int32, targetBPM int32) {
	if bars <= 0 {
		bars = 1
	}
	t.rit = &ritardando{
		startBPM:  t.bpm,
		targetBPM: targetBPM,
		strength:  strength.Strength(),
		startMsr:  t.crntMsr,
		bars:      bars,
	}
	_ = now
}

type ritardando struct {
	startBPM, targetBPM int32
	strength            int // percentage decay coefficient per bar
	startMsr            int32
	bars                int32
}

// bpmAt returns the decayed bpm at barsElapsed bars into the curve, landing
// exactly on targetBPM once barsElapsed reaches r.bars.
func (r *ritardando) bpmAt(barsElapsed int32) int32 {
	if barsElapsed >= r.bars {
		return r.targetBPM
	}
	span := r.startBPM - r.targetBPM
	decayed := span
	for i := int32(0); i < barsElapsed; i++ {
		decayed = decayed * int32(r.strength) / 100
	}
	return r.targetBPM + decayed
}

// GetCrntMsrTick advances the generator to crntTime and returns the new
// (measure, tick) position (spec §4.1's per-tick transport read).
func (t *TickGen) GetCrntMsrTick(crntTime time.Time) lpnlib.CrntMsrTick {
	formerMsr := t.crntMsr
	t.crntTime = crntTime

	if t.rit != nil {
		barsElapsed := t.crntMsr - t.rit.startMsr
		if barsElapsed < 0 {
			barsElapsed = 0
		}
		nextBPM := t.rit.bpmAt(barsElapsed)
		if nextBPM != t.bpm {
			t.ChangeBPM(nextBPM)
		}
		if barsElapsed >= t.rit.bars {
			t.rit = nil
		}
	}

	tickFromBeatStart := t.calcCrntTick()
	t.crntMsr = tickFromBeatStart/t.tickForOneMsr + t.beatStartMsr
	t.crntTickInMsr = tickFromBeatStart % t.tickForOneMsr
	return lpnlib.CrntMsrTick{
		Msr:           t.crntMsr,
		Tick:          t.crntTickInMsr,
		TickForOneMsr: t.tickForOneMsr,
		NewMsr:        t.crntMsr != formerMsr,
	}
}

// GetTick returns the (measure, beat, tick-within-beat, ticks-per-beat)
// quadruple used for UI display (spec §4.1).
func (t *TickGen) GetTick() (msr, beat, tick, tickForBeat int32) {
	tickForBeat = lpnlib.TickForOneMeasure / t.beatDenom
	msr = t.crntMsr + 1
	beat = t.crntTickInMsr/tickForBeat + 1
	tick = t.crntTickInMsr % tickForBeat
	return
}

func (t *TickGen) TickForOneMsr() int32 { return t.tickForOneMsr }
func (t *TickGen) BPM() int32           { return t.bpm }
func (t *TickGen) Beat() (num, denom int32) { return t.beatNum, t.beatDenom }

func (t *TickGen) calcCrntTick() int32 {
	diff := t.crntTime.Sub(t.bpmStartTime).Seconds()
	elapsed := (float64(lpnlib.TickForQuarter) * float64(t.bpm) * diff) / 60.0
	return int32(elapsed) + t.bpmStartTick
}
