package compiler

import "loopian/lpnlib"

// CompilePedal turns a dedicated pedal phrase ("_,-,*,!") into a DamperEvt
// vector, one character per beat (spec §4.2 "Pedal compilation").
//
// '_' full damper, '-' half damper, '*' off, ',' momentary off (a single
// beat's worth of off sandwiched between full/half), ';' momentary half,
// and a trailing '!' at the end of the measure continues the same position
// into the next measure rather than releasing.
//
// Grounded on original_source/src/elapse/elapse_pedal.rs's per-beat lattice
// merge (Full > Half > Off > NoEvt).
func CompilePedal(src string, beatsPerMsr int, tickForOneBeat int32) ([]lpnlib.DamperEvt, error) {
	var evts []lpnlib.DamperEvt
	beat := 0
	msr := int32(1)
	tick := int32(0)
	continueNext := false

	runes := []rune(src)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		var pos lpnlib.PedalPos
		momentary := false
		switch c {
		case '_':
			pos = lpnlib.PedalFull
		case '-':
			pos = lpnlib.PedalHalf
		case '*':
			pos = lpnlib.PedalOff
		case ',':
			pos = lpnlib.PedalOff
			momentary = true
		case ';':
			pos = lpnlib.PedalHalf
			momentary = true
		case '!':
			continueNext = true
			continue
		case '|':
			msr++
			beat = 0
			tick = tickForOneBeat * int32(beatsPerMsr) * (msr - 1)
			continue
		default:
			continue
		}

		evts = append(evts, lpnlib.DamperEvt{
			Tick: int16(tick), Msr: msr, Beat: int16(beat + 1), Front: true, Position: pos,
		})
		if momentary {
			evts = append(evts, lpnlib.DamperEvt{
				Tick: int16(tick + lpnlib.PedalMarginTick), Msr: msr, Beat: int16(beat + 1), Front: false, Position: lpnlib.PedalOff,
			})
		}

		tick += tickForOneBeat
		beat++
		if beat >= beatsPerMsr {
			beat = 0
			msr++
		}
	}

	if !continueNext && len(evts) > 0 {
		last := evts[len(evts)-1]
		if last.Position != lpnlib.PedalOff {
			evts = append(evts, lpnlib.DamperEvt{Tick: last.Tick + lpnlib.PedalMarginTick, Msr: last.Msr, Beat: last.Beat, Front: false, Position: lpnlib.PedalOff})
		}
	}

	return mergePedalLattice(evts), nil
}

// mergePedalLattice collapses multiple events landing on the same tick to
// the highest-precedence position (Full > Half > Off > NoEvt), matching the
// original's per-beat lattice merge across overlapping parts.
func mergePedalLattice(evts []lpnlib.DamperEvt) []lpnlib.DamperEvt {
	byTick := map[int16]lpnlib.DamperEvt{}
	order := []int16{}
	for _, e := range evts {
		cur, ok := byTick[e.Tick]
		if !ok {
			order = append(order, e.Tick)
			byTick[e.Tick] = e
			continue
		}
		if e.Position > cur.Position {
			byTick[e.Tick] = e
		}
	}
	out := make([]lpnlib.DamperEvt, 0, len(order))
	for _, t := range order {
		out = append(out, byTick[t])
	}
	return out
}
