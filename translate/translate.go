package translate

import "loopian/lpnlib"

// isThru reports whether a resolved table is the identity/pass-through
// table (12 consecutive semitones), in which case every translate function
// returns the input note unchanged (spec §4.3 "Table 0 ... and the THRU
// table pass input unchanged").
func isThru(tbl []int16) bool {
	if len(tbl) != 12 {
		return false
	}
	for i, v := range tbl {
		if v != int16(i) {
			return false
		}
	}
	return true
}

func clampOctaveWrap(n int16) int16 {
	for n < 0 {
		n += 12
	}
	for n >= 128 {
		n -= 12
	}
	return n
}

// ParallelScale implements the movable-scale translate mode (spec §4.3):
// transpose the input by paraNote (normally root - mode base, per
// IsMovableScale), then snap to the nearest table pitch-class, tie-broken
// by the table's "take upper" flag.
//
// Grounded on original_source/src/elapse/note_translation.rs::translate_note_parascl.
func ParallelScale(paraNote int16, ctbl int16, evNote uint8) uint8 {
	inputNt := int16(evNote) + paraNote
	inputDoremi := inputNt % 12
	inputOct := inputNt / 12
	var outputDoremi int16
	var formerNt int16

	tbl, takeUpper := GetTable(ctbl)
	if isThru(tbl) {
		return evNote
	}

	for _, ntx := range tbl {
		switch {
		case ntx == inputDoremi:
			outputDoremi = inputDoremi
			goto done
		case ntx > inputDoremi:
			if (inputDoremi-formerNt > ntx-inputDoremi) ||
				(inputDoremi-formerNt == ntx-inputDoremi && takeUpper) {
				outputDoremi = ntx
			}
			goto done
		default: // ntx < inputDoremi
			formerNt = ntx
			outputDoremi = formerNt
		}
	}
done:
	outputDoremi += inputOct * 12
	return uint8(clampOctaveWrap(outputDoremi))
}

// Common implements the common chord-table translate mode (spec §4.3):
// locate the octave slot around tgtNt, walk the table for the nearest scale
// tone, tie-broken by the table's "take upper" flag.
//
// Grounded on note_translation.rs::translate_note_com.
func Common(root int16, ctbl int16, tgtNtIn uint8) uint8 {
	tgtNt := int16(tgtNtIn)
	properNt := tgtNt

	tbl, takeUpper := GetTable(ctbl)
	if isThru(tbl) {
		return uint8(tgtNt)
	}

	realRoot := root + lpnlib.DefaultNoteNumber
	var formerNt int16
	found := false

	var octAdjust int16
	if tgtNt-realRoot >= 0 {
		octAdjust = (tgtNt - (realRoot + tbl[0])) / 12
	} else {
		octAdjust = ((tgtNt - 12) - (realRoot + tbl[0])) / 12
	}

	for _, ntx := range tbl {
		properNt = ntx + realRoot + octAdjust*12
		switch {
		case properNt == tgtNt:
			found = true
		case properNt > tgtNt:
			if (tgtNt-formerNt <= properNt-tgtNt) && !takeUpper {
				properNt = formerNt
			}
			found = true
		default:
			formerNt = properNt
			continue
		}
		break
	}
	if !found {
		properNt = tbl[0] + realRoot + (octAdjust+1)*12
		if (tgtNt-formerNt <= properNt-tgtNt) && !takeUpper {
			properNt = formerNt
		}
	}
	return uint8(clampOctaveWrap(properNt))
}

// Arp2 implements the direction-aware arpeggio translate mode (spec §4.3
// "Arpeggio"): like Common, but if the result would repeat last_note or
// move against the arpeggio direction it steps one scale note further in
// the intended direction.
//
// Grounded on note_translation.rs::translate_note_arp2.
func Arp2(root int16, ctbl int16, tgtNtIn uint8, ntDiff int16, lastNote int16) uint8 {
	tgtNt := int16(tgtNtIn)
	properNt := tgtNt

	tbl, takeUpper := GetTable(ctbl)
	if isThru(tbl) {
		return uint8(tgtNt)
	}

	realRoot := root + lpnlib.DefaultNoteNumber
	var formerNt int16
	found := false

	var octAdjust int16
	if tgtNt-realRoot >= 0 {
		octAdjust = (tgtNt - (realRoot + tbl[0])) / 12
	} else {
		octAdjust = ((tgtNt - 11) - (realRoot + tbl[0])) / 12
	}

	for _, ntx := range tbl {
		properNt = ntx + realRoot + octAdjust*12
		if properNt == tgtNt {
			found = true
			break
		} else if properNt > tgtNt {
			if (tgtNt-formerNt < properNt-tgtNt) ||
				(tgtNt-formerNt == properNt-tgtNt && !takeUpper) {
				properNt = formerNt
			}
			found = true
			break
		}
		formerNt = properNt
	}
	if !found {
		properNt = tbl[0] + realRoot + (octAdjust+1)*12
		if (tgtNt-formerNt < properNt-tgtNt) ||
			(tgtNt-formerNt == properNt-tgtNt && !takeUpper) {
			properNt = formerNt
		}
	}

	reverseOrRepeat := properNt == lastNote ||
		(properNt > lastNote && ntDiff < 0) ||
		(properNt < lastNote && ntDiff > 0)
	if reverseOrRepeat {
		if ntDiff > 0 {
			properNt = searchScaleNtJustAbove(root, tbl, properNt+1)
		} else {
			properNt = searchScaleNtJustBelow(root, tbl, properNt-1)
		}
	}

	return uint8(clampOctaveWrap(properNt))
}

// searchScaleNtJustAbove finds the nearest root/tbl pitch at or above nt.
func searchScaleNtJustAbove(root int16, tbl []int16, nt int16) int16 {
	var scaleNt int16
	octave := int16(-1)
	for nt > scaleNt {
		octave++
		scaleNt = root + octave*12
	}
	scaleNt = 0
	octave--
	cnt := int16(-1)
	for nt > scaleNt {
		cnt++
		if int(cnt) >= len(tbl) {
			octave++
			cnt = 0
		}
		scaleNt = root + tbl[cnt] + octave*12
	}
	return scaleNt
}

// searchScaleNtJustBelow finds the nearest root/tbl pitch at or below nt.
func searchScaleNtJustBelow(root int16, tbl []int16, nt int16) int16 {
	var scaleNt int16
	octave := int16(-1)
	for nt > scaleNt {
		octave++
		scaleNt = root + octave*12
	}
	scaleNt = lpnlib.WorkingMaxNoteNumber
	octave--
	cnt := int16(len(tbl))
	for nt < scaleNt {
		cnt--
		if cnt < 0 {
			octave--
			cnt = int16(len(tbl) - 1)
		}
		scaleNt = root + tbl[cnt] + octave*12
	}
	return scaleNt
}
