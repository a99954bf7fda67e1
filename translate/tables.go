// Package translate implements C3, the note translator, and carries the
// closed 58-entry chord/scale table that both the composition compiler
// (producer) and the translator (consumer) must agree on bit-for-bit
// (spec §3 "fixed producer/consumer mapping").
//
// Grounded verbatim on original_source/src/cmd/txt2seq_cmps.rs's
// CHORD_TABLE and interval constants.
package translate

import "loopian/lpnlib"

var (
	thru       = []int16{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}
	major      = []int16{0, 4, 7}
	minor      = []int16{0, 3, 7}
	m7th       = []int16{0, 4, 7, 10}
	maj6th     = []int16{0, 4, 7, 9}
	min6th     = []int16{0, 3, 7, 9}
	min7th     = []int16{0, 3, 7, 10}
	maj7th     = []int16{0, 4, 7, 11}
	minmaj7th  = []int16{0, 3, 7, 11}
	add9th     = []int16{0, 2, 4, 7}
	m9th       = []int16{0, 2, 4, 7, 10}
	min9th     = []int16{0, 2, 3, 7, 10}
	maj9th     = []int16{0, 2, 4, 7, 11}
	minmaj9th  = []int16{0, 2, 3, 7, 11}
	aug5th     = []int16{0, 4, 8}
	aug57th    = []int16{0, 4, 8, 10}
	aug7th     = []int16{0, 4, 8, 11}
	m7mns9     = []int16{0, 1, 4, 7, 10}
	m7pls9     = []int16{0, 3, 4, 7, 10}
	dim        = []int16{0, 3, 6}
	dim7       = []int16{0, 3, 6, 9}
	min7m5     = []int16{0, 3, 6, 10}
	sus4       = []int16{0, 5, 7}
	m7sus4     = []int16{0, 5, 7, 10}
	maj9add6   = []int16{0, 2, 4, 7, 9, 11}
	ionian     = []int16{0, 2, 4, 5, 7, 9, 11}
	dorianS    = []int16{0, 2, 3, 5, 7, 9, 10}
	lydianS    = []int16{0, 2, 4, 6, 7, 9, 11}
	mixolydianS = []int16{0, 2, 4, 5, 7, 9, 10}
	aeolianS   = []int16{0, 2, 3, 5, 7, 8, 10}
	comdim     = []int16{0, 2, 3, 5, 6, 8, 9, 11}
	pentatonic = []int16{0, 2, 4, 7, 9}
	blues      = []int16{0, 3, 5, 6, 7, 10}
	errTbl     = []int16{0}
	noneTbl    = []int16{0}
	sc1        = []int16{0, 1, 3, 5, 6, 8, 10}
	sc2        = []int16{1, 2, 4, 6, 7, 9, 11}
	sc3        = []int16{0, 2, 3, 5, 7, 8, 10}
	sc4        = []int16{1, 3, 4, 6, 8, 9, 11}
	sc6        = []int16{1, 3, 5, 6, 8, 10, 11}
	sc8        = []int16{0, 1, 3, 5, 7, 8, 10}
	sc9        = []int16{1, 2, 4, 6, 8, 9, 11}
	sc10       = []int16{0, 2, 3, 5, 7, 9, 10}
	sc11       = []int16{1, 3, 4, 6, 8, 10, 11}
)

type chordTable struct {
	name  string
	table []int16
}

// chordTables is CHORD_TABLE, in order; indices are meaningful (see
// NO_LOOP / MaxChordTable / NoPedTableNum below) and MUST NOT be reordered.
var chordTables = [...]chordTable{
	{"X", thru}, // noped
	{"O", thru},
	{"_", major},
	{"_m", minor},
	{"_7", m7th},
	{"_m7", min7th},
	{"_6", maj6th},
	{"_m6", min6th},
	{"_M7", maj7th},
	{"_maj7", maj7th},

	{"_mM7", minmaj7th},
	{"_add9", add9th},
	{"_9", m9th},
	{"_m9", min9th},
	{"_M9", maj9th},
	{"_mM9", minmaj9th},
	{"_maj9", maj9th},
	{"_+5", aug5th},
	{"_aug", aug5th},
	{"_7+5", aug57th},

	{"_aug7", aug7th},
	{"_7-9", m7mns9},
	{"_7+9", m7pls9},
	{"_M96", maj9add6},
	{"_dim", dim},
	{"_dim7", dim7},
	{"_m7-5", min7m5},
	{"_sus4", sus4},
	{"_7sus4", m7sus4},
	// parasc(29-34): movable/parallel scale, applies even without para()
	{"_chr", thru},

	{"_ion", ionian},
	{"_dor", ionian},
	{"_lyd", ionian},
	{"_mix", ionian},
	{"_aeo", ionian},
	{"diatonic", ionian},
	{"dorian", dorianS},
	{"lydian", lydianS},
	{"mixolydian", mixolydianS},
	{"aeolian", aeolianS},

	{"comdim", comdim},
	{"pentatonic", pentatonic},
	{"blues", blues},
	// scale n (43-54): diatonic scale n semitones up
	{"sc0", ionian},
	{"sc1", sc1},
	{"sc2", sc2},
	{"sc3", sc3},
	{"sc4", sc4},
	{"sc5", mixolydianS},
	{"sc6", sc6},

	{"sc7", lydianS},
	{"sc8", sc8},
	{"sc9", sc9},
	{"sc10", sc10},
	{"sc11", sc11},
	{"Err", errTbl},
	{"None", noneTbl},
	{"LPEND", noneTbl}, // causes playback to stop in the elapse layer
}

// MaxChordTable is the closed table size (spec §3 "58 named pitch-class sets").
const MaxChordTable = len(chordTables)

// NoLoop is the table index meaning "stop looping" (the LPEND control entry).
const NoLoop = int16(MaxChordTable - 1)

// NoPedTableNum is the table index that disables pedaling ('X').
const NoPedTableNum = 0

// RootName is the ordinal-degree name table used by root encoding/decoding.
var RootName = [7]string{"I", "II", "III", "IV", "V", "VI", "VII"}

// GetTable resolves a table index to its interval set and the "take upper"
// tie-break flag encoded by adding lpnlib.Upper to force it.
func GetTable(idxNum int16) (table []int16, takeUpper bool) {
	idx := idxNum
	upper := false
	if idx > lpnlib.Upper {
		idx -= lpnlib.Upper
		upper = true
	}
	if idx < 0 || int(idx) >= MaxChordTable {
		idx = int16(MaxChordTable - 2) // None
	}
	return chordTables[idx].table, upper
}

// GetTableName is the inverse of GetTableNum, used for UI chord-name display.
func GetTableName(idxNum int16) string {
	if idxNum == lpnlib.NoTable {
		return ""
	}
	idx := idxNum
	if idx > lpnlib.Upper {
		idx -= lpnlib.Upper
	}
	if idx < 0 || int(idx) >= MaxChordTable {
		idx = int16(MaxChordTable - 2)
	}
	return chordTables[idx].name
}

// GetTableNum looks up a chord-table index by its text name (e.g. "_m7"),
// defaulting to "None" (MaxChordTable-2) when not found, exactly matching
// the original's convert_chord_to_num fallback.
func GetTableNum(kind string) int16 {
	table := int16(MaxChordTable - 2)
	for i, t := range chordTables {
		if t.name == kind {
			table = int16(i)
			break
		}
	}
	return table
}

// churchScaleBaseNote supplies the diatonic base note for the movable-scale
// church modes _chr.._aeo, by offset from GetTableNum("_chr").
var churchScaleBaseNote = [6]int16{0, 0, 2, 5, 7, 9}

// IsMovableScale reports whether idxNum names one of the movable-scale
// church modes, and if so the transposition amount (root - mode base) mod 12
// to apply before the common-table walk (spec §4.3 "Movable-scale").
func IsMovableScale(idxNum int16, root int16) (movable bool, transpose int16) {
	idx := idxNum
	if idx > lpnlib.Upper {
		idx -= lpnlib.Upper
	}
	lo := GetTableNum("_chr")
	hi := GetTableNum("_aeo")
	if idx >= lo && idx <= hi {
		base := int16(0)
		if i := int(idx - lo); i < len(churchScaleBaseNote) {
			base = churchScaleBaseNote[i]
		}
		rt := (root - base) % 12
		return true, rt
	}
	return false, 0
}
