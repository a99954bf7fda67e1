package compiler

import (
	"strings"

	"loopian/lpnlib"
	"loopian/translate"
)

// const LAST, the duration sentinel meaning "hold to end of measure" used by
// recombine_to_chord_loop's bar-line handling.
const lastDur = -1

// CompileComposition turns `{X_|C_|Am...}` body text into a CmpData
// (spec §4.2 "Composition compilation").
//
// Grounded on original_source/src/cmd/txt2seq_cmps.rs
// (complement_composition/divide_brace/fill_omitted_chord_data/
// recombine_to_chord_loop/divide_chord_and_dur/convert_chord_to_num).
func CompileComposition(src string, tickForOneMsr, tickForOneBeat int32) (lpnlib.CmpData, error) {
	body, ok := divideBrace(src)
	if !ok {
		return lpnlib.CmpData{}, &lpnlib.ParseError{Source: src, Reason: "missing closing '}'"}
	}
	cells := fillOmittedChordData(body)
	wholeTick, doLoop, evts := recombineToChordLoop(cells, tickForOneMsr, tickForOneBeat)
	return lpnlib.CmpData{WholeTick: wholeTick, DoLoop: doLoop, Evts: evts}, nil
}

func divideBrace(src string) (string, bool) {
	if !strings.HasPrefix(src, "{") {
		return "", false
	}
	end := strings.Index(src, "}")
	if end < 0 {
		return "", false
	}
	return src[1:end], true
}

// fillOmittedChordData re-fills omitted chords (a cell with no chord text,
// such as the one between two consecutive separators, becomes the literal
// "X", i.e. no chord; it does not repeat the previous chord) and splits by
// comma into one cell per chord-or-barline token.
func fillOmittedChordData(cmps string) []string {
	if len(cmps) == 0 {
		return []string{""}
	}
	if strings.HasSuffix(cmps, "//") {
		cmps = cmps[:len(cmps)-1] + "LPEND"
	}

	const noChord = "X"
	var fill strings.Builder
	chord := noChord
	endFlag := true

	for _, ltr := range cmps {
		switch ltr {
		case ',':
			fill.WriteString(chord)
			fill.WriteByte(',')
			chord = noChord
			endFlag = true
		case '/', '|':
			fill.WriteString(chord)
			fill.WriteString("|,")
			chord = noChord
			endFlag = true
		default:
			if endFlag {
				chord = string(ltr)
				endFlag = false
			} else {
				chord += string(ltr)
			}
		}
	}
	if chord != "" {
		fill.WriteString(chord)
	}
	fill.WriteByte('|')

	out := strings.ReplaceAll(fill.String(), " ", "")
	return strings.Split(out, ",")
}

// recombineToChordLoop walks the cell list tick-by-tick, resolving each
// cell's duration-dot extension, @-variation switch, and chord/root/table
// encoding, producing the final CmpEvt vector.
func recombineToChordLoop(comp []string, tickForOneMsr, tickForOneBeat int32) (int32, bool, []lpnlib.CmpEvt) {
	if len(comp) == 0 {
		return 0, true, nil
	}
	var (
		tick      int32
		msr       int32 = 1
		sameChord       = "path"
		rcmb      []lpnlib.CmpEvt
	)

	for _, raw := range comp {
		msgs := raw
		var variEvt *lpnlib.VariEvt

		if strings.Contains(msgs, "@") {
			// Mirrors the original's `msgs.split('@')`: only the first two
			// parts are consulted, matching convert_chord_to_num's own
			// single-'@' assumption.
			parts := strings.SplitN(msgs, "@", 3)
			part0, part1 := parts[0], parts[1]
			var num int
			if len(part1) > 0 && part1[0] >= '0' && part1[0] <= '9' {
				num = int(part1[0] - '0')
			}
			if len(part1) > 1 {
				msgs = part0 + part1[1:]
			} else {
				msgs = part0
			}
			if msgs == "" {
				msgs = "X"
			}
			if num > 0 && num <= 9 {
				variEvt = &lpnlib.VariEvt{Vari: int16(num)}
			}
		}

		msgs = normalizeChordLetter(msgs)
		chord, dur := divideChordAndDur(msgs)
		if dur != lastDur {
			tick += tickForOneBeat * int32(dur)
		}
		if dur == lastDur || tick >= tickForOneMsr*msr {
			tick = tickForOneMsr * msr
			msr++
		}

		if chord == "" {
			chord = sameChord
		} else {
			sameChord = chord
		}

		if variEvt != nil {
			variEvt.Tick = int16(tick)
			rcmb = append(rcmb, *variEvt)
		}

		root, table := ConvertChordToNum(chord)
		rcmb = append(rcmb, lpnlib.ChordEvt{Tick: int16(tick), Root: root, Table: table})
	}

	doLoop := true
	if len(rcmb) > 0 {
		if last, ok := rcmb[len(rcmb)-1].(lpnlib.ChordEvt); ok && last.Table == translate.NoLoop {
			doLoop = false
			rcmb = rcmb[:len(rcmb)-1]
		}
	}
	return msr * tickForOneMsr, doLoop, rcmb
}

// divideChordAndDur strips a trailing '|' (bar-line: hold to end of
// measure) and counts trailing '.' as duration-extension beats.
func divideChordAndDur(chord string) (string, int) {
	dur := 1
	msrLine := false
	if strings.HasSuffix(chord, "|") {
		chord = chord[:len(chord)-1]
		msrLine = true
	}
	for strings.HasSuffix(chord, ".") {
		dur++
		chord = chord[:len(chord)-1]
	}
	if msrLine {
		dur = lastDur
	}
	return chord, dur
}

// letterToRoman maps an absolute letter-name chord root to its roman-numeral
// degree in the current (assumed C-major) key, so a composer can write "C_"
// as shorthand for "I_" (see DESIGN.md "Open question decisions" #3).
var letterToRoman = map[byte]string{
	'C': "I", 'D': "II", 'E': "III", 'F': "IV", 'G': "V", 'A': "VI", 'B': "VII",
}

// normalizeChordLetter rewrites a leading absolute letter name (with an
// optional '#'/'b') into its roman-numeral equivalent; text already in
// roman-numeral form passes through unchanged.
func normalizeChordLetter(chord string) string {
	if chord == "" {
		return chord
	}
	roman, ok := letterToRoman[chord[0]]
	if !ok {
		return chord
	}
	return roman + chord[1:]
}

// ConvertChordToNum is the one true root/table encoding shared by producer
// (this compiler) and consumer (translate.Common/Arp2) — spec §3's "fixed
// producer/consumer mapping" invariant.
//
// root = alteration offset (b=1, natural=2, #=3) + 3 * diatonic degree index
// (I..VII = 0..6); table is resolved via translate.GetTableNum, with a
// trailing '!' forcing the upper-neighbour tie-break (+lpnlib.Upper).
func ConvertChordToNum(chordIn string) (root int16, table int16) {
	chord := chordIn
	root = 2
	takeUpper := false

	if strings.HasSuffix(chord, "!") {
		takeUpper = true
		chord = chord[:len(chord)-1]
	}

	rootStr := ""
	i := 0
	runes := []rune(chord)
	for i < len(runes) {
		switch runes[i] {
		case 'I', 'V':
			rootStr += string(runes[i])
			i++
			continue
		case 'b':
			root = 1
			i++
			continue
		case '#':
			root = 3
			i++
			continue
		}
		break
	}

	kind := ""
	if len(runes) > i {
		kind = string(runes[i:])
	}

	found := false
	for idx, rn := range translate.RootName {
		if rn == rootStr {
			root += int16(3 * idx)
			if !strings.HasPrefix(kind, "_") {
				kind = "_" + kind
			}
			found = true
			break
		}
	}
	if !found {
		root = lpnlib.NoRoot
	}

	table = translate.GetTableNum(kind)
	if takeUpper {
		table += lpnlib.Upper
	}
	return root, table
}
