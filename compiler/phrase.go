package compiler

import (
	"strconv"
	"strings"

	"loopian/lpnlib"
)

// solfege maps the letter-name pitch syllables to a pitch class relative to
// the prevailing key (major-scale degrees I..VII). Grounded on
// original_source/src/cmd/txt2seq_phr.rs's do-re-mi note-name table.
var solfege = map[byte]int16{
	'd': 0, 'r': 2, 'm': 4, 'f': 5, 's': 7, 'l': 9, 't': 11,
}

var dynamicLevels = map[string]uint8{
	"pp": 30, "p": 45, "mp": 60, "mf": 75, "f": 90, "ff": 105, "fff": 120,
}

// CompilePhrase turns bracketed phrase text ("[d,r,m,f]:A3.dyn(f)") into a
// PhrData: tick-accurate PhrEvt vector plus its AnaEvt analysis (spec §4.2
// "Phrase compilation", passes 1-10). bpm drives pass 10's beat-position
// velocity humanizer.
//
// Grounded on original_source/src/cmd/txt2seq_phr.rs.
func CompilePhrase(src string, tickForOneMsr, tickForOneBeat int32, partBaseNote uint8, mode lpnlib.InputMode, bpm int32) (lpnlib.PhrData, error) {
	body, trailing, ok := separateBrackets(src)
	if !ok {
		return lpnlib.PhrData{}, &lpnlib.ParseError{Source: src, Reason: "missing matching ']'"}
	}

	doLoop := true
	if strings.HasSuffix(body, "//") {
		doLoop = false
		body = body[:len(body)-2]
	}

	attrs := splitAttributes(trailing)

	body = expandArrowBrackets(body)
	tokens := fillRests(body)
	tokens = expandSameNoteRepeats(tokens)
	if attrs.rptCount > 1 {
		tokens = applyRpt(tokens, attrs.rptCount)
	}
	split := splitAcciaccatura(tokens)

	evts, err := recombinePhrase(split, tickForOneMsr, tickForOneBeat, partBaseNote, mode, attrs)
	if err != nil {
		return lpnlib.PhrData{}, err
	}

	whole := tickForOneMsr
	for _, e := range evts {
		end := int32(e.EvtTick())
		switch v := e.(type) {
		case lpnlib.NoteListEvt:
			end += int32(v.Dur)
		case lpnlib.NoteEvt:
			end += int32(v.Dur)
		case lpnlib.ClusterEvt:
			end += int32(v.Dur)
		case lpnlib.ArpEvt:
			end += int32(v.Dur)
		}
		for end > whole {
			whole += tickForOneMsr
		}
	}

	humanizeVelocity(evts, tickForOneMsr, tickForOneBeat, bpm)
	ana := analyzePhrase(evts, attrs)

	return lpnlib.PhrData{
		WholeTick: whole,
		DoLoop:    doLoop,
		Evts:      evts,
		Ana:       ana,
		Vari:      attrs.vari,
		Auftakt:   attrs.auftakt,
		TurnNote:  partBaseNote,
		NoPed:     attrs.noPed,
	}, nil
}

// --- pass 1: bracket separation -------------------------------------------

func separateBrackets(src string) (body, trailing string, ok bool) {
	start := strings.Index(src, "[")
	if start < 0 {
		return "", "", false
	}
	depth := 0
	for i := start; i < len(src); i++ {
		switch src[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return src[start+1 : i], src[i+1:], true
			}
		}
	}
	return "", "", false
}

// --- pass 2/3: attribute and function-chain split -------------------------

type phraseAttrs struct {
	auftakt  int
	rptCount int
	dynBase  uint8
	artic    int16
	trns     lpnlib.TransMode
	noPed    bool
	vari     lpnlib.PhraseAs
}

func splitAttributes(trailing string) phraseAttrs {
	a := phraseAttrs{dynBase: dynamicLevels["mf"], artic: lpnlib.DefaultArtic, vari: lpnlib.Normal()}

	dot := strings.IndexByte(trailing, '.')
	var attrPart, modPart string
	if dot < 0 {
		attrPart, modPart = trailing, ""
	} else {
		attrPart, modPart = trailing[:dot], trailing[dot:]
	}

	for _, seg := range strings.Split(attrPart, ":") {
		if seg == "" {
			continue
		}
		if seg[0] == 'A' && len(seg) > 1 {
			if n, err := strconv.Atoi(seg[1:]); err == nil {
				a.auftakt = n
			}
		}
	}

	for _, mod := range strings.Split(modPart, ".") {
		if mod == "" {
			continue
		}
		name, arg := splitCall(mod)
		switch name {
		case "dyn":
			if v, ok := dynamicLevels[arg]; ok {
				a.dynBase = v
			}
		case "stacc":
			if n, err := strconv.Atoi(arg); err == nil {
				a.artic = int16(n)
			}
		case "legato":
			if n, err := strconv.Atoi(arg); err == nil {
				a.artic = int16(n)
			} else {
				a.artic = 150
			}
		case "rpt":
			if n, err := strconv.Atoi(arg); err == nil && n > 0 {
				a.rptCount = n
			}
		case "dmp":
			if arg == "off" {
				a.noPed = true
			}
		case "trns":
			switch arg {
			case "para":
				a.trns = lpnlib.TransPara
			case "no":
				a.trns = lpnlib.TransNoTrns
			default:
				a.trns = lpnlib.TransCom
			}
		case "as":
			if arg == "" {
				break
			}
			if n, err := strconv.Atoi(arg); err == nil {
				a.vari = lpnlib.MeasureBound(n)
			} else if n, err := strconv.Atoi(strings.TrimPrefix(arg, "V")); err == nil {
				a.vari = lpnlib.Variation(n)
			}
		}
	}
	return a
}

// splitCall splits "name(arg)" into ("name","arg"); a bare "name" yields ("name","").
func splitCall(s string) (name, arg string) {
	open := strings.IndexByte(s, '(')
	if open < 0 {
		return s, ""
	}
	close := strings.LastIndexByte(s, ')')
	if close < open {
		return s[:open], ""
	}
	return s[:open], s[open+1 : close]
}

// --- pass 4: arrow-bracket expansion ---------------------------------------

// expandArrowBrackets unfolds "<inner>*n" into n comma-joined copies of
// inner, and distributes a trailing mark over "<inner>mark" (each
// comma-separated element of inner receives mark appended).
func expandArrowBrackets(body string) string {
	for {
		start := strings.IndexByte(body, '<')
		if start < 0 {
			return body
		}
		end := strings.IndexByte(body[start:], '>')
		if end < 0 {
			return body
		}
		end += start
		inner := body[start+1 : end]
		rest := body[end+1:]

		var replacement string
		if strings.HasPrefix(rest, "*") {
			i := 1
			for i < len(rest) && rest[i] >= '0' && rest[i] <= '9' {
				i++
			}
			n, _ := strconv.Atoi(rest[1:i])
			if n <= 0 {
				n = 1
			}
			copies := make([]string, n)
			for k := range copies {
				copies[k] = inner
			}
			replacement = strings.Join(copies, ",")
			rest = rest[i:]
		} else if rest != "" {
			markEnd := 0
			for markEnd < len(rest) && rest[markEnd] != ',' && rest[markEnd] != '|' && rest[markEnd] != '<' {
				markEnd++
			}
			mark := rest[:markEnd]
			parts := strings.Split(inner, ",")
			for i, p := range parts {
				parts[i] = p + mark
			}
			replacement = strings.Join(parts, ",")
			rest = rest[markEnd:]
		} else {
			replacement = inner
		}
		body = body[:start] + replacement + rest
	}
}

// --- pass 5: rest filling ---------------------------------------------------

// fillRests splits the body into tokens, turning an empty comma-delimited
// cell into an explicit rest ("x") and normalizing '/' to a bar-line token.
func fillRests(body string) []string {
	var tokens []string
	var cur strings.Builder
	depth := 0
	flush := func() {
		t := cur.String()
		if t == "" {
			t = "x"
		}
		tokens = append(tokens, t)
		cur.Reset()
	}
	for i := 0; i < len(body); i++ {
		c := body[i]
		switch c {
		case '(':
			depth++
			cur.WriteByte(c)
		case ')':
			depth--
			cur.WriteByte(c)
		case ',':
			if depth > 0 {
				cur.WriteByte(c)
			} else {
				flush()
			}
		case '|', '/':
			if depth > 0 {
				cur.WriteByte(c)
			} else {
				flush()
				tokens = append(tokens, "|")
			}
		default:
			cur.WriteByte(c)
		}
	}
	if cur.Len() > 0 || len(tokens) == 0 || tokens[len(tokens)-1] != "|" {
		flush()
	}
	return tokens
}

// --- pass 6: same-note / phrase repeat --------------------------------------

// expandSameNoteRepeats expands a trailing "*n" shorthand on a single token
// into n consecutive copies of that token.
func expandSameNoteRepeats(tokens []string) []string {
	var out []string
	for _, tok := range tokens {
		if tok == "|" || tok == "x" {
			out = append(out, tok)
			continue
		}
		star := strings.LastIndexByte(tok, '*')
		if star < 0 {
			out = append(out, tok)
			continue
		}
		n, err := strconv.Atoi(tok[star+1:])
		if err != nil || n <= 0 {
			out = append(out, tok)
			continue
		}
		base := tok[:star]
		for i := 0; i < n; i++ {
			out = append(out, base)
		}
	}
	return out
}

const rptMarker = "$RPT"

// applyRpt duplicates the whole token stream rptCount times, inserting an
// InfoEvt(RptHead) marker at the start of each repetition (spec §4.2 pass 6
// "$RPT").
func applyRpt(tokens []string, rptCount int) []string {
	var out []string
	for i := 0; i < rptCount; i++ {
		out = append(out, rptMarker)
		out = append(out, tokens...)
	}
	return out
}

// --- pass 7: acciaccatura split ----------------------------------------------

type splitToken struct {
	grace []string // grace-note cores, played just before main, each AcciaccaturaTicks long
	main  string
}

// splitAcciaccatura peels a leading "(g1,g2)note..." grace-note group off a
// token, leaving the remainder as the host note.
func splitAcciaccatura(tokens []string) []splitToken {
	out := make([]splitToken, 0, len(tokens))
	for _, tok := range tokens {
		if tok == "|" || tok == "x" || tok == rptMarker || len(tok) == 0 || tok[0] != '(' {
			out = append(out, splitToken{main: tok})
			continue
		}
		// A parenthesised group is a chord (pitches already given, remainder
		// is at most a duration suffix) unless the remainder itself opens
		// with a pitch letter, in which case the parens are grace notes
		// leading into that following host note.
		close := strings.IndexByte(tok, ')')
		if close < 0 {
			out = append(out, splitToken{main: tok})
			continue
		}
		remainder := tok[close+1:]
		if remainder == "" || !startsWithPitch(remainder) {
			out = append(out, splitToken{main: tok})
			continue
		}
		grace := strings.Split(tok[1:close], ",")
		out = append(out, splitToken{grace: grace, main: remainder})
	}
	return out
}

// startsWithPitch reports whether s opens with a rest marker or a solfège
// pitch letter (ignoring a leading octave-shift run), distinguishing an
// acciaccatura's host note from a bare chord's duration suffix.
func startsWithPitch(s string) bool {
	i := 0
	for i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	if i >= len(s) {
		return false
	}
	if s[i] == 'x' {
		return true
	}
	_, ok := solfege[s[i]]
	return ok
}

// --- pass 8: recombination ---------------------------------------------------

func recombinePhrase(tokens []splitToken, tickForOneMsr, tickForOneBeat int32, partBaseNote uint8, mode lpnlib.InputMode, attrs phraseAttrs) ([]lpnlib.PhrEvt, error) {
	var evts []lpnlib.PhrEvt

	tick := int32(0)
	if attrs.auftakt > 1 {
		tick = int32(attrs.auftakt-1) * tickForOneBeat
	}
	msr := int32(1)
	lastNote := int16(partBaseNote)
	vel := int16(attrs.dynBase)
	dur := int16(lpnlib.TickForQuarter)

	for _, st := range tokens {
		if st.main == rptMarker {
			evts = append(evts, lpnlib.InfoEvt{Tick: int16(tick), Kind: lpnlib.InfoRptHead})
			continue
		}
		if st.main == "|" {
			msr++
			tick = tickForOneMsr * (msr - 1)
			continue
		}

		for _, g := range st.grace {
			if g == "" {
				continue
			}
			note, nextVel, err := resolveNote(g, mode, partBaseNote, &lastNote, vel)
			if err != nil {
				return nil, err
			}
			vel = nextVel
			evts = append(evts, lpnlib.NoteEvt{
				Tick: int16(tick - lpnlib.AcciaccaturaTicks), Dur: lpnlib.AcciaccaturaTicks,
				Note: note, Vel: uint8(clampVel(vel)), Amp: 1.0, Trns: attrs.trns, Artic: attrs.artic,
			})
		}

		if kind, prefixLen := detectDynPattern(st.main); kind != dpNone {
			evt, nextVel, thisDur, err := resolveDynPattern(st.main, kind, prefixLen, dur, mode, partBaseNote, &lastNote, vel)
			if err != nil {
				return nil, err
			}
			vel = nextVel
			dur = thisDur
			switch v := evt.(type) {
			case lpnlib.ClusterEvt:
				v.Tick = int16(tick)
				evts = append(evts, v)
			case lpnlib.ArpEvt:
				v.Tick = int16(tick)
				evts = append(evts, v)
			}
			tick += int32(dur)
			continue
		}

		body, thisDur, tie, err := parseNoteBody(st.main, dur)
		if err != nil {
			return nil, err
		}
		dur = thisDur

		if body == "x" || body == "" {
			tick += int32(dur)
			continue
		}

		pitches := strings.Split(body, ",")
		notes := make([]uint8, 0, len(pitches))
		for _, p := range pitches {
			if p == "" {
				continue
			}
			note, nextVel, err := resolveNote(p, mode, partBaseNote, &lastNote, vel)
			if err != nil {
				return nil, err
			}
			vel = nextVel
			notes = append(notes, note)
		}
		if len(notes) == 0 {
			tick += int32(dur)
			continue
		}

		if tie && len(evts) > 0 {
			switch last := evts[len(evts)-1].(type) {
			case lpnlib.NoteEvt:
				last.Dur += dur
				evts[len(evts)-1] = last
				tick += int32(dur)
				continue
			case lpnlib.NoteListEvt:
				last.Dur += dur
				evts[len(evts)-1] = last
				tick += int32(dur)
				continue
			}
		}

		if len(notes) == 1 {
			evts = append(evts, lpnlib.NoteEvt{
				Tick: int16(tick), Dur: dur, Note: notes[0], Vel: uint8(clampVel(vel)),
				Amp: 1.0, Trns: attrs.trns, Artic: attrs.artic,
			})
		} else {
			evts = append(evts, lpnlib.NoteListEvt{
				Tick: int16(tick), Dur: dur, Notes: notes, Vel: uint8(clampVel(vel)),
				Amp: 1.0, Trns: attrs.trns, Artic: attrs.artic,
			})
		}
		tick += int32(dur)
	}
	return evts, nil
}

// dpKind distinguishes a Cluster token ("C("/"Cls(") from an Arp token
// ("A("/"Arp(").
type dpKind int

const (
	dpNone dpKind = iota
	dpCluster
	dpArp
)

// detectDynPattern reports whether tok opens a dynamic-pattern group, and
// the offset into tok right after its opening '(' (spec §4.2 pass 8
// dynamic-pattern tokens; spec §4.5 priority-350 pattern objects).
func detectDynPattern(tok string) (kind dpKind, prefixLen int) {
	switch {
	case strings.HasPrefix(tok, "Cls("):
		return dpCluster, len("Cls(")
	case strings.HasPrefix(tok, "C("):
		return dpCluster, len("C(")
	case strings.HasPrefix(tok, "Arp("):
		return dpArp, len("Arp(")
	case strings.HasPrefix(tok, "A("):
		return dpArp, len("A(")
	default:
		return dpNone, 0
	}
}

// arpFigureFromLetter maps a dynamic-arp direction letter to its ArpFigure
// ("u" up, "d" down, "ud" up-then-down, "du" down-then-up; unrecognised
// defaults to up).
func arpFigureFromLetter(s string) lpnlib.ArpFigure {
	switch s {
	case "d":
		return lpnlib.ArpDown
	case "ud":
		return lpnlib.ArpUpDown
	case "du":
		return lpnlib.ArpDownUp
	default:
		return lpnlib.ArpUp
	}
}

// resolveDynPattern parses a Cluster ("C(lowest,maxVoices,eachDur)" /
// "Cls(...)") or Arp ("A(lowest,figure,eachDur)" / "Arp(...)") token into a
// ClusterEvt/ArpEvt. A duration suffix after the closing ')' gives the
// pattern's overall span, using the same duration-letter grammar and
// duration-persists rule as every other token.
//
// Grounded on original_source/src/cmd/txt2seq_dp.rs's available_for_dp/
// treat_dp/gen_dp_pattern, adapted to this compiler's comma-separated
// parameter list and duration-letter table rather than Rust's
// '@'-delimited fields and single-letter calc_dur codes.
func resolveDynPattern(tok string, kind dpKind, prefixLen int, prevDur int16, mode lpnlib.InputMode, partBaseNote uint8, lastNote *int16, vel int16) (lpnlib.PhrEvt, int16, int16, error) {
	closeIdx := strings.IndexByte(tok[prefixLen:], ')')
	if closeIdx < 0 {
		return nil, 0, 0, &lpnlib.ParseError{Source: tok, Reason: "unterminated dynamic pattern group"}
	}
	closeIdx += prefixLen
	inner := tok[prefixLen:closeIdx]
	suffix := tok[closeIdx+1:]

	fields := strings.Split(inner, ",")
	if fields[0] == "" {
		return nil, 0, 0, &lpnlib.ParseError{Source: tok, Reason: "dynamic pattern needs a lowest-note spec"}
	}

	lowest, nextVel, err := resolveNote(fields[0], mode, partBaseNote, lastNote, vel)
	if err != nil {
		return nil, 0, 0, err
	}
	vel = nextVel

	dur, consumed := decideDur(suffix)
	if consumed == 0 {
		dur = prevDur
	}

	eachDurField := ""
	if len(fields) > 2 {
		eachDurField = fields[2]
	}
	eachDur, _ := decideDur(eachDurField)

	if kind == dpCluster {
		maxVoices := 0
		if len(fields) > 1 && fields[1] != "" {
			if n, err := strconv.Atoi(fields[1]); err == nil {
				maxVoices = n
			}
		}
		return lpnlib.ClusterEvt{
			Dur: dur, EachDur: eachDur, LowestNote: lowest,
			Vel: uint8(clampVel(vel)), MaxVoices: maxVoices,
		}, vel, dur, nil
	}

	figure := lpnlib.ArpUp
	if len(fields) > 1 {
		figure = arpFigureFromLetter(fields[1])
	}
	return lpnlib.ArpEvt{
		Dur: dur, EachDur: eachDur, LowestNote: lowest,
		Figure: figure, Vel: uint8(clampVel(vel)),
	}, vel, dur, nil
}

func clampVel(v int16) int16 {
	if v < 1 {
		return 1
	}
	if v > 127 {
		return 127
	}
	return v
}

// parseNoteBody splits a recombination-ready token into its pitch core,
// resolved duration, and tie flag, carrying forward the previous duration
// when none is specified (spec §4.2 pass 8 "duration persists").
func parseNoteBody(tok string, prevDur int16) (core string, dur int16, tie bool, err error) {
	if tok == "x" {
		return "x", prevDur, false, nil
	}
	s := tok
	tie = strings.HasSuffix(s, "_")
	if tie {
		s = s[:len(s)-1]
	}
	s = strings.TrimSuffix(s, "!")
	s = strings.TrimSuffix(s, "~")

	if strings.HasPrefix(s, "(") {
		close := strings.IndexByte(s, ')')
		if close < 0 {
			return "", 0, false, &lpnlib.ParseError{Source: tok, Reason: "unterminated chord group"}
		}
		core = s[1:close]
		rest := s[close+1:]
		d, consumed := decideDur(rest)
		if consumed > 0 {
			dur = d
		} else {
			dur = prevDur
		}
		return core, dur, tie, nil
	}

	// Scan the pitch-core prefix (octave shifts + letter + accidental +
	// velocity marks), then treat anything after it as a duration suffix.
	i := 0
	for i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	if i < len(s) {
		i++ // letter or 'x'
	}
	for i < len(s) && (s[i] == 'i' || s[i] == 'a' || s[i] == '^' || s[i] == '%') {
		i++
	}
	core = s[:i]
	d, consumed := decideDur(s[i:])
	if consumed > 0 {
		dur = d
	} else {
		dur = prevDur
	}
	return core, dur, tie, nil
}

// resolveNote resolves one pitch spec (octave shifts, solfège letter,
// accidental, velocity marks) to an absolute MIDI note per InputMode, and
// returns the running velocity after applying any ^/% deltas.
func resolveNote(spec string, mode lpnlib.InputMode, baseNote uint8, lastNote *int16, vel int16) (uint8, int16, error) {
	i := 0
	octShift := int16(0)
	for i < len(spec) && (spec[i] == '+' || spec[i] == '-') {
		if spec[i] == '+' {
			octShift += 12
		} else {
			octShift -= 12
		}
		i++
	}
	if i >= len(spec) {
		return 0, vel, &lpnlib.ParseError{Source: spec, Reason: "empty pitch token"}
	}
	pc, ok := solfege[spec[i]]
	if !ok {
		return 0, vel, &lpnlib.ParseError{Source: spec, Reason: "unrecognised pitch letter"}
	}
	i++
	for i < len(spec) {
		switch spec[i] {
		case 'i':
			pc++
		case 'a':
			pc--
		case '^':
			vel = clampVel(vel + lpnlib.VelUp)
		case '%':
			vel = clampVel(vel + lpnlib.VelDown)
		}
		i++
	}

	var note int16
	switch mode {
	case lpnlib.InputFixed:
		// Fixed mode never chases last_note: the octave is the part's base
		// octave, moved only by this token's own explicit +/- shifts.
		note = (int16(baseNote)/12)*12 + pc + octShift
	case lpnlib.InputUpcloser:
		note = nearestAtOrAbove(*lastNote, pc) + octShift
	default: // InputCloser
		note = nearestWithin(*lastNote, pc) + octShift
	}

	if note < lpnlib.MinNoteNumber {
		note = lpnlib.MinNoteNumber
	}
	if note > lpnlib.MaxNoteNumber {
		note = lpnlib.MaxNoteNumber
	}
	*lastNote = note
	return uint8(note), vel, nil
}

// nearestWithin resolves pc to the octave nearest lastNote (diff in (-6,6]),
// the "closer" InputMode (spec §4.2 pass 8).
func nearestWithin(lastNote, pc int16) int16 {
	candidate := (lastNote/12)*12 + pc
	for candidate-lastNote > 6 {
		candidate -= 12
	}
	for candidate-lastNote <= -6 {
		candidate += 12
	}
	return candidate
}

// nearestAtOrAbove resolves pc to the nearest pitch >= lastNote, the
// "upcloser" InputMode.
func nearestAtOrAbove(lastNote, pc int16) int16 {
	candidate := (lastNote/12)*12 + pc
	for candidate < lastNote {
		candidate += 12
	}
	return candidate
}

// --- pass 9: beat/chord analysis ---------------------------------------------

func analyzePhrase(evts []lpnlib.PhrEvt, attrs phraseAttrs) []lpnlib.AnaEvt {
	var ana []lpnlib.AnaEvt
	if attrs.noPed {
		ana = append(ana, lpnlib.ExpAna{Tick: 0, AType: lpnlib.ExpNoPed})
	}
	for _, e := range evts {
		switch v := e.(type) {
		case lpnlib.NoteEvt:
			ana = append(ana, lpnlib.BeatAna{Tick: v.Tick, Dur: v.Dur, HighestNote: v.Note, VoiceCount: 1, TranslateOption: v.Trns})
		case lpnlib.NoteListEvt:
			highest := uint8(0)
			for _, n := range v.Notes {
				if n > highest {
					highest = n
				}
			}
			ana = append(ana, lpnlib.BeatAna{Tick: v.Tick, Dur: v.Dur, HighestNote: highest, VoiceCount: len(v.Notes), TranslateOption: v.Trns})
		}
	}
	return ana
}

// --- pass 10: beat-position velocity humanizer -------------------------------

const (
	humanizeMinBPM  = 60
	humanizeEffect  = 20
	humanizeMinVelo = 30
	humanizeMaxVelo = 127
)

// humanizeVelocity re-weights velocity by beat position within the measure,
// scaled by how far bpm sits above 60; below that it is a no-op (spec §4.2
// pass 10 "beat filter").
func humanizeVelocity(evts []lpnlib.PhrEvt, tickForOneMsr, tickForOneBeat, bpm int32) {
	if bpm < humanizeMinBPM {
		return
	}
	for i, e := range evts {
		switch v := e.(type) {
		case lpnlib.NoteEvt:
			v.Vel = beatHumanize(v.Vel, int32(v.Tick), tickForOneMsr, tickForOneBeat, bpm)
			evts[i] = v
		case lpnlib.NoteListEvt:
			v.Vel = beatHumanize(v.Vel, int32(v.Tick), tickForOneMsr, tickForOneBeat, bpm)
			evts[i] = v
		}
	}
}

// beatHumanize picks the 4/4, 3/4, or 3n/8 formula by meter shape and
// applies it; a meter matching none of the three passes velocity through
// unchanged.
//
// Grounded on original_source/src/cmd/txt2seq_ana.rs::calc_vel_for4/
// calc_vel_for3/calc_vel_for3_8.
func beatHumanize(vel uint8, tick, tickForOneMsr, tickForOneBeat, bpm int32) uint8 {
	const quarter = int32(lpnlib.TickForQuarter)
	switch {
	case tickForOneMsr == quarter*4:
		return accentVel4(vel, tick, bpm)
	case tickForOneMsr == quarter*3 && tickForOneBeat == quarter:
		return accentVel3(vel, tick, bpm)
	case (tickForOneMsr/(quarter/2))%3 == 0 && tickForOneBeat == quarter/2:
		return accentVel38(vel, tick, bpm)
	default:
		return vel
	}
}

// accentVel4 is the 4/4 formula: downbeat (beat 1) gains base, beat 3 gains
// a quarter of base, the off-beats (2, 4) lose a quarter of base.
func accentVel4(vel uint8, tick, bpm int32) uint8 {
	const quarter = int32(lpnlib.TickForQuarter)
	base := (bpm - humanizeMinBPM) * humanizeEffect / 100
	v := int32(vel)
	switch (tick % (quarter * 4)) / quarter {
	case 0:
		v += base
	case 2:
		v += base / 4
	default:
		v -= base / 4
	}
	return clampVeloLo(v)
}

// accentVel3 is the 3/4 formula: downbeat gains base, beat 2 gains a
// quarter of base, beat 3 loses a quarter of base.
func accentVel3(vel uint8, tick, bpm int32) uint8 {
	const quarter = int32(lpnlib.TickForQuarter)
	base := (bpm - humanizeMinBPM) * humanizeEffect / 100
	v := int32(vel)
	switch (tick % (quarter * 3)) / quarter {
	case 0:
		v += base
	case 1:
		v += base / 4
	default:
		v -= base / 4
	}
	return clampVeloLo(v)
}

// accentVel38 is the 3n/8 formula: base is halved and re-anchored at
// bpm >= 120 (the doubled-minimum for an eighth-note pulse), floored at 2
// below that; the downbeat eighth gains base, the other two lose a quarter.
func accentVel38(vel uint8, tick, bpm int32) uint8 {
	const eighth = int32(lpnlib.TickForQuarter) / 2
	base := int32(2)
	if bpm >= humanizeMinBPM*2 {
		base = (bpm - humanizeMinBPM*2) * humanizeEffect / 200
	}
	v := int32(vel)
	if (tick%(eighth*3))/eighth == 0 {
		v += base
	} else {
		v -= base / 4
	}
	return clampVeloLo(v)
}

// clampVeloLo clamps to [humanizeMinVelo, humanizeMaxVelo], the pass-10
// floor being well above clampVel's general [1,127] range.
func clampVeloLo(v int32) uint8 {
	if v > humanizeMaxVelo {
		return humanizeMaxVelo
	}
	if v < humanizeMinVelo {
		return humanizeMinVelo
	}
	return uint8(v)
}
