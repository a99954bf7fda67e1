package main

import (
	"strings"
	"time"

	"loopian/compiler"
	"loopian/elapse"
	"loopian/lpnlib"
)

// dispatchPart handles every CLI-surface command that isn't one of the
// bare verbs/set-fields session.dispatch already matches directly: the
// per-part phrase/composition/pedal literals and the rit.<strength>.<target>
// tempo-curve command.
func (s *session) dispatchPart(line string) (string, bool) {
	if strings.HasPrefix(line, "rit.") {
		return s.dispatchRit(line), true
	}

	name, body, ok := splitPartPrefix(line)
	if !ok {
		return "", false
	}
	part, ok := s.parts[name]
	if !ok {
		return "what?", true
	}

	msr, _, _, _ := s.stk.TG.GetTick()

	switch {
	case strings.HasPrefix(body, "dmp["):
		return s.dispatchPedal(part, body, msr), true
	case strings.HasPrefix(body, "["):
		return s.dispatchPhrase(part, body, msr), true
	case strings.HasPrefix(body, "{"):
		return s.dispatchComposition(part, body), true
	default:
		return "what?", true
	}
}

// splitPartPrefix splits "L1.[...]" into ("L1", "[...]"); it accepts a
// trailing ".mod" (accepted but not modeled beyond ordinary recompilation,
// spec does not define variation-modifier semantics beyond the grammar
// line itself) by stripping it before the body is inspected.
func splitPartPrefix(line string) (name, body string, ok bool) {
	dot := strings.IndexByte(line, '.')
	if dot < 0 {
		return "", "", false
	}
	name = line[:dot]
	body = line[dot+1:]
	if !isPartName(name) {
		return "", "", false
	}
	body = strings.TrimSuffix(body, ".mod")
	return name, body, true
}

func isPartName(s string) bool {
	for _, n := range partNames {
		if n == s {
			return true
		}
	}
	return false
}

func (s *session) dispatchPhrase(part *elapse.Part, body string, msr int32) string {
	data, err := compiler.CompilePhrase(body, s.tickForOneMsr, s.tickForOneBeat(), part.BaseNote(), part.InputMode(), s.stk.TG.BPM())
	if err != nil {
		return cliErrorText(err)
	}
	part.ReceivePhrase(data, msr, s.stk)
	return "ok"
}

func (s *session) dispatchComposition(part *elapse.Part, body string) string {
	data, err := compiler.CompileComposition(body, s.tickForOneMsr, s.tickForOneBeat())
	if err != nil {
		return cliErrorText(err)
	}
	part.ReceiveComposition(data, s.tickForOneMsr, s.tickForOneBeat(), s.beatNum)
	return "ok"
}

func (s *session) dispatchPedal(part *elapse.Part, body string, msr int32) string {
	inner := strings.TrimSuffix(strings.TrimPrefix(body, "dmp["), "]")
	evts, err := compiler.CompilePedal(inner, int(s.beatNum), s.tickForOneBeat())
	if err != nil {
		return cliErrorText(err)
	}
	phrEvts := make([]lpnlib.PhrEvt, len(evts))
	for i, e := range evts {
		phrEvts[i] = e
	}
	part.ReceivePhrase(lpnlib.PhrData{Evts: phrEvts, WholeTick: s.tickForOneMsr}, msr, s.stk)
	return "ok"
}

func (s *session) dispatchRit(line string) string {
	fields := strings.Split(line, ".")
	if len(fields) < 3 {
		return "what?"
	}
	strength := parseRitStrength(fields[1])
	target := fields[2]

	now := s.stk.TG
	var rt lpnlib.RitTarget
	switch target {
	case "fermata":
		rt.IsFermata = true
	case "atempo":
		rt.IsAtempo = true
	default:
		n, err := parseInt(target)
		if err != nil {
			return "Number is wrong."
		}
		rt.TargetBPM = n
	}

	targetBPM := int32(rt.TargetBPM)
	switch {
	case rt.IsFermata:
		targetBPM = 0
	case rt.IsAtempo:
		targetBPM = now.BPM()
	}
	now.BeginRitardando(time.Now(), strength, 1, targetBPM)
	return "ok"
}

func parseRitStrength(s string) lpnlib.RitStrength {
	switch s {
	case "poco":
		return lpnlib.RitPoco
	case "molto":
		return lpnlib.RitMolto
	default:
		return lpnlib.RitNormal
	}
}

func cliErrorText(err error) string {
	switch err.(type) {
	case *lpnlib.RangeError:
		return "Number is wrong."
	default:
		return "what?"
	}
}
