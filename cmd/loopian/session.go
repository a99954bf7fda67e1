package main

import (
	"fmt"
	"time"

	"loopian/config"
	"loopian/elapse"
	"loopian/lpnlib"
	"loopian/midiio"
)

// partNames is the fixed L1/L2/R1/R2 part addressing; L* parts are
// left-hand (base note one octave below DefaultNoteNumber).
var partNames = []string{"L1", "L2", "R1", "R2"}

// session owns every piece of live state a running instance needs: the
// scheduler, its parts, the damper coordinator, and the current
// tick/meter/key bookkeeping the CLI surface's `set` commands mutate.
//
// A single struct gluing device, ticker, and state together behind simple
// method calls keeps main small and testable.
type session struct {
	stk    *elapse.Stack
	parts  map[string]*elapse.Part
	damper *elapse.DamperPart

	key           string
	mode          lpnlib.InputMode
	beatNum       int32
	beatDenom     int32
	tickForOneMsr int32
	turnNote      uint8

	uiOut chan lpnlib.UIMessage
}

func newSession(cfg *config.Session, sink midiio.Sink) *session {
	uiOut := make(chan lpnlib.UIMessage, 64)
	stk := elapse.NewStack(time.Now(), sink, uiOut)
	stk.TG.ChangeBPM(cfg.BPM)
	stk.TG.ChangeBeat(lpnlib.TickForOneMeasure*cfg.Beat.Num/cfg.Beat.Denom, cfg.Beat.Num, cfg.Beat.Denom)

	s := &session{
		stk: stk, parts: map[string]*elapse.Part{},
		key: cfg.Key, mode: cfg.InputMode.Resolve(),
		beatNum: cfg.Beat.Num, beatDenom: cfg.Beat.Denom,
		tickForOneMsr: stk.TG.TickForOneMsr(),
		turnNote:      cfg.TurnNote,
		uiOut:         uiOut,
	}

	for i, name := range partNames {
		isLeft := name[0] == 'L'
		channel := uint8(i)
		p := elapse.NewPart(lpnlib.ElapseID{PID: uint32(i), Type: lpnlib.TypePart}, i, channel, s.tickForOneMsr, isLeft)
		p.SetInputMode(s.mode)
		stk.AddPart(p)
		s.parts[name] = p
	}

	s.damper = elapse.NewDamperPart(lpnlib.ElapseID{Type: lpnlib.TypeDamper}, 0)
	stk.AddElapse(s.damper)

	return s
}

func (s *session) start() {
	s.stk.Periodic(time.Now())
	for _, p := range s.parts {
		p.Start(0)
	}
	s.damper.Start(0)
}

func (s *session) tickForOneBeat() int32 {
	return s.tickForOneMsr / s.beatNum
}

// barDuration is the wall-clock span of one measure at the current
// bpm/meter, used by render mode to advance its simulated clock one bar at
// a time between dispatched commands.
func (s *session) barDuration() time.Duration {
	beatSeconds := 60.0 / float64(s.stk.TG.BPM())
	return time.Duration(beatSeconds*float64(s.beatNum)*4/float64(s.beatDenom)*1000) * time.Millisecond
}

// dispatch interprets one CLI-surface line against the live session,
// returning a short response string on failure.
func (s *session) dispatch(line string) string {
	if line == "" {
		return ""
	}
	cmd, rest := splitFirst(line)
	switch cmd {
	case "set":
		return s.dispatchSet(rest)
	case "play":
		s.start()
		return "ok"
	case "stop":
		s.stk.Stop()
		return "ok"
	case "panic":
		s.stk.Panic()
		return "ok"
	case "fine":
		return "ok"
	case "quit":
		return "bye"
	default:
		if resp, ok := s.dispatchPart(line); ok {
			return resp
		}
		return "what?"
	}
}

func splitFirst(line string) (head, rest string) {
	for i := 0; i < len(line); i++ {
		if line[i] == ' ' {
			return line[:i], trimLeadingSpace(line[i+1:])
		}
	}
	return line, ""
}

func trimLeadingSpace(s string) string {
	for len(s) > 0 && s[0] == ' ' {
		s = s[1:]
	}
	return s
}

func (s *session) dispatchSet(rest string) string {
	field, value := splitFirst(rest)
	switch field {
	case "key":
		s.key = value
		s.postUI(lpnlib.UITagKey, value)
	case "bpm":
		n, err := parseInt(value)
		if err != nil || n <= 0 {
			return "Number is wrong."
		}
		s.stk.TG.ChangeBPM(int32(n))
		s.postUI(lpnlib.UITagBPM, value)
	case "beat":
		num, denom, ok := parseFraction(value)
		if !ok || num <= 0 || denom <= 0 {
			return "Number is wrong."
		}
		s.beatNum, s.beatDenom = num, denom
		s.tickForOneMsr = lpnlib.TickForOneMeasure * num / denom
		s.stk.TG.ChangeBeat(s.tickForOneMsr, num, denom)
		s.postUI(lpnlib.UITagBeat, value)
	case "input":
		s.mode = parseInputMode(value)
		for _, p := range s.parts {
			p.SetInputMode(s.mode)
		}
	case "turnnote":
		n, err := parseInt(value)
		if err != nil || n < lpnlib.MinNoteNumber || n > lpnlib.MaxNoteNumber {
			return "Number is wrong."
		}
		s.turnNote = uint8(n)
	case "oct", "msr", "path":
		// Accepted but not modeled further: a bare octave/measure nudge
		// and settings-file path are covered by the per-part/composition
		// input paths directly.
	default:
		return "what?"
	}
	return "ok"
}

func (s *session) postUI(tag lpnlib.UITag, payload string) {
	s.stk.PostUI(lpnlib.UIMessage{Tag: tag, Payload: payload})
}

func parseInputMode(s string) lpnlib.InputMode {
	switch s {
	case "closer":
		return lpnlib.InputCloser
	case "upcloser":
		return lpnlib.InputUpcloser
	default:
		return lpnlib.InputFixed
	}
}

func parseInt(s string) (int, error) {
	neg := false
	if len(s) > 0 && s[0] == '-' {
		neg = true
		s = s[1:]
	}
	if s == "" {
		return 0, fmt.Errorf("empty number")
	}
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("not a number: %q", s)
		}
		n = n*10 + int(c-'0')
	}
	if neg {
		n = -n
	}
	return n, nil
}

func parseFraction(s string) (num, denom int32, ok bool) {
	for i := 0; i < len(s); i++ {
		if s[i] == '/' {
			n, err1 := parseInt(s[:i])
			d, err2 := parseInt(s[i+1:])
			if err1 != nil || err2 != nil {
				return 0, 0, false
			}
			return int32(n), int32(d), true
		}
	}
	return 0, 0, false
}
