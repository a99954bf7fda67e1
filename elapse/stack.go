package elapse

import (
	"sort"
	"time"

	"loopian/lpnlib"
	"loopian/midiio"
	"loopian/tickgen"
)

// Stack is C9, the process-wide scheduler singleton. It owns the tick
// generator, the live elapse object list, the MIDI sink, and the per-pitch
// active-voice counters that suppress a NoteOff while another overlapping
// voice still holds the same pitch (spec §4.9, §5).
//
// Grounded on stack_elapse.rs's ElapseStack (periodic/pick_out_playable/
// per-type message dispatch) adapted to the teacher's
// player/realtime.go mutex-guarded single-owner-goroutine pattern — here
// Stack itself is NOT internally mutex-guarded because spec §5 mandates a
// single-threaded-cooperative core; the mutex lives one level up, in
// cmd/loopian's runPlay, which holds it around every Periodic call and
// every dispatched command line.
type Stack struct {
	TG   *tickgen.TickGen
	Sink midiio.Sink

	parts   []*Part
	objects []Elapse

	voiceCount map[voiceKey]int

	bpmStock     int32
	fermataStock bool
	duringPlay   bool

	uiOut chan<- lpnlib.UIMessage

	overrunGuard int
}

type voiceKey struct {
	channel uint8
	note    uint8
}

func NewStack(now time.Time, sink midiio.Sink, uiOut chan<- lpnlib.UIMessage) *Stack {
	return &Stack{
		TG:         tickgen.New(now),
		Sink:       sink,
		voiceCount: map[voiceKey]int{},
		uiOut:      uiOut,
	}
}

// AddPart registers one of the fixed user-addressable parts (spec §4.9
// "Vector of Parts").
func (s *Stack) AddPart(p *Part) {
	s.parts = append(s.parts, p)
	s.objects = append(s.objects, p)
}

// AddElapse inserts a new scheduled object (e.g. a spawned Note), preserving
// insertion order for the scheduler's tie-break (spec §4.4).
func (s *Stack) AddElapse(e Elapse) {
	s.objects = append(s.objects, e)
}

func (s *Stack) Part(index int) *Part {
	if index < 0 || index >= len(s.parts) {
		return nil
	}
	return s.parts[index]
}

// NoteOnVoice increments the active-voice counter for (channel,note) and
// always emits the NoteOn (repeated NoteOns are never suppressed — only
// NoteOff is, per spec §5).
func (s *Stack) NoteOnVoice(channel, note, velocity uint8) error {
	s.voiceCount[voiceKey{channel, note}]++
	return s.Sink.NoteOn(channel, note, velocity)
}

// NoteOffVoice decrements the active-voice counter and only emits the wire
// NoteOff once it reaches zero (spec §5 "per-pitch voice counter").
func (s *Stack) NoteOffVoice(channel, note uint8) error {
	key := voiceKey{channel, note}
	if s.voiceCount[key] > 0 {
		s.voiceCount[key]--
	}
	if s.voiceCount[key] > 0 {
		return nil
	}
	delete(s.voiceCount, key)
	return s.Sink.NoteOff(channel, note)
}

// Periodic runs one scheduler tick (spec §4.9 steps 2-8): advance C1, pick
// and process playable objects to a fixed point (bounded by
// lpnlib.MaxPickIterations), then sweep destroyed objects.
func (s *Stack) Periodic(now time.Time) (lpnlib.CrntMsrTick, error) {
	crnt := s.TG.GetCrntMsrTick(now)

	if crnt.NewMsr {
		for _, p := range s.parts {
			p.MsrTop(crnt, s)
		}
	}

	iterations := 0
	for {
		playable := s.pickPlayable(crnt)
		if len(playable) == 0 {
			break
		}
		for _, e := range playable {
			e.Process(crnt, s)
		}
		iterations++
		if iterations > lpnlib.MaxPickIterations {
			return crnt, &lpnlib.SchedulerOverrunError{Iterations: iterations}
		}
	}

	s.sweepDestroyed()
	return crnt, nil
}

// pickPlayable selects every object whose Next() is due, stably ordered by
// (priority, insertion order) — spec §4.9 step 4, §4.4's tie-break rule.
func (s *Stack) pickPlayable(crnt lpnlib.CrntMsrTick) []Elapse {
	type ranked struct {
		e   Elapse
		idx int
	}
	var due []ranked
	for i, e := range s.objects {
		if e.DestroyMe() {
			continue
		}
		msr, tick, floating := e.Next()
		if floating {
			continue
		}
		if msr < crnt.Msr || (msr == crnt.Msr && tick <= crnt.Tick) {
			due = append(due, ranked{e, i})
		}
	}
	sort.SliceStable(due, func(i, j int) bool {
		if due[i].e.Prio() != due[j].e.Prio() {
			return due[i].e.Prio() < due[j].e.Prio()
		}
		return due[i].idx < due[j].idx
	})
	out := make([]Elapse, len(due))
	for i, r := range due {
		out[i] = r.e
	}
	return out
}

func (s *Stack) sweepDestroyed() {
	kept := s.objects[:0]
	for _, e := range s.objects {
		if !e.DestroyMe() {
			kept = append(kept, e)
		}
	}
	s.objects = kept
}

// Stop marks every elapse object destroyed and emits All-Sound-Off on every
// channel (spec §5 "stop ... emits an All-Sound-Off (CC 120)").
func (s *Stack) Stop() {
	for _, e := range s.objects {
		e.Clear(s)
	}
	s.objects = nil
	s.duringPlay = false
	for ch := uint8(0); ch < 16; ch++ {
		_ = s.Sink.AllSoundOff(ch)
	}
	s.voiceCount = map[voiceKey]int{}
}

// Panic emits All-Sound-Off without touching elapse object state (spec §5
// "panic emits All-Sound-Off only").
func (s *Stack) Panic() {
	for ch := uint8(0); ch < 16; ch++ {
		_ = s.Sink.AllSoundOff(ch)
	}
}

// PostUI hands a UI-update message to the UI channel without blocking; the
// message is dropped when the channel is full or nil. No throttle is
// applied, here or by its callers.
func (s *Stack) PostUI(msg lpnlib.UIMessage) {
	if s.uiOut == nil {
		return
	}
	select {
	case s.uiOut <- msg:
	default:
	}
}
