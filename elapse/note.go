package elapse

import "loopian/lpnlib"

// Note is a single scheduled NoteOn that, once fired, immediately schedules
// its own NoteOff at tick+dur (spec §4.5 "spawn a Note elapse object for
// NoteOn emission ... which itself spawns its NoteOff").
//
// Grounded on original_source/src/elapse/elapse_note.rs.
type Note struct {
	Base
	msr, tick int32
	channel   uint8
	pitch     uint8
	velocity  uint8
	firedOn   bool
	offAt     int32 // tick, valid once firedOn
	offMsr    int32
}

func NewNote(id lpnlib.ElapseID, msr, tick int32, channel, pitch, velocity uint8, durTicks int32, tickForOneMsr int32) *Note {
	n := &Note{Base: NewBase(id), msr: msr, tick: tick, channel: channel, pitch: pitch, velocity: velocity}
	offMsr, offTick := msr, tick+durTicks
	for offTick >= tickForOneMsr {
		offTick -= tickForOneMsr
		offMsr++
	}
	n.offMsr, n.offAt = offMsr, offTick
	return n
}

func (n *Note) Prio() int { return lpnlib.PriNote }

func (n *Note) Next() (int32, int32, bool) {
	if !n.firedOn {
		return n.msr, n.tick, false
	}
	return n.offMsr, n.offAt, false
}

func (n *Note) Start(startMsr int32) {}

func (n *Note) Process(crnt lpnlib.CrntMsrTick, stk *Stack) {
	if !n.firedOn {
		_ = stk.NoteOnVoice(n.channel, n.pitch, n.velocity)
		n.firedOn = true
		return
	}
	_ = stk.NoteOffVoice(n.channel, n.pitch)
	n.MarkDestroy()
}

func (n *Note) Stop(stk *Stack) {
	if n.firedOn && !n.DestroyMe() {
		_ = stk.NoteOffVoice(n.channel, n.pitch)
	}
	n.MarkDestroy()
}

func (n *Note) Clear(stk *Stack) { n.Stop(stk) }
