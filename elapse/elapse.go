// Package elapse implements C4-C9: the scheduled-object model, the phrase
// and composition loops, the damper part, and the cooperative scheduler
// that ties them to C1's tick generator.
//
// Grounded on original_source/src/elapse/{elapse.rs,elapse_base.rs,
// stack_elapse.rs,elapse_part.rs,elapse_loop_phr.rs,elapse_loop_cmp.rs,
// elapse_pedal.rs,elapse_note.rs,elapse_pattern.rs}.
package elapse

import "loopian/lpnlib"

// Elapse is the contract every scheduled entity implements (spec §4.4).
type Elapse interface {
	ID() lpnlib.ElapseID
	Prio() int
	Next() (msr int32, tick int32, floating bool)
	Start(startMsr int32)
	Stop(stk *Stack)
	Clear(stk *Stack)
	Process(crnt lpnlib.CrntMsrTick, stk *Stack)
	DestroyMe() bool
}

// Base is embedded by concrete elapse objects for the common id/destroy
// bookkeeping every one of them needs (spec §4.4's id()/destroy_me()).
type Base struct {
	id      lpnlib.ElapseID
	destroy bool
}

func NewBase(id lpnlib.ElapseID) Base { return Base{id: id} }

func (b *Base) ID() lpnlib.ElapseID { return b.id }
func (b *Base) DestroyMe() bool     { return b.destroy }
func (b *Base) MarkDestroy()        { b.destroy = true }
