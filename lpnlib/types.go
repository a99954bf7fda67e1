package lpnlib

// CrntMsrTick is the tick-generator's output coordinate (spec §3).
// Msr is 0-origin internally; Tick is the offset within the measure.
type CrntMsrTick struct {
	Msr           int32
	Tick          int32
	TickForOneMsr int32
	NewMsr        bool
}

// ElapseType identifies the concrete kind behind an ElapseID, used for
// logging and for routing messages that are addressed by (pid, sid, type)
// rather than by a live handle (spec §4.4, §9 "arena-indexed handle").
type ElapseType int

const (
	TypePart ElapseType = iota
	TypeFlow
	TypePhraseLoop
	TypeCompositionLoop
	TypeDynPattern
	TypeNote
	TypeDamper
	TypePedalPart
)

// ElapseID is the (parent, self, kind) triple every elapse object reports
// (spec §4.4 id()).
type ElapseID struct {
	PID  uint32
	SID  uint32
	Type ElapseType
}

// RootTable names the closed chord/scale index set shared by compiler and
// translator (spec §3 "fixed producer/consumer mapping").
type RootTable struct {
	Root  int16 // NoRoot, or 1..21 (mixed degree+alteration encoding, see compiler.ConvertChordToNum)
	Table int16 // 0..57
}
