package lpnlib

// PhrEvt is the tagged-variant event produced by the phrase compiler
// (spec §3 "Phrase event"). Go has no sum types; per spec §9 ("tagged-variant
// plus central match is equivalent") every concrete variant is a small
// struct implementing the PhrEvt interface, and consumers type-switch over
// the closed set below rather than relying on open inheritance.
type PhrEvt interface {
	EvtTick() int16
}

// NoteEvt is a single-pitch attack (spec §3 PhrEvt::Note).
type NoteEvt struct {
	Tick     int16
	Dur      int16
	Note     uint8
	Vel      uint8
	Amp      float64
	Trns     TransMode
	Artic    int16 // percentage, DefaultArtic=100
	Floating bool
}

func (e NoteEvt) EvtTick() int16 { return e.Tick }

// NoteListEvt is a same-tick chord (spec §3 PhrEvt::NoteList).
type NoteListEvt struct {
	Tick  int16
	Dur   int16
	Notes []uint8
	Vel   uint8
	Amp   float64
	Trns  TransMode
	Artic int16
}

func (e NoteListEvt) EvtTick() int16 { return e.Tick }

// ArpFigure selects the contour of a dynamic arpeggio pattern.
type ArpFigure int

const (
	ArpUp ArpFigure = iota
	ArpDown
	ArpUpDown
	ArpDownUp
)

// ClusterEvt is an arpeggiated chord-tone stack (spec §3 PhrEvt::Cluster).
type ClusterEvt struct {
	Tick       int16
	Dur        int16
	EachDur    int16
	LowestNote uint8
	Vel        uint8
	MaxVoices  int
}

func (e ClusterEvt) EvtTick() int16 { return e.Tick }

// ArpEvt is a directional dynamic arpeggio (spec §3 PhrEvt::Arp).
type ArpEvt struct {
	Tick       int16
	Dur        int16
	EachDur    int16
	LowestNote uint8
	Figure     ArpFigure
	Vel        uint8
}

func (e ArpEvt) EvtTick() int16 { return e.Tick }

// DamperEvt is an explicit pedal event compiled from a dedicated pedal
// phrase (spec §3 PhrEvt::Damper, §4.2 "Pedal compilation").
type DamperEvt struct {
	Tick     int16
	Msr      int32
	Beat     int16
	Front    bool
	Position PedalPos
}

func (e DamperEvt) EvtTick() int16 { return e.Tick }

// InfoKind distinguishes the payload of an InfoEvt.
type InfoKind int

const (
	InfoRptHead InfoKind = iota
)

// InfoEvt carries out-of-band markers inline in the event stream; today the
// only kind is RptHead, marking the start of a repetition group produced by
// rpt(n) (spec §3 PhrEvt::Info(RptHead), §4.2 pass 6/8).
type InfoEvt struct {
	Tick int16
	Kind InfoKind
}

func (e InfoEvt) EvtTick() int16 { return e.Tick }

// AnaEvt is the tagged-variant analysis event derived from a PhrEvt vector
// (spec §3 "Analysis event").
type AnaEvt interface {
	AnaTick() int16
}

// BeatAna carries one entry per distinct tick with a Note/NoteList at that
// tick (spec §4.2 pass 9).
type BeatAna struct {
	Tick            int16
	Dur             int16
	HighestNote     uint8
	VoiceCount      int
	TranslateOption TransMode
}

func (e BeatAna) AnaTick() int16 { return e.Tick }

// ExpType selects the kind of ExpAna record.
type ExpType int

const (
	ExpNoPed ExpType = iota
	ExpParaRoot
	ExpArticulation
)

// ExpAna carries dmp(off)/para-root/articulation-rate intent (spec §4.2 pass 9).
type ExpAna struct {
	Tick  int16
	AType ExpType
	Note  uint8
	Cnt   int
}

func (e ExpAna) AnaTick() int16 { return e.Tick }

// CmpEvt is the tagged-variant composition event (spec §3 "Composition event").
type CmpEvt interface {
	CmpTick() int16
}

// ChordEvt anchors a (root, table) pair at a tick; NoRoot/-1 table means
// "no chord" (spec §3 PhrEvt::Chord).
type ChordEvt struct {
	Tick  int16
	Root  int16
	Table int16
}

func (e ChordEvt) CmpTick() int16 { return e.Tick }

// VariEvt switches the active variation number at a tick (spec §3 CmpEvt::Vari).
type VariEvt struct {
	Tick int16
	Vari int16
}

func (e VariEvt) CmpTick() int16 { return e.Tick }

// PhraseAsKind tags the PhraseAs variant accompanying an incoming phrase.
type PhraseAsKind int

const (
	AsNormal PhraseAsKind = iota
	AsVariation
	AsMeasure
)

// PhraseAs distinguishes default loop content (Normal), an alternative
// content activated on demand (Variation 1..9), and a one-shot phrase bound
// to a specific measure number (Measure n) (spec §3 "PhraseAs").
type PhraseAs struct {
	Kind PhraseAsKind
	N    int // variation number (1..9) or measure number, depending on Kind
}

func Normal() PhraseAs                { return PhraseAs{Kind: AsNormal} }
func Variation(n int) PhraseAs        { return PhraseAs{Kind: AsVariation, N: n} }
func MeasureBound(msr int) PhraseAs   { return PhraseAs{Kind: AsMeasure, N: msr} }
