package elapse

import "loopian/lpnlib"

// Part is one of the fixed user-addressable channels (left/right hand,
// composition-driving parts, ...). It owns the phrase-loop manager and the
// composition mediator that together decide what plays during each measure
// (spec §4.7).
//
// Grounded on original_source/src/elapse/elapse_part.rs's Part (new_loop
// reservation state machine) plus phr_loop_mng.rs for the loop manager it
// drives.
type Part struct {
	Base
	index   int
	channel uint8

	baseNote uint8 // DEFAULT_NOTE_NUMBER, -12 for a left-hand part
	keynote  int16
	turnnote uint8
	mode     lpnlib.InputMode

	firstMeasureNum int32
	stateReserve    bool
	syncNextMsr     bool

	phrase *PhraseLoopManager
	cmps   *CmpsLoopMediator

	tickForOneMsr int32
}

// NewPart constructs the part at the given index (0-origin); a part built
// with isLeftHand set gets a base note one octave lower, mirroring
// elapse_part.rs's "left_part" calculation.
func NewPart(id lpnlib.ElapseID, index int, channel uint8, tickForOneMsr int32, isLeftHand bool) *Part {
	base := uint8(lpnlib.DefaultNoteNumber)
	if isLeftHand {
		base -= 12
	}
	p := &Part{
		Base: NewBase(id), index: index, channel: channel,
		baseNote: base, turnnote: base, mode: lpnlib.InputFixed,
		tickForOneMsr: tickForOneMsr,
		cmps:          &CmpsLoopMediator{},
	}
	p.phrase = NewPhraseLoopManager(p, channel, tickForOneMsr)
	return p
}

func (p *Part) Prio() int { return lpnlib.PriPart }

func (p *Part) Next() (int32, int32, bool) { return 0, 0, true }

func (p *Part) Start(startMsr int32) {
	p.firstMeasureNum = startMsr
	p.stateReserve = true
}

func (p *Part) Stop(stk *Stack) {
	if p.phrase.Active() != nil {
		p.phrase.Active().Stop(stk)
	}
}

func (p *Part) Clear(stk *Stack) { p.Stop(stk) }

// Process is a no-op every tick; Part's real work happens once per bar in
// MsrTop (spec §4.7 "Part is driven once per bar, at the bar boundary").
func (p *Part) Process(crnt lpnlib.CrntMsrTick, stk *Stack) {}

// MsrTop drives the composition mediator and phrase-loop manager's own
// bar-boundary checks (spec §4.7 item 1); whether a new phrase loop starts
// this bar is decided by PhraseLoopManager.MsrTop. The part's stateReserve
// and syncNextMsr flags are not read here.
func (p *Part) MsrTop(crnt lpnlib.CrntMsrTick, stk *Stack) {
	p.cmps.MsrTop()
	p.phrase.MsrTop(crnt, stk)
}

// CurrentChord resolves the (root,table) active at the given position via
// this part's composition mediator (spec §4.6 "scan_chord"), used by
// PhraseLoop/DynPattern to transpose against the live composition.
func (p *Part) CurrentChord(msr, tick, tickForOneMsr int32) (root, table int16) {
	cur := p.cmps.Current()
	if cur == nil {
		return lpnlib.NoRoot, lpnlib.NoTable
	}
	beat := tick / (tickForOneMsr / 4)
	return cur.ScanChord(msr, beat)
}

// ReceivePhrase delivers a freshly compiled phrase to this part's loop
// manager (spec §4.7 item 2).
func (p *Part) ReceivePhrase(data lpnlib.PhrData, startMsr int32, stk *Stack) {
	p.turnnote = data.TurnNote
	p.phrase.Receive(data, startMsr, stk)
}

// ReceiveComposition installs a freshly compiled composition (spec §4.7
// item 3).
func (p *Part) ReceiveComposition(data lpnlib.CmpData, tickForOneMsr, tickForOneBeat, beatsPerMsr int32) {
	p.cmps.Receive(UnfoldComposition(data, tickForOneMsr, tickForOneBeat, beatsPerMsr))
}

// Sync sets the part's sync flag (spec §4.7 item 4). Nothing reads the
// flag, so the phrase loop manager is not restarted by it.
func (p *Part) Sync() { p.syncNextMsr = true }

func (p *Part) SetInputMode(mode lpnlib.InputMode) { p.mode = mode }
func (p *Part) InputMode() lpnlib.InputMode        { return p.mode }
func (p *Part) BaseNote() uint8                    { return p.baseNote }
func (p *Part) Channel() uint8                     { return p.channel }
func (p *Part) Index() int                         { return p.index }
