package display

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"loopian/lpnlib"
)

// TickMsg drives the 50ms repaint cadence; this tick only governs local
// repaint (UI messages arrive unthrottled from Stack.PostUI).
type TickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(50*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// partState is the per-part slice of UI state addressed by
// UITagPartState+index (spec §6).
type partState struct {
	chordName string
	variation string
}

// Model is the Bubbletea model consuming Stack.PostUI's outbound channel
// (spec §4.9 step 8, §6).
//
// Grounded on display/tui.go's TUIModel (field layout, Init/Update/View
// shape, tickCmd's 50ms Bubbletea-side repaint) adapted from a chord-chart
// player to a live scheduler-state indicator: there is no audio player or
// fretboard here, only the UI channel's key/bpm/beat/position/part-state/
// note-event tags.
type Model struct {
	in <-chan lpnlib.UIMessage

	key      string
	bpm      int32
	beatNum  int32
	beat     int32
	msr      int32
	tick     int32
	parts    [4]partState
	lastNote string

	quitting bool
}

func NewModel(in <-chan lpnlib.UIMessage) *Model {
	return &Model{in: in, key: "C", bpm: 120, beatNum: 4}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(), m.waitForMessage(), tea.EnterAltScreen)
}

// waitForMessage turns the next channel receive into a Bubbletea command,
// the idiomatic bridge between a plain Go channel and Bubbletea's Msg loop.
func (m *Model) waitForMessage() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-m.in
		if !ok {
			return tea.Quit()
		}
		return msg
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch v := msg.(type) {
	case tea.KeyMsg:
		switch v.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		}
	case TickMsg:
		return m, tickCmd()
	case lpnlib.UIMessage:
		m.apply(v)
		return m, m.waitForMessage()
	}
	return m, nil
}

// apply folds one UIMessage into model state by its tag (spec §6).
func (m *Model) apply(msg lpnlib.UIMessage) {
	switch msg.Tag {
	case lpnlib.UITagKey:
		m.key = msg.Payload
	case lpnlib.UITagBPM:
		if n, err := strconv.Atoi(msg.Payload); err == nil {
			m.bpm = int32(n)
		}
	case lpnlib.UITagBeat:
		num, _, _ := strings.Cut(msg.Payload, "/")
		if n, err := strconv.Atoi(num); err == nil {
			m.beatNum = int32(n)
		}
	case lpnlib.UITagPosition:
		parseMsrTick(msg.Payload, &m.msr, &m.tick, &m.beat)
	case lpnlib.UITagNoteEvt:
		m.lastNote = msg.Payload
	default:
		if msg.Tag >= lpnlib.UITagPartState && int(msg.Tag-lpnlib.UITagPartState) < len(m.parts) {
			idx := int(msg.Tag - lpnlib.UITagPartState)
			m.parts[idx] = partState{chordName: msg.Payload}
		}
	}
}

func parseMsrTick(payload string, msr, tick, beat *int32) {
	fields := strings.Split(payload, ",")
	if len(fields) < 2 {
		return
	}
	if n, err := strconv.Atoi(fields[0]); err == nil {
		*msr = int32(n)
	}
	if n, err := strconv.Atoi(fields[1]); err == nil {
		*tick = int32(n)
	}
	if len(fields) >= 3 {
		if n, err := strconv.Atoi(fields[2]); err == nil {
			*beat = int32(n)
		}
	}
}

func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("Loopian") + "  " + headerStyle.Render("q to quit") + "\n\n")
	b.WriteString(fmt.Sprintf("%s  %s  %s\n",
		chordStyle.Render("Key: "+m.key),
		partStyle.Render(fmt.Sprintf("BPM: %d", m.bpm)),
		beatStyle.Render(fmt.Sprintf("%d/4", m.beatNum)),
	))
	b.WriteString(fmt.Sprintf("Measure %d  Beat %s  Tick %d\n\n", m.msr+1, beatIndicator(m.beat, m.beatNum), m.tick))

	for i, p := range m.parts {
		if p.chordName == "" {
			continue
		}
		b.WriteString(columnStyle.Render(fmt.Sprintf("part%d: %s", i, rootStyle.Render(p.chordName))) + "\n")
	}
	if m.lastNote != "" {
		b.WriteString("\n" + dimColorLine("last: "+m.lastNote))
	}
	return borderStyle.Render(b.String())
}

func beatIndicator(beat, beatNum int32) string {
	var b strings.Builder
	for i := int32(0); i < beatNum; i++ {
		if i == beat {
			b.WriteString(currentBeatStyle.Render("●"))
		} else {
			b.WriteString(beatStyle.Render("·"))
		}
	}
	return b.String()
}

func dimColorLine(s string) string { return headerStyle.Render(s) }
