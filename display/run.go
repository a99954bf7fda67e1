package display

import (
	tea "github.com/charmbracelet/bubbletea"

	"loopian/lpnlib"
)

// Run blocks running the live indicator until the user quits or in is
// closed (spec §6's UI channel is the only input; there is no separate
// shutdown signal).
func Run(in <-chan lpnlib.UIMessage) error {
	_, err := tea.NewProgram(NewModel(in)).Run()
	return err
}
