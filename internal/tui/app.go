package tui

import (
	"fmt"

	"github.com/buemura/contractlens/internal/editor"
	"github.com/buemura/contractlens/internal/engine"
	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the interactive TUI for eng. The engine must have file attached
// as its editor.
func Run(eng *engine.Engine, file *editor.FileBuffer) error {
	reports, token, err := subscribe(eng)
	if err != nil {
		return err
	}
	defer eng.Unsubscribe(token)

	m := NewModel(eng, file, reports, file.Path())
	p := tea.NewProgram(m, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	return nil
}
