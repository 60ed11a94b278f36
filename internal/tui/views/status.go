package views

import (
	"fmt"
	"strings"

	"github.com/buemura/contractlens/internal/tui/styles"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// StatusModel is the header line: file, engine state and the outcome of the
// last action.
type StatusModel struct {
	spinner spinner.Model
	path    string
	busy    bool
	state   string
	message string
	err     string
}

// NewStatusModel creates a status line for path.
func NewStatusModel(path string) StatusModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(styles.ColorAccent)

	return StatusModel{spinner: sp, path: path, state: "idle"}
}

// Init starts the spinner.
func (m StatusModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update advances the spinner.
func (m StatusModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(spinner.TickMsg); ok {
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// SetState records the engine state; pending and scanning show the spinner.
func (m StatusModel) SetState(state string) StatusModel {
	m.state = state
	m.busy = state == "pending" || state == "scanning"
	return m
}

// SetMessage shows an informational message and clears any error.
func (m StatusModel) SetMessage(msg string) StatusModel {
	m.message, m.err = msg, ""
	return m
}

// SetError shows err in place of the message.
func (m StatusModel) SetError(err error) StatusModel {
	m.message, m.err = "", err.Error()
	return m
}

// Message returns the current message.
func (m StatusModel) Message() string { return m.message }

// Err returns the current error text.
func (m StatusModel) Err() string { return m.err }

// View renders the status block.
func (m StatusModel) View() string {
	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render("ContractLens"))
	b.WriteString(" ")
	b.WriteString(styles.SelectedStyle.Render(m.path))
	b.WriteString("\n")

	if m.busy {
		b.WriteString(fmt.Sprintf("%s %s\n", m.spinner.View(), m.state))
	} else {
		b.WriteString(styles.HelpStyle.Render(m.state))
		b.WriteString("\n")
	}

	switch {
	case m.err != "":
		b.WriteString(styles.ErrorStyle.Render(m.err))
		b.WriteString("\n")
	case m.message != "":
		b.WriteString(m.message)
		b.WriteString("\n")
	}

	return b.String()
}
