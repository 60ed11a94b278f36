package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/buemura/contractlens/internal/editor"
	"github.com/buemura/contractlens/internal/engine"
	"github.com/buemura/contractlens/internal/tui/views"
	"github.com/buemura/contractlens/pkg/types"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

type analyzedMsg struct {
	err error
}

type fixedMsg struct {
	rule    string
	applied bool
	err     error
}

type jumpedMsg struct {
	issue types.Issue
	err   error
}

type clearedMsg struct {
	err error
}

// Model is the root Bubble Tea model: a status header over the issue list of
// the latest published report.
type Model struct {
	engine  *engine.Engine
	file    *editor.FileBuffer
	reports <-chan reportMsg
	keys    keyMap
	help    help.Model
	width   int
	height  int

	status views.StatusModel
	report views.ReportModel
}

// NewModel creates a root model for eng. file, when non-nil, is reloaded
// from disk before each manual rescan.
func NewModel(eng *engine.Engine, file *editor.FileBuffer, reports <-chan reportMsg, title string) Model {
	return Model{
		engine:  eng,
		file:    file,
		reports: reports,
		keys:    keys,
		help:    help.New(),
		status:  views.NewStatusModel(title).SetState(eng.State().String()),
		report:  views.NewReportModel(eng.Current()),
	}
}

// Init waits for reports and starts the first analysis.
func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForReport(m.reports), m.status.Init(), m.analyze())
}

// Update handles messages and dispatches engine operations.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case reportMsg:
		m.report = m.report.SetReport(msg.report)
		m.status = m.status.SetState(m.engine.State().String())
		return m, waitForReport(m.reports)

	case analyzedMsg:
		m.status = m.status.SetState(m.engine.State().String())
		if msg.err != nil {
			m.status = m.status.SetError(msg.err)
		}
		return m, nil

	case fixedMsg:
		m.status = m.status.SetState(m.engine.State().String())
		switch {
		case msg.err != nil:
			m.status = m.status.SetError(msg.err)
		case msg.applied:
			m.status = m.status.SetMessage(fmt.Sprintf("Applied fix for %s", msg.rule))
		default:
			m.status = m.status.SetMessage(fmt.Sprintf("No fix applied for %s", msg.rule))
		}
		return m, nil

	case jumpedMsg:
		if msg.err != nil {
			m.status = m.status.SetError(msg.err)
		} else {
			r := msg.issue.Range
			m.status = m.status.SetMessage(fmt.Sprintf("Selected %d:%d-%d:%d", r.StartLine, r.StartColumn, r.EndLine, r.EndColumn))
		}
		return m, nil

	case clearedMsg:
		if msg.err != nil {
			m.status = m.status.SetError(msg.err)
		}
		return m, nil
	}

	updated, cmd := m.status.Update(msg)
	m.status = updated.(views.StatusModel)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.Rescan):
		m.status = m.status.SetState("scanning").SetMessage("")
		return m, m.analyze()
	case key.Matches(msg, m.keys.Clear):
		return m, m.clear()
	case key.Matches(msg, m.keys.Fix):
		if sel := m.report.Selected(); sel != nil {
			return m, m.fix(*sel)
		}
		return m, nil
	case key.Matches(msg, m.keys.Jump):
		if sel := m.report.Selected(); sel != nil {
			return m, m.jump(*sel)
		}
		return m, nil
	}

	updated, cmd := m.report.Update(msg)
	m.report = updated.(views.ReportModel)
	return m, cmd
}

// View renders the status header, the report and the key help.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.status.View())
	b.WriteString("\n")
	b.WriteString(m.report.View())
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) analyze() tea.Cmd {
	eng, file := m.engine, m.file
	return func() tea.Msg {
		if file != nil {
			if _, err := file.Reload(); err != nil {
				return analyzedMsg{err: err}
			}
		}
		_, err := eng.PerformAnalysis(context.Background())
		return analyzedMsg{err: err}
	}
}

func (m Model) fix(issue types.Issue) tea.Cmd {
	eng := m.engine
	return func() tea.Msg {
		applied, err := eng.AutoFixIssue(issue)
		return fixedMsg{rule: issue.RuleID, applied: applied, err: err}
	}
}

func (m Model) jump(issue types.Issue) tea.Cmd {
	eng := m.engine
	return func() tea.Msg {
		return jumpedMsg{issue: issue, err: eng.JumpToIssue(issue)}
	}
}

func (m Model) clear() tea.Cmd {
	eng := m.engine
	return func() tea.Msg {
		return clearedMsg{err: eng.ClearResults()}
	}
}
