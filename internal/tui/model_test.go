package tui

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/buemura/contractlens/internal/config"
	"github.com/buemura/contractlens/internal/editor"
	"github.com/buemura/contractlens/internal/engine"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const contract = `pragma solidity 0.8.20;

contract Owned {
    address owner;

    function withdraw() public {
        require(tx.origin == owner);
    }
}
`

func newTestModel(t *testing.T) (Model, *editor.Buffer, <-chan reportMsg) {
	t.Helper()
	cfg := config.DefaultEngine()
	cfg.EnableRealtime = false
	cfg.DetectorBudget = 2 * time.Second

	buf := editor.NewBuffer(contract)
	eng, err := engine.New(cfg, engine.WithEditor(buf))
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })

	reports, _, err := subscribe(eng)
	require.NoError(t, err)
	return NewModel(eng, nil, reports, "Owned.sol"), buf, reports
}

func nextReport(t *testing.T, ch <-chan reportMsg) reportMsg {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("no report published")
		return reportMsg{}
	}
}

func press(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// analyzed runs the first analysis and feeds its report into m.
func analyzed(t *testing.T, m Model, ch <-chan reportMsg) Model {
	t.Helper()
	msg := m.analyze()()
	require.NoError(t, msg.(analyzedMsg).err)

	updated, cmd := m.Update(nextReport(t, ch))
	assert.NotNil(t, cmd)
	return updated.(Model)
}

func TestNewModelShowsEmptyReport(t *testing.T) {
	m, _, _ := newTestModel(t)
	view := m.View()
	assert.Contains(t, view, "ContractLens")
	assert.Contains(t, view, "Owned.sol")
	assert.Contains(t, view, "No report yet")
}

func TestModelInitReturnsCommand(t *testing.T) {
	m, _, _ := newTestModel(t)
	assert.NotNil(t, m.Init())
}

func TestModelShowsPublishedReport(t *testing.T) {
	m, _, ch := newTestModel(t)
	m = analyzed(t, m, ch)

	view := m.View()
	assert.Contains(t, view, "SOL-TX-ORIGIN")
	assert.Contains(t, view, "85/100")
}

func TestModelFixSelectedIssue(t *testing.T) {
	m, buf, ch := newTestModel(t)
	m = analyzed(t, m, ch)

	_, cmd := m.Update(press("f"))
	require.NotNil(t, cmd)
	msg := cmd()
	fixed, ok := msg.(fixedMsg)
	require.True(t, ok)
	assert.True(t, fixed.applied)
	assert.Equal(t, strings.Replace(contract, "tx.origin", "msg.sender", 1), buf.Text())

	updated, _ := m.Update(msg)
	m = updated.(Model)
	assert.Contains(t, m.View(), "Applied fix for SOL-TX-ORIGIN")
}

func TestModelJumpSelectsIssue(t *testing.T) {
	m, buf, ch := newTestModel(t)
	m = analyzed(t, m, ch)
	issue := m.report.Selected()
	require.NotNil(t, issue)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	updated, _ := m.Update(cmd())
	m = updated.(Model)

	assert.Equal(t, issue.Range, buf.Selection())
	r := issue.Range
	assert.Contains(t, m.View(), fmt.Sprintf("Selected %d:%d-%d:%d", r.StartLine, r.StartColumn, r.EndLine, r.EndColumn))
}

func TestModelClearResults(t *testing.T) {
	m, _, ch := newTestModel(t)
	m = analyzed(t, m, ch)

	_, cmd := m.Update(press("c"))
	require.NotNil(t, cmd)
	assert.Equal(t, clearedMsg{}, cmd())

	updated, _ := m.Update(nextReport(t, ch))
	m = updated.(Model)
	assert.Contains(t, m.View(), "No report yet")
}

func TestModelHelpToggle(t *testing.T) {
	m, _, _ := newTestModel(t)
	assert.False(t, m.help.ShowAll)

	updated, _ := m.Update(press("?"))
	m = updated.(Model)
	assert.True(t, m.help.ShowAll)
	assert.Contains(t, m.View(), "select issue")
}

func TestModelQuit(t *testing.T) {
	m, _, _ := newTestModel(t)

	_, cmd := m.Update(press("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
}

func TestSubscribeKeepsLatestReport(t *testing.T) {
	m, _, ch := newTestModel(t)

	// Two publications without a reader: only the latest is kept.
	_, err := m.engine.PerformAnalysis(t.Context())
	require.NoError(t, err)
	require.NoError(t, m.engine.ClearResults())

	assert.Eventually(t, func() bool {
		return m.engine.Current() == nil && len(ch) == 1
	}, 2*time.Second, 10*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	msg := nextReport(t, ch)
	assert.Nil(t, msg.report)
}
