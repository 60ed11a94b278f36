package tui

import (
	"github.com/buemura/contractlens/internal/broadcast"
	"github.com/buemura/contractlens/internal/engine"
	"github.com/buemura/contractlens/pkg/types"
	tea "github.com/charmbracelet/bubbletea"
)

// reportMsg carries a published report into the program. A nil report means
// results were cleared.
type reportMsg struct {
	report *types.Report
}

// subscribe forwards engine publications into a channel holding only the
// latest one, so a slow UI skips intermediate reports instead of blocking
// delivery.
func subscribe(eng *engine.Engine) (<-chan reportMsg, broadcast.Token, error) {
	ch := make(chan reportMsg, 1)
	token, err := eng.Subscribe(func(r *types.Report) {
		msg := reportMsg{report: r}
		for {
			select {
			case ch <- msg:
				return
			default:
				select {
				case <-ch:
				default:
				}
			}
		}
	})
	if err != nil {
		return nil, "", err
	}
	return ch, token, nil
}

func waitForReport(ch <-chan reportMsg) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}
