package views

import (
	"fmt"
	"strings"

	"github.com/buemura/contractlens/internal/tui/styles"
	"github.com/buemura/contractlens/pkg/types"
	tea "github.com/charmbracelet/bubbletea"
)

// ReportModel lists the issues of the latest report and details the one
// under the cursor.
type ReportModel struct {
	report  *types.Report
	cursor  int
	offset  int
	maxRows int
}

// NewReportModel creates a report view. report may be nil.
func NewReportModel(report *types.Report) ReportModel {
	return ReportModel{report: report, maxRows: 15}
}

// SetReport swaps in a new report, keeping the cursor on the same rule and
// line when that issue is still present.
func (m ReportModel) SetReport(report *types.Report) ReportModel {
	prev := m.Selected()
	m.report = report
	m.cursor, m.offset = 0, 0
	if prev == nil || report == nil {
		return m
	}
	for i, is := range report.Issues {
		if is.RuleID == prev.RuleID && is.Range.StartLine == prev.Range.StartLine {
			m.cursor = i
			if m.cursor >= m.maxRows {
				m.offset = m.cursor - m.maxRows + 1
			}
			break
		}
	}
	return m
}

// Report returns the report being shown.
func (m ReportModel) Report() *types.Report { return m.report }

// Selected returns the issue under the cursor, or nil.
func (m ReportModel) Selected() *types.Issue {
	if m.report == nil || m.cursor >= len(m.report.Issues) {
		return nil
	}
	is := m.report.Issues[m.cursor]
	return &is
}

// Init returns nil (no initial command).
func (m ReportModel) Init() tea.Cmd {
	return nil
}

// Update handles cursor movement.
func (m ReportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	n := 0
	if m.report != nil {
		n = len(m.report.Issues)
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				if m.cursor < m.offset {
					m.offset = m.cursor
				}
			}
		case "down", "j":
			if m.cursor < n-1 {
				m.cursor++
				if m.cursor >= m.offset+m.maxRows {
					m.offset = m.cursor - m.maxRows + 1
				}
			}
		}
	}

	return m, nil
}

// View renders the issue table.
func (m ReportModel) View() string {
	var b strings.Builder

	if m.report == nil {
		b.WriteString(styles.HelpStyle.Render("No report yet."))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(m.summaryLine())
	b.WriteString("\n\n")

	issues := m.report.Issues
	if len(issues) == 0 {
		b.WriteString("No issues.\n")
		return b.String()
	}

	header := fmt.Sprintf("  %-9s %-7s %-24s %s", "SEVERITY", "LINE", "RULE", "TITLE")
	b.WriteString(styles.HeaderStyle.Render(header))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", 80))
	b.WriteString("\n")

	end := m.offset + m.maxRows
	if end > len(issues) {
		end = len(issues)
	}
	for i := m.offset; i < end; i++ {
		is := issues[i]
		cursor := "  "
		if i == m.cursor {
			cursor = styles.CursorStyle.Render("> ")
		}
		severity := styles.SeverityStyle(is.Severity).Render(fmt.Sprintf("%-9s", is.Severity))
		loc := fmt.Sprintf("%d:%d", is.Range.StartLine, is.Range.StartColumn)
		title := truncate(is.Title, 40)
		if is.AutoFixAvailable {
			title += styles.HelpStyle.Render(" [fix]")
		}
		b.WriteString(fmt.Sprintf("%s%s %-7s %-24s %s\n", cursor, severity, loc, truncate(is.RuleID, 24), title))
	}

	if len(issues) > m.maxRows {
		b.WriteString(fmt.Sprintf("\n  Showing %d-%d of %d issues\n", m.offset+1, end, len(issues)))
	}

	if sel := m.Selected(); sel != nil {
		b.WriteString("\n")
		b.WriteString(detailView(*sel))
		b.WriteString("\n")
	}

	return b.String()
}

func (m ReportModel) summaryLine() string {
	r := m.report
	score := styles.ScoreStyle(r.OverallScore).Render(fmt.Sprintf("%d/100", r.OverallScore))

	var parts []string
	counts := map[types.Severity]int{
		types.SeverityCritical: r.Summary.Critical,
		types.SeverityHigh:     r.Summary.High,
		types.SeverityMedium:   r.Summary.Medium,
		types.SeverityLow:      r.Summary.Low,
	}
	for _, sev := range types.AllSeverities() {
		if c := counts[sev]; c > 0 {
			parts = append(parts, styles.SeverityStyle(sev).Render(fmt.Sprintf("%s: %d", sev, c)))
		}
	}

	line := fmt.Sprintf("Score %s  Total: %d issues", score, len(r.Issues))
	if len(parts) > 0 {
		line += "  [" + strings.Join(parts, "  ") + "]"
	}
	var flags []string
	if r.AIAnalysisUsed {
		flags = append(flags, "ai")
	}
	if r.CacheHit {
		flags = append(flags, "cached")
	}
	if r.Degraded {
		flags = append(flags, "degraded")
	}
	if len(flags) > 0 {
		line += "  " + styles.HelpStyle.Render("("+strings.Join(flags, ", ")+")")
	}
	return line
}

func detailView(is types.Issue) string {
	body := fmt.Sprintf("%s\n%s", is.Title, is.Message)
	if is.Suggestion != "" {
		body += "\nFix: " + is.Suggestion
	}
	if len(is.References) > 0 {
		body += "\nSee: " + strings.Join(is.References, ", ")
	}
	return styles.BorderStyle.Render(body)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
