package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/buemura/contractlens/pkg/types"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

// TableFormatter renders reports as a colored terminal table.
type TableFormatter struct{}

func (f *TableFormatter) Format(w io.Writer, reports []FileReport) error {
	for _, fr := range reports {
		if fr.Error != "" {
			fmt.Fprintf(w, "\n[%s] Error: %s\n", fr.Path, fr.Error)
			continue
		}
		r := fr.Report
		if r == nil {
			fmt.Fprintf(w, "\n[%s] No report.\n", fr.Path)
			continue
		}

		fmt.Fprintf(w, "\n[%s] score %s, %d issues%s\n", fr.Path, colorScore(r.OverallScore), len(r.Issues), flags(r))

		if len(r.Issues) == 0 {
			fmt.Fprintln(w, "  No issues.")
			continue
		}

		table := tablewriter.NewWriter(w)
		table.SetHeader([]string{"Severity", "Line", "Rule", "Title", "Fix"})
		table.SetAutoWrapText(false)
		table.SetBorder(false)
		table.SetColumnSeparator("│")

		for _, is := range r.Issues {
			fixable := ""
			if is.AutoFixAvailable {
				fixable = "yes"
			}
			table.Append([]string{colorSeverity(is.Severity), location(is.Range), is.RuleID, is.Title, fixable})
		}
		table.Render()

		fmt.Fprintf(w, "  Summary: %s\n", summaryLine(r))
		if len(r.SkippedDetectors) > 0 {
			fmt.Fprintf(w, "  Skipped detectors: %s\n", strings.Join(r.SkippedDetectors, ", "))
		}
	}
	return nil
}

func flags(r *types.Report) string {
	var parts []string
	if r.AIAnalysisUsed {
		parts = append(parts, "ai")
	}
	if r.CacheHit {
		parts = append(parts, "cached")
	}
	if r.Degraded {
		parts = append(parts, color.YellowString("degraded"))
	}
	if len(parts) == 0 {
		return ""
	}
	return " (" + strings.Join(parts, ", ") + ")"
}

func colorScore(score int) string {
	s := fmt.Sprintf("%d/100", score)
	switch {
	case score >= 80:
		return color.GreenString(s)
	case score >= 50:
		return color.YellowString(s)
	default:
		return color.RedString(s)
	}
}

func colorSeverity(s types.Severity) string {
	switch s {
	case types.SeverityCritical:
		return color.New(color.FgRed, color.Bold).Sprint("CRITICAL")
	case types.SeverityHigh:
		return color.RedString("HIGH")
	case types.SeverityMedium:
		return color.YellowString("MEDIUM")
	case types.SeverityLow:
		return color.CyanString("LOW")
	default:
		return string(s)
	}
}
