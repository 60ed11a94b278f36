package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/buemura/contractlens/pkg/types"
)

// MarkdownFormatter renders reports as Markdown tables suitable for
// pasting into docs, issues, or pull-request descriptions.
type MarkdownFormatter struct{}

func (f *MarkdownFormatter) Format(w io.Writer, reports []FileReport) error {
	for i, fr := range reports {
		if i > 0 {
			fmt.Fprintln(w)
		}

		if fr.Error != "" {
			fmt.Fprintf(w, "## %s: Error\n\n> %s\n", fr.Path, fr.Error)
			continue
		}
		r := fr.Report
		if r == nil {
			continue
		}

		fmt.Fprintf(w, "## %s (score %d/100)\n\n", fr.Path, r.OverallScore)

		if len(r.Issues) == 0 {
			fmt.Fprintln(w, "_No issues._")
			continue
		}

		fmt.Fprintln(w, "| Severity | Line | Rule | Title | Suggestion |")
		fmt.Fprintln(w, "|----------|------|------|-------|------------|")
		for _, is := range r.Issues {
			fmt.Fprintf(w, "| %s | %s | `%s` | %s | %s |\n",
				severityBadge(is.Severity),
				location(is.Range),
				is.RuleID,
				escapeMarkdown(is.Title),
				escapeMarkdown(is.Suggestion),
			)
		}

		fmt.Fprintf(w, "\n**Summary:** %s\n", summaryLine(r))
	}
	return nil
}

// severityBadge returns a bold severity label for Markdown.
func severityBadge(s types.Severity) string {
	return fmt.Sprintf("**%s**", string(s))
}

// escapeMarkdown escapes characters that would break Markdown tables.
func escapeMarkdown(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}
