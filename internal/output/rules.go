package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/buemura/contractlens/internal/rules"
	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"
)

// FormatRules renders the rule catalog in the given format.
func FormatRules(w io.Writer, format string, metas []rules.Meta) error {
	switch format {
	case "table", "":
		table := tablewriter.NewWriter(w)
		table.SetHeader([]string{"ID", "Kind", "Severity", "Fix", "Title"})
		table.SetAutoWrapText(false)
		table.SetBorder(false)
		table.SetColumnSeparator("│")
		for _, m := range metas {
			fixable := ""
			if m.AutoFix {
				fixable = "yes"
			}
			table.Append([]string{m.ID, string(m.Kind), colorSeverity(m.Severity), fixable, m.Title})
		}
		table.Render()
		fmt.Fprintf(w, "  %d rules\n", len(metas))
		return nil
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(metas)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(metas); err != nil {
			return err
		}
		return enc.Close()
	case "markdown":
		fmt.Fprintln(w, "| ID | Kind | Severity | Auto-fix | Title |")
		fmt.Fprintln(w, "|----|------|----------|----------|-------|")
		for _, m := range metas {
			fmt.Fprintf(w, "| `%s` | %s | %s | %t | %s |\n", m.ID, m.Kind, severityBadge(m.Severity), m.AutoFix, escapeMarkdown(m.Title))
		}
		return nil
	default:
		return fmt.Errorf("unknown rules format %q (supported: table, json, yaml, markdown)", format)
	}
}
