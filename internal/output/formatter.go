package output

import (
	"fmt"
	"io"

	"github.com/buemura/contractlens/pkg/types"
)

// FileReport is the analysis outcome for one source file.
type FileReport struct {
	Path   string        `json:"path" yaml:"path"`
	Report *types.Report `json:"report,omitempty" yaml:"report,omitempty"`
	Error  string        `json:"error,omitempty" yaml:"error,omitempty"`
}

// Formatter renders file reports to a writer.
type Formatter interface {
	Format(w io.Writer, reports []FileReport) error
}

// Formats lists the supported format names.
var Formats = []string{"table", "json", "yaml", "markdown", "html", "sarif"}

// GetFormatter returns the appropriate formatter for the given format string.
func GetFormatter(format string) (Formatter, error) {
	switch format {
	case "table":
		return &TableFormatter{}, nil
	case "json":
		return &JSONFormatter{}, nil
	case "yaml":
		return &YAMLFormatter{}, nil
	case "markdown":
		return &MarkdownFormatter{}, nil
	case "html":
		return &HTMLFormatter{}, nil
	case "sarif":
		return &SARIFFormatter{}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q (supported: table, json, yaml, markdown, html, sarif)", format)
	}
}

func location(r types.Range) string {
	return fmt.Sprintf("%d:%d", r.StartLine, r.StartColumn)
}

func summaryLine(r *types.Report) string {
	s := r.Summary
	return fmt.Sprintf("%d issues (%d critical, %d high, %d medium, %d low), score %d/100",
		s.Total, s.Critical, s.High, s.Medium, s.Low, r.OverallScore)
}
