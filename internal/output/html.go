package output

import (
	"fmt"
	"html/template"
	"io"

	"github.com/buemura/contractlens/pkg/types"
)

// HTMLFormatter renders reports as a self-contained HTML page with styled
// severity badges and expandable issue details.
type HTMLFormatter struct{}

func (f *HTMLFormatter) Format(w io.Writer, reports []FileReport) error {
	return htmlTpl.Execute(w, templateData{Reports: reports})
}

type templateData struct {
	Reports []FileReport
}

// severityClass maps a Severity to a CSS class name.
func severityClass(s types.Severity) string {
	switch s {
	case types.SeverityCritical:
		return "critical"
	case types.SeverityHigh:
		return "high"
	case types.SeverityMedium:
		return "medium"
	default:
		return "low"
	}
}

func countSeverity(reports []FileReport, sev types.Severity) int {
	n := 0
	for _, fr := range reports {
		if fr.Report == nil {
			continue
		}
		for _, is := range fr.Report.Issues {
			if is.Severity == sev {
				n++
			}
		}
	}
	return n
}

var funcMap = template.FuncMap{
	"severityClass": severityClass,
	"location":      location,
	"issuesCount": func(reports []FileReport) int {
		n := 0
		for _, fr := range reports {
			if fr.Report != nil {
				n += len(fr.Report.Issues)
			}
		}
		return n
	},
	"countSeverity":    countSeverity,
	"severityCritical": func() types.Severity { return types.SeverityCritical },
	"severityHigh":     func() types.Severity { return types.SeverityHigh },
	"severityMedium":   func() types.Severity { return types.SeverityMedium },
	"severityLow":      func() types.Severity { return types.SeverityLow },
}

var htmlTpl = template.Must(template.New("report").Funcs(funcMap).Parse(fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>ContractLens Report</title>
<style>%s</style>
</head>
<body>
<div class="container">
  <h1>ContractLens Report</h1>

  <div class="summary-bar">
    <span class="badge critical">{{countSeverity .Reports severityCritical}} Critical</span>
    <span class="badge high">{{countSeverity .Reports severityHigh}} High</span>
    <span class="badge medium">{{countSeverity .Reports severityMedium}} Medium</span>
    <span class="badge low">{{countSeverity .Reports severityLow}} Low</span>
    <span class="total">{{issuesCount .Reports}} total issues</span>
  </div>

  {{range .Reports}}
  <section class="file-section">
    {{if .Error}}
      <h2>{{.Path}} &mdash; Error</h2>
      <div class="error-box">{{.Error}}</div>
    {{else if .Report}}
      <h2>{{.Path}} &mdash; score {{.Report.OverallScore}}/100</h2>
      {{if .Report.Degraded}}<p class="degraded">Reduced confidence: some detectors did not run.</p>{{end}}

      {{if not .Report.Issues}}
        <p class="no-findings">No issues.</p>
      {{else}}
        <table>
          <thead>
            <tr><th>Severity</th><th>Line</th><th>Title</th><th>Message</th></tr>
          </thead>
          <tbody>
            {{range .Report.Issues}}
            <tr>
              <td><span class="badge {{severityClass .Severity}}">{{.Severity}}</span></td>
              <td>{{location .Range}}</td>
              <td>{{.Title}}<br><code>{{.RuleID}}</code></td>
              <td>
                {{.Message}}
                {{if or .Match .Suggestion}}
                <details>
                  <summary>Details</summary>
                  {{if .Match}}<p><strong>Match:</strong> <code>{{.Match}}</code></p>{{end}}
                  {{if .Suggestion}}<p><strong>Suggestion:</strong> {{.Suggestion}}</p>{{end}}
                </details>
                {{end}}
              </td>
            </tr>
            {{end}}
          </tbody>
        </table>
      {{end}}
    {{end}}
  </section>
  {{end}}
</div>
</body>
</html>`, cssStyles)))

const cssStyles = `
*{box-sizing:border-box;margin:0;padding:0}
body{font-family:-apple-system,BlinkMacSystemFont,"Segoe UI",Roboto,Helvetica,Arial,sans-serif;
     line-height:1.6;color:#1a1a2e;background:#f5f5fa;padding:2rem}
.container{max-width:960px;margin:0 auto}
h1{margin-bottom:1rem;font-size:1.8rem}
h2{margin:1.5rem 0 .75rem;font-size:1.3rem;border-bottom:2px solid #e0e0e0;padding-bottom:.3rem}
.summary-bar{display:flex;gap:.5rem;flex-wrap:wrap;align-items:center;margin-bottom:1.5rem}
.total{margin-left:.5rem;font-weight:600}
.badge{display:inline-block;padding:2px 10px;border-radius:12px;font-size:.8rem;font-weight:700;color:#fff;text-transform:uppercase}
.badge.critical{background:#d32f2f}
.badge.high{background:#e53935}
.badge.medium{background:#f9a825;color:#333}
.badge.low{background:#0288d1}
table{width:100%;border-collapse:collapse;margin-bottom:1rem}
th,td{text-align:left;padding:.5rem .75rem;border-bottom:1px solid #e0e0e0}
th{background:#eaeaea;font-weight:600}
tr:hover{background:#f0f0ff}
details{margin-top:.4rem}
summary{cursor:pointer;color:#1565c0;font-size:.85rem}
.error-box{background:#ffebee;color:#c62828;padding:.75rem 1rem;border-radius:6px;margin-bottom:1rem}
.no-findings{color:#666;font-style:italic}
.file-section{margin-bottom:2rem}
.degraded{color:#a15c00;font-size:.9rem}
`
