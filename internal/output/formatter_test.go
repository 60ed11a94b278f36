package output

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/buemura/contractlens/internal/rules"
	"github.com/buemura/contractlens/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sampleReports() []FileReport {
	issues := []types.Issue{
		{
			RuleID:           "SOL-TX-ORIGIN",
			Kind:             types.KindVulnerability,
			Severity:         types.SeverityHigh,
			Title:            "tx.origin used for authorization",
			Message:          "tx.origin is the original sender",
			Suggestion:       "Use msg.sender",
			Range:            types.Range{StartLine: 7, StartColumn: 17, EndLine: 7, EndColumn: 25},
			Match:            "tx.origin",
			AutoFixAvailable: true,
			Origin:           types.OriginPattern,
		},
		{
			RuleID:   "BP-TRANSFER-SEND",
			Kind:     types.KindBestPractice,
			Severity: types.SeverityMedium,
			Title:    "transfer/send | fixed gas stipend",
			Range:    types.Range{StartLine: 8, StartColumn: 28, EndLine: 8, EndColumn: 35},
			Origin:   types.OriginPattern,
		},
	}
	return []FileReport{
		{
			Path: "Wallet.sol",
			Report: &types.Report{
				Issues:       issues,
				OverallScore: 77,
				Summary:      types.Summarize(issues),
			},
		},
	}
}

func TestGetFormatter(t *testing.T) {
	for _, name := range Formats {
		f, err := GetFormatter(name)
		require.NoError(t, err, name)
		assert.NotNil(t, f)
	}
	f, err := GetFormatter("table")
	require.NoError(t, err)
	assert.IsType(t, &TableFormatter{}, f)
}

func TestGetFormatter_Unknown(t *testing.T) {
	_, err := GetFormatter("xml")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown")
}

func TestTableFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := &TableFormatter{}
	require.NoError(t, f.Format(&buf, sampleReports()))

	output := buf.String()
	assert.Contains(t, output, "Wallet.sol")
	assert.Contains(t, output, "tx.origin used for authorization")
	assert.Contains(t, output, "7:17")
	assert.Contains(t, output, "2 issues (0 critical, 1 high, 1 medium, 0 low), score 77/100")
}

func TestTableFormatter_Error(t *testing.T) {
	var buf bytes.Buffer
	f := &TableFormatter{}
	require.NoError(t, f.Format(&buf, []FileReport{{Path: "A.sol", Error: "source exceeds max code length"}}))
	assert.Contains(t, buf.String(), "source exceeds max code length")
}

func TestTableFormatter_NoIssues(t *testing.T) {
	var buf bytes.Buffer
	f := &TableFormatter{}
	err := f.Format(&buf, []FileReport{{Path: "A.sol", Report: &types.Report{OverallScore: 100}}})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "No issues")
}

func TestTableFormatter_Degraded(t *testing.T) {
	var buf bytes.Buffer
	f := &TableFormatter{}
	err := f.Format(&buf, []FileReport{{Path: "A.sol", Report: &types.Report{
		OverallScore:     100,
		Degraded:         true,
		SkippedDetectors: []string{"SOL-REENTRANCY"},
		Issues:           []types.Issue{{RuleID: "X", Severity: types.SeverityLow}},
	}}})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "degraded")
	assert.Contains(t, buf.String(), "Skipped detectors: SOL-REENTRANCY")
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := &JSONFormatter{}
	require.NoError(t, f.Format(&buf, sampleReports()))

	var decoded []FileReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, 77, decoded[0].Report.OverallScore)
	assert.Equal(t, "tx.origin", decoded[0].Report.Issues[0].Match)
	assert.Contains(t, buf.String(), `"scan_time_ms"`)
}

func TestYAMLFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := &YAMLFormatter{}
	require.NoError(t, f.Format(&buf, sampleReports()))
	assert.Contains(t, buf.String(), "overall_score: 77")

	var decoded []FileReport
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, types.SeverityHigh, decoded[0].Report.Issues[0].Severity)
}

func TestMarkdownFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := &MarkdownFormatter{}
	require.NoError(t, f.Format(&buf, sampleReports()))

	output := buf.String()
	assert.Contains(t, output, "## Wallet.sol (score 77/100)")
	assert.Contains(t, output, "| **high** | 7:17 | `SOL-TX-ORIGIN` |")
	assert.Contains(t, output, `transfer/send \| fixed gas stipend`)
	assert.Contains(t, output, "**Summary:**")
}

func TestMarkdownFormatter_NoIssues(t *testing.T) {
	var buf bytes.Buffer
	f := &MarkdownFormatter{}
	require.NoError(t, f.Format(&buf, []FileReport{{Path: "A.sol", Report: &types.Report{OverallScore: 100}}}))
	assert.Contains(t, buf.String(), "_No issues._")
}

func TestHTMLFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := &HTMLFormatter{}
	reports := append(sampleReports(), FileReport{Path: "<Broken>.sol", Error: "boom"})
	require.NoError(t, f.Format(&buf, reports))

	output := buf.String()
	assert.Contains(t, output, "<!DOCTYPE html>")
	assert.Contains(t, output, "1 High")
	assert.Contains(t, output, "2 total issues")
	assert.Contains(t, output, "score 77/100")
	assert.Contains(t, output, "&lt;Broken&gt;.sol")
	assert.Contains(t, output, `class="badge high"`)
}

func TestFormatRules(t *testing.T) {
	metas := []rules.Meta{}
	for _, r := range rules.Builtin().All() {
		metas = append(metas, r.Meta)
	}

	var buf bytes.Buffer
	require.NoError(t, FormatRules(&buf, "table", metas))
	assert.Contains(t, buf.String(), "SOL-TX-ORIGIN")
	assert.Contains(t, buf.String(), "17 rules")

	buf.Reset()
	require.NoError(t, FormatRules(&buf, "yaml", metas))
	var decoded []rules.Meta
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Len(t, decoded, len(metas))

	buf.Reset()
	require.NoError(t, FormatRules(&buf, "markdown", metas))
	assert.Contains(t, buf.String(), "| `SOL-TX-ORIGIN` |")

	assert.Error(t, FormatRules(&buf, "xml", metas))
}

func TestSARIFFormatter(t *testing.T) {
	reports := append(sampleReports(), FileReport{Path: "Broken.sol", Error: "reading Broken.sol: permission denied"})
	var buf bytes.Buffer
	require.NoError(t, (&SARIFFormatter{}).Format(&buf, reports))

	var doc sarifLog
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "2.1.0", doc.Version)
	require.Len(t, doc.Runs, 1)
	run := doc.Runs[0]

	assert.Equal(t, "contractlens", run.Tool.Driver.Name)
	require.Len(t, run.Tool.Driver.Rules, 2)
	assert.Equal(t, "BP-TRANSFER-SEND", run.Tool.Driver.Rules[0].ID)
	assert.Equal(t, "SOL-TX-ORIGIN", run.Tool.Driver.Rules[1].ID)
	require.NotNil(t, run.Tool.Driver.Rules[1].Help)
	assert.Equal(t, "Use msg.sender", run.Tool.Driver.Rules[1].Help.Text)

	require.Len(t, run.Results, 2)
	first := run.Results[0]
	assert.Equal(t, "SOL-TX-ORIGIN", first.RuleID)
	assert.Equal(t, "error", first.Level)
	assert.Equal(t, "tx.origin is the original sender", first.Message.Text)
	loc := first.Locations[0].PhysicalLocation
	assert.Equal(t, "Wallet.sol", loc.ArtifactLocation.URI)
	assert.Equal(t, &sarifRegion{StartLine: 7, StartColumn: 17, EndLine: 7, EndColumn: 26}, loc.Region)

	second := run.Results[1]
	assert.Equal(t, "warning", second.Level)
	assert.Equal(t, "transfer/send | fixed gas stipend", second.Message.Text)

	require.Len(t, run.Invocations, 1)
	assert.False(t, run.Invocations[0].ExecutionSuccessful)
	require.Len(t, run.Invocations[0].Notifications, 1)
	assert.Contains(t, run.Invocations[0].Notifications[0].Message.Text, "permission denied")
}

func TestSARIFFormatter_NoIssues(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&SARIFFormatter{}).Format(&buf, []FileReport{{Path: "Clean.sol", Report: &types.Report{OverallScore: 100}}}))
	assert.Contains(t, buf.String(), `"results": []`)
	assert.Contains(t, buf.String(), `"rules": []`)
	assert.Contains(t, buf.String(), `"executionSuccessful": true`)
}
