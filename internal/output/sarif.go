package output

import (
	"encoding/json"
	"io"
	"sort"

	"github.com/buemura/contractlens/pkg/types"
)

const sarifSchema = "https://json.schemastore.org/sarif-2.1.0.json"

// SARIFFormatter renders reports as a single SARIF 2.1.0 run. Only the
// subset code-scanning tools read is emitted: rules, results with one
// physical location each, and tool notifications for unreadable files.
type SARIFFormatter struct{}

type sarifLog struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool        sarifTool         `json:"tool"`
	Invocations []sarifInvocation `json:"invocations"`
	Results     []sarifResult     `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name  string      `json:"name"`
	Rules []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string         `json:"id"`
	ShortDescription sarifMessage   `json:"shortDescription"`
	Help             *sarifMessage  `json:"help,omitempty"`
	Properties       map[string]any `json:"properties,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifInvocation struct {
	ExecutionSuccessful bool                `json:"executionSuccessful"`
	Notifications       []sarifNotification `json:"toolExecutionNotifications,omitempty"`
}

type sarifNotification struct {
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations,omitempty"`
}

type sarifResult struct {
	RuleID     string          `json:"ruleId"`
	Level      string          `json:"level"`
	Message    sarifMessage    `json:"message"`
	Locations  []sarifLocation `json:"locations"`
	Properties map[string]any  `json:"properties,omitempty"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifact `json:"artifactLocation"`
	Region           *sarifRegion  `json:"region,omitempty"`
}

type sarifArtifact struct {
	URI string `json:"uri"`
}

// sarifRegion columns are 1-based with an exclusive end column.
type sarifRegion struct {
	StartLine   int `json:"startLine"`
	StartColumn int `json:"startColumn"`
	EndLine     int `json:"endLine"`
	EndColumn   int `json:"endColumn"`
}

// sarifLevel maps a Severity to a SARIF result level.
func sarifLevel(s types.Severity) string {
	switch s {
	case types.SeverityCritical, types.SeverityHigh:
		return "error"
	case types.SeverityMedium:
		return "warning"
	default:
		return "note"
	}
}

func (f *SARIFFormatter) Format(w io.Writer, reports []FileReport) error {
	run := sarifRun{
		Tool:        sarifTool{Driver: sarifDriver{Name: "contractlens"}},
		Invocations: []sarifInvocation{{ExecutionSuccessful: true}},
		Results:     []sarifResult{},
	}
	rules := map[string]sarifRule{}

	for _, fr := range reports {
		if fr.Error != "" {
			inv := &run.Invocations[0]
			inv.ExecutionSuccessful = false
			inv.Notifications = append(inv.Notifications, sarifNotification{
				Level:     "error",
				Message:   sarifMessage{Text: fr.Error},
				Locations: []sarifLocation{{PhysicalLocation: sarifPhysicalLocation{ArtifactLocation: sarifArtifact{URI: fr.Path}}}},
			})
			continue
		}
		if fr.Report == nil {
			continue
		}
		for _, is := range fr.Report.Issues {
			if _, ok := rules[is.RuleID]; !ok {
				rule := sarifRule{
					ID:               is.RuleID,
					ShortDescription: sarifMessage{Text: is.Title},
					Properties:       map[string]any{"kind": string(is.Kind)},
				}
				if is.Suggestion != "" {
					rule.Help = &sarifMessage{Text: is.Suggestion}
				}
				rules[is.RuleID] = rule
			}

			text := is.Message
			if text == "" {
				text = is.Title
			}
			props := map[string]any{"severity": string(is.Severity), "origin": string(is.Origin)}
			if is.AutoFixAvailable {
				props["autofix"] = true
			}
			run.Results = append(run.Results, sarifResult{
				RuleID:  is.RuleID,
				Level:   sarifLevel(is.Severity),
				Message: sarifMessage{Text: text},
				Locations: []sarifLocation{{PhysicalLocation: sarifPhysicalLocation{
					ArtifactLocation: sarifArtifact{URI: fr.Path},
					Region: &sarifRegion{
						StartLine:   is.Range.StartLine,
						StartColumn: is.Range.StartColumn,
						EndLine:     is.Range.EndLine,
						EndColumn:   is.Range.EndColumn + 1,
					},
				}}},
				Properties: props,
			})
		}
	}

	ids := make([]string, 0, len(rules))
	for id := range rules {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	run.Tool.Driver.Rules = make([]sarifRule, 0, len(ids))
	for _, id := range ids {
		run.Tool.Driver.Rules = append(run.Tool.Driver.Rules, rules[id])
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(sarifLog{Schema: sarifSchema, Version: "2.1.0", Runs: []sarifRun{run}})
}
