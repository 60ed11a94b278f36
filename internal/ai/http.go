package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/buemura/contractlens/pkg/types"
)

const systemPrompt = `You are a smart-contract security auditor. Review the Solidity source and reply with a single JSON object and nothing else:
{"score_delta": <integer between -20 and 20>,
 "findings": [{"kind": "vulnerability|gas-optimization|best-practice",
   "severity": "low|medium|high|critical",
   "title": "...", "message": "...", "suggestion": "...",
   "start_line": 1, "start_column": 1, "end_line": 1, "end_column": 1}]}
Lines and columns are 1-based and the end position is inclusive. Do not repeat findings whose rule IDs are listed as already reported.`

// HTTPAnalyzer calls an OpenAI-compatible chat-completions endpoint.
type HTTPAnalyzer struct {
	Endpoint string
	Model    string
	APIKey   string
	Client   *http.Client
	// Context, if set, is prepended to every user message.
	Context  *ProjectContext
}

type finding struct {
	Kind        string `json:"kind"`
	Severity    string `json:"severity"`
	Title       string `json:"title"`
	Message     string `json:"message"`
	Suggestion  string `json:"suggestion"`
	StartLine   int    `json:"start_line"`
	StartColumn int    `json:"start_column"`
	EndLine     int    `json:"end_line"`
	EndColumn   int    `json:"end_column"`
}

type findingsDocument struct {
	ScoreDelta int       `json:"score_delta"`
	Findings   []finding `json:"findings"`
}

func (h *HTTPAnalyzer) Analyze(ctx context.Context, req Request) (*Result, error) {
	if h.Endpoint == "" {
		return nil, errors.New("ai endpoint not configured")
	}

	user := h.Context.Prompt()
	user += "Language: " + orDefault(req.Language, "solidity") + "\n"
	if len(req.Hints) > 0 {
		user += "Already reported: " + strings.Join(req.Hints, ", ") + "\n"
	}
	user += "\n" + req.Source

	body, err := json.Marshal(NewCompletionRequest(h.Model, []Message{
		{Role: RoleSystem, Content: systemPrompt},
		{Role: RoleUser, Content: user},
	}, WithTemperature(0)))
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	url := strings.TrimRight(h.Endpoint, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if h.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+h.APIKey)
	}

	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", url, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}

	var cr completionResponse
	if err := json.Unmarshal(raw, &cr); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if len(cr.Choices) == 0 {
		return nil, errors.New("response has no choices")
	}

	doc, err := parseFindings(cr.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	res := &Result{ScoreDelta: doc.ScoreDelta, Model: orDefault(cr.Model, h.Model)}
	for _, f := range doc.Findings {
		sev, err := types.ParseSeverity(f.Severity)
		if err != nil {
			return nil, fmt.Errorf("finding %q: %w", f.Title, err)
		}
		res.Issues = append(res.Issues, types.Issue{
			Kind:       types.Kind(strings.ToLower(f.Kind)),
			Severity:   sev,
			Title:      f.Title,
			Message:    f.Message,
			Suggestion: f.Suggestion,
			Range: types.Range{
				StartLine:   f.StartLine,
				StartColumn: f.StartColumn,
				EndLine:     f.EndLine,
				EndColumn:   f.EndColumn,
			},
		})
	}
	return res, nil
}

// parseFindings accepts the JSON document bare or wrapped in a markdown
// code fence.
func parseFindings(content string) (*findingsDocument, error) {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	}
	var doc findingsDocument
	dec := json.NewDecoder(strings.NewReader(content))
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding findings: %w", err)
	}
	return &doc, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
