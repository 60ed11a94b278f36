// Package score merges detector output into an ordered, deduplicated issue
// list and an overall score.
package score

import (
	"sort"

	"github.com/buemura/contractlens/internal/ai"
	"github.com/buemura/contractlens/pkg/types"
)

// Max is the score of a source with no findings.
const Max = 100

var penalties = map[types.Severity]int{
	types.SeverityCritical: 25,
	types.SeverityHigh:     15,
	types.SeverityMedium:   8,
	types.SeverityLow:      3,
}

// Penalty returns the points deducted for one issue of the given severity.
func Penalty(s types.Severity) int { return penalties[s] }

// Options control filtering and scoring.
type Options struct {
	Threshold types.Severity
	// IncludeFiltered makes issues below Threshold still deduct from the
	// score even though they are not reported.
	IncludeFiltered bool
}

// Outcome is the aggregated result.
type Outcome struct {
	Issues []types.Issue
	Score  int
}

// Aggregate merges pattern and AI issues. aiRes is nil when the AI pass was
// not used. The result does not depend on input order.
func Aggregate(pattern []types.Issue, aiRes *ai.Result, opts Options) Outcome {
	merged := make([]types.Issue, 0, len(pattern))
	merged = append(merged, pattern...)
	delta := 0
	if aiRes != nil {
		merged = append(merged, aiRes.Issues...)
		delta = aiRes.ScoreDelta
	}

	unique := Dedupe(merged)

	threshold := opts.Threshold
	if !threshold.IsValid() {
		threshold = types.SeverityLow
	}
	reported := make([]types.Issue, 0, len(unique))
	for _, is := range unique {
		if is.Severity.AtLeast(threshold) {
			reported = append(reported, is)
		}
	}
	Sort(reported)

	scored := reported
	if opts.IncludeFiltered {
		scored = unique
	}
	return Outcome{Issues: reported, Score: Compute(scored, delta)}
}

type dedupeKey struct {
	r    types.Range
	kind types.Kind
}

// Dedupe collapses issues sharing a Range and Kind into the one that wins
// under preferred.
func Dedupe(issues []types.Issue) []types.Issue {
	best := make(map[dedupeKey]types.Issue, len(issues))
	order := make([]dedupeKey, 0, len(issues))
	for _, is := range issues {
		k := dedupeKey{r: is.Range, kind: is.Kind}
		cur, ok := best[k]
		if !ok {
			order = append(order, k)
			best[k] = is
			continue
		}
		if preferred(is, cur) {
			best[k] = is
		}
	}
	out := make([]types.Issue, 0, len(order))
	for _, k := range order {
		out = append(out, best[k])
	}
	return out
}

// preferred reports whether a should replace b among duplicates: higher
// severity, then smaller title, then pattern before AI, then smaller rule ID.
func preferred(a, b types.Issue) bool {
	if ra, rb := types.SeverityRank(a.Severity), types.SeverityRank(b.Severity); ra != rb {
		return ra < rb
	}
	if a.Title != b.Title {
		return a.Title < b.Title
	}
	if a.Origin != b.Origin {
		return a.Origin == types.OriginPattern
	}
	return a.RuleID < b.RuleID
}

// Sort orders issues by severity (most severe first), then position, kind,
// title and rule ID.
func Sort(issues []types.Issue) {
	sort.SliceStable(issues, func(i, j int) bool { return less(issues[i], issues[j]) })
}

func less(a, b types.Issue) bool {
	if ra, rb := types.SeverityRank(a.Severity), types.SeverityRank(b.Severity); ra != rb {
		return ra < rb
	}
	if a.Range.StartLine != b.Range.StartLine {
		return a.Range.StartLine < b.Range.StartLine
	}
	if a.Range.StartColumn != b.Range.StartColumn {
		return a.Range.StartColumn < b.Range.StartColumn
	}
	if a.Kind != b.Kind {
		return a.Kind < b.Kind
	}
	if a.Title != b.Title {
		return a.Title < b.Title
	}
	if a.RuleID != b.RuleID {
		return a.RuleID < b.RuleID
	}
	if a.Range.EndLine != b.Range.EndLine {
		return a.Range.EndLine < b.Range.EndLine
	}
	if a.Range.EndColumn != b.Range.EndColumn {
		return a.Range.EndColumn < b.Range.EndColumn
	}
	return a.Origin < b.Origin
}

// Compute applies severity penalties and delta to Max and clamps to 0..Max.
func Compute(issues []types.Issue, delta int) int {
	s := Max + delta
	for _, is := range issues {
		s -= Penalty(is.Severity)
	}
	switch {
	case s < 0:
		return 0
	case s > Max:
		return Max
	}
	return s
}
