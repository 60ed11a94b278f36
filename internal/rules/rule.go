// Package rules holds the detector catalog and the engine that runs it.
package rules

import (
	"regexp"
	"sort"

	"github.com/buemura/contractlens/pkg/types"
)

// Meta describes what a rule reports.
type Meta struct {
	ID         string         `json:"id" yaml:"id"`
	Kind       types.Kind     `json:"kind" yaml:"kind"`
	Severity   types.Severity `json:"severity" yaml:"severity"`
	Title      string         `json:"title" yaml:"title"`
	Message    string         `json:"message" yaml:"message"`
	Suggestion string         `json:"suggestion" yaml:"suggestion"`
	References []string       `json:"references,omitempty" yaml:"references,omitempty"`
	AutoFix    bool           `json:"auto_fix" yaml:"auto_fix"`
}

// Matcher finds the spans a rule reports. The set of matchers is closed:
// only Pattern and Heuristic implement it.
type Matcher interface {
	find(s *Scan) []Span
}

// Pattern reports every match of Expr on the chosen view. When Group names a
// capture group, the reported span is that group instead of the whole match.
// Accept, if set, can veto individual matches.
type Pattern struct {
	Expr   *regexp.Regexp
	Group  string
	View   View
	Accept func(s *Scan, match []int) bool
}

func (p Pattern) find(s *Scan) []Span {
	text := s.View(p.View)
	group := 0
	if p.Group != "" {
		group = p.Expr.SubexpIndex(p.Group)
	}
	var spans []Span
	for _, m := range p.Expr.FindAllStringSubmatchIndex(text, -1) {
		if group < 0 || m[2*group] < 0 {
			continue
		}
		if p.Accept != nil && !p.Accept(s, m) {
			continue
		}
		spans = append(spans, Span{Start: m[2*group], End: m[2*group+1]})
	}
	return spans
}

// Heuristic is a hand-written matcher for checks a single expression cannot
// express.
type Heuristic func(s *Scan) []Span

func (h Heuristic) find(s *Scan) []Span { return h(s) }

// Rule is one self-contained detector.
type Rule struct {
	Meta
	Match Matcher
}

// Detect runs the rule against s. Duplicate and empty spans are dropped and
// the issues come back in text order.
func (r *Rule) Detect(s *Scan) []types.Issue {
	spans := r.Match.find(s)
	sort.Slice(spans, func(i, j int) bool {
		if spans[i].Start != spans[j].Start {
			return spans[i].Start < spans[j].Start
		}
		return spans[i].End < spans[j].End
	})

	var issues []types.Issue
	var last Span
	for i, sp := range spans {
		if sp.End <= sp.Start || sp.Start < 0 || sp.End > s.Len() {
			continue
		}
		if i > 0 && sp == last {
			continue
		}
		last = sp
		issues = append(issues, types.Issue{
			RuleID:           r.ID,
			Kind:             r.Kind,
			Severity:         r.Severity,
			Title:            r.Title,
			Message:          r.Message,
			Suggestion:       r.Suggestion,
			Range:            s.RangeOf(sp.Start, sp.End),
			Match:            s.Text()[sp.Start:sp.End],
			AutoFixAvailable: r.AutoFix,
			Origin:           types.OriginPattern,
			References:       append([]string(nil), r.References...),
		})
	}
	return issues
}
