// Package fix computes deterministic text replacements for issues.
package fix

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/buemura/contractlens/internal/rules"
	"github.com/buemura/contractlens/pkg/types"
)

var (
	// ErrNoFix means no deterministic replacement is known for the issue.
	ErrNoFix = errors.New("no automatic fix available")
	// ErrStale means the issue's range no longer addresses the same text in
	// the current source.
	ErrStale = errors.New("fix target is stale")
)

// Fix is a replacement to apply over Range.
type Fix struct {
	RuleID      string      `json:"rule_id"`
	Range       types.Range `json:"range"`
	Original    string      `json:"original"`
	Replacement string      `json:"replacement"`
}

// Fixer rewrites the matched text. ok is false when the match is not in a
// shape the fixer understands.
type Fixer func(match string) (replacement string, ok bool)

func constant(s string) Fixer {
	return func(string) (string, bool) { return s, true }
}

var (
	rePostfix   = regexp.MustCompile(`^([A-Za-z_]\w*)\+\+$`)
	reGtZero    = regexp.MustCompile(`^(.*?)\s*>\s*0$`)
	rePragmaPin = regexp.MustCompile(`^[\^~]\s*(\d+\.\d+\.\d+)$`)
)

var byRule = map[string]Fixer{
	rules.IDTxOrigin: constant("msg.sender"),
	rules.IDPostfixIncrement: func(m string) (string, bool) {
		sub := rePostfix.FindStringSubmatch(m)
		if sub == nil {
			return "", false
		}
		return "++" + sub[1], true
	},
	rules.IDGreaterThanZero: func(m string) (string, bool) {
		sub := reGtZero.FindStringSubmatch(m)
		if sub == nil {
			return "", false
		}
		return sub[1] + " != 0", true
	},
	rules.IDFloatingPragma: func(m string) (string, bool) {
		sub := rePragmaPin.FindStringSubmatch(strings.TrimSpace(m))
		if sub == nil {
			return "", false
		}
		return sub[1], true
	},
	rules.IDDeprecatedNow:   constant("block.timestamp"),
	rules.IDDeprecatedThrow: constant("revert()"),
}

// titleFixers cover issues without a known rule ID. Each entry also checks
// the matched text so a loosely worded title cannot trigger a rewrite.
var titleFixers = []struct {
	kind  types.Kind
	title *regexp.Regexp
	match string
	fix   Fixer
}{
	{types.KindVulnerability, regexp.MustCompile(`(?i)tx\.origin`), "tx.origin", constant("msg.sender")},
	{types.KindBestPractice, regexp.MustCompile(`(?i)\bnow\b`), "now", constant("block.timestamp")},
	{types.KindBestPractice, regexp.MustCompile(`(?i)\bthrow\b`), "throw", constant("revert()")},
}

// Replacement returns the replacement text for issue, or ErrNoFix.
func Replacement(issue types.Issue) (string, error) {
	if f, ok := byRule[issue.RuleID]; ok {
		if out, ok := f(issue.Match); ok {
			return out, nil
		}
		return "", fmt.Errorf("%s: unexpected match %q: %w", issue.RuleID, issue.Match, ErrNoFix)
	}
	for _, tf := range titleFixers {
		if issue.Kind == tf.kind && tf.title.MatchString(issue.Title) && issue.Match == tf.match {
			out, _ := tf.fix(issue.Match)
			return out, nil
		}
	}
	return "", ErrNoFix
}

// Supported reports whether a rule ID has a registered fixer.
func Supported(ruleID string) bool {
	_, ok := byRule[ruleID]
	return ok
}

// Generate computes the fix for issue against the current source text. It
// returns ErrStale if the range is out of bounds or no longer holds the text
// the issue was produced from.
func Generate(issue types.Issue, current string) (Fix, error) {
	replacement, err := Replacement(issue)
	if err != nil {
		return Fix{}, err
	}

	src := types.NewSource(current)
	got, ok := src.Slice(issue.Range)
	if !ok {
		return Fix{}, fmt.Errorf("range %d:%d-%d:%d outside source: %w",
			issue.Range.StartLine, issue.Range.StartColumn, issue.Range.EndLine, issue.Range.EndColumn, ErrStale)
	}
	if issue.Match != "" && got != issue.Match {
		return Fix{}, fmt.Errorf("expected %q at range, found %q: %w", issue.Match, got, ErrStale)
	}

	return Fix{
		RuleID:      issue.RuleID,
		Range:       issue.Range,
		Original:    got,
		Replacement: replacement,
	}, nil
}

// Apply returns text with fx applied. It re-validates the range.
func Apply(text string, fx Fix) (string, error) {
	src := types.NewSource(text)
	start, end, ok := src.Span(fx.Range)
	if !ok {
		return "", ErrStale
	}
	return text[:start] + fx.Replacement + text[end:], nil
}
