// Package ai isolates the optional AI-assisted analysis pass behind a
// timeout and failure boundary.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/buemura/contractlens/pkg/types"
)

// ErrUnavailable is returned when the AI pass timed out, failed, or produced
// a result that does not conform to the issue schema.
var ErrUnavailable = errors.New("ai analysis unavailable")

// Request is the input of one AI pass.
type Request struct {
	Source   string
	Language string
	// Hints are rule IDs the pattern pass already reported.
	Hints []string
}

// Result is what an Analyzer contributes to a report.
type Result struct {
	Issues     []types.Issue `json:"issues"`
	ScoreDelta int           `json:"score_delta"`
	Model      string        `json:"model,omitempty"`
}

// Analyzer performs the AI pass. Implementations must honor ctx.
type Analyzer interface {
	Analyze(ctx context.Context, req Request) (*Result, error)
}

// Func adapts a plain function to Analyzer.
type Func func(ctx context.Context, req Request) (*Result, error)

func (f Func) Analyze(ctx context.Context, req Request) (*Result, error) { return f(ctx, req) }

// Static always returns the same result. Issues are copied per call.
type Static struct {
	Result Result
	Err    error
}

func (s Static) Analyze(ctx context.Context, _ Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.Err != nil {
		return nil, s.Err
	}
	out := s.Result
	out.Issues = append([]types.Issue(nil), s.Result.Issues...)
	return &out, nil
}

// Adapter bounds an Analyzer with a timeout and validates its output.
type Adapter struct {
	analyzer Analyzer
	timeout  time.Duration
}

func NewAdapter(analyzer Analyzer, timeout time.Duration) *Adapter {
	return &Adapter{analyzer: analyzer, timeout: timeout}
}

// Analyze runs the wrapped analyzer. Any failure is reported as
// ErrUnavailable wrapping the cause. Issues whose range falls outside the
// source are dropped; the rest are stamped as AI-originated with no
// auto-fix.
func (a *Adapter) Analyze(ctx context.Context, req Request) (*Result, error) {
	if a == nil || a.analyzer == nil {
		return nil, fmt.Errorf("no analyzer configured: %w", ErrUnavailable)
	}
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	type outcome struct {
		res *Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("analyzer panicked: %v", r)}
			}
		}()
		res, err := a.analyzer.Analyze(ctx, req)
		done <- outcome{res: res, err: err}
	}()

	var out outcome
	select {
	case out = <-done:
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, ctx.Err())
	}
	if out.err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, out.err)
	}
	if out.res == nil {
		return nil, fmt.Errorf("%w: analyzer returned no result", ErrUnavailable)
	}
	return normalize(out.res, types.NewSource(req.Source))
}

func normalize(res *Result, src *types.Source) (*Result, error) {
	out := &Result{ScoreDelta: res.ScoreDelta, Model: res.Model}
	for i, is := range res.Issues {
		if !is.Kind.IsValid() || !is.Severity.IsValid() || is.Title == "" {
			return nil, fmt.Errorf("%w: issue %d does not match schema", ErrUnavailable, i)
		}
		if !src.Contains(is.Range) {
			continue
		}
		is.Origin = types.OriginAI
		is.AutoFixAvailable = false
		if is.RuleID == "" {
			is.RuleID = "AI"
		}
		if m, ok := src.Slice(is.Range); ok && is.Match == "" {
			is.Match = m
		}
		if is.References != nil {
			is.References = append([]string(nil), is.References...)
		}
		out.Issues = append(out.Issues, is)
	}
	return out, nil
}
