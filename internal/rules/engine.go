package rules

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/buemura/contractlens/pkg/types"
	"go.uber.org/zap"
)

// Options holds rule-engine execution parameters.
type Options struct {
	Concurrency int
	Budget      time.Duration
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		Concurrency: runtime.NumCPU(),
		Budget:      250 * time.Millisecond,
	}
}

// Skip records a rule that did not contribute to a cycle.
type Skip struct {
	RuleID string
	Reason string
}

// Result is the merged output of one rule-engine cycle. Issue order is not
// meaningful; the score aggregator imposes the published order.
type Result struct {
	Issues  []types.Issue
	Skipped []Skip
}

// SkippedIDs returns the IDs of skipped rules, sorted.
func (r Result) SkippedIDs() []string {
	if len(r.Skipped) == 0 {
		return nil
	}
	ids := make([]string, len(r.Skipped))
	for i, s := range r.Skipped {
		ids[i] = s.RuleID
	}
	sort.Strings(ids)
	return ids
}

// Engine runs every registered rule independently and concurrently.
type Engine struct {
	registry *Registry
	logger   *zap.SugaredLogger
}

// NewEngine creates an engine backed by the given registry.
func NewEngine(registry *Registry, logger *zap.SugaredLogger) *Engine {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Engine{registry: registry, logger: logger}
}

// Registry exposes the rule registry.
func (e *Engine) Registry() *Registry { return e.registry }

// Run executes all rules against s, bounded by opts.Concurrency. A rule that
// panics or outlives opts.Budget is skipped; the cycle still completes.
func (e *Engine) Run(ctx context.Context, s *Scan, opts Options) Result {
	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	sem := make(chan struct{}, concurrency)
	var mu sync.Mutex
	var result Result
	var wg sync.WaitGroup

	for _, rule := range e.registry.All() {
		wg.Add(1)
		go func(rule *Rule) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				mu.Lock()
				result.Skipped = append(result.Skipped, Skip{RuleID: rule.ID, Reason: ctx.Err().Error()})
				mu.Unlock()
				return
			}

			issues, err := e.runOne(ctx, rule, s, opts.Budget)
			mu.Lock()
			if err != nil {
				result.Skipped = append(result.Skipped, Skip{RuleID: rule.ID, Reason: err.Error()})
			} else {
				result.Issues = append(result.Issues, issues...)
			}
			mu.Unlock()
		}(rule)
	}

	wg.Wait()
	return result
}

type outcome struct {
	issues []types.Issue
	err    error
}

// runOne runs a single rule with a time budget. Matching cannot be
// interrupted, so an over-budget rule keeps running in the background and its
// result is dropped when it finishes.
func (e *Engine) runOne(ctx context.Context, rule *Rule, s *Scan, budget time.Duration) ([]types.Issue, error) {
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		done <- outcome{issues: rule.Detect(s)}
	}()

	var timeout <-chan time.Time
	if budget > 0 {
		timer := time.NewTimer(budget)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case out := <-done:
		if out.err != nil {
			e.logger.Warnw("rule failed", "rule", rule.ID, "error", out.err)
		}
		return out.issues, out.err
	case <-timeout:
		e.logger.Warnw("rule exceeded budget", "rule", rule.ID, "budget", budget)
		return nil, fmt.Errorf("exceeded budget of %s", budget)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
