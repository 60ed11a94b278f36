// Package engine schedules analysis of a changing source document. It
// debounces triggers, keeps at most one scan in flight and publishes only
// results computed from the latest source.
package engine

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/buemura/contractlens/internal/ai"
	"github.com/buemura/contractlens/internal/broadcast"
	"github.com/buemura/contractlens/internal/cache"
	"github.com/buemura/contractlens/internal/config"
	"github.com/buemura/contractlens/internal/editor"
	"github.com/buemura/contractlens/internal/fingerprint"
	"github.com/buemura/contractlens/internal/fix"
	"github.com/buemura/contractlens/internal/rules"
	"github.com/buemura/contractlens/internal/score"
	"github.com/buemura/contractlens/pkg/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Engine analyzes one document. It is safe for concurrent use.
type Engine struct {
	cfg         atomic.Pointer[config.Engine]
	registry    *rules.Registry
	rules       *rules.Engine
	analyzer    ai.Analyzer
	cache       *cache.Cache
	hub         *broadcast.Hub
	out         *outbox
	editor      editor.Editor
	logger      *zap.SugaredLogger
	concurrency int

	mu      sync.Mutex
	source  string
	seq     uint64
	state   State
	timer   *time.Timer
	cancel  context.CancelFunc
	current *types.Report
	closed  bool
	wg      sync.WaitGroup
}

// Option configures an Engine.
type Option func(*Engine)

// WithAnalyzer sets the AI analyzer used when AI analysis is enabled.
func WithAnalyzer(a ai.Analyzer) Option {
	return func(e *Engine) { e.analyzer = a }
}

// WithEditor attaches the editor used by PerformAnalysis, AutoFixIssue and
// JumpToIssue.
func WithEditor(ed editor.Editor) Option {
	return func(e *Engine) { e.editor = ed }
}

// WithLogger sets the logger. A nil logger keeps the default.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithRegistry replaces the builtin rule catalog.
func WithRegistry(r *rules.Registry) Option {
	return func(e *Engine) { e.registry = r }
}

// WithCache shares a report cache between engines.
func WithCache(c *cache.Cache) Option {
	return func(e *Engine) { e.cache = c }
}

// WithConcurrency bounds how many rules run at once.
func WithConcurrency(n int) Option {
	return func(e *Engine) { e.concurrency = n }
}

// New creates an Engine with the given configuration.
func New(cfg config.Engine, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		logger:      zap.NewNop().Sugar(),
		concurrency: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.registry == nil {
		e.registry = rules.Builtin()
	}
	if e.cache == nil {
		e.cache = cache.New(cfg.CacheSize)
	}
	e.rules = rules.NewEngine(e.registry, e.logger)
	e.hub = broadcast.New(e.logger)
	e.out = newOutbox(e.hub)
	e.cfg.Store(&cfg)
	return e, nil
}

// Trigger records source as the latest text and restarts the debounce timer.
// When realtime analysis is disabled the source is only recorded.
func (e *Engine) Trigger(source string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return disposed("trigger")
	}
	e.source = source
	cfg := e.cfg.Load()
	if !cfg.EnableRealtime {
		return nil
	}

	e.supersedeLocked()
	seq := e.seq
	e.wg.Add(1)
	e.timer = time.AfterFunc(cfg.Debounce(), func() {
		defer e.wg.Done()
		e.fire(seq)
	})
	e.state = StatePending
	return nil
}

// supersedeLocked invalidates the pending timer and the in-flight scan.
func (e *Engine) supersedeLocked() {
	e.seq++
	if e.timer != nil {
		if e.timer.Stop() {
			e.wg.Done()
		}
		e.timer = nil
	}
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
}

func (e *Engine) fire(seq uint64) {
	e.mu.Lock()
	if e.closed || seq != e.seq {
		e.mu.Unlock()
		return
	}
	e.timer = nil
	src := e.source
	cfg := *e.cfg.Load()
	if len(src) > cfg.MaxCodeLength {
		e.state = StateIdle
		e.mu.Unlock()
		e.logger.Warnw("scan refused", "error", tooLarge("trigger", len(src), cfg.MaxCodeLength))
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	e.cancel = cancel
	e.state = StateScanning
	e.mu.Unlock()

	res := e.scan(ctx, ctx, src, cfg)
	e.commit(seq, res)
}

// PerformAnalysis scans the latest source immediately, superseding any
// pending or in-flight scan. With an editor attached the editor's text is
// used. The returned report is committed and published only if no newer
// request arrived while it ran.
func (e *Engine) PerformAnalysis(ctx context.Context) (*types.Report, error) {
	return e.perform(ctx, "perform analysis", nil)
}

// Analyze records source and scans it immediately.
func (e *Engine) Analyze(ctx context.Context, source string) (*types.Report, error) {
	return e.perform(ctx, "analyze", &source)
}

func (e *Engine) perform(ctx context.Context, op string, source *string) (*types.Report, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, disposed(op)
	}
	switch {
	case source != nil:
		e.source = *source
	case e.editor != nil:
		e.source = e.editor.Text()
	}
	e.supersedeLocked()
	seq := e.seq
	src := e.source
	cfg := *e.cfg.Load()
	if len(src) > cfg.MaxCodeLength {
		e.state = StateIdle
		e.mu.Unlock()
		return nil, tooLarge(op, len(src), cfg.MaxCodeLength)
	}
	scanCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	e.cancel = cancel
	e.state = StateScanning
	e.wg.Add(1)
	e.mu.Unlock()
	defer e.wg.Done()

	res := e.scan(ctx, scanCtx, src, cfg)
	if err := ctx.Err(); err != nil {
		e.settle(seq)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	e.commit(seq, res)
	return res.report.Clone(), nil
}

type scanResult struct {
	report    *types.Report
	key       fingerprint.Fingerprint
	cacheable bool
}

// scan runs one analysis cycle. Rules observe ctx; the AI pass observes
// aiCtx, which is cancelled when the scan is superseded.
func (e *Engine) scan(ctx, aiCtx context.Context, src string, cfg config.Engine) scanResult {
	start := time.Now()
	key := fingerprint.Compute(src, fingerprint.RelevantFrom(cfg))

	if cached, ok := e.cache.Get(key); ok {
		cached.CacheHit = true
		cached.ScanTime = time.Since(start)
		cached.ScanTimeMs = cached.ScanTime.Milliseconds()
		cached.ProducedAt = time.Now()
		e.logger.Debugw("cache hit", "fingerprint", key.Short())
		return scanResult{report: cached, key: key}
	}

	e.logger.Debugw("scan started", "fingerprint", key.Short(), "bytes", len(src))

	var pattern rules.Result
	if cfg.EnablePatternMatching {
		pattern = e.rules.Run(ctx, rules.NewScan(src), rules.Options{
			Concurrency: e.concurrency,
			Budget:      cfg.DetectorBudget,
		})
		for _, s := range pattern.Skipped {
			e.logger.Warnw("detector skipped", "error", &EngineError{
				Code:    CodeDetectorBudgetExceeded,
				Op:      "scan",
				Message: s.RuleID,
				Cause:   errors.New(s.Reason),
			})
		}
	}

	var aiRes *ai.Result
	aiFailed := false
	if cfg.EnableAIAnalysis {
		res, err := ai.NewAdapter(e.analyzer, cfg.AITimeout).Analyze(aiCtx, ai.Request{
			Source:   src,
			Language: "solidity",
			Hints:    ruleIDs(pattern.Issues),
		})
		if err != nil {
			aiFailed = true
			e.logger.Warnw("ai analysis degraded", "error", &EngineError{Code: CodeAdapterUnavailable, Op: "scan", Cause: err})
		} else {
			aiRes = res
		}
	}

	out := score.Aggregate(pattern.Issues, aiRes, score.Options{
		Threshold:       cfg.SeverityThreshold,
		IncludeFiltered: cfg.ScoreFilteredIssues,
	})
	elapsed := time.Since(start)
	report := &types.Report{
		ID:               uuid.NewString(),
		Issues:           out.Issues,
		OverallScore:     out.Score,
		ScanTime:         elapsed,
		ScanTimeMs:       elapsed.Milliseconds(),
		AIAnalysisUsed:   aiRes != nil,
		Fingerprint:      key.String(),
		ProducedAt:       time.Now(),
		SkippedDetectors: pattern.SkippedIDs(),
		Degraded:         aiFailed || len(pattern.Skipped) > 0,
		Summary:          types.Summarize(out.Issues),
	}
	return scanResult{report: report, key: key, cacheable: !report.Degraded}
}

func ruleIDs(issues []types.Issue) []string {
	seen := make(map[string]bool, len(issues))
	var ids []string
	for _, is := range issues {
		if !seen[is.RuleID] {
			seen[is.RuleID] = true
			ids = append(ids, is.RuleID)
		}
	}
	sort.Strings(ids)
	return ids
}

// commit stores and publishes res if seq is still the latest request.
func (e *Engine) commit(seq uint64, res scanResult) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || seq != e.seq {
		e.logger.Debugw("discarding stale scan", "seq", seq, "latest", e.seq)
		return false
	}
	if res.cacheable {
		e.cache.Put(res.key, res.report)
	}
	e.current = res.report
	e.state = StateIdle
	e.cancel = nil
	e.out.push(res.report)
	e.logger.Debugw("scan committed",
		"seq", seq,
		"fingerprint", res.key.Short(),
		"issues", len(res.report.Issues),
		"score", res.report.OverallScore,
		"cache_hit", res.report.CacheHit,
	)
	return true
}

func (e *Engine) settle(seq uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if seq == e.seq && !e.closed {
		e.state = StateIdle
		e.cancel = nil
	}
}

// UpdateConfig merges p into the live configuration. Readers see either the
// old or the new snapshot, never a mix.
func (e *Engine) UpdateConfig(p config.Partial) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return disposed("update config")
	}
	next, err := e.cfg.Load().Apply(p)
	if err != nil {
		return err
	}
	e.cfg.Store(&next)
	if !next.EnableRealtime && e.timer != nil {
		if e.timer.Stop() {
			e.wg.Done()
		}
		e.timer = nil
		e.state = StateIdle
	}
	return nil
}

// ClearResults drops the current report, cancels pending work and publishes
// nil. The cache is left intact.
func (e *Engine) ClearResults() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return disposed("clear results")
	}
	e.supersedeLocked()
	e.current = nil
	e.state = StateIdle
	e.out.push(nil)
	return nil
}

// AutoFixIssue applies the fix for issue through the editor and triggers a
// follow-up scan. It returns false without touching the text when auto-fix
// is disabled, the issue has no fix, or its range is stale.
func (e *Engine) AutoFixIssue(issue types.Issue) (bool, error) {
	const op = "auto fix"
	if e.isClosed() {
		return false, disposed(op)
	}
	if !e.cfg.Load().EnableAutoFix || !issue.AutoFixAvailable {
		return false, nil
	}
	if e.editor == nil {
		return false, ErrNoEditor
	}

	fx, err := fix.Generate(issue, e.editor.Text())
	switch {
	case errors.Is(err, fix.ErrStale):
		e.logger.Infow("fix not applied", "rule", issue.RuleID,
			"error", &EngineError{Code: CodeStaleFixTarget, Op: op, Cause: err})
		return false, nil
	case err != nil:
		e.logger.Debugw("fix not applied", "rule", issue.RuleID, "error", err)
		return false, nil
	}

	if err := e.editor.Replace(fx.Range, fx.Replacement); err != nil {
		if errors.Is(err, editor.ErrOutOfRange) {
			return false, nil
		}
		return false, fmt.Errorf("%s: %w", op, err)
	}
	e.logger.Debugw("fix applied", "rule", issue.RuleID, "replacement", fx.Replacement)

	if err := e.Trigger(e.editor.Text()); err != nil {
		return true, err
	}
	return true, nil
}

// JumpToIssue selects and reveals the issue's range in the editor.
func (e *Engine) JumpToIssue(issue types.Issue) error {
	const op = "jump to issue"
	if e.isClosed() {
		return disposed(op)
	}
	if e.editor == nil {
		return ErrNoEditor
	}
	if err := e.editor.SetSelection(issue.Range); err != nil {
		return &EngineError{Code: CodeStaleFixTarget, Op: op, Message: "issue range no longer valid", Cause: err}
	}
	if err := e.editor.RevealRange(issue.Range); err != nil {
		return &EngineError{Code: CodeStaleFixTarget, Op: op, Message: "issue range no longer valid", Cause: err}
	}
	return nil
}

// Subscribe registers fn for every published report. fn receives nil when
// results are cleared. Delivery happens on a separate goroutine in commit
// order.
func (e *Engine) Subscribe(fn broadcast.Func) (broadcast.Token, error) {
	if e.isClosed() {
		return "", disposed("subscribe")
	}
	return e.hub.Subscribe(fn), nil
}

// Unsubscribe removes the subscription behind token and reports whether it
// was live. Close already drops every subscription, so after Close it fails
// with EngineDisposed.
func (e *Engine) Unsubscribe(token broadcast.Token) (bool, error) {
	if e.isClosed() {
		return false, disposed("unsubscribe")
	}
	return e.hub.Unsubscribe(token), nil
}

// Subscribers returns the number of live subscriptions.
func (e *Engine) Subscribers() int { return e.hub.Len() }

// Current returns a copy of the latest committed report, or nil.
func (e *Engine) Current() *types.Report {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current.Clone()
}

// State returns the scheduler state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Config returns the current configuration snapshot.
func (e *Engine) Config() config.Engine { return *e.cfg.Load() }

// Source returns the latest recorded source.
func (e *Engine) Source() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.source
}

// Editor returns the attached editor, if any.
func (e *Engine) Editor() editor.Editor { return e.editor }

// Registry returns the rule registry in use.
func (e *Engine) Registry() *rules.Registry { return e.registry }

func (e *Engine) isClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// Close cancels outstanding work, drops subscribers and waits for scans to
// finish. Every later operation fails with ErrEngineDisposed.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.supersedeLocked()
	e.state = StateClosed
	e.mu.Unlock()

	e.out.close()
	e.hub.Close()
	e.wg.Wait()
	return nil
}
