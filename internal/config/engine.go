package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/buemura/contractlens/pkg/types"
	"github.com/go-viper/mapstructure/v2"
)

// Engine holds the options an analysis engine consults on every scan. Values
// are treated as immutable snapshots: updates produce a new Engine.
type Engine struct {
	EnableRealtime        bool           `mapstructure:"enable_realtime" yaml:"enable_realtime" json:"enable_realtime"`
	EnableAIAnalysis      bool           `mapstructure:"enable_ai_analysis" yaml:"enable_ai_analysis" json:"enable_ai_analysis"`
	EnablePatternMatching bool           `mapstructure:"enable_pattern_matching" yaml:"enable_pattern_matching" json:"enable_pattern_matching"`
	DebounceMs            int            `mapstructure:"debounce_ms" yaml:"debounce_ms" json:"debounce_ms"`
	SeverityThreshold     types.Severity `mapstructure:"severity_threshold" yaml:"severity_threshold" json:"severity_threshold"`
	MaxCodeLength         int            `mapstructure:"max_code_length" yaml:"max_code_length" json:"max_code_length"`
	EnableAutoFix         bool           `mapstructure:"enable_auto_fix" yaml:"enable_auto_fix" json:"enable_auto_fix"`
	DetectorBudget        time.Duration  `mapstructure:"detector_budget" yaml:"detector_budget" json:"detector_budget"`
	AITimeout             time.Duration  `mapstructure:"ai_timeout" yaml:"ai_timeout" json:"ai_timeout"`
	CacheSize             int            `mapstructure:"cache_size" yaml:"cache_size" json:"cache_size"`
	ScoreFilteredIssues   bool           `mapstructure:"score_filtered_issues" yaml:"score_filtered_issues" json:"score_filtered_issues"`
}

// DefaultEngine returns the engine defaults.
func DefaultEngine() Engine {
	return Engine{
		EnableRealtime:        true,
		EnableAIAnalysis:      false,
		EnablePatternMatching: true,
		DebounceMs:            500,
		SeverityThreshold:     types.SeverityLow,
		MaxCodeLength:         100_000,
		EnableAutoFix:         true,
		DetectorBudget:        250 * time.Millisecond,
		AITimeout:             10 * time.Second,
		CacheSize:             64,
	}
}

// Debounce returns the debounce delay as a duration.
func (e Engine) Debounce() time.Duration {
	return time.Duration(e.DebounceMs) * time.Millisecond
}

// Validate checks that option values are usable.
func (e Engine) Validate() error {
	var errs []error
	if e.DebounceMs < 0 {
		errs = append(errs, fmt.Errorf("debounce_ms must be non-negative, got %d", e.DebounceMs))
	}
	if !e.SeverityThreshold.IsValid() {
		errs = append(errs, fmt.Errorf("severity_threshold %q is not a valid severity", e.SeverityThreshold))
	}
	if e.MaxCodeLength <= 0 {
		errs = append(errs, fmt.Errorf("max_code_length must be positive, got %d", e.MaxCodeLength))
	}
	if e.DetectorBudget < 0 {
		errs = append(errs, fmt.Errorf("detector_budget must be non-negative"))
	}
	if e.AITimeout < 0 {
		errs = append(errs, fmt.Errorf("ai_timeout must be non-negative"))
	}
	if e.CacheSize < 0 {
		errs = append(errs, fmt.Errorf("cache_size must be non-negative, got %d", e.CacheSize))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid engine config: %w", errors.Join(errs...))
	}
	return nil
}

// Partial is a runtime configuration update. Nil fields leave the current
// value unchanged.
type Partial struct {
	EnableRealtime        *bool           `mapstructure:"enable_realtime" json:"enable_realtime,omitempty"`
	EnableAIAnalysis      *bool           `mapstructure:"enable_ai_analysis" json:"enable_ai_analysis,omitempty"`
	EnablePatternMatching *bool           `mapstructure:"enable_pattern_matching" json:"enable_pattern_matching,omitempty"`
	DebounceMs            *int            `mapstructure:"debounce_ms" json:"debounce_ms,omitempty"`
	SeverityThreshold     *types.Severity `mapstructure:"severity_threshold" json:"severity_threshold,omitempty"`
	MaxCodeLength         *int            `mapstructure:"max_code_length" json:"max_code_length,omitempty"`
	EnableAutoFix         *bool           `mapstructure:"enable_auto_fix" json:"enable_auto_fix,omitempty"`
	DetectorBudget        *time.Duration  `mapstructure:"detector_budget" json:"detector_budget,omitempty"`
	AITimeout             *time.Duration  `mapstructure:"ai_timeout" json:"ai_timeout,omitempty"`
	ScoreFilteredIssues   *bool           `mapstructure:"score_filtered_issues" json:"score_filtered_issues,omitempty"`
}

// Apply returns a copy of e with every non-nil field of p merged in. The
// result is validated as a whole so a bad update never half-applies.
func (e Engine) Apply(p Partial) (Engine, error) {
	next := e
	if p.EnableRealtime != nil {
		next.EnableRealtime = *p.EnableRealtime
	}
	if p.EnableAIAnalysis != nil {
		next.EnableAIAnalysis = *p.EnableAIAnalysis
	}
	if p.EnablePatternMatching != nil {
		next.EnablePatternMatching = *p.EnablePatternMatching
	}
	if p.DebounceMs != nil {
		next.DebounceMs = *p.DebounceMs
	}
	if p.SeverityThreshold != nil {
		next.SeverityThreshold = *p.SeverityThreshold
	}
	if p.MaxCodeLength != nil {
		next.MaxCodeLength = *p.MaxCodeLength
	}
	if p.EnableAutoFix != nil {
		next.EnableAutoFix = *p.EnableAutoFix
	}
	if p.DetectorBudget != nil {
		next.DetectorBudget = *p.DetectorBudget
	}
	if p.AITimeout != nil {
		next.AITimeout = *p.AITimeout
	}
	if p.ScoreFilteredIssues != nil {
		next.ScoreFilteredIssues = *p.ScoreFilteredIssues
	}
	if err := next.Validate(); err != nil {
		return e, err
	}
	return next, nil
}

// DecodePartial builds a Partial from loosely typed input such as a decoded
// JSON object. Unknown keys are ignored; durations accept "250ms" strings.
func DecodePartial(raw map[string]any) (Partial, error) {
	var p Partial
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &p,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
		),
	})
	if err != nil {
		return Partial{}, fmt.Errorf("building decoder: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return Partial{}, fmt.Errorf("decoding config update: %w", err)
	}
	if p.SeverityThreshold != nil {
		sev, err := types.ParseSeverity(string(*p.SeverityThreshold))
		if err != nil {
			return Partial{}, err
		}
		p.SeverityThreshold = &sev
	}
	return p, nil
}
