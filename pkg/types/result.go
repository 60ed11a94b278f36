package types

import (
	"fmt"
	"strings"
	"time"
)

// Severity represents the severity level of an issue.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// SeverityRank returns a numeric rank for sorting (lower = more severe).
func SeverityRank(s Severity) int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return 1
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 3
	default:
		return 4
	}
}

// AllSeverities returns the valid severities from most to least severe.
func AllSeverities() []Severity {
	return []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}
}

// ParseSeverity accepts a severity name in any case.
func ParseSeverity(raw string) (Severity, error) {
	s := Severity(strings.ToLower(strings.TrimSpace(raw)))
	if !s.IsValid() {
		return "", fmt.Errorf("invalid severity %q (supported: low, medium, high, critical)", raw)
	}
	return s, nil
}

// IsValid reports whether s is one of the defined severities.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow:
		return true
	}
	return false
}

// AtLeast reports whether s is as severe as min or more.
func (s Severity) AtLeast(min Severity) bool {
	return SeverityRank(s) <= SeverityRank(min)
}

// Kind is the category of an issue.
type Kind string

const (
	KindVulnerability   Kind = "vulnerability"
	KindGasOptimization Kind = "gas-optimization"
	KindBestPractice    Kind = "best-practice"
)

// IsValid reports whether k is one of the defined kinds.
func (k Kind) IsValid() bool {
	switch k {
	case KindVulnerability, KindGasOptimization, KindBestPractice:
		return true
	}
	return false
}

// Origin records which detector family produced an issue.
type Origin string

const (
	OriginPattern Origin = "pattern"
	OriginAI      Origin = "ai"
)

// Issue is a single problem found in the scanned source. Issues are values and
// are never modified once a detector returns them.
type Issue struct {
	RuleID           string   `json:"rule_id" yaml:"rule_id"`
	Kind             Kind     `json:"kind" yaml:"kind"`
	Severity         Severity `json:"severity" yaml:"severity"`
	Title            string   `json:"title" yaml:"title"`
	Message          string   `json:"message" yaml:"message"`
	Suggestion       string   `json:"suggestion,omitempty" yaml:"suggestion,omitempty"`
	Range            Range    `json:"range" yaml:"range"`
	Match            string   `json:"match,omitempty" yaml:"match,omitempty"`
	AutoFixAvailable bool     `json:"auto_fix_available" yaml:"auto_fix_available"`
	Origin           Origin   `json:"origin" yaml:"origin"`
	References       []string `json:"references,omitempty" yaml:"references,omitempty"`
}

// Summary counts reported issues by severity.
type Summary struct {
	Total    int `json:"total" yaml:"total"`
	Critical int `json:"critical" yaml:"critical"`
	High     int `json:"high" yaml:"high"`
	Medium   int `json:"medium" yaml:"medium"`
	Low      int `json:"low" yaml:"low"`
}

// Summarize counts issues by severity.
func Summarize(issues []Issue) Summary {
	var s Summary
	for _, is := range issues {
		s.Total++
		switch is.Severity {
		case SeverityCritical:
			s.Critical++
		case SeverityHigh:
			s.High++
		case SeverityMedium:
			s.Medium++
		case SeverityLow:
			s.Low++
		}
	}
	return s
}

// Report is the output of one scan cycle.
type Report struct {
	ID               string        `json:"id" yaml:"id"`
	Issues           []Issue       `json:"issues" yaml:"issues"`
	OverallScore     int           `json:"overall_score" yaml:"overall_score"`
	ScanTime         time.Duration `json:"-" yaml:"-"`
	ScanTimeMs       int64         `json:"scan_time_ms" yaml:"scan_time_ms"`
	AIAnalysisUsed   bool          `json:"ai_analysis_used" yaml:"ai_analysis_used"`
	CacheHit         bool          `json:"cache_hit" yaml:"cache_hit"`
	Fingerprint      string        `json:"fingerprint" yaml:"fingerprint"`
	ProducedAt       time.Time     `json:"produced_at" yaml:"produced_at"`
	SkippedDetectors []string      `json:"skipped_detectors,omitempty" yaml:"skipped_detectors,omitempty"`
	Degraded         bool          `json:"degraded" yaml:"degraded"`
	Summary          Summary       `json:"summary" yaml:"summary"`
}

// Clone returns a deep copy so callers can never alias cached state.
func (r *Report) Clone() *Report {
	if r == nil {
		return nil
	}
	c := *r
	c.Issues = make([]Issue, len(r.Issues))
	for i, is := range r.Issues {
		if is.References != nil {
			is.References = append([]string(nil), is.References...)
		}
		c.Issues[i] = is
	}
	if r.SkippedDetectors != nil {
		c.SkippedDetectors = append([]string(nil), r.SkippedDetectors...)
	}
	return &c
}

// IssuesAtLeast returns the number of issues at or above the given severity.
func (r *Report) IssuesAtLeast(min Severity) int {
	n := 0
	for _, is := range r.Issues {
		if is.Severity.AtLeast(min) {
			n++
		}
	}
	return n
}
