package config

import (
	"testing"
	"time"

	"github.com/buemura/contractlens/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_Apply(t *testing.T) {
	base := DefaultEngine()
	ai := true
	debounce := 10
	threshold := types.SeverityHigh

	next, err := base.Apply(Partial{
		EnableAIAnalysis:  &ai,
		DebounceMs:        &debounce,
		SeverityThreshold: &threshold,
	})
	require.NoError(t, err)

	assert.True(t, next.EnableAIAnalysis)
	assert.Equal(t, 10, next.DebounceMs)
	assert.Equal(t, types.SeverityHigh, next.SeverityThreshold)
	assert.Equal(t, base.MaxCodeLength, next.MaxCodeLength)

	// The receiver is a value; the original snapshot is untouched.
	assert.False(t, base.EnableAIAnalysis)
	assert.Equal(t, 500, base.DebounceMs)
}

func TestEngine_ApplyRejectsWholeUpdate(t *testing.T) {
	base := DefaultEngine()
	ai := true
	negative := -1

	next, err := base.Apply(Partial{EnableAIAnalysis: &ai, DebounceMs: &negative})
	assert.Error(t, err)
	assert.Equal(t, base, next)
}

func TestEngine_Debounce(t *testing.T) {
	e := DefaultEngine()
	e.DebounceMs = 120
	assert.Equal(t, 120*time.Millisecond, e.Debounce())
}

func TestDecodePartial(t *testing.T) {
	p, err := DecodePartial(map[string]any{
		"enable_ai_analysis": true,
		"debounce_ms":        float64(300),
		"severity_threshold": "Medium",
		"detector_budget":    "50ms",
		"not_an_option":      "ignored",
	})
	require.NoError(t, err)

	require.NotNil(t, p.EnableAIAnalysis)
	assert.True(t, *p.EnableAIAnalysis)
	require.NotNil(t, p.DebounceMs)
	assert.Equal(t, 300, *p.DebounceMs)
	require.NotNil(t, p.SeverityThreshold)
	assert.Equal(t, types.SeverityMedium, *p.SeverityThreshold)
	require.NotNil(t, p.DetectorBudget)
	assert.Equal(t, 50*time.Millisecond, *p.DetectorBudget)
	assert.Nil(t, p.EnableRealtime)
}

func TestDecodePartial_BadSeverity(t *testing.T) {
	_, err := DecodePartial(map[string]any{"severity_threshold": "info"})
	assert.Error(t, err)
}
