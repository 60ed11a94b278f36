package score

import (
	"testing"

	"github.com/buemura/contractlens/internal/ai"
	"github.com/buemura/contractlens/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(line, col int) types.Range {
	return types.Range{StartLine: line, StartColumn: col, EndLine: line, EndColumn: col + 3}
}

func issue(id string, sev types.Severity, kind types.Kind, r types.Range) types.Issue {
	return types.Issue{RuleID: id, Severity: sev, Kind: kind, Title: id, Range: r, Origin: types.OriginPattern}
}

func TestAggregate_Empty(t *testing.T) {
	out := Aggregate(nil, nil, Options{Threshold: types.SeverityLow})
	assert.Empty(t, out.Issues)
	assert.Equal(t, 100, out.Score)
}

func TestAggregate_SingleHigh(t *testing.T) {
	out := Aggregate([]types.Issue{
		issue("SOL-TX-ORIGIN", types.SeverityHigh, types.KindVulnerability, at(3, 13)),
	}, nil, Options{Threshold: types.SeverityLow})
	require.Len(t, out.Issues, 1)
	assert.Equal(t, 85, out.Score)
}

func TestAggregate_SortOrder(t *testing.T) {
	in := []types.Issue{
		issue("L", types.SeverityLow, types.KindGasOptimization, at(1, 1)),
		issue("H2", types.SeverityHigh, types.KindVulnerability, at(5, 1)),
		issue("C", types.SeverityCritical, types.KindVulnerability, at(9, 1)),
		issue("H1b", types.SeverityHigh, types.KindVulnerability, at(2, 8)),
		issue("H1a", types.SeverityHigh, types.KindVulnerability, at(2, 4)),
		issue("M", types.SeverityMedium, types.KindBestPractice, at(1, 1)),
	}
	out := Aggregate(in, nil, Options{Threshold: types.SeverityLow})

	var ids []string
	for _, is := range out.Issues {
		ids = append(ids, is.RuleID)
	}
	assert.Equal(t, []string{"C", "H1a", "H1b", "H2", "M", "L"}, ids)
}

func TestAggregate_OrderIndependent(t *testing.T) {
	a := issue("A", types.SeverityHigh, types.KindVulnerability, at(2, 1))
	b := issue("B", types.SeverityHigh, types.KindBestPractice, at(2, 1))
	c := issue("C", types.SeverityLow, types.KindGasOptimization, at(1, 1))
	dupe := issue("A2", types.SeverityMedium, types.KindVulnerability, at(2, 1))

	first := Aggregate([]types.Issue{a, b, c, dupe}, nil, Options{Threshold: types.SeverityLow})
	second := Aggregate([]types.Issue{dupe, c, b, a}, nil, Options{Threshold: types.SeverityLow})
	assert.Equal(t, first, second)
}

func TestAggregate_DedupeKeepsHigherSeverity(t *testing.T) {
	r := at(4, 2)
	out := Aggregate([]types.Issue{
		issue("LOW", types.SeverityLow, types.KindVulnerability, r),
		issue("CRIT", types.SeverityCritical, types.KindVulnerability, r),
	}, nil, Options{Threshold: types.SeverityLow})
	require.Len(t, out.Issues, 1)
	assert.Equal(t, "CRIT", out.Issues[0].RuleID)
}

func TestAggregate_DedupeRequiresSameKind(t *testing.T) {
	r := at(4, 2)
	out := Aggregate([]types.Issue{
		issue("A", types.SeverityLow, types.KindVulnerability, r),
		issue("B", types.SeverityLow, types.KindBestPractice, r),
	}, nil, Options{Threshold: types.SeverityLow})
	assert.Len(t, out.Issues, 2)
}

func TestAggregate_DedupeTiePrefersPattern(t *testing.T) {
	r := at(3, 13)
	pat := issue("SOL-TX-ORIGIN", types.SeverityHigh, types.KindVulnerability, r)
	aiIssue := pat
	aiIssue.RuleID = "AI"
	aiIssue.Origin = types.OriginAI

	out := Aggregate([]types.Issue{pat}, &ai.Result{Issues: []types.Issue{aiIssue}}, Options{Threshold: types.SeverityLow})
	require.Len(t, out.Issues, 1)
	assert.Equal(t, types.OriginPattern, out.Issues[0].Origin)
}

func TestAggregate_DedupeTiePrefersSmallerTitle(t *testing.T) {
	r := at(3, 1)
	a := issue("X", types.SeverityHigh, types.KindVulnerability, r)
	a.Title = "beta"
	b := issue("Y", types.SeverityHigh, types.KindVulnerability, r)
	b.Title = "alpha"

	out := Aggregate([]types.Issue{a, b}, nil, Options{Threshold: types.SeverityLow})
	require.Len(t, out.Issues, 1)
	assert.Equal(t, "alpha", out.Issues[0].Title)
}

func TestAggregate_ThresholdFiltersReportedIssues(t *testing.T) {
	in := []types.Issue{
		issue("H", types.SeverityHigh, types.KindVulnerability, at(1, 1)),
		issue("M", types.SeverityMedium, types.KindVulnerability, at(2, 1)),
		issue("L", types.SeverityLow, types.KindGasOptimization, at(3, 1)),
	}
	out := Aggregate(in, nil, Options{Threshold: types.SeverityMedium})
	require.Len(t, out.Issues, 2)
	for _, is := range out.Issues {
		assert.True(t, is.Severity.AtLeast(types.SeverityMedium))
	}
	// Only reported issues deduct by default.
	assert.Equal(t, 100-15-8, out.Score)
}

func TestAggregate_IncludeFilteredInScore(t *testing.T) {
	in := []types.Issue{
		issue("H", types.SeverityHigh, types.KindVulnerability, at(1, 1)),
		issue("L", types.SeverityLow, types.KindGasOptimization, at(3, 1)),
	}
	out := Aggregate(in, nil, Options{Threshold: types.SeverityHigh, IncludeFiltered: true})
	require.Len(t, out.Issues, 1)
	assert.Equal(t, 100-15-3, out.Score)
}

func TestAggregate_AIDelta(t *testing.T) {
	in := []types.Issue{issue("M", types.SeverityMedium, types.KindVulnerability, at(1, 1))}

	out := Aggregate(in, &ai.Result{ScoreDelta: -10}, Options{Threshold: types.SeverityLow})
	assert.Equal(t, 82, out.Score)

	out = Aggregate(nil, &ai.Result{ScoreDelta: 30}, Options{Threshold: types.SeverityLow})
	assert.Equal(t, 100, out.Score)
}

func TestAggregate_ScoreClampsAtZero(t *testing.T) {
	var in []types.Issue
	for i := 1; i <= 6; i++ {
		in = append(in, issue("C", types.SeverityCritical, types.KindVulnerability, at(i, 1)))
	}
	out := Aggregate(in, nil, Options{Threshold: types.SeverityLow})
	assert.Equal(t, 0, out.Score)
}

func TestAggregate_InvalidThresholdMeansLow(t *testing.T) {
	in := []types.Issue{issue("L", types.SeverityLow, types.KindGasOptimization, at(1, 1))}
	out := Aggregate(in, nil, Options{})
	assert.Len(t, out.Issues, 1)
}

func TestAggregate_DoesNotMutateInput(t *testing.T) {
	in := []types.Issue{
		issue("L", types.SeverityLow, types.KindGasOptimization, at(1, 1)),
		issue("C", types.SeverityCritical, types.KindVulnerability, at(2, 1)),
	}
	Aggregate(in, nil, Options{Threshold: types.SeverityLow})
	assert.Equal(t, "L", in[0].RuleID)
}

func TestPenalty(t *testing.T) {
	assert.Equal(t, 25, Penalty(types.SeverityCritical))
	assert.Equal(t, 15, Penalty(types.SeverityHigh))
	assert.Equal(t, 8, Penalty(types.SeverityMedium))
	assert.Equal(t, 3, Penalty(types.SeverityLow))
	assert.Equal(t, 0, Penalty("bogus"))
}
