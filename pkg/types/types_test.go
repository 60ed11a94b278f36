package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeverityRank(t *testing.T) {
	assert.Less(t, SeverityRank(SeverityCritical), SeverityRank(SeverityHigh))
	assert.Less(t, SeverityRank(SeverityHigh), SeverityRank(SeverityMedium))
	assert.Less(t, SeverityRank(SeverityMedium), SeverityRank(SeverityLow))
	assert.Less(t, SeverityRank(SeverityLow), SeverityRank(Severity("bogus")))
}

func TestParseSeverity(t *testing.T) {
	s, err := ParseSeverity(" HIGH ")
	require.NoError(t, err)
	assert.Equal(t, SeverityHigh, s)

	_, err = ParseSeverity("info")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid severity")
}

func TestSeverity_AtLeast(t *testing.T) {
	assert.True(t, SeverityCritical.AtLeast(SeverityLow))
	assert.True(t, SeverityMedium.AtLeast(SeverityMedium))
	assert.False(t, SeverityLow.AtLeast(SeverityMedium))
}

func TestSummarize(t *testing.T) {
	s := Summarize([]Issue{
		{Severity: SeverityCritical},
		{Severity: SeverityLow},
		{Severity: SeverityLow},
	})
	assert.Equal(t, Summary{Total: 3, Critical: 1, Low: 2}, s)
}

func TestReport_CloneDoesNotAlias(t *testing.T) {
	orig := &Report{
		Issues:           []Issue{{Title: "a", References: []string{"SWC-115"}}},
		SkippedDetectors: []string{"slow"},
	}
	c := orig.Clone()
	c.Issues[0].Title = "changed"
	c.Issues[0].References[0] = "changed"
	c.SkippedDetectors[0] = "changed"

	assert.Equal(t, "a", orig.Issues[0].Title)
	assert.Equal(t, "SWC-115", orig.Issues[0].References[0])
	assert.Equal(t, "slow", orig.SkippedDetectors[0])

	var nilReport *Report
	assert.Nil(t, nilReport.Clone())
}

func TestSource_PositionAndOffset(t *testing.T) {
	src := NewSource("ab\ncde\n")

	assert.Equal(t, 3, src.LineCount())
	assert.Equal(t, Position{Line: 1, Column: 1}, src.Position(0))
	assert.Equal(t, Position{Line: 1, Column: 3}, src.Position(2)) // the newline itself
	assert.Equal(t, Position{Line: 2, Column: 1}, src.Position(3))
	assert.Equal(t, Position{Line: 3, Column: 1}, src.Position(7))

	off, ok := src.Offset(Position{Line: 2, Column: 2})
	require.True(t, ok)
	assert.Equal(t, 4, off)

	_, ok = src.Offset(Position{Line: 2, Column: 9})
	assert.False(t, ok)
	_, ok = src.Offset(Position{Line: 4, Column: 1})
	assert.False(t, ok)
}

func TestSource_RangeOfMultiline(t *testing.T) {
	text := "line one\nfoo(\n  bar)\n"
	src := NewSource(text)

	start := 9
	end := 9 + len("foo(\n  bar)")
	r := src.RangeOf(start, end)
	assert.Equal(t, Range{StartLine: 2, StartColumn: 1, EndLine: 3, EndColumn: 6}, r)

	got, ok := src.Slice(r)
	require.True(t, ok)
	assert.Equal(t, "foo(\n  bar)", got)
}

func TestSource_ContainsRejectsOutOfBounds(t *testing.T) {
	src := NewSource("abc")
	assert.True(t, src.Contains(Range{StartLine: 1, StartColumn: 1, EndLine: 1, EndColumn: 3}))
	assert.False(t, src.Contains(Range{StartLine: 1, StartColumn: 1, EndLine: 1, EndColumn: 4}))
	assert.False(t, src.Contains(Range{StartLine: 2, StartColumn: 1, EndLine: 2, EndColumn: 1}))
	assert.False(t, src.Contains(Range{StartLine: 1, StartColumn: 3, EndLine: 1, EndColumn: 2}))
}

func TestSource_LineText(t *testing.T) {
	src := NewSource("first\r\nsecond")
	assert.Equal(t, "first", src.LineText(1))
	assert.Equal(t, "second", src.LineText(2))
	assert.Equal(t, "", src.LineText(3))
}
