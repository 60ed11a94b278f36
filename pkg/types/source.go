package types

import "strings"

// Range addresses a span of source text. Lines and columns are 1-based and
// the end position is inclusive of the last matched character.
type Range struct {
	StartLine   int `json:"start_line" yaml:"start_line"`
	StartColumn int `json:"start_column" yaml:"start_column"`
	EndLine     int `json:"end_line" yaml:"end_line"`
	EndColumn   int `json:"end_column" yaml:"end_column"`
}

// Position is a 1-based line/column pair.
type Position struct {
	Line   int `json:"line" yaml:"line"`
	Column int `json:"column" yaml:"column"`
}

// Source is an immutable snapshot of text with a precomputed line index so
// offset/position conversions do not re-split the text.
type Source struct {
	text       string
	lineStarts []int
}

// NewSource indexes text for position lookups.
func NewSource(text string) *Source {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &Source{text: text, lineStarts: starts}
}

// Text returns the underlying text.
func (s *Source) Text() string { return s.text }

// Len returns the byte length of the text.
func (s *Source) Len() int { return len(s.text) }

// LineCount returns the number of lines. A trailing newline opens an empty
// final line, matching how editors address the position after it.
func (s *Source) LineCount() int { return len(s.lineStarts) }

// lineLen returns the length of line (1-based) without its newline.
func (s *Source) lineLen(line int) int {
	start := s.lineStarts[line-1]
	end := len(s.text)
	if line < len(s.lineStarts) {
		end = s.lineStarts[line] - 1
	}
	return end - start
}

// Position converts a byte offset into a 1-based position. Offsets past the
// end clamp to the end of the text.
func (s *Source) Position(offset int) Position {
	if offset < 0 {
		offset = 0
	}
	if offset > len(s.text) {
		offset = len(s.text)
	}
	lo, hi := 0, len(s.lineStarts)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if s.lineStarts[mid] <= offset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return Position{Line: lo + 1, Column: offset - s.lineStarts[lo] + 1}
}

// Offset converts a 1-based position into a byte offset. ok is false when the
// position lies outside the text.
func (s *Source) Offset(p Position) (int, bool) {
	if p.Line < 1 || p.Line > len(s.lineStarts) || p.Column < 1 {
		return 0, false
	}
	if p.Column > s.lineLen(p.Line)+1 {
		return 0, false
	}
	return s.lineStarts[p.Line-1] + p.Column - 1, true
}

// RangeOf returns the inclusive range covering text[start:end]. An empty span
// yields a single-column range at start.
func (s *Source) RangeOf(start, end int) Range {
	from := s.Position(start)
	last := end - 1
	if last < start {
		last = start
	}
	to := s.Position(last)
	return Range{StartLine: from.Line, StartColumn: from.Column, EndLine: to.Line, EndColumn: to.Column}
}

// Span converts a range back into a half-open byte span. ok is false when the
// range does not lie within the text.
func (s *Source) Span(r Range) (start, end int, ok bool) {
	start, ok = s.Offset(Position{Line: r.StartLine, Column: r.StartColumn})
	if !ok {
		return 0, 0, false
	}
	last, ok := s.Offset(Position{Line: r.EndLine, Column: r.EndColumn})
	if !ok || last < start || last >= len(s.text) {
		return 0, 0, false
	}
	return start, last + 1, true
}

// Contains reports whether r lies within the text bounds.
func (s *Source) Contains(r Range) bool {
	_, _, ok := s.Span(r)
	return ok
}

// Slice returns the text covered by r, or false if r is out of bounds.
func (s *Source) Slice(r Range) (string, bool) {
	start, end, ok := s.Span(r)
	if !ok {
		return "", false
	}
	return s.text[start:end], true
}

// LineText returns the text of a 1-based line without its newline.
func (s *Source) LineText(line int) string {
	if line < 1 || line > len(s.lineStarts) {
		return ""
	}
	start := s.lineStarts[line-1]
	return strings.TrimSuffix(s.text[start:start+s.lineLen(line)], "\r")
}
