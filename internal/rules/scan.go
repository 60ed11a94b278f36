package rules

import (
	"regexp"

	"github.com/buemura/contractlens/pkg/types"
)

// View selects which rendering of the source a matcher runs against. Masked
// views replace comment (and optionally string literal) bytes with spaces so
// offsets stay aligned with the raw text.
type View int

const (
	// ViewCode hides comments and string literals.
	ViewCode View = iota
	// ViewNoComments hides comments but keeps string literals.
	ViewNoComments
	// ViewRaw is the untouched text.
	ViewRaw
)

// Span is a half-open byte range [Start, End) into the source text.
type Span struct {
	Start int
	End   int
}

// Scan is the read-only input shared by every rule in one cycle.
type Scan struct {
	*types.Source
	code       string
	noComments string
}

// NewScan prepares text for matching.
func NewScan(text string) *Scan {
	return &Scan{
		Source:     types.NewSource(text),
		code:       mask(text, true),
		noComments: mask(text, false),
	}
}

// View returns the requested rendering of the text.
func (s *Scan) View(v View) string {
	switch v {
	case ViewCode:
		return s.code
	case ViewNoComments:
		return s.noComments
	default:
		return s.Text()
	}
}

// mask blanks out comments and, when strings is set, the contents of string
// literals. Newlines are preserved so line numbers do not move.
func mask(text string, strings bool) string {
	out := []byte(text)
	blank := func(from, to int) {
		for i := from; i < to && i < len(out); i++ {
			if out[i] != '\n' {
				out[i] = ' '
			}
		}
	}

	for i := 0; i < len(text); {
		switch {
		case text[i] == '/' && i+1 < len(text) && text[i+1] == '/':
			j := i
			for j < len(text) && text[j] != '\n' {
				j++
			}
			blank(i, j)
			i = j
		case text[i] == '/' && i+1 < len(text) && text[i+1] == '*':
			j := i + 2
			for j+1 < len(text) && !(text[j] == '*' && text[j+1] == '/') {
				j++
			}
			j += 2
			if j > len(text) {
				j = len(text)
			}
			blank(i, j)
			i = j
		case text[i] == '"' || text[i] == '\'':
			quote := text[i]
			j := i + 1
			for j < len(text) && text[j] != quote && text[j] != '\n' {
				if text[j] == '\\' {
					j++
				}
				j++
			}
			if j > len(text) {
				j = len(text)
			}
			if strings {
				// Keep the quotes so "require(x, \"...\")" still parses as a call.
				blank(i+1, j)
			}
			i = j + 1
		default:
			i++
		}
	}
	return string(out)
}

var reFunctionHeader = regexp.MustCompile(`\b(function\s+\w+|constructor|fallback|receive|modifier\s+\w+)\s*\([^{;]*\{`)

// Function is a function-like block located in the source.
type Function struct {
	Header Span
	Body   Span
	Name   string
}

// IsExternallyCallable reports whether the header declares public or
// external visibility.
func (f Function) IsExternallyCallable(s *Scan) bool {
	h := s.code[f.Header.Start:f.Header.End]
	return reVisibility.MatchString(h)
}

var reVisibility = regexp.MustCompile(`\b(public|external)\b`)

// Functions locates function bodies by brace matching on the code view.
func (s *Scan) Functions() []Function {
	var fns []Function
	for _, m := range reFunctionHeader.FindAllStringSubmatchIndex(s.code, -1) {
		open := m[1] - 1
		depth := 0
		end := len(s.code)
		for i := open; i < len(s.code); i++ {
			switch s.code[i] {
			case '{':
				depth++
			case '}':
				depth--
			}
			if depth == 0 {
				end = i
				break
			}
		}
		fns = append(fns, Function{
			Header: Span{Start: m[0], End: m[1]},
			Body:   Span{Start: open + 1, End: end},
			Name:   s.code[m[2]:m[3]],
		})
	}
	return fns
}
