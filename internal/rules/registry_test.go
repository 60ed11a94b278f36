package rules

import (
	"regexp"
	"testing"

	"github.com/buemura/contractlens/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRule(id string) *Rule {
	return &Rule{
		Meta: Meta{ID: id, Kind: types.KindBestPractice, Severity: types.SeverityLow, Title: id},
		Match: Pattern{Expr: regexp.MustCompile(`TODO`)},
	}
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry()
	rule := testRule("test")
	require.NoError(t, r.Register(rule))

	got, err := r.Get("test")
	require.NoError(t, err)
	assert.Equal(t, rule, got)
}

func TestRegistry_GetNotFound(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get("nonexistent")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestRegistry_RejectsInvalid(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(testRule("dup")))

	assert.Error(t, r.Register(testRule("dup")))
	assert.Error(t, r.Register(&Rule{Meta: Meta{ID: "nomatch", Kind: types.KindBestPractice, Severity: types.SeverityLow}}))
	bad := testRule("bad")
	bad.Severity = "info"
	assert.Error(t, r.Register(bad))
	assert.Error(t, r.Register(nil))
}

func TestRegistry_AllSorted(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(testRule("b")))
	require.NoError(t, r.Register(testRule("a")))

	all := r.All()
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].ID)
	assert.Equal(t, "b", all[1].ID)
}

func TestRule_DetectDeduplicatesSpans(t *testing.T) {
	rule := &Rule{
		Meta: Meta{ID: "h", Kind: types.KindBestPractice, Severity: types.SeverityLow},
		Match: Heuristic(func(s *Scan) []Span {
			return []Span{{Start: 4, End: 6}, {Start: 0, End: 2}, {Start: 4, End: 6}, {Start: 3, End: 3}, {Start: 5, End: 99}}
		}),
	}
	issues := rule.Detect(NewScan("abcdefgh"))
	require.Len(t, issues, 2)
	assert.Equal(t, "ab", issues[0].Match)
	assert.Equal(t, "ef", issues[1].Match)
	assert.Equal(t, types.OriginPattern, issues[0].Origin)
}

func TestScan_MasksCommentsAndStrings(t *testing.T) {
	s := NewScan("a // c\nb \"s;t\" /* x\ny */ z")
	assert.Equal(t, "a     \nb \"   \"     \n     z", s.View(ViewCode))
	assert.Equal(t, "a     \nb \"s;t\"     \n     z", s.View(ViewNoComments))
	assert.Equal(t, s.Len(), len(s.View(ViewCode)))
}

func TestScan_Functions(t *testing.T) {
	s := NewScan("contract C {\n function a() public { if (x) { y(); } }\n function b() internal {}\n}")
	fns := s.Functions()
	require.Len(t, fns, 2)
	assert.Equal(t, "function a", fns[0].Name)
	assert.Equal(t, " if (x) { y(); } ", s.Text()[fns[0].Body.Start:fns[0].Body.End])
	assert.True(t, fns[0].IsExternallyCallable(s))
	assert.False(t, fns[1].IsExternallyCallable(s))
}
