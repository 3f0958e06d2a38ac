package jsscan

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAnalyzeMasksLiteralsAndComments(t *testing.T) {
	src := "const a = 'x(y'; // call(\nconst b = \"}\"; /* { */ f(a)"
	s := Analyze(src)

	require.Len(t, s.Masked, len(src))
	require.Equal(t, "const a = '___'; ", s.Masked[:17])
	require.NotContains(t, s.Masked, "call(")
	require.NotContains(t, s.Masked, "{")
	require.Contains(t, s.Masked, "f(a)")
	require.Equal(t, String, s.ClassAt(11))
	require.Equal(t, Comment, s.ClassAt(20))
	require.True(t, s.IsCode(0))
}

func TestAnalyzeApostropheInJSXText(t *testing.T) {
	src := "<p>Don't stop</p>\n<p>rock {x}</p>"
	s := Analyze(src)
	require.Equal(t, src, s.Masked)
}

func TestAnalyzeURLInJSXText(t *testing.T) {
	src := "<a>https://example.com</a>"
	require.Equal(t, src, Analyze(src).Masked)
}

func TestAnalyzeTemplateSubstitution(t *testing.T) {
	src := "const s = `a ${fn({x: 1})} b`; g()"
	s := Analyze(src)

	require.Len(t, s.Masked, len(src))
	require.Contains(t, s.Masked, "fn({x: 1})")
	require.Contains(t, s.Masked, "; g()")
	require.Equal(t, byte('`'), s.Masked[10])
	require.Equal(t, Template, s.ClassAt(12))
}

func TestAnalyzeRegexpLiteral(t *testing.T) {
	src := "s.replace(/[')]/g, '')\nconst half = a / 2"
	s := Analyze(src)
	require.Equal(t, String, s.ClassAt(10))
	require.Contains(t, s.Masked, "a / 2")
	require.Equal(t, 1, countByte(s.Masked, '('))
	require.Equal(t, 1, countByte(s.Masked, ')'))
}

func TestAnalyzeSelfClosingTagIsNotRegexp(t *testing.T) {
	src := "<Box args={[1, 2]} />\n<Sphere />"
	require.Equal(t, src, Analyze(src).Masked)
}

func TestMatchingBrackets(t *testing.T) {
	masked := "f(a, g(b), [c]) { x }"
	require.Equal(t, 14, MatchingClose(masked, 1))
	require.Equal(t, 1, MatchingOpen(masked, 14))
	require.Equal(t, 20, MatchingClose(masked, 16))
	require.Equal(t, -1, MatchingClose("f(a", 1))
	require.Equal(t, 8, MatchingClose("a<b => c>", 1))
}

func TestDepthAt(t *testing.T) {
	masked := "function f() { if (x) { y } }"
	require.Equal(t, 0, DepthAt(masked, 0))
	require.Equal(t, 2, DepthAt(masked, 24))
}

func TestApplyDropsOverlaps(t *testing.T) {
	src := "abcdefgh"
	out, applied := Apply(src, []Edit{
		Delete(2, 4),
		Delete(1, 6), // outer edit starting first wins
		Insert(7, "X"),
		Delete(3, 5),
	})
	require.Equal(t, "agXh", out)
	require.Len(t, applied, 2)
}

func TestLines(t *testing.T) {
	s := "a\nbb\n\nc"
	l := IndexLines(s)
	require.Equal(t, 1, l.LineOf(0))
	require.Equal(t, 2, l.LineOf(3))
	require.Equal(t, 4, l.LineOf(6))
	start, end := l.Span(s, 2)
	require.Equal(t, "bb", s[start:end])
	start, end = l.Span(s, 4)
	require.Equal(t, "c", s[start:end])
}

func countByte(s string, b byte) int {
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			n++
		}
	}
	return n
}
