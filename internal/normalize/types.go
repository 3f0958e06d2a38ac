package normalize

import (
	"strings"

	"git.home.luguber.info/inful/sandboxer/internal/jsscan"
)

// stop describes where a type expression ends.
type stop struct {
	bytes   string // depth-0 terminators
	arrow   bool   // depth-0 "=>" terminates (return types of arrow functions)
	newline bool   // depth-0 newline terminates unless the type continues with | or &
	brace   bool   // depth-0 '{' terminates once a type token was consumed
}

// typeEnd scans the type expression in masked starting at i and returns the
// offset of its terminator. ok is false when the bytes cannot form a type,
// which keeps comparisons and object literals from being mistaken for one.
func typeEnd(masked string, i int, st stop) (end int, ok bool) {
	depth := 0
	consumed := false
	for j := i; j < len(masked); j++ {
		c := masked[j]
		arrow := c == '=' && j+1 < len(masked) && masked[j+1] == '>'
		if depth == 0 {
			switch {
			case arrow && st.arrow:
				return j, consumed
			case !arrow && strings.IndexByte(st.bytes, c) >= 0:
				return j, consumed
			case c == '{' && st.brace && consumed:
				return j, true
			case c == '\n' && st.newline && consumed && !continues(masked, j):
				return j, true
			case c == ',' || c == ';':
				return j, false
			}
		}
		switch {
		case arrow:
			j++
		case c == '(' || c == '[' || c == '{' || c == '<':
			depth++
		case c == ')' || c == ']' || c == '}' || c == '>':
			depth--
			if depth < 0 {
				return j, false
			}
		case jsscan.IsIdentByte(c) || c == '\'' || c == '"' || c == '`':
			consumed = true
		case strings.IndexByte(" \t\r\n|&.,;:?-", c) >= 0:
		default:
			return j, false
		}
	}
	if depth != 0 {
		return len(masked), false
	}
	return len(masked), consumed
}

// continues reports whether a type broken at the newline at j goes on.
func continues(masked string, j int) bool {
	if k := jsscan.SkipSpaceBack(masked, j); k >= 0 && strings.IndexByte("|&:,<(=", masked[k]) >= 0 {
		return true
	}
	if k := jsscan.SkipSpace(masked, j); k < len(masked) && (masked[k] == '|' || masked[k] == '&') {
		return true
	}
	return false
}

// trimEnd moves end back over whitespace, never before start.
func trimEnd(s string, start, end int) int {
	for end > start && strings.IndexByte(" \t\r\n", s[end-1]) >= 0 {
		end--
	}
	return end
}

func wordBefore(masked string, i int) (string, int) {
	k := jsscan.SkipSpaceBack(masked, i-1)
	if k < 0 || !jsscan.IsIdentByte(masked[k]) {
		return "", k
	}
	start := k
	for start > 0 && jsscan.IsIdentByte(masked[start-1]) {
		start--
	}
	return masked[start : k+1], start
}

// identEnd returns the end of the identifier starting at i, or i.
func identEnd(s string, i int) int {
	for i < len(s) && jsscan.IsIdentByte(s[i]) {
		i++
	}
	return i
}

func lineStart(s string, i int) int {
	return strings.LastIndexByte(s[:i], '\n') + 1
}
