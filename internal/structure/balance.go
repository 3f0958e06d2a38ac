package structure

import (
	"fmt"
	"sort"

	"git.home.luguber.info/inful/sandboxer/internal/jsscan"
)

// Balance maps a bracket or tag kind to opens minus closes.
type Balance map[string]int

// Zero reports whether every kind is balanced.
func (b Balance) Zero() bool {
	for _, n := range b {
		if n != 0 {
			return false
		}
	}
	return true
}

// Unbalanced describes each unbalanced kind, sorted.
func (b Balance) Unbalanced() []string {
	var out []string
	for kind, n := range b {
		switch {
		case n > 0:
			out = append(out, fmt.Sprintf("%s: %d unclosed", kind, n))
		case n < 0:
			out = append(out, fmt.Sprintf("%s: %d unmatched closer(s)", kind, -n))
		}
	}
	sort.Strings(out)
	return out
}

// Measure counts brackets and JSX tags outside literals and comments.
func Measure(text string) Balance {
	masked := jsscan.Analyze(text).Masked
	b := Balance{"()": 0, "{}": 0, "[]": 0}
	for i := 0; i < len(masked); i++ {
		switch masked[i] {
		case '(':
			b["()"]++
		case ')':
			b["()"]--
		case '{':
			b["{}"]++
		case '}':
			b["{}"]--
		case '[':
			b["[]"]++
		case ']':
			b["[]"]--
		}
	}
	for _, t := range jsscan.Tags(masked) {
		if t.SelfClosing {
			continue
		}
		kind := "<" + t.Name + ">"
		if t.Closing {
			b[kind]--
		} else {
			b[kind]++
		}
	}
	return b
}
