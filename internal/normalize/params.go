package normalize

import (
	"strings"

	"git.home.luguber.info/inful/sandboxer/internal/jsscan"
	"git.home.luguber.info/inful/sandboxer/internal/models"
)

// words that precede a parenthesized expression rather than a parameter list
var controlWords = map[string]bool{
	"if": true, "for": true, "while": true, "switch": true, "with": true,
	"return": true, "typeof": true, "case": true, "new": true, "await": true,
	"yield": true, "else": true, "do": true, "in": true, "of": true,
	"void": true, "delete": true, "throw": true, "instanceof": true,
}

var parameterModifiers = []string{"public ", "private ", "protected ", "readonly "}

func stripParameterAnnotations(text string, r *models.Reporter) string {
	s := jsscan.Analyze(text)
	masked := s.Masked
	lines := jsscan.IndexLines(text)
	var edits []jsscan.Edit
	for open := 0; open < len(masked); open++ {
		if masked[open] != '(' {
			continue
		}
		closing := jsscan.MatchingClose(masked, open)
		if closing < 0 {
			continue
		}
		isParams, returnEnd := classifyParens(masked, open, closing)
		if !isParams {
			continue
		}
		if returnEnd > 0 {
			edits = append(edits, jsscan.Delete(closing+1, trimEnd(masked, closing+1, returnEnd)))
		}
		for _, seg := range splitParams(masked, open+1, closing) {
			edits = append(edits, paramEdits(masked, seg[0], seg[1], lines, r)...)
		}
	}
	return applyEdits(text, edits, r, "normalize.parameter", "parameter type annotation")
}

// classifyParens decides whether (open, closing) is a parameter list and, if
// it carries a return type, where that type ends.
func classifyParens(masked string, open, closing int) (bool, int) {
	after := jsscan.SkipSpace(masked, closing+1)
	if after >= len(masked) {
		return false, 0
	}
	switch {
	case strings.HasPrefix(masked[after:], "=>"):
		return true, 0
	case masked[after] == ':':
		end, ok := typeEnd(masked, after+1, stop{arrow: true, brace: true})
		if !ok || end >= len(masked) {
			return false, 0
		}
		if strings.HasPrefix(masked[end:], "=>") || (masked[end] == '{' && functionish(masked, open)) {
			return true, end
		}
	case masked[after] == '{':
		return functionish(masked, open), 0
	}
	return false, 0
}

// functionish reports whether the paren at open belongs to a function or
// method declaration rather than a control statement or a call.
func functionish(masked string, open int) bool {
	word, start := wordBefore(masked, open)
	if word == "" {
		return start >= 0 && masked[start] == '*'
	}
	return !controlWords[word]
}

// splitParams splits (from, to) at depth-0 commas.
func splitParams(masked string, from, to int) [][2]int {
	var segs [][2]int
	depth, start := 0, from
	for i := from; i < to; i++ {
		switch masked[i] {
		case '(', '[', '{', '<':
			depth++
		case ')', ']', '}':
			depth--
		case '>':
			if i > 0 && masked[i-1] != '=' {
				depth--
			}
		case ',':
			if depth == 0 {
				segs = append(segs, [2]int{start, i})
				start = i + 1
			}
		}
	}
	return append(segs, [2]int{start, to})
}

func paramEdits(masked string, from, to int, lines jsscan.Lines, r *models.Reporter) []jsscan.Edit {
	i := jsscan.SkipSpace(masked, from)
	if i >= to {
		return nil
	}
	for _, mod := range parameterModifiers {
		if strings.HasPrefix(masked[i:to], mod) {
			r.Warn(lines.LineOf(i), "normalize.parameter_property", "parameter property modifier %q left untouched", strings.TrimSpace(mod))
			i = jsscan.SkipSpace(masked, i+len(mod))
		}
	}
	if strings.HasPrefix(masked[i:to], "...") {
		i += 3
	}
	end := bindingEnd(masked[:to], i)
	if end <= i {
		return nil
	}
	var edits []jsscan.Edit
	j := end
	for j < to && (masked[j] == ' ' || masked[j] == '\t') {
		j++
	}
	if j < to && masked[j] == '?' {
		next := jsscan.SkipSpace(masked, j+1)
		if next >= to || masked[next] == ':' || masked[next] == '=' {
			edits = append(edits, jsscan.Delete(j, j+1))
			j = next
		}
	}
	if j < to && masked[j] == ':' {
		typeStop, ok := typeEnd(masked[:to], j+1, stop{bytes: "="})
		if ok {
			edits = append(edits, jsscan.Delete(j, trimEnd(masked, j, typeStop)))
		}
	}
	return edits
}
