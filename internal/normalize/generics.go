package normalize

import (
	"regexp"
	"strings"

	"git.home.luguber.info/inful/sandboxer/internal/jsscan"
	"git.home.luguber.info/inful/sandboxer/internal/models"
)

// identifiers that can directly precede a comparison, never a type argument list
var nonGenericWords = map[string]bool{
	"return": true, "typeof": true, "instanceof": true, "in": true, "of": true,
	"case": true, "yield": true, "await": true, "else": true, "void": true,
	"delete": true, "throw": true, "new": true, "do": true,
}

// arrow-function type parameters as written in TSX: <T,>( or <T extends X>(
var arrowTypeParamsRe = regexp.MustCompile(`(?:^|[=(,:][ \t]*|\basync[ \t]+)(<[A-Z][\w$]*(?:[ \t]+extends[ \t]+[^<>()]+|[ \t]*,)[ \t]*>)[ \t]*\(`)

const maxGenericSpan = 1024

// stripGenerics removes type argument lists until a fixed point is reached.
// Each round rescans the text, so the loop is bounded by the input length.
func stripGenerics(text string, r *models.Reporter) string {
	for round := 0; round <= len(text); round++ {
		edits := genericEdits(text)
		if len(edits) == 0 {
			break
		}
		next := applyEdits(text, edits, r, "normalize.generic", "generic type arguments")
		if next == text {
			break
		}
		text = next
	}
	return text
}

func genericEdits(text string) []jsscan.Edit {
	s := jsscan.Analyze(text)
	masked := s.Masked
	var edits []jsscan.Edit
	for i := 1; i < len(masked); i++ {
		if masked[i] != '<' || !jsscan.IsIdentByte(masked[i-1]) {
			continue
		}
		word, start := wordBefore(masked, i)
		if word == "" || start < 0 || nonGenericWords[word] || isDigit(word[0]) {
			continue
		}
		end := genericClose(masked, i)
		if end < 0 || !genericFollow(masked, end+1) {
			continue
		}
		edits = append(edits, jsscan.Delete(i, end+1))
		i = end
	}
	for _, m := range arrowTypeParamsRe.FindAllStringSubmatchIndex(masked, -1) {
		edits = append(edits, jsscan.Delete(m[2], m[3]))
	}
	return edits
}

// genericClose returns the offset of the '>' closing a type argument list
// opened at lt, or -1 if the bytes between cannot be type arguments.
func genericClose(masked string, lt int) int {
	depth := 0
	limit := min(len(masked), lt+maxGenericSpan)
	for j := lt; j < limit; j++ {
		c := masked[j]
		switch {
		case c == '=' && j+1 < limit && masked[j+1] == '>':
			j++
		case c == '<' || c == '(' || c == '[' || c == '{':
			depth++
		case c == '>' || c == ')' || c == ']' || c == '}':
			depth--
			if depth == 0 {
				if c != '>' {
					return -1
				}
				return j
			}
			if depth < 0 {
				return -1
			}
		case jsscan.IsIdentByte(c) || c == '\'' || c == '"' || c == '`':
		case strings.IndexByte(" \t\r\n|&.,;:?-", c) >= 0:
		default:
			return -1
		}
	}
	return -1
}

// genericFollow checks the byte after a candidate list: a call, another
// closer, member access or the end of an annotation.
func genericFollow(masked string, i int) bool {
	if i >= len(masked) {
		return true
	}
	if strings.IndexByte("()>,;[].|&=?:\n", masked[i]) >= 0 {
		return true
	}
	j := i
	for j < len(masked) && (masked[j] == ' ' || masked[j] == '\t') {
		j++
	}
	if j == i {
		return false
	}
	if j >= len(masked) {
		return true
	}
	return strings.IndexByte("={|&),\n;", masked[j]) >= 0
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
