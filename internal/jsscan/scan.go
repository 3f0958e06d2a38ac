// Package jsscan classifies JavaScript/JSX source bytes into code, string,
// template and comment regions and exposes a masked copy of the source in
// which only code survives. Offsets in the masked copy are identical to the
// original, so matches found on the mask can be applied to the source.
package jsscan

import "strings"

// Class is the lexical class of a single source byte.
type Class uint8

const (
	Code Class = iota
	String
	Template
	Comment
)

// keywords after which a quote or slash starts a literal even though the
// preceding byte is an identifier character.
var literalKeywords = map[string]bool{
	"return": true, "case": true, "typeof": true, "in": true, "of": true,
	"else": true, "yield": true, "await": true, "void": true, "delete": true,
	"throw": true, "new": true, "export": true, "import": true, "from": true,
	"default": true,
}

// Scan is the result of Analyze.
type Scan struct {
	Src    string
	Masked string
	class  []Class
}

// IsIdentByte reports whether b can appear inside a JS identifier.
func IsIdentByte(b byte) bool {
	return b == '_' || b == '$' || b >= 0x80 ||
		(b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// ClassAt returns the class of the byte at i. Out-of-range offsets are Code.
func (s *Scan) ClassAt(i int) Class {
	if i < 0 || i >= len(s.class) {
		return Code
	}
	return s.class[i]
}

// IsCode reports whether the byte at i is executable code.
func (s *Scan) IsCode(i int) bool { return s.ClassAt(i) == Code }

type scanner struct {
	src    string
	masked []byte
	class  []Class
	// brace depth of code, and the depths at which template substitutions opened
	depth int
	subst []int
}

// Analyze scans src once and returns its classification.
func Analyze(src string) *Scan {
	sc := &scanner{
		src:    src,
		masked: []byte(src),
		class:  make([]Class, len(src)),
	}
	sc.run()
	return &Scan{Src: src, Masked: string(sc.masked), class: sc.class}
}

func (sc *scanner) mark(from, to int, c Class, keepDelims bool) {
	for i := from; i < to && i < len(sc.src); i++ {
		sc.class[i] = c
		b := sc.src[i]
		if b == '\n' {
			continue
		}
		switch c {
		case Comment:
			sc.masked[i] = ' '
		case String, Template:
			if keepDelims && (i == from || i == to-1) {
				continue
			}
			sc.masked[i] = '_'
		}
	}
}

func (sc *scanner) run() {
	src := sc.src
	i := 0
	for i < len(src) {
		b := src[i]
		switch {
		case b == '/' && i+1 < len(src) && src[i+1] == '/' && !(i > 0 && src[i-1] == ':'):
			end := strings.IndexByte(src[i:], '\n')
			if end < 0 {
				end = len(src)
			} else {
				end += i
			}
			sc.mark(i, end, Comment, false)
			i = end
		case b == '/' && i+1 < len(src) && src[i+1] == '*':
			end := strings.Index(src[i+2:], "*/")
			if end < 0 {
				end = len(src)
			} else {
				end += i + 4
			}
			sc.mark(i, end, Comment, false)
			i = end
		case (b == '\'' || b == '"') && sc.opensLiteral(i):
			i = sc.quoted(i, b)
		case b == '`':
			i = sc.template(i + 1)
		case b == '/' && sc.opensLiteral(i):
			i = sc.regexp(i)
		case b == '{':
			sc.depth++
			i++
		case b == '}':
			if n := len(sc.subst); n > 0 && sc.subst[n-1] == sc.depth {
				sc.subst = sc.subst[:n-1]
				sc.depth--
				sc.mark(i, i+1, Template, false)
				i = sc.template(i + 1)
				continue
			}
			sc.depth--
			i++
		default:
			i++
		}
	}
}

// opensLiteral reports whether a quote or slash at i starts a literal,
// judged by the previous significant byte.
func (sc *scanner) opensLiteral(i int) bool {
	if sc.src[i] == '/' && i+1 < len(sc.src) && sc.src[i+1] == '/' {
		return false
	}
	j := i - 1
	for j >= 0 && (sc.src[j] == ' ' || sc.src[j] == '\t') {
		j--
	}
	if j < 0 {
		return true
	}
	prev := sc.src[j]
	if sc.src[i] == '/' {
		if prev == '\n' || prev == '\r' {
			return true
		}
		if strings.IndexByte("(,=:[!&|?{};+-*%<~^", prev) < 0 {
			return IsIdentByte(prev) && literalKeywords[wordEndingAt(sc.src, j)]
		}
		// `</` closes a JSX tag, `/>` is handled by the byte before it.
		return prev != '<'
	}
	if j < i-1 {
		// whitespace between: only an identifier that is not a keyword suppresses it
		if IsIdentByte(prev) {
			return literalKeywords[wordEndingAt(sc.src, j)]
		}
		return true
	}
	if IsIdentByte(prev) {
		return literalKeywords[wordEndingAt(sc.src, j)]
	}
	return prev != ')' && prev != ']'
}

func wordEndingAt(s string, j int) string {
	k := j
	for k >= 0 && IsIdentByte(s[k]) {
		k--
	}
	return s[k+1 : j+1]
}

func (sc *scanner) quoted(start int, q byte) int {
	i := start + 1
	for i < len(sc.src) {
		switch sc.src[i] {
		case '\\':
			i += 2
			continue
		case '\n':
			sc.mark(start, i, String, false)
			sc.masked[start] = q
			return i
		case q:
			sc.mark(start, i+1, String, true)
			return i + 1
		}
		i++
	}
	sc.mark(start, len(sc.src), String, false)
	sc.masked[start] = q
	return len(sc.src)
}

// template scans template text from i (just after the opening backtick or a
// closing substitution brace) to the closing backtick or the next `${`.
func (sc *scanner) template(i int) int {
	start := i
	if start > 0 && sc.src[start-1] == '`' {
		start--
	}
	for i < len(sc.src) {
		switch sc.src[i] {
		case '\\':
			i += 2
			continue
		case '`':
			sc.mark(start, i+1, Template, false)
			sc.keepByte(i)
			if sc.src[start] == '`' {
				sc.keepByte(start)
			}
			return i + 1
		case '$':
			if i+1 < len(sc.src) && sc.src[i+1] == '{' {
				sc.mark(start, i+2, Template, false)
				if sc.src[start] == '`' {
					sc.keepByte(start)
				}
				sc.depth++
				sc.subst = append(sc.subst, sc.depth)
				return i + 2
			}
		}
		i++
	}
	sc.mark(start, len(sc.src), Template, false)
	return len(sc.src)
}

func (sc *scanner) keepByte(i int) {
	if i >= 0 && i < len(sc.src) {
		sc.masked[i] = sc.src[i]
	}
}

func (sc *scanner) regexp(start int) int {
	i := start + 1
	inClass := false
	for i < len(sc.src) {
		switch sc.src[i] {
		case '\\':
			i += 2
			continue
		case '\n':
			// not a regexp after all; treat the slash as an operator
			return start + 1
		case '[':
			inClass = true
		case ']':
			inClass = false
		case '/':
			if !inClass {
				i++
				for i < len(sc.src) && IsIdentByte(sc.src[i]) {
					i++
				}
				sc.mark(start, i, String, false)
				return i
			}
		}
		i++
	}
	return start + 1
}
