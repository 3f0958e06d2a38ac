package jsscan

var closerOf = map[byte]byte{'(': ')', '[': ']', '{': '}', '<': '>'}

// MatchingClose returns the index of the bracket closing the one at open in
// masked text, or -1. Only brackets of the same kind are counted.
func MatchingClose(masked string, open int) int {
	if open < 0 || open >= len(masked) {
		return -1
	}
	o := masked[open]
	c, ok := closerOf[o]
	if !ok {
		return -1
	}
	depth := 0
	for i := open; i < len(masked); i++ {
		switch masked[i] {
		case o:
			depth++
		case c:
			// `=>` is never a closing angle bracket
			if c == '>' && i > 0 && masked[i-1] == '=' {
				continue
			}
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// MatchingOpen returns the index of the bracket opening the one at close, or -1.
func MatchingOpen(masked string, close int) int {
	if close < 0 || close >= len(masked) {
		return -1
	}
	c := masked[close]
	var o byte
	for k, v := range closerOf {
		if v == c {
			o = k
		}
	}
	if o == 0 {
		return -1
	}
	depth := 0
	for i := close; i >= 0; i-- {
		switch masked[i] {
		case c:
			depth++
		case o:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// DepthAt returns the combined (), [] and {} nesting depth just before offset.
func DepthAt(masked string, offset int) int {
	depth := 0
	for i := 0; i < offset && i < len(masked); i++ {
		switch masked[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		}
	}
	return depth
}

// SkipSpace returns the first offset at or after i that is not whitespace.
func SkipSpace(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r') {
		i++
	}
	return i
}

// SkipSpaceBack returns the last offset at or before i that is not whitespace, or -1.
func SkipSpaceBack(s string, i int) int {
	for i >= 0 && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r') {
		i--
	}
	return i
}
