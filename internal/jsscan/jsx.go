package jsscan

import "sort"

// Tag is a parsed JSX tag.
type Tag struct {
	Name        string // empty for fragments
	Start       int    // offset of '<'
	End         int    // offset of the final '>'
	Closing     bool
	SelfClosing bool
}

func isLetter(b byte) bool { return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') }

func isNameByte(b byte) bool { return IsIdentByte(b) || b == '.' || b == '-' || b == ':' }

// ParseTag parses the JSX tag starting at lt in masked text. Anything that
// does not follow tag grammar (comparisons, leftover generics) is rejected.
func ParseTag(masked string, lt int) (Tag, bool) {
	t := Tag{Start: lt}
	i := lt + 1
	if i >= len(masked) {
		return t, false
	}
	if masked[i] == '/' {
		t.Closing = true
		i++
	}
	if i < len(masked) && masked[i] == '>' {
		t.End = i
		return t, true
	}
	if i >= len(masked) || !isLetter(masked[i]) {
		return t, false
	}
	nameStart := i
	for i < len(masked) && isNameByte(masked[i]) {
		i++
	}
	t.Name = masked[nameStart:i]
	if t.Closing {
		i = SkipSpace(masked, i)
		if i < len(masked) && masked[i] == '>' {
			t.End = i
			return t, true
		}
		return t, false
	}
	for i < len(masked) {
		c := masked[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '/' && i+1 < len(masked) && masked[i+1] == '>':
			t.SelfClosing = true
			t.End = i + 1
			return t, true
		case c == '>':
			t.End = i
			return t, true
		case c == '{':
			closing := MatchingClose(masked, i)
			if closing < 0 {
				return t, false
			}
			i = closing + 1
		case isNameByte(c):
			for i < len(masked) && isNameByte(masked[i]) {
				i++
			}
			if i < len(masked) && masked[i] == '=' {
				i++
				end, ok := attrValueEnd(masked, i)
				if !ok {
					return t, false
				}
				i = end
			}
		default:
			return t, false
		}
	}
	return t, false
}

func attrValueEnd(masked string, i int) (int, bool) {
	if i >= len(masked) {
		return i, false
	}
	switch q := masked[i]; q {
	case '"', '\'':
		for j := i + 1; j < len(masked); j++ {
			if masked[j] == q {
				return j + 1, true
			}
			if masked[j] == '\n' {
				return j, false
			}
		}
	case '{':
		if closing := MatchingClose(masked, i); closing > 0 {
			return closing + 1, true
		}
	}
	return i, false
}

// Tags returns every tag in masked text, in order.
func Tags(masked string) []Tag {
	var out []Tag
	for i := 0; i < len(masked); i++ {
		if masked[i] != '<' {
			continue
		}
		if t, ok := ParseTag(masked, i); ok {
			out = append(out, t)
		}
	}
	return out
}

// Span is a half-open byte range.
type Span struct{ Start, End int }

// JSXText returns the ranges of JSX child text: bytes between tags while an
// element is open, minus {expression} containers.
func JSXText(masked string) []Span {
	var out []Span
	depth := 0
	var ts []Tag
	for _, t := range Tags(masked) {
		// tags inside attribute expressions belong to their owner
		if n := len(ts); n > 0 && t.Start < ts[n-1].End {
			continue
		}
		ts = append(ts, t)
	}
	for k, t := range ts {
		switch {
		case t.Closing:
			if depth > 0 {
				depth--
			}
		case !t.SelfClosing:
			depth++
		}
		if depth == 0 {
			continue
		}
		end := len(masked)
		if k+1 < len(ts) {
			end = ts[k+1].Start
		}
		start := t.End + 1
		for i := start; i < end; i++ {
			if masked[i] != '{' {
				continue
			}
			if i > start {
				out = append(out, Span{start, i})
			}
			closing := MatchingClose(masked, i)
			if closing < 0 || closing >= end {
				start = end
				break
			}
			i = closing
			start = closing + 1
		}
		if start < end {
			out = append(out, Span{start, end})
		}
	}
	return out
}

// InSpans reports whether offset falls inside one of the sorted spans.
func InSpans(spans []Span, offset int) bool {
	k := sort.Search(len(spans), func(i int) bool { return spans[i].End > offset })
	return k < len(spans) && spans[k].Start <= offset
}
