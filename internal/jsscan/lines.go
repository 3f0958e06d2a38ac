package jsscan

import "sort"

// Lines indexes line start offsets of a text for offset to line lookups.
type Lines []int

// IndexLines returns the start offset of every line in s.
func IndexLines(s string) Lines {
	starts := Lines{0}
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// LineOf returns the 1-based line number containing offset.
func (l Lines) LineOf(offset int) int {
	return sort.Search(len(l), func(i int) bool { return l[i] > offset })
}

// Span returns the [start, end) offsets of the 1-based line n, excluding the newline.
func (l Lines) Span(s string, n int) (int, int) {
	if n < 1 || n > len(l) {
		return -1, -1
	}
	start := l[n-1]
	end := len(s)
	if n < len(l) {
		end = l[n] - 1
	}
	return start, end
}
