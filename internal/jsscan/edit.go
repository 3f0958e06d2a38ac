package jsscan

import (
	"sort"
	"strings"
)

// Edit replaces Src[Start:End] with Text. A zero-width edit is an insertion.
type Edit struct {
	Start int
	End   int
	Text  string
}

// Delete returns an edit removing [start, end).
func Delete(start, end int) Edit { return Edit{Start: start, End: end} }

// Insert returns a zero-width edit inserting text at pos.
func Insert(pos int, text string) Edit { return Edit{Start: pos, End: pos, Text: text} }

// Apply applies edits to src. Edits are ordered by position; when two edits
// overlap the one that starts first (and on ties, the longer one) wins and the
// other is dropped. It returns the new text and the edits actually applied.
func Apply(src string, edits []Edit) (string, []Edit) {
	if len(edits) == 0 {
		return src, nil
	}
	sorted := make([]Edit, len(edits))
	copy(sorted, edits)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End > sorted[j].End
	})

	var b strings.Builder
	b.Grow(len(src))
	pos := 0
	var applied []Edit
	for _, e := range sorted {
		if e.Start < pos || e.End < e.Start || e.End > len(src) {
			continue
		}
		b.WriteString(src[pos:e.Start])
		b.WriteString(e.Text)
		pos = e.End
		applied = append(applied, e)
	}
	b.WriteString(src[pos:])
	return b.String(), applied
}
