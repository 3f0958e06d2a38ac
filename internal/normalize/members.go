package normalize

import (
	"regexp"
	"strings"

	"git.home.luguber.info/inful/sandboxer/internal/jsscan"
	"git.home.luguber.info/inful/sandboxer/internal/models"
)

var (
	classHeadRe = regexp.MustCompile(`\bclass\b[^{;]*\{`)
	memberRe    = regexp.MustCompile(`^([ \t]*)((?:(?:public|private|protected|readonly|override|static|declare)[ \t]+)*)(#?[A-Za-z_$][\w$]*)([ \t]*[?!])?([ \t]*:)?`)
	tsModifier  = regexp.MustCompile(`\b(?:public|private|protected|readonly|override|declare)[ \t]+`)
)

// stripClassMembers removes field annotations and TypeScript-only member
// modifiers from lines directly inside a class body.
func stripClassMembers(text string, r *models.Reporter) string {
	s := jsscan.Analyze(text)
	masked := s.Masked
	var edits []jsscan.Edit
	for _, m := range classHeadRe.FindAllStringIndex(masked, -1) {
		open := m[1] - 1
		closing := jsscan.MatchingClose(masked, open)
		if closing < 0 {
			continue
		}
		depth := 0
		for i := open + 1; i < closing; i++ {
			if masked[i-1] == '\n' || i == open+1 {
				if depth == 0 {
					edits = append(edits, memberEdits(masked, i, closing)...)
				}
			}
			switch masked[i] {
			case '(', '[', '{':
				depth++
			case ')', ']', '}':
				depth--
			}
		}
	}
	return applyEdits(text, edits, r, "normalize.class_member", "class member type syntax")
}

func memberEdits(masked string, lineStart, limit int) []jsscan.Edit {
	lineEnd := strings.IndexByte(masked[lineStart:limit], '\n')
	if lineEnd < 0 {
		lineEnd = limit
	} else {
		lineEnd += lineStart
	}
	m := memberRe.FindStringSubmatchIndex(masked[lineStart:lineEnd])
	if m == nil {
		return nil
	}
	var edits []jsscan.Edit
	if m[4] < m[5] {
		for _, mm := range tsModifier.FindAllStringIndex(masked[lineStart+m[4]:lineStart+m[5]], -1) {
			edits = append(edits, jsscan.Delete(lineStart+m[4]+mm[0], lineStart+m[4]+mm[1]))
		}
	}
	markStart := lineStart + m[7]
	if m[8] >= 0 {
		edits = append(edits, jsscan.Delete(lineStart+m[9]-1, lineStart+m[9]))
	}
	if m[10] >= 0 {
		colon := lineStart + m[11] - 1
		end, ok := typeEnd(masked[:limit], colon+1, stop{bytes: "=;", newline: true})
		if ok {
			edits = append(edits, jsscan.Delete(markStart, trimEnd(masked, markStart, end)))
		}
	}
	return edits
}
