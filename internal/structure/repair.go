// Package structure implements the structural repair pass: it removes
// orphaned closers, self-closes capitalized tags that are never closed and
// reports whatever imbalance remains.
package structure

import (
	"regexp"
	"strings"

	"git.home.luguber.info/inful/sandboxer/internal/jsscan"
	"git.home.luguber.info/inful/sandboxer/internal/models"
)

func isUpper(b byte) bool { return b >= 'A' && b <= 'Z' }

// TagLookahead bounds the search for a closing tag.
const TagLookahead = 16 << 10

var closerLineRe = regexp.MustCompile(`^[ \t]*[)\]}]+[ \t]*[;,]?[ \t]*$`)

// Run is the repair stage.
func Run(in models.StageOutcome) models.StageOutcome {
	r := models.NewReporter(models.StageRepair)
	text := removeOrphanClosers(in.Text, r)
	text = selfCloseTags(text, r)
	if b := Measure(text); !b.Zero() {
		r.Error(0, "structure.imbalance", "unbalanced after repair: %s", strings.Join(b.Unbalanced(), ", "))
	}
	return in.Next(text, r.Diagnostics())
}

type counters struct{ paren, brace, bracket int }

func (c *counters) apply(line string) {
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '(':
			c.paren++
		case ')':
			c.paren--
		case '{':
			c.brace++
		case '}':
			c.brace--
		case '[':
			c.bracket++
		case ']':
			c.bracket--
		}
	}
}

func (c counters) negative() bool { return c.paren < 0 || c.brace < 0 || c.bracket < 0 }

// removeOrphanClosers deletes a line holding only closers when applying it
// would leave more closers than openers so far and the previous non-blank
// line ends a statement.
func removeOrphanClosers(text string, r *models.Reporter) string {
	masked := jsscan.Analyze(text).Masked
	maskedLines := strings.SplitAfter(masked, "\n")
	var (
		c        counters
		offset   int
		prevCode string
		edits    []jsscan.Edit
	)
	for n, ml := range maskedLines {
		body := strings.TrimRight(ml, "\r\n")
		if closerLineRe.MatchString(body) && strings.TrimSpace(body) != "" {
			next := c
			next.apply(body)
			if next.negative() && strings.HasSuffix(prevCode, ";") {
				edits = append(edits, jsscan.Delete(offset, offset+len(ml)))
				r.Info(n+1, "structure.orphan_closer", "removed orphaned %q", strings.TrimSpace(text[offset:offset+len(body)]))
				offset += len(ml)
				continue
			}
		}
		c.apply(body)
		if trimmed := strings.TrimSpace(body); trimmed != "" {
			prevCode = trimmed
		}
		offset += len(ml)
	}
	out, _ := jsscan.Apply(text, edits)
	return out
}

// selfCloseTags rewrites <Name attrs> to <Name attrs /> when no </Name>
// follows within TagLookahead bytes.
func selfCloseTags(text string, r *models.Reporter) string {
	masked := jsscan.Analyze(text).Masked
	lines := jsscan.IndexLines(text)
	var edits []jsscan.Edit
	for _, t := range jsscan.Tags(masked) {
		if t.Closing || t.SelfClosing || t.Name == "" || !isUpper(t.Name[0]) {
			continue
		}
		window := masked[t.End+1 : min(len(masked), t.End+1+TagLookahead)]
		if closingTagRe(t.Name).MatchString(window) {
			continue
		}
		insert := " />"
		if masked[t.End-1] == ' ' || masked[t.End-1] == '\n' {
			insert = "/>"
		}
		edits = append(edits, jsscan.Edit{Start: t.End, End: t.End + 1, Text: insert})
		r.Info(lines.LineOf(t.Start), "structure.self_closed", "self-closed <%s> with no closing tag", t.Name)
	}
	out, _ := jsscan.Apply(text, edits)
	return out
}

func closingTagRe(name string) *regexp.Regexp {
	return regexp.MustCompile(`</` + regexp.QuoteMeta(name) + `\s*>`)
}
