package normalize

import (
	"regexp"
	"strings"

	"git.home.luguber.info/inful/sandboxer/internal/jsscan"
	"git.home.luguber.info/inful/sandboxer/internal/models"
)

type construct struct {
	re   *regexp.Regexp
	code string
	what string
}

var unsupported = []construct{
	{regexp.MustCompile(`(?m)^[ \t]*(?:export[ \t]+)?(?:declare[ \t]+)?(?:const[ \t]+)?enum[ \t]+[A-Za-z_$][\w$]*`), "normalize.enum", "enum declaration"},
	{regexp.MustCompile(`(?m)^[ \t]*(?:export[ \t]+)?(?:declare[ \t]+)?(?:namespace|module)[ \t]+[\w$.'"]+[ \t]*\{`), "normalize.namespace", "namespace declaration"},
	{regexp.MustCompile(`(?m)^[ \t]*(?:export[ \t]+)?declare[ \t]+(?:const|let|var|function|class|global)\b`), "normalize.declare", "ambient declaration"},
	{regexp.MustCompile(`\babstract[ \t]+(?:class\b|[A-Za-z_$][\w$]*[ \t]*\()`), "normalize.abstract", "abstract class or member"},
}

// untouchedMarker tags a construct that was already reported, so a second
// run stays silent. It is a block comment and never shifts line numbers.
const untouchedMarker = "/* sandboxer:untouched */ "

// flagUnsupported warns about type-level constructs that have runtime
// meaning or no safe removal. Only the marker comment is added.
func flagUnsupported(text string, r *models.Reporter) string {
	s := jsscan.Analyze(text)
	lines := jsscan.IndexLines(text)
	jsxText := jsscan.JSXText(s.Masked)
	var edits []jsscan.Edit
	seen := map[int]bool{}
	for _, c := range unsupported {
		for _, m := range c.re.FindAllStringIndex(s.Masked, -1) {
			if jsscan.InSpans(jsxText, m[0]) || marked(text, m[0], m[1]) {
				continue
			}
			r.Warn(lines.LineOf(m[0]), c.code, "%s left untouched", c.what)
			if !seen[m[0]] {
				seen[m[0]] = true
				edits = append(edits, jsscan.Insert(m[0], untouchedMarker))
			}
		}
	}
	out, _ := jsscan.Apply(text, edits)
	return out
}

func marked(text string, start, end int) bool {
	return strings.HasSuffix(text[:start], untouchedMarker) || strings.Contains(text[start:end], untouchedMarker)
}
