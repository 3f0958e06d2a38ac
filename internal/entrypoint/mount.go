package entrypoint

import (
	"regexp"

	"git.home.luguber.info/inful/sandboxer/internal/jsscan"
	"git.home.luguber.info/inful/sandboxer/internal/models"
)

var (
	rootVarRe = regexp.MustCompile(`(?m)^[ \t]*(?:const|let|var)[ \t]+([A-Za-z_$][\w$]*)[ \t]*=[ \t]*(?:ReactDOM\s*\.\s*)?(?:createRoot|hydrateRoot)\s*\(`)
	mountRe   = regexp.MustCompile(`(?m)^[ \t]*(?:ReactDOM\s*\.\s*)?(?:render|hydrate|createRoot|hydrateRoot)\s*\(`)
)

// stripMounts removes top-level calls that mount the application into the
// document, including root variables created for that purpose and their
// render calls.
func stripMounts(text string, r *models.Reporter) string {
	masked := jsscan.Analyze(text).Masked
	lines := jsscan.IndexLines(text)
	var edits []jsscan.Edit
	remove := func(start, open int) {
		if jsscan.DepthAt(masked, start) != 0 {
			return
		}
		end := statementEnd(masked, open)
		if end < 0 {
			r.Warn(lines.LineOf(start), "entrypoint.mount_unterminated", "mount call is not terminated and was left in place")
			return
		}
		edits = append(edits, jsscan.Delete(start, end))
		r.Info(lines.LineOf(start), "entrypoint.mount_removed", "removed manual mount call")
	}

	for _, m := range rootVarRe.FindAllStringSubmatchIndex(masked, -1) {
		remove(m[0], m[1]-1)
		name := masked[m[2]:m[3]]
		useRe := regexp.MustCompile(`(?m)^[ \t]*` + regexp.QuoteMeta(name) + `\s*\.\s*(?:render|unmount)\s*\(`)
		for _, u := range useRe.FindAllStringIndex(masked, -1) {
			remove(u[0], u[1]-1)
		}
	}
	for _, m := range mountRe.FindAllStringIndex(masked, -1) {
		remove(m[0], m[1]-1)
	}
	out, _ := jsscan.Apply(text, edits)
	return out
}

// statementEnd returns the offset just past the call starting with the
// parenthesis at open, following `.method(...)` chains, an optional
// semicolon and the rest of the line.
func statementEnd(masked string, open int) int {
	end := jsscan.MatchingClose(masked, open)
	if end < 0 {
		return -1
	}
	i := end + 1
	for {
		j := jsscan.SkipSpace(masked, i)
		if j >= len(masked) || masked[j] != '.' {
			break
		}
		k := jsscan.SkipSpace(masked, j+1)
		for k < len(masked) && jsscan.IsIdentByte(masked[k]) {
			k++
		}
		k = jsscan.SkipSpace(masked, k)
		if k >= len(masked) || masked[k] != '(' {
			break
		}
		if end = jsscan.MatchingClose(masked, k); end < 0 {
			return -1
		}
		i = end + 1
	}
	for i < len(masked) && (masked[i] == ' ' || masked[i] == '\t') {
		i++
	}
	if i < len(masked) && masked[i] == ';' {
		i++
	}
	for i < len(masked) && (masked[i] == ' ' || masked[i] == '\t' || masked[i] == '\r') {
		i++
	}
	if i < len(masked) && masked[i] == '\n' {
		i++
	}
	return i
}
