package normalize

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"git.home.luguber.info/inful/sandboxer/internal/jsscan"
	"git.home.luguber.info/inful/sandboxer/internal/models"
)

var invisibles = strings.NewReplacer(
	"\r\n", "\n",
	"\uFEFF", "",
	"\u200B", "",
	"\u200C", "",
	"\u200D", "",
	"\u2060", "",
	"\u00A0", " ",
)

func cleanUnicode(text string, r *models.Reporter) string {
	out := invisibles.Replace(norm.NFC.String(text))
	if out != text {
		r.Info(0, "normalize.unicode", "normalized unicode and invisible characters")
	}
	return out
}

var (
	typeImportRe   = regexp.MustCompile(`(?m)^[ \t]*(?:import|export)[ \t]+type[ \t]+[^;'"]*?\bfrom\s*['"][^'"\n]*['"][ \t]*;?[ \t]*\n?`)
	typeExportRe   = regexp.MustCompile(`(?m)^[ \t]*export[ \t]+type[ \t]*\{[^}]*\}[ \t]*;?[ \t]*\n?`)
	interfaceRe    = regexp.MustCompile(`(?m)^[ \t]*(?:export[ \t]+)?(?:declare[ \t]+)?interface[ \t]+([A-Za-z_$][\w$]*)`)
	typeAliasRe    = regexp.MustCompile(`(?m)^[ \t]*(?:export[ \t]+)?(?:declare[ \t]+)?type[ \t]+([A-Za-z_$][\w$]*)[ \t]*(?:<[^=\n]*>)?[ \t]*=`)
	castRe         = regexp.MustCompile(`(?m)([\w$)\]])[ \t]+(?:as|satisfies)[ \t]+(?:const\b|[A-Za-z_$][\w$.]*(?:\[\])*(?:[ \t]*\|[ \t]*[A-Za-z_$][\w$.]*(?:\[\])*)*)([ \t]*(?:[);,\]}:?]|$))`)
	nonNullRe      = regexp.MustCompile(`[\w$)\]](!)`)
	implementsRe   = regexp.MustCompile(`[ \t]+implements[ \t]+[A-Za-z_$][\w$.]*(?:[ \t]*,[ \t]*[A-Za-z_$][\w$.]*)*([ \t]*\{)`)
	declarationRe  = regexp.MustCompile(`\b(?:const|let|var)[ \t]+`)
	classKeywordRe = regexp.MustCompile(`\bclass\b`)
)

func stripTypeImports(text string, r *models.Reporter) string {
	s := jsscan.Analyze(text)
	var edits []jsscan.Edit
	for _, re := range []*regexp.Regexp{typeImportRe, typeExportRe} {
		for _, m := range re.FindAllStringIndex(s.Masked, -1) {
			edits = append(edits, jsscan.Delete(m[0], m[1]))
		}
	}
	return applyEdits(text, edits, r, "normalize.type_import", "type-only import/export")
}

// blockEnd extends a removed declaration over a trailing semicolon and newline.
func blockEnd(masked string, end int) int {
	for end < len(masked) && (masked[end] == ' ' || masked[end] == '\t') {
		end++
	}
	if end < len(masked) && masked[end] == ';' {
		end++
	}
	for end < len(masked) && (masked[end] == ' ' || masked[end] == '\t') {
		end++
	}
	if end < len(masked) && masked[end] == '\n' {
		end++
	}
	return end
}

func stripInterfaces(text string, r *models.Reporter) string {
	s := jsscan.Analyze(text)
	lines := jsscan.IndexLines(text)
	var edits []jsscan.Edit
	for _, m := range interfaceRe.FindAllStringSubmatchIndex(s.Masked, -1) {
		name := s.Masked[m[2]:m[3]]
		open := strings.IndexByte(s.Masked[m[1]:], '{')
		closing := -1
		if open >= 0 {
			closing = jsscan.MatchingClose(s.Masked, m[1]+open)
		}
		if closing < 0 {
			r.Warn(lines.LineOf(m[0]), "normalize.unterminated_interface", "interface %s has no closing brace; left untouched", name)
			continue
		}
		edits = append(edits, jsscan.Delete(m[0], blockEnd(s.Masked, closing+1)))
	}
	return applyEdits(text, edits, r, "normalize.interface", "interface declaration")
}

func stripTypeAliases(text string, r *models.Reporter) string {
	s := jsscan.Analyze(text)
	lines := jsscan.IndexLines(text)
	var edits []jsscan.Edit
	for _, m := range typeAliasRe.FindAllStringSubmatchIndex(s.Masked, -1) {
		name := s.Masked[m[2]:m[3]]
		end, ok := typeEnd(s.Masked, m[1], stop{bytes: ";", newline: true})
		if !ok {
			r.Warn(lines.LineOf(m[0]), "normalize.unterminated_type", "type alias %s could not be delimited; left untouched", name)
			continue
		}
		edits = append(edits, jsscan.Delete(m[0], blockEnd(s.Masked, end)))
	}
	return applyEdits(text, edits, r, "normalize.type_alias", "type alias")
}

func stripCasts(text string, r *models.Reporter) string {
	// "x as unknown as T" needs one round per cast
	for round := 0; round < 8; round++ {
		s := jsscan.Analyze(text)
		jsxText := jsscan.JSXText(s.Masked)
		var edits []jsscan.Edit
		for _, m := range castRe.FindAllStringSubmatchIndex(s.Masked, -1) {
			if jsscan.InSpans(jsxText, m[0]) {
				continue
			}
			ls := lineStart(s.Masked, m[0])
			head := strings.TrimSpace(s.Masked[ls:m[0]])
			if strings.HasPrefix(head, "import") || strings.HasPrefix(head, "export {") || strings.HasPrefix(head, "export{") {
				continue
			}
			edits = append(edits, jsscan.Delete(m[3], m[4]))
		}
		if len(edits) == 0 {
			break
		}
		text = applyEdits(text, edits, r, "normalize.cast", "type assertion")
	}
	return text
}

func stripNonNull(text string, r *models.Reporter) string {
	s := jsscan.Analyze(text)
	jsxText := jsscan.JSXText(s.Masked)
	var edits []jsscan.Edit
	for _, m := range nonNullRe.FindAllStringSubmatchIndex(s.Masked, -1) {
		bang := m[2]
		if next := bang + 1; next < len(s.Masked) && s.Masked[next] == '=' || jsscan.InSpans(jsxText, bang) {
			continue
		}
		if prefixKeywords[identBefore(s.Masked, bang)] {
			// return!x
			continue
		}
		edits = append(edits, jsscan.Delete(bang, bang+1))
	}
	return applyEdits(text, edits, r, "normalize.non_null", "non-null assertion")
}

var prefixKeywords = map[string]bool{
	"return": true, "typeof": true, "case": true, "in": true, "of": true, "yield": true,
	"await": true, "void": true, "delete": true, "throw": true, "else": true, "do": true,
}

func identBefore(masked string, end int) string {
	i := end
	for i > 0 && jsscan.IsIdentByte(masked[i-1]) {
		i--
	}
	return masked[i:end]
}

func stripImplements(text string, r *models.Reporter) string {
	s := jsscan.Analyze(text)
	var edits []jsscan.Edit
	for _, m := range implementsRe.FindAllStringSubmatchIndex(s.Masked, -1) {
		ls := lineStart(s.Masked, m[0])
		if !classKeywordRe.MatchString(s.Masked[ls:m[0]]) {
			continue
		}
		edits = append(edits, jsscan.Edit{Start: m[0], End: m[3], Text: " {"})
	}
	return applyEdits(text, edits, r, "normalize.implements", "implements clause")
}

func stripDeclarationAnnotations(text string, r *models.Reporter) string {
	s := jsscan.Analyze(text)
	var edits []jsscan.Edit
	for _, m := range declarationRe.FindAllStringIndex(s.Masked, -1) {
		bindEnd := bindingEnd(s.Masked, m[1])
		if bindEnd <= m[1] {
			continue
		}
		j := bindEnd
		for j < len(s.Masked) && (s.Masked[j] == ' ' || s.Masked[j] == '\t') {
			j++
		}
		if j < len(s.Masked) && s.Masked[j] == '!' {
			// definite assignment: let x!: T
			j++
		}
		if j >= len(s.Masked) || s.Masked[j] != ':' {
			continue
		}
		end, ok := typeEnd(s.Masked, j+1, stop{bytes: "=;,)", newline: true})
		if !ok {
			continue
		}
		edits = append(edits, jsscan.Delete(bindEnd, trimEnd(s.Masked, bindEnd, end)))
	}
	return applyEdits(text, edits, r, "normalize.annotation", "variable type annotation")
}

// bindingEnd returns the end of an identifier or destructuring pattern at i.
func bindingEnd(masked string, i int) int {
	if i >= len(masked) {
		return i
	}
	if masked[i] == '{' || masked[i] == '[' {
		if c := jsscan.MatchingClose(masked, i); c > 0 {
			return c + 1
		}
		return i
	}
	return identEnd(masked, i)
}
