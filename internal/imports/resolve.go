// Package imports implements the component usage resolver. It discards the
// import statements the model wrote and rebuilds them from the catalog
// components the source actually uses.
package imports

import (
	"regexp"
	"sort"
	"strings"

	"git.home.luguber.info/inful/sandboxer/internal/framework"
	"git.home.luguber.info/inful/sandboxer/internal/jsscan"
	"git.home.luguber.info/inful/sandboxer/internal/models"
)

var (
	importRe    = regexp.MustCompile(`(?m)^[ \t]*import\b[^;'"]*?['"][^'"\n]*['"][ \t]*;?[ \t]*\n?`)
	directiveRe = regexp.MustCompile(`^(?:[ \t]*\n)*[ \t]*(['"])use [a-z]+['"][ \t]*;?[ \t]*\n`)
	tagUseRe    = regexp.MustCompile(`<([A-Za-z_$][\w$]*)[\s/>.]`)
	localDeclRe = regexp.MustCompile(`\b(?:function\*?|class)[ \t]+([A-Za-z_$][\w$]*)|\b(?:const|let|var)[ \t]+([A-Za-z_$][\w$]*|\{[^}]*\}|\[[^\]]*\])`)
	patternIdRe = regexp.MustCompile(`([A-Za-z_$][\w$]*)\s*(:)?`)
	clauseRe    = regexp.MustCompile(`^\s*import\s+([\s\S]*?)\s*\bfrom\s*['"]`)
	identRe     = regexp.MustCompile(`^[A-Za-z_$][\w$]*$`)
)

// mountModules only serve manual mount calls, which the entry-point stage strips.
var mountModules = map[string]bool{"react-dom": true, "react-dom/client": true}

// binding is a name an import statement declared.
type binding struct {
	name   string
	module string
}

// Resolve is the resolve_imports stage for framework def.
func Resolve(in models.StageOutcome, def *framework.Definition) models.StageOutcome {
	r := models.NewReporter(models.StageResolveImports)
	lines := jsscan.IndexLines(in.Text)

	body, removed, bound := removeImports(in.Text, def, lines, r)
	masked := jsscan.Analyze(body).Masked
	locals := localNames(masked)
	used, firstTag := usages(masked, def)

	manifest := models.NewImportManifest()
	resolved := map[string]bool{}
	for _, name := range used.sorted() {
		if locals[name] {
			continue
		}
		comp, ok := def.Lookup(name)
		if !ok || !permits(comp.Usage, used[name]) {
			if used[name]&useTag != 0 && isUpper(name[0]) {
				r.Warn(lines.LineOf(sourceOffset(firstTag[name], removed)), "imports.unknown_component", "<%s> is not a %s component and was not imported", name, def.Title)
			}
			continue
		}
		manifest.Add(comp.Module, models.ImportSpec{Name: comp.Name, Default: comp.IsDefault, Namespace: comp.IsNamespace})
		resolved[name] = true
	}

	jsxText := jsscan.JSXText(masked)
	for _, b := range bound {
		if resolved[b.name] || locals[b.name] || used[b.name]&useTag != 0 || mountModules[b.module] {
			continue
		}
		if off := firstReference(masked, b.name, jsxText); off >= 0 {
			r.Warn(lines.LineOf(sourceOffset(off, removed)), "imports.unresolved_binding",
				"%s (imported from %s) is still referenced but is not a %s identifier", b.name, b.module, def.Title)
		}
	}

	if manifest.Empty() && def.RequiresRoot {
		r.Error(0, "imports.empty_manifest", "no %s components are used; expected at least <%s>", def.Title, def.RootContainer)
	}

	text := insertImports(body, Render(manifest))
	if len(removed) > 0 && text != in.Text {
		r.Info(0, "imports.rewritten", "replaced %d import statement(s)", len(removed))
	}
	out := in.Next(text, r.Diagnostics())
	out.Manifest = manifest
	return out
}

func removeImports(text string, def *framework.Definition, lines jsscan.Lines, r *models.Reporter) (string, []jsscan.Edit, []binding) {
	masked := jsscan.Analyze(text).Masked
	var edits []jsscan.Edit
	var bound []binding
	for _, m := range importRe.FindAllStringIndex(masked, -1) {
		kw := strings.Index(masked[m[0]:m[1]], "import") + m[0]
		if next := jsscan.SkipSpace(masked, kw+len("import")); next < len(masked) && masked[next] == '(' {
			continue
		}
		edits = append(edits, jsscan.Delete(m[0], m[1]))
		stmt := text[m[0]:m[1]]
		module := moduleOf(stmt)
		for _, name := range importedNames(stmt) {
			bound = append(bound, binding{name: name, module: module})
		}
		line := lines.LineOf(m[0])
		switch {
		case module == "":
		case strings.HasPrefix(module, "."):
			if !strings.HasSuffix(module, ".css") {
				r.Warn(line, "imports.local_module", "dropped import of local module %s", module)
			}
		default:
			if canonical, ok := def.CanonicalModule(module); ok {
				r.Warn(line, "imports.legacy_module", "legacy module %s replaced by %s", module, canonical)
			} else if _, pinned := def.PinnedVersion(framework.RootPackage(module)); !pinned {
				r.Warn(line, "imports.unknown_module", "dropped import of %s, which is not available for %s", module, def.Title)
			}
		}
	}
	out, removed := jsscan.Apply(text, edits)
	return out, removed, bound
}

// importedNames lists the local names an import statement binds:
// default, namespace and named (after any alias).
func importedNames(stmt string) []string {
	m := clauseRe.FindStringSubmatch(stmt)
	if m == nil {
		return nil
	}
	clause := m[1]
	var parts []string
	if open := strings.IndexByte(clause, '{'); open >= 0 {
		closing := strings.IndexByte(clause, '}')
		if closing < open {
			return nil
		}
		parts = append(parts, strings.Split(clause[open+1:closing], ",")...)
		clause = clause[:open] + clause[closing+1:]
	}
	parts = append(parts, strings.Split(clause, ",")...)

	var names []string
	for _, p := range parts {
		p = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(p), "type "))
		if i := strings.LastIndex(p, " as "); i >= 0 {
			p = strings.TrimSpace(p[i+len(" as "):])
		}
		if identRe.MatchString(p) {
			names = append(names, p)
		}
	}
	return names
}

// firstReference returns the offset of the first use of name as a bare
// identifier outside JSX text, or -1.
func firstReference(masked, name string, jsxText []jsscan.Span) int {
	for from := 0; from < len(masked); {
		i := strings.Index(masked[from:], name)
		if i < 0 {
			return -1
		}
		i += from
		end := i + len(name)
		from = end
		if i > 0 && (jsscan.IsIdentByte(masked[i-1]) || masked[i-1] == '.') {
			continue
		}
		if end < len(masked) && jsscan.IsIdentByte(masked[end]) {
			continue
		}
		if jsscan.InSpans(jsxText, i) {
			continue
		}
		return i
	}
	return -1
}

// sourceOffset maps an offset in the import-free body back to the stage input.
func sourceOffset(off int, removed []jsscan.Edit) int {
	for _, e := range removed {
		if e.Start > off {
			break
		}
		off += e.End - e.Start
	}
	return off
}

func moduleOf(stmt string) string {
	q := strings.LastIndexAny(stmt, `'"`)
	if q < 0 {
		return ""
	}
	open := strings.LastIndexByte(stmt[:q], stmt[q])
	if open < 0 {
		return ""
	}
	return stmt[open+1 : q]
}

// localNames collects identifiers declared at any level of the source.
func localNames(masked string) map[string]bool {
	locals := map[string]bool{}
	for _, m := range localDeclRe.FindAllStringSubmatch(masked, -1) {
		if m[1] != "" {
			locals[m[1]] = true
			continue
		}
		pattern := m[2]
		if pattern[0] != '{' && pattern[0] != '[' {
			locals[pattern] = true
			continue
		}
		for _, id := range patternIdRe.FindAllStringSubmatch(pattern, -1) {
			if id[2] == "" {
				locals[id[1]] = true
			}
		}
	}
	return locals
}

type useKind uint8

const (
	useTag useKind = 1 << iota
	useCall
	useMember
)

type usageSet map[string]useKind

func (u usageSet) sorted() []string {
	out := make([]string, 0, len(u))
	for name := range u {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func permits(u framework.Usage, seen useKind) bool {
	switch u {
	case framework.UsageTag:
		return seen&useTag != 0
	case framework.UsageCall:
		return seen&useCall != 0
	case framework.UsageMember:
		return seen&useMember != 0
	default:
		return seen != 0
	}
}

// usages finds every tag name plus catalog identifiers used as calls or
// member access roots. firstTag holds the offset of each tag's first use.
func usages(masked string, def *framework.Definition) (usageSet, map[string]int) {
	used := usageSet{}
	firstTag := map[string]int{}
	for _, m := range tagUseRe.FindAllStringSubmatchIndex(masked, -1) {
		name := masked[m[2]:m[3]]
		if _, ok := def.Lookup(name); !ok && !isUpper(name[0]) {
			continue
		}
		if used[name]&useTag == 0 {
			firstTag[name] = m[0]
		}
		used[name] |= useTag
	}
	var names []string
	for _, c := range def.Components() {
		names = append(names, regexp.QuoteMeta(c.Name))
	}
	if len(names) == 0 {
		return used, firstTag
	}
	alt := strings.Join(names, "|")
	callRe := regexp.MustCompile(`(?:^|[^\w$.])(` + alt + `)\s*\(`)
	memberRe := regexp.MustCompile(`(?:^|[^\w$.])(` + alt + `)\s*\.[A-Za-z_$]`)
	for _, m := range callRe.FindAllStringSubmatch(masked, -1) {
		used[m[1]] |= useCall
	}
	for _, m := range memberRe.FindAllStringSubmatch(masked, -1) {
		used[m[1]] |= useMember
	}
	return used, firstTag
}

func isUpper(b byte) bool { return b >= 'A' && b <= 'Z' }

// insertImports places the import block after any leading directive prologue.
func insertImports(body, block string) string {
	prologue := ""
	if loc := directiveRe.FindStringIndex(body); loc != nil {
		prologue = strings.TrimLeft(body[:loc[1]], "\n")
		body = body[loc[1]:]
	}
	body = strings.TrimLeft(body, "\n")
	if block == "" {
		return prologue + body
	}
	return prologue + block + "\n" + body
}
