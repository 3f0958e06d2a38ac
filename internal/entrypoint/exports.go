package entrypoint

import (
	"regexp"
	"strconv"

	"git.home.luguber.info/inful/sandboxer/internal/jsscan"
	"git.home.luguber.info/inful/sandboxer/internal/models"
)

var (
	exportDefaultRe = regexp.MustCompile(`(?m)^[ \t]*export[ \t]+default[ \t]+`)
	exportAsRe      = regexp.MustCompile(`(?m)^[ \t]*export[ \t]*\{[ \t]*([A-Za-z_$][\w$]*)[ \t]+as[ \t]+default[ \t]*,?[ \t]*\}[ \t]*;?[ \t]*\n?`)
	defaultFuncRe   = regexp.MustCompile(`^(async[ \t]+)?function(\*?)[ \t]*([A-Za-z_$][\w$]*)?`)
	defaultClassRe  = regexp.MustCompile(`^class\b[ \t]*([A-Za-z_$][\w$]*)?`)
	defaultIdentRe  = regexp.MustCompile(`^([A-Za-z_$][\w$]*)[ \t]*;?[ \t]*(?:\n|$)`)
)

// unexportDefaults turns every default export into a plain declaration so
// exactly one can be appended later. It returns the rewritten text and the
// names that were default-exported.
func unexportDefaults(text, appRoot string, r *models.Reporter) (string, []string) {
	masked := jsscan.Analyze(text).Masked
	lines := jsscan.IndexLines(text)
	taken := map[string]bool{}
	for _, d := range declarations(masked) {
		taken[d.name] = true
	}
	var edits []jsscan.Edit
	var names []string

	for _, m := range exportDefaultRe.FindAllStringIndex(masked, -1) {
		if jsscan.DepthAt(masked, m[0]) != 0 {
			continue
		}
		rest := masked[m[1]:]
		line := lines.LineOf(m[0])
		switch {
		case defaultFuncRe.MatchString(rest):
			g := defaultFuncRe.FindStringSubmatch(rest)
			name := g[3]
			if name == "" {
				name = uniqueName(appRoot, taken)
				edits = append(edits, jsscan.Edit{Start: m[0], End: m[1] + len(g[0]), Text: g[1] + "function" + g[2] + " " + name})
				r.Info(line, "entrypoint.default_named", "named anonymous default function %s", name)
			} else {
				edits = append(edits, jsscan.Delete(m[0], m[1]))
				r.Info(line, "entrypoint.default_unexported", "moved default export of %s to the end of the file", name)
			}
			names = append(names, name)
		case defaultClassRe.MatchString(rest):
			g := defaultClassRe.FindStringSubmatch(rest)
			name := g[1]
			if name == "" || name == "extends" {
				name = uniqueName(appRoot, taken)
				edits = append(edits, jsscan.Edit{Start: m[0], End: m[1] + len("class"), Text: "class " + name})
				r.Info(line, "entrypoint.default_named", "named anonymous default class %s", name)
			} else {
				edits = append(edits, jsscan.Delete(m[0], m[1]))
				r.Info(line, "entrypoint.default_unexported", "moved default export of %s to the end of the file", name)
			}
			names = append(names, name)
		case defaultIdentRe.MatchString(rest):
			g := defaultIdentRe.FindString(rest)
			edits = append(edits, jsscan.Delete(m[0], m[1]+len(g)))
			names = append(names, defaultIdentRe.FindStringSubmatch(rest)[1])
		default:
			name := uniqueName(appRoot, taken)
			edits = append(edits, jsscan.Edit{Start: m[0], End: m[1], Text: "const " + name + " = "})
			r.Info(line, "entrypoint.default_named", "bound default export expression to %s", name)
			names = append(names, name)
		}
	}
	for _, m := range exportAsRe.FindAllStringSubmatchIndex(masked, -1) {
		if jsscan.DepthAt(masked, m[0]) != 0 {
			continue
		}
		edits = append(edits, jsscan.Delete(m[0], m[1]))
		names = append(names, masked[m[2]:m[3]])
	}
	out, _ := jsscan.Apply(text, edits)
	return out, names
}

func uniqueName(base string, taken map[string]bool) string {
	name := base
	for i := 2; taken[name]; i++ {
		name = base + strconv.Itoa(i)
	}
	taken[name] = true
	return name
}
