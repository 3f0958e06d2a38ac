// Package entrypoint designates the application root component and makes it
// the single default export of the program.
package entrypoint

import (
	"regexp"
	"strings"

	"git.home.luguber.info/inful/sandboxer/internal/framework"
	"git.home.luguber.info/inful/sandboxer/internal/jsscan"
	"git.home.luguber.info/inful/sandboxer/internal/models"
)

var (
	declRe = regexp.MustCompile(`(?m)^[ \t]*(?:export[ \t]+(?:default[ \t]+)?)?(?:async[ \t]+)?(?:function\*?[ \t]*([A-Za-z_$][\w$]*)|class[ \t]+([A-Za-z_$][\w$]*)|(?:const|let|var)[ \t]+([A-Za-z_$][\w$]*)[ \t]*=)`)
	// initializers that produce a component
	componentInitRe = regexp.MustCompile(`^\s*(?:async\s*)?(?:\(|[A-Za-z_$][\w$]*\s*=>|function\b|(?:React\s*\.\s*)?(?:memo|forwardRef)\s*\()`)
	jsxRe           = regexp.MustCompile(`<(?:[A-Za-z][\w$.-]*[\s/>]|>)`)
)

type decl struct {
	name      string
	start     int
	end       int // start of the next top-level declaration
	component bool
}

// declarations lists top-level function, class and variable declarations in
// source order.
func declarations(masked string) []decl {
	var out []decl
	for _, m := range declRe.FindAllStringSubmatchIndex(masked, -1) {
		if jsscan.DepthAt(masked, m[0]) != 0 {
			continue
		}
		d := decl{start: m[0], component: true}
		switch {
		case m[2] >= 0:
			d.name = masked[m[2]:m[3]]
		case m[4] >= 0:
			d.name = masked[m[4]:m[5]]
		default:
			d.name = masked[m[6]:m[7]]
			d.component = componentInitRe.MatchString(masked[m[1]:])
		}
		if n := len(out); n > 0 {
			out[n-1].end = d.start
		}
		d.end = len(masked)
		out = append(out, d)
	}
	return out
}

// candidates returns the declarations that can serve as the application
// root. With a root container these are the components rendering it;
// otherwise they are the capitalized JSX components no other component
// renders.
func candidates(masked string, decls []decl, def *framework.Definition) []decl {
	var out []decl
	if def.RootContainer != "" {
		rootRe := regexp.MustCompile(`<` + regexp.QuoteMeta(def.RootContainer) + `[\s/>]`)
		for _, d := range decls {
			if d.component && rootRe.MatchString(masked[d.start:d.end]) {
				out = append(out, d)
			}
		}
		return out
	}
	var jsx []decl
	for _, d := range decls {
		if d.component && d.name[0] >= 'A' && d.name[0] <= 'Z' && jsxRe.MatchString(masked[d.start:d.end]) {
			jsx = append(jsx, d)
		}
	}
	for _, d := range jsx {
		useRe := regexp.MustCompile(`<` + regexp.QuoteMeta(d.name) + `[\s/>.]`)
		rendered := false
		for _, other := range jsx {
			if other.name != d.name && useRe.MatchString(masked[other.start:other.end]) {
				rendered = true
				break
			}
		}
		if !rendered {
			out = append(out, d)
		}
	}
	if len(out) == 0 {
		return jsx
	}
	return out
}

// choose applies the tie-break: a unique candidate, else the conventional
// app root name, else the first in source order.
func choose(cands []decl, appRoot string) decl {
	if len(cands) == 1 {
		return cands[0]
	}
	for _, c := range cands {
		if c.name == appRoot {
			return c
		}
	}
	return cands[0]
}

// Run is the entry_point stage for framework def.
func Run(in models.StageOutcome, def *framework.Definition) models.StageOutcome {
	r := models.NewReporter(models.StageEntryPoint)
	text := stripMounts(in.Text, r)
	text, previous := unexportDefaults(text, def.AppRootName, r)

	masked := jsscan.Analyze(text).Masked
	cands := candidates(masked, declarations(masked), def)
	if len(cands) == 0 {
		if def.RootContainer != "" {
			r.Error(0, "entrypoint.no_candidate", "no component renders <%s>", def.RootContainer)
		} else {
			r.Error(0, "entrypoint.no_candidate", "no component returns JSX")
		}
		return in.Next(text, r.Diagnostics())
	}

	root := choose(cands, def.AppRootName)
	if len(cands) > 1 {
		names := make([]string, len(cands))
		for i, c := range cands {
			names[i] = c.name
		}
		r.Warn(jsscan.IndexLines(text).LineOf(root.start), "entrypoint.ambiguous",
			"%d root candidates (%s); selected %s", len(cands), strings.Join(names, ", "), root.name)
	}
	for _, name := range previous {
		if name != root.name {
			r.Warn(0, "entrypoint.default_replaced", "default export %s replaced by %s", name, root.name)
		}
	}

	text = strings.TrimRight(text, " \t\r\n") + "\n\nexport default " + root.name + ";\n"
	return in.Next(text, r.Diagnostics())
}
