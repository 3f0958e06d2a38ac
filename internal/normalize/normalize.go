// Package normalize implements the dialect normalizer: it strips type-only
// syntax from assistant-written source so a plain JavaScript toolchain can
// run it, leaving anything it cannot classify untouched with a warning.
package normalize

import (
	"git.home.luguber.info/inful/sandboxer/internal/jsscan"
	"git.home.luguber.info/inful/sandboxer/internal/models"
)

// pass rewrites text and reports what it did.
type pass struct {
	name string
	run  func(text string, r *models.Reporter) string
}

var passes = []pass{
	{"unicode", cleanUnicode},
	{"type_imports", stripTypeImports},
	{"interfaces", stripInterfaces},
	{"type_aliases", stripTypeAliases},
	{"implements", stripImplements},
	{"generics", stripGenerics},
	{"casts", stripCasts},
	{"non_null", stripNonNull},
	{"class_members", stripClassMembers},
	{"declarations", stripDeclarationAnnotations},
	{"parameters", stripParameterAnnotations},
	{"unsupported", flagUnsupported},
}

// Run is the normalize stage. It never produces error diagnostics.
func Run(in models.StageOutcome) models.StageOutcome {
	r := models.NewReporter(models.StageNormalize)
	text := in.Text
	for _, p := range passes {
		text = p.run(text, r)
	}
	return in.Next(text, r.Diagnostics())
}

// applyEdits applies edits and records one info diagnostic per touched line.
func applyEdits(text string, edits []jsscan.Edit, r *models.Reporter, code, what string) string {
	if len(edits) == 0 {
		return text
	}
	lines := jsscan.IndexLines(text)
	out, applied := jsscan.Apply(text, edits)
	reported := map[int]bool{}
	for _, e := range applied {
		line := lines.LineOf(e.Start)
		if reported[line] {
			continue
		}
		reported[line] = true
		r.Info(line, code, "removed %s", what)
	}
	return out
}
