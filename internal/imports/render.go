package imports

import (
	"strings"

	"git.home.luguber.info/inful/sandboxer/internal/models"
)

// Render emits one import statement per module, modules and identifiers in
// lexicographic order.
func Render(m *models.ImportManifest) string {
	var b strings.Builder
	for _, mod := range m.Modules() {
		var def string
		var named []string
		for _, spec := range m.Specs(mod) {
			switch {
			case spec.Namespace:
				b.WriteString("import * as " + spec.Name + " from '" + mod + "';\n")
			case spec.Default:
				def = spec.Name
			default:
				named = append(named, spec.Name)
			}
		}
		if def == "" && len(named) == 0 {
			continue
		}
		b.WriteString("import ")
		if def != "" {
			b.WriteString(def)
			if len(named) > 0 {
				b.WriteString(", ")
			}
		}
		if len(named) > 0 {
			b.WriteString("{ " + strings.Join(named, ", ") + " }")
		}
		b.WriteString(" from '" + mod + "';\n")
	}
	return b.String()
}
