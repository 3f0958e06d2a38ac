package models

import "sort"

// ImportSpec is one identifier imported from a module.
type ImportSpec struct {
	Name      string
	Default   bool
	Namespace bool
}

// ImportManifest maps module names to deduplicated imported identifiers.
// It is built by the import resolver and treated as read-only afterwards.
type ImportManifest struct {
	modules map[string]map[string]ImportSpec
}

// NewImportManifest returns an empty manifest.
func NewImportManifest() *ImportManifest {
	return &ImportManifest{modules: make(map[string]map[string]ImportSpec)}
}

// Add records spec under module. Adding an identifier twice is a no-op.
func (m *ImportManifest) Add(module string, spec ImportSpec) {
	ids, ok := m.modules[module]
	if !ok {
		ids = make(map[string]ImportSpec)
		m.modules[module] = ids
	}
	ids[spec.Name] = spec
}

// Modules returns the module names in lexicographic order.
func (m *ImportManifest) Modules() []string {
	if m == nil {
		return nil
	}
	out := make([]string, 0, len(m.modules))
	for mod := range m.modules {
		out = append(out, mod)
	}
	sort.Strings(out)
	return out
}

// Specs returns the identifiers imported from module, sorted by name.
func (m *ImportManifest) Specs(module string) []ImportSpec {
	if m == nil {
		return nil
	}
	ids := m.modules[module]
	out := make([]ImportSpec, 0, len(ids))
	for _, s := range ids {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Identifiers returns every imported identifier across modules, sorted.
func (m *ImportManifest) Identifiers() []string {
	if m == nil {
		return nil
	}
	var out []string
	for _, ids := range m.modules {
		for name := range ids {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Has reports whether identifier name is imported from any module.
func (m *ImportManifest) Has(name string) bool {
	if m == nil {
		return false
	}
	for _, ids := range m.modules {
		if _, ok := ids[name]; ok {
			return true
		}
	}
	return false
}

// Len returns the number of imported identifiers.
func (m *ImportManifest) Len() int {
	if m == nil {
		return 0
	}
	n := 0
	for _, ids := range m.modules {
		n += len(ids)
	}
	return n
}

// Empty reports whether nothing is imported.
func (m *ImportManifest) Empty() bool { return m.Len() == 0 }
