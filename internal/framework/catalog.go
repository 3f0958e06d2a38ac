// Package framework holds the supported target frameworks and their
// read-only component catalogs.
package framework

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/sandboxer/internal/foundation/errors"
)

//go:embed catalog/*.yaml
var catalogFS embed.FS

// Usage restricts how a catalog identifier is detected in source.
type Usage string

const (
	UsageAny    Usage = ""
	UsageTag    Usage = "tag"    // <Name ...>
	UsageCall   Usage = "call"   // name(...)
	UsageMember Usage = "member" // Name.x
)

// Component is one importable catalog identifier.
type Component struct {
	Name        string
	Module      string
	Export      string
	IsDefault   bool
	IsNamespace bool
	Usage       Usage
}

// Definition is the catalog entry for one framework.
type Definition struct {
	Name          Name
	Title         string
	RootContainer string
	AppRootName   string
	RequiresRoot  bool
	Stylesheet    string
	Dependencies  map[string]string
	LegacyModules map[string]string

	components map[string]Component
}

// Catalog maps every supported framework to its definition. It is built once
// by LoadCatalog and never mutated afterwards.
type Catalog struct {
	defs map[Name]*Definition
}

type fileGroup struct {
	Module    string   `yaml:"module"`
	Usage     string   `yaml:"usage"`
	Default   bool     `yaml:"default"`
	Namespace bool     `yaml:"namespace"`
	Names     []string `yaml:"names"`
}

type fileDefinition struct {
	Name          string            `yaml:"name"`
	Title         string            `yaml:"title"`
	RootContainer string            `yaml:"root_container"`
	AppRootName   string            `yaml:"app_root_name"`
	RequiresRoot  bool              `yaml:"requires_root"`
	Stylesheet    string            `yaml:"stylesheet"`
	Dependencies  map[string]string `yaml:"dependencies"`
	LegacyModules map[string]string `yaml:"legacy_modules"`
	Components    []fileGroup       `yaml:"components"`
}

// LoadCatalog decodes the embedded catalog.
func LoadCatalog() (*Catalog, error) {
	sub, err := fs.Sub(catalogFS, "catalog")
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryInternal, "open embedded catalog").Build()
	}
	return LoadCatalogFS(sub)
}

// MustLoadCatalog is LoadCatalog for process start-up and tests.
func MustLoadCatalog() *Catalog {
	c, err := LoadCatalog()
	if err != nil {
		panic(err)
	}
	return c
}

// LoadCatalogFS decodes every *.yaml file at the root of fsys.
func LoadCatalogFS(fsys fs.FS) (*Catalog, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "read catalog directory").Build()
	}
	c := &Catalog{defs: make(map[Name]*Definition)}
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".yaml" {
			continue
		}
		data, err := fs.ReadFile(fsys, e.Name())
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryConfig, "read catalog file").
				WithContext("file", e.Name()).Build()
		}
		var fd fileDefinition
		if err := yaml.Unmarshal(data, &fd); err != nil {
			return nil, errors.WrapError(err, errors.CategoryConfig, "decode catalog file").
				WithContext("file", e.Name()).Build()
		}
		def, err := fd.compile()
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryConfig, "invalid catalog file").
				WithContext("file", e.Name()).Build()
		}
		if _, dup := c.defs[def.Name]; dup {
			return nil, errors.ConfigError(fmt.Sprintf("framework %s defined twice", def.Name)).Build()
		}
		c.defs[def.Name] = def
	}
	for _, n := range All() {
		if _, ok := c.defs[n]; !ok {
			return nil, errors.ConfigError(fmt.Sprintf("catalog has no definition for %s", n)).Build()
		}
	}
	return c, nil
}

func (fd fileDefinition) compile() (*Definition, error) {
	name, err := ParseName(fd.Name)
	if err != nil || string(name) != fd.Name {
		return nil, fmt.Errorf("unknown framework name %q", fd.Name)
	}
	def := &Definition{
		Name:          name,
		Title:         fd.Title,
		RootContainer: fd.RootContainer,
		AppRootName:   fd.AppRootName,
		RequiresRoot:  fd.RequiresRoot,
		Stylesheet:    fd.Stylesheet,
		Dependencies:  fd.Dependencies,
		LegacyModules: fd.LegacyModules,
		components:    make(map[string]Component),
	}
	if def.AppRootName == "" {
		def.AppRootName = "App"
	}
	if def.RequiresRoot && def.RootContainer == "" {
		return nil, fmt.Errorf("requires_root set without root_container")
	}
	namespaceModules := map[string]string{}
	moduleHasOthers := map[string]bool{}
	for _, g := range fd.Components {
		usage := Usage(g.Usage)
		switch usage {
		case UsageAny, UsageTag, UsageCall, UsageMember:
		default:
			return nil, fmt.Errorf("module %s: unknown usage %q", g.Module, g.Usage)
		}
		if g.Namespace && g.Default {
			return nil, fmt.Errorf("module %s: a group cannot be both default and namespace", g.Module)
		}
		if _, ok := def.Dependencies[RootPackage(g.Module)]; !ok {
			return nil, fmt.Errorf("module %s has no pinned dependency", g.Module)
		}
		for _, n := range g.Names {
			if _, dup := def.components[n]; dup {
				return nil, fmt.Errorf("duplicate identifier %s", n)
			}
			if g.Namespace {
				if prev, ok := namespaceModules[g.Module]; ok || moduleHasOthers[g.Module] {
					return nil, fmt.Errorf("module %s mixes namespace import %s with other imports (%s)", g.Module, n, prev)
				}
				namespaceModules[g.Module] = n
			} else {
				if _, ok := namespaceModules[g.Module]; ok {
					return nil, fmt.Errorf("module %s mixes namespace import with %s", g.Module, n)
				}
				moduleHasOthers[g.Module] = true
			}
			def.components[n] = Component{
				Name:        n,
				Module:      g.Module,
				Export:      n,
				IsDefault:   g.Default,
				IsNamespace: g.Namespace,
				Usage:       usage,
			}
		}
	}
	if def.RootContainer != "" {
		if _, ok := def.components[def.RootContainer]; !ok {
			return nil, fmt.Errorf("root container %s is not a catalog component", def.RootContainer)
		}
	}
	return def, nil
}

// Definition returns the definition of framework n.
func (c *Catalog) Definition(n Name) (*Definition, error) {
	def, ok := c.defs[n]
	if !ok {
		return nil, errors.ValidationError(fmt.Sprintf("unsupported framework %q", n)).Build()
	}
	return def, nil
}

// Names returns the frameworks present in the catalog, in All() order.
func (c *Catalog) Names() []Name {
	out := make([]Name, 0, len(c.defs))
	for _, n := range All() {
		if _, ok := c.defs[n]; ok {
			out = append(out, n)
		}
	}
	return out
}

// Lookup returns the catalog component with the given identifier.
func (d *Definition) Lookup(id string) (Component, bool) {
	comp, ok := d.components[id]
	return comp, ok
}

// Components returns all components sorted by identifier.
func (d *Definition) Components() []Component {
	out := make([]Component, 0, len(d.components))
	for _, comp := range d.components {
		out = append(out, comp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// CanonicalModule maps a legacy or wrong module name to its canonical module.
func (d *Definition) CanonicalModule(module string) (string, bool) {
	canonical, ok := d.LegacyModules[module]
	return canonical, ok
}

// PinnedVersion returns the pinned version for a dependency.
func (d *Definition) PinnedVersion(pkg string) (string, bool) {
	v, ok := d.Dependencies[pkg]
	return v, ok
}

// DependencyNames returns the pinned dependency names in sorted order.
func (d *Definition) DependencyNames() []string {
	out := make([]string, 0, len(d.Dependencies))
	for name := range d.Dependencies {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// RootPackage returns the npm package owning an import specifier:
// "@scope/pkg/sub" yields "@scope/pkg", "three/examples/jsm" yields "three".
func RootPackage(module string) string {
	parts := strings.Split(module, "/")
	if strings.HasPrefix(module, "@") && len(parts) >= 2 {
		return parts[0] + "/" + parts[1]
	}
	return parts[0]
}
