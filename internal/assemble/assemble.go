// Package assemble turns the cleaned application source into a complete
// create-react-app project bundle for one framework.
package assemble

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"regexp"
	"text/template"

	"git.home.luguber.info/inful/sandboxer/internal/framework"
	"git.home.luguber.info/inful/sandboxer/internal/jsscan"
	"git.home.luguber.info/inful/sandboxer/internal/models"
	"git.home.luguber.info/inful/sandboxer/internal/syntaxcheck"
)

// Bundle layout.
const (
	PackagePath       = "package.json"
	HTMLPath          = "public/index.html"
	BootstrapPath     = "src/index.js"
	EntryPath         = "src/App.js"
	StylesheetPath    = "src/styles.css"
	IgnorePath        = ".gitignore"
	SandboxConfigPath = "sandbox.config.json"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

var (
	templates = template.Must(template.New("").Option("missingkey=error").ParseFS(templatesFS, "templates/*.tmpl"))

	defaultExportRe = regexp.MustCompile(`(?m)^[ \t]*export[ \t]+default\b`)
)

// Checker parses the entry source and returns syntax problems.
type Checker func(ctx context.Context, src string) ([]syntaxcheck.Problem, error)

// Assembler builds bundles. The zero value is not usable; call New.
type Assembler struct {
	check Checker
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithChecker replaces the syntax checker. A nil checker disables the check.
func WithChecker(c Checker) Option {
	return func(a *Assembler) { a.check = c }
}

// New returns an Assembler that verifies entry sources with tree-sitter.
func New(opts ...Option) *Assembler {
	a := &Assembler{check: syntaxcheck.Check}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type packageJSON struct {
	Name         string            `json:"name"`
	Version      string            `json:"version"`
	Private      bool              `json:"private"`
	Main         string            `json:"main"`
	Dependencies map[string]string `json:"dependencies"`
	Scripts      map[string]string `json:"scripts"`
	Browserslist []string          `json:"browserslist"`
}

type sandboxConfig struct {
	Template               string `json:"template"`
	View                   string `json:"view"`
	InfiniteLoopProtection bool   `json:"infiniteLoopProtection"`
	HardReloadOnChange     bool   `json:"hardReloadOnChange"`
}

// Assemble builds the bundle for the entry-point stage output in. The source
// text is copied into the entry file unchanged. When the returned
// diagnostics contain errors the bundle is nil.
func (a *Assembler) Assemble(ctx context.Context, in models.StageOutcome, def *framework.Definition) (*models.Bundle, models.Diagnostics) {
	r := models.NewReporter(models.StageAssemble)

	for _, mod := range in.Manifest.Modules() {
		if _, ok := def.PinnedVersion(framework.RootPackage(mod)); !ok {
			r.Error(0, "assemble.unpinned_module", "module %s has no pinned dependency for %s", mod, def.Title)
		}
	}
	masked := jsscan.Analyze(in.Text).Masked
	if n := len(defaultExportRe.FindAllStringIndex(masked, -1)); n != 1 {
		r.Error(0, "assemble.default_export", "entry source must have exactly one default export, found %d", n)
	}

	files, err := render(in.Text, def)
	if err != nil {
		r.Error(0, "assemble.template", "%v", err)
	}
	if r.Diagnostics().HasErrors() {
		return nil, r.Diagnostics()
	}

	b := models.NewBundle(def.Name, EntryPath)
	for _, f := range files {
		if err := b.Add(f); err != nil {
			r.Error(0, "assemble.duplicate_path", "%v", err)
			return nil, r.Diagnostics()
		}
	}
	if _, ok := b.Entry(); !ok {
		r.Error(0, "assemble.missing_entry", "bundle has no entry file %s", EntryPath)
		return nil, r.Diagnostics()
	}

	if a.check != nil {
		problems, err := a.check(ctx, in.Text)
		if err != nil {
			r.Warn(0, "assemble.syntax_unchecked", "syntax check failed: %v", err)
		}
		for _, p := range problems {
			r.Warn(p.Line, "assemble.syntax_error", "%s", p)
		}
	}
	return b, r.Diagnostics()
}

func render(source string, def *framework.Definition) ([]models.ProjectFile, error) {
	pkg, err := marshal(packageJSON{
		Name:         "sandboxer-" + string(def.Name),
		Version:      "1.0.0",
		Private:      true,
		Main:         BootstrapPath,
		Dependencies: def.Dependencies,
		Scripts: map[string]string{
			"start": "react-scripts start",
			"build": "react-scripts build",
		},
		Browserslist: []string{">0.2%", "not dead", "not ie <= 11", "not op_mini all"},
	})
	if err != nil {
		return nil, err
	}
	cfg, err := marshal(sandboxConfig{Template: "create-react-app", View: "browser", InfiniteLoopProtection: true})
	if err != nil {
		return nil, err
	}

	data := map[string]string{
		"Title":       def.Title,
		"AppImport":   def.AppRootName,
		"EntryModule": "App",
	}
	html, err := execute("index.html.tmpl", data)
	if err != nil {
		return nil, err
	}
	bootstrap, err := execute("index.js.tmpl", data)
	if err != nil {
		return nil, err
	}
	styles, err := execute("styles-"+def.Stylesheet+".css.tmpl", data)
	if err != nil {
		return nil, err
	}
	ignore, err := execute("gitignore.tmpl", data)
	if err != nil {
		return nil, err
	}

	return []models.ProjectFile{
		{Path: PackagePath, Content: pkg},
		{Path: HTMLPath, Content: html},
		{Path: BootstrapPath, Content: bootstrap},
		{Path: EntryPath, Content: source},
		{Path: StylesheetPath, Content: styles},
		{Path: IgnorePath, Content: ignore},
		{Path: SandboxConfigPath, Content: cfg},
	}, nil
}

func execute(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func marshal(v any) (string, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b) + "\n", nil
}
