package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/sandboxer/internal/foundation/errors"
	"git.home.luguber.info/inful/sandboxer/internal/framework"
	"git.home.luguber.info/inful/sandboxer/internal/models"
	"git.home.luguber.info/inful/sandboxer/internal/sandbox"
)

// BundleCmd implements the 'bundle' command.
type BundleCmd struct {
	Framework framework.Name `short:"f" required:"" help:"Target framework"`
	Output    string         `short:"o" help:"Directory to write the project into" default:"./sandbox-project"`
	Request   bool           `help:"Print the sandbox request body instead of writing files"`
	Force     bool           `help:"Write into a non-empty directory"`
	File      string         `arg:"" help:"Source file, markdown reply, or - for stdin"`
}

func (b *BundleCmd) Run(g *Global, _ *CLI) error {
	ctx, stop := signalContext()
	defer stop()

	rt, err := newRuntime(ctx, g, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	src, err := readSource(g, b.File)
	if err != nil {
		return err
	}
	prepared, err := rt.pipeline.Prepare(ctx, src, b.Framework)
	if err != nil {
		return err
	}
	if !prepared.Bundle.Verified {
		g.Logger.Warn("Bundle is unverified; structural repair left unbalanced delimiters")
	}
	if b.Request {
		body, err := sandbox.EncodeBundle(prepared.Bundle)
		if err != nil {
			return errors.WrapError(err, errors.CategoryInternal, "encode bundle").Build()
		}
		_, err = fmt.Fprintln(g.Stdout, string(body))
		return err
	}
	if err := writeBundle(b.Output, prepared.Bundle, b.Force); err != nil {
		return err
	}
	fmt.Fprintf(g.Stdout, "Wrote %d files to %s\n", prepared.Bundle.Len(), b.Output)
	return nil
}

// writeBundle writes every bundle file below dir. Paths are validated so a
// bundle can never escape dir.
func writeBundle(dir string, bundle *models.Bundle, force bool) error {
	if entries, err := os.ReadDir(dir); err == nil && len(entries) > 0 && !force {
		return errors.ValidationError(fmt.Sprintf("output directory %s is not empty (use --force)", dir)).Build()
	}
	root, err := filepath.Abs(dir)
	if err != nil {
		return errors.WrapError(err, errors.CategoryStorage, "resolve output directory").Build()
	}
	for _, f := range bundle.Files() {
		target := filepath.Join(root, filepath.FromSlash(f.Path))
		if !strings.HasPrefix(target, root+string(filepath.Separator)) {
			return errors.ValidationError(fmt.Sprintf("bundle path %q escapes output directory", f.Path)).Build()
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
			return errors.WrapError(err, errors.CategoryStorage, "create directory").WithContext("path", f.Path).Build()
		}
		// #nosec G306 - project files are meant to be shared
		if err := os.WriteFile(target, []byte(f.Content), 0o644); err != nil {
			return errors.WrapError(err, errors.CategoryStorage, "write file").WithContext("path", f.Path).Build()
		}
	}
	return nil
}
