package commands

import (
	"fmt"
	"context"
	"io"

	"github.com/fatih/color"

	"git.home.luguber.info/inful/sandboxer/internal/foundation/errors"
	"git.home.luguber.info/inful/sandboxer/internal/framework"
	"git.home.luguber.info/inful/sandboxer/internal/models"
	"git.home.luguber.info/inful/sandboxer/internal/pipeline"
)

// CheckCmd implements the 'check' command.
type CheckCmd struct {
	Framework framework.Name `short:"f" required:"" help:"Target framework"`
	Strict    bool           `help:"Treat warnings as failures"`
	Quiet     bool           `short:"q" help:"Only show warnings and errors"`
	Files     []string       `arg:"" name:"file" help:"Source files, markdown replies, or - for stdin"`
}

func (c *CheckCmd) Run(g *Global, _ *CLI) error {
	ctx, stop := signalContext()
	defer stop()

	rt, err := newRuntime(ctx, g, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	var first error
	for _, file := range c.Files {
		err := c.checkFile(ctx, g, rt.pipeline, file)
		if err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (c *CheckCmd) checkFile(ctx context.Context, g *Global, p *pipeline.Pipeline, file string) error {
	src, err := readSource(g, file)
	if err != nil {
		return err
	}
	prepared, err := p.Prepare(ctx, src, c.Framework)
	if err != nil {
		if f, ok := err.(*models.Failure); ok {
			printDiagnostics(g.Stdout, file, f.Diagnostics, c.Quiet)
		}
		fmt.Fprintf(g.Stdout, "%s %s: %v\n", color.RedString("✗"), file, err)
		return err
	}

	printDiagnostics(g.Stdout, file, prepared.Diagnostics, c.Quiet)
	warnings := prepared.Diagnostics.Count(models.SeverityWarning)
	switch {
	case !prepared.Bundle.Verified:
		fmt.Fprintf(g.Stdout, "%s %s: bundle unverified\n", color.RedString("✗"), file)
		return &models.Failure{
			Kind:        models.KindStructuralImbalance,
			Stage:       models.StageRepair,
			Diagnostics: prepared.Diagnostics.BySeverity(models.SeverityError),
		}
	case c.Strict && warnings > 0:
		fmt.Fprintf(g.Stdout, "%s %s: %d warning(s)\n", color.YellowString("✗"), file, warnings)
		return errors.ValidationError(fmt.Sprintf("%s has %d warning(s)", file, warnings)).Build()
	default:
		fmt.Fprintf(g.Stdout, "%s %s: %d file(s), %d warning(s), hash %s\n",
			color.GreenString("✓"), file, prepared.Bundle.Len(), warnings, shortHash(prepared.Bundle.Hash()))
		return nil
	}
}

func printDiagnostics(w io.Writer, file string, ds models.Diagnostics, quiet bool) {
	for _, d := range ds {
		var label string
		switch d.Severity {
		case models.SeverityError:
			label = color.RedString("error")
		case models.SeverityWarning:
			label = color.YellowString("warning")
		default:
			if quiet {
				continue
			}
			label = color.BlueString("info")
		}
		loc := file
		if d.Line > 0 {
			loc = fmt.Sprintf("%s:%d", file, d.Line)
		}
		fmt.Fprintf(w, "%s: %s: %s %s\n", loc, label, d.Message, color.HiBlackString("[%s/%s]", d.Stage, d.Code))
	}
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
