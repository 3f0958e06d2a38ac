package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/sandboxer/internal/framework"
	"git.home.luguber.info/inful/sandboxer/internal/models"
	"git.home.luguber.info/inful/sandboxer/internal/pipeline"
)

// ProcessCmd implements the 'process' command.
type ProcessCmd struct {
	Framework   framework.Name `short:"f" required:"" help:"Target framework (react, react-three-fiber, react-babylonjs, react-pixi or an alias)"`
	Concurrency int            `short:"j" help:"Maximum files processed at once (defaults to the configured batch concurrency)"`
	JSON        bool           `help:"Print results as JSON lines"`
	Files       []string       `arg:"" name:"file" help:"Source files, markdown replies, or - for stdin"`
}

// fileResult is the per-file outcome of a batch.
type fileResult struct {
	File        string              `json:"file"`
	RunID       string              `json:"run_id,omitempty"`
	ViewerURL   string              `json:"viewer_url,omitempty"`
	Warnings    []models.Diagnostic `json:"warnings,omitempty"`
	WarningKind models.FailureKind  `json:"warning_kind,omitempty"`
	FailureKind models.FailureKind  `json:"failure_kind,omitempty"`
	Error       string              `json:"error,omitempty"`

	err error
}

func (p *ProcessCmd) Run(g *Global, _ *CLI) error {
	ctx, stop := signalContext()
	defer stop()

	rt, err := newRuntime(ctx, g, true)
	if err != nil {
		return err
	}
	defer rt.Close()

	limit := p.Concurrency
	if limit <= 0 {
		limit = g.Config.Batch.Concurrency
	}
	results := processFiles(ctx, g, rt.pipeline, p.Framework, p.Files, limit)

	var first error
	for _, r := range results {
		if p.JSON {
			printJSONResult(g.Stdout, r)
		} else {
			printResult(g.Stdout, r)
		}
		if r.err != nil && first == nil {
			first = r.err
		}
	}
	return first
}

// processFiles runs every file through the pipeline with at most limit runs
// in flight. Results keep the order of files; one failure does not cancel
// the others.
func processFiles(ctx context.Context, g *Global, p *pipeline.Pipeline, fw framework.Name, files []string, limit int) []fileResult {
	results := make([]fileResult, len(files))
	var eg errgroup.Group
	eg.SetLimit(max(limit, 1))
	for i, file := range files {
		eg.Go(func() error {
			r := fileResult{File: file}
			src, err := readSource(g, file)
			if err == nil {
				var res *pipeline.Result
				res, err = p.Process(ctx, src, fw)
				if err == nil {
					r.RunID = res.RunID
					r.ViewerURL = res.ViewerURL
					r.Warnings = res.Warnings
					r.WarningKind = res.WarningKind
				}
			}
			if err != nil {
				r.err = err
				r.Error = err.Error()
				if f, ok := err.(*models.Failure); ok {
					r.FailureKind = f.Kind
				}
			}
			results[i] = r
			return nil
		})
	}
	_ = eg.Wait()
	return results
}

func printResult(w io.Writer, r fileResult) {
	if r.err != nil {
		fmt.Fprintf(w, "%s %s: %s\n", color.RedString("✗"), r.File, r.Error)
		return
	}
	fmt.Fprintf(w, "%s %s: %s\n", color.GreenString("✓"), r.File, color.CyanString(r.ViewerURL))
	for _, d := range r.Warnings {
		fmt.Fprintf(w, "    %s %s\n", color.YellowString("warning"), d.String())
	}
}

func printJSONResult(w io.Writer, r fileResult) {
	data, err := json.Marshal(r)
	if err != nil {
		fmt.Fprintf(w, "{\"file\":%q,\"error\":%q}\n", r.File, err.Error())
		return
	}
	fmt.Fprintln(w, string(data))
}
