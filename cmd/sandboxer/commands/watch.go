package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/sandboxer/internal/framework"
	"git.home.luguber.info/inful/sandboxer/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Framework framework.Name `short:"f" required:"" help:"Target framework"`
	Submit    bool           `help:"Publish each changed file instead of only checking it"`
	Debounce  time.Duration  `help:"Quiet period before a changed file is processed" default:"500ms"`
	Dirs      []string       `arg:"" name:"dir" help:"Directories to watch" default:"."`
}

func (w *WatchCmd) Run(g *Global, _ *CLI) error {
	ctx, stop := signalContext()
	defer stop()

	rt, err := newRuntime(ctx, g, w.Submit)
	if err != nil {
		return err
	}
	defer rt.Close()

	check := &CheckCmd{Framework: w.Framework, Quiet: true}
	handler := func(ctx context.Context, path string) {
		if w.Submit {
			for _, r := range processFiles(ctx, g, rt.pipeline, w.Framework, []string{path}, 1) {
				printResult(g.Stdout, r)
			}
			return
		}
		_ = check.checkFile(ctx, g, rt.pipeline, path)
	}

	watcher, err := watch.New(w.Dirs, w.Debounce, handler, g.Logger)
	if err != nil {
		return err
	}
	abs := make([]string, 0, len(w.Dirs))
	for _, d := range w.Dirs {
		if a, err := filepath.Abs(d); err == nil {
			abs = append(abs, a)
		}
	}
	fmt.Fprintf(g.Stdout, "Watching %v for %s sources (Ctrl+C to stop)\n", abs, w.Framework)
	return watcher.Run(ctx)
}
