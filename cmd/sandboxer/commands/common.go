// Package commands implements the sandboxer CLI subcommands.
package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/sandboxer/internal/config"
	"git.home.luguber.info/inful/sandboxer/internal/extract"
	"git.home.luguber.info/inful/sandboxer/internal/foundation/errors"
)

// Global carries state shared by every subcommand.
type Global struct {
	Logger *slog.Logger
	Config *config.Config
	Stdin  io.Reader
	Stdout io.Writer
}

// CLI definition and global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"sandboxer.yaml" env:"SANDBOXER_CONFIG"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Process    ProcessCmd    `cmd:"" help:"Recover source files and publish them to the sandbox service"`
	Check      CheckCmd      `cmd:"" help:"Run the local stages and report diagnostics without submitting"`
	Bundle     BundleCmd     `cmd:"" help:"Write the assembled project to a directory"`
	Serve      ServeCmd      `cmd:"" help:"Serve the HTTP API"`
	Watch      WatchCmd      `cmd:"" help:"Re-check or re-publish source files when they change"`
	Frameworks FrameworksCmd `cmd:"" help:"List supported frameworks and pinned dependencies"`
	Init       InitCmd       `cmd:"" help:"Initialize a new configuration file"`
}

// AfterApply loads configuration and sets up logging once.
func (c *CLI) AfterApply(g *Global, kctx *kong.Context) error {
	if g.Stdin == nil {
		g.Stdin = os.Stdin
	}
	if g.Stdout == nil {
		g.Stdout = os.Stdout
	}

	var (
		cfg *config.Config
		err error
	)
	if kctx.Command() == "init" {
		cfg = config.Default()
	} else {
		path := c.Config
		if path == config.DefaultPath {
			// the default file is optional; an explicit one is not
			if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
				path = ""
			}
		}
		if cfg, err = config.Load(path); err != nil {
			g.Logger = newLogger(config.Default(), c.Verbose)
			return err
		}
	}
	g.Config = cfg
	g.Logger = newLogger(cfg, c.Verbose)
	slog.SetDefault(g.Logger)
	return nil
}

func newLogger(cfg *config.Config, verbose bool) *slog.Logger {
	level := cfg.Logging.Level.Slog()
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Logging.Format == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// readSource returns the source text of path. "-" reads stdin; markdown
// files contribute their largest JavaScript code block.
func readSource(g *Global, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(g.Stdin)
	} else {
		data, err = os.ReadFile(filepath.Clean(path))
	}
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryNotFound, fmt.Sprintf("read %s", path)).Build()
	}
	if !extract.IsMarkdown(path) {
		return string(data), nil
	}
	block, err := extract.Code(data)
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryValidation, fmt.Sprintf("extract code from %s", path)).Build()
	}
	g.Logger.Debug("Extracted code block", slog.String("file", path), slog.Int("line", block.Line), slog.String("language", block.Language))
	return block.Code, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
