// Package watch reprocesses source files when they change on disk.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/sandboxer/internal/logfields"
)

// DefaultExtensions are the file types the watcher reacts to.
var DefaultExtensions = []string{".js", ".jsx", ".ts", ".tsx", ".md"}

// Handler processes one changed file.
type Handler func(ctx context.Context, path string)

// Watcher debounces write events per file and calls the handler once the
// file has been quiet for the debounce interval.
type Watcher struct {
	watcher    *fsnotify.Watcher
	handler    Handler
	debounce   time.Duration
	extensions []string
	logger     *slog.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer
	wg     sync.WaitGroup
}

// New creates a watcher over the given directories.
func New(dirs []string, debounce time.Duration, handler Handler, logger *slog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	for _, d := range dirs {
		abs, err := filepath.Abs(d)
		if err != nil {
			_ = fw.Close()
			return nil, fmt.Errorf("failed to resolve %s: %w", d, err)
		}
		if err := fw.Add(abs); err != nil {
			_ = fw.Close()
			return nil, fmt.Errorf("failed to watch directory %s: %w", abs, err)
		}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		watcher:    fw,
		handler:    handler,
		debounce:   debounce,
		extensions: DefaultExtensions,
		logger:     logger,
		timers:     make(map[string]*time.Timer),
	}, nil
}

// Run blocks until ctx is done, then waits for in-flight handlers.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() {
		w.stopTimers()
		w.wg.Wait()
		_ = w.watcher.Close()
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			w.logger.Debug("Source change detected", logfields.File(ev.Name), slog.String("op", ev.Op.String()))
			w.schedule(ctx, ev.Name)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("File watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
		return false
	}
	base := filepath.Base(ev.Name)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") {
		return false
	}
	return slices.Contains(w.extensions, strings.ToLower(filepath.Ext(base)))
}

func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if prev, ok := w.timers[path]; ok && prev.Stop() {
		w.wg.Done()
	}
	w.wg.Add(1)
	var t *time.Timer
	t = time.AfterFunc(w.debounce, func() {
		defer w.wg.Done()
		w.mu.Lock()
		current := w.timers[path] == t
		if current {
			delete(w.timers, path)
		}
		w.mu.Unlock()
		if current && ctx.Err() == nil {
			w.handler(ctx, path)
		}
	})
	w.timers[path] = t
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.timers {
		if t.Stop() {
			w.wg.Done()
		}
		delete(w.timers, path)
	}
}
