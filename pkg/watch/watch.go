package watch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Handler is invoked once per settled file.
type Handler func(path string)

// Watcher observes a directory and invokes a handler for every newly written
// file once writes have settled. It is the "file arrives, inspect it" loop
// without any transport attached.
type Watcher struct {
	dir     string
	settle  time.Duration
	handler Handler
	logger  *slog.Logger
}

// New creates a Watcher for dir. settle is how long a file must stay
// unchanged before it is handed to the handler.
func New(dir string, settle time.Duration, handler Handler, logger *slog.Logger) *Watcher {
	if settle <= 0 {
		settle = 500 * time.Millisecond
	}
	return &Watcher{dir: dir, settle: settle, handler: handler, logger: logger}
}

// Run watches until the context is canceled. Create and write events reset a
// per-file settle timer; the handler runs when the timer expires, so a file
// still being copied in is not scanned half-written.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}
	w.logger.Info("watching directory", slog.String("dir", w.dir))

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(w.settle / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) {
				pending[ev.Name] = time.Now()
			}
			if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
				delete(pending, ev.Name)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", slog.Any("error", err))
		case now := <-ticker.C:
			for path, last := range pending {
				if now.Sub(last) < w.settle {
					continue
				}
				delete(pending, path)
				w.handler(path)
			}
		}
	}
}
