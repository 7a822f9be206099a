package pkgmgr

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const debounceDelay = 300 * time.Millisecond

// Watcher reloads a catalog whenever its file changes on disk. Only sessions
// opened after a reload see the new records.
type Watcher struct {
	catalog *Catalog
	delay   time.Duration
	logger  *slog.Logger
	hook    func(error)

	mu      sync.Mutex
	pending *time.Timer
	reloads chan struct{}
}

func NewWatcher(catalog *Catalog) *Watcher {
	return &Watcher{catalog: catalog, delay: debounceDelay}
}

func (w *Watcher) SetLogger(logger *slog.Logger) {
	w.logger = logger
}

// OnReload registers fn to run after every reload attempt with its error.
// Call it before Start.
func (w *Watcher) OnReload(fn func(error)) {
	w.hook = fn
}

// Reloaded returns a channel that receives after every successful reload.
func (w *Watcher) Reloaded() <-chan struct{} {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.reloads == nil {
		w.reloads = make(chan struct{}, 1)
	}
	return w.reloads
}

// Start blocks until ctx is done. The parent directory is watched rather than
// the file so editors that replace the file on save are still seen.
func (w *Watcher) Start(ctx context.Context) error {
	path := w.catalog.Path()
	if path == "" {
		<-ctx.Done()
		return ctx.Err()
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}
	target := filepath.Clean(path)

	for {
		select {
		case <-ctx.Done():
			w.stop()
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				w.scheduleReload()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logError("catalog_watch_error", "error", err)
		}
	}
}

func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.pending != nil {
		w.pending.Stop()
	}
	w.pending = time.AfterFunc(w.delay, func() {
		err := w.catalog.Reload()
		if w.hook != nil {
			w.hook(err)
		}
		if err != nil {
			w.logError("catalog_reload_failed", "path", w.catalog.Path(), "error", err)
			return
		}
		w.logInfo("catalog_reloaded", "path", w.catalog.Path(), "packages", len(w.catalog.Records()))
		w.notify()
	})
}

func (w *Watcher) notify() {
	w.mu.Lock()
	ch := w.reloads
	w.mu.Unlock()
	if ch == nil {
		return
	}
	select {
	case ch <- struct{}{}:
	default:
	}
}

func (w *Watcher) stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.pending != nil {
		w.pending.Stop()
	}
}

func (w *Watcher) logInfo(msg string, args ...any) {
	if w.logger != nil {
		w.logger.Info(msg, args...)
	}
}

func (w *Watcher) logError(msg string, args ...any) {
	if w.logger != nil {
		w.logger.Error(msg, args...)
	}
}
