package prefs

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/derickschaefer/kitadash/internal/model"
)

// DefaultDebounce is how long the DB file must be quiet before a reload.
const DefaultDebounce = 200 * time.Millisecond

// Watcher picks up mode changes made by other kitadash processes. It watches
// the preference DB's directory (bbolt rewrites the file in place, and the
// file may not exist yet) and re-reads the mode once writes settle.
type Watcher struct {
	mu       sync.Mutex
	fsw      *fsnotify.Watcher
	svc      *Service
	path     string
	debounce time.Duration
	dirty    time.Time // time of the last unprocessed write; zero when clean
	stopCh   chan struct{}
	doneCh   chan struct{}
	running  bool
	closeFsw sync.Once
}

// NewWatcher returns a Watcher for the DB at dbPath. A debounce of zero
// selects DefaultDebounce.
func NewWatcher(svc *Service, dbPath string, debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		fsw:      fsw,
		svc:      svc,
		path:     filepath.Clean(dbPath),
		debounce: debounce,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start seeds the bus with the current mode and begins watching. It does
// not block. After a failed Start the watcher is not running and Stop is a
// no-op.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}
	if err := w.fsw.Add(dir); err != nil {
		return err
	}

	m, err := w.svc.Mode()
	if err != nil {
		slog.Warn("prefs watcher: initial read failed", "err", err)
	}
	w.svc.Bus().Seed(m)
	slog.Debug("prefs watcher: watching", "dir", dir, "mode", m)

	w.running = true
	go w.run(ctx)
	return nil
}

// Stop stops the watcher, waits for its goroutine to exit and releases the
// underlying fsnotify watcher. It is safe to call more than once, and after
// a Start that failed.
func (w *Watcher) Stop() {
	w.mu.Lock()
	wasRunning := w.running
	w.running = false
	w.mu.Unlock()

	if wasRunning {
		close(w.stopCh)
		<-w.doneCh
	}
	w.closeFsw.Do(func() {
		if err := w.fsw.Close(); err != nil {
			slog.Warn("prefs watcher: close", "err", err)
		}
	})
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	tick := time.NewTicker(w.debounce / 4)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			w.dirty = time.Now()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			slog.Warn("prefs watcher", "err", err)

		case <-tick.C:
			if !w.dirty.IsZero() && time.Since(w.dirty) >= w.debounce {
				w.dirty = time.Time{}
				w.reload()
			}
		}
	}
}

// reload re-reads the mode and publishes it if it changed.
func (w *Watcher) reload() {
	m, err := w.svc.Mode()
	if err != nil {
		slog.Warn("prefs watcher: reload failed", "err", err)
		return
	}
	if w.svc.Bus().PublishIfChanged(model.ModeChange{Mode: m, At: time.Now()}) {
		slog.Info("display mode changed", "mode", m)
	}
}
