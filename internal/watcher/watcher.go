// Package watcher reports out-of-band edits to the catalog backing file.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce collapses the create/write/rename bursts editors and
// atomic writers produce.
const DefaultDebounce = 200 * time.Millisecond

// Callback is called once per debounced burst of changes.
type Callback func()

// Watch watches the directory holding file and calls cb after the file is
// created, written, or renamed into place. It blocks until ctx is cancelled.
// The directory is created if missing so the watch can be established
// before the catalog is first seeded.
func Watch(ctx context.Context, file string, debounce time.Duration, logger *slog.Logger, cb Callback) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	abs, err := filepath.Abs(file)
	if err != nil {
		return fmt.Errorf("watcher: resolve %s: %w", file, err)
	}
	dir, name := filepath.Dir(abs), filepath.Base(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("watcher: mkdir: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watcher: add %s: %w", dir, err)
	}
	logger.Info("watcher: started", slog.String("file", abs))

	var timer *time.Timer
	var timerCh <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-timerCh:
			timer, timerCh = nil, nil
			logger.Debug("watcher: catalog changed", slog.String("file", abs))
			if cb != nil {
				cb()
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != name {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
				timerCh = timer.C
			} else {
				timer.Reset(debounce)
			}

		case werr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher: error", slog.String("error", werr.Error()))
		}
	}
}
