// Package watcher triggers snapshot reloads when the content directory
// changes on disk.
package watcher

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period applied between a change burst and the
// reload it triggers. Editors and sync tools write in bursts; one reload per
// burst is enough because each reload rebuilds the whole snapshot.
const DefaultDebounce = 200 * time.Millisecond

// Watch starts an fsnotify watcher on the content root and calls reload
// after each debounced burst of .md changes, until ctx is cancelled.
// Directories created at runtime are added to the watch list.
//
// Reload failures are logged, never fatal: the previous snapshot keeps
// serving until a later reload succeeds.
func Watch(ctx context.Context, root string, debounce time.Duration, logger *slog.Logger, reload func() error) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, root); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", root))

	var reloadTimer *time.Timer
	var reloadCh <-chan time.Time

	scheduleReload := func() {
		if reloadTimer == nil {
			reloadTimer = time.NewTimer(debounce)
			reloadCh = reloadTimer.C
		} else {
			reloadTimer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-reloadCh:
			if err := reload(); err != nil {
				logger.Error("watcher: reload failed", slog.String("error", err.Error()))
			} else {
				logger.Debug("watcher: reloaded")
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			// New directories: add to the watcher and reload, since they may
			// already contain sources.
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					} else {
						logger.Debug("watcher: watching new dir", slog.String("path", ev.Name))
					}
					scheduleReload()
					continue
				}
			}

			if !strings.HasSuffix(ev.Name, ".md") {
				continue
			}
			logger.Debug("watcher: source changed",
				slog.String("path", ev.Name),
				slog.String("op", ev.Op.String()))
			scheduleReload()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
