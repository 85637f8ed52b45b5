// Package watch reports changes to the notes under a root directory.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Kinds of Event.
const (
	KindCreated = "created"
	KindUpdated = "updated"
	KindDeleted = "deleted"
	// KindTree marks a directory-level change: a directory appeared or a
	// non-note path was removed or renamed. Listeners should rescan.
	KindTree = "tree"
)

// Event describes one change. Path is as reported under the watched root.
type Event struct {
	Kind string
	Path string
}

// Handler receives events on the watcher goroutine.
type Handler func(Event)

// settleDelay debounces the rescan that follows a rename.
const settleDelay = 200 * time.Millisecond

// Watch starts an fsnotify watcher on root and delivers events to h until ctx
// is cancelled. Directories created at runtime are added to the watch list
// and the notes already inside them are reported as created.
func Watch(ctx context.Context, root string, logger *slog.Logger, h Handler) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, root, logger); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", root))

	// A rename only reports the old path; the new one may land outside the
	// watched tree, so a short-delayed tree event asks listeners to rescan.
	var settleTimer *time.Timer
	var settleCh <-chan time.Time
	scheduleSettle := func() {
		if settleTimer == nil {
			settleTimer = time.NewTimer(settleDelay)
			settleCh = settleTimer.C
		} else {
			settleTimer.Reset(settleDelay)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if settleTimer != nil {
				settleTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-settleCh:
			h(Event{Kind: KindTree, Path: root})

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			path := ev.Name

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(path); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, path, logger); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", path),
							slog.String("error", addErr.Error()))
					} else {
						logger.Debug("watcher: watching new dir", slog.String("path", path))
					}
					reportNewDir(path, h)
					h(Event{Kind: KindTree, Path: path})
					continue
				}
			}

			if !isNote(path) {
				if ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
					h(Event{Kind: KindTree, Path: path})
				}
				continue
			}

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				kind := KindUpdated
				if ev.Op&fsnotify.Create != 0 {
					kind = KindCreated
				}
				logger.Debug("watcher: changed", slog.String("path", path), slog.String("op", kind))
				h(Event{Kind: kind, Path: path})

			case ev.Op&fsnotify.Remove != 0:
				logger.Debug("watcher: deleted", slog.String("path", path))
				h(Event{Kind: KindDeleted, Path: path})

			case ev.Op&fsnotify.Rename != 0:
				logger.Debug("watcher: renamed away", slog.String("path", path))
				h(Event{Kind: KindDeleted, Path: path})
				scheduleSettle()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// reportNewDir reports the notes already present in a new directory.
func reportNewDir(dir string, h Handler) {
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !isNote(path) {
			return nil
		}
		h(Event{Kind: KindCreated, Path: path})
		return nil
	})
}

// addDirsRecursive adds root and all readable subdirectories to the watcher.
// Only a failure on root itself is returned.
func addDirsRecursive(w *fsnotify.Watcher, root string, logger *slog.Logger) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			logger.Debug("watcher: skip dir", slog.String("path", path), slog.String("error", err.Error()))
			return fs.SkipDir
		}
		if !d.IsDir() {
			return nil
		}
		if addErr := w.Add(path); addErr != nil {
			if path == root {
				return addErr
			}
			logger.Debug("watcher: skip dir", slog.String("path", path), slog.String("error", addErr.Error()))
			return fs.SkipDir
		}
		return nil
	})
}

func isNote(path string) bool {
	name := filepath.Base(path)
	return filepath.Ext(name) == ".md" && len(name) > len(".md")
}
