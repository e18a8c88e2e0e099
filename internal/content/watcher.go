package content

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reconcileDelay debounces the full pass that follows a rename.
const reconcileDelay = 200 * time.Millisecond

// Watch follows file changes under the content root until ctx is cancelled.
// Post files are imported or removed as they change, edits to the reference
// files reload them, and new directories join the watch list. A rename
// triggers a debounced Sync to pick up the new path.
func (im *Importer) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	root := im.src.Root()
	if err := addDirsRecursive(w, root); err != nil {
		return err
	}
	im.logger.Info("watcher: started", slog.String("root", root))

	var (
		reconcileTimer *time.Timer
		reconcileCh    <-chan time.Time
	)
	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(reconcileDelay)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(reconcileDelay)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			im.logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			if _, err := im.Sync(ctx); err != nil {
				im.logger.Warn("watcher: reconcile failed", slog.String("error", err.Error()))
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			im.handle(ctx, w, ev, scheduleReconcile)

		case werr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			im.logger.Error("watcher: error", slog.String("error", werr.Error()))
		}
	}
}

func (im *Importer) handle(ctx context.Context, w *fsnotify.Watcher, ev fsnotify.Event, scheduleReconcile func()) {
	if ev.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := addDirsRecursive(w, ev.Name); err != nil {
				im.logger.Warn("watcher: add new dir failed", slog.String("path", ev.Name), slog.String("error", err.Error()))
			}
			// Files may land before the directory is watched.
			scheduleReconcile()
			return
		}
	}

	rel, err := im.src.Rel(ev.Name)
	if err != nil {
		return
	}
	name := filepath.Base(ev.Name)

	if rel == AccountsFile || rel == CategoriesFile {
		if ev.Op&(fsnotify.Create|fsnotify.Write) != 0 {
			if err := im.LoadReference(ctx); err != nil {
				im.logger.Warn("watcher: reference reload failed", slog.String("path", rel), slog.String("error", err.Error()))
			}
		}
		return
	}
	if !isPostFile(name) {
		return
	}

	switch {
	case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
		if _, err := im.ImportFile(ctx, rel); err != nil {
			im.logger.Warn("watcher: import failed", slog.String("path", rel), slog.String("error", err.Error()))
			return
		}
		im.logger.Debug("watcher: imported", slog.String("path", rel))

	case ev.Op&fsnotify.Remove != 0:
		if err := im.Remove(ctx, rel); err != nil {
			im.logger.Warn("watcher: delete failed", slog.String("path", rel), slog.String("error", err.Error()))
		}

	case ev.Op&fsnotify.Rename != 0:
		// Rename arrives on the old path; the new path shows up as a Create
		// only when it stays inside a watched directory.
		if err := im.Remove(ctx, rel); err != nil {
			im.logger.Warn("watcher: rename delete failed", slog.String("path", rel), slog.String("error", err.Error()))
		}
		scheduleReconcile()
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
