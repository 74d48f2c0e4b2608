package inbox

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/notegraph/internal/storage"
)

const reconcileDelay = 200 * time.Millisecond

// Watch runs an initial Sync and then imports files as they change until ctx
// is cancelled. New directories are added to the watch list. Renames trigger
// a debounced Sync so the moved file keeps its note.
func (im *Importer) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	root := im.files.Root()
	if err := addDirsRecursive(w, root); err != nil {
		return err
	}
	if err := im.Sync(ctx); err != nil {
		im.logger.Warn("inbox: initial sync failed", slog.String("error", err.Error()))
	}
	im.logger.Info("inbox: watching", slog.String("root", root))

	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time
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
			im.logger.Info("inbox: stopped")
			return nil

		case <-reconcileCh:
			if err := im.Sync(ctx); err != nil {
				im.logger.Warn("inbox: reconcile failed", slog.String("error", err.Error()))
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						im.logger.Warn("inbox: add new dir failed", slog.String("path", ev.Name), slog.String("error", addErr.Error()))
					}
					scheduleReconcile()
					continue
				}
			}

			if !storage.IsMarkdown(ev.Name) || isHidden(filepath.Base(ev.Name)) {
				continue
			}

			switch {
			case ev.Op&fsnotify.Rename != 0:
				// The new name arrives as a separate Create; Sync pairs the two.
				scheduleReconcile()

			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				rel, relErr := filepath.Rel(root, ev.Name)
				if relErr != nil {
					continue
				}
				rel = filepath.ToSlash(rel)
				if ev.Op&fsnotify.Create != 0 && !im.isTracked(ctx, rel) {
					// Might be the second half of a rename.
					scheduleReconcile()
					continue
				}
				if err := im.ImportFile(ctx, rel); err != nil {
					im.logger.Warn("inbox: import failed", slog.String("path", rel), slog.String("error", err.Error()))
				}
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			im.logger.Error("inbox: watcher error", slog.String("error", watchErr.Error()))
		}
	}
}

func (im *Importer) isTracked(ctx context.Context, rel string) bool {
	known, err := im.db.ImportedChecksums(ctx)
	if err != nil {
		return false
	}
	_, ok := known[rel]
	return ok
}

func isHidden(name string) bool {
	return len(name) > 0 && name[0] == '.'
}

// addDirsRecursive adds root and all its visible subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		return w.Add(p)
	})
}
