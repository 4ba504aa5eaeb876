package collection

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/starford/reboard/internal/storage"
)

// Watch starts an fsnotify watcher on the vault root and feeds file change
// events into the collection until ctx is cancelled. This is the external
// invalidation path: edits made outside the collection's verbs (another
// editor touching a note's frontmatter, files added on disk) land here.
//
// New directories created at runtime are automatically added to the watch
// list. Rename events trigger a debounced reconciliation pass that reloads
// the collection, since fsnotify only reports the old path.
func Watch(ctx context.Context, coll *Collection, vaultRoot string, logger *slog.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, vaultRoot); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", vaultRoot))

	// reconcileTimer is used to debounce rename reconciliation.
	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time

	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(200 * time.Millisecond)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			if err := coll.Refetch(); err != nil {
				logger.Warn("watcher: reconcile failed", slog.String("error", err.Error()))
			} else {
				logger.Debug("watcher: reconciled")
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			absPath := ev.Name

			// --- Handle new directories: add to watcher ---
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(absPath); statErr == nil && info.IsDir() {
					if strings.HasPrefix(filepath.Base(absPath), ".") {
						continue
					}
					if addErr := addDirsRecursive(w, absPath); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", absPath),
							slog.String("error", addErr.Error()))
					} else {
						logger.Debug("watcher: watching new dir", slog.String("path", absPath))
					}
					// Pick up any .md files already in the new directory.
					refetchDir(coll, vaultRoot, absPath)
					continue
				}
			}

			// Only process .md files from here on.
			if !strings.HasSuffix(absPath, ".md") {
				continue
			}
			if underTrash(vaultRoot, absPath) {
				continue
			}

			rel, relErr := filepath.Rel(vaultRoot, absPath)
			if relErr != nil {
				continue
			}
			rel = filepath.ToSlash(rel)

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				coll.RefetchPath(rel)
				logger.Debug("watcher: refetched", slog.String("path", rel))

			case ev.Op&fsnotify.Remove != 0:
				coll.RemovePath(rel)
				logger.Debug("watcher: removed", slog.String("path", rel))

			case ev.Op&fsnotify.Rename != 0:
				// fsnotify fires Rename on the OLD path only. The new path
				// will arrive as a separate Create event (if it stays
				// within a watched dir). We drop the old record
				// immediately and schedule a short reconciliation pass to
				// catch any stragglers.
				coll.RemovePath(rel)
				logger.Debug("watcher: rename old removed", slog.String("path", rel))
				scheduleReconcile()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// refetchDir feeds any .md files found in a newly created directory into
// the collection.
func refetchDir(coll *Collection, vaultRoot, dirPath string) {
	_ = filepath.WalkDir(dirPath, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(p, ".md") {
			return nil
		}
		rel, relErr := filepath.Rel(vaultRoot, p)
		if relErr != nil {
			return nil
		}
		coll.RefetchPath(filepath.ToSlash(rel))
		return nil
	})
}

func underTrash(vaultRoot, absPath string) bool {
	rel, err := filepath.Rel(vaultRoot, absPath)
	if err != nil {
		return false
	}
	return strings.HasPrefix(filepath.ToSlash(rel), storage.TrashDir+"/")
}

// addDirsRecursive adds root and all its subdirectories to the watcher,
// skipping dot-directories.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return w.Add(p)
		}
		return nil
	})
}
