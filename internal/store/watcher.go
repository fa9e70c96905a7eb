package store

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/linkograph/internal/apperr"
	"github.com/starford/linkograph/internal/checksum"
	"github.com/starford/linkograph/internal/storage"
)

const reconcileDelay = 200 * time.Millisecond

// EventCallback is called after a watcher-driven database change.
// kind is one of "created", "updated", "deleted"; id is the linkograph ID.
type EventCallback func(kind string, id string)

// Watch starts an fsnotify watcher on the protocol directory and processes
// file change events until ctx is cancelled. It calls cb (if non-nil) after
// each successful import or removal.
//
// New directories created at runtime are added to the watch list. Rename
// events trigger a debounced reconciliation pass against the directory.
func Watch(ctx context.Context, repo Repository, files storage.Provider, root string, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, root); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", root))

	notify := func(kind, id string) {
		if cb != nil {
			cb(kind, id)
		}
	}

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
			logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			reconcile(ctx, repo, files, logger, notify)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
					// Files may land in the directory before it is watched.
					scheduleReconcile()
					continue
				}
			}

			if !storage.IsProtocolFile(filepath.Base(ev.Name)) {
				continue
			}
			rel, relErr := filepath.Rel(root, ev.Name)
			if relErr != nil {
				continue
			}
			rel = filepath.ToSlash(rel)

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				data, readErr := files.Read(rel)
				if readErr != nil {
					logger.Warn("watcher: read failed", slog.String("path", rel), slog.String("error", readErr.Error()))
					continue
				}
				// Files written by an import through the service are
				// already stored under this checksum.
				if cs, csErr := repo.SourceChecksum(ctx, rel); csErr == nil && cs == checksum.Sum(data) {
					logger.Debug("watcher: unchanged", slog.String("path", rel))
					continue
				}
				p, created, impErr := ImportFile(ctx, repo, rel, data)
				if impErr != nil {
					logger.Warn("watcher: import failed", slog.String("path", rel), slog.String("error", impErr.Error()))
					continue
				}
				kind := "updated"
				if created {
					kind = "created"
				}
				logger.Debug("watcher: imported", slog.String("path", rel), slog.String("op", kind))
				notify(kind, p.ID)

			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				// Rename fires on the old path only; the new path arrives
				// as a Create if it stays inside a watched directory.
				id, delErr := repo.DeleteSource(ctx, rel)
				switch {
				case errors.Is(delErr, apperr.ErrNotFound):
				case delErr != nil:
					logger.Warn("watcher: delete failed", slog.String("path", rel), slog.String("error", delErr.Error()))
				default:
					logger.Debug("watcher: deleted", slog.String("path", rel))
					notify("deleted", id)
				}
				if ev.Op&fsnotify.Rename != 0 {
					scheduleReconcile()
				}
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// reconcile removes protocols whose files are gone and imports files that
// are new or changed.
func reconcile(ctx context.Context, repo Repository, files storage.Provider, logger *slog.Logger, notify EventCallback) {
	checksums, err := repo.SourceChecksums(ctx)
	if err != nil {
		logger.Warn("reconcile: source checksums failed", slog.String("error", err.Error()))
		return
	}
	metas, err := files.List("")
	if err != nil {
		logger.Warn("reconcile: list failed", slog.String("error", err.Error()))
		return
	}

	disk := make(map[string]string, len(metas))
	for _, m := range metas {
		disk[m.Path] = m.Checksum
	}

	for p := range checksums {
		if _, ok := disk[p]; ok {
			continue
		}
		if id, delErr := repo.DeleteSource(ctx, p); delErr == nil {
			logger.Debug("reconcile: removed stale", slog.String("path", p))
			notify("deleted", id)
		}
	}

	for p, cs := range disk {
		if checksums[p] == cs {
			continue
		}
		data, readErr := files.Read(p)
		if readErr != nil {
			continue
		}
		if prot, created, impErr := ImportFile(ctx, repo, p, data); impErr == nil {
			kind := "updated"
			if created {
				kind = "created"
			}
			logger.Debug("reconcile: imported", slog.String("path", p))
			notify(kind, prot.ID)
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
