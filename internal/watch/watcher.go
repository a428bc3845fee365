// Package watch re-runs the vault sync whenever notes change on disk.
package watch

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

// DefaultDebounce is used when Options.Debounce is zero.
const DefaultDebounce = 500 * time.Millisecond

const tempPrefix = ".parasync-tmp-"

// Trigger is called once per quiet period after changes were seen.
type Trigger func(ctx context.Context)

// Options configure a watcher.
type Options struct {
	Debounce       time.Duration
	ExcludeFolders []string
}

// Watch starts an fsnotify watcher on root and calls trigger after .md
// files change, coalescing bursts of events into one call. It blocks until
// ctx is cancelled.
//
// New directories created at runtime are added to the watch list. The sync
// triggered here writes and moves notes itself; those events cause one more
// pass, which finds nothing to do and so ends the cycle.
func Watch(ctx context.Context, root string, opts Options, logger *slog.Logger, trigger Trigger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	excluded := make(map[string]struct{}, len(opts.ExcludeFolders))
	for _, f := range opts.ExcludeFolders {
		excluded[f] = struct{}{}
	}
	if err := addDirsRecursive(w, root, excluded); err != nil {
		return err
	}

	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	logger.Info("watcher: started", slog.String("root", root), slog.Duration("debounce", debounce))

	var timer *time.Timer
	var fire <-chan time.Time
	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(debounce)
			fire = timer.C
			return
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(debounce)
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-fire:
			logger.Debug("watcher: changes settled, syncing")
			trigger(ctx)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if _, skip := excluded[info.Name()]; skip {
						continue
					}
					if addErr := addDirsRecursive(w, ev.Name, excluded); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					} else {
						logger.Debug("watcher: watching new dir", slog.String("path", ev.Name))
					}
					schedule()
					continue
				}
			}

			if !relevant(root, ev.Name, excluded) {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			logger.Debug("watcher: change", slog.String("path", ev.Name), slog.String("op", ev.Op.String()))
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// relevant reports whether an event on path should schedule a sync: a .md
// file that is not one of our temp files and not under an excluded folder.
func relevant(root, path string, excluded map[string]struct{}) bool {
	name := filepath.Base(path)
	if !strings.HasSuffix(name, ".md") || strings.HasPrefix(name, tempPrefix) {
		return false
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	for _, seg := range strings.Split(filepath.ToSlash(filepath.Dir(rel)), "/") {
		if _, skip := excluded[seg]; skip {
			return false
		}
	}
	return true
}

// addDirsRecursive adds root and all its non-excluded subdirectories to the
// watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string, excluded map[string]struct{}) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if _, skip := excluded[d.Name()]; skip && path != root {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}
