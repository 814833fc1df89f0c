// Package watch drives incremental index updates from filesystem events.
package watch

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"archmap/internal/engine"
	"archmap/internal/ignore"
)

type Watcher struct {
	eng      *engine.Engine
	root     string
	filter   *ignore.Filter
	debounce time.Duration
	log      *slog.Logger
}

// New builds a watcher over root that feeds changes into eng. Events are
// debounced per path so editor save bursts trigger one update each.
func New(eng *engine.Engine, root string, filter *ignore.Filter, debounce time.Duration, log *slog.Logger) *Watcher {
	if log == nil {
		log = slog.Default()
	}
	return &Watcher{eng: eng, root: root, filter: filter, debounce: debounce, log: log}
}

// Run watches until ctx is cancelled. Updates are applied one at a time in
// event order.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	if err := w.addRecursive(fsw, w.root); err != nil {
		return err
	}

	timers := make(map[string]*time.Timer)
	due := make(chan string)
	defer func() {
		for _, t := range timers {
			t.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, fsw, ev, timers, due)
		case path := <-due:
			delete(timers, path)
			w.apply(ctx, path)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", "err", err)
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, fsw *fsnotify.Watcher, ev fsnotify.Event, timers map[string]*time.Timer, due chan string) {
	rel, err := filepath.Rel(w.root, ev.Name)
	if err != nil || strings.HasPrefix(rel, "..") {
		return
	}
	rel = filepath.ToSlash(rel)
	base := filepath.Base(ev.Name)
	if w.filter.ExcludeFile(rel) {
		return
	}

	// New directories must be added to the watch set by hand; fsnotify
	// watches are not recursive.
	if ev.Op.Has(fsnotify.Create) {
		if !strings.HasPrefix(base, ".") && !w.filter.ExcludeDir(rel) {
			if info, serr := os.Stat(ev.Name); serr == nil && info.IsDir() {
				if aerr := w.addRecursive(fsw, ev.Name); aerr != nil {
					w.log.Warn("watch new directory", "path", rel, "err", aerr)
				}
				return
			}
		}
	}
	if !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Write) &&
		!ev.Op.Has(fsnotify.Remove) && !ev.Op.Has(fsnotify.Rename) {
		return
	}

	if t, ok := timers[rel]; ok {
		t.Reset(w.debounce)
		return
	}
	path := rel
	timers[rel] = time.AfterFunc(w.debounce, func() {
		select {
		case due <- path:
		case <-ctx.Done():
		}
	})
}

func (w *Watcher) apply(ctx context.Context, rel string) {
	start := time.Now()
	err := w.eng.Update(ctx, rel)
	switch {
	case errors.Is(err, engine.ErrTimeout):
		w.log.Warn("update timed out, index unchanged", "path", rel)
	case err != nil:
		w.log.Error("update failed", "path", rel, "err", err)
	default:
		w.log.Info("updated", "path", rel,
			"elapsed", time.Since(start).Round(time.Millisecond))
	}
}

// addRecursive registers dir and every non-ignored directory below it.
func (w *Watcher) addRecursive(fsw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		rel, rerr := filepath.Rel(w.root, p)
		if rerr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if rel != "." {
			base := filepath.Base(p)
			if strings.HasPrefix(base, ".") || w.filter.ExcludeDir(rel) {
				return fs.SkipDir
			}
		}
		if aerr := fsw.Add(p); aerr != nil {
			w.log.Warn("watch add", "path", rel, "err", aerr)
		}
		return nil
	})
}
