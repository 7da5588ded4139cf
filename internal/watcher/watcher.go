// Package watcher reports post files appearing, changing and disappearing
// in the post directory, including edits made outside the API.
package watcher

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/folio/internal/storage"
)

// Event kinds passed to the callback.
const (
	KindCreated = "created"
	KindUpdated = "updated"
	KindDeleted = "deleted"
)

const (
	ext             = storage.Ext
	defaultDebounce = 150 * time.Millisecond
)

// EventCallback is called once per settled change. kind is one of
// KindCreated, KindUpdated or KindDeleted.
type EventCallback func(kind string, slug string)

// Watcher observes a post directory.
type Watcher struct {
	dir      string
	logger   *slog.Logger
	debounce time.Duration
}

// New creates a watcher for dir. The directory must exist when Run is called.
func New(dir string, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{dir: dir, logger: logger, debounce: defaultDebounce}
}

// SetDebounce sets how long the watcher waits for a burst of filesystem
// events to settle before reporting.
func (w *Watcher) SetDebounce(d time.Duration) {
	if d > 0 {
		w.debounce = d
	}
}

// Run processes filesystem events until ctx is cancelled.
//
// Raw events are not reported directly. Every touched slug is collected
// and, once the directory has been quiet for the debounce interval, the
// file is stat'ed and compared with what the watcher knew before. This
// turns the temp-file-and-rename pattern used for atomic writes into a
// single "updated" and survives editors that delete and recreate files.
func (w *Watcher) Run(ctx context.Context, cb EventCallback) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return err
	}

	known, err := w.scan()
	if err != nil {
		return err
	}

	w.logger.Info("watcher: started", slog.String("dir", w.dir), slog.Int("posts", len(known)))

	pending := make(map[string]struct{})
	var timer *time.Timer
	var timerCh <-chan time.Time

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(w.debounce)
			timerCh = timer.C
		} else {
			timer.Reset(w.debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			w.logger.Info("watcher: stopped")
			return nil

		case <-timerCh:
			w.settle(pending, known, cb)
			clear(pending)

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			name := filepath.Base(ev.Name)
			if !storage.IsPostFile(name) {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			pending[strings.TrimSuffix(name, ext)] = struct{}{}
			schedule()

		case watchErr, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// settle compares each pending slug with the disk and reports the difference.
func (w *Watcher) settle(pending, known map[string]struct{}, cb EventCallback) {
	slugs := make([]string, 0, len(pending))
	for s := range pending {
		slugs = append(slugs, s)
	}
	slices.Sort(slugs)

	for _, s := range slugs {
		info, err := os.Stat(filepath.Join(w.dir, s+ext))
		onDisk := err == nil && info.Mode().IsRegular()
		_, wasKnown := known[s]

		var kind string
		switch {
		case onDisk && wasKnown:
			kind = KindUpdated
		case onDisk:
			kind = KindCreated
			known[s] = struct{}{}
		case wasKnown:
			kind = KindDeleted
			delete(known, s)
		default:
			continue
		}

		w.logger.Debug("watcher: post changed", slog.String("slug", s), slog.String("op", kind))
		if cb != nil {
			cb(kind, s)
		}
	}
}

// scan lists the slugs currently on disk.
func (w *Watcher) scan() (map[string]struct{}, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return nil, err
	}
	out := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if e.IsDir() || !storage.IsPostFile(e.Name()) {
			continue
		}
		out[strings.TrimSuffix(e.Name(), ext)] = struct{}{}
	}
	return out, nil
}
