// Package watch re-runs resolution when its input files change or a reload
// is requested.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/singleflight"
)

// DefaultDebounce is how long the watcher waits for file events to settle.
const DefaultDebounce = 250 * time.Millisecond

const runKey = "resolve"

// RunFunc performs one resolution.
type RunFunc func(ctx context.Context) error

// Options configures a Watcher.
type Options struct {
	Debounce time.Duration
	Logger   *slog.Logger
	// ReloadOnHangup triggers a run when the process receives SIGHUP.
	ReloadOnHangup bool
}

// Watcher runs fn whenever one of the watched files changes. File events are
// debounced, and at most one run is in flight: requests arriving during a run
// are folded into a single follow-up run.
type Watcher struct {
	files    map[string]bool
	dirs     []string
	fn       RunFunc
	debounce time.Duration
	log      *slog.Logger
	hangup   bool

	group    singleflight.Group
	triggers chan struct{}
}

// New creates a Watcher for the given files. Empty paths are ignored.
func New(paths []string, fn RunFunc, opts Options) (*Watcher, error) {
	w := &Watcher{
		files:    make(map[string]bool),
		fn:       fn,
		debounce: opts.Debounce,
		log:      opts.Logger,
		hangup:   opts.ReloadOnHangup,
		triggers: make(chan struct{}, 1),
	}
	if w.debounce <= 0 {
		w.debounce = DefaultDebounce
	}
	if w.log == nil {
		w.log = slog.New(slog.DiscardHandler)
	}

	seen := make(map[string]bool)
	for _, p := range paths {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", p, err)
		}
		w.files[abs] = true
		// Editors replace files by rename, so the directory is watched.
		if dir := filepath.Dir(abs); !seen[dir] {
			seen[dir] = true
			w.dirs = append(w.dirs, dir)
		}
	}
	return w, nil
}

// Resolve runs fn now, sharing the result with any run already in flight.
func (w *Watcher) Resolve(ctx context.Context) error {
	_, err, _ := w.group.Do(runKey, func() (interface{}, error) {
		return nil, w.fn(ctx)
	})
	return err
}

// Trigger requests a run without waiting for it.
func (w *Watcher) Trigger() {
	select {
	case w.triggers <- struct{}{}:
	default:
	}
}

// Run watches until ctx is cancelled. Failed runs are logged and do not stop
// the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer fw.Close()

	for _, dir := range w.dirs {
		if err := fw.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
	}

	var hup chan os.Signal
	if w.hangup {
		hup = make(chan os.Signal, 1)
		signal.Notify(hup, syscall.SIGHUP)
		defer signal.Stop(hup)
	}

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	var (
		inflight <-chan singleflight.Result
		pending  bool
	)
	fire := func() {
		if inflight != nil {
			pending = true
			return
		}
		w.log.Info("re-resolving")
		inflight = w.group.DoChan(runKey, func() (interface{}, error) {
			return nil, w.fn(ctx)
		})
	}

	w.log.Info("watching for changes", "files", len(w.files), "debounce", w.debounce)
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			w.log.Debug("change detected", "path", ev.Name, "op", ev.Op.String())
			timer.Reset(w.debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("file watcher error", "error", err)

		case <-hup:
			w.log.Info("reload requested", "signal", "SIGHUP")
			fire()

		case <-w.triggers:
			fire()

		case <-timer.C:
			fire()

		case res := <-inflight:
			inflight = nil
			if res.Err != nil {
				w.log.Error("resolution failed", "error", res.Err)
			}
			if pending {
				pending = false
				fire()
			}
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod {
		return false
	}
	return w.files[filepath.Clean(ev.Name)]
}
