// Package watch re-checks a manifest whenever it changes on disk.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"

	"github.com/iparrondo/eeg-models/internal/lint"
)

const debounceDelay = 500 * time.Millisecond

// Watcher re-runs the linter for one manifest when the file changes. Bursts
// of events (editors write several times per save) collapse into one pass.
type Watcher struct {
	path     string
	runner   *lint.Runner
	debounce time.Duration
	onReport func(*lint.Report)
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce overrides the event debounce, mostly for tests.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithReportFunc registers a callback invoked after every completed pass.
func WithReportFunc(fn func(*lint.Report)) Option {
	return func(w *Watcher) { w.onReport = fn }
}

// New builds a watcher for path backed by runner.
func New(path string, runner *lint.Runner, opts ...Option) *Watcher {
	w := &Watcher{path: path, runner: runner, debounce: debounceDelay}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run checks once, then watches until ctx is canceled. The manifest's
// directory is watched rather than the file: editors and atomic writers
// replace the file on save, which would detach a file-level watch.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()

	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	log.Info().Str("manifest", w.path).Msg("watching for changes")

	w.check(ctx)

	var timer *time.Timer
	var timerC <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	base := filepath.Base(w.path)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != base {
				continue
			}
			if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Rename) {
				continue
			}
			log.Debug().Str("op", ev.Op.String()).Str("path", ev.Name).Msg("manifest changed")
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("watch error")
		case <-timerC:
			timer = nil
			timerC = nil
			w.check(ctx)
		}
	}
}

func (w *Watcher) check(ctx context.Context) {
	rep, err := w.runner.Check(ctx, w.path)
	if err != nil {
		log.Error().Err(err).Str("manifest", w.path).Msg("check failed")
		return
	}
	ev := log.Info()
	if !rep.Valid() {
		ev = log.Warn()
	}
	ev.Str("manifest", w.path).
		Int("errors", rep.Stats.Errors).
		Int("warnings", rep.Stats.Warnings).
		Msg("manifest checked")
	if w.onReport != nil {
		w.onReport(rep)
	}
}
