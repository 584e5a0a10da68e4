// Package watch re-runs a job when any of a set of files changes.
package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultDebounce is the quiet period after the last change before the job
// runs.
const DefaultDebounce = time.Second

// Job is the work triggered by a change.
type Job func(ctx context.Context) error

// Watcher watches files through their parent directories, so editors that
// save by rename are still seen.
type Watcher struct {
	Paths    []string
	Debounce time.Duration
	Logger   zerolog.Logger

	// OnResult is called after every job run. Optional.
	OnResult func(err error)
}

// Run blocks until ctx is done. At most one job runs at a time; changes seen
// while a job runs coalesce into a single follow-up run.
func (w *Watcher) Run(ctx context.Context, job Job) error {
	if len(w.Paths) == 0 {
		return errors.New("watch: no paths to watch")
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fw.Close()

	targets := make(map[string]bool, len(w.Paths))
	dirs := make(map[string]bool)
	for _, p := range w.Paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("resolving %s: %w", p, err)
		}
		targets[abs] = true
		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}
		if err := fw.Add(dir); err != nil {
			return fmt.Errorf("failed to watch directory %s: %w", dir, err)
		}
		dirs[dir] = true
	}

	delay := w.Debounce
	if delay <= 0 {
		delay = DefaultDebounce
	}

	trigger := make(chan struct{}, 1)
	fire := func() {
		select {
		case trigger <- struct{}{}:
		default:
		}
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case <-trigger:
				err := job(ctx)
				if err != nil {
					w.Logger.Warn().Err(err).Msg("watch job failed")
				}
				if w.OnResult != nil {
					w.OnResult(err)
				}
			}
		}
	}()
	defer wg.Wait()

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			name, err := filepath.Abs(event.Name)
			if err != nil || !targets[name] {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			w.Logger.Debug().Str("path", name).Str("op", event.Op.String()).Msg("change detected")

			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(delay, fire)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.Logger.Warn().Err(err).Msg("watch error")
		}
	}
}
