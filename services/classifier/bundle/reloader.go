// Copyright (C) 2025 Astrum AI (dev@astrum.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package bundle

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
)

// Reloader serves the current bundle for a model directory and swaps
// it atomically when the artifacts are retrained in place.
//
// # Description
//
// Long-running serving processes hold one Reloader instead of a raw
// *Bundle. The initial load happens in New; afterwards a filesystem
// watch picks up artifact rewrites and reloads in the background. A
// reload that fails validation keeps the previous bundle in place, so
// readers never observe a broken artifact.
//
// # Thread Safety
//
// Current may be called concurrently; swaps are atomic pointer
// updates. Close stops the watcher.
type Reloader struct {
	dir     string
	log     *slog.Logger
	current atomic.Pointer[Bundle]
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewReloader loads the bundle from dir and starts watching for
// artifact rewrites.
//
// # Inputs
//
//   - dir: Model directory holding the trained artifacts.
//   - log: Logger for reload events (nil uses slog.Default).
//
// # Outputs
//
//   - *Reloader: The running reloader.
//   - error: Non-nil when the initial load or the watch setup fails.
func NewReloader(dir string, log *slog.Logger) (*Reloader, error) {
	if log == nil {
		log = slog.Default()
	}
	initial, err := Load(dir)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("start artifact watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch model dir %q: %w", dir, err)
	}

	r := &Reloader{dir: dir, log: log, watcher: watcher, done: make(chan struct{})}
	r.current.Store(initial)
	go r.run()
	return r, nil
}

// Current returns the active bundle. The returned value is immutable.
func (r *Reloader) Current() *Bundle {
	return r.current.Load()
}

// Reload forces a synchronous reload from disk.
func (r *Reloader) Reload() error {
	loaded, err := Load(r.dir)
	if err != nil {
		return err
	}
	r.current.Store(loaded)
	r.log.Info("model bundle reloaded", "dir", r.dir, "run_id", loaded.RunID)
	return nil
}

// Close stops the filesystem watcher. The last loaded bundle remains
// available through Current.
func (r *Reloader) Close() error {
	close(r.done)
	return r.watcher.Close()
}

// run consumes watcher events until Close. Only writes and renames of
// the two artifact files trigger a reload, and a reload only happens
// once the preprocessor artifact lands; Save renames the model file
// first, so waiting for the second rename avoids loading a mixed pair.
func (r *Reloader) run() {
	for {
		select {
		case <-r.done:
			return
		case event, ok := <-r.watcher.Events:
			if !ok {
				return
			}
			if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Rename) {
				continue
			}
			if filepath.Base(event.Name) != PreprocessorFilename {
				continue
			}
			if err := r.Reload(); err != nil {
				r.log.Warn("artifact reload failed, keeping previous bundle", "dir", r.dir, "error", err)
			}
		case err, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
			r.log.Warn("artifact watcher error", "dir", r.dir, "error", err)
		}
	}
}
