// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package watch triggers a project rebuild when block definitions change.
//
// The watcher only decides *when* to rebuild. It batches filesystem events
// over a debounce window and hands the deduplicated batch to a handler,
// which reloads and rebuilds the whole graph. Nothing is diffed.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

// Handler is called from a single goroutine with each debounced batch: the
// absolute paths that changed, each once, in first-seen order.
type Handler func(ctx context.Context, paths []string)

// Options configures the Watcher.
type Options struct {
	// Debounce is how long to wait for more changes before triggering.
	// Default: 250ms
	Debounce time.Duration

	// ExcludeDirs are directory base names never watched.
	ExcludeDirs []string

	// IgnoreGlobs are doublestar patterns matched against the base name and
	// the root-relative slash path. Default: editor swap and temp files.
	IgnoreGlobs []string

	// Names restricts triggering to files with these base names, e.g. the
	// definition and catalog file names. Empty means every change triggers.
	Names []string

	// BufferSize is the size of the change buffer channel.
	// Default: 1000
	BufferSize int

	// Logger receives watch errors. Default: slog.Default().
	Logger *slog.Logger
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		Debounce:    250 * time.Millisecond,
		ExcludeDirs: []string{".git", "node_modules", ".idea"},
		IgnoreGlobs: []string{"*.swp", "*.tmp", "*~"},
		BufferSize:  1000,
		Logger:      slog.Default(),
	}
}

// Watcher watches a project tree with debouncing.
//
// # Thread Safety
//
// Safe for concurrent use. The handler is called from a single goroutine.
type Watcher struct {
	root    string
	watcher *fsnotify.Watcher
	handler Handler
	opts    Options
	exclude map[string]bool
	names   map[string]bool
	logger  *slog.Logger

	changes  chan string
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	mu       sync.RWMutex
	watching bool
	dirs     map[string]bool
}

// New creates a watcher for root.
//
// # Inputs
//
//   - root: Directory to watch recursively.
//   - handler: Called with each debounced batch.
//   - opts: Configuration; zero fields take defaults.
//
// # Outputs
//
//   - *Watcher: Call Start to begin watching.
//   - error: Non-nil if the fsnotify watcher could not be created.
func New(root string, handler Handler, opts Options) (*Watcher, error) {
	defaults := DefaultOptions()
	if opts.Debounce <= 0 {
		opts.Debounce = defaults.Debounce
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = defaults.BufferSize
	}
	if opts.IgnoreGlobs == nil {
		opts.IgnoreGlobs = defaults.IgnoreGlobs
	}
	if opts.ExcludeDirs == nil {
		opts.ExcludeDirs = defaults.ExcludeDirs
	}
	if opts.Logger == nil {
		opts.Logger = defaults.Logger
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		root:    abs,
		watcher: fw,
		handler: handler,
		opts:    opts,
		exclude: toSet(opts.ExcludeDirs),
		names:   toSet(opts.Names),
		logger:  opts.Logger,
		changes: make(chan string, opts.BufferSize),
		done:    make(chan struct{}),
		dirs:    make(map[string]bool),
	}
	return w, nil
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}

// Start begins watching.
//
// # Description
//
// Adds root and its subdirectories to the watch list, then spawns two
// goroutines: an event processor filtering fsnotify events, and a debouncer
// batching the changed paths for the handler. Both exit when Stop is
// called or ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.watching {
		w.mu.Unlock()
		return nil
	}
	w.watching = true
	w.mu.Unlock()

	if err := w.addRecursive(w.root); err != nil {
		return err
	}

	w.wg.Add(2)
	go w.processEvents(ctx)
	go w.debounceLoop(ctx)
	return nil
}

// Stop stops the watcher and waits for its goroutines to exit.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		_ = w.watcher.Close()
		w.wg.Wait()

		w.mu.Lock()
		w.watching = false
		w.mu.Unlock()
	})
}

// IsWatching returns true if the watcher is currently active.
func (w *Watcher) IsWatching() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.watching
}

// WatchedDirs returns the number of directories on the watch list.
func (w *Watcher) WatchedDirs() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.dirs)
}

// addRecursive adds a directory and all subdirectories to the watch list.
func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			w.logger.Debug("watch walk error", slog.String("path", path), slog.String("error", err.Error()))
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && w.shouldIgnore(path) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return err
		}
		w.mu.Lock()
		w.dirs[path] = true
		w.mu.Unlock()
		return nil
	})
}

// shouldIgnore checks if a path is excluded or matches an ignore glob.
func (w *Watcher) shouldIgnore(path string) bool {
	base := filepath.Base(path)
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		rel = path
	}
	rel = filepath.ToSlash(rel)

	for dir := rel; dir != "." && dir != "/" && dir != ""; dir = filepath.ToSlash(filepath.Dir(dir)) {
		if w.exclude[filepath.Base(dir)] {
			return true
		}
	}

	for _, pattern := range w.opts.IgnoreGlobs {
		if ok, _ := doublestar.Match(pattern, base); ok {
			return true
		}
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// relevant reports whether a change to path should trigger a rebuild. gone
// marks a removal or rename.
func (w *Watcher) relevant(path string, gone bool) bool {
	if len(w.names) == 0 || w.names[filepath.Base(path)] {
		return true
	}
	if !gone {
		return false
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	// A removed or renamed directory may have held definitions.
	return w.dirs[path]
}

// processEvents filters fsnotify events and queues the relevant paths.
func (w *Watcher) processEvents(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if w.shouldIgnore(event.Name) {
				continue
			}

			// A new directory is watched, and its existing contents count
			// as a change when it may contain definitions.
			if event.Has(fsnotify.Create) && isDir(event.Name) {
				if err := w.addRecursive(event.Name); err != nil {
					w.logger.Warn("cannot watch directory", slog.String("dir", event.Name), slog.String("error", err.Error()))
				}
				w.send(event.Name)
				continue
			}

			gone := event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
			if w.relevant(event.Name, gone) {
				w.send(event.Name)
			}
			if gone {
				w.mu.Lock()
				delete(w.dirs, event.Name)
				w.mu.Unlock()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", slog.String("error", err.Error()))
		}
	}
}

// send queues a path without blocking. A full buffer drops the path; the
// pending batch already guarantees a rebuild.
func (w *Watcher) send(path string) {
	select {
	case w.changes <- path:
	default:
	}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// debounceLoop collects paths until the debounce window passes without a
// new one, then calls the handler once with the batch.
func (w *Watcher) debounceLoop(ctx context.Context) {
	defer w.wg.Done()

	var batch []string
	queued := make(map[string]bool)
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case path := <-w.changes:
			if !queued[path] {
				queued[path] = true
				batch = append(batch, path)
			}
			if timer == nil {
				timer = time.NewTimer(w.opts.Debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.opts.Debounce)
			}
		case <-timerC:
			timer, timerC = nil, nil
			if len(batch) > 0 && w.handler != nil {
				w.handler(ctx, batch)
			}
			batch = nil
			clear(queued)
		}
	}
}
