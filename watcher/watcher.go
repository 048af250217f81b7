// Package watcher wraps an OS-native filesystem notifier (fsnotify) with
// recursive directory registration, debouncing, and image-extension
// filtering, normalizing raw events into a small Created/Modified/Removed
// vocabulary.
package watcher

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/photowall/engine/scanner"
)

// ChangeType classifies a normalized filesystem event.
type ChangeType int

const (
	Created ChangeType = iota
	Modified
	Removed
)

func (c ChangeType) String() string {
	switch c {
	case Created:
		return "created"
	case Modified:
		return "modified"
	case Removed:
		return "removed"
	default:
		return "unknown"
	}
}

// Change is one normalized, debounced filesystem event.
type Change struct {
	Path string
	Type ChangeType
}

// Options configures a Watcher.
type Options struct {
	ImagesOnly bool
	Debounce   time.Duration
}

// DefaultOptions returns the spec's documented defaults.
func DefaultOptions() Options {
	return Options{ImagesOnly: true, Debounce: 2 * time.Second}
}

// Watcher recursively watches one or more roots and emits debounced,
// normalized Change events to a single callback.
type Watcher struct {
	fsw     *fsnotify.Watcher
	opts    Options
	log     zerolog.Logger
	onEvent func(Change)

	mu      sync.Mutex
	pending map[string]*pendingChange
	stop    chan struct{}
	done    chan struct{}
}

type pendingChange struct {
	change Change
	timer  *time.Timer
}

// New creates a Watcher. Call AddRoot for each directory to watch, then
// Start to begin delivering events to onEvent.
func New(opts Options, log zerolog.Logger, onEvent func(Change)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watcher: create fsnotify watcher: %w", err)
	}
	return &Watcher{
		fsw:     fsw,
		opts:    opts,
		log:     log,
		onEvent: onEvent,
		pending: make(map[string]*pendingChange),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}, nil
}

// AddRoot registers root and every subdirectory beneath it. fsnotify only
// watches directories it is explicitly told about, so new subdirectories
// created later are picked up via the event loop (see handleFSEvent).
func (w *Watcher) AddRoot(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if addErr := w.fsw.Add(path); addErr != nil {
			w.log.Warn().Err(addErr).Str("path", path).Msg("watcher: failed to add directory")
		}
		return nil
	})
}

// Start runs the event loop in a background goroutine.
func (w *Watcher) Start() {
	go w.loop()
}

// Close stops the event loop and releases the underlying fsnotify handle.
func (w *Watcher) Close() error {
	close(w.stop)
	<-w.done
	return w.fsw.Close()
}

func (w *Watcher) loop() {
	defer close(w.done)
	for {
		select {
		case <-w.stop:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleFSEvent(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn().Err(err).Msg("watcher: fsnotify error")
		}
	}
}

func (w *Watcher) handleFSEvent(ev fsnotify.Event) {
	if ev.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			_ = w.AddRoot(ev.Name)
		}
	}

	changeType, ok := classify(ev.Op)
	if !ok {
		return
	}

	path := ev.Name
	// fsnotify reports renames as two separate events (old path Rename,
	// new path Create); the new-path Create already carries the destination,
	// so the rename-prefers-destination rule falls out of that naturally.

	if w.opts.ImagesOnly && !scanner.IsSupportedImage(path) {
		return
	}

	w.debounce(Change{Path: path, Type: changeType})
}

func classify(op fsnotify.Op) (ChangeType, bool) {
	switch {
	case op&fsnotify.Remove != 0:
		return Removed, true
	case op&fsnotify.Create != 0:
		return Created, true
	case op&(fsnotify.Write|fsnotify.Rename|fsnotify.Chmod) != 0:
		return Modified, true
	default:
		return 0, false
	}
}

func (w *Watcher) debounce(c Change) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if existing, ok := w.pending[c.Path]; ok {
		existing.change = c
		existing.timer.Reset(w.opts.Debounce)
		return
	}

	timer := time.AfterFunc(w.opts.Debounce, func() {
		w.mu.Lock()
		pc, ok := w.pending[c.Path]
		if ok {
			delete(w.pending, c.Path)
		}
		w.mu.Unlock()
		if ok {
			w.onEvent(pc.change)
		}
	})
	w.pending[c.Path] = &pendingChange{change: c, timer: timer}
}
