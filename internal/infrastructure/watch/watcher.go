package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ChangeEvent represents a filesystem change.
type ChangeEvent struct {
	Path       string
	ChangeType string // "create", "write", "remove", "rename"
}

// FSWatcher watches a directory tree for filesystem changes using
// fsnotify. Changes are collected per path and delivered as one batch
// after the debounce window, so a burst of writes to several drafts
// produces a single callback carrying all of them.
type FSWatcher struct {
	watcher  *fsnotify.Watcher
	filter   *PatternFilter
	debounce time.Duration
	onBatch  func([]ChangeEvent)

	mu      sync.Mutex
	pending map[string]ChangeEvent
}

// NewFSWatcher creates a new filesystem watcher. A nil filter passes
// every path.
func NewFSWatcher(debounce time.Duration, filter *PatternFilter, onBatch func([]ChangeEvent)) (*FSWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if debounce == 0 {
		debounce = 500 * time.Millisecond
	}
	return &FSWatcher{
		watcher:  w,
		filter:   filter,
		debounce: debounce,
		onBatch:  onBatch,
		pending:  make(map[string]ChangeEvent),
	}, nil
}

// WatchRecursive adds a directory and all its subdirectories to the
// watcher. Git metadata is skipped.
func (w *FSWatcher) WatchRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		if info.Name() == ".git" {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// Run starts the event loop. It blocks until the context is cancelled.
func (w *FSWatcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	debouncer := NewDebouncer(w.debounce, w.flush)
	// A steady stream of writes cannot postpone delivery forever.
	debouncer.SetMaxWait(10 * w.debounce)
	defer debouncer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			changeType := opToChangeType(event.Op)
			if changeType == "" {
				continue
			}

			// A new directory needs its own recursive watch.
			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = w.WatchRecursive(event.Name)
					continue
				}
			}

			if w.filter != nil && !w.filter.Matches(event.Name) {
				continue
			}

			w.mu.Lock()
			w.pending[event.Name] = ChangeEvent{Path: event.Name, ChangeType: changeType}
			w.mu.Unlock()
			debouncer.Trigger()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watcher error: %w", err)
		}
	}
}

func (w *FSWatcher) flush() {
	w.mu.Lock()
	if len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	batch := make([]ChangeEvent, 0, len(w.pending))
	for _, e := range w.pending {
		batch = append(batch, e)
	}
	w.pending = make(map[string]ChangeEvent)
	w.mu.Unlock()

	sort.Slice(batch, func(i, j int) bool { return batch[i].Path < batch[j].Path })
	if w.onBatch != nil {
		w.onBatch(batch)
	}
}

func opToChangeType(op fsnotify.Op) string {
	switch {
	case op.Has(fsnotify.Create):
		return "create"
	case op.Has(fsnotify.Write):
		return "write"
	case op.Has(fsnotify.Remove):
		return "remove"
	case op.Has(fsnotify.Rename):
		return "rename"
	default:
		return ""
	}
}
