package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestFSWatcher_DetectsFileWrite(t *testing.T) {
	dir := t.TempDir()

	testFile := filepath.Join(dir, "test.md")
	if err := os.WriteFile(testFile, []byte("initial"), 0600); err != nil {
		t.Fatal(err)
	}

	var batchCount atomic.Int32
	var mu sync.Mutex
	var lastBatch []ChangeEvent

	w, err := NewFSWatcher(50*time.Millisecond, nil, func(batch []ChangeEvent) {
		batchCount.Add(1)
		mu.Lock()
		lastBatch = batch
		mu.Unlock()
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := w.WatchRecursive(dir); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		_ = w.Run(ctx)
	}()

	// Give watcher time to start
	time.Sleep(50 * time.Millisecond)

	if err := os.WriteFile(testFile, []byte("modified"), 0600); err != nil {
		t.Fatal(err)
	}

	// Wait for debounce
	time.Sleep(200 * time.Millisecond)
	cancel()

	if batchCount.Load() == 0 {
		t.Fatal("expected at least one change batch")
	}
	mu.Lock()
	defer mu.Unlock()
	if len(lastBatch) == 0 || lastBatch[0].ChangeType == "" {
		t.Error("expected a non-empty change type in the batch")
	}
}

func TestFSWatcher_BatchesBurstOfChanges(t *testing.T) {
	dir := t.TempDir()

	var mu sync.Mutex
	var batches [][]ChangeEvent

	w, err := NewFSWatcher(100*time.Millisecond, nil, func(batch []ChangeEvent) {
		mu.Lock()
		batches = append(batches, batch)
		mu.Unlock()
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := w.WatchRecursive(dir); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		_ = w.Run(ctx)
	}()

	time.Sleep(50 * time.Millisecond)

	// Two files change within a single debounce window.
	for _, name := range []string{"one.md", "two.md"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0600); err != nil {
			t.Fatal(err)
		}
	}

	time.Sleep(300 * time.Millisecond)
	cancel()

	mu.Lock()
	defer mu.Unlock()
	if len(batches) != 1 {
		t.Fatalf("expected 1 batch, got %d", len(batches))
	}
	if len(batches[0]) != 2 {
		t.Fatalf("expected both files in the batch, got %d entries", len(batches[0]))
	}
	if filepath.Base(batches[0][0].Path) != "one.md" || filepath.Base(batches[0][1].Path) != "two.md" {
		t.Errorf("expected batch sorted by path, got %v", batches[0])
	}
}

func TestFSWatcher_FilterSkipsNonMatching(t *testing.T) {
	dir := t.TempDir()

	var batchCount atomic.Int32

	w, err := NewFSWatcher(50*time.Millisecond, DraftFilter(), func(batch []ChangeEvent) {
		batchCount.Add(1)
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := w.WatchRecursive(dir); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		_ = w.Run(ctx)
	}()

	time.Sleep(50 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(dir, "scratch.tmp"), []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}

	time.Sleep(200 * time.Millisecond)
	cancel()

	if got := batchCount.Load(); got != 0 {
		t.Errorf("expected filtered file to produce no batch, got %d", got)
	}
}

func TestFSWatcher_DetectsNewFileInNewDirectory(t *testing.T) {
	dir := t.TempDir()

	var batchCount atomic.Int32

	w, err := NewFSWatcher(50*time.Millisecond, nil, func(batch []ChangeEvent) {
		batchCount.Add(1)
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := w.WatchRecursive(dir); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		_ = w.Run(ctx)
	}()

	time.Sleep(50 * time.Millisecond)

	// A directory created after startup gets watched too.
	sub := filepath.Join(dir, "sub")
	if err := os.Mkdir(sub, 0700); err != nil {
		t.Fatal(err)
	}
	time.Sleep(50 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(sub, "new.md"), []byte("new content"), 0600); err != nil {
		t.Fatal(err)
	}

	time.Sleep(200 * time.Millisecond)
	cancel()

	if batchCount.Load() == 0 {
		t.Error("expected a change batch for a file in a new subdirectory")
	}
}

func TestFSWatcher_ContextCancellation(t *testing.T) {
	dir := t.TempDir()

	w, err := NewFSWatcher(50*time.Millisecond, nil, func(batch []ChangeEvent) {})
	if err != nil {
		t.Fatal(err)
	}

	if err := w.WatchRecursive(dir); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx)
	}()

	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Error("watcher did not stop after context cancellation")
	}
}
