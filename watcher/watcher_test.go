package watcher

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type collector struct {
	mu      sync.Mutex
	changes []Change
}

func (c *collector) add(ch Change) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.changes = append(c.changes, ch)
}

func (c *collector) snapshot() []Change {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Change, len(c.changes))
	copy(out, c.changes)
	return out
}

func TestWatcherDetectsFileCreation(t *testing.T) {
	dir := t.TempDir()
	col := &collector{}

	opts := Options{ImagesOnly: true, Debounce: 50 * time.Millisecond}
	w, err := New(opts, zerolog.Nop(), col.add)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	if err := w.AddRoot(dir); err != nil {
		t.Fatalf("AddRoot: %v", err)
	}
	w.Start()

	path := filepath.Join(dir, "new.jpg")
	if err := os.WriteFile(path, []byte("fake jpeg bytes"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for len(col.snapshot()) == 0 && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}

	changes := col.snapshot()
	if len(changes) == 0 {
		t.Fatal("expected at least one change event for file creation")
	}
	found := false
	for _, c := range changes {
		if c.Path == path {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an event for %s, got %+v", path, changes)
	}
}

func TestWatcherImagesOnlyFiltersNonImages(t *testing.T) {
	dir := t.TempDir()
	col := &collector{}

	opts := Options{ImagesOnly: true, Debounce: 50 * time.Millisecond}
	w, err := New(opts, zerolog.Nop(), col.add)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	if err := w.AddRoot(dir); err != nil {
		t.Fatalf("AddRoot: %v", err)
	}
	w.Start()

	path := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(path, []byte("not an image"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	time.Sleep(300 * time.Millisecond)
	if len(col.snapshot()) != 0 {
		t.Errorf("expected non-image file to be filtered out, got %+v", col.snapshot())
	}
}

func TestDebounceCoalescesRapidWrites(t *testing.T) {
	dir := t.TempDir()
	col := &collector{}

	opts := Options{ImagesOnly: true, Debounce: 200 * time.Millisecond}
	w, err := New(opts, zerolog.Nop(), col.add)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	if err := w.AddRoot(dir); err != nil {
		t.Fatalf("AddRoot: %v", err)
	}
	w.Start()

	path := filepath.Join(dir, "busy.png")
	for i := 0; i < 5; i++ {
		os.WriteFile(path, []byte{byte(i)}, 0o644)
		time.Sleep(20 * time.Millisecond)
	}

	time.Sleep(500 * time.Millisecond)
	changes := col.snapshot()
	count := 0
	for _, c := range changes {
		if c.Path == path {
			count++
		}
	}
	if count == 0 {
		t.Fatal("expected at least one coalesced event")
	}
	if count > 2 {
		t.Errorf("expected rapid writes to coalesce to ~1 event, got %d", count)
	}
}
