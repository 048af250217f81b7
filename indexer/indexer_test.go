package indexer

import (
	"context"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/photowall/engine/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := store.Open(dbPath, store.Options{Logger: zerolog.Nop()})
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func writeTestJPEG(t *testing.T, dir, name string) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 50, 50))
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: 80}); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return path
}

func TestIndexDirectoryInsertsPhotos(t *testing.T) {
	dir := t.TempDir()
	writeTestJPEG(t, dir, "a.jpg")
	writeTestJPEG(t, dir, "b.jpg")

	st := openTestStore(t)
	ix := New(st, zerolog.Nop())

	result, err := ix.IndexDirectory(context.Background(), dir, DefaultOptions(), nil)
	if err != nil {
		t.Fatalf("IndexDirectory: %v", err)
	}
	if result.Indexed != 2 {
		t.Errorf("expected 2 indexed, got %d (failed=%d failedFiles=%+v)", result.Indexed, result.Failed, result.FailedFiles)
	}

	count, err := st.PhotoCount()
	if err != nil {
		t.Fatalf("PhotoCount: %v", err)
	}
	if count != 2 {
		t.Errorf("expected store to report 2 photos, got %d", count)
	}
}

func TestIndexDirectorySkipsExisting(t *testing.T) {
	dir := t.TempDir()
	writeTestJPEG(t, dir, "a.jpg")

	st := openTestStore(t)
	ix := New(st, zerolog.Nop())

	if _, err := ix.IndexDirectory(context.Background(), dir, DefaultOptions(), nil); err != nil {
		t.Fatalf("first index: %v", err)
	}
	result, err := ix.IndexDirectory(context.Background(), dir, DefaultOptions(), nil)
	if err != nil {
		t.Fatalf("second index: %v", err)
	}
	if result.Skipped != 1 {
		t.Errorf("expected 1 skipped on re-index, got %d", result.Skipped)
	}
}

func TestIndexSingleFileReturnsIndexedTrue(t *testing.T) {
	dir := t.TempDir()
	path := writeTestJPEG(t, dir, "single.jpg")

	st := openTestStore(t)
	ix := New(st, zerolog.Nop())

	indexed, err := ix.IndexSingleFile(context.Background(), path, DefaultOptions())
	if err != nil {
		t.Fatalf("IndexSingleFile: %v", err)
	}
	if !indexed {
		t.Error("expected indexed=true for a new file")
	}

	indexed, err = ix.IndexSingleFile(context.Background(), path, DefaultOptions())
	if err != nil {
		t.Fatalf("IndexSingleFile (second call): %v", err)
	}
	if indexed {
		t.Error("expected indexed=false on re-index of the same path")
	}
}

func TestIndexDirectoryReportsProgress(t *testing.T) {
	dir := t.TempDir()
	writeTestJPEG(t, dir, "a.jpg")
	writeTestJPEG(t, dir, "b.jpg")
	writeTestJPEG(t, dir, "c.jpg")

	st := openTestStore(t)
	ix := New(st, zerolog.Nop())

	var lastProgress Progress
	_, err := ix.IndexDirectory(context.Background(), dir, DefaultOptions(), func(p Progress) {
		lastProgress = p
	})
	if err != nil {
		t.Fatalf("IndexDirectory: %v", err)
	}
	if lastProgress.Total != 3 {
		t.Errorf("expected total 3, got %d", lastProgress.Total)
	}
}
