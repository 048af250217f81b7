package store

import (
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "test.db"), Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s
}

func TestOpenCreatesSchema(t *testing.T) {
	s := openTestStore(t)
	defer s.Close()

	v, err := s.SchemaVersion()
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if v != schemaVersion {
		t.Errorf("expected schema version %d, got %d", schemaVersion, v)
	}
}

func TestOpenReopenMigratesIdempotently(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")

	s1, err := Open(path, Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	s1.Close()

	s2, err := Open(path, Options{})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()

	v, err := s2.SchemaVersion()
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if v != schemaVersion {
		t.Errorf("expected schema version %d after reopen, got %d", schemaVersion, v)
	}
}

func TestAddAndGetPhoto(t *testing.T) {
	s := openTestStore(t)
	defer s.Close()

	width := 4000
	p, err := s.AddPhoto(NewPhoto{
		FilePath: "/photos/2024/img001.jpg",
		FileName: "img001.jpg",
		FileSize: 1024,
		FileHash: "abc123",
		Width:    &width,
	})
	if err != nil {
		t.Fatalf("AddPhoto: %v", err)
	}
	if p.ID == 0 {
		t.Fatal("expected non-zero photo id")
	}

	got, err := s.GetPhoto(p.ID)
	if err != nil {
		t.Fatalf("GetPhoto: %v", err)
	}
	if got.FilePath != p.FilePath {
		t.Errorf("expected path %s, got %s", p.FilePath, got.FilePath)
	}
	if got.Width == nil || *got.Width != width {
		t.Errorf("expected width %d, got %v", width, got.Width)
	}
	if got.Orientation != 1 {
		t.Errorf("expected default orientation 1, got %d", got.Orientation)
	}
}

func TestAddPhotoDuplicatePathFails(t *testing.T) {
	s := openTestStore(t)
	defer s.Close()

	np := NewPhoto{FilePath: "/a/b.jpg", FileName: "b.jpg", FileSize: 1, FileHash: "h"}
	if _, err := s.AddPhoto(np); err != nil {
		t.Fatalf("first AddPhoto: %v", err)
	}
	if _, err := s.AddPhoto(np); err == nil {
		t.Fatal("expected duplicate file_path to fail")
	}
}

func TestTrashAndRestorePhoto(t *testing.T) {
	s := openTestStore(t)
	defer s.Close()

	p, err := s.AddPhoto(NewPhoto{FilePath: "/a/c.jpg", FileName: "c.jpg", FileSize: 1, FileHash: "h"})
	if err != nil {
		t.Fatalf("AddPhoto: %v", err)
	}

	if err := s.TrashPhoto(p.ID); err != nil {
		t.Fatalf("TrashPhoto: %v", err)
	}
	got, err := s.GetPhoto(p.ID)
	if err != nil {
		t.Fatalf("GetPhoto: %v", err)
	}
	if !got.IsDeleted {
		t.Error("expected photo to be marked deleted")
	}

	if err := s.RestorePhoto(p.ID); err != nil {
		t.Fatalf("RestorePhoto: %v", err)
	}
	got, err = s.GetPhoto(p.ID)
	if err != nil {
		t.Fatalf("GetPhoto: %v", err)
	}
	if got.IsDeleted {
		t.Error("expected photo to be restored")
	}
}

func TestGetOrCreateTag(t *testing.T) {
	s := openTestStore(t)
	defer s.Close()

	t1, err := s.GetOrCreateTag("sunset", nil)
	if err != nil {
		t.Fatalf("GetOrCreateTag: %v", err)
	}
	t2, err := s.GetOrCreateTag("sunset", nil)
	if err != nil {
		t.Fatalf("GetOrCreateTag (again): %v", err)
	}
	if t1.ID != t2.ID {
		t.Errorf("expected same tag id, got %d and %d", t1.ID, t2.ID)
	}
}

func TestTagPhotoAndQuery(t *testing.T) {
	s := openTestStore(t)
	defer s.Close()

	p, _ := s.AddPhoto(NewPhoto{FilePath: "/a/d.jpg", FileName: "d.jpg", FileSize: 1, FileHash: "h"})
	tag, _ := s.GetOrCreateTag("beach", nil)

	if err := s.TagPhoto(p.ID, tag.ID); err != nil {
		t.Fatalf("TagPhoto: %v", err)
	}

	page, err := s.SearchPhotosCursor(SearchFilters{TagNames: []string{"beach"}}, SortDateAdded, Desc, nil, 10)
	if err != nil {
		t.Fatalf("SearchPhotosCursor: %v", err)
	}
	if len(page.Photos) != 1 || page.Photos[0].ID != p.ID {
		t.Errorf("expected to find tagged photo, got %d results", len(page.Photos))
	}
}

func TestSearchPhotosCursorPaginates(t *testing.T) {
	s := openTestStore(t)
	defer s.Close()

	for i := 0; i < 5; i++ {
		_, err := s.AddPhoto(NewPhoto{
			FilePath: filepath.Join("/a", filepathName(i)),
			FileName: filepathName(i),
			FileSize: 1,
			FileHash: "h",
		})
		if err != nil {
			t.Fatalf("AddPhoto %d: %v", i, err)
		}
	}

	var seen []int64
	var cursor *Cursor
	for {
		page, err := s.SearchPhotosCursor(SearchFilters{}, SortDateAdded, Asc, cursor, 2)
		if err != nil {
			t.Fatalf("SearchPhotosCursor: %v", err)
		}
		for _, p := range page.Photos {
			seen = append(seen, p.ID)
		}
		if !page.HasMore {
			break
		}
		cursor = page.NextCursor
	}

	if len(seen) != 5 {
		t.Fatalf("expected 5 photos across pages, got %d", len(seen))
	}
	for i := 1; i < len(seen); i++ {
		if seen[i] <= seen[i-1] {
			t.Errorf("expected ascending ids, got %v", seen)
			break
		}
	}
}

func filepathName(i int) string {
	return string(rune('a'+i)) + ".jpg"
}

func TestFolderCounts(t *testing.T) {
	s := openTestStore(t)
	defer s.Close()

	_, _ = s.AddPhoto(NewPhoto{FilePath: "/root/2024/a.jpg", FileName: "a.jpg", FileSize: 1, FileHash: "h1"})
	_, _ = s.AddPhoto(NewPhoto{FilePath: "/root/2024/sub/b.jpg", FileName: "b.jpg", FileSize: 1, FileHash: "h2"})

	direct, recursive, err := s.GetFolderPhotoCounts("/root/2024")
	if err != nil {
		t.Fatalf("GetFolderPhotoCounts: %v", err)
	}
	if direct != 1 {
		t.Errorf("expected 1 direct photo, got %d", direct)
	}
	if recursive != 2 {
		t.Errorf("expected 2 recursive photos, got %d", recursive)
	}
}

func TestScanDirectoryLifecycle(t *testing.T) {
	s := openTestStore(t)
	defer s.Close()

	d, err := s.GetOrCreateScanDirectory("/photos")
	if err != nil {
		t.Fatalf("GetOrCreateScanDirectory: %v", err)
	}
	if d.ScanMultiplier != 1 {
		t.Errorf("expected default multiplier 1, got %d", d.ScanMultiplier)
	}

	if err := s.RecordScanResult("/photos", "2024-01-01T00:00:00Z", "2024-01-01T00:05:00Z", 3, 2, 10, nil); err != nil {
		t.Fatalf("RecordScanResult: %v", err)
	}

	got, err := s.GetScanDirectoryByPath("/photos")
	if err != nil {
		t.Fatalf("GetScanDirectoryByPath: %v", err)
	}
	if got.NoChangeCount != 3 || got.ScanMultiplier != 2 || got.FileCount != 10 {
		t.Errorf("unexpected scan directory state: %+v", got)
	}
}
