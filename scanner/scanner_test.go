package scanner

import (
	"os"
	"path/filepath"
	"testing"
)

func mustMkdirAll(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatalf("MkdirAll %s: %v", path, err)
	}
}

func mustWriteFile(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile %s: %v", path, err)
	}
}

func TestIsSupportedImage(t *testing.T) {
	cases := map[string]bool{
		"photo.jpg": true, "photo.JPG": true, "photo.cr2": true,
		"photo.txt": false, "noext": false,
	}
	for name, want := range cases {
		if got := IsSupportedImage(name); got != want {
			t.Errorf("IsSupportedImage(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestScanDirectoryRecursive(t *testing.T) {
	root := t.TempDir()
	mustMkdirAll(t, filepath.Join(root, "sub"))
	mustWriteFile(t, filepath.Join(root, "a.jpg"))
	mustWriteFile(t, filepath.Join(root, "sub", "b.png"))
	mustWriteFile(t, filepath.Join(root, "notes.txt"))

	res, err := ScanDirectory(root, DefaultOptions())
	if err != nil {
		t.Fatalf("ScanDirectory: %v", err)
	}
	if len(res.Files) != 2 {
		t.Fatalf("expected 2 image files, got %d: %v", len(res.Files), res.Files)
	}
}

func TestScanDirectoryNonRecursive(t *testing.T) {
	root := t.TempDir()
	mustMkdirAll(t, filepath.Join(root, "sub"))
	mustWriteFile(t, filepath.Join(root, "a.jpg"))
	mustWriteFile(t, filepath.Join(root, "sub", "b.png"))

	opts := DefaultOptions()
	opts.Recursive = false
	res, err := ScanDirectory(root, opts)
	if err != nil {
		t.Fatalf("ScanDirectory: %v", err)
	}
	if len(res.Files) != 1 {
		t.Fatalf("expected 1 file (non-recursive), got %d: %v", len(res.Files), res.Files)
	}
}

func TestScanDirectorySkipsHiddenAndExcluded(t *testing.T) {
	root := t.TempDir()
	mustMkdirAll(t, filepath.Join(root, ".hidden"))
	mustMkdirAll(t, filepath.Join(root, "node_modules"))
	mustWriteFile(t, filepath.Join(root, ".hidden", "a.jpg"))
	mustWriteFile(t, filepath.Join(root, "node_modules", "b.jpg"))
	mustWriteFile(t, filepath.Join(root, "visible.jpg"))

	res, err := ScanDirectory(root, DefaultOptions())
	if err != nil {
		t.Fatalf("ScanDirectory: %v", err)
	}
	if len(res.Files) != 1 {
		t.Fatalf("expected 1 visible file, got %d: %v", len(res.Files), res.Files)
	}
}

func TestScanDirectoriesMergesMultipleRoots(t *testing.T) {
	rootA := t.TempDir()
	rootB := t.TempDir()
	mustWriteFile(t, filepath.Join(rootA, "a.jpg"))
	mustWriteFile(t, filepath.Join(rootB, "b.jpg"))

	results := ScanDirectories([]string{rootA, rootB}, DefaultOptions())
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	total := 0
	for _, r := range results {
		total += len(r.Files)
	}
	if total != 2 {
		t.Errorf("expected 2 files total, got %d", total)
	}
}
