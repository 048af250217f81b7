package hasher

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "f.bin")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestHashFileDeterministic(t *testing.T) {
	path := writeTempFile(t, "hello world")

	h1, err := HashFile(path)
	if err != nil {
		t.Fatalf("HashFile: %v", err)
	}
	h2, err := HashFile(path)
	if err != nil {
		t.Fatalf("HashFile: %v", err)
	}
	if h1 != h2 {
		t.Errorf("expected stable hash, got %s and %s", h1, h2)
	}
	if len(h1) != 16 {
		t.Errorf("expected 16 hex chars, got %d (%s)", len(h1), h1)
	}
}

func TestHashFileDiffersByContent(t *testing.T) {
	a := writeTempFile(t, "content a")
	b := writeTempFile(t, "content b")

	ha, _ := HashFile(a)
	hb, _ := HashFile(b)
	if ha == hb {
		t.Error("expected different content to hash differently")
	}
}

func TestQuickFingerprintChangesWithSize(t *testing.T) {
	path := writeTempFile(t, "short")
	fp1, err := QuickFingerprint(path)
	if err != nil {
		t.Fatalf("QuickFingerprint: %v", err)
	}

	if err := os.WriteFile(path, []byte("a much longer replacement body"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	fp2, err := QuickFingerprint(path)
	if err != nil {
		t.Fatalf("QuickFingerprint: %v", err)
	}

	if fp1 == fp2 {
		t.Error("expected fingerprint to change when file size changes")
	}
}

func TestFilesEqual(t *testing.T) {
	a := writeTempFile(t, "same")
	b := writeTempFile(t, "same")
	c := writeTempFile(t, "different")

	eq, err := FilesEqual(a, b)
	if err != nil {
		t.Fatalf("FilesEqual: %v", err)
	}
	if !eq {
		t.Error("expected identical content to compare equal")
	}

	eq, err = FilesEqual(a, c)
	if err != nil {
		t.Fatalf("FilesEqual: %v", err)
	}
	if eq {
		t.Error("expected different content to compare unequal")
	}
}

func TestHashFilesParallelPreservesOrder(t *testing.T) {
	paths := []string{
		writeTempFile(t, "one"),
		writeTempFile(t, "two"),
		writeTempFile(t, "three"),
	}
	results := HashFilesParallel(paths, 2)
	if len(results) != len(paths) {
		t.Fatalf("expected %d results, got %d", len(paths), len(results))
	}
	for i, r := range results {
		if r.Path != paths[i] {
			t.Errorf("result %d: expected path %s, got %s", i, paths[i], r.Path)
		}
		if r.Err != nil {
			t.Errorf("result %d: unexpected error %v", i, r.Err)
		}
	}
}
