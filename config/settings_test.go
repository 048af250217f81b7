package config

import (
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Scan.ScanIntervalSecs != 300 {
		t.Errorf("expected default scan interval 300, got %d", s.Scan.ScanIntervalSecs)
	}
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Config", "settings.json")
	s := Default()
	s.Theme = "dark"
	s.Scan.WatchedFolders = []string{"/photos/2024"}

	if err := Save(path, s); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Theme != "dark" {
		t.Errorf("expected theme dark, got %s", loaded.Theme)
	}
	if len(loaded.Scan.WatchedFolders) != 1 || loaded.Scan.WatchedFolders[0] != "/photos/2024" {
		t.Errorf("unexpected watched folders: %+v", loaded.Scan.WatchedFolders)
	}
}

func TestNormalizeFloorsScanInterval(t *testing.T) {
	s := Settings{Scan: ScanSettings{ScanIntervalSecs: 5}}
	s.Normalize()
	if s.Scan.ScanIntervalSecs != minScanIntervalSecs {
		t.Errorf("expected floor %d, got %d", minScanIntervalSecs, s.Scan.ScanIntervalSecs)
	}
}

func TestNormalizeFixesInvalidQuality(t *testing.T) {
	s := Settings{Thumbnail: ThumbnailSettings{Quality: 0}}
	s.Normalize()
	if s.Thumbnail.Quality != 82 {
		t.Errorf("expected default quality 82, got %d", s.Thumbnail.Quality)
	}
}

func TestDefaultPathProviderLayout(t *testing.T) {
	p := NewPathProviderAt("/tmp/photowall-test")
	if p.DatabasePath() != "/tmp/photowall-test/Database/photowall.db" {
		t.Errorf("unexpected db path: %s", p.DatabasePath())
	}
	if p.ThumbnailRoot() != "/tmp/photowall-test/Thumbnails" {
		t.Errorf("unexpected thumbnail root: %s", p.ThumbnailRoot())
	}
	if p.ConfigPath() != "/tmp/photowall-test/Config/settings.json" {
		t.Errorf("unexpected config path: %s", p.ConfigPath())
	}
}
