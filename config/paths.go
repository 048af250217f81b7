package config

import (
	"os"
	"path/filepath"
)

// PathProvider resolves the on-disk locations the engine persists into.
// Injected rather than hardcoded so tests and alternate hosts can redirect
// storage without touching package internals.
type PathProvider interface {
	DatabasePath() string
	ThumbnailRoot() string
	ConfigPath() string
	LogDir() string
}

// DefaultPathProvider lays out state the way a desktop installation would,
// rooted under the OS's standard per-user application data directory.
type DefaultPathProvider struct {
	appDir string
}

// NewDefaultPathProvider resolves the app directory under
// os.UserConfigDir()/photowall. appName overrides the "photowall" segment
// when non-empty, for multi-instance testing.
func NewDefaultPathProvider(appName string) (*DefaultPathProvider, error) {
	if appName == "" {
		appName = "photowall"
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return nil, err
	}
	return &DefaultPathProvider{appDir: filepath.Join(base, appName)}, nil
}

// NewPathProviderAt roots every path under dir directly, bypassing OS
// directory resolution. Used by tests.
func NewPathProviderAt(dir string) *DefaultPathProvider {
	return &DefaultPathProvider{appDir: dir}
}

func (p *DefaultPathProvider) DatabasePath() string {
	return filepath.Join(p.appDir, "Database", "photowall.db")
}

func (p *DefaultPathProvider) ThumbnailRoot() string {
	return filepath.Join(p.appDir, "Thumbnails")
}

func (p *DefaultPathProvider) ConfigPath() string {
	return filepath.Join(p.appDir, "Config", "settings.json")
}

func (p *DefaultPathProvider) LogDir() string {
	return filepath.Join(p.appDir, "Logs")
}
