package main

import (
	"github.com/spf13/cobra"

	"github.com/photowall/engine/config"
	"github.com/photowall/engine/events"
	"github.com/photowall/engine/photowall"
)

// openLibrary resolves --db/--thumbnails against the OS-standard app
// directory (config.NewDefaultPathProvider) unless overridden, loads
// settings.json from that same directory, and opens the facade.
func openLibrary(cmd *cobra.Command) (*photowall.Library, error) {
	dbOverride, _ := cmd.Flags().GetString("db")
	thumbOverride, _ := cmd.Flags().GetString("thumbnails")

	defaults, err := config.NewDefaultPathProvider("")
	if err != nil {
		return nil, err
	}
	var paths config.PathProvider = defaults
	if dbOverride != "" || thumbOverride != "" {
		paths = overridePaths{
			base:      paths,
			db:        dbOverride,
			thumbRoot: thumbOverride,
		}
	}

	settings, err := config.Load(paths.ConfigPath())
	if err != nil {
		return nil, err
	}

	return photowall.Open(paths, settings, events.NopSink{})
}

// overridePaths lets --db/--thumbnails replace individual paths from an
// otherwise-default PathProvider without re-deriving the whole layout.
type overridePaths struct {
	base      config.PathProvider
	db        string
	thumbRoot string
}

func (p overridePaths) DatabasePath() string {
	if p.db != "" {
		return p.db
	}
	return p.base.DatabasePath()
}

func (p overridePaths) ThumbnailRoot() string {
	if p.thumbRoot != "" {
		return p.thumbRoot
	}
	return p.base.ThumbnailRoot()
}

func (p overridePaths) ConfigPath() string { return p.base.ConfigPath() }
func (p overridePaths) LogDir() string     { return p.base.LogDir() }
