// Package thumbnail generates and caches multi-resolution WebP previews of
// indexed photos, including best-effort preview extraction for RAW formats
// via embedded-JPEG scanning or Bayer demosaicing.
package thumbnail

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Tier is one of the four cache resolutions this engine maintains. Tiny is
// first-class alongside the other three: every cache operation (paths,
// enumeration, cleanup, stats) walks all four.
type Tier string

const (
	Tiny   Tier = "tiny"
	Small  Tier = "small"
	Medium Tier = "medium"
	Large  Tier = "large"
)

// Tiers lists every tier in smallest-to-largest order.
var Tiers = []Tier{Tiny, Small, Medium, Large}

// Dimension returns the recommended square pixel size for a tier.
func (t Tier) Dimension() int {
	switch t {
	case Tiny:
		return 150
	case Small:
		return 300
	case Medium:
		return 500
	case Large:
		return 800
	default:
		return 300
	}
}

// Cache maps (fingerprint, tier) to a WebP file on disk under a root
// directory, organized cacheDir/<tier>/<fingerprint>.webp.
type Cache struct {
	root string
}

// NewCache creates a Cache rooted at dir, ensuring every tier subdirectory
// exists.
func NewCache(dir string) (*Cache, error) {
	c := &Cache{root: dir}
	if err := c.ensureDirs(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Cache) ensureDirs() error {
	for _, t := range Tiers {
		if err := os.MkdirAll(filepath.Join(c.root, string(t)), 0o755); err != nil {
			return fmt.Errorf("thumbnail: create cache dir for tier %s: %w", t, err)
		}
	}
	return nil
}

// DefaultCacheDir returns os.UserCacheDir()/photowall/thumbnails, the
// fallback root when no explicit cache directory is configured.
func DefaultCacheDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("thumbnail: resolve user cache dir: %w", err)
	}
	return filepath.Join(base, "photowall", "thumbnails"), nil
}

// Path returns the on-disk path for a fingerprint at a given tier,
// regardless of whether it has been generated yet.
func (c *Cache) Path(fingerprint string, tier Tier) string {
	return filepath.Join(c.root, string(tier), fingerprint+".webp")
}

// IsCached reports whether a thumbnail already exists for fingerprint at tier.
func (c *Cache) IsCached(fingerprint string, tier Tier) bool {
	_, err := os.Stat(c.Path(fingerprint, tier))
	return err == nil
}

// Put writes already-encoded WebP bytes into the cache.
func (c *Cache) Put(fingerprint string, tier Tier, data []byte) (string, error) {
	path := c.Path(fingerprint, tier)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("thumbnail: write cache file: %w", err)
	}
	return path, nil
}

// Delete removes every tier's cached thumbnail for fingerprint. Missing
// files are not an error.
func (c *Cache) Delete(fingerprint string) error {
	for _, t := range Tiers {
		path := c.Path(fingerprint, t)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("thumbnail: delete %s: %w", path, err)
		}
	}
	return nil
}

// CleanupOlderThan deletes cached thumbnails (across all tiers) whose file
// modification time is older than maxAge, returning the count removed.
func (c *Cache) CleanupOlderThan(maxAge time.Duration) (CleanupStats, error) {
	var stats CleanupStats
	cutoff := time.Now().Add(-maxAge)

	for _, t := range Tiers {
		dir := filepath.Join(c.root, string(t))
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return stats, fmt.Errorf("thumbnail: read cache dir %s: %w", dir, err)
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			info, err := e.Info()
			if err != nil {
				continue
			}
			if info.ModTime().Before(cutoff) {
				path := filepath.Join(dir, e.Name())
				if err := os.Remove(path); err == nil {
					stats.FilesRemoved++
					stats.BytesFreed += info.Size()
				}
			}
		}
	}
	return stats, nil
}

// CleanupStats summarizes one cleanup pass.
type CleanupStats struct {
	FilesRemoved int
	BytesFreed   int64
}

// Stats summarizes the current contents of the cache.
type Stats struct {
	PerTier   map[Tier]TierStats
	TotalSize int64
}

// TierStats is one tier's file count and total size.
type TierStats struct {
	Count int
	Size  int64
}

// GetStats walks the cache directory tree and reports per-tier counts and
// sizes, used by a host UI's storage-usage view.
func (c *Cache) GetStats() (Stats, error) {
	stats := Stats{PerTier: make(map[Tier]TierStats, len(Tiers))}
	for _, t := range Tiers {
		dir := filepath.Join(c.root, string(t))
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				stats.PerTier[t] = TierStats{}
				continue
			}
			return stats, fmt.Errorf("thumbnail: read cache dir %s: %w", dir, err)
		}
		var ts TierStats
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			info, err := e.Info()
			if err != nil {
				continue
			}
			ts.Count++
			ts.Size += info.Size()
		}
		stats.PerTier[t] = ts
		stats.TotalSize += ts.Size
	}
	return stats, nil
}
