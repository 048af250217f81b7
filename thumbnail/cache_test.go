package thumbnail

import (
	"testing"
	"time"
)

func TestNewCacheCreatesTierDirs(t *testing.T) {
	dir := t.TempDir()
	c, err := NewCache(dir)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	for _, tier := range Tiers {
		if c.IsCached("nonexistent", tier) {
			t.Errorf("expected nothing cached yet for tier %s", tier)
		}
	}
	if _, err := c.GetStats(); err != nil {
		t.Fatalf("GetStats on fresh cache: %v", err)
	}
}

func TestCachePutAndIsCached(t *testing.T) {
	c, err := NewCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	if c.IsCached("fp1", Small) {
		t.Fatal("expected not cached before Put")
	}
	if _, err := c.Put("fp1", Small, []byte("webp-bytes")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if !c.IsCached("fp1", Small) {
		t.Fatal("expected cached after Put")
	}
	if c.IsCached("fp1", Tiny) {
		t.Fatal("expected tier isolation: fp1 not cached at Tiny")
	}
}

func TestCacheDeleteRemovesAllTiers(t *testing.T) {
	c, err := NewCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	for _, tier := range Tiers {
		if _, err := c.Put("fp2", tier, []byte("data")); err != nil {
			t.Fatalf("Put %s: %v", tier, err)
		}
	}
	if err := c.Delete("fp2"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	for _, tier := range Tiers {
		if c.IsCached("fp2", tier) {
			t.Errorf("expected fp2 removed from tier %s", tier)
		}
	}
}

func TestCacheDeleteToleratesMissingFiles(t *testing.T) {
	c, err := NewCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	if err := c.Delete("never-existed"); err != nil {
		t.Fatalf("Delete on missing fingerprint should not error: %v", err)
	}
}

func TestCacheGetStatsCountsAcrossTiers(t *testing.T) {
	c, err := NewCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	if _, err := c.Put("fp3", Tiny, []byte("12345")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, err := c.Put("fp4", Large, []byte("1234567890")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	stats, err := c.GetStats()
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if stats.PerTier[Tiny].Count != 1 || stats.PerTier[Tiny].Size != 5 {
		t.Errorf("unexpected tiny stats: %+v", stats.PerTier[Tiny])
	}
	if stats.PerTier[Large].Count != 1 || stats.PerTier[Large].Size != 10 {
		t.Errorf("unexpected large stats: %+v", stats.PerTier[Large])
	}
	if stats.TotalSize != 15 {
		t.Errorf("expected total size 15, got %d", stats.TotalSize)
	}
}

func TestCacheCleanupOlderThanRemovesStaleFiles(t *testing.T) {
	c, err := NewCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	if _, err := c.Put("old", Medium, []byte("stale")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	stats, err := c.CleanupOlderThan(-1 * time.Second) // everything is "older" than now+1s in the past
	if err != nil {
		t.Fatalf("CleanupOlderThan: %v", err)
	}
	if stats.FilesRemoved != 1 {
		t.Errorf("expected 1 file removed, got %d", stats.FilesRemoved)
	}
	if c.IsCached("old", Medium) {
		t.Error("expected stale file removed from cache")
	}
}

func TestTierDimensions(t *testing.T) {
	want := map[Tier]int{Tiny: 150, Small: 300, Medium: 500, Large: 800}
	for tier, dim := range want {
		if got := tier.Dimension(); got != dim {
			t.Errorf("%s.Dimension() = %d, want %d", tier, got, dim)
		}
	}
}
