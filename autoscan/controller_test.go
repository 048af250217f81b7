package autoscan

import (
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/photowall/engine/events"
	"github.com/photowall/engine/indexer"
	"github.com/photowall/engine/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"), store.Options{Logger: zerolog.Nop()})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func writeJPEG(t *testing.T, dir, name string) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 30, 30))
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, jpeg.Encode(f, img, &jpeg.Options{Quality: 75}))
	return path
}

func TestCanonicalRootsDedupsAndSorts(t *testing.T) {
	got := canonicalRoots([]string{"/b", "/a", "/b", "/a/"})
	require.Equal(t, []string{"/a", "/b"}, got)
}

func TestEqualConfigDetectsRootChange(t *testing.T) {
	a := Config{Roots: []string{"/a", "/b"}, BaseInterval: time.Minute}
	b := Config{Roots: []string{"/a"}, BaseInterval: time.Minute}
	require.False(t, equalConfig(a, b))

	c := Config{Roots: []string{"/b", "/a"}, BaseInterval: time.Minute}
	require.True(t, equalConfig(a, c))
}

func TestApplySettingsStopsWhenNoRoots(t *testing.T) {
	st := openTestStore(t)
	ix := indexer.New(st, zerolog.Nop())
	col := events.NewCollectorSink()
	c := New(st, ix, col, zerolog.Nop())

	dir := t.TempDir()
	writeJPEG(t, dir, "a.jpg")

	require.NoError(t, c.ApplySettings(Config{
		Roots:        []string{dir},
		BaseInterval: time.Minute,
		IndexOptions: indexer.DefaultOptions(),
	}))
	require.True(t, c.running)

	require.NoError(t, c.ApplySettings(Config{}))
	require.False(t, c.running)
}

func TestApplySettingsNoopOnUnchangedConfig(t *testing.T) {
	st := openTestStore(t)
	ix := indexer.New(st, zerolog.Nop())
	c := New(st, ix, events.NopSink{}, zerolog.Nop())

	dir := t.TempDir()
	cfg := Config{Roots: []string{dir}, BaseInterval: time.Minute, IndexOptions: indexer.DefaultOptions()}
	require.NoError(t, c.ApplySettings(cfg))
	gen1 := c.currentGeneration()

	require.NoError(t, c.ApplySettings(cfg))
	gen2 := c.currentGeneration()
	require.Equal(t, gen1, gen2, "unchanged config should not bump the generation counter")

	c.Stop()
}

func TestSyncScanDirectoriesDeactivatesUnwatchedRoots(t *testing.T) {
	st := openTestStore(t)
	ix := indexer.New(st, zerolog.Nop())
	c := New(st, ix, events.NopSink{}, zerolog.Nop())

	dirA := t.TempDir()
	dirB := t.TempDir()

	require.NoError(t, c.ApplySettings(Config{Roots: []string{dirA, dirB}, BaseInterval: time.Minute, IndexOptions: indexer.DefaultOptions()}))
	c.Stop()

	require.NoError(t, c.ApplySettings(Config{Roots: []string{dirA}, BaseInterval: time.Minute, IndexOptions: indexer.DefaultOptions()}))
	c.Stop()

	sdB, err := st.GetScanDirectoryByPath(dirB)
	require.NoError(t, err)
	require.NotNil(t, sdB)
	require.False(t, sdB.IsActive)

	sdA, err := st.GetScanDirectoryByPath(dirA)
	require.NoError(t, err)
	require.True(t, sdA.IsActive)
}
