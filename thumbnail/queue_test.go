package thumbnail

import (
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func writeJPEG(t *testing.T, dir, name string) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 40))
	for y := 0; y < 40; y++ {
		for x := 0; x < 40; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, jpeg.Encode(f, img, &jpeg.Options{Quality: 85}))
	return path
}

func newTestQueue(t *testing.T) (*Queue, *Cache) {
	t.Helper()
	cache, err := NewCache(t.TempDir())
	require.NoError(t, err)
	gen := NewGenerator(cache, 80)
	q := NewQueue(gen, 2, zerolog.Nop())
	q.Start()
	t.Cleanup(q.Stop)
	return q, cache
}

func TestQueueProcessesRequestAndPopulatesCache(t *testing.T) {
	dir := t.TempDir()
	path := writeJPEG(t, dir, "a.jpg")
	q, cache := newTestQueue(t)

	src := Source{Path: path, Fingerprint: "fp-a"}
	q.Enqueue(Request{Source: src, Tiers: []Tier{Tiny}, Priority: PriorityNormal})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, q.Drain(ctx, []string{"fp-a"}))

	// give the worker a moment to finish writing after the item left the heap
	deadline := time.Now().Add(2 * time.Second)
	for !cache.IsCached("fp-a", Tiny) && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	require.True(t, cache.IsCached("fp-a", Tiny))
}

func TestQueueCancelSkipsQueuedRequest(t *testing.T) {
	dir := t.TempDir()
	path := writeJPEG(t, dir, "b.jpg")
	q, cache := newTestQueue(t)

	src := Source{Path: path, Fingerprint: "fp-b"}
	q.Cancel("fp-b")
	q.Enqueue(Request{Source: src, Tiers: []Tier{Tiny}, Priority: PriorityNormal})

	time.Sleep(100 * time.Millisecond)
	require.False(t, cache.IsCached("fp-b", Tiny))
}

func TestRequestHeapOrdersByPriorityThenFIFO(t *testing.T) {
	h := requestHeap{
		{Priority: PriorityBackground, seq: 0},
		{Priority: PriorityVisible, seq: 1},
		{Priority: PriorityNormal, seq: 2},
		{Priority: PriorityVisible, seq: 3},
	}
	require.True(t, h.Less(1, 0))
	require.True(t, h.Less(1, 3)) // same priority, lower seq first
}
