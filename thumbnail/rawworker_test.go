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
)

func TestRAWWorkerExtractsEmbeddedPreview(t *testing.T) {
	dir := t.TempDir()
	img := image.NewGray(image.Rect(0, 0, 400, 400))
	for y := 0; y < 400; y++ {
		for x := 0; x < 400; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8((x * y) ^ (x + y))})
		}
	}
	path := filepath.Join(dir, "shot.nef")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: 95}); err != nil {
		t.Fatalf("encode: %v", err)
	}
	f.Close()

	w := NewRAWWorker(2, 2*time.Second, zerolog.Nop())
	defer w.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	decoded, err := w.Extract(ctx, path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	b := decoded.Bounds()
	if b.Dx() != 400 || b.Dy() != 400 {
		t.Errorf("decoded bounds = %dx%d, want 400x400", b.Dx(), b.Dy())
	}
}

func TestRAWWorkerHonorsContextCancellation(t *testing.T) {
	w := NewRAWWorker(1, time.Second, zerolog.Nop())
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := w.Extract(ctx, "/nonexistent/path.cr2"); err == nil {
		t.Fatal("expected error from canceled context")
	}
}
