package thumbnail

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
)

func TestIsRAW(t *testing.T) {
	cases := map[string]bool{
		"photo.CR2": true,
		"photo.nef": true,
		"photo.jpg": false,
		"photo.dng": true,
		"photo":     false,
	}
	for name, want := range cases {
		if got := IsRAW(name); got != want {
			t.Errorf("IsRAW(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestScanEmbeddedJPEGFindsLargestBlock(t *testing.T) {
	dir := t.TempDir()
	img := image.NewRGBA(image.Rect(0, 0, 400, 400))
	for y := 0; y < 400; y++ {
		for x := 0; x < 400; x++ {
			v := uint8((x * y) ^ (x + y))
			img.Set(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if buf.Len() <= minEmbeddedJPEGSize {
		t.Fatalf("test jpeg too small to exceed cutoff: %d bytes", buf.Len())
	}

	path := filepath.Join(dir, "fake.nef")
	var raw bytes.Buffer
	raw.WriteString("header noise")
	raw.Write(buf.Bytes())
	raw.WriteString("trailer noise")
	if err := os.WriteFile(path, raw.Bytes(), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	decoded, err := scanEmbeddedJPEG(path)
	if err != nil {
		t.Fatalf("scanEmbeddedJPEG: %v", err)
	}
	b := decoded.Bounds()
	if b.Dx() != 400 || b.Dy() != 400 {
		t.Errorf("decoded size = %dx%d, want 400x400", b.Dx(), b.Dy())
	}
}

func TestScanEmbeddedJPEGNoneFound(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nopreview.arw")
	if err := os.WriteFile(path, []byte("no jpeg markers here at all"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := scanEmbeddedJPEG(path); err == nil {
		t.Fatal("expected error when no embedded JPEG is present")
	}
}

func TestParseCFAPatternAssignsDistinctPositions(t *testing.T) {
	for _, p := range []cfaPattern{cfaRGGB, cfaBGGR, cfaGRBG, cfaGBRG} {
		info := parseCFAPattern(p)
		seen := map[int]bool{info.rPos: true, info.bPos: true, info.grPos: true, info.gbPos: true}
		if len(seen) != 4 {
			t.Errorf("pattern %v: expected 4 distinct positions, got %+v", p, info)
		}
	}
}

func TestDemosaicBayerProducesFullSizeImage(t *testing.T) {
	const w, h = 8, 8
	data := make([]uint16, w*h)
	for i := range data {
		data[i] = uint16(1000 + i*10)
	}
	img := DemosaicBayer(data, w, h, cfaRGGB)
	b := img.Bounds()
	if b.Dx() != w || b.Dy() != h {
		t.Errorf("demosaiced size = %dx%d, want %dx%d", b.Dx(), b.Dy(), w, h)
	}
	// interior pixel should have nonzero alpha and be within the 0-255 range
	c := img.RGBAAt(4, 4)
	if c.A != 255 {
		t.Errorf("expected opaque alpha, got %d", c.A)
	}
}

func TestClamp255(t *testing.T) {
	if clamp255(-5) != 0 {
		t.Error("expected clamp to 0 for negative input")
	}
	if clamp255(300) != 255 {
		t.Error("expected clamp to 255 for overflow input")
	}
	if clamp255(128) != 128 {
		t.Error("expected passthrough for in-range input")
	}
}
