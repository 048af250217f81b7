package thumbnail

import (
	"image"
	"image/color"
	"testing"
)

func TestApplyOrientationNoneForUpright(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	got := applyOrientation(img, 1)
	if got != image.Image(img) {
		t.Error("expected orientation 1 to return the same image unchanged")
	}
}

func TestApplyOrientationRotate90SwapsDimensions(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 6, 3))
	got := applyOrientation(img, 6)
	b := got.Bounds()
	if b.Dx() != 3 || b.Dy() != 6 {
		t.Errorf("rotate90 bounds = %dx%d, want 3x6", b.Dx(), b.Dy())
	}
}

func TestApplyOrientationRotate180PreservesDimensions(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 5, 7))
	img.Set(0, 0, color.RGBA{R: 200, A: 255})
	got := applyOrientation(img, 3)
	b := got.Bounds()
	if b.Dx() != 5 || b.Dy() != 7 {
		t.Errorf("rotate180 bounds = %dx%d, want 5x7", b.Dx(), b.Dy())
	}
	corner := got.At(4, 6)
	r, _, _, _ := corner.RGBA()
	if r>>8 != 200 {
		t.Errorf("expected rotated pixel to carry original corner color, got r=%d", r>>8)
	}
}

func TestApplyOrientationFlipHorizontalPreservesDimensions(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 5, 3))
	got := applyOrientation(img, 2)
	b := got.Bounds()
	if b.Dx() != 5 || b.Dy() != 3 {
		t.Errorf("flipHorizontal bounds = %dx%d, want 5x3", b.Dx(), b.Dy())
	}
}

func TestGuessFormat(t *testing.T) {
	cases := map[string]string{
		"photo.JPG":  "jpg",
		"photo.webp": "webp",
		"noext":      "unknown",
	}
	for path, want := range cases {
		if got := guessFormat(path); got != want {
			t.Errorf("guessFormat(%q) = %q, want %q", path, got, want)
		}
	}
}
