package thumbnail

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/h2non/bimg"
	"github.com/rs/zerolog"

	"github.com/photowall/engine/hasher"
	"github.com/photowall/engine/metrics"
)

// rawPreviewTimeout bounds a single RAW preview extraction, per §4.8's "a
// single long-lived worker... bounded request queue" design.
const rawPreviewTimeout = 10 * time.Second

// rawPreviewQueueDepth caps how many RAW extraction requests may wait
// behind the single worker before callers block.
const rawPreviewQueueDepth = 8

// Source describes the file a thumbnail is generated from.
type Source struct {
	Path        string
	Fingerprint string
	Orientation int // EXIF orientation 1-8; 0/1 means no correction needed
}

// Generator produces WebP thumbnails at every tier for a Source and stores
// them in a Cache.
type Generator struct {
	cache     *Cache
	quality   int
	rawWorker *RAWWorker
}

// NewGenerator builds a Generator writing into cache at the given WebP
// quality (1-100). It owns a single serialized RAW preview worker (§4.8);
// call Close to stop it.
func NewGenerator(cache *Cache, quality int) *Generator {
	if quality <= 0 || quality > 100 {
		quality = 82
	}
	return &Generator{
		cache:     cache,
		quality:   quality,
		rawWorker: NewRAWWorker(rawPreviewQueueDepth, rawPreviewTimeout, zerolog.Nop()),
	}
}

// Close stops the generator's RAW preview worker.
func (g *Generator) Close() {
	g.rawWorker.Close()
}

// SetMetrics wires a Metrics bundle into the generator's RAW preview worker.
func (g *Generator) SetMetrics(m *metrics.Metrics) {
	g.rawWorker.SetMetrics(m)
}

// GetOrGenerate returns the cached thumbnail path for src at tier,
// generating (and caching) it first if missing.
func (g *Generator) GetOrGenerate(src Source, tier Tier) (string, error) {
	if g.cache.IsCached(src.Fingerprint, tier) {
		return g.cache.Path(src.Fingerprint, tier), nil
	}
	return g.Generate(src, tier)
}

// Generate renders src at tier unconditionally, overwriting any existing
// cache entry.
func (g *Generator) Generate(src Source, tier Tier) (string, error) {
	buf, err := g.render(src, tier)
	if err != nil {
		return "", err
	}
	return g.cache.Put(src.Fingerprint, tier, buf)
}

// GenerateAll renders every tier for src, stopping at the first error.
func (g *Generator) GenerateAll(src Source) (map[Tier]string, error) {
	paths := make(map[Tier]string, len(Tiers))
	for _, t := range Tiers {
		p, err := g.Generate(src, t)
		if err != nil {
			return nil, fmt.Errorf("thumbnail: generate tier %s for %s: %w", t, src.Path, err)
		}
		paths[t] = p
	}
	return paths, nil
}

func (g *Generator) render(src Source, tier Tier) ([]byte, error) {
	dim := tier.Dimension()

	if IsRAW(src.Path) {
		img, err := g.rawWorker.Extract(context.Background(), src.Path)
		if err != nil {
			return nil, err
		}
		return g.encodeImage(applyOrientation(img, src.Orientation), dim)
	}

	raw, err := os.ReadFile(src.Path)
	if err != nil {
		return nil, fmt.Errorf("thumbnail: read source %s: %w", src.Path, err)
	}

	if src.Orientation > 1 {
		img, _, decErr := image.Decode(bytes.NewReader(raw))
		if decErr != nil {
			return nil, fmt.Errorf("thumbnail: decode %s: %w", src.Path, decErr)
		}
		return g.encodeImage(applyOrientation(img, src.Orientation), dim)
	}

	return g.encodeBuffer(raw, dim)
}

// encodeBuffer resizes and WebP-encodes an already-encoded image buffer
// using libvips, the fast path for well-formed JPEG/PNG/TIFF sources that
// need no manual orientation fix.
func (g *Generator) encodeBuffer(raw []byte, dim int) ([]byte, error) {
	out, err := bimg.NewImage(raw).Process(bimg.Options{
		Width:   dim,
		Height:  dim,
		Crop:    false,
		Embed:   true,
		Type:    bimg.WEBP,
		Quality: g.quality,
	})
	if err != nil {
		return nil, fmt.Errorf("thumbnail: resize/encode: %w", err)
	}
	return out, nil
}

// encodeImage re-encodes a decoded image.Image (produced by RAW preview
// extraction or manual orientation correction) to PNG, then hands it to
// libvips for the resize and WebP encode, since bimg operates on encoded
// buffers rather than decoded Go images.
func (g *Generator) encodeImage(img image.Image, dim int) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("thumbnail: encode intermediate png: %w", err)
	}
	return g.encodeBuffer(buf.Bytes(), dim)
}

// applyOrientation rotates/flips img according to an EXIF orientation tag
// (1-8), returning a new image.Image when correction is needed.
func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 0, 1:
		return img
	case 2:
		return flipHorizontal(img)
	case 3:
		return rotate180(img)
	case 4:
		return flipVertical(img)
	case 5:
		return flipHorizontal(rotate90(img))
	case 6:
		return rotate90(img)
	case 7:
		return flipHorizontal(rotate270(img))
	case 8:
		return rotate270(img)
	default:
		return img
	}
}

func rotate90(img image.Image) image.Image {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dy(), b.Dx()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dst.Set(b.Max.Y-1-y+b.Min.Y, x-b.Min.X, img.At(x, y))
		}
	}
	return dst
}

func rotate270(img image.Image) image.Image {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dy(), b.Dx()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dst.Set(y-b.Min.Y, b.Max.X-1-x+b.Min.X, img.At(x, y))
		}
	}
	return dst
}

func rotate180(img image.Image) image.Image {
	b := img.Bounds()
	dst := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dst.Set(b.Max.X-1-x+b.Min.X, b.Max.Y-1-y+b.Min.Y, img.At(x, y))
		}
	}
	return dst
}

func flipHorizontal(img image.Image) image.Image {
	b := img.Bounds()
	dst := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dst.Set(b.Max.X-1-x+b.Min.X, y, img.At(x, y))
		}
	}
	return dst
}

func flipVertical(img image.Image) image.Image {
	b := img.Bounds()
	dst := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dst.Set(x, b.Max.Y-1-y+b.Min.Y, img.At(x, y))
		}
	}
	return dst
}

// SourceFromFile builds a Source, computing its content fingerprint via the
// hasher package.
func SourceFromFile(path string, orientation int) (Source, error) {
	h, err := hasher.HashFile(path)
	if err != nil {
		return Source{}, fmt.Errorf("thumbnail: fingerprint %s: %w", path, err)
	}
	return Source{Path: path, Fingerprint: h, Orientation: orientation}, nil
}

// guessFormat returns path's lowercase extension without the dot, or
// "unknown" when path has no extension.
func guessFormat(path string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if ext == "" {
		return "unknown"
	}
	return ext
}
