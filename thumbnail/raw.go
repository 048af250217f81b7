package thumbnail

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
)

// rawExtensions is the set of file extensions this engine treats as RAW,
// requiring preview extraction rather than a direct decode.
var rawExtensions = map[string]bool{
	"dng": true, "cr2": true, "cr3": true, "nef": true, "nrw": true,
	"arw": true, "srf": true, "sr2": true, "orf": true, "raf": true,
	"rw2": true, "pef": true, "srw": true, "raw": true, "rwl": true,
	"3fr": true, "erf": true, "kdc": true, "dcr": true, "x3f": true,
}

// IsRAW reports whether path's extension names a RAW format.
func IsRAW(path string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	return rawExtensions[ext]
}

// minEmbeddedJPEGSize excludes small embedded thumbnails when scanning for
// the largest embedded JPEG preview, matching the original extractor's
// 100KiB cutoff.
const minEmbeddedJPEGSize = 100 * 1024

// maxByteScanFileSize bounds the raw byte scan to files no larger than
// this, so a multi-GB RAW file doesn't get read into memory whole just to
// hunt for JPEG markers.
const maxByteScanFileSize = 64 << 20

// minPreviewLongestEdge is the quality gate strategy 1 applies: an
// EXIF-embedded thumbnail smaller than this on its longest edge is
// rejected in favor of the byte-scan strategy, which usually finds a
// larger embedded preview.
const minPreviewLongestEdge = 1920

// ExtractRAWPreview runs the three-strategy cascade: the EXIF-addressed
// embedded thumbnail first (gated on a minimum resolution), then a bounded
// raw byte scan for the largest embedded JPEG, then a best-effort Bayer
// demosaic of the sensor plane when the file exposes one as uncompressed
// TIFF strips. The first strategy to succeed wins.
func ExtractRAWPreview(path string) (image.Image, error) {
	if img, err := extractEXIFEmbeddedJPEG(path); err == nil && longestEdgeAtLeast(img, minPreviewLongestEdge) {
		return img, nil
	}
	if img, err := scanEmbeddedJPEG(path); err == nil {
		return img, nil
	}
	if img, err := extractBayerFallback(path); err == nil {
		return img, nil
	}
	return nil, fmt.Errorf("thumbnail: no embedded preview and no uncompressed sensor plane found in %s (full RAW decode via a vendored decoder library is out of scope; see DESIGN.md)", path)
}

func longestEdgeAtLeast(img image.Image, edge int) bool {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	longest := w
	if h > longest {
		longest = h
	}
	return longest >= edge
}

// scanEmbeddedJPEG scans a RAW file's raw bytes for JPEG SOI/EOI markers
// (0xFFD8 ... 0xFFD9) and decodes the largest one found, the same technique
// most RAW previewers use since embedded-preview offsets vary by camera
// maker and are not worth modeling precisely.
func scanEmbeddedJPEG(path string) (image.Image, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("thumbnail: stat %s: %w", path, err)
	}
	if info.Size() > maxByteScanFileSize {
		return nil, fmt.Errorf("thumbnail: %s (%d bytes) exceeds the %d byte byte-scan cap", path, info.Size(), maxByteScanFileSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("thumbnail: read %s: %w", path, err)
	}

	var best []byte
	for i := 0; i+1 < len(data); i++ {
		if data[i] != 0xFF || data[i+1] != 0xD8 {
			continue
		}
		start := i
		end := -1
		for j := i + 2; j+1 < len(data); j++ {
			if data[j] == 0xFF && data[j+1] == 0xD9 {
				end = j + 2
				break
			}
		}
		if end == -1 {
			break
		}
		candidate := data[start:end]
		if len(candidate) > minEmbeddedJPEGSize && len(candidate) > len(best) {
			best = candidate
		}
		i = end - 1
	}

	if best == nil {
		return nil, fmt.Errorf("thumbnail: no embedded JPEG found in %s", path)
	}
	img, _, err := image.Decode(bytes.NewReader(best))
	if err != nil {
		return nil, fmt.Errorf("thumbnail: decode embedded JPEG: %w", err)
	}
	return img, nil
}

// extractEXIFEmbeddedJPEG reads the JPEGInterchangeFormat/Length tags from
// a RAW file's THUMBNAIL IFD and decodes the referenced region.
func extractEXIFEmbeddedJPEG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("thumbnail: open %s: %w", path, err)
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("thumbnail: decode exif: %w", err)
	}

	offsetTag, err := x.Get(exif.JPEGInterchangeFormat)
	if err != nil {
		return nil, fmt.Errorf("thumbnail: no embedded thumbnail offset: %w", err)
	}
	offset, err := offsetTag.Int(0)
	if err != nil {
		return nil, fmt.Errorf("thumbnail: bad thumbnail offset: %w", err)
	}
	lengthTag, err := x.Get(exif.JPEGInterchangeFormatLength)
	if err != nil {
		return nil, fmt.Errorf("thumbnail: no embedded thumbnail length: %w", err)
	}
	length, err := lengthTag.Int(0)
	if err != nil {
		return nil, fmt.Errorf("thumbnail: bad thumbnail length: %w", err)
	}
	if length <= 0 {
		return nil, fmt.Errorf("thumbnail: zero-length embedded thumbnail")
	}

	if _, err := f.Seek(int64(offset), 0); err != nil {
		return nil, fmt.Errorf("thumbnail: seek to thumbnail offset: %w", err)
	}
	buf := make([]byte, length)
	if _, err := f.Read(buf); err != nil {
		return nil, fmt.Errorf("thumbnail: read thumbnail bytes: %w", err)
	}
	img, _, err := image.Decode(bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("thumbnail: decode thumbnail bytes: %w", err)
	}
	return img, nil
}

// tiffCompressionUncompressed is the TIFF Compression tag value (1) that
// extractBayerFallback requires: an uncompressed strip can be read and
// demosaiced directly. Proprietary RAW compression schemes (most CR2/NEF
// files) take a different value here and fall through as a documented gap
// rather than being misread.
const tiffCompressionUncompressed = 1

// extractBayerFallback reads an uncompressed Bayer sensor plane straight
// out of the file's primary TIFF strips (the layout linear/uncompressed
// DNGs and some camera RAWs use) and demosaics it. It intentionally does
// not attempt proprietary compressed sensor formats (most CR2/NEF/ARW
// files): those require a vendored RAW decoder library, which is out of
// scope (see DESIGN.md) — extracting their sensor plane correctly needs
// per-maker decompression this package does not implement.
func extractBayerFallback(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("thumbnail: open %s: %w", path, err)
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("thumbnail: decode exif for sensor plane: %w", err)
	}

	if ct, err := x.Get(exif.Compression); err == nil {
		if v, err := ct.Int(0); err != nil || v != tiffCompressionUncompressed {
			return nil, fmt.Errorf("thumbnail: sensor plane is compressed, no vendored RAW decoder available")
		}
	} else {
		return nil, fmt.Errorf("thumbnail: no compression tag, cannot confirm sensor plane is raw strips")
	}

	width, err := tagInt(x, exif.ImageWidth)
	if err != nil {
		return nil, fmt.Errorf("thumbnail: missing sensor width: %w", err)
	}
	height, err := tagInt(x, exif.ImageLength)
	if err != nil {
		return nil, fmt.Errorf("thumbnail: missing sensor height: %w", err)
	}

	pattern, err := readCFAPattern(x)
	if err != nil {
		return nil, err
	}

	offsetTag, err := x.Get(exif.StripOffsets)
	if err != nil {
		return nil, fmt.Errorf("thumbnail: no strip offsets: %w", err)
	}
	offset, err := offsetTag.Int(0)
	if err != nil {
		return nil, fmt.Errorf("thumbnail: bad strip offset: %w", err)
	}

	samples := width * height
	buf := make([]byte, samples*2) // 16-bit-per-sample sensor data
	if _, err := f.ReadAt(buf, int64(offset)); err != nil {
		return nil, fmt.Errorf("thumbnail: read sensor strip: %w", err)
	}

	data := make([]uint16, samples)
	for i := range data {
		data[i] = uint16(buf[2*i]) | uint16(buf[2*i+1])<<8
	}

	return DemosaicBayer(data, width, height, pattern), nil
}

// tagInt reads a single-value integer tag, wrapping the lookup error with
// the field name for diagnostics.
func tagInt(x *exif.Exif, name exif.FieldName) (int, error) {
	tag, err := x.Get(name)
	if err != nil {
		return 0, err
	}
	v, err := tag.Int(0)
	if err != nil {
		return 0, err
	}
	return v, nil
}

// readCFAPattern decodes the EXIF CFAPattern tag (two repeat-dimension
// values followed by N color-code bytes, 0=Red/1=Green/2=Blue) into this
// package's cfaPattern enum, reading the four values of a 2x2 pattern in
// row-major order (TL, TR, BL, BR) to match cfaInfo's layout.
func readCFAPattern(x *exif.Exif) (cfaPattern, error) {
	tag, err := x.Get(exif.CFAPattern)
	if err != nil {
		return cfaRGGB, fmt.Errorf("thumbnail: no CFA pattern tag: %w", err)
	}
	// tag.Count is 2 (repeat dims) + 4 (2x2 color codes) for a standard
	// Bayer sensor; anything else isn't a 2x2 pattern this demosaicer
	// understands.
	if tag.Count != 6 {
		return cfaRGGB, fmt.Errorf("thumbnail: unsupported CFA repeat pattern (count=%d)", tag.Count)
	}
	codes := make([]int, 4)
	for i := range codes {
		v, err := tag.Int(2 + i)
		if err != nil {
			return cfaRGGB, fmt.Errorf("thumbnail: bad CFA color code: %w", err)
		}
		codes[i] = v
	}
	return cfaPatternFromCodes(codes), nil
}

// cfaPatternFromCodes maps a decoded 2x2 CFA color-code layout to this
// package's enum. An unrecognized layout falls back to RGGB, matching the
// documented policy for an unknown CFA string.
func cfaPatternFromCodes(codes []int) cfaPattern {
	const (
		cfaCodeRed   = 0
		cfaCodeGreen = 1
		cfaCodeBlue  = 2
	)
	switch {
	case codes[0] == cfaCodeRed && codes[3] == cfaCodeBlue:
		return cfaRGGB
	case codes[0] == cfaCodeBlue && codes[3] == cfaCodeRed:
		return cfaBGGR
	case codes[0] == cfaCodeGreen && codes[1] == cfaCodeRed:
		return cfaGRBG
	case codes[0] == cfaCodeGreen && codes[1] == cfaCodeBlue:
		return cfaGBRG
	default:
		return cfaRGGB
	}
}

// cfaPattern names the 2x2 Bayer color filter array layout.
type cfaPattern int

const (
	cfaRGGB cfaPattern = iota
	cfaBGGR
	cfaGRBG
	cfaGBRG
)

// cfaInfo records which of the four 2x2 positions (row-major: 0=TL, 1=TR,
// 2=BL, 3=BR) holds red, blue, and the two green samples.
type cfaInfo struct {
	rPos, bPos, grPos, gbPos int
}

func parseCFAPattern(p cfaPattern) cfaInfo {
	switch p {
	case cfaBGGR:
		return cfaInfo{rPos: 3, bPos: 0, grPos: 1, gbPos: 2}
	case cfaGRBG:
		return cfaInfo{rPos: 1, bPos: 2, grPos: 0, gbPos: 3}
	case cfaGBRG:
		return cfaInfo{rPos: 2, bPos: 1, grPos: 0, gbPos: 3}
	case cfaRGGB:
		fallthrough
	default:
		return cfaInfo{rPos: 0, bPos: 3, grPos: 1, gbPos: 2}
	}
}

type pixelColor int

const (
	colorRed pixelColor = iota
	colorGreen
	colorBlue
)

func (c cfaInfo) colorAt(x, y int) pixelColor {
	bx, by := x%2, y%2
	pos := by*2 + bx
	switch pos {
	case c.rPos:
		return colorRed
	case c.bPos:
		return colorBlue
	default:
		return colorGreen
	}
}

// DemosaicBayer reconstructs an RGB image from raw 16-bit-per-sample Bayer
// sensor data using simple 4-neighbor (and diagonal-4-neighbor, for the
// cross-color samples) averaging. This is a best-effort preview renderer,
// not a color-accurate RAW development pipeline — full RAW rendering with
// white balance and color-matrix correction is explicitly out of scope
// (spec Non-goals).
func DemosaicBayer(data []uint16, width, height int, pattern cfaPattern) *image.RGBA {
	cfa := parseCFAPattern(pattern)

	maxVal := uint16(0)
	for _, v := range data {
		if v > maxVal {
			maxVal = v
		}
	}
	scale := 255.0 / float64(maxOf(int(maxVal), 1))

	at := func(x, y int) float64 {
		if x < 0 || x >= width || y < 0 || y >= height {
			return 0
		}
		return float64(data[y*width+x])
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			var r, g, b float64
			switch cfa.colorAt(x, y) {
			case colorRed:
				r = at(x, y)
				g = (at(x-1, y) + at(x+1, y) + at(x, y-1) + at(x, y+1)) / 4
				b = (at(x-1, y-1) + at(x+1, y-1) + at(x-1, y+1) + at(x+1, y+1)) / 4
			case colorBlue:
				b = at(x, y)
				g = (at(x-1, y) + at(x+1, y) + at(x, y-1) + at(x, y+1)) / 4
				r = (at(x-1, y-1) + at(x+1, y-1) + at(x-1, y+1) + at(x+1, y+1)) / 4
			default: // green
				g = at(x, y)
				r = (at(x-1, y) + at(x+1, y)) / 2
				b = (at(x, y-1) + at(x, y+1)) / 2
				if cfa.colorAt(x-1, y) == colorBlue || cfa.colorAt(x+1, y) == colorBlue {
					r, b = b, r
				}
			}
			img.SetRGBA(x, y, color.RGBA{
				R: clamp255(r * scale),
				G: clamp255(g * scale),
				B: clamp255(b * scale),
				A: 255,
			})
		}
	}
	return img
}

func clamp255(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

func maxOf(a, b int) int {
	if a > b {
		return a
	}
	return b
}
