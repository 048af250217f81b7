// Package metadata extracts EXIF-derived attributes from image files:
// dimensions, capture date, camera/lens model, exposure settings, GPS
// coordinates and orientation. Unreadable or absent EXIF data degrades to
// an all-nil Metadata rather than an error, since most of the indexer's
// supported formats (PNG, GIF, BMP, WebP) never carry EXIF at all.
package metadata

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// Metadata is every attribute the indexer writes into the photos table
// beyond the bare file stat. Pointer fields are nil when unavailable.
type Metadata struct {
	Width        *int
	Height       *int
	DateTaken    *string // ISO-8601, Z-suffixed
	CameraModel  *string
	LensModel    *string
	FocalLength  *float64
	Aperture     *float64
	ISO          *int
	ShutterSpeed *string
	GPSLatitude  *float64
	GPSLongitude *float64
	Orientation  int // 1-8, defaults to 1 (no rotation)
}

// Extract reads EXIF metadata from path, falling back to a plain image
// decode for dimensions when no EXIF block is present or readable.
func Extract(path string) (*Metadata, error) {
	m := &Metadata{Orientation: 1}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("metadata: open %s: %w", path, err)
	}
	defer f.Close()

	x, exifErr := exif.Decode(f)
	if exifErr == nil {
		populateFromExif(m, x)
	}

	if m.Width == nil || m.Height == nil {
		if _, err := f.Seek(0, 0); err == nil {
			if cfg, _, err := image.DecodeConfig(f); err == nil {
				w, h := cfg.Width, cfg.Height
				m.Width, m.Height = &w, &h
			}
		}
	}

	return m, nil
}

func populateFromExif(m *Metadata, x *exif.Exif) {
	if w, err := x.Get(exif.PixelXDimension); err == nil {
		if v, err := w.Int(0); err == nil {
			m.Width = intPtr(v)
		}
	}
	if h, err := x.Get(exif.PixelYDimension); err == nil {
		if v, err := h.Int(0); err == nil {
			m.Height = intPtr(v)
		}
	}
	if m.Width == nil {
		if w, err := x.Get(exif.ImageWidth); err == nil {
			if v, err := w.Int(0); err == nil {
				m.Width = intPtr(v)
			}
		}
	}
	if m.Height == nil {
		if h, err := x.Get(exif.ImageLength); err == nil {
			if v, err := h.Int(0); err == nil {
				m.Height = intPtr(v)
			}
		}
	}

	if dt, err := x.Get(exif.DateTimeOriginal); err == nil {
		if s, err := dt.StringVal(); err == nil {
			if iso := NormalizeDate(s); iso != "" {
				m.DateTaken = &iso
			}
		}
	}
	if m.DateTaken == nil {
		if dt, err := x.Get(exif.DateTime); err == nil {
			if s, err := dt.StringVal(); err == nil {
				if iso := NormalizeDate(s); iso != "" {
					m.DateTaken = &iso
				}
			}
		}
	}

	if mk, err := x.Get(exif.Model); err == nil {
		if s, err := mk.StringVal(); err == nil {
			s = strings.TrimSpace(s)
			m.CameraModel = &s
		}
	}
	if ln, err := x.Get(exif.LensModel); err == nil {
		if s, err := ln.StringVal(); err == nil {
			s = strings.TrimSpace(s)
			m.LensModel = &s
		}
	}

	if fl, err := x.Get(exif.FocalLength); err == nil {
		if v, ok := ratFloat(fl); ok {
			m.FocalLength = &v
		}
	}
	if ap, err := x.Get(exif.FNumber); err == nil {
		if v, ok := ratFloat(ap); ok {
			m.Aperture = &v
		}
	}
	if iso, err := x.Get(exif.ISOSpeedRatings); err == nil {
		if v, err := iso.Int(0); err == nil {
			m.ISO = intPtr(v)
		}
	}
	if ss, err := x.Get(exif.ExposureTime); err == nil {
		if s := ss.String(); s != "" {
			m.ShutterSpeed = &s
		}
	}

	if lat, lon, ok := gpsCoords(x); ok {
		m.GPSLatitude = &lat
		m.GPSLongitude = &lon
	}

	if o, err := x.Get(exif.Orientation); err == nil {
		if v, err := o.Int(0); err == nil && v >= 1 && v <= 8 {
			m.Orientation = v
		}
	}
}

// NormalizeDate converts an EXIF "YYYY:MM:DD HH:MM:SS" timestamp into
// ISO-8601 "YYYY-MM-DDTHH:MM:SSZ". Unparseable input yields "".
func NormalizeDate(exifDate string) string {
	exifDate = strings.TrimRight(exifDate, "\x00")
	exifDate = strings.TrimSpace(exifDate)
	t, err := time.Parse("2006:01:02 15:04:05", exifDate)
	if err != nil {
		return ""
	}
	return t.UTC().Format("2006-01-02T15:04:05Z")
}

func ratFloat(tag *tiff.Tag) (float64, bool) {
	num, denom, err := tag.Rat2(0)
	if err != nil || denom == 0 {
		return 0, false
	}
	return float64(num) / float64(denom), true
}

func gpsCoords(x *exif.Exif) (lat, lon float64, ok bool) {
	latTag, err := x.Get(exif.GPSLatitude)
	if err != nil {
		return 0, 0, false
	}
	lonTag, err := x.Get(exif.GPSLongitude)
	if err != nil {
		return 0, 0, false
	}
	latRef, _ := x.Get(exif.GPSLatitudeRef)
	lonRef, _ := x.Get(exif.GPSLongitudeRef)

	latVal, ok1 := dmsToDecimal(latTag)
	lonVal, ok2 := dmsToDecimal(lonTag)
	if !ok1 || !ok2 {
		return 0, 0, false
	}
	if latRef != nil {
		if s, err := latRef.StringVal(); err == nil && strings.EqualFold(s, "S") {
			latVal = -latVal
		}
	}
	if lonRef != nil {
		if s, err := lonRef.StringVal(); err == nil && strings.EqualFold(s, "W") {
			lonVal = -lonVal
		}
	}
	return latVal, lonVal, true
}

// dmsToDecimal converts a 3-rational degrees/minutes/seconds GPS tag into a
// decimal degree value.
func dmsToDecimal(tag *tiff.Tag) (float64, bool) {
	if tag.Count != 3 {
		return 0, false
	}
	var parts [3]float64
	for i := 0; i < 3; i++ {
		num, denom, err := tag.Rat2(i)
		if err != nil || denom == 0 {
			return 0, false
		}
		parts[i] = float64(num) / float64(denom)
	}
	return parts[0] + parts[1]/60 + parts[2]/3600, true
}

func intPtr(v int) *int { return &v }

// FilenameDate attempts to recover a capture date from a filename when no
// EXIF date is available, handling the common camera/phone export
// convention "IMG_20240615_143045" or "2024-06-15 14.30.45".
func FilenameDate(name string) (string, bool) {
	digits := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c >= '0' && c <= '9' {
			digits = append(digits, c)
		}
	}
	if len(digits) < 14 {
		return "", false
	}
	digits = digits[:14]
	year, err1 := strconv.Atoi(string(digits[0:4]))
	month, err2 := strconv.Atoi(string(digits[4:6]))
	day, err3 := strconv.Atoi(string(digits[6:8]))
	hour, err4 := strconv.Atoi(string(digits[8:10]))
	min, err5 := strconv.Atoi(string(digits[10:12]))
	sec, err6 := strconv.Atoi(string(digits[12:14]))
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil || err5 != nil || err6 != nil {
		return "", false
	}
	if year < 1990 || year > 2100 || month < 1 || month > 12 || day < 1 || day > 31 {
		return "", false
	}
	t := time.Date(year, time.Month(month), day, hour, min, sec, 0, time.UTC)
	return t.Format("2006-01-02T15:04:05Z"), true
}
