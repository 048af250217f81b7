// Package scanner walks directory trees looking for supported image files,
// applying an exclude list, a hidden-directory filter and an optional
// recursion depth limit. It never reads file content — that's the
// indexer's job once a path list is in hand.
package scanner

import (
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
)

// SupportedExtensions is the full set of file extensions (lowercase, no
// dot) this engine will index, covering common raster formats plus every
// RAW format the thumbnail package knows how to extract a preview from.
var SupportedExtensions = map[string]bool{
	"jpg": true, "jpeg": true, "png": true, "gif": true, "bmp": true,
	"webp": true, "tiff": true, "tif": true, "heic": true, "heif": true,
	"raw": true, "cr2": true, "cr3": true, "nef": true, "nrw": true,
	"arw": true, "srf": true, "sr2": true, "dng": true, "orf": true,
	"rw2": true, "pef": true, "srw": true, "raf": true, "rwl": true,
	"3fr": true, "erf": true, "kdc": true, "dcr": true, "x3f": true,
}

// defaultExcludeDirs mirrors the original scanner's skip list: directories
// that are never worth walking into even when they sit under a watched root.
var defaultExcludeDirs = map[string]bool{
	".git": true, "node_modules": true, ".cache": true,
	"$RECYCLE.BIN": true, "System Volume Information": true,
}

// Options configures one directory scan.
type Options struct {
	// Recursive walks subdirectories; when false the walk is limited to
	// the root directory's immediate entries (depth 1).
	Recursive bool
	// MaxDepth additionally bounds recursion when Recursive is true; 0
	// means unbounded.
	MaxDepth int
	// ExcludeDirs overrides defaultExcludeDirs when non-nil.
	ExcludeDirs map[string]bool
}

// DefaultOptions returns the scanner's standard configuration: recursive,
// unbounded depth, the default exclude list.
func DefaultOptions() Options {
	return Options{Recursive: true, MaxDepth: 0, ExcludeDirs: defaultExcludeDirs}
}

// Result is the outcome of scanning one root directory.
type Result struct {
	Root   string
	Files  []string
	Errors []error
}

// IsSupportedImage reports whether path's extension is one this engine
// indexes.
func IsSupportedImage(path string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	return SupportedExtensions[ext]
}

// ScanDirectory walks root according to opts, returning every supported
// image file found.
func ScanDirectory(root string, opts Options) (*Result, error) {
	exclude := opts.ExcludeDirs
	if exclude == nil {
		exclude = defaultExcludeDirs
	}

	res := &Result{Root: root}
	rootDepth := strings.Count(filepath.Clean(root), string(filepath.Separator))

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			res.Errors = append(res.Errors, err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if path == root {
				return nil
			}
			name := d.Name()
			if strings.HasPrefix(name, ".") || exclude[name] {
				return fs.SkipDir
			}
			if !opts.Recursive {
				return fs.SkipDir
			}
			if opts.MaxDepth > 0 {
				depth := strings.Count(filepath.Clean(path), string(filepath.Separator)) - rootDepth
				if depth >= opts.MaxDepth {
					return fs.SkipDir
				}
			}
			return nil
		}

		if IsSupportedImage(path) {
			res.Files = append(res.Files, path)
		}
		return nil
	})
	if walkErr != nil {
		res.Errors = append(res.Errors, walkErr)
	}

	return res, nil
}

// ScanDirectories scans multiple roots concurrently, merging results. A
// failure scanning one root is logged into that root's Result.Errors and
// does not prevent the others from completing.
func ScanDirectories(roots []string, opts Options) []*Result {
	results := make([]*Result, len(roots))
	var wg sync.WaitGroup
	for i, root := range roots {
		wg.Add(1)
		go func(i int, root string) {
			defer wg.Done()
			res, err := ScanDirectory(root, opts)
			if err != nil {
				res = &Result{Root: root, Errors: []error{err}}
			}
			results[i] = res
		}(i, root)
	}
	wg.Wait()
	return results
}
