// Package hasher computes content-addressing fingerprints for indexed
// files: a full or head-only xxh3-64 content hash for deduplication, and a
// cheap size+mtime+partial-hash "quick fingerprint" for change detection
// that is never persisted to the catalog.
package hasher

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/zeebo/xxh3"
)

// defaultFastModeBytes is how much of a file FastMode reads before hashing,
// matching the original fingerprinting service's 64KiB default.
const defaultFastModeBytes = 64 * 1024

// quickFingerprintBytes is how much of a file is read for QuickFingerprint,
// which exists purely to detect "did this file change" cheaply and is never
// compared across machines or persisted as a content hash.
const quickFingerprintBytes = 8 * 1024

// Options controls how HashFile reads the source file.
type Options struct {
	// FastMode hashes only the first FastModeBytes of the file instead of
	// the whole thing. Faster, but two different files that share a
	// sufficiently long common prefix will collide.
	FastMode bool
	// FastModeBytes overrides defaultFastModeBytes when FastMode is set.
	FastModeBytes int64
}

// HashFile returns the lowercase hex xxh3-64 digest of path's contents.
func HashFile(path string) (string, error) {
	return HashFileWithOptions(path, Options{})
}

// HashFileWithOptions is HashFile with explicit fast-mode control.
func HashFileWithOptions(path string, opts Options) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("hasher: open %s: %w", path, err)
	}
	defer f.Close()

	if opts.FastMode {
		n := opts.FastModeBytes
		if n <= 0 {
			n = defaultFastModeBytes
		}
		return hashReader(io.LimitReader(f, n))
	}
	return hashReader(f)
}

// HashPartial hashes only the first n bytes of path.
func HashPartial(path string, n int64) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("hasher: open %s: %w", path, err)
	}
	defer f.Close()
	return hashReader(io.LimitReader(f, n))
}

func hashReader(r io.Reader) (string, error) {
	h := xxh3.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("hasher: read: %w", err)
	}
	return fmt.Sprintf("%016x", h.Sum64()), nil
}

// QuickFingerprint returns a cheap "{size}:{mtimeUnixSeconds}:{headHash}"
// string for path, used only to decide whether a previously-indexed file
// needs re-hashing — it is never written to the catalog or compared
// between machines.
func QuickFingerprint(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("hasher: stat %s: %w", path, err)
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("hasher: open %s: %w", path, err)
	}
	defer f.Close()

	headHash, err := hashReader(io.LimitReader(f, quickFingerprintBytes))
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%d:%d:%s", info.Size(), info.ModTime().Unix(), headHash), nil
}

// FilesEqual reports whether two files have identical full content hashes.
func FilesEqual(pathA, pathB string) (bool, error) {
	a, err := HashFile(pathA)
	if err != nil {
		return false, err
	}
	b, err := HashFile(pathB)
	if err != nil {
		return false, err
	}
	return a == b, nil
}

// Result pairs a path with its hash outcome for HashFilesParallel.
type Result struct {
	Path string
	Hash string
	Err  error
}

// HashFilesParallel hashes many files concurrently over a bounded worker
// pool, preserving the input order in the returned slice.
func HashFilesParallel(paths []string, workers int) []Result {
	if workers <= 0 {
		workers = 4
	}
	results := make([]Result, len(paths))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				hash, err := HashFile(paths[i])
				results[i] = Result{Path: paths[i], Hash: hash, Err: err}
			}
		}()
	}

	for i := range paths {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}
