// Package indexer drives the scan -> hash -> extract-metadata -> persist
// pipeline, turning scanner output into store.Photo rows.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/photowall/engine/hasher"
	"github.com/photowall/engine/metadata"
	"github.com/photowall/engine/metrics"
	"github.com/photowall/engine/scanner"
	"github.com/photowall/engine/store"
)

// Options configures one indexing run.
type Options struct {
	Scan             scanner.Options
	SkipExisting     bool
	DetectDuplicates bool
	BatchSize        int
	Workers          int // 0 = runtime.NumCPU()
}

// DefaultOptions mirrors the scanner's defaults plus sensible indexing
// knobs.
func DefaultOptions() Options {
	return Options{
		Scan:             scanner.DefaultOptions(),
		SkipExisting:     true,
		DetectDuplicates: true,
		BatchSize:        200,
	}
}

// Progress is reported after every processed file; Indexed counts only the
// rows of batches committed so far.
type Progress struct {
	Total       int
	Processed   int
	Indexed     int
	Skipped     int
	Failed      int
	CurrentFile string
	Percentage  float64
}

// Result is the terminal summary of an indexing run.
type Result struct {
	Indexed     int
	Skipped     int
	Failed      int
	FailedFiles []store.FailedPhoto
}

// Indexer ties the scanner, hasher, metadata extractor, and store
// together.
type Indexer struct {
	store   *store.Store
	log     zerolog.Logger
	metrics *metrics.Metrics
}

// New builds an Indexer writing into st.
func New(st *store.Store, log zerolog.Logger) *Indexer {
	return &Indexer{store: st, log: log}
}

// SetMetrics attaches a metrics bundle that index runs report into. Safe
// to call once before the indexer is used; m may be nil to disable
// reporting.
func (ix *Indexer) SetMetrics(m *metrics.Metrics) {
	ix.metrics = m
}

// IndexDirectory scans root, extracts metadata for every candidate file in
// parallel, and bulk-inserts the results in batches, checking ctx for
// cancellation before each batch. onProgress may be nil.
func (ix *Indexer) IndexDirectory(ctx context.Context, root string, opts Options, onProgress func(Progress)) (Result, error) {
	scanResult, err := scanner.ScanDirectory(root, opts.Scan)
	if err != nil {
		return Result{}, fmt.Errorf("indexer: scan %s: %w", root, err)
	}
	return ix.indexFiles(ctx, scanResult.Files, opts, onProgress)
}

// IndexDirectories indexes multiple roots; each root's scan and insert
// batches are independent, so a failure in one does not abort the others.
func (ix *Indexer) IndexDirectories(ctx context.Context, roots []string, opts Options, onProgress func(Progress)) ([]Result, error) {
	results := make([]Result, len(roots))
	var errs []error
	for i, root := range roots {
		r, err := ix.IndexDirectory(ctx, root, opts, onProgress)
		results[i] = r
		if err != nil {
			errs = append(errs, fmt.Errorf("indexer: root %s: %w", root, err))
			if ctx.Err() != nil {
				break
			}
		}
	}
	return results, errors.Join(errs...)
}

func (ix *Indexer) indexFiles(ctx context.Context, files []string, opts Options, onProgress func(Progress)) (Result, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers < 1 {
		workers = 1
	}
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = 200
	}

	type outcome struct {
		photo   *store.NewPhoto
		skipped bool
		failed  bool
		path    string
		err     error
	}

	jobs := make(chan string)
	outcomes := make(chan processOutcome)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				o := ix.processFile(path, opts)
				select {
				case outcomes <- o:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, f := range files {
			select {
			case jobs <- f:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	var (
		result    Result
		batch     []store.NewPhoto
		processed int
	)
	total := len(files)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		_, failedRows, err := ix.store.AddPhotos(batch)
		if err != nil {
			return fmt.Errorf("indexer: bulk insert: %w", err)
		}
		result.Indexed += len(batch) - len(failedRows)
		result.Failed += len(failedRows)
		result.FailedFiles = append(result.FailedFiles, failedRows...)
		batch = batch[:0]
		return nil
	}

	for o := range outcomes {
		select {
		case <-ctx.Done():
			return result, fmt.Errorf("indexer: %w", ctx.Err())
		default:
		}

		processed++
		switch {
		case o.skipped:
			result.Skipped++
		case o.failed:
			result.Failed++
			result.FailedFiles = append(result.FailedFiles, store.FailedPhoto{Path: o.path, Err: o.err})
		default:
			batch = append(batch, *o.photo)
		}

		if onProgress != nil {
			onProgress(Progress{
				Total:       total,
				Processed:   processed,
				Indexed:     result.Indexed,
				Skipped:     result.Skipped,
				Failed:      result.Failed,
				CurrentFile: o.path,
				Percentage:  percentage(processed, total),
			})
		}

		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				return result, err
			}
		}
	}

	if err := flush(); err != nil {
		return result, err
	}
	if ix.metrics != nil {
		ix.metrics.IndexRunsTotal.Inc()
		ix.metrics.IndexedPhotosTotal.Add(float64(result.Indexed))
		ix.metrics.IndexFailuresTotal.Add(float64(result.Failed))
	}
	return result, nil
}

func percentage(processed, total int) float64 {
	if total == 0 {
		return 100
	}
	return float64(processed) / float64(total) * 100
}

// processFile runs stages 1-8 of the single-file pipeline described in the
// indexer's component design: existence/duplicate checks, hashing,
// metadata extraction, and filename-date fallback.
func (ix *Indexer) processFile(path string, opts Options) processOutcome {
	if opts.SkipExisting {
		if exists, err := ix.store.PhotoExists(path); err == nil && exists {
			return processOutcome{path: path, skipped: true}
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return processOutcome{path: path, failed: true, err: fmt.Errorf("stat: %w", err)}
	}

	hash, err := hasher.HashFile(path)
	if err != nil {
		return processOutcome{path: path, failed: true, err: fmt.Errorf("hash: %w", err)}
	}

	if opts.DetectDuplicates {
		if existing, err := ix.store.GetPhotoByHash(hash); err == nil && existing != nil {
			return processOutcome{path: path, skipped: true}
		}
	}

	meta, err := metadata.Extract(path)
	if err != nil {
		meta = &metadata.Metadata{}
	}

	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")

	dateTaken := meta.DateTaken
	if dateTaken == nil {
		if fnDate, ok := metadata.FilenameDate(filepath.Base(path)); ok {
			dateTaken = &fnDate
		} else {
			mtime := info.ModTime().UTC().Format("2006-01-02T15:04:05Z")
			dateTaken = &mtime
		}
	}

	np := &store.NewPhoto{
		FilePath:     path,
		FileName:     filepath.Base(path),
		FileSize:     info.Size(),
		FileHash:     hash,
		Width:        meta.Width,
		Height:       meta.Height,
		Format:       &format,
		DateTaken:    dateTaken,
		CameraModel:  meta.CameraModel,
		LensModel:    meta.LensModel,
		FocalLength:  meta.FocalLength,
		Aperture:     meta.Aperture,
		ISO:          meta.ISO,
		ShutterSpeed: meta.ShutterSpeed,
		GPSLatitude:  meta.GPSLatitude,
		GPSLongitude: meta.GPSLongitude,
		Orientation:  meta.Orientation,
	}

	return processOutcome{path: path, photo: np}
}

type processOutcome struct {
	photo   *store.NewPhoto
	skipped bool
	failed  bool
	path    string
	err     error
}

// IndexSingleFile runs the same per-file pipeline as IndexDirectory for one
// path, used by the auto-scan controller's realtime worker. It returns
// (indexed=true) on a fresh insert, (indexed=false) on a skip (already
// present or duplicate fingerprint).
func (ix *Indexer) IndexSingleFile(ctx context.Context, path string, opts Options) (indexed bool, err error) {
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	default:
	}

	o := ix.processFile(path, opts)
	if o.failed {
		return false, o.err
	}
	if o.skipped {
		return false, nil
	}
	_, failedRows, err := ix.store.AddPhotos([]store.NewPhoto{*o.photo})
	if err != nil {
		return false, fmt.Errorf("indexer: insert %s: %w", path, err)
	}
	if len(failedRows) > 0 {
		return false, fmt.Errorf("indexer: insert %s: %w", path, failedRows[0].Err)
	}
	return true, nil
}

// RefreshMetadata re-extracts EXIF metadata for every photo the store
// lists and writes the re-extracted values back to every one of those rows,
// used to backfill fields added by a later schema version or corrected
// extractor.
func (ix *Indexer) RefreshMetadata(ctx context.Context, onProgress func(Progress)) (Result, error) {
	var result Result
	const pageSize = 500
	var cursor *store.Cursor

	for {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		page, err := ix.store.SearchPhotosCursor(store.SearchFilters{}, store.SortDateAdded, store.Asc, cursor, pageSize)
		if err != nil {
			return result, fmt.Errorf("indexer: refresh metadata page: %w", err)
		}
		if len(page.Photos) == 0 {
			break
		}

		for _, p := range page.Photos {
			meta, err := metadata.Extract(p.FilePath)
			if err != nil {
				result.Failed++
				result.FailedFiles = append(result.FailedFiles, store.FailedPhoto{Path: p.FilePath, Err: err})
				continue
			}
			if err := ix.applyRefreshedMetadata(p, meta); err != nil {
				result.Failed++
				result.FailedFiles = append(result.FailedFiles, store.FailedPhoto{Path: p.FilePath, Err: err})
				continue
			}
			result.Indexed++
			if onProgress != nil {
				onProgress(Progress{CurrentFile: p.FilePath, Processed: result.Indexed + result.Failed})
			}
		}

		if !page.HasMore {
			break
		}
		cursor = page.NextCursor
	}
	return result, nil
}

func (ix *Indexer) applyRefreshedMetadata(p *store.Photo, meta *metadata.Metadata) error {
	return ix.store.UpdatePhotoContent(p.ID, store.NewPhoto{
		FilePath:     p.FilePath,
		FileName:     p.FileName,
		FileSize:     p.FileSize,
		FileHash:     p.FileHash,
		Width:        meta.Width,
		Height:       meta.Height,
		Format:       p.Format,
		DateTaken:    p.DateTaken,
		CameraModel:  meta.CameraModel,
		LensModel:    meta.LensModel,
		FocalLength:  meta.FocalLength,
		Aperture:     meta.Aperture,
		ISO:          meta.ISO,
		ShutterSpeed: meta.ShutterSpeed,
		GPSLatitude:  meta.GPSLatitude,
		GPSLongitude: meta.GPSLongitude,
		Orientation:  meta.Orientation,
	})
}

