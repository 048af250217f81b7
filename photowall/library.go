package photowall

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/photowall/engine/autoscan"
	"github.com/photowall/engine/config"
	"github.com/photowall/engine/events"
	"github.com/photowall/engine/indexer"
	"github.com/photowall/engine/jobs"
	"github.com/photowall/engine/metrics"
	"github.com/photowall/engine/queryparser"
	"github.com/photowall/engine/scanner"
	"github.com/photowall/engine/store"
	"github.com/photowall/engine/thumbnail"
)

// Library composes every subsystem behind the single surface a host
// integrates against: it owns the store, the indexing pipeline, the
// thumbnail cache and worker pool, the job/cancellation registry, and (once
// started) the auto-scan controller.
type Library struct {
	store     *store.Store
	indexer   *indexer.Indexer
	thumbs    *thumbnail.Cache
	generator *thumbnail.Generator
	queue     *thumbnail.Queue
	jobs      *jobs.Manager
	autoscan  *autoscan.Controller
	sink      events.Sink
	log       zerolog.Logger
	paths     config.PathProvider
	bulkBusy  atomic.Bool
	metrics   *metrics.Metrics
}

// Metrics returns the engine's Prometheus collector bundle, unregistered.
// A host registers it against its own registry with MustRegister; the
// engine never touches the default global registry itself so multiple
// Library instances in one process don't collide.
func (l *Library) Metrics() *metrics.Metrics {
	return l.metrics
}

// beginBulk claims the single bulk-writer slot, refusing a second
// concurrent IndexDirectory/IndexDirectories/RefreshMetadata call rather
// than interleaving two indexing passes against the same database.
func (l *Library) beginBulk() error {
	if !l.bulkBusy.CompareAndSwap(false, true) {
		return newErr(ErrKindBusy, "photowall: bulk operation", nil)
	}
	return nil
}

func (l *Library) endBulk() {
	l.bulkBusy.Store(false)
}

// Open creates (or reopens) a Library rooted at the paths paths resolves,
// emitting events through sink. sink may be events.NopSink{} if the host
// has no interest in progress notifications.
func Open(paths config.PathProvider, settings config.Settings, sink events.Sink) (*Library, error) {
	log := zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger()

	st, err := store.Open(paths.DatabasePath(), store.Options{
		EnableWAL: settings.Performance.EnableWAL,
		Logger:    log.With().Str("component", "store").Logger(),
	})
	if err != nil {
		return nil, newErr(ErrKindStorageUnavailable, "photowall: open store", err)
	}

	cache, err := thumbnail.NewCache(paths.ThumbnailRoot())
	if err != nil {
		st.Close()
		return nil, newErr(ErrKindStorageUnavailable, "photowall: open thumbnail cache", err)
	}

	ix := indexer.New(st, log.With().Str("component", "indexer").Logger())
	gen := thumbnail.NewGenerator(cache, settings.Thumbnail.Quality)

	workers := settings.Performance.ThumbnailThreads
	if workers <= 0 {
		workers = 4
	}
	queue := thumbnail.NewQueue(gen, workers, log.With().Str("component", "thumbnail-queue").Logger())
	queue.Start()

	jobMgr := jobs.NewManager()
	ctrl := autoscan.New(st, ix, sink, log.With().Str("component", "autoscan").Logger())

	m := metrics.New()
	ix.SetMetrics(m)
	queue.SetMetrics(m)
	ctrl.SetMetrics(m)
	gen.SetMetrics(m)

	lib := &Library{
		store:     st,
		indexer:   ix,
		thumbs:    cache,
		generator: gen,
		queue:     queue,
		jobs:      jobMgr,
		autoscan:  ctrl,
		sink:      sink,
		log:       log,
		paths:     paths,
		metrics:   m,
	}

	if settings.Scan.AutoScan && len(settings.Scan.WatchedFolders) > 0 {
		interval := time.Duration(settings.Scan.ScanIntervalSecs) * time.Second
		indexOpts := indexer.DefaultOptions()
		indexOpts.Scan.Recursive = settings.Scan.Recursive
		if err := ctrl.ApplySettings(autoscan.Config{
			Roots:         settings.Scan.WatchedFolders,
			BaseInterval:  interval,
			RealtimeWatch: settings.Scan.RealtimeWatch,
			IndexOptions:  indexOpts,
		}); err != nil {
			log.Warn().Err(err).Msg("photowall: failed to start auto-scan on open")
		}
	}

	return lib, nil
}

// Close stops the auto-scan controller and thumbnail worker pool, then
// closes the underlying database handle.
func (l *Library) Close() error {
	l.autoscan.Stop()
	l.queue.Stop()
	l.generator.Close()
	if err := l.store.Close(); err != nil {
		return newErr(ErrKindStorageUnavailable, "photowall: close", err)
	}
	return nil
}

// ApplySettings reconciles the running auto-scan controller with new
// settings, emitting "settings-changed" once applied.
func (l *Library) ApplySettings(settings config.Settings) error {
	interval := time.Duration(settings.Scan.ScanIntervalSecs) * time.Second
	indexOpts := indexer.DefaultOptions()
	indexOpts.Scan.Recursive = settings.Scan.Recursive

	cfg := autoscan.Config{IndexOptions: indexOpts, BaseInterval: interval}
	if settings.Scan.AutoScan {
		cfg.Roots = settings.Scan.WatchedFolders
		cfg.RealtimeWatch = settings.Scan.RealtimeWatch
	}
	if err := l.autoscan.ApplySettings(cfg); err != nil {
		return newErr(ErrKindUnknown, "photowall: apply settings", err)
	}
	events.TypedEmit(l.sink, "settings-changed", settings)
	return nil
}

// ScanDirectory walks root without persisting anything, useful for a host
// that wants a dry-run file count before committing to a full index.
func (l *Library) ScanDirectory(root string, opts scanner.Options) (*scanner.Result, error) {
	res, err := scanner.ScanDirectory(root, opts)
	if err != nil {
		return nil, newErr(ErrKindUnknown, "photowall: scan directory", err)
	}
	return res, nil
}

// IndexDirectory scans and persists root, tracked under a cancelable job.
func (l *Library) IndexDirectory(ctx context.Context, root string, opts indexer.Options, onProgress func(indexer.Progress)) (indexer.Result, error) {
	if err := l.beginBulk(); err != nil {
		return indexer.Result{}, err
	}
	defer l.endBulk()

	h := l.jobs.Start(ctx)
	defer l.jobs.Forget(h.ID)

	result, err := l.indexer.IndexDirectory(h.Context(), root, opts, func(p indexer.Progress) {
		events.TypedEmit(l.sink, "index-progress", p)
		if onProgress != nil {
			onProgress(p)
		}
	})
	l.jobs.Finish(h.ID, err)
	if err != nil {
		if h.Context().Err() != nil {
			events.TypedEmit(l.sink, "index-cancelled", map[string]string{"job_id": h.ID})
			return result, newErr(ErrKindCancelled, "photowall: index directory", err)
		}
		return result, newErr(ErrKindUnknown, "photowall: index directory", err)
	}
	events.TypedEmit(l.sink, "index-finished", result)
	return result, nil
}

// IndexDirectories indexes multiple roots under one job.
func (l *Library) IndexDirectories(ctx context.Context, roots []string, opts indexer.Options, onProgress func(indexer.Progress)) ([]indexer.Result, error) {
	if err := l.beginBulk(); err != nil {
		return nil, err
	}
	defer l.endBulk()

	h := l.jobs.Start(ctx)
	defer l.jobs.Forget(h.ID)

	results, err := l.indexer.IndexDirectories(h.Context(), roots, opts, onProgress)
	l.jobs.Finish(h.ID, err)
	if err != nil {
		return results, newErr(ErrKindUnknown, "photowall: index directories", err)
	}
	return results, nil
}

// RefreshMetadata re-extracts EXIF metadata for every indexed photo.
func (l *Library) RefreshMetadata(ctx context.Context, onProgress func(indexer.Progress)) (indexer.Result, error) {
	if err := l.beginBulk(); err != nil {
		return indexer.Result{}, err
	}
	defer l.endBulk()

	h := l.jobs.Start(ctx)
	defer l.jobs.Forget(h.ID)
	result, err := l.indexer.RefreshMetadata(h.Context(), onProgress)
	l.jobs.Finish(h.ID, err)
	if err != nil {
		return result, newErr(ErrKindUnknown, "photowall: refresh metadata", err)
	}
	return result, nil
}

// GetPhoto fetches one photo by id.
func (l *Library) GetPhoto(id int64) (*store.Photo, error) {
	p, err := l.store.GetPhoto(id)
	if err != nil {
		return nil, wrapStoreErr("photowall: get photo", err)
	}
	return p, nil
}

// GetPhotosPage returns an offset-paginated photo listing.
func (l *Library) GetPhotosPage(filters store.SearchFilters, sort store.SortField, dir store.SortDir, page, pageSize int) (*store.PagedResult, error) {
	r, err := l.store.GetPhotosPage(filters, sort, dir, page, pageSize)
	if err != nil {
		return nil, wrapStoreErr("photowall: get photos page", err)
	}
	return r, nil
}

// GetPhotosCursor returns a cursor-paginated photo listing with no search
// filters applied, the common "browse everything" case.
func (l *Library) GetPhotosCursor(sort store.SortField, dir store.SortDir, cursor *store.Cursor, limit int) (*store.Page, error) {
	return l.SearchPhotosCursor(store.SearchFilters{}, sort, dir, cursor, limit)
}

// SearchPhotosCursor runs a text/field query (already resolved via
// queryparser.Resolve into filters, or built directly) with cursor
// pagination.
func (l *Library) SearchPhotosCursor(filters store.SearchFilters, sort store.SortField, dir store.SortDir, cursor *store.Cursor, limit int) (*store.Page, error) {
	page, err := l.store.SearchPhotosCursor(filters, sort, dir, cursor, limit)
	if err != nil {
		return nil, wrapStoreErr("photowall: search photos cursor", err)
	}
	return page, nil
}

// Search parses a free-form query string (the §4.12 grammar) and runs it
// with cursor pagination.
func (l *Library) Search(query string, sort store.SortField, dir store.SortDir, cursor *store.Cursor, limit int) (*store.Page, error) {
	pq := queryparser.ParseQuery(query)
	filters := queryparser.Resolve(pq)
	return l.SearchPhotosCursor(filters, sort, dir, cursor, limit)
}

// SetRating sets a photo's star rating (0-5).
func (l *Library) SetRating(id int64, rating int) error {
	return wrapStoreErr("photowall: set rating", l.store.SetRating(id, rating))
}

// UpdatePhoto writes host-supplied OCR text and status for a photo. No OCR
// engine ships with the engine itself; a host that runs its own OCR pass
// persists the result through this method.
func (l *Library) UpdatePhoto(id int64, ocrText string, ocrStatus int) error {
	return wrapStoreErr("photowall: update photo", l.store.SetOCR(id, ocrText, ocrStatus))
}

// SetFavorite sets or clears a photo's favorite flag for each id given.
func (l *Library) SetFavorite(ids []int64, favorite bool) error {
	for _, id := range ids {
		if err := l.store.SetFavorite(id, favorite); err != nil {
			return wrapStoreErr("photowall: set favorite", err)
		}
	}
	return nil
}

// Tags/albums: thin pass-throughs to the store's CRUD, kept here so a host
// only imports the facade package.

func (l *Library) GetOrCreateTag(name string, color *string) (*store.Tag, error) {
	t, err := l.store.GetOrCreateTag(name, color)
	return t, wrapStoreErr("photowall: get or create tag", err)
}

func (l *Library) TagPhoto(photoID, tagID int64) error {
	return wrapStoreErr("photowall: tag photo", l.store.TagPhoto(photoID, tagID))
}

func (l *Library) UntagPhoto(photoID, tagID int64) error {
	return wrapStoreErr("photowall: untag photo", l.store.UntagPhoto(photoID, tagID))
}

func (l *Library) ListTags() ([]*store.Tag, error) {
	t, err := l.store.ListTags()
	return t, wrapStoreErr("photowall: list tags", err)
}

func (l *Library) AddAlbum(name string, description *string) (*store.Album, error) {
	a, err := l.store.AddAlbum(name, description)
	return a, wrapStoreErr("photowall: add album", err)
}

func (l *Library) AddPhotosToAlbum(albumID int64, photoIDs []int64) error {
	for _, id := range photoIDs {
		if err := l.store.AddPhotoToAlbum(albumID, id); err != nil {
			return wrapStoreErr("photowall: add photos to album", err)
		}
	}
	return nil
}

func (l *Library) ReorderAlbumPhotos(albumID int64, orderedIDs []int64) error {
	return wrapStoreErr("photowall: reorder album photos", l.store.ReorderAlbumPhotos(albumID, orderedIDs))
}

func (l *Library) SetAlbumCover(albumID, photoID int64) error {
	a, err := l.store.GetAlbum(albumID)
	if err != nil {
		return wrapStoreErr("photowall: set album cover", err)
	}
	return wrapStoreErr("photowall: set album cover", l.store.UpdateAlbum(albumID, a.Name, a.Description, &photoID))
}

// ResolveSmartAlbum evaluates a smart album's saved filters against the
// current catalog, returning a cursor page the same as any other search.
func (l *Library) ResolveSmartAlbum(id int64, sort store.SortField, dir store.SortDir, cursor *store.Cursor, limit int) (*store.Page, error) {
	sa, err := l.store.GetSmartAlbum(id)
	if err != nil {
		return nil, wrapStoreErr("photowall: resolve smart album", err)
	}
	pq := queryparser.ParseQuery(sa.Filters)
	filters := queryparser.Resolve(pq)
	return l.SearchPhotosCursor(filters, sort, dir, cursor, limit)
}

// Folders

func (l *Library) GetFolderChildren(parent string) ([]*store.FolderEntry, error) {
	entries, err := l.store.ListChildFolders(parent)
	return entries, wrapStoreErr("photowall: get folder children", err)
}

func (l *Library) GetPhotosByFolder(path string, includeSubfolders bool, sort store.SortField, dir store.SortDir, page, pageSize int) (*store.PagedResult, error) {
	filters := store.SearchFilters{FolderPath: &path, Recursive: includeSubfolders}
	return l.GetPhotosPage(filters, sort, dir, page, pageSize)
}

// FolderNode is one node of the aggregated folder tree returned by
// GetFolderTree: TotalPhotoCount is DirectPhotoCount plus the recursive sum
// of every descendant's TotalPhotoCount.
type FolderNode struct {
	Path             string
	Name             string
	DirectPhotoCount int
	TotalPhotoCount  int
	Children         []*FolderNode
}

// GetFolderTree walks every indexed root directory and aggregates the full
// folder tree beneath it, each node's TotalPhotoCount summing its own direct
// count and every descendant's total.
func (l *Library) GetFolderTree() ([]*FolderNode, error) {
	roots, err := l.store.ListDistinctRootDirectories()
	if err != nil {
		return nil, wrapStoreErr("photowall: get folder tree", err)
	}

	nodes := make([]*FolderNode, 0, len(roots))
	for _, root := range roots {
		node, err := l.buildFolderNode(root)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

func (l *Library) buildFolderNode(path string) (*FolderNode, error) {
	direct, _, err := l.store.GetFolderPhotoCounts(path)
	if err != nil {
		return nil, wrapStoreErr("photowall: get folder tree", err)
	}

	children, err := l.store.ListChildFolders(path)
	if err != nil {
		return nil, wrapStoreErr("photowall: get folder tree", err)
	}

	node := &FolderNode{
		Path:             path,
		Name:             filepath.Base(path),
		DirectPhotoCount: direct,
		TotalPhotoCount:  direct,
	}
	for _, c := range children {
		childNode, err := l.buildFolderNode(c.Path)
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, childNode)
		node.TotalPhotoCount += childNode.TotalPhotoCount
	}
	return node, nil
}

// Trash

func (l *Library) GetDeleted(limit int) ([]*store.Photo, error) {
	p, err := l.store.ListTrashedPhotos(limit)
	return p, wrapStoreErr("photowall: get deleted", err)
}

func (l *Library) SoftDelete(ids []int64) error {
	for _, id := range ids {
		if err := l.store.TrashPhoto(id); err != nil {
			return wrapStoreErr("photowall: soft delete", err)
		}
	}
	return nil
}

func (l *Library) Restore(ids []int64) error {
	for _, id := range ids {
		if err := l.store.RestorePhoto(id); err != nil {
			return wrapStoreErr("photowall: restore", err)
		}
	}
	return nil
}

func (l *Library) PermanentDelete(ids []int64) error {
	for _, id := range ids {
		fingerprint := fingerprintOf(l, id)
		if err := l.store.PurgePhoto(id); err != nil {
			return wrapStoreErr("photowall: permanent delete", err)
		}
		l.thumbs.Delete(fingerprint)
	}
	return nil
}

// EmptyTrash permanently deletes every soft-deleted photo, not just the
// first page ListTrashedPhotos would return.
func (l *Library) EmptyTrash() error {
	ids, err := l.store.ListAllTrashedPhotoIDs()
	if err != nil {
		return wrapStoreErr("photowall: empty trash", err)
	}
	return l.PermanentDelete(ids)
}

// GetTrashStats returns the count and total file size of the soft-deleted
// subset of the catalog.
func (l *Library) GetTrashStats() (store.TrashStats, error) {
	stats, err := l.store.GetTrashStats()
	return stats, wrapStoreErr("photowall: get trash stats", err)
}

func fingerprintOf(l *Library, id int64) string {
	p, err := l.store.GetPhoto(id)
	if err != nil || p == nil {
		return ""
	}
	return p.FileHash
}

// Thumbnails

// Enqueue queues thumbnail generation for one photo at a given priority.
func (l *Library) Enqueue(photoID int64, priority thumbnail.Priority) error {
	p, err := l.store.GetPhoto(photoID)
	if err != nil {
		return wrapStoreErr("photowall: enqueue thumbnail", err)
	}
	src := thumbnail.Source{Path: p.FilePath, Fingerprint: p.FileHash, Orientation: p.Orientation}
	l.queue.Enqueue(thumbnail.Request{Source: src, Priority: priority})
	return nil
}

// EnqueueBatch queues thumbnail generation for many photos.
func (l *Library) EnqueueBatch(photoIDs []int64, priority thumbnail.Priority) error {
	for _, id := range photoIDs {
		if err := l.Enqueue(id, priority); err != nil {
			return err
		}
	}
	return nil
}

// CancelByFingerprint cancels thumbnail work for a fingerprint: its queued
// and later requests are skipped, and in-flight work stops before its next
// tier.
func (l *Library) CancelByFingerprint(fingerprint string) {
	l.queue.Cancel(fingerprint)
}

// GetPathIfCached returns a thumbnail's path if already generated, and
// whether it was a cache hit.
func (l *Library) GetPathIfCached(fingerprint string, tier thumbnail.Tier) (string, bool) {
	if l.thumbs.IsCached(fingerprint, tier) {
		return l.thumbs.Path(fingerprint, tier), true
	}
	return "", false
}

// WarmCache generates thumbnails for up to limit photos that don't have one
// yet at tier, prioritizing the most recently added.
func (l *Library) WarmCache(tier thumbnail.Tier, limit int) error {
	page, err := l.store.GetPhotosPage(store.SearchFilters{}, store.SortDateAdded, store.Desc, 1, limit)
	if err != nil {
		return wrapStoreErr("photowall: warm cache", err)
	}
	for _, p := range page.Photos {
		if l.thumbs.IsCached(p.FileHash, tier) {
			continue
		}
		l.queue.Enqueue(thumbnail.Request{
			Source:   thumbnail.Source{Path: p.FilePath, Fingerprint: p.FileHash, Orientation: p.Orientation},
			Tiers:    []thumbnail.Tier{tier},
			Priority: thumbnail.PriorityBackground,
		})
	}
	return nil
}

// Jobs

func (l *Library) CancelJob(id string) error {
	return l.jobs.Cancel(id)
}

// RunningJobs returns the ids of every in-flight job (index, index-many, or
// refresh-metadata run), the set CancelJob accepts. A host polls this from
// a separate goroutine than the one blocked inside IndexDirectory et al. to
// learn a running job's id and cancel it.
func (l *Library) RunningJobs() []string {
	return l.jobs.Running()
}

func (l *Library) ActiveJobCount() int {
	return len(l.jobs.Running())
}

func wrapStoreErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if store.IsNotFound(err) {
		return newErr(ErrKindNotFound, op, err)
	}
	return newErr(ErrKindUnknown, op, err)
}
