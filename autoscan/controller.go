// Package autoscan composes a filesystem watcher, a periodic scheduler,
// and a realtime indexing worker into one controller that keeps a set of
// watched roots in sync with the store, backing off scan frequency on
// roots that haven't changed recently.
package autoscan

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/photowall/engine/events"
	"github.com/photowall/engine/indexer"
	"github.com/photowall/engine/metrics"
	"github.com/photowall/engine/scanner"
	"github.com/photowall/engine/store"
	"github.com/photowall/engine/watcher"
)

// schedulerTick is how often the scheduler loop checks for due scans.
const schedulerTick = 60 * time.Second

// realtimeDebounce batches rapid-fire watcher events per path before the
// realtime worker acts on them.
const realtimeDebounce = 800 * time.Millisecond

var retryBackoffs = []time.Duration{400 * time.Millisecond, 800 * time.Millisecond, 1200 * time.Millisecond}

// Config is the effective, normalized configuration a Controller is
// started or restarted with.
type Config struct {
	Roots         []string
	BaseInterval  time.Duration
	RealtimeWatch bool
	IndexOptions  indexer.Options
}

// canonicalRoots returns a deduplicated, sorted copy of roots, used both to
// decide whether apply_settings is a no-op and to build scan_directories
// rows deterministically.
func canonicalRoots(roots []string) []string {
	seen := make(map[string]bool, len(roots))
	var out []string
	for _, r := range roots {
		clean := filepath.Clean(r)
		if !seen[clean] {
			seen[clean] = true
			out = append(out, clean)
		}
	}
	sort.Strings(out)
	return out
}

// equalConfig reports whether two configs would produce the same running
// state, used by ApplySettings to avoid an unnecessary stop/restart.
func equalConfig(a, b Config) bool {
	if a.RealtimeWatch != b.RealtimeWatch || a.BaseInterval != b.BaseInterval {
		return false
	}
	ra, rb := canonicalRoots(a.Roots), canonicalRoots(b.Roots)
	if len(ra) != len(rb) {
		return false
	}
	for i := range ra {
		if ra[i] != rb[i] {
			return false
		}
	}
	return true
}

// Controller owns the lifecycle of auto-scanning: a per-root watcher, a
// 60s scheduler tick, and a debounced realtime indexing worker. Every event
// it observes carries a generation number; events from a stale generation
// (left over from a since-stopped run) are discarded rather than acted on.
type Controller struct {
	store   *store.Store
	indexer *indexer.Indexer
	sink    events.Sink
	log     zerolog.Logger
	metrics *metrics.Metrics

	generation atomic.Uint64
	scanning   atomic.Bool

	mu        sync.Mutex
	running   bool
	cfg       Config
	watchers  []*watcher.Watcher
	stopCh    chan struct{}
	changeCh  chan watcher.Change
	wg        sync.WaitGroup

	debounceMu sync.Mutex
	debounced  map[string]*time.Timer
}

// New builds a Controller. Call ApplySettings or Start to begin running.
func New(st *store.Store, ix *indexer.Indexer, sink events.Sink, log zerolog.Logger) *Controller {
	return &Controller{
		store:     st,
		indexer:   ix,
		sink:      sink,
		log:       log,
		debounced: make(map[string]*time.Timer),
	}
}

// SetMetrics attaches a metrics bundle that scheduled scan runs and
// backoff state report into. m may be nil to disable reporting.
func (c *Controller) SetMetrics(m *metrics.Metrics) {
	c.metrics = m
}

// ApplySettings reconciles the controller's running state with new_cfg. If
// auto-scan is effectively disabled (no roots), it stops everything. If the
// effective configuration is unchanged, it is a no-op. Otherwise it stops
// any running controller and restarts with the new configuration.
func (c *Controller) ApplySettings(cfg Config) error {
	cfg.Roots = canonicalRoots(cfg.Roots)

	c.mu.Lock()
	running := c.running
	current := c.cfg
	c.mu.Unlock()

	if len(cfg.Roots) == 0 {
		if running {
			c.Stop()
		}
		return nil
	}
	if running && equalConfig(current, cfg) {
		return nil
	}
	if running {
		c.Stop()
	}
	return c.Start(cfg)
}

// Start bumps the generation counter, syncs scan_directories rows, and
// launches the scheduler loop, realtime worker, and (if configured) one
// watcher per root.
func (c *Controller) Start(cfg Config) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return fmt.Errorf("autoscan: controller already running")
	}

	gen := c.generation.Add(1)
	if err := c.syncScanDirectories(cfg.Roots); err != nil {
		return fmt.Errorf("autoscan: sync scan directories: %w", err)
	}

	c.cfg = cfg
	c.stopCh = make(chan struct{})
	c.changeCh = make(chan watcher.Change, 256)
	c.watchers = nil
	c.running = true

	if cfg.RealtimeWatch {
		for _, root := range cfg.Roots {
			w, err := watcher.New(watcher.DefaultOptions(), c.log, func(ch watcher.Change) {
				select {
				case c.changeCh <- ch:
				default:
					c.log.Warn().Str("path", ch.Path).Msg("autoscan: change channel full, dropping event")
				}
			})
			if err != nil {
				c.log.Warn().Err(err).Str("root", root).Msg("autoscan: failed to create watcher")
				continue
			}
			if err := w.AddRoot(root); err != nil {
				c.log.Warn().Err(err).Str("root", root).Msg("autoscan: failed to register root")
			}
			w.Start()
			c.watchers = append(c.watchers, w)
		}
	}

	c.wg.Add(2)
	go c.eventLoop(gen)
	go c.schedulerLoop(gen)
	return nil
}

// Stop tears down the scheduler, realtime worker, and every watcher. Any
// in-flight work tagged with the previous generation will discard itself
// once it next checks the generation counter.
func (c *Controller) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	close(c.stopCh)
	watchers := c.watchers
	c.running = false
	c.mu.Unlock()

	for _, w := range watchers {
		w.Close()
	}
	c.wg.Wait()
}

func (c *Controller) currentGeneration() uint64 { return c.generation.Load() }

func (c *Controller) eventLoop(gen uint64) {
	defer c.wg.Done()
	for {
		select {
		case <-c.stopCh:
			return
		case ch := <-c.changeCh:
			if c.currentGeneration() != gen {
				return
			}
			c.debounceRealtimeChange(gen, ch)
		}
	}
}

func (c *Controller) debounceRealtimeChange(gen uint64, ch watcher.Change) {
	c.debounceMu.Lock()
	defer c.debounceMu.Unlock()

	if t, ok := c.debounced[ch.Path]; ok {
		t.Stop()
	}
	c.debounced[ch.Path] = time.AfterFunc(realtimeDebounce, func() {
		c.debounceMu.Lock()
		delete(c.debounced, ch.Path)
		c.debounceMu.Unlock()
		c.handleRealtimeChange(gen, ch)
	})
}

func (c *Controller) handleRealtimeChange(gen uint64, ch watcher.Change) {
	if c.currentGeneration() != gen {
		return
	}
	c.waitForScanSlot(gen)
	if c.currentGeneration() != gen {
		return
	}
	c.scanning.Store(true)
	defer c.scanning.Store(false)

	root := c.ownerRoot(ch.Path)

	if ch.Type == watcher.Removed {
		c.handleRealtimeRemoval(ch.Path)
		return
	}

	c.handleRealtimeUpsert(gen, root, ch.Path)
}

func (c *Controller) ownerRoot(path string) string {
	c.mu.Lock()
	roots := c.cfg.Roots
	c.mu.Unlock()

	dir := filepath.Dir(path)
	for {
		for _, r := range roots {
			if dir == r {
				return r
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func (c *Controller) handleRealtimeRemoval(path string) {
	photo, err := c.store.GetPhotoByPath(path)
	if err != nil || photo == nil {
		return
	}
	if err := c.store.TrashPhoto(photo.ID); err != nil {
		c.log.Warn().Err(err).Str("path", path).Msg("autoscan: failed to soft-delete removed photo")
		return
	}
	events.TypedEmit(c.sink, "auto-scan:realtime-deleted", FileChangedPayload{Path: path})
}

func (c *Controller) handleRealtimeUpsert(gen uint64, root, path string) {
	var lastErr error
	for attempt, delay := range retryBackoffs {
		if attempt > 0 {
			time.Sleep(delay)
		}
		if c.currentGeneration() != gen {
			return
		}
		indexed, err := c.indexer.IndexSingleFile(context.Background(), path, c.cfg.IndexOptions)
		if err == nil {
			if root != "" {
				c.resetRootFrequency(root)
			}
			events.TypedEmit(c.sink, "auto-scan:realtime-indexed", FileChangedPayload{Path: path, Indexed: indexed})
			return
		}
		lastErr = err
	}
	c.log.Warn().Err(lastErr).Str("path", path).Msg("autoscan: realtime index failed after retries")
}

func (c *Controller) resetRootFrequency(root string) {
	sd, err := c.store.GetScanDirectoryByPath(root)
	if err != nil || sd == nil {
		return
	}
	if sd.NoChangeCount == 0 && sd.ScanMultiplier == 1 {
		return
	}
	next := time.Now().UTC().Add(c.cfg.BaseInterval).Format("2006-01-02T15:04:05Z")
	if err := c.store.RecordScanResult(root, nowISO(), next, 0, 1, sd.FileCount, strPtr(nowISO())); err != nil {
		c.log.Warn().Err(err).Str("root", root).Msg("autoscan: failed to reset scan frequency")
		return
	}
	events.TypedEmit(c.sink, "auto-scan:frequency-changed", FrequencyChangedPayload{Root: root, Multiplier: 1})
}

// waitForScanSlot enforces the single-flight guarantee: a realtime job
// waits (polling every 100ms) for a scheduled scan in flight to clear.
func (c *Controller) waitForScanSlot(gen uint64) {
	for c.scanning.Load() {
		if c.currentGeneration() != gen {
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
}

func (c *Controller) schedulerLoop(gen uint64) {
	defer c.wg.Done()
	ticker := time.NewTicker(schedulerTick)
	defer ticker.Stop()
	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			if c.currentGeneration() != gen {
				return
			}
			c.runScheduledScans(gen)
		}
	}
}

func (c *Controller) runScheduledScans(gen uint64) {
	due, err := c.store.ListDueScanDirectories(time.Now().UTC())
	if err != nil {
		c.log.Warn().Err(err).Msg("autoscan: failed to list due scan directories")
		return
	}
	for _, sd := range due {
		if c.currentGeneration() != gen {
			return
		}
		if c.scanning.Load() {
			c.log.Debug().Str("root", sd.Path).Msg("autoscan: scan already in flight, skipping this tick")
			continue
		}
		c.runScheduledScan(gen, sd)
	}
}

func (c *Controller) runScheduledScan(gen uint64, sd *store.ScanDirectory) {
	c.scanning.Store(true)
	defer c.scanning.Store(false)

	events.TypedEmit(c.sink, "auto-scan:started", ScanStartedPayload{Root: sd.Path})

	scanResult, err := scanner.ScanDirectory(sd.Path, c.cfg.IndexOptions.Scan)
	newFileCount := 0
	if err == nil {
		newFileCount = len(scanResult.Files)
	}

	result, err := c.indexer.IndexDirectory(context.Background(), sd.Path, c.cfg.IndexOptions, nil)
	if err != nil {
		c.log.Warn().Err(err).Str("root", sd.Path).Msg("autoscan: scheduled scan failed")
		return
	}
	if c.currentGeneration() != gen {
		return
	}

	hasChanges := result.Indexed > 0 || newFileCount != sd.FileCount
	newCount, newMultiplier := nextBackoffState(sd.NoChangeCount, hasChanges)

	interval := c.cfg.BaseInterval * time.Duration(newMultiplier)
	next := time.Now().UTC().Add(interval).Format("2006-01-02T15:04:05Z")
	now := nowISO()
	var lastChange *string
	if hasChanges {
		lastChange = strPtr(now)
	}

	if err := c.store.RecordScanResult(sd.Path, now, next, newCount, newMultiplier, newFileCount, lastChange); err != nil {
		c.log.Warn().Err(err).Str("root", sd.Path).Msg("autoscan: failed to record scan result")
		return
	}

	if c.metrics != nil {
		c.metrics.AutoScanRunsTotal.WithLabelValues(sd.Path).Inc()
		c.metrics.AutoScanMultiplier.WithLabelValues(sd.Path).Set(float64(newMultiplier))
	}

	events.TypedEmit(c.sink, "auto-scan:completed", ScanCompletedPayload{
		Root:       sd.Path,
		Indexed:    result.Indexed,
		Skipped:    result.Skipped,
		Failed:     result.Failed,
		Multiplier: newMultiplier,
	})
	if newMultiplier != sd.ScanMultiplier {
		events.TypedEmit(c.sink, "auto-scan:frequency-changed", FrequencyChangedPayload{Root: sd.Path, Multiplier: newMultiplier})
	}
}

func (c *Controller) syncScanDirectories(roots []string) error {
	existing, err := c.store.ListScanDirectories()
	if err != nil {
		return err
	}
	wanted := make(map[string]bool, len(roots))
	for _, r := range roots {
		wanted[r] = true
		if _, err := c.store.GetOrCreateScanDirectory(r); err != nil {
			return err
		}
	}
	for _, sd := range existing {
		if !wanted[sd.Path] {
			if err := c.store.SetScanDirectoryActive(sd.Path, false); err != nil {
				return err
			}
		} else if err := c.store.SetScanDirectoryActive(sd.Path, true); err != nil {
			return err
		}
	}
	return nil
}

func nowISO() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05Z")
}

func strPtr(s string) *string { return &s }
