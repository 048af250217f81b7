// Package metrics exposes Prometheus collectors for the engine's
// background subsystems (indexing throughput, thumbnail queue depth,
// auto-scan backoff state) so a host can wire them into its own registry.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics bundles every collector the engine registers. A host embeds
// this in its own registry rather than relying on the default global one,
// so multiple engine instances in a test process don't collide.
type Metrics struct {
	IndexRunsTotal          prometheus.Counter
	IndexedPhotosTotal      prometheus.Counter
	IndexFailuresTotal      prometheus.Counter
	ThumbnailQueueDepth     prometheus.Gauge
	ThumbnailGenDuration    prometheus.Histogram
	AutoScanRunsTotal       *prometheus.CounterVec
	AutoScanMultiplier      *prometheus.GaugeVec
	RAWWorkerQueueDepth     prometheus.Gauge
}

// New constructs a Metrics bundle with all collectors created but not yet
// registered.
func New() *Metrics {
	return &Metrics{
		IndexRunsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "photowall",
			Subsystem: "indexer",
			Name:      "runs_total",
			Help:      "Number of directory index runs completed, one per indexed root.",
		}),
		IndexedPhotosTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "photowall",
			Subsystem: "indexer",
			Name:      "photos_indexed_total",
			Help:      "Number of photo rows successfully written by the indexer.",
		}),
		IndexFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "photowall",
			Subsystem: "indexer",
			Name:      "photos_failed_total",
			Help:      "Number of files that failed stat, hashing or insertion.",
		}),
		ThumbnailQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "photowall",
			Subsystem: "thumbnail",
			Name:      "queue_depth",
			Help:      "Number of thumbnail requests currently queued.",
		}),
		ThumbnailGenDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "photowall",
			Subsystem: "thumbnail",
			Name:      "generation_duration_seconds",
			Help:      "Time to render and encode one thumbnail tier.",
			Buckets:   prometheus.DefBuckets,
		}),
		AutoScanRunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "photowall",
			Subsystem: "autoscan",
			Name:      "runs_total",
			Help:      "Number of scheduled scans run per watched root.",
		}, []string{"root"}),
		AutoScanMultiplier: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "photowall",
			Subsystem: "autoscan",
			Name:      "backoff_multiplier",
			Help:      "Current stepped backoff multiplier applied to a watched root's scan interval.",
		}, []string{"root"}),
		RAWWorkerQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "photowall",
			Subsystem: "thumbnail",
			Name:      "raw_worker_queue_depth",
			Help:      "Number of RAW preview extraction requests waiting on the serialized worker.",
		}),
	}
}

// MustRegister registers every collector against reg, panicking on a
// duplicate-registration error (a programmer error, not a runtime one).
func (m *Metrics) MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(
		m.IndexRunsTotal,
		m.IndexedPhotosTotal,
		m.IndexFailuresTotal,
		m.ThumbnailQueueDepth,
		m.ThumbnailGenDuration,
		m.AutoScanRunsTotal,
		m.AutoScanMultiplier,
		m.RAWWorkerQueueDepth,
	)
}
