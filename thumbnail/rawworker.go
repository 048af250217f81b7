package thumbnail

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/rs/zerolog"

	"github.com/photowall/engine/metrics"
)

// RAW preview extraction reads whole files of up to 64 MiB into memory for
// its EXIF/byte-scan path, so rather than running with unbounded
// concurrency against large files it gets its own single-worker queue
// distinct from the general thumbnail Queue.

// rawRequest is one pending preview extraction.
type rawRequest struct {
	path   string
	result chan<- rawResult
}

type rawResult struct {
	img image.Image
	err error
}

// RAWWorker serializes RAW preview extraction through a single goroutine,
// bounding memory use and giving each request an individual timeout.
type RAWWorker struct {
	requests chan rawRequest
	timeout  time.Duration
	log      zerolog.Logger
	metrics  *metrics.Metrics

	done chan struct{}
}

// SetMetrics wires a Metrics bundle into the worker. Must be called before
// Extract is used concurrently with the queue depth being read elsewhere.
func (w *RAWWorker) SetMetrics(m *metrics.Metrics) {
	w.metrics = m
}

// NewRAWWorker starts the background worker. queueDepth bounds how many
// requests may wait before Extract blocks.
func NewRAWWorker(queueDepth int, timeout time.Duration, log zerolog.Logger) *RAWWorker {
	if queueDepth < 1 {
		queueDepth = 4
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	w := &RAWWorker{
		requests: make(chan rawRequest, queueDepth),
		timeout:  timeout,
		log:      log,
		done:     make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *RAWWorker) run() {
	for req := range w.requests {
		img, err := w.extractWithTimeout(req.path)
		req.result <- rawResult{img: img, err: err}
	}
	close(w.done)
}

func (w *RAWWorker) extractWithTimeout(path string) (image.Image, error) {
	type outcome struct {
		img image.Image
		err error
	}
	ch := make(chan outcome, 1)
	go func() {
		img, err := ExtractRAWPreview(path)
		ch <- outcome{img: img, err: err}
	}()

	select {
	case o := <-ch:
		return o.img, o.err
	case <-time.After(w.timeout):
		return nil, fmt.Errorf("thumbnail: raw preview extraction timed out after %s for %s", w.timeout, path)
	}
}

// Extract queues a RAW preview extraction and waits for its result,
// honoring ctx for cancellation while the request waits in the channel.
func (w *RAWWorker) Extract(ctx context.Context, path string) (image.Image, error) {
	result := make(chan rawResult, 1)
	select {
	case w.requests <- rawRequest{path: path, result: result}:
		if w.metrics != nil {
			w.metrics.RAWWorkerQueueDepth.Set(float64(len(w.requests)))
		}
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case r := <-result:
		return r.img, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close stops accepting new requests and waits for the worker to drain.
func (w *RAWWorker) Close() {
	close(w.requests)
	<-w.done
}
