package thumbnail

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/photowall/engine/metrics"
)

// Priority orders work items within the queue; higher values run first.
type Priority int

const (
	PriorityBackground Priority = 0
	PriorityNormal     Priority = 5
	PriorityVisible    Priority = 10
)

// Request is one unit of thumbnail work: render every missing tier for a
// Source, or just the tiers listed in Tiers if non-empty.
type Request struct {
	Source   Source
	Tiers    []Tier
	Priority Priority

	seq int64
}

// Queue is a priority thumbnail work queue backed by a small worker pool.
// Requests are ordered by priority, then FIFO within a priority band.
// Workers skip every request whose fingerprint has been canceled.
type Queue struct {
	mu        sync.Mutex
	cond      *sync.Cond
	items     requestHeap
	nextSeq   int64
	canceled  map[string]bool
	closed    bool
	generator *Generator
	workers   int
	log       zerolog.Logger
	metrics   *metrics.Metrics

	wg sync.WaitGroup
}

// SetMetrics attaches a metrics bundle that the queue reports depth and
// generation duration into. m may be nil to disable reporting.
func (q *Queue) SetMetrics(m *metrics.Metrics) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.metrics = m
}

// NewQueue builds a Queue that renders work through gen using the given
// number of worker goroutines, clamped to [1, 8].
func NewQueue(gen *Generator, workers int, log zerolog.Logger) *Queue {
	if workers < 1 {
		workers = 1
	}
	if workers > 8 {
		workers = 8
	}
	q := &Queue{
		canceled:  make(map[string]bool),
		generator: gen,
		workers:   workers,
		log:       log,
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Start launches the worker pool. Call Stop to shut it down.
func (q *Queue) Start() {
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.runWorker()
	}
}

// Stop signals every worker to exit once the queue drains and waits for
// them to finish.
func (q *Queue) Stop() {
	q.mu.Lock()
	q.closed = true
	q.cond.Broadcast()
	q.mu.Unlock()
	q.wg.Wait()
}

// Enqueue adds a request to the queue.
func (q *Queue) Enqueue(req Request) {
	q.mu.Lock()
	defer q.mu.Unlock()
	req.seq = q.nextSeq
	q.nextSeq++
	heap.Push(&q.items, req)
	if q.metrics != nil {
		q.metrics.ThumbnailQueueDepth.Set(float64(len(q.items)))
	}
	q.cond.Signal()
}

// Cancel marks a fingerprint as canceled. Its queued requests, and any
// enqueued later, are skipped; a request already being rendered stops before
// its next tier, and the tier in progress is still cached.
func (q *Queue) Cancel(fingerprint string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.canceled[fingerprint] = true
}

// Len reports the number of requests currently queued (not counting
// in-flight work).
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *Queue) runWorker() {
	defer q.wg.Done()
	for {
		req, ok := q.dequeue()
		if !ok {
			return
		}
		q.process(req)
	}
}

func (q *Queue) dequeue() (Request, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for {
		for len(q.items) > 0 {
			req := heap.Pop(&q.items).(Request)
			if q.metrics != nil {
				q.metrics.ThumbnailQueueDepth.Set(float64(len(q.items)))
			}
			if q.canceled[req.Source.Fingerprint] {
				continue
			}
			return req, true
		}
		if q.closed {
			return Request{}, false
		}
		q.cond.Wait()
	}
}

func (q *Queue) process(req Request) {
	q.mu.Lock()
	canceled := q.canceled[req.Source.Fingerprint]
	q.mu.Unlock()
	if canceled {
		return
	}

	tiers := req.Tiers
	if len(tiers) == 0 {
		tiers = Tiers
	}
	for _, t := range tiers {
		q.mu.Lock()
		canceled := q.canceled[req.Source.Fingerprint]
		q.mu.Unlock()
		if canceled {
			return
		}
		start := time.Now()
		_, err := q.generator.GetOrGenerate(req.Source, t)
		if q.metrics != nil {
			q.metrics.ThumbnailGenDuration.Observe(time.Since(start).Seconds())
		}
		if err != nil {
			q.log.Warn().Err(err).Str("path", req.Source.Path).Str("tier", string(t)).Msg("thumbnail generation failed")
		}
	}
}

// requestHeap implements container/heap.Interface ordering by (priority
// desc, seq asc).
type requestHeap []Request

func (h requestHeap) Len() int { return len(h) }
func (h requestHeap) Less(i, j int) bool {
	if h[i].Priority != h[j].Priority {
		return h[i].Priority > h[j].Priority
	}
	return h[i].seq < h[j].seq
}
func (h requestHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *requestHeap) Push(x any) {
	*h = append(*h, x.(Request))
}
func (h *requestHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Drain blocks until ctx is done or the queue has no pending requests left
// for the given fingerprints (used by tests and by callers that need a
// synchronous "wait for these to finish" point).
func (q *Queue) Drain(ctx context.Context, fingerprints []string) error {
	want := make(map[string]bool, len(fingerprints))
	for _, fp := range fingerprints {
		want[fp] = true
	}
	for {
		q.mu.Lock()
		pending := false
		for _, req := range q.items {
			if want[req.Source.Fingerprint] {
				pending = true
				break
			}
		}
		q.mu.Unlock()
		if !pending {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}
}
