// Package jobs tracks long-running, cancelable operations (directory
// scans, bulk re-indexing, thumbnail backfills) so a host UI can offer a
// cancel button without the engine exposing its internal goroutines.
package jobs

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Status is a job's lifecycle state.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusCanceled  Status = "canceled"
	StatusFailed    Status = "failed"
)

// Handle is what a caller holds to observe and cancel a running job.
type Handle struct {
	ID     string
	ctx    context.Context
	cancel context.CancelFunc
}

// Context returns the job's cancelable context; operations running under
// the job should select on ctx.Done() at natural checkpoints (per batch,
// per file) rather than polling a boolean.
func (h *Handle) Context() context.Context { return h.ctx }

// Cancel requests the job stop. It does not block for the job to actually
// finish; callers that need that should track completion separately.
func (h *Handle) Cancel() { h.cancel() }

// Manager is a process-wide registry of in-flight jobs and their cancel
// tokens.
type Manager struct {
	mu   sync.Mutex
	jobs map[string]*entry
}

type entry struct {
	handle *Handle
	status Status
	err    error
}

// NewManager returns an empty Manager.
func NewManager() *Manager {
	return &Manager{jobs: make(map[string]*entry)}
}

// Start registers a new job derived from parent and returns its handle.
// The caller is responsible for calling Finish when the job's work ends.
func (m *Manager) Start(parent context.Context) *Handle {
	ctx, cancel := context.WithCancel(parent)
	h := &Handle{ID: uuid.NewString(), ctx: ctx, cancel: cancel}

	m.mu.Lock()
	m.jobs[h.ID] = &entry{handle: h, status: StatusRunning}
	m.mu.Unlock()
	return h
}

// Finish records a job's terminal status. err is nil for a clean
// completion; ctx.Err() from the job's own context indicates cancellation.
func (m *Manager) Finish(id string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.jobs[id]
	if !ok {
		return
	}
	switch {
	case err == nil:
		e.status = StatusCompleted
	case e.handle.ctx.Err() != nil:
		e.status = StatusCanceled
	default:
		e.status = StatusFailed
		e.err = err
	}
}

// Cancel requests the named job stop, returning an error if no such job is
// registered (it may already have finished).
func (m *Manager) Cancel(id string) error {
	m.mu.Lock()
	e, ok := m.jobs[id]
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("jobs: no such job %q", id)
	}
	e.handle.Cancel()
	return nil
}

// Status reports a job's current lifecycle state and, for StatusFailed,
// the error that ended it.
func (m *Manager) Status(id string) (Status, error, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.jobs[id]
	if !ok {
		return "", nil, false
	}
	return e.status, e.err, true
}

// Forget drops a finished job's bookkeeping entry. Callers typically do
// this once a host UI has observed the terminal status.
func (m *Manager) Forget(id string) {
	m.mu.Lock()
	delete(m.jobs, id)
	m.mu.Unlock()
}

// Running lists the IDs of jobs still in StatusRunning.
func (m *Manager) Running() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for id, e := range m.jobs {
		if e.status == StatusRunning {
			ids = append(ids, id)
		}
	}
	return ids
}
