package jobs

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestStartRegistersRunningJob(t *testing.T) {
	m := NewManager()
	h := m.Start(context.Background())
	status, _, ok := m.Status(h.ID)
	if !ok {
		t.Fatal("expected job to be registered")
	}
	if status != StatusRunning {
		t.Errorf("expected StatusRunning, got %s", status)
	}
}

func TestFinishRecordsCompleted(t *testing.T) {
	m := NewManager()
	h := m.Start(context.Background())
	m.Finish(h.ID, nil)
	status, err, _ := m.Status(h.ID)
	if status != StatusCompleted || err != nil {
		t.Errorf("expected completed/nil, got %s/%v", status, err)
	}
}

func TestFinishRecordsFailed(t *testing.T) {
	m := NewManager()
	h := m.Start(context.Background())
	m.Finish(h.ID, errors.New("boom"))
	status, err, _ := m.Status(h.ID)
	if status != StatusFailed || err == nil {
		t.Errorf("expected failed/non-nil, got %s/%v", status, err)
	}
}

func TestCancelStopsJobContext(t *testing.T) {
	m := NewManager()
	h := m.Start(context.Background())
	if err := m.Cancel(h.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	select {
	case <-h.Context().Done():
	case <-time.After(time.Second):
		t.Fatal("expected job context to be canceled")
	}
	m.Finish(h.ID, h.Context().Err())
	status, _, _ := m.Status(h.ID)
	if status != StatusCanceled {
		t.Errorf("expected StatusCanceled, got %s", status)
	}
}

func TestCancelUnknownJobErrors(t *testing.T) {
	m := NewManager()
	if err := m.Cancel("nonexistent"); err == nil {
		t.Fatal("expected error canceling unknown job")
	}
}

func TestForgetRemovesEntry(t *testing.T) {
	m := NewManager()
	h := m.Start(context.Background())
	m.Finish(h.ID, nil)
	m.Forget(h.ID)
	if _, _, ok := m.Status(h.ID); ok {
		t.Error("expected job entry to be gone after Forget")
	}
}

func TestRunningListsOnlyInFlightJobs(t *testing.T) {
	m := NewManager()
	h1 := m.Start(context.Background())
	h2 := m.Start(context.Background())
	m.Finish(h2.ID, nil)

	running := m.Running()
	if len(running) != 1 || running[0] != h1.ID {
		t.Errorf("expected only %s running, got %+v", h1.ID, running)
	}
}
