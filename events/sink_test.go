package events

import "testing"

func TestNopSinkNeverErrors(t *testing.T) {
	if err := (NopSink{}).Emit("anything", map[string]int{"a": 1}); err != nil {
		t.Errorf("expected no error from NopSink, got %v", err)
	}
}

func TestCollectorSinkRecordsEvents(t *testing.T) {
	c := NewCollectorSink()
	if err := TypedEmit(c, "scan.started", map[string]string{"root": "/photos"}); err != nil {
		t.Fatalf("TypedEmit: %v", err)
	}
	if err := TypedEmit(c, "scan.completed", map[string]int{"count": 42}); err != nil {
		t.Fatalf("TypedEmit: %v", err)
	}
	if len(c.Events) != 2 {
		t.Fatalf("expected 2 events recorded, got %d", len(c.Events))
	}
	if c.Events[0].Name != "scan.started" {
		t.Errorf("expected first event scan.started, got %s", c.Events[0].Name)
	}
	if c.Events[0].JSON != `{"root":"/photos"}` {
		t.Errorf("unexpected JSON payload: %s", c.Events[0].JSON)
	}
}

func TestCollectorSinkNamedFilters(t *testing.T) {
	c := NewCollectorSink()
	_ = TypedEmit(c, "a", 1)
	_ = TypedEmit(c, "b", 2)
	_ = TypedEmit(c, "a", 3)
	matches := c.Named("a")
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches for name a, got %d", len(matches))
	}
}

func TestTypedEmitNilSinkIsNoop(t *testing.T) {
	if err := TypedEmit(nil, "x", 1); err != nil {
		t.Errorf("expected nil sink to be a no-op, got error %v", err)
	}
}
