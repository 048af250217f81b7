package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMustRegisterAndIncrement(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New()
	m.MustRegister(reg)

	m.IndexRunsTotal.Inc()
	m.IndexedPhotosTotal.Add(5)
	m.AutoScanMultiplier.WithLabelValues("/photos").Set(4)

	if got := testutil.ToFloat64(m.IndexRunsTotal); got != 1 {
		t.Errorf("expected 1 index run, got %v", got)
	}
	if got := testutil.ToFloat64(m.IndexedPhotosTotal); got != 5 {
		t.Errorf("expected 5 indexed photos, got %v", got)
	}
	if got := testutil.ToFloat64(m.AutoScanMultiplier.WithLabelValues("/photos")); got != 4 {
		t.Errorf("expected multiplier 4, got %v", got)
	}
}

func TestDuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New()
	m.MustRegister(reg)

	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	m.MustRegister(reg)
}
