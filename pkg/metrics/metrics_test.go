package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// value reads one counter or gauge sample from g.
func value(t *testing.T, g prometheus.Gatherer, name string, labels map[string]string) float64 {
	t.Helper()
	mfs, err := g.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
	metrics:
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if want, ok := labels[lp.GetName()]; ok && want != lp.GetValue() {
					continue metrics
				}
			}
			if m.Counter != nil {
				return m.GetCounter().GetValue()
			}
			return m.GetGauge().GetValue()
		}
	}
	return 0
}

func TestNilCollectorIsSafe(t *testing.T) {
	var c *Collector
	c.HostConnected("x-a")
	c.HostDisconnected()
	c.Render("x-a", "initial", time.Millisecond)
	c.Mutations(3)
	c.Diagnostic("Render", "error")
	c.BundleLoad(nil)
	c.Hydrated(time.Second, nil)
	_, span := c.StartSpan(context.Background(), "test")
	span.End()
	if c.Gatherer() != nil {
		t.Error("Gatherer() on nil collector should be nil")
	}
}

func TestCollectorCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(WithRegistry(reg), WithNamespace("test"))

	c.HostConnected("x-a")
	c.HostConnected("x-a")
	c.HostDisconnected()
	c.Render("x-a", "initial", time.Millisecond)
	c.Mutations(5)
	c.Mutations(0)
	c.BundleLoad(errors.New("missing"))

	if got := value(t, reg, "test_hosts_connected_total", map[string]string{"tag": "x-a"}); got != 2 {
		t.Errorf("hosts_connected_total = %v, want 2", got)
	}
	if got := value(t, reg, "test_hosts_active", nil); got != 1 {
		t.Errorf("hosts_active = %v, want 1", got)
	}
	if got := value(t, reg, "test_renders_total", map[string]string{"tag": "x-a", "phase": "initial"}); got != 1 {
		t.Errorf("renders_total = %v, want 1", got)
	}
	if got := value(t, reg, "test_dom_mutations_total", nil); got != 5 {
		t.Errorf("dom_mutations_total = %v, want 5", got)
	}
	if got := value(t, reg, "test_bundle_loads_total", map[string]string{"status": "error"}); got != 1 {
		t.Errorf("bundle_loads_total{error} = %v, want 1", got)
	}
	if c.Gatherer() == nil {
		t.Error("Gatherer() = nil for a prometheus.Registry")
	}
}

func TestCollectorsAreIsolated(t *testing.T) {
	// Two collectors with default registries must not collide.
	a := New()
	b := New()
	a.HostConnected("x-a")
	if got := value(t, b.Gatherer(), "vessel_hosts_active", nil); got != 0 {
		t.Errorf("b.hosts_active = %v, want 0", got)
	}
}
