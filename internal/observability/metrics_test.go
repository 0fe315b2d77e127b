package observability

import (
	"sync"
	"testing"
	"time"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/requests/:id", "GET", 200, 10*time.Millisecond)
	m.RecordRequest("/requests/:id", "GET", 200, 30*time.Millisecond)
	m.RecordRequest("/requests", "POST", 201, time.Millisecond)
	m.RecordError("/requests/:id", "GET", "NOT_FOUND")

	snap := m.Snapshot()
	if len(snap.Requests) != 2 {
		t.Fatalf("expected 2 request counters, got %d", len(snap.Requests))
	}
	first := snap.Requests[0]
	if first.Route != "/requests" || first.Method != "POST" || first.Label != "201" || first.Count != 1 {
		t.Fatalf("unexpected first counter %+v", first)
	}
	second := snap.Requests[1]
	if second.Count != 2 || second.AvgMillis != 20 {
		t.Fatalf("unexpected second counter %+v", second)
	}
	if len(snap.Errors) != 1 || snap.Errors[0].Label != "NOT_FOUND" {
		t.Fatalf("unexpected errors %+v", snap.Errors)
	}
}

func TestMetricsConcurrentAndNil(t *testing.T) {
	var nilMetrics *Metrics
	nilMetrics.RecordRequest("/", "GET", 200, time.Millisecond)
	nilMetrics.RecordError("/", "GET", "X")
	if snap := nilMetrics.Snapshot(); len(snap.Requests) != 0 {
		t.Fatal("nil metrics should be inert")
	}

	m := NewMetrics()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.RecordRequest("/health/live", "GET", 200, time.Millisecond)
		}()
	}
	wg.Wait()
	if got := m.Snapshot().Requests[0].Count; got != 50 {
		t.Fatalf("expected 50, got %d", got)
	}
}
