package observability

import (
	"testing"
	"time"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/tickets", "POST", 201, 20*time.Millisecond)
	m.RecordRequest("/tickets", "POST", 201, 40*time.Millisecond)
	m.RecordError("/approvals/:id/resolve", "POST", "INVALID_STATE")
	m.RecordDispatch("Pix", true)
	m.RecordDispatch("Link", false)

	snap := m.Snapshot()
	if snap.Requests["/tickets|POST|201"] != 2 {
		t.Fatalf("unexpected request count %v", snap.Requests)
	}
	if snap.AvgLatency["/tickets|POST|201"] != 30 {
		t.Fatalf("unexpected latency %v", snap.AvgLatency)
	}
	if snap.Errors["/approvals/:id/resolve|POST|INVALID_STATE"] != 1 {
		t.Fatalf("unexpected errors %v", snap.Errors)
	}
	if snap.Dispatches["Pix|ok"] != 1 || snap.Dispatches["Link|failed"] != 1 {
		t.Fatalf("unexpected dispatches %v", snap.Dispatches)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordRequest("/", "GET", 200, time.Millisecond)
	m.RecordDispatch("Pix", true)
	if len(m.Snapshot().Requests) != 0 {
		t.Fatal("nil metrics should snapshot empty")
	}
}
