package generate

import (
	"testing"
	"time"
)

func TestLLMStatsSnapshotPercentiles(t *testing.T) {
	stats := NewLLMStats(time.Hour)
	for _, ms := range []int64{500, 100, 400, 200, 300} {
		stats.Record(ms, false)
	}

	snap := stats.Snapshot()
	if snap.Count != 5 {
		t.Fatalf("expected count=5, got %d", snap.Count)
	}
	if snap.MinMs != 100 || snap.MaxMs != 500 {
		t.Fatalf("expected min=100 max=500, got %d %d", snap.MinMs, snap.MaxMs)
	}
	if snap.AvgMs != 300 {
		t.Fatalf("expected avg=300, got %f", snap.AvgMs)
	}
	if snap.P50Ms != 300 {
		t.Fatalf("expected p50=300, got %f", snap.P50Ms)
	}
	if snap.P95Ms != 480 {
		t.Fatalf("expected p95=480, got %f", snap.P95Ms)
	}
	if snap.P99Ms != 496 {
		t.Fatalf("expected p99=496, got %f", snap.P99Ms)
	}
	if snap.Window != "1h0m0s" {
		t.Errorf("expected window 1h0m0s, got %q", snap.Window)
	}
}

func TestLLMStatsCountsFailures(t *testing.T) {
	stats := NewLLMStats(time.Hour)
	stats.Record(100, false)
	stats.Record(100, true)
	stats.Record(100, false)
	stats.Record(100, true)

	snap := stats.Snapshot()
	if snap.Failures != 2 {
		t.Fatalf("expected 2 failures, got %d", snap.Failures)
	}
	if snap.ErrorRate != 0.5 {
		t.Errorf("expected error rate 0.5, got %f", snap.ErrorRate)
	}
}

func TestLLMStatsPrunesExpiredSamples(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	stats := NewLLMStats(time.Minute)
	stats.now = func() time.Time { return now }

	stats.Record(100, false)
	now = now.Add(2 * time.Minute)

	if snap := stats.Snapshot(); snap.Count != 0 {
		t.Fatalf("expected count=0 after prune, got %d", snap.Count)
	}

	stats.Record(200, false)
	snap := stats.Snapshot()
	if snap.Count != 1 || snap.MinMs != 200 || snap.MaxMs != 200 {
		t.Fatalf("expected a single 200ms sample, got %+v", snap)
	}
}

func TestLLMStatsRecordClampsNegativeDuration(t *testing.T) {
	stats := NewLLMStats(time.Hour)
	stats.Record(-10, false)
	snap := stats.Snapshot()
	if snap.Count != 1 {
		t.Fatalf("expected count=1, got %d", snap.Count)
	}
	if snap.MinMs != 0 || snap.MaxMs != 0 {
		t.Fatalf("expected clamped duration=0, got min=%d max=%d", snap.MinMs, snap.MaxMs)
	}
}

func TestLLMStatsEmpty(t *testing.T) {
	snap := NewLLMStats(0).Snapshot()
	if snap.Count != 0 || snap.P99Ms != 0 {
		t.Errorf("expected zero snapshot, got %+v", snap)
	}
}
