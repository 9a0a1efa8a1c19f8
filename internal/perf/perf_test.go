package perf

import (
	"testing"
	"time"
)

func TestSnapshotEmptyTracker(t *testing.T) {
	tr := New(10)
	report := tr.Snapshot()
	if report.Count != 0 {
		t.Fatalf("expected empty report, got %+v", report)
	}
}

func TestSnapshotComputesPercentiles(t *testing.T) {
	tr := New(10)
	for i := 1; i <= 10; i++ {
		tr.Record(Sample{Total: time.Duration(i) * time.Millisecond})
	}

	report := tr.Snapshot()
	if report.Count != 10 {
		t.Fatalf("expected 10 samples, got %d", report.Count)
	}
	if report.Total.Overall.P50 == 0 {
		t.Fatalf("expected non-zero p50")
	}
	if report.Total.Overall.P99 < report.Total.Overall.P50 {
		t.Fatalf("expected p99 >= p50, got p99=%v p50=%v", report.Total.Overall.P99, report.Total.Overall.P50)
	}
}

func TestSnapshotSeparatesCacheHitFromMiss(t *testing.T) {
	tr := New(10)
	tr.Record(Sample{Total: 10 * time.Millisecond, CacheHit: true})
	tr.Record(Sample{Total: 200 * time.Millisecond, CacheHit: false})

	report := tr.Snapshot()
	if report.Total.CacheHit.P50 >= report.Total.NonCacheHit.P50 {
		t.Fatalf("expected cache-hit samples faster than misses, got hit=%v miss=%v",
			report.Total.CacheHit.P50, report.Total.NonCacheHit.P50)
	}
}

func TestRingBufferWrapsAtCapacity(t *testing.T) {
	tr := New(3)
	for i := 1; i <= 5; i++ {
		tr.Record(Sample{Total: time.Duration(i) * time.Millisecond})
	}

	report := tr.Snapshot()
	if report.Count != 3 {
		t.Fatalf("expected ring buffer capped at 3, got %d", report.Count)
	}
}
