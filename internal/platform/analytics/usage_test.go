package analytics

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestUsageTracker_Record(t *testing.T) {
	tracker := NewUsageTracker(100)
	tracker.Record("tabular", "High", "alice")
	tracker.Record("tabular", "High", "bob")
	tracker.Record("image", "Low", "alice")

	if tracker.Total() != 3 {
		t.Fatalf("expected 3 predictions, got %d", tracker.Total())
	}
	if got := tracker.Count("tabular", "High"); got != 2 {
		t.Errorf("expected 2 tabular/High, got %d", got)
	}
	if got := tracker.Count("image", "Medium"); got != 0 {
		t.Errorf("expected 0 image/Medium, got %d", got)
	}
}

func TestUsageTracker_Overview(t *testing.T) {
	tracker := NewUsageTracker(100)
	if ov := tracker.Overview(); ov.TotalPredictions != 0 || ov.LastPredictionAt != nil {
		t.Fatalf("expected empty overview, got %+v", ov)
	}

	tracker.Record("tabular", "Medium", "alice")
	tracker.Record("image", "High", "alice")
	tracker.Record("image", "Low", "carol")

	ov := tracker.Overview()
	if ov.TotalPredictions != 3 || ov.UniqueUsers != 2 {
		t.Errorf("unexpected overview %+v", ov)
	}
	if len(ov.Kinds) != 2 || ov.Kinds[0].Kind != "image" || ov.Kinds[0].Total != 2 {
		t.Errorf("unexpected kind summaries %+v", ov.Kinds)
	}
	if ov.LastPredictionAt == nil {
		t.Error("expected last prediction time")
	}
}

func TestUsageTracker_RingBuffer(t *testing.T) {
	tracker := NewUsageTracker(5)
	for i := 0; i < 12; i++ {
		tracker.Record("image", "Low", fmt.Sprintf("user-%d", i))
	}

	recent := tracker.Recent(0)
	if len(recent) != 5 {
		t.Fatalf("expected 5 buffered events, got %d", len(recent))
	}
	if recent[0].Username != "user-11" || recent[4].Username != "user-7" {
		t.Errorf("expected newest first, got %s..%s", recent[0].Username, recent[4].Username)
	}
	if tracker.Count("image", "Low") != 12 {
		t.Error("counters must not be bounded by the buffer")
	}
	if got := tracker.Recent(2); len(got) != 2 {
		t.Errorf("expected 2 events with limit, got %d", len(got))
	}
}

func TestUsageTracker_TimeSeries(t *testing.T) {
	tracker := NewUsageTracker(100)
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	tracker.now = func() time.Time { return base.Add(-90 * time.Minute) }
	tracker.Record("tabular", "High", "a")
	tracker.now = func() time.Time { return base.Add(-10 * time.Minute) }
	tracker.Record("image", "Low", "b")
	tracker.Record("image", "High", "c")

	tracker.now = func() time.Time { return base }
	buckets := tracker.TimeSeries(time.Hour, 2*time.Hour)
	if len(buckets) != 3 {
		t.Fatalf("expected 3 buckets, got %d", len(buckets))
	}
	if buckets[0].Count != 1 || buckets[1].Count != 2 || buckets[2].Count != 0 {
		t.Errorf("unexpected counts %d %d %d", buckets[0].Count, buckets[1].Count, buckets[2].Count)
	}
	if buckets[1].ByKind["image"] != 2 {
		t.Errorf("expected 2 image predictions in 11:00 bucket, got %d", buckets[1].ByKind["image"])
	}
}

func TestUsageTracker_Concurrent(t *testing.T) {
	tracker := NewUsageTracker(50)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				tracker.Record("tabular", "Low", "u")
				tracker.Overview()
			}
		}()
	}
	wg.Wait()

	if tracker.Total() != 1000 {
		t.Errorf("expected 1000, got %d", tracker.Total())
	}
}
