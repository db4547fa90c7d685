// Package analytics aggregates prediction usage for the admin dashboard.
package analytics

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// PredictionEvent records one completed classification.
type PredictionEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Kind      string    `json:"kind"`
	Tier      string    `json:"tier"`
	Username  string    `json:"username"`
}

// ---------------------------------------------------------------------------
// Summary types
// ---------------------------------------------------------------------------

// KindSummary breaks down one prediction kind by tier.
type KindSummary struct {
	Kind   string           `json:"kind"`
	Total  int64            `json:"total"`
	ByTier map[string]int64 `json:"by_tier"`
}

// UsageOverview is the admin-facing summary of prediction activity.
type UsageOverview struct {
	TotalPredictions int64          `json:"total_predictions"`
	UniqueUsers      int            `json:"unique_users"`
	Kinds            []*KindSummary `json:"kinds"`
	LastPredictionAt *time.Time     `json:"last_prediction_at,omitempty"`
}

// TimeSeriesBucket counts predictions in one interval.
type TimeSeriesBucket struct {
	Timestamp time.Time        `json:"timestamp"`
	Count     int64            `json:"count"`
	ByKind    map[string]int64 `json:"by_kind"`
}

// ---------------------------------------------------------------------------
// UsageTracker
// ---------------------------------------------------------------------------

// UsageTracker keeps a bounded ring buffer of recent events plus running
// kind x tier counters. Safe for concurrent use.
type UsageTracker struct {
	events   []*PredictionEvent
	max      int
	writePos int
	full     bool
	counts   map[string]map[string]int64
	users    map[string]struct{}
	last     time.Time
	mu       sync.RWMutex
	total    int64
	now      func() time.Time
}

// NewUsageTracker creates a tracker remembering at most maxEvents events.
func NewUsageTracker(maxEvents int) *UsageTracker {
	if maxEvents <= 0 {
		maxEvents = 10000
	}
	return &UsageTracker{
		events: make([]*PredictionEvent, 0, maxEvents),
		max:    maxEvents,
		counts: make(map[string]map[string]int64),
		users:  make(map[string]struct{}),
		now:    time.Now,
	}
}

// Record counts a classification of kind that landed in tier.
func (ut *UsageTracker) Record(kind, tier, username string) {
	ev := &PredictionEvent{Timestamp: ut.now(), Kind: kind, Tier: tier, Username: username}
	atomic.AddInt64(&ut.total, 1)

	ut.mu.Lock()
	defer ut.mu.Unlock()

	if ut.full {
		ut.events[ut.writePos] = ev
	} else {
		ut.events = append(ut.events, ev)
	}
	ut.writePos++
	if ut.writePos >= ut.max {
		ut.writePos = 0
		ut.full = true
	}

	byTier, ok := ut.counts[kind]
	if !ok {
		byTier = make(map[string]int64)
		ut.counts[kind] = byTier
	}
	byTier[tier]++
	if username != "" {
		ut.users[username] = struct{}{}
	}
	ut.last = ev.Timestamp
}

// Total returns the number of predictions recorded since start.
func (ut *UsageTracker) Total() int64 {
	return atomic.LoadInt64(&ut.total)
}

// Count returns the number of predictions of kind in tier.
func (ut *UsageTracker) Count(kind, tier string) int64 {
	ut.mu.RLock()
	defer ut.mu.RUnlock()
	return ut.counts[kind][tier]
}

// Counts returns a copy of the kind x tier matrix.
func (ut *UsageTracker) Counts() map[string]map[string]int64 {
	ut.mu.RLock()
	defer ut.mu.RUnlock()
	out := make(map[string]map[string]int64, len(ut.counts))
	for kind, byTier := range ut.counts {
		cp := make(map[string]int64, len(byTier))
		for tier, n := range byTier {
			cp[tier] = n
		}
		out[kind] = cp
	}
	return out
}

func (ut *UsageTracker) Overview() *UsageOverview {
	counts := ut.Counts()

	ut.mu.RLock()
	users := len(ut.users)
	last := ut.last
	ut.mu.RUnlock()

	ov := &UsageOverview{
		TotalPredictions: ut.Total(),
		UniqueUsers:      users,
		Kinds:            make([]*KindSummary, 0, len(counts)),
	}
	for kind, byTier := range counts {
		ks := &KindSummary{Kind: kind, ByTier: byTier}
		for _, n := range byTier {
			ks.Total += n
		}
		ov.Kinds = append(ov.Kinds, ks)
	}
	sort.Slice(ov.Kinds, func(i, j int) bool { return ov.Kinds[i].Kind < ov.Kinds[j].Kind })
	if !last.IsZero() {
		ov.LastPredictionAt = &last
	}
	return ov
}

// Recent returns up to limit events, newest first.
func (ut *UsageTracker) Recent(limit int) []*PredictionEvent {
	ut.mu.RLock()
	snapshot := ut.ordered()
	ut.mu.RUnlock()

	out := make([]*PredictionEvent, 0, len(snapshot))
	for i := len(snapshot) - 1; i >= 0; i-- {
		cp := *snapshot[i]
		out = append(out, &cp)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// TimeSeries buckets buffered events by interval over the lookback window.
func (ut *UsageTracker) TimeSeries(interval, lookback time.Duration) []*TimeSeriesBucket {
	now := ut.now()
	start := now.Add(-lookback).Truncate(interval)
	n := int(now.Sub(start)/interval) + 1

	buckets := make([]*TimeSeriesBucket, n)
	for i := range buckets {
		buckets[i] = &TimeSeriesBucket{
			Timestamp: start.Add(time.Duration(i) * interval),
			ByKind:    make(map[string]int64),
		}
	}

	ut.mu.RLock()
	snapshot := ut.ordered()
	ut.mu.RUnlock()

	for _, ev := range snapshot {
		if ev.Timestamp.Before(start) || ev.Timestamp.After(now) {
			continue
		}
		idx := int(ev.Timestamp.Sub(start) / interval)
		if idx < 0 || idx >= n {
			continue
		}
		buckets[idx].Count++
		buckets[idx].ByKind[ev.Kind]++
	}
	return buckets
}

// ordered returns buffered events oldest first. Callers hold the read lock.
func (ut *UsageTracker) ordered() []*PredictionEvent {
	if !ut.full {
		out := make([]*PredictionEvent, len(ut.events))
		copy(out, ut.events)
		return out
	}
	out := make([]*PredictionEvent, 0, ut.max)
	out = append(out, ut.events[ut.writePos:]...)
	out = append(out, ut.events[:ut.writePos]...)
	return out
}
