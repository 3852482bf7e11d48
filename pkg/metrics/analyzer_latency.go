// Package metrics tracks pipeline stage latencies and batch outcome counters.
package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// LatencyTracker keeps a sliding window of latency samples and reports percentiles.
type LatencyTracker struct {
	mu         sync.Mutex
	samples    []int64 // microseconds
	maxSamples int
}

// NewLatencyTracker creates a tracker keeping the last windowSize samples.
func NewLatencyTracker(windowSize int) *LatencyTracker {
	if windowSize <= 0 {
		windowSize = 1000
	}
	return &LatencyTracker{
		samples:    make([]int64, 0, windowSize),
		maxSamples: windowSize,
	}
}

// Record records a latency measurement.
func (lt *LatencyTracker) Record(d time.Duration) {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	if len(lt.samples) >= lt.maxSamples {
		// Drop the oldest 10% at once to avoid shifting on every insert.
		drop := lt.maxSamples / 10
		if drop < 1 {
			drop = 1
		}
		lt.samples = append(lt.samples[:0], lt.samples[drop:]...)
	}
	lt.samples = append(lt.samples, d.Microseconds())
}

// Stats returns latency statistics including percentiles.
func (lt *LatencyTracker) Stats() LatencyStats {
	lt.mu.Lock()
	sorted := make([]int64, len(lt.samples))
	copy(sorted, lt.samples)
	lt.mu.Unlock()

	n := len(sorted)
	if n == 0 {
		return LatencyStats{}
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var sum int64
	for _, v := range sorted {
		sum += v
	}
	pct := func(p float64) time.Duration {
		return time.Duration(sorted[int(float64(n-1)*p)]) * time.Microsecond
	}

	return LatencyStats{
		Count: int64(n),
		Min:   time.Duration(sorted[0]) * time.Microsecond,
		Max:   time.Duration(sorted[n-1]) * time.Microsecond,
		Avg:   time.Duration(sum/int64(n)) * time.Microsecond,
		P50:   pct(0.50),
		P95:   pct(0.95),
		P99:   pct(0.99),
	}
}

// LatencyStats holds latency statistics.
type LatencyStats struct {
	Count int64
	Min   time.Duration
	Max   time.Duration
	Avg   time.Duration
	P50   time.Duration
	P95   time.Duration
	P99   time.Duration
}

// ToMap renders the stats in milliseconds for JSON responses.
func (s LatencyStats) ToMap() map[string]any {
	ms := func(d time.Duration) float64 { return float64(d.Microseconds()) / 1000 }
	return map[string]any{
		"count":  s.Count,
		"min_ms": ms(s.Min),
		"max_ms": ms(s.Max),
		"avg_ms": ms(s.Avg),
		"p50_ms": ms(s.P50),
		"p95_ms": ms(s.P95),
		"p99_ms": ms(s.P99),
	}
}

// Registry holds one tracker per pipeline stage plus batch counters.
type Registry struct {
	mu       sync.Mutex
	trackers map[string]*LatencyTracker
	window   int

	batches          atomic.Int64
	ticketsSucceeded atomic.Int64
	ticketsFailed    atomic.Int64
	scoresFailed     atomic.Int64
}

// NewRegistry creates a registry.
func NewRegistry(windowSize int) *Registry {
	return &Registry{
		trackers: make(map[string]*LatencyTracker),
		window:   windowSize,
	}
}

// Tracker returns the tracker for stage, creating it on first use.
func (r *Registry) Tracker(stage string) *LatencyTracker {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.trackers[stage]
	if !ok {
		t = NewLatencyTracker(r.window)
		r.trackers[stage] = t
	}
	return t
}

// RecordBatch adds the outcome of one batch to the counters.
func (r *Registry) RecordBatch(succeeded, failed, scoreFailures int) {
	r.batches.Add(1)
	r.ticketsSucceeded.Add(int64(succeeded))
	r.ticketsFailed.Add(int64(failed))
	r.scoresFailed.Add(int64(scoreFailures))
}

// Snapshot returns all counters and stage latencies.
func (r *Registry) Snapshot() map[string]any {
	r.mu.Lock()
	stages := make(map[string]any, len(r.trackers))
	for name, t := range r.trackers {
		stages[name] = t.Stats().ToMap()
	}
	r.mu.Unlock()

	return map[string]any{
		"batches":           r.batches.Load(),
		"tickets_succeeded": r.ticketsSucceeded.Load(),
		"tickets_failed":    r.ticketsFailed.Load(),
		"scores_failed":     r.scoresFailed.Load(),
		"stages":            stages,
	}
}
