package harness

import (
	"sort"
	"sync"
	"time"
)

const initialLatencyCapacity = 10000

// BenchmarkStats is a summary of everything the benchmark collector has
// observed, derived on demand from the accumulated samples and counters.
type BenchmarkStats struct {
	TotalRequests      uint64
	SuccessfulRequests uint64
	FailedRequests     uint64
	TotalDuration      time.Duration
	MinLatency         time.Duration
	MaxLatency         time.Duration
	AvgLatency         time.Duration
	P50Latency         time.Duration
	P95Latency         time.Duration
	P99Latency         time.Duration
	ThroughputRPS      float64
}

// BenchmarkCollector accumulates per-request latencies and outcome counters
// across all workers. Recording and snapshotting are safe to interleave
// arbitrarily: a snapshot reflects the state as of a single lock
// acquisition, and sorting happens on a private copy so concurrent
// recording never corrupts either side.
type BenchmarkCollector struct {
	startTime time.Time

	mtx       sync.Mutex
	latencies []time.Duration
	total     uint64
	succeeded uint64
	failed    uint64
}

// NewBenchmarkCollector creates a collector whose lifetime (for throughput
// purposes) starts now.
func NewBenchmarkCollector() *BenchmarkCollector {
	return &BenchmarkCollector{
		startTime: time.Now(),
		latencies: make([]time.Duration, 0, initialLatencyCapacity),
	}
}

// RecordRequest appends the observed latency and increments the appropriate
// counters. Called exactly once per processed request.
func (c *BenchmarkCollector) RecordRequest(latency time.Duration, success bool) {
	c.mtx.Lock()
	c.latencies = append(c.latencies, latency)
	c.total++
	if success {
		c.succeeded++
	} else {
		c.failed++
	}
	c.mtx.Unlock()
}

// Stats computes summary statistics from the accumulated samples. Percentiles
// use the nearest-rank estimator: the sample at index floor(count * p),
// clamped to count-1, in the sorted copy. An empty sample set yields all-zero
// latency fields and zero throughput.
func (c *BenchmarkCollector) Stats() BenchmarkStats {
	c.mtx.Lock()
	latencies := make([]time.Duration, len(c.latencies))
	copy(latencies, c.latencies)
	stats := BenchmarkStats{
		TotalRequests:      c.total,
		SuccessfulRequests: c.succeeded,
		FailedRequests:     c.failed,
	}
	c.mtx.Unlock()

	stats.TotalDuration = time.Since(c.startTime)
	if stats.TotalDuration.Seconds() > 0 {
		stats.ThroughputRPS = float64(stats.TotalRequests) / stats.TotalDuration.Seconds()
	}
	if len(latencies) == 0 {
		return stats
	}

	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	var totalNanos int64
	for _, l := range latencies {
		totalNanos += l.Nanoseconds()
	}

	stats.MinLatency = latencies[0]
	stats.MaxLatency = latencies[len(latencies)-1]
	stats.AvgLatency = time.Duration(totalNanos / int64(len(latencies)))
	stats.P50Latency = percentile(latencies, 0.50)
	stats.P95Latency = percentile(latencies, 0.95)
	stats.P99Latency = percentile(latencies, 0.99)
	return stats
}

// Reset clears all accumulated samples and counters. The start timestamp is
// untouched: it remains the collector's lifetime baseline for throughput.
func (c *BenchmarkCollector) Reset() {
	c.mtx.Lock()
	c.latencies = c.latencies[:0]
	c.total = 0
	c.succeeded = 0
	c.failed = 0
	c.mtx.Unlock()
}

// percentile picks the nearest-rank sample from an already sorted slice.
func percentile(sorted []time.Duration, fraction float64) time.Duration {
	idx := int(float64(len(sorted)) * fraction)
	if idx > len(sorted)-1 {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
