package harness

import "sync"

// Metrics is a consistent snapshot of the operational counters. At every
// observation point, TotalProcessed == TotalSucceeded + TotalFailed because
// both fields are updated together under one critical section.
type Metrics struct {
	TotalProcessed uint64
	TotalSucceeded uint64
	TotalFailed    uint64
}

// MetricsCollector maintains running outcome counters, cheap enough to call
// on every request from every worker concurrently. It carries no percentile
// or timing information.
type MetricsCollector struct {
	mtx     sync.Mutex
	metrics Metrics
}

func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{}
}

// RecordSuccess increments the processed and succeeded counters together.
func (c *MetricsCollector) RecordSuccess() {
	c.mtx.Lock()
	c.metrics.TotalProcessed++
	c.metrics.TotalSucceeded++
	c.mtx.Unlock()
}

// RecordFailure increments the processed and failed counters together.
func (c *MetricsCollector) RecordFailure() {
	c.mtx.Lock()
	c.metrics.TotalProcessed++
	c.metrics.TotalFailed++
	c.mtx.Unlock()
}

// Snapshot returns a consistent, copied view of the counters.
func (c *MetricsCollector) Snapshot() Metrics {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.metrics
}
