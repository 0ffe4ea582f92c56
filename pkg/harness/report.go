package harness

import (
	"fmt"
	"io"
	"strings"
)

// WriteBenchmarkReport writes a human-readable dump of the given benchmark
// and metrics snapshots.
func WriteBenchmarkReport(w io.Writer, stats BenchmarkStats, metrics Metrics) {
	divider := strings.Repeat("=", 60)

	fmt.Fprintf(w, "\n%s\n", divider)
	fmt.Fprintln(w, "PERFORMANCE BENCHMARK REPORT")
	fmt.Fprintf(w, "%s\n", divider)

	successRate := 0.0
	if stats.TotalRequests > 0 {
		successRate = float64(stats.SuccessfulRequests) / float64(stats.TotalRequests) * 100.0
	}

	fmt.Fprintln(w, "\nRequest statistics:")
	fmt.Fprintf(w, "  Total requests:      %10d\n", stats.TotalRequests)
	fmt.Fprintf(w, "  Successful:          %10d\n", stats.SuccessfulRequests)
	fmt.Fprintf(w, "  Failed:              %10d\n", stats.FailedRequests)
	fmt.Fprintf(w, "  Success rate:        %9.2f%%\n", successRate)

	fmt.Fprintln(w, "\nLatency statistics:")
	fmt.Fprintf(w, "  Min latency:         %10.3f ms\n", stats.MinLatency.Seconds()*1000.0)
	fmt.Fprintf(w, "  Max latency:         %10.3f ms\n", stats.MaxLatency.Seconds()*1000.0)
	fmt.Fprintf(w, "  Avg latency:         %10.3f ms\n", stats.AvgLatency.Seconds()*1000.0)
	fmt.Fprintf(w, "  P50 latency:         %10.3f ms\n", stats.P50Latency.Seconds()*1000.0)
	fmt.Fprintf(w, "  P95 latency:         %10.3f ms\n", stats.P95Latency.Seconds()*1000.0)
	fmt.Fprintf(w, "  P99 latency:         %10.3f ms\n", stats.P99Latency.Seconds()*1000.0)

	fmt.Fprintln(w, "\nThroughput:")
	fmt.Fprintf(w, "  Requests/sec:        %10.2f\n", stats.ThroughputRPS)
	fmt.Fprintf(w, "  Total duration:      %10.3f s\n", stats.TotalDuration.Seconds())

	fmt.Fprintln(w, "\nOperational counters:")
	fmt.Fprintf(w, "  Processed:           %10d\n", metrics.TotalProcessed)
	fmt.Fprintf(w, "  Succeeded:           %10d\n", metrics.TotalSucceeded)
	fmt.Fprintf(w, "  Failed:              %10d\n", metrics.TotalFailed)

	fmt.Fprintf(w, "\n%s\n", divider)
}
