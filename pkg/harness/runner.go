package harness

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dbpulse/dbpulse/internal/logging"
	"github.com/dbpulse/dbpulse/pkg/workqueue"
)

// The rate at which the runner logs progress and refreshes the Prometheus
// gauges it's writing out.
const progressUpdateInterval = 5 * time.Second

const metricsShutdownTimeout = 10 * time.Second

// Summary captures the results of a completed load test run.
type Summary struct {
	GenerateTime time.Duration // How long load generation took.
	Metrics      Metrics       // Final operational counters.
	Stats        BenchmarkStats
}

// Log will output the given run summary using the specified logger.
func (s *Summary) Log(logger logging.Logger) {
	logger.Info(
		"Load test summary",
		"generateTime", s.GenerateTime,
		"processed", s.Metrics.TotalProcessed,
		"succeeded", s.Metrics.TotalSucceeded,
		"failed", s.Metrics.TotalFailed,
		"throughput", s.Stats.ThroughputRPS,
	)
}

// Runner wires the load generator, work queue, worker pool and collectors
// together for a single run.
type Runner struct {
	cfg    *Config
	pool   ResourcePool
	work   UnitOfWork
	logger logging.Logger

	queue     *workqueue.Queue[WorkItem]
	metrics   *MetricsCollector
	benchmark *BenchmarkCollector
	configMgr *ConfigManager
	factory   RequestFactory

	// Prometheus metrics
	registry         *prometheus.Registry
	processedMetric  prometheus.Gauge
	succeededMetric  prometheus.Gauge
	failedMetric     prometheus.Gauge
	throughputMetric prometheus.Gauge
	queueSizeMetric  prometheus.Gauge

	killMtx sync.Mutex
	killed  bool
}

// NewRunner builds a runner for the given configuration, resource pool and
// unit of work. The configuration must already have been validated.
func NewRunner(cfg *Config, pool ResourcePool, work UnitOfWork) *Runner {
	registry := prometheus.NewRegistry()
	gauges := promauto.With(registry)
	return &Runner{
		cfg:       cfg,
		pool:      pool,
		work:      work,
		logger:    logging.NewLogrusLogger("runner"),
		queue:     workqueue.New[WorkItem](cfg.QueueCapacity),
		metrics:   NewMetricsCollector(),
		benchmark: NewBenchmarkCollector(),
		configMgr: NewConfigManager(),
		factory:   UUIDRequestFactory(),
		registry:  registry,
		processedMetric: gauges.NewGauge(prometheus.GaugeOpts{
			Name: "dbpulse_total_processed",
			Help: "The total number of requests processed by all workers",
		}),
		succeededMetric: gauges.NewGauge(prometheus.GaugeOpts{
			Name: "dbpulse_total_succeeded",
			Help: "The total number of requests processed successfully by all workers",
		}),
		failedMetric: gauges.NewGauge(prometheus.GaugeOpts{
			Name: "dbpulse_total_failed",
			Help: "The total number of requests that failed processing",
		}),
		throughputMetric: gauges.NewGauge(prometheus.GaugeOpts{
			Name: "dbpulse_throughput_rps",
			Help: "The request throughput (in requests/sec) since the run started",
		}),
		queueSizeMetric: gauges.NewGauge(prometheus.GaugeOpts{
			Name: "dbpulse_queue_size",
			Help: "The number of requests currently buffered in the work queue",
		}),
	}
}

// SetRequestFactory overrides the default UUID-based request factory.
func (r *Runner) SetRequestFactory(factory RequestFactory) {
	r.factory = factory
}

// ConfigManager exposes the run's hot-reloadable tunables.
func (r *Runner) ConfigManager() *ConfigManager {
	return r.configMgr
}

// Run executes the load test to completion: it spawns the worker pool,
// drives the load generator, closes the queue once generation finishes,
// waits for the workers to drain, and returns the final summary.
func (r *Runner) Run() (*Summary, error) {
	r.logger.Info("Starting worker pool", "workers", r.cfg.Workers, "queueCapacity", r.cfg.QueueCapacity)
	workerPool := SpawnWorkerPool(r.cfg.Workers, r.pool, r.queue, r.work, r.metrics, r.benchmark)

	var metricsSvr *http.Server
	if len(r.cfg.MetricsAddr) > 0 {
		metricsSvr = r.startMetricsServer()
	}

	progressStop := make(chan struct{})
	go r.progressLoop(progressStop)

	r.logger.Info("Initiating load test", "pattern", r.cfg.Pattern.String(), "totalRequests", r.cfg.Count)
	generateTime := <-SpawnLoadGenerator(r.cfg.Pattern, r.cfg.Count, r.queue, r.factory)

	// queue closure is the sole shutdown signal: workers drain whatever was
	// admitted, then exit
	r.queue.Close()
	workerPool.Wait()
	close(progressStop)

	if metricsSvr != nil {
		ctx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer cancel()
		if err := metricsSvr.Shutdown(ctx); err != nil {
			r.logger.Error("Failed to cleanly shut down metrics server", "err", err)
		}
	}

	summary := &Summary{
		GenerateTime: generateTime,
		Metrics:      r.metrics.Snapshot(),
		Stats:        r.benchmark.Stats(),
	}
	r.updateGauges(summary.Metrics, summary.Stats.ThroughputRPS)
	r.logger.Info("Load test complete")
	return summary, nil
}

// Kill aborts the run by closing the work queue: the generator's next send
// fails and stops generation, and workers drain then exit.
func (r *Runner) Kill() {
	r.killMtx.Lock()
	defer r.killMtx.Unlock()
	if r.killed {
		return
	}
	r.killed = true
	r.logger.Info("Killing load test")
	r.queue.Close()
}

func (r *Runner) progressLoop(stop <-chan struct{}) {
	ticker := time.NewTicker(progressUpdateInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			metrics := r.metrics.Snapshot()
			stats := r.benchmark.Stats()
			r.updateGauges(metrics, stats.ThroughputRPS)
			r.logger.Info(
				"Progress",
				"processed", metrics.TotalProcessed,
				"succeeded", metrics.TotalSucceeded,
				"failed", metrics.TotalFailed,
				"queued", r.queue.Size(),
				"throughput", stats.ThroughputRPS,
			)

		case <-stop:
			return
		}
	}
}

func (r *Runner) updateGauges(metrics Metrics, throughput float64) {
	r.processedMetric.Set(float64(metrics.TotalProcessed))
	r.succeededMetric.Set(float64(metrics.TotalSucceeded))
	r.failedMetric.Set(float64(metrics.TotalFailed))
	r.throughputMetric.Set(throughput)
	r.queueSizeMetric.Set(float64(r.queue.Size()))
}

func (r *Runner) startMetricsServer() *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{}))
	svr := &http.Server{
		Addr:    r.cfg.MetricsAddr,
		Handler: mux,
	}
	go func() {
		r.logger.Info("Serving Prometheus metrics", "addr", r.cfg.MetricsAddr)
		if err := svr.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			r.logger.Error("Metrics server failed", "err", err)
		}
	}()
	return svr
}
