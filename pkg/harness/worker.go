package harness

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dbpulse/dbpulse/internal/logging"
	"github.com/dbpulse/dbpulse/pkg/workqueue"
)

// Handle is a working resource handle checked out of a ResourcePool. A
// worker caches one handle at a time and releases it when it classifies a
// failure as connection-level.
type Handle interface {
	Release()
}

// ResourcePool is the harness's only view of the pooled external resource:
// acquire a working handle or fail. Acquisition failures are classified as
// connection-class errors.
type ResourcePool interface {
	Acquire(ctx context.Context) (Handle, error)
}

// UnitOfWork is the opaque fallible operation a worker executes against an
// acquired handle, parameterized by the validated request.
type UnitOfWork func(ctx context.Context, h Handle, req *WorkRequest) error

// Worker pulls work items off the queue, executes the unit of work against
// a lazily-acquired cached resource handle, classifies failures, and replies
// exactly once per request. A per-request failure never terminates the
// worker; only queue closure ends its loop, after draining.
type Worker struct {
	id        int
	pool      ResourcePool
	queue     *workqueue.Queue[WorkItem]
	work      UnitOfWork
	metrics   *MetricsCollector   // optional
	benchmark *BenchmarkCollector // optional
	logger    logging.Logger

	ctx    context.Context
	cached Handle // exclusively owned; nil until first acquisition
}

// NewWorker creates a worker with the given identifier. The metrics and
// benchmark collectors may be nil to disable recording.
func NewWorker(
	id int,
	pool ResourcePool,
	queue *workqueue.Queue[WorkItem],
	work UnitOfWork,
	metrics *MetricsCollector,
	benchmark *BenchmarkCollector,
) *Worker {
	return &Worker{
		id:        id,
		pool:      pool,
		queue:     queue,
		work:      work,
		metrics:   metrics,
		benchmark: benchmark,
		logger:    logging.NewLogrusLogger(fmt.Sprintf("worker[%d]", id)),
		ctx:       context.Background(),
	}
}

// Run executes the worker's request loop on the calling goroutine until the
// queue is closed and drained.
func (w *Worker) Run() {
	w.logger.Info("Worker started")

	for {
		item, err := w.queue.Receive()
		if err != nil {
			break
		}

		start := time.Now()
		resp := w.processRequest(&item.Request)
		latency := time.Since(start)

		if w.metrics != nil {
			if resp.Success {
				w.metrics.RecordSuccess()
			} else {
				w.metrics.RecordFailure()
			}
		}
		if w.benchmark != nil {
			w.benchmark.RecordRequest(latency, resp.Success)
		}

		// exactly one response per request; a reader that's gone away is
		// silently ignored
		select {
		case item.Reply <- resp:
		default:
		}
	}

	w.discardHandle()
	w.logger.Info("Worker shutting down")
}

// processRequest recovers any processing failure into a failure response
// with the matching status. A connection-class failure additionally discards
// the cached handle so the next request re-acquires a fresh one.
func (w *Worker) processRequest(req *WorkRequest) WorkResponse {
	if err := w.processInternal(req); err != nil {
		status := StatusFailed
		var werr *WorkerError
		if errors.As(err, &werr) {
			status = werr.Kind.Status()
			if werr.Kind == ErrorConnection {
				w.discardHandle()
			}
		}
		w.logger.Debug("Request failed", "id", req.ID, "err", err)
		return NewFailureResponse(req.ID, status)
	}
	return NewSuccessResponse(req.ID)
}

func (w *Worker) processInternal(req *WorkRequest) error {
	if err := validateRequest(req); err != nil {
		return err
	}
	h, err := w.handle()
	if err != nil {
		return err
	}
	if err := w.work(w.ctx, h, req); err != nil {
		var werr *WorkerError
		if errors.As(err, &werr) {
			return err
		}
		return newDatabaseError(err)
	}
	return nil
}

func validateRequest(req *WorkRequest) error {
	if len(req.ID) == 0 {
		return newValidationError("ID cannot be empty")
	}
	return nil
}

// handle returns the cached resource handle, acquiring one from the shared
// pool if none is cached.
func (w *Worker) handle() (Handle, error) {
	if w.cached != nil {
		return w.cached, nil
	}
	h, err := w.pool.Acquire(w.ctx)
	if err != nil {
		return nil, newConnectionError(err)
	}
	w.cached = h
	return h, nil
}

func (w *Worker) discardHandle() {
	if w.cached != nil {
		w.cached.Release()
		w.cached = nil
	}
}

// WorkerPool encapsulates a fixed-size group of workers, each running on its
// own goroutine with its own cached resource handle.
type WorkerPool struct {
	workers []*Worker
	wg      sync.WaitGroup
}

// SpawnWorkerPool constructs and starts workerCount workers sharing the
// given resource pool and queue. Pass nil collectors to disable recording.
func SpawnWorkerPool(
	workerCount int,
	pool ResourcePool,
	queue *workqueue.Queue[WorkItem],
	work UnitOfWork,
	metrics *MetricsCollector,
	benchmark *BenchmarkCollector,
) *WorkerPool {
	p := &WorkerPool{
		workers: make([]*Worker, 0, workerCount),
	}
	for id := 0; id < workerCount; id++ {
		w := NewWorker(id, pool, queue, work, metrics, benchmark)
		p.workers = append(p.workers, w)
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			w.Run()
		}()
	}
	return p
}

// Wait blocks until every worker has drained the queue and exited.
func (p *WorkerPool) Wait() {
	p.wg.Wait()
}
