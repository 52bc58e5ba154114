package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sjperalta/timecard-api/pkg/logger"
)

// Job is a unit of post-commit work such as a notification delivery
type Job func(ctx context.Context) error

// DefaultJobTimeout bounds a single job so a slow mail provider cannot pin a slot
const DefaultJobTimeout = 30 * time.Second

var jobsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "timecard",
	Name:      "jobs_processed_total",
	Help:      "Background jobs processed broken down by result.",
}, []string{"result"})

// Worker runs jobs in the background with bounded concurrency. Jobs submitted
// after Shutdown are dropped.
type Worker struct {
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	slots   chan struct{}
	timeout time.Duration

	mu     sync.Mutex
	closed bool
	stats  WorkerStats
}

// WorkerStats is reported by the health endpoint
type WorkerStats struct {
	ActiveJobs    int   `json:"active_jobs"`
	WaitingJobs   int   `json:"waiting_jobs"`
	CompletedJobs int64 `json:"completed_jobs"`
	FailedJobs    int64 `json:"failed_jobs"`
	DroppedJobs   int64 `json:"dropped_jobs"`
	MaxConcurrent int   `json:"max_concurrent"`
}

// NewWorker creates a worker running at most concurrency jobs at once
func NewWorker(concurrency int) *Worker {
	if concurrency < 1 {
		concurrency = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		ctx:     ctx,
		cancel:  cancel,
		slots:   make(chan struct{}, concurrency),
		timeout: DefaultJobTimeout,
	}
}

// EnqueueAsync schedules job and returns immediately
func (w *Worker) EnqueueAsync(job Job) {
	w.mu.Lock()
	if w.closed {
		w.stats.DroppedJobs++
		w.mu.Unlock()
		jobsProcessed.WithLabelValues("dropped").Inc()
		logger.Warn("Worker is shut down, dropping job")
		return
	}
	// Counted under the lock so Shutdown never misses a job
	w.wg.Add(1)
	w.stats.WaitingJobs++
	w.mu.Unlock()

	go func() {
		defer w.wg.Done()

		w.slots <- struct{}{}
		defer func() { <-w.slots }()

		w.run(job)
	}()
}

func (w *Worker) run(job Job) {
	w.update(func(s *WorkerStats) {
		s.WaitingJobs--
		s.ActiveJobs++
	})

	start := time.Now()
	err := w.call(job)
	result := "completed"
	if err != nil {
		result = "failed"
		logger.Error("Background job failed", "error", err.Error(), "elapsed", time.Since(start))
	} else {
		logger.Debug("Background job completed", "elapsed", time.Since(start))
	}
	jobsProcessed.WithLabelValues(result).Inc()

	w.update(func(s *WorkerStats) {
		s.ActiveJobs--
		s.CompletedJobs++
		if err != nil {
			s.FailedJobs++
		}
	})
}

// call runs job with its own deadline and turns a panic into an error
func (w *Worker) call(job Job) (err error) {
	ctx, cancel := context.WithTimeout(w.ctx, w.timeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panic: %v", r)
		}
	}()
	return job(ctx)
}

// Shutdown stops accepting jobs and waits for scheduled ones to finish. When
// ctx expires first the remaining jobs see their context cancelled.
func (w *Worker) Shutdown(ctx context.Context) error {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.cancel()
		return nil
	case <-ctx.Done():
		w.cancel()
		<-done
		return errors.Join(errors.New("worker shutdown timed out"), ctx.Err())
	}
}

// GetStats returns a snapshot of the worker counters
func (w *Worker) GetStats() WorkerStats {
	w.mu.Lock()
	defer w.mu.Unlock()
	stats := w.stats
	stats.MaxConcurrent = cap(w.slots)
	return stats
}

func (w *Worker) update(fn func(*WorkerStats)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fn(&w.stats)
}
