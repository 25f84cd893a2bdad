// Package worker runs the job orchestration loop: bounded concurrency,
// per-job timeout, retry with exponential backoff and graceful drain.
package worker

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/sociometry/pulse/internal/adapters/mq/queue"
	"github.com/sociometry/pulse/internal/domain/model"
	"github.com/sociometry/pulse/pkg/logger"
	"github.com/sociometry/pulse/pkg/metrics"
)

// Default orchestration constants.
const (
	DefaultWorkerCount = 5
	DefaultMaxAttempts = 3
	DefaultBackoffBase = 2 * time.Second
	DefaultBackoffMax  = 2 * time.Minute
	DefaultJobTimeout  = 5 * time.Minute

	workerShutdownTimeout = 5 * time.Second
)

// Job abstracts what workers read off the queue.
type Job = queue.Job

// Handler executes one job and returns its output payload.
type Handler func(ctx context.Context, job Job) (any, error)

// Dispatch maps job types onto their handlers.
type Dispatch map[model.JobType]Handler

// Queue defines how workers receive jobs and push back retries.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
	EnqueueAfter(ctx context.Context, j Job, delay time.Duration) bool
}

// Journal observes job state transitions. Implementations must be safe for
// concurrent use.
type Journal interface {
	JobStarted(id string, attempt int)
	JobCompleted(id string, result any, took time.Duration)
	JobRetried(id string, nextAttempt int, cause error, delay time.Duration)
	JobFailed(id string, cause error, took time.Duration)
}

// Worker processes jobs pulled from the queue.
type Worker struct {
	queue    Queue
	dispatch Dispatch
	journal  Journal
	name     string

	maxAttempts int
	backoffBase time.Duration
	backoffMax  time.Duration
	jobTimeout  time.Duration

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewWorker creates a worker with configuration options.
func NewWorker(q Queue, dispatch Dispatch, journal Journal, opts ...Option) *Worker {
	w := &Worker{
		queue:       q,
		dispatch:    dispatch,
		journal:     journal,
		name:        "worker",
		maxAttempts: DefaultMaxAttempts,
		backoffBase: DefaultBackoffBase,
		backoffMax:  DefaultBackoffMax,
		jobTimeout:  DefaultJobTimeout,
		shutdown:    make(chan struct{}),
		done:        make(chan struct{}),
		logger:      logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run starts the worker loop until ctx is cancelled or the worker shuts
// down. A job in flight always runs to completion.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			w.processJob(ctx, job)
		}
	}
}

// Shutdown stops the worker after its in-flight job finishes.
func (w *Worker) Shutdown(ctx context.Context) error {
	close(w.shutdown)
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("worker shutdown: %w", ctx.Err())
	}
}

// processJob runs one attempt of a job through the dispatch table and
// settles its outcome: completion, a delayed retry, or terminal failure.
func (w *Worker) processJob(ctx context.Context, job Job) {
	start := time.Now()
	w.journal.JobStarted(job.ID, job.Attempt)

	result, err := w.runHandler(ctx, job)
	took := time.Since(start)
	metrics.RecordWorkerProcessingLatency(float64(took.Milliseconds()))

	if err == nil {
		w.journal.JobCompleted(job.ID, result, took)
		metrics.RecordJobCompleted(string(job.Type))
		metrics.RecordJobDuration(string(job.Type), float64(took.Milliseconds()))
		w.logger.Debug(ctx, "job completed",
			logger.String("job_id", job.ID),
			logger.String("type", string(job.Type)),
			logger.Duration("took", took),
		)
		return
	}

	metrics.RecordWorkerError()
	if errors.Is(err, context.DeadlineExceeded) {
		metrics.RecordJobTimeout()
	}

	if model.IsRetryable(err) && job.Attempt < w.maxAttempts {
		delay := w.backoffDelay(job.Attempt)
		retry := job
		retry.Attempt++
		retry.NotBefore = time.Now().Add(delay)

		if w.queue.EnqueueAfter(ctx, retry, delay) {
			w.journal.JobRetried(job.ID, retry.Attempt, err, delay)
			metrics.RecordJobRetried(string(job.Type))
			w.logger.Warn(ctx, "job failed, retrying",
				logger.String("job_id", job.ID),
				logger.Int("next_attempt", retry.Attempt),
				logger.Duration("delay", delay),
				logger.Error(err),
			)
			return
		}
		// Queue refused the retry (closing or full); fall through to a
		// terminal failure so the job stays observable.
		err = fmt.Errorf("requeue rejected after: %w", err)
	}

	w.journal.JobFailed(job.ID, err, took)
	metrics.RecordJobFailed(string(job.Type))
	w.logger.Error(ctx, "job terminally failed",
		logger.String("job_id", job.ID),
		logger.String("type", string(job.Type)),
		logger.Int("attempt", job.Attempt),
		logger.Error(err),
	)
}

// runHandler dispatches the job under its wall-clock budget.
func (w *Worker) runHandler(ctx context.Context, job Job) (any, error) {
	handler, ok := w.dispatch[job.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %q", model.ErrUnknownJobType, job.Type)
	}

	jobCtx, cancel := context.WithTimeout(ctx, w.jobTimeout)
	defer cancel()

	result, err := handler(jobCtx, job)
	if err != nil {
		return nil, fmt.Errorf("job %s attempt %d: %w", job.ID, job.Attempt, err)
	}
	return result, nil
}

// backoffDelay computes the delay before the retry following the given
// failed attempt: base doubled per prior attempt, capped at the maximum.
func (w *Worker) backoffDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := w.backoffBase
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= w.backoffMax {
			return w.backoffMax
		}
	}
	if delay > w.backoffMax {
		return w.backoffMax
	}
	return delay
}

// Pool manages multiple workers over one queue.
type Pool struct {
	workers []*Worker
	active  atomic.Int64
	logger  logger.Logger
}

// NewPool creates a pool of count workers sharing the queue, dispatch
// table and journal.
func NewPool(count int, q Queue, dispatch Dispatch, journal Journal, opts ...Option) *Pool {
	if count < 1 {
		count = DefaultWorkerCount
	}

	p := &Pool{
		workers: make([]*Worker, count),
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := 0; i < count; i++ {
		workerOpts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		p.workers[i] = NewWorker(q, dispatch, journal, workerOpts...)
	}

	metrics.UpdateWorkerCount(count)
	return p
}

// Start launches all workers.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go func(w *Worker) {
			p.active.Add(1)
			metrics.UpdateWorkerActive(int(p.active.Load()))
			defer func() {
				p.active.Add(-1)
				metrics.UpdateWorkerActive(int(p.active.Load()))
			}()
			w.Run(ctx)
		}(w)
	}
}

// Size returns the number of workers in the pool.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Stop signals all workers and waits for in-flight jobs, bounded per
// worker.
func (p *Pool) Stop() {
	for _, w := range p.workers {
		close(w.shutdown)
	}
	for _, w := range p.workers {
		select {
		case <-w.done:
		case <-time.After(workerShutdownTimeout):
		}
	}
}
