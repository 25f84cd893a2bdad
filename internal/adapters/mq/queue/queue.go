// Package queue defines the contract for enqueuing and consuming jobs.
//
// The engine does not own the queue's wire protocol; implementations range
// from an in-memory bounded channel to a Redis list.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/sociometry/pulse/internal/domain/model"
	"github.com/sociometry/pulse/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultCapacity = 10000
)

// Job is the payload type flowing through the queue.
type Job = model.Job

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a job to the queue.
	// Returns false if the queue is full or closed.
	Enqueue(ctx context.Context, j Job) bool

	// EnqueueAfter re-enqueues a job after delay, used for retry backoff.
	// The delay is process-local; a job delayed across a crash is simply
	// retried earlier, which at-least-once semantics already tolerate.
	EnqueueAfter(ctx context.Context, j Job, delay time.Duration) bool

	// Dequeue returns a channel that receives jobs as they become
	// available. The channel closes when the queue closes.
	Dequeue(ctx context.Context) <-chan Job

	// Len returns the current number of queued jobs.
	Len(ctx context.Context) int

	// Close gracefully shuts down the queue. After closing, no new jobs
	// can be enqueued and dequeue channels drain and close.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	jobs     chan Job
	capacity int
	mu       sync.RWMutex
	closed   bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultCapacity,
	}
	for _, opt := range opts {
		opt(q)
	}

	q.jobs = make(chan Job, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	metrics.UpdateQueueUtilization(0)

	return q
}

// Enqueue adds a job to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, j Job) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueReject()
		return false
	}

	select {
	case q.jobs <- j:
		metrics.RecordQueueEnqueue()
		q.publishGauges()
		return true
	case <-ctx.Done():
		metrics.RecordQueueReject()
		return false
	default:
		// queue is full
		metrics.RecordQueueReject()
		return false
	}
}

// EnqueueAfter schedules a delayed enqueue via a timer.
func (q *InMemoryQueue) EnqueueAfter(ctx context.Context, j Job, delay time.Duration) bool {
	if delay <= 0 {
		return q.Enqueue(ctx, j)
	}

	q.mu.RLock()
	closed := q.closed
	q.mu.RUnlock()
	if closed {
		metrics.RecordQueueReject()
		return false
	}

	time.AfterFunc(delay, func() {
		// The queue may have closed while the timer was pending; the
		// enqueue then rejects and the job is dropped for requeue by the
		// upstream submitter.
		q.Enqueue(context.Background(), j)
	})
	return true
}

// Dequeue returns a channel that receives jobs as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Job {
	out := make(chan Job)
	go func() {
		defer close(out)
		for j := range q.jobs {
			select {
			case out <- j:
				metrics.RecordQueueDequeue()
				q.publishGauges()
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the current number of queued jobs.
func (q *InMemoryQueue) Len(_ context.Context) int {
	return len(q.jobs)
}

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.jobs)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

func (q *InMemoryQueue) publishGauges() {
	size := len(q.jobs)
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
}
