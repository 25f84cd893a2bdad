package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sociometry/pulse/pkg/logger"
	"github.com/sociometry/pulse/pkg/metrics"
)

const (
	defaultRedisKey    = "pulse:jobs"
	brpopBlockDuration = time.Second
)

// RedisQueue implements Queue on a Redis list, LPUSH on the producer side
// and BRPOP on consumers. Jobs are JSON-encoded.
type RedisQueue struct {
	client *redis.Client
	key    string
	mu     sync.RWMutex
	closed bool
	log    logger.Logger
}

// RedisOption applies a configuration option to the RedisQueue.
type RedisOption func(*RedisQueue)

// WithKey sets the list key jobs are pushed to.
func WithKey(key string) RedisOption {
	return func(q *RedisQueue) {
		if key != "" {
			q.key = key
		}
	}
}

// NewRedisQueue connects to Redis and verifies the connection.
func NewRedisQueue(ctx context.Context, addr string, opts ...RedisOption) (*RedisQueue, error) {
	q := &RedisQueue{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		key:    defaultRedisKey,
		log:    logger.Get().Named("redis-queue"),
	}
	for _, opt := range opts {
		opt(q)
	}

	if err := q.client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreachable, addr, err)
	}
	return q, nil
}

// Enqueue adds a job to the queue.
func (q *RedisQueue) Enqueue(ctx context.Context, j Job) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueReject()
		return false
	}

	payload, err := json.Marshal(j)
	if err != nil {
		q.log.Error(ctx, "failed to encode job", logger.String("job_id", j.ID), logger.Error(err))
		metrics.RecordQueueReject()
		return false
	}
	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		q.log.Error(ctx, "failed to push job", logger.String("job_id", j.ID), logger.Error(err))
		metrics.RecordQueueReject()
		return false
	}
	metrics.RecordQueueEnqueue()
	return true
}

// EnqueueAfter schedules a delayed enqueue via a process-local timer.
func (q *RedisQueue) EnqueueAfter(ctx context.Context, j Job, delay time.Duration) bool {
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
		q.Enqueue(context.Background(), j)
	})
	return true
}

// Dequeue returns a channel fed by a BRPOP consumer loop. The channel
// closes when the queue closes or ctx is cancelled.
func (q *RedisQueue) Dequeue(ctx context.Context) <-chan Job {
	out := make(chan Job)
	go func() {
		defer close(out)
		for {
			if ctx.Err() != nil || q.IsClosed() {
				return
			}

			res, err := q.client.BRPop(ctx, brpopBlockDuration, q.key).Result()
			if err == redis.Nil {
				continue // timed out empty; poll again
			}
			if err != nil {
				if ctx.Err() != nil || q.IsClosed() {
					return
				}
				q.log.Warn(ctx, "dequeue failed", logger.Error(err))
				continue
			}
			if len(res) != 2 {
				continue
			}

			var j Job
			if err := json.Unmarshal([]byte(res[1]), &j); err != nil {
				q.log.Error(ctx, "failed to decode job", logger.Error(err))
				continue
			}

			select {
			case out <- j:
				metrics.RecordQueueDequeue()
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the current length of the backing list.
func (q *RedisQueue) Len(ctx context.Context) int {
	n, err := q.client.LLen(ctx, q.key).Result()
	if err != nil {
		return 0
	}
	return int(n)
}

// Close stops consumers and releases the connection.
func (q *RedisQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	q.closed = true
	if err := q.client.Close(); err != nil {
		return fmt.Errorf("close redis client: %w", err)
	}
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *RedisQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
