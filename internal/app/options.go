package service

import (
	"time"

	"github.com/sociometry/pulse/internal/adapters/collector"
	jobqueue "github.com/sociometry/pulse/internal/adapters/mq/queue"
	"github.com/sociometry/pulse/internal/adapters/repository"
	"github.com/sociometry/pulse/internal/domain/fatigue"
	"github.com/sociometry/pulse/pkg/logger"
)

// Option configures the Service.
type Option func(*Service)

// WithWorkerCount sets the number of pool workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueue injects the job queue backend.
func WithQueue(q jobqueue.Queue) Option {
	return func(s *Service) {
		if q != nil {
			s.queue = q
		}
	}
}

// WithQueueCapacity sets the capacity of the default in-memory queue.
func WithQueueCapacity(capacity int) Option {
	return func(s *Service) {
		if capacity > 0 {
			s.queueCapacity = capacity
		}
	}
}

// WithStore injects the fatigue record store backend.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithCollector injects the platform metrics collector.
func WithCollector(c collector.Collector) Option {
	return func(s *Service) {
		if c != nil {
			s.collect = c
		}
	}
}

// WithHistorySource injects the aggregated history source consulted by
// fatigue detection.
func WithHistorySource(h fatigue.HistorySource) Option {
	return func(s *Service) {
		if h != nil {
			s.history = h
		}
	}
}

// WithMaxAttempts sets the per-job attempt ceiling.
func WithMaxAttempts(attempts int) Option {
	return func(s *Service) {
		if attempts > 0 {
			s.maxAttempts = attempts
		}
	}
}

// WithBackoff sets the retry backoff base delay and cap.
func WithBackoff(base, max time.Duration) Option {
	return func(s *Service) {
		if base > 0 {
			s.backoffBase = base
		}
		if max > 0 {
			s.backoffMax = max
		}
	}
}

// WithJobTimeout bounds the execution time of a single job attempt.
func WithJobTimeout(timeout time.Duration) Option {
	return func(s *Service) {
		if timeout > 0 {
			s.jobTimeout = timeout
		}
	}
}

// WithClockSkew sets the tolerated future timestamp skew on incoming
// metrics records.
func WithClockSkew(skew time.Duration) Option {
	return func(s *Service) {
		if skew > 0 {
			s.clockSkew = skew
		}
	}
}

// WithAnomalyThreshold sets the z-score threshold for anomaly flagging.
func WithAnomalyThreshold(z float64) Option {
	return func(s *Service) {
		if z > 0 {
			s.anomalyThreshold = z
		}
	}
}

// WithFatigueLookbackDays sets the fatigue detection history window.
func WithFatigueLookbackDays(days int) Option {
	return func(s *Service) {
		if days > 0 {
			s.lookbackDays = days
		}
	}
}

// WithFatigueThreshold sets the score above which content is considered
// fatigued.
func WithFatigueThreshold(threshold float64) Option {
	return func(s *Service) {
		if threshold > 0 {
			s.fatigueThreshold = threshold
		}
	}
}

// WithDedupeSize bounds the submitted job ID dedupe set.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithJournalSize bounds the in-memory job journal.
func WithJournalSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.journalSize = size
		}
	}
}

// WithRetention sets the fatigue record retention window and the cron
// schedule of the sweep.
func WithRetention(days int, schedule string) Option {
	return func(s *Service) {
		if days > 0 {
			s.retentionDays = days
		}
		if schedule != "" {
			s.retentionSpec = schedule
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}
