// Package worker runs the job orchestration loop.
package worker

import (
	"time"

	"github.com/sociometry/pulse/pkg/logger"
)

// Option applies a configuration option to a Worker.
type Option func(*Worker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *Worker) {
		if name != "" {
			w.name = name
			w.logger = logger.Get().Named(name)
		}
	}
}

// WithMaxAttempts caps how many times a job is attempted.
func WithMaxAttempts(n int) Option {
	return func(w *Worker) {
		if n > 0 {
			w.maxAttempts = n
		}
	}
}

// WithBackoff sets the base delay and cap for retry backoff.
func WithBackoff(base, maxDelay time.Duration) Option {
	return func(w *Worker) {
		if base > 0 && maxDelay >= base {
			w.backoffBase = base
			w.backoffMax = maxDelay
		}
	}
}

// WithJobTimeout sets the per-job wall-clock budget.
func WithJobTimeout(d time.Duration) Option {
	return func(w *Worker) {
		if d > 0 {
			w.jobTimeout = d
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *Worker) {
		if l != nil {
			w.logger = l
		}
	}
}
