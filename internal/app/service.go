// Package service provides the core business service that wires the job
// queue, worker pool, detection domain and stores together, and implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/sociometry/pulse/internal/adapters/collector"
	"github.com/sociometry/pulse/internal/adapters/history"
	jobqueue "github.com/sociometry/pulse/internal/adapters/mq/queue"
	workerpool "github.com/sociometry/pulse/internal/adapters/mq/worker"
	"github.com/sociometry/pulse/internal/adapters/repository"
	"github.com/sociometry/pulse/internal/domain/dedupe"
	"github.com/sociometry/pulse/internal/domain/fatigue"
	"github.com/sociometry/pulse/internal/domain/model"
	"github.com/sociometry/pulse/pkg/logger"
	"github.com/sociometry/pulse/pkg/metrics"
)

// Service implements the analytics engine: job intake, orchestration and
// fatigue/report queries.
type Service struct {
	mu sync.RWMutex

	// Core components
	store    repository.Store
	queue    jobqueue.Queue
	pool     *workerpool.Pool
	journal  *Journal
	deduper  dedupe.Deduper
	detector *fatigue.Detector
	collect  collector.Collector
	history  fatigue.HistorySource
	sweeper  *cron.Cron

	// Configuration
	workerCount      int
	queueCapacity    int
	dedupeSize       int
	journalSize      int
	maxAttempts      int
	backoffBase      time.Duration
	backoffMax       time.Duration
	jobTimeout       time.Duration
	clockSkew        time.Duration
	anomalyThreshold float64
	lookbackDays     int
	fatigueThreshold float64
	retentionDays    int
	retentionSpec    string

	// State
	started   bool
	startedAt time.Time

	logger logger.Logger
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:      workerpool.DefaultWorkerCount,
		queueCapacity:    10_000,
		dedupeSize:       100_000,
		journalSize:      10_000,
		maxAttempts:      workerpool.DefaultMaxAttempts,
		backoffBase:      workerpool.DefaultBackoffBase,
		backoffMax:       workerpool.DefaultBackoffMax,
		jobTimeout:       workerpool.DefaultJobTimeout,
		clockSkew:        5 * time.Minute,
		anomalyThreshold: 2.0,
		lookbackDays:     fatigue.DefaultLookbackDays,
		fatigueThreshold: fatigue.DefaultThreshold,
		retentionDays:    90,
		retentionSpec:    "0 3 * * *",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.logger.Info(ctx, "starting analytics engine...")

	// Default adapters for anything not injected.
	if s.store == nil {
		s.store = repository.NewMemStore()
		s.logger.Info(ctx, "using in-memory fatigue store")
	}
	if s.queue == nil {
		s.queue = jobqueue.NewInMemoryQueue(jobqueue.WithCapacity(s.queueCapacity))
		s.logger.Info(ctx, "using in-memory job queue")
	}
	if s.collect == nil {
		s.collect = collector.NewStub()
	}
	if s.history == nil {
		s.history = history.NewStub()
	}

	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.journal = NewJournal(s.journalSize, s.maxAttempts)
	s.detector = fatigue.NewDetector(s.history, s.store,
		fatigue.WithLookbackDays(s.lookbackDays),
		fatigue.WithThreshold(s.fatigueThreshold),
	)

	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.dispatch(), s.journal,
		workerpool.WithMaxAttempts(s.maxAttempts),
		workerpool.WithBackoff(s.backoffBase, s.backoffMax),
		workerpool.WithJobTimeout(s.jobTimeout),
	)
	s.pool.Start(ctx)

	s.sweeper = cron.New()
	if _, err := s.sweeper.AddFunc(s.retentionSpec, func() { s.runRetentionSweep(context.Background()) }); err != nil {
		return fmt.Errorf("schedule retention sweep: %w", err)
	}
	s.sweeper.Start()

	s.started = true
	s.startedAt = time.Now()
	s.logger.Info(ctx, "analytics engine started",
		logger.Int("workers", s.workerCount),
		logger.Int("max_attempts", s.maxAttempts),
		logger.Duration("job_timeout", s.jobTimeout),
		logger.String("retention_schedule", s.retentionSpec),
	)
	return nil
}

// Stop gracefully shuts down the service: stop intake, drain in-flight
// jobs, then release store and queue.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping analytics engine...")

	s.started = false // refuse new submissions first

	if s.sweeper != nil {
		s.sweeper.Stop()
	}
	if s.queue != nil {
		_ = s.queue.Close()
	}
	if s.pool != nil {
		s.pool.Stop()
	}
	if s.store != nil {
		_ = s.store.Close()
	}

	s.logger.Info(ctx, "analytics engine stopped")
}

// Accepting reports whether the service takes new jobs.
func (s *Service) Accepting() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// Submit validates and enqueues a job. The returned record reflects the
// queued state; progress is observable through Job and Jobs.
func (s *Service) Submit(ctx context.Context, job model.Job) (model.JobRecord, error) {
	if !s.Accepting() {
		return model.JobRecord{}, ErrNotAccepting
	}

	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if !job.Type.Valid() {
		metrics.RecordValidationFailure()
		return model.JobRecord{}, fmt.Errorf("%w: %q", model.ErrUnknownJobType, job.Type)
	}
	if err := job.Payload.ValidateFor(job.Type); err != nil {
		metrics.RecordValidationFailure()
		return model.JobRecord{}, err
	}

	if s.deduper.SeenAndRecord(ctx, job.ID) {
		metrics.RecordJobDuplicate()
		if rec, ok := s.journal.Get(job.ID); ok {
			return rec, ErrDuplicateJob
		}
		return model.JobRecord{ID: job.ID, Type: job.Type}, ErrDuplicateJob
	}

	job.Attempt = 1
	job.EnqueuedAt = time.Now()
	s.journal.JobSubmitted(job)

	if !s.queue.Enqueue(ctx, job) {
		// Roll back the seen mark so the client may retry.
		s.deduper.Unrecord(ctx, job.ID)
		return model.JobRecord{}, ErrBackpressure
	}

	metrics.RecordJobSubmitted(string(job.Type))
	rec, _ := s.journal.Get(job.ID)
	return rec, nil
}

// Job returns the journal record for a job ID.
func (s *Service) Job(_ context.Context, id string) (model.JobRecord, error) {
	if rec, ok := s.journal.Get(id); ok {
		return rec, nil
	}
	return model.JobRecord{}, ErrJobNotFound
}

// Jobs lists journal records, newest first, optionally filtered by state.
func (s *Service) Jobs(_ context.Context, state model.JobState, limit int) []model.JobRecord {
	return s.journal.List(state, limit)
}

// TopFatigued returns the most fatigued content, score descending.
func (s *Service) TopFatigued(ctx context.Context, f repository.Filter) ([]model.FatigueRecord, error) {
	return s.store.TopFatigued(ctx, f)
}

// RefreshCandidates returns content whose latest assessment recommends a
// refresh or retirement, score descending.
func (s *Service) RefreshCandidates(ctx context.Context, platformID string, limit int) ([]model.FatigueRecord, error) {
	return s.store.TopFatigued(ctx, repository.Filter{
		PlatformID:      platformID,
		Recommendations: []model.Recommendation{model.RecommendRefresh, model.RecommendRetire},
		Limit:           limit,
	})
}

// FatigueHistory returns all assessments for a key, oldest first.
func (s *Service) FatigueHistory(ctx context.Context, contentID, platformID string) ([]model.FatigueRecord, error) {
	return s.store.History(ctx, contentID, platformID)
}

// MarkActionTaken records the operator action on a fatigue record.
func (s *Service) MarkActionTaken(ctx context.Context, id string, action model.Action) (model.FatigueRecord, error) {
	return s.store.MarkActionTaken(ctx, id, action)
}

// runRetentionSweep deletes fatigue records older than the retention
// window.
func (s *Service) runRetentionSweep(ctx context.Context) {
	cutoff := time.Now().AddDate(0, 0, -s.retentionDays)
	removed, err := s.store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		s.logger.Error(ctx, "retention sweep failed", logger.Error(err))
		return
	}
	if removed > 0 {
		metrics.RecordRecordsSwept(removed)
	}
	s.logger.Info(ctx, "retention sweep finished",
		logger.Int("removed", removed),
		logger.Time("cutoff", cutoff),
	)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":      s.started,
		"worker_count": s.workerCount,
		"max_attempts": s.maxAttempts,
	}

	if s.started {
		ctx := context.Background()
		queueLen := s.queue.Len(ctx)
		records := s.store.Count(ctx)

		stats["uptime_seconds"] = int64(time.Since(s.startedAt).Seconds())
		stats["queue_length"] = queueLen
		stats["fatigue_records"] = records
		stats["tracked_jobs"] = s.journal.Len()

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateFatigueRecords(records)
	}
	return stats
}
