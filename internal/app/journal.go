package service

import (
	"sync"
	"time"

	"github.com/sociometry/pulse/internal/domain/model"
)

// Journal is a bounded in-memory record of job state transitions. It backs
// the job status/history queries so a terminally failed job keeps its last
// error available for inspection.
type Journal struct {
	mu          sync.RWMutex
	records     map[string]*model.JobRecord
	order       []string
	maxSize     int
	maxAttempts int
	now         func() time.Time
}

// NewJournal creates a journal keeping at most maxSize job records.
func NewJournal(maxSize, maxAttempts int) *Journal {
	if maxSize < 1 {
		maxSize = 1
	}
	return &Journal{
		records:     make(map[string]*model.JobRecord),
		maxSize:     maxSize,
		maxAttempts: maxAttempts,
		now:         time.Now,
	}
}

// JobSubmitted registers a freshly queued job.
func (j *Journal) JobSubmitted(job model.Job) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if len(j.records) >= j.maxSize {
		j.evictOldest()
	}
	j.records[job.ID] = &model.JobRecord{
		ID:          job.ID,
		Type:        job.Type,
		State:       model.JobQueued,
		MaxAttempts: j.maxAttempts,
		SubmittedAt: j.now(),
	}
	j.order = append(j.order, job.ID)
}

// JobStarted implements worker.Journal.
func (j *Journal) JobStarted(id string, attempt int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if rec, ok := j.records[id]; ok {
		rec.State = model.JobActive
		rec.Attempts = attempt
	}
}

// JobCompleted implements worker.Journal.
func (j *Journal) JobCompleted(id string, result any, took time.Duration) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if rec, ok := j.records[id]; ok {
		rec.State = model.JobCompleted
		rec.Result = result
		rec.Duration = took
		rec.FinishedAt = j.now()
		rec.LastError = ""
	}
}

// JobRetried implements worker.Journal.
func (j *Journal) JobRetried(id string, nextAttempt int, cause error, _ time.Duration) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if rec, ok := j.records[id]; ok {
		rec.State = model.JobQueued
		rec.Attempts = nextAttempt - 1
		rec.LastError = cause.Error()
	}
}

// JobFailed implements worker.Journal.
func (j *Journal) JobFailed(id string, cause error, took time.Duration) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if rec, ok := j.records[id]; ok {
		rec.State = model.JobFailed
		rec.LastError = cause.Error()
		rec.Duration = took
		rec.FinishedAt = j.now()
	}
}

// Get returns a job record by ID.
func (j *Journal) Get(id string) (model.JobRecord, bool) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	rec, ok := j.records[id]
	if !ok {
		return model.JobRecord{}, false
	}
	return *rec, true
}

// List returns job records, newest first, optionally filtered by state.
func (j *Journal) List(state model.JobState, limit int) []model.JobRecord {
	j.mu.RLock()
	defer j.mu.RUnlock()

	var out []model.JobRecord
	for i := len(j.order) - 1; i >= 0; i-- {
		rec, ok := j.records[j.order[i]]
		if !ok {
			continue
		}
		if state != "" && rec.State != state {
			continue
		}
		out = append(out, *rec)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// Len returns the number of tracked jobs.
func (j *Journal) Len() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return len(j.records)
}

// evictOldest drops the oldest tracked job. Must be called with j.mu held.
func (j *Journal) evictOldest() {
	for len(j.order) > 0 {
		id := j.order[0]
		j.order = j.order[1:]
		if _, ok := j.records[id]; ok {
			delete(j.records, id)
			return
		}
	}
}
