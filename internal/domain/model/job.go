package model

import (
	"fmt"
	"strings"
	"time"
)

// JobType enumerates the work the orchestrator knows how to dispatch.
type JobType string

const (
	JobCollect         JobType = "collect"
	JobAggregateDaily  JobType = "aggregate-daily"
	JobAggregateWeekly JobType = "aggregate-weekly"
	JobGenerateReport  JobType = "generate-report"
	JobDetectFatigue   JobType = "detect-fatigue"
)

// Valid reports whether the job type is known.
func (t JobType) Valid() bool {
	switch t {
	case JobCollect, JobAggregateDaily, JobAggregateWeekly, JobGenerateReport, JobDetectFatigue:
		return true
	default:
		return false
	}
}

// JobState is the orchestrator-side lifecycle state of a job.
// queued -> active -> {completed | failed}; failed re-queues while
// attempts remain.
type JobState string

const (
	JobQueued    JobState = "queued"
	JobActive    JobState = "active"
	JobCompleted JobState = "completed"
	JobFailed    JobState = "failed"
)

// JobPayload carries the per-type inputs of a job. Fields are sparse;
// ValidateFor checks the subset a given type requires.
type JobPayload struct {
	// collect
	Platform      string `json:"platform,omitempty"`
	CredentialRef string `json:"credential_ref,omitempty"`
	PostID        string `json:"post_id,omitempty"`

	// aggregate-* and generate-report
	MetricsData    []MetricsRecord `json:"metrics_data,omitempty"`
	HistoricalData []MetricsRecord `json:"historical_data,omitempty"`
	ReferenceDate  time.Time       `json:"reference_date,omitempty"`

	// detect-fatigue
	ContentID  string `json:"content_id,omitempty"`
	PlatformID string `json:"platform_id,omitempty"`
}

// ValidateFor checks the payload fields required by the given job type.
// Violations are non-retryable validation errors.
func (p JobPayload) ValidateFor(t JobType) error {
	switch t {
	case JobCollect:
		if _, err := ParsePlatform(p.Platform); err != nil {
			return err
		}
		if strings.TrimSpace(p.PostID) == "" {
			return fmt.Errorf("%w: collect requires post_id", ErrValidation)
		}
	case JobAggregateDaily, JobAggregateWeekly, JobGenerateReport:
		if len(p.MetricsData) == 0 {
			return fmt.Errorf("%w: %s requires metrics_data", ErrValidation, t)
		}
	case JobDetectFatigue:
		if strings.TrimSpace(p.ContentID) == "" || strings.TrimSpace(p.PlatformID) == "" {
			return fmt.Errorf("%w: detect-fatigue requires content_id and platform_id", ErrValidation)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownJobType, t)
	}
	return nil
}

// Job is the unit of work flowing through the queue. Attempt starts at 1
// on first processing; NotBefore delays retried jobs for backoff.
type Job struct {
	ID         string     `json:"id"`
	Type       JobType    `json:"type"`
	Payload    JobPayload `json:"payload"`
	Attempt    int        `json:"attempt"`
	EnqueuedAt time.Time  `json:"enqueued_at"`
	NotBefore  time.Time  `json:"not_before,omitempty"`
}

// JobRecord is the journal view of a job: its current state plus the
// outcome of the last attempt.
type JobRecord struct {
	ID          string        `json:"id"`
	Type        JobType       `json:"type"`
	State       JobState      `json:"state"`
	Attempts    int           `json:"attempts"`
	MaxAttempts int           `json:"max_attempts"`
	SubmittedAt time.Time     `json:"submitted_at"`
	FinishedAt  time.Time     `json:"finished_at,omitempty"`
	Duration    time.Duration `json:"duration_ns,omitempty"`
	LastError   string        `json:"last_error,omitempty"`
	Result      any           `json:"result,omitempty"`
}
