package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	workerpool "github.com/sociometry/pulse/internal/adapters/mq/worker"
	"github.com/sociometry/pulse/internal/domain/aggregate"
	"github.com/sociometry/pulse/internal/domain/anomaly"
	"github.com/sociometry/pulse/internal/domain/fatigue"
	"github.com/sociometry/pulse/internal/domain/model"
	"github.com/sociometry/pulse/internal/domain/report"
	"github.com/sociometry/pulse/pkg/metrics"
)

// dispatch builds the job type to handler table executed by the worker
// pool.
func (s *Service) dispatch() workerpool.Dispatch {
	return workerpool.Dispatch{
		model.JobCollect:         s.handleCollect,
		model.JobAggregateDaily:  s.handleAggregate(model.PeriodDaily),
		model.JobAggregateWeekly: s.handleAggregate(model.PeriodWeekly),
		model.JobGenerateReport:  s.handleGenerateReport,
		model.JobDetectFatigue:   s.handleDetectFatigue,
	}
}

// handleCollect fetches fresh metrics for a post from the platform
// collector and validates them before handing them back as the result.
func (s *Service) handleCollect(ctx context.Context, job model.Job) (interface{}, error) {
	platform, err := model.ParsePlatform(job.Payload.Platform)
	if err != nil {
		return nil, model.NonRetryable(err)
	}

	record, err := s.collect.CollectMetrics(ctx, platform, job.Payload.CredentialRef, job.Payload.PostID)
	if err != nil {
		return nil, fmt.Errorf("collect %s/%s: %w", platform, job.Payload.PostID, err)
	}
	if err := record.Validate(time.Now(), s.clockSkew); err != nil {
		return nil, model.NonRetryable(err)
	}
	return record, nil
}

// handleAggregate returns a handler producing the aggregate for the
// given period from the records carried in the payload.
func (s *Service) handleAggregate(period model.Period) workerpool.Handler {
	return func(ctx context.Context, job model.Job) (interface{}, error) {
		ref := job.Payload.ReferenceDate
		if ref.IsZero() {
			ref = time.Now()
		}
		records, err := s.validRecords(job.Payload.MetricsData)
		if err != nil {
			return nil, err
		}
		return aggregate.Aggregate(records, period, ref), nil
	}
}

// handleGenerateReport aggregates the current window, flags anomalies
// against the historical aggregates and assembles the report.
func (s *Service) handleGenerateReport(ctx context.Context, job model.Job) (interface{}, error) {
	ref := job.Payload.ReferenceDate
	if ref.IsZero() {
		ref = time.Now()
	}
	records, err := s.validRecords(job.Payload.MetricsData)
	if err != nil {
		return nil, err
	}

	current := aggregate.Aggregate(records, model.PeriodWeekly, ref)
	findings := anomaly.Detect(records, job.Payload.HistoricalData, s.anomalyThreshold)
	if len(findings) > 0 {
		metrics.RecordAnomaliesFlagged(len(findings))
	}
	return report.Generate(current, findings, time.Now()), nil
}

// handleDetectFatigue runs creative fatigue detection for a content and
// platform pair. Too little history is a permanent condition for this
// job, retrying would not produce more data.
func (s *Service) handleDetectFatigue(ctx context.Context, job model.Job) (interface{}, error) {
	result, err := s.detector.DetectCreativeFatigue(ctx, job.Payload.ContentID, job.Payload.PlatformID)
	if err != nil {
		if errors.Is(err, fatigue.ErrInsufficientData) {
			return nil, model.NonRetryable(err)
		}
		return nil, err
	}
	return result, nil
}

// validRecords filters the payload records through validation, rejecting
// the whole batch on the first invalid record.
func (s *Service) validRecords(in []model.MetricsRecord) ([]model.MetricsRecord, error) {
	now := time.Now()
	for i := range in {
		if err := in[i].Validate(now, s.clockSkew); err != nil {
			metrics.RecordValidationFailure()
			return nil, model.NonRetryable(fmt.Errorf("record %d: %w", i, err))
		}
	}
	return in, nil
}
