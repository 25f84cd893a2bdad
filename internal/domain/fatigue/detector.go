package fatigue

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sociometry/pulse/internal/domain/model"
	"github.com/sociometry/pulse/pkg/metrics"
)

// Default detection configuration constants.
const (
	DefaultLookbackDays = 30
	DefaultThreshold    = 70.0
	DefaultDedupWindow  = 24 * time.Hour

	// minDataPoints is the smallest daily series the scoring windows are
	// defined on.
	minDataPoints = 7
)

// SeriesPoint is one chronological point of a historical metric series.
type SeriesPoint struct {
	Period time.Time
	Value  float64
}

// HistorySource supplies historical per-day metric series. Implementations
// must return points in chronological order.
type HistorySource interface {
	AggregatedByPeriod(ctx context.Context, entityType, entityID, metricPath string, start, end time.Time, granularity string) ([]SeriesPoint, error)
}

// Store is the subset of the fatigue repository the detector writes to.
// UpsertWithinWindow must be atomic and race-safe per (contentID,
// platformID) key.
type Store interface {
	UpsertWithinWindow(ctx context.Context, rec model.FatigueRecord, window time.Duration) (model.FatigueRecord, bool, error)
}

// Result is the outcome of one fatigue detection.
type Result struct {
	Record     model.FatigueRecord
	Confidence float64
	// Created is false when an existing record inside the dedup window was
	// updated in place.
	Created bool
}

// Detector runs creative-fatigue detection against a history source and
// persists the outcome with temporal dedup.
type Detector struct {
	history      HistorySource
	store        Store
	lookbackDays int
	threshold    float64
	dedupWindow  time.Duration
	now          func() time.Time
}

// Option applies a configuration option to the Detector.
type Option func(*Detector)

// WithLookbackDays sets the historical window in days.
func WithLookbackDays(days int) Option {
	return func(d *Detector) {
		if days > 0 {
			d.lookbackDays = days
		}
	}
}

// WithThreshold sets the fatigue score threshold the recommendation ladder
// is anchored at.
func WithThreshold(threshold float64) Option {
	return func(d *Detector) {
		if threshold > 0 {
			d.threshold = threshold
		}
	}
}

// WithDedupWindow sets the in-place update window for repeated detections
// of the same (contentID, platformID).
func WithDedupWindow(window time.Duration) Option {
	return func(d *Detector) {
		if window > 0 {
			d.dedupWindow = window
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(d *Detector) {
		if now != nil {
			d.now = now
		}
	}
}

// NewDetector creates a detector with default configuration.
func NewDetector(history HistorySource, store Store, opts ...Option) *Detector {
	d := &Detector{
		history:      history,
		store:        store,
		lookbackDays: DefaultLookbackDays,
		threshold:    DefaultThreshold,
		dedupWindow:  DefaultDedupWindow,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DetectCreativeFatigue fetches the daily engagement-rate series for the
// content, classifies its trend, scores it and persists a deduplicated
// record. Fewer than seven data points fail with ErrInsufficientData.
func (d *Detector) DetectCreativeFatigue(ctx context.Context, contentID, platformID string) (Result, error) {
	now := d.now()
	start := now.AddDate(0, 0, -d.lookbackDays)

	metricPath := fmt.Sprintf("platforms.%s.engagement_rate", platformID)
	points, err := d.history.AggregatedByPeriod(ctx, "content", contentID, metricPath, start, now, "daily")
	if err != nil {
		return Result{}, fmt.Errorf("fetch history for %s/%s: %w", contentID, platformID, err)
	}
	if len(points) < minDataPoints {
		return Result{}, fmt.Errorf("%w: have %d daily points, need %d", ErrInsufficientData, len(points), minDataPoints)
	}

	series := make([]float64, len(points))
	for i, p := range points {
		series[i] = p.Value
	}

	trend := TrendOf(series)
	score := Score(series, trend)
	recommendation := RecommendationFor(score, trend, d.threshold)

	rec := model.FatigueRecord{
		ID:               uuid.NewString(),
		ContentID:        contentID,
		PlatformID:       platformID,
		FatigueScore:     score,
		PerformanceTrend: trend,
		Recommendation:   recommendation,
		Metrics:          series,
		Threshold:        d.threshold,
		DetectedAt:       now,
	}

	stored, created, err := d.store.UpsertWithinWindow(ctx, rec, d.dedupWindow)
	if err != nil {
		return Result{}, fmt.Errorf("persist fatigue record for %s/%s: %w", contentID, platformID, err)
	}

	metrics.RecordFatigueScore(score)
	metrics.RecordFatigueRecommendation(string(recommendation))

	return Result{
		Record:     stored,
		Confidence: Confidence(series),
		Created:    created,
	}, nil
}
