// Package anomaly flags metric readings that deviate from a historical
// baseline by more than a z-score threshold.
package anomaly

import (
	"github.com/montanaflynn/stats"

	"github.com/sociometry/pulse/internal/domain/model"
)

// DefaultThreshold is the z-score magnitude above which a reading is
// flagged.
const DefaultThreshold = 2.0

// minHistoricalSamples is the smallest baseline a sample standard
// deviation can be computed from.
const minHistoricalSamples = 2

// baseline holds the historical distribution of one metric.
type baseline struct {
	mean   float64
	stddev float64
	ok     bool
}

func newBaseline(series []float64) baseline {
	if len(series) < minHistoricalSamples {
		return baseline{}
	}
	mean, err := stats.Mean(series)
	if err != nil {
		return baseline{}
	}
	stddev, err := stats.StandardDeviationSample(series)
	if err != nil {
		return baseline{}
	}
	return baseline{mean: mean, stddev: stddev, ok: true}
}

// deviation returns the z-score magnitude of value against the baseline.
// A zero stddev yields 0 so constant history never produces false flags.
func (b baseline) deviation(value float64) float64 {
	if !b.ok || b.stddev == 0 {
		return 0
	}
	d := (value - b.mean) / b.stddev
	if d < 0 {
		return -d
	}
	return d
}

// Detect compares each current record's views and engagement against the
// historical baseline and emits a finding for every deviation strictly
// greater than thresholdZ. Fewer than two historical samples means no
// baseline, which degrades to an empty result rather than an error.
// Findings follow the order of current, views before engagement per record.
func Detect(current, historical []model.MetricsRecord, thresholdZ float64) []model.AnomalyFinding {
	if len(historical) < minHistoricalSamples {
		return nil
	}

	viewSeries := make([]float64, len(historical))
	engagementSeries := make([]float64, len(historical))
	for i, rec := range historical {
		viewSeries[i] = float64(rec.Views())
		engagementSeries[i] = float64(rec.Engagement())
	}

	views := newBaseline(viewSeries)
	engagement := newBaseline(engagementSeries)

	var findings []model.AnomalyFinding
	for _, rec := range current {
		v := float64(rec.Views())
		if d := views.deviation(v); d > thresholdZ {
			findings = append(findings, model.AnomalyFinding{
				Metric:    "views",
				PostID:    rec.PostID,
				Value:     v,
				Expected:  views.mean,
				Deviation: d,
			})
		}

		e := float64(rec.Engagement())
		if d := engagement.deviation(e); d > thresholdZ {
			findings = append(findings, model.AnomalyFinding{
				Metric:    "engagement",
				PostID:    rec.PostID,
				Value:     e,
				Expected:  engagement.mean,
				Deviation: d,
			})
		}
	}
	return findings
}
