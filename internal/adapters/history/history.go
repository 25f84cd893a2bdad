// Package history adapts external aggregated-metrics stores to the
// fatigue detector's series interface.
package history

import (
	"context"
	"hash/fnv"
	"math/rand"
	"time"

	"github.com/sociometry/pulse/internal/domain/fatigue"
)

// Stub implements fatigue.HistorySource with a synthetic daily series,
// deterministic per (entityID, metricPath). Roughly a third of contents
// get a declining curve so fatigue detection has something to find.
type Stub struct{}

// NewStub creates a stub history source.
func NewStub() *Stub {
	return &Stub{}
}

// AggregatedByPeriod implements fatigue.HistorySource. Points are returned
// in chronological order, one per day of the requested range.
func (s *Stub) AggregatedByPeriod(_ context.Context, _, entityID, metricPath string, start, end time.Time, _ string) ([]fatigue.SeriesPoint, error) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(entityID + "/" + metricPath))
	rng := rand.New(rand.NewSource(int64(h.Sum64()))) //nolint:gosec // synthetic data, not crypto

	days := int(end.Sub(start).Hours() / 24)
	if days < 1 {
		return nil, nil
	}

	base := 4 + rng.Float64()*8 // engagement rate percent
	declining := rng.Intn(3) == 0
	slope := 0.0
	if declining {
		slope = -(base * 0.6) / float64(days)
	}

	points := make([]fatigue.SeriesPoint, 0, days)
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	for i := 0; i < days; i++ {
		value := base + slope*float64(i) + rng.Float64()*0.5
		if value < 0 {
			value = 0
		}
		points = append(points, fatigue.SeriesPoint{Period: day, Value: value})
		day = day.AddDate(0, 0, 1)
	}
	return points, nil
}
