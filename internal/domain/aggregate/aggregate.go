// Package aggregate reduces metrics records into period-bounded summaries.
//
// Aggregate is a pure function: no I/O, no side effects, deterministic for
// identical inputs. Downstream fatigue scoring relies on that.
package aggregate

import (
	"sort"
	"time"

	"github.com/sociometry/pulse/internal/domain/model"
)

// topPostsLimit caps the top-performers ranking.
const topPostsLimit = 10

// Window returns the half-open [start, end) aggregation window for a period
// anchored at ref: the reference day for daily, the reference day plus the
// seven days before it for weekly.
func Window(period model.Period, ref time.Time) (start, end time.Time) {
	dayStart := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, ref.Location())
	end = dayStart.Add(24 * time.Hour)
	if period == model.PeriodWeekly {
		return dayStart.AddDate(0, 0, -7), end
	}
	return dayStart, end
}

// Aggregate computes totals, per-platform breakdown and a top-N ranking for
// the records falling inside the period window anchored at ref. Records
// outside the window are silently excluded.
func Aggregate(records []model.MetricsRecord, period model.Period, ref time.Time) model.AggregatedMetrics {
	start, end := Window(period, ref)

	agg := model.AggregatedMetrics{
		Period:            period,
		StartDate:         start,
		EndDate:           end,
		PlatformBreakdown: make(map[model.Platform]model.PlatformStats),
	}

	var contributing []model.PostPerformance
	for _, rec := range records {
		if rec.Timestamp.Before(start) || !rec.Timestamp.Before(end) {
			continue
		}

		views := rec.Views()
		engagement := rec.Engagement()

		agg.TotalViews += views
		agg.TotalEngagement += engagement

		stats := agg.PlatformBreakdown[rec.Platform]
		stats.Views += views
		stats.Engagement += engagement
		stats.Count++
		agg.PlatformBreakdown[rec.Platform] = stats

		contributing = append(contributing, model.PostPerformance{
			PostID:         rec.PostID,
			Platform:       rec.Platform,
			EngagementRate: rec.EngagementRate(),
		})
	}

	agg.AvgEngagementRate = model.Rate(float64(agg.TotalEngagement), float64(agg.TotalViews))

	// Stable sort keeps input order on ties.
	sort.SliceStable(contributing, func(i, j int) bool {
		return contributing[i].EngagementRate > contributing[j].EngagementRate
	})
	if len(contributing) > topPostsLimit {
		contributing = contributing[:topPostsLimit]
	}
	agg.TopPerformingPosts = contributing

	return agg
}
