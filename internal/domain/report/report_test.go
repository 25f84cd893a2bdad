package report_test

import (
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/sociometry/pulse/internal/domain/model"
	"github.com/sociometry/pulse/internal/domain/report"
)

func containsLine(lines []string, fragment string) bool {
	for _, line := range lines {
		if strings.Contains(line, fragment) {
			return true
		}
	}
	return false
}

func TestGenerate(t *testing.T) {
	now := time.Date(2026, 3, 16, 9, 0, 0, 0, time.UTC)

	Convey("Given a healthy weekly aggregate", t, func() {
		agg := model.AggregatedMetrics{
			Period:            model.PeriodWeekly,
			TotalViews:        10000,
			TotalEngagement:   900,
			AvgEngagementRate: 9.0,
			PlatformBreakdown: map[model.Platform]model.PlatformStats{
				model.PlatformTikTok:  {Views: 6000, Engagement: 700, Count: 3},
				model.PlatformYouTube: {Views: 4000, Engagement: 200, Count: 2},
			},
		}

		Convey("When generating the report", func() {
			rep := report.Generate(agg, nil, now)

			Convey("Then it embeds the aggregate and timestamp", func() {
				So(rep.Period, ShouldEqual, model.PeriodWeekly)
				So(rep.GeneratedAt, ShouldEqual, now)
				So(rep.Summary.TotalViews, ShouldEqual, 10000)
				So(rep.Anomalies, ShouldBeEmpty)
			})

			Convey("Then insights cover totals and each platform", func() {
				So(containsLine(rep.Insights, "Total views: 10000"), ShouldBeTrue)
				So(containsLine(rep.Insights, "Average engagement rate: 9.00%"), ShouldBeTrue)
				So(containsLine(rep.Insights, "tiktok"), ShouldBeTrue)
				So(containsLine(rep.Insights, "youtube"), ShouldBeTrue)
			})

			Convey("Then the strongest platform is recommended", func() {
				So(containsLine(rep.Recommendations, "tiktok shows the strongest engagement rate"), ShouldBeTrue)
				So(containsLine(rep.Recommendations, "below"), ShouldBeFalse)
			})
		})
	})

	Convey("Given a low-engagement aggregate with anomalies", t, func() {
		agg := model.AggregatedMetrics{
			Period:            model.PeriodDaily,
			TotalViews:        5000,
			TotalEngagement:   100,
			AvgEngagementRate: 2.0,
			PlatformBreakdown: map[model.Platform]model.PlatformStats{
				model.PlatformFacebook: {Views: 5000, Engagement: 100, Count: 4},
			},
		}
		findings := []model.AnomalyFinding{
			{Metric: "views", PostID: "p1", Value: 5000, Expected: 100, Deviation: 12},
			{Metric: "engagement", PostID: "p1", Value: 90, Expected: 10, Deviation: 8},
		}

		Convey("When generating the report", func() {
			rep := report.Generate(agg, findings, now)

			Convey("Then both warning rules fire", func() {
				So(containsLine(rep.Recommendations, "below 5%"), ShouldBeTrue)
				So(containsLine(rep.Recommendations, "2 anomalous readings"), ShouldBeTrue)
				So(len(rep.Anomalies), ShouldEqual, 2)
			})
		})
	})

	Convey("Given an empty aggregate", t, func() {
		agg := model.AggregatedMetrics{Period: model.PeriodDaily}

		Convey("When generating the report", func() {
			rep := report.Generate(agg, nil, now)

			Convey("Then totals are reported and no platform is recommended", func() {
				So(containsLine(rep.Insights, "Total views: 0"), ShouldBeTrue)
				So(containsLine(rep.Recommendations, "strongest engagement"), ShouldBeFalse)
			})
		})
	})
}
