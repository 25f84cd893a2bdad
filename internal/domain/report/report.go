// Package report composes human-readable insights from an aggregate and
// its anomaly findings. Pure composition, no I/O.
package report

import (
	"fmt"
	"sort"
	"time"

	"github.com/sociometry/pulse/internal/domain/model"
)

// lowEngagementRate is the average engagement rate below which a
// content-quality review is suggested.
const lowEngagementRate = 5.0

// Generate builds an AnalyticsReport from an aggregate and its findings.
func Generate(agg model.AggregatedMetrics, findings []model.AnomalyFinding, now time.Time) model.AnalyticsReport {
	return model.AnalyticsReport{
		Period:          agg.Period,
		GeneratedAt:     now,
		Summary:         agg,
		Anomalies:       findings,
		Insights:        insights(agg),
		Recommendations: recommendations(agg, findings),
	}
}

func insights(agg model.AggregatedMetrics) []string {
	lines := []string{
		fmt.Sprintf("Total views: %d", agg.TotalViews),
		fmt.Sprintf("Total engagement: %d", agg.TotalEngagement),
		fmt.Sprintf("Average engagement rate: %.2f%%", agg.AvgEngagementRate),
	}

	for _, platform := range sortedPlatforms(agg.PlatformBreakdown) {
		stats := agg.PlatformBreakdown[platform]
		if stats.Count == 0 {
			continue
		}
		avgViews := float64(stats.Views) / float64(stats.Count)
		avgEngagement := float64(stats.Engagement) / float64(stats.Count)
		lines = append(lines, fmt.Sprintf("%s: %.0f avg views and %.0f avg engagement across %d posts",
			platform, avgViews, avgEngagement, stats.Count))
	}
	return lines
}

// recommendations applies every rule that fires; zero lines is a valid
// outcome.
func recommendations(agg model.AggregatedMetrics, findings []model.AnomalyFinding) []string {
	var lines []string

	if agg.AvgEngagementRate < lowEngagementRate {
		lines = append(lines, fmt.Sprintf(
			"Average engagement rate is below %.0f%%; review content quality and posting times", lowEngagementRate))
	}

	if len(findings) > 0 {
		lines = append(lines, fmt.Sprintf(
			"%d anomalous readings detected; review the posts involved", len(findings)))
	}

	if best, ok := bestPlatform(agg.PlatformBreakdown); ok {
		lines = append(lines, fmt.Sprintf(
			"%s shows the strongest engagement rate; consider posting more there", best))
	}

	return lines
}

// bestPlatform returns the platform with the highest engagement/views
// ratio, excluding platforms with no posts.
func bestPlatform(breakdown map[model.Platform]model.PlatformStats) (model.Platform, bool) {
	var best model.Platform
	bestRate := -1.0
	for _, platform := range sortedPlatforms(breakdown) {
		stats := breakdown[platform]
		if stats.Count == 0 || stats.Views == 0 {
			continue
		}
		rate := float64(stats.Engagement) / float64(stats.Views)
		if rate > bestRate {
			bestRate = rate
			best = platform
		}
	}
	return best, bestRate >= 0
}

// sortedPlatforms gives the breakdown a deterministic iteration order.
func sortedPlatforms(breakdown map[model.Platform]model.PlatformStats) []model.Platform {
	platforms := make([]model.Platform, 0, len(breakdown))
	for p := range breakdown {
		platforms = append(platforms, p)
	}
	sort.Slice(platforms, func(i, j int) bool { return platforms[i] < platforms[j] })
	return platforms
}
