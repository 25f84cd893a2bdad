package model

import "time"

// Period is the aggregation window kind.
type Period string

const (
	PeriodDaily  Period = "daily"
	PeriodWeekly Period = "weekly"
)

// Valid reports whether the period is a known enum value.
func (p Period) Valid() bool {
	return p == PeriodDaily || p == PeriodWeekly
}

// PostPerformance is one entry of the top-performers ranking.
type PostPerformance struct {
	PostID         string   `json:"post_id"`
	Platform       Platform `json:"platform"`
	EngagementRate float64  `json:"engagement_rate"`
}

// PlatformStats is the per-platform slice of an aggregate.
type PlatformStats struct {
	Views      int64 `json:"views"`
	Engagement int64 `json:"engagement"`
	Count      int   `json:"count"`
}

// AggregatedMetrics is one (period, platform-set) summary derived from a
// set of metrics records. It is computed on demand and not persisted here.
type AggregatedMetrics struct {
	Period             Period                     `json:"period"`
	StartDate          time.Time                  `json:"start_date"`
	EndDate            time.Time                  `json:"end_date"`
	TotalViews         int64                      `json:"total_views"`
	TotalEngagement    int64                      `json:"total_engagement"`
	AvgEngagementRate  float64                    `json:"avg_engagement_rate"`
	TopPerformingPosts []PostPerformance          `json:"top_performing_posts"`
	PlatformBreakdown  map[Platform]PlatformStats `json:"platform_breakdown"`
}

// AnomalyFinding flags a statistically significant deviation of a metric
// from its historical baseline.
type AnomalyFinding struct {
	Metric    string  `json:"metric"`
	PostID    string  `json:"post_id"`
	Value     float64 `json:"value"`
	Expected  float64 `json:"expected"`
	Deviation float64 `json:"deviation"`
}

// AnalyticsReport is an ephemeral, human-readable composition of an
// aggregate and its anomaly findings.
type AnalyticsReport struct {
	Period          Period            `json:"period"`
	GeneratedAt     time.Time         `json:"generated_at"`
	Summary         AggregatedMetrics `json:"summary"`
	Anomalies       []AnomalyFinding  `json:"anomalies"`
	Insights        []string          `json:"insights"`
	Recommendations []string          `json:"recommendations"`
}
