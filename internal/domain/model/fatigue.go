package model

import (
	"fmt"
	"time"
)

// Trend classifies the regression slope of a metric series.
type Trend string

const (
	TrendDeclining Trend = "declining"
	TrendStable    Trend = "stable"
	TrendImproving Trend = "improving"
)

// Recommendation is the action suggested for a piece of content.
type Recommendation string

const (
	RecommendContinue Recommendation = "continue"
	RecommendBoost    Recommendation = "boost"
	RecommendRefresh  Recommendation = "refresh"
	RecommendRetire   Recommendation = "retire"
)

// Action records what an operator actually did about a fatigue record.
type Action string

const (
	ActionRefreshed Action = "refreshed"
	ActionRetired   Action = "retired"
	ActionBoosted   Action = "boosted"
	ActionIgnored   Action = "ignored"
)

// ParseAction validates an operator action.
func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case ActionRefreshed, ActionRetired, ActionBoosted, ActionIgnored:
		return Action(s), nil
	default:
		return "", fmt.Errorf("%w: unknown action %q", ErrValidation, s)
	}
}

// FatigueRecord is one (contentId, platformId) creative-fatigue assessment.
// Within a 1-day window of the most recent prior record the record is
// updated in place; outside that window a new record is created, so the
// full history stays queryable.
type FatigueRecord struct {
	ID              string         `json:"id"`
	ContentID       string         `json:"content_id"`
	PlatformID      string         `json:"platform_id"`
	FatigueScore    float64        `json:"fatigue_score"`
	PerformanceTrend Trend         `json:"performance_trend"`
	Recommendation  Recommendation `json:"recommendation"`
	Metrics         []float64      `json:"metrics"`
	Threshold       float64        `json:"threshold"`
	DetectedAt      time.Time      `json:"detected_at"`
	ActionTaken     Action         `json:"action_taken,omitempty"`
}
