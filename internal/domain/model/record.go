package model

import (
	"fmt"
	"strings"
	"time"
)

// Metrics is the sparse per-post metric bag produced by collectors.
// Absent fields are zero.
type Metrics struct {
	Views     int64 `json:"views,omitempty"`
	Likes     int64 `json:"likes,omitempty"`
	Comments  int64 `json:"comments,omitempty"`
	Shares    int64 `json:"shares,omitempty"`
	Saves     int64 `json:"saves,omitempty"`
	Reactions int64 `json:"reactions,omitempty"`
}

// MetricsRecord is one platform-post observation. Records are immutable:
// a new observation is a new record, never a mutation.
type MetricsRecord struct {
	Platform  Platform  `json:"platform"`
	PostID    string    `json:"post_id"`
	Metrics   Metrics   `json:"metrics"`
	Timestamp time.Time `json:"timestamp"`
}

// Validate enforces the collector contract at the orchestrator boundary.
// skew is the tolerated clock drift for timestamps ahead of now.
func (r MetricsRecord) Validate(now time.Time, skew time.Duration) error {
	if !r.Platform.Valid() {
		return fmt.Errorf("%w: unknown platform %q", ErrValidation, r.Platform)
	}
	if strings.TrimSpace(r.PostID) == "" {
		return fmt.Errorf("%w: missing post id", ErrValidation)
	}
	if r.Timestamp.IsZero() {
		return fmt.Errorf("%w: missing timestamp", ErrValidation)
	}
	if r.Timestamp.After(now.Add(skew)) {
		return fmt.Errorf("%w: timestamp %s is in the future", ErrValidation, r.Timestamp.Format(time.RFC3339))
	}
	return nil
}

// Views returns the primary view/impression counter for the record.
func (r MetricsRecord) Views() int64 {
	return r.Metrics.Views
}

// Engagement returns the summed interaction signals for the record using
// the platform's extraction rule: likes (or reactions, where the platform
// reports those instead) plus comments and shares, plus saves where the
// platform reports saves.
func (r MetricsRecord) Engagement() int64 {
	rule := extractionRules[r.Platform]

	total := r.Metrics.Comments + r.Metrics.Shares
	if rule.usesReactions {
		total += r.Metrics.Reactions
	} else {
		total += r.Metrics.Likes
	}
	if rule.countsSaves {
		total += r.Metrics.Saves
	}
	return total
}

// EngagementRate returns engagement/views*100, or 0 when views is 0.
func (r MetricsRecord) EngagementRate() float64 {
	return Rate(float64(r.Engagement()), float64(r.Views()))
}

// Rate computes part/whole*100 with a zero fallback for a zero denominator.
func Rate(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return part / whole * 100
}
