// Package repository defines the fatigue record store interface and its
// implementations.
package repository

import (
	"context"
	"time"

	"github.com/sociometry/pulse/internal/domain/model"
)

// Filter narrows fatigue record queries.
type Filter struct {
	// MinScore keeps records with FatigueScore >= MinScore.
	MinScore float64
	// PlatformID keeps records for one platform when non-empty.
	PlatformID string
	// Recommendations keeps records whose recommendation is in the set;
	// empty means all.
	Recommendations []model.Recommendation
	// Limit caps the result size; 0 means no cap.
	Limit int
}

func (f Filter) matches(rec model.FatigueRecord) bool {
	if rec.FatigueScore < f.MinScore {
		return false
	}
	if f.PlatformID != "" && rec.PlatformID != f.PlatformID {
		return false
	}
	if len(f.Recommendations) > 0 {
		ok := false
		for _, r := range f.Recommendations {
			if rec.Recommendation == r {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

// Store provides read/write access to fatigue records. Implementations
// must make UpsertWithinWindow atomic per (contentID, platformID) key to
// survive racing detect jobs for the same content.
type Store interface {
	// UpsertWithinWindow updates the most recent record for the key in
	// place when it was detected within window of rec.DetectedAt, keeping
	// the prior ID and ActionTaken; otherwise it inserts rec as a new
	// record. Returns the stored record and whether a new one was created.
	UpsertWithinWindow(ctx context.Context, rec model.FatigueRecord, window time.Duration) (model.FatigueRecord, bool, error)

	// Latest returns the most recent record for the key.
	// Returns ErrNotFound if the key has no records.
	Latest(ctx context.Context, contentID, platformID string) (model.FatigueRecord, error)

	// History returns all records for the key ordered by detectedAt
	// ascending.
	History(ctx context.Context, contentID, platformID string) ([]model.FatigueRecord, error)

	// TopFatigued returns matching records ordered by score descending.
	TopFatigued(ctx context.Context, f Filter) ([]model.FatigueRecord, error)

	// MarkActionTaken records the operator action on a record by ID.
	MarkActionTaken(ctx context.Context, id string, action model.Action) (model.FatigueRecord, error)

	// DeleteOlderThan removes records detected before cutoff and returns
	// how many were removed.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) int

	// Close releases underlying resources.
	Close() error
}
