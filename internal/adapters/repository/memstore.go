package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sociometry/pulse/internal/domain/model"
	"github.com/sociometry/pulse/pkg/metrics"
)

type recordKey struct {
	contentID  string
	platformID string
}

// MemStore implements Store in memory. Per-key slices are kept ordered by
// DetectedAt ascending; a single mutex serializes writers, which also
// satisfies the per-key atomicity requirement of UpsertWithinWindow.
type MemStore struct {
	mu      sync.RWMutex
	byKey   map[recordKey][]model.FatigueRecord
	byID    map[string]recordKey
	records int
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		byKey: make(map[recordKey][]model.FatigueRecord),
		byID:  make(map[string]recordKey),
	}
}

// UpsertWithinWindow implements Store.
func (s *MemStore) UpsertWithinWindow(_ context.Context, rec model.FatigueRecord, window time.Duration) (model.FatigueRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := recordKey{contentID: rec.ContentID, platformID: rec.PlatformID}
	history := s.byKey[key]

	if n := len(history); n > 0 {
		latest := history[n-1]
		if rec.DetectedAt.Sub(latest.DetectedAt) <= window {
			// Overwrite the assessment in place; identity and any
			// operator action survive.
			rec.ID = latest.ID
			rec.ActionTaken = latest.ActionTaken
			history[n-1] = rec
			metrics.RecordStoreUpsert()
			return rec, false, nil
		}
	}

	s.byKey[key] = append(history, rec)
	s.byID[rec.ID] = key
	s.records++
	metrics.RecordStoreInsert()
	metrics.UpdateFatigueRecords(s.records)
	return rec, true, nil
}

// Latest implements Store.
func (s *MemStore) Latest(_ context.Context, contentID, platformID string) (model.FatigueRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.byKey[recordKey{contentID: contentID, platformID: platformID}]
	if len(history) == 0 {
		return model.FatigueRecord{}, ErrNotFound
	}
	return history[len(history)-1], nil
}

// History implements Store.
func (s *MemStore) History(_ context.Context, contentID, platformID string) ([]model.FatigueRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.byKey[recordKey{contentID: contentID, platformID: platformID}]
	out := make([]model.FatigueRecord, len(history))
	copy(out, history)
	return out, nil
}

// TopFatigued implements Store.
func (s *MemStore) TopFatigued(_ context.Context, f Filter) ([]model.FatigueRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.FatigueRecord
	for _, history := range s.byKey {
		// Only the latest assessment per key is actionable.
		latest := history[len(history)-1]
		if f.matches(latest) {
			out = append(out, latest)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].FatigueScore > out[j].FatigueScore
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// MarkActionTaken implements Store.
func (s *MemStore) MarkActionTaken(_ context.Context, id string, action model.Action) (model.FatigueRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key, ok := s.byID[id]
	if !ok {
		return model.FatigueRecord{}, ErrNotFound
	}
	history := s.byKey[key]
	for i := range history {
		if history[i].ID == id {
			history[i].ActionTaken = action
			return history[i], nil
		}
	}
	return model.FatigueRecord{}, ErrNotFound
}

// DeleteOlderThan implements Store.
func (s *MemStore) DeleteOlderThan(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, history := range s.byKey {
		kept := history[:0]
		for _, rec := range history {
			if rec.DetectedAt.Before(cutoff) {
				delete(s.byID, rec.ID)
				removed++
				continue
			}
			kept = append(kept, rec)
		}
		if len(kept) == 0 {
			delete(s.byKey, key)
			continue
		}
		s.byKey[key] = kept
	}
	s.records -= removed
	metrics.UpdateFatigueRecords(s.records)
	return removed, nil
}

// Count implements Store.
func (s *MemStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records
}

// Close implements Store.
func (s *MemStore) Close() error {
	return nil
}
