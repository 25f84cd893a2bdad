package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/sociometry/pulse/internal/domain/model"
	"github.com/sociometry/pulse/pkg/metrics"
)

// fatigueRow is the relational shape of a fatigue record. The metric
// series is stored JSON-encoded; point lookups go through the composite
// key index, retention sweeps through the detected_at index.
type fatigueRow struct {
	ID               string    `gorm:"column:id;primaryKey"`
	ContentID        string    `gorm:"column:content_id;index:idx_fatigue_key"`
	PlatformID       string    `gorm:"column:platform_id;index:idx_fatigue_key"`
	FatigueScore     float64   `gorm:"column:fatigue_score"`
	PerformanceTrend string    `gorm:"column:performance_trend"`
	Recommendation   string    `gorm:"column:recommendation"`
	Metrics          string    `gorm:"column:metrics;type:text"`
	Threshold        float64   `gorm:"column:threshold"`
	DetectedAt       time.Time `gorm:"column:detected_at;index"`
	ActionTaken      string    `gorm:"column:action_taken"`
}

// TableName implements the gorm table naming hook.
func (fatigueRow) TableName() string { return "fatigue_records" }

func toRow(rec model.FatigueRecord) (fatigueRow, error) {
	series, err := json.Marshal(rec.Metrics)
	if err != nil {
		return fatigueRow{}, fmt.Errorf("encode metric series: %w", err)
	}
	return fatigueRow{
		ID:               rec.ID,
		ContentID:        rec.ContentID,
		PlatformID:       rec.PlatformID,
		FatigueScore:     rec.FatigueScore,
		PerformanceTrend: string(rec.PerformanceTrend),
		Recommendation:   string(rec.Recommendation),
		Metrics:          string(series),
		Threshold:        rec.Threshold,
		DetectedAt:       rec.DetectedAt,
		ActionTaken:      string(rec.ActionTaken),
	}, nil
}

func (r fatigueRow) toRecord() model.FatigueRecord {
	var series []float64
	_ = json.Unmarshal([]byte(r.Metrics), &series)
	return model.FatigueRecord{
		ID:               r.ID,
		ContentID:        r.ContentID,
		PlatformID:       r.PlatformID,
		FatigueScore:     r.FatigueScore,
		PerformanceTrend: model.Trend(r.PerformanceTrend),
		Recommendation:   model.Recommendation(r.Recommendation),
		Metrics:          series,
		Threshold:        r.Threshold,
		DetectedAt:       r.DetectedAt,
		ActionTaken:      model.Action(r.ActionTaken),
	}
}

// GormStore implements Store on a gorm-managed database (sqlite or
// postgres). The 24-hour dedup upsert runs under a per-key mutex plus a
// transaction, giving single-writer-per-key serialization within the
// process.
type GormStore struct {
	db   *gorm.DB
	mu   sync.Mutex
	keys map[recordKey]*sync.Mutex
}

// NewGormStore migrates the schema and wraps the database handle.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&fatigueRow{}); err != nil {
		return nil, fmt.Errorf("migrate fatigue schema: %w", err)
	}
	return &GormStore{
		db:   db,
		keys: make(map[recordKey]*sync.Mutex),
	}, nil
}

func (s *GormStore) keyLock(key recordKey) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.keys[key]
	if !ok {
		l = &sync.Mutex{}
		s.keys[key] = l
	}
	return l
}

// UpsertWithinWindow implements Store.
func (s *GormStore) UpsertWithinWindow(ctx context.Context, rec model.FatigueRecord, window time.Duration) (model.FatigueRecord, bool, error) {
	lock := s.keyLock(recordKey{contentID: rec.ContentID, platformID: rec.PlatformID})
	lock.Lock()
	defer lock.Unlock()

	created := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var latest fatigueRow
		err := tx.Where("content_id = ? AND platform_id = ?", rec.ContentID, rec.PlatformID).
			Order("detected_at DESC").
			First(&latest).Error

		switch {
		case err == nil && rec.DetectedAt.Sub(latest.DetectedAt) <= window:
			rec.ID = latest.ID
			rec.ActionTaken = model.Action(latest.ActionTaken)
			row, rowErr := toRow(rec)
			if rowErr != nil {
				return rowErr
			}
			return tx.Save(&row).Error
		case err == nil || errors.Is(err, gorm.ErrRecordNotFound):
			created = true
			row, rowErr := toRow(rec)
			if rowErr != nil {
				return rowErr
			}
			return tx.Create(&row).Error
		default:
			return err
		}
	})
	if err != nil {
		metrics.RecordStoreError()
		return model.FatigueRecord{}, false, fmt.Errorf("upsert fatigue record: %w", err)
	}

	if created {
		metrics.RecordStoreInsert()
	} else {
		metrics.RecordStoreUpsert()
	}
	return rec, created, nil
}

// Latest implements Store.
func (s *GormStore) Latest(ctx context.Context, contentID, platformID string) (model.FatigueRecord, error) {
	var row fatigueRow
	err := s.db.WithContext(ctx).
		Where("content_id = ? AND platform_id = ?", contentID, platformID).
		Order("detected_at DESC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.FatigueRecord{}, ErrNotFound
	}
	if err != nil {
		metrics.RecordStoreError()
		return model.FatigueRecord{}, fmt.Errorf("query latest fatigue record: %w", err)
	}
	return row.toRecord(), nil
}

// History implements Store.
func (s *GormStore) History(ctx context.Context, contentID, platformID string) ([]model.FatigueRecord, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	var rows []fatigueRow
	err := s.db.WithContext(ctx).
		Where("content_id = ? AND platform_id = ?", contentID, platformID).
		Order("detected_at ASC").
		Find(&rows).Error
	if err != nil {
		metrics.RecordStoreError()
		return nil, fmt.Errorf("query fatigue history: %w", err)
	}

	out := make([]model.FatigueRecord, len(rows))
	for i, row := range rows {
		out[i] = row.toRecord()
	}
	return out, nil
}

// TopFatigued implements Store. The latest-per-key restriction is applied
// in memory after a score-ordered scan; fatigue stores stay small enough
// (one key per live creative) that this beats a correlated subquery on
// sqlite.
func (s *GormStore) TopFatigued(ctx context.Context, f Filter) ([]model.FatigueRecord, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	q := s.db.WithContext(ctx).Order("detected_at DESC")
	if f.PlatformID != "" {
		q = q.Where("platform_id = ?", f.PlatformID)
	}

	var rows []fatigueRow
	if err := q.Find(&rows).Error; err != nil {
		metrics.RecordStoreError()
		return nil, fmt.Errorf("query fatigued content: %w", err)
	}

	// rows are newest-first, so the first row per key is the latest.
	seen := make(map[recordKey]bool)
	var out []model.FatigueRecord
	for _, row := range rows {
		key := recordKey{contentID: row.ContentID, platformID: row.PlatformID}
		if seen[key] {
			continue
		}
		seen[key] = true
		rec := row.toRecord()
		if f.matches(rec) {
			out = append(out, rec)
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
func (s *GormStore) MarkActionTaken(ctx context.Context, id string, action model.Action) (model.FatigueRecord, error) {
	var row fatigueRow
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&row).Error; err != nil {
			return err
		}
		row.ActionTaken = string(action)
		return tx.Save(&row).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.FatigueRecord{}, ErrNotFound
	}
	if err != nil {
		metrics.RecordStoreError()
		return model.FatigueRecord{}, fmt.Errorf("mark action taken: %w", err)
	}
	return row.toRecord(), nil
}

// DeleteOlderThan implements Store.
func (s *GormStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	res := s.db.WithContext(ctx).Where("detected_at < ?", cutoff).Delete(&fatigueRow{})
	if res.Error != nil {
		metrics.RecordStoreError()
		return 0, fmt.Errorf("delete expired fatigue records: %w", res.Error)
	}
	return int(res.RowsAffected), nil
}

// Count implements Store.
func (s *GormStore) Count(ctx context.Context) int {
	var n int64
	if err := s.db.WithContext(ctx).Model(&fatigueRow{}).Count(&n).Error; err != nil {
		return 0
	}
	return int(n)
}

// Close implements Store.
func (s *GormStore) Close() error {
	db, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("unwrap sql db: %w", err)
	}
	if err := db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
