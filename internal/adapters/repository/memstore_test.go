package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/sociometry/pulse/internal/adapters/repository"
	"github.com/sociometry/pulse/internal/domain/model"
)

func fatigueRecord(contentID, platformID string, score float64, detectedAt time.Time) model.FatigueRecord {
	return model.FatigueRecord{
		ID:               uuid.NewString(),
		ContentID:        contentID,
		PlatformID:       platformID,
		FatigueScore:     score,
		PerformanceTrend: model.TrendDeclining,
		Recommendation:   model.RecommendRefresh,
		Metrics:          []float64{100, 90, 80, 70, 60, 50, 40},
		Threshold:        70,
		DetectedAt:       detectedAt,
	}
}

func TestMemStoreUpsertWithinWindow(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

	Convey("Given an empty store", t, func() {
		store := repository.NewMemStore()

		Convey("When inserting a first record", func() {
			rec := fatigueRecord("c1", "tiktok", 80, base)
			stored, created, err := store.UpsertWithinWindow(ctx, rec, 24*time.Hour)

			Convey("Then the record is created as-is", func() {
				So(err, ShouldBeNil)
				So(created, ShouldBeTrue)
				So(stored.ID, ShouldEqual, rec.ID)
				So(store.Count(ctx), ShouldEqual, 1)
			})
		})

		Convey("When a second detection lands inside the window", func() {
			first := fatigueRecord("c1", "tiktok", 80, base)
			_, _, err := store.UpsertWithinWindow(ctx, first, 24*time.Hour)
			So(err, ShouldBeNil)

			second := fatigueRecord("c1", "tiktok", 85, base.Add(2*time.Hour))
			stored, created, err := store.UpsertWithinWindow(ctx, second, 24*time.Hour)

			Convey("Then the existing record is updated in place", func() {
				So(err, ShouldBeNil)
				So(created, ShouldBeFalse)
				So(stored.ID, ShouldEqual, first.ID)
				So(stored.FatigueScore, ShouldEqual, 85)
				So(store.Count(ctx), ShouldEqual, 1)
			})
		})

		Convey("When a second detection lands outside the window", func() {
			first := fatigueRecord("c1", "tiktok", 80, base)
			_, _, err := store.UpsertWithinWindow(ctx, first, 24*time.Hour)
			So(err, ShouldBeNil)

			second := fatigueRecord("c1", "tiktok", 85, base.Add(25*time.Hour))
			stored, created, err := store.UpsertWithinWindow(ctx, second, 24*time.Hour)

			Convey("Then a new record is appended", func() {
				So(err, ShouldBeNil)
				So(created, ShouldBeTrue)
				So(stored.ID, ShouldEqual, second.ID)
				So(store.Count(ctx), ShouldEqual, 2)
			})
		})

		Convey("When an in-window update follows an operator action", func() {
			first := fatigueRecord("c1", "tiktok", 80, base)
			_, _, err := store.UpsertWithinWindow(ctx, first, 24*time.Hour)
			So(err, ShouldBeNil)
			_, err = store.MarkActionTaken(ctx, first.ID, model.ActionBoosted)
			So(err, ShouldBeNil)

			second := fatigueRecord("c1", "tiktok", 85, base.Add(time.Hour))
			stored, _, err := store.UpsertWithinWindow(ctx, second, 24*time.Hour)

			Convey("Then the action survives the update", func() {
				So(err, ShouldBeNil)
				So(stored.ActionTaken, ShouldEqual, model.ActionBoosted)
			})
		})

		Convey("When the same content appears on two platforms", func() {
			_, _, err := store.UpsertWithinWindow(ctx, fatigueRecord("c1", "tiktok", 80, base), 24*time.Hour)
			So(err, ShouldBeNil)
			_, created, err := store.UpsertWithinWindow(ctx, fatigueRecord("c1", "youtube", 60, base), 24*time.Hour)

			Convey("Then the keys do not collide", func() {
				So(err, ShouldBeNil)
				So(created, ShouldBeTrue)
				So(store.Count(ctx), ShouldEqual, 2)
			})
		})
	})
}

func TestMemStoreQueries(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

	seed := func(store *repository.MemStore) (old, recent model.FatigueRecord) {
		old = fatigueRecord("c1", "tiktok", 55, base)
		recent = fatigueRecord("c1", "tiktok", 88, base.Add(48*time.Hour))
		_, _, err := store.UpsertWithinWindow(ctx, old, 24*time.Hour)
		So(err, ShouldBeNil)
		_, _, err = store.UpsertWithinWindow(ctx, recent, 24*time.Hour)
		So(err, ShouldBeNil)
		return old, recent
	}

	Convey("Given a store with two assessments of one key", t, func() {
		store := repository.NewMemStore()

		Convey("When asking for the latest", func() {
			_, recent := seed(store)
			got, err := store.Latest(ctx, "c1", "tiktok")

			Convey("Then the newest assessment is returned", func() {
				So(err, ShouldBeNil)
				So(got.ID, ShouldEqual, recent.ID)
			})
		})

		Convey("When asking for the history", func() {
			old, recent := seed(store)
			got, err := store.History(ctx, "c1", "tiktok")

			Convey("Then records come back oldest first", func() {
				So(err, ShouldBeNil)
				So(len(got), ShouldEqual, 2)
				So(got[0].ID, ShouldEqual, old.ID)
				So(got[1].ID, ShouldEqual, recent.ID)
			})
		})

		Convey("When asking for an unknown key", func() {
			_, err := store.Latest(ctx, "nope", "tiktok")

			Convey("Then it is not found", func() {
				So(err, ShouldEqual, repository.ErrNotFound)
			})
		})
	})

	Convey("Given a store with several keys", t, func() {
		store := repository.NewMemStore()
		records := []model.FatigueRecord{
			fatigueRecord("c1", "tiktok", 90, base),
			fatigueRecord("c2", "tiktok", 40, base),
			fatigueRecord("c3", "youtube", 75, base),
		}
		for _, rec := range records {
			_, _, err := store.UpsertWithinWindow(ctx, rec, 24*time.Hour)
			So(err, ShouldBeNil)
		}

		Convey("When listing the most fatigued", func() {
			got, err := store.TopFatigued(ctx, repository.Filter{})

			Convey("Then records are ordered by score descending", func() {
				So(err, ShouldBeNil)
				So(len(got), ShouldEqual, 3)
				So(got[0].FatigueScore, ShouldEqual, 90)
				So(got[1].FatigueScore, ShouldEqual, 75)
				So(got[2].FatigueScore, ShouldEqual, 40)
			})
		})

		Convey("When filtering by minimum score and platform", func() {
			got, err := store.TopFatigued(ctx, repository.Filter{MinScore: 70, PlatformID: "tiktok"})

			Convey("Then only matching records remain", func() {
				So(err, ShouldBeNil)
				So(len(got), ShouldEqual, 1)
				So(got[0].ContentID, ShouldEqual, "c1")
			})
		})

		Convey("When limiting the result", func() {
			got, err := store.TopFatigued(ctx, repository.Filter{Limit: 2})

			Convey("Then the list is capped", func() {
				So(err, ShouldBeNil)
				So(len(got), ShouldEqual, 2)
			})
		})

		Convey("When filtering by recommendation", func() {
			got, err := store.TopFatigued(ctx, repository.Filter{
				Recommendations: []model.Recommendation{model.RecommendRefresh},
			})

			Convey("Then all matches carry that recommendation", func() {
				So(err, ShouldBeNil)
				So(len(got), ShouldEqual, 3)
			})
		})
	})

	Convey("Given a store with old and fresh records", t, func() {
		store := repository.NewMemStore()
		oldRec := fatigueRecord("c1", "tiktok", 50, base.AddDate(0, 0, -120))
		freshRec := fatigueRecord("c2", "tiktok", 60, base)
		_, _, err := store.UpsertWithinWindow(ctx, oldRec, 24*time.Hour)
		So(err, ShouldBeNil)
		_, _, err = store.UpsertWithinWindow(ctx, freshRec, 24*time.Hour)
		So(err, ShouldBeNil)

		Convey("When sweeping with a 90 day cutoff", func() {
			removed, err := store.DeleteOlderThan(ctx, base.AddDate(0, 0, -90))

			Convey("Then only the stale record is removed", func() {
				So(err, ShouldBeNil)
				So(removed, ShouldEqual, 1)
				So(store.Count(ctx), ShouldEqual, 1)

				_, err := store.Latest(ctx, "c1", "tiktok")
				So(err, ShouldEqual, repository.ErrNotFound)
			})
		})
	})

	Convey("Given a marked record", t, func() {
		store := repository.NewMemStore()
		rec := fatigueRecord("c1", "tiktok", 80, base)
		_, _, err := store.UpsertWithinWindow(ctx, rec, 24*time.Hour)
		So(err, ShouldBeNil)

		Convey("When marking an action on it", func() {
			got, err := store.MarkActionTaken(ctx, rec.ID, model.ActionRetired)

			Convey("Then the action is persisted", func() {
				So(err, ShouldBeNil)
				So(got.ActionTaken, ShouldEqual, model.ActionRetired)

				latest, err := store.Latest(ctx, "c1", "tiktok")
				So(err, ShouldBeNil)
				So(latest.ActionTaken, ShouldEqual, model.ActionRetired)
			})
		})

		Convey("When marking an unknown ID", func() {
			_, err := store.MarkActionTaken(ctx, "missing", model.ActionIgnored)

			Convey("Then it is not found", func() {
				So(err, ShouldEqual, repository.ErrNotFound)
			})
		})
	})
}
