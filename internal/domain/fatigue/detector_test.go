package fatigue_test

import (
	"context"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/sociometry/pulse/internal/adapters/repository"
	"github.com/sociometry/pulse/internal/domain/fatigue"
	"github.com/sociometry/pulse/internal/domain/model"
)

// fakeHistory serves a canned daily series regardless of the query range.
type fakeHistory struct {
	values []float64
	err    error
}

func (f *fakeHistory) AggregatedByPeriod(_ context.Context, _, _, _ string, start, _ time.Time, _ string) ([]fatigue.SeriesPoint, error) {
	if f.err != nil {
		return nil, f.err
	}
	points := make([]fatigue.SeriesPoint, len(f.values))
	for i, v := range f.values {
		points[i] = fatigue.SeriesPoint{Period: start.AddDate(0, 0, i), Value: v}
	}
	return points, nil
}

func decliningValues(n int) []float64 {
	values := make([]float64, n)
	for i := range values {
		values[i] = 200 - float64(i)*10
	}
	return values
}

func TestDetectCreativeFatigue(t *testing.T) {
	ctx := context.Background()

	Convey("Given a detector over a declining history", t, func() {
		store := repository.NewMemStore()
		history := &fakeHistory{values: decliningValues(14)}
		detector := fatigue.NewDetector(history, store)

		Convey("When detecting fatigue for a content", func() {
			result, err := detector.DetectCreativeFatigue(ctx, "content-1", "tiktok")

			Convey("Then a new record is created with the declining trend", func() {
				So(err, ShouldBeNil)
				So(result.Created, ShouldBeTrue)
				So(result.Record.ID, ShouldNotBeEmpty)
				So(result.Record.ContentID, ShouldEqual, "content-1")
				So(result.Record.PlatformID, ShouldEqual, "tiktok")
				So(result.Record.PerformanceTrend, ShouldEqual, model.TrendDeclining)
				So(result.Record.FatigueScore, ShouldBeGreaterThan, 0)
				So(result.Confidence, ShouldBeBetween, 0, 100)
				So(len(result.Record.Metrics), ShouldEqual, 14)
			})
		})

		Convey("When detecting twice within the dedup window", func() {
			first, err1 := detector.DetectCreativeFatigue(ctx, "content-1", "tiktok")
			second, err2 := detector.DetectCreativeFatigue(ctx, "content-1", "tiktok")

			Convey("Then the second detection updates the existing record", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(first.Created, ShouldBeTrue)
				So(second.Created, ShouldBeFalse)
				So(second.Record.ID, ShouldEqual, first.Record.ID)
				So(store.Count(ctx), ShouldEqual, 1)
			})
		})

		Convey("When the second detection happens after the dedup window", func() {
			clock := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
			shifting := fatigue.NewDetector(history, store, fatigue.WithClock(func() time.Time {
				return clock
			}))

			first, err1 := shifting.DetectCreativeFatigue(ctx, "content-2", "tiktok")
			clock = clock.Add(25 * time.Hour)
			second, err2 := shifting.DetectCreativeFatigue(ctx, "content-2", "tiktok")

			Convey("Then a second record is created", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(first.Created, ShouldBeTrue)
				So(second.Created, ShouldBeTrue)
				So(second.Record.ID, ShouldNotEqual, first.Record.ID)

				records, err := store.History(ctx, "content-2", "tiktok")
				So(err, ShouldBeNil)
				So(len(records), ShouldEqual, 2)
			})
		})

		Convey("When an operator action was taken before a re-detection", func() {
			first, err := detector.DetectCreativeFatigue(ctx, "content-3", "instagram")
			So(err, ShouldBeNil)

			_, err = store.MarkActionTaken(ctx, first.Record.ID, model.ActionRefreshed)
			So(err, ShouldBeNil)

			second, err := detector.DetectCreativeFatigue(ctx, "content-3", "instagram")

			Convey("Then the in-place update preserves the action", func() {
				So(err, ShouldBeNil)
				So(second.Record.ID, ShouldEqual, first.Record.ID)
				So(second.Record.ActionTaken, ShouldEqual, model.ActionRefreshed)
			})
		})

		Convey("When detecting the same content on two platforms", func() {
			_, err1 := detector.DetectCreativeFatigue(ctx, "content-4", "tiktok")
			_, err2 := detector.DetectCreativeFatigue(ctx, "content-4", "youtube")

			Convey("Then the records are independent", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(store.Count(ctx), ShouldEqual, 2)
			})
		})
	})

	Convey("Given a detector over too little history", t, func() {
		store := repository.NewMemStore()
		detector := fatigue.NewDetector(&fakeHistory{values: decliningValues(6)}, store)

		Convey("When detecting fatigue", func() {
			_, err := detector.DetectCreativeFatigue(ctx, "content-1", "tiktok")

			Convey("Then it fails with ErrInsufficientData and stores nothing", func() {
				So(err, ShouldWrap, fatigue.ErrInsufficientData)
				So(store.Count(ctx), ShouldEqual, 0)
			})
		})
	})

	Convey("Given a flat healthy history", t, func() {
		store := repository.NewMemStore()
		values := make([]float64, 14)
		for i := range values {
			values[i] = 5.0
		}
		detector := fatigue.NewDetector(&fakeHistory{values: values}, store)

		Convey("When detecting fatigue", func() {
			result, err := detector.DetectCreativeFatigue(ctx, "content-1", "tiktok")

			Convey("Then the content scores zero and continues", func() {
				So(err, ShouldBeNil)
				So(result.Record.FatigueScore, ShouldEqual, 0)
				So(result.Record.PerformanceTrend, ShouldEqual, model.TrendStable)
				So(result.Record.Recommendation, ShouldEqual, model.RecommendContinue)
			})
		})
	})
}
