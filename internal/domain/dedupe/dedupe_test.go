package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/sociometry/pulse/internal/domain/dedupe"
)

func TestInMemoryDeduper(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new in-memory deduper", t, func() {
		d := dedupe.NewInMemoryDeduper()

		Convey("When recording a new ID", func() {
			seen := d.SeenAndRecord(ctx, "job-1")

			Convey("Then it is reported as unseen and tracked", func() {
				So(seen, ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When recording the same ID twice", func() {
			So(d.SeenAndRecord(ctx, "job-1"), ShouldBeFalse)
			seen := d.SeenAndRecord(ctx, "job-1")

			Convey("Then the second call reports a duplicate", func() {
				So(seen, ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When unrecording an ID", func() {
			So(d.SeenAndRecord(ctx, "job-1"), ShouldBeFalse)
			d.Unrecord(ctx, "job-1")

			Convey("Then the ID can be recorded again", func() {
				So(d.Size(), ShouldEqual, 0)
				So(d.SeenAndRecord(ctx, "job-1"), ShouldBeFalse)
			})
		})
	})

	Convey("Given a deduper bounded to three IDs", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))

		Convey("When a fourth ID arrives", func() {
			for i := 1; i <= 4; i++ {
				So(d.SeenAndRecord(ctx, fmt.Sprintf("job-%d", i)), ShouldBeFalse)
			}

			Convey("Then the oldest ID was evicted", func() {
				So(d.Size(), ShouldEqual, 3)
				So(d.SeenAndRecord(ctx, "job-1"), ShouldBeFalse)
				So(d.SeenAndRecord(ctx, "job-4"), ShouldBeTrue)
			})
		})

		Convey("When an unrecorded ID occupies the oldest slot", func() {
			So(d.SeenAndRecord(ctx, "job-1"), ShouldBeFalse)
			So(d.SeenAndRecord(ctx, "job-2"), ShouldBeFalse)
			So(d.SeenAndRecord(ctx, "job-3"), ShouldBeFalse)
			d.Unrecord(ctx, "job-1")

			So(d.SeenAndRecord(ctx, "job-4"), ShouldBeFalse)
			So(d.SeenAndRecord(ctx, "job-5"), ShouldBeFalse)

			Convey("Then eviction skips the stale entry and drops the next oldest", func() {
				So(d.Size(), ShouldEqual, 3)
				So(d.SeenAndRecord(ctx, "job-3"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "job-2"), ShouldBeFalse)
			})
		})
	})

	Convey("Given concurrent submitters", t, func() {
		d := dedupe.NewInMemoryDeduper()

		Convey("When many goroutines record the same ID", func() {
			const goroutines = 32
			duplicates := make([]bool, goroutines)

			var wg sync.WaitGroup
			for i := 0; i < goroutines; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					duplicates[i] = d.SeenAndRecord(ctx, "contested")
				}(i)
			}
			wg.Wait()

			Convey("Then exactly one of them wins", func() {
				wins := 0
				for _, dup := range duplicates {
					if !dup {
						wins++
					}
				}
				So(wins, ShouldEqual, 1)
				So(d.Size(), ShouldEqual, 1)
			})
		})
	})
}
