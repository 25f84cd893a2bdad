package service_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	service "github.com/sociometry/pulse/internal/app"
	"github.com/sociometry/pulse/internal/domain/model"
)

func submitted(j *service.Journal, id string) {
	j.JobSubmitted(model.Job{ID: id, Type: model.JobDetectFatigue})
}

func TestJournal(t *testing.T) {
	Convey("Given a fresh journal", t, func() {
		journal := service.NewJournal(100, 3)

		Convey("When a job is submitted", func() {
			submitted(journal, "j1")

			Convey("Then it is tracked as queued", func() {
				rec, ok := journal.Get("j1")
				So(ok, ShouldBeTrue)
				So(rec.State, ShouldEqual, model.JobQueued)
				So(rec.MaxAttempts, ShouldEqual, 3)
				So(rec.SubmittedAt.IsZero(), ShouldBeFalse)
			})
		})

		Convey("When a job runs to completion", func() {
			submitted(journal, "j1")
			journal.JobStarted("j1", 1)
			journal.JobCompleted("j1", "payload", 120*time.Millisecond)

			Convey("Then the record carries the outcome", func() {
				rec, _ := journal.Get("j1")
				So(rec.State, ShouldEqual, model.JobCompleted)
				So(rec.Attempts, ShouldEqual, 1)
				So(rec.Result, ShouldEqual, "payload")
				So(rec.Duration, ShouldEqual, 120*time.Millisecond)
				So(rec.LastError, ShouldBeEmpty)
				So(rec.FinishedAt.IsZero(), ShouldBeFalse)
			})
		})

		Convey("When a job is retried and then fails", func() {
			submitted(journal, "j1")
			journal.JobStarted("j1", 1)
			journal.JobRetried("j1", 2, errors.New("upstream down"), time.Second)

			Convey("Then a retried job is queued again with its last error", func() {
				rec, _ := journal.Get("j1")
				So(rec.State, ShouldEqual, model.JobQueued)
				So(rec.LastError, ShouldEqual, "upstream down")
			})

			journal.JobStarted("j1", 2)
			journal.JobFailed("j1", errors.New("upstream still down"), 50*time.Millisecond)

			Convey("Then the terminal failure keeps the error inspectable", func() {
				rec, _ := journal.Get("j1")
				So(rec.State, ShouldEqual, model.JobFailed)
				So(rec.Attempts, ShouldEqual, 2)
				So(rec.LastError, ShouldEqual, "upstream still down")
			})
		})

		Convey("When asking for an unknown job", func() {
			_, ok := journal.Get("missing")

			Convey("Then it is not found", func() {
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When transitions arrive for an evicted job", func() {
			journal.JobStarted("missing", 1)
			journal.JobCompleted("missing", nil, time.Millisecond)

			Convey("Then they are ignored", func() {
				So(journal.Len(), ShouldEqual, 0)
			})
		})
	})

	Convey("Given a journal with several jobs", t, func() {
		journal := service.NewJournal(100, 3)
		for i := 1; i <= 5; i++ {
			submitted(journal, fmt.Sprintf("j%d", i))
		}
		journal.JobStarted("j2", 1)
		journal.JobCompleted("j2", nil, time.Millisecond)
		journal.JobStarted("j4", 1)
		journal.JobFailed("j4", errors.New("boom"), time.Millisecond)

		Convey("When listing without a filter", func() {
			records := journal.List("", 0)

			Convey("Then all jobs come back newest first", func() {
				So(len(records), ShouldEqual, 5)
				So(records[0].ID, ShouldEqual, "j5")
				So(records[4].ID, ShouldEqual, "j1")
			})
		})

		Convey("When listing by state", func() {
			queued := journal.List(model.JobQueued, 0)
			failed := journal.List(model.JobFailed, 0)

			Convey("Then only matching jobs are returned", func() {
				So(len(queued), ShouldEqual, 3)
				So(len(failed), ShouldEqual, 1)
				So(failed[0].ID, ShouldEqual, "j4")
			})
		})

		Convey("When listing with a limit", func() {
			records := journal.List("", 2)

			Convey("Then the list is capped", func() {
				So(len(records), ShouldEqual, 2)
				So(records[0].ID, ShouldEqual, "j5")
			})
		})
	})

	Convey("Given a journal bounded to two records", t, func() {
		journal := service.NewJournal(2, 3)

		Convey("When a third job is submitted", func() {
			submitted(journal, "j1")
			submitted(journal, "j2")
			submitted(journal, "j3")

			Convey("Then the oldest record is evicted", func() {
				So(journal.Len(), ShouldEqual, 2)
				_, ok := journal.Get("j1")
				So(ok, ShouldBeFalse)
				_, ok = journal.Get("j3")
				So(ok, ShouldBeTrue)
			})
		})
	})
}
