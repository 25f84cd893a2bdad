package queue_test

import (
	"context"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/sociometry/pulse/internal/adapters/mq/queue"
	"github.com/sociometry/pulse/internal/domain/model"
)

func job(id string) queue.Job {
	return queue.Job{ID: id, Type: model.JobDetectFatigue}
}

func TestInMemoryQueue(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new in-memory queue", t, func() {
		Convey("When enqueuing within capacity", func() {
			q := queue.NewInMemoryQueue(queue.WithCapacity(4))

			ok := q.Enqueue(ctx, job("j1"))

			Convey("Then the job is accepted", func() {
				So(ok, ShouldBeTrue)
				So(q.Len(ctx), ShouldEqual, 1)
			})
		})

		Convey("When the queue is full", func() {
			q := queue.NewInMemoryQueue(queue.WithCapacity(2))
			So(q.Enqueue(ctx, job("j1")), ShouldBeTrue)
			So(q.Enqueue(ctx, job("j2")), ShouldBeTrue)

			ok := q.Enqueue(ctx, job("j3"))

			Convey("Then the enqueue is rejected instead of blocking", func() {
				So(ok, ShouldBeFalse)
				So(q.Len(ctx), ShouldEqual, 2)
			})
		})

		Convey("When dequeuing", func() {
			q := queue.NewInMemoryQueue(queue.WithCapacity(4))
			So(q.Enqueue(ctx, job("j1")), ShouldBeTrue)
			So(q.Enqueue(ctx, job("j2")), ShouldBeTrue)

			jobs := q.Dequeue(ctx)

			Convey("Then jobs arrive in FIFO order", func() {
				first := <-jobs
				second := <-jobs
				So(first.ID, ShouldEqual, "j1")
				So(second.ID, ShouldEqual, "j2")
			})
		})

		Convey("When enqueuing with a delay", func() {
			q := queue.NewInMemoryQueue(queue.WithCapacity(4))

			ok := q.EnqueueAfter(ctx, job("delayed"), 20*time.Millisecond)

			Convey("Then the job arrives after the delay", func() {
				So(ok, ShouldBeTrue)
				So(q.Len(ctx), ShouldEqual, 0)

				select {
				case j := <-q.Dequeue(ctx):
					So(j.ID, ShouldEqual, "delayed")
				case <-time.After(time.Second):
					So("timed out waiting for delayed job", ShouldBeEmpty)
				}
			})
		})

		Convey("When the queue is closed", func() {
			q := queue.NewInMemoryQueue(queue.WithCapacity(4))
			So(q.Enqueue(ctx, job("j1")), ShouldBeTrue)
			So(q.Close(), ShouldBeNil)

			Convey("Then new enqueues are rejected", func() {
				So(q.IsClosed(), ShouldBeTrue)
				So(q.Enqueue(ctx, job("j2")), ShouldBeFalse)
				So(q.EnqueueAfter(ctx, job("j3"), time.Millisecond), ShouldBeFalse)
			})

			Convey("Then the dequeue channel drains and closes", func() {
				jobs := q.Dequeue(ctx)

				j, open := <-jobs
				So(open, ShouldBeTrue)
				So(j.ID, ShouldEqual, "j1")

				_, open = <-jobs
				So(open, ShouldBeFalse)
			})

			Convey("Then closing again is a no-op", func() {
				So(q.Close(), ShouldBeNil)
			})
		})
	})
}
