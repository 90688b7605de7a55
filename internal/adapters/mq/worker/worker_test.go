package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/kyoden/utagoe/internal/adapters/mq/queue"
	"github.com/kyoden/utagoe/internal/adapters/mq/worker"
	"github.com/kyoden/utagoe/internal/domain/model"
	"github.com/kyoden/utagoe/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

type fakeRegistrar struct {
	mu    sync.Mutex
	names []string
	err   error
}

func (f *fakeRegistrar) RegisterIfNeeded(_ context.Context, name string) (model.Artist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return model.Artist{}, f.err
	}
	f.names = append(f.names, name)
	return model.Artist{Name: name}, nil
}

func (f *fakeRegistrar) registered() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.names...)
}

func waitFor(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestWorkerRun(t *testing.T) {
	Convey("Given a worker on a live queue", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		q := queue.NewInMemoryQueue()
		reg := &fakeRegistrar{}
		w := worker.NewRegistrationWorker(q, reg, worker.WithName("test-worker"))
		go w.Run(ctx)

		Convey("When jobs are enqueued", func() {
			So(q.Enqueue(ctx, queue.Job{JobID: "j1", Name: "スピッツ"}), ShouldBeTrue)
			So(q.Enqueue(ctx, queue.Job{JobID: "j2", Name: "Aimer"}), ShouldBeTrue)

			Convey("Then the registrar sees each artist once", func() {
				So(waitFor(2*time.Second, func() bool {
					return len(reg.registered()) == 2
				}), ShouldBeTrue)
				So(reg.registered(), ShouldResemble, []string{"スピッツ", "Aimer"})
			})
		})

		Convey("When registration fails", func() {
			reg.err = errors.New("store offline")
			So(q.Enqueue(ctx, queue.Job{JobID: "j1", Name: "x"}), ShouldBeTrue)

			Convey("Then the worker keeps running for later jobs", func() {
				time.Sleep(50 * time.Millisecond)
				reg.mu.Lock()
				reg.err = nil
				reg.mu.Unlock()

				So(q.Enqueue(ctx, queue.Job{JobID: "j2", Name: "y"}), ShouldBeTrue)
				So(waitFor(2*time.Second, func() bool {
					return len(reg.registered()) == 1
				}), ShouldBeTrue)
			})
		})

		Convey("When the worker is shut down", func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second)
			defer shutdownCancel()

			Convey("Then it stops cleanly", func() {
				So(w.Shutdown(shutdownCtx), ShouldBeNil)
			})
		})
	})
}

func TestPool(t *testing.T) {
	Convey("Given a pool of workers", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		q := queue.NewInMemoryQueue()
		reg := &fakeRegistrar{}
		pool := worker.NewPool(4, q, reg)
		pool.Start(ctx)

		Convey("When a burst of jobs arrives", func() {
			names := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
			for i, n := range names {
				So(q.Enqueue(ctx, queue.Job{JobID: string(rune('0' + i)), Name: n}), ShouldBeTrue)
			}

			Convey("Then all jobs get processed", func() {
				So(waitFor(2*time.Second, func() bool {
					return len(reg.registered()) == len(names)
				}), ShouldBeTrue)
			})
		})

		Convey("When the pool is shut down", func() {
			So(q.Enqueue(ctx, queue.Job{JobID: "j1", Name: "last"}), ShouldBeTrue)

			Convey("Then queued jobs drain before workers stop", func() {
				So(pool.Shutdown(ctx), ShouldBeNil)
				So(reg.registered(), ShouldContain, "last")
				So(q.IsClosed(), ShouldBeTrue)
			})
		})
	})
}
