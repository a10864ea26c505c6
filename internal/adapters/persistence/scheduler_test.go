package persistence_test

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jeffweisbein/roon-wrapped-sub000/internal/adapters/persistence"
	"github.com/jeffweisbein/roon-wrapped-sub000/internal/domain/model"
	"github.com/jeffweisbein/roon-wrapped-sub000/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	if err := logger.Init(logger.WithWriter(io.Discard)); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// fakeClock hands out timers that only fire when the test says so.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	mu      sync.Mutex
	fn      func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	was := !t.stopped
	t.stopped = true
	return was
}

func (t *fakeTimer) fire() {
	t.mu.Lock()
	stopped := t.stopped
	t.stopped = true
	t.mu.Unlock()
	if !stopped {
		t.fn()
	}
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1_700_000_000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(_ time.Duration, f func()) persistence.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{fn: f}
	c.timers = append(c.timers, t)
	return t
}

// elapse fires every pending timer, as if the quiet period passed.
func (c *fakeClock) elapse() {
	c.mu.Lock()
	pending := c.timers
	c.timers = nil
	c.now = c.now.Add(time.Minute)
	c.mu.Unlock()
	for _, t := range pending {
		t.fire()
	}
}

// fakeGateway records saves and can be told to fail.
type fakeGateway struct {
	mu    sync.Mutex
	saves []*persistence.Snapshot
	fail  error
}

func (g *fakeGateway) Save(_ context.Context, snap *persistence.Snapshot) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fail != nil {
		return g.fail
	}
	g.saves = append(g.saves, snap)
	return nil
}

func (g *fakeGateway) Load(context.Context) (*persistence.Snapshot, error) {
	return nil, persistence.ErrNoSnapshot
}

func (g *fakeGateway) Close() error { return nil }

func (g *fakeGateway) saveCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.saves)
}

func (g *fakeGateway) lastSave() *persistence.Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.saves) == 0 {
		return nil
	}
	return g.saves[len(g.saves)-1]
}

func (g *fakeGateway) setFail(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fail = err
}

func TestWriteSchedulerCoalescing(t *testing.T) {
	Convey("Given a scheduler on a virtual clock", t, func() {
		clock := newFakeClock()
		gw := &fakeGateway{}
		version := 0
		snapshot := func() *persistence.Snapshot {
			return &persistence.Snapshot{SavedAt: int64(version)}
		}
		sched := persistence.NewWriteScheduler(gw, snapshot,
			persistence.WithSchedulerClock(clock),
			persistence.WithQuietPeriod(5*time.Second),
			persistence.WithSaveAttempts(1),
		)

		Convey("When many writes land inside one quiet period", func() {
			for i := 0; i < 20; i++ {
				version++
				sched.Request()
			}
			clock.elapse()

			Convey("Then exactly one durable write happens, with the freshest state", func() {
				So(gw.saveCount(), ShouldEqual, 1)
				So(gw.lastSave().SavedAt, ShouldEqual, 20)
			})
		})

		Convey("When the quiet period passes with no pending changes", func() {
			sched.Request()
			clock.elapse()
			clock.elapse()

			Convey("Then no second write happens", func() {
				So(gw.saveCount(), ShouldEqual, 1)
			})
		})

		Convey("When a second burst arrives after a flush", func() {
			version++
			sched.Request()
			clock.elapse()
			version++
			sched.Request()
			clock.elapse()

			Convey("Then each burst produces its own write", func() {
				So(gw.saveCount(), ShouldEqual, 2)
				So(gw.lastSave().SavedAt, ShouldEqual, 2)
			})
		})
	})
}

func TestWriteSchedulerRetryAfterFailure(t *testing.T) {
	Convey("Given a scheduler whose gateway is failing", t, func() {
		clock := newFakeClock()
		gw := &fakeGateway{}
		gw.setFail(errors.New("disk full"))
		snapshot := func() *persistence.Snapshot { return &persistence.Snapshot{SavedAt: 7} }
		sched := persistence.NewWriteScheduler(gw, snapshot,
			persistence.WithSchedulerClock(clock),
			persistence.WithSaveAttempts(1),
		)

		Convey("When the quiet period fires into the failure", func() {
			sched.Request()
			clock.elapse()

			Convey("Then nothing is written and a retry window is armed", func() {
				So(gw.saveCount(), ShouldEqual, 0)

				Convey("And the retry succeeds once the gateway recovers", func() {
					gw.setFail(nil)
					clock.elapse()
					So(gw.saveCount(), ShouldEqual, 1)
					So(gw.lastSave().SavedAt, ShouldEqual, 7)
				})
			})
		})
	})
}

func TestWriteSchedulerFlushAndClose(t *testing.T) {
	Convey("Given a scheduler with a pending write", t, func() {
		clock := newFakeClock()
		gw := &fakeGateway{}
		snapshot := func() *persistence.Snapshot { return &persistence.Snapshot{SavedAt: 1} }
		sched := persistence.NewWriteScheduler(gw, snapshot,
			persistence.WithSchedulerClock(clock),
			persistence.WithSaveAttempts(1),
		)
		sched.Request()

		Convey("When Flush is called before the quiet period elapses", func() {
			err := sched.Flush(context.Background())

			Convey("Then the write happens synchronously, once", func() {
				So(err, ShouldBeNil)
				So(gw.saveCount(), ShouldEqual, 1)

				// The canceled timer firing later must not double-write,
				// and a clean flush is a no-op.
				clock.elapse()
				So(sched.Flush(context.Background()), ShouldBeNil)
				So(gw.saveCount(), ShouldEqual, 1)
			})
		})

		Convey("When the scheduler is closed", func() {
			err := sched.Close(context.Background())

			Convey("Then pending state is flushed and later requests are ignored", func() {
				So(err, ShouldBeNil)
				So(gw.saveCount(), ShouldEqual, 1)

				sched.Request()
				clock.elapse()
				So(gw.saveCount(), ShouldEqual, 1)
			})
		})

		Convey("When Flush fails", func() {
			gw.setFail(errors.New("backend gone"))
			err := sched.Flush(context.Background())

			Convey("Then the error surfaces and the state stays flushable", func() {
				So(err, ShouldNotBeNil)
				gw.setFail(nil)
				So(sched.Flush(context.Background()), ShouldBeNil)
				So(gw.saveCount(), ShouldEqual, 1)
			})
		})
	})
}

func TestFileGatewayRoundTrip(t *testing.T) {
	Convey("Given a file gateway on an empty directory", t, func() {
		gw, err := persistence.NewFileGateway(t.TempDir())
		So(err, ShouldBeNil)
		ctx := context.Background()

		Convey("When loading before anything was saved", func() {
			_, err := gw.Load(ctx)

			Convey("Then it reports the empty-storage sentinel", func() {
				So(errors.Is(err, persistence.ErrNoSnapshot), ShouldBeTrue)
			})
		})

		Convey("When a snapshot is saved and loaded back", func() {
			days := int64(9)
			snap := &persistence.Snapshot{
				Progress: map[string]*model.ArtistProgress{
					"khruangbin": {
						Name:            "Khruangbin",
						FirstListenDate: 1_700_000_000_000,
						TotalPlays:      12,
						Albums: map[string]*model.AlbumProgress{
							"khruangbin::mordechai": {
								Title:      "Mordechai",
								TotalPlays: 12,
							},
						},
						Metrics: model.Metrics{DaysToTenPlays: &days, PlayRate: 10.0 / 9.0},
					},
				},
				Milestones: []model.MilestoneRecord{
					{ID: "m-1", Artist: "Khruangbin", Milestone: 10, DaysSinceFirstListen: 9},
				},
				SavedAt: 1_700_000_777_000,
			}
			So(gw.Save(ctx, snap), ShouldBeNil)

			got, err := gw.Load(ctx)

			Convey("Then the documents round-trip intact", func() {
				So(err, ShouldBeNil)
				So(got.SavedAt, ShouldEqual, snap.SavedAt)
				So(len(got.Progress), ShouldEqual, 1)

				p := got.Progress["khruangbin"]
				So(p, ShouldNotBeNil)
				So(p.Name, ShouldEqual, "Khruangbin")
				So(p.TotalPlays, ShouldEqual, 12)
				So(*p.Metrics.DaysToTenPlays, ShouldEqual, 9)
				So(p.Albums["khruangbin::mordechai"].Title, ShouldEqual, "Mordechai")

				So(len(got.Milestones), ShouldEqual, 1)
				So(got.Milestones[0].Milestone, ShouldEqual, 10)
			})

			Convey("And a later save replaces the previous snapshot", func() {
				So(gw.Save(ctx, &persistence.Snapshot{
					Progress: map[string]*model.ArtistProgress{},
					SavedAt:  1_700_000_999_000,
				}), ShouldBeNil)

				got, err := gw.Load(ctx)
				So(err, ShouldBeNil)
				So(got.SavedAt, ShouldEqual, 1_700_000_999_000)
				So(len(got.Progress), ShouldEqual, 0)
			})
		})
	})
}

func TestGatewayFactory(t *testing.T) {
	Convey("Given the backend factory", t, func() {
		ctx := context.Background()

		Convey("When asked for the file backend", func() {
			gw, err := persistence.NewGateway(ctx, persistence.FactoryConfig{
				Backend: persistence.BackendFile,
				DataDir: t.TempDir(),
			})

			Convey("Then a file gateway comes back", func() {
				So(err, ShouldBeNil)
				So(gw, ShouldHaveSameTypeAs, &persistence.FileGateway{})
			})
		})

		Convey("When the backend name is empty", func() {
			gw, err := persistence.NewGateway(ctx, persistence.FactoryConfig{DataDir: t.TempDir()})

			Convey("Then the file backend is the default", func() {
				So(err, ShouldBeNil)
				So(gw, ShouldHaveSameTypeAs, &persistence.FileGateway{})
			})
		})

		Convey("When the backend name is unknown", func() {
			_, err := persistence.NewGateway(ctx, persistence.FactoryConfig{Backend: "dynamo"})

			Convey("Then the unknown-backend sentinel surfaces", func() {
				So(errors.Is(err, persistence.ErrUnknownBackend), ShouldBeTrue)
			})
		})
	})
}
