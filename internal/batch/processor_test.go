package batch_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jeffweisbein/roon-wrapped-sub000/internal/adapters/persistence"
	"github.com/jeffweisbein/roon-wrapped-sub000/internal/batch"
	"github.com/jeffweisbein/roon-wrapped-sub000/internal/domain/model"
	"github.com/jeffweisbein/roon-wrapped-sub000/internal/domain/normalize"
	"github.com/jeffweisbein/roon-wrapped-sub000/internal/domain/tracker"
	"github.com/jeffweisbein/roon-wrapped-sub000/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	if err := logger.Init(logger.WithWriter(io.Discard)); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

const day = int64(86_400_000)

const base = int64(1_700_000_000_000)

// captureGateway records every snapshot it is asked to save.
type captureGateway struct {
	mu    sync.Mutex
	saves []*persistence.Snapshot
	fail  error
}

func (g *captureGateway) Save(_ context.Context, snap *persistence.Snapshot) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fail != nil {
		return g.fail
	}
	g.saves = append(g.saves, snap)
	return nil
}

func (g *captureGateway) Load(context.Context) (*persistence.Snapshot, error) {
	return nil, persistence.ErrNoSnapshot
}

func (g *captureGateway) Close() error { return nil }

// sequentialIDs makes milestone IDs deterministic so two rebuild runs can be
// compared record for record.
func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("m-%04d", n)
	}
}

// history builds a corpus: each artist plays once per day starting at base.
func history(plays map[string]int) []model.PlayEvent {
	var out []model.PlayEvent
	for artist, n := range plays {
		for i := 0; i < n; i++ {
			out = append(out, model.PlayEvent{
				Artist:    artist,
				Album:     "Self Titled",
				Title:     "track",
				Timestamp: base + int64(i)*day,
			})
		}
	}
	return out
}

func TestBatchRebuild(t *testing.T) {
	Convey("Given a historical corpus and a fresh pipeline", t, func() {
		ctx := context.Background()
		events := history(map[string]int{
			"Khruangbin":  60,
			"Nina Simone": 25,
			"Alvvays":     9,
		})

		Convey("When the corpus is replayed", func() {
			store := tracker.NewMemStore(tracker.WithIDGenerator(sequentialIDs()))
			gw := &captureGateway{}
			proc := batch.New(store, normalize.New(), gw)

			summary, err := proc.Process(ctx, events)

			Convey("Then the summary accounts for every event", func() {
				So(err, ShouldBeNil)
				So(summary.TracksProcessed, ShouldEqual, 94)
				So(summary.EventsSkipped, ShouldEqual, 0)
				So(summary.UniqueArtists, ShouldEqual, 3)
				// Khruangbin: artist 10, 25, 50 + album 10, 25, 50.
				// Nina Simone: artist 10, 25 + album 10, 25. Alvvays: none.
				So(summary.MilestonesRecorded, ShouldEqual, 10)
			})

			Convey("Then persistence happens exactly once, at the end", func() {
				So(err, ShouldBeNil)
				So(len(gw.saves), ShouldEqual, 1)
				So(len(gw.saves[0].Progress), ShouldEqual, 3)
				So(len(gw.saves[0].Milestones), ShouldEqual, 10)
			})
		})

		Convey("When the input arrives out of chronological order", func() {
			shuffled := make([]model.PlayEvent, len(events))
			copy(shuffled, events)
			rng := rand.New(rand.NewSource(42))
			rng.Shuffle(len(shuffled), func(i, j int) {
				shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
			})

			store := tracker.NewMemStore(tracker.WithIDGenerator(sequentialIDs()))
			_, err := batch.New(store, normalize.New(), &captureGateway{}).Process(ctx, shuffled)
			So(err, ShouldBeNil)

			Convey("Then day counts match the chronological replay", func() {
				p, ok := store.Get(ctx, normalize.Key("Khruangbin"))
				So(ok, ShouldBeTrue)
				So(p.FirstListenDate, ShouldEqual, base)
				So(*p.Metrics.DaysToTenPlays, ShouldEqual, 9)
				So(*p.Metrics.DaysToFiftyPlays, ShouldEqual, 49)
			})
		})

		Convey("When the same corpus is replayed twice", func() {
			frozen := func() time.Time { return time.UnixMilli(base) }
			run := func() (batch.Summary, map[string]*model.ArtistProgress, []model.MilestoneRecord) {
				store := tracker.NewMemStore(tracker.WithIDGenerator(sequentialIDs()))
				proc := batch.New(store, normalize.New(), &captureGateway{}, batch.WithClock(frozen))
				summary, err := proc.Process(ctx, events)
				So(err, ShouldBeNil)
				progress, milestones := store.Export(ctx)
				return summary, progress, milestones
			}
			first, progressA, milestonesA := run()
			second, progressB, milestonesB := run()

			Convey("Then both runs produce identical output", func() {
				So(second, ShouldResemble, first)
				So(progressB, ShouldResemble, progressA)
				So(milestonesB, ShouldResemble, milestonesA)
			})
		})

		Convey("When a run replays into a store that already has state", func() {
			store := tracker.NewMemStore(tracker.WithIDGenerator(sequentialIDs()))
			proc := batch.New(store, normalize.New(), &captureGateway{})

			first, err := proc.Process(ctx, events)
			So(err, ShouldBeNil)
			second, err := proc.Process(ctx, events)
			So(err, ShouldBeNil)

			Convey("Then the reset makes the rerun identical, not doubled", func() {
				So(second.TracksProcessed, ShouldEqual, first.TracksProcessed)
				So(second.MilestonesRecorded, ShouldEqual, first.MilestonesRecorded)
				So(second.UniqueArtists, ShouldEqual, first.UniqueArtists)
				So(len(store.Milestones(ctx)), ShouldEqual, first.MilestonesRecorded)
			})
		})

		Convey("When the corpus contains malformed events", func() {
			dirty := append([]model.PlayEvent{
				{Artist: "", Album: "x", Timestamp: base},
				{Artist: "Alvvays", Album: "x", Timestamp: 0},
			}, events...)

			store := tracker.NewMemStore(tracker.WithIDGenerator(sequentialIDs()))
			summary, err := batch.New(store, normalize.New(), &captureGateway{}).Process(ctx, dirty)

			Convey("Then they are skipped and counted, not fatal", func() {
				So(err, ShouldBeNil)
				So(summary.EventsSkipped, ShouldEqual, 2)
				So(summary.TracksProcessed, ShouldEqual, 94)
			})
		})

		Convey("When the final flush fails", func() {
			store := tracker.NewMemStore()
			gw := &captureGateway{fail: errors.New("redis down")}
			summary, err := batch.New(store, normalize.New(), gw).Process(ctx, events)

			Convey("Then the run reports failure alongside its counts", func() {
				So(err, ShouldNotBeNil)
				So(summary.TracksProcessed, ShouldEqual, 94)
			})
		})

		Convey("When the context is already canceled", func() {
			canceled, cancel := context.WithCancel(ctx)
			cancel()
			store := tracker.NewMemStore()
			_, err := batch.New(store, normalize.New(), &captureGateway{}).Process(canceled, events)

			Convey("Then the run aborts before touching the store", func() {
				So(err, ShouldNotBeNil)
				So(store.Count(ctx), ShouldEqual, 0)
			})
		})
	})
}
