package query_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jeffweisbein/roon-wrapped-sub000/internal/domain/query"
	"github.com/jeffweisbein/roon-wrapped-sub000/internal/domain/tracker"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLeaderboard(t *testing.T) {
	Convey("Given a store with 45 artists", t, func() {
		store := tracker.NewMemStore()
		// Artist ii gets ii+1 plays on day 0; several share counts to
		// exercise the name tie-break.
		for i := 0; i < 45; i++ {
			count := i + 1
			if i >= 40 {
				count = 7 // five-way tie
			}
			burst(store, fmt.Sprintf("Artist %02d", i), "", 0, count)
		}
		engine := query.New(store, query.WithNow(pinnedNow))
		ctx := context.Background()

		Convey("When paging totalPlays in steps of 20", func() {
			p0, err := engine.Leaderboard(ctx, query.MetricTotalPlays, 20, 0)
			So(err, ShouldBeNil)
			p1, err := engine.Leaderboard(ctx, query.MetricTotalPlays, 20, 20)
			So(err, ShouldBeNil)
			p2, err := engine.Leaderboard(ctx, query.MetricTotalPlays, 20, 40)
			So(err, ShouldBeNil)

			full, err := engine.Leaderboard(ctx, query.MetricTotalPlays, 45, 0)
			So(err, ShouldBeNil)

			Convey("Then concatenated pages reproduce the full ordering exactly", func() {
				So(p0.Total, ShouldEqual, 45)
				So(len(p0.Artists), ShouldEqual, 20)
				So(len(p1.Artists), ShouldEqual, 20)
				So(len(p2.Artists), ShouldEqual, 5)

				var joined []query.ArtistEntry
				joined = append(joined, p0.Artists...)
				joined = append(joined, p1.Artists...)
				joined = append(joined, p2.Artists...)
				So(len(joined), ShouldEqual, 45)
				for i := range joined {
					So(joined[i].Artist, ShouldEqual, full.Artists[i].Artist)
					So(joined[i].Rank, ShouldEqual, i+1)
				}
			})

			Convey("Then no artist appears on two pages", func() {
				seen := map[string]bool{}
				for _, page := range []*query.Page{p0, p1, p2} {
					for _, a := range page.Artists {
						So(seen[a.Artist], ShouldBeFalse)
						seen[a.Artist] = true
					}
				}
			})

			Convey("Then tied artists order by name ascending", func() {
				// The five 7-play artists tie with Artist 06 (7 plays).
				var tied []string
				for _, a := range full.Artists {
					if a.TotalPlays == 7 {
						tied = append(tied, a.Artist)
					}
				}
				So(len(tied), ShouldEqual, 6)
				for i := 1; i < len(tied); i++ {
					So(tied[i], ShouldBeGreaterThan, tied[i-1])
				}
			})
		})

		Convey("When paging fastestToFifty", func() {
			// Give two artists a 50-play history at different speeds.
			burst(store, "Sprinter", "", 0, 50)
			for d := int64(0); d < 50; d++ {
				seed(store, "Marathoner", "", d)
			}

			page, err := engine.Leaderboard(ctx, query.MetricFastestToFifty, 10, 0)
			So(err, ShouldBeNil)

			Convey("Then artists that reached 50 lead, ascending by days", func() {
				So(page.Artists[0].Artist, ShouldEqual, "Sprinter")
				So(page.Artists[1].Artist, ShouldEqual, "Marathoner")
				So(page.Artists[2].DaysToFifty, ShouldBeNil)
			})
		})

		Convey("When the metric is unknown", func() {
			_, err := engine.Leaderboard(ctx, "vibes", 10, 0)
			So(errors.Is(err, query.ErrUnknownMetric), ShouldBeTrue)
		})

		Convey("When the page parameters are invalid", func() {
			_, err := engine.Leaderboard(ctx, query.MetricTotalPlays, 0, 0)
			So(errors.Is(err, query.ErrInvalidPage), ShouldBeTrue)
			_, err = engine.Leaderboard(ctx, query.MetricTotalPlays, 10, -1)
			So(errors.Is(err, query.ErrInvalidPage), ShouldBeTrue)
		})

		Convey("When the offset runs past the end", func() {
			page, err := engine.Leaderboard(ctx, query.MetricTotalPlays, 20, 400)
			So(err, ShouldBeNil)
			So(page.Artists, ShouldBeEmpty)
			So(page.Total, ShouldEqual, 45)
		})
	})
}
