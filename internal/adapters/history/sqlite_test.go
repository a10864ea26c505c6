package history_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jeffweisbein/roon-wrapped-sub000/internal/adapters/history"
	"github.com/jeffweisbein/roon-wrapped-sub000/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSQLiteSource(t *testing.T) {
	Convey("Given a fresh history database", t, func() {
		path := filepath.Join(t.TempDir(), "history.db")
		src, err := history.Open(path)
		So(err, ShouldBeNil)
		defer src.Close()
		ctx := context.Background()

		Convey("When nothing has been imported", func() {
			events, err := src.Events(ctx)

			Convey("Then the corpus is empty", func() {
				So(err, ShouldBeNil)
				So(len(events), ShouldEqual, 0)

				n, err := src.Count(ctx)
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 0)
			})
		})

		Convey("When plays are appended and read back", func() {
			in := []model.PlayEvent{
				{Artist: "Stereolab", Album: "Dots and Loops", Title: "Brakhage", Timestamp: 1_700_000_000_000, Duration: 363},
				{Artist: "Broadcast", Album: "", Title: "Come On Let's Go", Timestamp: 1_700_086_400_000},
			}
			So(src.Append(ctx, in), ShouldBeNil)

			events, err := src.Events(ctx)

			Convey("Then every row comes back as a play event", func() {
				So(err, ShouldBeNil)
				So(len(events), ShouldEqual, 2)

				byArtist := map[string]model.PlayEvent{}
				for _, e := range events {
					byArtist[e.Artist] = e
				}
				So(byArtist["Stereolab"].Album, ShouldEqual, "Dots and Loops")
				So(byArtist["Stereolab"].Duration, ShouldEqual, 363)
				So(byArtist["Broadcast"].Album, ShouldEqual, "")
				So(byArtist["Broadcast"].Timestamp, ShouldEqual, 1_700_086_400_000)
			})

			Convey("And reopening the same file sees the same plays", func() {
				So(src.Close(), ShouldBeNil)

				reopened, err := history.Open(path)
				So(err, ShouldBeNil)
				defer reopened.Close()

				n, err := reopened.Count(ctx)
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 2)
			})
		})
	})
}
