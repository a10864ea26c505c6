package logger_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/jeffweisbein/roon-wrapped-sub000/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLogger(t *testing.T) {
	Convey("Given an initialized logger writing to a buffer", t, func() {
		var buf bytes.Buffer
		err := logger.Init(logger.WithWriter(&buf))
		So(err, ShouldBeNil)

		Convey("When logging at info level", func() {
			logger.Get().Info(context.Background(), "play recorded",
				logger.String("artist", "Khruangbin"),
				logger.Int("total_plays", 12),
			)

			Convey("Then the entry carries message and fields", func() {
				out := buf.String()
				So(out, ShouldContainSubstring, "play recorded")
				So(out, ShouldContainSubstring, "Khruangbin")
				So(out, ShouldContainSubstring, "total_plays=12")
			})
		})

		Convey("When logging at debug level with default config", func() {
			logger.Get().Debug(context.Background(), "hidden")

			Convey("Then the entry is suppressed", func() {
				So(buf.String(), ShouldNotContainSubstring, "hidden")
			})
		})

		Convey("When the level is lowered to debug", func() {
			So(logger.SetLevelString("debug"), ShouldBeNil)
			logger.Get().Debug(context.Background(), "now visible")

			So(buf.String(), ShouldContainSubstring, "now visible")
			So(logger.SetLevelString("info"), ShouldBeNil)
		})

		Convey("When using a named sub-logger", func() {
			logger.Named("batch").Info(context.Background(), "done", logger.Int("events", 3))

			So(strings.Contains(buf.String(), "batch"), ShouldBeTrue)
		})

		Convey("When setting an unknown level", func() {
			So(logger.SetLevelString("loud"), ShouldNotBeNil)
		})
	})
}
