package config_test

import (
	"context"
	"testing"

	"github.com/jeffweisbein/roon-wrapped-sub000/internal/config"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLoad(t *testing.T) {
	Convey("Given a clean environment", t, func() {
		Convey("When loading with no overrides", func() {
			cfg, err := config.Load(context.Background())

			Convey("Then defaults apply", func() {
				So(err, ShouldBeNil)
				So(cfg.Addr, ShouldEqual, ":9080")
				So(cfg.QueueSize, ShouldEqual, 10_000)
				So(cfg.PersistenceBackend, ShouldEqual, "file")
				So(cfg.PersistQuietPeriodMS, ShouldEqual, 5_000)
			})
		})

		Convey("When environment variables override defaults", func() {
			t.Setenv("MILESTONES_ADDR", ":7070")
			t.Setenv("MILESTONES_QUEUE_SIZE", "123")
			t.Setenv("MILESTONES_LOG_LEVEL", "debug")

			cfg, err := config.Load(context.Background())

			So(err, ShouldBeNil)
			So(cfg.Addr, ShouldEqual, ":7070")
			So(cfg.QueueSize, ShouldEqual, 123)
			So(cfg.LogLevel, ShouldEqual, "debug")
		})

		Convey("When the persistence backend is unknown", func() {
			t.Setenv("MILESTONES_PERSISTENCE_BACKEND", "carrier-pigeon")

			_, err := config.Load(context.Background())

			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "persistence_backend")
		})

		Convey("When the redis backend has no address", func() {
			t.Setenv("MILESTONES_PERSISTENCE_BACKEND", "redis")

			_, err := config.Load(context.Background())

			So(err, ShouldNotBeNil)
		})
	})
}
