package config_test

import (
	"runtime"
	"testing"

	"github.com/kyoden/utagoe/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
			convey.So(cfg.ScoreEvalCount, convey.ShouldEqual, 30)
			convey.So(cfg.EMAAlpha, convey.ShouldEqual, 0.1)
			convey.So(cfg.TrendAlgorithm, convey.ShouldEqual, config.TrendAverage)
			convey.So(cfg.MinScoresForRating, convey.ShouldEqual, 5)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.ArtistLookupRetries, convey.ShouldEqual, 3)
		})
	})
}
