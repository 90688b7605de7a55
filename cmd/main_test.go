package main

import (
	"context"
	"os"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	app "github.com/kyoden/utagoe/internal/app"
	"github.com/kyoden/utagoe/internal/config"
	"github.com/kyoden/utagoe/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When testing configuration loading", func() {
			_ = os.Setenv("UTAGOE_ADDR", ":8090")
			_ = os.Setenv("UTAGOE_WORKER_COUNT", "4")
			_ = os.Setenv("UTAGOE_CHANNEL_SECRET", "secret")
			defer func() {
				_ = os.Unsetenv("UTAGOE_ADDR")
				_ = os.Unsetenv("UTAGOE_WORKER_COUNT")
				_ = os.Unsetenv("UTAGOE_CHANNEL_SECRET")
			}()

			convey.Convey("Then configuration should be loadable", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8090")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 4)
			})
		})

		convey.Convey("When testing service creation", func() {
			convey.Convey("Then service should be creatable from defaults", func() {
				svc := app.New(config.New())
				convey.So(svc, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When testing system metrics updates", func() {
			convey.Convey("Then the updater should not panic", func() {
				convey.So(updateSystemMetrics, convey.ShouldNotPanic)
			})
		})
	})
}
