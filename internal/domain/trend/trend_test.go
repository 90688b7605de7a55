package trend_test

import (
	"testing"

	"github.com/kyoden/utagoe/internal/domain/trend"
	. "github.com/smartystreets/goconvey/convey"
)

func TestEMA(t *testing.T) {
	Convey("Given an EMA estimator", t, func() {
		ema := trend.NewEMA()

		Convey("When estimating an empty history", func() {
			_, ok := ema.Estimate(nil)

			Convey("Then no value is produced", func() {
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When estimating a singleton history", func() {
			value, ok := ema.Estimate([]float64{87.345})

			Convey("Then the value is the score itself", func() {
				So(ok, ShouldBeTrue)
				So(value, ShouldEqual, 87.345)
			})
		})

		Convey("When estimating a constant sequence", func() {
			value, ok := ema.Estimate([]float64{85, 85, 85, 85, 85, 85, 85, 85})

			Convey("Then the value equals the constant", func() {
				So(ok, ShouldBeTrue)
				So(value, ShouldEqual, 85)
			})
		})

		Convey("When estimating an increasing sequence", func() {
			// seed 80, then 0.1*90 + 0.9*80 = 81
			value, ok := ema.Estimate([]float64{80, 90})

			Convey("Then recent scores are weighted by alpha", func() {
				So(ok, ShouldBeTrue)
				So(value, ShouldEqual, 81)
			})
		})

		Convey("When a custom alpha is configured", func() {
			heavy := trend.NewEMA(trend.WithAlpha(0.5))
			value, ok := heavy.Estimate([]float64{80, 90})

			Convey("Then the configured alpha is applied", func() {
				So(ok, ShouldBeTrue)
				So(value, ShouldEqual, 85)
			})
		})
	})
}

func TestWMA(t *testing.T) {
	Convey("Given a WMA estimator", t, func() {
		wma := trend.NewWMA()

		Convey("When estimating an empty history", func() {
			_, ok := wma.Estimate(nil)

			Convey("Then no value is produced", func() {
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When estimating a short history", func() {
			// (80*1 + 90*2) / 3 = 86.667
			value, ok := wma.Estimate([]float64{80, 90})

			Convey("Then recent scores get higher weights", func() {
				So(ok, ShouldBeTrue)
				So(value, ShouldEqual, 86.667)
			})
		})

		Convey("When the history exceeds the window", func() {
			long := make([]float64, 40)
			for i := range long {
				long[i] = float64(60 + i)
			}

			full, ok := wma.Estimate(long)
			So(ok, ShouldBeTrue)

			recent, ok := wma.Estimate(long[10:])
			So(ok, ShouldBeTrue)

			Convey("Then only the most recent 30 scores matter", func() {
				So(full, ShouldEqual, recent)
			})
		})
	})
}

func TestAverage(t *testing.T) {
	Convey("Given a plain-average estimator", t, func() {
		avg := trend.NewAverage()

		Convey("When estimating an empty history", func() {
			_, ok := avg.Estimate(nil)

			Convey("Then no value is produced", func() {
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When estimating a short history", func() {
			value, ok := avg.Estimate([]float64{80, 90, 85})

			Convey("Then the mean is returned", func() {
				So(ok, ShouldBeTrue)
				So(value, ShouldEqual, 85)
			})
		})

		Convey("When the history exceeds the window", func() {
			long := make([]float64, 35)
			for i := range long {
				long[i] = 50
			}
			// The most recent 30 are all 90.
			for i := 5; i < 35; i++ {
				long[i] = 90
			}

			value, ok := avg.Estimate(long)

			Convey("Then only the most recent window is averaged", func() {
				So(ok, ShouldBeTrue)
				So(value, ShouldEqual, 90)
			})
		})

		Convey("When the mean has a long fraction", func() {
			value, ok := avg.Estimate([]float64{92.171, 92.172, 92.172})

			Convey("Then it is rounded to 3 decimals", func() {
				So(ok, ShouldBeTrue)
				So(value, ShouldEqual, 92.172)
			})
		})
	})
}
