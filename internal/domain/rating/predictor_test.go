package rating_test

import (
	"testing"

	"github.com/kyoden/utagoe/internal/domain/rating"
	"github.com/kyoden/utagoe/internal/domain/trend"
	. "github.com/smartystreets/goconvey/convey"
)

func repeat(value float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = value
	}
	return out
}

func TestPredict(t *testing.T) {
	Convey("Given a predictor over the canonical window", t, func() {
		predictor := rating.NewPredictor()

		Convey("When the history is empty", func() {
			_, ok := predictor.Predict(nil)

			Convey("Then no prediction is produced, without error", func() {
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When the history holds a single score of 92.170", func() {
			result, ok := predictor.Predict([]float64{92.170})

			Convey("Then the current rating is SA", func() {
				So(ok, ShouldBeTrue)
				So(result.CurrentTrend, ShouldEqual, 92.170)
				So(result.CurrentRating, ShouldEqual, "SA")
			})

			Convey("And the promotion score solves the two-entry average", func() {
				// 95*2 - 92.17 = 97.83, within range so no clamping.
				So(result.NextUpScore, ShouldNotBeNil)
				So(*result.NextUpScore, ShouldEqual, 97.83)
			})

			Convey("And the demotion boundary is below the SA threshold", func() {
				// 90*2 - 92.17 = 87.83
				So(result.CanDowngrade, ShouldBeTrue)
				So(result.NextDownScore, ShouldNotBeNil)
				So(*result.NextDownScore, ShouldEqual, 87.83)
			})
		})

		Convey("When the history is 30 identical scores of 85.0", func() {
			result, ok := predictor.Predict(repeat(85, 30))

			Convey("Then the rating is S on a trend of 85", func() {
				So(ok, ShouldBeTrue)
				So(result.CurrentTrend, ShouldEqual, 85)
				So(result.CurrentRating, ShouldEqual, "S")
			})

			Convey("And the promotion score clamps to 100", func() {
				// 90*30 - 29*85 = 235, unreachable in one song.
				So(result.NextUpScore, ShouldNotBeNil)
				So(*result.NextUpScore, ShouldEqual, 100)
			})

			Convey("And the demotion boundary stays meaningful", func() {
				// 85*30 - 29*85 = 85
				So(result.CanDowngrade, ShouldBeTrue)
				So(result.NextDownScore, ShouldNotBeNil)
				So(*result.NextDownScore, ShouldEqual, 85)
			})
		})

		Convey("When the user is already at the top tier", func() {
			result, ok := predictor.Predict(repeat(100, 5))

			Convey("Then there is no promotion target", func() {
				So(ok, ShouldBeTrue)
				So(result.CurrentRating, ShouldEqual, "SS")
				So(result.NextUpScore, ShouldBeNil)
			})

			Convey("And the demotion boundary still exists", func() {
				// 95*6 - 500 = 70
				So(result.CanDowngrade, ShouldBeTrue)
				So(result.NextDownScore, ShouldNotBeNil)
				So(*result.NextDownScore, ShouldEqual, 70)
			})
		})

		Convey("When the user is at the bottom tier", func() {
			result, ok := predictor.Predict(repeat(50, 3))

			Convey("Then there is no demotion boundary", func() {
				So(ok, ShouldBeTrue)
				So(result.CurrentRating, ShouldEqual, "C")
				So(result.NextDownScore, ShouldBeNil)
				So(result.CanDowngrade, ShouldBeFalse)
			})

			Convey("And the promotion target is clamped into range", func() {
				// 70*4 - 150 = 130, clamped to 100.
				So(result.NextUpScore, ShouldNotBeNil)
				So(*result.NextUpScore, ShouldEqual, 100)
			})
		})

		Convey("When demotion is algebraically impossible", func() {
			// avg 79 -> B, boundary 70*6 - 395 = 25 still positive here
			result, ok := predictor.Predict(repeat(79, 5))
			So(ok, ShouldBeTrue)
			So(result.CurrentRating, ShouldEqual, "B")
			So(result.CanDowngrade, ShouldBeTrue)

			Convey("Then a non-positive boundary yields no warning", func() {
				// 29 scores of 79 average to B; boundary 70*30 - 29*79 = -191.
				result, ok := predictor.Predict(repeat(79, 29))
				So(ok, ShouldBeTrue)
				So(result.CurrentRating, ShouldEqual, "B")
				So(result.NextDownScore, ShouldBeNil)
				So(result.CanDowngrade, ShouldBeFalse)
			})
		})

		Convey("When more scores than the window are supplied", func() {
			history := append(repeat(60, 20), repeat(90, 30)...)

			result, ok := predictor.Predict(history)

			Convey("Then only the most recent window feeds the trend", func() {
				So(ok, ShouldBeTrue)
				So(result.CurrentTrend, ShouldEqual, 90)
				So(result.CurrentRating, ShouldEqual, "SA")
			})
		})
	})

	Convey("Given a predictor with a custom estimator and window", t, func() {
		predictor := rating.NewPredictor(
			rating.WithEvalCount(10),
			rating.WithEstimator(trend.NewWMA(trend.WithWindow(10))),
		)

		Convey("When predicting over a constant history", func() {
			result, ok := predictor.Predict(repeat(88, 10))

			Convey("Then the WMA of a constant equals the constant", func() {
				So(ok, ShouldBeTrue)
				So(result.CurrentTrend, ShouldEqual, 88)
				So(result.CurrentRating, ShouldEqual, "S")
			})
		})
	})
}
