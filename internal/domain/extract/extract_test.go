package extract_test

import (
	"testing"

	"github.com/kyoden/utagoe/internal/domain/extract"
	"github.com/kyoden/utagoe/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func box(x, y, w, h float64) []model.Point {
	return []model.Point{
		{X: x, Y: y},
		{X: x + w, Y: y},
		{X: x + w, Y: y + h},
		{X: x, Y: y + h},
	}
}

func fullPage(text string) model.Fragment {
	return model.Fragment{Text: text, Vertices: box(0, 0, 1000, 1000)}
}

func TestScore(t *testing.T) {
	Convey("Given OCR fragments of a scoring screen", t, func() {
		Convey("When a single score literal is present", func() {
			fragments := []model.Fragment{
				fullPage("92.170 点"),
				{Text: "92.170", Vertices: box(100, 100, 200, 80)},
				{Text: "点", Vertices: box(310, 100, 40, 40)},
			}

			score, ok := extract.Score(fragments)

			Convey("Then it should be returned", func() {
				So(ok, ShouldBeTrue)
				So(score, ShouldEqual, 92.170)
			})

			Convey("And repeated calls should return the identical candidate", func() {
				for i := 0; i < 5; i++ {
					again, okAgain := extract.Score(fragments)
					So(okAgain, ShouldBeTrue)
					So(again, ShouldEqual, score)
				}
			})
		})

		Convey("When two candidates have equal area but only one has a points neighbor", func() {
			fragments := []model.Fragment{
				fullPage("88.500 92.170 点"),
				{Text: "88.500", Vertices: box(0, 0, 100, 50)},
				{Text: "BONUS", Vertices: box(0, 60, 80, 20)},
				{Text: "bridge", Vertices: box(0, 90, 80, 20)},
				{Text: "filler", Vertices: box(0, 120, 80, 20)},
				{Text: "92.170", Vertices: box(200, 0, 100, 50)},
				{Text: "点", Vertices: box(310, 0, 30, 30)},
			}

			Convey("Then the labeled candidate wins regardless of input order", func() {
				score, ok := extract.Score(fragments)
				So(ok, ShouldBeTrue)
				So(score, ShouldEqual, 92.170)

				// Swap the two candidates; the labeled one must still win.
				swapped := []model.Fragment{
					fullPage("92.170 点 88.500"),
					{Text: "92.170", Vertices: box(200, 0, 100, 50)},
					{Text: "点", Vertices: box(310, 0, 30, 30)},
					{Text: "BONUS", Vertices: box(0, 60, 80, 20)},
					{Text: "bridge", Vertices: box(0, 90, 80, 20)},
					{Text: "filler", Vertices: box(0, 120, 80, 20)},
					{Text: "88.500", Vertices: box(0, 0, 100, 50)},
				}
				score, ok = extract.Score(swapped)
				So(ok, ShouldBeTrue)
				So(score, ShouldEqual, 92.170)
			})
		})

		Convey("When two unlabeled candidates differ only in area", func() {
			fragments := []model.Fragment{
				fullPage("88.500 92.170"),
				{Text: "88.500", Vertices: box(0, 0, 50, 20)},
				{Text: "filler-1", Vertices: box(0, 30, 10, 10)},
				{Text: "filler-2", Vertices: box(0, 50, 10, 10)},
				{Text: "filler-3", Vertices: box(0, 70, 10, 10)},
				{Text: "92.170", Vertices: box(200, 0, 300, 120)},
			}

			score, ok := extract.Score(fragments)

			Convey("Then the larger candidate wins", func() {
				So(ok, ShouldBeTrue)
				So(score, ShouldEqual, 92.170)
			})
		})

		Convey("When a candidate uses a comma decimal separator", func() {
			fragments := []model.Fragment{
				fullPage("90,499 点"),
				{Text: " 90,499 ", Vertices: box(0, 0, 100, 50)},
			}

			score, ok := extract.Score(fragments)

			Convey("Then it should be normalized and accepted", func() {
				So(ok, ShouldBeTrue)
				So(score, ShouldEqual, 90.499)
			})
		})

		Convey("When fragments contain no plausible score literal", func() {
			fragments := []model.Fragment{
				fullPage("カラオケ 採点 結果"),
				{Text: "カラオケ", Vertices: box(0, 0, 100, 50)},
				{Text: "1234", Vertices: box(0, 60, 100, 50)},
				{Text: "9.1.2", Vertices: box(0, 120, 100, 50)},
				{Text: "92.1700", Vertices: box(0, 180, 100, 50)},
			}

			_, ok := extract.Score(fragments)

			Convey("Then no candidate is returned", func() {
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When the fragment list holds only the full-page text", func() {
			fragments := []model.Fragment{fullPage("92.170")}

			_, ok := extract.Score(fragments)

			Convey("Then no candidate is returned", func() {
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When a candidate has a degenerate bounding region", func() {
			fragments := []model.Fragment{
				fullPage("88.500 92.170"),
				{Text: "92.170", Vertices: []model.Point{{X: 1, Y: 1}, {X: 1, Y: 1}}},
				{Text: "88.500", Vertices: box(0, 0, 10, 10)},
			}

			score, ok := extract.Score(fragments)

			Convey("Then it counts as zero area instead of failing", func() {
				So(ok, ShouldBeTrue)
				So(score, ShouldEqual, 88.500)
			})
		})
	})
}
