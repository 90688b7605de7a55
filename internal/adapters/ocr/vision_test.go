package ocr

import (
	"testing"

	visionpb "cloud.google.com/go/vision/v2/apiv1/visionpb"
	. "github.com/smartystreets/goconvey/convey"
)

func TestFragmentsFromAnnotations(t *testing.T) {
	Convey("Given a text detection response", t, func() {
		annotations := []*visionpb.EntityAnnotation{
			{
				Description: "全文\n92.170 点",
				BoundingPoly: &visionpb.BoundingPoly{Vertices: []*visionpb.Vertex{
					{X: 0, Y: 0}, {X: 1080, Y: 0}, {X: 1080, Y: 1920}, {X: 0, Y: 1920},
				}},
			},
			nil,
			{
				Description: "92.170",
				BoundingPoly: &visionpb.BoundingPoly{Vertices: []*visionpb.Vertex{
					{X: 100, Y: 200}, {X: 400, Y: 200}, {X: 400, Y: 320}, {X: 100, Y: 320},
				}},
			},
			{Description: "点"},
		}

		Convey("When converted to fragments", func() {
			fragments := fragmentsFromAnnotations(annotations)

			Convey("Then nil annotations are skipped and order is kept", func() {
				So(len(fragments), ShouldEqual, 3)
				So(fragments[0].Text, ShouldEqual, "全文\n92.170 点")
				So(fragments[1].Text, ShouldEqual, "92.170")
				So(fragments[2].Text, ShouldEqual, "点")
			})

			Convey("And vertices carry over as points", func() {
				So(len(fragments[1].Vertices), ShouldEqual, 4)
				So(fragments[1].Vertices[2].X, ShouldEqual, 400)
				So(fragments[1].Vertices[2].Y, ShouldEqual, 320)
			})

			Convey("And a missing bounding polygon yields no vertices", func() {
				So(fragments[2].Vertices, ShouldBeEmpty)
			})
		})
	})
}
