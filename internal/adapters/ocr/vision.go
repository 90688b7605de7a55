package ocr

import (
	"context"
	"fmt"
	"time"

	vision "cloud.google.com/go/vision/v2/apiv1"
	visionpb "cloud.google.com/go/vision/v2/apiv1/visionpb"

	"github.com/kyoden/utagoe/internal/domain/model"
	"github.com/kyoden/utagoe/pkg/metrics"
)

const annotateTimeout = 60 * time.Second

// VisionProvider implements Provider on the Google Cloud Vision API.
// Credentials come from the ambient application-default environment.
type VisionProvider struct {
	client *vision.ImageAnnotatorClient
}

func NewVisionProvider(ctx context.Context) (*VisionProvider, error) {
	client, err := vision.NewImageAnnotatorClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("vision client: %w", err)
	}
	return &VisionProvider{client: client}, nil
}

func (p *VisionProvider) Close() error {
	return p.client.Close()
}

// DetectFragments runs plain text detection and converts every
// annotation into a fragment. An unreadable image yields an empty
// slice, not an error.
func (p *VisionProvider) DetectFragments(ctx context.Context, image []byte) ([]model.Fragment, error) {
	if len(image) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, annotateTimeout)
	defer cancel()

	start := time.Now()
	resp, err := p.client.BatchAnnotateImages(ctx, &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{{
			Image:    &visionpb.Image{Content: image},
			Features: []*visionpb.Feature{{Type: visionpb.Feature_TEXT_DETECTION}},
		}},
	})
	metrics.RecordOCRLatency(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.RecordOCRError()
		return nil, fmt.Errorf("vision annotate: %w", err)
	}
	if resp == nil || len(resp.Responses) == 0 || resp.Responses[0] == nil {
		return nil, nil
	}

	r0 := resp.Responses[0]
	if r0.Error != nil && r0.Error.Message != "" {
		metrics.RecordOCRError()
		return nil, fmt.Errorf("vision annotate error: %s", r0.Error.Message)
	}
	return fragmentsFromAnnotations(r0.TextAnnotations), nil
}

func fragmentsFromAnnotations(annotations []*visionpb.EntityAnnotation) []model.Fragment {
	fragments := make([]model.Fragment, 0, len(annotations))
	for _, a := range annotations {
		if a == nil {
			continue
		}
		f := model.Fragment{Text: a.Description}
		if poly := a.BoundingPoly; poly != nil {
			f.Vertices = make([]model.Point, 0, len(poly.Vertices))
			for _, v := range poly.Vertices {
				if v == nil {
					continue
				}
				f.Vertices = append(f.Vertices, model.Point{X: float64(v.X), Y: float64(v.Y)})
			}
		}
		fragments = append(fragments, f)
	}
	return fragments
}
