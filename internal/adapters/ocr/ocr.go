// Package ocr adapts the image recognition provider to the fragment
// model consumed by the score extractor.
package ocr

import (
	"context"

	"github.com/kyoden/utagoe/internal/domain/model"
)

// Provider turns a scoring-screen photo into text fragments. The first
// fragment of a response is the full-page text.
type Provider interface {
	DetectFragments(ctx context.Context, image []byte) ([]model.Fragment, error)
	Close() error
}
