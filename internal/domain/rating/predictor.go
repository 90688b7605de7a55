package rating

import (
	"math"

	"github.com/kyoden/utagoe/internal/domain/trend"
	"github.com/kyoden/utagoe/internal/domain/types"
)

// DefaultEvalCount is the canonical evaluation window size.
const DefaultEvalCount = 30

const (
	maxScore       = 100
	precisionScale = 1000 // required scores resolve at 3 decimals
	precisionEps   = 1e-6
)

// Predictor derives tier movement predictions from a chronological
// score history. Pure; every call recomputes from the snapshot it is
// handed, so stale or empty histories are fine.
type Predictor struct {
	evalCount int
	estimator trend.Estimator
}

// Option applies a configuration option to the Predictor.
type Option func(*Predictor)

// WithEvalCount sets the evaluation window size.
func WithEvalCount(count int) Option {
	return func(p *Predictor) {
		if count > 0 {
			p.evalCount = count
		}
	}
}

// WithEstimator sets the trend estimator feeding the classifier.
func WithEstimator(e trend.Estimator) Option {
	return func(p *Predictor) {
		if e != nil {
			p.estimator = e
		}
	}
}

// NewPredictor creates a Predictor over the canonical 30-score window,
// classifying on the plain rolling average unless configured otherwise.
func NewPredictor(opts ...Option) *Predictor {
	p := &Predictor{
		evalCount: DefaultEvalCount,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.estimator == nil {
		p.estimator = trend.NewAverage(trend.WithAverageWindow(p.evalCount))
	}
	return p
}

// Predict computes the current tier and the score boundaries that would
// promote or demote the user on their next submission.
//
// Scores must be chronological, oldest first. Returns false on empty
// history; that is a normal outcome for new users, not an error.
func (p *Predictor) Predict(scores []float64) (types.Prediction, bool) {
	if len(scores) == 0 {
		return types.Prediction{}, false
	}

	// The evaluation window is the most recent evalCount scores.
	window := scores
	if len(window) > p.evalCount {
		window = window[len(window)-p.evalCount:]
	}

	trendValue, _ := p.estimator.Estimate(window)
	currentTier := TierOf(trendValue)

	// The base set is what remains once the next submission lands: at a
	// full window the oldest entry is displaced, otherwise the window
	// simply grows by one.
	base := window
	newCount := len(window) + 1
	if len(scores) >= p.evalCount {
		base = window[1:]
		newCount = p.evalCount
	}
	var baseSum float64
	for _, s := range base {
		baseSum += s
	}

	result := types.Prediction{
		CurrentTrend:  trendValue,
		CurrentRating: currentTier.String(),
	}

	if next, ok := currentTier.Next(); ok {
		required := next.Threshold()*float64(newCount) - baseSum
		up := clamp(ceil3(required), 0, maxScore)
		result.NextUpScore = &up
	}

	if _, ok := currentTier.Previous(); ok {
		boundary := currentTier.Threshold()*float64(newCount) - baseSum
		down := floor3(boundary)
		if down > 0 {
			result.NextDownScore = &down
			result.CanDowngrade = true
		}
	}

	return result, true
}

// ceil3 rounds up at 3-decimal precision, tolerating float noise so
// exact boundaries are not pushed a millipoint upward.
func ceil3(v float64) float64 {
	scaled := v * precisionScale
	if nearest := math.Round(scaled); math.Abs(scaled-nearest) < precisionEps {
		return nearest / precisionScale
	}
	return math.Ceil(scaled) / precisionScale
}

// floor3 rounds down at 3-decimal precision with the same tolerance.
func floor3(v float64) float64 {
	scaled := v * precisionScale
	if nearest := math.Round(scaled); math.Abs(scaled-nearest) < precisionEps {
		return nearest / precisionScale
	}
	return math.Floor(scaled) / precisionScale
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
