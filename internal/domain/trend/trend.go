// Package trend computes smoothed trend values over a user's score
// history.
//
// All estimators consume scores in chronological order, oldest first.
// Callers reading newest-first from the store must reverse before
// estimating.
package trend

import (
	"math"
)

// Default estimator configuration constants.
const (
	defaultAlpha  = 0.1
	defaultWindow = 30
	displayScale  = 1000 // 3 decimal places
)

// Estimator computes a single trend value from a chronological score
// sequence. Implementations are pure and keep no state across calls.
type Estimator interface {
	// Estimate returns the trend value rounded to 3 decimals.
	// Returns false when the input sequence is empty.
	Estimate(scores []float64) (float64, bool)
}

// Round3 rounds v to 3 decimal places for display and storage.
func Round3(v float64) float64 {
	return math.Round(v*displayScale) / displayScale
}

// EMA is an exponential moving average estimator.
type EMA struct {
	alpha float64
}

// EMAOption applies a configuration option to an EMA estimator.
type EMAOption func(*EMA)

// WithAlpha sets the smoothing factor. Values outside (0,1] are ignored.
func WithAlpha(alpha float64) EMAOption {
	return func(e *EMA) {
		if alpha > 0 && alpha <= 1 {
			e.alpha = alpha
		}
	}
}

// NewEMA creates an EMA estimator with the canonical alpha of 0.1.
func NewEMA(opts ...EMAOption) *EMA {
	e := &EMA{alpha: defaultAlpha}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Estimate seeds with the oldest score and folds the rest in
// chronological order.
func (e *EMA) Estimate(scores []float64) (float64, bool) {
	if len(scores) == 0 {
		return 0, false
	}
	ema := scores[0]
	for _, s := range scores[1:] {
		ema = e.alpha*s + (1-e.alpha)*ema
	}
	return Round3(ema), true
}

// WMA is a weighted moving average estimator over a bounded window,
// with linearly increasing weights favoring recent scores.
type WMA struct {
	window int
}

// WMAOption applies a configuration option to a WMA estimator.
type WMAOption func(*WMA)

// WithWindow bounds the number of most recent scores considered.
func WithWindow(window int) WMAOption {
	return func(w *WMA) {
		if window > 0 {
			w.window = window
		}
	}
}

// NewWMA creates a WMA estimator over the canonical 30-score window.
func NewWMA(opts ...WMAOption) *WMA {
	w := &WMA{window: defaultWindow}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Estimate weights the most recent scores 1..n, oldest lightest.
func (w *WMA) Estimate(scores []float64) (float64, bool) {
	if len(scores) == 0 {
		return 0, false
	}
	if len(scores) > w.window {
		scores = scores[len(scores)-w.window:]
	}

	var weightedSum, totalWeight float64
	for i, s := range scores {
		weight := float64(i + 1)
		weightedSum += s * weight
		totalWeight += weight
	}
	return Round3(weightedSum / totalWeight), true
}

// Average is a plain mean estimator over a bounded window.
type Average struct {
	window int
}

// AverageOption applies a configuration option to an Average estimator.
type AverageOption func(*Average)

// WithAverageWindow bounds the number of most recent scores considered.
func WithAverageWindow(window int) AverageOption {
	return func(a *Average) {
		if window > 0 {
			a.window = window
		}
	}
}

// NewAverage creates a plain-average estimator over the canonical window.
func NewAverage(opts ...AverageOption) *Average {
	a := &Average{window: defaultWindow}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Estimate returns the mean of the most recent window of scores.
func (a *Average) Estimate(scores []float64) (float64, bool) {
	if len(scores) == 0 {
		return 0, false
	}
	if len(scores) > a.window {
		scores = scores[len(scores)-a.window:]
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	return Round3(sum / float64(len(scores))), true
}
