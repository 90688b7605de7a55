// Package stats composes trend, rating and prediction outputs with simple
// aggregates into a user-facing performance summary.
package stats

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kyoden/utagoe/internal/domain/rating"
	"github.com/kyoden/utagoe/internal/domain/types"
)

const (
	// defaultMinScores is how many submissions a user needs before a
	// rating and trend are shown at all.
	defaultMinScores = 5

	// Demotion warnings are only worth sending when the danger boundary
	// is a score the user could plausibly sing.
	downWarnLow  = 75
	downWarnHigh = 100
)

// Presenter builds summaries and reply text from a user's score history.
type Presenter struct {
	minScores int
	window    int
	predictor *rating.Predictor
}

// Option configures a Presenter.
type Option func(*Presenter)

// WithMinScores overrides the minimum history length for rating output.
func WithMinScores(n int) Option {
	return func(p *Presenter) {
		if n > 0 {
			p.minScores = n
		}
	}
}

// WithWindow sets the evaluation window used for labels and prediction.
func WithWindow(n int) Option {
	return func(p *Presenter) {
		if n > 0 {
			p.window = n
		}
	}
}

// WithPredictor replaces the default predictor.
func WithPredictor(pr *rating.Predictor) Option {
	return func(p *Presenter) {
		if pr != nil {
			p.predictor = pr
		}
	}
}

func NewPresenter(opts ...Option) *Presenter {
	p := &Presenter{
		minScores: defaultMinScores,
		window:    rating.DefaultEvalCount,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.predictor == nil {
		p.predictor = rating.NewPredictor(rating.WithEvalCount(p.window))
	}
	return p
}

// Summarize composes a Summary from a newest-first history slice and the
// user's lifetime submission count. Returns false when the history is empty;
// that is a normal outcome for new users, not an error.
func (p *Presenter) Summarize(newestFirst []float64, scoreCount int) (types.Summary, bool) {
	if len(newestFirst) == 0 {
		return types.Summary{}, false
	}

	summary := types.Summary{
		Latest: newestFirst[0],
		Max:    newestFirst[0],
		Count:  scoreCount,
	}
	for _, s := range newestFirst[1:] {
		if s > summary.Max {
			summary.Max = s
		}
	}

	if len(newestFirst) < p.minScores {
		return summary, true
	}

	chronological := make([]float64, len(newestFirst))
	for i, s := range newestFirst {
		chronological[len(newestFirst)-1-i] = s
	}
	prediction, ok := p.predictor.Predict(chronological)
	if !ok {
		return summary, true
	}

	trend := prediction.CurrentTrend
	summary.Rating = prediction.CurrentRating
	summary.Trend = &trend
	summary.NextUpScore = prediction.NextUpScore
	summary.NextDownScore = prediction.NextDownScore
	summary.CanDowngrade = prediction.CanDowngrade
	return summary, true
}

// ReplyText renders a Summary as the outbound chat message.
func (p *Presenter) ReplyText(s types.Summary) string {
	var b strings.Builder
	b.WriteString("\U0001F4CA あなたの成績\n")
	fmt.Fprintf(&b, "・レーティング: %s\n", orPlaceholder(s.Rating))
	fmt.Fprintf(&b, "・平均スコア（最新%d曲）: %s\n", p.window, floatOrPlaceholder(s.Trend))
	fmt.Fprintf(&b, "・最新スコア: %s\n", formatScore(s.Latest))
	fmt.Fprintf(&b, "・最高スコア: %s\n", formatScore(s.Max))
	fmt.Fprintf(&b, "・登録回数: %d 回\n", s.Count)

	switch {
	case s.NextUpScore != nil && *s.NextUpScore <= downWarnHigh:
		fmt.Fprintf(&b, "・次のレーティングに上がるにはあと %s 点が必要！\n", formatScore(*s.NextUpScore))
	case s.CanDowngrade && s.NextDownScore != nil &&
		*s.NextDownScore >= downWarnLow && *s.NextDownScore <= downWarnHigh:
		fmt.Fprintf(&b, "・おっと！%s 点未満でレーティングが下がってしまうかも！\n", formatScore(*s.NextDownScore))
	}
	return b.String()
}

func orPlaceholder(s string) string {
	if s == "" {
		return "---"
	}
	return s
}

func floatOrPlaceholder(v *float64) string {
	if v == nil {
		return "---"
	}
	return formatScore(*v)
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
