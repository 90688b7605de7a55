// Package types contains common types used across the application
package types

// Prediction describes how the next submission can move a user's tier.
// Derived, never a source of truth; always recomputable from history.
type Prediction struct {
	CurrentTrend  float64  `json:"current_trend"`
	CurrentRating string   `json:"current_rating"`
	NextUpScore   *float64 `json:"next_up_score,omitempty"`
	NextDownScore *float64 `json:"next_down_score,omitempty"`
	CanDowngrade  bool     `json:"can_downgrade"`
}

// Summary is the composed user-facing stats payload.
type Summary struct {
	Rating        string   `json:"rating,omitempty"`
	Trend         *float64 `json:"trend,omitempty"`
	Latest        float64  `json:"latest"`
	Max           float64  `json:"max"`
	Count         int      `json:"count"`
	NextUpScore   *float64 `json:"next_up_score,omitempty"`
	NextDownScore *float64 `json:"next_down_score,omitempty"`
	CanDowngrade  bool     `json:"can_downgrade"`
}
