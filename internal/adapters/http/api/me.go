// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/kyoden/utagoe/internal/adapters/repository"
	"github.com/kyoden/utagoe/internal/domain/stats"
	"github.com/kyoden/utagoe/internal/domain/types"
)

// profileResponse is the wire shape of GET /api/me.
type profileResponse struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	UserCode    string         `json:"user_code"`
	ScoreCount  int            `json:"score_count"`
	LastScoreAt *time.Time     `json:"last_score_at,omitempty"`
	Summary     *types.Summary `json:"summary,omitempty"`
}

// MeHandler serves the caller's profile and performance summary.
type MeHandler struct {
	store     Store
	presenter *stats.Presenter
	evalCount int
}

// NewMeHandler creates a new profile handler.
func NewMeHandler(store Store, presenter *stats.Presenter, evalCount int) *MeHandler {
	return &MeHandler{store: store, presenter: presenter, evalCount: evalCount}
}

// HandleGetMe handles GET /api/me requests.
func (h *MeHandler) HandleGetMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	userID, ok := callerID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", ErrUnauthorized)
		return
	}

	user, err := h.store.GetUser(r.Context(), userID)
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}

	resp := profileResponse{
		ID:          user.ID,
		Name:        user.Name,
		UserCode:    user.UserCode,
		ScoreCount:  user.ScoreCount,
		LastScoreAt: user.LastScoreAt,
	}

	rows, err := h.store.RecentScores(r.Context(), userID, h.evalCount)
	if err == nil && len(rows) > 0 {
		scores := make([]float64, len(rows))
		for i, row := range rows {
			scores[i] = row.Value
		}
		if summary, ok := h.presenter.Summarize(scores, user.ScoreCount); ok {
			resp.Summary = &summary
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
