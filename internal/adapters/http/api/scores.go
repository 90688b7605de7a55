// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"strconv"
	"time"
)

const maxScoresLimit = 100

// scoreEntry mirrors the wire shape of a stored score row.
type scoreEntry struct {
	Score      float64   `json:"score"`
	SongName   *string   `json:"song_name"`
	ArtistName *string   `json:"artist_name"`
	Comment    *string   `json:"comment"`
	CreatedAt  time.Time `json:"created_at"`
}

// ScoresHandler serves the caller's score history.
type ScoresHandler struct {
	store        Store
	defaultLimit int
}

// NewScoresHandler creates a new scores handler.
func NewScoresHandler(store Store, defaultLimit int) *ScoresHandler {
	return &ScoresHandler{store: store, defaultLimit: defaultLimit}
}

// HandleGetScores handles GET /api/scores?limit=N requests. Rows come
// back newest first.
func (h *ScoresHandler) HandleGetScores(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	userID, ok := callerID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", ErrUnauthorized)
		return
	}

	limit := h.defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
			return
		}
		if n > maxScoresLimit {
			writeError(w, http.StatusBadRequest, "limit_exceeded", ErrBadRequest)
			return
		}
		limit = n
	}

	rows, err := h.store.RecentScores(r.Context(), userID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}

	entries := make([]scoreEntry, len(rows))
	for i, row := range rows {
		entries[i] = scoreEntry{
			Score:      row.Value,
			SongName:   row.SongName,
			ArtistName: row.ArtistName,
			Comment:    row.Comment,
			CreatedAt:  row.CreatedAt,
		}
	}
	writeJSON(w, http.StatusOK, entries)
}
