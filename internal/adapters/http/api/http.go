// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/kyoden/utagoe/internal/domain/model"
	"github.com/kyoden/utagoe/internal/domain/rating"
	"github.com/kyoden/utagoe/internal/domain/stats"
)

// Store exposes the read operations the API needs. Using an interface
// bundle keeps the handler layer loosely coupled to the repository.
type Store interface {
	RecentScores(ctx context.Context, userID string, limit int) ([]model.ScoreRecord, error)
	GetUser(ctx context.Context, userID string) (model.User, error)
}

// Server wires HTTP routes for the read API.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	scoresHandler *ScoresHandler
	meHandler     *MeHandler
	verifier      *Verifier
}

// Option applies a configuration option to the Server.
type Option func(*serverConfig)

type serverConfig struct {
	presenter *stats.Presenter
	evalCount int
}

// WithPresenter supplies the summary pipeline the profile endpoint
// uses. Pass the same presenter the reply path runs on so both
// surfaces report the one configured trend algorithm.
func WithPresenter(p *stats.Presenter) Option {
	return func(c *serverConfig) {
		if p != nil {
			c.presenter = p
		}
	}
}

// WithEvalCount overrides the history window handlers read per request.
func WithEvalCount(n int) Option {
	return func(c *serverConfig) {
		if n > 0 {
			c.evalCount = n
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(store Store, verifier *Verifier, statsProvider StatsProvider, opts ...Option) *Server {
	cfg := serverConfig{
		presenter: stats.NewPresenter(),
		evalCount: rating.DefaultEvalCount,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Server{
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(statsProvider),
		scoresHandler: NewScoresHandler(store, cfg.evalCount),
		meHandler:     NewMeHandler(store, cfg.presenter, cfg.evalCount),
		verifier:      verifier,
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/api/scores", MetricsMiddleware(s.verifier.Require(s.scoresHandler.HandleGetScores), "scores"))
	mux.HandleFunc("/api/me", MetricsMiddleware(s.verifier.Require(s.meHandler.HandleGetMe), "me"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
