package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyoden/utagoe/internal/adapters/http/api"
	"github.com/kyoden/utagoe/internal/adapters/repository"
	"github.com/kyoden/utagoe/internal/domain/model"
	"github.com/kyoden/utagoe/internal/domain/rating"
	"github.com/kyoden/utagoe/internal/domain/stats"
	"github.com/kyoden/utagoe/internal/domain/trend"
)

const (
	testSecret   = "login-channel-secret"
	testClientID = "1234567890"
)

type stubStats map[string]interface{}

func (s stubStats) GetStats() map[string]interface{} { return s }

func newMux(t *testing.T, store api.Store, opts ...api.Option) *http.ServeMux {
	t.Helper()
	verifier := api.NewVerifier(testSecret, testClientID)
	server := api.NewServer(store, verifier, stubStats{"queue_size": 0}, opts...)
	mux := http.NewServeMux()
	server.Register(mux)
	return mux
}

func mintToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return raw
}

func validToken(t *testing.T, userID string) string {
	return mintToken(t, jwt.MapClaims{
		"iss": "https://access.line.me",
		"aud": testClientID,
		"sub": userID,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
}

func get(mux *http.ServeMux, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func seedScores(t *testing.T, store *repository.MemoryStore, userID string, values []float64) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	for i, v := range values {
		rec := model.ScoreRecord{
			UserID:    userID,
			Value:     v,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, store.AppendScore(ctx, &rec))
		require.NoError(t, store.RecordSubmission(ctx, userID, rec.CreatedAt))
	}
}

func TestAuth(t *testing.T) {
	store := repository.NewMemoryStore()
	mux := newMux(t, store)

	t.Run("missing token is rejected", func(t *testing.T) {
		rec := get(mux, "/api/scores", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong audience is rejected", func(t *testing.T) {
		token := mintToken(t, jwt.MapClaims{
			"iss": "https://access.line.me",
			"aud": "someone-else",
			"sub": "u1",
			"exp": time.Now().Add(time.Hour).Unix(),
		})
		rec := get(mux, "/api/scores", token)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong issuer is rejected", func(t *testing.T) {
		token := mintToken(t, jwt.MapClaims{
			"iss": "https://evil.example",
			"aud": testClientID,
			"sub": "u1",
			"exp": time.Now().Add(time.Hour).Unix(),
		})
		rec := get(mux, "/api/scores", token)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("expired token is rejected", func(t *testing.T) {
		token := mintToken(t, jwt.MapClaims{
			"iss": "https://access.line.me",
			"aud": testClientID,
			"sub": "u1",
			"exp": time.Now().Add(-time.Hour).Unix(),
		})
		rec := get(mux, "/api/scores", token)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("token without expiry is rejected", func(t *testing.T) {
		token := mintToken(t, jwt.MapClaims{
			"iss": "https://access.line.me",
			"aud": testClientID,
			"sub": "u1",
		})
		rec := get(mux, "/api/scores", token)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token is accepted", func(t *testing.T) {
		rec := get(mux, "/api/scores", validToken(t, "u1"))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestGetScores(t *testing.T) {
	store := repository.NewMemoryStore()
	seedScores(t, store, "u1", []float64{80, 85, 90.5})
	seedScores(t, store, "u2", []float64{70})
	mux := newMux(t, store)

	t.Run("returns the caller's rows newest first", func(t *testing.T) {
		rec := get(mux, "/api/scores", validToken(t, "u1"))
		require.Equal(t, http.StatusOK, rec.Code)

		var entries []map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
		require.Len(t, entries, 3)
		assert.Equal(t, 90.5, entries[0]["score"])
		assert.Equal(t, 80.0, entries[2]["score"])
	})

	t.Run("limit bounds the result", func(t *testing.T) {
		rec := get(mux, "/api/scores?limit=2", validToken(t, "u1"))
		require.Equal(t, http.StatusOK, rec.Code)

		var entries []map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
		assert.Len(t, entries, 2)
	})

	t.Run("non-numeric limit is rejected", func(t *testing.T) {
		rec := get(mux, "/api/scores?limit=abc", validToken(t, "u1"))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("excessive limit is rejected", func(t *testing.T) {
		rec := get(mux, "/api/scores?limit=1000", validToken(t, "u1"))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rows belong to the caller only", func(t *testing.T) {
		rec := get(mux, "/api/scores", validToken(t, "u2"))
		require.Equal(t, http.StatusOK, rec.Code)

		var entries []map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
		require.Len(t, entries, 1)
		assert.Equal(t, 70.0, entries[0]["score"])
	})
}

func TestGetMe(t *testing.T) {
	store := repository.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.UpsertUser(ctx, &model.User{
		ID: "u1", Name: "hina", UserCode: "AB12CD34",
	}))
	seedScores(t, store, "u1", []float64{92, 93, 94, 95, 96})
	mux := newMux(t, store)

	t.Run("returns profile and performance summary", func(t *testing.T) {
		rec := get(mux, "/api/me", validToken(t, "u1"))
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			ID         string `json:"id"`
			Name       string `json:"name"`
			UserCode   string `json:"user_code"`
			ScoreCount int    `json:"score_count"`
			Summary    *struct {
				Rating string  `json:"rating"`
				Latest float64 `json:"latest"`
			} `json:"summary"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "u1", resp.ID)
		assert.Equal(t, "hina", resp.Name)
		assert.Equal(t, "AB12CD34", resp.UserCode)
		assert.Equal(t, 5, resp.ScoreCount)
		require.NotNil(t, resp.Summary)
		assert.Equal(t, "SA", resp.Summary.Rating)
		assert.Equal(t, 96.0, resp.Summary.Latest)
	})

	t.Run("unknown users get a 404", func(t *testing.T) {
		rec := get(mux, "/api/me", validToken(t, "ghost"))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestGetMeTrendAlgorithm(t *testing.T) {
	store := repository.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.UpsertUser(ctx, &model.User{
		ID: "u1", Name: "hina", UserCode: "AB12CD34",
	}))
	seedScores(t, store, "u1", []float64{70, 70, 70, 70, 90})

	fetchTrend := func(t *testing.T, mux *http.ServeMux) float64 {
		t.Helper()
		rec := get(mux, "/api/me", validToken(t, "u1"))
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Summary *struct {
				Trend *float64 `json:"trend"`
			} `json:"summary"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.NotNil(t, resp.Summary)
		require.NotNil(t, resp.Summary.Trend)
		return *resp.Summary.Trend
	}

	t.Run("default summary averages the window", func(t *testing.T) {
		mux := newMux(t, store)
		assert.Equal(t, 74.0, fetchTrend(t, mux))
	})

	t.Run("an injected EMA presenter drives the summary", func(t *testing.T) {
		predictor := rating.NewPredictor(rating.WithEstimator(trend.NewEMA()))
		mux := newMux(t, store, api.WithPresenter(
			stats.NewPresenter(stats.WithPredictor(predictor)),
		))
		assert.Equal(t, 72.0, fetchTrend(t, mux))
	})
}

func TestStatsAndHealth(t *testing.T) {
	store := repository.NewMemoryStore()
	mux := newMux(t, store)

	t.Run("stats serves the provider snapshot", func(t *testing.T) {
		rec := get(mux, "/stats", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var snapshot map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snapshot))
		assert.Contains(t, snapshot, "queue_size")
	})

	t.Run("healthz serves prometheus metrics", func(t *testing.T) {
		rec := get(mux, "/healthz", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.NotEmpty(t, rec.Body.String())
	})
}
