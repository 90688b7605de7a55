// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults; Load() layers file and env.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"runtime"
)

// Trend algorithm names accepted by the rating engine.
const (
	TrendAverage = "average"
	TrendEMA     = "ema"
	TrendWMA     = "wma"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DatabaseDSN selects the score store. A postgres:// URL uses the
	// postgres driver; anything else is treated as a sqlite file path.
	DatabaseDSN string `koanf:"database_dsn"`

	// RedisAddr enables the redis-backed session store when non-empty.
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`

	// ChannelSecret verifies webhook signatures; ChannelToken authorizes
	// outbound messaging and content fetches.
	ChannelSecret string `koanf:"channel_secret"`
	ChannelToken  string `koanf:"channel_token"`

	// LoginClientID and LoginClientSecret verify bearer id_tokens on /api.
	LoginClientID     string `koanf:"login_client_id"`
	LoginClientSecret string `koanf:"login_client_secret"`

	// Text-structuring model client settings.
	ParserAPIKey  string `koanf:"parser_api_key"`
	ParserBaseURL string `koanf:"parser_base_url"`
	ParserModel   string `koanf:"parser_model"`

	// Artist lookup settings.
	MusicBrainzBaseURL   string `koanf:"musicbrainz_base_url"`
	MusicBrainzUserAgent string `koanf:"musicbrainz_user_agent"`
	ArtistLookupRetries  int    `koanf:"artist_lookup_retries"`
	ArtistLookupDelayMS  int    `koanf:"artist_lookup_delay_ms"`

	// Rating engine constants.
	ScoreEvalCount     int     `koanf:"score_eval_count"`
	EMAAlpha           float64 `koanf:"ema_alpha"`
	TrendAlgorithm     string  `koanf:"trend_algorithm"`
	MinScoresForRating int     `koanf:"min_scores_for_rating"`

	// JobQueueSize bounds the in-memory artist registration queue.
	JobQueueSize int `koanf:"job_queue_size"`

	// WorkerCount sets the number of artist registration workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the webhook event deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`
}

// New creates a Config populated with defaults.
func New() *Config {
	c := &Config{
		LogLevel:             "info",
		Addr:                 ":8080",
		DatabaseDSN:          "utagoe.db",
		MusicBrainzBaseURL:   "https://musicbrainz.org/ws/2",
		MusicBrainzUserAgent: "utagoe/1.0",
		ParserBaseURL:        "https://api.openai.com/v1",
		ParserModel:          "gpt-3.5-turbo",
		ArtistLookupRetries:  3,
		ArtistLookupDelayMS:  1500,
		ScoreEvalCount:       30,
		EMAAlpha:             0.1,
		TrendAlgorithm:       TrendAverage,
		MinScoresForRating:   5,
		JobQueueSize:         10_000,
		WorkerCount:          runtime.NumCPU(),
		DedupeSize:           100_000,
	}
	return c
}
