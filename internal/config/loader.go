package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New())
//  2. file (YAML) if UTAGOE_CONFIG is set
//  3. env (prefix UTAGOE_)
func Load(ctx context.Context) (*Config, error) {
	// Start with defaults
	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("UTAGOE_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: UTAGOE_ADDR, UTAGOE_SCORE_EVAL_COUNT, ...
	// Map env keys like UTAGOE_SCORE_EVAL_COUNT -> score_eval_count (flat keys).
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("UTAGOE_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "utagoe_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.ScoreEvalCount <= 0:
		return fmt.Errorf("%w: score_eval_count must be positive", ErrInvalidConfig)
	case c.EMAAlpha <= 0 || c.EMAAlpha > 1:
		return fmt.Errorf("%w: ema_alpha must be in (0,1]", ErrInvalidConfig)
	case c.MinScoresForRating < 1:
		return fmt.Errorf("%w: min_scores_for_rating must be at least 1", ErrInvalidConfig)
	}
	switch c.TrendAlgorithm {
	case TrendAverage, TrendEMA, TrendWMA:
	default:
		return fmt.Errorf("%w: unknown trend_algorithm %q", ErrInvalidConfig, c.TrendAlgorithm)
	}
	return nil
}
