package repository

import "time"

type storeConfig struct {
	slowThreshold time.Duration
}

// Option applies a configuration option to the GormStore.
type Option func(*storeConfig)

// WithSlowThreshold sets the query duration above which the database
// logger reports a slow query.
func WithSlowThreshold(d time.Duration) Option {
	return func(c *storeConfig) {
		if d > 0 {
			c.slowThreshold = d
		}
	}
}

func newStoreConfig(opts ...Option) *storeConfig {
	cfg := &storeConfig{slowThreshold: time.Second}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
