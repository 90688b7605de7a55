package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// RedisStore keeps correction state in Redis so multiple replicas see
// the same conversation state.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// Option applies a configuration option to the RedisStore.
type Option func(*RedisStore)

// WithTTL overrides how long a pending correction survives.
func WithTTL(ttl time.Duration) Option {
	return func(s *RedisStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func NewRedisStore(client *redis.Client, opts ...Option) *RedisStore {
	s := &RedisStore{client: client, ttl: DefaultTTL}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func key(userID string) string {
	return "utagoe:correction:" + userID
}

func (s *RedisStore) SetAwaitingField(ctx context.Context, userID string, f Field) error {
	if err := s.client.Set(ctx, key(userID), string(f), s.ttl).Err(); err != nil {
		return fmt.Errorf("set correction state: %w", err)
	}
	return nil
}

func (s *RedisStore) AwaitingField(ctx context.Context, userID string) (Field, bool, error) {
	val, err := s.client.Get(ctx, key(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get correction state: %w", err)
	}
	return Field(val), true, nil
}

func (s *RedisStore) ClearAwaitingField(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, key(userID)).Err(); err != nil {
		return fmt.Errorf("clear correction state: %w", err)
	}
	return nil
}
