package musicbrainz

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/kyoden/utagoe/internal/adapters/repository"
	"github.com/kyoden/utagoe/internal/domain/model"
	"github.com/kyoden/utagoe/pkg/logger"
	"github.com/kyoden/utagoe/pkg/metrics"
)

const (
	defaultMaxRetries = 3
	defaultRetryDelay = 1500 * time.Millisecond
)

// Registrar ensures every artist name mentioned in a submission ends
// up as a store row, enriched with MusicBrainz metadata when the
// lookup succeeds and as a bare fallback row when it does not.
type Registrar struct {
	client     *Client
	store      repository.Store
	maxRetries int
	retryDelay time.Duration
	log        logger.Logger
}

// RegistrarOption applies a configuration option to the Registrar.
type RegistrarOption func(*Registrar)

// WithMaxRetries bounds lookup attempts per artist.
func WithMaxRetries(n int) RegistrarOption {
	return func(r *Registrar) {
		if n > 0 {
			r.maxRetries = n
		}
	}
}

// WithRetryDelay sets the fixed backoff between lookup attempts.
func WithRetryDelay(d time.Duration) RegistrarOption {
	return func(r *Registrar) {
		if d > 0 {
			r.retryDelay = d
		}
	}
}

func NewRegistrar(client *Client, store repository.Store, opts ...RegistrarOption) *Registrar {
	r := &Registrar{
		client:     client,
		store:      store,
		maxRetries: defaultMaxRetries,
		retryDelay: defaultRetryDelay,
		log:        logger.Named("musicbrainz"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RegisterIfNeeded registers an artist unless it already exists. The
// lookup retries on transport errors with a fixed backoff; when it
// fails or finds nothing, a fallback row with just the raw name is
// written so the submission still references a known artist.
func (r *Registrar) RegisterIfNeeded(ctx context.Context, name string) (model.Artist, error) {
	if existing, err := r.store.ArtistByName(ctx, name); err == nil {
		return existing, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return model.Artist{}, err
	}

	info := r.lookup(ctx, name)

	artist := model.Artist{Name: name}
	if info != nil {
		id := info.ID
		artist.MusicBrainzID = &id
		artist.GenreTags = strings.Join(info.GenreTags, ",")
	} else {
		metrics.RecordArtistFallback()
		r.log.Info(ctx, "registering artist without lookup metadata",
			logger.String("artist", name))
	}

	if err := r.store.UpsertArtist(ctx, &artist); err != nil {
		return model.Artist{}, err
	}
	metrics.RecordArtistRegistered()
	return artist, nil
}

// lookup returns nil when MusicBrainz has no match or stays
// unreachable through all attempts.
func (r *Registrar) lookup(ctx context.Context, name string) *ArtistInfo {
	for attempt := 1; attempt <= r.maxRetries; attempt++ {
		info, err := r.client.SearchArtist(ctx, name)
		if err == nil {
			return info
		}

		metrics.RecordArtistLookupRetry()
		r.log.Warn(ctx, "musicbrainz lookup failed",
			logger.String("artist", name),
			logger.Int("attempt", attempt),
			logger.Int("max_retries", r.maxRetries),
			logger.Error(err))

		if attempt == r.maxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(r.retryDelay):
		}
	}
	return nil
}
