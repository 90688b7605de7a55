// Package service wires the domain, store and transport layers into a
// running score-bot process.
package service

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kyoden/utagoe/internal/adapters/http/api"
	"github.com/kyoden/utagoe/internal/adapters/http/webhook"
	"github.com/kyoden/utagoe/internal/adapters/mq/queue"
	"github.com/kyoden/utagoe/internal/adapters/mq/worker"
	"github.com/kyoden/utagoe/internal/adapters/musicbrainz"
	"github.com/kyoden/utagoe/internal/adapters/ocr"
	"github.com/kyoden/utagoe/internal/adapters/parser"
	"github.com/kyoden/utagoe/internal/adapters/repository"
	"github.com/kyoden/utagoe/internal/adapters/session"
	"github.com/kyoden/utagoe/internal/config"
	"github.com/kyoden/utagoe/internal/domain/dedupe"
	"github.com/kyoden/utagoe/internal/domain/rating"
	"github.com/kyoden/utagoe/internal/domain/stats"
	"github.com/kyoden/utagoe/internal/domain/trend"
	"github.com/kyoden/utagoe/pkg/logger"
	"github.com/kyoden/utagoe/pkg/metrics"
)

const shutdownTimeout = 30 * time.Second

// Service owns every long-lived component of the score bot.
type Service struct {
	mu  sync.RWMutex
	cfg *config.Config

	// Injectable boundaries; Start builds the production defaults for
	// whatever is left nil.
	store       repository.Store
	sessions    session.Store
	ocrProvider ocr.Provider
	songParser  parser.Parser
	bot         webhook.Bot

	// Built in Start.
	deduper        dedupe.Deduper
	jobQueue       queue.Queue
	pool           *worker.Pool
	webhookHandler *webhook.Handler
	apiServer      *api.Server
	redisClient    *redis.Client

	started bool
	log     logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore injects a score store, bypassing the DSN-based default.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithSessionStore injects a correction-session store.
func WithSessionStore(sessions session.Store) Option {
	return func(s *Service) {
		if sessions != nil {
			s.sessions = sessions
		}
	}
}

// WithOCR injects an OCR provider.
func WithOCR(provider ocr.Provider) Option {
	return func(s *Service) {
		if provider != nil {
			s.ocrProvider = provider
		}
	}
}

// WithParser injects a song-info parser.
func WithParser(p parser.Parser) Option {
	return func(s *Service) {
		if p != nil {
			s.songParser = p
		}
	}
}

// WithBot injects a messaging client.
func WithBot(bot webhook.Bot) Option {
	return func(s *Service) {
		if bot != nil {
			s.bot = bot
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// New constructs a Service around cfg.
func New(cfg *config.Config, opts ...Option) *Service {
	s := &Service{cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds the remaining components and launches the artist
// registration workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.log == nil {
		s.log = logger.Get()
	}

	s.log.Info(ctx, "starting score bot service")

	if s.store == nil {
		store, err := repository.NewGormStore(s.cfg.DatabaseDSN)
		if err != nil {
			return fmt.Errorf("open score store: %w", err)
		}
		s.store = store
	}

	if s.sessions == nil {
		if s.cfg.RedisAddr != "" {
			s.redisClient = redis.NewClient(&redis.Options{
				Addr:     s.cfg.RedisAddr,
				Password: s.cfg.RedisPassword,
				DB:       s.cfg.RedisDB,
			})
			s.sessions = session.NewRedisStore(s.redisClient)
			s.log.Info(ctx, "using redis session store",
				logger.String("addr", s.cfg.RedisAddr))
		} else {
			s.sessions = session.NewMemoryStore()
			s.log.Info(ctx, "using in-memory session store")
		}
	}

	if s.ocrProvider == nil {
		provider, err := ocr.NewVisionProvider(ctx)
		if err != nil {
			return fmt.Errorf("create OCR provider: %w", err)
		}
		s.ocrProvider = provider
	}

	if s.songParser == nil {
		p, err := parser.NewOpenAIParser(s.cfg.ParserAPIKey,
			parser.WithBaseURL(s.cfg.ParserBaseURL),
			parser.WithModel(s.cfg.ParserModel),
		)
		if err != nil {
			return fmt.Errorf("create song parser: %w", err)
		}
		s.songParser = p
	}

	if s.bot == nil {
		s.bot = webhook.NewLineBot(s.cfg.ChannelToken)
	}

	s.deduper = dedupe.NewMemoryDeduper(dedupe.WithCapacity(s.cfg.DedupeSize))
	s.jobQueue = queue.NewInMemoryQueue(queue.WithCapacity(s.cfg.JobQueueSize))

	mbClient := musicbrainz.NewClient(
		musicbrainz.WithBaseURL(s.cfg.MusicBrainzBaseURL),
		musicbrainz.WithUserAgent(s.cfg.MusicBrainzUserAgent),
	)
	registrar := musicbrainz.NewRegistrar(mbClient, s.store,
		musicbrainz.WithMaxRetries(s.cfg.ArtistLookupRetries),
		musicbrainz.WithRetryDelay(time.Duration(s.cfg.ArtistLookupDelayMS)*time.Millisecond),
	)

	s.pool = worker.NewPool(s.cfg.WorkerCount, s.jobQueue, registrar)
	s.pool.Start(ctx)

	s.webhookHandler = webhook.NewHandler(webhook.Dependencies{
		ChannelSecret: s.cfg.ChannelSecret,
		Store:         s.store,
		Sessions:      s.sessions,
		OCR:           s.ocrProvider,
		Parser:        s.songParser,
		Deduper:       s,
		Presenter:     s.presenter(),
		Bot:           s.bot,
		Jobs:          s.jobQueue,
		EvalCount:     s.cfg.ScoreEvalCount,
	})

	verifier := api.NewVerifier(s.cfg.LoginClientSecret, s.cfg.LoginClientID)
	s.apiServer = api.NewServer(s.store, verifier, s,
		api.WithPresenter(s.presenter()),
		api.WithEvalCount(s.cfg.ScoreEvalCount),
	)

	s.started = true
	s.log.Info(ctx, "score bot service started",
		logger.Int("workers", s.cfg.WorkerCount),
		logger.Int("queueSize", s.cfg.JobQueueSize),
		logger.String("trend", s.cfg.TrendAlgorithm),
	)
	return nil
}

// presenter assembles the stats pipeline from the configured trend
// algorithm and rating constants.
func (s *Service) presenter() *stats.Presenter {
	predictor := rating.NewPredictor(
		rating.WithEvalCount(s.cfg.ScoreEvalCount),
		rating.WithEstimator(s.estimator()),
	)
	return stats.NewPresenter(
		stats.WithMinScores(s.cfg.MinScoresForRating),
		stats.WithWindow(s.cfg.ScoreEvalCount),
		stats.WithPredictor(predictor),
	)
}

func (s *Service) estimator() trend.Estimator {
	switch s.cfg.TrendAlgorithm {
	case config.TrendEMA:
		return trend.NewEMA(trend.WithAlpha(s.cfg.EMAAlpha))
	case config.TrendWMA:
		return trend.NewWMA(trend.WithWindow(s.cfg.ScoreEvalCount))
	default:
		return trend.NewAverage(trend.WithAverageWindow(s.cfg.ScoreEvalCount))
	}
}

// RegisterRoutes attaches the webhook and API routes to mux.
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	s.webhookHandler.Register(mux)
	s.apiServer.Register(mux)
}

// Stop drains the worker pool and releases external connections.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.log.Info(ctx, "stopping score bot service")

	if s.pool != nil {
		if err := s.pool.Shutdown(ctx); err != nil {
			s.log.Warn(ctx, "worker pool shutdown incomplete", logger.Error(err))
		}
	}
	if closer, ok := s.store.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			s.log.Warn(ctx, "closing score store failed", logger.Error(err))
		}
	}
	if s.ocrProvider != nil {
		if err := s.ocrProvider.Close(); err != nil {
			s.log.Warn(ctx, "closing OCR provider failed", logger.Error(err))
		}
	}
	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			s.log.Warn(ctx, "closing redis client failed", logger.Error(err))
		}
	}

	s.started = false
	s.log.Info(ctx, "score bot service stopped")
}

// SeenAndRecord atomically checks and records a webhook event id,
// counting duplicates as they surface.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	seen := s.deduper.SeenAndRecord(ctx, id)
	if seen {
		metrics.RecordEventDuplicate()
	}
	return seen
}

// Unrecord removes an event id from the seen list so a redelivery can
// be retried.
func (s *Service) Unrecord(ctx context.Context, id string) {
	s.deduper.Unrecord(ctx, id)
}

// Size returns the current number of tracked event ids.
func (s *Service) Size() int64 {
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.cfg.WorkerCount,
		"queueSize":   s.cfg.JobQueueSize,
		"dedupeSize":  s.cfg.DedupeSize,
	}
	if !s.started {
		return stats
	}

	ctx := context.Background()
	queueLen := s.jobQueue.Len(ctx)
	stats["queueLength"] = queueLen
	stats["trackedEvents"] = s.Size()
	metrics.UpdateQueueSize(queueLen)

	if totalUsers, err := s.store.CountUsers(ctx); err == nil {
		stats["totalUsers"] = totalUsers
		metrics.UpdateTotalUsers(int(totalUsers))
	}

	return stats
}
