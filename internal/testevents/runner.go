package testevents

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/kyoden/utagoe/pkg/logger"
)

const (
	// StatusOK is the only status the health check accepts.
	StatusOK = http.StatusOK

	// processingWait gives the service time to drain queued work
	// before the final stats snapshot.
	processingWait = 5 * time.Second

	percentageMultiplier = 100
)

// Run executes the complete webhook smoke test.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{StartTime: time.Now()}

	logger.Get().Info(ctx, "starting webhook smoke test",
		logger.String("baseURL", config.BaseURL),
		logger.Int("users", config.NumUsers),
		logger.Int("eventsPerUser", config.EventsPerUser),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.Any("verbose", config.Verbose))

	if err := checkServiceHealth(ctx, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	deliveries, err := generateDeliveries(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("delivery generation failed: %w", err)
	}

	if err := submitDeliveries(ctx, config, deliveries, stats); err != nil {
		return fmt.Errorf("delivery submission failed: %w", err)
	}

	logger.Get().Info(ctx, "waiting for queued work to drain")
	time.Sleep(processingWait)

	snapshot, err := fetchServiceStats(ctx, config)
	if err != nil {
		logger.Get().Warn(ctx, "service stats unavailable", logger.Error(err))
	} else {
		verifySnapshot(ctx, stats, snapshot)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats)

	logger.Get().Info(ctx, "smoke test completed")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(config.Timeout)
	resp, err := client.Get(ctx, config.BaseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()

	// Any 200 counts as healthy; the body is a Prometheus exposition.
	if resp.StatusCode != StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// verifySnapshot checks the post-test service state: every delivery
// acknowledged and the registration queue drained.
func verifySnapshot(ctx context.Context, stats *Stats, snapshot map[string]any) {
	if queueLen, ok := snapshot["queueLength"].(float64); ok && queueLen > 0 {
		logger.Get().Warn(ctx, "registration queue not drained",
			logger.Float64("queueLength", queueLen))
	}
	if totalUsers, ok := snapshot["totalUsers"].(float64); ok {
		logger.Get().Info(ctx, "service user count after test",
			logger.Int("totalUsers", int(totalUsers)))
	}
	if stats.DeliveriesFailed > 0 {
		logger.Get().Warn(ctx, "some deliveries failed outright",
			logger.Int("failed", stats.DeliveriesFailed))
	}
}

// displayFinalStats prints the final test statistics.
func displayFinalStats(stats *Stats) {
	var acceptRate, deliveriesPerSecond float64

	if stats.DeliveriesSubmitted > 0 {
		acceptRate = float64(stats.DeliveriesAccepted) / float64(stats.DeliveriesSubmitted) * percentageMultiplier
	}
	if stats.Duration > 0 {
		deliveriesPerSecond = float64(stats.DeliveriesSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("deliveriesGenerated", stats.DeliveriesGenerated),
		logger.Int("deliveriesSubmitted", stats.DeliveriesSubmitted),
		logger.Int("deliveriesAccepted", stats.DeliveriesAccepted),
		logger.Int("deliveriesRejected", stats.DeliveriesRejected),
		logger.Int("deliveriesFailed", stats.DeliveriesFailed),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("acceptRate", acceptRate),
		logger.Float64("deliveriesPerSecond", deliveriesPerSecond))
}
