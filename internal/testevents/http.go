package testevents

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client *http.Client
}

func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{client: &http.Client{Timeout: timeout}}
}

// Get performs a GET request
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}
	return resp, nil
}

// PostDelivery posts one signed webhook body.
func (c *HTTPClient) PostDelivery(ctx context.Context, url string, d Delivery) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(d.Body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Line-Signature", d.Signature)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post delivery: %w", err)
	}
	return resp, nil
}

// submitDeliveries posts deliveries concurrently using a worker pool.
func submitDeliveries(ctx context.Context, config *Config, deliveries []Delivery, stats *Stats) error {
	log.Printf("submitting %d deliveries with %d workers...", len(deliveries), config.Workers)

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/webhook"

	var (
		submitted int64
		accepted  int64
		rejected  int64
		failed    int64
	)

	deliveryChan := make(chan Delivery, config.Workers*2)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for d := range deliveryChan {
				select {
				case <-ctx.Done():
					return
				default:
				}

				atomic.AddInt64(&submitted, 1)
				switch submitSingle(ctx, client, url, d) {
				case http.StatusOK:
					atomic.AddInt64(&accepted, 1)
				case 0:
					atomic.AddInt64(&failed, 1)
				default:
					atomic.AddInt64(&rejected, 1)
				}
			}
		}()
	}

	go func() {
		defer close(deliveryChan)
		for _, d := range deliveries {
			select {
			case <-ctx.Done():
				return
			case deliveryChan <- d:
			}
		}
	}()

	wg.Wait()

	stats.DeliveriesSubmitted = int(atomic.LoadInt64(&submitted))
	stats.DeliveriesAccepted = int(atomic.LoadInt64(&accepted))
	stats.DeliveriesRejected = int(atomic.LoadInt64(&rejected))
	stats.DeliveriesFailed = int(atomic.LoadInt64(&failed))

	log.Printf("delivery submission completed: accepted=%d rejected=%d failed=%d",
		stats.DeliveriesAccepted, stats.DeliveriesRejected, stats.DeliveriesFailed)
	return nil
}

// submitSingle returns the HTTP status, or 0 on transport failure.
func submitSingle(ctx context.Context, client *HTTPClient, url string, d Delivery) int {
	resp, err := client.PostDelivery(ctx, url, d)
	if err != nil {
		return 0
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode
}

// fetchServiceStats reads the /stats snapshot.
func fetchServiceStats(ctx context.Context, config *Config) (map[string]any, error) {
	client := newHTTPClient(config.Timeout)

	resp, err := client.Get(ctx, config.BaseURL+"/stats")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("stats endpoint returned status %d", resp.StatusCode)
	}

	var snapshot map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		return nil, fmt.Errorf("decode stats: %w", err)
	}
	return snapshot, nil
}
