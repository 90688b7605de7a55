package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/kyoden/utagoe/pkg/logger"
	"github.com/kyoden/utagoe/pkg/metrics"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-3.5-turbo"
	defaultRetries = 2
	defaultTimeout = 60 * time.Second
	maxBackoff     = 10 * time.Second
)

// The artist line on scoring screens sits next to vibrato stats, which
// OCR merges into the name. The prompt tells the model to drop those.
const promptTemplate = `以下のカラオケスコアOCR結果から、曲名、アーティスト名をJSONで抽出してください。

注意: artist_name に「ビブラート」「ビブラート &」などが含まれていた場合は必ず除外してください。

artist_name は人名に加えて、以下のようなアーティスト名もあります:
・数字から始まる（例: 175R, 19, 3B LAB.☆S）
・アルファベットだけ（例: Aimer, BUMP OF CHICKEN）
・カタカナ（例: コブクロ）
・漢字（例: 秦基博）

内容が不足している場合は null を返してください。

出力フォーマット（厳守）:
{
  "song_name": string|null,
  "artist_name": string|null
}

OCR結果:
%s`

// OpenAIParser implements Parser against any OpenAI-compatible chat
// completion endpoint.
type OpenAIParser struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	maxRetries int
	log        logger.Logger
}

// Option applies a configuration option to the OpenAIParser.
type Option func(*OpenAIParser)

// WithBaseURL points the parser at a different compatible endpoint.
func WithBaseURL(url string) Option {
	return func(p *OpenAIParser) {
		if url != "" {
			p.baseURL = strings.TrimRight(url, "/")
		}
	}
}

// WithModel overrides the completion model.
func WithModel(model string) Option {
	return func(p *OpenAIParser) {
		if model != "" {
			p.model = model
		}
	}
}

// WithMaxRetries bounds retries on transient failures.
func WithMaxRetries(n int) Option {
	return func(p *OpenAIParser) {
		if n >= 0 {
			p.maxRetries = n
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(p *OpenAIParser) {
		if c != nil {
			p.httpClient = c
		}
	}
}

func NewOpenAIParser(apiKey string, opts ...Option) (*OpenAIParser, error) {
	if apiKey == "" {
		return nil, errors.New("parser api key required")
	}
	p := &OpenAIParser{
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		model:      defaultModel,
		httpClient: &http.Client{Timeout: defaultTimeout},
		maxRetries: defaultRetries,
		log:        logger.Named("parser"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type httpError struct {
	StatusCode int
	Body       string
}

func (e *httpError) Error() string {
	return fmt.Sprintf("parser http %d: %s", e.StatusCode, e.Body)
}

func retryable(err error) bool {
	var he *httpError
	if errors.As(err, &he) {
		return he.StatusCode == http.StatusRequestTimeout ||
			he.StatusCode == http.StatusTooManyRequests ||
			he.StatusCode >= 500
	}
	return true // network-level failures are worth one more try
}

// ParseSongInfo sends the OCR text through the completion model and
// decodes its JSON answer. Unidentifiable fields come back nil.
func (p *OpenAIParser) ParseSongInfo(ctx context.Context, ocrText string) (SongInfo, error) {
	req := chatRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "user", Content: fmt.Sprintf(promptTemplate, ocrText)},
		},
		Temperature: 0.2,
	}

	start := time.Now()
	raw, err := p.complete(ctx, req)
	metrics.RecordParserLatency(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.RecordParserError()
		return SongInfo{}, err
	}

	var info SongInfo
	if err := json.Unmarshal([]byte(stripFences(raw)), &info); err != nil {
		metrics.RecordParserError()
		return SongInfo{}, fmt.Errorf("decode model answer: %w", err)
	}
	return info, nil
}

func (p *OpenAIParser) complete(ctx context.Context, req chatRequest) (string, error) {
	backoff := time.Second
	var lastErr error

	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		content, retryAfter, err := p.completeOnce(ctx, req)
		if err == nil {
			return content, nil
		}
		lastErr = err
		if !retryable(err) || attempt == p.maxRetries {
			return "", err
		}

		sleepFor := backoff
		if retryAfter > 0 {
			sleepFor = retryAfter
		}
		if sleepFor > maxBackoff {
			sleepFor = maxBackoff
		}
		sleepFor = jitter(sleepFor)

		p.log.Warn(ctx, "parser request retrying",
			logger.Int("attempt", attempt+1),
			logger.Int("max_retries", p.maxRetries),
			logger.String("sleep", sleepFor.String()),
			logger.Error(err))

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(sleepFor):
		}
		backoff *= 2
	}
	return "", lastErr
}

func (p *OpenAIParser) completeOnce(ctx context.Context, req chatRequest) (string, time.Duration, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(req); err != nil {
		return "", 0, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", &buf)
	if err != nil {
		return "", 0, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return "", 0, err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return "", 0, readErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", parseRetryAfter(resp), &httpError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var decoded chatResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", 0, fmt.Errorf("decode completion: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return "", 0, errors.New("completion returned no choices")
	}
	return strings.TrimSpace(decoded.Choices[0].Message.Content), 0, nil
}

func parseRetryAfter(resp *http.Response) time.Duration {
	ra := strings.TrimSpace(resp.Header.Get("Retry-After"))
	if ra == "" {
		return 0
	}
	secs, err := strconv.Atoi(ra)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func jitter(base time.Duration) time.Duration {
	if base <= 0 {
		return 0
	}
	// +/- 20%
	delta := 0.2 * base.Seconds()
	v := base.Seconds() - delta + rand.Float64()*2*delta
	return time.Duration(v * float64(time.Second))
}

// Models often wrap JSON answers in a markdown code fence.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
