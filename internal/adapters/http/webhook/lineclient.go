package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultAPIBase     = "https://api.line.me"
	defaultContentBase = "https://api-data.line.me"
	botTimeout         = 30 * time.Second
)

// LineBot implements Bot against the LINE Messaging API.
type LineBot struct {
	apiBase      string
	contentBase  string
	channelToken string
	httpClient   *http.Client
}

// BotOption applies a configuration option to the LineBot.
type BotOption func(*LineBot)

// WithAPIBase overrides the messaging API endpoint, mainly for tests.
func WithAPIBase(u string) BotOption {
	return func(b *LineBot) {
		if u != "" {
			b.apiBase = strings.TrimRight(u, "/")
		}
	}
}

// WithContentBase overrides the content download endpoint.
func WithContentBase(u string) BotOption {
	return func(b *LineBot) {
		if u != "" {
			b.contentBase = strings.TrimRight(u, "/")
		}
	}
}

// WithBotHTTPClient replaces the underlying HTTP client.
func WithBotHTTPClient(c *http.Client) BotOption {
	return func(b *LineBot) {
		if c != nil {
			b.httpClient = c
		}
	}
}

func NewLineBot(channelToken string, opts ...BotOption) *LineBot {
	b := &LineBot{
		apiBase:      defaultAPIBase,
		contentBase:  defaultContentBase,
		channelToken: channelToken,
		httpClient:   &http.Client{Timeout: botTimeout},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

type textMessage struct {
	Type       string      `json:"type"`
	Text       string      `json:"text"`
	QuickReply *quickReply `json:"quickReply,omitempty"`
}

type quickReply struct {
	Items []quickReplyItem `json:"items"`
}

type quickReplyItem struct {
	Type   string            `json:"type"`
	Action map[string]string `json:"action"`
}

func (b *LineBot) ReplyText(ctx context.Context, replyToken, text string) error {
	return b.reply(ctx, replyToken, textMessage{Type: "text", Text: text})
}

func (b *LineBot) ReplyMenu(ctx context.Context, replyToken, text string, labels []string) error {
	items := make([]quickReplyItem, 0, len(labels))
	for _, label := range labels {
		items = append(items, quickReplyItem{
			Type: "action",
			Action: map[string]string{
				"type":  "message",
				"label": label,
				"text":  label,
			},
		})
	}
	return b.reply(ctx, replyToken, textMessage{
		Type:       "text",
		Text:       text,
		QuickReply: &quickReply{Items: items},
	})
}

func (b *LineBot) reply(ctx context.Context, replyToken string, messages ...textMessage) error {
	payload := map[string]any{
		"replyToken": replyToken,
		"messages":   messages,
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.apiBase+"/v2/bot/message/reply", &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+b.channelToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send reply: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("reply status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

func (b *LineBot) Profile(ctx context.Context, userID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.apiBase+"/v2/bot/profile/"+userID, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+b.channelToken)

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("get profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("profile status %d", resp.StatusCode)
	}

	var decoded struct {
		DisplayName string `json:"displayName"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode profile: %w", err)
	}
	return decoded.DisplayName, nil
}

func (b *LineBot) MessageContent(ctx context.Context, messageID string) ([]byte, error) {
	url := fmt.Sprintf("%s/v2/bot/message/%s/content", b.contentBase, messageID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+b.channelToken)

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get message content: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("message content status %d", resp.StatusCode)
	}
	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read message content: %w", err)
	}
	return content, nil
}
