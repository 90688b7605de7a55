package testevents

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kyoden/utagoe/pkg/logger"
)

// Text commands the bot answers; rotated across synthetic users.
var textCommands = []string{"成績確認", "stats", "評価見せて"}

type source struct {
	Type   string `json:"type"`
	UserID string `json:"userId"`
}

type message struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type event struct {
	Type           string   `json:"type"`
	WebhookEventID string   `json:"webhookEventId"`
	ReplyToken     string   `json:"replyToken"`
	Timestamp      int64    `json:"timestamp"`
	Source         source   `json:"source"`
	Message        *message `json:"message,omitempty"`
}

type envelope struct {
	Destination string  `json:"destination"`
	Events      []event `json:"events"`
}

// generateDeliveries builds one follow delivery per synthetic user plus
// the configured number of text commands, each individually signed.
func generateDeliveries(ctx context.Context, config *Config, stats *Stats) ([]Delivery, error) {
	logger.Get().Info(ctx, "generating webhook deliveries",
		logger.Int("users", config.NumUsers),
		logger.Int("eventsPerUser", config.EventsPerUser))

	deliveries := make([]Delivery, 0, config.NumUsers*(1+config.EventsPerUser))
	for i := 0; i < config.NumUsers; i++ {
		userID := "Utest" + uuid.NewString()[:8]

		follow, err := signedDelivery(config.ChannelSecret, userID, "follow", event{
			Type:           "follow",
			WebhookEventID: uuid.NewString(),
			ReplyToken:     uuid.NewString(),
			Timestamp:      time.Now().UnixMilli(),
			Source:         source{Type: "user", UserID: userID},
		})
		if err != nil {
			return nil, err
		}
		deliveries = append(deliveries, follow)

		for j := 0; j < config.EventsPerUser; j++ {
			text, err := signedDelivery(config.ChannelSecret, userID, "text", event{
				Type:           "message",
				WebhookEventID: uuid.NewString(),
				ReplyToken:     uuid.NewString(),
				Timestamp:      time.Now().UnixMilli(),
				Source:         source{Type: "user", UserID: userID},
				Message: &message{
					ID:   uuid.NewString(),
					Type: "text",
					Text: textCommands[j%len(textCommands)],
				},
			})
			if err != nil {
				return nil, err
			}
			deliveries = append(deliveries, text)
		}
	}

	stats.DeliveriesGenerated = len(deliveries)
	logger.Get().Info(ctx, "generated deliveries", logger.Int("count", len(deliveries)))
	return deliveries, nil
}

func signedDelivery(secret, userID, kind string, ev event) (Delivery, error) {
	body, err := json.Marshal(envelope{Events: []event{ev}})
	if err != nil {
		return Delivery{}, fmt.Errorf("marshal delivery: %w", err)
	}
	return Delivery{
		Body:      body,
		Signature: sign(secret, body),
		UserID:    userID,
		Kind:      kind,
	}, nil
}

// sign computes the delivery signature the service expects.
func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
