// Package webhook receives messaging-platform events and drives the
// score submission, stats and correction conversations.
package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/kyoden/utagoe/internal/adapters/mq/queue"
	"github.com/kyoden/utagoe/internal/adapters/parser"
	"github.com/kyoden/utagoe/internal/adapters/repository"
	"github.com/kyoden/utagoe/internal/adapters/session"
	"github.com/kyoden/utagoe/internal/domain/dedupe"
	"github.com/kyoden/utagoe/internal/domain/model"
	"github.com/kyoden/utagoe/internal/domain/rating"
	"github.com/kyoden/utagoe/internal/domain/stats"
	"github.com/kyoden/utagoe/pkg/logger"
)

// OCR turns a photo into text fragments.
type OCR interface {
	DetectFragments(ctx context.Context, image []byte) ([]model.Fragment, error)
}

// SongParser extracts song metadata from OCR text.
type SongParser interface {
	ParseSongInfo(ctx context.Context, ocrText string) (parser.SongInfo, error)
}

// Enqueuer accepts artist registration jobs. Returns false on
// backpressure; registration is best-effort and never blocks a reply.
type Enqueuer interface {
	Enqueue(ctx context.Context, j queue.Job) bool
}

// Dependencies bundles everything the webhook handler drives.
type Dependencies struct {
	ChannelSecret string
	Store         repository.Store
	Sessions      session.Store
	OCR           OCR
	Parser        SongParser
	Deduper       dedupe.Deduper
	Presenter     *stats.Presenter
	Bot           Bot
	Jobs          Enqueuer
	EvalCount     int
}

// Handler processes webhook deliveries.
type Handler struct {
	deps Dependencies
	log  logger.Logger
}

func NewHandler(deps Dependencies) *Handler {
	if deps.EvalCount < 1 {
		deps.EvalCount = rating.DefaultEvalCount
	}
	if deps.Presenter == nil {
		deps.Presenter = stats.NewPresenter(stats.WithWindow(deps.EvalCount))
	}
	return &Handler{
		deps: deps,
		log:  logger.Named("webhook"),
	}
}

// Register attaches the webhook route to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/webhook", h.HandleWebhook)
}

// HandleWebhook verifies the delivery signature and dispatches each
// event. The platform retries non-2xx responses, so per-event failures
// are logged and acknowledged rather than surfaced.
func (h *Handler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.log.Error(ctx, "reading webhook body", logger.Error(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if !ValidSignature(h.deps.ChannelSecret, body, r.Header.Get("X-Line-Signature")) {
		h.log.Warn(ctx, "webhook signature mismatch")
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	var envelope Envelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		h.log.Error(ctx, "decoding webhook envelope", logger.Error(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	for i := range envelope.Events {
		h.dispatch(ctx, &envelope.Events[i])
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (h *Handler) dispatch(ctx context.Context, ev *Event) {
	if ev.WebhookEventID != "" && h.deps.Deduper != nil {
		if h.deps.Deduper.SeenAndRecord(ctx, ev.WebhookEventID) {
			h.log.Debug(ctx, "skipping redelivered event",
				logger.String("event_id", ev.WebhookEventID))
			return
		}
	}

	var err error
	switch {
	case ev.Type == EventTypeFollow:
		err = h.handleFollow(ctx, ev)
	case ev.Type == EventTypeMessage && ev.Message != nil && ev.Message.Type == MessageTypeImage:
		err = h.handleImage(ctx, ev)
	case ev.Type == EventTypeMessage && ev.Message != nil && ev.Message.Type == MessageTypeText:
		err = h.handleText(ctx, ev)
	default:
		return
	}

	if err != nil {
		// Give the redelivery a chance to succeed.
		if ev.WebhookEventID != "" && h.deps.Deduper != nil {
			h.deps.Deduper.Unrecord(ctx, ev.WebhookEventID)
		}
		h.log.Error(ctx, "event handling failed",
			logger.String("event_id", ev.WebhookEventID),
			logger.String("type", ev.Type),
			logger.Error(err))
	}
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "---"
	}
	return *s
}
