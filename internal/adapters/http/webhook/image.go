package webhook

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/kyoden/utagoe/internal/domain/extract"
	"github.com/kyoden/utagoe/internal/domain/model"
	"github.com/kyoden/utagoe/pkg/logger"
	"github.com/kyoden/utagoe/pkg/metrics"
)

const (
	replyScoreUnreadable = "スコアが読み取れませんでした。画像を確認してください。"
	replyImageFailed     = "画像の処理に失敗しました。もう一度お試しください。"
)

// handleImage runs the submission pipeline: download, OCR, extract,
// parse, persist, enqueue artist registration, reply.
func (h *Handler) handleImage(ctx context.Context, ev *Event) error {
	userID := ev.Source.UserID

	content, err := h.deps.Bot.MessageContent(ctx, ev.Message.ID)
	if err != nil {
		h.replyFailure(ctx, ev.ReplyToken)
		return fmt.Errorf("download image: %w", err)
	}

	fragments, err := h.deps.OCR.DetectFragments(ctx, content)
	if err != nil {
		h.replyFailure(ctx, ev.ReplyToken)
		return fmt.Errorf("ocr: %w", err)
	}

	score, ok := extract.Score(fragments)
	if !ok {
		metrics.RecordExtractionMiss()
		return h.deps.Bot.ReplyText(ctx, ev.ReplyToken, replyScoreUnreadable)
	}

	var fullText string
	if len(fragments) > 0 {
		fullText = fragments[0].Text
	}
	info, err := h.deps.Parser.ParseSongInfo(ctx, fullText)
	if err != nil {
		// Song metadata is best-effort; the score still counts.
		h.log.Warn(ctx, "song parsing failed", logger.Error(err))
	}

	name, err := h.deps.Bot.Profile(ctx, userID)
	if err != nil || name == "" {
		name = "unknown"
	}

	if _, err := h.ensureUser(ctx, userID, name); err != nil {
		h.replyFailure(ctx, ev.ReplyToken)
		return err
	}

	now := time.Now().UTC()
	rec := model.ScoreRecord{
		UserID:     userID,
		Value:      score,
		SongName:   info.SongName,
		ArtistName: info.ArtistName,
		CreatedAt:  now,
	}
	if err := h.deps.Store.AppendScore(ctx, &rec); err != nil {
		h.replyFailure(ctx, ev.ReplyToken)
		return fmt.Errorf("insert score: %w", err)
	}
	if err := h.deps.Store.RecordSubmission(ctx, userID, now); err != nil {
		h.log.Warn(ctx, "updating submission counter failed", logger.Error(err))
	}
	metrics.RecordScoreIngested()

	if info.ArtistName != nil && *info.ArtistName != "" && h.deps.Jobs != nil {
		job := model.ArtistJob{JobID: uuid.NewString(), Name: *info.ArtistName}
		if !h.deps.Jobs.Enqueue(ctx, job) {
			h.log.Warn(ctx, "artist registration queue full",
				logger.String("artist", job.Name))
		}
	}

	return h.deps.Bot.ReplyText(ctx, ev.ReplyToken, submissionReply(&rec))
}

func (h *Handler) replyFailure(ctx context.Context, replyToken string) {
	if err := h.deps.Bot.ReplyText(ctx, replyToken, replyImageFailed); err != nil {
		h.log.Warn(ctx, "failure reply not delivered", logger.Error(err))
	}
}

func submissionReply(rec *model.ScoreRecord) string {
	return "スコア登録完了！\n" +
		"点数: " + strconv.FormatFloat(rec.Value, 'f', -1, 64) + "\n" +
		"曲名: " + orDash(rec.SongName) + "\n" +
		"アーティスト: " + orDash(rec.ArtistName)
}
