package webhook

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/kyoden/utagoe/internal/adapters/repository"
	"github.com/kyoden/utagoe/internal/adapters/session"
	"github.com/kyoden/utagoe/pkg/logger"
	"github.com/kyoden/utagoe/pkg/metrics"
)

const (
	replyNoScoresYet    = "まだスコアが登録されていません。採点画面の写真を送ってみてください！"
	replyCorrectionMenu = "修正したい項目を選んでください"
	replyNothingToFix   = "修正できるスコアがまだありません。"
	replyScoreNotNumber = "数値として認識できませんでした。半角数字で入力してください。"
)

var statsCommands = map[string]bool{
	"成績確認":  true,
	"評価見せて": true,
	"stats": true,
}

var correctionCommands = map[string]bool{
	"修正":  true,
	"fix": true,
}

// fieldLabels maps the quick-reply button labels onto score columns.
var fieldLabels = map[string]session.Field{
	"スコア":    session.FieldScore,
	"曲名":     session.FieldSong,
	"アーティスト": session.FieldArtist,
	"コメント":   session.FieldComment,
}

var fieldMenuOrder = []string{"スコア", "曲名", "アーティスト", "コメント"}

func (h *Handler) handleText(ctx context.Context, ev *Event) error {
	userID := ev.Source.UserID
	text := strings.TrimSpace(ev.Message.Text)

	switch {
	case statsCommands[text]:
		return h.replyStats(ctx, ev.ReplyToken, userID)
	case correctionCommands[text]:
		return h.startCorrection(ctx, ev.ReplyToken, userID)
	}

	if field, label, ok := matchFieldLabel(text); ok {
		if err := h.deps.Sessions.SetAwaitingField(ctx, userID, field); err != nil {
			return fmt.Errorf("store correction step: %w", err)
		}
		return h.deps.Bot.ReplyText(ctx, ev.ReplyToken, "新しい "+label+" を入力してください")
	}

	field, pending, err := h.deps.Sessions.AwaitingField(ctx, userID)
	if err != nil {
		return fmt.Errorf("read correction step: %w", err)
	}
	if pending {
		return h.applyCorrection(ctx, ev.ReplyToken, userID, field, text)
	}

	// Anything else is small talk; the bot stays quiet.
	return nil
}

func (h *Handler) replyStats(ctx context.Context, replyToken, userID string) error {
	metrics.RecordStatsRequest()

	rows, err := h.deps.Store.RecentScores(ctx, userID, h.deps.EvalCount)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}
	if len(rows) == 0 {
		return h.deps.Bot.ReplyText(ctx, replyToken, replyNoScoresYet)
	}

	scores := make([]float64, len(rows))
	for i, r := range rows {
		scores[i] = r.Value
	}

	scoreCount := len(rows)
	if user, err := h.deps.Store.GetUser(ctx, userID); err == nil {
		scoreCount = user.ScoreCount
	}

	summary, ok := h.deps.Presenter.Summarize(scores, scoreCount)
	if !ok {
		return h.deps.Bot.ReplyText(ctx, replyToken, replyNoScoresYet)
	}
	return h.deps.Bot.ReplyText(ctx, replyToken, h.deps.Presenter.ReplyText(summary))
}

func (h *Handler) startCorrection(ctx context.Context, replyToken, userID string) error {
	if err := h.deps.Sessions.ClearAwaitingField(ctx, userID); err != nil {
		return fmt.Errorf("reset correction step: %w", err)
	}
	return h.deps.Bot.ReplyMenu(ctx, replyToken, replyCorrectionMenu, fieldMenuOrder)
}

func (h *Handler) applyCorrection(ctx context.Context, replyToken, userID string, field session.Field, text string) error {
	latest, err := h.deps.Store.LatestScore(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		if clearErr := h.deps.Sessions.ClearAwaitingField(ctx, userID); clearErr != nil {
			h.log.Warn(ctx, "clearing correction step failed", logger.Error(clearErr))
		}
		return h.deps.Bot.ReplyText(ctx, replyToken, replyNothingToFix)
	}
	if err != nil {
		return fmt.Errorf("load latest score: %w", err)
	}

	switch field {
	case session.FieldScore:
		value, parseErr := strconv.ParseFloat(normalizeDigits(text), 64)
		if parseErr != nil {
			// Keep the correction pending so the user can retry.
			return h.deps.Bot.ReplyText(ctx, replyToken, replyScoreNotNumber)
		}
		latest.Value = value
	case session.FieldSong:
		latest.SongName = &text
	case session.FieldArtist:
		latest.ArtistName = &text
	case session.FieldComment:
		latest.Comment = &text
	default:
		return fmt.Errorf("unknown correction field %q", field)
	}

	if err := h.deps.Store.UpdateScore(ctx, &latest); err != nil {
		return fmt.Errorf("apply correction: %w", err)
	}
	if err := h.deps.Sessions.ClearAwaitingField(ctx, userID); err != nil {
		h.log.Warn(ctx, "clearing correction step failed", logger.Error(err))
	}
	metrics.RecordCorrection()

	return h.deps.Bot.ReplyText(ctx, replyToken, submissionReply(&latest))
}

func matchFieldLabel(text string) (session.Field, string, bool) {
	f, ok := fieldLabels[text]
	if !ok {
		return "", "", false
	}
	return f, text, true
}

// Scores typed on a Japanese keyboard arrive as full-width digits.
var digitNormalizer = strings.NewReplacer(
	"０", "0", "１", "1", "２", "2", "３", "3", "４", "4",
	"５", "5", "６", "6", "７", "7", "８", "8", "９", "9",
	"．", ".",
)

func normalizeDigits(s string) string {
	return digitNormalizer.Replace(strings.TrimSpace(s))
}
