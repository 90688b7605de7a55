package webhook

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/kyoden/utagoe/internal/adapters/repository"
	"github.com/kyoden/utagoe/internal/domain/model"
)

const (
	userCodeLength   = 8
	userCodeCharset  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	userCodeAttempts = 10
)

// handleFollow registers a new user with a unique public code and
// sends the welcome message.
func (h *Handler) handleFollow(ctx context.Context, ev *Event) error {
	userID := ev.Source.UserID

	name, err := h.deps.Bot.Profile(ctx, userID)
	if err != nil || name == "" {
		name = "unknown"
	}

	if _, err := h.ensureUser(ctx, userID, name); err != nil {
		return err
	}

	return h.deps.Bot.ReplyText(ctx, ev.ReplyToken, welcomeMessage(name))
}

// ensureUser registers the user on first contact, whichever event gets
// there first. Every created row carries a unique public code; rows
// that already exist keep theirs.
func (h *Handler) ensureUser(ctx context.Context, userID, name string) (model.User, error) {
	user, err := h.deps.Store.GetUser(ctx, userID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		code, codeErr := h.uniqueUserCode(ctx)
		if codeErr != nil {
			return model.User{}, codeErr
		}
		user = model.User{ID: userID, Name: name, UserCode: code}
	case err != nil:
		return model.User{}, fmt.Errorf("look up user: %w", err)
	default:
		user.Name = name
	}

	if err := h.deps.Store.UpsertUser(ctx, &user); err != nil {
		return model.User{}, fmt.Errorf("register user: %w", err)
	}
	return user, nil
}

func (h *Handler) uniqueUserCode(ctx context.Context) (string, error) {
	for i := 0; i < userCodeAttempts; i++ {
		code := randomUserCode()
		_, err := h.deps.Store.UserByCode(ctx, code)
		if errors.Is(err, repository.ErrNotFound) {
			return code, nil
		}
		if err != nil {
			return "", fmt.Errorf("check user code: %w", err)
		}
	}
	return "", errors.New("could not find a free user code")
}

func randomUserCode() string {
	code := make([]byte, userCodeLength)
	for i := range code {
		code[i] = userCodeCharset[rand.Intn(len(userCodeCharset))]
	}
	return string(code)
}

func welcomeMessage(name string) string {
	return name + "さん、こんにちは！\n" +
		"友だち追加ありがとうございます！\n\n" +
		"このアカウントでは、カラオケの平均点とレーティングを算出できます。\n" +
		"使い方はとても簡単、採点画面の写真を送るだけ！\n\n" +
		"スコアを5件以上登録すると、レーティングが表示されます。\n\n" +
		"「成績確認」→ ランクと平均スコアの確認\n" +
		"「修正」→ 登録済みのスコアを訂正できます\n\n" +
		"ぜひお試しください！"
}
