package webhook

import "context"

// Bot is the outbound side of the messaging platform: replies, user
// profiles and message content downloads.
type Bot interface {
	// ReplyText answers an event with plain text.
	ReplyText(ctx context.Context, replyToken, text string) error

	// ReplyMenu answers with text plus quick-reply buttons; tapping a
	// button sends its label back as a text message.
	ReplyMenu(ctx context.Context, replyToken, text string, labels []string) error

	// Profile returns the display name for a user, or "" when the
	// profile is not accessible.
	Profile(ctx context.Context, userID string) (string, error)

	// MessageContent downloads the binary content of a message, such
	// as a submitted photo.
	MessageContent(ctx context.Context, messageID string) ([]byte, error)
}
