package webhook

// Envelope is the webhook request body: a batch of events for one bot.
type Envelope struct {
	Destination string  `json:"destination"`
	Events      []Event `json:"events"`
}

// Event is a single webhook event. Only the fields the bot acts on are
// decoded.
type Event struct {
	Type            string           `json:"type"`
	WebhookEventID  string           `json:"webhookEventId"`
	ReplyToken      string           `json:"replyToken"`
	Timestamp       int64            `json:"timestamp"`
	Source          Source           `json:"source"`
	Message         *Message         `json:"message,omitempty"`
	DeliveryContext *DeliveryContext `json:"deliveryContext,omitempty"`
}

// Source identifies who sent the event.
type Source struct {
	Type   string `json:"type"`
	UserID string `json:"userId"`
}

// Message is the message payload of a message event.
type Message struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// DeliveryContext marks redelivered events.
type DeliveryContext struct {
	IsRedelivery bool `json:"isRedelivery"`
}

// Event and message type constants from the messaging platform.
const (
	EventTypeMessage = "message"
	EventTypeFollow  = "follow"

	MessageTypeText  = "text"
	MessageTypeImage = "image"
)
