package entity

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

const (
	MessageRoleUser      = "user"
	MessageRoleAssistant = "assistant"
)

var ErrInvalidMessageRole = errors.New("message role must be user or assistant")

type Message struct {
	Id             uuid.UUID
	ConversationId uuid.UUID
	Position       int
	Role           string
	Content        string
	Timestamp      time.Time
}

// Analytics is a rolling summary of the conversation, overwritten every turn.
type Analytics struct {
	Intent         string      `json:"intent"`
	Category       string      `json:"category"`
	Sentiment      string      `json:"sentiment"`
	ProductContext []uuid.UUID `json:"product_context"`
	Converted      bool        `json:"converted"`
}

type DeviceInfo struct {
	UserAgent string `json:"user_agent,omitempty"`
	Platform  string `json:"platform,omitempty"`
	Language  string `json:"language,omitempty"`
	IP        string `json:"ip,omitempty"`
}

// Conversation is an append-only ledger of chat messages.
type Conversation struct {
	Id         uuid.UUID
	Messages   []Message
	Analytics  *Analytics
	DeviceInfo DeviceInfo
	CreatedAt  time.Time
	UpdatedAt  *time.Time
}

// Append adds msg at the end of the ledger and assigns its position. Existing
// messages are never touched.
func (c *Conversation) Append(msg Message) (Message, error) {
	if msg.Role != MessageRoleUser && msg.Role != MessageRoleAssistant {
		return Message{}, ErrInvalidMessageRole
	}
	msg.ConversationId = c.Id
	msg.Position = len(c.Messages)
	c.Messages = append(c.Messages, msg)
	return msg, nil
}

// LastMessages returns up to n trailing messages in chronological order.
func (c *Conversation) LastMessages(n int) []Message {
	if n <= 0 || len(c.Messages) == 0 {
		return nil
	}
	if n > len(c.Messages) {
		n = len(c.Messages)
	}
	out := make([]Message, n)
	copy(out, c.Messages[len(c.Messages)-n:])
	return out
}
