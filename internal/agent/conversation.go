package agent

import (
	"context"

	"github.com/cloudwego/eino/schema"
)

// ConversationRepository persists a chat's message history across process
// runs, keyed by chat id.
type ConversationRepository interface {
	// AddMessage appends a message to the chat's history.
	AddMessage(ctx context.Context, chatID string, message *schema.Message) error

	// LoadHistory retrieves the chat's full history, oldest first.
	LoadHistory(ctx context.Context, chatID string) (*ConversationHistory, error)

	// ClearHistory removes the chat's persisted history.
	ClearHistory(ctx context.Context, chatID string) error

	// MessageCount returns the number of stored messages in the chat.
	MessageCount(ctx context.Context, chatID string) (int, error)
}

// ConversationHistory is loaded conversation data with its chat id.
type ConversationHistory struct {
	ChatID   string
	Messages []*schema.Message
}
