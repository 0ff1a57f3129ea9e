package repository

import (
	"context"
	"errors"
	"time"
)

var ErrConversationNotFound = errors.New("conversation not found")

type CreateConversationInput struct {
	ID           string
	Channel      Channel
	OwnerID      string
	LanguageName string
	StartedAt    time.Time
}

type TurnInput struct {
	Role      string
	Content   string
	InputMode string
	At        time.Time
}

type AppendTurnsInput struct {
	ConversationID string
	Turns          []TurnInput
}

type ConversationRepository interface {
	// CreateConversation is idempotent on ID; repeating it only refreshes UpdatedAt.
	CreateConversation(ctx context.Context, input CreateConversationInput) (*Conversation, error)
}

type TurnRepository interface {
	// AppendTurns stores the turns after any existing ones, keeping their order.
	AppendTurns(ctx context.Context, input AppendTurnsInput) error
	ListTurns(ctx context.Context, conversationID string) ([]Turn, error)
}

type Repository interface {
	ConversationRepository
	TurnRepository
}
