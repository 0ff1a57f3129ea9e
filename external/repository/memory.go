package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/foxseedlab/firassist/internal/repository"
)

// MemoryRepository keeps the archive in process memory when no database is configured.
type MemoryRepository struct {
	mu            sync.Mutex
	conversations map[string]*repository.Conversation
	turns         map[string][]repository.Turn
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		conversations: make(map[string]*repository.Conversation),
		turns:         make(map[string][]repository.Turn),
	}
}

var _ repository.Repository = (*MemoryRepository)(nil)

func (r *MemoryRepository) CreateConversation(_ context.Context, input repository.CreateConversationInput) (*repository.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	if c, ok := r.conversations[input.ID]; ok {
		c.UpdatedAt = now
		c.LanguageName = input.LanguageName
		out := *c
		return &out, nil
	}
	c := &repository.Conversation{
		ID:           input.ID,
		Channel:      input.Channel,
		OwnerID:      input.OwnerID,
		LanguageName: input.LanguageName,
		StartedAt:    input.StartedAt,
		UpdatedAt:    now,
	}
	r.conversations[input.ID] = c
	out := *c
	return &out, nil
}

func (r *MemoryRepository) AppendTurns(_ context.Context, input repository.AppendTurnsInput) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conversations[input.ConversationID]
	if !ok {
		return fmt.Errorf("%w: %s", repository.ErrConversationNotFound, input.ConversationID)
	}
	next := len(r.turns[input.ConversationID])
	for i, t := range input.Turns {
		r.turns[input.ConversationID] = append(r.turns[input.ConversationID], repository.Turn{
			ConversationID: input.ConversationID,
			TurnIndex:      next + i,
			Role:           t.Role,
			Content:        t.Content,
			InputMode:      t.InputMode,
			CreatedAt:      t.At,
		})
	}
	c.UpdatedAt = time.Now()
	return nil
}

func (r *MemoryRepository) ListTurns(_ context.Context, conversationID string) ([]repository.Turn, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	src := r.turns[conversationID]
	out := make([]repository.Turn, len(src))
	copy(out, src)
	return out, nil
}
