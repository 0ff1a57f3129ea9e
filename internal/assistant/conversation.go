package assistant

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Turn struct {
	Role    Role
	Content string
	At      time.Time
}

// Conversation is the append-only history of one officer's session. It is owned by the
// caller and passed explicitly to every request.
type Conversation struct {
	id string

	mu    sync.RWMutex
	turns []Turn
}

func NewConversation() *Conversation {
	return &Conversation{id: uuid.NewString()}
}

func (c *Conversation) ID() string { return c.id }

// Append records a completed exchange. Both turns are added together so a failed request
// never leaves a dangling user turn.
func (c *Conversation) Append(user, reply string) []Turn {
	now := time.Now()
	added := []Turn{
		{Role: RoleUser, Content: user, At: now},
		{Role: RoleAssistant, Content: reply, At: now},
	}
	c.mu.Lock()
	c.turns = append(c.turns, added...)
	c.mu.Unlock()
	return added
}

// Turns returns a copy of the history in order.
func (c *Conversation) Turns() []Turn {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.turns)
}
