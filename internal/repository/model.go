package repository

import "time"

type Channel string

const (
	ChannelWeb     Channel = "web"
	ChannelDiscord Channel = "discord"
	ChannelCLI     Channel = "cli"
)

type Conversation struct {
	ID           string
	Channel      Channel
	OwnerID      string
	LanguageName string
	StartedAt    time.Time
	UpdatedAt    time.Time
}

// Turn is one archived message. Only text is stored; audio never leaves memory.
type Turn struct {
	ConversationID string
	TurnIndex      int
	Role           string
	Content        string
	InputMode      string
	CreatedAt      time.Time
}
