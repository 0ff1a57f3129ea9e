package webhook

import (
	"context"
	"time"
)

const IncidentPayloadSchemaVersion = 1

// IncidentWebhookPayload announces one answered incident description. Audio is never sent.
type IncidentWebhookPayload struct {
	SchemaVersion  int       `json:"schema_version"`
	ConversationID string    `json:"conversation_id"`
	Channel        string    `json:"channel"`
	InputMode      string    `json:"input_mode"`
	Language       string    `json:"language"`
	Transcript     string    `json:"transcript,omitempty"`
	Query          string    `json:"query"`
	Reply          string    `json:"reply"`
	Notices        []string  `json:"notices,omitempty"`
	AnsweredAt     time.Time `json:"answered_at"`
}

type Sender interface {
	SendIncident(ctx context.Context, payload IncidentWebhookPayload) error
}
