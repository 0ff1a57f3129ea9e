package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/foxseedlab/firassist/internal/webhook"
)

const webhookTimeout = 10 * time.Second

type HTTPSender struct {
	webhookURL string
	client     *http.Client
}

func NewHTTPSender(webhookURL string) webhook.Sender {
	return &HTTPSender{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: webhookTimeout},
	}
}

func (s *HTTPSender) SendIncident(ctx context.Context, payload webhook.IncidentWebhookPayload) error {
	if s.webhookURL == "" {
		return nil
	}
	if payload.SchemaVersion == 0 {
		payload.SchemaVersion = webhook.IncidentPayloadSchemaVersion
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode incident %s: %w", payload.ConversationID, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build incident webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Firassist-Schema", strconv.Itoa(payload.SchemaVersion))
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("deliver incident %s: %w", payload.ConversationID, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("incident webhook answered %s", resp.Status)
	}
	return nil
}
