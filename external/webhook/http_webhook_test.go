package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/foxseedlab/firassist/internal/webhook"
)

func TestSendIncident_EmptyWebhookURL(t *testing.T) {
	sender := NewHTTPSender("")
	if err := sender.SendIncident(context.Background(), webhook.IncidentWebhookPayload{Query: "x"}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestSendIncident_Success(t *testing.T) {
	var got webhook.IncidentWebhookPayload

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type: %s", ct)
		}
		if v := r.Header.Get("X-Firassist-Schema"); v != "1" {
			t.Errorf("unexpected schema header: %q", v)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("failed to decode payload: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	sender := NewHTTPSender(server.URL)
	err := sender.SendIncident(context.Background(), webhook.IncidentWebhookPayload{
		ConversationID: "conv-1",
		Channel:        "web",
		InputMode:      "text",
		Language:       "Hindi",
		Query:          "My bike was stolen",
		Reply:          "### IPC\n- Section 379",
		AnsweredAt:     time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if got.SchemaVersion != webhook.IncidentPayloadSchemaVersion {
		t.Fatalf("expected schema version to be filled, got %d", got.SchemaVersion)
	}
	if got.ConversationID != "conv-1" || got.Query != "My bike was stolen" || got.Language != "Hindi" {
		t.Fatalf("unexpected payload: %+v", got)
	}
}

func TestSendIncident_Non2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	sender := NewHTTPSender(server.URL)
	if err := sender.SendIncident(context.Background(), webhook.IncidentWebhookPayload{Query: "x"}); err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}
