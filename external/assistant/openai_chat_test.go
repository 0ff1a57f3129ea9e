package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/foxseedlab/firassist/internal/assistant"
	"github.com/foxseedlab/firassist/internal/failure"
	"github.com/sashabaranov/go-openai"
)

func newTestServer(t *testing.T, handler func(req openai.ChatCompletionRequest) (int, any)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected authorization header: %q", got)
		}
		var req openai.ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		status, body := handler(req)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestAssistant(srv *httptest.Server) *ChatAssistant {
	return NewChatAssistant(ChatConfig{
		APIKey:  "test-key",
		BaseURL: srv.URL + "/v1/",
		Model:   "test-model",
	}, nil)
}

func TestReplySendsHistoryAndLanguageDirective(t *testing.T) {
	var got openai.ChatCompletionRequest
	srv := newTestServer(t, func(req openai.ChatCompletionRequest) (int, any) {
		got = req
		return http.StatusOK, openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{{
				Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: "### IPC\n- **Section 379**: theft\n"},
			}},
		}
	})

	reply, err := newTestAssistant(srv).Reply(context.Background(), assistant.ReplyRequest{
		History: []assistant.Turn{
			{Role: assistant.RoleUser, Content: "earlier question"},
			{Role: assistant.RoleAssistant, Content: "earlier answer"},
		},
		Message:      "My bike was stolen",
		LanguageName: "Hindi",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != "### IPC\n- **Section 379**: theft" {
		t.Fatalf("unexpected reply: %q", reply)
	}
	if got.Model != "test-model" {
		t.Fatalf("unexpected model: %q", got.Model)
	}
	if len(got.Messages) != 4 {
		t.Fatalf("expected system + 2 history + user messages, got %d", len(got.Messages))
	}
	if got.Messages[0].Role != openai.ChatMessageRoleSystem || got.Messages[0].Content != assistant.SystemInstruction {
		t.Fatalf("unexpected system message: %+v", got.Messages[0])
	}
	if got.Messages[1].Role != openai.ChatMessageRoleUser || got.Messages[2].Role != openai.ChatMessageRoleAssistant {
		t.Fatalf("history roles out of order: %s, %s", got.Messages[1].Role, got.Messages[2].Role)
	}
	if got.Messages[3].Content != "My bike was stolen\n\nGenerate the output in Hindi." {
		t.Fatalf("unexpected user message: %q", got.Messages[3].Content)
	}
}

func TestReplyHTTPErrorIsServiceUnavailable(t *testing.T) {
	srv := newTestServer(t, func(openai.ChatCompletionRequest) (int, any) {
		return http.StatusTooManyRequests, map[string]any{"error": map[string]any{"message": "quota", "type": "rate_limit"}}
	})

	_, err := newTestAssistant(srv).Reply(context.Background(), assistant.ReplyRequest{Message: "x"})
	if !errors.Is(err, failure.ErrServiceUnavailable) {
		t.Fatalf("expected service unavailable, got %v", err)
	}
}

func TestReplyEmptyChoicesIsServiceUnavailable(t *testing.T) {
	srv := newTestServer(t, func(openai.ChatCompletionRequest) (int, any) {
		return http.StatusOK, openai.ChatCompletionResponse{}
	})

	_, err := newTestAssistant(srv).Reply(context.Background(), assistant.ReplyRequest{Message: "x"})
	if !errors.Is(err, failure.ErrServiceUnavailable) {
		t.Fatalf("expected service unavailable, got %v", err)
	}
}
