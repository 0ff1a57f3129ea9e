package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/foxseedlab/firassist/internal/assistant"
	"github.com/foxseedlab/firassist/internal/failure"
	"github.com/foxseedlab/firassist/internal/metrics"
	"github.com/sashabaranov/go-openai"
)

type ChatConfig struct {
	APIKey            string
	BaseURL           string
	Model             string
	Temperature       float32
	MaxOutputTokens   int
	SystemInstruction string
}

// ChatAssistant talks to any OpenAI-compatible chat completions endpoint.
type ChatAssistant struct {
	client            *openai.Client
	model             string
	temperature       float32
	maxTokens         int
	systemInstruction string
	metrics           *metrics.Metrics
}

func NewChatAssistant(cfg ChatConfig, m *metrics.Metrics) *ChatAssistant {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); base != "" {
		clientCfg.BaseURL = base
	}
	instruction := cfg.SystemInstruction
	if instruction == "" {
		instruction = assistant.SystemInstruction
	}
	return &ChatAssistant{
		client:            openai.NewClientWithConfig(clientCfg),
		model:             cfg.Model,
		temperature:       cfg.Temperature,
		maxTokens:         cfg.MaxOutputTokens,
		systemInstruction: instruction,
		metrics:           m,
	}
}

var _ assistant.Assistant = (*ChatAssistant)(nil)

func (a *ChatAssistant) Reply(ctx context.Context, req assistant.ReplyRequest) (string, error) {
	start := time.Now()
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       a.model,
		Messages:    a.buildMessages(req),
		Temperature: a.temperature,
		MaxTokens:   a.maxTokens,
	})
	a.observe(time.Since(start))
	if err != nil {
		a.fail()
		slog.Warn("chat completion failed", "model", a.model, "error", err)
		return "", fmt.Errorf("chat completion: %v: %w", err, failure.ErrServiceUnavailable)
	}
	if len(resp.Choices) == 0 {
		a.fail()
		return "", fmt.Errorf("chat completion returned no choices: %w", failure.ErrServiceUnavailable)
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		a.fail()
		return "", fmt.Errorf("chat completion returned empty content (finish reason %q): %w", resp.Choices[0].FinishReason, failure.ErrServiceUnavailable)
	}
	slog.Debug("chat completion received", "model", a.model, "chars", len(text), "history_turns", len(req.History))
	return text, nil
}

func (a *ChatAssistant) buildMessages(req assistant.ReplyRequest) []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.History)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: a.systemInstruction,
	})
	for _, turn := range req.History {
		role := openai.ChatMessageRoleUser
		if turn.Role == assistant.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: turn.Content})
	}

	content := req.Message
	if directive := assistant.LanguageDirective(req.LanguageName); directive != "" {
		content = content + "\n\n" + directive
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: content,
	})
	return messages
}

func (a *ChatAssistant) observe(elapsed time.Duration) {
	if a.metrics != nil {
		a.metrics.AssistantDuration.Observe(elapsed.Seconds())
	}
}

func (a *ChatAssistant) fail() {
	if a.metrics != nil {
		a.metrics.AssistantFailures.Inc()
	}
}
