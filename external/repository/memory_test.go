package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/foxseedlab/firassist/internal/repository"
)

func TestMemoryRepository_AppendAndListKeepsOrder(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	if _, err := repo.CreateConversation(ctx, repository.CreateConversationInput{
		ID: "conv-1", Channel: repository.ChannelWeb, OwnerID: "web-1", LanguageName: "Hindi", StartedAt: time.Now(),
	}); err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}
	for _, pair := range [][2]string{{"q1", "a1"}, {"q2", "a2"}} {
		err := repo.AppendTurns(ctx, repository.AppendTurnsInput{
			ConversationID: "conv-1",
			Turns: []repository.TurnInput{
				{Role: "user", Content: pair[0], InputMode: "text", At: time.Now()},
				{Role: "assistant", Content: pair[1], At: time.Now()},
			},
		})
		if err != nil {
			t.Fatalf("unexpected append error: %v", err)
		}
	}

	turns, err := repo.ListTurns(ctx, "conv-1")
	if err != nil {
		t.Fatalf("unexpected list error: %v", err)
	}
	want := []string{"q1", "a1", "q2", "a2"}
	if len(turns) != len(want) {
		t.Fatalf("expected %d turns, got %d", len(want), len(turns))
	}
	for i, w := range want {
		if turns[i].Content != w || turns[i].TurnIndex != i {
			t.Fatalf("turn %d: got %q at index %d", i, turns[i].Content, turns[i].TurnIndex)
		}
	}
}

func TestMemoryRepository_CreateIsIdempotent(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	input := repository.CreateConversationInput{ID: "conv-1", Channel: repository.ChannelDiscord, OwnerID: "vc-1", LanguageName: "Tamil", StartedAt: time.Now()}

	first, err := repo.CreateConversation(ctx, input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	input.LanguageName = "Telugu"
	second, err := repo.CreateConversation(ctx, input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !first.StartedAt.Equal(second.StartedAt) {
		t.Fatal("start time must not change on repeat create")
	}
	if second.LanguageName != "Telugu" {
		t.Fatalf("expected language refresh, got %q", second.LanguageName)
	}
}

func TestMemoryRepository_AppendUnknownConversation(t *testing.T) {
	repo := NewMemoryRepository()
	err := repo.AppendTurns(context.Background(), repository.AppendTurnsInput{
		ConversationID: "missing",
		Turns:          []repository.TurnInput{{Role: "user", Content: "x"}},
	})
	if !errors.Is(err, repository.ErrConversationNotFound) {
		t.Fatalf("expected ErrConversationNotFound, got %v", err)
	}
}
