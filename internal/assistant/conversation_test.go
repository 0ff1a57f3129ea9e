package assistant

import (
	"sync"
	"testing"
)

func TestConversationAppendKeepsOrder(t *testing.T) {
	c := NewConversation()
	c.Append("bike stolen", "Section 379")
	c.Append("thief had a knife", "Section 392")

	turns := c.Turns()
	if len(turns) != 4 {
		t.Fatalf("expected 4 turns, got %d", len(turns))
	}
	want := []struct {
		role    Role
		content string
	}{
		{RoleUser, "bike stolen"},
		{RoleAssistant, "Section 379"},
		{RoleUser, "thief had a knife"},
		{RoleAssistant, "Section 392"},
	}
	for i, w := range want {
		if turns[i].Role != w.role || turns[i].Content != w.content {
			t.Fatalf("turn %d: got %s/%q, want %s/%q", i, turns[i].Role, turns[i].Content, w.role, w.content)
		}
	}
}

func TestConversationTurnsIsACopy(t *testing.T) {
	c := NewConversation()
	c.Append("a", "b")

	turns := c.Turns()
	turns[0].Content = "mutated"

	if c.Turns()[0].Content != "a" {
		t.Fatal("history must not be mutable through Turns")
	}
}

func TestConversationConcurrentAppendKeepsPairsTogether(t *testing.T) {
	c := NewConversation()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Append("q", "a")
		}()
	}
	wg.Wait()

	turns := c.Turns()
	if len(turns) != 40 {
		t.Fatalf("expected 40 turns, got %d", len(turns))
	}
	for i := 0; i < len(turns); i += 2 {
		if turns[i].Role != RoleUser || turns[i+1].Role != RoleAssistant {
			t.Fatalf("exchange at %d is interleaved", i)
		}
	}
}

func TestConversationsHaveDistinctIDs(t *testing.T) {
	if NewConversation().ID() == NewConversation().ID() {
		t.Fatal("expected distinct conversation ids")
	}
}

func TestLanguageDirective(t *testing.T) {
	if got := LanguageDirective("Hindi"); got != "Generate the output in Hindi." {
		t.Fatalf("unexpected directive: %q", got)
	}
	if got := LanguageDirective(""); got != "" {
		t.Fatalf("expected empty directive, got %q", got)
	}
}
