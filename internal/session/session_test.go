package session

import (
	"testing"

	"github.com/flios/wechat-bot-chatgpt/llm"
)

func TestPromptMessagesOrdering(t *testing.T) {
	s := newSession(8, "be terse")
	s.CommitExchange(
		llm.Message{Role: llm.RoleUser, Content: "q1"},
		llm.Message{Role: llm.RoleAssistant, Content: "a1"},
	)

	msgs := s.PromptMessages("q2")
	if len(msgs) != 4 {
		t.Fatalf("len = %d, want 4", len(msgs))
	}
	if msgs[0].Role != llm.RoleSystem || msgs[0].Content != "be terse" {
		t.Fatalf("first message = %#v, want system instruction", msgs[0])
	}
	if msgs[1].Content != "q1" || msgs[2].Content != "a1" {
		t.Fatalf("history out of order: %#v", msgs[1:3])
	}
	last := msgs[len(msgs)-1]
	if last.Role != llm.RoleUser || last.Content != "q2" {
		t.Fatalf("last message = %#v, want new user turn", last)
	}
}

func TestPromptMessagesSingleSystemInstruction(t *testing.T) {
	s := newSession(4, "default")
	s.SetSystemPrompt("You are a pirate.")
	msgs := s.PromptMessages("hi")
	systems := 0
	for _, m := range msgs {
		if m.Role == llm.RoleSystem {
			systems++
		}
	}
	if systems != 1 {
		t.Fatalf("system turns = %d, want exactly 1", systems)
	}
	if msgs[0].Content != "You are a pirate." {
		t.Fatalf("system content = %q", msgs[0].Content)
	}
}

func TestSetSystemPromptRejectsEmpty(t *testing.T) {
	s := newSession(4, "default")
	if s.SetSystemPrompt("   ") {
		t.Fatal("whitespace-only prompt should be rejected")
	}
	if got := s.SystemPrompt(); got != "default" {
		t.Fatalf("system prompt = %q, want unchanged default", got)
	}
}

func TestResetSystemPromptRestoresDefaultAndKeepsHistory(t *testing.T) {
	s := newSession(4, "default")
	s.SetSystemPrompt("custom")
	s.CommitExchange(
		llm.Message{Role: llm.RoleUser, Content: "q"},
		llm.Message{Role: llm.RoleAssistant, Content: "a"},
	)

	restored := s.ResetSystemPrompt()
	if restored != "default" {
		t.Fatalf("restored = %q, want default", restored)
	}
	if len(s.HistorySnapshot()) != 2 {
		t.Fatalf("history len = %d, want 2 (reset must not touch history)", len(s.HistorySnapshot()))
	}
}

func TestClearHistoryKeepsSystemPrompt(t *testing.T) {
	s := newSession(4, "default")
	s.SetSystemPrompt("custom")
	s.CommitExchange(
		llm.Message{Role: llm.RoleUser, Content: "q"},
		llm.Message{Role: llm.RoleAssistant, Content: "a"},
	)

	s.ClearHistory()
	if len(s.HistorySnapshot()) != 0 {
		t.Fatal("history should be empty after clear")
	}
	msgs := s.PromptMessages("next")
	if msgs[0].Content != "custom" {
		t.Fatalf("system prompt = %q, want custom to survive history reset", msgs[0].Content)
	}
}

func TestEmptyDefaultPromptFallsBack(t *testing.T) {
	s := newSession(4, "  ")
	if got := s.SystemPrompt(); got != FallbackSystemPrompt {
		t.Fatalf("system prompt = %q, want fallback", got)
	}
}

func TestRegistryResolveCreatesOnce(t *testing.T) {
	r := NewRegistry(4, "default")

	a, created := r.Resolve("room:1")
	if !created {
		t.Fatal("first resolve should create")
	}
	b, created := r.Resolve("room:1")
	if created {
		t.Fatal("second resolve should not create")
	}
	if a != b {
		t.Fatal("resolve must return the same session instance per identity")
	}

	c, _ := r.Resolve("talker:1")
	if c == a {
		t.Fatal("distinct identities must get distinct sessions")
	}
	if r.Len() != 2 {
		t.Fatalf("len = %d, want 2", r.Len())
	}
}

func TestRegistrySessionsAreIsolated(t *testing.T) {
	r := NewRegistry(4, "default")
	a, _ := r.Resolve("room:1")
	b, _ := r.Resolve("room:2")

	a.SetSystemPrompt("only for room 1")
	a.CommitExchange(
		llm.Message{Role: llm.RoleUser, Content: "q"},
		llm.Message{Role: llm.RoleAssistant, Content: "a"},
	)

	if b.SystemPrompt() != "default" {
		t.Fatalf("room 2 prompt = %q, want default", b.SystemPrompt())
	}
	if len(b.HistorySnapshot()) != 0 {
		t.Fatal("room 2 history should be empty")
	}
}
