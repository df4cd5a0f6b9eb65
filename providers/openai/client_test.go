package openai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/flios/wechat-bot-chatgpt/llm"
)

func TestChatReturnsAssistantMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %q, want /v1/chat/completions", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"choices": [{"message": {"role": "assistant", "content": "hello there"}}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 3, "total_tokens": 15}
		}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "sk-test", 5*time.Second)
	res, err := c.Chat(context.Background(), llm.Request{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if res.Message.Role != llm.RoleAssistant || res.Message.Content != "hello there" {
		t.Fatalf("message = %#v", res.Message)
	}
	if res.Usage.TotalTokens != 15 {
		t.Fatalf("total tokens = %d, want 15", res.Usage.TotalTokens)
	}
}

func TestChatDefaultsMissingRoleToAssistant(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices": [{"message": {"content": "ok"}}]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "", 5*time.Second)
	res, err := c.Chat(context.Background(), llm.Request{})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if res.Message.Role != llm.RoleAssistant {
		t.Fatalf("role = %q, want assistant", res.Message.Role)
	}
}

func TestChatSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "rate limit exceeded", "type": "rate_limit"}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "sk-test", 5*time.Second)
	_, err := c.Chat(context.Background(), llm.Request{})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "rate limit exceeded") {
		t.Fatalf("error = %q, want rate limit message", err)
	}
	if !strings.Contains(err.Error(), "429") {
		t.Fatalf("error = %q, want status code", err)
	}
}

func TestChatRejectsEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices": []}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "sk-test", 5*time.Second)
	_, err := c.Chat(context.Background(), llm.Request{})
	if err == nil || !strings.Contains(err.Error(), "empty choices") {
		t.Fatalf("error = %v, want empty choices", err)
	}
}
