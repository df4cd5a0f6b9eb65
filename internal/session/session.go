// Package session holds per-conversation state: the rolling history window
// and the current system prompt.
package session

import (
	"strings"
	"sync"

	"github.com/flios/wechat-bot-chatgpt/internal/chathistory"
	"github.com/flios/wechat-bot-chatgpt/llm"
)

// FallbackSystemPrompt is used when no default system prompt is configured,
// so a session never carries an empty system instruction.
const FallbackSystemPrompt = "You are a helpful assistant."

// Session is the state of one conversation. All mutations go through methods
// that hold the session mutex, so concurrent replies for the same chat cannot
// interleave partial updates.
type Session struct {
	mu            sync.Mutex
	systemPrompt  string
	defaultPrompt string
	history       *chathistory.Window
}

func newSession(historySize int, defaultPrompt string) *Session {
	defaultPrompt = strings.TrimSpace(defaultPrompt)
	if defaultPrompt == "" {
		defaultPrompt = FallbackSystemPrompt
	}
	return &Session{
		systemPrompt:  defaultPrompt,
		defaultPrompt: defaultPrompt,
		history:       chathistory.NewWindow(historySize),
	}
}

func (s *Session) SystemPrompt() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.systemPrompt
}

// SetSystemPrompt replaces the system instruction. Empty or whitespace-only
// text is ignored and the previous instruction stays in place.
func (s *Session) SetSystemPrompt(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.systemPrompt = text
	return true
}

// ResetSystemPrompt restores the configured default and returns it. History
// is untouched.
func (s *Session) ResetSystemPrompt() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.systemPrompt = s.defaultPrompt
	return s.systemPrompt
}

// ClearHistory empties the window. The system instruction is untouched.
func (s *Session) ClearHistory() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history.Clear()
}

// PromptMessages assembles the completion request sequence: the system
// instruction first, the history window in order, and the new user turn last.
func (s *Session) PromptMessages(input string) []llm.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := make([]llm.Message, 0, s.history.Len()+2)
	msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: s.systemPrompt})
	msgs = append(msgs, s.history.List()...)
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: input})
	return msgs
}

// CommitExchange records one completed round-trip: the user turn, then the
// assistant turn, appended under a single lock so the pair stays adjacent.
// Failed round-trips are never committed.
func (s *Session) CommitExchange(user, assistant llm.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history.Push(user)
	s.history.Push(assistant)
}

// HistorySnapshot returns the current window content in order.
func (s *Session) HistorySnapshot() []llm.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.List()
}
