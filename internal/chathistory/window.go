// Package chathistory keeps the rolling conversation window for one chat.
package chathistory

import "github.com/flios/wechat-bot-chatgpt/llm"

// Window is a fixed-capacity, order-preserving buffer of turns. When full,
// pushing evicts the oldest turn. A zero capacity retains nothing.
//
// Window is not safe for concurrent use; the owning session serializes access.
type Window struct {
	capacity int
	turns    []llm.Message
}

func NewWindow(capacity int) *Window {
	if capacity < 0 {
		capacity = 0
	}
	return &Window{capacity: capacity}
}

func (w *Window) Push(turn llm.Message) {
	if w.capacity == 0 {
		return
	}
	w.turns = append(w.turns, turn)
	if len(w.turns) > w.capacity {
		w.turns = w.turns[len(w.turns)-w.capacity:]
	}
}

// List returns a snapshot of the current window in push order. Mutating the
// window afterwards does not affect previously returned slices.
func (w *Window) List() []llm.Message {
	if len(w.turns) == 0 {
		return nil
	}
	return append([]llm.Message(nil), w.turns...)
}

func (w *Window) Clear() {
	w.turns = nil
}

func (w *Window) Len() int {
	return len(w.turns)
}

func (w *Window) Capacity() int {
	return w.capacity
}
