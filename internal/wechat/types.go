// Package wechat is the messaging-platform boundary: inbound message and
// lifecycle events plus the outbound send capability, backed by a
// wechaty-style puppet bridge.
package wechat

import (
	"context"
	"time"
)

type Contact struct {
	ID   string
	Name string
}

type Room struct {
	ID    string
	Topic string
}

// Message is one inbound message as reported by the platform. Read-only to
// the rest of the process.
type Message struct {
	ID          string
	Text        string
	Timestamp   time.Time
	Self        bool
	MentionSelf bool
	Sender      *Contact
	Room        *Room
}

type ScanEvent struct {
	URL    string
	Status int
}

// Event is one platform event. Exactly one field is set.
type Event struct {
	Scan    *ScanEvent
	Login   *Contact
	Logout  bool
	Message *Message
	Err     error
}

// Gateway sends outbound text back into the platform and streams inbound
// events. Events() is closed when the underlying transport ends.
type Gateway interface {
	Events() <-chan Event
	SendRoomText(ctx context.Context, roomID, text string, mention *Contact) error
	SendContactText(ctx context.Context, contactID, text string) error
	Close() error
}
