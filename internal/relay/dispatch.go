package relay

import (
	"strings"
	"time"

	"github.com/flios/wechat-bot-chatgpt/internal/wechat"
)

// decision is the outcome of classifying one inbound message: either an
// ignore with a reason, or a route to a conversation identity with the
// mention-stripped text.
type decision struct {
	route    bool
	reason   string
	identity string
	text     string
	roomID   string
	sender   *wechat.Contact
}

// Identity namespaces. Room and talker ids come from different platform
// entity spaces; the prefix keeps them from ever colliding in the registry.
const (
	roomIdentityPrefix   = "room:"
	talkerIdentityPrefix = "talker:"
)

// dispatch classifies an inbound message. It is pure: no state is read or
// written beyond the arguments.
func dispatch(msg wechat.Message, botName string, startedAt time.Time) decision {
	if msg.Self {
		return decision{reason: "self"}
	}
	if !msg.Timestamp.IsZero() && msg.Timestamp.Before(startedAt) {
		return decision{reason: "stale"}
	}

	if msg.Room != nil {
		if msg.Room.ID == "" {
			return decision{reason: "malformed"}
		}
		if !msg.MentionSelf && !textMentions(msg.Text, botName) {
			return decision{reason: "not_addressed"}
		}
		return decision{
			route:    true,
			identity: roomIdentityPrefix + msg.Room.ID,
			text:     stripMentions(msg.Text, botName),
			roomID:   msg.Room.ID,
			sender:   msg.Sender,
		}
	}

	if msg.Sender == nil || msg.Sender.ID == "" {
		return decision{reason: "malformed"}
	}
	return decision{
		route:    true,
		identity: talkerIdentityPrefix + msg.Sender.ID,
		text:     stripMentions(msg.Text, botName),
		sender:   msg.Sender,
	}
}

// textMentions reports a textual at-mention of the bot's display name. With
// no known name (logged out) the check is inapplicable.
func textMentions(text, botName string) bool {
	if botName == "" {
		return false
	}
	return strings.Contains(text, "@"+botName)
}

// stripMentions removes every at-mention of the bot from the text before it
// reaches the command interpreter or the user turn.
func stripMentions(text, botName string) string {
	if botName != "" {
		text = strings.ReplaceAll(text, "@"+botName, "")
	}
	return strings.TrimSpace(text)
}
