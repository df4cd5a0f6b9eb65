package relay

import (
	"context"
	"strings"

	"github.com/flios/wechat-bot-chatgpt/internal/command"
	"github.com/flios/wechat-bot-chatgpt/internal/session"
	"github.com/flios/wechat-bot-chatgpt/llm"
)

// process runs one routed job on its conversation's lane: interpret a control
// command or run the completion pipeline, then send exactly one reply.
func (r *Relay) process(ctx context.Context, j job) {
	sess, _ := r.registry.Resolve(j.identity)

	var reply string
	switch kind := command.Classify(j.text); kind {
	case command.Reset:
		sess.ClearHistory()
		reply = replyHistoryCleared
		r.logger.Info("relay_command", "identity", j.identity, "command", kind.String())
	case command.SystemReset:
		restored := sess.ResetSystemPrompt()
		reply = replySystemPromptRestoredPrefix + restored
		r.logger.Info("relay_command", "identity", j.identity, "command", kind.String())
	case command.System:
		prompt := command.StripSystemMarker(j.text)
		if sess.SetSystemPrompt(prompt) {
			reply = replySystemPromptSetPrefix + prompt
		} else {
			reply = replySystemPromptEmpty
		}
		r.logger.Info("relay_command", "identity", j.identity, "command", kind.String(), "prompt_len", len(prompt))
	default:
		reply = r.complete(ctx, sess, j)
	}

	r.send(ctx, j, reply)
}

// complete runs the reply pipeline. On success the (user, assistant) pair is
// committed to history; on failure history stays untouched and the error is
// converted to a user-visible reply.
func (r *Relay) complete(ctx context.Context, sess *session.Session, j job) string {
	msgs := sess.PromptMessages(j.text)

	reqCtx, cancel := context.WithTimeout(ctx, r.cfg.RequestTimeout)
	res, err := r.client.Chat(reqCtx, llm.Request{Model: r.cfg.Model, Messages: msgs})
	cancel()
	if err != nil {
		r.logger.Warn("relay_completion_error", "identity", j.identity, "message_id", j.messageID, "error", err.Error())
		return formatErrorReply(err)
	}

	content := strings.TrimSpace(res.Message.Content)
	role := res.Message.Role
	if role == "" {
		role = llm.RoleAssistant
	}
	sess.CommitExchange(
		llm.Message{Role: llm.RoleUser, Content: j.text},
		llm.Message{Role: role, Content: content},
	)
	r.logger.Info("relay_completion",
		"identity", j.identity,
		"message_id", j.messageID,
		"input_tokens", res.Usage.InputTokens,
		"output_tokens", res.Usage.OutputTokens,
		"duration", res.Duration.String(),
	)
	return content
}

// send delivers the reply to the originating conversation. In a room the
// reply mentions the original sender. Send failures are logged only; there is
// no one left to report them to.
func (r *Relay) send(ctx context.Context, j job, reply string) {
	// The original sender sees the reply on its own line.
	out := "\n" + reply
	var err error
	switch {
	case j.roomID != "":
		err = r.gateway.SendRoomText(ctx, j.roomID, out, j.sender)
	case j.sender != nil:
		err = r.gateway.SendContactText(ctx, j.sender.ID, out)
	}
	if err != nil {
		r.logger.Warn("relay_send_error", "identity", j.identity, "message_id", j.messageID, "error", err.Error())
	}
}
