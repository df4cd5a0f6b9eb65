package relay

import (
	"strings"

	"github.com/flios/wechat-bot-chatgpt/internal/command"
)

// User-facing reply text, kept in Chinese like the rest of the bot's surface.
const (
	replyHistoryCleared = "已经重置会话历史。我已经忘记了我们之前的对话。现在可以重新开始向我提问了。"

	replySystemPromptSetPrefix      = "已经成功设置系统提示。现在的系统提示为：\n"
	replySystemPromptRestoredPrefix = "已经重置系统提示。现在的系统提示为：\n"

	replyCompletionErrorPrefix = "遇到未知错误，请检查是否文本过长，或重试一次！\n> 错误信息：\n"
)

var replySystemPromptEmpty = "系统提示不能为空。请在 " + command.MarkerSystem + " 之后写上新的系统提示。"

// formatErrorReply renders a backend failure as a user-visible reply with the
// error description quoted line by line.
func formatErrorReply(err error) string {
	return replyCompletionErrorPrefix + quoteLines(err.Error())
}

func quoteLines(s string) string {
	return "> " + strings.ReplaceAll(s, "\n", "\n> ")
}
