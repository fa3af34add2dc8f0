package domain

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/samber/lo"
)

const (
	CommandStart  = "start"
	CommandPlay   = "play"
	CommandStop   = "stop"
	CommandPause  = "pause"
	CommandResume = "resume"
	CommandChat   = "chat"
)

const (
	ChatTypePrivate    = "private"
	ChatTypeGroup      = "group"
	ChatTypeSupergroup = "supergroup"
)

var groupChatTypes = []string{ChatTypeGroup, ChatTypeSupergroup}

// Command is a bot command parsed from an inbound message.
type Command struct {
	ChatID    int64
	ChatType  string
	MessageID int
	Name      string
	Args      []string
}

// CommandFromMessage extracts a command from a Telegram message.
// Commands addressed to a bot (/play@name) are matched by their bare name.
func CommandFromMessage(msg *tgbotapi.Message) (Command, bool) {
	if msg == nil || msg.Chat == nil || !msg.IsCommand() {
		return Command{}, false
	}

	return Command{
		ChatID:    msg.Chat.ID,
		ChatType:  msg.Chat.Type,
		MessageID: msg.MessageID,
		Name:      strings.ToLower(msg.Command()),
		Args:      strings.Fields(msg.CommandArguments()),
	}, true
}

func (c Command) IsGroup() bool {
	return lo.Contains(groupChatTypes, c.ChatType)
}

func (c Command) IsPrivate() bool {
	return c.ChatType == ChatTypePrivate
}

// Argument joins the command arguments with single spaces.
func (c Command) Argument() string {
	return strings.Join(c.Args, " ")
}

// Reply builds the single response a command is answered with.
func (c Command) Reply(text string) Response {
	return Response{
		ChatID:           c.ChatID,
		ReplyToMessageID: c.MessageID,
		Text:             text,
	}
}
