package telegram

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/dskvich/voicechat-telegram-bot/pkg/domain"
	"github.com/dskvich/voicechat-telegram-bot/pkg/logger"
	"github.com/dskvich/voicechat-telegram-bot/pkg/render"
)

// BotAPI is the subset of *tgbotapi.BotAPI used by the client.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

type client struct {
	bot       BotAPI
	updatesCh tgbotapi.UpdatesChannel
}

// NewClient authorizes the bot and starts long polling for updates.
func NewClient(token string, timeout int) (*client, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("creating bot api instance: %w", err)
	}

	slog.Info("authorized on telegram", "account", bot.Self.UserName)

	return newClient(bot, timeout), nil
}

func newClient(bot BotAPI, timeout int) *client {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = timeout

	return &client{
		bot:       bot,
		updatesCh: bot.GetUpdatesChan(u),
	}
}

func (c *client) Name() string { return "telegram_client" }

func (c *client) GetUpdates() tgbotapi.UpdatesChannel {
	return c.updatesCh
}

// SendResponse delivers a reply. Markdown replies go out as HTML and are
// resent as plain text if Telegram rejects the markup.
func (c *client) SendResponse(ctx context.Context, response *domain.Response) {
	msg := tgbotapi.NewMessage(response.ChatID, response.Text)
	msg.ReplyToMessageID = response.ReplyToMessageID

	if response.Markdown {
		html := msg
		html.Text = render.ToHTML(response.Text)
		html.ParseMode = tgbotapi.ModeHTML

		_, err := c.bot.Send(html)
		if err == nil {
			return
		}
		slog.WarnContext(ctx, "Sending HTML reply failed, retrying as plain text", logger.Err(err))
	}

	if _, err := c.bot.Send(msg); err != nil {
		slog.ErrorContext(ctx, "Sending reply", "chatID", response.ChatID, logger.Err(err))
	}
}

func (c *client) SendChatAction(ctx context.Context, chatID int64, action string) {
	if _, err := c.bot.Request(tgbotapi.NewChatAction(chatID, action)); err != nil {
		slog.WarnContext(ctx, "Sending chat action", "action", action, logger.Err(err))
	}
}

func (c *client) Stop() error {
	c.bot.StopReceivingUpdates()
	return nil
}
