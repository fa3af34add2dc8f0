package workers

import (
	"context"
	"log/slog"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/dskvich/voicechat-telegram-bot/pkg/domain"
	"github.com/dskvich/voicechat-telegram-bot/pkg/logger"
)

type Dispatcher interface {
	Dispatch(ctx context.Context, cmd domain.Command) (domain.Response, bool)
}

type TelegramClient interface {
	GetUpdates() tgbotapi.UpdatesChannel
	SendResponse(ctx context.Context, response *domain.Response)
	SendChatAction(ctx context.Context, chatID int64, action string)
}

type telegramUpdateListener struct {
	client     TelegramClient
	dispatcher Dispatcher
	wg         sync.WaitGroup
}

func NewTelegramUpdateListener(client TelegramClient, dispatcher Dispatcher) (*telegramUpdateListener, error) {
	return &telegramUpdateListener{
		client:     client,
		dispatcher: dispatcher,
	}, nil
}

func (t *telegramUpdateListener) Name() string { return "telegram_listener_worker" }

// Start handles every update on its own goroutine and waits for in-flight
// handlers before returning.
func (t *telegramUpdateListener) Start(ctx context.Context) error {
	slog.Info("Starting worker", "name", t.Name())
	defer slog.Info("Worker stopped", "name", t.Name())
	defer t.wg.Wait()

	updates := t.client.GetUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			t.wg.Add(1)
			go func(update tgbotapi.Update) {
				defer t.wg.Done()
				t.processUpdate(ctx, &update)
			}(update)
		}
	}
}

func (t *telegramUpdateListener) processUpdate(ctx context.Context, update *tgbotapi.Update) {
	ctx = logger.ContextWithRequestID(ctx, int64(update.UpdateID))

	cmd, ok := domain.CommandFromMessage(update.Message)
	if !ok {
		return
	}
	ctx = logger.ContextWithChatID(ctx, cmd.ChatID)

	slog.InfoContext(ctx, "Processing command", "cmd", cmd.Name, "chatType", cmd.ChatType)

	if action := chatAction(cmd); action != "" {
		t.client.SendChatAction(ctx, cmd.ChatID, action)
	}

	response, ok := t.dispatcher.Dispatch(ctx, cmd)
	if !ok {
		return
	}
	t.client.SendResponse(ctx, &response)
}

// chatAction picks the indicator shown while a slow command runs.
func chatAction(cmd domain.Command) string {
	switch {
	case cmd.Name == domain.CommandPlay && len(cmd.Args) > 0 && cmd.IsGroup():
		return tgbotapi.ChatUploadVoice
	case cmd.Name == domain.CommandChat && len(cmd.Args) > 0 && cmd.IsPrivate():
		return tgbotapi.ChatTyping
	default:
		return ""
	}
}
