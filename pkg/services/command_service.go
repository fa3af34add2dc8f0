package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dskvich/voicechat-telegram-bot/pkg/domain"
	"github.com/dskvich/voicechat-telegram-bot/pkg/logger"
)

type MediaFetcher interface {
	Fetch(ctx context.Context, query string) (string, error)
}

type VoiceController interface {
	Start(ctx context.Context, chatID int64, path string) error
	Stop(ctx context.Context, chatID int64) error
	Pause(ctx context.Context, chatID int64) error
	Resume(ctx context.Context, chatID int64) error
}

type Assistant interface {
	Respond(ctx context.Context, prompt string) string
}

type scope int

const (
	scopeAny scope = iota
	scopeGroup
	scopePrivate
)

type commandHandler struct {
	scope  scope
	handle func(ctx context.Context, cmd domain.Command) domain.Response
}

// commandService turns bot commands into component calls and answers each
// with exactly one response.
type commandService struct {
	fetcher   MediaFetcher
	voice     VoiceController
	assistant Assistant
	handlers  map[string]commandHandler
}

func NewCommandService(fetcher MediaFetcher, voice VoiceController, assistant Assistant) *commandService {
	c := &commandService{
		fetcher:   fetcher,
		voice:     voice,
		assistant: assistant,
	}
	c.handlers = map[string]commandHandler{
		domain.CommandStart:  {scopeAny, c.start},
		domain.CommandPlay:   {scopeGroup, c.play},
		domain.CommandStop:   {scopeGroup, c.stop},
		domain.CommandPause:  {scopeGroup, c.pause},
		domain.CommandResume: {scopeGroup, c.resume},
		domain.CommandChat:   {scopePrivate, c.chat},
	}
	return c
}

// Dispatch runs cmd and returns its reply. Unknown commands are not
// answered and report false.
func (c *commandService) Dispatch(ctx context.Context, cmd domain.Command) (domain.Response, bool) {
	h, ok := c.handlers[cmd.Name]
	if !ok {
		slog.WarnContext(ctx, "Unhandled command", "cmd", cmd.Name)
		return domain.Response{}, false
	}

	switch {
	case h.scope == scopeGroup && !cmd.IsGroup():
		return cmd.Reply(domain.GroupOnlyMessage), true
	case h.scope == scopePrivate && !cmd.IsPrivate():
		return cmd.Reply(domain.PrivateOnlyMessage), true
	}

	slog.InfoContext(ctx, "Handling command", "cmd", cmd.Name, "args", len(cmd.Args))
	return h.handle(ctx, cmd), true
}

func (c *commandService) start(_ context.Context, cmd domain.Command) domain.Response {
	return cmd.Reply(domain.HelpMessage)
}

func (c *commandService) play(ctx context.Context, cmd domain.Command) domain.Response {
	if len(cmd.Args) == 0 {
		return cmd.Reply(domain.PlayUsageMessage)
	}
	query := cmd.Argument()

	path, err := c.fetcher.Fetch(ctx, query)
	if err != nil {
		slog.ErrorContext(ctx, "Fetching audio", "query", query, logger.Err(err))
		return cmd.Reply(domain.FetchFailedMessage)
	}

	if err := c.voice.Start(ctx, cmd.ChatID, path); err != nil {
		slog.ErrorContext(ctx, "Starting playback", logger.Err(err))
		return cmd.Reply(fmt.Sprintf(domain.PlayFailedMessage, err))
	}

	return cmd.Reply(fmt.Sprintf(domain.PlayingMessage, query))
}

func (c *commandService) stop(ctx context.Context, cmd domain.Command) domain.Response {
	if err := c.voice.Stop(ctx, cmd.ChatID); err != nil {
		slog.ErrorContext(ctx, "Stopping playback", logger.Err(err))
	}
	return cmd.Reply(domain.StoppedMessage)
}

func (c *commandService) pause(ctx context.Context, cmd domain.Command) domain.Response {
	if err := c.voice.Pause(ctx, cmd.ChatID); err != nil {
		slog.ErrorContext(ctx, "Pausing playback", logger.Err(err))
	}
	return cmd.Reply(domain.PausedMessage)
}

func (c *commandService) resume(ctx context.Context, cmd domain.Command) domain.Response {
	if err := c.voice.Resume(ctx, cmd.ChatID); err != nil {
		slog.ErrorContext(ctx, "Resuming playback", logger.Err(err))
	}
	return cmd.Reply(domain.ResumedMessage)
}

func (c *commandService) chat(ctx context.Context, cmd domain.Command) domain.Response {
	if len(cmd.Args) == 0 {
		return cmd.Reply(domain.ChatUsageMessage)
	}

	resp := cmd.Reply(c.assistant.Respond(ctx, cmd.Argument()))
	resp.Markdown = true
	return resp
}
