package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dskvich/voicechat-telegram-bot/pkg/domain"
	"github.com/dskvich/voicechat-telegram-bot/pkg/logger"
)

type Completer interface {
	Complete(ctx context.Context, prompt string, params domain.CompletionParams) (string, error)
}

type assistantService struct {
	completer Completer
	params    domain.CompletionParams
}

func NewAssistantService(completer Completer) *assistantService {
	return &assistantService{
		completer: completer,
		params:    domain.DefaultCompletionParams,
	}
}

// Respond never fails: any upstream error, or an empty completion, turns
// into the static apology.
func (a *assistantService) Respond(ctx context.Context, prompt string) string {
	text, err := a.complete(ctx, prompt)
	if err != nil {
		slog.ErrorContext(ctx, "Generating assistant response", logger.Err(err))
		return domain.AssistantApology
	}
	return text
}

func (a *assistantService) complete(ctx context.Context, prompt string) (string, error) {
	if a.completer == nil {
		return "", fmt.Errorf("%w: no completer configured", domain.ErrAssistant)
	}

	slog.InfoContext(ctx, "Calling language model", "promptLength", len(prompt))

	text, err := a.completer.Complete(ctx, prompt, a.params)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrAssistant, err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: %w", domain.ErrAssistant, errors.New("empty completion"))
	}
	return text, nil
}
