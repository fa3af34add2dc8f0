package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/dskvich/voicechat-telegram-bot/pkg/domain"
)

const DefaultModel = openai.GPT3Dot5Turbo

type client struct {
	api   *openai.Client
	model string
}

// NewClient builds a completion client. An empty baseURL selects the public API.
func NewClient(token, baseURL, model string) (*client, error) {
	if token == "" {
		return nil, errors.New("token is empty")
	}
	if model == "" {
		model = DefaultModel
	}

	cfg := openai.DefaultConfig(token)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	return &client{
		api:   openai.NewClientWithConfig(cfg),
		model: model,
	}, nil
}

func (c *client) Complete(ctx context.Context, prompt string, params domain.CompletionParams) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   params.MaxTokens,
		Temperature: params.Temperature,
		N:           params.Candidates,
	})
	if err != nil {
		return "", fmt.Errorf("creating chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("no choices in response")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
