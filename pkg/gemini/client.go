package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/dskvich/voicechat-telegram-bot/pkg/domain"
)

const DefaultModel = "gemini-2.0-flash"

type client struct {
	api   *genai.Client
	model string
}

func NewClient(ctx context.Context, apiKey, model string) (*client, error) {
	if apiKey == "" {
		return nil, errors.New("api key is empty")
	}
	if model == "" {
		model = DefaultModel
	}

	api, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	return &client{api: api, model: model}, nil
}

func (c *client) Complete(ctx context.Context, prompt string, params domain.CompletionParams) (string, error) {
	resp, err := c.api.Models.GenerateContent(ctx, c.model, genai.Text(prompt), &genai.GenerateContentConfig{
		MaxOutputTokens: int32(params.MaxTokens),
		Temperature:     genai.Ptr(params.Temperature),
		CandidateCount:  int32(params.Candidates),
	})
	if err != nil {
		return "", fmt.Errorf("generating content: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", errors.New("empty response text")
	}
	return text, nil
}
