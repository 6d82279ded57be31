// Package openai answers questions through the OpenAI Chat Completions API
// or any server that speaks it.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"

	"docqa-backend/internal/oracle"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-4o-mini"

// ChatCompleter is the subset of *goopenai.Client used here.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req goopenai.ChatCompletionRequest) (goopenai.ChatCompletionResponse, error)
}

// Client implements oracle.Answerer.
type Client struct {
	api   ChatCompleter
	model string
}

// New builds a client. baseURL points at an OpenAI-compatible server; when it
// is set the API key may be empty.
func New(apiKey, baseURL, model string) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if strings.TrimSpace(apiKey) == "" && baseURL == "" {
		return nil, errors.New("OPENAI_API_KEY is required")
	}
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	cfg := goopenai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Client{api: goopenai.NewClientWithConfig(cfg), model: model}, nil
}

// NewWithAPI builds a client around an existing completer.
func NewWithAPI(api ChatCompleter, model string) *Client {
	if model == "" {
		model = DefaultModel
	}
	return &Client{api: api, model: model}
}

// Answer asks the question against text.
func (c *Client) Answer(ctx context.Context, text, question string) (oracle.Answer, error) {
	resp, err := c.api.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: c.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleUser, Content: oracle.AnswerPrompt(text, question)},
		},
		Temperature: 0,
	})
	if err != nil {
		return oracle.Answer{}, fmt.Errorf("openai answer: %w", err)
	}
	if len(resp.Choices) == 0 {
		return oracle.Answer{}, errors.New("openai response missing choices")
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return oracle.Answer{}, errors.New("openai response empty content")
	}
	return oracle.NewAnswer(content), nil
}

var _ oracle.Answerer = (*Client)(nil)
