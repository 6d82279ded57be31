// Package anthropic answers questions through the Anthropic Messages API.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"docqa-backend/internal/oracle"
)

const (
	// DefaultModel is used when no model is configured.
	DefaultModel     = "claude-3-5-sonnet-latest"
	defaultMaxTokens = 2048
)

// MessageSender is the subset of the Messages service used here.
type MessageSender interface {
	New(ctx context.Context, body sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error)
}

// Client implements oracle.Answerer.
type Client struct {
	messages  MessageSender
	model     string
	maxTokens int64
}

// New builds a client for apiKey.
func New(apiKey, model string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("ANTHROPIC_API_KEY is required")
	}
	cl := sdk.NewClient(option.WithAPIKey(apiKey))
	return NewWithSender(&cl.Messages, model), nil
}

// NewWithSender builds a client around an existing sender.
func NewWithSender(messages MessageSender, model string) *Client {
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	return &Client{messages: messages, model: model, maxTokens: defaultMaxTokens}
}

// Answer asks the question against text.
func (c *Client) Answer(ctx context.Context, text, question string) (oracle.Answer, error) {
	msg, err := c.messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(oracle.AnswerPrompt(text, question))),
		},
	})
	if err != nil {
		return oracle.Answer{}, fmt.Errorf("anthropic answer: %w", err)
	}

	var b strings.Builder
	for _, cb := range msg.Content {
		if tb, ok := cb.AsAny().(sdk.TextBlock); ok {
			b.WriteString(tb.Text)
		}
	}
	if b.Len() == 0 {
		return oracle.Answer{}, errors.New("anthropic response empty content")
	}
	return oracle.NewAnswer(b.String()), nil
}

var _ oracle.Answerer = (*Client)(nil)
