// Package gemini implements the oracle on Google Gemini. Gemini reads raw
// file bytes, so it serves both extraction and answering.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"docqa-backend/internal/oracle"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-1.5-pro"

// Generator is the subset of *genai.GenerativeModel used here.
type Generator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// Client implements oracle.Oracle.
type Client struct {
	gen    Generator
	closer func() error
}

// New dials Gemini with apiKey.
func New(ctx context.Context, apiKey, model string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("GEMINI_API_KEY is required")
	}
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini init: %w", err)
	}
	return &Client{gen: client.GenerativeModel(model), closer: client.Close}, nil
}

// NewWithGenerator builds a client around an existing generator.
func NewWithGenerator(gen Generator) *Client {
	return &Client{gen: gen}
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer()
}

// ExtractText sends the file inline and returns the model's transcription.
func (c *Client) ExtractText(ctx context.Context, f oracle.File) (string, error) {
	mediaType := strings.TrimSpace(strings.Split(f.MediaType, ";")[0])
	resp, err := c.gen.GenerateContent(ctx,
		genai.Text(oracle.ExtractPrompt()),
		genai.Blob{MIMEType: mediaType, Data: f.Data},
	)
	if err != nil {
		return "", fmt.Errorf("gemini extract: %w", err)
	}
	return responseText(resp)
}

// Answer asks the question against text.
func (c *Client) Answer(ctx context.Context, text, question string) (oracle.Answer, error) {
	resp, err := c.gen.GenerateContent(ctx, genai.Text(oracle.AnswerPrompt(text, question)))
	if err != nil {
		return oracle.Answer{}, fmt.Errorf("gemini answer: %w", err)
	}
	out, err := responseText(resp)
	if err != nil {
		return oracle.Answer{}, err
	}
	return oracle.NewAnswer(out), nil
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", errors.New("gemini: empty response")
	}
	var b strings.Builder
	for _, cand := range resp.Candidates[:1] {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
	}
	if b.Len() == 0 {
		return "", errors.New("gemini: response has no text")
	}
	return b.String(), nil
}

var _ oracle.Oracle = (*Client)(nil)
