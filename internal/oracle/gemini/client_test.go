package gemini

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/generative-ai-go/genai"

	"docqa-backend/internal/oracle"
)

type fakeGenerator struct {
	parts []genai.Part
	reply string
	err   error
}

func (f *fakeGenerator) GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	f.parts = parts
	if f.err != nil {
		return nil, f.err
	}
	if f.reply == "" {
		return &genai.GenerateContentResponse{}, nil
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Text(f.reply)}},
		}},
	}, nil
}

func TestAnswerParsesCitations(t *testing.T) {
	gen := &fakeGenerator{reply: "It is blue [Page 2] and round [Section Shapes] [Page 2]."}
	c := NewWithGenerator(gen)

	ans, err := c.Answer(context.Background(), "doc text", "What colour?")
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if len(ans.Citations) != 3 || ans.Citations[1] != "[Section Shapes]" {
		t.Fatalf("unexpected citations %v", ans.Citations)
	}
	prompt, ok := gen.parts[0].(genai.Text)
	if !ok || !strings.Contains(string(prompt), "User Question: What colour?") {
		t.Fatalf("prompt missing question: %v", gen.parts)
	}
}

func TestExtractSendsBlob(t *testing.T) {
	gen := &fakeGenerator{reply: "extracted"}
	c := NewWithGenerator(gen)

	text, err := c.ExtractText(context.Background(), oracle.File{Name: "a.png", MediaType: "image/png", Data: []byte{1, 2}})
	if err != nil || text != "extracted" {
		t.Fatalf("unexpected result %q err=%v", text, err)
	}
	blob, ok := gen.parts[1].(genai.Blob)
	if !ok || blob.MIMEType != "image/png" || len(blob.Data) != 2 {
		t.Fatalf("expected inline blob, got %#v", gen.parts[1])
	}
}

func TestEmptyResponseAndErrors(t *testing.T) {
	c := NewWithGenerator(&fakeGenerator{})
	if _, err := c.Answer(context.Background(), "t", "q"); err == nil {
		t.Fatal("expected error for empty response")
	}

	boom := errors.New("quota")
	c = NewWithGenerator(&fakeGenerator{err: boom})
	if _, err := c.ExtractText(context.Background(), oracle.File{}); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}
