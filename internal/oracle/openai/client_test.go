package openai

import (
	"context"
	"errors"
	"strings"
	"testing"

	goopenai "github.com/sashabaranov/go-openai"
)

type fakeCompleter struct {
	req  goopenai.ChatCompletionRequest
	resp goopenai.ChatCompletionResponse
	err  error
}

func (f *fakeCompleter) CreateChatCompletion(ctx context.Context, req goopenai.ChatCompletionRequest) (goopenai.ChatCompletionResponse, error) {
	f.req = req
	return f.resp, f.err
}

func TestAnswer(t *testing.T) {
	api := &fakeCompleter{resp: goopenai.ChatCompletionResponse{
		Choices: []goopenai.ChatCompletionChoice{{
			Message: goopenai.ChatCompletionMessage{Content: "See [Page 4]."},
		}},
	}}
	c := NewWithAPI(api, "gpt-test")

	ans, err := c.Answer(context.Background(), "doc", "Where?")
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if len(ans.Citations) != 1 || ans.Citations[0] != "[Page 4]" {
		t.Fatalf("unexpected citations %v", ans.Citations)
	}
	if api.req.Model != "gpt-test" || !strings.Contains(api.req.Messages[0].Content, "Document Content:\ndoc") {
		t.Fatalf("unexpected request %+v", api.req)
	}
}

func TestAnswerErrors(t *testing.T) {
	c := NewWithAPI(&fakeCompleter{}, "")
	if _, err := c.Answer(context.Background(), "doc", "q"); err == nil {
		t.Fatal("expected error for missing choices")
	}

	boom := errors.New("rate limited")
	c = NewWithAPI(&fakeCompleter{err: boom}, "")
	if _, err := c.Answer(context.Background(), "doc", "q"); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestNewRequiresKeyOrBaseURL(t *testing.T) {
	if _, err := New("", "", ""); err == nil {
		t.Fatal("expected error without key or base url")
	}
	if _, err := New("", "http://localhost:11434/v1", "llama3"); err != nil {
		t.Fatalf("local server should not need a key: %v", err)
	}
}
