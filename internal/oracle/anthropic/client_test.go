package anthropic

import (
	"context"
	"errors"
	"testing"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

type fakeSender struct {
	params sdk.MessageNewParams
	err    error
}

func (f *fakeSender) New(ctx context.Context, body sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error) {
	f.params = body
	if f.err != nil {
		return nil, f.err
	}
	return &sdk.Message{}, nil
}

func TestAnswerPropagatesErrors(t *testing.T) {
	boom := errors.New("overloaded")
	c := NewWithSender(&fakeSender{err: boom}, "")
	if _, err := c.Answer(context.Background(), "doc", "q"); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestAnswerRejectsEmptyContent(t *testing.T) {
	sender := &fakeSender{}
	c := NewWithSender(sender, "claude-test")
	if _, err := c.Answer(context.Background(), "doc", "q"); err == nil {
		t.Fatal("expected error for empty content")
	}
	if string(sender.params.Model) != "claude-test" || sender.params.MaxTokens != defaultMaxTokens {
		t.Fatalf("unexpected params %+v", sender.params)
	}
}

func TestNewRequiresKey(t *testing.T) {
	if _, err := New(" ", ""); err == nil {
		t.Fatal("expected missing key error")
	}
}
