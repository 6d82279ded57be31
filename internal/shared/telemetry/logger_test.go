package telemetry

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestInfoWritesSortedFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(nil) })

	Info("document.uploaded", map[string]any{"owner_id": "u1", "document_id": "d1"})
	Error("rebuild.failed", map[string]any{"err": errors.New("boom")})

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	ctx := entries[0].ContextMap()
	if ctx["owner_id"] != "u1" || ctx["document_id"] != "d1" {
		t.Fatalf("unexpected fields: %#v", ctx)
	}
	if entries[1].ContextMap()["err"] != "boom" {
		t.Fatalf("expected error field, got %#v", entries[1].ContextMap())
	}
}

func TestFromContextFallsBackToGlobal(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(nil) })

	FromContext(context.Background()).Info("global")
	scoped := L().With(zap.String("request_id", "r1"))
	FromContext(WithContext(context.Background(), scoped)).Info("scoped")

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[1].ContextMap()["request_id"] != "r1" {
		t.Fatalf("expected scoped logger, got %#v", entries[1].ContextMap())
	}
}

func TestRequestIDRoundTrip(t *testing.T) {
	if RequestID(context.Background()) != "" {
		t.Fatalf("expected empty request id")
	}
	ctx := WithRequestID(context.Background(), "req-9")
	if got := RequestID(ctx); got != "req-9" {
		t.Fatalf("expected req-9, got %q", got)
	}
}
