package workerproc

import (
	"context"
	"errors"
	"testing"

	"docqa-backend/internal/processing"
	"docqa-backend/internal/queue"
	"docqa-backend/internal/shared/telemetry"
)

type stubRebuilder struct {
	owner     string
	requestID string
	err       error
}

func (s *stubRebuilder) RebuildFor(ctx context.Context, ownerID string) (processing.BatchResult, error) {
	s.owner = ownerID
	s.requestID = telemetry.RequestID(ctx)
	if s.err != nil {
		return processing.BatchResult{}, s.err
	}
	return processing.BatchResult{Succeeded: 1, Results: []processing.DocumentResult{{DocumentID: "d1", Status: processing.StatusSuccess}}}, nil
}

func TestParseMessage(t *testing.T) {
	if _, _, err := ParseMessage("   "); !errors.As(err, new(ErrEmptyBody)) {
		t.Fatalf("expected empty body error, got %v", err)
	}

	_, meta, err := ParseMessage("{oops")
	var decodeErr ErrDecode
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected decode error, got %v", err)
	}
	if meta.BodyLen != 5 || meta.BodySHA == "" {
		t.Fatalf("unexpected meta %+v", meta)
	}

	_, _, err = ParseMessage(`{"requestId":"r1","version":1}`)
	var missing ErrMissingOwnerID
	if !errors.As(err, &missing) || missing.RequestID != "r1" {
		t.Fatalf("expected missing owner error, got %v", err)
	}

	msg, _, err := ParseMessage(`{"ownerId":"owner-1","documentId":"d1","version":1}`)
	if err != nil || msg.OwnerID != "owner-1" || msg.DocumentID != "d1" {
		t.Fatalf("unexpected parse result %+v %v", msg, err)
	}
}

func TestHandleMessageRunsBatchWithRequestID(t *testing.T) {
	stub := &stubRebuilder{}
	batch, err := HandleMessage(context.Background(), stub, queue.Message{OwnerID: "owner-1", RequestID: "req-7"})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if stub.owner != "owner-1" || stub.requestID != "req-7" {
		t.Fatalf("unexpected call owner=%s request=%s", stub.owner, stub.requestID)
	}
	if batch.Succeeded != 1 {
		t.Fatalf("unexpected batch %+v", batch)
	}
}

func TestHandleMessageWrapsBatchFailure(t *testing.T) {
	boom := errors.New("db down")
	_, err := HandleMessage(context.Background(), &stubRebuilder{err: boom}, queue.Message{OwnerID: "owner-1"})
	var procErr ErrProcess
	if !errors.As(err, &procErr) || procErr.OwnerID != "owner-1" {
		t.Fatalf("expected process error, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("expected cause to unwrap")
	}
}
