package workerproc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"go.uber.org/zap"

	"docqa-backend/internal/processing"
	"docqa-backend/internal/queue"
	"docqa-backend/internal/shared/telemetry"
)

// Rebuilder runs one rebuild batch for an owner.
type Rebuilder interface {
	RebuildFor(ctx context.Context, ownerID string) (processing.BatchResult, error)
}

// MessageMeta captures details useful for logging and diagnostics.
type MessageMeta struct {
	BodyLen int
	BodySHA string
}

// ComputeMeta returns the body length and SHA-256 hash.
func ComputeMeta(body string) MessageMeta {
	if body == "" {
		return MessageMeta{BodyLen: 0, BodySHA: ""}
	}
	sum := sha256.Sum256([]byte(body))
	return MessageMeta{BodyLen: len(body), BodySHA: hex.EncodeToString(sum[:])}
}

// ErrEmptyBody indicates an empty queue payload.
type ErrEmptyBody struct {
	Meta MessageMeta
}

func (e ErrEmptyBody) Error() string { return "empty message body" }

// ErrDecode indicates a JSON decode failure.
type ErrDecode struct {
	Meta MessageMeta
	Err  error
}

func (e ErrDecode) Error() string {
	if e.Err == nil {
		return "decode message"
	}
	return "decode message: " + e.Err.Error()
}

// ErrMissingOwnerID indicates a message that names no owner.
type ErrMissingOwnerID struct {
	Meta      MessageMeta
	RequestID string
}

func (e ErrMissingOwnerID) Error() string { return "missing owner id" }

// ErrProcess indicates the batch could not run after successful parsing.
type ErrProcess struct {
	OwnerID   string
	RequestID string
	Err       error
}

func (e ErrProcess) Error() string {
	if e.Err == nil {
		return "rebuild"
	}
	return "rebuild: " + e.Err.Error()
}

func (e ErrProcess) Unwrap() error { return e.Err }

// ParseMessage validates and decodes the queue payload.
func ParseMessage(body string) (queue.Message, MessageMeta, error) {
	meta := ComputeMeta(body)
	if strings.TrimSpace(body) == "" {
		return queue.Message{}, meta, ErrEmptyBody{Meta: meta}
	}

	msg, err := queue.DecodeMessage([]byte(body))
	if err != nil {
		return queue.Message{}, meta, ErrDecode{Meta: meta, Err: err}
	}
	if strings.TrimSpace(msg.OwnerID) == "" {
		return msg, meta, ErrMissingOwnerID{Meta: meta, RequestID: msg.RequestID}
	}
	return msg, meta, nil
}

// HandleMessage runs the rebuild batch a parsed message asks for. Per-document
// failures are part of the result; only a batch that cannot run is an error,
// in which case the message should stay on the queue for redelivery.
func HandleMessage(ctx context.Context, proc Rebuilder, msg queue.Message) (processing.BatchResult, error) {
	if proc == nil {
		return processing.BatchResult{}, errors.New("rebuild service not configured")
	}
	if strings.TrimSpace(msg.OwnerID) == "" {
		return processing.BatchResult{}, ErrMissingOwnerID{RequestID: msg.RequestID}
	}

	logger := telemetry.FromContext(ctx).With(zap.String("owner_id", msg.OwnerID))
	if msg.RequestID != "" {
		logger = logger.With(zap.String("request_id", msg.RequestID))
		ctx = telemetry.WithRequestID(ctx, msg.RequestID)
	}
	ctx = telemetry.WithContext(ctx, logger)

	batch, err := proc.RebuildFor(ctx, msg.OwnerID)
	if err != nil {
		return processing.BatchResult{}, ErrProcess{OwnerID: msg.OwnerID, RequestID: msg.RequestID, Err: err}
	}
	return batch, nil
}
