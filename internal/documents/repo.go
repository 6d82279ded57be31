package documents

import (
	"context"
	"time"
)

// Repo defines persistence operations for documents. Every read except
// GetByShareToken is scoped to an owner.
type Repo interface {
	Create(ctx context.Context, doc Document) error
	GetByID(ctx context.Context, ownerID, documentID string) (Document, error)
	GetByShareToken(ctx context.Context, token string) (Document, error)
	// ListByOwner returns one page, newest first, plus the owner's total.
	ListByOwner(ctx context.Context, ownerID string, offset, limit int) ([]Document, int, error)
	// ListPending returns documents without extracted text in insertion order.
	ListPending(ctx context.Context, ownerID string) ([]Document, error)
	// SetExtractedText replaces the text and processed time in one update.
	SetExtractedText(ctx context.Context, ownerID, documentID, text string, at time.Time) error
	CountByOwner(ctx context.Context, ownerID string) (Counts, error)
}
