package documents

import (
	"context"
	"errors"
	"fmt"
	"time"

	"docqa-backend/internal/shared/apperr"
)

// IsQueryable reports whether questions may be asked against doc.
func IsQueryable(doc Document) bool {
	return doc.ExtractedText != nil
}

// Tracker owns the pending/processed lifecycle of documents.
type Tracker struct {
	Repo Repo
	Now  func() time.Time
}

// NewTracker constructs a Tracker using the wall clock.
func NewTracker(repo Repo) *Tracker {
	return &Tracker{Repo: repo, Now: time.Now}
}

// MarkProcessed stores text as the document's extracted text. A second call
// replaces the previous value entirely.
func (t *Tracker) MarkProcessed(ctx context.Context, ownerID, documentID, text string) error {
	err := t.Repo.SetExtractedText(ctx, ownerID, documentID, text, t.now())
	if errors.Is(err, ErrNotFound) {
		return apperr.NotFound("document not found")
	}
	if err != nil {
		return apperr.Internal("mark processed", fmt.Errorf("document %s: %w", documentID, err))
	}
	return nil
}

// Pending lists the owner's documents that still need extraction.
func (t *Tracker) Pending(ctx context.Context, ownerID string) ([]Document, error) {
	docs, err := t.Repo.ListPending(ctx, ownerID)
	if err != nil {
		return nil, apperr.Internal("list pending documents", err)
	}
	return docs, nil
}

// Resolve returns the owner's document or a NotFound error.
func (t *Tracker) Resolve(ctx context.Context, ownerID, documentID string) (Document, error) {
	doc, err := t.Repo.GetByID(ctx, ownerID, documentID)
	if errors.Is(err, ErrNotFound) {
		return Document{}, apperr.NotFound("document not found")
	}
	if err != nil {
		return Document{}, apperr.Internal("load document", err)
	}
	return doc, nil
}

func (t *Tracker) now() time.Time {
	if t.Now == nil {
		return time.Now().UTC()
	}
	return t.Now().UTC()
}
