package answers

import (
	"context"
	"errors"
	"time"
)

// DefaultTTL is how long a computed answer is served from cache.
const DefaultTTL = 60 * time.Second

// ErrNotFound is returned when no valid cached answer exists.
var ErrNotFound = errors.New("cached answer not found")

// CachedAnswer is one oracle answer for a (owner, document, question)
// fingerprint. Rows are append-only; readers trust the newest unexpired row.
type CachedAnswer struct {
	ID         string
	OwnerID    string
	DocumentID string
	Question   string
	Answer     string
	Sources    []string
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

// Repo persists cached answers.
type Repo interface {
	Create(ctx context.Context, a CachedAnswer) error
	// FindLatestValid returns the newest row for the exact fingerprint whose
	// ExpiresAt is after now, or ErrNotFound.
	FindLatestValid(ctx context.Context, ownerID, documentID, question string, now time.Time) (CachedAnswer, error)
	CountByOwner(ctx context.Context, ownerID string) (int, error)
	// Recent returns the owner's newest rows, newest first.
	Recent(ctx context.Context, ownerID string, limit int) ([]CachedAnswer, error)
}
