package idempotency

import (
	"context"
	"errors"
	"time"
)

// DefaultTTL is how long a presented token blocks replays.
const DefaultTTL = 24 * time.Hour

// ErrKeyExists is returned by InsertUnique when the key is already recorded,
// expired or not.
var ErrKeyExists = errors.New("idempotency key already exists")

// Record is one presented idempotency token.
type Record struct {
	Key       string
	OwnerID   string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Repo persists idempotency records. InsertUnique must be atomic with respect
// to concurrent callers presenting the same key: exactly one succeeds.
type Repo interface {
	InsertUnique(ctx context.Context, rec Record) error
	Delete(ctx context.Context, key string) error
}
