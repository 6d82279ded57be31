package idempotency

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"docqa-backend/internal/shared/apperr"
	"docqa-backend/internal/shared/metrics"
	"docqa-backend/internal/shared/telemetry"
)

// MaxKeyLength bounds client-supplied tokens.
const MaxKeyLength = 255

// Guard rejects replays of mutating requests keyed by a client token.
type Guard struct {
	Repo Repo
	Now  func() time.Time
	TTL  time.Duration
}

// NewGuard constructs a Guard with the default TTL and the wall clock.
func NewGuard(repo Repo) *Guard {
	return &Guard{Repo: repo, Now: time.Now, TTL: DefaultTTL}
}

// Admit records token for ownerID exactly as presented. An empty token is
// always admitted. A token seen before, by any owner and whether or not its
// record has expired, is rejected with a Conflict carrying
// IDEMPOTENCY_KEY_EXISTS. A store failure rejects the request with an
// Internal error.
func (g *Guard) Admit(ctx context.Context, token, ownerID string) error {
	if token == "" {
		return nil
	}
	if len(token) > MaxKeyLength {
		return apperr.Validation("invalid idempotency key",
			apperr.FieldError{Field: "Idempotency-Key", Message: "must be at most 255 characters"})
	}

	now := g.now()
	ttl := g.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	err := g.Repo.InsertUnique(ctx, Record{
		Key:       token,
		OwnerID:   ownerID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	})
	switch {
	case err == nil:
		metrics.ObserveIdempotency(true)
		return nil
	case errors.Is(err, ErrKeyExists):
		metrics.ObserveIdempotency(false)
		telemetry.FromContext(ctx).Info("idempotency.rejected", zap.String("owner_id", ownerID))
		return apperr.Conflict(apperr.CodeIdempotencyKeyExists, "request already processed")
	default:
		return apperr.Internal("record idempotency key", err)
	}
}

// Release forgets token so it may be presented again.
func (g *Guard) Release(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return g.Repo.Delete(ctx, token)
}

func (g *Guard) now() time.Time {
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	return now().UTC().Truncate(time.Millisecond)
}
