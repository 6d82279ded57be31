package answers

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"docqa-backend/internal/shared/metrics"
)

// Cache maps a (owner, document, question) fingerprint to a recent answer.
// Question matching is exact and case-sensitive.
type Cache struct {
	Repo Repo
	Now  func() time.Time
	TTL  time.Duration
}

// NewCache constructs a Cache with the default TTL and the wall clock.
func NewCache(repo Repo) *Cache {
	return &Cache{Repo: repo, Now: time.Now, TTL: DefaultTTL}
}

// Lookup returns the newest answer for the fingerprint that is still valid.
func (c *Cache) Lookup(ctx context.Context, ownerID, documentID, question string) (CachedAnswer, bool, error) {
	a, err := c.Repo.FindLatestValid(ctx, ownerID, documentID, question, c.now())
	if errors.Is(err, ErrNotFound) {
		metrics.ObserveCacheLookup(false)
		return CachedAnswer{}, false, nil
	}
	if err != nil {
		return CachedAnswer{}, false, err
	}
	metrics.ObserveCacheLookup(true)
	return a, true, nil
}

// Store records a freshly computed answer valid for the cache TTL.
func (c *Cache) Store(ctx context.Context, ownerID, documentID, question, answer string, sources []string) (CachedAnswer, error) {
	ttl := c.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := c.now()
	if sources == nil {
		sources = []string{}
	}
	a := CachedAnswer{
		ID:         uuid.NewString(),
		OwnerID:    ownerID,
		DocumentID: documentID,
		Question:   question,
		Answer:     answer,
		Sources:    sources,
		CreatedAt:  now,
		ExpiresAt:  now.Add(ttl),
	}
	if err := c.Repo.Create(ctx, a); err != nil {
		return CachedAnswer{}, err
	}
	return a, nil
}

// now is truncated to the coarsest precision among the record stores (BSON
// dates keep milliseconds) so a stored expiry reads back unchanged.
func (c *Cache) now() time.Time {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	return now().UTC().Truncate(time.Millisecond)
}
