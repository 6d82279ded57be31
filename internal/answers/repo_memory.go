package answers

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	rows []CachedAnswer
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{}
}

// Create appends a row.
func (r *MemoryRepo) Create(ctx context.Context, a CachedAnswer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, clone(a))
	return nil
}

// FindLatestValid scans newest to oldest for an unexpired exact match.
func (r *MemoryRepo) FindLatestValid(ctx context.Context, ownerID, documentID, question string, now time.Time) (CachedAnswer, error) {
	if err := ctx.Err(); err != nil {
		return CachedAnswer{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var best *CachedAnswer
	for i := len(r.rows) - 1; i >= 0; i-- {
		row := &r.rows[i]
		if row.OwnerID != ownerID || row.DocumentID != documentID || row.Question != question {
			continue
		}
		if !row.ExpiresAt.After(now) {
			continue
		}
		if best == nil || row.CreatedAt.After(best.CreatedAt) {
			best = row
		}
	}
	if best == nil {
		return CachedAnswer{}, ErrNotFound
	}
	return clone(*best), nil
}

// CountByOwner counts every row the owner has produced.
func (r *MemoryRepo) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, row := range r.rows {
		if row.OwnerID == ownerID {
			n++
		}
	}
	return n, nil
}

// Recent returns the owner's newest rows.
func (r *MemoryRepo) Recent(ctx context.Context, ownerID string, limit int) ([]CachedAnswer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []CachedAnswer{}
	for i := len(r.rows) - 1; i >= 0 && len(out) < limit; i-- {
		if r.rows[i].OwnerID == ownerID {
			out = append(out, clone(r.rows[i]))
		}
	}
	return out, nil
}

func clone(a CachedAnswer) CachedAnswer {
	a.Sources = append([]string{}, a.Sources...)
	return a
}

var _ Repo = (*MemoryRepo)(nil)
