package documents

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu    sync.RWMutex
	byID  map[string]*memoryEntry
	order []string
}

type memoryEntry struct {
	seq int
	doc Document
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byID: make(map[string]*memoryEntry),
	}
}

// Create stores a new document. Share tokens are unique across owners.
func (r *MemoryRepo) Create(ctx context.Context, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[doc.ID]; ok {
		return ErrDuplicateID
	}
	if doc.ShareToken != "" {
		for _, e := range r.byID {
			if e.doc.ShareToken == doc.ShareToken {
				return ErrDuplicateToken
			}
		}
	}
	r.byID[doc.ID] = &memoryEntry{seq: len(r.order), doc: cloneDocument(doc)}
	r.order = append(r.order, doc.ID)
	return nil
}

// GetByID returns a document by ID for an owner.
func (r *MemoryRepo) GetByID(ctx context.Context, ownerID, documentID string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byID[documentID]
	if !ok || e.doc.OwnerID != ownerID {
		return Document{}, ErrNotFound
	}
	return cloneDocument(e.doc), nil
}

// GetByShareToken returns a public document regardless of owner.
func (r *MemoryRepo) GetByShareToken(ctx context.Context, token string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	if token == "" {
		return Document{}, ErrNotFound
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.byID {
		if e.doc.ShareToken == token && e.doc.Visibility == VisibilityPublic {
			return cloneDocument(e.doc), nil
		}
	}
	return Document{}, ErrNotFound
}

// ListByOwner returns documents for an owner, newest first, honoring offset/limit.
func (r *MemoryRepo) ListByOwner(ctx context.Context, ownerID string, offset, limit int) ([]Document, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	entries := r.ownerEntries(ownerID)
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].doc.CreatedAt.Equal(entries[j].doc.CreatedAt) {
			return entries[i].doc.CreatedAt.After(entries[j].doc.CreatedAt)
		}
		return entries[i].seq > entries[j].seq
	})

	total := len(entries)
	if offset < 0 {
		offset = 0
	}
	if offset >= total {
		return []Document{}, total, nil
	}
	end := total
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	out := make([]Document, 0, end-offset)
	for _, e := range entries[offset:end] {
		out = append(out, cloneDocument(e.doc))
	}
	return out, total, nil
}

// ListPending returns the owner's unprocessed documents in insertion order.
func (r *MemoryRepo) ListPending(ctx context.Context, ownerID string) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries := r.ownerEntries(ownerID)
	out := make([]Document, 0, len(entries))
	for _, e := range entries {
		if e.doc.ExtractedText == nil {
			out = append(out, cloneDocument(e.doc))
		}
	}
	return out, nil
}

// SetExtractedText replaces the extracted text under the write lock.
func (r *MemoryRepo) SetExtractedText(ctx context.Context, ownerID, documentID, text string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.byID[documentID]
	if !ok || e.doc.OwnerID != ownerID {
		return ErrNotFound
	}
	e.doc.ExtractedText = &text
	e.doc.ProcessedAt = &at
	return nil
}

// CountByOwner counts the owner's documents.
func (r *MemoryRepo) CountByOwner(ctx context.Context, ownerID string) (Counts, error) {
	if err := ctx.Err(); err != nil {
		return Counts{}, err
	}
	var c Counts
	for _, e := range r.ownerEntries(ownerID) {
		c.Total++
		if e.doc.ExtractedText != nil {
			c.Processed++
		}
	}
	return c, nil
}

// ownerEntries snapshots the owner's entries in insertion order.
func (r *MemoryRepo) ownerEntries(ownerID string) []memoryEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []memoryEntry
	for _, id := range r.order {
		e := r.byID[id]
		if e.doc.OwnerID == ownerID {
			out = append(out, *e)
		}
	}
	return out
}

func cloneDocument(doc Document) Document {
	if doc.ExtractedText != nil {
		text := *doc.ExtractedText
		doc.ExtractedText = &text
	}
	if doc.ProcessedAt != nil {
		at := *doc.ProcessedAt
		doc.ProcessedAt = &at
	}
	return doc
}

var _ Repo = (*MemoryRepo)(nil)
