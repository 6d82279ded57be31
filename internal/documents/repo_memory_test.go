package documents

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func seedDocs(t *testing.T, repo Repo, ownerID string, n int, base time.Time) []Document {
	t.Helper()
	docs := make([]Document, 0, n)
	for i := 0; i < n; i++ {
		doc := Document{
			ID:           fmt.Sprintf("%s-doc-%02d", ownerID, i),
			OwnerID:      ownerID,
			OriginalName: fmt.Sprintf("file-%02d.txt", i),
			MediaType:    "text/plain",
			Visibility:   VisibilityPrivate,
			CreatedAt:    base.Add(time.Duration(i) * time.Second),
		}
		if err := repo.Create(context.Background(), doc); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
		docs = append(docs, doc)
	}
	return docs
}

func TestMemoryRepoOwnerScoping(t *testing.T) {
	repo := NewMemoryRepo()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	docs := seedDocs(t, repo, "owner-a", 1, base)
	seedDocs(t, repo, "owner-b", 2, base)

	if _, err := repo.GetByID(context.Background(), "owner-b", docs[0].ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found for foreign owner, got %v", err)
	}
	got, err := repo.GetByID(context.Background(), "owner-a", docs[0].ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.State() != StatePending {
		t.Fatalf("expected pending state, got %s", got.State())
	}

	counts, err := repo.CountByOwner(context.Background(), "owner-b")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if counts.Total != 2 || counts.Processed != 0 || counts.Unprocessed() != 2 {
		t.Fatalf("unexpected counts: %+v", counts)
	}
}

func TestMemoryRepoListNewestFirst(t *testing.T) {
	repo := NewMemoryRepo()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	seedDocs(t, repo, "owner-a", 3, base)

	docs, total, err := repo.ListByOwner(context.Background(), "owner-a", 0, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 3 || len(docs) != 3 {
		t.Fatalf("expected 3 docs, got %d/%d", len(docs), total)
	}
	if docs[0].ID != "owner-a-doc-02" || docs[2].ID != "owner-a-doc-00" {
		t.Fatalf("unexpected order: %s..%s", docs[0].ID, docs[2].ID)
	}
}

func TestMemoryRepoSetExtractedTextAndPending(t *testing.T) {
	repo := NewMemoryRepo()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	docs := seedDocs(t, repo, "owner-a", 3, base)

	if err := repo.SetExtractedText(context.Background(), "owner-a", docs[1].ID, "hello", base); err != nil {
		t.Fatalf("set text: %v", err)
	}
	pending, err := repo.ListPending(context.Background(), "owner-a")
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 2 || pending[0].ID != docs[0].ID || pending[1].ID != docs[2].ID {
		t.Fatalf("unexpected pending: %+v", pending)
	}
	if err := repo.SetExtractedText(context.Background(), "owner-b", docs[0].ID, "x", base); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found for foreign owner, got %v", err)
	}
}

func TestMemoryRepoShareTokens(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	public := Document{ID: "d1", OwnerID: "owner-a", Visibility: VisibilityPublic, ShareToken: "tok"}
	if err := repo.Create(ctx, public); err != nil {
		t.Fatalf("create: %v", err)
	}
	dup := Document{ID: "d2", OwnerID: "owner-b", Visibility: VisibilityPublic, ShareToken: "tok"}
	if err := repo.Create(ctx, dup); !errors.Is(err, ErrDuplicateToken) {
		t.Fatalf("expected duplicate token, got %v", err)
	}
	got, err := repo.GetByShareToken(ctx, "tok")
	if err != nil || got.ID != "d1" {
		t.Fatalf("expected shared doc d1, got %+v err=%v", got, err)
	}
	if _, err := repo.GetByShareToken(ctx, ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found for empty token, got %v", err)
	}
}

func TestMemoryRepoReturnsCopies(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	if err := repo.Create(ctx, Document{ID: "d1", OwnerID: "o"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.SetExtractedText(ctx, "o", "d1", "original", time.Now()); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, _ := repo.GetByID(ctx, "o", "d1")
	*got.ExtractedText = "mutated"

	again, _ := repo.GetByID(ctx, "o", "d1")
	if again.Text() != "original" {
		t.Fatalf("stored text mutated through returned copy: %q", again.Text())
	}
}

func TestMemoryRepoDuplicateIDIsDistinctFromTokenClash(t *testing.T) {
	repo := NewMemoryRepo()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	doc := Document{ID: "doc-1", OwnerID: "owner-a", Visibility: VisibilityPublic, ShareToken: "tok", CreatedAt: base}
	if err := repo.Create(context.Background(), doc); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := repo.Create(context.Background(), doc); !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected duplicate id, got %v", err)
	}
	other := Document{ID: "doc-2", OwnerID: "owner-b", Visibility: VisibilityPublic, ShareToken: "tok", CreatedAt: base}
	if err := repo.Create(context.Background(), other); !errors.Is(err, ErrDuplicateToken) {
		t.Fatalf("expected duplicate token, got %v", err)
	}
}
