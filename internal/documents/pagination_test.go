package documents

import (
	"context"
	"testing"
	"time"

	"docqa-backend/internal/shared/apperr"
)

func TestNextOffset(t *testing.T) {
	cases := []struct {
		offset, limit, total int
		want                 *int
	}{
		{0, 10, 25, intPtr(10)},
		{10, 10, 25, intPtr(20)},
		{20, 10, 25, nil},
		{0, 10, 10, nil},
		{0, 10, 0, nil},
	}
	for _, tc := range cases {
		got := NextOffset(tc.offset, tc.limit, tc.total)
		if (got == nil) != (tc.want == nil) || (got != nil && *got != *tc.want) {
			t.Fatalf("NextOffset(%d,%d,%d) = %v, want %v", tc.offset, tc.limit, tc.total, deref(got), deref(tc.want))
		}
	}
}

func TestServiceListPages(t *testing.T) {
	repo := NewMemoryRepo()
	seedDocs(t, repo, "owner-a", 25, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	svc := &Service{Repo: repo}

	first, err := svc.List(context.Background(), "owner-a", 0, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(first.Items) != 10 || first.NextOffset == nil || *first.NextOffset != 10 {
		t.Fatalf("unexpected first page: len=%d next=%v", len(first.Items), deref(first.NextOffset))
	}

	last, err := svc.List(context.Background(), "owner-a", 20, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(last.Items) != 5 || last.NextOffset != nil || last.Total != 25 {
		t.Fatalf("unexpected last page: len=%d next=%v", len(last.Items), deref(last.NextOffset))
	}
}

func TestServiceListRejectsBadWindow(t *testing.T) {
	svc := &Service{Repo: NewMemoryRepo()}
	for _, tc := range []struct{ offset, limit int }{{-1, 10}, {0, 101}, {0, -5}} {
		_, err := svc.List(context.Background(), "o", tc.offset, tc.limit)
		if !apperr.IsKind(err, apperr.KindValidation) {
			t.Fatalf("offset=%d limit=%d: expected validation error, got %v", tc.offset, tc.limit, err)
		}
	}
	page, err := svc.List(context.Background(), "o", 0, 0)
	if err != nil || page.NextOffset != nil || len(page.Items) != 0 {
		t.Fatalf("expected empty default page, got %+v err=%v", page, err)
	}
}

func intPtr(v int) *int { return &v }

func deref(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}
