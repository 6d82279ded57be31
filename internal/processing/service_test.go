package processing

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"docqa-backend/internal/answers"
	"docqa-backend/internal/documents"
	"docqa-backend/internal/oracle"
	"docqa-backend/internal/shared/apperr"
	"docqa-backend/internal/shared/storage/object"
)

type mapStore struct {
	mu   sync.Mutex
	objs map[string][]byte
}

func (m *mapStore) Save(ctx context.Context, ownerID, fileName string, r io.Reader) (object.Object, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return object.Object{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := ownerID + "/" + fileName
	m.objs[key] = data
	return object.Object{Key: key, Size: int64(len(data))}, nil
}

func (m *mapStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objs[key]
	if !ok {
		return nil, object.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *mapStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objs, key)
	return nil
}

type scriptedExtractor struct {
	failFor map[string]error
}

func (s scriptedExtractor) ExtractText(ctx context.Context, f oracle.File) (string, error) {
	if err := s.failFor[f.Name]; err != nil {
		return "", err
	}
	return "text of " + f.Name, nil
}

type fixture struct {
	svc     *Service
	docs    *documents.MemoryRepo
	answers *answers.MemoryRepo
	store   *mapStore
	now     time.Time
}

func newFixture(t *testing.T, ext oracle.Extractor) *fixture {
	t.Helper()
	f := &fixture{
		docs:    documents.NewMemoryRepo(),
		answers: answers.NewMemoryRepo(),
		store:   &mapStore{objs: map[string][]byte{}},
		now:     time.Date(2025, 4, 2, 10, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return f.now }
	f.svc = &Service{
		Tracker:     &documents.Tracker{Repo: f.docs, Now: clock},
		Documents:   f.docs,
		Answers:     f.answers,
		Store:       f.store,
		Extractor:   ext,
		Concurrency: 2,
		Now:         clock,
	}
	return f
}

// addDoc records a pending document; withFile controls whether its bytes exist.
func (f *fixture) addDoc(t *testing.T, id, name string, withFile bool) {
	t.Helper()
	ctx := context.Background()
	key := "owner-1/" + name
	if withFile {
		if _, err := f.store.Save(ctx, "owner-1", name, strings.NewReader("bytes")); err != nil {
			t.Fatalf("save: %v", err)
		}
	}
	f.now = f.now.Add(time.Second)
	doc := documents.Document{ID: id, OwnerID: "owner-1", OriginalName: name, MediaType: "application/pdf", StorageRef: key, CreatedAt: f.now}
	if err := f.docs.Create(ctx, doc); err != nil {
		t.Fatalf("create: %v", err)
	}
}

func TestRebuildForIsolatesFailures(t *testing.T) {
	f := newFixture(t, scriptedExtractor{failFor: map[string]error{"bad.pdf": errors.New("oracle unavailable")}})
	f.addDoc(t, "doc-a", "good.pdf", true)
	f.addDoc(t, "doc-b", "missing.pdf", false)
	f.addDoc(t, "doc-c", "bad.pdf", true)

	batch, err := f.svc.RebuildFor(context.Background(), "owner-1")
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if batch.Succeeded != 1 || batch.Failed != 2 {
		t.Fatalf("expected 1 succeeded and 2 failed, got %+v", batch)
	}
	want := []DocumentResult{
		{DocumentID: "doc-a", Status: StatusSuccess, Detail: "document processed successfully"},
		{DocumentID: "doc-b", Status: StatusError, Detail: "file not found"},
		{DocumentID: "doc-c", Status: StatusError, Detail: "oracle unavailable"},
	}
	if len(batch.Results) != len(want) {
		t.Fatalf("expected %d results, got %d", len(want), len(batch.Results))
	}
	for i := range want {
		if batch.Results[i] != want[i] {
			t.Fatalf("result %d: got %+v want %+v", i, batch.Results[i], want[i])
		}
	}

	doc, err := f.docs.GetByID(context.Background(), "owner-1", "doc-a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if doc.Text() != "text of good.pdf" || doc.ProcessedAt == nil {
		t.Fatalf("expected doc-a processed, got %+v", doc)
	}
	pending, _ := f.docs.ListPending(context.Background(), "owner-1")
	if len(pending) != 2 {
		t.Fatalf("expected 2 still pending, got %d", len(pending))
	}
}

func TestRebuildForSkipsProcessedAndOtherOwners(t *testing.T) {
	f := newFixture(t, scriptedExtractor{})
	f.addDoc(t, "doc-a", "a.pdf", true)
	if err := f.docs.Create(context.Background(), documents.Document{ID: "other", OwnerID: "owner-2", CreatedAt: f.now}); err != nil {
		t.Fatalf("create: %v", err)
	}

	first, err := f.svc.RebuildFor(context.Background(), "owner-1")
	if err != nil || first.Succeeded != 1 {
		t.Fatalf("first rebuild: %+v %v", first, err)
	}
	second, err := f.svc.RebuildFor(context.Background(), "owner-1")
	if err != nil {
		t.Fatalf("second rebuild: %v", err)
	}
	if len(second.Results) != 0 {
		t.Fatalf("expected nothing pending, got %+v", second.Results)
	}
}

func TestRebuildForKeepsInsertionOrderUnderConcurrency(t *testing.T) {
	f := newFixture(t, scriptedExtractor{})
	f.svc.Concurrency = 8
	ids := []string{"d1", "d2", "d3", "d4", "d5", "d6", "d7", "d8", "d9"}
	for _, id := range ids {
		f.addDoc(t, id, id+".pdf", true)
	}

	batch, err := f.svc.RebuildFor(context.Background(), "owner-1")
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	for i, id := range ids {
		if batch.Results[i].DocumentID != id {
			t.Fatalf("position %d: got %s want %s", i, batch.Results[i].DocumentID, id)
		}
	}
}

type failingRepo struct {
	documents.Repo
}

func (failingRepo) ListPending(ctx context.Context, ownerID string) ([]documents.Document, error) {
	return nil, errors.New("db down")
}

func TestRebuildForListFailureIsInternal(t *testing.T) {
	f := newFixture(t, scriptedExtractor{})
	f.svc.Tracker = &documents.Tracker{Repo: failingRepo{Repo: f.docs}}

	_, err := f.svc.RebuildFor(context.Background(), "owner-1")
	if !apperr.IsKind(err, apperr.KindInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
}

func TestStats(t *testing.T) {
	f := newFixture(t, scriptedExtractor{})
	f.addDoc(t, "doc-a", "alpha.pdf", true)
	f.addDoc(t, "doc-b", "beta.pdf", true)
	f.addDoc(t, "doc-c", "gamma.pdf", false)
	if _, err := f.svc.RebuildFor(context.Background(), "owner-1"); err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	cache := &answers.Cache{Repo: f.answers, Now: func() time.Time { return f.now }, TTL: answers.DefaultTTL}
	for i := 0; i < 7; i++ {
		f.now = f.now.Add(time.Second)
		doc := "doc-a"
		if i%2 == 1 {
			doc = "doc-b"
		}
		if _, err := cache.Store(context.Background(), "owner-1", doc, "q"+string(rune('0'+i)), "a", nil); err != nil {
			t.Fatalf("store: %v", err)
		}
	}

	st, err := f.svc.Stats(context.Background(), "owner-1")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.Total != 3 || st.Processed != 2 || st.Unprocessed != 1 {
		t.Fatalf("unexpected counts: %+v", st)
	}
	if st.ProcessingRate != "66.67" {
		t.Fatalf("expected 66.67, got %s", st.ProcessingRate)
	}
	if st.QueriesTotal != 7 || len(st.Recent) != 5 {
		t.Fatalf("expected 7 queries and 5 recent, got %d/%d", st.QueriesTotal, len(st.Recent))
	}
	if st.Recent[0].Question != "q6" || st.Recent[0].DocumentName != "alpha.pdf" {
		t.Fatalf("unexpected newest entry: %+v", st.Recent[0])
	}
	if st.Recent[1].DocumentName != "beta.pdf" {
		t.Fatalf("unexpected second entry: %+v", st.Recent[1])
	}
	if !st.LastUpdated.Equal(f.now) {
		t.Fatalf("unexpected lastUpdated %s", st.LastUpdated)
	}
}

func TestProcessingRate(t *testing.T) {
	cases := []struct {
		counts documents.Counts
		want   string
	}{
		{documents.Counts{}, "0.00"},
		{documents.Counts{Total: 4, Processed: 4}, "100.00"},
		{documents.Counts{Total: 8, Processed: 1}, "12.50"},
	}
	for _, tc := range cases {
		if got := ProcessingRate(tc.counts); got != tc.want {
			t.Fatalf("rate(%+v) = %s want %s", tc.counts, got, tc.want)
		}
	}
}
