package processing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"docqa-backend/internal/answers"
	"docqa-backend/internal/documents"
	"docqa-backend/internal/oracle"
	"docqa-backend/internal/shared/apperr"
	"docqa-backend/internal/shared/metrics"
	"docqa-backend/internal/shared/storage/object"
	"docqa-backend/internal/shared/telemetry"
)

// DefaultConcurrency bounds how many documents one batch extracts at once.
const DefaultConcurrency = 4

const recentQueryLimit = 5

// Status is the outcome of one document in a batch.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// DocumentResult reports what happened to one pending document.
type DocumentResult struct {
	DocumentID string
	Status     Status
	Detail     string
}

// BatchResult lists per-document outcomes in pending (insertion) order.
type BatchResult struct {
	Results   []DocumentResult
	Succeeded int
	Failed    int
}

// Service runs extraction over an owner's pending documents.
type Service struct {
	Tracker     *documents.Tracker
	Documents   documents.Repo
	Answers     answers.Repo
	Store       object.ObjectStore
	Extractor   oracle.Extractor
	Concurrency int
	Now         func() time.Time
}

// RebuildFor extracts text for every pending document the owner has. A
// document's failure is recorded in its result and never stops the others;
// only failing to list pending documents is returned as an error.
func (s *Service) RebuildFor(ctx context.Context, ownerID string) (BatchResult, error) {
	pending, err := s.Tracker.Pending(ctx, ownerID)
	if err != nil {
		return BatchResult{}, err
	}

	results := make([]DocumentResult, len(pending))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency())
	for i, doc := range pending {
		g.Go(func() error {
			results[i] = s.processOne(gctx, doc)
			return nil
		})
	}
	_ = g.Wait()

	out := BatchResult{Results: results}
	for _, r := range results {
		if r.Status == StatusSuccess {
			out.Succeeded++
		} else {
			out.Failed++
		}
	}
	telemetry.FromContext(ctx).Info("index.rebuild.completed",
		zap.String("owner_id", ownerID),
		zap.Int("pending", len(pending)),
		zap.Int("succeeded", out.Succeeded),
		zap.Int("failed", out.Failed),
	)
	return out, nil
}

func (s *Service) processOne(ctx context.Context, doc documents.Document) (res DocumentResult) {
	res = DocumentResult{DocumentID: doc.ID}
	defer func() {
		if r := recover(); r != nil {
			res.Status = StatusError
			res.Detail = fmt.Sprintf("panic: %v", r)
		}
		metrics.ObserveRebuildDocument(string(res.Status))
		if res.Status == StatusError {
			telemetry.FromContext(ctx).Warn("index.rebuild.document_failed",
				zap.String("owner_id", doc.OwnerID),
				zap.String("document_id", doc.ID),
				zap.String("detail", res.Detail),
			)
		}
	}()

	data, err := loadBytes(ctx, s.Store, doc.StorageRef)
	if errors.Is(err, object.ErrNotFound) {
		return fail(res, "file not found")
	}
	if err != nil {
		return fail(res, err.Error())
	}

	text, err := s.Extractor.ExtractText(ctx, oracle.File{Name: doc.OriginalName, MediaType: doc.MediaType, Data: data})
	if err != nil {
		return fail(res, err.Error())
	}
	if err := s.Tracker.MarkProcessed(ctx, doc.OwnerID, doc.ID, text); err != nil {
		return fail(res, err.Error())
	}
	res.Status = StatusSuccess
	res.Detail = "document processed successfully"
	return res
}

func fail(res DocumentResult, detail string) DocumentResult {
	res.Status = StatusError
	res.Detail = detail
	return res
}

func loadBytes(ctx context.Context, store object.ObjectStore, key string) ([]byte, error) {
	body, err := store.Open(ctx, key)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return io.ReadAll(body)
}

// RecentQuery is one cached answer shown in the stats view.
type RecentQuery struct {
	Question     string
	DocumentID   string
	DocumentName string
	CreatedAt    time.Time
}

// Stats summarizes an owner's documents and questions.
type Stats struct {
	Total          int
	Processed      int
	Unprocessed    int
	ProcessingRate string
	QueriesTotal   int
	Recent         []RecentQuery
	LastUpdated    time.Time
}

// Stats returns document counts, the processing rate as a percentage with two
// decimals, and the five most recent questions with their document names.
func (s *Service) Stats(ctx context.Context, ownerID string) (Stats, error) {
	counts, err := s.Documents.CountByOwner(ctx, ownerID)
	if err != nil {
		return Stats{}, apperr.Internal("count documents", err)
	}
	queries, err := s.Answers.CountByOwner(ctx, ownerID)
	if err != nil {
		return Stats{}, apperr.Internal("count queries", err)
	}
	recent, err := s.Answers.Recent(ctx, ownerID, recentQueryLimit)
	if err != nil {
		return Stats{}, apperr.Internal("recent queries", err)
	}

	names := map[string]string{}
	views := make([]RecentQuery, 0, len(recent))
	for _, a := range recent {
		name, ok := names[a.DocumentID]
		if !ok {
			doc, err := s.Documents.GetByID(ctx, ownerID, a.DocumentID)
			if err != nil && !errors.Is(err, documents.ErrNotFound) {
				return Stats{}, apperr.Internal("load document", err)
			}
			name = doc.OriginalName
			names[a.DocumentID] = name
		}
		views = append(views, RecentQuery{
			Question:     a.Question,
			DocumentID:   a.DocumentID,
			DocumentName: name,
			CreatedAt:    a.CreatedAt,
		})
	}

	return Stats{
		Total:          counts.Total,
		Processed:      counts.Processed,
		Unprocessed:    counts.Unprocessed(),
		ProcessingRate: ProcessingRate(counts),
		QueriesTotal:   queries,
		Recent:         views,
		LastUpdated:    s.now(),
	}, nil
}

// ProcessingRate formats processed/total as a percentage with two decimals.
func ProcessingRate(c documents.Counts) string {
	if c.Total <= 0 {
		return "0.00"
	}
	return fmt.Sprintf("%.2f", float64(c.Processed)/float64(c.Total)*100)
}

func (s *Service) concurrency() int {
	if s.Concurrency < 1 {
		return DefaultConcurrency
	}
	return s.Concurrency
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}
