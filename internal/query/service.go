package query

import (
	"context"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"docqa-backend/internal/answers"
	"docqa-backend/internal/documents"
	"docqa-backend/internal/oracle"
	"docqa-backend/internal/shared/apperr"
	"docqa-backend/internal/shared/telemetry"
	"docqa-backend/internal/shared/util"
)

const (
	DefaultK = 3
	MinK     = 1
	MaxK     = 10
)

// DocumentResolver loads an owner's document.
type DocumentResolver interface {
	Resolve(ctx context.Context, ownerID, documentID string) (documents.Document, error)
}

// AskInput is one question against one document.
type AskInput struct {
	OwnerID    string
	DocumentID string
	Question   string
	K          int
}

// AnswerView is what the caller receives for a question.
type AnswerView struct {
	Answer      string
	Sources     []string
	Cached      bool
	CachedUntil time.Time
}

// Service answers questions, serving repeated ones from the answer cache.
type Service struct {
	Documents DocumentResolver
	Cache     *answers.Cache
	Oracle    oracle.Answerer
	// Singleflight collapses concurrent misses for the same fingerprint
	// within this process into one oracle call.
	Singleflight bool

	group singleflight.Group
}

// Ask resolves the document, consults the cache and calls the oracle on a miss.
func (s *Service) Ask(ctx context.Context, in AskInput) (AnswerView, error) {
	k, verr := validate(in)
	if verr != nil {
		return AnswerView{}, verr
	}

	doc, err := s.Documents.Resolve(ctx, in.OwnerID, in.DocumentID)
	if err != nil {
		return AnswerView{}, err
	}
	if !documents.IsQueryable(doc) {
		return AnswerView{}, apperr.Validation("document has not been processed yet").
			WithCode(apperr.CodeDocumentNotProcessed)
	}

	hit, ok, err := s.Cache.Lookup(ctx, in.OwnerID, in.DocumentID, in.Question)
	if err != nil {
		return AnswerView{}, apperr.Internal("lookup cached answer", err)
	}
	if ok {
		return AnswerView{Answer: hit.Answer, Sources: hit.Sources, Cached: true, CachedUntil: hit.ExpiresAt}, nil
	}

	if !s.Singleflight {
		return s.compute(ctx, in, doc, k)
	}
	key := util.HashParts(in.OwnerID, in.DocumentID, in.Question, strconv.Itoa(k))
	v, err, shared := s.group.Do(key, func() (any, error) {
		return s.compute(context.WithoutCancel(ctx), in, doc, k)
	})
	if err != nil {
		return AnswerView{}, err
	}
	view := v.(AnswerView)
	if shared {
		view.Sources = append([]string{}, view.Sources...)
	}
	return view, nil
}

func (s *Service) compute(ctx context.Context, in AskInput, doc documents.Document, k int) (AnswerView, error) {
	ans, err := s.Oracle.Answer(ctx, doc.Text(), in.Question)
	if err != nil {
		return AnswerView{}, apperr.Upstream("failed to process question", err)
	}
	sources := DedupeTruncate(ans.Citations, k)

	stored, err := s.Cache.Store(ctx, in.OwnerID, in.DocumentID, in.Question, ans.Text, sources)
	if err != nil {
		return AnswerView{}, apperr.Internal("store answer", err)
	}
	telemetry.FromContext(ctx).Info("query.answered",
		zap.String("owner_id", in.OwnerID),
		zap.String("document_id", in.DocumentID),
		zap.Int("sources", len(sources)),
	)
	return AnswerView{Answer: stored.Answer, Sources: stored.Sources, Cached: false, CachedUntil: stored.ExpiresAt}, nil
}

// DedupeTruncate removes repeated citations keeping first-seen order and
// then keeps at most k.
func DedupeTruncate(citations []string, k int) []string {
	seen := make(map[string]struct{}, len(citations))
	out := make([]string, 0, min(len(citations), k))
	for _, c := range citations {
		if len(out) == k {
			break
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

func validate(in AskInput) (int, *apperr.Error) {
	if strings.TrimSpace(in.OwnerID) == "" {
		return 0, apperr.Unauthorized("missing identity")
	}
	var fields []apperr.FieldError
	if strings.TrimSpace(in.DocumentID) == "" {
		fields = append(fields, apperr.FieldError{Field: "documentId", Message: "is required"})
	}
	if strings.TrimSpace(in.Question) == "" {
		fields = append(fields, apperr.FieldError{Field: "question", Message: "is required"})
	}
	k := in.K
	if k == 0 {
		k = DefaultK
	}
	if k < MinK || k > MaxK {
		fields = append(fields, apperr.FieldError{Field: "k", Message: "must be between 1 and 10"})
	}
	if len(fields) > 0 {
		return 0, apperr.Validation("validation failed", fields...)
	}
	return k, nil
}
