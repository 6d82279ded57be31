package documents

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"docqa-backend/internal/shared/apperr"
	"docqa-backend/internal/shared/storage/object"
	"docqa-backend/internal/shared/telemetry"
)

// DefaultMaxUploadBytes caps a single upload.
const DefaultMaxUploadBytes int64 = 10 << 20

// JobEnqueuer schedules background extraction for an owner.
type JobEnqueuer interface {
	EnqueueRebuild(ctx context.Context, ownerID, documentID string) error
}

// Service contains business logic for documents.
type Service struct {
	Store          object.ObjectStore
	Repo           Repo
	Jobs           JobEnqueuer
	MaxUploadBytes int64
	Now            func() time.Time
}

// UploadInput describes one uploaded file.
type UploadInput struct {
	OwnerID    string
	FileName   string
	Visibility Visibility
	Body       io.Reader
}

// Upload validates the file, saves it to object storage and records a
// pending document. Public documents receive a fresh share token.
func (s *Service) Upload(ctx context.Context, in UploadInput) (Document, error) {
	if strings.TrimSpace(in.OwnerID) == "" {
		return Document{}, apperr.Unauthorized("missing identity")
	}
	if strings.TrimSpace(in.FileName) == "" || in.Body == nil {
		return Document{}, apperr.Validation("file is required", apperr.FieldError{Field: "file", Message: "is required"})
	}
	visibility, verr := parseVisibility(in.Visibility)
	if verr != nil {
		return Document{}, verr
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(in.Body, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return Document{}, apperr.Validation("unable to read file")
	}
	head = head[:n]
	if n == 0 {
		return Document{}, apperr.Validation("file is empty", apperr.FieldError{Field: "file", Message: "is empty"})
	}
	mediaType, err := resolveMediaType(in.FileName, head)
	if err != nil {
		return Document{}, apperr.Validation("unsupported file type",
			apperr.FieldError{Field: "file", Message: "must be one of pdf, txt, doc, docx, jpeg, png"})
	}

	maxBytes := s.MaxUploadBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	body := &limitedReader{r: io.MultiReader(bytes.NewReader(head), in.Body), remaining: maxBytes}

	obj, err := s.Store.Save(ctx, in.OwnerID, in.FileName, body)
	if err != nil {
		if errors.Is(err, ErrTooLarge) {
			return Document{}, apperr.Validation("file too large",
				apperr.FieldError{Field: "file", Message: fmt.Sprintf("must be at most %d bytes", maxBytes)})
		}
		return Document{}, apperr.Internal("store file", err)
	}

	doc := Document{
		ID:           uuid.NewString(),
		OwnerID:      in.OwnerID,
		OriginalName: in.FileName,
		MediaType:    mediaType,
		ByteSize:     obj.Size,
		StorageRef:   obj.Key,
		SHA256:       obj.SHA256,
		Visibility:   visibility,
		CreatedAt:    s.now(),
	}
	if visibility == VisibilityPublic {
		doc.ShareToken = uuid.NewString()
	}
	if err := s.Repo.Create(ctx, doc); err != nil {
		if derr := s.Store.Delete(ctx, obj.Key); derr != nil {
			telemetry.FromContext(ctx).Warn("document.orphan_blob",
				zap.String("storage_ref", obj.Key), zap.Error(derr))
		}
		if errors.Is(err, ErrDuplicateToken) {
			return Document{}, apperr.Conflict("", "share token collision, retry the upload")
		}
		return Document{}, apperr.Internal("record document", err)
	}

	logger := telemetry.FromContext(ctx)
	logger.Info("document.uploaded",
		zap.String("owner_id", doc.OwnerID),
		zap.String("document_id", doc.ID),
		zap.String("media_type", doc.MediaType),
		zap.Int64("byte_size", doc.ByteSize),
	)
	if s.Jobs != nil {
		if err := s.Jobs.EnqueueRebuild(ctx, doc.OwnerID, doc.ID); err != nil {
			// The document stays pending and is picked up by the next rebuild.
			logger.Warn("document.enqueue_failed", zap.String("document_id", doc.ID), zap.Error(err))
		}
	}
	return doc, nil
}

// List returns one page of the owner's documents, newest first.
func (s *Service) List(ctx context.Context, ownerID string, offset, limit int) (Page, error) {
	limit, verr := validatePage(offset, limit)
	if verr != nil {
		return Page{}, verr
	}
	docs, total, err := s.Repo.ListByOwner(ctx, ownerID, offset, limit)
	if err != nil {
		return Page{}, apperr.Internal("list documents", err)
	}
	return Page{Items: docs, Total: total, NextOffset: NextOffset(offset, limit, total)}, nil
}

// Get returns one of the owner's documents.
func (s *Service) Get(ctx context.Context, ownerID, documentID string) (Document, error) {
	return (&Tracker{Repo: s.Repo}).Resolve(ctx, ownerID, documentID)
}

// GetShared resolves a public document by its share token without owner scoping.
func (s *Service) GetShared(ctx context.Context, token string) (Document, error) {
	doc, err := s.Repo.GetByShareToken(ctx, strings.TrimSpace(token))
	if errors.Is(err, ErrNotFound) {
		return Document{}, apperr.NotFound("document not found")
	}
	if err != nil {
		return Document{}, apperr.Internal("load shared document", err)
	}
	return doc, nil
}

// Counts summarizes the owner's documents.
func (s *Service) Counts(ctx context.Context, ownerID string) (Counts, error) {
	c, err := s.Repo.CountByOwner(ctx, ownerID)
	if err != nil {
		return Counts{}, apperr.Internal("count documents", err)
	}
	return c, nil
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

func parseVisibility(v Visibility) (Visibility, *apperr.Error) {
	switch Visibility(strings.ToLower(strings.TrimSpace(string(v)))) {
	case "", VisibilityPrivate:
		return VisibilityPrivate, nil
	case VisibilityPublic:
		return VisibilityPublic, nil
	default:
		return "", apperr.Validation("invalid visibility",
			apperr.FieldError{Field: "visibility", Message: "must be one of private public"})
	}
}

// limitedReader fails with ErrTooLarge once more than remaining bytes are read.
type limitedReader struct {
	r         io.Reader
	remaining int64
}

func (l *limitedReader) Read(p []byte) (int, error) {
	n, err := l.r.Read(p)
	l.remaining -= int64(n)
	if l.remaining < 0 {
		return n, ErrTooLarge
	}
	return n, err
}
