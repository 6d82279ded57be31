package documents

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const documentColumns = `id, owner_id, original_name, media_type, byte_size, storage_ref, sha256, visibility, share_token, extracted_text, processed_at, created_at`

const (
	pgUniqueViolation = "23505"
	pgPrimaryKey      = "documents_pkey"
)

// Create inserts a new document.
func (r *PGRepo) Create(ctx context.Context, doc Document) error {
	const query = `
INSERT INTO documents (` + documentColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULL, NULL, $10)`

	var shareToken sql.NullString
	if doc.ShareToken != "" {
		shareToken = sql.NullString{String: doc.ShareToken, Valid: true}
	}
	visibility := doc.Visibility
	if visibility == "" {
		visibility = VisibilityPrivate
	}

	_, err := r.DB.ExecContext(
		ctx,
		query,
		doc.ID,
		doc.OwnerID,
		doc.OriginalName,
		doc.MediaType,
		doc.ByteSize,
		doc.StorageRef,
		doc.SHA256,
		string(visibility),
		shareToken,
		doc.CreatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		if pgErr.ConstraintName == pgPrimaryKey {
			return ErrDuplicateID
		}
		return ErrDuplicateToken
	}
	return err
}

// GetByID fetches a document by ID for an owner.
func (r *PGRepo) GetByID(ctx context.Context, ownerID, documentID string) (Document, error) {
	const query = `
SELECT ` + documentColumns + `
FROM documents
WHERE owner_id = $1 AND id = $2
LIMIT 1`
	if !isUUID(documentID) {
		return Document{}, ErrNotFound
	}
	return scanOne(r.DB.QueryRowContext(ctx, query, ownerID, documentID))
}

// GetByShareToken fetches a public document by share token.
func (r *PGRepo) GetByShareToken(ctx context.Context, token string) (Document, error) {
	const query = `
SELECT ` + documentColumns + `
FROM documents
WHERE share_token = $1 AND visibility = 'public'
LIMIT 1`
	return scanOne(r.DB.QueryRowContext(ctx, query, token))
}

// ListByOwner lists documents ordered newest-first and returns the owner's total.
func (r *PGRepo) ListByOwner(ctx context.Context, ownerID string, offset, limit int) ([]Document, int, error) {
	const countQuery = `SELECT COUNT(*) FROM documents WHERE owner_id = $1`
	const query = `
SELECT ` + documentColumns + `
FROM documents
WHERE owner_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3`

	var total int
	if err := r.DB.QueryRowContext(ctx, countQuery, ownerID).Scan(&total); err != nil {
		return nil, 0, err
	}
	docs, err := r.queryMany(ctx, query, ownerID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return docs, total, nil
}

// ListPending returns unprocessed documents in insertion order.
func (r *PGRepo) ListPending(ctx context.Context, ownerID string) ([]Document, error) {
	const query = `
SELECT ` + documentColumns + `
FROM documents
WHERE owner_id = $1 AND extracted_text IS NULL
ORDER BY created_at ASC, id ASC`
	return r.queryMany(ctx, query, ownerID)
}

// SetExtractedText overwrites the extracted text in a single statement.
func (r *PGRepo) SetExtractedText(ctx context.Context, ownerID, documentID, text string, at time.Time) error {
	const query = `
UPDATE documents
SET extracted_text = $1, processed_at = $2
WHERE owner_id = $3 AND id = $4`
	if !isUUID(documentID) {
		return ErrNotFound
	}
	res, err := r.DB.ExecContext(ctx, query, text, at, ownerID, documentID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountByOwner counts total and processed documents.
func (r *PGRepo) CountByOwner(ctx context.Context, ownerID string) (Counts, error) {
	const query = `
SELECT COUNT(*), COUNT(extracted_text)
FROM documents
WHERE owner_id = $1`
	var c Counts
	if err := r.DB.QueryRowContext(ctx, query, ownerID).Scan(&c.Total, &c.Processed); err != nil {
		return Counts{}, err
	}
	return c, nil
}

func (r *PGRepo) queryMany(ctx context.Context, query string, args ...any) ([]Document, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOne(row *sql.Row) (Document, error) {
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	return doc, err
}

func scanDocument(row rowScanner) (Document, error) {
	var doc Document
	var visibility string
	var shareToken sql.NullString
	var extracted sql.NullString
	var processedAt sql.NullTime
	if err := row.Scan(
		&doc.ID,
		&doc.OwnerID,
		&doc.OriginalName,
		&doc.MediaType,
		&doc.ByteSize,
		&doc.StorageRef,
		&doc.SHA256,
		&visibility,
		&shareToken,
		&extracted,
		&processedAt,
		&doc.CreatedAt,
	); err != nil {
		return Document{}, err
	}
	doc.Visibility = Visibility(visibility)
	if shareToken.Valid {
		doc.ShareToken = shareToken.String
	}
	if extracted.Valid {
		text := extracted.String
		doc.ExtractedText = &text
	}
	if processedAt.Valid {
		at := processedAt.Time
		doc.ProcessedAt = &at
	}
	return doc, nil
}

// isUUID reports whether id fits the documents.id column. Anything else
// cannot name a stored document.
func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

var _ Repo = (*PGRepo)(nil)
