package answers

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const answerColumns = `id, owner_id, document_id, question, answer, sources, created_at, expires_at`

// Create inserts a row; sources are stored as a JSON array.
func (r *PGRepo) Create(ctx context.Context, a CachedAnswer) error {
	const query = `
INSERT INTO cached_answers (` + answerColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	sources := a.Sources
	if sources == nil {
		sources = []string{}
	}
	raw, err := json.Marshal(sources)
	if err != nil {
		return fmt.Errorf("marshal sources: %w", err)
	}
	_, err = r.DB.ExecContext(ctx, query,
		a.ID,
		a.OwnerID,
		a.DocumentID,
		a.Question,
		a.Answer,
		raw,
		a.CreatedAt,
		a.ExpiresAt,
	)
	return err
}

// FindLatestValid returns the newest unexpired row for the fingerprint.
func (r *PGRepo) FindLatestValid(ctx context.Context, ownerID, documentID, question string, now time.Time) (CachedAnswer, error) {
	const query = `
SELECT ` + answerColumns + `
FROM cached_answers
WHERE owner_id = $1 AND document_id = $2 AND question = $3 AND expires_at > $4
ORDER BY created_at DESC, id DESC
LIMIT 1`

	a, err := scanAnswer(r.DB.QueryRowContext(ctx, query, ownerID, documentID, question, now))
	if errors.Is(err, sql.ErrNoRows) {
		return CachedAnswer{}, ErrNotFound
	}
	return a, err
}

// CountByOwner counts the owner's rows.
func (r *PGRepo) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	const query = `SELECT COUNT(*) FROM cached_answers WHERE owner_id = $1`
	var n int
	if err := r.DB.QueryRowContext(ctx, query, ownerID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Recent returns the owner's newest rows.
func (r *PGRepo) Recent(ctx context.Context, ownerID string, limit int) ([]CachedAnswer, error) {
	const query = `
SELECT ` + answerColumns + `
FROM cached_answers
WHERE owner_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2`

	rows, err := r.DB.QueryContext(ctx, query, ownerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []CachedAnswer{}
	for rows.Next() {
		a, err := scanAnswer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnswer(row rowScanner) (CachedAnswer, error) {
	var a CachedAnswer
	var raw []byte
	if err := row.Scan(
		&a.ID,
		&a.OwnerID,
		&a.DocumentID,
		&a.Question,
		&a.Answer,
		&raw,
		&a.CreatedAt,
		&a.ExpiresAt,
	); err != nil {
		return CachedAnswer{}, err
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &a.Sources); err != nil {
			return CachedAnswer{}, fmt.Errorf("decode sources: %w", err)
		}
	}
	if a.Sources == nil {
		a.Sources = []string{}
	}
	return a, nil
}

var _ Repo = (*PGRepo)(nil)
