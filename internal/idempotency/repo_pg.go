package idempotency

import (
	"context"
	"database/sql"
)

// PGRepo implements Repo using the idempotency_keys primary key.
type PGRepo struct {
	DB *sql.DB
}

// InsertUnique inserts rec; a conflicting key inserts nothing.
func (r *PGRepo) InsertUnique(ctx context.Context, rec Record) error {
	const query = `
INSERT INTO idempotency_keys (key, owner_id, created_at, expires_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (key) DO NOTHING`

	res, err := r.DB.ExecContext(ctx, query, rec.Key, rec.OwnerID, rec.CreatedAt, rec.ExpiresAt)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrKeyExists
	}
	return nil
}

// Delete removes a record by key.
func (r *PGRepo) Delete(ctx context.Context, key string) error {
	const query = `DELETE FROM idempotency_keys WHERE key = $1`
	_, err := r.DB.ExecContext(ctx, query, key)
	return err
}

var _ Repo = (*PGRepo)(nil)
