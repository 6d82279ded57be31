package idempotency

import (
	"context"
	"time"

	"github.com/redis/rueidis"
)

const redisKeyPrefix = "docqa:idem:"

// RedisRepo implements Repo with SET NX. Redis expires the key at ExpiresAt.
type RedisRepo struct {
	Client rueidis.Client
}

// InsertUnique sets the key only if it does not exist.
func (r *RedisRepo) InsertUnique(ctx context.Context, rec Record) error {
	ttl := rec.ExpiresAt.Sub(rec.CreatedAt)
	if ttl < time.Second {
		ttl = time.Second
	}
	cmd := r.Client.B().Set().
		Key(redisKeyPrefix + rec.Key).
		Value(rec.OwnerID).
		Nx().
		ExSeconds(int64(ttl / time.Second)).
		Build()
	err := r.Client.Do(ctx, cmd).Error()
	if rueidis.IsRedisNil(err) {
		return ErrKeyExists
	}
	return err
}

// Delete removes a record by key.
func (r *RedisRepo) Delete(ctx context.Context, key string) error {
	return r.Client.Do(ctx, r.Client.B().Del().Key(redisKeyPrefix+key).Build()).Error()
}

var _ Repo = (*RedisRepo)(nil)
