package answers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/rueidis"
	"go.uber.org/zap"

	"docqa-backend/internal/shared/telemetry"
	"docqa-backend/internal/shared/util"
)

const redisKeyPrefix = "docqa:answer:"

// RedisHotRepo keeps the newest answer per fingerprint in Redis in front of
// a durable Repo. Redis failures fall through to Next.
type RedisHotRepo struct {
	Next   Repo
	Client rueidis.Client
	Now    func() time.Time
}

type hotEntry struct {
	ID         string    `json:"id"`
	OwnerID    string    `json:"ownerId"`
	DocumentID string    `json:"documentId"`
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	Sources    []string  `json:"sources"`
	CreatedAt  time.Time `json:"createdAt"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

func hotKey(ownerID, documentID, question string) string {
	return redisKeyPrefix + util.HashParts(ownerID, documentID, question)
}

// Create writes through to Next and then refreshes the hot entry.
func (r *RedisHotRepo) Create(ctx context.Context, a CachedAnswer) error {
	if err := r.Next.Create(ctx, a); err != nil {
		return err
	}
	ttl := a.ExpiresAt.Sub(r.now())
	if ttl < time.Second {
		return nil
	}
	raw, err := json.Marshal(hotEntry(a))
	if err != nil {
		return nil
	}
	cmd := r.Client.B().Set().
		Key(hotKey(a.OwnerID, a.DocumentID, a.Question)).
		Value(string(raw)).
		Ex(ttl).
		Build()
	if err := r.Client.Do(ctx, cmd).Error(); err != nil {
		telemetry.FromContext(ctx).Warn("answers.hot_set_failed", zap.Error(err))
	}
	return nil
}

// FindLatestValid serves the hot entry when it is still valid at now.
func (r *RedisHotRepo) FindLatestValid(ctx context.Context, ownerID, documentID, question string, now time.Time) (CachedAnswer, error) {
	raw, err := r.Client.Do(ctx, r.Client.B().Get().Key(hotKey(ownerID, documentID, question)).Build()).ToString()
	switch {
	case err == nil:
		var e hotEntry
		if jerr := json.Unmarshal([]byte(raw), &e); jerr == nil && e.ExpiresAt.After(now) {
			return CachedAnswer(e), nil
		}
	case !rueidis.IsRedisNil(err):
		telemetry.FromContext(ctx).Warn("answers.hot_get_failed", zap.Error(err))
	}
	return r.Next.FindLatestValid(ctx, ownerID, documentID, question, now)
}

// CountByOwner delegates to Next.
func (r *RedisHotRepo) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	return r.Next.CountByOwner(ctx, ownerID)
}

// Recent delegates to Next.
func (r *RedisHotRepo) Recent(ctx context.Context, ownerID string, limit int) ([]CachedAnswer, error) {
	return r.Next.Recent(ctx, ownerID, limit)
}

func (r *RedisHotRepo) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

var _ Repo = (*RedisHotRepo)(nil)
