// Package redis provides a session repository backed by Redis, for
// deployments that want sessions off the primary database. Tokens stay
// in the relational store; only the session rows move here.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/Seldszar/nodecg/internal/dashboard/domain"
	"github.com/Seldszar/nodecg/internal/dashboard/store"
)

const keyPrefix = "dashboard_session:"

type Sessions struct {
	client *redis.Client
}

// NewSessions returns a store.Sessions implementation over client.
func NewSessions(client *redis.Client) *Sessions {
	return &Sessions{client: client}
}

// record is the stored form. The expiry is duplicated inside the value
// so Get can return it; Redis key expiry handles the actual eviction.
type record struct {
	ExpiresAt time.Time       `json:"expiresAt"`
	Data      json.RawMessage `json:"data"`
}

func (s *Sessions) Get(ctx context.Context, id string) (domain.Session, error) {
	raw, err := s.client.Get(ctx, keyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Session{}, store.ErrNotFound
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("redis: get session: %w", err)
	}

	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return domain.Session{}, fmt.Errorf("redis: decode session: %w", err)
	}

	return domain.Session{ID: id, ExpiresAt: rec.ExpiresAt, Data: rec.Data}, nil
}

func (s *Sessions) Upsert(ctx context.Context, sess domain.Session) error {
	raw, err := json.Marshal(record{
		ExpiresAt: sess.ExpiresAt.UTC(),
		Data:      json.RawMessage(sess.Data),
	})
	if err != nil {
		return fmt.Errorf("redis: encode session: %w", err)
	}

	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		// Already expired; writing it would be immediately evicted.
		return s.Delete(ctx, sess.ID)
	}

	if err := s.client.Set(ctx, keyPrefix+sess.ID, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis: set session: %w", err)
	}
	return nil
}

// UpdateExpiry moves the key's TTL without rewriting its value, so a
// concurrent Upsert can never be clobbered by a racing touch. The
// expiry copy inside the value goes stale, but eviction is what the
// TTL drives; Get callers only see it drift until the next full write.
func (s *Sessions) UpdateExpiry(ctx context.Context, id string, expiresAt time.Time) error {
	if !expiresAt.After(time.Now()) {
		return s.Delete(ctx, id)
	}
	if err := s.client.PExpireAt(ctx, keyPrefix+id, expiresAt).Err(); err != nil {
		return fmt.Errorf("redis: touch session: %w", err)
	}
	return nil
}

func (s *Sessions) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, keyPrefix+id).Err(); err != nil {
		return fmt.Errorf("redis: delete session: %w", err)
	}
	return nil
}

// DeleteExpired is a no-op: Redis evicts expired keys natively, so the
// sweeper has nothing to do for this backend.
func (s *Sessions) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}
