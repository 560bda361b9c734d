// Package session implements durable cookie-backed login sessions: a
// four-operation store over the sessions table and the HTTP middleware
// that loads and persists them around each request.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Seldszar/nodecg/internal/dashboard/domain"
	"github.com/Seldszar/nodecg/internal/dashboard/store"
)

// DefaultExpiration is the session TTL applied when the payload carries
// no explicit cookie expiry.
const DefaultExpiration = 24 * time.Hour

// Store persists sessions. It implements the get/set/destroy/touch
// contract expected by the session middleware.
type Store struct {
	sessions   store.Sessions
	expiration time.Duration
}

// NewStore wraps a session repository. If expiration is zero or
// negative it falls back to DefaultExpiration.
func NewStore(sessions store.Sessions, expiration time.Duration) *Store {
	if expiration <= 0 {
		expiration = DefaultExpiration
	}
	return &Store{sessions: sessions, expiration: expiration}
}

// Get returns the session payload, or (nil, nil) when no session with
// that id exists. A missing session is an expected condition, not an
// error.
func (s *Store) Get(ctx context.Context, id string) (*Data, error) {
	sess, err := s.sessions.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session: get: %w", err)
	}

	data, err := decodeData(sess.Data)
	if err != nil {
		return nil, fmt.Errorf("session: decode %q: %w", id, err)
	}
	return data, nil
}

// Set atomically creates or replaces the session row. The expiry comes
// from the payload's cookie expiry when present, else now + TTL.
func (s *Store) Set(ctx context.Context, id string, data *Data) error {
	raw, err := encodeData(data)
	if err != nil {
		return fmt.Errorf("session: encode %q: %w", id, err)
	}

	err = s.sessions.Upsert(ctx, domain.Session{
		ID:        id,
		ExpiresAt: s.expiresAt(data),
		Data:      raw,
	})
	if err != nil {
		return fmt.Errorf("session: set: %w", err)
	}
	return nil
}

// Destroy deletes the session. Destroying an absent session succeeds.
func (s *Store) Destroy(ctx context.Context, id string) error {
	if err := s.sessions.Delete(ctx, id); err != nil {
		return fmt.Errorf("session: destroy: %w", err)
	}
	return nil
}

// Touch extends the session's life without rewriting its payload.
func (s *Store) Touch(ctx context.Context, id string, data *Data) error {
	if err := s.sessions.UpdateExpiry(ctx, id, s.expiresAt(data)); err != nil {
		return fmt.Errorf("session: touch: %w", err)
	}
	return nil
}

func (s *Store) expiresAt(data *Data) time.Time {
	if data != nil && data.Cookie.Expires != nil {
		return *data.Cookie.Expires
	}
	return time.Now().Add(s.expiration)
}
