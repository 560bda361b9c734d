package store

import (
	"context"
	"errors"
	"time"

	"github.com/Seldszar/nodecg/internal/dashboard/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite,
// redis for sessions) implement the repositories. The tokens and
// sessions tables are owned exclusively by their repositories; nothing
// else in the process writes to them.
type Store interface {
	Tokens() Tokens
	Sessions() Sessions

	ApplyMigrations() error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the backing storage is still reachable.
	Ping(ctx context.Context) error
}

type Tokens interface {
	// GetByKey returns the token owned by a (provider, userID) pair.
	GetByKey(ctx context.Context, provider, userID string) (domain.Token, error)

	// GetByValue returns the token row owning the opaque value.
	GetByValue(ctx context.Context, value string) (domain.Token, error)

	// Create inserts t unless a row for its (provider, userID) pair
	// already exists, in which case it returns ErrAlreadyExists and
	// leaves the existing row untouched. Concurrent creators for the
	// same pair converge on a single row.
	Create(ctx context.Context, t domain.Token) error

	// UpdateValue overwrites the token value in place on the row that
	// currently owns oldValue. Returns ErrNotFound when no row does.
	UpdateValue(ctx context.Context, oldValue, newValue string) error

	// DeleteByValue revokes a token. Deleting an absent value is not
	// an error.
	DeleteByValue(ctx context.Context, value string) error
}

type Sessions interface {
	// Get returns a session row by id.
	Get(ctx context.Context, id string) (domain.Session, error)

	// Upsert atomically creates or replaces the row keyed by s.ID.
	Upsert(ctx context.Context, s domain.Session) error

	// UpdateExpiry rewrites only the expiry of an existing row, leaving
	// the payload untouched. Missing rows are ignored.
	UpdateExpiry(ctx context.Context, id string, expiresAt time.Time) error

	// Delete removes the row if present; absent rows are not an error.
	Delete(ctx context.Context, id string) error

	// DeleteExpired removes every row whose expiry has passed at now
	// and reports how many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
