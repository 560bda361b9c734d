package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Seldszar/nodecg/internal/dashboard/domain"
	"github.com/Seldszar/nodecg/internal/dashboard/store"
	"github.com/Seldszar/nodecg/pkg/cryptox"
)

// ErrNoSuchToken reports a regenerate or revoke against a token value
// that no row owns. Callers treat it as fatal for the operation, not a
// retry condition.
var ErrNoSuchToken = errors.New("service: no such token")

// TokenService owns the lifecycle of opaque dashboard tokens. A
// (provider, user id) pair holds at most one token at a time; the value
// never expires on its own and only changes through Regenerate.
type TokenService struct {
	Store store.Store
}

// FindOrCreate returns the existing token for the pair, minting a fresh
// one when none exists yet. Safe under concurrent calls for the same
// pair: the insert is conflict-free at the storage layer, and losers
// re-read the surviving row.
func (s *TokenService) FindOrCreate(ctx context.Context, provider, userID string) (string, error) {
	tokens := s.Store.Tokens()

	if t, err := tokens.GetByKey(ctx, provider, userID); err == nil {
		return t.Value, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return "", fmt.Errorf("find token: %w", err)
	}

	value, err := cryptox.NewToken()
	if err != nil {
		return "", err
	}

	err = tokens.Create(ctx, domain.Token{
		Provider: provider,
		UserID:   userID,
		Value:    value,
	})
	switch {
	case err == nil:
		return value, nil
	case errors.Is(err, store.ErrAlreadyExists):
		// Lost the race; the winner's token is the canonical one.
		t, err := tokens.GetByKey(ctx, provider, userID)
		if err != nil {
			return "", fmt.Errorf("find token after create race: %w", err)
		}
		return t.Value, nil
	default:
		return "", fmt.Errorf("create token: %w", err)
	}
}

// Find returns the token for the pair, or store.ErrNotFound. It never
// creates.
func (s *TokenService) Find(ctx context.Context, provider, userID string) (string, error) {
	t, err := s.Store.Tokens().GetByKey(ctx, provider, userID)
	if err != nil {
		return "", err
	}
	return t.Value, nil
}

// Lookup resolves an opaque token value back to its row. Used to
// validate cookies, query parameters, and handshake credentials.
func (s *TokenService) Lookup(ctx context.Context, value string) (domain.Token, error) {
	return s.Store.Tokens().GetByValue(ctx, value)
}

// Regenerate overwrites the token value in place on the row owning the
// given value and returns the new value. The old value stops resolving
// immediately. An unknown value yields ErrNoSuchToken.
func (s *TokenService) Regenerate(ctx context.Context, value string) (string, error) {
	next, err := cryptox.NewToken()
	if err != nil {
		return "", err
	}

	err = s.Store.Tokens().UpdateValue(ctx, value, next)
	if errors.Is(err, store.ErrNotFound) {
		return "", fmt.Errorf("%w: %q", ErrNoSuchToken, value)
	}
	if err != nil {
		return "", fmt.Errorf("regenerate token: %w", err)
	}
	return next, nil
}

// Revoke deletes the row owning the given value. Revoking an unknown
// value is not an error.
func (s *TokenService) Revoke(ctx context.Context, value string) error {
	if err := s.Store.Tokens().DeleteByValue(ctx, value); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}
