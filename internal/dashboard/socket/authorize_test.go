package socket

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Seldszar/nodecg/internal/dashboard/domain"
	"github.com/Seldszar/nodecg/internal/dashboard/store"
)

type fakeLookup struct {
	tokens map[string]domain.Token
	err    error
}

func (f *fakeLookup) Lookup(_ context.Context, value string) (domain.Token, error) {
	if f.err != nil {
		return domain.Token{}, f.err
	}
	tok, ok := f.tokens[value]
	if !ok {
		return domain.Token{}, store.ErrNotFound
	}
	return tok, nil
}

func knownLookup(values ...string) *fakeLookup {
	f := &fakeLookup{tokens: map[string]domain.Token{}}
	for _, v := range values {
		f.tokens[v] = domain.Token{Provider: domain.ProviderNone, UserID: "local", Value: v}
	}
	return f
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	var ue *UnauthorizedError
	require.ErrorAs(t, err, &ue)
	require.Equal(t, code, ue.Code)
}

func TestAuthorize(t *testing.T) {
	ctx := context.Background()

	t.Run("bearer header", func(t *testing.T) {
		data := &AuthData{Header: http.Header{"Authorization": {"Bearer good"}}}
		require.NoError(t, Authorize(ctx, knownLookup("good"), data))
		require.Equal(t, "good", data.Token)
	})

	t.Run("bearer scheme is case insensitive", func(t *testing.T) {
		data := &AuthData{Header: http.Header{"Authorization": {"bearer good"}}}
		require.NoError(t, Authorize(ctx, knownLookup("good"), data))
		require.Equal(t, "good", data.Token)
	})

	t.Run("query parameter", func(t *testing.T) {
		data := &AuthData{Query: url.Values{"token": {"good"}}}
		require.NoError(t, Authorize(ctx, knownLookup("good"), data))
		require.Equal(t, "good", data.Token)
	})

	t.Run("query parameter wins over header", func(t *testing.T) {
		data := &AuthData{
			Header: http.Header{"Authorization": {"Bearer stale"}},
			Query:  url.Values{"token": {"good"}},
		}
		require.NoError(t, Authorize(ctx, knownLookup("good"), data))
		require.Equal(t, "good", data.Token)
	})

	t.Run("request shaped handshake", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/socket?token=good", nil)
		data := &AuthData{Request: req}
		require.NoError(t, Authorize(ctx, knownLookup("good"), data))
		require.Equal(t, "good", data.Token)
	})

	t.Run("malformed header", func(t *testing.T) {
		data := &AuthData{Header: http.Header{"Authorization": {"Bearer a b"}}}
		requireCode(t, Authorize(ctx, knownLookup("good"), data), CodeCredentialsBadFormat)
	})

	t.Run("non bearer scheme is malformed", func(t *testing.T) {
		data := &AuthData{Header: http.Header{"Authorization": {"Basic dXNlcjpwYXNz"}}}
		requireCode(t, Authorize(ctx, knownLookup("good"), data), CodeCredentialsBadFormat)
	})

	t.Run("no credential at all", func(t *testing.T) {
		requireCode(t, Authorize(ctx, knownLookup("good"), &AuthData{}), CodeCredentialsRequired)
	})

	t.Run("unknown token", func(t *testing.T) {
		data := &AuthData{Query: url.Values{"token": {"nope"}}}
		err := Authorize(ctx, knownLookup("good"), data)
		requireCode(t, err, CodeInvalidToken)
		require.Empty(t, data.Token)
	})

	t.Run("storage fault", func(t *testing.T) {
		boom := errors.New("disk on fire")
		data := &AuthData{Query: url.Values{"token": {"good"}}}
		err := Authorize(ctx, &fakeLookup{err: boom}, data)
		requireCode(t, err, CodeInternalError)
		require.ErrorIs(t, err, boom)
	})
}

func TestAuthorizerContinuations(t *testing.T) {
	ctx := context.Background()

	t.Run("success accepts", func(t *testing.T) {
		validate := Authorizer(knownLookup("good"), nil)

		var gotErr error
		var gotOK bool
		validate(ctx, &AuthData{Query: url.Values{"token": {"good"}}}, func(err error, ok bool) {
			gotErr, gotOK = err, ok
		})
		require.NoError(t, gotErr)
		require.True(t, gotOK)
	})

	t.Run("request shaped failure carries the error", func(t *testing.T) {
		validate := Authorizer(knownLookup("good"), nil)

		req := httptest.NewRequest(http.MethodGet, "/socket?token=nope", nil)
		var gotErr error
		var gotOK bool
		validate(ctx, &AuthData{Request: req}, func(err error, ok bool) {
			gotErr, gotOK = err, ok
		})
		require.False(t, gotOK)
		requireCode(t, gotErr, CodeInvalidToken)
	})

	t.Run("raw payload failure stays silent", func(t *testing.T) {
		validate := Authorizer(knownLookup("good"), nil)

		var gotErr error
		var gotOK bool
		validate(ctx, &AuthData{Query: url.Values{"token": {"nope"}}}, func(err error, ok bool) {
			gotErr, gotOK = err, ok
		})
		require.False(t, gotOK)
		require.NoError(t, gotErr)
	})

	t.Run("custom continuations", func(t *testing.T) {
		var failed error
		validate := Authorizer(knownLookup("good"), &Options{
			Fail: func(err error, _ *AuthData, accept Accept) {
				failed = err
				accept(nil, false)
			},
		})

		validate(ctx, &AuthData{}, func(error, bool) {})
		requireCode(t, failed, CodeCredentialsRequired)
	})
}
