package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Seldszar/nodecg/internal/dashboard/domain"
	"github.com/Seldszar/nodecg/internal/dashboard/service"
	"github.com/Seldszar/nodecg/internal/dashboard/session"
	"github.com/Seldszar/nodecg/internal/dashboard/socket"
	"github.com/Seldszar/nodecg/internal/dashboard/store"
	"github.com/Seldszar/nodecg/internal/dashboard/store/drivers/sqlite"
)

func newTestRouter(t *testing.T) (*Router, *service.TokenService) {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	tokens := &service.TokenService{Store: st}

	r := NewRouter("test", st, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r.TokenService = tokens
	r.SessionStore = session.NewStore(st.Sessions(), time.Hour)
	r.Gate = &AuthCheck{Tokens: tokens, Config: enabledConfig()}
	r.Gateway = socket.NewGateway(tokens)
	r.ApplyRoutes()

	return r, tokens
}

func TestRouterRootRedirectsToDashboard(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/dashboard/", rec.Header().Get("Location"))
}

func TestRouterDashboardRequiresAuth(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard/", nil))

	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, LoginPath, rec.Header().Get("Location"))
}

func TestRouterDashboardWithToken(t *testing.T) {
	r, tokens := newTestRouter(t)

	value, err := tokens.FindOrCreate(context.Background(), "twitch", "42")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/dashboard/", nil)
	req.AddCookie(&http.Cookie{Name: TokenCookieName, Value: value})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Dashboard")
}

func TestRouterLivez(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/livez", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "ok", body["status"])
}

func TestRouterReadyz(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterAuthKeyRegenerateViaIdentity(t *testing.T) {
	ctx := context.Background()
	r, tokens := newTestRouter(t)

	// Admitted through the identity branch: no token cookie yet.
	require.NoError(t, r.SessionStore.Set(ctx, "sid-1", &session.Data{
		User: &domain.Identity{ID: "42", Provider: "twitch", Allowed: true},
	}))

	req := httptest.NewRequest(http.MethodPost, "/authkey/regenerate", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: "sid-1"})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Key string `json:"key"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body.Key)

	tok, err := tokens.Lookup(ctx, body.Key)
	require.NoError(t, err)
	require.Equal(t, "twitch", tok.Provider)
	require.Equal(t, "42", tok.UserID)
}

func TestRouterAuthKeyRegenerate(t *testing.T) {
	r, tokens := newTestRouter(t)

	value, err := tokens.FindOrCreate(context.Background(), "twitch", "42")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/authkey/regenerate", nil)
	req.AddCookie(&http.Cookie{Name: TokenCookieName, Value: value})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Key string `json:"key"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body.Key)
	require.NotEqual(t, value, body.Key)

	// The old value is dead, the new one resolves.
	_, err = tokens.Lookup(context.Background(), value)
	require.ErrorIs(t, err, store.ErrNotFound)

	tok, err := tokens.Lookup(context.Background(), body.Key)
	require.NoError(t, err)
	require.Equal(t, "42", tok.UserID)
}
