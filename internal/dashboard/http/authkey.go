package http

import (
	"net/http"

	"github.com/Seldszar/nodecg/internal/dashboard/metrics"
	"github.com/Seldszar/nodecg/internal/dashboard/service"
	"github.com/Seldszar/nodecg/internal/dashboard/session"
	"github.com/Seldszar/nodecg/pkg/httpx"
	"github.com/Seldszar/nodecg/pkg/slogx"
)

// AuthKeyHandler rotates the caller's dashboard token ("reset key").
// Runs behind the auth gate, so the presented cookie is known valid.
type AuthKeyHandler struct {
	Tokens *service.TokenService
	Gate   *AuthCheck
}

func (h *AuthKeyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	current := r.URL.Query().Get("key")
	if current == "" {
		if c, err := r.Cookie(TokenCookieName); err == nil {
			current = c.Value
		}
	}
	if current == "" {
		// Gate admitted this request via identity, not a token; the
		// identity's token is the one to rotate.
		if handle := session.FromContext(ctx); handle != nil && handle.Data != nil && handle.Data.User != nil {
			user := handle.Data.User
			value, err := h.Tokens.FindOrCreate(ctx, user.ProviderName(), user.UserKey())
			if err != nil {
				log.Error("token lookup for identity failed", "error", err)
			} else {
				current = value
			}
		}
	}
	if current == "" {
		httpx.WriteJSON(w, http.StatusBadRequest, map[string]string{
			"error": "no_token_presented",
		})
		return
	}

	next, err := h.Tokens.Regenerate(ctx, current)
	if err != nil {
		log.Error("token regeneration failed", "error", err)
		httpx.WriteJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "regenerate_failed",
		})
		return
	}

	metrics.TokensRegenerated.Inc()
	h.Gate.setTokenCookie(w, CookieDomain(h.Gate.Config.BaseURL), next)
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"key": next})
}
