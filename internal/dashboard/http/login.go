package http

import (
	"fmt"
	"net/http"

	"github.com/Seldszar/nodecg/internal/dashboard/session"
	"github.com/Seldszar/nodecg/pkg/slogx"
)

// LoginHandler serves the login entry point. The page itself is a
// placeholder; identity acquisition happens in the external provider
// integration, which writes the identity into the session.
type LoginHandler struct {
	Gate *AuthCheck
}

func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Already logged in and allow-listed: bounce back to wherever the
	// gate originally intercepted the client.
	if handle := session.FromContext(ctx); handle != nil && handle.Data != nil {
		if user := handle.Data.User; user != nil && user.Allowed &&
			h.Gate.Config.ProviderEnabled(user.ProviderName()) {
			target := handle.Data.ReturnTo
			if target == "" {
				target = "/dashboard/"
			}
			handle.Data.ReturnTo = ""
			handle.MarkDirty()
			http.Redirect(w, r, target, http.StatusFound)
			return
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, `<!doctype html><title>NodeCG</title><h1>Log in</h1><p>Sign in with a configured provider to continue.</p>`)
}

// LogoutHandler tears down the session and both cookies, then sends the
// client back to the login page.
type LogoutHandler struct {
	Gate *AuthCheck
}

func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if handle := session.FromContext(ctx); handle != nil {
		if err := handle.Destroy(ctx); err != nil {
			log.Error("failed to destroy session on logout", "error", err)
		}
	}

	h.Gate.clearTokenCookie(w, CookieDomain(h.Gate.Config.BaseURL))
	http.Redirect(w, r, LoginPath, http.StatusFound)
}
