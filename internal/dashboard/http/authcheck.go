package http

import (
	"errors"
	"net/http"
	"regexp"

	"github.com/Seldszar/nodecg/internal/dashboard/domain"
	"github.com/Seldszar/nodecg/internal/dashboard/metrics"
	"github.com/Seldszar/nodecg/internal/dashboard/service"
	"github.com/Seldszar/nodecg/internal/dashboard/session"
	"github.com/Seldszar/nodecg/internal/dashboard/store"
	"github.com/Seldszar/nodecg/pkg/slogx"
)

const (
	// TokenCookieName carries the opaque dashboard token. Deliberately
	// not HttpOnly: the dashboard client reads it to authenticate its
	// realtime connection.
	TokenCookieName = "socketToken"

	// LoginPath is where unauthorized requests are sent. Auth failures
	// always redirect here, never render an error page.
	LoginPath = "/login"
)

// GateConfig is the slice of server configuration the auth gate needs.
type GateConfig struct {
	// LoginEnabled gates the whole mechanism; when false every request
	// passes through untouched.
	LoginEnabled bool

	// BaseURL is the configured dashboard address, used to derive the
	// cookie domain.
	BaseURL string

	// SecureCookies mirrors whether TLS is actually configured. Setting
	// the Secure attribute without TLS silently breaks cookie delivery,
	// so it is never assumed.
	SecureCookies bool

	// ProviderEnabled reports whether a login provider is enabled.
	ProviderEnabled func(name string) bool
}

// AuthCheck decides whether a request may reach the dashboard. It must
// run inside the session middleware.
type AuthCheck struct {
	Tokens *service.TokenService
	Config GateConfig
}

var trailingPort = regexp.MustCompile(`:[0-9]+$`)

// CookieDomain derives the cookie-scoping domain from the base URL:
// the trailing :port is stripped, and literal "localhost" maps to an
// empty domain because browsers reject it as a cookie domain attribute.
func CookieDomain(baseURL string) string {
	host := trailingPort.ReplaceAllString(baseURL, "")
	if host == "localhost" {
		return ""
	}
	return host
}

// Middleware is the request gate. Outcomes are pass-through (login
// disabled), allow with a refreshed token cookie, or redirect to the
// login entry point.
func (a *AuthCheck) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.Config.LoginEnabled {
			metrics.AuthDecisions.WithLabelValues("allowed", "login_disabled").Inc()
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		log := slogx.FromContext(ctx)
		scope := CookieDomain(a.Config.BaseURL)

		// A token presented explicitly (query parameter) or remembered
		// in the cookie authorizes the request directly.
		presented := r.URL.Query().Get("key")
		if presented == "" {
			if c, err := r.Cookie(TokenCookieName); err == nil {
				presented = c.Value
			}
		}

		if presented != "" {
			result, err := a.Tokens.Lookup(ctx, presented)
			if err == nil {
				a.setTokenCookie(w, scope, result.Value)
				metrics.AuthDecisions.WithLabelValues("allowed", "token").Inc()
				next.ServeHTTP(w, r)
				return
			}
			if !errors.Is(err, store.ErrNotFound) {
				// Transient storage fault: the token may still be good,
				// so the session survives and the client just retries
				// through the login page.
				log.Error("token lookup failed", "error", err)
				metrics.AuthDecisions.WithLabelValues("redirected", "internal_error").Inc()
				http.Redirect(w, r, LoginPath, http.StatusFound)
				return
			}

			// The client holds a token that no longer resolves. Drop
			// the session and the cookie now, otherwise the poisoned
			// cookie redirects into a login loop forever.
			if h := session.FromContext(ctx); h != nil {
				if err := h.Destroy(ctx); err != nil {
					log.Error("failed to destroy session", "error", err)
				}
			}
			a.clearTokenCookie(w, scope)
			metrics.AuthDecisions.WithLabelValues("redirected", "invalid_token").Inc()
			http.Redirect(w, r, LoginPath, http.StatusFound)
			return
		}

		// No token: fall back to the authenticated identity, if the
		// external login integration attached one to the session.
		var user *domain.Identity
		handle := session.FromContext(ctx)
		if handle != nil && handle.Data != nil {
			user = handle.Data.User
		}

		provider := domain.ProviderNone
		if user != nil {
			provider = user.ProviderName()
		}
		providerAllowed := provider != domain.ProviderNone && a.Config.ProviderEnabled(provider)

		if user != nil && user.Allowed && providerAllowed {
			value, err := a.Tokens.FindOrCreate(ctx, provider, user.UserKey())
			if err != nil {
				// Storage faults stay internal; the client only ever
				// sees the login redirect.
				log.Error("failed to find or create token", "error", err)
				metrics.AuthDecisions.WithLabelValues("redirected", "internal_error").Inc()
				http.Redirect(w, r, LoginPath, http.StatusFound)
				return
			}

			a.setTokenCookie(w, scope, value)
			metrics.AuthDecisions.WithLabelValues("allowed", "identity").Inc()
			next.ServeHTTP(w, r)
			return
		}

		if handle != nil && handle.Data != nil {
			handle.Data.ReturnTo = r.URL.RequestURI()
			handle.MarkDirty()
		}
		metrics.AuthDecisions.WithLabelValues("redirected", "unauthenticated").Inc()
		http.Redirect(w, r, LoginPath, http.StatusFound)
	})
}

func (a *AuthCheck) setTokenCookie(w http.ResponseWriter, scope, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:   TokenCookieName,
		Value:  value,
		Path:   "/",
		Domain: scope,
		Secure: a.Config.SecureCookies,
	})
}

func (a *AuthCheck) clearTokenCookie(w http.ResponseWriter, scope string) {
	http.SetCookie(w, &http.Cookie{
		Name:   TokenCookieName,
		Value:  "",
		Path:   "/",
		Domain: scope,
		MaxAge: -1,
		Secure: a.Config.SecureCookies,
	})
}
