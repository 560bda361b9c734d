package session

import (
	"net/http"
	"time"
)

// CookieName is the session id cookie.
const CookieName = "nodecg.sid"

// CookieOptions defines how the session cookie is issued.
type CookieOptions struct {
	Domain string
	Secure bool
	MaxAge time.Duration
}

func setCookie(w http.ResponseWriter, id string, opts CookieOptions) {
	c := &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		Domain:   opts.Domain,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	// Zero max age means a browser-session cookie.
	if opts.MaxAge > 0 {
		c.Expires = time.Now().Add(opts.MaxAge)
	}
	http.SetCookie(w, c)
}

func clearCookie(w http.ResponseWriter, opts CookieOptions) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		Domain:   opts.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
