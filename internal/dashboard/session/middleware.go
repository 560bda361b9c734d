package session

import (
	"context"
	"net/http"

	"github.com/Seldszar/nodecg/pkg/cryptox"
	"github.com/Seldszar/nodecg/pkg/slogx"
)

type ctxKey struct{}

// Handle is the per-request view of a session. Handlers mutate Data and
// call MarkDirty; the middleware persists on completion.
type Handle struct {
	ID   string
	Data *Data

	store     *Store
	w         http.ResponseWriter
	opts      CookieOptions
	dirty     bool
	fresh     bool
	destroyed bool
}

// FromContext returns the request's session handle, or nil outside the
// session middleware.
func FromContext(ctx context.Context) *Handle {
	h, _ := ctx.Value(ctxKey{}).(*Handle)
	return h
}

// MarkDirty records that Data changed and must be written back.
func (h *Handle) MarkDirty() { h.dirty = true }

// Destroy deletes the session row and clears the session cookie. The
// session is not persisted afterwards even if marked dirty.
func (h *Handle) Destroy(ctx context.Context) error {
	h.destroyed = true
	clearCookie(h.w, h.opts)
	return h.store.Destroy(ctx, h.ID)
}

// Middleware loads the session identified by the request cookie (or
// creates a fresh one), attaches it to the context, and persists it
// when the handler finishes: a full write when dirty or fresh, a touch
// otherwise so activity extends the session's life.
func Middleware(store *Store, opts CookieOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			handle := &Handle{store: store, w: w, opts: opts}

			if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
				data, err := store.Get(ctx, cookie.Value)
				if err != nil {
					log.Error("failed to load session", "error", err)
				}
				if data != nil {
					handle.ID = cookie.Value
					handle.Data = data
				}
			}

			if handle.ID == "" {
				id, err := cryptox.NewSessionID()
				if err != nil {
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
					return
				}
				handle.ID = id
				handle.Data = &Data{}
				handle.fresh = true
				// The id is known up front, so the cookie can go out
				// before the handler writes the response.
				setCookie(w, id, opts)
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, ctxKey{}, handle)))

			if handle.destroyed {
				return
			}

			switch {
			case handle.dirty || handle.fresh:
				if err := store.Set(ctx, handle.ID, handle.Data); err != nil {
					log.Error("failed to save session", "error", err)
				}
			default:
				if err := store.Touch(ctx, handle.ID, handle.Data); err != nil {
					log.Error("failed to touch session", "error", err)
				}
			}
		})
	}
}
