package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Seldszar/nodecg/internal/dashboard/service"
	"github.com/Seldszar/nodecg/internal/dashboard/session"
	"github.com/Seldszar/nodecg/internal/dashboard/socket"
	"github.com/Seldszar/nodecg/internal/dashboard/store"
	"github.com/Seldszar/nodecg/pkg/httpx"
	"github.com/Seldszar/nodecg/pkg/slogx"
)

// Router holds shared dependencies for the dashboard HTTP surface.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store

	TokenService *service.TokenService
	SessionStore *session.Store
	Gate         *AuthCheck
	Gateway      *socket.Gateway
	CookieOpts   session.CookieOptions
}

func NewRouter(buildVersion string, st store.Store, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerDashboard()
	r.registerLogin()
	r.registerSocket()
	r.registerSystem()
}

// ServeHTTP implements http.Handler and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) sessions() httpx.Middleware {
	return session.Middleware(r.SessionStore, r.CookieOpts)
}

func (r *Router) registerDashboard() {
	r.Mux.Handle("GET /{$}", http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, "/dashboard/", http.StatusFound)
	}))

	// The dashboard body itself belongs to the templating layer; this
	// placeholder just proves the gate admitted the request.
	dashboard := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, "<!doctype html><title>NodeCG</title><h1>Dashboard</h1><p>%s</p>", r.buildVersion)
	})
	r.Mux.Handle("GET /dashboard/",
		httpx.Chain(dashboard,
			r.sessions(),
			r.Gate.Middleware,
		),
	)
}

func (r *Router) registerLogin() {
	// Login entry is rate limited strictly: it is the single door every
	// unauthenticated client gets pointed at.
	r.Mux.Handle("GET "+LoginPath,
		httpx.Chain(&LoginHandler{Gate: r.Gate},
			httpx.RateLimitByIP(httpx.StrictLimit),
			r.sessions(),
		),
	)

	r.Mux.Handle("GET /logout",
		httpx.Chain(&LogoutHandler{Gate: r.Gate},
			r.sessions(),
		),
	)

	r.Mux.Handle("POST /authkey/regenerate",
		httpx.Chain(&AuthKeyHandler{Tokens: r.TokenService, Gate: r.Gate},
			httpx.RateLimitByIP(httpx.StrictLimit),
			r.sessions(),
			r.Gate.Middleware,
		),
	)
}

func (r *Router) registerSocket() {
	// Realtime connections authenticate with a token only; no session
	// is involved in the handshake.
	r.Mux.Handle("GET /socket",
		httpx.Chain(r.Gateway,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /metrics", promhttp.Handler())
}
