// Package metrics exposes Prometheus collectors for the access-control
// core: request authorization outcomes, handshake failures, and session
// housekeeping.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthDecisions counts Auth Gate outcomes by decision
	// ("allowed", "redirected") and reason ("login_disabled", "token",
	// "identity", "invalid_token", "unauthenticated").
	AuthDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nodecg",
		Subsystem: "auth",
		Name:      "decisions_total",
		Help:      "Authorization decisions made by the dashboard auth gate.",
	}, []string{"decision", "reason"})

	// HandshakeFailures counts rejected realtime handshakes by error code.
	HandshakeFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nodecg",
		Subsystem: "socket",
		Name:      "handshake_failures_total",
		Help:      "Realtime handshake rejections by error code.",
	}, []string{"code"})

	// SessionsSwept counts sessions removed by the expiration sweeper.
	SessionsSwept = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "nodecg",
		Subsystem: "sessions",
		Name:      "swept_total",
		Help:      "Expired sessions removed by the background sweeper.",
	})

	// TokensRegenerated counts explicit token regenerations.
	TokensRegenerated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "nodecg",
		Subsystem: "auth",
		Name:      "tokens_regenerated_total",
		Help:      "Opaque dashboard tokens regenerated on user request.",
	})
)
