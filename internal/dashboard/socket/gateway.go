package socket

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Seldszar/nodecg/internal/dashboard/metrics"
	"github.com/Seldszar/nodecg/internal/dashboard/service"
	"github.com/Seldszar/nodecg/pkg/httpx"
	"github.com/Seldszar/nodecg/pkg/slogx"
)

const (
	readLimit    = 64 * 1024
	writeTimeout = 10 * time.Second
)

// Gateway upgrades authorized HTTP requests to realtime connections and
// serves the small control protocol the dashboard uses over them.
type Gateway struct {
	Tokens *service.TokenService

	upgrader websocket.Upgrader
}

func NewGateway(tokens *service.TokenService) *Gateway {
	return &Gateway{
		Tokens: tokens,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}
}

type envelope struct {
	Type  string `json:"type"`
	Token string `json:"token,omitempty"`
	Error string `json:"error,omitempty"`
}

// ServeHTTP authorizes the upgrade request before switching protocols.
// Rejections stay plain HTTP so the client sees the failure code.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	data := &AuthData{Request: r}
	if err := Authorize(ctx, g.Tokens, data); err != nil {
		var code string
		if uerr, ok := err.(*UnauthorizedError); ok {
			code = uerr.Code
		} else {
			code = CodeInternalError
		}

		status := http.StatusUnauthorized
		if code == CodeInternalError {
			status = http.StatusInternalServerError
			log.Error("handshake failed", "error", err)
		}
		httpx.WriteJSON(w, status, map[string]string{"error": code})
		return
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	conn.SetReadLimit(readLimit)
	g.serve(ctx, conn, data.Token)
}

// serve runs the per-connection message loop. The only mutating message
// is regenerateToken: the connection's own credential is rotated, the
// new value is sent back, and the connection closes so the client
// reconnects with it.
func (g *Gateway) serve(ctx context.Context, conn *websocket.Conn, token string) {
	log := slogx.FromContext(ctx)

	for {
		var msg envelope
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn("websocket read failed", "error", err)
			}
			return
		}

		switch msg.Type {
		case "ping":
			g.write(conn, envelope{Type: "pong"})

		case "regenerateToken":
			next, err := g.Tokens.Regenerate(ctx, token)
			if err != nil {
				log.Error("token regeneration failed", "error", err)
				g.write(conn, envelope{Type: "error", Error: "regenerate_failed"})
				return
			}

			metrics.TokensRegenerated.Inc()
			g.write(conn, envelope{Type: "token", Token: next})
			// The credential this connection authenticated with no
			// longer exists; force a reconnect with the new one.
			return

		default:
			g.write(conn, envelope{Type: "error", Error: "unknown_message"})
		}
	}
}

func (g *Gateway) write(conn *websocket.Conn, msg envelope) {
	raw, err := json.Marshal(msg)
	if err != nil {
		return
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	_ = conn.WriteMessage(websocket.TextMessage, raw)
}
