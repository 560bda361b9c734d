package socket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/Seldszar/nodecg/internal/dashboard/service"
	"github.com/Seldszar/nodecg/internal/dashboard/store/drivers/sqlite"
)

func newGatewayServer(t *testing.T) (*httptest.Server, *service.TokenService) {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	tokens := &service.TokenService{Store: st}

	srv := httptest.NewServer(NewGateway(tokens))
	t.Cleanup(srv.Close)

	return srv, tokens
}

func dial(t *testing.T, srv *httptest.Server, token string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?token=" + token
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	_ = resp.Body.Close()

	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) envelope {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg envelope
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestGatewayRejectsBeforeUpgrade(t *testing.T) {
	srv, _ := newGatewayServer(t)

	t.Run("missing token", func(t *testing.T) {
		resp, err := http.Get(srv.URL)
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		var body map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.Equal(t, CodeCredentialsRequired, body["error"])
	})

	t.Run("unknown token", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "?token=nope")
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		var body map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.Equal(t, CodeInvalidToken, body["error"])
	})
}

func TestGatewayPingPong(t *testing.T) {
	srv, tokens := newGatewayServer(t)

	value, err := tokens.FindOrCreate(context.Background(), "twitch", "42")
	require.NoError(t, err)

	conn := dial(t, srv, value)
	require.NoError(t, conn.WriteJSON(envelope{Type: "ping"}))
	require.Equal(t, "pong", readEnvelope(t, conn).Type)
}

func TestGatewayRegenerateToken(t *testing.T) {
	ctx := context.Background()
	srv, tokens := newGatewayServer(t)

	value, err := tokens.FindOrCreate(ctx, "twitch", "42")
	require.NoError(t, err)

	conn := dial(t, srv, value)
	require.NoError(t, conn.WriteJSON(envelope{Type: "regenerateToken"}))

	msg := readEnvelope(t, conn)
	require.Equal(t, "token", msg.Type)
	require.NotEmpty(t, msg.Token)
	require.NotEqual(t, value, msg.Token)

	// The new value is live, the old one is not, and the connection is
	// closed so the client reconnects with the replacement.
	tok, err := tokens.Lookup(ctx, msg.Token)
	require.NoError(t, err)
	require.Equal(t, "42", tok.UserID)

	_, err = tokens.Lookup(ctx, value)
	require.Error(t, err)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err = conn.ReadMessage()
	require.Error(t, err)
}

func TestGatewayUnknownMessage(t *testing.T) {
	srv, tokens := newGatewayServer(t)

	value, err := tokens.FindOrCreate(context.Background(), "twitch", "42")
	require.NoError(t, err)

	conn := dial(t, srv, value)
	require.NoError(t, conn.WriteJSON(envelope{Type: "shrug"}))

	msg := readEnvelope(t, conn)
	require.Equal(t, "error", msg.Type)
	require.Equal(t, "unknown_message", msg.Error)
}
