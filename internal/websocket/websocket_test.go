package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"smssync-site/internal/types"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) types.WSMessage {
	t.Helper()
	var msg types.WSMessage
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestHubGreetsAndBroadcasts(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(http.HandlerFunc(hub.Handler))
	defer srv.Close()

	a := dial(t, srv)
	b := dial(t, srv)

	assert.Equal(t, "hello", readMessage(t, a).Type)
	assert.Equal(t, "hello", readMessage(t, b).Type)
	assert.Eventually(t, func() bool { return hub.Count() == 2 }, 2*time.Second, 10*time.Millisecond)

	hub.Reload([]string{"css/styles.css"})

	for _, conn := range []*websocket.Conn{a, b} {
		msg := readMessage(t, conn)
		assert.Equal(t, "reload", msg.Type)
		assert.Equal(t, []string{"css/styles.css"}, msg.Changed)
	}
}

func TestHubForgetsDisconnectedClients(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(http.HandlerFunc(hub.Handler))
	defer srv.Close()

	conn := dial(t, srv)
	readMessage(t, conn)
	assert.Eventually(t, func() bool { return hub.Count() == 1 }, 2*time.Second, 10*time.Millisecond)

	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	conn.Close()

	assert.Eventually(t, func() bool { return hub.Count() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestBroadcastWithoutClients(t *testing.T) {
	hub := NewHub()
	assert.NotPanics(t, func() {
		hub.Reload(nil)
	})
	assert.Equal(t, 0, hub.Count())
}

func TestHandlerRejectsPlainHTTP(t *testing.T) {
	hub := NewHub()
	req := httptest.NewRequest("GET", "/ws", nil)
	w := httptest.NewRecorder()

	hub.Handler(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, hub.Count())
}
