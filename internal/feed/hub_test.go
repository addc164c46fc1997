package feed_test

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/omnissiah/internal/feed"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func waitSubscribers(t *testing.T, hub *feed.Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.Subscribers() == n }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_BroadcastsToAllSubscribers(t *testing.T) {
	hub := feed.NewHub(zaptest.NewLogger(t))
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()

	a, b := dial(t, srv), dial(t, srv)
	waitSubscribers(t, hub, 2)

	hub.Publish("dice", "ann: Lasgun hit 1 time(s) for 10 damage (Body)")

	for _, conn := range []*websocket.Conn{a, b} {
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var msg feed.Message
		require.NoError(t, conn.ReadJSON(&msg))
		assert.Equal(t, "dice", msg.Channel)
		assert.Contains(t, msg.Text, "Lasgun")
		assert.False(t, msg.Time.IsZero())
	}
}

func TestHub_RemovesClosedSubscribers(t *testing.T) {
	hub := feed.NewHub(zaptest.NewLogger(t))
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dial(t, srv)
	waitSubscribers(t, hub, 1)
	require.NoError(t, conn.Close())
	waitSubscribers(t, hub, 0)

	hub.Publish("dice", "nobody listening")
}

func TestHub_CloseDisconnectsEveryone(t *testing.T) {
	hub := feed.NewHub(zaptest.NewLogger(t))
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dial(t, srv)
	waitSubscribers(t, hub, 1)
	hub.Close()
	assert.Equal(t, 0, hub.Subscribers())

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}

func TestHub_PublishWithoutSubscribers(t *testing.T) {
	hub := feed.NewHub(zaptest.NewLogger(t))
	assert.NotPanics(t, func() { hub.Publish("dice", "hello") })
}
