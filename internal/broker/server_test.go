package broker

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emojicoin/indexer/internal/config"
	"github.com/emojicoin/indexer/internal/pubsub"
)

func TestConnSilentUntilFirstSubscription(t *testing.T) {
	hub := pubsub.NewHub(16, nil)
	srv := NewServer(config.BrokerConfig{
		PingInterval: time.Minute,
		WriteTimeout: time.Second,
	}, hub, nil)

	ts := httptest.NewServer(http.HandlerFunc(srv.handleUpgrade))
	defer ts.Close()

	ws, _, err := websocket.DefaultDialer.Dial(
		"ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	require.NoError(t, err)
	defer ws.Close()

	// Events published before the client's first message must not reach it.
	hub.Publish([]pubsub.DbEvent{{Type: pubsub.TypeSwap, MarketID: 1}})
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int64(0), srv.sent.Load())

	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte(`{"markets": [1]}`)))

	// The read loop applies the update asynchronously; publish until a
	// frame goes out.
	deadline := time.Now().Add(2 * time.Second)
	for srv.sent.Load() == 0 {
		require.True(t, time.Now().Before(deadline), "no event delivered after subscribing")
		hub.Publish([]pubsub.DbEvent{{Type: pubsub.TypeSwap, MarketID: 1}})
		time.Sleep(10 * time.Millisecond)
	}

	ws.SetReadDeadline(time.Now().Add(time.Second))
	_, data, err := ws.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"Swap"`)
}
