package realtime

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/arunpandian9159/Parking-ticket-system-sub001/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, string) {
	t.Helper()
	return serveHub(t, NewHub())
}

func serveHub(t *testing.T, hub *Hub) (*Hub, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	router := gin.New()
	router.GET("/ws/spots", hub.Handler())
	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/spots"
}

func dial(t *testing.T, hub *Hub, url string, want int) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.Eventually(t, func() bool { return hub.Len() == want }, time.Second, 5*time.Millisecond)
	return conn
}

func TestHubBroadcast(t *testing.T) {
	hub, url := startHub(t)
	first := dial(t, hub, url, 1)
	second := dial(t, hub, url, 2)

	id := uuid.New()
	hub.SpotChanged(model.SpotUpdate{Spot: "A1", Occupied: true, TicketID: &id})

	for _, conn := range []*websocket.Conn{first, second} {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
		var got model.SpotUpdate
		require.NoError(t, conn.ReadJSON(&got))
		assert.Equal(t, "A1", got.Spot)
		assert.True(t, got.Occupied)
		require.NotNil(t, got.TicketID)
		assert.Equal(t, id, *got.TicketID)
	}
}

func TestHubDropsDisconnectedClients(t *testing.T) {
	hub, url := startHub(t)
	conn := dial(t, hub, url, 1)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestHubDropsClientsPastWriteDeadline(t *testing.T) {
	hub := NewHub()
	// Every write lands past its deadline, as with a client that stopped reading.
	hub.writeWait = -time.Second
	_, url := serveHub(t, hub)
	dial(t, hub, url, 1)

	hub.SpotChanged(model.SpotUpdate{Spot: "A1", Occupied: true})
	assert.Eventually(t, func() bool { return hub.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestSpotChangedDoesNotBlock(t *testing.T) {
	hub := NewHub()

	done := make(chan struct{})
	go func() {
		for i := 0; i < broadcastBuffer*2; i++ {
			hub.SpotChanged(model.SpotUpdate{Spot: "A1"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("SpotChanged blocked without a running hub")
	}
}
