// Package realtime pushes spot occupancy changes to websocket clients.
package realtime

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/arunpandian9159/Parking-ticket-system-sub001/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	broadcastBuffer = 64
	writeWait       = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Hub fans spot updates out to every connected client. Only the Run
// goroutine writes to connections.
type Hub struct {
	mu        sync.Mutex
	clients   map[*websocket.Conn]struct{}
	broadcast chan model.SpotUpdate
	// writeWait bounds each write so a stalled client cannot hold up Run.
	writeWait time.Duration
}

func NewHub() *Hub {
	return &Hub{
		clients:   make(map[*websocket.Conn]struct{}),
		broadcast: make(chan model.SpotUpdate, broadcastBuffer),
		writeWait: writeWait,
	}
}

// SpotChanged queues u for delivery. Updates are dropped when the queue is
// full so ticket operations never wait on slow clients.
func (h *Hub) SpotChanged(u model.SpotUpdate) {
	select {
	case h.broadcast <- u:
	default:
		slog.Warn("spot update dropped", "spot", u.Spot)
	}
}

// Run delivers queued updates until ctx is done, then closes all clients.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case u := <-h.broadcast:
			for _, conn := range h.snapshot() {
				if err := h.write(conn, u); err != nil {
					slog.Warn("websocket write failed", "remote", conn.RemoteAddr().String(), "err", err)
					h.remove(conn)
				}
			}
		}
	}
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Handler upgrades the request and keeps the client registered until it
// disconnects. Incoming messages are ignored.
func (h *Hub) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			slog.Warn("websocket upgrade failed", "err", err)
			return
		}
		h.add(conn)
		defer h.remove(conn)

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}
}

func (h *Hub) write(conn *websocket.Conn, u model.SpotUpdate) error {
	if err := conn.SetWriteDeadline(time.Now().Add(h.writeWait)); err != nil {
		return err
	}
	return conn.WriteJSON(u)
}

func (h *Hub) add(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = struct{}{}
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	_, ok := h.clients[conn]
	delete(h.clients, conn)
	h.mu.Unlock()
	if ok {
		conn.Close()
	}
}

func (h *Hub) snapshot() []*websocket.Conn {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	return conns
}

func (h *Hub) closeAll() {
	for _, conn := range h.snapshot() {
		h.remove(conn)
	}
}
