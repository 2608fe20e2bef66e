// Package server publishes poll snapshots to display clients over a local
// websocket endpoint. The core never talks to a UI thread; whatever owns
// presentation subscribes here.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"crypto_tracker/internal/domain"
)

const writeTimeout = 5 * time.Second

// client wraps one display connection. The websocket library allows a single
// writer at a time, so every write goes through writeMu: the broadcast
// goroutine and the replay on connect would otherwise race on the same conn.
type client struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *client) write(payload []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

// Hub fans snapshots out to every connected display client. New clients
// immediately receive the latest snapshot so the widget never starts blank.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]bool
	last    []byte // latest encoded snapshot, replayed to new clients
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// The endpoint binds to localhost; display clients are local.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[*client]bool),
	}
}

// ServeHTTP upgrades the connection and registers the client.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", slog.Any("error", err))
		return
	}

	c := &client{conn: conn}

	h.mu.Lock()
	h.clients[c] = true
	last := h.last
	h.mu.Unlock()

	slog.Info("display client connected", slog.String("remote", conn.RemoteAddr().String()))

	if last != nil {
		h.send(c, last)
	}

	// Reader goroutine: clients send nothing meaningful, but reading is
	// what surfaces the close.
	go func() {
		defer h.drop(c)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Run consumes snapshots until the context ends, broadcasting each one.
func (h *Hub) Run(ctx context.Context, snapshots <-chan domain.Snapshot) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case snapshot := <-snapshots:
			h.Broadcast(snapshot)
		}
	}
}

// Broadcast sends a snapshot to every client, dropping the ones that fail.
func (h *Hub) Broadcast(snapshot domain.Snapshot) {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		slog.Error("failed to encode snapshot", slog.Any("error", err))
		return
	}

	h.mu.Lock()
	h.last = payload
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		h.send(c, payload)
	}
}

func (h *Hub) send(c *client, payload []byte) {
	if err := c.write(payload); err != nil {
		slog.Warn("display client write failed, dropping", slog.Any("error", err))
		h.drop(c)
	}
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	h.mu.Unlock()

	c.conn.Close()
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(map[*client]bool)
	h.mu.Unlock()

	for _, c := range clients {
		c.conn.Close()
	}
}

// ClientCount returns the number of connected display clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
