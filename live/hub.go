// Package live streams generation results to websocket clients so a browser
// dashboard can follow a run without touching the output files.
package live

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// Client is one connected websocket consumer. The mutex serializes writes;
// gorilla connections allow only one concurrent writer.
type Client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// Send writes one JSON message to the client.
func (c *Client) Send(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

// Hub fans generation messages out to all connected clients. Broadcast is
// safe to call from the simulation goroutine; delivery happens on a separate
// goroutine so a slow client cannot stall the run.
type Hub struct {
	log *slog.Logger

	mu      sync.Mutex
	clients map[*Client]struct{}
	hello   interface{}
	closed  bool

	messages chan interface{}
}

// NewHub creates a hub and starts its delivery goroutine. hello, when not
// nil, is sent to every client on connect (run metadata for the dashboard).
func NewHub(hello interface{}, log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	h := &Hub{
		log:      log,
		clients:  make(map[*Client]struct{}),
		hello:    hello,
		messages: make(chan interface{}, 16),
	}
	go h.run()
	return h
}

// Broadcast queues a message for delivery to all connected clients. When the
// queue is full the message is dropped; the dashboard is best-effort.
// Broadcasting on a closed hub is a no-op.
func (h *Hub) Broadcast(v interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	select {
	case h.messages <- v:
	default:
		h.log.Debug("dropping live message, queue full")
	}
}

// Close stops the delivery goroutine and disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(map[*Client]struct{})
	h.mu.Unlock()

	close(h.messages)
	for _, c := range clients {
		c.conn.Close()
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) run() {
	for msg := range h.messages {
		h.mu.Lock()
		list := make([]*Client, 0, len(h.clients))
		for c := range h.clients {
			list = append(list, c)
		}
		h.mu.Unlock()

		for _, c := range list {
			if err := c.Send(msg); err != nil {
				h.log.Debug("dropping live client", slog.Any("error", err))
				h.drop(c)
			}
		}
	}
}

func (h *Hub) drop(c *Client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.conn.Close()
}

// Handler upgrades requests to websocket connections and keeps them
// registered until the peer hangs up.
func (h *Hub) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.log.Warn("websocket upgrade failed", slog.Any("error", err))
			return
		}
		client := &Client{conn: conn}

		h.mu.Lock()
		if h.closed {
			h.mu.Unlock()
			conn.Close()
			return
		}
		h.clients[client] = struct{}{}
		h.mu.Unlock()

		if h.hello != nil {
			_ = client.Send(h.hello)
		}

		// Drain the read side until the peer disconnects; inbound
		// messages are ignored, the stream is one-way.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}

		h.drop(client)
	}
}
