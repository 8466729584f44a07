package live

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
)

func dialHub(t *testing.T, h *Hub) *websocket.Conn {
	t.Helper()
	t.Cleanup(h.Close)
	srv := httptest.NewServer(h.Handler())
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dialing hub: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHubSendsHelloOnConnect(t *testing.T) {
	hello := map[string]interface{}{"type": "config", "population": 50}
	h := NewHub(hello, nil)
	conn := dialHub(t, h)

	var msg map[string]interface{}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("reading hello: %v", err)
	}
	if msg["type"] != "config" {
		t.Errorf("hello type = %v, want config", msg["type"])
	}
}

func TestHubBroadcastsToClients(t *testing.T) {
	h := NewHub(map[string]string{"type": "hello"}, nil)
	conn := dialHub(t, h)

	// The hello arriving proves the client is registered before the
	// broadcast goes out.
	var hello map[string]interface{}
	if err := conn.ReadJSON(&hello); err != nil {
		t.Fatalf("reading hello: %v", err)
	}
	if h.ClientCount() != 1 {
		t.Fatalf("client count = %d, want 1", h.ClientCount())
	}

	h.Broadcast(map[string]interface{}{"type": "generation", "number": 7})

	var msg map[string]interface{}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("reading broadcast: %v", err)
	}
	if msg["type"] != "generation" {
		t.Errorf("broadcast type = %v, want generation", msg["type"])
	}
	if msg["number"] != float64(7) {
		t.Errorf("broadcast number = %v, want 7", msg["number"])
	}
}

func TestHubCloseDisconnectsClients(t *testing.T) {
	h := NewHub(map[string]string{"type": "hello"}, nil)
	conn := dialHub(t, h)

	var hello map[string]interface{}
	if err := conn.ReadJSON(&hello); err != nil {
		t.Fatalf("reading hello: %v", err)
	}

	h.Close()

	if h.ClientCount() != 0 {
		t.Errorf("client count after close = %d, want 0", h.ClientCount())
	}
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("read succeeded on a connection the hub closed")
	}

	// Defined no-ops after shutdown.
	h.Broadcast(map[string]string{"type": "generation"})
	h.Close()
}
