package display

import (
	"net/http"
	"sync"
	"time"

	"github.com/dougsko/trx8/pkg/logging"
	"github.com/gorilla/websocket"
)

// Frame is one message on the websocket feed
type Frame struct {
	Type   string `json:"type"`
	Status Status `json:"status"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

// Hub pushes the status to every connected websocket client
type Hub struct {
	*Model

	mu      sync.Mutex
	clients map[*hubClient]struct{}
}

type hubClient struct {
	conn *websocket.Conn
	send chan Status
}

// NewHub creates a hub with no clients
func NewHub() *Hub {
	h := &Hub{clients: make(map[*hubClient]struct{})}
	h.Model = NewModel(h.broadcast)
	return h
}

// Clients returns the number of connected clients
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// broadcast queues s for every client; a client that cannot keep up misses
// intermediate frames but always gets a newer one
func (h *Hub) broadcast(s Status) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		select {
		case c.send <- s:
		default:
			// Drop the oldest queued frame
			select {
			case <-c.send:
			default:
			}
			select {
			case c.send <- s:
			default:
			}
		}
	}
}

// ServeHTTP upgrades the request and streams status frames until the client leaves
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warnf("websocket", "upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	client := &hubClient{conn: conn, send: make(chan Status, 8)}
	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, client)
		h.mu.Unlock()
		logging.Debug("websocket", "client disconnected", logging.Fields{"remote": r.RemoteAddr})
	}()

	logging.Debug("websocket", "client connected", logging.Fields{"remote": r.RemoteAddr})

	// Reader goroutine notices the close
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := conn.WriteJSON(Frame{Type: "status", Status: h.Snapshot()}); err != nil {
		return
	}

	ping := time.NewTicker(30 * time.Second)
	defer ping.Stop()

	for {
		select {
		case s := <-client.send:
			conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteJSON(Frame{Type: "status", Status: s}); err != nil {
				logging.Debugf("websocket", "write error: %v", err)
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}
