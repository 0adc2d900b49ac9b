package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"personal-insights/internal/logging"
)

// AnalysisEvent is the notification pushed to WebSocket subscribers
// whenever a batch analysis completes.
type AnalysisEvent struct {
	UserID      string    `json:"user_id"`
	GeneratedAt time.Time `json:"generated_at"`
	EventCount  int       `json:"event_count"`
	Confidence  float64   `json:"confidence"`
	Trends      int       `json:"trends"`
	Anomalies   int       `json:"anomalies"`
}

// client is one WebSocket subscriber
type client struct {
	conn   *websocket.Conn
	send   chan AnalysisEvent
	closed bool
	mu     sync.Mutex
}

func (c *client) safeClose() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		close(c.send)
		c.closed = true
	}
}

// Hub manages WebSocket subscribers and fans completed-analysis
// notifications out to them. Slow subscribers are dropped rather than
// allowed to stall the broadcast loop.
type Hub struct {
	clients    map[*client]bool
	register   chan *client
	unregister chan *client
	broadcast  chan AnalysisEvent
	mu         sync.RWMutex
	logger     logging.Logger
}

// NewHub creates a hub
func NewHub(logger logging.Logger) *Hub {
	return &Hub{
		clients:    make(map[*client]bool),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan AnalysisEvent, 256),
		logger:     logger,
	}
}

// Run processes registrations and broadcasts until the context ends
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		h.mu.Lock()
		for c := range h.clients {
			c.safeClose()
			_ = c.conn.Close()
		}
		h.clients = make(map[*client]bool)
		h.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()
		case c := <-h.unregister:
			h.mu.Lock()
			if h.clients[c] {
				delete(h.clients, c)
				c.safeClose()
			}
			h.mu.Unlock()
		case event := <-h.broadcast:
			h.mu.RLock()
			for c := range h.clients {
				select {
				case c.send <- event:
				default:
					// Subscriber is not draining; disconnect it
					go func(stale *client) { h.unregister <- stale }(c)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Broadcast queues an event for all subscribers; drops it when the hub
// is saturated rather than blocking the analysis path.
func (h *Hub) Broadcast(event AnalysisEvent) {
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn("broadcast queue full, dropping analysis event", "user_id", event.UserID)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The dashboard collaborator handles cross-origin policy upstream
	CheckOrigin: func(_ *http.Request) bool { return true },
}

const (
	writeWait  = 10 * time.Second
	pingPeriod = 50 * time.Second
)

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err.Error())
		return
	}

	c := &client{conn: conn, send: make(chan AnalysisEvent, 16)}
	s.hub.register <- c

	go s.writePump(c)
	go s.readPump(c)
}

// writePump delivers events and keepalive pings to one subscriber
func (s *Server) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards inbound messages and detects disconnects
func (s *Server) readPump(c *client) {
	defer func() {
		s.hub.unregister <- c
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
