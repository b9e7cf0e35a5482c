package notify

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 64
)

// Message is the wire format pushed to observers.
type Message struct {
	Event   string `json:"event"`
	Payload any    `json:"payload,omitempty"`
}

type client struct {
	conn      *websocket.Conn
	send      chan []byte
	sessionID string
}

// Hub groups websocket observers by session id and broadcasts session
// events to each group. A slow observer is disconnected rather than allowed
// to block the group.
type Hub struct {
	logger   *zap.Logger
	upgrader websocket.Upgrader

	mu     sync.RWMutex
	groups map[string]map[*client]struct{}
}

// NewHub creates an empty notification hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		groups: make(map[string]map[*client]struct{}),
	}
}

// Publish sends the event to every observer subscribed to the session id.
// It never blocks: observers whose send buffer is full are dropped.
func (h *Hub) Publish(sessionID, event string, payload any) {
	raw, err := json.Marshal(Message{Event: event, Payload: payload})
	if err != nil {
		h.logger.Error("failed to encode notification",
			zap.String("session_id", sessionID),
			zap.String("event", event),
			zap.Error(err),
		)
		return
	}

	h.mu.RLock()
	group := h.groups[sessionID]
	stale := make([]*client, 0)
	for c := range group {
		select {
		case c.send <- raw:
		default:
			stale = append(stale, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range stale {
		h.remove(c)
	}
}

// ServeHTTP upgrades the request to a websocket and subscribes it to the
// session id named by the "session" query parameter.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "session query parameter is required", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{
		conn:      conn,
		send:      make(chan []byte, sendBufferSize),
		sessionID: sessionID,
	}

	h.mu.Lock()
	group, ok := h.groups[sessionID]
	if !ok {
		group = make(map[*client]struct{})
		h.groups[sessionID] = group
	}
	group[c] = struct{}{}
	h.mu.Unlock()

	h.logger.Info("observer joined session group",
		zap.String("session_id", sessionID),
		zap.String("remote", conn.RemoteAddr().String()),
	)

	go c.writePump()
	go h.readPump(c)
}

// ObserverCount reports the number of observers in a session group.
func (h *Hub) ObserverCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[sessionID])
}

// CloseSession disconnects all observers of a session and drops the group.
func (h *Hub) CloseSession(sessionID string) {
	h.mu.Lock()
	group := h.groups[sessionID]
	delete(h.groups, sessionID)
	h.mu.Unlock()

	for c := range group {
		close(c.send)
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	group, ok := h.groups[c.sessionID]
	if ok {
		if _, member := group[c]; member {
			delete(group, c)
			close(c.send)
		}
		if len(group) == 0 {
			delete(h.groups, c.sessionID)
		}
	}
	h.mu.Unlock()
}

// readPump drains incoming frames so pings and close frames are processed;
// observers are read-only and any payload they send is discarded.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.remove(c)
		c.conn.Close()
	}()
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case raw, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
