package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/r3d91ll/quire/pkg/crew"
	"github.com/r3d91ll/quire/pkg/logger"
)

// -----------------------------------------------------------------------------
// WebSocket Constants
// -----------------------------------------------------------------------------

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 4096
	sendBufferSize = 64
)

// ChannelProgress carries crew progress for paper requests.
const ChannelProgress = "progress"

// Event types for WebSocket messages
const (
	EventTypeProgress  = "progress"
	EventTypeSubscribe = "subscribe"
	EventTypePing      = "ping"
	EventTypePong      = "pong"
	EventTypeError     = "error"
)

// WSMessage is the standard WebSocket message envelope.
type WSMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp string      `json:"timestamp,omitempty"`
	Channels  []string    `json:"channels,omitempty"`
	// RequestID narrows a subscription to one paper request.
	RequestID string `json:"request_id,omitempty"`
}

// ProgressData is one crew step for one request.
type ProgressData struct {
	RequestID string     `json:"request_id"`
	Message   string     `json:"message"`
	Event     crew.Event `json:"event"`
}

// -----------------------------------------------------------------------------
// Client
// -----------------------------------------------------------------------------

// Client represents a single WebSocket client connection.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	subMu         sync.RWMutex
	subscriptions map[string]bool
	requestID     string
}

// NewClient creates a new WebSocket client.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:           hub,
		conn:          conn,
		send:          make(chan []byte, sendBufferSize),
		subscriptions: make(map[string]bool),
	}
}

// Subscribe adds channel subscriptions. A non-empty requestID limits
// delivery to that request.
func (c *Client) Subscribe(requestID string, channels ...string) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	for _, ch := range channels {
		c.subscriptions[ch] = true
	}
	c.requestID = requestID
}

// wants reports whether the client should see a message for requestID
// on channel.
func (c *Client) wants(channel, requestID string) bool {
	c.subMu.RLock()
	defer c.subMu.RUnlock()
	if !c.subscriptions[channel] {
		return false
	}
	return c.requestID == "" || c.requestID == requestID
}

func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Warn("ws read error", map[string]interface{}{"error": err.Error()})
			}
			return
		}
		c.handleMessage(message)
	}
}

func (c *Client) handleMessage(message []byte) {
	var msg WSMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		c.reply(WSMessage{Type: EventTypeError, Data: map[string]string{
			"code": "invalid_json", "message": "Failed to parse message",
		}})
		return
	}

	switch msg.Type {
	case EventTypeSubscribe:
		var valid []string
		for _, ch := range msg.Channels {
			if ch == ChannelProgress {
				valid = append(valid, ch)
			}
		}
		if len(valid) == 0 {
			c.reply(WSMessage{Type: EventTypeError, Data: map[string]string{
				"code": "invalid_subscribe", "message": "No known channels specified",
			}})
			return
		}
		c.Subscribe(msg.RequestID, valid...)
	case EventTypePing:
		c.reply(WSMessage{Type: EventTypePong})
	default:
		c.hub.log.Debug("ws unknown message type", map[string]interface{}{"type": msg.Type})
	}
}

func (c *Client) reply(msg WSMessage) {
	msg.Timestamp = time.Now().UTC().Format(time.RFC3339)
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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

// -----------------------------------------------------------------------------
// Hub
// -----------------------------------------------------------------------------

// Hub tracks connected clients and fans progress out to them.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
	done       chan struct{}
	stopOnce   sync.Once
	log        logger.Logger
}

// NewHub creates a new WebSocket hub.
func NewHub(log logger.Logger) *Hub {
	if log == nil {
		log = logger.NewNoOp()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Run processes registrations until Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			n := len(h.clients)
			h.mu.Unlock()
			h.log.Debug("ws client connected", map[string]interface{}{"clients": n})

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			n := len(h.clients)
			h.mu.Unlock()
			h.log.Debug("ws client disconnected", map[string]interface{}{"clients": n})
		}
	}
}

// Stop shuts the hub down and closes every client.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// BroadcastProgress sends a crew event to clients watching requestID.
// Slow clients miss events rather than stall the crew.
func (h *Hub) BroadcastProgress(data ProgressData) error {
	msg := WSMessage{
		Type:      EventTypeProgress,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		if !client.wants(ChannelProgress, data.RequestID) {
			continue
		}
		select {
		case client.send <- payload:
		default:
		}
	}
	return nil
}

// -----------------------------------------------------------------------------
// HTTP Handler
// -----------------------------------------------------------------------------

// WebSocketHandler upgrades connections and attaches them to a hub.
type WebSocketHandler struct {
	hub      *Hub
	upgrader websocket.Upgrader
}

// NewWebSocketHandler accepts upgrades whose Origin passes checkOrigin.
// A nil checkOrigin keeps gorilla's same-origin default.
func NewWebSocketHandler(hub *Hub, checkOrigin func(*http.Request) bool) *WebSocketHandler {
	return &WebSocketHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
	}
}

func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.hub.log.Warn("ws upgrade failed", map[string]interface{}{"error": err.Error()})
		return
	}

	client := NewClient(h.hub, conn)
	select {
	case h.hub.register <- client:
	case <-h.hub.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// makeOriginChecker validates websocket origins against the CORS list.
// Requests without an Origin header are same-origin and always pass.
func makeOriginChecker(allowedOrigins []string) func(*http.Request) bool {
	if len(allowedOrigins) == 0 {
		return nil
	}
	allowed := make(map[string]bool)
	for _, origin := range allowedOrigins {
		if origin == "*" {
			return func(*http.Request) bool { return true }
		}
		allowed[origin] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || allowed[origin]
	}
}
