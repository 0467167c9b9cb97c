// Package ws provides a WebSocket hub that pushes control surface events to
// connected clients (the tray, dashboards).
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jmylchreest/radiotoggle/internal/events"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer (clients only send control frames).
	maxMessageSize = 512

	// Size of the per-client send buffer.
	sendBufferSize = 64
)

type message struct {
	typ  events.EventType
	data []byte
}

// GreetingFunc produces the event sent to a client right after it connects,
// typically the current snapshot. ok=false sends nothing.
type GreetingFunc func(ctx context.Context) (e events.Event, ok bool)

// Client represents a single WebSocket connection.
type Client struct {
	hub   *Hub
	conn  *websocket.Conn
	send  chan []byte
	types map[events.EventType]struct{}
}

// wants reports whether the client subscribed to t. No filter means everything.
func (c *Client) wants(t events.EventType) bool {
	if len(c.types) == 0 {
		return true
	}
	_, ok := c.types[t]
	return ok
}

// Hub manages the connected clients and fans bus events out to them.
type Hub struct {
	logger     *slog.Logger
	greeting   GreetingFunc
	clients    map[*Client]struct{}
	mu         sync.RWMutex
	broadcast  chan message
	register   chan *Client
	unregister chan *Client
	unsub      func()
	// done is closed when Run returns.
	done       chan struct{}
}

// Option configures a Hub.
type Option func(*Hub)

// WithGreeting sends fn's event to every new client.
func WithGreeting(fn GreetingFunc) Option {
	return func(h *Hub) { h.greeting = fn }
}

// NewHub creates a Hub subscribed to bus.
func NewHub(logger *slog.Logger, bus *events.Bus, opts ...Option) *Hub {
	h := &Hub{
		logger:     logger,
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}

	h.unsub = bus.Subscribe(func(e events.Event) {
		data, err := json.Marshal(e)
		if err != nil {
			logger.Error("ws: failed to marshal event", "error", err)
			return
		}
		// The bus publishes synchronously; never block the producer.
		select {
		case h.broadcast <- message{typ: e.Type, data: data}:
		default:
			logger.Warn("ws: broadcast channel full, dropping event", "type", e.Type)
		}
	})

	return h
}

// Run starts the hub's main loop. It blocks until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	defer h.unsub()
	h.logger.Info("ws: hub started")

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			h.mu.Unlock()
			h.logger.Info("ws: hub stopped")
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("ws: client connected", "clients", count)

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				close(c.send)
				delete(h.clients, c)
			}
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("ws: client disconnected", "clients", count)

		case msg := <-h.broadcast:
			h.mu.RLock()
			for c := range h.clients {
				if !c.wants(msg.typ) {
					continue
				}
				select {
				case c.send <- msg.data:
				default:
					// Slow consumer; drop it rather than stall the others.
					go h.Unregister(c)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Register adds a client to the hub. Once the hub has stopped the client's
// send channel is closed instead, so its write pump exits.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
		close(c.send)
	}
}

// Unregister removes a client from the hub. It returns immediately once the
// hub has stopped.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// NewClient creates a Client attached to this hub, receiving only the given
// event types (all when empty).
func (h *Hub) NewClient(conn *websocket.Conn, types ...events.EventType) *Client {
	c := &Client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}
	if len(types) > 0 {
		c.types = make(map[events.EventType]struct{}, len(types))
		for _, t := range types {
			c.types[t] = struct{}{}
		}
	}
	return c
}

// greet queues the greeting event ahead of any broadcast.
func (h *Hub) greet(ctx context.Context, c *Client) {
	if h.greeting == nil {
		return
	}
	e, ok := h.greeting(ctx)
	if !ok || !c.wants(e.Type) {
		return
	}
	data, err := json.Marshal(e)
	if err != nil {
		h.logger.Error("ws: failed to marshal greeting", "error", err)
		return
	}
	c.send <- data
}

// ParseTypes splits a comma separated list of event types.
func ParseTypes(raw string) []events.EventType {
	var out []events.EventType
	for part := range strings.SplitSeq(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, events.EventType(part))
		}
	}
	return out
}

// WritePump pumps messages from the hub to the WebSocket connection.
// A goroutine per client runs this method.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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

// ReadPump drains control frames. Clients never send data; anything else is discarded.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Debug("ws: read error", "error", err)
			}
			return
		}
	}
}
