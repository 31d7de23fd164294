package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wonny/edupulse/backend/internal/contracts"
	"github.com/wonny/edupulse/backend/internal/realtime/cache"
	"github.com/wonny/edupulse/backend/pkg/logger"
)

const (
	// Ping/Pong settings
	pingInterval = 30 * time.Second
	pongWait     = 60 * time.Second
	writeWait    = 10 * time.Second

	sendBuffer   = 64
	replayLimit  = 50
	publishQueue = 256
)

// Hub fans risk transitions out to connected dashboard clients.
// It implements contracts.EventPublisher.
// ⭐ SSOT: websocket connections are owned here only
type Hub struct {
	logger   *logger.Logger
	cache    *cache.RiskCache
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*client]struct{}
	closed  bool

	events chan contracts.RiskEvent
	stopCh chan struct{}
	doneCh chan struct{}
	once   sync.Once
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates a hub; call Run before publishing
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		logger: log.WithComponent("realtime"),
		cache:  cache.NewRiskCache(log),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
		events:  make(chan contracts.RiskEvent, publishQueue),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
}

// Cache exposes the latest transition per student
func (h *Hub) Cache() *cache.RiskCache {
	return h.cache
}

// Publish implements contracts.EventPublisher. It never blocks the caller;
// events are dropped when the queue is full.
func (h *Hub) Publish(event contracts.RiskEvent) {
	h.cache.Update(event)

	select {
	case h.events <- event:
	default:
		h.logger.WithStudent(event.StudentID).Warn("Risk event queue full, dropping event")
	}
}

// Run broadcasts queued events until ctx is cancelled or Stop is called
func (h *Hub) Run(ctx context.Context) {
	defer close(h.doneCh)

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-h.stopCh:
			h.closeAll()
			return
		case event := <-h.events:
			h.broadcast(Message{
				Type:   MessageRiskChanged,
				Events: []contracts.RiskEvent{event},
				SentAt: time.Now().UTC(),
			})
		}
	}
}

// Stop terminates Run and disconnects every client
func (h *Hub) Stop() {
	h.once.Do(func() { close(h.stopCh) })
	<-h.doneCh
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeWS upgrades the request and streams risk transitions to the client.
// Once Run has returned, new connections get 503.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	if h.isClosed() {
		http.Error(w, "realtime feed stopped", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}

	if payload, err := json.Marshal(Message{
		Type:   MessageSnapshot,
		Events: h.cache.Recent(replayLimit),
		SentAt: time.Now().UTC(),
	}); err == nil {
		c.send <- payload
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "realtime feed stopped"),
			time.Now().Add(writeWait))
		conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	h.logger.WithField("clients", h.ClientCount()).Debug("Dashboard client connected")

	go h.writeLoop(c)
	go h.readLoop(c)
}

func (h *Hub) isClosed() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.closed
}

func (h *Hub) broadcast(msg Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		h.logger.WithError(err).Error("Failed to marshal realtime message")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			// slow consumer
			delete(h.clients, c)
			close(c.send)
		}
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true

	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

// readLoop only services control frames; client payloads are ignored
func (h *Hub) readLoop(c *client) {
	defer func() {
		h.remove(c)
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(c *client) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				h.logger.WithError(err).Debug("Failed to write realtime message")
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
