package feed

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"socialstakes/events"
	"socialstakes/infrastructure"
	"socialstakes/models"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBufferSize = 32
)

// Hub fans public bet events out to connected websocket clients. A client
// that cannot keep up is disconnected rather than allowed to block the bus.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	closed  bool
}

type client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID int64
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
	}
}

// Subscribe registers the hub for every bet event type
func (h *Hub) Subscribe(bus *events.Bus) {
	for _, eventType := range []events.EventType{
		events.EventTypeBetCreated,
		events.EventTypeBetJoined,
		events.EventTypeBetStateChange,
		events.EventTypeBetResolved,
	} {
		bus.Subscribe(eventType, func(_ context.Context, event events.Event) {
			h.Publish(event)
		})
	}
}

// Publish broadcasts event if it concerns a public bet
func (h *Hub) Publish(event events.Event) {
	if !isPublic(event) {
		return
	}

	envelope, err := infrastructure.NewEventEnvelope(event)
	if err != nil {
		log.WithError(err).WithField("eventType", event.Type()).Error("Failed to build feed envelope")
		return
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		log.WithError(err).WithField("eventType", event.Type()).Error("Failed to marshal feed envelope")
		return
	}

	h.broadcast(data)
}

func (h *Hub) broadcast(data []byte) {
	var slow []*client

	h.mu.RLock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		log.WithField("userId", c.userID).Warn("Dropping slow feed client")
		h.unregister(c)
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client and rejects new ones
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

// unregister closes the client's send channel; the write pump then closes
// the connection.
func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

func isPublic(event events.Event) bool {
	var visibility models.BetVisibility
	switch e := event.(type) {
	case events.BetCreatedEvent:
		visibility = e.Visibility
	case events.BetJoinedEvent:
		visibility = e.Visibility
	case events.BetStateChangeEvent:
		visibility = e.Visibility
	case events.BetResolvedEvent:
		visibility = e.Visibility
	default:
		return false
	}
	return visibility == models.BetVisibilityPublic
}

// readPump discards inbound messages and keeps the read deadline moving on
// pongs. It returns when the peer goes away.
func (c *client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithError(err).WithField("userId", c.userID).Debug("Feed client read failed")
			}
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
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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
