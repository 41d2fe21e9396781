package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"farmbot/internal/domain/world"
)

const clientBufSize = 512

// SubscribeMsg narrows the event types a client receives. An empty Types
// list means everything.
type SubscribeMsg struct {
	Type  string            `json:"type"`
	Types []world.EventType `json:"types,omitempty"`
}

type client struct {
	id  string
	out chan []byte

	mu     sync.RWMutex
	filter map[world.EventType]bool
}

func (c *client) wants(t world.EventType) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.filter) == 0 || c.filter[t]
}

func (c *client) setFilter(types []world.EventType) {
	f := make(map[world.EventType]bool, len(types))
	for _, t := range types {
		f[t] = true
	}
	c.mu.Lock()
	c.filter = f
	c.mu.Unlock()
}

// Hub pushes farm events to websocket observers.
type Hub struct {
	upgrader websocket.Upgrader
	nextID   atomic.Uint64

	mu      sync.RWMutex
	clients map[string]*client
}

func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[string]*client),
	}
}

// Publish implements ports.EventSink. Slow clients lose events rather than
// stall the publisher.
func (h *Hub) Publish(e world.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.clients) == 0 {
		return
	}
	b, err := json.Marshal(e)
	if err != nil {
		log.Printf("[WS] marshal %s: %v", e.Type, err)
		return
	}
	for _, c := range h.clients {
		if !c.wants(e.Type) {
			continue
		}
		select {
		case c.out <- b:
		default:
		}
	}
}

func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) join() *client {
	c := &client{id: fmt.Sprintf("W%d", h.nextID.Add(1)), out: make(chan []byte, clientBufSize)}
	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()
	return c
}

func (h *Hub) leave(c *client) {
	h.mu.Lock()
	delete(h.clients, c.id)
	h.mu.Unlock()
}

func (h *Hub) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := h.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		c := h.join()
		defer h.leave(c)
		log.Printf("[WS] observer %s connected from %s", c.id, r.RemoteAddr)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		writeErr := make(chan error, 1)
		go func() {
			for {
				select {
				case <-ctx.Done():
					writeErr <- ctx.Err()
					return
				case b := <-c.out:
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						writeErr <- err
						return
					}
				}
			}
		}()

		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			var sub SubscribeMsg
			if err := json.Unmarshal(msg, &sub); err != nil || sub.Type != "SUBSCRIBE" {
				continue
			}
			c.setFilter(sub.Types)
		}

		cancel()
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))
		select {
		case <-writeErr:
		case <-time.After(500 * time.Millisecond):
		}
		log.Printf("[WS] observer %s disconnected", c.id)
	}
}
