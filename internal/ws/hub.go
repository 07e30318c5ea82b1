// Package ws streams flow dispatch events to connected monitoring clients,
// so operators can watch conversations advance in real time.
package ws

import (
	"encoding/json"
	"log/slog"
	"sync"

	"IzdatBot/bot/flow"
)

// Event is one WebSocket frame sent to monitoring clients.
type Event struct {
	Type string `json:"type"` // "dispatch"
	Data any    `json:"data"`
}

// Hub maintains the set of active WebSocket clients and broadcasts events.
// It implements flow.EventSink, so it can be attached straight to the engine.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan *Event
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
	log        *slog.Logger
}

// NewHub creates a new Hub instance.
func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan *Event, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		log:        log,
	}
}

// Run starts the hub's event loop. Should be called in a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()

		case event := <-h.broadcast:
			data, err := json.Marshal(event)
			if err != nil {
				continue
			}
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- data:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// DispatchHandled forwards a processed dispatch to all connected clients.
// The send is non-blocking: when the hub's buffer is full the event is
// dropped, never the dispatch.
func (h *Hub) DispatchHandled(ev flow.DispatchEvent) {
	select {
	case h.broadcast <- &Event{Type: "dispatch", Data: ev}:
	default:
		h.log.Warn("dispatch event dropped, broadcast buffer full")
	}
}
