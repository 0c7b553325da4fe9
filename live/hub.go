// Package live pushes real-time events to connected back-office sessions
// over WebSocket. There is a single room: every connected staff member sees
// every event.
package live

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/volleychamp/volleychamp-api/models"
)

// Event is the wire envelope sent to staff clients.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

const (
	EventDeclarationCreated = "DECLARATION_CREATED"
	EventCandidatureCreated = "CANDIDATURE_CREATED"
)

type Hub struct {
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	clients    map[*Client]bool
	logger     *slog.Logger
	mu         sync.RWMutex
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte),
		clients:    make(map[*Client]bool),
		logger:     logger,
	}
}

// Run owns the client set. Call it once in its own goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.logger.Debug("staff client connected", slog.Int("clients", len(h.clients)))
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.closeSend()
				h.logger.Debug("staff client disconnected", slog.Int("clients", len(h.clients)))
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				// A slow client loses events rather than blocking the hub.
				if !client.trySend(message) {
					h.logger.Warn("dropping event for slow staff client")
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Broadcast fans an event out to every connected staff client.
func (h *Hub) Broadcast(event Event) {
	message, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("failed to marshal live event", slog.String("type", event.Type), slog.Any("error", err))
		return
	}
	h.broadcast <- message
}

// DeclarationCreated implements services.DeclarationNotifier.
func (h *Hub) DeclarationCreated(declaration *models.Declaration) {
	h.Broadcast(Event{Type: EventDeclarationCreated, Payload: declaration})
}

// CandidatureCreated implements services.CandidatureNotifier.
func (h *Hub) CandidatureCreated(candidature *models.Candidature) {
	h.Broadcast(Event{Type: EventCandidatureCreated, Payload: candidature})
}
