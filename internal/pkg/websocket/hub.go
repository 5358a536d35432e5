package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/cantinaverde/cantina/internal/pkg/metrics"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// Event types pushed to realtime clients; publishers pass them to Publish
const (
	EventInsert        = "INSERT"
	EventStockAdjusted = "STOCK_ADJUSTED"
)

// Event is a change notification sent over the realtime feed
type Event struct {
	// Type of change: INSERT, STOCK_ADJUSTED
	Type string `json:"type"`

	// Table the change happened on
	Table string `json:"table"`

	// The created or affected row
	Record interface{} `json:"record"`

	Timestamp time.Time `json:"timestamp"`
}

// Hub maintains the set of active clients and broadcasts events to them
type Hub struct {
	clients map[*Client]bool

	// Buffered so that publishers never wait on slow clients
	broadcast chan *Event

	register   chan *Client
	unregister chan *Client

	// Closed when Run returns
	done chan struct{}

	// Guards clients for ClientsCount
	mu sync.RWMutex

	now    func() time.Time
	logger zerolog.Logger
}

// NewHub creates a new Hub instance
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan *Event, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		now:        time.Now,
		logger:     logger,
	}
}

// Run handles registrations and broadcasts until ctx is cancelled
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case event := <-h.broadcast:
			h.broadcastEvent(event)
		}
	}
}

// Register adds a client unless the hub has stopped
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client; it is a no-op once the hub has stopped
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true
	metrics.RealtimeClients.Set(float64(len(h.clients)))
	h.logger.Info().
		Str("userID", client.userID).
		Str("addr", client.remoteAddr()).
		Msg("Realtime client registered")
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeLocked(client)
}

// removeLocked drops client and closes its queue. Callers hold mu.
func (h *Hub) removeLocked(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.send)
	metrics.RealtimeClients.Set(float64(len(h.clients)))
	h.logger.Info().
		Str("userID", client.userID).
		Str("addr", client.remoteAddr()).
		Msg("Realtime client unregistered")
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		h.removeLocked(client)
	}
}

func (h *Hub) broadcastEvent(event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().Err(err).Str("table", event.Table).Msg("Failed to marshal realtime event")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		select {
		case client.send <- data:
		default:
			// Slow consumer; its writePump exits once send is closed
			h.removeLocked(client)
		}
	}

	h.logger.Debug().
		Str("type", event.Type).
		Str("table", event.Table).
		Int("clientCount", len(h.clients)).
		Msg("Realtime event broadcasted")
}

// Publish queues an event for every connected client. It never blocks: when
// the queue is full the event is dropped and logged.
func (h *Hub) Publish(eventType, table string, record interface{}) {
	event := &Event{Type: eventType, Table: table, Record: record, Timestamp: h.now()}
	select {
	case h.broadcast <- event:
	default:
		metrics.RealtimeEventsDropped.Inc()
		h.logger.Warn().Str("type", eventType).Str("table", table).Msg("Realtime queue full, event dropped")
	}
}

// ClientsCount returns the number of connected clients
func (h *Hub) ClientsCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
