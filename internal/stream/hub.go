// Package stream pushes committed game events to connected players over
// server-sent events and WebSockets. Each client only receives the events
// its player is allowed to see.
package stream

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/moonfall/internal/metrics"
	"github.com/mcoot/moonfall/internal/model"
)

// GameReader loads the game a broadcast belongs to
type GameReader interface {
	GetGame(ctx context.Context, code model.GameCode) (*model.Game, error)
}

// delivery is one broadcast together with the game state used to filter it
type delivery struct {
	game   *model.Game
	events []model.Event
}

// Hub manages stream clients for a single game
type Hub struct {
	gameCode model.GameCode
	clients  map[*Client]bool
	mu       sync.RWMutex
	metrics  *metrics.Metrics
	logger   *slog.Logger

	register   chan *Client
	unregister chan *Client
	broadcast  chan delivery
	done       chan struct{}
	closeOnce  sync.Once
}

// NewHub creates a new Hub for a game
func NewHub(gameCode model.GameCode, m *metrics.Metrics, logger *slog.Logger) *Hub {
	return &Hub{
		gameCode:   gameCode,
		clients:    make(map[*Client]bool),
		metrics:    m,
		logger:     logger.With(slog.String("game_code", string(gameCode))),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan delivery, 256),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	h.logger.Debug("stream hub started")
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			clientCount := len(h.clients)
			h.mu.Unlock()
			h.metrics.StreamClientConnected()
			h.logger.Info("stream client registered",
				slog.String("player_id", string(client.playerID)),
				slog.String("transport", client.transport),
				slog.Int("total_clients", clientCount))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				clientCount := len(h.clients)
				h.mu.Unlock()
				h.metrics.StreamClientDisconnected()
				h.logger.Info("stream client unregistered",
					slog.String("player_id", string(client.playerID)),
					slog.Duration("connection_duration", time.Since(client.connectedAt)),
					slog.Int("total_clients", clientCount))
			} else {
				h.mu.Unlock()
			}

		case d := <-h.broadcast:
			h.deliver(d)

		case <-h.done:
			h.mu.Lock()
			clientCount := len(h.clients)
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
				h.metrics.StreamClientDisconnected()
			}
			h.mu.Unlock()
			h.logger.Debug("stream hub stopped", slog.Int("disconnected_clients", clientCount))
			return
		}
	}
}

func (h *Hub) deliver(d delivery) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	dropped := 0
	for client := range h.clients {
		viewer := d.game.Player(client.playerID)
		var visible []model.Event
		for _, e := range d.events {
			if e.VisibleTo(viewer, d.game.Settings.AutoMode) {
				visible = append(visible, e)
			}
		}
		if len(visible) == 0 {
			continue
		}

		select {
		case client.send <- visible:
		default:
			dropped++
			h.metrics.StreamMessageDropped()
			h.logger.Warn("stream message dropped - client buffer full",
				slog.String("player_id", string(client.playerID)))
		}
	}
	if dropped > 0 {
		h.logger.Warn("stream broadcast partial failure", slog.Int("dropped", dropped))
	}
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.send)
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Broadcast queues events for every client. game is the state after the
// events were recorded.
func (h *Hub) Broadcast(game *model.Game, events []model.Event) {
	select {
	case h.broadcast <- delivery{game: game, events: events}:
	default:
		h.metrics.StreamMessageDropped()
		h.logger.Warn("stream broadcast dropped - hub buffer full")
	}
}

// Close shuts down the hub
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Manager manages hubs for all games and fans journal events out to them
type Manager struct {
	games   GameReader
	hubs    map[model.GameCode]*Hub
	mu      sync.RWMutex
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewManager creates a new Manager. m may be nil.
func NewManager(games GameReader, m *metrics.Metrics, logger *slog.Logger) *Manager {
	return &Manager{
		games:   games,
		hubs:    make(map[model.GameCode]*Hub),
		metrics: m,
		logger:  logger.With(slog.String("component", "stream")),
	}
}

// GetOrCreateHub returns the hub for a game, creating one if it doesn't exist
func (m *Manager) GetOrCreateHub(code model.GameCode) *Hub {
	m.mu.Lock()
	defer m.mu.Unlock()

	if hub, ok := m.hubs[code]; ok {
		return hub
	}

	hub := NewHub(code, m.metrics, m.logger)
	m.hubs[code] = hub
	go hub.Run()
	return hub
}

// GetHub returns the hub for a game, or nil if it doesn't exist
func (m *Manager) GetHub(code model.GameCode) *Hub {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hubs[code]
}

// Broadcast sends events to the game's connected clients. The game is
// reloaded so visibility reflects the committed roster.
func (m *Manager) Broadcast(code model.GameCode, events []model.Event) {
	hub := m.GetHub(code)
	if hub == nil || hub.ClientCount() == 0 || len(events) == 0 {
		return
	}

	game, err := m.games.GetGame(context.Background(), code)
	if err != nil {
		m.logger.Warn("stream broadcast skipped",
			slog.String("game_code", string(code)),
			slog.String("error", err.Error()))
		return
	}
	hub.Broadcast(game, events)
}

// RemoveHub removes and closes a hub
func (m *Manager) RemoveHub(code model.GameCode) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if hub, ok := m.hubs[code]; ok {
		hub.Close()
		delete(m.hubs, code)
		m.logger.Info("stream hub removed", slog.String("game_code", string(code)))
	}
}

// CleanupEmptyHubs removes hubs with no clients
func (m *Manager) CleanupEmptyHubs() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for code, hub := range m.hubs {
		if hub.ClientCount() == 0 {
			hub.Close()
			delete(m.hubs, code)
			removed++
		}
	}
	if removed > 0 {
		m.logger.Info("stream empty hubs cleaned up", slog.Int("removed", removed))
	}
	return removed
}

// Close shuts every hub down
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for code, hub := range m.hubs {
		hub.Close()
		delete(m.hubs, code)
	}
}
