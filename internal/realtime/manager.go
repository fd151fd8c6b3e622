package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/partyquiz/internal/model"
)

// HubManager manages hubs for all rooms and implements the game notifier
type HubManager struct {
	hubs   map[model.RoomCode]*Hub
	mu     sync.RWMutex
	logger *slog.Logger
}

// NewHubManager creates a new HubManager
func NewHubManager(logger *slog.Logger) *HubManager {
	return &HubManager{
		hubs:   make(map[model.RoomCode]*Hub),
		logger: logger.With(slog.String("component", "realtime")),
	}
}

// GetOrCreateHub returns the hub for a room, creating one if it doesn't exist
func (m *HubManager) GetOrCreateHub(code model.RoomCode) *Hub {
	m.mu.Lock()
	defer m.mu.Unlock()

	if hub, ok := m.hubs[code]; ok {
		return hub
	}

	hub := NewHub(code, m.logger)
	m.hubs[code] = hub
	go hub.Run()
	return hub
}

// GetHub returns the hub for a room, or nil if it doesn't exist
func (m *HubManager) GetHub(code model.RoomCode) *Hub {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hubs[code]
}

// Subscribe registers a new client on the room's hub.
// A hub reaped between lookup and registration is replaced.
func (m *HubManager) Subscribe(code model.RoomCode, transport string) (*Hub, *Client) {
	client := NewClient(transport)
	for {
		hub := m.GetOrCreateHub(code)
		if hub.Register(client) {
			return hub, client
		}
		m.mu.Lock()
		if m.hubs[code] == hub {
			delete(m.hubs, code)
		}
		m.mu.Unlock()
	}
}

// Broadcast JSON-encodes payload and delivers it to every client in the room.
// It never blocks and a room with no hub is not an error.
func (m *HubManager) Broadcast(code model.RoomCode, event model.EventType, payload any) {
	hub := m.GetHub(code)
	if hub == nil {
		m.logger.Debug("no subscribers for broadcast",
			slog.String("room_code", string(code)),
			slog.String("event", string(event)))
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		m.logger.Error("failed to encode broadcast payload",
			slog.String("room_code", string(code)),
			slog.String("event", string(event)),
			slog.String("error", err.Error()))
		return
	}
	hub.Broadcast(Message{Event: string(event), Data: data})
}

// RemoveHub removes and closes a hub
func (m *HubManager) RemoveHub(code model.RoomCode) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if hub, ok := m.hubs[code]; ok {
		hub.Close()
		delete(m.hubs, code)
		m.logger.Info("hub removed", slog.String("room_code", string(code)))
	}
}

// CleanupEmptyHubs removes hubs with no clients and reports how many went
func (m *HubManager) CleanupEmptyHubs() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removedCount := 0
	for code, hub := range m.hubs {
		if hub.ClientCount() == 0 {
			hub.Close()
			delete(m.hubs, code)
			removedCount++
		}
	}
	if removedCount > 0 {
		m.logger.Info("empty hubs cleaned up", slog.Int("removed", removedCount))
	}
	return removedCount
}

// RunReaper calls CleanupEmptyHubs every interval until ctx is done
func (m *HubManager) RunReaper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.CleanupEmptyHubs()
		}
	}
}

// HubCount returns the number of live hubs
func (m *HubManager) HubCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.hubs)
}

// Close shuts down every hub, disconnecting all clients
func (m *HubManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for code, hub := range m.hubs {
		hub.Close()
		delete(m.hubs, code)
	}
}
