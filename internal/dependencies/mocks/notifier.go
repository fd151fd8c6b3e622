package mocks

import (
	"sync"

	"github.com/mcoot/partyquiz/internal/model"
)

// Broadcast is one recorded call to MockNotifier.Broadcast
type Broadcast struct {
	RoomCode model.RoomCode
	Event    model.EventType
	Payload  any
}

// MockNotifier records broadcasts for testing
type MockNotifier struct {
	mu    sync.Mutex
	calls []Broadcast
}

// NewMockNotifier creates a MockNotifier
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

// Broadcast records the call
func (n *MockNotifier) Broadcast(code model.RoomCode, event model.EventType, payload any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, Broadcast{RoomCode: code, Event: event, Payload: payload})
}

// Calls returns the recorded broadcasts in order
func (n *MockNotifier) Calls() []Broadcast {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Broadcast(nil), n.calls...)
}
