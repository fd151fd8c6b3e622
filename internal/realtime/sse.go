package realtime

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/mcoot/partyquiz/internal/model"
)

// EventConnected is sent to every client as soon as it subscribes
const EventConnected = "connected"

type connectedPayload struct {
	RoomCode model.RoomCode `json:"roomCode"`
	ClientID string         `json:"clientId"`
}

// ServeSSE streams the room's events to the client as Server-Sent Events
func ServeSSE(w http.ResponseWriter, r *http.Request, manager *HubManager, code model.RoomCode) {
	// Check if SSE is supported
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	hub, client := manager.Subscribe(code, TransportSSE)
	defer hub.Unregister(client)

	hello, _ := json.Marshal(connectedPayload{RoomCode: code, ClientID: client.id})
	if _, err := w.Write(formatSSEMessage(EventConnected, string(hello))); err != nil {
		return
	}
	flusher.Flush()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	rc := http.NewResponseController(w)
	for {
		select {
		case message, ok := <-client.send:
			if !ok {
				// Hub closed the channel
				return
			}
			_ = rc.SetWriteDeadline(time.Now().Add(writeWait))
			if _, err := w.Write(formatSSEMessage(message.Event, string(message.Data))); err != nil {
				return
			}
			flusher.Flush()

		case <-ticker.C:
			_ = rc.SetWriteDeadline(time.Now().Add(writeWait))
			if _, err := w.Write([]byte(": keepalive\n\n")); err != nil {
				return
			}
			flusher.Flush()

		case <-r.Context().Done():
			// Client disconnected
			return
		}
	}
}

// formatSSEMessage formats an SSE message with event name and data.
// Multi-line data gets a "data: " prefix on each line.
func formatSSEMessage(eventName, data string) []byte {
	var b strings.Builder
	b.WriteString("event: ")
	b.WriteString(eventName)
	b.WriteByte('\n')
	for _, line := range splitLines(data) {
		b.WriteString("data: ")
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	return []byte(b.String())
}

// splitLines splits a string into lines, handling \n and \r\n endings
func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.TrimSuffix(s, "\n")
	return strings.Split(s, "\n")
}
