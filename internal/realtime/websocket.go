package realtime

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/partyquiz/internal/model"
)

// maxInboundMessage caps client-to-server frames; clients only listen
const maxInboundMessage = 512

// Frame is the JSON envelope for every WebSocket message
type Frame struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// WebSocketServer streams room events over WebSocket connections
type WebSocketServer struct {
	upgrader websocket.Upgrader
	manager  *HubManager
	logger   *slog.Logger
}

// NewWebSocketServer creates a WebSocketServer. Browser connections are
// accepted from allowedOrigins and from the server's own host.
func NewWebSocketServer(manager *HubManager, allowedOrigins []string, logger *slog.Logger) *WebSocketServer {
	return &WebSocketServer{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		manager: manager,
		logger:  logger.With(slog.String("component", "websocket")),
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			// Non-browser clients send no Origin
			return true
		}
		if slices.Contains(allowed, origin) {
			return true
		}
		u, err := url.Parse(origin)
		return err == nil && u.Host == r.Host
	}
}

// Serve upgrades the request and streams the room's events until either side closes
func (s *WebSocketServer) Serve(w http.ResponseWriter, r *http.Request, code model.RoomCode) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error
		s.logger.Debug("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	hub, client := s.manager.Subscribe(code, TransportWebSocket)
	defer hub.Unregister(client)

	closed := make(chan struct{})
	go s.readPump(conn, closed)

	hello, _ := json.Marshal(connectedPayload{RoomCode: code, ClientID: client.id})
	if err := writeFrame(conn, Message{Event: EventConnected, Data: hello}); err != nil {
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-client.send:
			if !ok {
				// Hub closed the channel
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
					time.Now().Add(writeWait))
				return
			}
			if err := writeFrame(conn, message); err != nil {
				return
			}

		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}

		case <-closed:
			return
		}
	}
}

// readPump drains and discards inbound frames so control frames are
// processed, and closes closed when the peer goes away
func (s *WebSocketServer) readPump(conn *websocket.Conn, closed chan<- struct{}) {
	defer close(closed)

	conn.SetReadLimit(maxInboundMessage)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func writeFrame(conn *websocket.Conn, message Message) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(Frame{Event: message.Event, Payload: message.Data})
}
