package realtime

import (
	"bufio"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/partyquiz/internal/model"
	"github.com/mcoot/partyquiz/internal/testutil"
)

func newTransportServer(t *testing.T, manager *HubManager, origins []string) *httptest.Server {
	t.Helper()
	ws := NewWebSocketServer(manager, origins, testutil.NopLogger())
	mux := http.NewServeMux()
	mux.HandleFunc("/events", func(w http.ResponseWriter, r *http.Request) {
		ServeSSE(w, r, manager, "ABC123")
	})
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ws.Serve(w, r, "ABC123")
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

// readSSEEvent reads one event block and returns its event name and data
func readSSEEvent(t *testing.T, r *bufio.Reader) (string, string) {
	t.Helper()
	var event, data string
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "":
			if event != "" {
				return event, data
			}
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data += strings.TrimPrefix(line, "data: ")
		}
	}
}

func TestServeSSE(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())
	defer manager.Close()
	server := newTransportServer(t, manager, nil)

	resp, err := http.Get(server.URL + "/events")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	event, data := readSSEEvent(t, reader)
	assert.Equal(t, EventConnected, event)
	assert.Contains(t, data, `"roomCode":"ABC123"`)

	manager.Broadcast("ABC123", model.EventGameConfigUpdated, map[string]string{"gameId": "game-1"})

	event, data = readSSEEvent(t, reader)
	assert.Equal(t, "gameConfigUpdated", event)
	assert.JSONEq(t, `{"gameId":"game-1"}`, data)
}

func TestServeSSEUnregistersOnDisconnect(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())
	defer manager.Close()
	server := newTransportServer(t, manager, nil)

	resp, err := http.Get(server.URL + "/events")
	require.NoError(t, err)
	readSSEEvent(t, bufio.NewReader(resp.Body))

	hub := manager.GetHub("ABC123")
	require.NotNil(t, hub)
	assert.Equal(t, 1, hub.ClientCount())

	resp.Body.Close()
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
}

func TestServeWebSocket(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())
	defer manager.Close()
	server := newTransportServer(t, manager, nil)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(server), nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var frame Frame
	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, EventConnected, frame.Event)
	assert.Contains(t, string(frame.Payload), `"roomCode":"ABC123"`)

	manager.Broadcast("ABC123", model.EventGameConfigUpdated, map[string]string{"gameId": "game-1"})

	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, "gameConfigUpdated", frame.Event)
	assert.JSONEq(t, `{"gameId":"game-1"}`, string(frame.Payload))
}

func TestServeWebSocketClosesWithHub(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())
	server := newTransportServer(t, manager, nil)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(server), nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var frame Frame
	require.NoError(t, conn.ReadJSON(&frame))

	manager.Close()

	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "unexpected error: %v", err)
}

func TestWebSocketOriginCheck(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())
	defer manager.Close()
	server := newTransportServer(t, manager, []string{"http://localhost:3000"})

	allowed := http.Header{"Origin": []string{"http://localhost:3000"}}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(server), allowed)
	require.NoError(t, err)
	conn.Close()

	denied := http.Header{"Origin": []string{"http://evil.example.com"}}
	_, resp, err := websocket.DefaultDialer.Dial(wsURL(server), denied)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
