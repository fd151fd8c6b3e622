package realtime

import (
	"time"

	"github.com/google/uuid"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time between keepalive pings
	pingPeriod = 30 * time.Second

	// Time allowed to read the next pong from a WebSocket peer
	pongWait = 60 * time.Second

	// Buffer size for outgoing messages
	sendBufferSize = 64
)

// Transport names, for logging
const (
	TransportSSE       = "sse"
	TransportWebSocket = "websocket"
)

// Message is one event queued for delivery to a client
type Message struct {
	Event string
	// Data is the JSON-encoded payload
	Data []byte
}

// Client is one subscriber to a room, on either transport
type Client struct {
	id          string
	transport   string
	send        chan Message
	connectedAt time.Time
}

// NewClient creates a client with a bounded send buffer
func NewClient(transport string) *Client {
	return &Client{
		id:          uuid.NewString(),
		transport:   transport,
		send:        make(chan Message, sendBufferSize),
		connectedAt: time.Now(),
	}
}

// ID returns the client's connection id
func (c *Client) ID() string {
	return c.id
}

// Messages returns the channel of messages for this client.
// It is closed when the client is unregistered or its hub shuts down.
func (c *Client) Messages() <-chan Message {
	return c.send
}
