package transport

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/supportdesk/signaling-platform/internal/signaling"
	"github.com/supportdesk/signaling-platform/pkg/protocol"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. Enough for SDP blobs.
	maxMessageSize = 64 * 1024
)

// Client wraps a single websocket connection. All reads happen on the
// read pump and all writes on the write pump, so there is exactly one
// reader and one writer per connection. Outbound traffic goes through
// a bounded queue; a peer that cannot drain it gets disconnected
// rather than growing server memory.
type Client struct {
	ID protocol.ConnectionID

	conn      *websocket.Conn
	send      chan signaling.Envelope
	done      chan struct{}
	closeOnce sync.Once
	logger    *slog.Logger

	onMessage func(conn protocol.ConnectionID, event string, data json.RawMessage)
	onClose   func(conn protocol.ConnectionID)
}

func newClient(
	id protocol.ConnectionID,
	conn *websocket.Conn,
	queueSize int,
	logger *slog.Logger,
	onMessage func(conn protocol.ConnectionID, event string, data json.RawMessage),
	onClose func(conn protocol.ConnectionID),
) *Client {
	return &Client{
		ID:        id,
		conn:      conn,
		send:      make(chan signaling.Envelope, queueSize),
		done:      make(chan struct{}),
		logger:    logger,
		onMessage: onMessage,
		onClose:   onClose,
	}
}

// enqueue queues an envelope for the write pump. On overflow the
// connection is closed: dropping arbitrary envelopes would corrupt an
// SDP exchange, disconnecting is the honest failure mode.
func (c *Client) enqueue(envelope signaling.Envelope) bool {
	select {
	case <-c.done:
		return false
	case c.send <- envelope:
		return true
	default:
		c.logger.Warn("outbound queue overflow, closing connection",
			slog.String("conn", c.ID))
		c.close()
		return false
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.conn != nil {
			c.conn.Close()
		}
	})
}

// readPump pumps inbound envelopes into onMessage until the connection
// dies, then fires onClose exactly once per pump.
func (c *Client) readPump() {
	defer func() {
		c.close()
		c.onClose(c.ID)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var envelope signaling.Envelope
		if err := c.conn.ReadJSON(&envelope); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("read error",
					slog.String("conn", c.ID),
					slog.String("err", err.Error()))
			}
			return
		}
		c.onMessage(c.ID, envelope.Event, envelope.Data)
	}
}

// writePump drains the outbound queue onto the wire and keeps the
// connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.done:
			return
		case envelope := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(envelope); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
