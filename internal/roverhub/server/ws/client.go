package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/autopeer-io/roverhub/internal/roverhub/broadcast"
	"github.com/autopeer-io/roverhub/pkg/log"
	"github.com/autopeer-io/roverhub/pkg/options"
)

var _ broadcast.Observer = (*Client)(nil)

// Client is a middleman between one websocket connection and the registry.
type Client struct {
	id   string
	conn *websocket.Conn
	opts *options.WebSocketOptions
	log  log.Logger

	mu     sync.Mutex
	closed bool
	send   chan []byte
}

func newClient(id string, conn *websocket.Conn, opts *options.WebSocketOptions) *Client {
	return &Client{
		id:   id,
		conn: conn,
		opts: opts,
		send: make(chan []byte, opts.SendBuffer),
		log:  log.WithName("ws").WithValues("observer", id, "remote", conn.RemoteAddr().String()),
	}
}

func (c *Client) ID() string { return c.id }

func (c *Client) Deliver(msg *broadcast.Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.send <- msg.Payload:
		return true
	default:
		return false
	}
}

// Close stops the write pump, which then closes the connection.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// readPump hands every inbound frame to onFrame until the connection fails.
// onDone runs once the connection is gone.
func (c *Client) readPump(onFrame func(c *Client, frame []byte), onDone func(c *Client)) {
	defer func() {
		onDone(c)
		c.Close()
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(c.opts.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn("WebSocket read failed", "error", err.Error())
			}
			return
		}
		onFrame(c, frame)
	}
}

// writePump writes queued frames and keeps the connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(c.opts.PingPeriod())
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.log.Warn("WebSocket write failed", "error", err.Error())
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
