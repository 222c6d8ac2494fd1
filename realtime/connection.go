// Package realtime owns the live websocket side of the messaging core:
// the connection registry, the frame router, the liveness sweep and the
// notification bridge.
package realtime

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// Connection is one live websocket plus its metadata. A user may own
// many (one per tab or device). The write pump is the only goroutine
// writing data frames; control frames go through WriteControl, which
// gorilla allows concurrently.
type Connection struct {
	userID string
	ws     *websocket.Conn
	log    *slog.Logger
	alive  atomic.Bool

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

func newConnection(userID string, ws *websocket.Conn, log *slog.Logger, sendBufferSize int) *Connection {
	c := &Connection{
		userID: userID,
		ws:     ws,
		log:    log,
		send:   make(chan []byte, sendBufferSize),
	}
	c.alive.Store(true)
	return c
}

func (c *Connection) UserID() string { return c.userID }

func (c *Connection) Alive() bool         { return c.alive.Load() }
func (c *Connection) SetAlive(alive bool) { c.alive.Store(alive) }

// Send queues an already-serialized frame. It never blocks: a closed
// connection or a full buffer (slow consumer) drops the frame and
// reports false.
func (c *Connection) Send(frame []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- frame:
		return true
	default:
		c.log.Debug("Dropping frame for slow consumer", "user_id", c.userID)
		return false
	}
}

// Close stops accepting frames and lets the write pump drain and finish.
// Safe to call more than once.
func (c *Connection) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// Terminate closes the outbound queue and tears the socket down. Used
// for failed heartbeats and handler cleanup.
func (c *Connection) Terminate() {
	c.Close()
	if c.ws != nil {
		_ = c.ws.Close()
	}
}

// Ping sends a transport-level ping; the peer's pong resets the alive flag.
func (c *Connection) Ping() error {
	if c.ws == nil {
		return nil
	}
	return c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// writePump drains the send queue onto the socket in queue order. Frames
// sent to the same connection are delivered in send order; nothing else
// is guaranteed.
func (c *Connection) writePump() {
	defer func() {
		_ = c.ws.Close()
	}()
	for frame := range c.send {
		_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
			// The socket is gone; keep draining so queued senders are not
			// left with an unclosed channel.
			c.log.Debug("Write failed, discarding remaining frames", "user_id", c.userID, "error", err)
			for range c.send {
			}
			return
		}
	}
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
}
