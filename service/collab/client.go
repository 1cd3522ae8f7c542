package collab

import (
	"sync"
	"time"

	"GridSync/logger"

	"github.com/gorilla/websocket"
)

// Client is one websocket connection owned by one authenticated user.
// A user may hold several clients at once (multi-tab/device), each
// with its own outbound queue consumed by a single writer goroutine.
type Client struct {
	ConnID string
	UserID string
	Name   string
	Color  string

	WS   *websocket.Conn
	Send chan []byte

	closeOnce sync.Once
	done      chan struct{}
}

func NewClient(connID string, userID, name, color string, ws *websocket.Conn, queue int) *Client {
	return &Client{
		ConnID: connID,
		UserID: userID,
		Name:   name,
		Color:  color,
		WS:     ws,
		Send:   make(chan []byte, queue),
		done:   make(chan struct{}),
	}
}

// WritePump drains Send onto the socket. Runs as the connection's only
// writer; returns when the client is closed or a write fails.
func (c *Client) WritePump(deadline time.Duration) {
	for {
		select {
		case <-c.done:
			return
		case payload, ok := <-c.Send:
			if !ok {
				return
			}
			if err := c.WS.SetWriteDeadline(time.Now().Add(deadline)); err != nil {
				logger.Infof("[WS] set deadline conn=%s err=%v", c.ConnID, err)
				return
			}
			if err := c.WS.WriteMessage(websocket.TextMessage, payload); err != nil {
				logger.Infof("[WS] write conn=%s err=%v", c.ConnID, err)
				return
			}
		}
	}
}

// Enqueue offers a frame to the client without blocking. A full queue
// means a slow consumer; the frame is dropped and counted against it.
func (c *Client) Enqueue(payload []byte) bool {
	select {
	case c.Send <- payload:
		return true
	default:
		return false
	}
}

// Close is idempotent; it stops the writer and closes the socket.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.WS != nil {
			_ = c.WS.Close()
		}
	})
}
