package live

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// client is one WebSocket connection. Frames are queued on send and
// written by a dedicated goroutine.
type client struct {
	conn   *websocket.Conn
	remote string
	send   chan []byte

	done      chan struct{}
	closeOnce sync.Once
}

func newClient(conn *websocket.Conn, remote string, buffer int) *client {
	return &client{
		conn:   conn,
		remote: remote,
		send:   make(chan []byte, buffer),
		done:   make(chan struct{}),
	}
}

// close stops the writer and closes the connection. It is idempotent.
func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

func (c *client) writeLoop(timeout time.Duration, logger *slog.Logger) {
	for {
		select {
		case <-c.done:
			return
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(timeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				logger.Debug("write failed", "remote", c.remote, "error", err)
				c.close()
				return
			}
		}
	}
}

// readLoop discards inbound messages until the peer goes away.
func (c *client) readLoop(logger *slog.Logger) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("read failed", "remote", c.remote, "error", err)
			}
			return
		}
	}
}
