package realtime

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeTimeout = 10 * time.Second

// WSConn adapts a gorilla websocket connection to the Conn interface.
// Writes are serialized; the websocket package allows only one concurrent
// writer.
type WSConn struct {
	mu     sync.Mutex
	sock   *websocket.Conn
	closed bool
}

func NewWSConn(sock *websocket.Conn) *WSConn {
	return &WSConn{sock: sock}
}

func (c *WSConn) Send(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return websocket.ErrCloseSent
	}
	_ = c.sock.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.sock.WriteJSON(v)
}

func (c *WSConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	_ = c.sock.SetWriteDeadline(time.Now().Add(writeTimeout))
	_ = c.sock.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "superseded"))
	return c.sock.Close()
}
