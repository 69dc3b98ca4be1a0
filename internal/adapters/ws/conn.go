// Package ws adapts gorilla/websocket connections to the coordinator's
// Connection contract: a buffered outbound queue drained by a write pump,
// with non-blocking sends that drop instead of stalling other members.
package ws

import (
	"errors"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/avess/huddle/internal/core"
)

var (
	ErrBackpressure = errors.New("backpressure")
	ErrConnClosed   = errors.New("connection closed")
)

type Conn struct {
	id   core.ConnID
	ws   *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func newConn(id core.ConnID, ws *websocket.Conn, buffer int) *Conn {
	return &Conn{
		id:   id,
		ws:   ws,
		send: make(chan core.Frame, buffer),
	}
}

func (c *Conn) ID() core.ConnID { return c.id }

// TrySend queues a frame without blocking. A full buffer means the peer is
// slow; the frame is dropped and the caller's policy decides what happens to
// the member.
func (c *Conn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrConnClosed
	}
	select {
	case c.send <- f:
		return nil
	default:
		return ErrBackpressure
	}
}

// Close is safe to call from any goroutine and more than once. Closing the
// send channel stops the write pump; closing the socket unblocks the read
// pump, which then runs disconnect cleanup.
func (c *Conn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.ws.Close()
	c.mu.Unlock()
}
