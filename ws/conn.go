package ws

import (
	"sync"
	"time"

	"github.com/gopub/errors"
	"github.com/gorilla/websocket"
)

// Conn serializes writes on a websocket.Conn. Replies are written from many goroutines.
type Conn struct {
	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool

	readTimeout time.Duration
}

func NewConn(conn *websocket.Conn, readTimeout time.Duration) *Conn {
	return &Conn{
		conn:        conn,
		readTimeout: readTimeout,
	}
}

// ReadJSON waits at most readTimeout for the next frame. Zero means no deadline.
func (c *Conn) ReadJSON(v interface{}) error {
	var deadline time.Time
	if c.readTimeout > 0 {
		deadline = time.Now().Add(c.readTimeout)
	}
	if err := c.conn.SetReadDeadline(deadline); err != nil {
		return errors.Wrapf(err, "set read deadline")
	}
	typ, data, err := c.conn.ReadMessage()
	if err != nil {
		return err
	}
	if typ != websocket.TextMessage {
		return errors.BadRequest("unsupported message type %d", typ)
	}
	return unmarshal(data, v)
}

func (c *Conn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("write to closed conn")
	}
	if err := c.conn.WriteJSON(v); err != nil {
		return errors.Wrapf(err, "write json")
	}
	return nil
}

func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.conn.Close()
}
