package ws

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/gopub/errors"
	"github.com/gorilla/websocket"
)

// Client sends requests over one connection and matches replies by ID
type Client struct {
	conn    *Conn
	counter int64

	mu       sync.Mutex
	replyCs  map[int64]chan *Reply
	closed   chan struct{}
	closeErr error
}

// Dial connects to addr, e.g. ws://127.0.0.1:3000/ws/fibonacci
func Dial(ctx context.Context, addr string) (*Client, error) {
	wconn, _, err := websocket.DefaultDialer.DialContext(ctx, addr, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "dial %s", addr)
	}
	c := &Client{
		conn:    NewConn(wconn, 0),
		replyCs: make(map[int64]chan *Reply),
		closed:  make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

func (c *Client) readLoop() {
	var err error
	for {
		reply := new(Reply)
		if err = c.conn.ReadJSON(reply); err != nil {
			break
		}
		c.mu.Lock()
		ch, ok := c.replyCs[reply.ID]
		delete(c.replyCs, reply.ID)
		c.mu.Unlock()
		if ok {
			ch <- reply
		} else {
			logger.Warnf("Drop reply #%d", reply.ID)
		}
	}
	c.mu.Lock()
	c.closeErr = err
	c.mu.Unlock()
	close(c.closed)
}

// Send writes {"id","n"} and waits for the matching reply
func (c *Client) Send(ctx context.Context, n uint32) (*Reply, error) {
	req := &Request{
		ID: atomic.AddInt64(&c.counter, 1),
		N:  n,
	}
	ch := make(chan *Reply, 1)
	c.mu.Lock()
	c.replyCs[req.ID] = ch
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.replyCs, req.ID)
		c.mu.Unlock()
	}()
	if err := c.conn.WriteJSON(req); err != nil {
		return nil, err
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.closed:
		c.mu.Lock()
		defer c.mu.Unlock()
		return nil, errors.Wrapf(c.closeErr, "connection closed")
	case reply := <-ch:
		return reply, nil
	}
}

// Fibonacci returns F(n) computed by the server
func (c *Client) Fibonacci(ctx context.Context, n uint32) (uint32, error) {
	reply, err := c.Send(ctx, n)
	if err != nil {
		return 0, err
	}
	if reply.Error != nil {
		return 0, reply.Error.Err()
	}
	if reply.Result == nil {
		return 0, errors.New("missing result")
	}
	return *reply.Result, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}
