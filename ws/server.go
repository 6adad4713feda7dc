package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gopub/errors"
	"github.com/gopub/fibonacci/ctxutil"
	"github.com/gopub/fibonacci/fib"
	"github.com/gopub/log"
	"github.com/gorilla/websocket"
)

// ComputeFunc returns F(n) or an error carrying an HTTP status code
type ComputeFunc func(ctx context.Context, n uint32) (uint32, error)

// Config is set by the owner of the server, usually from fibonacci.Config
type Config struct {
	// ReadTimeout closes connections idle for longer
	ReadTimeout time.Duration
	// Timeout bounds every request, zero means no limit
	Timeout  time.Duration
	Recovery bool
}

func DefaultConfig() *Config {
	return &Config{
		ReadTimeout: 60 * time.Second,
		Timeout:     30 * time.Second,
		Recovery:    true,
	}
}

type Server struct {
	websocket.Upgrader
	ReadTimeout time.Duration
	Timeout     time.Duration
	Recovery    bool

	compute ComputeFunc
}

var _ http.Handler = (*Server)(nil)

// NewServer serves compute over websocket, nil c means DefaultConfig
func NewServer(compute ComputeFunc, c *Config) *Server {
	if c == nil {
		c = DefaultConfig()
	}
	return &Server{
		ReadTimeout: c.ReadTimeout,
		Timeout:     c.Timeout,
		Recovery:    c.Recovery,
		compute:     compute,
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	wconn, err := s.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied with an error status
		logger.Errorf("Upgrade: %v", err)
		return
	}
	// The connection outlives the upgrade request
	ctx := ctxutil.Detach(r.Context())
	conn := NewConn(wconn, s.ReadTimeout)
	defer conn.Close()
	logger.Debugf("New conn %s", wconn.RemoteAddr())
	for {
		req := new(Request)
		err := conn.ReadJSON(req)
		if err != nil {
			if errors.GetCode(err) == http.StatusBadRequest {
				if err = conn.WriteJSON(newErrorReply(0, nil, err)); err == nil {
					continue
				}
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Errorf("Read: %v", err)
			}
			break
		}
		go s.handle(ctx, conn, req)
	}
	logger.Debugf("Close conn %s", wconn.RemoteAddr())
}

func (s *Server) handle(ctx context.Context, conn *Conn, req *Request) {
	if s.Recovery {
		defer func() {
			if e := recover(); e != nil {
				logger.Errorf("#%d fibonacci(%d): %+v", req.ID, req.N, e)
				logger.Errorf("\n%s\n", string(debug.Stack()))
				conn.WriteJSON(newErrorReply(req.ID, &req.N, errors.Format(http.StatusInternalServerError, "%v", e)))
			}
		}()
	}
	startAt := time.Now()
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}
	reply := s.Handle(ctx, req)
	if err := conn.WriteJSON(reply); err != nil {
		logger.Errorf("Cannot write reply: %v", err)
		conn.Close()
		return
	}
	l := log.FromContext(ctx)
	if l == nil {
		l = logger
	}
	if reply.Error != nil {
		l.Errorf("#%d fibonacci(%d) %v | %s", req.ID, req.N, time.Since(startAt), reply.Error.Message)
	} else {
		l.Infof("#%d fibonacci(%d) %v", req.ID, req.N, time.Since(startAt))
	}
}

// Handle computes the reply of req
func (s *Server) Handle(ctx context.Context, req *Request) *Reply {
	n := req.N
	result, err := s.compute(ctx, n)
	if err != nil {
		return newErrorReply(req.ID, &n, err)
	}
	return &Reply{
		ID:     req.ID,
		N:      &n,
		Result: &result,
		Text:   fib.Text(n, result),
	}
}

func unmarshal(data []byte, v interface{}) error {
	if err := json.Unmarshal(data, v); err != nil {
		return errors.BadRequest("malformed request: %v", err)
	}
	return nil
}
