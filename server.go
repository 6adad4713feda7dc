package fibonacci

import (
	"container/list"
	"context"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"github.com/gopub/errors"
	"github.com/gopub/fibonacci/ctxutil"
	"github.com/gopub/fibonacci/httpvalue"
	"github.com/gopub/fibonacci/router"
	"github.com/gopub/fibonacci/ws"
	"github.com/gopub/log"
)

// Server implements web server
type Server struct {
	*Router

	Header  http.Header
	config  *Config
	server  *http.Server
	mu      sync.Mutex
	wasm    WASMModule
	ws      *ws.Server
	startAt time.Time

	// slots holds one token per running computation
	slots chan struct{}
}

var _ http.Handler = (*Server)(nil)

// NewServer returns a server with all routes bound and the Logger interceptor installed
func NewServer(c *Config) *Server {
	if c == nil {
		c = DefaultConfig()
	}
	s := &Server{
		Router:  NewRouter(),
		Header:  make(http.Header),
		config:  c,
		startAt: time.Now(),
		slots:   make(chan struct{}, c.MaxComputations),
	}
	s.Header.Set(httpvalue.Server, "Fibonacci")
	s.ws = ws.NewServer(s.Compute, &ws.Config{
		ReadTimeout: c.WSReadTimeout,
		Timeout:     c.RequestTimeout,
		Recovery:    c.Recovery,
	})
	s.bindRoutes()
	return s
}

func (s *Server) Config() *Config {
	return s.config
}

// SetWASMModule enables the /wasm routes. It must be called before Run.
func (s *Server) SetWASMModule(m WASMModule) {
	s.wasm = m
}

// Run starts server
func (s *Server) Run(addr string) error {
	s.mu.Lock()
	if s.server != nil {
		s.mu.Unlock()
		log.Panic("Server is running")
	}
	s.server = &http.Server{Addr: addr, Handler: s}
	s.mu.Unlock()

	logger.Infof("Running at %s ...", addr)
	s.Router.Print()
	err := s.server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		logger.Errorf("Listen and serve: %v", err)
		return err
	}
	return nil
}

// Shutdown stops server gracefully
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	err := srv.Shutdown(ctx)
	logger.Info("Shutdown")
	return err
}

// ServeHTTP implements for http.Handler interface, which will handle each http request
func (s *Server) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if s.config.Recovery {
		defer func() {
			if e := recover(); e != nil {
				logger.Errorf("%s %s: %+v", req.Method, req.RequestURI, e)
				logger.Errorf("\n%s\n", string(debug.Stack()))
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}
		}()
	}

	ctx, cancel := context.WithTimeout(req.Context(), s.config.RequestTimeout)
	defer cancel()
	ctx = ctxutil.WithRequestHeader(ctx, req.Header)
	traceID := ctxutil.GetTraceID(ctx)
	if traceID == "" {
		traceID = NewUUID()
		ctx = ctxutil.WithTraceID(ctx, traceID)
	}
	ctx = log.BuildContext(ctx, logger.With("trace_id", traceID))

	for k, v := range s.Header {
		w.Header()[k] = v
	}
	w.Header().Set(httpvalue.RequestID, traceID)

	// Upgraded conns need the raw writer
	if req.Header.Get(httpvalue.Upgrade) == "" {
		if cw := newCompressedResponseWriter(w, req.Header.Get(httpvalue.AcceptEncoding)); cw != nil {
			defer func() {
				if err := cw.Close(); err != nil {
					logger.Errorf("Close compressed writer: %v", err)
				}
			}()
			w = cw
		}
	}

	var handlers *list.List
	endpoint, pathParams := s.Match(req.Method, req.URL.EscapedPath())
	if endpoint == nil {
		handlers = list.New()
		handlers.PushBack(HandlerFunc(Logger))
		handlers.PushBack(HandlerFunc(handleNotFound))
	} else {
		handlers = endpoint.Handlers()
	}

	resp := newInvokerList(handlers).Invoke(ctx, newRequest(req, pathParams))
	if resp == nil {
		resp = Status(http.StatusNotImplemented)
	}
	resp.Respond(ctx, w)
}

func handleNotFound(ctx context.Context, req *Request) Responder {
	return Error(req, errors.NotFound("%s %s not found", req.request.Method, req.request.URL.Path))
}

// Router binds Handlers into the underlying router
type Router struct {
	*router.Router
}

func NewRouter() *Router {
	return &Router{Router: router.New()}
}

func (r *Router) Group(path string) *Router {
	return &Router{Router: r.Router.Group(path)}
}

func (r *Router) Use(handlers ...HandlerFunc) *Router {
	return &Router{Router: r.Router.Use(toInterfaces(handlers)...)}
}

func (r *Router) Get(path string, handlers ...HandlerFunc) *router.Endpoint {
	return r.Bind(http.MethodGet, path, toInterfaces(handlers)...)
}

func (r *Router) Post(path string, handlers ...HandlerFunc) *router.Endpoint {
	return r.Bind(http.MethodPost, path, toInterfaces(handlers)...)
}

// Any binds handlers for all methods
func (r *Router) Any(path string, handlers ...HandlerFunc) *router.Endpoint {
	return r.Bind("", path, toInterfaces(handlers)...)
}

func toInterfaces(handlers []HandlerFunc) []interface{} {
	l := make([]interface{}, len(handlers))
	for i, h := range handlers {
		l[i] = h
	}
	return l
}
