package fibonacci

import (
	"context"
	"net/http"
	"time"

	"github.com/gopub/types"
)

const (
	uptimePath    = "_fib/uptime"
	versionPath   = "_fib/version"
	endpointsPath = "_fib/endpoints"
)

func (s *Server) bindSystemRoutes(r *Router) {
	r.Get(uptimePath, s.handleUptime)
	r.Get(versionPath, handleVersion)
	r.Get(endpointsPath, s.handleEndpoints)
}

func (s *Server) handleUptime(_ context.Context, _ *Request) Responder {
	return Text(http.StatusOK, time.Since(s.startAt).Truncate(time.Second).String())
}

func handleVersion(_ context.Context, _ *Request) Responder {
	return Text(http.StatusOK, Version)
}

func (s *Server) handleEndpoints(_ context.Context, _ *Request) Responder {
	var l []types.M
	for _, e := range s.Endpoints() {
		l = append(l, types.M{
			"method":      e.Method,
			"path":        "/" + e.Path(),
			"description": e.Description(),
		})
	}
	return JSON(http.StatusOK, l)
}
