package fibonacci

import (
	"context"
	"net/http"
	"time"
)

// Logger logs method, uri, status and cost of every request it intercepts
func Logger(ctx context.Context, req *Request) Responder {
	startAt := time.Now()
	resp := Next(ctx, req)
	if resp == nil {
		resp = Status(http.StatusNotImplemented)
	}
	cost := time.Since(startAt)
	return ResponderFunc(func(ctx context.Context, w http.ResponseWriter) {
		rw := newResponseWriter(w)
		resp.Respond(ctx, rw)
		l := contextLogger(ctx)
		if rw.Status() >= http.StatusInternalServerError {
			l.Errorf("%s %s %d %v", req.request.Method, req.request.RequestURI, rw.Status(), cost)
		} else {
			l.Infof("%s %s %d %v", req.request.Method, req.request.RequestURI, rw.Status(), cost)
		}
	})
}
