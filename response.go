package fibonacci

import (
	"context"
	"net/http"

	"github.com/gopub/fibonacci/internal/respond"
)

// Responder writes status and body to the client
type Responder interface {
	Respond(ctx context.Context, w http.ResponseWriter)
}

// ResponderFunc is a func that implements interface Responder
type ResponderFunc func(ctx context.Context, w http.ResponseWriter)

func (f ResponderFunc) Respond(ctx context.Context, w http.ResponseWriter) {
	f(ctx, w)
}

// Status returns a response only with a status code
func Status(status int) Responder {
	return respond.Status(status)
}

// Text sends a text/plain response
func Text(status int, text string) Responder {
	return respond.Text(status, text)
}

// JSON creates a application/json response
func JSON(status int, value interface{}) Responder {
	return respond.JSON(status, value)
}

// negotiate renders result as the media type req accepts best
func negotiate(req *Request, status int, result respond.Result) Responder {
	return respond.Negotiate(req.request.Header, status, result)
}

// Error renders err with the status carried by err, or 500.
// The body is text unless req prefers JSON.
func Error(req *Request, err error) Responder {
	if err == nil {
		return Status(http.StatusOK)
	}
	return respond.Error(req.request.Header, err)
}

// Handle hands the raw writer over to h
func Handle(req *Request, h http.Handler) Responder {
	return respond.Handle(req.request, h)
}
