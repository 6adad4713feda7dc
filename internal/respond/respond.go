// Package respond renders route results into HTTP responses.
//
// A Result knows the media types it can be rendered as. Negotiate picks one with the
// request's Accept header and renders the body before anything is written.
package respond

import (
	"context"
	"net/http"

	"github.com/gopub/fibonacci/httpvalue"
	"github.com/gopub/log"
)

var logger = log.Default()

func SetLogger(l *log.Logger) {
	logger = l
}

// Response is a rendered status, header and body
type Response struct {
	status int
	header http.Header
	body   []byte
}

func newResponse(status int, mediaType string, body []byte) *Response {
	header := make(http.Header)
	header.Set(httpvalue.ContentType, contentType(mediaType))
	return &Response{
		status: status,
		header: header,
		body:   body,
	}
}

func contentType(mediaType string) string {
	switch mediaType {
	case httpvalue.Plain:
		return httpvalue.PlainUTF8
	case httpvalue.JSON:
		return httpvalue.JsonUTF8
	default:
		return mediaType
	}
}

func (r *Response) Respond(ctx context.Context, w http.ResponseWriter) {
	for k, v := range r.header {
		w.Header()[k] = v
	}
	w.WriteHeader(r.status)
	if _, err := w.Write(r.body); err != nil {
		logger.Errorf("Cannot write: %v", err)
	}
}

func (r *Response) Status() int {
	return r.status
}

func (r *Response) Header() http.Header {
	return r.header
}

func (r *Response) Body() []byte {
	return r.body
}

type Func func(ctx context.Context, w http.ResponseWriter)

func (f Func) Respond(ctx context.Context, w http.ResponseWriter) {
	f(ctx, w)
}

// Handle hands the raw writer over to h, e.g. for a websocket upgrade
func Handle(req *http.Request, h http.Handler) Func {
	return func(ctx context.Context, w http.ResponseWriter) {
		h.ServeHTTP(w, req.WithContext(ctx))
	}
}
