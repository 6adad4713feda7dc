package fibonacci

import (
	"bufio"
	"compress/flate"
	"compress/gzip"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/gopub/errors"
	"github.com/gopub/fibonacci/httpvalue"
)

var _ http.Hijacker = (*responseWriter)(nil)
var _ http.Flusher = (*compressedResponseWriter)(nil)

// http.Flusher doesn't return error, however gzip.Writer/flate.Writer only implement `Flush() error`
type flusher interface {
	Flush() error
}

// responseWriter records the status code and writes it only once
type responseWriter struct {
	http.ResponseWriter
	status int
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w}
}

func (w *responseWriter) WriteHeader(statusCode int) {
	if w.status > 0 {
		logger.Warnf("Cannot overwrite status %d with %d", w.status, statusCode)
		return
	}
	w.status = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *responseWriter) Write(data []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(data)
}

func (w *responseWriter) Status() int {
	return w.status
}

func (w *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := w.ResponseWriter.(http.Hijacker); ok {
		// Hijacked conns answer 101 Switching Protocols
		w.status = http.StatusSwitchingProtocols
		return h.Hijack()
	}
	return nil, nil, errors.New("hijack not supported")
}

type compressedResponseWriter struct {
	http.ResponseWriter
	compressedWriter io.Writer
}

// newCompressedResponseWriter picks the first of gzip and deflate listed in acceptEncoding.
// It returns nil if neither is accepted.
func newCompressedResponseWriter(w http.ResponseWriter, acceptEncoding string) *compressedResponseWriter {
	cw := &compressedResponseWriter{ResponseWriter: w}
	switch {
	case strings.Contains(acceptEncoding, "gzip"):
		cw.compressedWriter = gzip.NewWriter(w)
		w.Header().Set(httpvalue.ContentEncoding, "gzip")
	case strings.Contains(acceptEncoding, "deflate"):
		fw, err := flate.NewWriter(w, flate.DefaultCompression)
		if err != nil {
			logger.Errorf("Create deflate writer: %v", err)
			return nil
		}
		cw.compressedWriter = fw
		w.Header().Set(httpvalue.ContentEncoding, "deflate")
	default:
		return nil
	}
	return cw
}

func (w *compressedResponseWriter) Write(data []byte) (int, error) {
	return w.compressedWriter.Write(data)
}

func (w *compressedResponseWriter) Flush() {
	if f, ok := w.compressedWriter.(flusher); ok {
		if err := f.Flush(); err != nil {
			logger.Errorf("Cannot flush: %v", err)
		}
	}
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *compressedResponseWriter) Close() error {
	if closer, ok := w.compressedWriter.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
