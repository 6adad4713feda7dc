// Package ctxutil stores request scoped values in context.Context.
package ctxutil

import (
	"context"
	"net/http"

	"github.com/gopub/fibonacci/httpvalue"
	"github.com/gopub/log"
)

type Key int

// Context keys
const (
	keyStart Key = iota

	KeyNextHandler
	KeyTraceID
	KeyRequestHeader

	keyEnd
)

func GetRequestHeader(ctx context.Context) http.Header {
	h, _ := ctx.Value(KeyRequestHeader).(http.Header)
	return h
}

func WithRequestHeader(ctx context.Context, h http.Header) context.Context {
	return context.WithValue(ctx, KeyRequestHeader, h)
}

// GetTraceID falls back to the X-Request-Id request header
func GetTraceID(ctx context.Context) string {
	if id, ok := ctx.Value(KeyTraceID).(string); ok {
		return id
	}
	return GetRequestHeader(ctx).Get(httpvalue.RequestID)
}

func WithTraceID(ctx context.Context, traceID string) context.Context {
	if traceID == "" {
		return ctx
	}
	return context.WithValue(ctx, KeyTraceID, traceID)
}

// Detach copies the logger and known values into a context which is never cancelled
func Detach(ctx context.Context) context.Context {
	newCtx := context.Background()
	if l := log.FromContext(ctx); l != nil {
		newCtx = log.BuildContext(newCtx, l)
	}
	for k := keyStart; k < keyEnd; k++ {
		if v := ctx.Value(k); v != nil {
			newCtx = context.WithValue(newCtx, k, v)
		}
	}
	return newCtx
}
