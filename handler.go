package fibonacci

import (
	"container/list"
	"context"

	"github.com/gopub/fibonacci/ctxutil"
)

// Handler defines interface for interceptor and endpoint
type Handler interface {
	HandleRequest(ctx context.Context, req *Request) Responder
}

// HandlerFunc converts function into Handler
type HandlerFunc func(ctx context.Context, req *Request) Responder

func (h HandlerFunc) HandleRequest(ctx context.Context, req *Request) Responder {
	return h(ctx, req)
}

// Invoker calls the rest of a handler chain
type Invoker func(ctx context.Context, req *Request) Responder

// Next invokes the handler after the current one, or returns nil at the end of the chain
func Next(ctx context.Context, req *Request) Responder {
	i, _ := ctx.Value(ctxutil.KeyNextHandler).(Invoker)
	if i == nil {
		return nil
	}
	return i(ctx, req)
}

type invokerList struct {
	current *list.Element
}

func newInvokerList(handlers *list.List) *invokerList {
	return &invokerList{
		current: handlers.Front(),
	}
}

func (l *invokerList) Invoke(ctx context.Context, req *Request) Responder {
	if l.current == nil {
		return nil
	}
	h := l.current.Value.(Handler)
	l.current = l.current.Next()
	ctx = context.WithValue(ctx, ctxutil.KeyNextHandler, Invoker(l.Invoke))
	return h.HandleRequest(ctx, req)
}
