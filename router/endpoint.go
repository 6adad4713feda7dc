package router

import (
	"container/list"
)

// Endpoint is a bound method and path
type Endpoint struct {
	Method string
	node   *node
}

func (e *Endpoint) Path() string {
	return e.node.path
}

func (e *Endpoint) SetDescription(s string) *Endpoint {
	e.node.description = s
	return e
}

func (e *Endpoint) Description() string {
	return e.node.description
}

func (e *Endpoint) HandlerPath() string {
	return e.node.handlerPath()
}

// Handlers returns interceptors followed by the endpoint's own handlers
func (e *Endpoint) Handlers() *list.List {
	return e.node.handlers
}
