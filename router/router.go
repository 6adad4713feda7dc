// Package router binds method and path patterns to handler lists.
//
// A pattern is a slash separated list of segments. A segment is static (fibonacci),
// a param ({n}) or a trailing wildcard (*file). Handlers are opaque to the router.
package router

import (
	"container/list"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/gopub/log"
)

var logger = log.Default()

func SetLogger(l *log.Logger) {
	logger = l
}

// Router implements routing function
type Router struct {
	roots    map[string]*node // key is the upper case method, "" matches any method
	basePath string
	handlers *list.List
}

func New() *Router {
	r := &Router{
		roots:    make(map[string]*node, 4),
		handlers: list.New(),
	}
	r.roots[""] = newRoot()
	return r
}

func (r *Router) clone() *Router {
	nr := &Router{
		roots:    r.roots,
		basePath: r.basePath,
		handlers: list.New(),
	}
	nr.handlers.PushBackList(r.handlers)
	return nr
}

func (r *Router) BasePath() string {
	return r.basePath
}

// Group returns a router sharing r's trees whose base path is r.basePath+path
func (r *Router) Group(path string) *Router {
	if path == "/" {
		log.Panic(`Not allowed to create group "/"`)
	}

	nr := r.clone()
	if len(path) > 0 {
		nr.basePath = Normalize(r.basePath + "/" + path)
	}
	return nr
}

// Use returns a router which prepends handlers to every endpoint bound through it.
// Handlers already in use are skipped.
func (r *Router) Use(handlers ...interface{}) *Router {
	nr := r.clone()
	for _, h := range handlers {
		if !nr.ContainsHandler(h) {
			nr.handlers.PushBack(h)
		}
	}
	return nr
}

func (r *Router) ContainsHandler(h interface{}) bool {
	s := fmt.Sprint(h)
	for e := r.handlers.Front(); e != nil; e = e.Next() {
		if s == fmt.Sprint(e.Value) {
			return true
		}
	}
	return false
}

// Bind binds method and path with handlers. Empty method matches any method.
func (r *Router) Bind(method, path string, handlers ...interface{}) *Endpoint {
	if len(handlers) == 0 {
		log.Panic("handlers cannot be empty")
	}

	hl := list.New()
	hl.PushBackList(r.handlers)
	for _, h := range handlers {
		hl.PushBack(h)
	}

	method = strings.ToUpper(method)
	root := r.root(method)
	path = Normalize(r.basePath + "/" + path)
	if path == "" {
		if root.IsEndpoint() {
			log.Panicf("Conflict: %s /", method)
		}
		root.handlers = hl
		return &Endpoint{Method: method, node: root}
	}

	root.add(newChain(path, hl))
	return &Endpoint{
		Method: method,
		node:   root.lookup(strings.Split(path, "/")),
	}
}

func (r *Router) root(method string) *node {
	root := r.roots[method]
	if root == nil {
		root = newRoot()
		r.roots[method] = root
	}
	return root
}

// Match finds the endpoint and unescaped path params for method and path
func (r *Router) Match(method, path string) (*Endpoint, map[string]string) {
	method = strings.ToUpper(method)
	path = Normalize(path)
	segments := []string{""}
	if path != "" {
		segments = append(segments, strings.Split(path, "/")...)
	}

	for _, m := range []string{method, ""} {
		root := r.roots[m]
		if root == nil {
			continue
		}
		params := map[string]string{}
		n := root.match(segments, params)
		if n == nil {
			continue
		}
		for k, v := range params {
			uv, err := url.PathUnescape(v)
			if err != nil {
				logger.Errorf("Unescape path param %s: %v", v, err)
				continue
			}
			params[k] = uv
		}
		return &Endpoint{Method: m, node: n}, params
	}
	return nil, map[string]string{}
}

// Endpoints returns all endpoints sorted by path
func (r *Router) Endpoints() []*Endpoint {
	l := make([]*Endpoint, 0, 10)
	for method, root := range r.roots {
		for _, n := range root.endpoints() {
			l = append(l, &Endpoint{
				Method: method,
				node:   n,
			})
		}
	}
	sort.Slice(l, func(i, j int) bool {
		if l[i].Path() != l[j].Path() {
			return l[i].Path() < l[j].Path()
		}
		return l[i].Method < l[j].Method
	})
	return l
}

// Print logs all endpoints
func (r *Router) Print() {
	for _, e := range r.Endpoints() {
		method := e.Method
		if method == "" {
			method = "ANY"
		}
		logger.Debugf("%-5s /%s\t%s", method, e.Path(), e.HandlerPath())
	}
}
