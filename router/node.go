package router

import (
	"container/list"
	"fmt"
	"reflect"
	"runtime"
	"strings"

	"github.com/gopub/log"
)

type nodeType int

const (
	staticNode   nodeType = iota // /fibonacci
	paramNode                    // /fibonacci/{n}
	wildcardNode                 // /static/*file
)

func (n nodeType) String() string {
	switch n {
	case staticNode:
		return "staticNode"
	case paramNode:
		return "paramNode"
	case wildcardNode:
		return "wildcardNode"
	default:
		return ""
	}
}

func getNodeType(segment string) nodeType {
	switch {
	case IsStatic(segment):
		return staticNode
	case IsParam(segment):
		return paramNode
	case IsWildcard(segment):
		return wildcardNode
	default:
		log.Panicf("Invalid segment: %s", segment)
		// Unreachable, log.Panicf panics
		return wildcardNode
	}
}

type node struct {
	typ       nodeType
	path      string // E.g. fibonacci/{n}
	segment   string // E.g. fibonacci or {n}
	paramName string // E.g. n
	handlers  *list.List
	children  []*node

	description string
}

func newRoot() *node {
	return &node{typ: staticNode}
}

func newNode(path, segment string) *node {
	n := &node{
		typ:     getNodeType(segment),
		path:    path,
		segment: segment,
	}
	switch n.typ {
	case paramNode:
		n.paramName = segment[1 : len(segment)-1]
	case wildcardNode:
		n.paramName = segment[1:]
	}
	return n
}

// newChain creates one node per segment of path and attaches handlers to the last one
func newChain(path string, handlers *list.List) *node {
	segments := strings.Split(path, "/")
	var head, p *node
	for i, s := range segments {
		n := newNode(strings.Join(segments[:i+1], "/"), s)
		if p != nil {
			p.children = []*node{n}
		} else {
			head = n
		}
		p = n
	}
	p.handlers = handlers
	return head
}

func (n *node) IsEndpoint() bool {
	return n.handlers != nil && n.handlers.Len() > 0
}

func (n *node) endpoints() []*node {
	var l []*node
	if n.IsEndpoint() {
		l = append(l, n)
	}
	for _, child := range n.children {
		l = append(l, child.endpoints()...)
	}
	return l
}

// add merges chain c into n's children.
// Static children are kept ahead of the param child, the wildcard child is always last.
func (n *node) add(c *node) {
	for _, child := range n.children {
		if child.typ != c.typ {
			continue
		}
		switch child.typ {
		case paramNode:
			if child.paramName != c.paramName {
				log.Panicf("Conflict: %s, %s", child.path, c.path)
			}
		case wildcardNode:
			log.Panicf("Conflict: %s, %s", child.path, c.path)
		default:
			if child.segment != c.segment {
				continue
			}
		}

		if c.IsEndpoint() {
			if child.IsEndpoint() {
				log.Panicf("Conflict: %s", c.path)
			}
			child.handlers = c.handlers
		}
		for _, gc := range c.children {
			child.add(gc)
		}
		return
	}

	switch c.typ {
	case staticNode:
		n.children = append([]*node{c}, n.children...)
	case paramNode:
		i := len(n.children)
		if i > 0 && n.children[i-1].typ == wildcardNode {
			i--
		}
		n.children = append(n.children, nil)
		copy(n.children[i+1:], n.children[i:])
		n.children[i] = c
	case wildcardNode:
		if len(c.children) > 0 {
			log.Panicf("Wildcard must be the last segment: %s", c.path)
		}
		n.children = append(n.children, c)
	}
}

// lookup walks the exact segments, without matching params
func (n *node) lookup(segments []string) *node {
	if len(segments) == 0 {
		return n
	}
	for _, child := range n.children {
		if child.segment == segments[0] {
			return child.lookup(segments[1:])
		}
	}
	return nil
}

// match is called once n has consumed segments[0]
func (n *node) match(segments []string, params map[string]string) *node {
	if len(segments) == 1 {
		if n.IsEndpoint() {
			return n
		}
		for _, child := range n.children {
			if child.typ == wildcardNode && child.IsEndpoint() {
				if child.paramName != "" {
					params[child.paramName] = ""
				}
				return child
			}
		}
		return nil
	}

	next := segments[1:]
	for _, child := range n.children {
		switch child.typ {
		case staticNode:
			if child.segment != next[0] {
				continue
			}
		case paramNode:
			if next[0] == "" {
				continue
			}
		case wildcardNode:
			if !child.IsEndpoint() {
				continue
			}
			if child.paramName != "" {
				params[child.paramName] = strings.Join(next, "/")
			}
			return child
		}

		if m := child.match(next, params); m != nil {
			if child.typ == paramNode {
				params[child.paramName] = next[0]
			}
			return m
		}
	}
	return nil
}

func (n *node) handlerPath() string {
	s := new(strings.Builder)
	for e := n.handlers.Front(); e != nil; e = e.Next() {
		if s.Len() > 0 {
			s.WriteString(", ")
		}
		s.WriteString(handlerName(e.Value))
	}
	return s.String()
}

func handlerName(h interface{}) string {
	if s, ok := h.(fmt.Stringer); ok {
		return s.String()
	}
	v := reflect.ValueOf(h)
	if v.Kind() == reflect.Func {
		if f := runtime.FuncForPC(v.Pointer()); f != nil {
			name := strings.TrimSuffix(f.Name(), "-fm")
			return name[strings.LastIndex(name, "/")+1:]
		}
	}
	return reflect.TypeOf(h).String()
}
