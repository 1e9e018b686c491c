package router

import (
	"net/url"
	"strings"

	"github.com/muurk/nanohttp"
)

// variable is an edge to a child that matches any segment (or run of
// segments), optionally binding it to a name
type variable struct {
	name string
	next *segment
}

// segment is one trie node
type segment struct {
	handler       nanohttp.Handler
	literals      map[string]*segment
	variables     []variable
	pathVariables []variable
}

func newSegment() *segment {
	return &segment{literals: make(map[string]*segment)}
}

// classify returns the kind of a pattern component and its bound name
func classify(component string) (kind int, name string) {
	switch {
	case component == "**":
		return kindPathVariable, ""
	case len(component) > 2 && strings.HasPrefix(component, "::"):
		return kindPathVariable, component[2:]
	case component == "*":
		return kindVariable, ""
	case len(component) > 1 && strings.HasPrefix(component, ":"):
		return kindVariable, component[1:]
	default:
		return kindLiteral, component
	}
}

const (
	kindLiteral = iota
	kindVariable
	kindPathVariable
)

func findVariable(list []variable, name string) *segment {
	for _, v := range list {
		if v.name == name {
			return v.next
		}
	}
	return nil
}

// descend returns the node at the end of a pattern, creating it if needed
func (s *segment) descend(pattern []string) *segment {
	node := s
	for _, component := range pattern {
		kind, name := classify(component)
		var next *segment
		switch kind {
		case kindLiteral:
			next = node.literals[name]
			if next == nil {
				next = newSegment()
				node.literals[name] = next
			}
		case kindVariable:
			next = findVariable(node.variables, name)
			if next == nil {
				next = newSegment()
				node.variables = append(node.variables, variable{name: name, next: next})
			}
		case kindPathVariable:
			next = findVariable(node.pathVariables, name)
			if next == nil {
				next = newSegment()
				node.pathVariables = append(node.pathVariables, variable{name: name, next: next})
			}
		}
		node = next
	}
	return node
}

// copy returns a deep copy of the subtree
func (s *segment) copy() *segment {
	c := newSegment()
	c.handler = s.handler
	for key, child := range s.literals {
		c.literals[key] = child.copy()
	}
	for _, v := range s.variables {
		c.variables = append(c.variables, variable{name: v.name, next: v.next.copy()})
	}
	for _, v := range s.pathVariables {
		c.pathVariables = append(c.pathVariables, variable{name: v.name, next: v.next.copy()})
	}
	return c
}

// merge unions other into s. Handlers from other win on conflict.
func (s *segment) merge(other *segment) {
	if other.handler != nil {
		s.handler = other.handler
	}
	for key, child := range other.literals {
		if existing, ok := s.literals[key]; ok {
			existing.merge(child)
		} else {
			s.literals[key] = child.copy()
		}
	}
	s.variables = mergeVariables(s.variables, other.variables)
	s.pathVariables = mergeVariables(s.pathVariables, other.pathVariables)
}

func mergeVariables(into, from []variable) []variable {
	for _, v := range from {
		if existing := findVariable(into, v.name); existing != nil {
			existing.merge(v.next)
		} else {
			into = append(into, variable{name: v.name, next: v.next.copy()})
		}
	}
	return into
}

// patterns lists every path below s that has a handler
func (s *segment) patterns(prefix string, out []string) []string {
	if s.handler != nil {
		if prefix == "" {
			out = append(out, "/")
		} else {
			out = append(out, prefix)
		}
	}
	for key, child := range s.literals {
		out = child.patterns(prefix+"/"+key, out)
	}
	for _, v := range s.variables {
		label := "*"
		if v.name != "" {
			label = ":" + v.name
		}
		out = v.next.patterns(prefix+"/"+label, out)
	}
	for _, v := range s.pathVariables {
		label := "**"
		if v.name != "" {
			label = "::" + v.name
		}
		out = v.next.patterns(prefix+"/"+label, out)
	}
	return out
}

// binding is one captured variable. Bindings form a list from the match
// position back to the root so alternatives can share their prefix.
type binding struct {
	name   string
	value  string
	parent *binding
}

func bind(parent *binding, name, value string) *binding {
	if name == "" {
		return parent
	}
	return &binding{name: name, value: value, parent: parent}
}

// collect turns a binding list into a map. Bindings closer to the root win
// when a name occurs twice.
func (b *binding) collect() map[string]string {
	params := make(map[string]string)
	for ; b != nil; b = b.parent {
		params[b.name] = b.value
	}
	return params
}

// candidate is a pending alternative of the depth-first search
type candidate struct {
	node  *segment
	index int
	binds *binding
}

// match finds the first handler for path. Alternatives are explored depth
// first in the order literal, variable, path variable, using an explicit
// stack instead of recursion.
func (s *segment) match(path []string) (map[string]string, nanohttp.Handler, bool) {
	stack := []candidate{{node: s}}
	for len(stack) > 0 {
		c := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		node := c.node

		if c.index >= len(path) {
			if node.handler != nil {
				return c.binds.collect(), node.handler, true
			}
			for _, v := range node.variables {
				if v.next.handler != nil {
					return bind(c.binds, v.name, "").collect(), v.next.handler, true
				}
			}
			for _, v := range node.pathVariables {
				if v.next.handler != nil {
					return bind(c.binds, v.name, "").collect(), v.next.handler, true
				}
			}
			continue
		}

		component, err := url.PathUnescape(path[c.index])
		if err != nil {
			continue
		}

		// Pushed in reverse so the stack pops them in precedence order
		for i := len(node.pathVariables) - 1; i >= 0; i-- {
			v := node.pathVariables[i]
			for end := len(path); end >= c.index; end-- {
				value := strings.Join(path[c.index:end], "/")
				stack = append(stack, candidate{node: v.next, index: end, binds: bind(c.binds, v.name, value)})
			}
		}
		for i := len(node.variables) - 1; i >= 0; i-- {
			v := node.variables[i]
			stack = append(stack, candidate{node: v.next, index: c.index + 1, binds: bind(c.binds, v.name, component)})
		}
		if next, ok := node.literals[component]; ok {
			stack = append(stack, candidate{node: next, index: c.index + 1, binds: c.binds})
		}
	}
	return nil, nil, false
}
