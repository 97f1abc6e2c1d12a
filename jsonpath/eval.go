package jsonpath

import (
	"errors"
	"fmt"
	"strings"

	"github.com/launchdarkly/message-contract-tests/document"
)

// ErrPathNotFound is matched by errors.Is for any failure to resolve an expression. It is a
// problem with the expression, not a mismatch of the value it points to.
var ErrPathNotFound = errors.New("path not found")

// PathNotFoundError describes where resolution of an expression stopped.
type PathNotFoundError struct {
	Expression string
	// Resolved is the part of the path that did resolve, rendered in bracket notation.
	Resolved string
	// Missing is the first segment that did not resolve.
	Missing string
}

func (e *PathNotFoundError) Error() string {
	return fmt.Sprintf("could not find element for path expression %q: no match for %s under %s",
		e.Expression, e.Missing, e.Resolved)
}

func (e *PathNotFoundError) Is(target error) bool {
	return target == ErrPathNotFound
}

// Evaluate compiles and evaluates an expression. See Expression.Evaluate.
func Evaluate(doc *document.Node, expr string) (interface{}, error) {
	e, err := Compile(expr)
	if err != nil {
		return nil, err
	}
	return e.Evaluate(doc)
}

// Evaluate resolves the expression against a document. It never modifies the document.
//
// Without a trailing function, the result is a *document.Node, or a []*document.Node when a
// wildcard or recursive descent matched more than one node. With a function, the result is
// the function's value: a string for KeySet, ToString and Values, an int for Size, and a bool
// for Exists.
//
// If the path does not resolve, the error matches ErrPathNotFound (except for Exists, which
// returns false instead).
func (e *Expression) Evaluate(doc *document.Node) (interface{}, error) {
	nodes, err := e.resolve(doc)
	if e.function != nil && e.function.tolerant {
		if errors.Is(err, ErrPathNotFound) {
			return e.function.apply(nil, false), nil
		}
	}
	if err != nil {
		return nil, err
	}
	single := len(nodes) == 1
	if e.function != nil {
		return e.function.apply(nodes, single), nil
	}
	if single {
		return nodes[0], nil
	}
	return nodes, nil
}

// Extract evaluates an expression like Evaluate, but when ignoreNotFound is true a path that
// does not resolve yields (nil, false, nil) instead of an error. This is the behavior wanted by
// tooling that reads optional values out of a message, as opposed to validation, which
// requires every expression to resolve.
func Extract(doc *document.Node, expr string, ignoreNotFound bool) (interface{}, bool, error) {
	value, err := Evaluate(doc, expr)
	if err != nil {
		if ignoreNotFound && errors.Is(err, ErrPathNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return value, true, nil
}

func (e *Expression) resolve(doc *document.Node) ([]*document.Node, error) {
	if doc == nil {
		return nil, &PathNotFoundError{Expression: e.raw, Resolved: "$", Missing: "document root"}
	}
	current := []*document.Node{doc}
	var resolved strings.Builder
	resolved.WriteString("$")
	for _, seg := range e.segments {
		var next []*document.Node
		for _, n := range current {
			next = seg.apply(n, next)
		}
		if len(next) == 0 {
			return nil, &PathNotFoundError{Expression: e.raw, Resolved: resolved.String(), Missing: seg.String()}
		}
		resolved.WriteString(seg.String())
		current = next
	}
	return current, nil
}

func (s segment) apply(n *document.Node, out []*document.Node) []*document.Node {
	switch s.kind {
	case segChild:
		if v, ok := n.Field(s.name); ok {
			out = append(out, v)
		}
	case segIndex:
		if v, ok := n.Index(s.index); ok {
			out = append(out, v)
		}
	case segWildcard:
		switch n.Type() {
		case document.Object:
			for _, f := range n.Fields() {
				out = append(out, f.Value)
			}
		case document.Array:
			out = append(out, n.Items()...)
		}
	case segDescend:
		out = descend(n, s.name, out)
	}
	return out
}

// descend collects every field with the given name below n, in document order.
func descend(n *document.Node, name string, out []*document.Node) []*document.Node {
	switch n.Type() {
	case document.Object:
		for _, f := range n.Fields() {
			if f.Name == name {
				out = append(out, f.Value)
			}
			out = descend(f.Value, name, out)
		}
	case document.Array:
		for _, item := range n.Items() {
			out = descend(item, name, out)
		}
	}
	return out
}
