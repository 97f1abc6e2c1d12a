package jsonpath

import (
	"strings"

	"github.com/launchdarkly/message-contract-tests/document"
)

type function struct {
	name string
	// tolerant functions are applied even when the path does not resolve
	tolerant bool
	apply    func(nodes []*document.Node, single bool) interface{}
}

var functions = []*function{
	{name: "KeySet", apply: keySet},
	{name: "Size", apply: size},
	{name: "ToString", apply: toString},
	{name: "Values", apply: values},
	{name: "Exists", tolerant: true, apply: func(nodes []*document.Node, _ bool) interface{} {
		return len(nodes) > 0
	}},
}

func lookupFunction(name string) *function {
	for _, f := range functions {
		if strings.EqualFold(f.name, name) {
			return f
		}
	}
	return nil
}

const listSeparator = ", "

func keySet(nodes []*document.Node, _ bool) interface{} {
	var keys []string
	for _, n := range nodes {
		keys = append(keys, n.Keys()...)
	}
	return strings.Join(keys, listSeparator)
}

func size(nodes []*document.Node, single bool) interface{} {
	if !single {
		return len(nodes)
	}
	if n := nodes[0]; n.IsContainer() {
		return n.Len()
	}
	return 1
}

func toString(nodes []*document.Node, single bool) interface{} {
	if single {
		return nodes[0].Text()
	}
	return document.NewArray(nodes...).String()
}

func values(nodes []*document.Node, _ bool) interface{} {
	var out []string
	for _, n := range nodes {
		out = flatten(n, out)
	}
	return strings.Join(out, listSeparator)
}

func flatten(n *document.Node, out []string) []string {
	switch n.Type() {
	case document.Object:
		for _, f := range n.Fields() {
			out = flatten(f.Value, out)
		}
	case document.Array:
		for _, item := range n.Items() {
			out = flatten(item, out)
		}
	default:
		out = append(out, n.Text())
	}
	return out
}
