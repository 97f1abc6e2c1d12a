// Package document provides the ordered, read-only document tree that path expressions and
// structural comparison operate on.
//
// Object fields keep the order in which they appeared in the source document, and numbers keep
// their original literal text, so that rendering a sub-document or listing its keys is
// deterministic and faithful to what was received.
package document

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Type is the type of a Node.
type Type int

const (
	Null Type = iota
	Bool
	Number
	String
	Object
	Array
)

func (t Type) String() string {
	switch t {
	case Null:
		return "null"
	case Bool:
		return "boolean"
	case Number:
		return "number"
	case String:
		return "string"
	case Object:
		return "object"
	case Array:
		return "array"
	}
	return "unknown"
}

// Field is a named member of an object node.
type Field struct {
	Name  string
	Value *Node
}

// Node is a single value within a document. Nodes are immutable once constructed.
type Node struct {
	typ    Type
	text   string // string value, number literal, or "true"/"false"
	fields []Field
	items  []*Node
}

var nullNode = &Node{typ: Null}

// NewNull returns a null node.
func NewNull() *Node { return nullNode }

// NewBool returns a boolean node.
func NewBool(value bool) *Node {
	if value {
		return &Node{typ: Bool, text: "true"}
	}
	return &Node{typ: Bool, text: "false"}
}

// NewNumber returns a number node with the given literal text, which is not validated.
func NewNumber(literal string) *Node { return &Node{typ: Number, text: literal} }

// NewString returns a string node.
func NewString(value string) *Node { return &Node{typ: String, text: value} }

// NewObject returns an object node with the given fields in order.
func NewObject(fields ...Field) *Node {
	return &Node{typ: Object, fields: append([]Field(nil), fields...)}
}

// NewArray returns an array node.
func NewArray(items ...*Node) *Node {
	return &Node{typ: Array, items: append([]*Node(nil), items...)}
}

// Type returns the node type. A nil node is treated as null.
func (n *Node) Type() Type {
	if n == nil {
		return Null
	}
	return n.typ
}

// IsContainer returns true for objects and arrays.
func (n *Node) IsContainer() bool {
	t := n.Type()
	return t == Object || t == Array
}

// IsNull returns true for a nil node or a null node.
func (n *Node) IsNull() bool {
	return n.Type() == Null
}

// Field returns the value of an object field. If the object has duplicate keys, the last one wins.
func (n *Node) Field(name string) (*Node, bool) {
	if n.Type() != Object {
		return nil, false
	}
	for i := len(n.fields) - 1; i >= 0; i-- {
		if n.fields[i].Name == name {
			return n.fields[i].Value, true
		}
	}
	return nil, false
}

// Fields returns the object's fields in document order.
func (n *Node) Fields() []Field {
	if n.Type() != Object {
		return nil
	}
	return append([]Field(nil), n.fields...)
}

// Keys returns the object's field names in document order.
func (n *Node) Keys() []string {
	if n.Type() != Object {
		return nil
	}
	ret := make([]string, 0, len(n.fields))
	for _, f := range n.fields {
		ret = append(ret, f.Name)
	}
	return ret
}

// Items returns the array's elements.
func (n *Node) Items() []*Node {
	if n.Type() != Array {
		return nil
	}
	return append([]*Node(nil), n.items...)
}

// Index returns an array element. Negative indices count from the end.
func (n *Node) Index(i int) (*Node, bool) {
	if n.Type() != Array {
		return nil, false
	}
	if i < 0 {
		i += len(n.items)
	}
	if i < 0 || i >= len(n.items) {
		return nil, false
	}
	return n.items[i], true
}

// Len returns the number of fields of an object or elements of an array, and 0 otherwise.
func (n *Node) Len() int {
	switch n.Type() {
	case Object:
		return len(n.fields)
	case Array:
		return len(n.items)
	}
	return 0
}

// Text returns the canonical text of the node: the unquoted value of a string, the literal of
// a number or boolean, an empty string for null, and the compact serialization of a container.
func (n *Node) Text() string {
	switch n.Type() {
	case Null:
		return ""
	case Bool, Number, String:
		return n.text
	}
	return n.String()
}

// String returns the compact JSON serialization of the node.
func (n *Node) String() string {
	var buf bytes.Buffer
	n.write(&buf)
	return buf.String()
}

// Interface converts the node to plain Go values: nil, bool, json.Number, string,
// []interface{} or map[string]interface{}.
func (n *Node) Interface() interface{} {
	switch n.Type() {
	case Bool:
		return n.text == "true"
	case Number:
		return json.Number(n.text)
	case String:
		return n.text
	case Object:
		m := make(map[string]interface{}, len(n.fields))
		for _, f := range n.fields {
			m[f.Name] = f.Value.Interface()
		}
		return m
	case Array:
		ret := make([]interface{}, 0, len(n.items))
		for _, item := range n.items {
			ret = append(ret, item.Interface())
		}
		return ret
	}
	return nil
}

func (n *Node) write(buf *bytes.Buffer) {
	switch n.Type() {
	case Null:
		buf.WriteString("null")
	case Bool, Number:
		buf.WriteString(n.text)
	case String:
		writeQuoted(buf, n.text)
	case Object:
		buf.WriteByte('{')
		for i, f := range n.fields {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeQuoted(buf, f.Name)
			buf.WriteByte(':')
			f.Value.write(buf)
		}
		buf.WriteByte('}')
	case Array:
		buf.WriteByte('[')
		for i, item := range n.items {
			if i > 0 {
				buf.WriteByte(',')
			}
			item.write(buf)
		}
		buf.WriteByte(']')
	}
}

func writeQuoted(buf *bytes.Buffer, s string) {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	buf.WriteString(strings.TrimSuffix(tmp.String(), "\n"))
}
