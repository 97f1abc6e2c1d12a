package compare

import (
	"strconv"
	"strings"

	"github.com/launchdarkly/message-contract-tests/document"
)

// Outcome is the result of comparing one element.
type Outcome int

const (
	// OutcomePending means the element has not been compared yet.
	OutcomePending Outcome = iota
	OutcomePassed
	OutcomeFailed
	// OutcomeIgnored is used for extra received elements in lenient mode.
	OutcomeIgnored
)

func (o Outcome) String() string {
	switch o {
	case OutcomePassed:
		return "passed"
	case OutcomeFailed:
		return "failed"
	case OutcomeIgnored:
		return "ignored"
	}
	return "pending"
}

type itemKind int

const (
	itemRoot itemKind = iota
	itemNamed
	itemIndexed
)

// ElementPathItem is a node of the comparison tree. It knows its position (a property name
// or an array index under its parent) and the received and control values found there. The
// parent link is only used to render the item's path.
type ElementPathItem struct {
	parent   *ElementPathItem
	kind     itemKind
	name     string
	index    int
	children []*ElementPathItem

	Received    *document.Node
	Control     *document.Node
	HasReceived bool
	HasControl  bool

	Outcome  Outcome
	Mismatch *Mismatch
}

// NewRoot creates the root item of a comparison tree.
func NewRoot(received, control *document.Node) *ElementPathItem {
	return &ElementPathItem{
		kind:        itemRoot,
		Received:    received,
		Control:     control,
		HasReceived: received != nil,
		HasControl:  control != nil,
	}
}

// Child adds an item addressed by property name.
func (e *ElementPathItem) Child(name string) *ElementPathItem {
	c := &ElementPathItem{parent: e, kind: itemNamed, name: name}
	e.children = append(e.children, c)
	return c
}

// Element adds an item addressed by array index.
func (e *ElementPathItem) Element(index int) *ElementPathItem {
	c := &ElementPathItem{parent: e, kind: itemIndexed, index: index}
	e.children = append(e.children, c)
	return c
}

func (e *ElementPathItem) withReceived(n *document.Node, ok bool) *ElementPathItem {
	e.Received, e.HasReceived = n, ok
	return e
}

func (e *ElementPathItem) withControl(n *document.Node, ok bool) *ElementPathItem {
	e.Control, e.HasControl = n, ok
	return e
}

// Parent returns the parent item, or nil for the root.
func (e *ElementPathItem) Parent() *ElementPathItem { return e.parent }

// Children returns the child items in comparison order.
func (e *ElementPathItem) Children() []*ElementPathItem {
	return append([]*ElementPathItem(nil), e.children...)
}

// IsRoot returns true for the root item.
func (e *ElementPathItem) IsRoot() bool { return e.kind == itemRoot }

// Name returns the display name: "$" for the root, the bare property name, or "[N]".
func (e *ElementPathItem) Name() string {
	switch e.kind {
	case itemNamed:
		return e.name
	case itemIndexed:
		return "[" + strconv.Itoa(e.index) + "]"
	}
	return "$"
}

// JSONPath renders the item's address, for example "$['propertyA'][1]". The root alone
// renders as "$".
func (e *ElementPathItem) JSONPath() string {
	var b strings.Builder
	b.WriteString("$")
	e.writeSuffix(&b)
	return b.String()
}

func (e *ElementPathItem) writeSuffix(b *strings.Builder) {
	if e.parent != nil {
		e.parent.writeSuffix(b)
	}
	switch e.kind {
	case itemNamed:
		b.WriteString("['")
		b.WriteString(e.name)
		b.WriteString("']")
	case itemIndexed:
		b.WriteString("[")
		b.WriteString(strconv.Itoa(e.index))
		b.WriteString("]")
	}
}

// Failures returns the mismatches of this item and its descendants in tree order.
func (e *ElementPathItem) Failures() []*Mismatch {
	var out []*Mismatch
	e.collectFailures(&out)
	return out
}

func (e *ElementPathItem) collectFailures(out *[]*Mismatch) {
	if e.Mismatch != nil {
		*out = append(*out, e.Mismatch)
	}
	for _, c := range e.children {
		c.collectFailures(out)
	}
}

func (e *ElementPathItem) fail(m *Mismatch) {
	e.Outcome = OutcomeFailed
	e.Mismatch = m
}
