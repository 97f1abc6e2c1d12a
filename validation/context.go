package validation

import (
	"sync/atomic"
)

// Status is the result recorded on a validation context by the validator that selected it.
type Status int32

const (
	StatusUnknown Status = iota
	StatusPassed
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusPassed:
		return "PASSED"
	case StatusFailed:
		return "FAILED"
	}
	return "UNKNOWN"
}

// ContextKind identifies which validator a context configures.
type ContextKind string

const (
	KindPath    ContextKind = "json-path"
	KindJSON    ContextKind = "json"
	KindXML     ContextKind = "xml"
	KindHeader  ContextKind = "header"
	KindText    ContextKind = "text"
	KindSchema  ContextKind = "schema"
	KindDefault ContextKind = "default"
)

// Context is the configuration of one validator for one test assertion. Custom context types
// embed StatusTracker.
type Context interface {
	Kind() ContextKind
	Status() Status
	tracker() *StatusTracker
}

// StatusTracker holds a context's status. The status changes at most once, from StatusUnknown
// to StatusPassed or StatusFailed.
type StatusTracker struct {
	value atomic.Int32
}

func (t *StatusTracker) Status() Status {
	return Status(t.value.Load())
}

func (t *StatusTracker) tracker() *StatusTracker { return t }

func (t *StatusTracker) settle(s Status) bool {
	return t.value.CompareAndSwap(int32(StatusUnknown), int32(s))
}

// PathBinding pairs a path expression with its expected value. The expected value is a
// literal, a collection, a matchers.Matcher, or a "@Function(args)@" directive string.
type PathBinding struct {
	expression string
	expected   interface{}
}

func NewPathBinding(expression string, expected interface{}) PathBinding {
	return PathBinding{expression: expression, expected: expected}
}

func (b PathBinding) Expression() string    { return b.expression }
func (b PathBinding) Expected() interface{} { return b.expected }

// PathContext configures the path validator. Expressions are checked in order.
type PathContext struct {
	StatusTracker
	Expressions []PathBinding
}

func (c *PathContext) Kind() ContextKind { return KindPath }

// StructureContext configures structural comparison of a JSON or XML payload.
type StructureContext struct {
	StatusTracker
	Strict bool
	format ContextKind
}

// NewJSONContext returns a context for structural JSON comparison.
func NewJSONContext(strict bool) *StructureContext {
	return &StructureContext{Strict: strict, format: KindJSON}
}

// NewXMLContext returns a context for structural XML comparison.
func NewXMLContext(strict bool) *StructureContext {
	return &StructureContext{Strict: strict, format: KindXML}
}

func (c *StructureContext) Kind() ContextKind {
	if c.format == "" {
		return KindJSON
	}
	return c.format
}

// HeaderBinding is an expected header value. Expected follows the same rules as
// PathBinding's expected value.
type HeaderBinding struct {
	Name     string
	Expected interface{}
}

// HeaderContext configures header validation. Expected headers declared here are checked in
// addition to those of the control message, and take precedence over them.
type HeaderContext struct {
	StatusTracker
	Headers []HeaderBinding
	// CaseSensitive disables the case-insensitive fallback when looking up header names.
	CaseSensitive bool
}

func (c *HeaderContext) Kind() ContextKind { return KindHeader }

// TextContext configures plain text comparison.
type TextContext struct {
	StatusTracker
	IgnoreWhitespace  bool
	IgnoreNewLineType bool
}

func (c *TextContext) Kind() ContextKind { return KindText }

// SchemaContext names the registered schemas a payload must conform to.
type SchemaContext struct {
	StatusTracker
	Schemas []string
}

func (c *SchemaContext) Kind() ContextKind { return KindSchema }

// DefaultContext is used by the fallback validators.
type DefaultContext struct {
	StatusTracker
}

func (c *DefaultContext) Kind() ContextKind { return KindDefault }
