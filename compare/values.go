// Package compare holds the comparison rules shared by path-based and structural validation:
// how a single actual value is checked against an expected value, and how two document trees
// are walked side by side.
package compare

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"reflect"
	"strconv"
	"strings"

	"github.com/launchdarkly/message-contract-tests/document"
	"github.com/launchdarkly/message-contract-tests/matcher"

	m "github.com/launchdarkly/go-test-helpers/v2/matchers"
)

// MismatchKind says what kind of difference a Mismatch describes.
type MismatchKind int

const (
	MismatchValue MismatchKind = iota
	MismatchMissing
	MismatchUnexpected
	MismatchType
	MismatchMatcher
)

// Mismatch is a content difference at a specific path.
type Mismatch struct {
	Kind     MismatchKind
	Path     string
	Expected interface{}
	Actual   interface{}
	Reason   string
}

func (e *Mismatch) Error() string {
	switch e.Kind {
	case MismatchMissing:
		return fmt.Sprintf("element %s is missing, expected '%s'", e.Path, Text(e.Expected))
	case MismatchUnexpected:
		return fmt.Sprintf("unexpected element %s with value '%s'", e.Path, Text(e.Actual))
	case MismatchType:
		return fmt.Sprintf("type mismatch for element %s: %s", e.Path, e.Reason)
	case MismatchMatcher:
		return fmt.Sprintf("element %s with value '%s' failed expectation: %s", e.Path, Text(e.Actual), e.Reason)
	}
	msg := fmt.Sprintf("values not equal for element %s, expected '%s' but was '%s'",
		e.Path, Text(e.Expected), Text(e.Actual))
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// Options configures value comparison.
type Options struct {
	// Matchers is the library used for "@Name(args)@" expected values. If nil, the built-in
	// library is used.
	Matchers *matcher.Library
	// Scope gives matcher functions access to test variables. It may be nil.
	Scope matcher.Scope
}

var defaultMatchers = matcher.DefaultLibrary()

func (o Options) matchers() *matcher.Library {
	if o.Matchers != nil {
		return o.Matchers
	}
	return defaultMatchers
}

// Values checks an actual value against an expected value. Rules, in priority order:
//
// 1. A string that is a pattern-matcher directive is applied to the actual value's text.
//
// 2. A matchers.Matcher is tested against the actual value. A slice of matchers must be
// satisfied by the actual collection's items in any order. Any other slice or array must
// contain the same elements as the actual collection, in any order.
//
// 3. Otherwise both sides are compared as canonical text, except that a numeric actual value
// is compared numerically with an expected value that parses as a number.
//
// A content difference is returned as a *Mismatch. Any other error is a configuration problem,
// such as an unknown matcher function.
func Values(path string, actual, expected interface{}, opts Options) error {
	if s, ok := expected.(string); ok && matcher.IsDirective(s) {
		err := opts.matchers().Apply(s, Text(actual), opts.Scope)
		if matcher.IsRejection(err) {
			var me *matcher.MatchError
			errors.As(err, &me)
			return &Mismatch{Path: path, Expected: expected, Actual: actual, Reason: me.Err.Error()}
		}
		if err != nil {
			return fmt.Errorf("element %s: %w", path, err)
		}
		return nil
	}

	switch e := expected.(type) {
	case m.Matcher:
		if ok, desc := e.Test(Plain(actual)); !ok {
			return matcherMismatch(path, actual, e, desc)
		}
		return nil
	case []m.Matcher:
		items := m.ItemsInAnyOrder(e...)
		if ok, desc := items.Test(plainItems(actual)); !ok {
			return matcherMismatch(path, actual, items, desc)
		}
		return nil
	}

	if expectedItems, ok := collection(expected); ok {
		return collectionsEqual(path, actual, expected, expectedItems, opts)
	}

	if literalEqual(actual, expected) {
		return nil
	}
	return &Mismatch{Path: path, Expected: expected, Actual: actual}
}

// matcherMismatch keeps the failure text of a matcher without the "full value was" trailer,
// since the mismatch already carries the actual value.
func matcherMismatch(path string, actual interface{}, expected m.Matcher, desc string) *Mismatch {
	reason, _, _ := strings.Cut(desc, "\nfull value was:")
	return &Mismatch{Kind: MismatchMatcher, Path: path, Expected: expected, Actual: actual, Reason: reason}
}

func literalEqual(actual, expected interface{}) bool {
	if expected == nil {
		return Text(actual) == ""
	}
	if IsNumeric(actual) {
		if a, ok := parseNumber(Text(actual)); ok {
			if e, ok := parseNumber(Text(expected)); ok {
				return a.Cmp(e) == 0
			}
		}
	}
	return Text(actual) == Text(expected)
}

func collectionsEqual(path string, actual, expected interface{}, expectedItems []interface{}, opts Options) error {
	actualItems, ok := collection(actual)
	if !ok {
		actualItems = []interface{}{actual}
	}
	if len(actualItems) != len(expectedItems) {
		return &Mismatch{Path: path, Expected: expected, Actual: actual,
			Reason: fmt.Sprintf("expected %d elements but found %d", len(expectedItems), len(actualItems))}
	}
	used := make([]bool, len(actualItems))
	for _, e := range expectedItems {
		found := false
		for i, a := range actualItems {
			if used[i] {
				continue
			}
			err := Values(path, a, e, opts)
			var mm *Mismatch
			if err != nil && !errors.As(err, &mm) {
				return err
			}
			if err == nil {
				used[i] = true
				found = true
				break
			}
		}
		if !found {
			return &Mismatch{Path: path, Expected: expected, Actual: actual,
				Reason: fmt.Sprintf("no element matching '%s'", Text(e))}
		}
	}
	return nil
}

// collection returns the items of an array node, a node list, or a Go slice or array.
func collection(v interface{}) ([]interface{}, bool) {
	switch c := v.(type) {
	case nil, string, []byte:
		return nil, false
	case *document.Node:
		if c.Type() != document.Array {
			return nil, false
		}
		items := c.Items()
		ret := make([]interface{}, len(items))
		for i, item := range items {
			ret[i] = item
		}
		return ret, true
	case []*document.Node:
		ret := make([]interface{}, len(c))
		for i, item := range c {
			ret[i] = item
		}
		return ret, true
	case []interface{}:
		return c, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	ret := make([]interface{}, rv.Len())
	for i := range ret {
		ret[i] = rv.Index(i).Interface()
	}
	return ret, true
}

// Text returns the canonical text form of a value: the text of a document node, list items
// as "[a, b]", and the usual formatting of Go scalars. nil renders as an empty string.
func Text(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case *document.Node:
		return t.Text()
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case []byte:
		return string(t)
	case fmt.Stringer:
		return t.String()
	}
	if items, ok := collection(v); ok {
		texts := make([]string, len(items))
		for i, item := range items {
			texts[i] = Text(item)
		}
		return "[" + strings.Join(texts, ", ") + "]"
	}
	return fmt.Sprint(v)
}

// IsNumeric returns true for number nodes and Go numeric values.
func IsNumeric(v interface{}) bool {
	switch t := v.(type) {
	case *document.Node:
		return t.Type() == document.Number
	case json.Number, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	}
	return false
}

func parseNumber(s string) (*big.Rat, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}
	return new(big.Rat).SetString(s)
}

// Plain converts document nodes to plain Go values for use with matchers. Integral numbers
// become int, other numbers float64.
func Plain(v interface{}) interface{} {
	switch t := v.(type) {
	case *document.Node:
		switch t.Type() {
		case document.Number:
			if i, err := strconv.Atoi(t.Text()); err == nil {
				return i
			}
			f, _ := strconv.ParseFloat(t.Text(), 64)
			return f
		case document.Array:
			return plainItems(t)
		case document.Object:
			ret := make(map[string]interface{}, t.Len())
			for _, f := range t.Fields() {
				ret[f.Name] = Plain(f.Value)
			}
			return ret
		}
		return t.Interface()
	case []*document.Node:
		return plainItems(t)
	}
	return v
}

func plainItems(v interface{}) []interface{} {
	items, ok := collection(v)
	if !ok {
		return []interface{}{Plain(v)}
	}
	ret := make([]interface{}, len(items))
	for i, item := range items {
		ret[i] = Plain(item)
	}
	return ret
}
