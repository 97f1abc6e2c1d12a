// Package jsonpath evaluates path expressions against document trees.
//
// Supported syntax:
//
//	$                  the document root
//	$.name, $['name']  property access
//	$..name            recursive descent: name at any depth
//	$[N], $.list[-1]   array index, negative values count from the end
//	$.*, $[*]          all children of an object or array
//
// An expression may end with one of the functions KeySet(), Size(), ToString(), Values() or
// Exists(), for instance "$.items.Size()". ToString() yields the bare text of a scalar and the
// compact JSON of an object or array.
package jsonpath

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

type segmentKind int

const (
	segChild segmentKind = iota
	segIndex
	segWildcard
	segDescend
)

type segment struct {
	kind  segmentKind
	name  string
	index int
}

func (s segment) String() string {
	switch s.kind {
	case segChild:
		return "['" + s.name + "']"
	case segIndex:
		return "[" + strconv.Itoa(s.index) + "]"
	case segWildcard:
		return "[*]"
	}
	return "..['" + s.name + "']"
}

// Expression is a compiled path expression. It is safe for concurrent use.
type Expression struct {
	raw      string
	segments []segment
	function *function
}

// SyntaxError is returned for an expression that cannot be parsed.
type SyntaxError struct {
	Expression string
	Offset     int
	Message    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("invalid path expression %q at offset %d: %s", e.Expression, e.Offset, e.Message)
}

var functionSuffix = regexp.MustCompile(`\.([A-Za-z][A-Za-z0-9]*)\(\s*\)\s*$`)

// Compile parses an expression. A leading "$" may be omitted.
func Compile(expr string) (*Expression, error) {
	raw := expr
	e := &Expression{raw: raw}
	path := strings.TrimSpace(expr)

	if loc := functionSuffix.FindStringSubmatchIndex(path); loc != nil {
		name := path[loc[2]:loc[3]]
		fn := lookupFunction(name)
		if fn == nil {
			return nil, &SyntaxError{Expression: raw, Offset: loc[2], Message: fmt.Sprintf("unknown function %s()", name)}
		}
		e.function = fn
		path = path[:loc[0]]
	}

	switch {
	case path == "":
		path = "$"
	case strings.HasPrefix(path, "$"):
	case strings.HasPrefix(path, "["):
		path = "$" + path
	default:
		path = "$." + path
	}

	segments, err := parseSegments(raw, path)
	if err != nil {
		return nil, err
	}
	e.segments = segments
	return e, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(expr string) *Expression {
	e, err := Compile(expr)
	if err != nil {
		panic(err)
	}
	return e
}

func (e *Expression) String() string {
	return e.raw
}

func parseSegments(raw, path string) ([]segment, error) {
	var segments []segment
	pos := 1 // skip "$"
	fail := func(msg string) error {
		return &SyntaxError{Expression: raw, Offset: pos, Message: msg}
	}
	for pos < len(path) {
		switch path[pos] {
		case '.':
			pos++
			descend := false
			if pos < len(path) && path[pos] == '.' {
				descend = true
				pos++
			}
			if pos < len(path) && path[pos] == '[' && descend {
				seg, next, err := parseBracket(path, pos)
				if err != nil {
					return nil, fail(err.Error())
				}
				if seg.kind != segChild {
					return nil, fail("recursive descent requires a property name")
				}
				seg.kind = segDescend
				segments = append(segments, seg)
				pos = next
				continue
			}
			if pos < len(path) && path[pos] == '*' && !descend {
				segments = append(segments, segment{kind: segWildcard})
				pos++
				continue
			}
			start := pos
			for pos < len(path) && path[pos] != '.' && path[pos] != '[' {
				pos++
			}
			name := strings.TrimSpace(path[start:pos])
			if name == "" {
				return nil, fail("missing property name")
			}
			if descend {
				segments = append(segments, segment{kind: segDescend, name: name})
			} else {
				segments = append(segments, segment{kind: segChild, name: name})
			}
		case '[':
			seg, next, err := parseBracket(path, pos)
			if err != nil {
				return nil, fail(err.Error())
			}
			segments = append(segments, seg)
			pos = next
		default:
			return nil, fail(fmt.Sprintf("unexpected character %q", path[pos]))
		}
	}
	return segments, nil
}

// parseBracket parses "['name']", "[N]" or "[*]" starting at the opening bracket and returns
// the offset just after the closing bracket.
func parseBracket(path string, pos int) (segment, int, error) {
	pos++
	if pos >= len(path) {
		return segment{}, pos, fmt.Errorf("unterminated bracket")
	}
	switch quote := path[pos]; quote {
	case '\'', '"':
		pos++
		var name strings.Builder
		for pos < len(path) && path[pos] != quote {
			if path[pos] == '\\' && pos+1 < len(path) {
				pos++
			}
			name.WriteByte(path[pos])
			pos++
		}
		if pos+1 >= len(path) || path[pos+1] != ']' {
			return segment{}, pos, fmt.Errorf("unterminated quoted property name")
		}
		return segment{kind: segChild, name: name.String()}, pos + 2, nil
	case '*':
		if pos+1 >= len(path) || path[pos+1] != ']' {
			return segment{}, pos, fmt.Errorf("expected ] after *")
		}
		return segment{kind: segWildcard}, pos + 2, nil
	}
	end := strings.IndexByte(path[pos:], ']')
	if end < 0 {
		return segment{}, pos, fmt.Errorf("unterminated bracket")
	}
	text := strings.TrimSpace(path[pos : pos+end])
	index, err := strconv.Atoi(text)
	if err != nil {
		return segment{}, pos, fmt.Errorf("invalid array index %q", text)
	}
	return segment{kind: segIndex, index: index}, pos + end + 1, nil
}
