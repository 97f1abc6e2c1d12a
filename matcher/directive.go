// Package matcher implements pattern-matcher directives: expected values of the form
// "@FunctionName(arg1, arg2)@" that name a registered comparison function instead of a
// literal value.
package matcher

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var directivePattern = regexp.MustCompile(`(?s)^@([A-Za-z][A-Za-z0-9_]*)(?:\((.*)\))?@$`)

var variablePattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// ErrInvalidArguments is matched by errors.Is when a directive has the wrong arguments for its
// function. Like an unknown function name, this is a configuration problem.
var ErrInvalidArguments = errors.New("invalid matcher arguments")

// Directive is a parsed pattern-matcher directive.
type Directive struct {
	Raw  string
	Name string
	Args []string
}

// IsDirective returns true if the whole string is a directive.
func IsDirective(s string) bool {
	return directivePattern.MatchString(strings.TrimSpace(s))
}

// ParseDirective parses a directive string. Arguments are separated by commas outside of
// quotes, and single or double quotes around an argument are removed.
func ParseDirective(s string) (Directive, error) {
	m := directivePattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Directive{}, fmt.Errorf("%q is not a matcher directive", s)
	}
	d := Directive{Raw: s, Name: m[1]}
	if strings.TrimSpace(m[2]) != "" {
		args, err := splitArgs(m[2])
		if err != nil {
			return Directive{}, fmt.Errorf("matcher directive %q: %w", s, err)
		}
		d.Args = args
	}
	return d, nil
}

func (d Directive) String() string {
	return d.Raw
}

func splitArgs(s string) ([]string, error) {
	var args []string
	var cur strings.Builder
	var quote byte
	quoted := false
	flush := func() {
		arg := cur.String()
		if !quoted {
			arg = strings.TrimSpace(arg)
		}
		args = append(args, arg)
		cur.Reset()
		quoted = false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == '\\' && i+1 < len(s) && s[i+1] == quote {
				i++
				cur.WriteByte(quote)
			} else if c == quote {
				quote = 0
			} else {
				cur.WriteByte(c)
			}
		case c == '\'' || c == '"':
			if strings.TrimSpace(cur.String()) == "" {
				cur.Reset()
				quote = c
				quoted = true
			} else {
				cur.WriteByte(c)
			}
		case c == ',':
			flush()
		case quoted && (c == ' ' || c == '\t'):
		default:
			cur.WriteByte(c)
		}
	}
	if quote != 0 {
		return nil, errors.New("unterminated quoted argument")
	}
	flush()
	return args, nil
}

// Scope gives matcher functions access to the active test's variables.
type Scope interface {
	Lookup(name string) (string, bool)
}

// Variables is a simple Scope backed by a map.
type Variables map[string]string

func (v Variables) Lookup(name string) (string, bool) {
	value, ok := v[name]
	return value, ok
}

// UnknownVariableError is returned when a directive argument refers to an undefined variable.
type UnknownVariableError struct {
	Name string
}

func (e *UnknownVariableError) Error() string {
	return fmt.Sprintf("unknown variable ${%s}", e.Name)
}

func resolveVariables(arg string, scope Scope) (string, error) {
	var firstErr error
	out := variablePattern.ReplaceAllStringFunc(arg, func(ref string) string {
		name := variablePattern.FindStringSubmatch(ref)[1]
		if scope != nil {
			if v, ok := scope.Lookup(name); ok {
				return v
			}
		}
		if firstErr == nil {
			firstErr = &UnknownVariableError{Name: name}
		}
		return ref
	})
	return out, firstErr
}

// Expand replaces ${name} references in s with values from the scope. An undefined variable
// is an *UnknownVariableError.
func Expand(s string, scope Scope) (string, error) {
	return resolveVariables(s, scope)
}
