package matcher

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/agnivade/levenshtein"
)

// Func is a matcher function. It receives the canonical text of the actual value, the directive
// arguments with variables already resolved, and the active test scope. It returns nil if the
// value is accepted, or an error describing why not.
type Func func(actual string, args []string, scope Scope) error

// UnknownFunctionError is returned for a directive naming a function that is not registered.
type UnknownFunctionError struct {
	Name       string
	Suggestion string
}

func (e *UnknownFunctionError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("unknown matcher function %q (did you mean %q?)", e.Name, e.Suggestion)
	}
	return fmt.Sprintf("unknown matcher function %q", e.Name)
}

// MatchError is returned when a matcher function rejects a value.
type MatchError struct {
	Directive string
	Actual    string
	Err       error
}

func (e *MatchError) Error() string {
	return fmt.Sprintf("%s rejected value %q: %s", e.Directive, e.Actual, e.Err)
}

func (e *MatchError) Unwrap() error {
	return e.Err
}

// Library is a set of named matcher functions. Registration is safe at any time, but is meant
// to happen before validation starts.
type Library struct {
	funcs map[string]Func
	lock  sync.RWMutex
}

// NewLibrary returns an empty library.
func NewLibrary() *Library {
	return &Library{funcs: make(map[string]Func)}
}

// DefaultLibrary returns a new library containing the built-in functions.
func DefaultLibrary() *Library {
	l := NewLibrary()
	for name, fn := range builtins {
		l.Register(name, fn)
	}
	return l
}

// Register adds or replaces a function.
func (l *Library) Register(name string, fn Func) {
	l.lock.Lock()
	l.funcs[name] = fn
	l.lock.Unlock()
}

// Names returns the registered function names in sorted order.
func (l *Library) Names() []string {
	l.lock.RLock()
	defer l.lock.RUnlock()
	names := make([]string, 0, len(l.funcs))
	for name := range l.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup finds a function by name. Names are case-insensitive if there is no exact match.
func (l *Library) Lookup(name string) (Func, bool) {
	l.lock.RLock()
	defer l.lock.RUnlock()
	if fn, ok := l.funcs[name]; ok {
		return fn, true
	}
	for n, fn := range l.funcs {
		if strings.EqualFold(n, name) {
			return fn, true
		}
	}
	return nil, false
}

// Apply parses a directive and runs its function against the actual value.
func (l *Library) Apply(directive string, actual string, scope Scope) error {
	d, err := ParseDirective(directive)
	if err != nil {
		return err
	}
	fn, ok := l.Lookup(d.Name)
	if !ok {
		return &UnknownFunctionError{Name: d.Name, Suggestion: l.suggest(d.Name)}
	}
	args := make([]string, len(d.Args))
	for i, a := range d.Args {
		if args[i], err = resolveVariables(a, scope); err != nil {
			return err
		}
	}
	if err := fn(actual, args, scope); err != nil {
		return &MatchError{Directive: d.Raw, Actual: actual, Err: err}
	}
	return nil
}

// IsRejection returns true if err means a matcher function rejected the value, as opposed to a
// problem with the directive itself.
func IsRejection(err error) bool {
	var me *MatchError
	if !errors.As(err, &me) {
		return false
	}
	var uv *UnknownVariableError
	return !errors.Is(err, ErrInvalidArguments) && !errors.As(err, &uv)
}

func (l *Library) suggest(name string) string {
	best, bestDistance := "", -1
	for _, candidate := range l.Names() {
		d := levenshtein.ComputeDistance(strings.ToLower(name), strings.ToLower(candidate))
		if bestDistance < 0 || d < bestDistance {
			best, bestDistance = candidate, d
		}
	}
	if bestDistance < 0 || bestDistance > len(name)/2 {
		return ""
	}
	return best
}
