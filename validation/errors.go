package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/launchdarkly/message-contract-tests/compare"
)

// ErrorKind classifies validation errors. Callers branch on it, so it is part of the API.
type ErrorKind int

const (
	// ErrorConfiguration means the test is set up wrongly and must be fixed before rerunning.
	ErrorConfiguration ErrorKind = iota
	// ErrorPathNotFound means a path expression did not resolve against the payload.
	ErrorPathNotFound
	// ErrorMismatch means the received content differs from what was expected.
	ErrorMismatch
	// ErrorStructure means strict comparison found elements the control document does not have.
	ErrorStructure
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorConfiguration:
		return "configuration"
	case ErrorPathNotFound:
		return "path not found"
	case ErrorMismatch:
		return "mismatch"
	case ErrorStructure:
		return "structure"
	}
	return "unknown"
}

// Error is a classified validation error.
type Error struct {
	Kind      ErrorKind
	Validator string
	Path      string
	Expected  interface{}
	Actual    interface{}
	Message   string
	Err       error
	// Failures lists every difference found by a structural comparison.
	Failures []*compare.Mismatch
}

func (e *Error) Error() string {
	var msg string
	switch {
	case e.Message != "":
		msg = e.Message
	case e.Err != nil:
		msg = e.Err.Error()
	default:
		msg = e.Kind.String() + " error"
	}
	if e.Validator != "" {
		return fmt.Sprintf("%s validation failed: %s", e.Validator, msg)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the classification of err, and false if err is not a classified error.
func KindOf(err error) (ErrorKind, bool) {
	var ve *Error
	if errors.As(err, &ve) {
		return ve.Kind, true
	}
	return 0, false
}

// IsConfiguration returns true for configuration errors, including unresolvable paths.
func IsConfiguration(err error) bool {
	k, ok := KindOf(err)
	return ok && (k == ErrorConfiguration || k == ErrorPathNotFound)
}

func IsPathNotFound(err error) bool {
	k, ok := KindOf(err)
	return ok && k == ErrorPathNotFound
}

// IsMismatch returns true for content differences, including strict-mode extra elements.
func IsMismatch(err error) bool {
	k, ok := KindOf(err)
	return ok && (k == ErrorMismatch || k == ErrorStructure)
}

func configError(format string, args ...interface{}) *Error {
	return &Error{Kind: ErrorConfiguration, Err: fmt.Errorf(format, args...)}
}

func fromMismatch(mm *compare.Mismatch) *Error {
	return &Error{
		Kind:     ErrorMismatch,
		Path:     mm.Path,
		Expected: mm.Expected,
		Actual:   mm.Actual,
		Err:      mm,
	}
}

// fromFailures summarizes the differences found by a structural comparison.
func fromFailures(failures []*compare.Mismatch) *Error {
	kind := ErrorMismatch
	lines := make([]string, len(failures))
	for i, f := range failures {
		if f.Kind == compare.MismatchUnexpected {
			kind = ErrorStructure
		}
		lines[i] = f.Error()
	}
	first := failures[0]
	msg := lines[0]
	if len(lines) > 1 {
		msg = fmt.Sprintf("%d differences found:\n  %s", len(lines), strings.Join(lines, "\n  "))
	}
	return &Error{
		Kind:     kind,
		Path:     first.Path,
		Expected: first.Expected,
		Actual:   first.Actual,
		Message:  msg,
		Err:      first,
		Failures: failures,
	}
}
