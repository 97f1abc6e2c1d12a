// Package validation contains the message validators and the configuration objects (contexts)
// that tests attach to an assertion.
//
// Every validator follows the same steps. It selects the first context of the kind it
// understands; body validators never select a header context. If there is no such context the
// validator is skipped, which is not a failure. Otherwise it runs its comparison and records
// StatusPassed or StatusFailed on the selected context before returning.
package validation

import (
	"errors"
	"time"

	"github.com/launchdarkly/message-contract-tests/compare"
	"github.com/launchdarkly/message-contract-tests/matcher"
	"github.com/launchdarkly/message-contract-tests/message"
	"github.com/launchdarkly/message-contract-tests/metrics"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldlog"
)

// Outcome says whether a validator ran, and if so whether it passed.
type Outcome int

const (
	OutcomeSkipped Outcome = iota
	OutcomePassed
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomePassed:
		return "passed"
	case OutcomeFailed:
		return "failed"
	}
	return "skipped"
}

// MessageValidator checks a received message against a control message.
type MessageValidator interface {
	// Validate returns OutcomeSkipped if none of the contexts configures this validator.
	// Any failure is returned as an error, normally a *Error.
	Validate(received, control *message.Message, contexts []Context, tc *TestContext) (Outcome, error)

	// SupportsMessageType reports whether this validator can handle a message of the given
	// kind. It has no side effects.
	SupportsMessageType(kind message.Kind, msg *message.Message) bool
}

// TestContext is the state of the running test that validators may use. A nil *TestContext
// is valid.
type TestContext struct {
	Matchers  *matcher.Library
	Variables matcher.Variables
	Loggers   *ldlog.Loggers
	Metrics   *metrics.Recorder
}

// Lookup implements matcher.Scope.
func (tc *TestContext) Lookup(name string) (string, bool) {
	if tc == nil {
		return "", false
	}
	return tc.Variables.Lookup(name)
}

var disabledLoggers = ldlog.NewDisabledLoggers()

func (tc *TestContext) loggers() ldlog.Loggers {
	if tc == nil || tc.Loggers == nil {
		return disabledLoggers
	}
	return *tc.Loggers
}

func (tc *TestContext) metrics() *metrics.Recorder {
	if tc == nil {
		return nil
	}
	return tc.Metrics
}

func (tc *TestContext) compareOptions() compare.Options {
	opts := compare.Options{Scope: tc}
	if tc != nil {
		opts.Matchers = tc.Matchers
	}
	return opts
}

// Comparison is the part of a validator that differs between implementations.
type Comparison[C Context] func(received, control *message.Message, ctx C, tc *TestContext) error

// errNotApplicable is returned by a comparison that has nothing to compare, for instance
// because there is no control message. The validator is then reported as skipped.
var errNotApplicable = errors.New("nothing to compare")

// Base implements MessageValidator for validators whose contexts have type C.
type Base[C Context] struct {
	Name string
	// Body validators check the payload and never select a header context.
	Body bool
	// Kinds restricts selection to contexts of these kinds. Empty accepts any context of type C.
	Kinds []ContextKind
	// Required makes a missing context a configuration error instead of a skip.
	Required bool
	// Default, if set, supplies a context when none was configured.
	Default func() C
	// Supports implements SupportsMessageType. If nil, every kind is supported.
	Supports func(kind message.Kind, msg *message.Message) bool
	Compare  Comparison[C]
}

func (b *Base[C]) ValidatorName() string {
	return b.Name
}

func (b *Base[C]) SupportsMessageType(kind message.Kind, msg *message.Message) bool {
	if b.Supports == nil {
		return true
	}
	return b.Supports(kind, msg)
}

func (b *Base[C]) Validate(received, control *message.Message, contexts []Context, tc *TestContext) (Outcome, error) {
	ctx, ok := b.selectContext(contexts)
	if !ok {
		switch {
		case b.Default != nil:
			ctx = b.Default()
		case b.Required:
			return OutcomeFailed, &Error{Kind: ErrorConfiguration, Validator: b.Name,
				Message: "no validation context of a supported kind was configured"}
		default:
			tc.loggers().Debugf("Skipping %s validation: not configured", b.Name)
			return OutcomeSkipped, nil
		}
	}

	started := time.Now()
	err := b.Compare(received, control, ctx, tc)
	outcome := OutcomePassed
	switch {
	case errors.Is(err, errNotApplicable):
		outcome = OutcomeSkipped
		err = nil
		tc.loggers().Debugf("Skipping %s validation: nothing to compare", b.Name)
	case err != nil:
		outcome = OutcomeFailed
		ctx.tracker().settle(StatusFailed)
		var ve *Error
		if errors.As(err, &ve) && ve.Validator == "" {
			ve.Validator = b.Name
		}
	default:
		ctx.tracker().settle(StatusPassed)
	}
	tc.metrics().ObserveValidation(b.Name, outcome.String(), time.Since(started))
	return outcome, err
}

func (b *Base[C]) selectContext(contexts []Context) (C, bool) {
	var zero C
	for _, c := range contexts {
		if c == nil || (b.Body && c.Kind() == KindHeader) {
			continue
		}
		typed, ok := c.(C)
		if !ok {
			continue
		}
		if len(b.Kinds) == 0 {
			return typed, true
		}
		for _, k := range b.Kinds {
			if c.Kind() == k {
				return typed, true
			}
		}
	}
	return zero, false
}
