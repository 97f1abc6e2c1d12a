package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/launchdarkly/message-contract-tests/compare"
	"github.com/launchdarkly/message-contract-tests/matcher"
	"github.com/launchdarkly/message-contract-tests/message"
)

const (
	PlainTextValidatorName    = "plaintext"
	EmptyPayloadValidatorName = "empty-payload"
	TextEqualityValidatorName = "text-equality"
)

// diffWindow is the number of characters shown on each side of a textual difference.
const diffWindow = 25

var whitespaceRun = regexp.MustCompile(`\s+`)

// NewPlainTextValidator returns a validator for plain text payloads. The control payload may be
// a matcher directive, in which case it is applied to the whole received payload.
func NewPlainTextValidator() *Base[*TextContext] {
	return &Base[*TextContext]{
		Name:     PlainTextValidatorName,
		Body:     true,
		Supports: supportsKinds(message.KindPlainText),
		Compare: func(received, control *message.Message, ctx *TextContext, tc *TestContext) error {
			if control == nil || control.Payload == nil {
				return errNotApplicable
			}
			normalize := func(s string) string {
				if ctx.IgnoreNewLineType {
					s = strings.ReplaceAll(s, "\r\n", "\n")
					s = strings.ReplaceAll(s, "\r", "\n")
				}
				if ctx.IgnoreWhitespace {
					s = strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
				}
				return s
			}
			return compareText(normalize(received.PayloadText()), normalize(control.PayloadText()), tc)
		},
	}
}

// NewTextEqualityValidator returns the last-resort validator that compares both payloads as
// text. It needs no configuration.
func NewTextEqualityValidator() *Base[*DefaultContext] {
	return &Base[*DefaultContext]{
		Name:    TextEqualityValidatorName,
		Body:    true,
		Default: func() *DefaultContext { return &DefaultContext{} },
		Compare: func(received, control *message.Message, _ *DefaultContext, tc *TestContext) error {
			if control == nil || control.Payload == nil {
				return errNotApplicable
			}
			return compareText(received.PayloadText(), control.PayloadText(), tc)
		},
	}
}

// NewEmptyPayloadValidator returns the validator used for blank received payloads. It passes
// only if the control payload is blank too, or if there is no control message.
func NewEmptyPayloadValidator() *Base[*DefaultContext] {
	return &Base[*DefaultContext]{
		Name:    EmptyPayloadValidatorName,
		Body:    true,
		Default: func() *DefaultContext { return &DefaultContext{} },
		Supports: func(_ message.Kind, msg *message.Message) bool {
			return msg.IsBlank()
		},
		Compare: func(received, control *message.Message, _ *DefaultContext, _ *TestContext) error {
			if control == nil {
				return nil
			}
			switch {
			case !control.IsBlank() && received.IsBlank():
				return &Error{Kind: ErrorMismatch, Expected: control.PayloadText(),
					Message: "validation failed - expected message contents, but received empty message"}
			case control.IsBlank() && !received.IsBlank():
				return &Error{Kind: ErrorMismatch, Actual: received.PayloadText(),
					Message: "validation failed - received message content is not empty"}
			}
			return nil
		},
	}
}

func compareText(actual, expected string, tc *TestContext) error {
	if matcher.IsDirective(expected) {
		if err := compare.Values("$", actual, expected, tc.compareOptions()); err != nil {
			return classifyCompareError("$", err)
		}
		return nil
	}
	if actual == expected {
		return nil
	}
	pos := firstDifference(actual, expected)
	return &Error{
		Kind:     ErrorMismatch,
		Expected: expected,
		Actual:   actual,
		Message: fmt.Sprintf("payloads differ at position %d, expected '%s' but was '%s'",
			pos+1, excerpt(expected, pos), excerpt(actual, pos)),
	}
}

// firstDifference returns the index of the first differing rune.
func firstDifference(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	i := 0
	for i < len(ra) && i < len(rb) && ra[i] == rb[i] {
		i++
	}
	return i
}

// excerpt returns up to diffWindow runes before and after pos, with "..." marking cut text.
func excerpt(s string, pos int) string {
	r := []rune(s)
	start, end := pos-diffWindow, pos+diffWindow
	prefix, suffix := "...", "..."
	if start <= 0 {
		start, prefix = 0, ""
	}
	if end >= len(r) {
		end, suffix = len(r), ""
	}
	if start > end {
		start = end
	}
	return prefix + string(r[start:end]) + suffix
}
