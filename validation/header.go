package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/launchdarkly/message-contract-tests/compare"
	"github.com/launchdarkly/message-contract-tests/message"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

const HeaderValidatorName = "header"

// HeaderValidator checks message headers. The expected headers are those of the control
// message plus any declared in a HeaderContext. Header data blobs of the control message must
// appear in the received message in the same order.
//
// It is not a body validator: it always runs, with an empty HeaderContext if none is configured.
type HeaderValidator struct {
	Base[*HeaderContext]
}

func NewHeaderValidator() *HeaderValidator {
	v := &HeaderValidator{}
	v.Base = Base[*HeaderContext]{
		Name:    HeaderValidatorName,
		Default: func() *HeaderContext { return &HeaderContext{} },
		Compare: compareHeaders,
	}
	return v
}

func compareHeaders(received, control *message.Message, ctx *HeaderContext, tc *TestContext) error {
	expected := make(map[string]interface{})
	var names []string
	add := func(name string, value interface{}) {
		if _, ok := expected[name]; !ok {
			names = append(names, name)
		}
		expected[name] = value
	}
	if control != nil {
		controlNames := make([]string, 0, len(control.Headers))
		for name := range control.Headers {
			controlNames = append(controlNames, name)
		}
		sort.Strings(controlNames)
		for _, name := range controlNames {
			add(name, headerText(control.Headers[name]))
		}
	}
	for _, h := range ctx.Headers {
		add(h.Name, h.Expected)
	}
	if len(names) == 0 && (control == nil || len(control.HeaderData) == 0) {
		return errNotApplicable
	}
	if received == nil {
		return &Error{Kind: ErrorMismatch, Message: "no message was received"}
	}

	opts := tc.compareOptions()
	for _, name := range names {
		path := fmt.Sprintf("header '%s'", name)
		value, ok := lookupHeader(received, name, ctx.CaseSensitive)
		if !ok {
			return &Error{Kind: ErrorMismatch, Path: path, Expected: expected[name],
				Message: fmt.Sprintf("header element '%s' is missing", name)}
		}
		if err := compare.Values(path, headerText(value), expected[name], opts); err != nil {
			return classifyCompareError(path, err)
		}
		tc.loggers().Debugf("Validated %s: '%s' as expected", path, headerText(value))
	}

	if control != nil {
		for i, data := range control.HeaderData {
			path := fmt.Sprintf("header data [%d]", i)
			if i >= len(received.HeaderData) {
				return &Error{Kind: ErrorMismatch, Path: path, Expected: data,
					Message: fmt.Sprintf("%s is missing", path)}
			}
			err := compare.Values(path, strings.TrimSpace(received.HeaderData[i]), strings.TrimSpace(data), opts)
			if err != nil {
				return classifyCompareError(path, err)
			}
		}
	}
	return nil
}

func lookupHeader(msg *message.Message, name string, caseSensitive bool) (ldvalue.Value, bool) {
	if v, ok := msg.Header(name); ok {
		return v, true
	}
	if caseSensitive {
		return ldvalue.Null(), false
	}
	for n, v := range msg.Headers {
		if strings.EqualFold(n, name) {
			return v, true
		}
	}
	return ldvalue.Null(), false
}

func headerText(v ldvalue.Value) string {
	switch v.Type() {
	case ldvalue.NullType:
		return ""
	case ldvalue.StringType:
		return v.StringValue()
	}
	return v.JSONString()
}
