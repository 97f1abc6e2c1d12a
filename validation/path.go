package validation

import (
	"errors"
	"strings"

	"github.com/launchdarkly/message-contract-tests/compare"
	"github.com/launchdarkly/message-contract-tests/document"
	"github.com/launchdarkly/message-contract-tests/jsonpath"
	"github.com/launchdarkly/message-contract-tests/message"
)

const PathValidatorName = "json-path"

// PathValidator checks individual values of the payload addressed by path expressions.
type PathValidator struct {
	Base[*PathContext]
}

func NewPathValidator() *PathValidator {
	v := &PathValidator{}
	v.Base = Base[*PathContext]{
		Name:     PathValidatorName,
		Body:     true,
		Supports: supportsKinds(message.KindJSON, message.KindXML),
		Compare:  comparePaths,
	}
	return v
}

func comparePaths(received, _ *message.Message, ctx *PathContext, tc *TestContext) error {
	if len(ctx.Expressions) == 0 {
		return nil
	}
	doc, err := receivedDocument(received, sniffFormat(received))
	if err != nil {
		return err
	}
	opts := tc.compareOptions()
	for _, b := range ctx.Expressions {
		expr, err := jsonpath.Compile(b.Expression())
		if err != nil {
			return &Error{Kind: ErrorConfiguration, Path: b.Expression(), Err: err}
		}
		actual, err := expr.Evaluate(doc)
		if err != nil {
			if errors.Is(err, jsonpath.ErrPathNotFound) {
				return &Error{Kind: ErrorPathNotFound, Path: b.Expression(), Expected: b.Expected(), Err: err}
			}
			return &Error{Kind: ErrorConfiguration, Path: b.Expression(), Err: err}
		}
		if err := compare.Values(b.Expression(), actual, b.Expected(), opts); err != nil {
			return classifyCompareError(b.Expression(), err)
		}
		tc.loggers().Debugf("Validated path %s: '%s' as expected", b.Expression(), compare.Text(actual))
	}
	return nil
}

func classifyCompareError(path string, err error) error {
	var mm *compare.Mismatch
	if errors.As(err, &mm) {
		return fromMismatch(mm)
	}
	return &Error{Kind: ErrorConfiguration, Path: path, Err: err}
}

func supportsKinds(kinds ...message.Kind) func(message.Kind, *message.Message) bool {
	return func(kind message.Kind, _ *message.Message) bool {
		for _, k := range kinds {
			if k == kind {
				return true
			}
		}
		return false
	}
}

// sniffFormat picks the document format of a message, trusting the declared kind if it is a
// document kind.
func sniffFormat(msg *message.Message) message.Kind {
	if msg == nil {
		return message.KindJSON
	}
	if msg.Kind == message.KindXML || msg.Kind == message.KindJSON {
		return msg.Kind
	}
	if strings.HasPrefix(strings.TrimSpace(msg.PayloadText()), "<") {
		return message.KindXML
	}
	return message.KindJSON
}

func receivedDocument(msg *message.Message, format message.Kind) (*document.Node, error) {
	if msg == nil {
		return nil, &Error{Kind: ErrorMismatch, Message: "no message was received"}
	}
	doc, err := parseAs(msg, format)
	if err != nil {
		return nil, &Error{Kind: ErrorMismatch, Actual: msg.PayloadText(), Err: err,
			Message: "received payload is not a valid " + format.String() + " document: " + err.Error()}
	}
	return doc, nil
}

func parseAs(msg *message.Message, format message.Kind) (*document.Node, error) {
	m := *msg
	m.Kind = format
	return m.Document()
}
