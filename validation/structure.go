package validation

import (
	"github.com/launchdarkly/message-contract-tests/compare"
	"github.com/launchdarkly/message-contract-tests/message"
)

const (
	JSONValidatorName = "json"
	XMLValidatorName  = "xml"
)

// StructuralValidator compares the whole received document with the control document.
type StructuralValidator struct {
	Base[*StructureContext]
	format message.Kind
}

// NewJSONValidator returns a structural validator for JSON payloads.
func NewJSONValidator() *StructuralValidator {
	return newStructuralValidator(JSONValidatorName, message.KindJSON, KindJSON)
}

// NewXMLValidator returns a structural validator for XML payloads. Elements and attributes are
// compared as a tree, see document.ParseXML.
func NewXMLValidator() *StructuralValidator {
	return newStructuralValidator(XMLValidatorName, message.KindXML, KindXML)
}

func newStructuralValidator(name string, format message.Kind, kind ContextKind) *StructuralValidator {
	v := &StructuralValidator{format: format}
	v.Base = Base[*StructureContext]{
		Name:     name,
		Body:     true,
		Kinds:    []ContextKind{kind},
		Supports: supportsKinds(format),
		Compare:  v.compare,
	}
	return v
}

func (v *StructuralValidator) compare(received, control *message.Message, ctx *StructureContext, tc *TestContext) error {
	if control == nil || control.IsBlank() {
		return errNotApplicable
	}
	ctrl, err := parseAs(control, v.format)
	if err != nil {
		return configError("control payload is not a valid %s document: %w", v.format, err)
	}
	recv, err := receivedDocument(received, v.format)
	if err != nil {
		return err
	}

	root, err := compare.Comparator{Strict: ctx.Strict, Options: tc.compareOptions()}.Compare(recv, ctrl)
	if err != nil {
		return &Error{Kind: ErrorConfiguration, Err: err}
	}
	if failures := root.Failures(); len(failures) > 0 {
		return fromFailures(failures)
	}
	return nil
}
