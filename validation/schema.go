package validation

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/launchdarkly/message-contract-tests/message"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const JSONSchemaValidatorName = "json-schema"

// JSONSchemaValidator checks JSON payloads against named JSON schemas. How schema text is
// obtained is up to the caller; it is added with AddSchema before validation starts.
type JSONSchemaValidator struct {
	Base[*SchemaContext]
	schemas map[string]*jsonschema.Schema
	lock    sync.RWMutex
}

func NewJSONSchemaValidator() *JSONSchemaValidator {
	v := &JSONSchemaValidator{schemas: make(map[string]*jsonschema.Schema)}
	v.Base = Base[*SchemaContext]{
		Name:     JSONSchemaValidatorName,
		Body:     true,
		Supports: supportsKinds(message.KindJSON),
		Compare:  v.compare,
	}
	return v
}

// AddSchema compiles a schema and registers it under a name, replacing any previous schema
// with that name.
func (v *JSONSchemaValidator) AddSchema(name, text string) error {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(text))
	if err != nil {
		return fmt.Errorf("schema %q is not valid JSON: %w", name, err)
	}
	location := name + ".schema.json"
	c := jsonschema.NewCompiler()
	if err := c.AddResource(location, doc); err != nil {
		return fmt.Errorf("schema %q: %w", name, err)
	}
	schema, err := c.Compile(location)
	if err != nil {
		return fmt.Errorf("schema %q does not compile: %w", name, err)
	}
	v.lock.Lock()
	v.schemas[name] = schema
	v.lock.Unlock()
	return nil
}

// SchemaNames returns the registered schema names in sorted order.
func (v *JSONSchemaValidator) SchemaNames() []string {
	v.lock.RLock()
	defer v.lock.RUnlock()
	names := make([]string, 0, len(v.schemas))
	for name := range v.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (v *JSONSchemaValidator) compare(received, _ *message.Message, ctx *SchemaContext, tc *TestContext) error {
	if len(ctx.Schemas) == 0 {
		return configError("no schema names were configured")
	}
	if received == nil {
		return &Error{Kind: ErrorMismatch, Message: "no message was received"}
	}
	instance, err := jsonschema.UnmarshalJSON(strings.NewReader(received.PayloadText()))
	if err != nil {
		return &Error{Kind: ErrorMismatch, Actual: received.PayloadText(), Err: err,
			Message: "received payload is not valid JSON: " + err.Error()}
	}
	for _, name := range ctx.Schemas {
		v.lock.RLock()
		schema, ok := v.schemas[name]
		v.lock.RUnlock()
		if !ok {
			return configError("unknown schema %q (registered: %s)", name, strings.Join(v.SchemaNames(), ", "))
		}
		if err := schema.Validate(instance); err != nil {
			return &Error{Kind: ErrorMismatch, Path: name, Actual: received.PayloadText(), Err: err,
				Message: fmt.Sprintf("payload does not conform to schema %q: %s", name, err)}
		}
		tc.loggers().Debugf("Payload conforms to schema %q", name)
	}
	return nil
}
