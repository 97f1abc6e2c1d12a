// Package registry keeps the catalogue of named validators and decides which of them apply to
// a message.
//
// A Registry is populated at start-up and then only read. Registration is safe at any time,
// but validators registered while validation is running may or may not be seen by it.
package registry

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/launchdarkly/message-contract-tests/message"
	"github.com/launchdarkly/message-contract-tests/validation"

	"github.com/agnivade/levenshtein"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldlog"
)

// ErrNoValidator is returned by FindMessageValidators when a validator is required and none
// applies to the message.
var ErrNoValidator = errors.New("no message validator found")

type namedValidators struct {
	names  []string
	byName map[string]validation.MessageValidator
}

func (n *namedValidators) put(name string, v validation.MessageValidator) bool {
	if n.byName == nil {
		n.byName = make(map[string]validation.MessageValidator)
	}
	_, exists := n.byName[name]
	if !exists {
		n.names = append(n.names, name)
	}
	n.byName[name] = v
	return exists
}

type headerEntry struct {
	validator validation.MessageValidator
}

// Registry holds named message validators and schema validators, in registration order.
type Registry struct {
	messageValidators namedValidators
	schemaValidators  namedValidators
	emptyPayload      validation.MessageValidator
	textEquality      validation.MessageValidator
	defaultHeader     atomic.Pointer[headerEntry]
	loggers           ldlog.Loggers
	mu                sync.RWMutex
}

// New creates an empty registry. Only the two fallback validators, which are never part of the
// named catalogue, are present.
func New(loggers ldlog.Loggers) *Registry {
	return &Registry{
		emptyPayload: validation.NewEmptyPayloadValidator(),
		textEquality: validation.NewTextEqualityValidator(),
		loggers:      loggers,
	}
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// Default returns a process-wide registry holding the built-in validators. It is created on
// first use.
func Default() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = New(ldlog.NewDefaultLoggers())
		defaultRegistry.RegisterDefaults()
	})
	return defaultRegistry
}

// RegisterDefaults adds the built-in validators.
func (r *Registry) RegisterDefaults() {
	r.AddMessageValidator(validation.HeaderValidatorName, validation.NewHeaderValidator())
	r.AddMessageValidator(validation.PathValidatorName, validation.NewPathValidator())
	r.AddMessageValidator(validation.JSONValidatorName, validation.NewJSONValidator())
	r.AddMessageValidator(validation.XMLValidatorName, validation.NewXMLValidator())
	r.AddMessageValidator(validation.PlainTextValidatorName, validation.NewPlainTextValidator())
	r.AddSchemaValidator(validation.JSONSchemaValidatorName, validation.NewJSONSchemaValidator())
}

// AddMessageValidator registers a message validator. A validator already registered under
// the same name is replaced.
func (r *Registry) AddMessageValidator(name string, v validation.MessageValidator) {
	r.mu.Lock()
	replaced := r.messageValidators.put(name, v)
	r.mu.Unlock()
	if replaced {
		r.loggers.Debugf("Overwriting message validator %q in registry", name)
	}
	if name == validation.HeaderValidatorName {
		r.defaultHeader.Store(nil)
	}
}

// AddSchemaValidator registers a schema validator. A validator already registered under the
// same name is replaced.
func (r *Registry) AddSchemaValidator(name string, v validation.MessageValidator) {
	r.mu.Lock()
	replaced := r.schemaValidators.put(name, v)
	r.mu.Unlock()
	if replaced {
		r.loggers.Debugf("Overwriting schema validator %q in registry", name)
	}
}

// Register adds message validators from a map, in name order.
func (r *Registry) Register(validators map[string]validation.MessageValidator) {
	names := make([]string, 0, len(validators))
	for name := range validators {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		r.AddMessageValidator(name, validators[name])
	}
}

// MessageValidator returns the message validator registered under a name.
func (r *Registry) MessageValidator(name string) (validation.MessageValidator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.messageValidators.byName[name]
	return v, ok
}

// SchemaValidator returns the schema validator registered under a name.
func (r *Registry) SchemaValidator(name string) (validation.MessageValidator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.schemaValidators.byName[name]
	return v, ok
}

// RequireMessageValidator is like MessageValidator, but returns a configuration error that
// suggests a similar name if the validator does not exist.
func (r *Registry) RequireMessageValidator(name string) (validation.MessageValidator, error) {
	if v, ok := r.MessageValidator(name); ok {
		return v, nil
	}
	msg := fmt.Sprintf("unknown message validator %q", name)
	if s := closestName(name, r.Names()); s != "" {
		msg += fmt.Sprintf(" (did you mean %q?)", s)
	}
	return nil, &validation.Error{Kind: validation.ErrorConfiguration, Message: msg}
}

// Names returns the message validator names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.messageValidators.names...)
}

// SchemaNames returns the schema validator names in registration order.
func (r *Registry) SchemaNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.schemaValidators.names...)
}

// DefaultHeaderValidator returns the validator registered as validation.HeaderValidatorName,
// or a new HeaderValidator if there is none. The result is computed on first use.
func (r *Registry) DefaultHeaderValidator() validation.MessageValidator {
	if e := r.defaultHeader.Load(); e != nil {
		return e.validator
	}
	v, ok := r.MessageValidator(validation.HeaderValidatorName)
	if !ok {
		v = validation.NewHeaderValidator()
	}
	r.defaultHeader.Store(&headerEntry{validator: v})
	return v
}

func (r *Registry) find(validators *namedValidators, kind message.Kind, msg *message.Message) []validation.MessageValidator {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var ret []validation.MessageValidator
	for _, name := range validators.names {
		v := validators.byName[name]
		if v.SupportsMessageType(kind, msg) {
			ret = append(ret, v)
		}
	}
	return ret
}

// FindMessageValidators returns the message validators that apply to a message of the
// declared kind.
//
// If no content validator supports the declared kind (the default header validator does not
// count), the payload is inspected: markup is retried as XML, a brace or bracket delimited
// payload as JSON, and anything else as plain text. If that finds nothing either, a blank
// payload gets the empty payload validator. Otherwise, if mustFind is set the result is an
// ErrNoValidator configuration error; if not, the textual equality validator is used.
func (r *Registry) FindMessageValidators(kind message.Kind, msg *message.Message, mustFind bool) ([]validation.MessageValidator, error) {
	found := r.find(&r.messageValidators, kind, msg)

	if r.onlyHeader(found) {
		if sniffed, ok := sniff(kind, msg); ok {
			r.loggers.Debugf("No message validator for %s, trying %s based on payload content", kind, sniffed)
			found = appendNew(found, r.find(&r.messageValidators, sniffed, msg))
		}
	}

	if r.onlyHeader(found) && msg.IsBlank() {
		found = append(found, r.emptyPayload)
	}

	if r.onlyHeader(found) {
		if mustFind {
			return nil, &validation.Error{
				Kind: validation.ErrorConfiguration,
				Err:  fmt.Errorf("%w for message type %s; register a validator for this type or check the test configuration", ErrNoValidator, kind),
			}
		}
		r.loggers.Warnf("Unable to find proper message validator for message type %s, using fallback %s validator",
			kind, validation.TextEqualityValidatorName)
		found = append(found, r.textEquality)
	}
	return found, nil
}

// FindSchemaValidators returns the schema validators that apply to a message of the declared
// kind, inspecting the payload if none supports that kind. The result may be empty.
func (r *Registry) FindSchemaValidators(kind message.Kind, msg *message.Message) []validation.MessageValidator {
	found := r.find(&r.schemaValidators, kind, msg)
	if len(found) == 0 {
		if sniffed, ok := sniff(kind, msg); ok {
			found = r.find(&r.schemaValidators, sniffed, msg)
		}
	}
	return found
}

func (r *Registry) onlyHeader(found []validation.MessageValidator) bool {
	if len(found) == 0 {
		return true
	}
	header := r.DefaultHeaderValidator()
	for _, v := range found {
		if !sameValidator(v, header) {
			return false
		}
	}
	return true
}

func sniff(kind message.Kind, msg *message.Message) (message.Kind, bool) {
	payload := strings.TrimSpace(msg.PayloadText())
	switch {
	case strings.HasPrefix(payload, "<") && kind != message.KindXML:
		return message.KindXML, true
	case (strings.HasPrefix(payload, "{") || strings.HasPrefix(payload, "[")) && kind != message.KindJSON:
		return message.KindJSON, true
	case kind != message.KindPlainText:
		return message.KindPlainText, true
	}
	return kind, false
}

func appendNew(dest, more []validation.MessageValidator) []validation.MessageValidator {
outer:
	for _, v := range more {
		for _, d := range dest {
			if sameValidator(d, v) {
				continue outer
			}
		}
		dest = append(dest, v)
	}
	return dest
}

// sameValidator compares validators by identity without panicking on uncomparable types.
func sameValidator(a, b validation.MessageValidator) bool {
	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) || ta == nil || !ta.Comparable() {
		return false
	}
	return a == b
}

func closestName(name string, candidates []string) string {
	best, bestDistance := "", -1
	for _, c := range candidates {
		d := levenshtein.ComputeDistance(strings.ToLower(name), strings.ToLower(c))
		if bestDistance < 0 || d < bestDistance {
			best, bestDistance = c, d
		}
	}
	if bestDistance < 0 || bestDistance > len(name)/2 {
		return ""
	}
	return best
}
