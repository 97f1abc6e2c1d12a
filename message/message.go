// Package message defines the message objects that are handed to the validation engine.
//
// A Message is created by a transport collaborator or a test builder. Its payload and headers
// may be changed freely until it is passed to a validator; validators treat it as read-only.
package message

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/launchdarkly/message-contract-tests/document"

	"github.com/google/uuid"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

// Kind is the declared content kind of a message payload.
type Kind string

const (
	KindUnknown   Kind = ""
	KindJSON      Kind = "json"
	KindXML       Kind = "xml"
	KindPlainText Kind = "plaintext"
	KindBinary    Kind = "binary"
)

// ParseKind converts a configured kind name to a Kind. Some common aliases are accepted.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return KindUnknown, nil
	case "json", "application/json":
		return KindJSON, nil
	case "xml", "application/xml", "text/xml":
		return KindXML, nil
	case "plaintext", "text", "text/plain":
		return KindPlainText, nil
	case "binary", "application/octet-stream":
		return KindBinary, nil
	}
	return KindUnknown, fmt.Errorf("unknown message kind %q", s)
}

func (k Kind) String() string {
	if k == KindUnknown {
		return "unknown"
	}
	return string(k)
}

// Message is a single message that was sent or received by a test.
type Message struct {
	// ID uniquely identifies the message within a test run.
	ID string

	// Headers holds header values by name.
	Headers map[string]ldvalue.Value

	// HeaderData holds raw header blobs that do not fit the name/value model, such as a SOAP
	// header fragment.
	HeaderData []string

	// Payload is a string, a byte slice, a *document.Node, an ldvalue.Value, or any other
	// value that can be rendered with encoding/json.
	Payload interface{}

	// Kind is the declared content kind of the payload.
	Kind Kind
}

// New creates a Message with a generated ID and an empty header map.
func New(kind Kind, payload interface{}) *Message {
	return &Message{
		ID:      uuid.NewString(),
		Headers: make(map[string]ldvalue.Value),
		Payload: payload,
		Kind:    kind,
	}
}

// SetHeader sets a header value, returning the message so that calls can be chained.
func (m *Message) SetHeader(name string, value ldvalue.Value) *Message {
	if m.Headers == nil {
		m.Headers = make(map[string]ldvalue.Value)
	}
	m.Headers[name] = value
	return m
}

// Header returns a header value and whether it was present.
func (m *Message) Header(name string) (ldvalue.Value, bool) {
	v, ok := m.Headers[name]
	return v, ok
}

// AddHeaderData appends a raw header blob.
func (m *Message) AddHeaderData(data string) *Message {
	m.HeaderData = append(m.HeaderData, data)
	return m
}

// PayloadText renders the payload as text. A nil payload renders as an empty string.
func (m *Message) PayloadText() string {
	if m == nil {
		return ""
	}
	switch p := m.Payload.(type) {
	case nil:
		return ""
	case string:
		return p
	case []byte:
		return string(p)
	case *document.Node:
		if p == nil {
			return ""
		}
		return p.String()
	case ldvalue.Value:
		if p.IsNull() {
			return ""
		}
		if p.Type() == ldvalue.StringType {
			return p.StringValue()
		}
		return p.JSONString()
	case fmt.Stringer:
		return p.String()
	default:
		data, err := json.Marshal(p)
		if err != nil {
			return fmt.Sprintf("%v", p)
		}
		return string(data)
	}
}

// IsBlank returns true if the payload is empty or contains only whitespace.
func (m *Message) IsBlank() bool {
	return strings.TrimSpace(m.PayloadText()) == ""
}

// Document parses the payload into a document tree according to the message kind. A payload
// that is already structured is used as it is. A message of unknown kind is parsed as JSON.
func (m *Message) Document() (*document.Node, error) {
	switch p := m.Payload.(type) {
	case *document.Node:
		return p, nil
	case ldvalue.Value:
		return document.FromValue(p), nil
	case string, []byte, nil:
	default:
		return document.FromValue(p), nil
	}
	text := m.PayloadText()
	switch m.Kind {
	case KindXML:
		return document.ParseXML(text)
	case KindJSON, KindUnknown:
		return document.ParseJSON(text)
	}
	return nil, fmt.Errorf("cannot build a document from %s payload of message %s", m.Kind, m.ID)
}

func (m *Message) String() string {
	return fmt.Sprintf("Message[id: %s, kind: %s, payload: %s]", m.ID, m.Kind, m.PayloadText())
}
