package document

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// TextField is the field name used for the character data of an XML element that also has
// attributes or child elements.
const TextField = "#text"

// AttributePrefix is prepended to XML attribute names.
const AttributePrefix = "@"

// ParseXML parses an XML document into a tree. The result is an object with a single field
// named after the root element. Each element becomes a string if it holds only text, or an
// object whose fields are its attributes ("@name"), its child elements (an array when a name
// repeats) and its text ("#text"). Namespace declarations are dropped and names are local.
func ParseXML(text string) (*Node, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyDocument
	}
	dec := xml.NewDecoder(strings.NewReader(text))
	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, errors.New("XML document has no root element")
			}
			return nil, fmt.Errorf("malformed XML document: %w", err)
		}
		if start, ok := tok.(xml.StartElement); ok {
			root, err := readElement(dec, start)
			if err != nil {
				return nil, err
			}
			return NewObject(Field{Name: start.Name.Local, Value: root}), nil
		}
	}
}

type elementBuilder struct {
	fields []Field
	index  map[string]int
	text   strings.Builder
}

func (b *elementBuilder) add(name string, value *Node) {
	if i, ok := b.index[name]; ok {
		// child elements are never arrays themselves, so an array here holds repeated elements
		existing := b.fields[i].Value
		if existing.Type() == Array {
			existing.items = append(existing.items, value)
		} else {
			b.fields[i].Value = &Node{typ: Array, items: []*Node{existing, value}}
		}
		return
	}
	b.index[name] = len(b.fields)
	b.fields = append(b.fields, Field{Name: name, Value: value})
}

func readElement(dec *xml.Decoder, start xml.StartElement) (*Node, error) {
	b := &elementBuilder{index: make(map[string]int)}
	for _, attr := range start.Attr {
		if attr.Name.Space == "xmlns" || attr.Name.Local == "xmlns" {
			continue
		}
		b.add(AttributePrefix+attr.Name.Local, NewString(attr.Value))
	}
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("malformed XML document in element <%s>: %w", start.Name.Local, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			child, err := readElement(dec, t)
			if err != nil {
				return nil, err
			}
			b.add(t.Name.Local, child)
		case xml.CharData:
			b.text.Write(t)
		case xml.EndElement:
			return b.build(), nil
		}
	}
}

func (b *elementBuilder) build() *Node {
	text := strings.TrimSpace(b.text.String())
	if len(b.fields) == 0 {
		return NewString(text)
	}
	if text != "" {
		b.fields = append(b.fields, Field{Name: TextField, Value: NewString(text)})
	}
	return &Node{typ: Object, fields: b.fields}
}
