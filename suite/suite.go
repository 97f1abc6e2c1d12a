// Package suite loads validation cases from YAML files and runs them against a validator
// registry.
//
// A suite file looks like this:
//
//	name: orders
//	variables:
//	  orderId: "1001"
//	schemas:
//	  order: |
//	    {"type": "object", "required": ["id"]}
//	cases:
//	  - name: order matches
//	    kind: json
//	    received:
//	      payload: '{"id": "1001", "items": [1, 2]}'
//	      headers:
//	        operation: create
//	    control:
//	      payload:
//	        id: "@Ignore@"
//	        items: [1, 2]
//	    validate:
//	      paths:
//	        $.id: ${orderId}
//	        $.items: "@Length(2)@"
//	      structure: {strict: true}
//	      schemas: [order]
//	    expect:
//	      result: pass
//
// A payload is either a string or a YAML structure, which is used as a document as it is.
// Path expressions are evaluated in the order they are written.
package suite

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/launchdarkly/message-contract-tests/document"
	"github.com/launchdarkly/message-contract-tests/matcher"
	"github.com/launchdarkly/message-contract-tests/message"
	"github.com/launchdarkly/message-contract-tests/validation"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
	"gopkg.in/yaml.v3"
)

// ExpectedResult is what a case expects validation to do.
type ExpectedResult string

const (
	ExpectPass          ExpectedResult = "pass"
	ExpectMismatch      ExpectedResult = "mismatch"
	ExpectConfiguration ExpectedResult = "configuration"
)

// Expectation describes the expected result of a case. If Message is set, the validation
// error must contain it.
type Expectation struct {
	Result  ExpectedResult
	Message string
}

// TextOptions configures plain text comparison for a case.
type TextOptions struct {
	IgnoreWhitespace  bool
	IgnoreNewLineType bool
}

// Case is one received message checked against the validations it declares.
type Case struct {
	Name      string
	Line      int
	Kind      message.Kind
	Received  *message.Message
	Control   *message.Message
	Variables matcher.Variables

	Paths                []validation.PathBinding
	Headers              []validation.HeaderBinding
	CaseSensitiveHeaders bool
	Structure            bool
	Strict               *bool
	Text                 *TextOptions
	Schemas              []string

	// MustFind overrides the runner's setting for requiring a content validator.
	MustFind *bool
	Expect   Expectation
}

// Contexts builds new validation contexts for one evaluation of the case. Structural
// comparison uses defaultStrict unless the case says otherwise.
func (c *Case) Contexts(defaultStrict bool) []validation.Context {
	var ret []validation.Context
	if len(c.Headers) > 0 || c.CaseSensitiveHeaders {
		ret = append(ret, &validation.HeaderContext{Headers: c.Headers, CaseSensitive: c.CaseSensitiveHeaders})
	}
	if len(c.Paths) > 0 {
		ret = append(ret, &validation.PathContext{Expressions: c.Paths})
	}
	if c.Structure {
		strict := defaultStrict
		if c.Strict != nil {
			strict = *c.Strict
		}
		if c.Kind == message.KindXML {
			ret = append(ret, validation.NewXMLContext(strict))
		} else {
			ret = append(ret, validation.NewJSONContext(strict))
		}
	}
	if c.Text != nil {
		ret = append(ret, &validation.TextContext{
			IgnoreWhitespace:  c.Text.IgnoreWhitespace,
			IgnoreNewLineType: c.Text.IgnoreNewLineType,
		})
	}
	if len(c.Schemas) > 0 {
		ret = append(ret, &validation.SchemaContext{Schemas: c.Schemas})
	}
	return ret
}

// Suite is a named list of cases loaded from one file.
type Suite struct {
	Name      string
	Path      string
	Variables matcher.Variables
	Schemas   map[string]string
	Cases     []*Case
}

// SchemaNames returns the names of the suite's inline schemas in sorted order.
func (s *Suite) SchemaNames() []string {
	names := make([]string, 0, len(s.Schemas))
	for name := range s.Schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type rawSuite struct {
	Name      string            `yaml:"name"`
	Variables map[string]string `yaml:"variables"`
	Schemas   map[string]string `yaml:"schemas"`
	Cases     []yaml.Node       `yaml:"cases"`
}

type rawCase struct {
	Name      string            `yaml:"name"`
	Kind      string            `yaml:"kind"`
	Received  rawMessage        `yaml:"received"`
	Control   *rawMessage       `yaml:"control"`
	Variables map[string]string `yaml:"variables"`
	Validate  rawValidate       `yaml:"validate"`
	MustFind  *bool             `yaml:"must-find-validator"`
	Expect    rawExpect         `yaml:"expect"`
}

type rawMessage struct {
	Payload    yaml.Node `yaml:"payload"`
	Headers    yaml.Node `yaml:"headers"`
	HeaderData []string  `yaml:"header-data"`
}

type rawValidate struct {
	Paths                yaml.Node     `yaml:"paths"`
	Headers              yaml.Node     `yaml:"headers"`
	CaseSensitiveHeaders bool          `yaml:"case-sensitive-headers"`
	Structure            *rawStructure `yaml:"structure"`
	Text                 *rawText      `yaml:"text"`
	Schemas              []string      `yaml:"schemas"`
}

type rawStructure struct {
	Strict *bool `yaml:"strict"`
}

type rawText struct {
	IgnoreWhitespace  bool `yaml:"ignore-whitespace"`
	IgnoreNewLineType bool `yaml:"ignore-newline-type"`
}

type rawExpect struct {
	Result  string `yaml:"result"`
	Message string `yaml:"message"`
}

// LoadFiles loads suites from files and directories. All *.yaml and *.yml files directly
// inside a directory are loaded, in name order.
func LoadFiles(paths []string) ([]*Suite, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if !e.IsDir() && isSuiteFile(e.Name()) {
				files = append(files, filepath.Join(p, e.Name()))
			}
		}
	}
	if len(files) == 0 {
		return nil, errors.New("no suite files found")
	}
	suites := make([]*Suite, 0, len(files))
	for _, f := range files {
		s, err := LoadFile(f)
		if err != nil {
			return nil, err
		}
		suites = append(suites, s)
	}
	return suites, nil
}

func isSuiteFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}

// LoadFile loads a suite from a YAML file. If the file does not name the suite, the file's
// base name is used.
func LoadFile(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s.Path = path
	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return s, nil
}

// Parse reads a suite from YAML data.
func Parse(data []byte) (*Suite, error) {
	var raw rawSuite
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	s := &Suite{
		Name:      raw.Name,
		Variables: matcher.Variables(raw.Variables),
		Schemas:   raw.Schemas,
	}
	for i := range raw.Cases {
		node := &raw.Cases[i]
		var rc rawCase
		if err := node.Decode(&rc); err != nil {
			return nil, fmt.Errorf("case at line %d: %w", node.Line, err)
		}
		c, err := rc.build(s.Variables)
		if err != nil {
			name := rc.Name
			if name == "" {
				name = fmt.Sprintf("#%d", i+1)
			}
			return nil, fmt.Errorf("case %q (line %d): %w", name, node.Line, err)
		}
		c.Line = node.Line
		if c.Name == "" {
			c.Name = fmt.Sprintf("case-%d", i+1)
		}
		s.Cases = append(s.Cases, c)
	}
	return s, nil
}

func (rc *rawCase) build(suiteVariables matcher.Variables) (*Case, error) {
	vars := make(matcher.Variables, len(suiteVariables)+len(rc.Variables))
	for k, v := range suiteVariables {
		vars[k] = v
	}
	for k, v := range rc.Variables {
		vars[k] = v
	}

	kind, err := message.ParseKind(rc.Kind)
	if err != nil {
		return nil, err
	}
	if kind == message.KindUnknown && rc.Received.structured() {
		kind = message.KindJSON
	}

	c := &Case{
		Name:                 rc.Name,
		Kind:                 kind,
		Variables:            vars,
		CaseSensitiveHeaders: rc.Validate.CaseSensitiveHeaders,
		Schemas:              rc.Validate.Schemas,
		MustFind:             rc.MustFind,
	}
	if c.Received, err = rc.Received.build(kind, vars); err != nil {
		return nil, fmt.Errorf("received message: %w", err)
	}
	if rc.Control != nil {
		if c.Control, err = rc.Control.build(kind, vars); err != nil {
			return nil, fmt.Errorf("control message: %w", err)
		}
	}

	err = eachPair(&rc.Validate.Paths, func(key string, value *yaml.Node) error {
		expected, err := expectedValue(value, vars)
		if err != nil {
			return fmt.Errorf("path %s: %w", key, err)
		}
		c.Paths = append(c.Paths, validation.NewPathBinding(key, expected))
		return nil
	})
	if err != nil {
		return nil, err
	}
	err = eachPair(&rc.Validate.Headers, func(key string, value *yaml.Node) error {
		expected, err := expectedValue(value, vars)
		if err != nil {
			return fmt.Errorf("header %s: %w", key, err)
		}
		c.Headers = append(c.Headers, validation.HeaderBinding{Name: key, Expected: expected})
		return nil
	})
	if err != nil {
		return nil, err
	}

	if rc.Validate.Structure != nil {
		c.Structure = true
		c.Strict = rc.Validate.Structure.Strict
	}
	if t := rc.Validate.Text; t != nil {
		c.Text = &TextOptions{IgnoreWhitespace: t.IgnoreWhitespace, IgnoreNewLineType: t.IgnoreNewLineType}
	}

	switch ExpectedResult(strings.ToLower(rc.Expect.Result)) {
	case "", ExpectPass:
		c.Expect.Result = ExpectPass
	case ExpectMismatch, "fail":
		c.Expect.Result = ExpectMismatch
	case ExpectConfiguration:
		c.Expect.Result = ExpectConfiguration
	default:
		return nil, fmt.Errorf("unknown expected result %q", rc.Expect.Result)
	}
	c.Expect.Message = rc.Expect.Message
	return c, nil
}

func (m *rawMessage) structured() bool {
	return m.Payload.Kind == yaml.MappingNode || m.Payload.Kind == yaml.SequenceNode
}

func (m *rawMessage) build(kind message.Kind, vars matcher.Variables) (*message.Message, error) {
	var payload interface{}
	switch {
	case m.Payload.Kind == 0:
		payload = ""
	case m.Payload.Kind == yaml.ScalarNode:
		text := m.Payload.Value
		if m.Payload.ShortTag() == "!!null" {
			text = ""
		}
		expanded, err := matcher.Expand(text, vars)
		if err != nil {
			return nil, err
		}
		payload = expanded
	default:
		node, err := document.FromYAML(&m.Payload)
		if err != nil {
			return nil, err
		}
		payload = node
	}

	msg := message.New(kind, payload)
	err := eachPair(&m.Headers, func(name string, value *yaml.Node) error {
		var v interface{}
		if err := value.Decode(&v); err != nil {
			return fmt.Errorf("header %s: %w", name, err)
		}
		if s, ok := v.(string); ok {
			expanded, err := matcher.Expand(s, vars)
			if err != nil {
				return fmt.Errorf("header %s: %w", name, err)
			}
			v = expanded
		}
		msg.SetHeader(name, ldvalue.CopyArbitraryValue(v))
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, data := range m.HeaderData {
		msg.AddHeaderData(data)
	}
	return msg, nil
}

// eachPair calls fn for the entries of a YAML mapping in document order. An absent node has no
// entries.
func eachPair(node *yaml.Node, fn func(key string, value *yaml.Node) error) error {
	switch node.Kind {
	case 0:
		return nil
	case yaml.MappingNode:
	default:
		return fmt.Errorf("line %d: expected a mapping", node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if err := fn(node.Content[i].Value, node.Content[i+1]); err != nil {
			return err
		}
	}
	return nil
}

// expectedValue converts a YAML value to an expected value for path or header validation.
// Strings other than matcher directives have variables expanded, and lists become slices so
// that they are compared without regard to order.
func expectedValue(y *yaml.Node, vars matcher.Variables) (interface{}, error) {
	node, err := document.FromYAML(y)
	if err != nil {
		return nil, err
	}
	return plainExpected(node, vars)
}

func plainExpected(n *document.Node, vars matcher.Variables) (interface{}, error) {
	switch n.Type() {
	case document.Null:
		return nil, nil
	case document.String:
		if matcher.IsDirective(n.Text()) {
			return n.Text(), nil
		}
		return matcher.Expand(n.Text(), vars)
	case document.Array:
		items := make([]interface{}, 0, n.Len())
		for _, item := range n.Items() {
			v, err := plainExpected(item, vars)
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
		return items, nil
	}
	return n, nil
}
