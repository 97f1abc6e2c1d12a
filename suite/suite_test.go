package suite

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/launchdarkly/message-contract-tests/document"
	"github.com/launchdarkly/message-contract-tests/message"
	"github.com/launchdarkly/message-contract-tests/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

func loadOrders(t *testing.T) *Suite {
	s, err := LoadFile(filepath.Join("testdata", "orders.yaml"))
	require.NoError(t, err)
	return s
}

func caseNamed(t *testing.T, s *Suite, name string) *Case {
	for _, c := range s.Cases {
		if c.Name == name {
			return c
		}
	}
	require.Fail(t, "case not found", name)
	return nil
}

func TestLoadSuite(t *testing.T) {
	s := loadOrders(t)
	assert.Equal(t, "orders", s.Name)
	assert.Equal(t, []string{"order"}, s.SchemaNames())

	var names []string
	for _, c := range s.Cases {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"order matches", "wrong customer", "schema violation", "unknown matcher",
		"xml order", "plain greeting", "sniffed payload"}, names)

	c := caseNamed(t, s, "order matches")
	assert.Equal(t, message.KindJSON, c.Kind)
	assert.Equal(t, ExpectPass, c.Expect.Result)
	assert.Equal(t, []string{"order"}, c.Schemas)
	assert.True(t, c.Structure)
	require.NotNil(t, c.Strict)
	assert.True(t, *c.Strict)
	assert.Greater(t, c.Line, 0)

	var expressions []string
	for _, p := range c.Paths {
		expressions = append(expressions, p.Expression())
	}
	assert.Equal(t, []string{"$.id", "$.items.Size()", "$.items", "$.customer.name"}, expressions)
	assert.Equal(t, "1001", c.Paths[0].Expected())
	assert.Equal(t, "@StartsWith('A')@", c.Paths[3].Expected())
	assert.Len(t, c.Paths[2].Expected(), 2)

	operation, ok := c.Received.Header("operation")
	require.True(t, ok)
	assert.Equal(t, ldvalue.String("create"), operation)
	attempt, _ := c.Received.Header("attempt")
	assert.Equal(t, ldvalue.Int(1), attempt)
	assert.Equal(t, []validation.HeaderBinding{{Name: "operation", Expected: "create"}}, c.Headers)

	control, ok := c.Control.Payload.(*document.Node)
	require.True(t, ok)
	assert.Equal(t, []string{"id", "items", "customer"}, control.Keys())
}

func TestLoadSuiteDefaults(t *testing.T) {
	s := loadOrders(t)

	c := caseNamed(t, s, "sniffed payload")
	assert.Equal(t, message.KindUnknown, c.Kind)
	assert.Nil(t, c.Control)

	c = caseNamed(t, s, "wrong customer")
	assert.Equal(t, ExpectMismatch, c.Expect.Result)
	assert.Equal(t, "$.customer.name", c.Expect.Message)

	c = caseNamed(t, s, "plain greeting")
	require.NotNil(t, c.Text)
	assert.True(t, c.Text.IgnoreWhitespace)
	assert.True(t, c.Text.IgnoreNewLineType)
	assert.Equal(t, "Hello   World\r\n", c.Received.PayloadText())
}

func TestStructuredPayloadDefaultsToJSON(t *testing.T) {
	s, err := Parse([]byte(`
cases:
  - received:
      payload: {a: 1}
`))
	require.NoError(t, err)
	require.Len(t, s.Cases, 1)
	assert.Equal(t, "case-1", s.Cases[0].Name)
	assert.Equal(t, message.KindJSON, s.Cases[0].Kind)
	assert.Equal(t, `{"a":1}`, s.Cases[0].Received.PayloadText())
}

func TestCaseVariablesOverrideSuiteVariables(t *testing.T) {
	s, err := Parse([]byte(`
variables: {who: suite, greeting: hello}
cases:
  - name: greet
    variables: {who: case}
    received:
      payload: "${greeting} ${who}"
`))
	require.NoError(t, err)
	assert.Equal(t, "hello case", s.Cases[0].Received.PayloadText())
}

func TestLoadErrors(t *testing.T) {
	for name, text := range map[string]string{
		"unknown kind":     "cases:\n  - name: x\n    kind: pdf\n",
		"unknown expect":   "cases:\n  - name: x\n    expect: {result: maybe}\n",
		"unknown variable": "cases:\n  - name: x\n    received: {payload: '${nope}'}\n",
		"paths not a map":  "cases:\n  - name: x\n    validate: {paths: [a, b]}\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(text))
			require.Error(t, err)
			assert.Contains(t, err.Error(), `case "x" (line 2)`)
		})
	}
}

func TestContextsAreNewEachTime(t *testing.T) {
	c := caseNamed(t, loadOrders(t), "order matches")
	first, second := c.Contexts(false), c.Contexts(false)
	require.Len(t, first, 4)
	for i := range first {
		assert.NotSame(t, first[i], second[i])
	}
	kinds := make([]validation.ContextKind, 0, len(first))
	for _, ctx := range first {
		kinds = append(kinds, ctx.Kind())
	}
	assert.Equal(t, []validation.ContextKind{validation.KindHeader, validation.KindPath,
		validation.KindJSON, validation.KindSchema}, kinds)
}

func TestStrictnessDefault(t *testing.T) {
	c := caseNamed(t, loadOrders(t), "xml order")
	for _, strict := range []bool{true, false} {
		ctxs := c.Contexts(strict)
		require.Len(t, ctxs, 2)
		sc, ok := ctxs[1].(*validation.StructureContext)
		require.True(t, ok)
		assert.Equal(t, validation.KindXML, sc.Kind())
		assert.Equal(t, strict, sc.Strict)
	}
}

func TestLoadFilesFromDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yml"), []byte("cases: []\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("name: first\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o600))

	suites, err := LoadFiles([]string{dir})
	require.NoError(t, err)
	require.Len(t, suites, 2)
	assert.Equal(t, "first", suites[0].Name)
	assert.Equal(t, "b", suites[1].Name)

	_, err = LoadFiles([]string{t.TempDir()})
	assert.Error(t, err)
}
