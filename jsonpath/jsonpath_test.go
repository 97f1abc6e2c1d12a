package jsonpath

import (
	"testing"

	"github.com/launchdarkly/message-contract-tests/document"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDocument = `{
  "root": {
    "value": "X",
    "count": 4,
    "list": ["a", "b", "c", "d"],
    "nested": {"a": 1, "b": {"c": "deep", "d": [true, null]}},
    "name": "inner"
  },
  "name": "outer",
  "dotted.key": "yes"
}`

func parse(t *testing.T, text string) *document.Node {
	n, err := document.ParseJSON(text)
	require.NoError(t, err)
	return n
}

func evaluate(t *testing.T, doc *document.Node, expr string) interface{} {
	v, err := Evaluate(doc, expr)
	require.NoError(t, err, "expression %s", expr)
	return v
}

func textOf(t *testing.T, v interface{}) string {
	n, ok := v.(*document.Node)
	require.True(t, ok, "expected a single node but got %T", v)
	return n.Text()
}

func TestPropertyAccess(t *testing.T) {
	doc := parse(t, sampleDocument)

	for _, expr := range []string{"$.root.value", "$['root']['value']", `$["root"].value`, "root.value"} {
		t.Run(expr, func(t *testing.T) {
			assert.Equal(t, "X", textOf(t, evaluate(t, doc, expr)))
		})
	}
	assert.Equal(t, "yes", textOf(t, evaluate(t, doc, "$['dotted.key']")))
	assert.Equal(t, doc, evaluate(t, doc, "$"))
}

func TestArrayIndex(t *testing.T) {
	doc := parse(t, sampleDocument)
	assert.Equal(t, "b", textOf(t, evaluate(t, doc, "$.root.list[1]")))
	assert.Equal(t, "d", textOf(t, evaluate(t, doc, "$.root.list[-1]")))

	arr := parse(t, `[{"id":1},{"id":2}]`)
	assert.Equal(t, "2", textOf(t, evaluate(t, arr, "$[1].id")))
}

func TestRecursiveDescent(t *testing.T) {
	doc := parse(t, sampleDocument)

	assert.Equal(t, "deep", textOf(t, evaluate(t, doc, "$..c")))

	v := evaluate(t, doc, "$..name")
	nodes, ok := v.([]*document.Node)
	require.True(t, ok)
	require.Len(t, nodes, 2)
	assert.Equal(t, "inner", nodes[0].Text())
	assert.Equal(t, "outer", nodes[1].Text())
}

func TestWildcard(t *testing.T) {
	doc := parse(t, sampleDocument)
	v := evaluate(t, doc, "$.root.list[*]")
	nodes, ok := v.([]*document.Node)
	require.True(t, ok)
	assert.Len(t, nodes, 4)
}

func TestKeySet(t *testing.T) {
	doc := parse(t, `{"a": 1, "b": 2, "c": 3}`)
	assert.Equal(t, "a, b, c", evaluate(t, doc, "$.KeySet()"))

	doc = parse(t, sampleDocument)
	assert.Equal(t, "a, b", evaluate(t, doc, "$.root.nested.KeySet()"))
}

func TestSize(t *testing.T) {
	doc := parse(t, sampleDocument)
	size := evaluate(t, doc, "$.root.list.Size()")
	assert.Equal(t, 4, size)
	assert.EqualValues(t, int64(4), size)

	assert.Equal(t, 5, evaluate(t, doc, "$.root.Size()"))
	assert.Equal(t, 1, evaluate(t, doc, "$.root.value.Size()"))
	assert.Equal(t, 2, evaluate(t, doc, "$..name.Size()"))
}

func TestToString(t *testing.T) {
	doc := parse(t, sampleDocument)
	assert.Equal(t, `{"c":"deep","d":[true,null]}`, evaluate(t, doc, "$.root.nested.b.ToString()"))
	assert.Equal(t, `["inner","outer"]`, evaluate(t, doc, "$..name.ToString()"))
	assert.Equal(t, "X", evaluate(t, doc, "$.root.value.ToString()"))
	assert.Equal(t, "4", evaluate(t, doc, "$.root.count.ToString()"))
}

func TestValues(t *testing.T) {
	doc := parse(t, sampleDocument)
	assert.Equal(t, "1, deep, true, ", evaluate(t, doc, "$.root.nested.Values()"))
	assert.Equal(t, "a, b, c, d", evaluate(t, doc, "$.root.list.Values()"))
}

func TestExists(t *testing.T) {
	doc := parse(t, sampleDocument)
	assert.Equal(t, true, evaluate(t, doc, "$.root.value.Exists()"))
	assert.Equal(t, false, evaluate(t, doc, "$.root.missing.Exists()"))
	assert.Equal(t, true, evaluate(t, doc, "$.root.exists()"))
}

func TestPathNotFound(t *testing.T) {
	doc := parse(t, sampleDocument)

	for _, expr := range []string{"$.root.missing", "$.root.list[9]", "$..nothing", "$.root.value.deeper", "$.name[0]"} {
		t.Run(expr, func(t *testing.T) {
			_, err := Evaluate(doc, expr)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrPathNotFound)
		})
	}

	_, err := Evaluate(doc, "$.root.missing.more")
	var nf *PathNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "$['root']", nf.Resolved)
	assert.Equal(t, "['missing']", nf.Missing)
}

func TestSyntaxErrors(t *testing.T) {
	for _, expr := range []string{"$.", "$[abc]", "$['unterminated", "$.a.Unknown()", "$x", "$..[0]"} {
		t.Run(expr, func(t *testing.T) {
			_, err := Compile(expr)
			var se *SyntaxError
			assert.ErrorAs(t, err, &se)
		})
	}
}

func TestExtract(t *testing.T) {
	doc := parse(t, sampleDocument)

	v, found, err := Extract(doc, "$.root.missing", true)
	assert.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, v)

	_, _, err = Extract(doc, "$.root.missing", false)
	assert.ErrorIs(t, err, ErrPathNotFound)

	v, found, err = Extract(doc, "$.root.value", true)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "X", textOf(t, v))
}

func TestEvaluateDoesNotModifyDocument(t *testing.T) {
	doc := parse(t, sampleDocument)
	before := doc.String()
	for _, expr := range []string{"$..name", "$.root.list[*]", "$.root.nested.Values()", "$.KeySet()", "$.root.ToString()"} {
		_, _ = Evaluate(doc, expr)
	}
	assert.Equal(t, before, doc.String())
}
