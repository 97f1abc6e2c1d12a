package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDirective(t *testing.T) {
	d, err := ParseDirective("@StartsWith('attr')@")
	require.NoError(t, err)
	assert.Equal(t, "StartsWith", d.Name)
	assert.Equal(t, []string{"attr"}, d.Args)

	d, err = ParseDirective(`@Between( 1, "a, b" , 'it\'s')@`)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "a, b", "it's"}, d.Args)

	d, err = ParseDirective("@Ignore@")
	require.NoError(t, err)
	assert.Equal(t, "Ignore", d.Name)
	assert.Empty(t, d.Args)

	_, err = ParseDirective("StartsWith('x')")
	assert.Error(t, err)

	_, err = ParseDirective("@Contains('x)@")
	assert.Error(t, err)
}

func TestIsDirective(t *testing.T) {
	assert.True(t, IsDirective("@Ignore@"))
	assert.True(t, IsDirective(" @Contains('a')@ "))
	assert.False(t, IsDirective("user@example.com"))
	assert.False(t, IsDirective("@"))
	assert.False(t, IsDirective("prefix @Ignore@"))
}

func TestStartsWith(t *testing.T) {
	lib := DefaultLibrary()
	assert.NoError(t, lib.Apply("@StartsWith('attr')@", "attribute-value", nil))

	err := lib.Apply("@StartsWith('attr')@", "xattribute", nil)
	var me *MatchError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, "xattribute", me.Actual)
	assert.Equal(t, `did not start with "attr"`, me.Err.Error())
}

func TestBuiltins(t *testing.T) {
	lib := DefaultLibrary()
	vars := Variables{"id": "42", "prefix": "ord"}

	passing := map[string]string{
		"@Ignore@":                        "anything",
		"@EndsWith('value')@":             "attribute-value",
		"@Contains('bute')@":              "attribute-value",
		"@EqualsIgnoreCase('HELLO')@":     "hello",
		"@ContainsIgnoreCase('WORLD')@":   "Hello World",
		"@Matches('[a-z]+-[0-9]+')@":      "abc-123",
		"@IsNumber()@":                    "-12.5e3",
		"@GreaterThan(10)@":               "10.5",
		"@LowerThan('3')@":                "2",
		"@Empty()@":                       "",
		"@NotEmpty()@":                    "x",
		"@Length(3)@":                     "äbc",
		"@Variable('id')@":                "42",
		"@StartsWith('${prefix}')@":       "order-1",
		"@startswith('a')@":               "abc",
	}
	for directive, actual := range passing {
		t.Run(directive, func(t *testing.T) {
			assert.NoError(t, lib.Apply(directive, actual, vars))
		})
	}

	failing := map[string]string{
		"@EqualsIgnoreCase('HELLO')@": "hallo",
		"@Matches('[a-z]+')@":         "abc1",
		"@IsNumber()@":                "12a",
		"@GreaterThan(10)@":           "10",
		"@LowerThan(3)@":              "x",
		"@NotEmpty()@":                "",
		"@Length(2)@":                 "abc",
		"@Variable('id')@":            "43",
	}
	for directive, actual := range failing {
		t.Run(directive, func(t *testing.T) {
			var me *MatchError
			assert.ErrorAs(t, lib.Apply(directive, actual, vars), &me)
		})
	}
}

func TestConfigurationErrors(t *testing.T) {
	lib := DefaultLibrary()

	err := lib.Apply("@StartWith('a')@", "abc", nil)
	var ue *UnknownFunctionError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "StartsWith", ue.Suggestion)

	err = lib.Apply("@Contains('a', 'b')@", "abc", nil)
	assert.ErrorIs(t, err, ErrInvalidArguments)

	err = lib.Apply("@Contains('${missing}')@", "abc", Variables{})
	var ve *UnknownVariableError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "missing", ve.Name)
}

func TestCustomFunction(t *testing.T) {
	lib := NewLibrary()
	lib.Register("IsYes", func(actual string, args []string, scope Scope) error {
		if actual != "yes" {
			return assert.AnError
		}
		return nil
	})
	assert.Equal(t, []string{"IsYes"}, lib.Names())
	assert.NoError(t, lib.Apply("@IsYes@", "yes", nil))
	assert.ErrorIs(t, lib.Apply("@IsYes@", "no", nil), assert.AnError)
}
