package registry

import (
	"errors"
	"fmt"
	"testing"

	"github.com/launchdarkly/message-contract-tests/message"
	"github.com/launchdarkly/message-contract-tests/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldlog"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldlogtest"
	"pgregory.net/rapid"
)

type stubValidator struct {
	id    int
	kinds []message.Kind
}

func (s *stubValidator) Validate(*message.Message, *message.Message, []validation.Context, *validation.TestContext) (validation.Outcome, error) {
	return validation.OutcomePassed, nil
}

func (s *stubValidator) SupportsMessageType(kind message.Kind, _ *message.Message) bool {
	for _, k := range s.kinds {
		if k == kind {
			return true
		}
	}
	return false
}

func stub(kinds ...message.Kind) *stubValidator {
	return &stubValidator{kinds: kinds}
}

func newTestRegistry() (*Registry, *ldlogtest.MockLog) {
	mockLog := ldlogtest.NewMockLog()
	mockLog.Loggers.SetMinLevel(ldlog.Debug)
	return New(mockLog.Loggers), mockLog
}

func names(validators []validation.MessageValidator) []string {
	var ret []string
	for _, v := range validators {
		ret = append(ret, validatorName(v))
	}
	return ret
}

func TestRegistrationIsLastWriteWins(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		r := New(ldlog.NewDisabledLoggers())
		count := rapid.IntRange(1, 30).Draw(t, "count")
		last := make(map[string]*stubValidator)
		var order []string
		for i := 0; i < count; i++ {
			name := rapid.SampledFrom([]string{"a", "b", "c", "d"}).Draw(t, "name")
			v := &stubValidator{id: i}
			r.AddMessageValidator(name, v)
			if _, seen := last[name]; !seen {
				order = append(order, name)
			}
			last[name] = v
		}
		for name, want := range last {
			got, ok := r.MessageValidator(name)
			if !ok || got != want {
				t.Fatalf("validator %q is not the last one registered", name)
			}
		}
		if fmt.Sprint(r.Names()) != fmt.Sprint(order) {
			t.Fatalf("expected registration order %v, got %v", order, r.Names())
		}
	})
}

func TestOverwriteIsLoggedAtDebug(t *testing.T) {
	r, mockLog := newTestRegistry()
	r.AddMessageValidator("json", stub(message.KindJSON))
	assert.Len(t, mockLog.GetOutput(ldlog.Debug), 0)

	replacement := stub(message.KindJSON)
	r.AddMessageValidator("json", replacement)
	v, _ := r.MessageValidator("json")
	assert.Same(t, replacement, v)
	mockLog.AssertMessageMatch(t, true, ldlog.Debug, `Overwriting message validator "json"`)

	r.AddSchemaValidator("s", stub())
	r.AddSchemaValidator("s", stub())
	mockLog.AssertMessageMatch(t, true, ldlog.Debug, `Overwriting schema validator "s"`)
}

func TestFindByDeclaredKind(t *testing.T) {
	r, _ := newTestRegistry()
	jsonValidator, xmlValidator := stub(message.KindJSON), stub(message.KindXML)
	r.AddMessageValidator("json", jsonValidator)
	r.AddMessageValidator("xml", xmlValidator)

	found, err := r.FindMessageValidators(message.KindXML, message.New(message.KindXML, "{}"), true)
	require.NoError(t, err)
	assert.Equal(t, []validation.MessageValidator{xmlValidator}, found)
}

func TestMarkupIsSniffedBeforePlainText(t *testing.T) {
	r, _ := newTestRegistry()
	xmlValidator, textValidator := stub(message.KindXML), stub(message.KindPlainText)
	r.AddMessageValidator("plaintext", textValidator)
	r.AddMessageValidator("xml", xmlValidator)

	msg := message.New(message.KindJSON, "  <order/>")
	found, err := r.FindMessageValidators(message.KindJSON, msg, true)
	require.NoError(t, err)
	assert.Equal(t, []validation.MessageValidator{xmlValidator}, found)
}

func TestStructuredPayloadIsSniffedAsJSON(t *testing.T) {
	r, _ := newTestRegistry()
	jsonValidator := stub(message.KindJSON)
	r.AddMessageValidator("json", jsonValidator)
	r.AddMessageValidator("plaintext", stub(message.KindPlainText))

	for _, payload := range []string{`{"a":1}`, `[1,2]`} {
		found, err := r.FindMessageValidators(message.KindBinary, message.New(message.KindBinary, payload), true)
		require.NoError(t, err)
		assert.Equal(t, []validation.MessageValidator{jsonValidator}, found, payload)
	}
}

func TestOtherPayloadIsSniffedAsPlainText(t *testing.T) {
	r, _ := newTestRegistry()
	textValidator := stub(message.KindPlainText)
	r.AddMessageValidator("plaintext", textValidator)

	found, err := r.FindMessageValidators(message.KindBinary, message.New(message.KindBinary, "hello"), true)
	require.NoError(t, err)
	assert.Equal(t, []validation.MessageValidator{textValidator}, found)
}

func TestDefaultHeaderValidatorDoesNotCount(t *testing.T) {
	r, _ := newTestRegistry()
	r.AddMessageValidator(validation.HeaderValidatorName, validation.NewHeaderValidator())
	xmlValidator := stub(message.KindXML)
	r.AddMessageValidator("xml", xmlValidator)

	found, err := r.FindMessageValidators(message.KindJSON, message.New(message.KindJSON, "<a/>"), true)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Same(t, r.DefaultHeaderValidator(), found[0])
	assert.Equal(t, xmlValidator, found[1])
}

func TestBlankPayloadUsesEmptyPayloadValidator(t *testing.T) {
	r, _ := newTestRegistry()
	r.AddMessageValidator("xml", stub(message.KindXML))

	found, err := r.FindMessageValidators(message.KindJSON, message.New(message.KindJSON, " \n "), true)
	require.NoError(t, err)
	assert.Equal(t, []string{validation.EmptyPayloadValidatorName}, names(found))

	control := message.New(message.KindJSON, "")
	outcome, err := found[0].Validate(message.New(message.KindJSON, " "), control, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, validation.OutcomePassed, outcome)

	_, err = found[0].Validate(message.New(message.KindJSON, " "), message.New(message.KindJSON, "{}"), nil, nil)
	assert.True(t, validation.IsMismatch(err))
}

func TestMustFindValidator(t *testing.T) {
	r, mockLog := newTestRegistry()
	msg := message.New(message.KindBinary, "\x00\x01")

	_, err := r.FindMessageValidators(message.KindBinary, msg, true)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoValidator))
	assert.True(t, validation.IsConfiguration(err))
	assert.Len(t, mockLog.GetOutput(ldlog.Warn), 0)

	found, err := r.FindMessageValidators(message.KindBinary, msg, false)
	require.NoError(t, err)
	assert.Equal(t, []string{validation.TextEqualityValidatorName}, names(found))
	mockLog.AssertMessageMatch(t, true, ldlog.Warn, "Unable to find proper message validator for message type binary")
}

func TestFindSchemaValidators(t *testing.T) {
	r, _ := newTestRegistry()
	schemaValidator := stub(message.KindJSON)
	r.AddSchemaValidator("json-schema", schemaValidator)

	found := r.FindSchemaValidators(message.KindPlainText, message.New(message.KindPlainText, `{"a":1}`))
	assert.Equal(t, []validation.MessageValidator{schemaValidator}, found)

	found = r.FindSchemaValidators(message.KindPlainText, message.New(message.KindPlainText, ""))
	assert.Empty(t, found)
	assert.Equal(t, []string{"json-schema"}, r.SchemaNames())
}

func TestDefaultHeaderValidatorIsMemoized(t *testing.T) {
	r, _ := newTestRegistry()
	first := r.DefaultHeaderValidator()
	require.NotNil(t, first)
	assert.Same(t, first, r.DefaultHeaderValidator())

	custom := validation.NewHeaderValidator()
	r.AddMessageValidator(validation.HeaderValidatorName, custom)
	assert.Same(t, custom, r.DefaultHeaderValidator())
}

func TestRegisterAndRequire(t *testing.T) {
	r, _ := newTestRegistry()
	r.Register(map[string]validation.MessageValidator{
		"json-path": stub(message.KindJSON),
		"xml":       stub(message.KindXML),
		"json":      stub(message.KindJSON),
	})
	assert.Equal(t, []string{"json", "json-path", "xml"}, r.Names())

	_, err := r.RequireMessageValidator("json-pth")
	require.Error(t, err)
	assert.True(t, validation.IsConfiguration(err))
	assert.Contains(t, err.Error(), `did you mean "json-path"`)

	v, err := r.RequireMessageValidator("xml")
	require.NoError(t, err)
	assert.NotNil(t, v)
}

func TestDefaultRegistry(t *testing.T) {
	r := Default()
	assert.Same(t, r, Default())
	assert.Equal(t, []string{
		validation.HeaderValidatorName,
		validation.PathValidatorName,
		validation.JSONValidatorName,
		validation.XMLValidatorName,
		validation.PlainTextValidatorName,
	}, r.Names())
	assert.Equal(t, []string{validation.JSONSchemaValidatorName}, r.SchemaNames())
}

func TestValidateEndToEnd(t *testing.T) {
	r := New(ldlog.NewDisabledLoggers())
	r.RegisterDefaults()
	control := message.New(message.KindJSON, `{"root":{"value":"X"}}`)

	pathCtx := &validation.PathContext{Expressions: []validation.PathBinding{
		validation.NewPathBinding("$.root.value", "X"),
	}}
	results, err := r.Validate(message.KindJSON, message.New(message.KindJSON, `{"root":{"value":"X"}}`),
		control, []validation.Context{pathCtx}, nil, true)
	require.NoError(t, err)
	outcomes := make(map[string]validation.Outcome)
	for _, res := range results {
		outcomes[res.Validator] = res.Outcome
	}
	assert.Equal(t, map[string]validation.Outcome{
		validation.JSONSchemaValidatorName: validation.OutcomeSkipped,
		validation.HeaderValidatorName:     validation.OutcomeSkipped,
		validation.PathValidatorName:       validation.OutcomePassed,
		validation.JSONValidatorName:       validation.OutcomeSkipped,
	}, outcomes)
	assert.Equal(t, validation.StatusPassed, pathCtx.Status())

	pathCtx = &validation.PathContext{Expressions: []validation.PathBinding{
		validation.NewPathBinding("$.root.value", "X"),
	}}
	results, err = r.Validate(message.KindJSON, message.New(message.KindJSON, `{"root":{"value":"Y"}}`),
		control, []validation.Context{pathCtx, validation.NewJSONContext(true)}, nil, true)
	require.Error(t, err)
	assert.True(t, validation.IsMismatch(err))
	assert.Contains(t, err.Error(), "$.root.value")
	assert.Equal(t, validation.PathValidatorName, results[len(results)-1].Validator)
	assert.Equal(t, validation.StatusFailed, pathCtx.Status())
}
