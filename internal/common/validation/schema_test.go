package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchema() JSONSchema {
	return JSONSchema{
		"type": "object",
		"properties": map[string]interface{}{
			"intents":     map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
			"entities":    map[string]interface{}{"type": "object"},
			"explanation": map[string]interface{}{"type": "string"},
			"language":    map[string]interface{}{"type": "string"},
		},
		"required": []interface{}{"intents", "entities", "explanation", "language"},
	}
}

func newTestValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := NewValidator(testSchema())
	require.NoError(t, err)
	return v
}

func TestValidate_Valid(t *testing.T) {
	v := newTestValidator(t)

	res, err := v.Validate([]byte(`{"intents":["saludo"],"entities":{"nombre":"Juan","edad":30},"explanation":"greeting","language":"es"}`))
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Empty(t, res.Errors)
}

func TestValidate_MissingField(t *testing.T) {
	v := newTestValidator(t)

	res, err := v.Validate([]byte(`{"intents":[],"entities":{},"explanation":"none"}`))
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.True(t, res.HasErrors("language"))
	assert.Equal(t, "required", res.Errors[0].Code)
	assert.Contains(t, res.String(), "language")
}

func TestValidate_WrongTypes(t *testing.T) {
	v := newTestValidator(t)

	res, err := v.Validate([]byte(`{"intents":"saludo","entities":[],"explanation":"x","language":"es"}`))
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.True(t, res.HasErrors("intents"))
	assert.True(t, res.HasErrors("entities"))
	assert.Len(t, res.GetErrorMessages(), 2)
}

func TestValidate_ArrayItems(t *testing.T) {
	v := newTestValidator(t)

	res, err := v.Validate([]byte(`{"intents":["ok",3],"entities":{},"explanation":"x","language":"es"}`))
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.NotEmpty(t, res.GetErrorsForField("intents"))
}

func TestValidate_NotJSON(t *testing.T) {
	v := newTestValidator(t)

	_, err := v.Validate([]byte(`not json`))
	assert.Error(t, err)
}

func TestValidateValue(t *testing.T) {
	v := newTestValidator(t)

	res, err := v.ValidateValue(map[string]interface{}{
		"intents":     []interface{}{},
		"entities":    map[string]interface{}{},
		"explanation": "",
		"language":    "en",
	})
	require.NoError(t, err)
	assert.True(t, res.Valid)
}

func TestNewValidator_BadSchema(t *testing.T) {
	_, err := NewValidator(JSONSchema{"type": 12})
	assert.Error(t, err)
}
