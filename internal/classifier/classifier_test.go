package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "intent-classifier/internal/common/errors"
	"intent-classifier/internal/models"
)

type fakeProvider struct {
	response json.RawMessage
	err      error
	calls    int
	last     Request
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Complete(ctx context.Context, req Request) (json.RawMessage, error) {
	f.calls++
	f.last = req
	return f.response, f.err
}

var (
	testIntents  = models.Taxonomy{"saludo": "Detectar saludos", "despedida": "Detectar despedidas"}
	testEntities = models.Taxonomy{"nombre": "Nombre propio", "ciudad": "Nombre de una ciudad"}
)

func newTestClassifier(t *testing.T, p Provider, model string) *Classifier {
	t.Helper()
	c, err := New(p, Config{Model: model, Temperature: 0.2})
	require.NoError(t, err)
	return c
}

func TestClassify_Success(t *testing.T) {
	p := &fakeProvider{response: json.RawMessage(`{"intents":["saludo"],"entities":{"nombre":"Juan","ciudad":"Madrid"},"explanation":"Saludo con nombre","language":"es"}`)}
	c := newTestClassifier(t, p, "llama-3.3-70b-versatile")

	result, latency, err := c.Classify(context.Background(), "hola, soy Juan de Madrid", testIntents, testEntities)
	require.NoError(t, err)

	assert.Equal(t, []string{"saludo"}, result.Intents)
	assert.Equal(t, map[string]interface{}{"nombre": "Juan", "ciudad": "Madrid"}, result.Entities)
	assert.Equal(t, "es", result.Language)
	assert.GreaterOrEqual(t, latency, 0.0)

	assert.Equal(t, 1, p.calls)
	assert.Equal(t, "llama-3.3-70b-versatile", p.last.Model)
	assert.Equal(t, 0.2, p.last.Temperature)
	assert.Equal(t, models.ClassificationSchemaName, p.last.SchemaName)
	assert.NotEmpty(t, p.last.Schema)
	assert.Contains(t, p.last.Prompt, "hola, soy Juan de Madrid")
}

func TestClassify_EmptyCollectionsAreKept(t *testing.T) {
	p := &fakeProvider{response: json.RawMessage(`{"intents":[],"entities":{},"explanation":"nada","language":"en"}`)}
	c := newTestClassifier(t, p, "m")

	result, _, err := c.Classify(context.Background(), "asdf", testIntents, testEntities)
	require.NoError(t, err)
	assert.NotNil(t, result.Intents)
	assert.Empty(t, result.Intents)
	assert.NotNil(t, result.Entities)
}

func TestClassify_MissingModelName(t *testing.T) {
	p := &fakeProvider{}
	c := newTestClassifier(t, p, "  ")

	_, latency, err := c.Classify(context.Background(), "x", testIntents, testEntities)
	require.Error(t, err)
	assert.True(t, apperrors.IsConfigError(err))
	assert.Zero(t, latency)
	assert.Zero(t, p.calls)
}

func TestNew_NilProvider(t *testing.T) {
	_, err := New(nil, Config{Model: "m"})
	assert.True(t, apperrors.IsConfigError(err))
}

func TestClassify_ProviderFailure(t *testing.T) {
	t.Run("plain error becomes transport error", func(t *testing.T) {
		c := newTestClassifier(t, &fakeProvider{err: errors.New("connection refused")}, "m")
		_, latency, err := c.Classify(context.Background(), "x", testIntents, testEntities)
		assert.True(t, apperrors.IsTransportError(err))
		assert.Zero(t, latency)
	})

	t.Run("standard error passes through", func(t *testing.T) {
		c := newTestClassifier(t, &fakeProvider{err: apperrors.NewValidationError("no choices")}, "m")
		_, _, err := c.Classify(context.Background(), "x", testIntents, testEntities)
		assert.True(t, apperrors.IsValidationError(err))
	})
}

func TestClassify_InvalidResponse(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"not json", `I think the intent is saludo`},
		{"missing language", `{"intents":["saludo"],"entities":{},"explanation":"x"}`},
		{"intents not a list", `{"intents":"saludo","entities":{},"explanation":"x","language":"es"}`},
		{"entities not an object", `{"intents":[],"entities":[],"explanation":"x","language":"es"}`},
		{"array at top level", `[]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClassifier(t, &fakeProvider{response: json.RawMessage(tt.response)}, "m")
			result, latency, err := c.Classify(context.Background(), "x", testIntents, testEntities)
			require.Error(t, err)
			assert.True(t, apperrors.IsValidationError(err), "got %v", err)
			assert.Nil(t, result)
			assert.Zero(t, latency)
		})
	}
}
