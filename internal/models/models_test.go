package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intent-classifier/internal/common/validation"
)

func TestParseTaxonomy(t *testing.T) {
	tax, err := ParseTaxonomy(`{"nombre": "Nombre propio", "ciudad": "Nombre de una ciudad"}`)
	require.NoError(t, err)
	assert.Equal(t, Taxonomy{"nombre": "Nombre propio", "ciudad": "Nombre de una ciudad"}, tax)
	assert.Equal(t, []string{"ciudad", "nombre"}, tax.Names())
}

func TestParseTaxonomy_Empty(t *testing.T) {
	tax, err := ParseTaxonomy(`{}`)
	require.NoError(t, err)
	assert.Empty(t, tax)
	assert.Equal(t, "", tax.Describe())
}

func TestParseTaxonomy_Invalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty string", ""},
		{"truncated", `{"saludo": "Detectar saludos"`},
		{"array", `["saludo"]`},
		{"null", `null`},
		{"non-string value", `{"saludo": 1}`},
		{"trailing garbage", `{"saludo": "x"} {"b": "y"}`},
		{"single quotes", `{'saludo': 'x'}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTaxonomy(tt.raw)
			assert.Error(t, err)
		})
	}
}

func TestTaxonomyText(t *testing.T) {
	assert.Equal(t, `{"a": "b"}`, TaxonomyText(json.RawMessage(` {"a": "b"} `)))
	assert.Equal(t, `{"a": "b"}`, TaxonomyText(json.RawMessage(`"{\"a\": \"b\"}"`)))
	assert.Equal(t, "", TaxonomyText(nil))
	assert.Equal(t, "null", TaxonomyText(json.RawMessage(`null`)))
}

func TestTaxonomy_Describe(t *testing.T) {
	tax := Taxonomy{"saludo": "Detectar saludos", "despedida": "Detectar despedidas"}
	assert.Equal(t, "- despedida: Detectar despedidas\n- saludo: Detectar saludos", tax.Describe())
}

func TestEncodeJSON_PreservesNonASCII(t *testing.T) {
	got := EncodeJSON(Taxonomy{"ciudad": "Ciudad española <capital> & más"})
	assert.Equal(t, `{"ciudad":"Ciudad española <capital> & más"}`, got)
}

func TestClassification_Normalize(t *testing.T) {
	c := &Classification{Explanation: "x", Language: "en"}
	c.Normalize()

	assert.NotNil(t, c.Intents)
	assert.NotNil(t, c.Entities)

	data, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, `{"intents":[],"entities":{},"explanation":"x","language":"en"}`, string(data))
}

func TestClassificationSchema_Compiles(t *testing.T) {
	v, err := validation.NewValidator(ClassificationSchema())
	require.NoError(t, err)

	res, err := v.Validate([]byte(`{"intents":["saludo"],"entities":{"nombre":"Juan"},"explanation":"x","language":"es"}`))
	require.NoError(t, err)
	assert.True(t, res.Valid)

	res, err = v.Validate([]byte(`{"intents":["saludo"],"entities":{"nombre":"Juan"},"explanation":"x"}`))
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.True(t, res.HasErrors("language"))
}

func TestNewAuditRow(t *testing.T) {
	now := time.Date(2025, 3, 9, 14, 5, 7, 0, time.Local)
	rec := AuditRecord{
		Input:    "hola, soy Juan de Madrid",
		Intents:  Taxonomy{"saludo": "Detectar saludos"},
		Entities: Taxonomy{"nombre": "Nombre propio", "ciudad": "Nombre de una ciudad"},
		Result: &Classification{
			Intents:     []string{"saludo"},
			Entities:    map[string]interface{}{"nombre": "Juan", "ciudad": "Madrid"},
			Explanation: "Saludo con nombre y ciudad",
			Language:    "es",
		},
		ResponseTime: 0.4567,
	}
	model := ModelInfo{Name: "llama-3.3-70b-versatile", Provider: "groq", Temperature: 0}

	row := NewAuditRow("demo", now, model, rec)

	assert.Equal(t, []interface{}{
		"demo",
		"2025-03-09",
		"14:05:07",
		"hola, soy Juan de Madrid",
		`{"saludo":"Detectar saludos"}`,
		`{"ciudad":"Nombre de una ciudad","nombre":"Nombre propio"}`,
		`["saludo"]`,
		`{"ciudad":"Madrid","nombre":"Juan"}`,
		"Saludo con nombre y ciudad",
		"es",
		"0.46",
		"llama-3.3-70b-versatile",
		"groq",
		0.0,
	}, row.Values())
	assert.Len(t, row.Values(), len(AuditColumns))
}

func TestNewAuditRow_MissingResultFields(t *testing.T) {
	row := NewAuditRow("demo", time.Now(), ModelInfo{}, AuditRecord{Input: "x"})

	assert.Equal(t, "{}", row.IntentsTaxonomy)
	assert.Equal(t, "[]", row.ResultIntents)
	assert.Equal(t, "{}", row.ResultEntities)
	assert.Equal(t, "", row.Explanation)
	assert.Equal(t, "", row.Language)
	assert.Equal(t, "0.00", row.ResponseTime)
}
