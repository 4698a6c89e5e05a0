// internal/models/classification.go
package models

import "intent-classifier/internal/common/validation"

// ClassificationSchemaName is the name the output schema is registered
// under in provider requests.
const ClassificationSchemaName = "Classification"

// Classification is the structured result returned by the model.
type Classification struct {
	Intents     []string               `json:"intents"`
	Entities    map[string]interface{} `json:"entities"`
	Explanation string                 `json:"explanation"`
	Language    string                 `json:"language"`
}

// Normalize replaces nil collections with empty ones so a result never
// omits a field when serialized.
func (c *Classification) Normalize() {
	if c.Intents == nil {
		c.Intents = []string{}
	}
	if c.Entities == nil {
		c.Entities = map[string]interface{}{}
	}
}

// ClassificationSchema is the required output shape sent to the provider
// and used to validate what comes back.
func ClassificationSchema() validation.JSONSchema {
	return validation.JSONSchema{
		"type":  "object",
		"title": ClassificationSchemaName,
		"properties": map[string]interface{}{
			"intents": map[string]interface{}{
				"type":        "array",
				"items":       map[string]interface{}{"type": "string"},
				"description": "List of intents detected in the user's input.",
			},
			"entities": map[string]interface{}{
				"type":        "object",
				"description": "Dictionary of extracted entities and their values.",
			},
			"explanation": map[string]interface{}{
				"type":        "string",
				"description": "Explanation of how the intents and entities were identified.",
			},
			"language": map[string]interface{}{
				"type":        "string",
				"description": "Language code (ISO 639-1) of the input, e.g., 'en' or 'es'.",
			},
		},
		"required": []interface{}{"intents", "entities", "explanation", "language"},
	}
}
