package classifyinput

import (
	"encoding/json"

	"intent-classifier/internal/common/validation"
	"intent-classifier/internal/models"
)

// Input is read from the job variables. Taxonomies may be JSON objects or
// strings holding JSON objects.
type Input struct {
	Input    string          `json:"input"`
	Intents  json.RawMessage `json:"intents"`
	Entities json.RawMessage `json:"entities"`
}

type Output struct {
	Classification *models.Classification `json:"classification"`
	ResponseTime   float64                `json:"responseTime"`
	SubmissionID   string                 `json:"submissionId"`
}

// ToVariables returns the process variables set on job completion.
func (o *Output) ToVariables() map[string]interface{} {
	return map[string]interface{}{
		"classification": o.Classification,
		"responseTime":   o.ResponseTime,
		"submissionId":   o.SubmissionID,
	}
}

func GetInputSchema() validation.JSONSchema {
	taxonomy := map[string]interface{}{
		"type": []interface{}{"object", "string"},
	}
	return validation.JSONSchema{
		"type": "object",
		"properties": map[string]interface{}{
			"input":    map[string]interface{}{"type": "string"},
			"intents":  taxonomy,
			"entities": taxonomy,
		},
		"required": []interface{}{"input", "intents", "entities"},
	}
}
