// internal/models/audit.go
package models

import (
	"fmt"
	"time"
)

// AuditColumns is the column order of every audit row.
var AuditColumns = []string{
	"label",
	"date",
	"time",
	"input_text",
	"intents_taxonomy",
	"entities_taxonomy",
	"result_intents",
	"result_entities",
	"explanation",
	"language",
	"response_time",
	"model_name",
	"model_provider",
	"temperature",
}

// ModelInfo identifies the model configuration that produced a result.
type ModelInfo struct {
	Name        string  `json:"name"`
	Provider    string  `json:"provider"`
	Temperature float64 `json:"temperature"`
}

// AuditRecord is everything a completed submission hands to the auditor.
type AuditRecord struct {
	Input        string
	Intents      Taxonomy
	Entities     Taxonomy
	Result       *Classification
	ResponseTime float64
}

// AuditRow is the flattened, append-only representation of one submission.
type AuditRow struct {
	Label            string  `json:"label"`
	Date             string  `json:"date"`
	Time             string  `json:"time"`
	InputText        string  `json:"input_text"`
	IntentsTaxonomy  string  `json:"intents_taxonomy"`
	EntitiesTaxonomy string  `json:"entities_taxonomy"`
	ResultIntents    string  `json:"result_intents"`
	ResultEntities   string  `json:"result_entities"`
	Explanation      string  `json:"explanation"`
	Language         string  `json:"language"`
	ResponseTime     string  `json:"response_time"`
	ModelName        string  `json:"model_name"`
	ModelProvider    string  `json:"model_provider"`
	Temperature      float64 `json:"temperature"`
}

// NewAuditRow flattens rec using the local wall clock value now.
func NewAuditRow(label string, now time.Time, model ModelInfo, rec AuditRecord) AuditRow {
	result := rec.Result
	if result == nil {
		result = &Classification{}
	}

	intents := result.Intents
	if intents == nil {
		intents = []string{}
	}
	entities := result.Entities
	if entities == nil {
		entities = map[string]interface{}{}
	}

	return AuditRow{
		Label:            label,
		Date:             now.Format("2006-01-02"),
		Time:             now.Format("15:04:05"),
		InputText:        rec.Input,
		IntentsTaxonomy:  EncodeJSON(nonNilTaxonomy(rec.Intents)),
		EntitiesTaxonomy: EncodeJSON(nonNilTaxonomy(rec.Entities)),
		ResultIntents:    EncodeJSON(intents),
		ResultEntities:   EncodeJSON(entities),
		Explanation:      result.Explanation,
		Language:         result.Language,
		ResponseTime:     fmt.Sprintf("%.2f", rec.ResponseTime),
		ModelName:        model.Name,
		ModelProvider:    model.Provider,
		Temperature:      model.Temperature,
	}
}

// Values returns the row cells in AuditColumns order.
func (r AuditRow) Values() []interface{} {
	return []interface{}{
		r.Label,
		r.Date,
		r.Time,
		r.InputText,
		r.IntentsTaxonomy,
		r.EntitiesTaxonomy,
		r.ResultIntents,
		r.ResultEntities,
		r.Explanation,
		r.Language,
		r.ResponseTime,
		r.ModelName,
		r.ModelProvider,
		r.Temperature,
	}
}

func nonNilTaxonomy(t Taxonomy) Taxonomy {
	if t == nil {
		return Taxonomy{}
	}
	return t
}

// Submission is one operator request after its taxonomies were parsed.
type Submission struct {
	ID       string   `json:"id"`
	Input    string   `json:"input"`
	Intents  Taxonomy `json:"intents"`
	Entities Taxonomy `json:"entities"`
}
