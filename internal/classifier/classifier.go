// Package classifier turns free text plus two taxonomies into a validated
// Classification by way of a single model request.
package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	apperrors "intent-classifier/internal/common/errors"
	"intent-classifier/internal/common/validation"
	"intent-classifier/internal/models"
)

// Request is one structured-output completion call.
type Request struct {
	Prompt      string
	Schema      validation.JSONSchema
	SchemaName  string
	Model       string
	Temperature float64
}

// Provider sends a prompt to a remote model and returns the raw JSON
// object it produced.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req Request) (json.RawMessage, error)
}

type Config struct {
	Model       string
	Temperature float64
}

type Classifier struct {
	provider    Provider
	model       string
	temperature float64
	schema      validation.JSONSchema
	validator   *validation.Validator
}

func New(provider Provider, cfg Config) (*Classifier, error) {
	if provider == nil {
		return nil, apperrors.NewConfigError("model provider is not configured")
	}

	schema := models.ClassificationSchema()
	validator, err := validation.NewValidator(schema)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	return &Classifier{
		provider:    provider,
		model:       strings.TrimSpace(cfg.Model),
		temperature: cfg.Temperature,
		schema:      schema,
		validator:   validator,
	}, nil
}

// Model reports the configured model name and temperature.
func (c *Classifier) Model() (string, float64) {
	return c.model, c.temperature
}

// ProviderName is the name of the underlying provider.
func (c *Classifier) ProviderName() string {
	return c.provider.Name()
}

// Classify sends one request and returns the validated result with the
// elapsed wall-clock seconds of the provider call. Latency is 0 on error.
func (c *Classifier) Classify(ctx context.Context, userInput string, intents, entities models.Taxonomy) (*models.Classification, float64, error) {
	if c.model == "" {
		return nil, 0, apperrors.NewConfigError("model name is not set")
	}

	req := Request{
		Prompt:      BuildPrompt(userInput, intents, entities),
		Schema:      c.schema,
		SchemaName:  models.ClassificationSchemaName,
		Model:       c.model,
		Temperature: c.temperature,
	}

	start := time.Now()
	raw, err := c.provider.Complete(ctx, req)
	latency := time.Since(start).Seconds()
	if err != nil {
		if apperrors.GetCode(err) == apperrors.ErrCodeInternal {
			return nil, 0, apperrors.NewTransportError(c.provider.Name(), err)
		}
		return nil, 0, err
	}
	if latency < 0 {
		latency = 0
	}

	result, err := c.decode(raw)
	if err != nil {
		return nil, 0, err
	}
	return result, latency, nil
}

func (c *Classifier) decode(raw json.RawMessage) (*models.Classification, error) {
	res, err := c.validator.Validate(raw)
	if err != nil {
		return nil, apperrors.NewValidationError(fmt.Sprintf("response is not JSON: %v", err))
	}
	if !res.Valid {
		return nil, apperrors.NewValidationError(res.String())
	}

	var result models.Classification
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}
	result.Normalize()
	return &result, nil
}
