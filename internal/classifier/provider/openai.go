// Package provider holds Provider implementations for the classifier.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"intent-classifier/internal/classifier"
	apperrors "intent-classifier/internal/common/errors"
	apphttp "intent-classifier/internal/common/http"
)

// maxErrorText bounds how much of a non-JSON error body reaches the caller.
const maxErrorText = 256

const (
	ResponseFormatJSONSchema = "json_schema"
	ResponseFormatJSONObject = "json_object"
)

var defaultBaseURLs = map[string]string{
	"groq":   "https://api.groq.com/openai/v1",
	"openai": "https://api.openai.com/v1",
	"ollama": "http://localhost:11434/v1",
}

// Config selects an OpenAI-compatible endpoint. BaseURL overrides the
// address derived from Provider.
type Config struct {
	Provider       string
	BaseURL        string
	APIKey         string
	ResponseFormat string
	Timeout        time.Duration
	HTTPClient     *http.Client
}

// OpenAICompatible calls POST {base}/chat/completions with a single user
// message and a structured-output response format.
type OpenAICompatible struct {
	name    string
	baseURL string
	apiKey  string
	format  string
	client  *apphttp.Client
}

func NewOpenAICompatible(cfg Config) (*OpenAICompatible, error) {
	name := strings.ToLower(strings.TrimSpace(cfg.Provider))

	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURLs[name]
	}
	if baseURL == "" {
		return nil, apperrors.NewConfigError(fmt.Sprintf("no endpoint known for model provider %q; set model.base_url", cfg.Provider))
	}
	if name == "" {
		name = "openai-compatible"
	}

	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, apperrors.NewConfigError("model API key is required")
	}

	format := strings.ToLower(strings.TrimSpace(cfg.ResponseFormat))
	switch format {
	case "":
		format = ResponseFormatJSONSchema
	case ResponseFormatJSONSchema, ResponseFormatJSONObject:
	default:
		return nil, apperrors.NewConfigError(fmt.Sprintf("unsupported response format %q", cfg.ResponseFormat))
	}

	var client *apphttp.Client
	if cfg.HTTPClient != nil {
		client = apphttp.NewClientWith(cfg.HTTPClient)
	} else {
		client = apphttp.NewClient(cfg.Timeout)
	}

	return &OpenAICompatible{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		format:  format,
		client:  client,
	}, nil
}

func (p *OpenAICompatible) Name() string {
	return p.name
}

// Complete sends one request and returns the JSON object found in the
// first choice. Transport failures and non-200 statuses are TRANSPORT_ERROR;
// a response without usable content is VALIDATION_ERROR.
func (p *OpenAICompatible) Complete(ctx context.Context, req classifier.Request) (json.RawMessage, error) {
	payload, err := p.buildPayload(req)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	resp, err := p.client.PostJSON(ctx, p.baseURL+"/chat/completions", map[string]string{
		"Authorization": "Bearer " + p.apiKey,
	}, payload)
	if err != nil {
		return nil, apperrors.NewTransportError(p.name, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewTransportError(p.name, fmt.Errorf("status %d: %s", resp.StatusCode, apiErrorMessage(resp.Body))).
			WithMetadata("status", resp.StatusCode)
	}

	var decoded chatCompletionResponse
	if err := json.Unmarshal(resp.Body, &decoded); err != nil {
		return nil, apperrors.NewValidationError(fmt.Sprintf("decode provider response: %v", err))
	}
	if len(decoded.Choices) == 0 {
		return nil, apperrors.NewValidationError("provider returned no choices")
	}

	content := normalizeJSONBlock(decoded.Choices[0].Message.Content)
	if content == "" {
		return nil, apperrors.NewValidationError("provider returned empty content")
	}
	return json.RawMessage(content), nil
}

func (p *OpenAICompatible) buildPayload(req classifier.Request) (chatCompletionRequest, error) {
	payload := chatCompletionRequest{
		Model:       req.Model,
		Temperature: req.Temperature,
	}

	switch p.format {
	case ResponseFormatJSONObject:
		schema, err := json.Marshal(req.Schema)
		if err != nil {
			return payload, fmt.Errorf("marshal schema: %w", err)
		}
		payload.Messages = []chatMessage{
			{Role: "system", Content: "Reply with a single JSON object that conforms to this JSON schema and nothing else:\n" + string(schema)},
			{Role: "user", Content: req.Prompt},
		}
		payload.ResponseFormat = responseFormat{Type: ResponseFormatJSONObject}
	default:
		payload.Messages = []chatMessage{{Role: "user", Content: req.Prompt}}
		// strict mode rejects free-form objects such as entities.
		payload.ResponseFormat = responseFormat{
			Type: ResponseFormatJSONSchema,
			JSONSchema: &jsonSchemaFormat{
				Name:   req.SchemaName,
				Schema: req.Schema,
				Strict: false,
			},
		}
	}
	return payload, nil
}

// normalizeJSONBlock strips surrounding code fences and prose, keeping the
// outermost JSON object.
func normalizeJSONBlock(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```")
		if idx := strings.IndexRune(trimmed, '\n'); idx >= 0 {
			trimmed = trimmed[idx+1:]
		}
		trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	}
	trimmed = strings.TrimSpace(trimmed)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start >= 0 && end >= start {
		return strings.TrimSpace(trimmed[start : end+1])
	}
	return trimmed
}

func apiErrorMessage(body []byte) string {
	var apiErr struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		return apiErr.Error.Message
	}
	text := strings.TrimSpace(string(body))
	if len(text) > maxErrorText {
		cut := maxErrorText
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}
	return text
}
