// Package errors provides the standardized failure taxonomy shared by the
// HTTP surface, the Zeebe worker and the classification pipeline.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// ErrCodeConfig: required configuration absent or malformed.
	ErrCodeConfig ErrorCode = "CONFIG_ERROR"
	// ErrCodeInput: operator-supplied taxonomy text is not a JSON object of strings.
	ErrCodeInput ErrorCode = "INPUT_ERROR"
	// ErrCodeTransport: the model call could not complete.
	ErrCodeTransport ErrorCode = "TRANSPORT_ERROR"
	// ErrCodeValidation: the model answered but not in the Classification shape.
	ErrCodeValidation ErrorCode = "VALIDATION_ERROR"
	// ErrCodeSink: the audit append failed.
	ErrCodeSink ErrorCode = "SINK_ERROR"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	if e.Details == "" {
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata attaches a key/value pair and returns the same error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	for k, v := range e.ErrorVariables {
		vars[k] = v
	}

	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewConfigError reports a missing or malformed configuration value.
func NewConfigError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeConfig,
		Message:   "invalid configuration",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInputError reports taxonomy text that could not be parsed.
func NewInputError(field string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInput,
		Message:   fmt.Sprintf("%s is not a valid JSON object", field),
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewTransportError reports a model call that never produced a response body.
func NewTransportError(provider string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTransport,
		Message:   fmt.Sprintf("model request to %s failed", provider),
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewValidationError reports a model response that does not fit the
// Classification schema.
func NewValidationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidation,
		Message:   "model response does not match the classification schema",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSinkError reports a failed audit append.
func NewSinkError(sink string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSink,
		Message:   fmt.Sprintf("audit append to %s failed", sink),
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewInternalError wraps anything that is not already a StandardError.
func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// ==========================
// 4. Inspection Helpers
// ==========================

// AsStandard returns err as a *StandardError, wrapping it as INTERNAL_ERROR
// when no StandardError is found in the chain.
func AsStandard(err error) *StandardError {
	if err == nil {
		return nil
	}
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return NewInternalError(err)
}

// GetCode returns the ErrorCode carried by err, or "" for nil.
func GetCode(err error) ErrorCode {
	if err == nil {
		return ""
	}
	return AsStandard(err).Code
}

func IsConfigError(err error) bool     { return GetCode(err) == ErrCodeConfig }
func IsInputError(err error) bool      { return GetCode(err) == ErrCodeInput }
func IsTransportError(err error) bool  { return GetCode(err) == ErrCodeTransport }
func IsValidationError(err error) bool { return GetCode(err) == ErrCodeValidation }
func IsSinkError(err error) bool       { return GetCode(err) == ErrCodeSink }

// ==========================
// 5. BPMN Mapping
// ==========================

var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeConfig:     "CLASSIFIER_CONFIG_ERROR",
	ErrCodeInput:      "CLASSIFIER_INPUT_ERROR",
	ErrCodeTransport:  "CLASSIFIER_TRANSPORT_ERROR",
	ErrCodeValidation: "CLASSIFIER_VALIDATION_ERROR",
	ErrCodeSink:       "CLASSIFIER_SINK_ERROR",
	ErrCodeInternal:   "CLASSIFIER_INTERNAL_ERROR",
}

// GetRetryCount is zero for every code: a submission is a single attempt.
func GetRetryCount(code ErrorCode) int {
	return 0
}

func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   GetRetryCount(stdErr.Code),
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "CONFIG"):
		return "STARTUP"
	case strings.Contains(codeStr, "INPUT"):
		return "OPERATOR"
	case strings.Contains(codeStr, "TRANSPORT") || strings.Contains(codeStr, "VALIDATION"):
		return "MODEL"
	case strings.Contains(codeStr, "SINK"):
		return "AUDIT"
	default:
		return "OTHER"
	}
}
