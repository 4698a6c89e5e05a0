package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStandardError_Message(t *testing.T) {
	err := NewTransportError("groq", stderrors.New("dial tcp: connection refused"))

	assert.Equal(t, "[TRANSPORT_ERROR] model request to groq failed: dial tcp: connection refused", err.Error())
	assert.False(t, err.Retryable)
	assert.False(t, err.Timestamp.IsZero())
}

func TestStandardError_NoDetails(t *testing.T) {
	err := &StandardError{Code: ErrCodeInternal, Message: "boom"}
	assert.Equal(t, "[INTERNAL_ERROR] boom", err.Error())
}

func TestStandardError_Unwrap(t *testing.T) {
	cause := stderrors.New("sheet unreachable")
	err := NewSinkError("sheets", cause)

	assert.True(t, stderrors.Is(err, cause))
}

func TestGetCode_ThroughWrapping(t *testing.T) {
	base := NewValidationError("missing property language")
	wrapped := fmt.Errorf("classify: %w", base)

	assert.Equal(t, ErrCodeValidation, GetCode(wrapped))
	assert.True(t, IsValidationError(wrapped))
	assert.False(t, IsTransportError(wrapped))
}

func TestAsStandard(t *testing.T) {
	assert.Nil(t, AsStandard(nil))
	assert.Equal(t, ErrorCode(""), GetCode(nil))

	plain := stderrors.New("plain")
	std := AsStandard(plain)
	require.NotNil(t, std)
	assert.Equal(t, ErrCodeInternal, std.Code)
	assert.True(t, stderrors.Is(std, plain))
}

func TestIsHelpers(t *testing.T) {
	tests := []struct {
		name string
		err  error
		is   func(error) bool
	}{
		{"config", NewConfigError("model.api_key is required"), IsConfigError},
		{"input", NewInputError("intents", stderrors.New("unexpected end of JSON input")), IsInputError},
		{"transport", NewTransportError("openai", stderrors.New("timeout")), IsTransportError},
		{"validation", NewValidationError("intents: invalid type"), IsValidationError},
		{"sink", NewSinkError("redis", stderrors.New("READONLY")), IsSinkError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.is(tt.err))
		})
	}
}

func TestConvertToBPMNError(t *testing.T) {
	stdErr := NewInputError("entities", stderrors.New("invalid character 'x'"))
	bpmn := ConvertToBPMNError(stdErr)

	assert.Equal(t, "CLASSIFIER_INPUT_ERROR", bpmn.Code)
	assert.Equal(t, 0, bpmn.Retries)

	vars := bpmn.ToErrorVariables()
	assert.Equal(t, "CLASSIFIER_INPUT_ERROR", vars["errorCode"])
	assert.Equal(t, "INPUT_ERROR", vars["originalErrorCode"])
}

func TestConvertToBPMNError_UnknownCode(t *testing.T) {
	bpmn := ConvertToBPMNError(&StandardError{Code: "SOMETHING_ELSE", Message: "x"})
	assert.Equal(t, "SOMETHING_ELSE", bpmn.Code)
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "STARTUP", GetErrorCategory(ErrCodeConfig))
	assert.Equal(t, "OPERATOR", GetErrorCategory(ErrCodeInput))
	assert.Equal(t, "MODEL", GetErrorCategory(ErrCodeTransport))
	assert.Equal(t, "MODEL", GetErrorCategory(ErrCodeValidation))
	assert.Equal(t, "AUDIT", GetErrorCategory(ErrCodeSink))
	assert.Equal(t, "OTHER", GetErrorCategory(ErrCodeInternal))
}

func TestWithMetadata(t *testing.T) {
	err := NewConfigError("x").WithMetadata("key", "audit.sheets.url")
	assert.Equal(t, "audit.sheets.url", err.Metadata["key"])
}
