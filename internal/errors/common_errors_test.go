package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name        string
		appError    *AppError
		wantMessage string
	}{
		{
			name: "error without cause",
			appError: &AppError{
				Type:    ErrTypeValidation,
				Message: "source is missing column Weight",
			},
			wantMessage: "[VALIDATION] source is missing column Weight",
		},
		{
			name: "error with cause",
			appError: &AppError{
				Type:    ErrTypeConnectivity,
				Message: "ping failed",
				Cause:   fmt.Errorf("connection refused"),
			},
			wantMessage: "[CONNECTIVITY] ping failed: connection refused",
		},
		{
			name: "error with empty message",
			appError: &AppError{
				Type: ErrTypeStorage,
			},
			wantMessage: "[STORAGE] ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMessage, tt.appError.Error())
		})
	}
}

func TestAppError_IsMatchesByType(t *testing.T) {
	cause := errors.New("dial tcp: i/o timeout")
	err := fmt.Errorf("verify connection: %w", NewConnectivityError("ping failed", cause))

	assert.True(t, errors.Is(err, ErrConnectivity))
	assert.True(t, IsConnectivity(err))
	assert.False(t, errors.Is(err, ErrShapeMismatch))
	assert.True(t, errors.Is(err, cause), "cause stays reachable through Unwrap")

	shape := NewShapeMismatchError(16, 17)
	assert.True(t, errors.Is(shape, ErrShapeMismatch))
	assert.False(t, IsConnectivity(shape))
	assert.Equal(t, 16, shape.Context["got"])
	assert.Equal(t, 17, shape.Context["want"])
}

func TestTypeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"publication", NewPublicationError("upload failed", nil), ErrTypePublication},
		{"wrapped parsing", fmt.Errorf("read: %w", NewParsingError("bad row", nil)), ErrTypeParsing},
		{"config", NewConfigError("missing host", nil), ErrTypeConfig},
		{"plain error", errors.New("boom"), ""},
		{"nil", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TypeOf(tt.err))
		})
	}
}

func TestAppError_WithContext(t *testing.T) {
	err := &AppError{Type: ErrTypeStorage, Message: "insert failed"}

	got := err.WithContext("table", "SP500").WithContext("batch", 2)

	require.Same(t, err, got)
	assert.Equal(t, map[string]interface{}{"table": "SP500", "batch": 2}, err.Context)
}

func TestNewAppError(t *testing.T) {
	cause := errors.New("no such file")
	err := NewAppError(ErrTypeParsing, "open source", cause)

	assert.Equal(t, ErrTypeParsing, err.Type)
	assert.Equal(t, "open source", err.Message)
	assert.Equal(t, cause, err.Unwrap())
	assert.NotNil(t, err.Context)

	var appErr *AppError
	require.True(t, errors.As(fmt.Errorf("outer: %w", err), &appErr))
	assert.Equal(t, ErrTypeParsing, appErr.Type)
}
