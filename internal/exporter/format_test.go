package exporter

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected string
	}{
		{
			name:     "zero value",
			input:    0.0,
			expected: "0.0",
		},
		{
			name:     "positive integer",
			input:    300.0,
			expected: "300.0",
		},
		{
			name:     "negative integer",
			input:    -456.0,
			expected: "-456.0",
		},
		{
			name:     "decimal keeps shortest form",
			input:    0.0625,
			expected: "0.0625",
		},
		{
			name:     "large value without exponent",
			input:    1.2e11,
			expected: "120000000000.0",
		},
		{
			name:     "NaN is empty",
			input:    math.NaN(),
			expected: "",
		},
		{
			name:     "positive infinity",
			input:    math.Inf(1),
			expected: "inf",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatFloat(tt.input))
		})
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"missing", nil, ""},
		{"string", "NYSE", "NYSE"},
		{"int", int64(3000000), "3000000"},
		{"negative int", int64(-7), "-7"},
		{"float", 189.5, "189.5"},
		{"other", true, "true"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatValue(tt.input))
		})
	}
}
