package exporter

import (
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// formatValue renders a cell for CSV output. Missing cells are empty.
func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case int64:
		return formatInt(val)
	case float64:
		return formatFloat(val)
	default:
		return cast.ToString(val)
	}
}

// formatFloat renders the shortest exact decimal and always keeps a
// fractional part, so 300 is written as 300.0 and reads back as a float
func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return ""
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// formatInt formats an int64 value for CSV output
func formatInt(i int64) string {
	return strconv.FormatInt(i, 10)
}
