package dataset

import (
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// keySeparator joins encoded values into a grouping/join key
const keySeparator = "\x1f"

// IsMissing reports whether v is a null-equivalent cell (nil or NaN)
func IsMissing(v any) bool {
	if v == nil {
		return true
	}
	if f, ok := v.(float64); ok && math.IsNaN(f) {
		return true
	}
	return false
}

// Normalize converts a driver or caller value into one of the cell types
// nil, string, int64 or float64.
func Normalize(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		return val
	case []byte:
		return string(val)
	case int64:
		return val
	case int, int8, int16, int32, uint, uint8, uint16, uint32, uint64:
		return cast.ToInt64(val)
	case float64:
		if math.IsNaN(val) {
			return nil
		}
		return val
	case float32:
		// MySQL FLOAT columns arrive as float32; keep their shortest decimal form
		f, _ := strconv.ParseFloat(strconv.FormatFloat(float64(val), 'g', -1, 32), 64)
		if math.IsNaN(f) {
			return nil
		}
		return f
	default:
		return cast.ToString(val)
	}
}

// ParseCell infers a typed value from a text cell; empty cells are missing
func ParseCell(s string) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if math.IsNaN(f) {
			return nil
		}
		return f
	}
	return s
}

// ToFloat coerces a numeric cell to float64; missing and non-numeric cells are 0
func ToFloat(v any) float64 {
	if IsMissing(v) {
		return 0
	}
	return cast.ToFloat64(v)
}

func isNumeric(v any) bool {
	switch v.(type) {
	case int64, float64:
		return true
	}
	return false
}

// encodeKey builds a comparable key for a tuple of cells. Numbers compare by
// value so int64(1) and float64(1) land in the same group.
func encodeKey(values []any) string {
	var b strings.Builder
	for i, v := range values {
		if i > 0 {
			b.WriteString(keySeparator)
		}
		switch val := v.(type) {
		case nil:
			b.WriteString("\x00")
		case string:
			b.WriteString("s:")
			b.WriteString(val)
		case int64:
			b.WriteString("n:")
			b.WriteString(strconv.FormatInt(val, 10))
		case float64:
			if math.IsNaN(val) {
				b.WriteString("\x00")
				continue
			}
			b.WriteString("n:")
			// Integral floats share the int form so 1 and 1.0 group together
			if val == math.Trunc(val) && val >= math.MinInt64 && val < math.MaxInt64 {
				b.WriteString(strconv.FormatInt(int64(val), 10))
			} else {
				b.WriteString(strconv.FormatFloat(val, 'g', -1, 64))
			}
		default:
			b.WriteString("s:")
			b.WriteString(cast.ToString(val))
		}
	}
	return b.String()
}

// compareValues orders cells: missing first, then numbers, then strings
func compareValues(a, b any) int {
	am, bm := IsMissing(a), IsMissing(b)
	switch {
	case am && bm:
		return 0
	case am:
		return -1
	case bm:
		return 1
	}

	an, bn := isNumeric(a), isNumeric(b)
	switch {
	case an && bn:
		af, bf := ToFloat(a), ToFloat(b)
		if af < bf {
			return -1
		}
		if af > bf {
			return 1
		}
		return 0
	case an:
		return -1
	case bn:
		return 1
	}
	return strings.Compare(cast.ToString(a), cast.ToString(b))
}

func compareTuples(a, b []any) int {
	for i := range a {
		if c := compareValues(a[i], b[i]); c != 0 {
			return c
		}
	}
	return 0
}
