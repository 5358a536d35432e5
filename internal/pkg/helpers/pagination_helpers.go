package helpers

import (
	"fmt"
	"math"
	"strconv"
)

const (
	DefaultHistoryLimit = 10
	MaxHistoryLimit     = 100
)

// ClampLimit bounds a requested row count to [1, max]; zero or negative
// requests fall back to def.
func ClampLimit(requested, def, max int) int {
	if requested <= 0 {
		requested = def
	}
	if requested > max {
		return max
	}
	if requested < 1 {
		return 1
	}
	return requested
}

// ParseLimitParam parses a "limit" query or body value.
func ParseLimitParam(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid limit %q", raw)
	}
	return n, nil
}

// ToFloat converts a decoded JSON value into a float64. Numeric strings are
// accepted because older clients send quantities as form strings.
func ToFloat(v interface{}) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case string:
		parsed, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
