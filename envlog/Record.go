// Package envlog implements the environment's diagnostic records: the
// ordered key-value info returned from every step, its text rendering,
// and the console and file sinks behind the environment's logging
// modes.
package envlog

import (
	"math"
	"strconv"
	"strings"
)

// Field is one named diagnostic value. Supported value types are
// bool, int, float64 and []float64.
type Field struct {
	Key   string
	Value any
}

// Record is an ordered list of diagnostic fields; insertion order is
// rendering order
type Record []Field

// Append adds fields to the record
func (r Record) Append(fields ...Field) Record {
	return append(r, fields...)
}

// Get returns the value stored under key
func (r Record) Get(key string) (any, bool) {
	for _, f := range r {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// String renders the record as a single "key: value, ..." line.
// Arrays render as space-separated rounded numbers, booleans as 0/1,
// and keys containing "time" in fixed-point above 0.01 and scientific
// notation below it.
func (r Record) String() string {
	if len(r) == 0 {
		return ""
	}
	parts := make([]string, len(r))
	for i, f := range r {
		parts[i] = f.Key + ": " + formatValue(f.Key, f.Value)
	}
	return strings.Join(parts, ", ") + ","
}

func formatValue(key string, v any) string {
	switch val := v.(type) {
	case []float64:
		elems := make([]string, len(val))
		for i, e := range val {
			elems[i] = formatFloat(round3(e))
		}
		return strings.Join(elems, " ")
	case bool:
		if val {
			return "1"
		}
		return "0"
	case int:
		return strconv.Itoa(val)
	case float64:
		if strings.Contains(key, "time") && val <= 0.01 {
			return strconv.FormatFloat(val, 'e', 2, 64)
		}
		return formatFloat(round3(val))
	default:
		return "?"
	}
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
