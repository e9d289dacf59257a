package wizard

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the canonical textual form of date values.
const DateLayout = "2006-01-02"

// Value wraps a raw FormState entry with the coercions rules need.
type Value struct {
	raw any
}

// ValueOf wraps raw.
func ValueOf(raw any) Value {
	return Value{raw: raw}
}

// Raw returns the wrapped value.
func (v Value) Raw() any {
	return v.raw
}

// IsEmpty reports whether the value counts as absent: nil, a blank string or
// a zero time.
func (v Value) IsEmpty() bool {
	switch typed := v.raw.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(typed) == ""
	case time.Time:
		return typed.IsZero()
	case *time.Time:
		return typed == nil || typed.IsZero()
	default:
		return false
	}
}

// String returns the trimmed textual form of the value.
func (v Value) String() string {
	switch typed := v.raw.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(typed)
	case time.Time:
		return typed.Format(DateLayout)
	case *time.Time:
		if typed == nil {
			return ""
		}
		return typed.Format(DateLayout)
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(typed), 'f', -1, 32)
	case int:
		return strconv.Itoa(typed)
	case int64:
		return strconv.FormatInt(typed, 10)
	case int32:
		return strconv.FormatInt(int64(typed), 10)
	case json.Number:
		return typed.String()
	case bool:
		return strconv.FormatBool(typed)
	default:
		return ""
	}
}

// Float returns the numeric form of the value. Strings are parsed; NaN and
// infinities are rejected.
func (v Value) Float() (float64, bool) {
	var f float64
	switch typed := v.raw.(type) {
	case float64:
		f = typed
	case float32:
		f = float64(typed)
	case int:
		f = float64(typed)
	case int64:
		f = float64(typed)
	case int32:
		f = float64(typed)
	case json.Number:
		parsed, err := typed.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(typed), 64)
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

// Int returns the integral form of the value. Fractional numbers fail.
func (v Value) Int() (int, bool) {
	f, ok := v.Float()
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

// Time returns the date form of the value. Strings are parsed as DateLayout
// or RFC 3339.
func (v Value) Time() (time.Time, bool) {
	switch typed := v.raw.(type) {
	case time.Time:
		return typed, !typed.IsZero()
	case *time.Time:
		if typed == nil || typed.IsZero() {
			return time.Time{}, false
		}
		return *typed, true
	case string:
		trimmed := strings.TrimSpace(typed)
		for _, layout := range []string{DateLayout, time.RFC3339, time.RFC3339Nano} {
			if parsed, err := time.Parse(layout, trimmed); err == nil {
				return parsed, true
			}
		}
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}
