package model

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Answers maps question ids to submitted values. Values are whatever the
// client sent: strings, booleans, numbers, lists or nested maps.
type Answers map[string]any

// ApplicantData is the canonical, flat applicant record built from answers
// and OCR output. Keys are semantic field names such as passport_number.
type ApplicantData map[string]any

// Has reports whether key holds a present, non-empty value.
func (d ApplicantData) Has(key string) bool {
	v, ok := d[key]
	return ok && IsPresent(v)
}

// Text returns the formatted value for key, or false when absent or empty.
func (d ApplicantData) Text(key string) (string, bool) {
	v, ok := d[key]
	if !ok || !IsPresent(v) {
		return "", false
	}
	s := FormatValue(v)
	if strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}

// Clone returns a shallow copy of d.
func (d ApplicantData) Clone() ApplicantData {
	out := make(ApplicantData, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// IsPresent reports whether v carries information. Nil, blank strings and
// empty collections are absent; false and zero are present.
func IsPresent(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(t) != ""
	case []any:
		return len(t) > 0
	case []string:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return true
	}
}

// ParseYesNo interprets v as a yes/no answer. The second return is false
// when v is not boolean-like.
func ParseYesNo(v any) (bool, bool) {
	switch t := v.(type) {
	case bool:
		return t, true
	case string:
		switch strings.TrimSpace(t) {
		case "Yes", "yes", "YES", "true", "True", "TRUE", "Y", "y":
			return true, true
		case "No", "no", "NO", "false", "False", "FALSE", "N", "n":
			return false, true
		}
	case float64:
		return t != 0, true
	case int:
		return t != 0, true
	case json.Number:
		f, err := t.Float64()
		if err == nil {
			return f != 0, true
		}
	}
	return false, false
}

// IsTruthy reports whether v is an affirmative flag or, for non-boolean
// values, a present one.
func IsTruthy(v any) bool {
	if b, ok := ParseYesNo(v); ok {
		return b
	}
	return IsPresent(v)
}

// IsExplicitFalse reports whether v is a negative yes/no answer. Absent or
// non-boolean values are not explicitly false.
func IsExplicitFalse(v any) bool {
	b, ok := ParseYesNo(v)
	return ok && !b
}

// FormatValue renders v as form-field text. Whole floats keep one decimal
// place so 20635 becomes "20635.0"; booleans render as Yes/No.
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		if t {
			return "Yes"
		}
		return "No"
	case float64:
		return formatFloat(t)
	case float32:
		return formatFloat(float64(t))
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case json.Number:
		if f, err := t.Float64(); err == nil && strings.ContainsAny(t.String(), ".eE") {
			return formatFloat(f)
		}
		return t.String()
	case time.Time:
		return t.Format("2006-01-02")
	case []string:
		return strings.Join(t, ", ")
	case []any:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			parts = append(parts, FormatValue(e))
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(t)
	}
}

func formatFloat(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatFloat(f, 'f', 1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ToFloat converts numeric or numeric-string values to float64.
func ToFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(t), ",", ""), 64)
		return f, err == nil
	}
	return 0, false
}
