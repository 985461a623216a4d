package mapper

import (
	"sort"
	"strings"

	"github.com/visamate/visamate/internal/model"
)

// aliases maps alternate answer keys onto canonical field names.
var aliases = map[string]string{
	"name":                 "full_name",
	"applicant_name":       "full_name",
	"passport_country":     "passport_country_code",
	"nationality_code":     "passport_country_code",
	"country_of_residence": "current_residence",
	"residence_country":    "current_residence",
	"dob":                  "date_of_birth",
	"birth_date":           "date_of_birth",
	"institution":          "institution_name",
	"dli_name":             "institution_name",
	"program":              "program_name",
	"program_of_study":     "program_name",
	"tuition_fees":         "tuition_amount",
	"tuition_paid_amount":  "tuition_amount",
	"gic":                  "gic_amount",
	"listening":            "listening_score",
	"reading":              "reading_score",
	"writing":              "writing_score",
	"speaking":             "speaking_score",
	"overall":              "overall_score",
	"ielts_overall":        "overall_score",
	"province":             "destination_province",
}

type normalized struct {
	value  any
	direct bool
}

// NormalizeAnswers flattens section-grouped answers into canonical field
// names. Nested maps and dotted keys contribute their last path segment;
// aliases are then resolved. A key submitted flat under its canonical name
// beats any nested or aliased source for the same field.
func NormalizeAnswers(answers model.Answers) model.ApplicantData {
	acc := make(map[string]normalized)

	keys := make([]string, 0, len(answers))
	for k := range answers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		flatten(acc, k, answers[k], !strings.Contains(k, "."))
	}

	out := make(model.ApplicantData, len(acc))
	for k, n := range acc {
		out[k] = n.value
	}
	return out
}

func flatten(acc map[string]normalized, key string, v any, direct bool) {
	if nested, ok := v.(map[string]any); ok {
		sub := make([]string, 0, len(nested))
		for k := range nested {
			sub = append(sub, k)
		}
		sort.Strings(sub)
		for _, k := range sub {
			flatten(acc, k, nested[k], false)
		}
		return
	}

	if i := strings.LastIndex(key, "."); i >= 0 {
		key = key[i+1:]
		direct = false
	}
	if canon, ok := aliases[key]; ok {
		key = canon
		direct = false
	}
	if key == "" {
		return
	}

	prev, seen := acc[key]
	if seen && prev.direct && !direct {
		return
	}
	acc[key] = normalized{value: v, direct: direct}
}

// Canonical merges OCR-derived fields with normalized answers. Answers win:
// a present answer value overrides the OCR value for the same field, while
// blank answers never erase OCR data.
func Canonical(answers model.Answers, ocr model.ApplicantData) model.ApplicantData {
	out := ocr.Clone()
	for k, v := range NormalizeAnswers(answers) {
		if model.IsPresent(v) {
			out[k] = v
		}
	}
	return out
}
