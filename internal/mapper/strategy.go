// Package mapper turns recognizer output and questionnaire answers into the
// flat canonical applicant record used by form auto-fill and eligibility.
package mapper

import (
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/visamate/visamate/internal/model"
)

// Input is what a strategy sees: the lowercased, space-joined text and the
// recognizer's key/value pairs in document order.
type Input struct {
	Text  string
	Pairs []model.FormPair
}

// Strategy tries to extract one field value. ok is false on no match.
type Strategy func(in Input) (v any, ok bool)

// Rule binds a canonical field to its strategies. The first strategy that
// matches wins.
type Rule struct {
	Field      string
	Strategies []Strategy
}

// Transform converts a raw match into a field value. ok is false when the
// match should be discarded and the next strategy tried.
type Transform func(raw string) (v any, ok bool)

// Trimmed keeps non-blank matches as trimmed strings.
func Trimmed(raw string) (any, bool) {
	s := strings.TrimSpace(raw)
	return s, s != ""
}

// FormKey matches the first form pair whose lowercased key contains every
// word in all and, when anyOf is non-empty, at least one word in anyOf.
func FormKey(all, anyOf []string, tf Transform) Strategy {
	return func(in Input) (any, bool) {
		for _, p := range in.Pairs {
			key := strings.ToLower(p.Key)
			if !containsAll(key, all) || (len(anyOf) > 0 && !containsAny(key, anyOf)) {
				continue
			}
			if v, ok := tf(p.Value); ok {
				return v, true
			}
		}
		return nil, false
	}
}

// Pattern runs a case-insensitive regular expression over the text and
// transforms capture group 1.
func Pattern(expr string, tf Transform) Strategy {
	re := regexp.MustCompile("(?i)" + expr)
	return func(in Input) (any, bool) {
		m := re.FindStringSubmatch(in.Text)
		if len(m) < 2 {
			return nil, false
		}
		return tf(m[1])
	}
}

// Keywords returns the first keyword found as a substring of the text,
// transformed.
func Keywords(words []string, tf Transform) Strategy {
	return func(in Input) (any, bool) {
		for _, w := range words {
			if strings.Contains(in.Text, w) {
				return tf(w)
			}
		}
		return nil, false
	}
}

// Apply runs rules in order. A rule that panics is logged and skipped; the
// remaining rules still run.
func Apply(rules []Rule, in Input) model.ApplicantData {
	out := make(model.ApplicantData)
	for _, r := range rules {
		if v, ok := applyRule(r, in); ok {
			out[r.Field] = v
		}
	}
	return out
}

func applyRule(r Rule, in Input) (v any, ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			zap.L().Warn("mapper: rule panicked, field omitted",
				zap.String("field", r.Field),
				zap.String("panic", fmt.Sprint(rec)),
			)
			v, ok = nil, false
		}
	}()
	for _, s := range r.Strategies {
		if v, ok := s(in); ok && model.IsPresent(v) {
			return v, true
		}
	}
	return nil, false
}

func containsAll(s string, words []string) bool {
	for _, w := range words {
		if !strings.Contains(s, w) {
			return false
		}
	}
	return true
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
