// Package eligibility evaluates the fixed study permit requirement
// predicates against a session's answers and canonical data.
package eligibility

import (
	"math"

	"github.com/visamate/visamate/internal/model"
)

// Threshold is the number of requirements that must hold for an applicant
// to be considered eligible.
const Threshold = 6

var recommendations = map[model.Requirement]string{
	model.RequirementAcceptanceLetter:      "Obtain an acceptance letter from a designated learning institution (DLI)",
	model.RequirementFinancialProof:        "Provide proof of financial support (GIC, tuition payment, bank statements)",
	model.RequirementLanguageTest:          "Take an approved language test (IELTS, CELPIP, TEF, or TCF)",
	model.RequirementMedicalExam:           "Complete an upfront medical exam with an IRCC panel physician",
	model.RequirementCleanCriminalRecord:   "Obtain a police certificate from your country of residence",
	model.RequirementValidPassport:         "Ensure you have a valid passport with at least 6 months validity",
	model.RequirementProvincialAttestation: "Obtain a Provincial or Territorial Attestation Letter (PAL/TAL)",
}

// Recommendation returns the remediation text for r.
func Recommendation(r model.Requirement) string {
	return recommendations[r]
}

type inputs struct {
	answers model.Answers
	data    model.ApplicantData
}

// flag reports whether any of keys holds an affirmative answer.
func (in inputs) flag(keys ...string) bool {
	for _, k := range keys {
		if model.IsTruthy(in.answers[k]) || model.IsTruthy(in.data[k]) {
			return true
		}
	}
	return false
}

// present reports whether canonical data holds any of keys.
func (in inputs) present(keys ...string) bool {
	for _, k := range keys {
		if in.data.Has(k) {
			return true
		}
	}
	return false
}

// answer prefers canonical data, where section-grouped submissions have
// already been flattened, and falls back to the raw answers.
func (in inputs) answer(key string) any {
	if v, ok := in.data[key]; ok && model.IsPresent(v) {
		return v
	}
	return in.answers[key]
}

var predicates = map[model.Requirement]func(inputs) bool{
	// A PAL is only issued against a DLI letter of acceptance.
	model.RequirementAcceptanceLetter: func(in inputs) bool {
		return in.flag("accepted_to_dli", "has_provincial_attestation") || in.present("institution_name")
	},
	model.RequirementFinancialProof: func(in inputs) bool {
		return in.flag("has_gic", "has_sds_gic", "tuition_paid", "tuition_paid_full") ||
			in.present("gic_amount", "tuition_amount")
	},
	model.RequirementLanguageTest: func(in inputs) bool {
		return in.flag("has_language_test", "all_scores_6_plus") ||
			in.present("overall_score", "listening_score", "reading_score", "writing_score", "speaking_score")
	},
	model.RequirementMedicalExam: func(in inputs) bool {
		return in.flag("has_medical_exam")
	},
	model.RequirementCleanCriminalRecord: func(in inputs) bool {
		return model.IsExplicitFalse(in.answer("criminal_background"))
	},
	model.RequirementValidPassport: func(in inputs) bool {
		return in.present("passport_country_code", "passport_number") ||
			model.IsPresent(in.answers["passport_country_code"])
	},
	model.RequirementProvincialAttestation: func(in inputs) bool {
		return in.flag("has_provincial_attestation")
	},
}

// Check evaluates every requirement. Every predicate is always evaluated;
// missing information counts as not met.
func Check(answers model.Answers, data model.ApplicantData) model.EligibilityResult {
	in := inputs{answers: answers, data: data}
	res := model.EligibilityResult{
		RequirementsMet:     []model.Requirement{},
		RequirementsMissing: []model.Requirement{},
		Recommendations:     []string{},
	}

	for _, r := range model.Requirements() {
		if predicates[r](in) {
			res.RequirementsMet = append(res.RequirementsMet, r)
			continue
		}
		res.RequirementsMissing = append(res.RequirementsMissing, r)
		res.Recommendations = append(res.Recommendations, recommendations[r])
	}

	total := len(model.Requirements())
	met := len(res.RequirementsMet)
	res.Score = math.Round(float64(met)/float64(total)*1000) / 10
	res.Eligible = met >= Threshold
	return res
}
