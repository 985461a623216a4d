package model

// Requirement names one study-permit eligibility predicate.
type Requirement string

// The seven requirements, in evaluation and reporting order.
const (
	RequirementAcceptanceLetter      Requirement = "acceptance_letter"
	RequirementFinancialProof        Requirement = "financial_proof"
	RequirementLanguageTest          Requirement = "language_test"
	RequirementMedicalExam           Requirement = "medical_exam"
	RequirementCleanCriminalRecord   Requirement = "clean_criminal_record"
	RequirementValidPassport         Requirement = "valid_passport"
	RequirementProvincialAttestation Requirement = "provincial_attestation"
)

// Requirements returns all requirements in order.
func Requirements() []Requirement {
	return []Requirement{
		RequirementAcceptanceLetter,
		RequirementFinancialProof,
		RequirementLanguageTest,
		RequirementMedicalExam,
		RequirementCleanCriminalRecord,
		RequirementValidPassport,
		RequirementProvincialAttestation,
	}
}

// EligibilityResult is the outcome of a single eligibility evaluation.
type EligibilityResult struct {
	Eligible            bool          `json:"eligible"`
	Score               float64       `json:"eligibility_score"`
	RequirementsMet     []Requirement `json:"requirements_met"`
	RequirementsMissing []Requirement `json:"requirements_missing"`
	Recommendations     []string      `json:"recommendations"`
}
