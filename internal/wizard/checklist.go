package wizard

import "github.com/visamate/visamate/internal/model"

// StudyPermitFeeCAD is the study permit fee plus biometrics.
const StudyPermitFeeCAD = 235.00

var applicationForms = []model.ChecklistItem{
	{DocumentType: model.DocIMM1294, DocumentName: "Application for Study Permit Made Outside of Canada (IMM1294)", IsRequired: true, Instructions: "Complete all sections of the form"},
	{DocumentType: model.DocIMM5645, DocumentName: "Family Information (IMM5645)", IsRequired: true, Instructions: "Provide information about all family members"},
}

var supportingDocuments = []model.ChecklistItem{
	{DocumentType: model.DocEducationTranscript, DocumentName: "Recent Education Transcript", IsRequired: true, Instructions: "Official transcripts from your most recent education"},
	{DocumentType: model.DocGICProof, DocumentName: "Proof of Guaranteed Investment Certificate (GIC)", IsRequired: true, Instructions: "GIC certificate from a participating Canadian financial institution"},
	{DocumentType: model.DocTuitionPayment, DocumentName: "Proof of tuition payment", IsRequired: true, Instructions: "Receipt showing first year tuition payment"},
	{DocumentType: model.DocIELTSResults, DocumentName: "Proof of IELTS language test results", IsRequired: true, Instructions: "Official IELTS test results with all scores 6.0 or higher"},
	{DocumentType: model.DocAcceptanceLetter, DocumentName: "Letter of Acceptance or Letter of Enrollment / Registration", IsRequired: true, Instructions: "Official letter from designated learning institution"},
	{DocumentType: model.DocPassport, DocumentName: "Passport", IsRequired: true, Instructions: "Valid passport with at least 6 months validity"},
	{DocumentType: model.DocPALTAL, DocumentName: "Provincial or Territorial Attestation Letter (PAL or TAL)", IsRequired: true, Instructions: "Attestation letter from the province/territory"},
	{DocumentType: model.DocDigitalPhoto, DocumentName: "Digital photo", IsRequired: true, Instructions: "Recent digital photograph meeting IRCC specifications"},
	{DocumentType: model.DocMedicalExam, DocumentName: "Proof of upfront medical exam", IsRequired: true, Instructions: "Medical exam results from IRCC panel physician"},
}

var optionalDocuments = []model.ChecklistItem{
	{DocumentType: model.DocIMM5257, DocumentName: "Schedule 1 - Application for a Temporary Resident Visa Made Outside Canada (IMM 5257)", Instructions: "Complete if you need a visitor visa"},
	{DocumentType: model.DocClientInfo, DocumentName: "Client Information", Instructions: "Additional client information if applicable"},
}

// Checklist returns the study permit document checklist with IsUploaded set
// for every type that has a document in uploaded or later state.
func Checklist(docs []model.Document) model.Checklist {
	have := make(map[model.DocumentType]bool)
	for _, d := range docs {
		switch d.Status {
		case model.DocumentUploaded, model.DocumentProcessing, model.DocumentProcessed:
			have[d.DocumentType] = true
		}
	}
	mark := func(items []model.ChecklistItem) []model.ChecklistItem {
		out := make([]model.ChecklistItem, len(items))
		for i, it := range items {
			it.IsUploaded = have[it.DocumentType]
			out[i] = it
		}
		return out
	}
	return model.Checklist{
		ApplicationForms:    mark(applicationForms),
		SupportingDocuments: mark(supportingDocuments),
		OptionalDocuments:   mark(optionalDocuments),
		TotalFeeCAD:         StudyPermitFeeCAD,
	}
}

// coreAnswers are the answers an application cannot be assessed without.
// Each entry lists accepted aliases.
var coreAnswers = [][]string{
	{"passport_country_code"},
	{"current_residence"},
	{"date_of_birth"},
	{"institution_name"},
	{"program_name"},
	{"has_language_test"},
	{"has_gic", "has_sds_gic"},
	{"tuition_paid", "tuition_paid_full"},
}

// Completeness is the share of core answers present.
type Completeness struct {
	Score   float64  `json:"completeness_score"`
	Missing []string `json:"missing_fields"`
}

// CoreCompleteness scores answers against the core answer list.
func CoreCompleteness(answers model.Answers) Completeness {
	c := Completeness{Missing: []string{}}
	have := 0
	for _, aliases := range coreAnswers {
		found := false
		for _, k := range aliases {
			if model.IsPresent(answers[k]) {
				found = true
				break
			}
		}
		if found {
			have++
		} else {
			c.Missing = append(c.Missing, aliases[0])
		}
	}
	c.Score = float64(have) / float64(len(coreAnswers)) * 100
	return c
}
