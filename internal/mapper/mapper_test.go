package mapper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visamate/visamate/internal/model"
)

func extraction(lines ...string) *model.Extraction {
	ext := &model.Extraction{}
	for _, l := range lines {
		ext.Lines = append(ext.Lines, model.Line{Text: l, Confidence: 90})
	}
	return ext
}

func TestMapOCR_Passport(t *testing.T) {
	t.Parallel()

	res := MapOCR(extraction(
		"REPUBLIC OF INDIA",
		"Passport No: k1234567",
		"Date of Birth: 04/05/2003",
		"Nationality INDIAN",
	))

	assert.Equal(t, DocPassport, res.DocumentType)
	assert.Equal(t, "K1234567", res.Fields["passport_number"])
	assert.Equal(t, "04/05/2003", res.Fields["date_of_birth"])
	assert.Equal(t, "Indian", res.Fields["nationality"])
	assert.InDelta(t, 90.0, res.Confidence, 0.001)
}

func TestMapOCR_FormPairsFirst(t *testing.T) {
	t.Parallel()

	ext := extraction("passport ZZ999999")
	ext.FormPairs = []model.FormPair{
		{Key: "Passport Number", Value: " p7654321 "},
		{Key: "Name of Applicant", Value: "priya sharma"},
		{Key: "Program", Value: "Master of Computer Science"},
	}
	res := MapOCR(ext)

	assert.Equal(t, "P7654321", res.Fields["passport_number"])
	assert.Equal(t, "Priya Sharma", res.Fields["full_name"])
	assert.Equal(t, "Master of Computer Science", res.Fields["program_name"])
}

func TestMapOCR_SingleWordNameOmitted(t *testing.T) {
	t.Parallel()

	res := MapOCR(extraction("Name: Priya 12345"))
	_, ok := res.Fields["full_name"]
	assert.False(t, ok)
}

func TestMapOCR_IELTS(t *testing.T) {
	t.Parallel()

	res := MapOCR(extraction(
		"IELTS Test Report Form",
		"Listening: 7.5 Reading: 6.5 Writing 6.0 Speaking: 7",
		"Overall Band 7.0",
		"Overall: 7.0",
	))

	assert.Equal(t, DocLanguageTest, res.DocumentType)
	assert.Equal(t, 7.5, res.Fields["listening_score"])
	assert.Equal(t, 6.5, res.Fields["reading_score"])
	assert.Equal(t, 6.0, res.Fields["writing_score"])
	assert.Equal(t, 7.0, res.Fields["speaking_score"])
	assert.Equal(t, 7.0, res.Fields["overall_score"])
}

func TestMapOCR_ScoreOutOfRangeOmitted(t *testing.T) {
	t.Parallel()

	res := MapOCR(extraction("TOEFL reading: 28"))
	_, ok := res.Fields["reading_score"]
	assert.False(t, ok)
}

func TestMapOCR_Amounts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		text  string
		field string
		want  float64
	}{
		{"gic with currency", "GIC Amount: CAD 20,635.00", "gic_amount", 20635},
		{"gic spelled out", "Guaranteed Investment Certificate: $21,000", "gic_amount", 21000},
		{"tuition fees", "Tuition Fees: $18,500.50", "tuition_amount", 18500.5},
		{"program fee", "Program fee 9000", "tuition_amount", 9000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res := MapOCR(extraction(tt.text))
			require.Contains(t, res.Fields, tt.field)
			assert.InDelta(t, tt.want, res.Fields[tt.field], 0.001)
		})
	}
}

func TestMapOCR_Institution(t *testing.T) {
	t.Parallel()

	res := MapOCR(extraction("Letter of Acceptance", "University of Toronto"))
	assert.Equal(t, "Toronto", res.Fields["institution_name"])

	ext := extraction("irrelevant")
	ext.FormPairs = []model.FormPair{{Key: "Institution", Value: "Seneca Polytechnic"}}
	assert.Equal(t, "Seneca Polytechnic", MapOCR(ext).Fields["institution_name"])
}

func TestMapOCR_NoMatchesOmitsFields(t *testing.T) {
	t.Parallel()

	res := MapOCR(extraction("lorem ipsum"))
	assert.Empty(t, res.Fields)
	assert.Equal(t, DocOther, res.DocumentType)

	res = MapOCR(nil)
	assert.Empty(t, res.Fields)
	assert.Zero(t, res.Confidence)
}

func TestMapOCR_Deterministic(t *testing.T) {
	t.Parallel()

	ext := extraction("Passport No: K1234567", "Name: Priya Sharma", "GIC: $20,635.00", "Overall: 7.0")
	first := MapOCR(ext)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, MapOCR(ext))
	}
}

func TestApply_RecoversPanickingRule(t *testing.T) {
	t.Parallel()

	rules := []Rule{
		{Field: "boom", Strategies: []Strategy{func(Input) (any, bool) { panic("bad regex") }}},
		{Field: "ok", Strategies: []Strategy{func(Input) (any, bool) { return "value", true }}},
	}
	out := NewOCRMapper(rules).Map(extraction("x")).Fields

	assert.NotContains(t, out, "boom")
	assert.Equal(t, "value", out["ok"])
}

func TestApply_FirstMatchWins(t *testing.T) {
	t.Parallel()

	rules := []Rule{{Field: "f", Strategies: []Strategy{
		func(Input) (any, bool) { return nil, false },
		func(Input) (any, bool) { return "", true },
		func(Input) (any, bool) { return "second", true },
		func(Input) (any, bool) { return "third", true },
	}}}
	assert.Equal(t, "second", Apply(rules, Input{})["f"])
}

func TestInferDocumentType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text string
		want DocumentType
	}{
		{"Passport of Canada", DocPassport},
		{"Republic of India", DocPassport},
		{"Statement of marks and grades", DocAcademicTranscript},
		{"Official transcript, mark sheet", DocAcademicTranscript},
		{"Bank account statement", DocBankStatement},
		{"IELTS results", DocLanguageTest},
		{"TOEFL iBT", DocLanguageTest},
		{"grocery receipt", DocOther},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, InferDocumentType(tt.text))
		})
	}
}
