package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuestionType_Valid(t *testing.T) {
	t.Parallel()

	for _, qt := range []QuestionType{QuestionSingleChoice, QuestionYesNo, QuestionCountrySelect, QuestionProvinceSelect} {
		assert.True(t, qt.Valid(), qt)
	}
	assert.False(t, QuestionType("slider").Valid())
	assert.False(t, QuestionType("").Valid())
}

func TestQuestion_DefaultOption(t *testing.T) {
	t.Parallel()

	q := Question{Options: []Option{
		{Value: "single", Label: "Single"},
		{Value: "married", Label: "Married", Default: true},
	}}
	v, ok := q.DefaultOption()
	assert.True(t, ok)
	assert.Equal(t, "married", v)

	_, ok = Question{}.DefaultOption()
	assert.False(t, ok)
}

func TestDocumentType_Valid(t *testing.T) {
	t.Parallel()

	assert.True(t, DocPassport.Valid())
	assert.True(t, DocPALTAL.Valid())
	assert.False(t, DocumentType("selfie").Valid())
}

func TestRequirements_Order(t *testing.T) {
	t.Parallel()

	reqs := Requirements()
	assert.Len(t, reqs, 7)
	assert.Equal(t, RequirementAcceptanceLetter, reqs[0])
	assert.Equal(t, RequirementProvincialAttestation, reqs[6])
}
