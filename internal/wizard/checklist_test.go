package wizard

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/visamate/visamate/internal/model"
)

func TestChecklist(t *testing.T) {
	t.Parallel()

	docs := []model.Document{
		{DocumentType: model.DocPassport, Status: model.DocumentProcessed},
		{DocumentType: model.DocGICProof, Status: model.DocumentPending},
		{DocumentType: model.DocIMM5257, Status: model.DocumentUploaded},
	}
	c := Checklist(docs)

	assert.Len(t, c.ApplicationForms, 2)
	assert.Len(t, c.SupportingDocuments, 9)
	assert.Len(t, c.OptionalDocuments, 2)
	assert.InDelta(t, 235.0, c.TotalFeeCAD, 0.001)

	uploaded := map[model.DocumentType]bool{}
	for _, group := range [][]model.ChecklistItem{c.ApplicationForms, c.SupportingDocuments, c.OptionalDocuments} {
		for _, it := range group {
			uploaded[it.DocumentType] = it.IsUploaded
		}
	}
	assert.True(t, uploaded[model.DocPassport])
	assert.False(t, uploaded[model.DocGICProof], "pending uploads are not counted")
	assert.True(t, uploaded[model.DocIMM5257])
	assert.False(t, c.OptionalDocuments[0].IsRequired)

	// Shared tables are not mutated.
	assert.False(t, Checklist(nil).SupportingDocuments[5].IsUploaded)
}

func TestCoreCompleteness(t *testing.T) {
	t.Parallel()

	c := CoreCompleteness(model.Answers{
		"passport_country_code": "IND",
		"current_residence":     "IND",
		"date_of_birth":         "2003-05-04",
		"has_sds_gic":           "Yes",
	})
	assert.InDelta(t, 50.0, c.Score, 0.001)
	assert.Equal(t, []string{"institution_name", "program_name", "has_language_test", "tuition_paid"}, c.Missing)

	assert.Equal(t, []string{}, CoreCompleteness(model.Answers{
		"passport_country_code": "IND", "current_residence": "IND", "date_of_birth": "x",
		"institution_name": "x", "program_name": "x", "has_language_test": true,
		"has_gic": true, "tuition_paid": false,
	}).Missing)
}
