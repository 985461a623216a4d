package forms

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visamate/visamate/internal/model"
)

func TestExportData(t *testing.T) {
	t.Parallel()

	form, err := Fill(model.FormIMM5257, model.ApplicantData{"program_duration": "2 years"})
	require.NoError(t, err)

	exp := ExportData(form)
	assert.Equal(t, model.FormIMM5257, exp.FormType)
	assert.Equal(t, "03-2014", exp.FormVersion)
	require.Contains(t, exp.Sections, "travel_info")
	assert.Equal(t, ExportField{Name: "Intended length of stay", Value: "2 years", Required: true}, exp.Sections["travel_info"]["intended_length_stay"])
	assert.Equal(t, "Study", exp.Sections["travel_info"]["purpose_of_visit"].Value)
}

func TestRenderPDF(t *testing.T) {
	t.Parallel()

	form, err := Fill(model.FormIMM1294, model.ApplicantData{"full_name": "José Álvarez", "gic_amount": 20635.0})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, RenderPDF(&buf, form, time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))

	b, err := PDFBytes(form, time.Now())
	require.NoError(t, err)
	assert.NotEmpty(t, b)
}

func TestInstructions(t *testing.T) {
	t.Parallel()

	for _, ft := range model.FormTypes() {
		assert.NotEmpty(t, Instructions(ft), ft)
	}
	assert.Empty(t, Instructions("IMM0000"))
}
