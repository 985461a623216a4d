package forms

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/rotisserie/eris"

	"github.com/visamate/visamate/internal/model"
)

// ExportField is a flattened field for downstream submission tooling.
type ExportField struct {
	Name     string `json:"name"`
	Value    string `json:"value"`
	Required bool   `json:"required"`
	HelpText string `json:"help_text,omitempty"`
}

// Export is a filled form keyed by section and field id.
type Export struct {
	FormType             model.FormType                    `json:"form_type"`
	FormTitle            string                            `json:"form_title"`
	FormVersion          string                            `json:"form_version"`
	CompletionPercentage float64                           `json:"completion_percentage"`
	Sections             map[string]map[string]ExportField `json:"sections"`
}

// ExportData flattens form for export.
func ExportData(form *model.FilledForm) Export {
	out := Export{
		FormType:             form.Type,
		FormTitle:            form.Title,
		FormVersion:          form.Version,
		CompletionPercentage: form.CompletionPercentage,
		Sections:             make(map[string]map[string]ExportField, len(form.Sections)),
	}
	for _, s := range form.Sections {
		fields := make(map[string]ExportField, len(s.Fields))
		for _, f := range s.Fields {
			fields[f.ID] = ExportField{Name: f.Name, Value: f.Value, Required: f.Required, HelpText: f.HelpText}
		}
		out.Sections[s.ID] = fields
	}
	return out
}

// RenderPDF writes a printable review copy of form. generatedAt is stamped in
// the footer and document metadata.
func RenderPDF(w io.Writer, form *model.FilledForm, generatedAt time.Time) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCreationDate(generatedAt)
	pdf.SetTitle(fmt.Sprintf("%s %s", form.Type, form.Title), true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Arial", "I", 8)
		pdf.CellFormat(0, 10, tr(fmt.Sprintf("Generated %s  |  Page %d", generatedAt.UTC().Format(time.RFC3339), pdf.PageNo())), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.MultiCell(0, 8, tr(fmt.Sprintf("%s (%s)", form.Title, form.Type)), "", "L", false)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, tr(fmt.Sprintf("Version %s  |  %.1f%% complete", form.Version, form.CompletionPercentage)))
	pdf.Ln(10)

	for _, s := range form.Sections {
		pdf.SetFont("Arial", "B", 12)
		pdf.SetFillColor(230, 230, 230)
		pdf.CellFormat(0, 8, tr(s.Name), "", 1, "L", true, 0, "")
		if s.Instructions != "" {
			pdf.SetFont("Arial", "I", 9)
			pdf.MultiCell(0, 5, tr(s.Instructions), "", "L", false)
		}
		pdf.Ln(2)

		for _, f := range s.Fields {
			label := f.Name
			if f.Required {
				label += " *"
			}
			pdf.SetFont("Arial", "B", 10)
			pdf.CellFormat(70, 6, tr(label), "", 0, "L", false, 0, "")
			pdf.SetFont("Arial", "", 10)
			pdf.MultiCell(0, 6, tr(f.Value), "B", "L", false)
		}
		pdf.Ln(4)
	}

	if len(form.ValidationErrors) > 0 {
		pdf.SetFont("Arial", "B", 11)
		pdf.SetTextColor(180, 0, 0)
		pdf.Cell(0, 8, "Missing information")
		pdf.Ln(8)
		pdf.SetFont("Arial", "", 9)
		for _, e := range form.ValidationErrors {
			pdf.MultiCell(0, 5, tr("- "+e), "", "L", false)
		}
	}

	if err := pdf.Output(w); err != nil {
		return eris.Wrapf(err, "forms: render pdf %s", form.Type)
	}
	return nil
}

// PDFBytes renders form to memory.
func PDFBytes(form *model.FilledForm, generatedAt time.Time) ([]byte, error) {
	var buf bytes.Buffer
	if err := RenderPDF(&buf, form, generatedAt); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
