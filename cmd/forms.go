package main

import (
	"io"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/visamate/visamate/internal/forms"
	"github.com/visamate/visamate/internal/mapper"
	"github.com/visamate/visamate/internal/model"
)

var (
	formsAnswers string
	formsOCR     string
	formsType    string
	formsPDF     string
)

var formsCmd = &cobra.Command{
	Use:   "forms",
	Short: "Pre-fill IRCC forms from an answers file",
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			ans     model.Answers
			ocrData model.ApplicantData
		)
		if err := readJSONFile(formsAnswers, &ans); err != nil {
			return err
		}
		if err := readJSONFile(formsOCR, &ocrData); err != nil {
			return err
		}
		filler := forms.NewFiller(forms.NewVisaPolicy(cfg.Forms.VisaRequiredCountries))
		return runForms(cmd.OutOrStdout(), filler, mapper.Canonical(ans, ocrData), formsType, formsPDF)
	},
}

// runForms prints every required form, or a single form when formType is
// set. pdfPath writes that form as a PDF.
func runForms(w io.Writer, filler *forms.Filler, data model.ApplicantData, formType, pdfPath string) error {
	if formType == "" {
		if pdfPath != "" {
			return eris.New("--pdf needs --form")
		}
		filled, err := filler.FillAllRequired(data)
		if err != nil {
			return err
		}
		out := make(map[model.FormType]forms.Export, len(filled))
		for ft, f := range filled {
			out[ft] = forms.ExportData(f)
		}
		return printJSON(w, out)
	}

	ft, err := model.ParseFormType(formType)
	if err != nil {
		return err
	}
	form, err := forms.Fill(ft, data)
	if err != nil {
		return err
	}
	if pdfPath != "" {
		f, err := os.Create(pdfPath)
		if err != nil {
			return eris.Wrapf(err, "create %s", pdfPath)
		}
		defer f.Close() //nolint:errcheck
		if err := forms.RenderPDF(f, form, time.Now()); err != nil {
			return err
		}
		zap.L().Info("form written", zap.String("form_type", string(ft)), zap.String("path", pdfPath))
	}
	return printJSON(w, forms.ExportData(form))
}

func init() {
	formsCmd.Flags().StringVar(&formsAnswers, "answers", "", "JSON file of wizard answers")
	formsCmd.Flags().StringVar(&formsOCR, "ocr", "", "JSON file of OCR-mapped fields")
	formsCmd.Flags().StringVar(&formsType, "form", "", "fill a single form (IMM1294, IMM5645, IMM5257)")
	formsCmd.Flags().StringVar(&formsPDF, "pdf", "", "write the form as PDF to this path")
	rootCmd.AddCommand(formsCmd)
}
