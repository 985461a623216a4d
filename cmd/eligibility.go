package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/visamate/visamate/internal/eligibility"
	"github.com/visamate/visamate/internal/mapper"
	"github.com/visamate/visamate/internal/model"
)

var (
	eligAnswers string
	eligOCR     string
)

var eligibilityCmd = &cobra.Command{
	Use:   "eligibility",
	Short: "Check study permit eligibility for an answers file",
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			ans     model.Answers
			ocrData model.ApplicantData
		)
		if err := readJSONFile(eligAnswers, &ans); err != nil {
			return err
		}
		if err := readJSONFile(eligOCR, &ocrData); err != nil {
			return err
		}
		return runEligibility(cmd.OutOrStdout(), ans, ocrData)
	},
}

func runEligibility(w io.Writer, ans model.Answers, ocrData model.ApplicantData) error {
	return printJSON(w, eligibility.Check(ans, mapper.Canonical(ans, ocrData)))
}

func init() {
	eligibilityCmd.Flags().StringVar(&eligAnswers, "answers", "", "JSON file of wizard answers")
	eligibilityCmd.Flags().StringVar(&eligOCR, "ocr", "", "JSON file of OCR-mapped fields")
	rootCmd.AddCommand(eligibilityCmd)
}
