package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/visamate/visamate/internal/llm"
	"github.com/visamate/visamate/internal/model"
	"github.com/visamate/visamate/internal/sop"
)

var (
	sopProfile string
	sopOut     string
)

var sopCmd = &cobra.Command{
	Use:   "sop",
	Short: "Generate a statement of purpose from a profile file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("sop"); err != nil {
			return err
		}
		if sopProfile == "" {
			return eris.New("--profile is required")
		}
		var data model.ApplicantData
		if err := readJSONFile(sopProfile, &data); err != nil {
			return err
		}
		llmGen, err := llm.New(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		gen := sop.NewGenerator(llmGen, cfg.SOP.MinWords, cfg.SOP.MaxWords)
		return runSOP(cmd.Context(), cmd.OutOrStdout(), gen, data, sopOut)
	},
}

// runSOP writes the draft to outPath, or to w when outPath is empty, and
// prints a quality summary.
func runSOP(ctx context.Context, w io.Writer, gen *sop.Generator, data model.ApplicantData, outPath string) error {
	res, err := gen.Generate(ctx, sop.FromData(data, time.Now()))
	if err != nil {
		return err
	}

	if outPath != "" {
		if err := os.WriteFile(outPath, []byte(res.Content+"\n"), 0o644); err != nil {
			return eris.Wrapf(err, "write %s", outPath)
		}
	} else {
		fmt.Fprintln(w, res.Content)
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "words: %d  sentences: %d  readability: %.1f\n",
		res.Metrics.WordCount, res.Metrics.Sentences, res.Metrics.ReadabilityScore)
	fmt.Fprintf(w, "quality: %.1f  meets requirements: %t\n", res.Quality.Score, res.Quality.MeetsRequirements)
	for _, f := range res.Quality.Feedback {
		fmt.Fprintf(w, "  - %s\n", f)
	}
	return nil
}

func init() {
	sopCmd.Flags().StringVar(&sopProfile, "profile", "", "JSON file of applicant data")
	sopCmd.Flags().StringVar(&sopOut, "out", "", "write the statement to this file")
	rootCmd.AddCommand(sopCmd)
}
