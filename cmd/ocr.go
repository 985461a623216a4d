package main

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/visamate/visamate/internal/mapper"
	"github.com/visamate/visamate/internal/model"
	"github.com/visamate/visamate/internal/ocr"
)

var ocrCmd = &cobra.Command{
	Use:   "ocr <file>...",
	Short: "Extract and map applicant fields from local documents",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("ocr"); err != nil {
			return err
		}
		var awsCfg aws.Config
		if cfg.OCR.Provider == "textract" {
			c, err := loadAWS(cmd.Context())
			if err != nil {
				return err
			}
			awsCfg = c
		}
		rec, err := initRecognizer(awsCfg)
		if err != nil {
			return err
		}
		return runOCR(cmd.Context(), cmd.OutOrStdout(), rec, args, cfg.OCR.Concurrency)
	},
}

// ocrFileResult is the mapping outcome for one input file.
type ocrFileResult struct {
	File         string              `json:"file"`
	DocumentType mapper.DocumentType `json:"document_type,omitempty"`
	Fields       model.ApplicantData `json:"fields,omitempty"`
	Confidence   float64             `json:"confidence"`
	Error        string              `json:"error,omitempty"`
}

// runOCR extracts every file with at most concurrency recognizer calls in
// flight. Per-file failures are reported in the output, not returned.
func runOCR(ctx context.Context, w io.Writer, rec ocr.Recognizer, files []string, concurrency int) error {
	results := make([]ocrFileResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(concurrency, 1))
	for i, path := range files {
		g.Go(func() error {
			results[i] = ocrFile(gctx, rec, path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return printJSON(w, results)
}

func ocrFile(ctx context.Context, rec ocr.Recognizer, path string) ocrFileResult {
	out := ocrFileResult{File: filepath.Base(path)}
	fail := func(err error) ocrFileResult {
		zap.L().Warn("ocr failed", zap.String("file", path), zap.Error(err))
		out.Error = err.Error()
		return out
	}

	ct, ok := ocr.ContentTypeFor(path)
	if !ok {
		return fail(eris.Errorf("unsupported file type %q", filepath.Ext(path)))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fail(eris.Wrap(err, "read file"))
	}
	ext, err := rec.Extract(ctx, data, ct)
	if err != nil {
		return fail(err)
	}
	res := mapper.MapOCR(ext)
	out.DocumentType = res.DocumentType
	out.Fields = res.Fields
	out.Confidence = res.Confidence
	return out
}

func init() {
	rootCmd.AddCommand(ocrCmd)
}
