package ocr

import (
	"bytes"
	"context"

	"github.com/ledongthuc/pdf"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/visamate/visamate/internal/model"
)

// PDFText reads the embedded text layer of digital PDFs. It cannot read
// scanned images and finds no form pairs.
type PDFText struct{}

// NewPDFText creates a local PDF text extractor.
func NewPDFText() *PDFText {
	return &PDFText{}
}

// Extract returns one line per non-empty text line, each with confidence
// 100 since nothing was recognized probabilistically.
func (p *PDFText) Extract(ctx context.Context, data []byte, contentType string) (*model.Extraction, error) {
	if contentType != "application/pdf" {
		return nil, eris.Errorf("ocr: local extractor cannot read %s", contentType)
	}

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, eris.Wrap(err, "ocr: open pdf")
	}

	ext := &model.Extraction{Lines: []model.Line{}, FormPairs: []model.FormPair{}}
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "ocr: pdf text")
		}
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			zap.L().Debug("ocr: skipping unreadable page", zap.Int("page", i), zap.Error(err))
			continue
		}
		ext.Lines = append(ext.Lines, linesFromText(text, 100)...)
	}
	return ext, nil
}
