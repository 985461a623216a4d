// Package ocr turns uploaded document bytes into recognized lines and
// key/value form pairs.
package ocr

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/visamate/visamate/internal/config"
	"github.com/visamate/visamate/internal/model"
)

// Recognizer extracts text from a document image or PDF.
type Recognizer interface {
	Extract(ctx context.Context, data []byte, contentType string) (*model.Extraction, error)
}

// NewRecognizer creates a Recognizer based on config. api is required for
// the textract provider and ignored otherwise.
func NewRecognizer(cfg config.OCRConfig, api TextractAPI) (Recognizer, error) {
	switch cfg.Provider {
	case "local", "":
		return NewPDFText(), nil
	case "textract":
		if api == nil {
			return nil, eris.New("ocr: textract provider requires an AWS client")
		}
		return NewTextract(api), nil
	default:
		return nil, eris.Errorf("ocr: unknown provider %q", cfg.Provider)
	}
}

var extContentTypes = map[string]string{
	".pdf":  "application/pdf",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
}

// ContentTypeFor guesses a supported content type from a file name.
func ContentTypeFor(name string) (string, bool) {
	ct, ok := extContentTypes[strings.ToLower(filepath.Ext(name))]
	return ct, ok
}

// linesFromText splits plain text into trimmed, non-empty lines with a fixed
// confidence.
func linesFromText(text string, confidence float64) []model.Line {
	var lines []model.Line
	for _, l := range strings.Split(text, "\n") {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		lines = append(lines, model.Line{Text: l, Confidence: confidence})
	}
	return lines
}
