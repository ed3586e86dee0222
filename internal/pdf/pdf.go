// Package pdf extracts page-tagged text from PDF reports.
package pdf

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/drift-audit/internal/config"
	"github.com/sells-group/drift-audit/internal/model"
)

// ErrEmptyDocument is returned when no page of a PDF yields any text.
var ErrEmptyDocument = eris.New("pdf: document has no extractable text")

// Extractor extracts the text of every page of a PDF file.
type Extractor interface {
	ExtractPages(ctx context.Context, pdfPath string) ([]model.Page, error)
}

// NewExtractor creates an Extractor based on config.
func NewExtractor(cfg config.OCRConfig, mistralKey string) (Extractor, error) {
	switch cfg.Provider {
	case "local", "":
		return NewPdfToText(cfg.PdfToTextPath), nil
	case "mistral":
		if mistralKey == "" {
			return nil, eris.New("pdf: mistral provider requires mistral_api_key")
		}
		return NewMistralOCR(mistralKey, cfg.MistralModel), nil
	default:
		return nil, eris.Errorf("pdf: unknown provider %q", cfg.Provider)
	}
}

// trimPages drops trailing pages without text and fails when nothing is left.
func trimPages(pages []model.Page) ([]model.Page, error) {
	end := len(pages)
	for end > 0 && strings.TrimSpace(pages[end-1].Text) == "" {
		end--
	}
	if end == 0 {
		return nil, ErrEmptyDocument
	}
	return pages[:end], nil
}
