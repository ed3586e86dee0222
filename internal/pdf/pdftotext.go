package pdf

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/drift-audit/internal/model"
)

// PdfToText extracts text from PDFs using the pdftotext CLI tool.
type PdfToText struct {
	binPath string
}

// NewPdfToText creates a PdfToText extractor. If binPath is empty, "pdftotext" is used.
func NewPdfToText(binPath string) *PdfToText {
	if binPath == "" {
		binPath = "pdftotext"
	}
	return &PdfToText{binPath: binPath}
}

// ExtractPages runs pdftotext -layout on the given PDF and splits stdout on
// form feeds, one page per feed.
func (p *PdfToText) ExtractPages(ctx context.Context, pdfPath string) ([]model.Page, error) {
	cmd := exec.CommandContext(ctx, p.binPath, "-layout", pdfPath, "-")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, eris.Wrapf(err, "pdf: pdftotext failed for %s: %s", pdfPath, stderr.String())
	}

	return trimPages(SplitPages(stdout.String()))
}

// SplitPages splits pdftotext output on form feeds into 1-based pages.
func SplitPages(text string) []model.Page {
	parts := strings.Split(text, "\f")
	pages := make([]model.Page, 0, len(parts))
	for i, part := range parts {
		pages = append(pages, model.Page{Number: i + 1, Text: part})
	}
	return pages
}
