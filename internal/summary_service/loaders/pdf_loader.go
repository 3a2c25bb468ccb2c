package loaders

import (
	"context"
	"strings"

	"NurAI/internal/summary_service/interfaces"

	"github.com/ledongthuc/pdf"
)

// PdfLoader implements the Loader interface for PDF files.
type PdfLoader struct{}

// NewPdfLoader creates a new PdfLoader.
func NewPdfLoader() *PdfLoader {
	return &PdfLoader{}
}

// Load extracts plain text page by page. Pages that fail extraction are
// skipped rather than aborting the whole document; scanned or malformed
// pages are common in uploaded books.
func (l *PdfLoader) Load(ctx context.Context, path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var pages []string
	numPages := r.NumPage()
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		pages = append(pages, text)
	}

	return strings.Join(pages, "\n\n"), nil
}

// compile-time check to ensure PdfLoader implements the Loader interface
var _ interfaces.Loader = (*PdfLoader)(nil)
