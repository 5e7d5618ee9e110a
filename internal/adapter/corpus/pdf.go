package corpus

import (
	"fmt"

	"github.com/ledongthuc/pdf"

	"immigrationiq/internal/domain"
)

// PDFLoader extracts per-page plain text from a PDF file. Pages are
// numbered from 1 to match the page numbers printed on USCIS
// instruction documents.
type PDFLoader struct{}

func NewPDFLoader() *PDFLoader {
	return &PDFLoader{}
}

func (l *PDFLoader) Load(path string) ([]domain.Page, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf %s: %w", path, err)
	}
	defer f.Close()

	total := reader.NumPage()
	pages := make([]domain.Page, 0, total)
	for num := 1; num <= total; num++ {
		page := reader.Page(num)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single malformed page should not sink the whole
			// document. Record it as empty; the chunker drops it.
			text = ""
		}
		pages = append(pages, domain.Page{Number: num, Text: text})
	}

	if len(pages) == 0 {
		return nil, fmt.Errorf("pdf %s contains no readable pages", path)
	}
	return pages, nil
}
