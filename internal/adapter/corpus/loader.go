package corpus

import (
	"fmt"
	"path/filepath"
	"strings"

	"immigrationiq/internal/domain"
	"immigrationiq/internal/port"
)

// Loader dispatches to a format-specific page loader by file extension.
type Loader struct {
	byExt map[string]port.PageLoader
}

func NewLoader() *Loader {
	return &Loader{
		byExt: map[string]port.PageLoader{
			".pdf": NewPDFLoader(),
			".txt": NewTextLoader(),
		},
	}
}

func (l *Loader) Load(path string) ([]domain.Page, error) {
	ext := strings.ToLower(filepath.Ext(path))
	loader, ok := l.byExt[ext]
	if !ok {
		return nil, fmt.Errorf("unsupported document format: %s", ext)
	}
	return loader.Load(path)
}

// FormNumber derives the form identifier from a corpus filename. USCIS
// downloads are named like "I-485_instructions.pdf"; the stem before
// the first underscore is the form number.
func FormNumber(path string) string {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if i := strings.Index(stem, "_"); i > 0 {
		return stem[:i]
	}
	return stem
}
