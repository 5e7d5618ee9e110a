package chunker

import (
	"regexp"
	"strings"
)

var (
	// Running header that PDF extraction leaks into every page,
	// e.g. "Form I-485 Instructions (01/01/24)".
	headerPattern = regexp.MustCompile(`Form [A-Z]-\d+[A-Z]* Instructions \(\d{2}/\d{2}/\d{2,4}\)`)

	excessNewlines = regexp.MustCompile(`\n{3,}`)
)

// Clean normalizes extracted page text: collapses runs of 3+ newlines to
// exactly 2, strips the recognized running header, and trims surrounding
// whitespace. Idempotent.
func Clean(text string) string {
	text = excessNewlines.ReplaceAllString(text, "\n\n")
	text = headerPattern.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// Normalize collapses whitespace without removing the header. The
// minimum-page-length check runs against this form so that a page whose
// only substance beyond the header is a short sentence still indexes.
func Normalize(text string) string {
	return strings.TrimSpace(excessNewlines.ReplaceAllString(text, "\n\n"))
}
