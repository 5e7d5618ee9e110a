package chunker

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"immigrationiq/internal/domain"
)

// defaultSeparators are tried in order; the earliest one present in the
// text wins, with later ones used recursively on oversized pieces. The
// empty string is a character-level fallback, so no input can make the
// splitter fail.
var defaultSeparators = []string{"\n\n", "\n", ". ", " ", ""}

// RecursiveChunker splits cleaned page text into overlapping chunks,
// preferring paragraph boundaries, then lines, then sentences, then
// words. Greedy and deterministic: the same input always yields the
// same chunk sequence.
type RecursiveChunker struct {
	chunkSize    int
	chunkOverlap int
	minPageChars int
	separators   []string
}

func NewRecursiveChunker(chunkSize, chunkOverlap, minPageChars int) *RecursiveChunker {
	if chunkSize <= 0 {
		chunkSize = 800
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = chunkSize / 5
	}
	return &RecursiveChunker{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		minPageChars: minPageChars,
		separators:   defaultSeparators,
	}
}

// ChunkDocument converts one document's pages into provenance-tagged
// chunks. Pages shorter than the minimum threshold are dropped; they
// are typically cover pages or blank separators that would pollute the
// index with near-empty vectors.
func (c *RecursiveChunker) ChunkDocument(formNumber, originPath string, pages []domain.Page) []domain.DocumentChunk {
	var chunks []domain.DocumentChunk
	for _, page := range pages {
		if len(Normalize(page.Text)) < c.minPageChars {
			continue
		}

		cleaned := Clean(page.Text)
		if cleaned == "" {
			continue
		}

		label := SourceLabel(formNumber, page.Number)
		for ord, text := range c.Split(cleaned) {
			chunks = append(chunks, domain.DocumentChunk{
				ID:          chunkID(formNumber, page.Number, ord),
				Text:        text,
				FormNumber:  formNumber,
				Page:        page.Number,
				SourceLabel: label,
				OriginPath:  originPath,
			})
		}
	}
	return chunks
}

// Split splits text into pieces of at most chunkSize characters with
// chunkOverlap characters of trailing context carried into the next
// piece.
func (c *RecursiveChunker) Split(text string) []string {
	return c.split(text, c.separators)
}

func (c *RecursiveChunker) split(text string, separators []string) []string {
	sep := separators[len(separators)-1]
	var deeper []string
	for i, s := range separators {
		if s == "" || strings.Contains(text, s) {
			sep = s
			deeper = separators[i+1:]
			break
		}
	}

	var final []string
	var good []string

	for _, piece := range splitOn(text, sep) {
		if len(piece) <= c.chunkSize {
			good = append(good, piece)
			continue
		}

		// Flush accumulated small pieces, then recurse into the
		// oversized one with finer separators.
		final = append(final, c.merge(good, sep)...)
		good = nil

		if len(deeper) == 0 {
			final = append(final, piece)
		} else {
			final = append(final, c.split(piece, deeper)...)
		}
	}

	return append(final, c.merge(good, sep)...)
}

// merge greedily joins pieces with sep up to chunkSize, carrying a tail
// of at most chunkOverlap characters into the next chunk.
func (c *RecursiveChunker) merge(pieces []string, sep string) []string {
	var chunks []string
	var window []string
	total := 0

	sepLen := len(sep)
	joined := func() string {
		return strings.TrimSpace(strings.Join(window, sep))
	}

	for _, piece := range pieces {
		pieceLen := len(piece)
		if total+pieceLen+sepLen*seplink(window) > c.chunkSize && total > 0 {
			if text := joined(); text != "" {
				chunks = append(chunks, text)
			}
			// Shrink the window until it fits inside the overlap
			// budget (or until adding the piece would fit).
			for total > c.chunkOverlap ||
				(total+pieceLen+sepLen*seplink(window) > c.chunkSize && total > 0) {
				total -= len(window[0]) + sepLen*seplink(window[1:])
				window = window[1:]
			}
		}
		window = append(window, piece)
		total += pieceLen + sepLen*seplink(window[1:])
	}

	if text := joined(); text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}

// seplink reports whether joining onto a non-empty window costs a
// separator.
func seplink(window []string) int {
	if len(window) > 0 {
		return 1
	}
	return 0
}

// splitOn splits text by sep; the empty separator falls back to
// per-character pieces.
func splitOn(text, sep string) []string {
	if sep == "" {
		pieces := make([]string, 0, len(text))
		for _, r := range text {
			pieces = append(pieces, string(r))
		}
		return pieces
	}

	parts := strings.Split(text, sep)
	pieces := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			pieces = append(pieces, p)
		}
	}
	return pieces
}

// SourceLabel derives the human-readable citation for a chunk. Every
// indexed chunk carries this label so the answer layer can cite
// "USCIS Form X Instructions, Page N" verbatim.
func SourceLabel(formNumber string, page int) string {
	return fmt.Sprintf("USCIS Form %s Instructions, Page %d", formNumber, page)
}

func chunkID(formNumber string, page, ordinal int) string {
	data := fmt.Sprintf("%s:%d:%d", formNumber, page, ordinal)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:8])
}
