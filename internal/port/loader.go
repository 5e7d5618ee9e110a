package port

import "immigrationiq/internal/domain"

// PageLoader extracts per-page text from a source document.
type PageLoader interface {
	Load(path string) ([]domain.Page, error)
}

// Chunker converts one document's extracted pages into overlapping
// chunks with attached provenance.
type Chunker interface {
	ChunkDocument(formNumber, originPath string, pages []domain.Page) []domain.DocumentChunk
}
