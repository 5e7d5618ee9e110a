package port

import "immigrationiq/internal/domain"

// Retriever translates a text query into a ranked, citation-bearing
// result set. formFilter, when non-empty, restricts results to chunks
// from that form's instructions.
type Retriever interface {
	Retrieve(query string, k int, formFilter string) ([]domain.ScoredChunk, error)
}
