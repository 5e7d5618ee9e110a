package port

import "immigrationiq/internal/domain"

// IndexEntry pairs a chunk with its embedding for index construction.
type IndexEntry struct {
	Vector []float32
	Chunk  domain.DocumentChunk
}

// Filter restricts a query to entries matching a metadata field.
// Equality is the only supported matching semantic.
type Filter struct {
	FormNumber string
}

// SearchResult is one raw nearest-neighbor hit. The stored vector is
// returned so diversity selection can compare candidates pairwise
// without re-embedding.
type SearchResult struct {
	Chunk  domain.DocumentChunk
	Score  float64
	Vector []float32
}

// VectorIndex stores embeddings alongside their chunks and answers
// nearest-neighbor queries.
type VectorIndex interface {
	// Build replaces the index contents with the given entries.
	Build(entries []IndexEntry) error

	// Query returns the k nearest entries by similarity, optionally
	// restricted by filter. k greater than the index size returns all
	// entries; an empty index returns an empty result.
	Query(vector []float32, k int, filter *Filter) ([]SearchResult, error)

	// Count returns the number of indexed entries.
	Count() (int, error)

	Close() error
}
