package retriever

import (
	"fmt"

	"immigrationiq/internal/adapter/store"
	"immigrationiq/internal/domain"
	"immigrationiq/internal/port"
)

// minCandidatePool floors the MMR candidate pool so diversity selection
// has something to choose between even for small k.
const minCandidatePool = 20

// SemanticRetriever turns a text query into a ranked, diverse,
// citation-bearing chunk list. The embedding function is the store's
// own; callers cannot supply one, which rules out the silent
// build/query embedder mismatch.
type SemanticRetriever struct {
	store          *store.LazyStore
	mmr            *MMRSelector
	poolMultiplier int
}

func NewSemanticRetriever(st *store.LazyStore, mmr *MMRSelector, poolMultiplier int) *SemanticRetriever {
	if poolMultiplier <= 0 {
		poolMultiplier = 4
	}
	return &SemanticRetriever{
		store:          st,
		mmr:            mmr,
		poolMultiplier: poolMultiplier,
	}
}

// Retrieve embeds the query, pulls a candidate pool larger than k, and
// applies MMR selection. Empty corpus and zero-match filters yield an
// empty result, never an error; a missing index surfaces
// store.ErrIndexNotFound.
func (r *SemanticRetriever) Retrieve(query string, k int, formFilter string) ([]domain.ScoredChunk, error) {
	if k <= 0 {
		k = 4
	}

	e, err := r.store.Embedder()
	if err != nil {
		return nil, err
	}

	vectors, err := e.Embed([]string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("embedding returned empty result")
	}

	pool := k * r.poolMultiplier
	if pool < minCandidatePool {
		pool = minCandidatePool
	}

	var filter *port.Filter
	if formFilter != "" {
		filter = &port.Filter{FormNumber: formFilter}
	}

	candidates, err := r.store.Query(vectors[0], pool, filter)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	selected := r.mmr.Select(candidates, k)

	chunks := make([]domain.ScoredChunk, 0, len(selected))
	for _, s := range selected {
		chunks = append(chunks, domain.ScoredChunk{Chunk: s.Chunk, Score: s.Score})
	}
	return chunks, nil
}
