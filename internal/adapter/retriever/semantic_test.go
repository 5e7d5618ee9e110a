package retriever

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"immigrationiq/internal/adapter/embedding"
	"immigrationiq/internal/adapter/store"
	"immigrationiq/internal/domain"
	"immigrationiq/internal/port"
)

func newTestStore(t *testing.T, chunks []domain.DocumentChunk) *store.LazyStore {
	t.Helper()
	s := store.NewLazyStore(filepath.Join(t.TempDir(), "index.db"), 100, func() (port.Embedder, error) {
		return embedding.NewMockEmbedder(64), nil
	})
	t.Cleanup(func() { s.Close() })

	if chunks != nil {
		if _, err := s.Rebuild(chunks, nil); err != nil {
			t.Fatal(err)
		}
	}
	return s
}

func TestSemanticRetrieve(t *testing.T) {
	chunks := []domain.DocumentChunk{
		{ID: "c1", Text: "Adjustment of status requires Form I-485.", FormNumber: "I-485", Page: 1, SourceLabel: "USCIS Form I-485 Instructions, Page 1"},
		{ID: "c2", Text: "A family petition starts with Form I-130.", FormNumber: "I-130", Page: 1, SourceLabel: "USCIS Form I-130 Instructions, Page 1"},
	}
	s := newTestStore(t, chunks)
	r := NewSemanticRetriever(s, NewMMRSelector(0.7), 4)

	results, err := r.Retrieve("Adjustment of status requires Form I-485.", 1, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Chunk.ID != "c1" {
		t.Errorf("expected c1, got %s", results[0].Chunk.ID)
	}
	if results[0].Chunk.SourceLabel == "" {
		t.Error("result lost its citation label")
	}
}

func TestSemanticRetrieveFormFilter(t *testing.T) {
	chunks := []domain.DocumentChunk{
		{ID: "c1", Text: "Adjustment of status requires Form I-485.", FormNumber: "I-485", Page: 1},
		{ID: "c2", Text: "A family petition starts with Form I-130.", FormNumber: "I-130", Page: 1},
		{ID: "c3", Text: "Include evidence of the family relationship.", FormNumber: "I-130", Page: 2},
	}
	s := newTestStore(t, chunks)
	r := NewSemanticRetriever(s, NewMMRSelector(0.7), 4)

	results, err := r.Retrieve("green card", 10, "I-130")
	if err != nil {
		t.Fatal(err)
	}
	for _, res := range results {
		if res.Chunk.FormNumber != "I-130" {
			t.Errorf("filter leaked chunk from %s", res.Chunk.FormNumber)
		}
	}
	if len(results) != 2 {
		t.Errorf("expected 2 I-130 chunks, got %d", len(results))
	}
}

func TestSemanticRetrieveEmptyCorpus(t *testing.T) {
	s := newTestStore(t, []domain.DocumentChunk{})
	r := NewSemanticRetriever(s, NewMMRSelector(0.7), 4)

	results, err := r.Retrieve("anything", 4, "")
	if err != nil {
		t.Fatalf("empty corpus must not error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected empty result, got %d", len(results))
	}
}

func TestSemanticRetrieveNoIndex(t *testing.T) {
	s := newTestStore(t, nil)
	r := NewSemanticRetriever(s, NewMMRSelector(0.7), 4)

	_, err := r.Retrieve("anything", 4, "")
	if !errors.Is(err, store.ErrIndexNotFound) {
		t.Errorf("expected ErrIndexNotFound, got %v", err)
	}
}

func TestCachedRetriever(t *testing.T) {
	chunks := []domain.DocumentChunk{
		{ID: "c1", Text: "Adjustment of status requires Form I-485.", FormNumber: "I-485", Page: 1},
	}
	s := newTestStore(t, chunks)
	inner := NewSemanticRetriever(s, NewMMRSelector(0.7), 4)
	cache := NewQueryCache(10, time.Minute)
	r := NewCachedRetriever(inner, cache)

	first, err := r.Retrieve("adjustment", 4, "")
	if err != nil {
		t.Fatal(err)
	}
	if cache.Size() != 1 {
		t.Errorf("expected 1 cached entry, got %d", cache.Size())
	}

	second, err := r.Retrieve("adjustment", 4, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != len(second) {
		t.Error("cached result differs from original")
	}

	// Filter participates in the cache key.
	if _, err := r.Retrieve("adjustment", 4, "I-130"); err != nil {
		t.Fatal(err)
	}
	if cache.Size() != 2 {
		t.Errorf("expected separate entry per filter, got %d", cache.Size())
	}

	cache.Invalidate()
	if cache.Size() != 0 {
		t.Error("invalidate left entries behind")
	}
}
