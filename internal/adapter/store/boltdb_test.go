package store

import (
	"errors"
	"path/filepath"
	"testing"

	"immigrationiq/internal/adapter/embedding"
	"immigrationiq/internal/domain"
	"immigrationiq/internal/port"
)

func testChunks() []domain.DocumentChunk {
	return []domain.DocumentChunk{
		{
			ID:          "c1",
			Text:        "File this form to apply to register permanent residence.",
			FormNumber:  "I-485",
			Page:        1,
			SourceLabel: "USCIS Form I-485 Instructions, Page 1",
			OriginPath:  "data/I-485_instructions.pdf",
		},
		{
			ID:          "c2",
			Text:        "Use this petition to establish a qualifying family relationship.",
			FormNumber:  "I-130",
			Page:        2,
			SourceLabel: "USCIS Form I-130 Instructions, Page 2",
			OriginPath:  "data/I-130_instructions.pdf",
		},
		{
			ID:          "c3",
			Text:        "Evidence of the relationship must accompany the petition.",
			FormNumber:  "I-130",
			Page:        3,
			SourceLabel: "USCIS Form I-130 Instructions, Page 3",
			OriginPath:  "data/I-130_instructions.pdf",
		},
	}
}

func buildTestIndex(t *testing.T, path string, e port.Embedder) *BoltIndex {
	t.Helper()

	chunks := testChunks()
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := e.Embed(texts)
	if err != nil {
		t.Fatal(err)
	}

	idx, err := Create(path, e.Dimension(), e.ModelName())
	if err != nil {
		t.Fatal(err)
	}

	entries := make([]port.IndexEntry, len(chunks))
	for i := range chunks {
		entries[i] = port.IndexEntry{Vector: vectors[i], Chunk: chunks[i]}
	}
	if err := idx.Build(entries); err != nil {
		t.Fatal(err)
	}
	return idx
}

func TestSelfRetrieval(t *testing.T) {
	e := embedding.NewMockEmbedder(64)
	path := filepath.Join(t.TempDir(), "index.db")

	idx := buildTestIndex(t, path, e)
	defer idx.Close()

	// Querying with the exact text of a source chunk returns that
	// chunk as the top-1 result.
	query, err := e.Embed([]string{testChunks()[1].Text})
	if err != nil {
		t.Fatal(err)
	}

	results, err := idx.Query(query[0], 1, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Chunk.ID != "c2" {
		t.Errorf("expected c2 as top result, got %s", results[0].Chunk.ID)
	}
	if results[0].Chunk.SourceLabel != "USCIS Form I-130 Instructions, Page 2" {
		t.Errorf("provenance lost: %q", results[0].Chunk.SourceLabel)
	}
}

func TestQueryFormFilter(t *testing.T) {
	e := embedding.NewMockEmbedder(64)
	path := filepath.Join(t.TempDir(), "index.db")

	idx := buildTestIndex(t, path, e)
	defer idx.Close()

	query, err := e.Embed([]string{"green card application"})
	if err != nil {
		t.Fatal(err)
	}

	results, err := idx.Query(query[0], 10, &port.Filter{FormNumber: "I-130"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 I-130 results, got %d", len(results))
	}
	for _, r := range results {
		if r.Chunk.FormNumber != "I-130" {
			t.Errorf("filter leaked chunk from form %s", r.Chunk.FormNumber)
		}
	}

	// A filter matching nothing is an empty result, not an error.
	results, err = idx.Query(query[0], 10, &port.Filter{FormNumber: "N-400"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("expected 0 results for unmatched filter, got %d", len(results))
	}
}

func TestQueryKLargerThanCorpus(t *testing.T) {
	e := embedding.NewMockEmbedder(64)
	path := filepath.Join(t.TempDir(), "index.db")

	idx := buildTestIndex(t, path, e)
	defer idx.Close()

	query, _ := e.Embed([]string{"anything"})
	results, err := idx.Query(query[0], 50, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Errorf("expected all 3 entries, got %d", len(results))
	}
}

func TestQueryEmptyIndex(t *testing.T) {
	e := embedding.NewMockEmbedder(64)
	path := filepath.Join(t.TempDir(), "index.db")

	idx, err := Create(path, e.Dimension(), e.ModelName())
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()

	query, _ := e.Embed([]string{"anything"})
	results, err := idx.Query(query[0], 4, nil)
	if err != nil {
		t.Fatalf("empty index query should not error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected empty result, got %d", len(results))
	}
}

func TestQueryInvalidInputs(t *testing.T) {
	e := embedding.NewMockEmbedder(64)
	path := filepath.Join(t.TempDir(), "index.db")

	idx := buildTestIndex(t, path, e)
	defer idx.Close()

	query, _ := e.Embed([]string{"anything"})
	if _, err := idx.Query(query[0], 0, nil); err == nil {
		t.Error("expected error for k=0")
	}
	if _, err := idx.Query(make([]float32, 8), 4, nil); err == nil {
		t.Error("expected error for wrong query dimension")
	}
}

func TestOpenMissingIndex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.db")

	_, err := Open(path, 64, "mock")
	if !errors.Is(err, ErrIndexNotFound) {
		t.Errorf("expected ErrIndexNotFound, got %v", err)
	}
}

func TestOpenDimensionMismatch(t *testing.T) {
	e := embedding.NewMockEmbedder(64)
	path := filepath.Join(t.TempDir(), "index.db")

	idx := buildTestIndex(t, path, e)
	idx.Close()

	_, err := Open(path, 128, "mock")
	if !errors.Is(err, ErrIndexNotFound) {
		t.Errorf("expected ErrIndexNotFound on dimension mismatch, got %v", err)
	}

	_, err = Open(path, 64, "other-model")
	if !errors.Is(err, ErrIndexNotFound) {
		t.Errorf("expected ErrIndexNotFound on model mismatch, got %v", err)
	}
}

func TestOpenPersistedEntries(t *testing.T) {
	e := embedding.NewMockEmbedder(64)
	path := filepath.Join(t.TempDir(), "index.db")

	idx := buildTestIndex(t, path, e)
	idx.Close()

	reopened, err := Open(path, 64, "mock")
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	count, err := reopened.Count()
	if err != nil {
		t.Fatal(err)
	}
	if count != 3 {
		t.Errorf("expected 3 persisted entries, got %d", count)
	}
}
