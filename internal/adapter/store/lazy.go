package store

import (
	"fmt"
	"sync"

	"immigrationiq/internal/domain"
	"immigrationiq/internal/port"
)

// LazyStore owns the embedding function and the index handle, deferring
// both until first use so processes that never retrieve pay no
// model-load cost. The embedder is pinned inside the store: build and
// query always go through the same function, which is the invariant
// that keeps similarity scores meaningful.
//
// Close releases both; the next use re-initializes instead of failing,
// so out-of-order shutdown callbacks cannot permanently break the
// store.
type LazyStore struct {
	path        string
	newEmbedder func() (port.Embedder, error)
	batchSize   int

	mu       sync.Mutex
	embedder port.Embedder
	index    *BoltIndex
}

func NewLazyStore(path string, batchSize int, newEmbedder func() (port.Embedder, error)) *LazyStore {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &LazyStore{
		path:        path,
		newEmbedder: newEmbedder,
		batchSize:   batchSize,
	}
}

// Embedder returns the store's embedding function, creating it on first
// call. Concurrent first callers block until the single initialization
// completes.
func (s *LazyStore) Embedder() (port.Embedder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.embedderLocked()
}

func (s *LazyStore) embedderLocked() (port.Embedder, error) {
	if s.embedder != nil {
		return s.embedder, nil
	}
	e, err := s.newEmbedder()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}
	s.embedder = e
	return e, nil
}

// Query embeds nothing itself; it runs a raw vector query against the
// persisted index, attaching to it on first use. Returns
// ErrIndexNotFound if no compatible index has been built.
func (s *LazyStore) Query(vector []float32, k int, filter *port.Filter) ([]port.SearchResult, error) {
	idx, err := s.indexHandle()
	if err != nil {
		return nil, err
	}
	return idx.Query(vector, k, filter)
}

// Count reports the number of indexed entries, attaching on first use.
func (s *LazyStore) Count() (int, error) {
	idx, err := s.indexHandle()
	if err != nil {
		return 0, err
	}
	return idx.Count()
}

func (s *LazyStore) indexHandle() (*BoltIndex, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index != nil {
		return s.index, nil
	}

	e, err := s.embedderLocked()
	if err != nil {
		return nil, err
	}

	idx, err := Open(s.path, e.Dimension(), e.ModelName())
	if err != nil {
		return nil, err
	}
	s.index = idx
	return idx, nil
}

// Rebuild embeds every chunk and replaces the persisted index. The
// progress callback, if non-nil, is invoked after each embedded batch.
func (s *LazyStore) Rebuild(chunks []domain.DocumentChunk, progress func(done, total int)) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.embedderLocked()
	if err != nil {
		return 0, err
	}

	entries := make([]port.IndexEntry, 0, len(chunks))
	for i := 0; i < len(chunks); i += s.batchSize {
		end := i + s.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[i:end]

		texts := make([]string, len(batch))
		for j, c := range batch {
			texts[j] = c.Text
		}

		vectors, err := e.Embed(texts)
		if err != nil {
			return 0, fmt.Errorf("embedding batch failed: %w", err)
		}
		if len(vectors) != len(batch) {
			return 0, fmt.Errorf("embedder returned %d vectors for %d texts", len(vectors), len(batch))
		}

		for j, c := range batch {
			entries = append(entries, port.IndexEntry{Vector: vectors[j], Chunk: c})
		}

		if progress != nil {
			progress(end, len(chunks))
		}
	}

	if s.index != nil {
		s.index.Close()
		s.index = nil
	}

	idx, err := Create(s.path, e.Dimension(), e.ModelName())
	if err != nil {
		return 0, err
	}
	if err := idx.Build(entries); err != nil {
		idx.Close()
		return 0, err
	}

	s.index = idx
	return len(entries), nil
}

// Close releases the index handle and embedder. Safe to call multiple
// times and safe to use the store again afterwards.
func (s *LazyStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	if s.index != nil {
		err = s.index.Close()
		s.index = nil
	}
	s.embedder = nil
	return err
}
