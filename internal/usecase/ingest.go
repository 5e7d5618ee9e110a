package usecase

import (
	"fmt"
	"os"

	"immigrationiq/internal/adapter/corpus"
	"immigrationiq/internal/adapter/store"
	"immigrationiq/internal/domain"
	"immigrationiq/internal/port"
)

// IngestResult summarizes one corpus ingestion run. Per-document
// failures are collected here rather than aborting the run; a corpus
// with one corrupt PDF still indexes the rest.
type IngestResult struct {
	Documents int
	Skipped   int
	Chunks    int
	Errors    []string
}

// Invalidator is notified after the index is replaced so stale cached
// retrievals are dropped.
type Invalidator interface {
	Invalidate()
}

type IngestUseCase struct {
	walker  *corpus.Walker
	loader  port.PageLoader
	chunker port.Chunker
	store   *store.LazyStore
	cache   Invalidator
}

func NewIngestUseCase(walker *corpus.Walker, loader port.PageLoader, chunker port.Chunker, st *store.LazyStore, cache Invalidator) *IngestUseCase {
	return &IngestUseCase{
		walker:  walker,
		loader:  loader,
		chunker: chunker,
		store:   st,
		cache:   cache,
	}
}

// Ingest walks the corpus root, chunks every readable document, and
// rebuilds the vector index from scratch. A missing corpus root is a
// configuration error and fails the whole run; a single unreadable
// document is recorded and skipped.
func (u *IngestUseCase) Ingest(root string, progress func(done, total int)) (*IngestResult, error) {
	if _, err := os.Stat(root); err != nil {
		return nil, fmt.Errorf("corpus directory not available: %w", err)
	}

	files, err := u.walker.Walk(root)
	if err != nil {
		return nil, fmt.Errorf("failed to scan corpus: %w", err)
	}

	result := &IngestResult{}
	var chunks []domain.DocumentChunk
	for _, f := range files {
		docChunks, err := u.processDocument(f.Path)
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", f.Path, err))
			continue
		}
		result.Documents++
		chunks = append(chunks, docChunks...)
	}

	if len(chunks) == 0 {
		return result, fmt.Errorf("no chunks produced from %d files under %s", len(files), root)
	}

	count, err := u.store.Rebuild(chunks, progress)
	if err != nil {
		return result, fmt.Errorf("failed to rebuild index: %w", err)
	}
	result.Chunks = count

	if u.cache != nil {
		u.cache.Invalidate()
	}
	return result, nil
}

// processDocument loads and chunks a single file. Page text lives only
// for the duration of this call; only the chunks escape.
func (u *IngestUseCase) processDocument(path string) ([]domain.DocumentChunk, error) {
	pages, err := u.loader.Load(path)
	if err != nil {
		return nil, err
	}

	form := corpus.FormNumber(path)
	chunks := u.chunker.ChunkDocument(form, path, pages)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("document produced no indexable text")
	}
	return chunks, nil
}
