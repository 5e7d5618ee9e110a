package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"go.etcd.io/bbolt"

	"immigrationiq/internal/domain"
	"immigrationiq/internal/port"
)

// ErrIndexNotFound reports that no usable index exists at the
// configured location: either nothing was ever built there, or what is
// there was built with an incompatible embedding configuration.
// Querying a missing index is an error; querying a built-but-empty
// index is not.
var ErrIndexNotFound = errors.New("vector index not found")

// currentSchemaVersion guards the on-disk layout. Increment on breaking
// changes to the storage format.
const currentSchemaVersion = 1

var (
	bucketManifest = []byte("manifest")
	bucketChunks   = []byte("chunks")
	bucketVectors  = []byte("vectors")
	keyManifest    = []byte("index_manifest")
)

// manifest records the parameters the index was built with so load can
// detect mismatch instead of silently serving nonsense similarity
// scores.
type manifest struct {
	Version   int    `json:"version"`
	Dimension int    `json:"dimension"`
	Model     string `json:"model"`
	Metric    string `json:"metric"`
}

// BoltIndex is a bbolt-persisted vector index with an in-memory copy
// for brute-force search. Vectors are unit-normalized at embedding
// time, so similarity is a plain dot product.
type BoltIndex struct {
	db        *bbolt.DB
	dimension int
	model     string

	mu      sync.RWMutex
	entries []indexEntry
}

type indexEntry struct {
	chunk  domain.DocumentChunk
	vector []float32
}

type storedVector struct {
	Vector []float32 `json:"v"`
}

// Create opens (or creates) the index file at path for building,
// stamping it with the given embedding parameters. Existing content is
// replaced on the next Build.
func Create(path string, dimension int, model string) (*BoltIndex, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open index db: %w", err)
	}

	m := manifest{
		Version:   currentSchemaVersion,
		Dimension: dimension,
		Model:     model,
		Metric:    "dot",
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketManifest, bucketChunks, bucketVectors} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		data, err := json.Marshal(m)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketManifest).Put(keyManifest, data)
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltIndex{db: db, dimension: dimension, model: model}, nil
}

// Open reattaches to a previously built index without re-embedding.
// Returns ErrIndexNotFound if the file does not exist or was built with
// a different embedding dimension or model.
func Open(path string, dimension int, model string) (*BoltIndex, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s (run ingest first)", ErrIndexNotFound, path)
	}

	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open index db: %w", err)
	}

	var m manifest
	err = db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketManifest)
		if b == nil {
			return fmt.Errorf("%w: no manifest in %s", ErrIndexNotFound, path)
		}
		data := b.Get(keyManifest)
		if data == nil {
			return fmt.Errorf("%w: no manifest in %s", ErrIndexNotFound, path)
		}
		return json.Unmarshal(data, &m)
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	if m.Version != currentSchemaVersion {
		db.Close()
		return nil, fmt.Errorf("%w: schema v%d, expected v%d", ErrIndexNotFound, m.Version, currentSchemaVersion)
	}
	if m.Dimension != dimension || m.Model != model {
		db.Close()
		return nil, fmt.Errorf("%w: built with model=%s dim=%d, configured model=%s dim=%d",
			ErrIndexNotFound, m.Model, m.Dimension, model, dimension)
	}

	idx := &BoltIndex{db: db, dimension: dimension, model: model}
	if err := idx.loadEntries(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to load index entries: %w", err)
	}
	return idx, nil
}

func (x *BoltIndex) loadEntries() error {
	return x.db.View(func(tx *bbolt.Tx) error {
		chunks := tx.Bucket(bucketChunks)
		vectors := tx.Bucket(bucketVectors)
		if chunks == nil || vectors == nil {
			return nil
		}

		return chunks.ForEach(func(k, v []byte) error {
			var chunk domain.DocumentChunk
			if err := json.Unmarshal(v, &chunk); err != nil {
				return nil // skip corrupted entries
			}
			data := vectors.Get(k)
			if data == nil {
				return nil
			}
			var sv storedVector
			if err := json.Unmarshal(data, &sv); err != nil {
				return nil
			}
			x.entries = append(x.entries, indexEntry{chunk: chunk, vector: sv.Vector})
			return nil
		})
	})
}

// Build replaces the index contents with the given entries in a single
// transaction. Re-running into a fresh location is idempotent;
// rebuilding replaces rather than merges.
func (x *BoltIndex) Build(entries []port.IndexEntry) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	for _, e := range entries {
		if len(e.Vector) != x.dimension {
			return fmt.Errorf("vector dimension mismatch: expected %d, got %d", x.dimension, len(e.Vector))
		}
	}

	err := x.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketChunks, bucketVectors} {
			if err := tx.DeleteBucket(name); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
				return err
			}
			if _, err := tx.CreateBucket(name); err != nil {
				return err
			}
		}

		chunks := tx.Bucket(bucketChunks)
		vectors := tx.Bucket(bucketVectors)

		for _, e := range entries {
			key := []byte(e.Chunk.ID)

			chunkData, err := json.Marshal(e.Chunk)
			if err != nil {
				return err
			}
			if err := chunks.Put(key, chunkData); err != nil {
				return err
			}

			vecData, err := json.Marshal(storedVector{Vector: e.Vector})
			if err != nil {
				return err
			}
			if err := vectors.Put(key, vecData); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	x.entries = make([]indexEntry, 0, len(entries))
	for _, e := range entries {
		x.entries = append(x.entries, indexEntry{chunk: e.Chunk, vector: e.Vector})
	}
	return nil
}

// Query returns the k nearest entries by dot-product similarity,
// optionally restricted to a single form number. An empty index yields
// an empty result, not an error.
func (x *BoltIndex) Query(vector []float32, k int, filter *port.Filter) ([]port.SearchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}
	if len(vector) != x.dimension {
		return nil, fmt.Errorf("query dimension mismatch: expected %d, got %d", x.dimension, len(vector))
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	results := make([]port.SearchResult, 0, len(x.entries))
	for _, e := range x.entries {
		if filter != nil && filter.FormNumber != "" && e.chunk.FormNumber != filter.FormNumber {
			continue
		}
		results = append(results, port.SearchResult{
			Chunk:  e.chunk,
			Score:  dotProduct(vector, e.vector),
			Vector: e.vector,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if k < len(results) {
		results = results[:k]
	}
	return results, nil
}

// Count returns the number of indexed entries.
func (x *BoltIndex) Count() (int, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.entries), nil
}

func (x *BoltIndex) Close() error {
	return x.db.Close()
}

func dotProduct(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
