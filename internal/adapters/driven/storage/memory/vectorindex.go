package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/documind/internal/adapters/driven/storage/vecmath"
	"github.com/custodia-labs/documind/internal/core/domain"
	"github.com/custodia-labs/documind/internal/core/ports/driven"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

// VectorIndex is an in-memory implementation of driven.VectorIndex.
// Contents are lost on Close. It serves as the last-resort index when no
// on-disk store can be opened, and in tests.
type VectorIndex struct {
	mu        sync.RWMutex
	name      string
	entries   map[string]domain.IndexEntry
	dimension int
	model     string
}

// NewVectorIndex creates an empty in-memory index.
func NewVectorIndex(name string) *VectorIndex {
	if name == "" {
		name = domain.DefaultCollection
	}
	return &VectorIndex{
		name:    name,
		entries: make(map[string]domain.IndexEntry),
	}
}

// Add upserts entries keyed by ChunkID.
func (v *VectorIndex) Add(_ context.Context, model string, entries []domain.IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}
	dim, err := validate(entries)
	if err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.check(dim, model); err != nil {
		return err
	}
	v.put(dim, model, entries)
	return nil
}

// ReplaceDocument deletes a document's entries and upserts entries. Nothing
// changes when entries do not fit the index.
func (v *VectorIndex) ReplaceDocument(
	_ context.Context, model, document string, entries []domain.IndexEntry,
) (int, error) {
	if document == "" {
		return 0, fmt.Errorf("%w: empty document name", domain.ErrInvalidInput)
	}
	dim, err := validate(entries)
	if err != nil {
		return 0, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if len(entries) > 0 {
		if err := v.check(dim, model); err != nil {
			return 0, err
		}
	}

	n := 0
	for id, e := range v.entries {
		if e.Metadata.Document == document {
			delete(v.entries, id)
			n++
		}
	}
	if len(entries) > 0 {
		v.put(dim, model, entries)
	}
	return n, nil
}

// validate checks ids and dimensions and returns the batch dimension.
func validate(entries []domain.IndexEntry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}
	dim := len(entries[0].Embedding)
	if dim == 0 {
		return 0, fmt.Errorf("%w: entry %s has no embedding", domain.ErrInvalidInput, entries[0].ChunkID)
	}
	for _, e := range entries {
		if e.ChunkID == "" {
			return 0, fmt.Errorf("%w: entry without chunk id", domain.ErrInvalidInput)
		}
		if len(e.Embedding) != dim {
			return 0, fmt.Errorf("%w: entry %s has %d dimensions, batch has %d",
				domain.ErrDimensionMismatch, e.ChunkID, len(e.Embedding), dim)
		}
	}
	return dim, nil
}

// check rejects a batch that does not fit the bound dimension and model.
// Callers hold v.mu.
func (v *VectorIndex) check(dim int, model string) error {
	if v.dimension != 0 && v.dimension != dim {
		return fmt.Errorf("%w: index holds %d-dimensional vectors, got %d",
			domain.ErrDimensionMismatch, v.dimension, dim)
	}
	if v.model != "" && model != "" && v.model != model {
		return fmt.Errorf("%w: index was built with %q, got %q",
			domain.ErrEmbeddingModelMismatch, v.model, model)
	}
	return nil
}

// put stores entries and binds the index. Callers hold v.mu.
func (v *VectorIndex) put(dim int, model string, entries []domain.IndexEntry) {
	v.dimension = dim
	if v.model == "" {
		v.model = model
	}
	for _, e := range entries {
		e.Embedding = append([]float32(nil), e.Embedding...)
		if e.Metadata.ChunkID == "" {
			e.Metadata.ChunkID = e.ChunkID
		}
		v.entries[e.ChunkID] = e
	}
}

// Query returns the k nearest entries by cosine distance.
func (v *VectorIndex) Query(_ context.Context, vector []float32, k int) ([]domain.SearchResult, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if k <= 0 || len(v.entries) == 0 {
		return []domain.SearchResult{}, nil
	}
	if len(vector) != v.dimension {
		return nil, fmt.Errorf("%w: index holds %d-dimensional vectors, query has %d",
			domain.ErrDimensionMismatch, v.dimension, len(vector))
	}

	results := make([]domain.SearchResult, 0, len(v.entries))
	for _, e := range v.entries {
		results = append(results, domain.SearchResult{
			Text:     e.Text,
			Metadata: e.Metadata,
			Distance: vecmath.CosineDistance(vector, e.Embedding),
		})
	}
	return vecmath.TopK(results, k), nil
}

// Clear removes all entries and unbinds the dimension and model.
func (v *VectorIndex) Clear(_ context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.entries = make(map[string]domain.IndexEntry)
	v.dimension = 0
	v.model = ""
	return nil
}

// Stats returns the entry count and collection details.
func (v *VectorIndex) Stats(_ context.Context) (domain.IndexStats, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return domain.IndexStats{
		Count:          len(v.entries),
		Name:           v.name,
		Dimension:      v.dimension,
		EmbeddingModel: v.model,
	}, nil
}

// Close releases resources.
func (v *VectorIndex) Close() error {
	return nil
}
