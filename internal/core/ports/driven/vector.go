package driven

import (
	"context"

	"github.com/custodia-labs/documind/internal/core/domain"
)

// VectorIndex stores chunk embeddings and answers nearest-neighbour queries
// by cosine distance.
//
// Implementations allow one writer at a time and any number of concurrent
// readers.
type VectorIndex interface {
	// Add upserts entries keyed by ChunkID. The first add binds the index
	// dimension and embedding model; later adds must match both.
	Add(ctx context.Context, model string, entries []domain.IndexEntry) error

	// Query returns at most k entries ordered by ascending distance.
	// An index holding fewer than k entries returns all of them.
	Query(ctx context.Context, vector []float32, k int) ([]domain.SearchResult, error)

	// ReplaceDocument removes every entry belonging to a document and adds
	// entries in one step. On error the previous entries are kept.
	// Returns the number of previous entries removed.
	ReplaceDocument(ctx context.Context, model, document string, entries []domain.IndexEntry) (int, error)

	// Clear removes all entries and unbinds the dimension and model.
	Clear(ctx context.Context) error

	// Stats returns the entry count and collection details.
	Stats(ctx context.Context) (domain.IndexStats, error)

	// Close releases resources.
	Close() error
}
