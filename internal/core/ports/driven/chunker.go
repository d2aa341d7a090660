package driven

import "github.com/custodia-labs/documind/internal/core/domain"

// Chunker splits extracted pages into indexable chunks.
type Chunker interface {
	// ChunkPages returns the chunks of every page, in page order, with
	// deterministic chunk ids.
	ChunkPages(document string, sourceType domain.SourceType, pages []domain.Page) []domain.Chunk
}
