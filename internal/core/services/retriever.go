package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/documind/internal/core/domain"
	"github.com/custodia-labs/documind/internal/core/ports/driven"
	"github.com/custodia-labs/documind/internal/core/ports/driving"
	"github.com/custodia-labs/documind/internal/logger"
)

// Ensure RetrieverService implements the interface.
var _ driving.Retriever = (*RetrieverService)(nil)

// RetrieverService embeds queries with the same model used at ingestion and
// looks them up in the vector index.
type RetrieverService struct {
	index    driven.VectorIndex
	embedder driven.EmbeddingService
	topK     int
}

// NewRetrieverService creates a retriever. topK <= 0 uses domain.DefaultTopK.
func NewRetrieverService(index driven.VectorIndex, embedder driven.EmbeddingService, topK int) *RetrieverService {
	if topK <= 0 {
		topK = domain.DefaultTopK
	}
	return &RetrieverService{
		index:    index,
		embedder: embedder,
		topK:     topK,
	}
}

// Search returns at most k results ordered by ascending distance.
func (s *RetrieverService) Search(ctx context.Context, query string, k int) ([]domain.SearchResult, error) {
	logger.Section("Retrieval")

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}
	if k <= 0 {
		k = s.topK
	}
	logger.Debug("Query: %q, k=%d", query, k)

	stats, err := s.index.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("index stats: %w", err)
	}
	if stats.Count == 0 {
		logger.Debug("Index is empty, skipping embedding")
		return []domain.SearchResult{}, nil
	}

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	results, err := s.index.Query(ctx, vec, k)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}
	logger.Info("Retrieved %d of %d chunks", len(results), stats.Count)
	for i, r := range results {
		logger.Debug("  %d. %s (distance %.4f)", i+1, r.Metadata.ChunkID, r.Distance)
	}
	return results, nil
}
