package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/documind/internal/core/domain"
	"github.com/custodia-labs/documind/internal/core/ports/driven"
	"github.com/custodia-labs/documind/internal/core/ports/driving"
	"github.com/custodia-labs/documind/internal/logger"
)

// Ensure IndexService implements the interface.
var _ driving.IndexService = (*IndexService)(nil)

// IndexService exposes maintenance operations on the vector index.
type IndexService struct {
	index    driven.VectorIndex
	recovery domain.RecoveryStep
}

// NewIndexService creates an index service. recovery records how the index
// was opened.
func NewIndexService(index driven.VectorIndex, recovery domain.RecoveryStep) *IndexService {
	if recovery == "" {
		recovery = domain.RecoveryPrimary
	}
	return &IndexService{index: index, recovery: recovery}
}

// Stats returns entry count and collection details.
func (s *IndexService) Stats(ctx context.Context) (domain.IndexStats, error) {
	stats, err := s.index.Stats(ctx)
	if err != nil {
		return domain.IndexStats{}, fmt.Errorf("index stats: %w", err)
	}
	return stats, nil
}

// Clear removes every entry.
func (s *IndexService) Clear(ctx context.Context) error {
	logger.Info("Clearing vector index")
	if err := s.index.Clear(ctx); err != nil {
		return fmt.Errorf("clear index: %w", err)
	}
	return nil
}

// Recovery reports which open step produced the index.
func (s *IndexService) Recovery() domain.RecoveryStep {
	return s.recovery
}
