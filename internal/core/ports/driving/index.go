package driving

import (
	"context"

	"github.com/custodia-labs/documind/internal/core/domain"
)

// IndexService exposes maintenance operations on the vector index.
type IndexService interface {
	// Stats returns entry count and collection details.
	Stats(ctx context.Context) (domain.IndexStats, error)

	// Clear removes every entry.
	Clear(ctx context.Context) error

	// Recovery reports which open step produced the index.
	Recovery() domain.RecoveryStep
}
