package driving

import (
	"context"

	"github.com/custodia-labs/documind/internal/core/domain"
)

// Retriever provides semantic search over indexed chunks.
type Retriever interface {
	// Search embeds the query and returns at most k ranked results.
	// An empty index returns an empty slice, not an error.
	// k <= 0 uses the configured default.
	Search(ctx context.Context, query string, k int) ([]domain.SearchResult, error)
}

// AnswerService answers questions from retrieved context.
type AnswerService interface {
	// Answer retrieves context for the query and asks the generation worker
	// for a grounded response with citations.
	Answer(ctx context.Context, query string, k int) (domain.Answer, error)

	// Summarise asks the generation worker for a concise summary of text.
	Summarise(ctx context.Context, text string) (string, error)

	// Availability reports the generation worker's probe outcome.
	Availability() domain.WorkerAvailability
}
