package driven

import (
	"context"

	"github.com/custodia-labs/documind/internal/core/domain"
)

// GenerationWorker is the isolated boundary to the language model.
//
// Availability is determined once when the worker is constructed and never
// re-probed. Generate never returns an error: every failure is rendered as
// a human-readable answer string so callers always have something to show.
type GenerationWorker interface {
	// Availability returns the outcome of the construction-time probe.
	Availability() domain.WorkerAvailability

	// Generate returns the model's answer, or a descriptive fallback string.
	Generate(ctx context.Context, req domain.GenerationRequest) string
}
