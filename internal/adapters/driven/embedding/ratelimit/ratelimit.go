// Package ratelimit wraps an EmbeddingService with a token-bucket limiter so
// bulk ingestion does not overrun a hosted embedding API's quota.
package ratelimit

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/documind/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// EmbeddingService delegates to an inner service after taking one token per
// request. A batch costs one token per input text.
type EmbeddingService struct {
	inner   driven.EmbeddingService
	limiter *rate.Limiter
}

// New wraps svc. requestsPerSecond <= 0 returns svc unchanged.
func New(svc driven.EmbeddingService, requestsPerSecond float64) driven.EmbeddingService {
	if requestsPerSecond <= 0 {
		return svc
	}
	burst := max(1, int(math.Ceil(requestsPerSecond)))
	return &EmbeddingService{
		inner:   svc,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}
}

// Embed waits for a token and embeds text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	return s.inner.Embed(ctx, text)
}

// EmbedBatch waits for one token per text, in bursts no larger than the
// limiter allows, then embeds the batch.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	for remaining := len(texts); remaining > 0; {
		n := min(remaining, s.limiter.Burst())
		if err := s.limiter.WaitN(ctx, n); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
		remaining -= n
	}
	return s.inner.EmbedBatch(ctx, texts)
}

// Dimensions returns the inner service's vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.inner.Dimensions()
}

// ModelName returns the inner service's model.
func (s *EmbeddingService) ModelName() string {
	return s.inner.ModelName()
}

// Ping is not rate limited.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	return s.inner.Ping(ctx)
}

// Close closes the inner service.
func (s *EmbeddingService) Close() error {
	return s.inner.Close()
}
