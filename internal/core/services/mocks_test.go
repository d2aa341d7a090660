package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/custodia-labs/documind/internal/core/domain"
	"github.com/custodia-labs/documind/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockEmbeddingService implements driven.EmbeddingService for testing.
// Each text maps to a 3-dimensional vector counting the letters a, b and c
// so related texts land close together.
type mockEmbeddingService struct {
	mu         sync.Mutex
	embedCalls int
	batchCalls int
	err        error
	short      bool
}

func (m *mockEmbeddingService) vector(text string) []float32 {
	lower := strings.ToLower(text)
	return []float32{
		float32(strings.Count(lower, "a")) + 0.01,
		float32(strings.Count(lower, "b")),
		float32(strings.Count(lower, "c")),
	}
}

func (m *mockEmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.embedCalls++
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.vector(text), nil
}

func (m *mockEmbeddingService) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.batchCalls++
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = m.vector(t)
	}
	if m.short && len(out) > 0 {
		out = out[:len(out)-1]
	}
	return out, nil
}

func (m *mockEmbeddingService) Dimensions() int { return 3 }

func (m *mockEmbeddingService) ModelName() string { return "mock-embed" }

func (m *mockEmbeddingService) Ping(_ context.Context) error { return m.err }

func (m *mockEmbeddingService) Close() error { return nil }

// mockGenerationWorker implements driven.GenerationWorker for testing.
type mockGenerationWorker struct {
	availability domain.WorkerAvailability
	answer       string
	requests     []domain.GenerationRequest
}

func availableWorker(answer string) *mockGenerationWorker {
	return &mockGenerationWorker{
		availability: domain.WorkerAvailability{State: domain.WorkerAvailable},
		answer:       answer,
	}
}

func unavailableWorker(reason string) *mockGenerationWorker {
	return &mockGenerationWorker{
		availability: domain.WorkerAvailability{State: domain.WorkerUnavailable, Reason: reason},
	}
}

func (m *mockGenerationWorker) Availability() domain.WorkerAvailability {
	return m.availability
}

func (m *mockGenerationWorker) Generate(_ context.Context, req domain.GenerationRequest) string {
	if !m.availability.IsAvailable() {
		return "LLM is unavailable: " + m.availability.Reason
	}
	m.requests = append(m.requests, req)
	return m.answer
}

// mockPromptStore implements driven.PromptStore with fixed templates.
type mockPromptStore struct {
	prompts map[string]string
	err     error
}

func newMockPromptStore() *mockPromptStore {
	return &mockPromptStore{prompts: map[string]string{
		driven.PromptAnswerSystem:    "answer only from context",
		driven.PromptAnswerUser:      "Context from documents:\n%s\n\nQuestion: %s",
		driven.PromptSummariseSystem: "summarise",
		driven.PromptSummariseUser:   "Summarise:\n\n%s",
	}}
}

func (m *mockPromptStore) Load(name string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	p, ok := m.prompts[name]
	if !ok {
		return "", fmt.Errorf("unknown prompt %q", name)
	}
	return p, nil
}

func (m *mockPromptStore) Reload() {}

// mockRetriever implements driving.Retriever for testing.
type mockRetriever struct {
	results []domain.SearchResult
	err     error
	gotK    int
}

func (m *mockRetriever) Search(_ context.Context, _ string, k int) ([]domain.SearchResult, error) {
	m.gotK = k
	return m.results, m.err
}

// failingIndex wraps a VectorIndex and fails selected operations.
type failingIndex struct {
	driven.VectorIndex
	addErr     error
	replaceErr error
	statsErr   error
}

func (f *failingIndex) Add(ctx context.Context, model string, entries []domain.IndexEntry) error {
	if f.addErr != nil {
		return f.addErr
	}
	return f.VectorIndex.Add(ctx, model, entries)
}

func (f *failingIndex) ReplaceDocument(
	ctx context.Context, model, document string, entries []domain.IndexEntry,
) (int, error) {
	if f.replaceErr != nil {
		return 0, f.replaceErr
	}
	return f.VectorIndex.ReplaceDocument(ctx, model, document, entries)
}

func (f *failingIndex) Stats(ctx context.Context) (domain.IndexStats, error) {
	if f.statsErr != nil {
		return domain.IndexStats{}, f.statsErr
	}
	return f.VectorIndex.Stats(ctx)
}

func result(doc string, page int, text string, distance float64) domain.SearchResult {
	return domain.SearchResult{
		Text: text,
		Metadata: domain.ChunkMetadata{
			Document: doc,
			Page:     page,
			ChunkID:  domain.ChunkID(doc, page, 0),
		},
		Distance: distance,
	}
}
