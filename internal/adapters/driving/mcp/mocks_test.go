package mcp

import (
	"context"

	"github.com/custodia-labs/documind/internal/core/domain"
)

// mockRetriever is a mock implementation of driving.Retriever.
type mockRetriever struct {
	results []domain.SearchResult
	err     error
	gotK    int
}

func (m *mockRetriever) Search(_ context.Context, _ string, k int) ([]domain.SearchResult, error) {
	m.gotK = k
	return m.results, m.err
}

// mockAnswerService is a mock implementation of driving.AnswerService.
type mockAnswerService struct {
	answer domain.Answer
	err    error
}

func (m *mockAnswerService) Answer(_ context.Context, _ string, _ int) (domain.Answer, error) {
	return m.answer, m.err
}

func (m *mockAnswerService) Summarise(_ context.Context, _ string) (string, error) {
	return m.answer.Text, m.err
}

func (m *mockAnswerService) Availability() domain.WorkerAvailability {
	return domain.WorkerAvailability{State: domain.WorkerAvailable}
}

// mockIndexService is a mock implementation of driving.IndexService.
type mockIndexService struct {
	stats domain.IndexStats
	err   error
}

func (m *mockIndexService) Stats(_ context.Context) (domain.IndexStats, error) {
	return m.stats, m.err
}

func (m *mockIndexService) Clear(_ context.Context) error {
	return m.err
}

func (m *mockIndexService) Recovery() domain.RecoveryStep {
	return domain.RecoveryReinitialized
}
