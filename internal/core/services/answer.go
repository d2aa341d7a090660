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

// Ensure AnswerService implements the interface.
var _ driving.AnswerService = (*AnswerService)(nil)

// NoRelevantInformation is the answer given when retrieval finds nothing.
const NoRelevantInformation = "I couldn't find relevant information in the documents to answer your question."

// Summary generation parameters.
const (
	summaryTemperature = 0.5
	summaryMaxTokens   = 200
)

// AnswerConfig holds the generation parameters for answers.
type AnswerConfig struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// AnswerService builds grounded prompts from retrieved chunks and hands them
// to the generation worker.
type AnswerService struct {
	retriever driving.Retriever
	worker    driven.GenerationWorker
	prompts   driven.PromptStore
	cfg       AnswerConfig
}

// NewAnswerService creates an answer service.
func NewAnswerService(
	retriever driving.Retriever,
	worker driven.GenerationWorker,
	prompts driven.PromptStore,
	cfg AnswerConfig,
) *AnswerService {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = domain.DefaultMaxTokens
	}
	return &AnswerService{
		retriever: retriever,
		worker:    worker,
		prompts:   prompts,
		cfg:       cfg,
	}
}

// Availability reports the generation worker's probe outcome.
func (s *AnswerService) Availability() domain.WorkerAvailability {
	return s.worker.Availability()
}

// Answer retrieves up to k chunks and asks the worker to answer from them.
// Sources follow retrieval order and are returned even when the worker is
// unavailable. Only retrieval and prompt errors are returned.
func (s *AnswerService) Answer(ctx context.Context, query string, k int) (domain.Answer, error) {
	results, err := s.retriever.Search(ctx, query, k)
	if err != nil {
		return domain.Answer{}, err
	}

	logger.Section("Answer")
	if len(results) == 0 {
		logger.Info("No relevant chunks, skipping generation")
		return domain.Answer{Text: NoRelevantInformation, Sources: []domain.Citation{}}, nil
	}

	sources := make([]domain.Citation, len(results))
	for i, r := range results {
		sources[i] = domain.CitationFromResult(r)
	}

	availability := s.worker.Availability()
	if !availability.IsAvailable() {
		logger.Warn("Generation worker unavailable, returning sources only")
		return domain.Answer{Text: s.worker.Generate(ctx, domain.GenerationRequest{}), Sources: sources}, nil
	}

	system, err := s.prompts.Load(driven.PromptAnswerSystem)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("load prompt: %w", err)
	}
	userTemplate, err := s.prompts.Load(driven.PromptAnswerUser)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("load prompt: %w", err)
	}

	contextText := BuildContext(results)
	logger.Debug("Context: %d sources, %d characters", len(results), len(contextText))

	answer := s.worker.Generate(ctx, domain.GenerationRequest{
		Mode:         domain.GenerationModeChat,
		Model:        s.cfg.Model,
		SystemPrompt: system,
		UserPrompt:   fmt.Sprintf(userTemplate, contextText, strings.TrimSpace(query)),
		Temperature:  s.cfg.Temperature,
		MaxTokens:    s.cfg.MaxTokens,
	})

	return domain.Answer{Text: answer, Sources: sources}, nil
}

// Summarise asks the worker for a concise summary of text.
func (s *AnswerService) Summarise(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: nothing to summarise", domain.ErrInvalidInput)
	}

	logger.Section("Summary")
	if !s.worker.Availability().IsAvailable() {
		return s.worker.Generate(ctx, domain.GenerationRequest{}), nil
	}

	system, err := s.prompts.Load(driven.PromptSummariseSystem)
	if err != nil {
		return "", fmt.Errorf("load prompt: %w", err)
	}
	userTemplate, err := s.prompts.Load(driven.PromptSummariseUser)
	if err != nil {
		return "", fmt.Errorf("load prompt: %w", err)
	}

	return s.worker.Generate(ctx, domain.GenerationRequest{
		Mode:         domain.GenerationModeSummary,
		Model:        s.cfg.Model,
		SystemPrompt: system,
		UserPrompt:   fmt.Sprintf(userTemplate, text),
		Temperature:  summaryTemperature,
		MaxTokens:    summaryMaxTokens,
	}), nil
}

// BuildContext enumerates results as numbered sources, in ranking order:
//
//	Source 1 (Document: report.pdf, Page: 3):
//	<text>
func BuildContext(results []domain.SearchResult) string {
	parts := make([]string, len(results))
	for i, r := range results {
		c := domain.CitationFromResult(r)
		parts[i] = fmt.Sprintf("\nSource %d (Document: %s, Page: %s):\n%s\n", i+1, c.Document, c.Page, c.Text)
	}
	return strings.Join(parts, "\n")
}
