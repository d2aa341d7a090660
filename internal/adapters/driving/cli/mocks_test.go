package cli

import (
	"context"
	"sync"

	"github.com/custodia-labs/documind/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/documind/internal/app"
	"github.com/custodia-labs/documind/internal/core/domain"
	"github.com/custodia-labs/documind/internal/core/ports/driving"
	"github.com/custodia-labs/documind/internal/core/services"
)

// mockIngestService is a mock implementation of driving.IngestService.
type mockIngestService struct {
	mu       sync.Mutex
	paths    []string
	opts     driving.IngestOptions
	report   driving.IngestReport
	chunks   []domain.Chunk
	err      error
	extracts []string
}

func (m *mockIngestService) IngestFiles(_ context.Context, paths []string, opts driving.IngestOptions) (driving.IngestReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paths = paths
	m.opts = opts
	return m.report, m.err
}

func (m *mockIngestService) ExtractChunks(_ context.Context, path string) ([]domain.Chunk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.extracts = append(m.extracts, path)
	return m.chunks, m.err
}

// mockRetriever is a mock implementation of driving.Retriever.
type mockRetriever struct {
	query   string
	k       int
	results []domain.SearchResult
	err     error
}

func (m *mockRetriever) Search(_ context.Context, query string, k int) ([]domain.SearchResult, error) {
	m.query = query
	m.k = k
	return m.results, m.err
}

// mockAnswerService is a mock implementation of driving.AnswerService.
type mockAnswerService struct {
	question  string
	k         int
	answer    domain.Answer
	summary   string
	summarise string
	err       error
}

func (m *mockAnswerService) Answer(_ context.Context, question string, k int) (domain.Answer, error) {
	m.question = question
	m.k = k
	return m.answer, m.err
}

func (m *mockAnswerService) Summarise(_ context.Context, text string) (string, error) {
	m.summarise = text
	return m.summary, m.err
}

func (m *mockAnswerService) Availability() domain.WorkerAvailability {
	return domain.WorkerAvailability{State: domain.WorkerAvailable}
}

// mockIndexService is a mock implementation of driving.IndexService.
type mockIndexService struct {
	stats    domain.IndexStats
	recovery domain.RecoveryStep
	cleared  bool
	err      error
}

func (m *mockIndexService) Stats(_ context.Context) (domain.IndexStats, error) {
	return m.stats, m.err
}

func (m *mockIndexService) Clear(_ context.Context) error {
	if m.err == nil {
		m.cleared = true
	}
	return m.err
}

func (m *mockIndexService) Recovery() domain.RecoveryStep {
	if m.recovery == "" {
		return domain.RecoveryPrimary
	}
	return m.recovery
}

// testServices holds the mocks installed by setupTestServices.
type testServices struct {
	ingest    *mockIngestService
	retriever *mockRetriever
	answer    *mockAnswerService
	index     *mockIndexService
	settings  *services.SettingsService
}

// setupTestServices installs fresh mocks and returns them with a cleanup
// that restores the package state.
func setupTestServices() (*testServices, func()) {
	ts := &testServices{
		ingest:    &mockIngestService{},
		retriever: &mockRetriever{},
		answer:    &mockAnswerService{},
		index:     &mockIndexService{},
		settings:  services.NewSettingsService(memory.NewConfigStore(), "/data/chroma_db"),
	}
	SetServices(Services{
		Ingest:    ts.ingest,
		Retriever: ts.retriever,
		Answer:    ts.answer,
		Index:     ts.index,
		Settings:  ts.settings,
	})
	return ts, resetCLI
}

// resetCLI clears services, flag values and the command's I/O.
func resetCLI() {
	closeServices()
	SetServices(Services{})
	openApp = app.Open
	loadSettings = func(dir string) (driving.SettingsService, error) {
		svc, _, err := app.LoadSettings(dir)
		return svc, err
	}

	verbose = false
	configDir = ""
	ingestReplace = false
	ingestWatch = ""
	searchTopK = 0
	searchJSON = false
	askTopK = 0
	askJSON = false
	indexJSON = false
	chatTopK = 0
	workerReq = workerFlags{
		mode:        string(domain.GenerationModeChat),
		temperature: domain.DefaultTemperature,
		numPredict:  domain.DefaultMaxTokens,
	}

	rootCmd.SetArgs(nil)
	rootCmd.SetOut(nil)
	rootCmd.SetErr(nil)
	rootCmd.SetIn(nil)
}
