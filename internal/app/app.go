// Package app wires adapters and services into a running DocuMind instance.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/documind/internal/adapters/driven/ai"
	"github.com/custodia-labs/documind/internal/adapters/driven/config/file"
	"github.com/custodia-labs/documind/internal/adapters/driven/process"
	"github.com/custodia-labs/documind/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/documind/internal/adapters/driven/storage/sqlite"
	workerclient "github.com/custodia-labs/documind/internal/adapters/driven/worker"
	"github.com/custodia-labs/documind/internal/adapters/driving/worker"
	"github.com/custodia-labs/documind/internal/core/domain"
	"github.com/custodia-labs/documind/internal/core/ports/driven"
	"github.com/custodia-labs/documind/internal/core/services"
	"github.com/custodia-labs/documind/internal/extractors"
	"github.com/custodia-labs/documind/internal/extractors/docx"
	"github.com/custodia-labs/documind/internal/extractors/pdf"
	"github.com/custodia-labs/documind/internal/extractors/plaintext"
	"github.com/custodia-labs/documind/internal/logger"
	"github.com/custodia-labs/documind/internal/postprocessors/chunker"
)

// Environment variables that override stored settings.
const (
	EnvWorkerCommand = "DOCUMIND_WORKER_COMMAND"
	EnvOllamaHost    = "OLLAMA_HOST"
	EnvOpenAIKey     = "OPENAI_API_KEY"
)

// WorkerSubcommand is the hidden CLI command that runs the worker process.
const WorkerSubcommand = "worker"

// Options configures Open.
type Options struct {
	// ConfigDir holds config.toml, prompts and the default index.
	// Empty means ~/.documind.
	ConfigDir string

	// WithWorker constructs the generation worker, running its
	// availability probe. Commands that never generate leave it off.
	WithWorker bool
}

// App holds the wired services. Close releases the index and embedder.
type App struct {
	ConfigDir string
	Settings  *domain.Settings

	SettingsService *services.SettingsService
	Ingest          *services.IngestService
	Retriever       *services.RetrieverService
	Index           *services.IndexService

	// Answer is nil unless Options.WithWorker was set.
	Answer *services.AnswerService

	index    driven.VectorIndex
	embedder driven.EmbeddingService
}

// ResolveConfigDir returns dir, or ~/.documind when dir is empty.
func ResolveConfigDir(dir string) (string, error) {
	if dir != "" {
		return dir, nil
	}
	return file.DefaultConfigDir()
}

// LoadSettings opens the config store in configDir and returns the settings
// service together with the effective settings, environment overrides
// applied. An unwritable config directory falls back to an in-memory store.
func LoadSettings(configDir string) (*services.SettingsService, *domain.Settings, error) {
	dir, err := ResolveConfigDir(configDir)
	if err != nil {
		return nil, nil, err
	}

	var store driven.ConfigStore
	fileStore, err := file.NewConfigStore(dir)
	switch {
	case err == nil:
		store = fileStore
	case errors.Is(err, os.ErrPermission):
		logger.Warn("config directory %s is not writable, settings will not persist: %v", dir, err)
		store = memory.NewConfigStore()
	default:
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	svc := services.NewSettingsService(store, filepath.Join(dir, domain.DefaultIndexDirName))
	settings, err := svc.Get()
	if err != nil {
		return nil, nil, err
	}
	ApplyEnv(settings)
	return svc, settings, nil
}

// ApplyEnv overlays environment variables onto settings without persisting
// them. Stored values win over the environment for base URLs and keys.
func ApplyEnv(settings *domain.Settings) {
	if cmd := strings.TrimSpace(os.Getenv(EnvWorkerCommand)); cmd != "" {
		settings.Worker.Command = cmd
	}
	if host := strings.TrimSpace(os.Getenv(EnvOllamaHost)); host != "" {
		if !strings.Contains(host, "://") {
			host = "http://" + host
		}
		if settings.Embedding.Provider == domain.AIProviderOllama && settings.Embedding.BaseURL == "" {
			settings.Embedding.BaseURL = host
		}
		if settings.LLM.Provider == domain.AIProviderOllama && settings.LLM.BaseURL == "" {
			settings.LLM.BaseURL = host
		}
	}
	if key := strings.TrimSpace(os.Getenv(EnvOpenAIKey)); key != "" {
		if settings.Embedding.Provider == domain.AIProviderOpenAI && settings.Embedding.APIKey == "" {
			settings.Embedding.APIKey = key
		}
		if settings.LLM.Provider == domain.AIProviderOpenAI && settings.LLM.APIKey == "" {
			settings.LLM.APIKey = key
		}
	}
}

// Open wires every service for the config directory.
func Open(ctx context.Context, opts Options) (*App, error) {
	dir, err := ResolveConfigDir(opts.ConfigDir)
	if err != nil {
		return nil, err
	}
	settingsSvc, settings, err := LoadSettings(dir)
	if err != nil {
		return nil, err
	}

	embedder, err := ai.CreateEmbeddingService(&settings.Embedding)
	if err != nil {
		return nil, err
	}

	index, recovery := OpenIndex(settings.Index)

	runner := process.NewExecRunner()
	registry := extractors.NewRegistry(plaintext.New(), docx.New(), pdf.New(runner))
	splitter := chunker.New(
		chunker.WithChunkSize(settings.Chunking.Size),
		chunker.WithOverlap(settings.Chunking.Overlap),
	)
	retriever := services.NewRetrieverService(index, embedder, settings.Retrieval.TopK)

	a := &App{
		ConfigDir:       dir,
		Settings:        settings,
		SettingsService: settingsSvc,
		Ingest:          services.NewIngestService(registry, splitter, embedder, index),
		Retriever:       retriever,
		Index:           services.NewIndexService(index, recovery),
		index:           index,
		embedder:        embedder,
	}

	if opts.WithWorker {
		command, args, err := WorkerCommand(dir, settings.Worker)
		if err != nil {
			logger.Warn("generation worker command: %v", err)
		}
		client := workerclient.New(ctx, workerclient.Config{
			Command:         command,
			Args:            args,
			Model:           settings.LLM.Model,
			CheckTimeout:    settings.Worker.CheckTimeout,
			GenerateTimeout: settings.Worker.GenerateTimeout,
		}, runner)

		prompts, err := file.NewPromptStore(filepath.Join(dir, file.PromptDirName))
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		a.Answer = services.NewAnswerService(retriever, client, prompts, services.AnswerConfig{
			Model:       settings.LLM.Model,
			Temperature: settings.LLM.Temperature,
			MaxTokens:   settings.LLM.MaxTokens,
		})
	}

	return a, nil
}

// OpenIndex opens the on-disk index, falling back to an in-memory index
// when no store can be opened at all.
func OpenIndex(settings domain.IndexSettings) (driven.VectorIndex, domain.RecoveryStep) {
	idx, err := sqlite.Open(settings.DataDir, sqlite.Options{Collection: settings.Collection})
	if err != nil {
		logger.Error("vector index unavailable, using a temporary in-memory index: %v", err)
		return memory.NewVectorIndex(settings.Collection), domain.RecoveryInMemory
	}
	if step := idx.Recovery(); step != domain.RecoveryPrimary {
		logger.Warn("vector index opened via %s at %s", step, idx.Path())
	}
	return idx, idx.Recovery()
}

// WorkerCommand returns the command line that launches the worker process.
// A configured command is split on whitespace; otherwise the running
// executable is re-invoked with the worker subcommand and config directory.
func WorkerCommand(configDir string, settings domain.WorkerSettings) (string, []string, error) {
	if fields := strings.Fields(settings.Command); len(fields) > 0 {
		return fields[0], fields[1:], nil
	}
	exe, err := os.Executable()
	if err != nil {
		return "", nil, fmt.Errorf("locate executable: %w", err)
	}
	return exe, []string{WorkerSubcommand, "--config-dir", configDir}, nil
}

// NewLLMFactory returns the factory the worker process uses to reach the
// language model. A non-empty model overrides the configured one.
func NewLLMFactory(settings domain.LLMSettings) worker.LLMFactory {
	return func(model string) (driven.LLMService, error) {
		s := settings
		if model != "" {
			s.Model = model
		}
		return ai.CreateLLMService(&s)
	}
}

// Close releases the index and the embedder.
func (a *App) Close() error {
	var errs []error
	if a.index != nil {
		errs = append(errs, a.index.Close())
	}
	if a.embedder != nil {
		errs = append(errs, a.embedder.Close())
	}
	return errors.Join(errs...)
}
