package services

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/documind/internal/core/domain"
	"github.com/custodia-labs/documind/internal/core/ports/driven"
	"github.com/custodia-labs/documind/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyIndexDataDir    = "index.data_dir"
	keyIndexCollection = "index.collection"
	keyChunkSize       = "chunking.size"
	keyChunkOverlap    = "chunking.overlap"
	keyEmbedProvider   = "embedding.provider"
	keyEmbedModel      = "embedding.model"
	keyEmbedBaseURL    = "embedding.base_url"
	keyEmbedAPIKey     = "embedding.api_key"
	keyEmbedRPS        = "embedding.requests_per_second"
	keyLLMProvider     = "llm.provider"
	keyLLMModel        = "llm.model"
	keyLLMBaseURL      = "llm.base_url"
	keyLLMAPIKey       = "llm.api_key"
	keyLLMTemperature  = "llm.temperature"
	keyLLMMaxTokens    = "llm.max_tokens"
	keyWorkerCommand   = "worker.command"
	keyWorkerCheck     = "worker.check_timeout"
	keyWorkerGenerate  = "worker.generate_timeout"
	keyRetrievalTopK   = "retrieval.top_k"
)

type valueKind int

const (
	kindString valueKind = iota
	kindInt
	kindFloat
	kindDuration
	kindEmbeddingProvider
	kindLLMProvider
)

// settingKinds lists every recognised key and how its value is parsed.
var settingKinds = map[string]valueKind{
	keyIndexDataDir:    kindString,
	keyIndexCollection: kindString,
	keyChunkSize:       kindInt,
	keyChunkOverlap:    kindInt,
	keyEmbedProvider:   kindEmbeddingProvider,
	keyEmbedModel:      kindString,
	keyEmbedBaseURL:    kindString,
	keyEmbedAPIKey:     kindString,
	keyEmbedRPS:        kindFloat,
	keyLLMProvider:     kindLLMProvider,
	keyLLMModel:        kindString,
	keyLLMBaseURL:      kindString,
	keyLLMAPIKey:       kindString,
	keyLLMTemperature:  kindFloat,
	keyLLMMaxTokens:    kindInt,
	keyWorkerCommand:   kindString,
	keyWorkerCheck:     kindDuration,
	keyWorkerGenerate:  kindDuration,
	keyRetrievalTopK:   kindInt,
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore    driven.ConfigStore
	defaultDataDir string
}

// NewSettingsService creates a new settings service. defaultDataDir is used
// for index.data_dir when the key is unset.
func NewSettingsService(configStore driven.ConfigStore, defaultDataDir string) *SettingsService {
	return &SettingsService{
		configStore:    configStore,
		defaultDataDir: defaultDataDir,
	}
}

// Get retrieves current application settings. Unset or invalid values fall
// back to defaults.
func (s *SettingsService) Get() (*domain.Settings, error) {
	defaults := s.GetDefaults()

	settings := &domain.Settings{
		Index: domain.IndexSettings{
			DataDir:    s.getString(keyIndexDataDir, defaults.Index.DataDir),
			Collection: s.getString(keyIndexCollection, defaults.Index.Collection),
		},
		Chunking: domain.ChunkingSettings{
			Size:    s.getInt(keyChunkSize, defaults.Chunking.Size),
			Overlap: s.getInt(keyChunkOverlap, defaults.Chunking.Overlap),
		},
		Embedding: domain.EmbeddingSettings{
			Provider:          s.getProvider(keyEmbedProvider, defaults.Embedding.Provider),
			Model:             s.getString(keyEmbedModel, defaults.Embedding.Model),
			BaseURL:           s.configStore.GetString(keyEmbedBaseURL),
			APIKey:            s.configStore.GetString(keyEmbedAPIKey),
			RequestsPerSecond: s.getFloat(keyEmbedRPS, defaults.Embedding.RequestsPerSecond),
		},
		LLM: domain.LLMSettings{
			Provider:    s.getProvider(keyLLMProvider, defaults.LLM.Provider),
			Model:       s.getString(keyLLMModel, defaults.LLM.Model),
			BaseURL:     s.configStore.GetString(keyLLMBaseURL),
			APIKey:      s.configStore.GetString(keyLLMAPIKey),
			Temperature: s.getFloat(keyLLMTemperature, defaults.LLM.Temperature),
			MaxTokens:   s.getInt(keyLLMMaxTokens, defaults.LLM.MaxTokens),
		},
		Worker: domain.WorkerSettings{
			Command:         s.configStore.GetString(keyWorkerCommand),
			CheckTimeout:    s.getDuration(keyWorkerCheck, defaults.Worker.CheckTimeout),
			GenerateTimeout: s.getDuration(keyWorkerGenerate, defaults.Worker.GenerateTimeout),
		},
		Retrieval: domain.RetrievalSettings{
			TopK: s.getInt(keyRetrievalTopK, defaults.Retrieval.TopK),
		},
	}

	return settings, nil
}

// Save persists application settings. Empty API keys are not written so a
// key supplied through the environment is never copied to disk.
func (s *SettingsService) Save(settings *domain.Settings) error {
	if settings == nil {
		return fmt.Errorf("%w: nil settings", domain.ErrInvalidInput)
	}

	values := []struct {
		key   string
		value any
	}{
		{keyIndexDataDir, settings.Index.DataDir},
		{keyIndexCollection, settings.Index.Collection},
		{keyChunkSize, settings.Chunking.Size},
		{keyChunkOverlap, settings.Chunking.Overlap},
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyEmbedRPS, settings.Embedding.RequestsPerSecond},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyLLMTemperature, settings.LLM.Temperature},
		{keyLLMMaxTokens, settings.LLM.MaxTokens},
		{keyWorkerCommand, settings.Worker.Command},
		{keyWorkerCheck, settings.Worker.CheckTimeout.String()},
		{keyWorkerGenerate, settings.Worker.GenerateTimeout.String()},
		{keyRetrievalTopK, settings.Retrieval.TopK},
	}
	if settings.Embedding.APIKey != "" {
		values = append(values, struct {
			key   string
			value any
		}{keyEmbedAPIKey, settings.Embedding.APIKey})
	}
	if settings.LLM.APIKey != "" {
		values = append(values, struct {
			key   string
			value any
		}{keyLLMAPIKey, settings.LLM.APIKey})
	}

	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}
	return nil
}

// Set parses value according to the key's type and persists it.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := settingKinds[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q (valid keys: %s)",
			domain.ErrInvalidInput, key, strings.Join(s.Keys(), ", "))
	}

	value = strings.TrimSpace(value)
	var parsed any
	switch kind {
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("%w: %s must be a non-negative integer, got %q", domain.ErrInvalidInput, key, value)
		}
		parsed = n
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 {
			return fmt.Errorf("%w: %s must be a non-negative number, got %q", domain.ErrInvalidInput, key, value)
		}
		parsed = f
	case kindDuration:
		d, err := time.ParseDuration(value)
		if err != nil || d <= 0 {
			return fmt.Errorf("%w: %s must be a positive duration such as 8s, got %q",
				domain.ErrInvalidInput, key, value)
		}
		parsed = d.String()
	case kindEmbeddingProvider:
		p := domain.AIProvider(value)
		if !containsProvider(domain.AllEmbeddingProviders(), p) {
			return fmt.Errorf("%w: %s must be one of %s", domain.ErrInvalidInput, key,
				joinProviders(domain.AllEmbeddingProviders()))
		}
		parsed = value
	case kindLLMProvider:
		p := domain.AIProvider(value)
		if !containsProvider(domain.AllLLMProviders(), p) {
			return fmt.Errorf("%w: %s must be one of %s", domain.ErrInvalidInput, key,
				joinProviders(domain.AllLLMProviders()))
		}
		parsed = value
	default:
		parsed = value
	}

	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Keys returns every recognised settings key, sorted.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(settingKinds))
	for k := range settingKinds {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Validate checks that the stored settings are internally consistent and
// that the selected providers have the credentials they need.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	var errs []error
	if settings.Chunking.Size <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive", keyChunkSize))
	}
	if settings.Chunking.Overlap >= settings.Chunking.Size {
		errs = append(errs, fmt.Errorf("%s (%d) must be smaller than %s (%d)",
			keyChunkOverlap, settings.Chunking.Overlap, keyChunkSize, settings.Chunking.Size))
	}
	if settings.Retrieval.TopK <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive", keyRetrievalTopK))
	}
	if !settings.Embedding.IsConfigured() {
		errs = append(errs, fmt.Errorf("%w: %s %q needs an API key (%s)",
			domain.ErrEmbeddingUnavailable, keyEmbedProvider, settings.Embedding.Provider, keyEmbedAPIKey))
	}
	if !settings.LLM.IsConfigured() {
		errs = append(errs, fmt.Errorf("%w: %s %q needs an API key (%s)",
			domain.ErrLLMUnavailable, keyLLMProvider, settings.LLM.Provider, keyLLMAPIKey))
	}
	if settings.LLM.Temperature > 2 {
		errs = append(errs, fmt.Errorf("%s must be between 0 and 2", keyLLMTemperature))
	}

	return errors.Join(errs...)
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.Settings {
	defaults := domain.DefaultSettings()
	defaults.Index.DataDir = s.defaultDataDir
	return defaults
}

// getString returns the stored value, or defaultVal when unset or empty.
func (s *SettingsService) getString(key, defaultVal string) string {
	if val := s.configStore.GetString(key); val != "" {
		return val
	}
	return defaultVal
}

// getInt returns the stored value, or defaultVal when unset or not positive.
func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, ok := s.configStore.Get(key); !ok {
		return defaultVal
	}
	val := s.configStore.GetInt(key)
	if val < 0 {
		return defaultVal
	}
	return val
}

// getFloat returns the stored value, or defaultVal when unset or negative.
func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, ok := s.configStore.Get(key); !ok {
		return defaultVal
	}
	val := s.configStore.GetFloat(key)
	if val < 0 {
		return defaultVal
	}
	return val
}

// getDuration parses a stored duration string such as "8s".
func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	d, err := time.ParseDuration(s.configStore.GetString(key))
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

// getProvider returns the stored provider, or defaultVal when unset or unknown.
func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	p := domain.AIProvider(s.configStore.GetString(key))
	if p.IsValid() {
		return p
	}
	return defaultVal
}

func containsProvider(list []domain.AIProvider, p domain.AIProvider) bool {
	for _, candidate := range list {
		if candidate == p {
			return true
		}
	}
	return false
}

func joinProviders(list []domain.AIProvider) string {
	names := make([]string, len(list))
	for i, p := range list {
		names[i] = p.String()
	}
	return strings.Join(names, ", ")
}
