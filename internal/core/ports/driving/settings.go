package driving

import "github.com/custodia-labs/documind/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings.
	Get() (*domain.Settings, error)

	// Save persists application settings.
	Save(settings *domain.Settings) error

	// Set validates and persists a single dot-separated key.
	Set(key, value string) error

	// Keys returns every recognised settings key, sorted.
	Keys() []string

	// Validate checks that the configured providers are usable.
	Validate() error

	// GetDefaults returns default settings.
	GetDefaults() domain.Settings
}
