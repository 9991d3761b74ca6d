package driving

import "github.com/custodia-labs/ragpipe/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get returns the effective settings: defaults, then the config
	// file, then environment variables.
	Get() (*domain.AppSettings, error)

	// Set persists a single configuration key.
	Set(key, value string) error

	// Keys returns the recognised configuration keys.
	Keys() []string

	// Describe returns every key with its effective value and source.
	Describe() ([]domain.SettingEntry, error)

	// Path returns the configuration file path.
	Path() string
}

// ModelCatalog lists the embedding models of every provider.
type ModelCatalog interface {
	// Models returns each provider's static catalog keyed by provider name.
	Models() map[domain.AIProvider][]domain.EmbeddingModel
}
