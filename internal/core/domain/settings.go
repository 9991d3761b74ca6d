package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an embedding service provider.
type AIProvider string

// Available embedding providers.
const (
	// AIProviderOpenAI is the OpenAI embeddings API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderVoyage is the Voyage AI embeddings API.
	AIProviderVoyage AIProvider = "voyage"

	// AIProviderMock is the deterministic offline provider.
	AIProviderMock AIProvider = "mock"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOpenAI, AIProviderVoyage, AIProviderMock:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderVoyage
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderVoyage:
		return "Voyage AI (cloud, accepts Anthropic keys)"
	case AIProviderMock:
		return "Mock (deterministic, offline)"
	default:
		return unknownDescription
	}
}

// EmbeddingModel describes one entry of a provider's static model catalog.
type EmbeddingModel struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Dimension   int    `json:"dimension"`
	Description string `json:"description"`
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is an explicit provider choice. Empty means auto-detect.
	Provider AIProvider

	// OpenAIAPIKey authenticates against OpenAI.
	OpenAIAPIKey string

	// OpenAIBaseURL overrides the OpenAI endpoint for compatible APIs.
	OpenAIBaseURL string

	// VoyageAPIKey authenticates against Voyage AI.
	VoyageAPIKey string

	// AnthropicAPIKey is accepted by Voyage AI when no Voyage key is set.
	AnthropicAPIKey string

	// RequestsPerSecond paces remote provider calls. Zero disables pacing.
	RequestsPerSecond float64

	// Burst is the token bucket size for pacing.
	Burst int

	// Timeout bounds a single provider request.
	Timeout time.Duration
}

// VoyageKey returns the Voyage key, falling back to the Anthropic key.
func (e EmbeddingSettings) VoyageKey() string {
	if e.VoyageAPIKey != "" {
		return e.VoyageAPIKey
	}
	return e.AnthropicAPIKey
}

// StorageSettings holds local storage locations.
type StorageSettings struct {
	// DataDir holds the sqlite database.
	DataDir string

	// UploadDir holds uploaded files until they are processed.
	UploadDir string
}

// UploadSettings bounds accepted uploads.
type UploadSettings struct {
	// MaxBytes is the largest accepted upload.
	MaxBytes int64
}

// EventBackend selects the live-update transport.
type EventBackend string

// Available event backends.
const (
	EventBackendMemory EventBackend = "memory"
	EventBackendRedis  EventBackend = "redis"
)

// EventSettings configures the event bus.
type EventSettings struct {
	Backend  EventBackend
	RedisURL string
}

// WorkerSettings configures the pending document sweeper.
type WorkerSettings struct {
	SweepInterval time.Duration
}

// AppSettings holds all application settings.
type AppSettings struct {
	Embedding EmbeddingSettings
	Storage   StorageSettings
	Upload    UploadSettings
	Events    EventSettings
	Worker    WorkerSettings
}

// DefaultMaxUploadBytes is the largest upload accepted by default (50 MiB).
const DefaultMaxUploadBytes = 50 * 1024 * 1024

// DefaultAppSettings returns settings with sensible defaults.
// Storage directories are left empty and resolved by the adapters.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			RequestsPerSecond: 5,
			Burst:             10,
			Timeout:           60 * time.Second,
		},
		Upload: UploadSettings{
			MaxBytes: DefaultMaxUploadBytes,
		},
		Events: EventSettings{
			Backend: EventBackendMemory,
		},
		Worker: WorkerSettings{
			SweepInterval: 30 * time.Second,
		},
	}
}

// SettingSource tells where an effective setting value came from.
type SettingSource string

// Setting sources, lowest precedence first.
const (
	SettingSourceDefault SettingSource = "default"
	SettingSourceConfig  SettingSource = "config"
	SettingSourceEnv     SettingSource = "env"
)

// SettingEntry describes one configuration key and its effective value.
// Secret values are masked.
type SettingEntry struct {
	Key    string
	Env    string
	Value  string
	Source SettingSource
	Secret bool
}
