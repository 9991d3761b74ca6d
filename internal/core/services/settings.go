package services

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/ragpipe/internal/core/domain"
	"github.com/custodia-labs/ragpipe/internal/core/ports/driven"
	"github.com/custodia-labs/ragpipe/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider     = "embedding.provider"
	keyOpenAIAPIKey      = "embedding.openai_api_key"
	keyVoyageAPIKey      = "embedding.voyage_api_key"
	keyAnthropicAPIKey   = "embedding.anthropic_api_key"
	keyOpenAIBaseURL     = "embedding.openai_base_url"
	keyRequestsPerSecond = "embedding.requests_per_second"
	keyBurst             = "embedding.burst"
	keyTimeoutSeconds    = "embedding.timeout_seconds"
	keyDataDir           = "storage.data_dir"
	keyUploadDir         = "storage.upload_dir"
	keyUploadMaxMB       = "upload.max_mb"
	keyEventBackend      = "events.backend"
	keyRedisURL          = "events.redis_url"
	keySweepInterval     = "worker.sweep_interval_seconds"
)

const bytesPerMB = 1024 * 1024

// LookupEnv reads an environment variable.
type LookupEnv func(key string) (string, bool)

// valueKind decides how a raw value is parsed and stored.
type valueKind int

const (
	kindString valueKind = iota
	kindInt
	kindFloat
)

// setting binds a config key and its environment variable to a field of
// domain.AppSettings.
type setting struct {
	key    string
	env    string
	kind   valueKind
	secret bool

	// apply parses raw and writes it into settings.
	apply func(settings *domain.AppSettings, raw string) error

	// format renders the field's current value.
	format func(settings *domain.AppSettings) string
}

// settingsTable lists every recognised key in display order.
var settingsTable = []setting{
	{
		key: keyEmbedProvider, env: "EMBEDDING_PROVIDER",
		apply: func(s *domain.AppSettings, raw string) error {
			provider := domain.AIProvider(strings.ToLower(raw))
			if provider != "" && !provider.IsValid() {
				return fmt.Errorf("unknown embedding provider %q (want openai, voyage or mock)", raw)
			}
			s.Embedding.Provider = provider
			return nil
		},
		format: func(s *domain.AppSettings) string { return s.Embedding.Provider.String() },
	},
	{
		key: keyOpenAIAPIKey, env: "OPENAI_API_KEY", secret: true,
		apply:  func(s *domain.AppSettings, raw string) error { s.Embedding.OpenAIAPIKey = raw; return nil },
		format: func(s *domain.AppSettings) string { return s.Embedding.OpenAIAPIKey },
	},
	{
		key: keyVoyageAPIKey, env: "VOYAGE_API_KEY", secret: true,
		apply:  func(s *domain.AppSettings, raw string) error { s.Embedding.VoyageAPIKey = raw; return nil },
		format: func(s *domain.AppSettings) string { return s.Embedding.VoyageAPIKey },
	},
	{
		key: keyAnthropicAPIKey, env: "ANTHROPIC_API_KEY", secret: true,
		apply:  func(s *domain.AppSettings, raw string) error { s.Embedding.AnthropicAPIKey = raw; return nil },
		format: func(s *domain.AppSettings) string { return s.Embedding.AnthropicAPIKey },
	},
	{
		key: keyOpenAIBaseURL, env: "OPENAI_BASE_URL",
		apply:  func(s *domain.AppSettings, raw string) error { s.Embedding.OpenAIBaseURL = raw; return nil },
		format: func(s *domain.AppSettings) string { return s.Embedding.OpenAIBaseURL },
	},
	{
		key: keyRequestsPerSecond, kind: kindFloat,
		apply: func(s *domain.AppSettings, raw string) error {
			v, err := parseFloat(raw)
			if err != nil {
				return err
			}
			s.Embedding.RequestsPerSecond = v
			return nil
		},
		format: func(s *domain.AppSettings) string {
			return strconv.FormatFloat(s.Embedding.RequestsPerSecond, 'f', -1, 64)
		},
	},
	{
		key: keyBurst, kind: kindInt,
		apply: func(s *domain.AppSettings, raw string) error {
			v, err := parseInt(raw, 0)
			if err != nil {
				return err
			}
			s.Embedding.Burst = v
			return nil
		},
		format: func(s *domain.AppSettings) string { return strconv.Itoa(s.Embedding.Burst) },
	},
	{
		key: keyTimeoutSeconds, kind: kindInt,
		apply: func(s *domain.AppSettings, raw string) error {
			d, err := parseSeconds(raw)
			if err != nil {
				return err
			}
			s.Embedding.Timeout = d
			return nil
		},
		format: func(s *domain.AppSettings) string { return formatSeconds(s.Embedding.Timeout) },
	},
	{
		key: keyDataDir, env: "RAGPIPE_DATA_DIR",
		apply:  func(s *domain.AppSettings, raw string) error { s.Storage.DataDir = raw; return nil },
		format: func(s *domain.AppSettings) string { return s.Storage.DataDir },
	},
	{
		key: keyUploadDir, env: "RAGPIPE_UPLOAD_DIR",
		apply:  func(s *domain.AppSettings, raw string) error { s.Storage.UploadDir = raw; return nil },
		format: func(s *domain.AppSettings) string { return s.Storage.UploadDir },
	},
	{
		key: keyUploadMaxMB, env: "RAGPIPE_MAX_UPLOAD_MB", kind: kindInt,
		apply: func(s *domain.AppSettings, raw string) error {
			v, err := parseInt(raw, 1)
			if err != nil {
				return err
			}
			s.Upload.MaxBytes = int64(v) * bytesPerMB
			return nil
		},
		format: func(s *domain.AppSettings) string {
			return strconv.FormatInt(s.Upload.MaxBytes/bytesPerMB, 10)
		},
	},
	{
		key: keyEventBackend, env: "RAGPIPE_EVENT_BACKEND",
		apply: func(s *domain.AppSettings, raw string) error {
			backend := domain.EventBackend(strings.ToLower(raw))
			switch backend {
			case domain.EventBackendMemory, domain.EventBackendRedis:
				s.Events.Backend = backend
				return nil
			default:
				return fmt.Errorf("unknown event backend %q (want memory or redis)", raw)
			}
		},
		format: func(s *domain.AppSettings) string { return string(s.Events.Backend) },
	},
	{
		key: keyRedisURL, env: "REDIS_URL", secret: true,
		apply:  func(s *domain.AppSettings, raw string) error { s.Events.RedisURL = raw; return nil },
		format: func(s *domain.AppSettings) string { return s.Events.RedisURL },
	},
	{
		key: keySweepInterval, env: "RAGPIPE_SWEEP_INTERVAL", kind: kindInt,
		apply: func(s *domain.AppSettings, raw string) error {
			d, err := parseSeconds(raw)
			if err != nil {
				return err
			}
			s.Worker.SweepInterval = d
			return nil
		},
		format: func(s *domain.AppSettings) string { return formatSeconds(s.Worker.SweepInterval) },
	},
}

// SettingsService layers defaults, the config file and environment
// variables into the effective application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	lookupEnv   LookupEnv
}

// NewSettingsService creates a new settings service.
// A nil lookupEnv reads the process environment.
func NewSettingsService(configStore driven.ConfigStore, lookupEnv LookupEnv) *SettingsService {
	if lookupEnv == nil {
		lookupEnv = os.LookupEnv
	}
	return &SettingsService{
		configStore: configStore,
		lookupEnv:   lookupEnv,
	}
}

// Get returns the effective settings. Invalid stored or environment
// values are reported rather than silently replaced by defaults.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	settings := domain.DefaultAppSettings()

	for i := range settingsTable {
		def := &settingsTable[i]
		raw, source := s.raw(def)
		if source == domain.SettingSourceDefault {
			continue
		}
		if err := def.apply(&settings, raw); err != nil {
			return nil, fmt.Errorf("%w: %s from %s: %v", domain.ErrInvalidInput, s.label(def, source), source, err)
		}
	}

	return &settings, nil
}

// Set validates and persists a single key. An empty value removes the
// key so the default applies again.
func (s *SettingsService) Set(key, value string) error {
	def, ok := lookupSetting(key)
	if !ok {
		return fmt.Errorf("%w: unknown config key %q", domain.ErrInvalidInput, key)
	}

	value = strings.TrimSpace(value)
	if value == "" {
		if err := s.configStore.Unset(key); err != nil {
			return fmt.Errorf("unset %s: %w", key, err)
		}
		return nil
	}

	scratch := domain.DefaultAppSettings()
	if err := def.apply(&scratch, value); err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, key, err)
	}

	stored, err := storedValue(def, value)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, key, err)
	}
	if err := s.configStore.Set(key, stored); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Keys returns the recognised configuration keys in display order.
func (s *SettingsService) Keys() []string {
	keys := make([]string, len(settingsTable))
	for i := range settingsTable {
		keys[i] = settingsTable[i].key
	}
	return keys
}

// Describe returns every key with its effective value and where it came from.
func (s *SettingsService) Describe() ([]domain.SettingEntry, error) {
	settings, err := s.Get()
	if err != nil {
		return nil, err
	}

	entries := make([]domain.SettingEntry, 0, len(settingsTable))
	for i := range settingsTable {
		def := &settingsTable[i]
		_, source := s.raw(def)
		value := def.format(settings)
		if def.secret {
			value = MaskSecret(value)
		}
		entries = append(entries, domain.SettingEntry{
			Key:    def.key,
			Env:    def.env,
			Value:  value,
			Source: source,
			Secret: def.secret,
		})
	}
	return entries, nil
}

// Path returns the configuration file path.
func (s *SettingsService) Path() string {
	return s.configStore.Path()
}

// raw returns the highest-precedence raw value of a setting.
// Empty environment variables count as unset.
func (s *SettingsService) raw(def *setting) (string, domain.SettingSource) {
	if def.env != "" {
		if v, ok := s.lookupEnv(def.env); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), domain.SettingSourceEnv
		}
	}
	if v, ok := s.configStore.Get(def.key); ok {
		if str := strings.TrimSpace(fmt.Sprint(v)); str != "" {
			return str, domain.SettingSourceConfig
		}
	}
	return "", domain.SettingSourceDefault
}

func (s *SettingsService) label(def *setting, source domain.SettingSource) string {
	if source == domain.SettingSourceEnv {
		return def.env
	}
	return def.key
}

// MaskSecret hides all but the last four characters of a secret.
func MaskSecret(value string) string {
	if value == "" {
		return ""
	}
	if len(value) <= 8 {
		return "****"
	}
	return "****" + value[len(value)-4:]
}

func lookupSetting(key string) (*setting, bool) {
	key = strings.ToLower(strings.TrimSpace(key))
	for i := range settingsTable {
		if settingsTable[i].key == key {
			return &settingsTable[i], true
		}
	}
	return nil, false
}

// storedValue converts a validated raw value to the type written to TOML.
func storedValue(def *setting, value string) (any, error) {
	switch def.kind {
	case kindInt:
		if d, err := time.ParseDuration(value); err == nil {
			return int64(d / time.Second), nil
		}
		return strconv.ParseInt(value, 10, 64)
	case kindFloat:
		return strconv.ParseFloat(value, 64)
	default:
		if def.key == keyEmbedProvider || def.key == keyEventBackend {
			return strings.ToLower(value), nil
		}
		return value, nil
	}
}

func parseInt(raw string, minimum int) (int, error) {
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%q is not a whole number", raw)
	}
	if v < minimum {
		return 0, fmt.Errorf("%d is below the minimum of %d", v, minimum)
	}
	return v, nil
}

func parseFloat(raw string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", raw)
	}
	if v < 0 {
		return 0, fmt.Errorf("%v must not be negative", v)
	}
	return v, nil
}

// parseSeconds accepts whole seconds ("30") or a Go duration ("1m30s").
// The result must be at least one second.
func parseSeconds(raw string) (time.Duration, error) {
	d, err := time.ParseDuration(raw)
	if err != nil {
		secs, convErr := parseInt(raw, 1)
		if convErr != nil {
			return 0, convErr
		}
		return time.Duration(secs) * time.Second, nil
	}
	if d < time.Second {
		return 0, fmt.Errorf("%s is shorter than one second", d)
	}
	return d, nil
}

func formatSeconds(d time.Duration) string {
	return strconv.FormatInt(int64(d/time.Second), 10)
}
