package driving

import "github.com/custodia-labs/policyrag/internal/core/domain"

// SettingsService resolves application settings from config and environment.
type SettingsService interface {
	// Get returns the effective settings: defaults, then config file, then environment.
	Get() domain.Settings

	// Set persists a single config key.
	Set(key string, value any) error

	// GetDefaults returns default settings.
	GetDefaults() domain.Settings

	// ConfigPath returns the config file location.
	ConfigPath() string

	// Keys returns every settable key, sorted.
	Keys() []string
}
