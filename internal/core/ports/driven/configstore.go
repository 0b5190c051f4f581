package driven

// ConfigStore is the persisted key/value layer beneath the settings service.
// Keys are dotted paths: "index.namespace" is namespace in the [index] table.
// Typed getters return the zero value for missing keys or mismatched types.
type ConfigStore interface {
	// Get returns the raw value and whether the key is present.
	Get(key string) (any, bool)

	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool
	GetStringSlice(key string) []string

	// Set changes a value in memory. Call Save to persist it.
	Set(key string, value any) error

	// Save writes all values to the backing file.
	Save() error

	// Load replaces the in-memory values with the backing file's contents.
	Load() error

	// Keys lists the dotted keys currently set, sorted.
	Keys() []string

	// Path identifies the backing file, for display.
	Path() string
}
