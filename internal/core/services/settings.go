package services

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/policyrag/internal/core/domain"
	"github.com/custodia-labs/policyrag/internal/core/ports/driven"
	"github.com/custodia-labs/policyrag/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider   = "embedding.provider"
	keyEmbedModel      = "embedding.model"
	keyEmbedDeployment = "embedding.deployment"
	keyEmbedBaseURL    = "embedding.base_url"
	keyEmbedAPIKey     = "embedding.api_key"
	keyEmbedAPIVersion = "embedding.api_version"
	keyEmbedDimensions = "embedding.dimensions"

	keyLLMProvider   = "llm.provider"
	keyLLMModel      = "llm.model"
	keyLLMDeployment = "llm.deployment"
	keyLLMBaseURL    = "llm.base_url"
	keyLLMAPIKey     = "llm.api_key"
	keyLLMAPIVersion = "llm.api_version"

	keyIndexBackend   = "index.backend"
	keyIndexNamespace = "index.namespace"
	keyIndexAPIKey    = "index.api_key"
	keyIndexHost      = "index.host"
	keyIndexName      = "index.name"
	keyIndexDSN       = "index.dsn"
	keyIndexDataDir   = "index.data_dir"

	keyBatchSize       = "pipeline.batch_size"
	keyChunkSize       = "pipeline.chunk_size"
	keyChunkOverlap    = "pipeline.chunk_overlap"
	keyTopK            = "pipeline.top_k"
	keyContextBudget   = "pipeline.context_budget"
	keyChunkOverhead   = "pipeline.chunk_overhead"
	keyPolicyChunkSize = "pipeline.policy_chunk_size"
	keyPolicyMaxChars  = "pipeline.policy_max_chars"
	keyContinueOnError = "pipeline.continue_on_error"
)

type keyKind int

const (
	kindString keyKind = iota
	kindInt
	kindBool
)

var knownKeys = map[string]keyKind{
	keyEmbedProvider:   kindString,
	keyEmbedModel:      kindString,
	keyEmbedDeployment: kindString,
	keyEmbedBaseURL:    kindString,
	keyEmbedAPIKey:     kindString,
	keyEmbedAPIVersion: kindString,
	keyEmbedDimensions: kindInt,

	keyLLMProvider:   kindString,
	keyLLMModel:      kindString,
	keyLLMDeployment: kindString,
	keyLLMBaseURL:    kindString,
	keyLLMAPIKey:     kindString,
	keyLLMAPIVersion: kindString,

	keyIndexBackend:   kindString,
	keyIndexNamespace: kindString,
	keyIndexAPIKey:    kindString,
	keyIndexHost:      kindString,
	keyIndexName:      kindString,
	keyIndexDSN:       kindString,
	keyIndexDataDir:   kindString,

	keyBatchSize:       kindInt,
	keyChunkSize:       kindInt,
	keyChunkOverlap:    kindInt,
	keyTopK:            kindInt,
	keyContextBudget:   kindInt,
	keyChunkOverhead:   kindInt,
	keyPolicyChunkSize: kindInt,
	keyPolicyMaxChars:  kindInt,
	keyContinueOnError: kindBool,
}

// DefaultOllamaURL is used when an Ollama provider has no base URL.
const DefaultOllamaURL = "http://localhost:11434"

// DefaultEnvFile is loaded when DOTENV_CONFIG_PATH is unset.
const DefaultEnvFile = ".env.local"

// LoadEnvFile loads KEY=value pairs from the file named by
// DOTENV_CONFIG_PATH (default .env.local) into the process environment.
// Variables already set are kept. A missing file is not an error.
func LoadEnvFile() error {
	path := os.Getenv("DOTENV_CONFIG_PATH")
	if path == "" {
		path = DefaultEnvFile
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// SettingsService resolves settings from defaults, the config file and
// the environment, in increasing order of precedence.
type SettingsService struct {
	configStore driven.ConfigStore
	lookupEnv   func(string) (string, bool)
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		lookupEnv:   os.LookupEnv,
	}
}

// SetEnvLookup replaces the environment lookup, for tests.
func (s *SettingsService) SetEnvLookup(fn func(string) (string, bool)) {
	s.lookupEnv = fn
}

// Get returns the effective settings.
func (s *SettingsService) Get() domain.Settings {
	settings := domain.DefaultSettings()
	settings.Embedding = s.embeddingSettings()
	settings.LLM = s.llmSettings()
	settings.Index = s.indexSettings(settings.Index)
	settings.Pipeline = s.pipelineSettings(settings.Pipeline)
	return settings
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.Settings {
	return domain.DefaultSettings()
}

// ConfigPath returns the config file location.
func (s *SettingsService) ConfigPath() string {
	return s.configStore.Path()
}

// Keys returns every settable key, sorted.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(knownKeys))
	for k := range knownKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set validates and persists one setting. String values are converted to
// the key's type.
func (s *SettingsService) Set(key string, value any) error {
	kind, ok := knownKeys[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	converted, err := convertValue(kind, value)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, key, err)
	}

	switch key {
	case keyEmbedProvider, keyLLMProvider:
		if p := domain.AIProvider(converted.(string)); !p.IsValid() {
			return fmt.Errorf("%w: invalid provider: %s", domain.ErrInvalidInput, p)
		}
	case keyIndexBackend:
		if b := domain.IndexBackend(converted.(string)); !b.IsValid() {
			return fmt.Errorf("%w: invalid index backend: %s", domain.ErrInvalidInput, b)
		}
	}

	if err := s.configStore.Set(key, converted); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return s.configStore.Save()
}

func (s *SettingsService) embeddingSettings() domain.EmbeddingSettings {
	e := domain.EmbeddingSettings{
		Provider: s.provider("EMBEDDING_PROVIDER", keyEmbedProvider),
	}
	e.Model = s.value("EMBEDDING_MODEL", keyEmbedModel)
	e.Deployment = s.value("AZURE_OPENAI_EMBED_DEPLOYMENT", keyEmbedDeployment)
	e.APIVersion = s.value("AZURE_OPENAI_API_VERSION", keyEmbedAPIVersion)
	e.BaseURL, e.APIKey = s.endpoint(e.Provider, keyEmbedBaseURL, keyEmbedAPIKey)

	if e.Model == "" {
		e.Model = domain.DefaultEmbeddingModels()[e.Provider]
	}
	if e.Provider == domain.AIProviderAzure && e.APIVersion == "" {
		e.APIVersion = domain.DefaultAzureAPIVersion
	}
	e.Dimensions = s.configStore.GetInt(keyEmbedDimensions)
	if e.Dimensions == 0 {
		e.Dimensions = domain.EmbeddingDimensions()[e.Model]
	}
	return e
}

func (s *SettingsService) llmSettings() domain.LLMSettings {
	l := domain.LLMSettings{
		Provider: s.provider("LLM_PROVIDER", keyLLMProvider),
	}
	l.Model = s.value("LLM_MODEL", keyLLMModel)
	l.Deployment = s.value("AZURE_OPENAI_DEPLOYMENT", keyLLMDeployment)
	l.APIVersion = s.value("AZURE_OPENAI_API_VERSION", keyLLMAPIVersion)
	l.BaseURL, l.APIKey = s.endpoint(l.Provider, keyLLMBaseURL, keyLLMAPIKey)

	if l.Model == "" {
		l.Model = domain.DefaultLLMModels()[l.Provider]
	}
	if l.Provider == domain.AIProviderAzure && l.APIVersion == "" {
		l.APIVersion = domain.DefaultAzureAPIVersion
	}
	return l
}

func (s *SettingsService) indexSettings(defaults domain.IndexSettings) domain.IndexSettings {
	idx := defaults
	backend := domain.IndexBackend(s.value("VECTOR_INDEX_BACKEND", keyIndexBackend))
	switch {
	case backend.IsValid():
		idx.Backend = backend
	case s.env("PINECONE_API_KEY") != "":
		idx.Backend = domain.IndexBackendPinecone
	}

	if ns := s.value("PINECONE_NAMESPACE", keyIndexNamespace); ns != "" {
		idx.Namespace = ns
	}
	idx.APIKey = s.value("PINECONE_API_KEY", keyIndexAPIKey)
	idx.Host = s.value("PINECONE_HOST", keyIndexHost)
	idx.Name = s.value("PINECONE_INDEX", keyIndexName)
	idx.DSN = s.value("PGVECTOR_DSN", keyIndexDSN)
	idx.DataDir = s.configStore.GetString(keyIndexDataDir)
	return idx
}

func (s *SettingsService) pipelineSettings(p domain.PipelineSettings) domain.PipelineSettings {
	p.BatchSize = s.intValue("RAG_BATCH_SIZE", keyBatchSize, p.BatchSize)
	p.ChunkSize = s.intValue("RAG_CHUNK_SIZE", keyChunkSize, p.ChunkSize)
	p.ChunkOverlap = s.intValue("RAG_CHUNK_OVERLAP", keyChunkOverlap, p.ChunkOverlap)
	p.TopK = s.intValue("RAG_TOP_K", keyTopK, p.TopK)
	p.ContextBudget = s.intValue("RAG_CONTEXT_BUDGET", keyContextBudget, p.ContextBudget)
	p.ChunkOverhead = s.intValue("", keyChunkOverhead, p.ChunkOverhead)
	p.PolicyChunkSize = s.intValue("", keyPolicyChunkSize, p.PolicyChunkSize)
	p.PolicyMaxChars = s.intValue("", keyPolicyMaxChars, p.PolicyMaxChars)
	p.ContinueOnError = s.configStore.GetBool(keyContinueOnError)
	return p
}

// provider resolves an AI provider. Without an explicit choice, Azure
// credentials select Azure and an OpenAI key selects OpenAI.
func (s *SettingsService) provider(envKey, cfgKey string) domain.AIProvider {
	if p := domain.AIProvider(s.value(envKey, cfgKey)); p.IsValid() {
		return p
	}
	switch {
	case s.env("AZURE_OPENAI_ENDPOINT") != "":
		return domain.AIProviderAzure
	case s.env("OPENAI_API_KEY") != "":
		return domain.AIProviderOpenAI
	default:
		return ""
	}
}

// endpoint returns base URL and API key for the provider, preferring the
// provider's environment variables over the config file.
func (s *SettingsService) endpoint(p domain.AIProvider, urlKey, apiKeyKey string) (baseURL, apiKey string) {
	switch p {
	case domain.AIProviderAzure:
		return s.value("AZURE_OPENAI_ENDPOINT", urlKey), s.value("AZURE_OPENAI_API_KEY", apiKeyKey)
	case domain.AIProviderOpenAI:
		return s.value("OPENAI_BASE_URL", urlKey), s.value("OPENAI_API_KEY", apiKeyKey)
	case domain.AIProviderOllama:
		baseURL = s.value("OLLAMA_BASE_URL", urlKey)
		if baseURL == "" {
			baseURL = DefaultOllamaURL
		}
		return baseURL, ""
	default:
		return s.configStore.GetString(urlKey), s.configStore.GetString(apiKeyKey)
	}
}

func (s *SettingsService) env(key string) string {
	if key == "" || s.lookupEnv == nil {
		return ""
	}
	v, ok := s.lookupEnv(key)
	if !ok {
		return ""
	}
	return strings.TrimSpace(v)
}

// value returns the environment variable when set, else the config value.
func (s *SettingsService) value(envKey, cfgKey string) string {
	if v := s.env(envKey); v != "" {
		return v
	}
	return s.configStore.GetString(cfgKey)
}

func (s *SettingsService) intValue(envKey, cfgKey string, defaultVal int) int {
	if v := s.env(envKey); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	if n := s.configStore.GetInt(cfgKey); n > 0 {
		return n
	}
	return defaultVal
}

func convertValue(kind keyKind, value any) (any, error) {
	str, isString := value.(string)
	switch kind {
	case kindInt:
		switch v := value.(type) {
		case int:
			return v, nil
		case int64:
			return int(v), nil
		}
		if !isString {
			return nil, fmt.Errorf("expected integer, got %T", value)
		}
		n, err := strconv.Atoi(strings.TrimSpace(str))
		if err != nil {
			return nil, fmt.Errorf("expected integer: %w", err)
		}
		return n, nil
	case kindBool:
		if b, ok := value.(bool); ok {
			return b, nil
		}
		if !isString {
			return nil, fmt.Errorf("expected boolean, got %T", value)
		}
		b, err := strconv.ParseBool(strings.TrimSpace(str))
		if err != nil {
			return nil, fmt.Errorf("expected boolean: %w", err)
		}
		return b, nil
	default:
		if !isString {
			return fmt.Sprint(value), nil
		}
		return strings.TrimSpace(str), nil
	}
}
