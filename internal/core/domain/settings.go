package domain

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderAzure is Azure OpenAI, addressed by deployment name.
	AIProviderAzure AIProvider = "azure"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"
)

// AllAIProviders returns the supported AI providers in menu order.
func AllAIProviders() []AIProvider {
	return []AIProvider{AIProviderOpenAI, AIProviderAzure, AIProviderOllama}
}

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderAzure, AIProviderOpenAI, AIProviderOllama:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAzure
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderAzure:
		return "Azure OpenAI (cloud)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderOllama:
		return "Ollama (local)"
	default:
		return unknownDescription
	}
}

// DefaultAzureAPIVersion is used when no API version is configured.
const DefaultAzureAPIVersion = "2024-12-01-preview"

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name (OpenAI, Ollama).
	Model string

	// Deployment is the Azure deployment name.
	Deployment string

	// BaseURL is the API endpoint (Azure endpoint, Ollama URL, OpenAI-compatible URL).
	BaseURL string

	// APIKey is the API key (Azure, OpenAI).
	APIKey string

	// APIVersion is the Azure API version.
	APIVersion string

	// Dimensions overrides the model's default vector size.
	Dimensions int
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	return e.Validate() == nil
}

// Validate reports the first missing setting.
func (e EmbeddingSettings) Validate() error {
	switch e.Provider {
	case AIProviderAzure:
		if e.BaseURL == "" {
			return &MissingSettingError{Setting: "embedding.base_url", Env: "AZURE_OPENAI_ENDPOINT"}
		}
		if e.APIKey == "" {
			return &MissingSettingError{Setting: "embedding.api_key", Env: "AZURE_OPENAI_API_KEY"}
		}
		if e.Deployment == "" {
			return &MissingSettingError{Setting: "embedding.deployment", Env: "AZURE_OPENAI_EMBED_DEPLOYMENT"}
		}
	case AIProviderOpenAI:
		if e.APIKey == "" {
			return &MissingSettingError{Setting: "embedding.api_key", Env: "OPENAI_API_KEY"}
		}
	case AIProviderOllama:
	default:
		return &MissingSettingError{Setting: "embedding.provider", Env: "EMBEDDING_PROVIDER"}
	}
	return nil
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name (OpenAI, Ollama).
	Model string

	// Deployment is the Azure chat deployment name.
	Deployment string

	// BaseURL is the API endpoint.
	BaseURL string

	// APIKey is the API key (Azure, OpenAI).
	APIKey string

	// APIVersion is the Azure API version.
	APIVersion string
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	return l.Validate() == nil
}

// Validate reports the first missing setting.
func (l LLMSettings) Validate() error {
	switch l.Provider {
	case AIProviderAzure:
		if l.BaseURL == "" {
			return &MissingSettingError{Setting: "llm.base_url", Env: "AZURE_OPENAI_ENDPOINT"}
		}
		if l.APIKey == "" {
			return &MissingSettingError{Setting: "llm.api_key", Env: "AZURE_OPENAI_API_KEY"}
		}
		if l.Deployment == "" {
			return &MissingSettingError{Setting: "llm.deployment", Env: "AZURE_OPENAI_DEPLOYMENT"}
		}
	case AIProviderOpenAI:
		if l.APIKey == "" {
			return &MissingSettingError{Setting: "llm.api_key", Env: "OPENAI_API_KEY"}
		}
	case AIProviderOllama:
	default:
		return &MissingSettingError{Setting: "llm.provider", Env: "LLM_PROVIDER"}
	}
	return nil
}

// IndexBackend selects the vector index implementation.
type IndexBackend string

// Available vector index backends.
const (
	IndexBackendPinecone IndexBackend = "pinecone"
	IndexBackendSQLite   IndexBackend = "sqlite"
	IndexBackendPGVector IndexBackend = "pgvector"
	IndexBackendMemory   IndexBackend = "memory"
)

// AllIndexBackends returns the supported index backends in menu order.
func AllIndexBackends() []IndexBackend {
	return []IndexBackend{IndexBackendSQLite, IndexBackendPinecone, IndexBackendPGVector, IndexBackendMemory}
}

// IsValid returns true if the backend is recognised.
func (b IndexBackend) IsValid() bool {
	switch b {
	case IndexBackendPinecone, IndexBackendSQLite, IndexBackendPGVector, IndexBackendMemory:
		return true
	default:
		return false
	}
}

// Description returns a human-readable description of the backend.
func (b IndexBackend) Description() string {
	switch b {
	case IndexBackendPinecone:
		return "Pinecone (managed)"
	case IndexBackendSQLite:
		return "SQLite (local file)"
	case IndexBackendPGVector:
		return "PostgreSQL + pgvector"
	case IndexBackendMemory:
		return "In-memory (non-persistent)"
	default:
		return unknownDescription
	}
}

// DefaultNamespace is shared by ingestion and retrieval.
const DefaultNamespace = "kb"

// IndexSettings holds vector index configuration.
type IndexSettings struct {
	// Backend selects the implementation.
	Backend IndexBackend

	// Namespace partitions the index; ingestion and retrieval both use it.
	Namespace string

	// APIKey is the Pinecone API key.
	APIKey string

	// Host is the Pinecone data-plane host.
	Host string

	// Name is the Pinecone index name, used to resolve Host when unset.
	Name string

	// DSN is the PostgreSQL connection string for pgvector.
	DSN string

	// DataDir holds the SQLite database file.
	DataDir string
}

// Validate reports the first missing setting.
func (s IndexSettings) Validate() error {
	switch s.Backend {
	case IndexBackendPinecone:
		if s.APIKey == "" {
			return &MissingSettingError{Setting: "index.api_key", Env: "PINECONE_API_KEY"}
		}
		if s.Host == "" && s.Name == "" {
			return &MissingSettingError{Setting: "index.host", Env: "PINECONE_HOST"}
		}
	case IndexBackendPGVector:
		if s.DSN == "" {
			return &MissingSettingError{Setting: "index.dsn", Env: "PGVECTOR_DSN"}
		}
	case IndexBackendSQLite, IndexBackendMemory:
	default:
		return &MissingSettingError{Setting: "index.backend", Env: "VECTOR_INDEX_BACKEND"}
	}
	return nil
}

// Pipeline defaults.
const (
	DefaultBatchSize       = 64
	DefaultChunkSize       = 1500
	DefaultChunkOverlap    = 200
	DefaultTopK            = 6
	DefaultContextBudget   = 6000
	DefaultChunkOverhead   = 100
	DefaultPolicyChunkSize = 6000
	DefaultPolicyMaxChars  = 60000
	DefaultPolicyMinLength = 20
)

// PipelineSettings tunes chunking, ingestion and retrieval.
type PipelineSettings struct {
	BatchSize       int
	ChunkSize       int
	ChunkOverlap    int
	TopK            int
	ContextBudget   int
	ChunkOverhead   int
	PolicyChunkSize int
	PolicyMaxChars  int

	// ContinueOnError keeps ingesting after a batch exhausts its retries.
	ContinueOnError bool
}

// Settings holds all application settings.
type Settings struct {
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Index     IndexSettings
	Pipeline  PipelineSettings
}

// DefaultSettings returns settings with sensible defaults.
// AI providers are left unconfigured; they come from config or environment.
func DefaultSettings() Settings {
	return Settings{
		Index: IndexSettings{
			Backend:   IndexBackendSQLite,
			Namespace: DefaultNamespace,
		},
		Pipeline: PipelineSettings{
			BatchSize:       DefaultBatchSize,
			ChunkSize:       DefaultChunkSize,
			ChunkOverlap:    DefaultChunkOverlap,
			TopK:            DefaultTopK,
			ContextBudget:   DefaultContextBudget,
			ChunkOverhead:   DefaultChunkOverhead,
			PolicyChunkSize: DefaultPolicyChunkSize,
			PolicyMaxChars:  DefaultPolicyMaxChars,
		},
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
		AIProviderAzure:  "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "llama3.2",
		AIProviderOpenAI: "gpt-4o-mini",
		AIProviderAzure:  "gpt-4o-mini",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
