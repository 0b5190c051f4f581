package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAIProvider_IsValid(t *testing.T) {
	tests := []struct {
		provider AIProvider
		expected bool
	}{
		{AIProviderAzure, true},
		{AIProviderOpenAI, true},
		{AIProviderOllama, true},
		{AIProvider(""), false},
		{AIProvider("anthropic"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.provider), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.provider.IsValid())
		})
	}
}

func TestAIProvider_RequiresAPIKey(t *testing.T) {
	assert.True(t, AIProviderAzure.RequiresAPIKey())
	assert.True(t, AIProviderOpenAI.RequiresAPIKey())
	assert.False(t, AIProviderOllama.RequiresAPIKey())
}

func TestEmbeddingSettings_Validate(t *testing.T) {
	tests := []struct {
		name     string
		settings EmbeddingSettings
		setting  string
	}{
		{"no provider", EmbeddingSettings{}, "embedding.provider"},
		{"azure without endpoint", EmbeddingSettings{Provider: AIProviderAzure}, "embedding.base_url"},
		{"azure without key", EmbeddingSettings{Provider: AIProviderAzure, BaseURL: "https://x"}, "embedding.api_key"},
		{
			"azure without deployment",
			EmbeddingSettings{Provider: AIProviderAzure, BaseURL: "https://x", APIKey: "k"},
			"embedding.deployment",
		},
		{"openai without key", EmbeddingSettings{Provider: AIProviderOpenAI}, "embedding.api_key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.settings.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMissingSetting))

			var mse *MissingSettingError
			require.True(t, errors.As(err, &mse))
			assert.Equal(t, tt.setting, mse.Setting)
			assert.False(t, tt.settings.IsConfigured())
		})
	}

	t.Run("configured", func(t *testing.T) {
		s := EmbeddingSettings{Provider: AIProviderAzure, BaseURL: "https://x", APIKey: "k", Deployment: "embed"}
		assert.NoError(t, s.Validate())
		assert.True(t, s.IsConfigured())
		assert.True(t, EmbeddingSettings{Provider: AIProviderOllama}.IsConfigured())
	})
}

func TestLLMSettings_Validate(t *testing.T) {
	err := LLMSettings{Provider: AIProviderAzure, BaseURL: "https://x", APIKey: "k"}.Validate()
	var mse *MissingSettingError
	require.True(t, errors.As(err, &mse))
	assert.Equal(t, "llm.deployment", mse.Setting)
	assert.Equal(t, "AZURE_OPENAI_DEPLOYMENT", mse.Env)

	assert.NoError(t, LLMSettings{Provider: AIProviderOpenAI, APIKey: "k"}.Validate())
	assert.Error(t, LLMSettings{}.Validate())
}

func TestIndexSettings_Validate(t *testing.T) {
	tests := []struct {
		name     string
		settings IndexSettings
		wantErr  string
	}{
		{"pinecone without key", IndexSettings{Backend: IndexBackendPinecone}, "index.api_key"},
		{"pinecone without host or name", IndexSettings{Backend: IndexBackendPinecone, APIKey: "k"}, "index.host"},
		{"pinecone with name", IndexSettings{Backend: IndexBackendPinecone, APIKey: "k", Name: "kb"}, ""},
		{"pgvector without dsn", IndexSettings{Backend: IndexBackendPGVector}, "index.dsn"},
		{"sqlite", IndexSettings{Backend: IndexBackendSQLite}, ""},
		{"memory", IndexSettings{Backend: IndexBackendMemory}, ""},
		{"unknown", IndexSettings{Backend: "faiss"}, "index.backend"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.settings.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			var mse *MissingSettingError
			require.True(t, errors.As(err, &mse))
			assert.Equal(t, tt.wantErr, mse.Setting)
		})
	}
}

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()

	assert.Equal(t, IndexBackendSQLite, s.Index.Backend)
	assert.Equal(t, "kb", s.Index.Namespace)
	assert.Equal(t, 64, s.Pipeline.BatchSize)
	assert.Equal(t, 1500, s.Pipeline.ChunkSize)
	assert.Equal(t, 200, s.Pipeline.ChunkOverlap)
	assert.Equal(t, 6, s.Pipeline.TopK)
	assert.Equal(t, 6000, s.Pipeline.ContextBudget)
	assert.Equal(t, 100, s.Pipeline.ChunkOverhead)
	assert.Equal(t, 6000, s.Pipeline.PolicyChunkSize)
	assert.False(t, s.Pipeline.ContinueOnError)
	assert.False(t, s.Embedding.IsConfigured())
}

func TestIndexBackend_Description(t *testing.T) {
	assert.Equal(t, "Pinecone (managed)", IndexBackendPinecone.Description())
	assert.Equal(t, "Unknown", IndexBackend("x").Description())
	assert.True(t, IndexBackendPGVector.IsValid())
	assert.False(t, IndexBackend("").IsValid())
}

func TestAllProvidersAndBackendsAreValid(t *testing.T) {
	for _, p := range AllAIProviders() {
		assert.True(t, p.IsValid(), p)
		assert.NotEqual(t, unknownDescription, p.Description())
	}
	for _, b := range AllIndexBackends() {
		assert.True(t, b.IsValid(), b)
		assert.NotEqual(t, unknownDescription, b.Description())
	}
}
