package cli

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/custodia-labs/policyrag/internal/adapters/driven/ai"
	"github.com/custodia-labs/policyrag/internal/adapters/driven/config/file"
	"github.com/custodia-labs/policyrag/internal/adapters/driven/storage"
	"github.com/custodia-labs/policyrag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/policyrag/internal/core/domain"
	"github.com/custodia-labs/policyrag/internal/core/ports/driven"
	"github.com/custodia-labs/policyrag/internal/core/ports/driving"
	"github.com/custodia-labs/policyrag/internal/core/services"
	"github.com/custodia-labs/policyrag/internal/logger"
	"github.com/custodia-labs/policyrag/internal/normalisers/docx"
	"github.com/custodia-labs/policyrag/internal/normalisers/pdf"
	"github.com/custodia-labs/policyrag/internal/postprocessors/chunker"
)

// Services used by the commands. They are built on first use from the
// settings; tests assign them directly.
var (
	settingsService  driving.SettingsService
	extractorService driving.ExtractorService
	ingestService    driving.IngestService
	retrieverService driving.RetrieverService
	chatService      driving.ChatService
	promptStore      driven.PromptStore
	configValidator  driven.AIConfigValidator
)

// Adapters shared by the services above.
var (
	embeddingService driven.EmbeddingService
	indexBackend     *storage.Backend
	cleanups         []func() error
)

// ingestOptions carries the ingest command's flag overrides.
type ingestOptions struct {
	batchSize       int
	continueOnError bool
	title           string
	progress        services.ProgressFunc
}

func resolvedConfigDir() (string, error) {
	if configDir != "" {
		return configDir, nil
	}
	return file.DefaultDir()
}

func getSettings() (driving.SettingsService, error) {
	if settingsService != nil {
		return settingsService, nil
	}

	if err := services.LoadEnvFile(); err != nil {
		logger.Warn("Loading env file: %v", err)
	}

	dir, err := resolvedConfigDir()
	if err != nil {
		return nil, err
	}
	store, err := file.NewConfigStore(dir)
	if err != nil {
		return nil, err
	}
	settingsService = services.NewSettingsService(store)
	return settingsService, nil
}

func getPrompts() (driven.PromptStore, error) {
	if promptStore != nil {
		return promptStore, nil
	}

	dir, err := resolvedConfigDir()
	if err != nil {
		return nil, err
	}
	store, err := file.NewPromptStore(filepath.Join(dir, "prompts"))
	if err != nil {
		return nil, err
	}
	promptStore = store
	return promptStore, nil
}

func getExtractor() driving.ExtractorService {
	if extractorService == nil {
		extractorService = services.NewExtractorService(pdf.New(), docx.New())
	}
	return extractorService
}

func getValidator() driven.AIConfigValidator {
	if configValidator == nil {
		configValidator = ai.NewConfigValidator()
	}
	return configValidator
}

func getEmbedder() (driven.EmbeddingService, error) {
	if embeddingService != nil {
		return embeddingService, nil
	}

	settings, err := getSettings()
	if err != nil {
		return nil, err
	}
	embed := settings.Get().Embedding
	svc, err := ai.CreateEmbeddingService(&embed)
	if err != nil {
		return nil, errors.Join(domain.ErrEmbeddingUnavailable, err)
	}
	logger.Debug("Embedding model %s (%d dimensions)", svc.ModelName(), svc.Dimensions())

	embeddingService = svc
	cleanups = append(cleanups, svc.Close)
	return embeddingService, nil
}

func getBackend(ctx context.Context, dimensions int) (*storage.Backend, error) {
	if indexBackend != nil {
		return indexBackend, nil
	}

	settings, err := getSettings()
	if err != nil {
		return nil, err
	}
	index := settings.Get().Index
	if index.DataDir == "" && configDir != "" {
		index.DataDir = filepath.Join(configDir, "data")
	}

	b, err := storage.Open(ctx, index, dimensions)
	if err != nil {
		return nil, err
	}
	logger.Debug("Vector index %s, namespace %q", index.Backend, b.Index.Namespace())

	indexBackend = b
	cleanups = append(cleanups, b.Close)
	return indexBackend, nil
}

func getRetriever(ctx context.Context) (driving.RetrieverService, error) {
	if retrieverService != nil {
		return retrieverService, nil
	}

	settings, err := getSettings()
	if err != nil {
		return nil, err
	}
	embedder, err := getEmbedder()
	if err != nil {
		return nil, err
	}
	b, err := getBackend(ctx, embedder.Dimensions())
	if err != nil {
		return nil, err
	}

	p := settings.Get().Pipeline
	retrieverService = services.NewRetrieverService(embedder, b.Index, services.RetrieverConfig{
		TopK:     p.TopK,
		Budget:   p.ContextBudget,
		Overhead: p.ChunkOverhead,
	})
	return retrieverService, nil
}

func getIngest(ctx context.Context, opts ingestOptions) (driving.IngestService, error) {
	if ingestService != nil {
		return ingestService, nil
	}

	settings, err := getSettings()
	if err != nil {
		return nil, err
	}
	embedder, err := getEmbedder()
	if err != nil {
		return nil, err
	}
	b, err := getBackend(ctx, embedder.Dimensions())
	if err != nil {
		return nil, err
	}

	p := settings.Get().Pipeline
	cfg := services.DefaultIngestConfig()
	cfg.BatchSize = p.BatchSize
	cfg.ContinueOnError = p.ContinueOnError || opts.continueOnError
	cfg.Title = opts.title
	if opts.batchSize > 0 {
		cfg.BatchSize = opts.batchSize
	}

	streamer := chunker.NewStreamer(chunker.WithChunkSize(p.ChunkSize), chunker.WithOverlap(p.ChunkOverlap))
	svc := services.NewIngestService(embedder, b.Index, streamer, cfg)
	svc.SetExtractor(getExtractor())
	if opts.progress != nil {
		svc.SetProgress(opts.progress)
	}

	ingestService = svc
	return ingestService, nil
}

// getChat builds the chat service. Retrieval and the persistent policy cache
// are optional: when they cannot be set up the chat runs without them. The
// language model is optional unless requireLLM is set.
func getChat(ctx context.Context, requireLLM bool) (driving.ChatService, error) {
	if chatService != nil {
		return chatService, nil
	}

	settings, err := getSettings()
	if err != nil {
		return nil, err
	}
	current := settings.Get()

	var llm driven.LLMService
	svc, err := ai.CreateLLMService(&current.LLM)
	switch {
	case err == nil:
		llm = svc
		cleanups = append(cleanups, llm.Close)
	case requireLLM:
		return nil, errors.Join(domain.ErrLLMUnavailable, err)
	default:
		logger.Debug("Language model not configured: %v", err)
	}

	retriever, err := getRetriever(ctx)
	if err != nil {
		logger.Warn("Knowledge base retrieval disabled: %v", err)
		retriever = nil
	}

	var cache driven.PolicyCache = memory.NewPolicyCache()
	if indexBackend != nil {
		cache = indexBackend.Cache
	}

	prompts, err := getPrompts()
	if err != nil {
		logger.Warn("Prompt store unavailable: %v", err)
		prompts = nil
	}

	p := current.Pipeline
	cfg := services.DefaultChatConfig()
	cfg.TopK = p.TopK
	cfg.PolicyLoad.MaxChars = p.PolicyMaxChars

	chatService = services.NewChatService(
		llm,
		retriever,
		services.NewPolicyService(getExtractor(), cache),
		services.NewAssemblerService(p.PolicyChunkSize),
		prompts,
		cfg,
	)
	return chatService, nil
}

// closeServices releases adapters opened by the getters.
func closeServices() error {
	var errs []error
	for i := len(cleanups) - 1; i >= 0; i-- {
		if err := cleanups[i](); err != nil {
			errs = append(errs, err)
		}
	}
	cleanups = nil
	return errors.Join(errs...)
}
