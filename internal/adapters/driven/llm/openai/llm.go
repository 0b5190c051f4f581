// Package openai provides a streaming chat adapter for OpenAI and Azure OpenAI.
package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/custodia-labs/policyrag/internal/core/domain"
	"github.com/custodia-labs/policyrag/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultLLMModel   = "gpt-4o-mini"
	DefaultLLMTimeout = 300 * time.Second
)

// LLMConfig holds configuration for the chat service.
type LLMConfig struct {
	// APIKey is the OpenAI or Azure API key (required).
	APIKey string

	// BaseURL is the API base URL. For Azure it is the resource endpoint.
	BaseURL string

	// Model is the LLM model to use (default: gpt-4o-mini).
	Model string

	// Azure switches to Azure OpenAI, addressing Deployment instead of Model.
	Azure bool

	// Deployment is the Azure chat deployment name.
	Deployment string

	// APIVersion is the Azure API version.
	APIVersion string

	// Timeout bounds a whole streamed completion (default: 300s).
	Timeout time.Duration
}

// LLMService streams chat completions with go-openai.
type LLMService struct {
	client *openai.Client
	model  string
	name   string
}

// NewLLMService creates a new chat service.
func NewLLMService(cfg LLMConfig) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: API key is required")
	}
	if cfg.Azure && (cfg.BaseURL == "" || cfg.Deployment == "") {
		return nil, fmt.Errorf("openai: azure endpoint and deployment are required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultLLMTimeout
	}

	var c openai.ClientConfig
	name := cfg.Model
	if cfg.Azure {
		c = openai.DefaultAzureConfig(cfg.APIKey, cfg.BaseURL)
		if cfg.APIVersion != "" {
			c.APIVersion = cfg.APIVersion
		}
		deployment := cfg.Deployment
		c.AzureModelMapperFunc = func(string) string { return deployment }
		name = deployment
	} else {
		c = openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			c.BaseURL = cfg.BaseURL
		}
	}
	c.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &LLMService{
		client: openai.NewClientWithConfig(c),
		model:  cfg.Model,
		name:   name,
	}, nil
}

// StreamChat runs one streamed completion.
func (s *LLMService) StreamChat(
	ctx context.Context,
	messages []domain.ChatMessage,
	opts driven.ChatOptions,
	onDelta func(string) error,
) (domain.FinishReason, error) {
	chatMessages := make([]openai.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		chatMessages[i] = openai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		}
	}

	req := openai.ChatCompletionRequest{
		Model:    s.model,
		Messages: chatMessages,
		Stream:   true,
	}
	if opts.MaxTokens > 0 {
		req.MaxTokens = opts.MaxTokens
	}

	stream, err := s.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return domain.FinishOther, fmt.Errorf("openai: create stream: %w", err)
	}
	defer stream.Close()

	finish := domain.FinishOther
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return finish, nil
		}
		if err != nil {
			return domain.FinishOther, fmt.Errorf("openai: receive: %w", err)
		}
		for _, choice := range resp.Choices {
			if choice.Delta.Content != "" {
				if err := onDelta(choice.Delta.Content); err != nil {
					return domain.FinishOther, err
				}
			}
			if choice.FinishReason != "" {
				finish = mapFinishReason(choice.FinishReason)
			}
		}
	}
}

func mapFinishReason(r openai.FinishReason) domain.FinishReason {
	switch r {
	case openai.FinishReasonStop:
		return domain.FinishStop
	case openai.FinishReasonLength:
		return domain.FinishLength
	default:
		return domain.FinishOther
	}
}

// ModelName returns the model name, or the deployment name on Azure.
func (s *LLMService) ModelName() string {
	return s.name
}

// Ping validates the service is reachable by listing models.
func (s *LLMService) Ping(ctx context.Context) error {
	if _, err := s.client.ListModels(ctx); err != nil {
		return fmt.Errorf("openai: ping failed: %w", err)
	}
	return nil
}

// Close releases resources.
func (s *LLMService) Close() error {
	return nil
}
