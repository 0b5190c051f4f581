package mcp

import (
	"context"
	"errors"
	"io"

	"github.com/custodia-labs/policyrag/internal/core/domain"
)

// mockRetrieverService is a mock implementation of driving.RetrieverService.
type mockRetrieverService struct {
	result domain.RetrievalResult
	query  string
	topK   int
}

func (m *mockRetrieverService) RetrieveContext(_ context.Context, query string, topK int) domain.RetrievalResult {
	m.query = query
	m.topK = topK
	return m.result
}

// mockExtractorService is a mock implementation of driving.ExtractorService.
type mockExtractorService struct {
	extraction domain.Extraction
	data       []byte
	path       string
	name       string
}

func (m *mockExtractorService) Extract(_ context.Context, data []byte, _, name string, _ int) domain.Extraction {
	m.data = data
	m.name = name
	return m.extraction
}

func (m *mockExtractorService) ExtractFile(_ context.Context, path, _ string, _ int) domain.Extraction {
	m.path = path
	return m.extraction
}

// mockChatService is a mock implementation of driving.ChatService.
type mockChatService struct {
	assembled domain.AssembledContext
	request   domain.ChatRequest
}

func (m *mockChatService) Chat(_ context.Context, _ domain.ChatRequest, _ io.Writer) (domain.ChatResponse, error) {
	return domain.ChatResponse{}, errors.New("not implemented")
}

func (m *mockChatService) BuildContext(_ context.Context, req domain.ChatRequest) (domain.AssembledContext, domain.RetrievalResult) {
	m.request = req
	return m.assembled, domain.RetrievalResult{}
}

// mockPromptStore is a mock implementation of driven.PromptStore.
type mockPromptStore struct {
	prompts map[string]string
}

func (m *mockPromptStore) Load(name string) (string, error) {
	if p, ok := m.prompts[name]; ok {
		return p, nil
	}
	return "", domain.ErrNotFound
}

func (m *mockPromptStore) Reload() {}
