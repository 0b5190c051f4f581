package services

import (
	"context"
	"errors"
	"sync"

	"github.com/custodia-labs/policyrag/internal/core/domain"
	"github.com/custodia-labs/policyrag/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockEmbeddingService implements driven.EmbeddingService for testing.
// Each text is embedded as [len(text), 1].
type mockEmbeddingService struct {
	mu       sync.Mutex
	embedErr error
	calls    [][]string
	short    bool
}

func (m *mockEmbeddingService) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, texts)
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	n := len(texts)
	if m.short && n > 0 {
		n--
	}
	result := make([][]float32, n)
	for i := 0; i < n; i++ {
		result[i] = []float32{float32(len(texts[i])), 1}
	}
	return result, nil
}

func (m *mockEmbeddingService) Dimensions() int              { return 2 }
func (m *mockEmbeddingService) ModelName() string            { return "mock-embed" }
func (m *mockEmbeddingService) Ping(_ context.Context) error { return nil }
func (m *mockEmbeddingService) Close() error                 { return nil }

func (m *mockEmbeddingService) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// mockVectorIndex implements driven.VectorIndex for testing.
type mockVectorIndex struct {
	mu sync.Mutex

	matches  []domain.VectorMatch
	queryErr error

	// failUpserts lists 1-based upsert call numbers that fail.
	failUpserts map[int]bool
	upsertErr   error

	upsertCalls int
	upserted    []domain.IndexEntry
	lastTopK    int
	lastVector  []float32
	queryCalls  int
}

func (m *mockVectorIndex) Upsert(_ context.Context, entries []domain.IndexEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upsertCalls++
	if m.upsertErr != nil || m.failUpserts[m.upsertCalls] {
		if m.upsertErr != nil {
			return m.upsertErr
		}
		return errors.New("upsert unavailable")
	}
	m.upserted = append(m.upserted, entries...)
	return nil
}

func (m *mockVectorIndex) Query(_ context.Context, vector []float32, topK int, _ bool) ([]domain.VectorMatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queryCalls++
	m.lastTopK = topK
	m.lastVector = vector
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	if topK < len(m.matches) {
		return m.matches[:topK], nil
	}
	return m.matches, nil
}

func (m *mockVectorIndex) Namespace() string { return domain.DefaultNamespace }
func (m *mockVectorIndex) Close() error      { return nil }

// mockParser implements driven.DocumentParser for testing.
type mockParser struct {
	kind    domain.ParserKind
	text    string
	err     error
	panics  bool
	calls   int
	lastLen int
}

func (m *mockParser) Kind() domain.ParserKind { return m.kind }

func (m *mockParser) Parse(_ context.Context, data []byte) (string, error) {
	m.calls++
	m.lastLen = len(data)
	if m.panics {
		panic("corrupt xref table")
	}
	return m.text, m.err
}

// mockLLMService implements driven.LLMService for testing. Each call streams
// the next scripted reply and finish reason.
type mockLLMService struct {
	replies  []string
	finishes []domain.FinishReason
	err      error
	errAt    int

	calls    [][]domain.ChatMessage
	lastOpts driven.ChatOptions
}

func (m *mockLLMService) StreamChat(
	_ context.Context,
	messages []domain.ChatMessage,
	opts driven.ChatOptions,
	onDelta func(string) error,
) (domain.FinishReason, error) {
	snapshot := make([]domain.ChatMessage, len(messages))
	copy(snapshot, messages)
	m.calls = append(m.calls, snapshot)
	m.lastOpts = opts

	i := len(m.calls) - 1
	if m.err != nil && i == m.errAt {
		return "", m.err
	}

	reply := "ok"
	if i < len(m.replies) {
		reply = m.replies[i]
	}
	for _, r := range reply {
		if err := onDelta(string(r)); err != nil {
			return "", err
		}
	}

	if i < len(m.finishes) {
		return m.finishes[i], nil
	}
	return domain.FinishStop, nil
}

func (m *mockLLMService) ModelName() string            { return "mock-llm" }
func (m *mockLLMService) Ping(_ context.Context) error { return nil }
func (m *mockLLMService) Close() error                 { return nil }

// mockPromptStore implements driven.PromptStore for testing.
type mockPromptStore struct {
	prompts map[string]string
	err     error
}

func (m *mockPromptStore) Load(name string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.prompts[name], nil
}

func (m *mockPromptStore) Reload() {}

// mockRetriever implements driving.RetrieverService for testing.
type mockRetriever struct {
	result  domain.RetrievalResult
	queries []string
	topKs   []int
}

func (m *mockRetriever) RetrieveContext(_ context.Context, query string, topK int) domain.RetrievalResult {
	m.queries = append(m.queries, query)
	m.topKs = append(m.topKs, topK)
	return m.result
}

// mockExtractor implements driving.ExtractorService for testing.
type mockExtractor struct {
	results  []domain.Extraction
	calls    int
	maxChars []int
}

func (m *mockExtractor) Extract(_ context.Context, _ []byte, _, _ string, maxChars int) domain.Extraction {
	return m.next(maxChars)
}

func (m *mockExtractor) ExtractFile(_ context.Context, _, _ string, maxChars int) domain.Extraction {
	return m.next(maxChars)
}

func (m *mockExtractor) next(maxChars int) domain.Extraction {
	m.calls++
	m.maxChars = append(m.maxChars, maxChars)
	if len(m.results) == 0 {
		return domain.Extraction{}
	}
	r := m.results[0]
	if len(m.results) > 1 {
		m.results = m.results[1:]
	}
	return r
}

// mockPolicyCache implements driven.PolicyCache for testing.
type mockPolicyCache struct {
	entries map[string]string
	getErr  error
	puts    int
}

func (m *mockPolicyCache) Get(_ context.Context, key string) (string, bool, error) {
	if m.getErr != nil {
		return "", false, m.getErr
	}
	v, ok := m.entries[key]
	return v, ok, nil
}

func (m *mockPolicyCache) Put(_ context.Context, key, text string) error {
	if m.entries == nil {
		m.entries = make(map[string]string)
	}
	m.entries[key] = text
	m.puts++
	return nil
}
