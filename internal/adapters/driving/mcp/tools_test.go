package mcp

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/policyrag/internal/core/domain"
	"github.com/custodia-labs/policyrag/internal/core/services"
)

func TestServer_handleRetrieve(t *testing.T) {
	ctx := context.Background()

	t.Run("returns context with citations", func(t *testing.T) {
		ord := 2
		chunks := []domain.RetrievedChunk{
			{Text: "Flood damage is excluded.", Title: "Flood cover", Source: "kb/flood.md", Chunk: &ord, Score: 0.91},
		}
		mockRetriever := &mockRetrieverService{
			result: domain.RetrievalResult{Context: services.RenderContext(chunks), Chunks: chunks},
		}

		server, err := NewServer(&Ports{Retriever: mockRetriever})
		require.NoError(t, err)

		_, output, err := server.handleRetrieve(ctx, nil, RetrieveInput{Query: "is flood covered?", TopK: 3})

		require.NoError(t, err)
		assert.Equal(t, "is flood covered?", mockRetriever.query)
		assert.Equal(t, 3, mockRetriever.topK)
		assert.Equal(t, 1, output.Count)
		assert.Equal(t, "[[1]] Flood cover #2\nFlood damage is excluded.", output.Context)
		require.Len(t, output.Chunks, 1)
		assert.Equal(t, 1, output.Chunks[0].Citation)
		assert.Equal(t, "Flood cover", output.Chunks[0].Label)
		assert.Equal(t, 2, *output.Chunks[0].Chunk)
		assert.Equal(t, 0.91, output.Chunks[0].Score)
	})

	t.Run("empty result", func(t *testing.T) {
		server, err := NewServer(&Ports{Retriever: &mockRetrieverService{}})
		require.NoError(t, err)

		_, output, err := server.handleRetrieve(ctx, nil, RetrieveInput{Query: "anything"})

		require.NoError(t, err)
		assert.Equal(t, 0, output.Count)
		assert.Empty(t, output.Context)
	})

	t.Run("missing query is invalid", func(t *testing.T) {
		server, err := NewServer(&Ports{Retriever: &mockRetrieverService{}})
		require.NoError(t, err)

		_, _, err = server.handleRetrieve(ctx, nil, RetrieveInput{})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestServer_handleExtract(t *testing.T) {
	ctx := context.Background()

	t.Run("extracts from path", func(t *testing.T) {
		mockExtractor := &mockExtractorService{
			extraction: domain.Extraction{Text: "Policy wording", OK: true, Format: domain.BinaryDocument(domain.ParserPDF)},
		}
		server, err := NewServer(&Ports{Retriever: &mockRetrieverService{}, Extractor: mockExtractor})
		require.NoError(t, err)

		_, output, err := server.handleExtract(ctx, nil, ExtractInput{Path: "/tmp/home.pdf"})

		require.NoError(t, err)
		assert.Equal(t, "/tmp/home.pdf", mockExtractor.path)
		assert.True(t, output.OK)
		assert.Equal(t, "Policy wording", output.Text)
		assert.Equal(t, "binary:pdf", output.Format)
	})

	t.Run("extracts base64 data", func(t *testing.T) {
		mockExtractor := &mockExtractorService{
			extraction: domain.Extraction{Text: "hello", OK: true, Format: domain.PlainText()},
		}
		server, err := NewServer(&Ports{Retriever: &mockRetrieverService{}, Extractor: mockExtractor})
		require.NoError(t, err)

		input := ExtractInput{Data: base64.StdEncoding.EncodeToString([]byte("hello")), Name: "note.txt"}
		_, output, err := server.handleExtract(ctx, nil, input)

		require.NoError(t, err)
		assert.Equal(t, []byte("hello"), mockExtractor.data)
		assert.Equal(t, "note.txt", mockExtractor.name)
		assert.Equal(t, "text", output.Format)
	})

	t.Run("reports failed extraction", func(t *testing.T) {
		mockExtractor := &mockExtractorService{
			extraction: domain.Extraction{Format: domain.UnknownFormat(), Err: domain.ErrExtractionFailed},
		}
		server, err := NewServer(&Ports{Retriever: &mockRetrieverService{}, Extractor: mockExtractor})
		require.NoError(t, err)

		_, output, err := server.handleExtract(ctx, nil, ExtractInput{Path: "/tmp/blob.bin"})

		require.NoError(t, err)
		assert.False(t, output.OK)
		assert.Equal(t, "extraction failed", output.Error)
	})

	t.Run("invalid input", func(t *testing.T) {
		server, err := NewServer(&Ports{Retriever: &mockRetrieverService{}, Extractor: &mockExtractorService{}})
		require.NoError(t, err)

		_, _, err = server.handleExtract(ctx, nil, ExtractInput{})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)

		_, _, err = server.handleExtract(ctx, nil, ExtractInput{Data: "***"})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestServer_handleChunk(t *testing.T) {
	server, err := NewServer(&Ports{Retriever: &mockRetrieverService{}})
	require.NoError(t, err)

	t.Run("pieces concatenate back to the input", func(t *testing.T) {
		text := strings.Repeat("Section 4.  Storm cover   \n\n\n\nExcess applies.  \n", 45)
		_, output, err := server.handleChunk(context.Background(), nil, ChunkInput{Text: text})

		require.NoError(t, err)
		require.Equal(t, 1, output.Count)
		assert.Equal(t, text, strings.Join(output.Chunks, ""))
	})

	t.Run("default size is 6000", func(t *testing.T) {
		text := strings.Repeat("b", 13000)
		_, output, err := server.handleChunk(context.Background(), nil, ChunkInput{Text: text})

		require.NoError(t, err)
		require.Equal(t, 3, output.Count)
		assert.Len(t, output.Chunks[0], 6000)
		assert.Len(t, output.Chunks[1], 6000)
		assert.Len(t, output.Chunks[2], 1000)
		assert.Equal(t, text, strings.Join(output.Chunks, ""))
	})

	t.Run("custom size without overlap", func(t *testing.T) {
		text := strings.Repeat("a", 25)
		_, output, err := server.handleChunk(context.Background(), nil, ChunkInput{Text: text, ChunkSize: 10})

		require.NoError(t, err)
		assert.Equal(t, []string{
			strings.Repeat("a", 10),
			strings.Repeat("a", 10),
			strings.Repeat("a", 5),
		}, output.Chunks)
	})

	t.Run("empty text is one empty piece", func(t *testing.T) {
		_, output, err := server.handleChunk(context.Background(), nil, ChunkInput{})

		require.NoError(t, err)
		assert.Equal(t, []string{""}, output.Chunks)
	})
}

func TestServer_handleChunkText(t *testing.T) {
	server, err := NewServer(&Ports{Retriever: &mockRetrieverService{}})
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("explicit overlap", func(t *testing.T) {
		overlap := 2
		text := strings.Repeat("a", 25)
		_, output, err := server.handleChunkText(ctx, nil, ChunkTextInput{Text: text, ChunkSize: 10, Overlap: &overlap})

		require.NoError(t, err)
		assert.Equal(t, []string{
			strings.Repeat("a", 10),
			strings.Repeat("a", 10),
			strings.Repeat("a", 9),
		}, output.Chunks)
		assert.Equal(t, 3, output.Count)
	})

	t.Run("omitted overlap defaults to 200", func(t *testing.T) {
		text := strings.Repeat("c", 1500)
		_, output, err := server.handleChunkText(ctx, nil, ChunkTextInput{Text: text})

		require.NoError(t, err)
		require.Equal(t, 2, output.Count)
		assert.Len(t, output.Chunks[0], 1000)
		assert.Len(t, output.Chunks[1], 700)
	})

	t.Run("zero overlap", func(t *testing.T) {
		overlap := 0
		text := strings.Repeat("c", 1500)
		_, output, err := server.handleChunkText(ctx, nil, ChunkTextInput{Text: text, Overlap: &overlap})

		require.NoError(t, err)
		require.Equal(t, 2, output.Count)
		assert.Len(t, output.Chunks[1], 500)
	})

	t.Run("blank text", func(t *testing.T) {
		_, output, err := server.handleChunkText(ctx, nil, ChunkTextInput{Text: "   "})

		require.NoError(t, err)
		assert.Equal(t, 0, output.Count)
		assert.NotNil(t, output.Chunks)
	})
}

func TestServer_handleAssemble(t *testing.T) {
	mockChat := &mockChatService{
		assembled: domain.AssembledContext{Sections: []domain.Section{
			{Kind: domain.SectionBaseInstructions, Text: "You are an insurance advisor."},
			{Kind: domain.SectionPolicy, Text: "Customer policy excerpt (unverified):\nExcess 500"},
		}},
	}
	server, err := NewServer(&Ports{Retriever: &mockRetrieverService{}, Chat: mockChat})
	require.NoError(t, err)

	_, output, err := server.handleAssemble(context.Background(), nil, AssembleInput{
		Question:   "What is my excess?",
		PolicyText: "Excess 500",
	})

	require.NoError(t, err)
	assert.Len(t, output.Sections, 2)
	assert.Equal(t, "You are an insurance advisor."+domain.SectionSeparator+"Customer policy excerpt (unverified):\nExcess 500", output.SystemMessage)
	assert.Equal(t, "Excess 500", mockChat.request.PolicyText)
	assert.Equal(t, "What is my excess?", domain.LastUserMessage(mockChat.request.Messages))

	_, _, err = server.handleAssemble(context.Background(), nil, AssembleInput{})
	assert.Error(t, err)
}
