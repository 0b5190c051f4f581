package mcp

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/policyrag/internal/core/domain"
	"github.com/custodia-labs/policyrag/internal/postprocessors/chunker"
)

// RetrieveInput is the input schema for the retrieve_context tool.
type RetrieveInput struct {
	Query string `json:"query" jsonschema:"the question to find knowledge base passages for"`
	TopK  int    `json:"top_k,omitempty" jsonschema:"number of passages to fetch (default 6)"`
}

// RetrieveOutput is the output schema for the retrieve_context tool.
type RetrieveOutput struct {
	Context string           `json:"context"`
	Chunks  []ChunkReference `json:"chunks"`
	Count   int              `json:"count"`
}

// ChunkReference represents a single cited knowledge base passage.
type ChunkReference struct {
	Citation int     `json:"citation"`
	Label    string  `json:"label"`
	Source   string  `json:"source,omitempty"`
	Chunk    *int    `json:"chunk,omitempty"`
	Score    float64 `json:"score"`
	Text     string  `json:"text"`
}

// ExtractInput is the input schema for the extract_text tool.
type ExtractInput struct {
	Path     string `json:"path,omitempty" jsonschema:"path of a local document to extract"`
	Data     string `json:"data,omitempty" jsonschema:"base64 encoded document content, used when path is empty"`
	Name     string `json:"name,omitempty" jsonschema:"file name used to detect the format of data"`
	MIME     string `json:"mime,omitempty" jsonschema:"MIME type of the document"`
	MaxChars int    `json:"max_chars,omitempty" jsonschema:"truncate the text to this many characters"`
}

// ExtractOutput is the output schema for the extract_text tool.
type ExtractOutput struct {
	Text   string `json:"text"`
	OK     bool   `json:"ok"`
	Format string `json:"format"`
	Error  string `json:"error,omitempty"`
}

// ChunkInput is the input schema for the chunk_policy_text tool.
type ChunkInput struct {
	Text      string `json:"text" jsonschema:"policy text to split"`
	ChunkSize int    `json:"chunk_size,omitempty" jsonschema:"characters per piece (default 6000)"`
}

// ChunkTextInput is the input schema for the chunk_text tool.
type ChunkTextInput struct {
	Text      string `json:"text" jsonschema:"text to split"`
	ChunkSize int    `json:"chunk_size,omitempty" jsonschema:"characters per chunk (default 1000)"`
	Overlap   *int   `json:"overlap,omitempty" jsonschema:"characters shared by neighbouring chunks (default 200)"`
}

// ChunkOutput is the output schema for the chunking tools.
type ChunkOutput struct {
	Chunks []string `json:"chunks"`
	Count  int      `json:"count"`
}

// AssembleInput is the input schema for the assemble_context tool.
type AssembleInput struct {
	Question     string `json:"question" jsonschema:"the customer's question"`
	PolicyText   string `json:"policy_text,omitempty" jsonschema:"policy wording pasted by the customer"`
	Instructions string `json:"instructions,omitempty" jsonschema:"additional instructions for the assistant"`
	UseRAG       *bool  `json:"use_rag,omitempty" jsonschema:"retrieve knowledge base context (default true)"`
}

// AssembleOutput is the output schema for the assemble_context tool.
type AssembleOutput struct {
	SystemMessage string           `json:"system_message"`
	Sections      []domain.Section `json:"sections"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "retrieve_context",
		Description: "Find knowledge base passages for a question and render them with numbered citations",
	}, s.handleRetrieve)

	if s.ports.Extractor != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "extract_text",
			Description: "Extract clean text from a PDF, DOCX or text policy document",
		}, s.handleExtract)
	}

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "chunk_policy_text",
		Description: "Cut policy text into consecutive fixed-size pieces without overlap; the pieces concatenate back to the input",
	}, s.handleChunk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "chunk_text",
		Description: "Normalise whitespace and split text into overlapping chunks",
	}, s.handleChunkText)

	if s.ports.Chat != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "assemble_context",
			Description: "Build the system message an insurance assistant would answer with",
		}, s.handleAssemble)
	}
}

// handleRetrieve handles the retrieve_context tool invocation.
func (s *Server) handleRetrieve(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrieveInput,
) (*mcp.CallToolResult, RetrieveOutput, error) {
	if input.Query == "" {
		return nil, RetrieveOutput{}, fmt.Errorf("%w: query is required", domain.ErrInvalidInput)
	}

	result := s.ports.Retriever.RetrieveContext(ctx, input.Query, input.TopK)

	output := RetrieveOutput{
		Context: result.Context,
		Chunks:  make([]ChunkReference, len(result.Chunks)),
		Count:   len(result.Chunks),
	}
	for i, c := range result.Chunks {
		output.Chunks[i] = ChunkReference{
			Citation: i + 1,
			Label:    c.Label(),
			Source:   c.Source,
			Chunk:    c.Chunk,
			Score:    c.Score,
			Text:     c.Text,
		}
	}

	return nil, output, nil
}

// handleExtract handles the extract_text tool invocation.
func (s *Server) handleExtract(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ExtractInput,
) (*mcp.CallToolResult, ExtractOutput, error) {
	var ext domain.Extraction
	switch {
	case input.Path != "":
		ext = s.ports.Extractor.ExtractFile(ctx, input.Path, input.MIME, input.MaxChars)
	case input.Data != "":
		data, err := base64.StdEncoding.DecodeString(input.Data)
		if err != nil {
			return nil, ExtractOutput{}, fmt.Errorf("%w: data is not valid base64", domain.ErrInvalidInput)
		}
		ext = s.ports.Extractor.Extract(ctx, data, input.MIME, input.Name, input.MaxChars)
	default:
		return nil, ExtractOutput{}, fmt.Errorf("%w: path or data is required", domain.ErrInvalidInput)
	}

	output := ExtractOutput{
		Text:   ext.Text,
		OK:     ext.OK,
		Format: ext.Format.String(),
	}
	if ext.Err != nil {
		output.Error = ext.Err.Error()
	}
	return nil, output, nil
}

// handleChunk handles the chunk_policy_text tool invocation.
func (s *Server) handleChunk(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input ChunkInput,
) (*mcp.CallToolResult, ChunkOutput, error) {
	size := input.ChunkSize
	if size <= 0 {
		size = domain.DefaultPolicyChunkSize
	}
	chunks := chunker.SplitFixed(input.Text, size)
	return nil, ChunkOutput{Chunks: chunks, Count: len(chunks)}, nil
}

// handleChunkText handles the chunk_text tool invocation.
func (s *Server) handleChunkText(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input ChunkTextInput,
) (*mcp.CallToolResult, ChunkOutput, error) {
	overlap := chunker.DefaultChunkOverlap
	if input.Overlap != nil {
		overlap = *input.Overlap
	}
	chunks := chunker.ChunkText(input.Text,
		chunker.WithChunkSize(input.ChunkSize),
		chunker.WithOverlap(overlap),
	)
	if chunks == nil {
		chunks = []string{}
	}
	return nil, ChunkOutput{Chunks: chunks, Count: len(chunks)}, nil
}

// handleAssemble handles the assemble_context tool invocation.
func (s *Server) handleAssemble(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AssembleInput,
) (*mcp.CallToolResult, AssembleOutput, error) {
	if input.Question == "" {
		return nil, AssembleOutput{}, errors.New("question is required")
	}

	req := domain.ChatRequest{
		Messages:               []domain.ChatMessage{{Role: domain.RoleUser, Content: input.Question}},
		UseRAG:                 input.UseRAG,
		AdditionalInstructions: input.Instructions,
		PolicyText:             input.PolicyText,
	}
	assembled, _ := s.ports.Chat.BuildContext(ctx, req)

	return nil, AssembleOutput{
		SystemMessage: assembled.String(),
		Sections:      assembled.Sections,
	}, nil
}
